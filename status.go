package sharewalk

import (
	"context"
	"errors"
	"fmt"

	"github.com/aretw0/sharewalk/pkg/checkpoint"
	"github.com/aretw0/sharewalk/pkg/domain"
)

// Status is what an operator sees between invocations.
type Status struct {
	// Run is the status of the current output table. Nil when none exists.
	Run *domain.RunMetadata
	// Checkpoint is the stored suspend point. Nil when none is stored.
	Checkpoint *checkpoint.Checkpoint
	// Path is the display path of the deepest frame of Checkpoint.
	Path string
}

// Status reads the current table status and checkpoint without changing them.
// An undecodable checkpoint is reported as an error.
func (s *Scanner) Status(ctx context.Context) (*Status, error) {
	st := &Status{}

	table, err := s.output.Current(ctx)
	switch {
	case errors.Is(err, domain.ErrNoOutputTable):
	case err != nil:
		return nil, fmt.Errorf("failed to open output table: %w", err)
	default:
		meta, err := table.Status(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to read run status: %w", err)
		}
		st.Run = &meta
	}

	blob, err := s.store.Get(ctx, s.key)
	if errors.Is(err, domain.ErrCheckpointNotFound) {
		return st, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read checkpoint: %w", err)
	}
	cp, err := checkpoint.Decode(blob)
	if errors.Is(err, domain.ErrCheckpointNotFound) {
		return st, nil
	}
	if err != nil {
		return st, err
	}
	st.Checkpoint = cp
	st.Path = cp.Stack().Path()
	return st, nil
}

// Records returns the rows of the current output table.
func (s *Scanner) Records(ctx context.Context) ([]domain.Record, error) {
	table, err := s.output.Current(ctx)
	if err != nil {
		return nil, err
	}
	return table.Records(ctx)
}

// Reset deletes the stored checkpoint so the next invocation starts fresh.
func (s *Scanner) Reset(ctx context.Context) error {
	if err := s.store.Delete(ctx, s.key); err != nil {
		return fmt.Errorf("failed to delete checkpoint: %w", err)
	}
	s.logger.Info("Checkpoint deleted", "key", s.key)
	return nil
}
