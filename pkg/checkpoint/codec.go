package checkpoint

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/aretw0/sharewalk/pkg/domain"
	"github.com/go-playground/validator/v10"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// Encode serializes a checkpoint. It refuses to write a checkpoint that
// Decode would reject.
func Encode(c *Checkpoint) ([]byte, error) {
	if err := check(c); err != nil {
		return nil, fmt.Errorf("refusing to encode: %w", err)
	}
	data, err := json.Marshal(c)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal checkpoint: %w", err)
	}
	return data, nil
}

// Decode parses a blob written by Encode.
// Returns domain.ErrCheckpointNotFound for an empty or null blob and an error
// wrapping domain.ErrInvalidCheckpoint for anything structurally invalid.
func Decode(blob []byte) (*Checkpoint, error) {
	trimmed := bytes.TrimSpace(blob)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return nil, domain.ErrCheckpointNotFound
	}

	dec := json.NewDecoder(bytes.NewReader(trimmed))
	dec.DisallowUnknownFields()

	var c Checkpoint
	if err := dec.Decode(&c); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrInvalidCheckpoint, err)
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("%w: trailing data after checkpoint", domain.ErrInvalidCheckpoint)
	}

	if err := check(&c); err != nil {
		return nil, err
	}
	return &c, nil
}

func check(c *Checkpoint) error {
	if c == nil {
		return fmt.Errorf("%w: nil checkpoint", domain.ErrInvalidCheckpoint)
	}
	if c.Version != Version {
		return fmt.Errorf("%w: unsupported version %d", domain.ErrInvalidCheckpoint, c.Version)
	}
	if c.SavedAt.IsZero() {
		return fmt.Errorf("%w: missing saved_at", domain.ErrInvalidCheckpoint)
	}
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrInvalidCheckpoint, err)
	}
	return nil
}
