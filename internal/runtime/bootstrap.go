package runtime

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/aretw0/sharewalk/internal/logging"
	"github.com/aretw0/sharewalk/pkg/checkpoint"
	"github.com/aretw0/sharewalk/pkg/domain"
	"github.com/aretw0/sharewalk/pkg/ports"
	"github.com/google/uuid"
)

// Mode is how an invocation obtains its initial stack.
type Mode string

const (
	ModeFreshRoot Mode = "fresh_root" // New traversal from the tree root
	ModeFreshPath Mode = "fresh_path" // New traversal from a resolved path
	ModeResume    Mode = "resume"     // Continue the stored checkpoint
)

// SelectOptions are the operator inputs of the bootstrap decision.
type SelectOptions struct {
	// ForceFresh discards any stored checkpoint.
	ForceFresh bool
	// StartPath starts a fresh traversal below the given container path.
	StartPath string
	// Key overrides domain.CheckpointKey.
	Key string
}

// Selection is the outcome of Select.
type Selection struct {
	Mode  Mode
	Stack *domain.Stack
	RunID string

	// NewTable tells the caller to begin a new output table (fresh modes)
	// instead of appending to the current one (resume).
	NewTable bool

	// Checkpoint is the decoded checkpoint when resuming.
	Checkpoint *checkpoint.Checkpoint
}

// Select picks exactly one of fresh-root, fresh-path or resume.
//
// Precedence: ForceFresh, then StartPath, then a stored checkpoint, then a
// fresh root start when no checkpoint is stored. A stored checkpoint that
// fails to decode is fatal; so is a StartPath that does not resolve. Fresh
// selections delete the superseded checkpoint.
func Select(ctx context.Context, opts SelectOptions, tree ports.TreeProvider, store ports.CheckpointStore, logger *slog.Logger) (*Selection, error) {
	if logger == nil {
		logger = logging.NewNop()
	}
	key := opts.Key
	if key == "" {
		key = domain.CheckpointKey
	}

	if opts.ForceFresh {
		logger.Info("Forced fresh start")
		return freshRoot(ctx, tree, store, key)
	}

	if segments := domain.SplitPath(opts.StartPath); len(segments) > 0 {
		node, err := tree.Resolve(ctx, segments)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve start path %q: %w", opts.StartPath, err)
		}
		logger.Info("Fresh start at path", "path", opts.StartPath, "container_id", node.ID)
		return fresh(ctx, ModeFreshPath, node, store, key)
	}

	blob, err := store.Get(ctx, key)
	if errors.Is(err, domain.ErrCheckpointNotFound) {
		logger.Info("No checkpoint stored, starting at root")
		return freshRoot(ctx, tree, store, key)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read checkpoint: %w", err)
	}

	cp, err := checkpoint.Decode(blob)
	if errors.Is(err, domain.ErrCheckpointNotFound) {
		logger.Info("Empty checkpoint stored, starting at root")
		return freshRoot(ctx, tree, store, key)
	}
	if err != nil {
		return nil, err
	}

	logger.Info("Resuming from checkpoint",
		"checkpoint_id", cp.ID,
		"run_id", cp.RunID,
		"saved_at", cp.SavedAt,
		"depth", len(cp.Frames),
	)
	return &Selection{
		Mode:       ModeResume,
		Stack:      cp.Stack(),
		RunID:      cp.RunID,
		NewTable:   false,
		Checkpoint: cp,
	}, nil
}

func freshRoot(ctx context.Context, tree ports.TreeProvider, store ports.CheckpointStore, key string) (*Selection, error) {
	root, err := tree.Root(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get tree root: %w", err)
	}
	return fresh(ctx, ModeFreshRoot, root, store, key)
}

func fresh(ctx context.Context, mode Mode, start domain.Node, store ports.CheckpointStore, key string) (*Selection, error) {
	if err := store.Delete(ctx, key); err != nil {
		return nil, fmt.Errorf("failed to discard superseded checkpoint: %w", err)
	}
	return &Selection{
		Mode:     mode,
		Stack:    domain.NewStack(domain.NewFrame(start)),
		RunID:    uuid.NewString(),
		NewTable: true,
	}, nil
}
