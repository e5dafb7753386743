package runtime

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/aretw0/sharewalk/internal/logging"
	"github.com/aretw0/sharewalk/pkg/checkpoint"
	"github.com/aretw0/sharewalk/pkg/domain"
	"github.com/aretw0/sharewalk/pkg/ports"
)

// OutcomeState tells how a run loop ended.
type OutcomeState string

const (
	// Finished means the stack emptied and the checkpoint was deleted.
	Finished OutcomeState = "finished"
	// Suspended means the budget ran out and the stack was persisted.
	Suspended OutcomeState = "suspended"
)

// Outcome summarizes one run of the loop.
type Outcome struct {
	State   OutcomeState
	Steps   int
	Records int
	Elapsed time.Duration

	// Checkpoint is the persisted snapshot when State is Suspended.
	Checkpoint *checkpoint.Checkpoint
}

// Loop drives an Engine under a wall-clock budget.
type Loop struct {
	engine *Engine
	store  ports.CheckpointStore
	clock  Clock
	key    string
	logger *slog.Logger
}

// LoopOption configures the Loop.
type LoopOption func(*Loop)

// WithClock replaces the system clock.
func WithClock(clock Clock) LoopOption {
	return func(l *Loop) {
		l.clock = clock
	}
}

// WithCheckpointKey overrides domain.CheckpointKey.
func WithCheckpointKey(key string) LoopOption {
	return func(l *Loop) {
		l.key = key
	}
}

// WithLoopLogger sets the structured logger.
func WithLoopLogger(logger *slog.Logger) LoopOption {
	return func(l *Loop) {
		if logger != nil {
			l.logger = logger
		}
	}
}

// NewLoop creates a run loop persisting its checkpoint into store.
func NewLoop(engine *Engine, store ports.CheckpointStore, opts ...LoopOption) *Loop {
	l := &Loop{
		engine: engine,
		store:  store,
		clock:  SystemClock{},
		key:    domain.CheckpointKey,
		logger: logging.NewNop(),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Run steps the engine until the stack is empty or budget has elapsed since start.
//
// The budget is checked between steps only, so a step is never interrupted.
// Context cancellation suspends like an exhausted budget, whether it is
// observed between steps or surfaces from a pagination call mid-step. A step error aborts the run without touching the stored
// checkpoint, leaving the previous suspend point as the resume point.
func (l *Loop) Run(ctx context.Context, runID string, start time.Time, budget time.Duration, stack *domain.Stack, out ports.RecordWriter) (*Outcome, error) {
	counter := &countingWriter{next: out}
	outcome := &Outcome{}

	for !stack.Empty() {
		if err := l.engine.Step(ctx, stack, counter); err != nil {
			outcome.Records = counter.n
			if ctx.Err() != nil && errors.Is(err, ctx.Err()) {
				// A cancelled step leaves the stack as it was, so it is a suspend point.
				outcome.Elapsed = l.clock.Now().Sub(start)
				if err := l.suspend(ctx, runID, stack, outcome); err != nil {
					return outcome, err
				}
				return outcome, nil
			}
			return outcome, fmt.Errorf("step %d failed: %w", outcome.Steps+1, err)
		}
		outcome.Steps++

		if stack.Empty() {
			break
		}

		elapsed := l.clock.Now().Sub(start)
		if elapsed >= budget || ctx.Err() != nil {
			outcome.Records = counter.n
			outcome.Elapsed = elapsed
			if err := l.suspend(ctx, runID, stack, outcome); err != nil {
				return outcome, err
			}
			return outcome, nil
		}
	}

	outcome.Records = counter.n
	outcome.Elapsed = l.clock.Now().Sub(start)
	outcome.State = Finished

	// Saving and deleting must survive a cancelled invocation context.
	if err := l.store.Delete(context.WithoutCancel(ctx), l.key); err != nil {
		return outcome, fmt.Errorf("failed to delete checkpoint: %w", err)
	}
	l.logger.Info("Traversal finished", "run_id", runID, "steps", outcome.Steps, "records", outcome.Records)
	return outcome, nil
}

func (l *Loop) suspend(ctx context.Context, runID string, stack *domain.Stack, outcome *Outcome) error {
	cp := checkpoint.New(runID, stack, l.clock.Now())
	blob, err := checkpoint.Encode(cp)
	if err != nil {
		return fmt.Errorf("failed to encode checkpoint: %w", err)
	}
	if err := l.store.Set(context.WithoutCancel(ctx), l.key, blob); err != nil {
		return fmt.Errorf("failed to save checkpoint: %w", err)
	}

	outcome.State = Suspended
	outcome.Checkpoint = cp
	l.logger.Info("Traversal suspended",
		"run_id", runID,
		"checkpoint_id", cp.ID,
		"depth", stack.Len(),
		"steps", outcome.Steps,
		"records", outcome.Records,
		"cancelled", ctx.Err() != nil,
	)
	return nil
}

// countingWriter counts appended records.
type countingWriter struct {
	next ports.RecordWriter
	n    int
}

func (w *countingWriter) Append(ctx context.Context, rec domain.Record) error {
	if err := w.next.Append(ctx, rec); err != nil {
		return err
	}
	w.n++
	return nil
}
