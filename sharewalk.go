package sharewalk

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/aretw0/sharewalk/internal/logging"
	"github.com/aretw0/sharewalk/internal/runtime"
	"github.com/aretw0/sharewalk/pkg/domain"
	"github.com/aretw0/sharewalk/pkg/ports"
	"github.com/aretw0/sharewalk/pkg/session"
)

// Version is the release of this module.
const Version = "0.4.0"

// Mode is how an invocation obtained its initial stack.
type Mode = runtime.Mode

const (
	ModeFreshRoot = runtime.ModeFreshRoot
	ModeFreshPath = runtime.ModeFreshPath
	ModeResume    = runtime.ModeResume
)

// OutcomeState tells whether an invocation finished the traversal.
type OutcomeState = runtime.OutcomeState

const (
	Finished  = runtime.Finished
	Suspended = runtime.Suspended
)

// Clock is the wall-clock source used to enforce the budget.
type Clock interface {
	Now() time.Time
}

// Scanner is the high-level entry point: it wires a tree, a checkpoint store
// and an output store into resumable invocations.
type Scanner struct {
	tree    ports.TreeProvider
	sharing ports.SharingSource
	store   ports.CheckpointStore
	output  ports.OutputStore

	guard  *session.Manager
	hooks  domain.LifecycleHooks
	clock  Clock
	key    string
	logger *slog.Logger
}

// Option defines a functional option for configuring the Scanner.
type Option func(*Scanner)

// WithLogger sets a custom structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Scanner) {
		s.logger = logger
	}
}

// WithLifecycleHooks registers observability hooks.
func WithLifecycleHooks(hooks domain.LifecycleHooks) Option {
	return func(s *Scanner) {
		s.hooks = hooks
	}
}

// WithClock replaces the system clock.
func WithClock(clock Clock) Option {
	return func(s *Scanner) {
		s.clock = clock
	}
}

// WithCheckpointKey overrides domain.CheckpointKey.
func WithCheckpointKey(key string) Option {
	return func(s *Scanner) {
		s.key = key
	}
}

// WithGuard serializes invocations through a session manager.
func WithGuard(guard *session.Manager) Option {
	return func(s *Scanner) {
		s.guard = guard
	}
}

// New creates a Scanner. sharing may be nil when tree listings always carry
// sharing metadata.
func New(tree ports.TreeProvider, sharing ports.SharingSource, store ports.CheckpointStore, output ports.OutputStore, opts ...Option) (*Scanner, error) {
	if tree == nil || store == nil || output == nil {
		return nil, errors.New("tree, checkpoint store and output store are required")
	}
	s := &Scanner{
		tree:    tree,
		sharing: sharing,
		store:   store,
		output:  output,
		clock:   runtime.SystemClock{},
		key:     domain.CheckpointKey,
		logger:  logging.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = logging.NewNop()
	}
	return s, nil
}

// Invocation holds the operator inputs of one invocation.
type Invocation struct {
	// ForceFresh discards any checkpoint and starts from the root.
	ForceFresh bool
	// StartPath starts a fresh traversal below this container path.
	StartPath string
	// Budget is the wall time the invocation may spend stepping.
	Budget time.Duration
	// Actor overrides the identity reported by the sharing source.
	Actor string
}

// Result summarizes one invocation.
type Result struct {
	RunID   string
	Mode    Mode
	State   OutcomeState
	Steps   int
	Records int
	Elapsed time.Duration

	// Depth is the stack depth persisted on suspend.
	Depth int
	// CheckpointID identifies the checkpoint written on suspend.
	CheckpointID string
	// Status is the run metadata as left by this invocation.
	Status domain.RunMetadata
}

// Invoke runs one budgeted slice of the traversal.
//
// The output table's status reads "running" while the invocation steps, "no"
// after a suspend and "yes" once the traversal finishes. A failed invocation
// leaves "running" behind and the previous checkpoint in place.
func (s *Scanner) Invoke(ctx context.Context, inv Invocation) (*Result, error) {
	if inv.Budget <= 0 {
		return nil, fmt.Errorf("budget must be positive, got %s", inv.Budget)
	}
	if s.guard == nil {
		return s.invoke(ctx, inv)
	}

	var res *Result
	err := s.guard.WithLock(ctx, s.key, func(ctx context.Context) error {
		var err error
		res, err = s.invoke(ctx, inv)
		return err
	})
	return res, err
}

func (s *Scanner) invoke(ctx context.Context, inv Invocation) (*Result, error) {
	start := s.clock.Now()

	actor, err := s.actor(ctx, inv)
	if err != nil {
		return nil, err
	}

	sel, err := runtime.Select(ctx, runtime.SelectOptions{
		ForceFresh: inv.ForceFresh,
		StartPath:  inv.StartPath,
		Key:        s.key,
	}, s.tree, s.store, s.logger)
	if err != nil {
		return nil, err
	}

	table, meta, err := s.openTable(ctx, sel, start)
	if err != nil {
		return nil, err
	}

	engine := runtime.NewEngine(s.tree, s.sharing, actor,
		runtime.WithLogger(s.logger),
		runtime.WithLifecycleHooks(s.hooks),
	)
	loop := runtime.NewLoop(engine, s.store,
		runtime.WithClock(s.clock),
		runtime.WithCheckpointKey(s.key),
		runtime.WithLoopLogger(s.logger),
	)

	res := &Result{RunID: sel.RunID, Mode: sel.Mode, Status: meta}
	outcome, err := loop.Run(ctx, sel.RunID, start, inv.Budget, sel.Stack, table)
	if outcome != nil {
		res.Steps = outcome.Steps
		res.Records = outcome.Records
		res.Elapsed = outcome.Elapsed
	}
	if err != nil {
		s.logger.Error("Invocation failed", "run_id", sel.RunID, "steps", res.Steps, "err", err)
		return res, err
	}

	res.State = outcome.State
	meta.Completion = domain.CompletionNo
	if outcome.State == runtime.Finished {
		meta.Completion = domain.CompletionYes
	} else if outcome.Checkpoint != nil {
		res.CheckpointID = outcome.Checkpoint.ID
		res.Depth = len(outcome.Checkpoint.Frames)
	}
	if err := table.SetStatus(context.WithoutCancel(ctx), meta); err != nil {
		return res, fmt.Errorf("failed to update run status: %w", err)
	}
	res.Status = meta
	return res, nil
}

func (s *Scanner) actor(ctx context.Context, inv Invocation) (string, error) {
	if inv.Actor != "" {
		return inv.Actor, nil
	}
	if s.sharing == nil {
		return "", errors.New("no acting identity: set Invocation.Actor or provide a sharing source")
	}
	actor, err := s.sharing.ActingIdentity(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to get acting identity: %w", err)
	}
	return actor, nil
}

// openTable creates the table of a fresh run or reopens the current one on
// resume, and marks it running.
func (s *Scanner) openTable(ctx context.Context, sel *runtime.Selection, now time.Time) (ports.OutputTable, domain.RunMetadata, error) {
	if sel.NewTable {
		meta := domain.NewRunMetadata(sel.RunID, now)
		table, err := s.output.Create(ctx, meta)
		if err != nil {
			return nil, domain.RunMetadata{}, fmt.Errorf("failed to create output table: %w", err)
		}
		return table, meta, nil
	}

	table, err := s.output.Current(ctx)
	if err != nil {
		return nil, domain.RunMetadata{}, fmt.Errorf("failed to open output table for resume: %w", err)
	}
	meta, err := table.Status(ctx)
	if err != nil {
		return nil, domain.RunMetadata{}, fmt.Errorf("failed to read run status: %w", err)
	}
	if meta.RunID != sel.RunID {
		return nil, domain.RunMetadata{}, fmt.Errorf("%w: checkpoint %s, table %s", domain.ErrRunMismatch, sel.RunID, meta.RunID)
	}

	meta = meta.Resumed(now)
	if err := table.SetStatus(ctx, meta); err != nil {
		return nil, domain.RunMetadata{}, fmt.Errorf("failed to update run status: %w", err)
	}
	return table, meta, nil
}
