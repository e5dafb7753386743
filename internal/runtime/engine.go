package runtime

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/aretw0/sharewalk/internal/logging"
	"github.com/aretw0/sharewalk/pkg/domain"
	"github.com/aretw0/sharewalk/pkg/ports"
)

// Engine advances a traversal stack one pagination unit at a time.
type Engine struct {
	tree    ports.TreeProvider
	sharing ports.SharingSource
	actor   string
	hooks   domain.LifecycleHooks
	logger  *slog.Logger
}

// EngineOption configures the Engine.
type EngineOption func(*Engine)

// WithLogger sets the structured logger.
func WithLogger(logger *slog.Logger) EngineOption {
	return func(e *Engine) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// WithLifecycleHooks registers observability hooks.
func WithLifecycleHooks(hooks domain.LifecycleHooks) EngineOption {
	return func(e *Engine) {
		e.hooks = hooks
	}
}

// NewEngine creates an engine classifying nodes on behalf of actor.
func NewEngine(tree ports.TreeProvider, sharing ports.SharingSource, actor string, opts ...EngineOption) *Engine {
	e := &Engine{
		tree:    tree,
		sharing: sharing,
		actor:   actor,
		logger:  logging.NewNop(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Step performs one unit of work on the active frame of stack, appending at
// most one record to out.
//
// Within a container every leaf item is listed before any child container.
// A child is pushed as soon as it is listed, so its subtree is drained before
// the next sibling. Step mutates stack in place; on error the stack is left
// as it was before the failing pagination call.
func (e *Engine) Step(ctx context.Context, stack *domain.Stack, out ports.RecordWriter) error {
	top := stack.Top()
	if top == nil {
		return domain.ErrEmptyStack
	}

	switch {
	case top.LeafCursor != nil:
		return e.stepLeaf(ctx, stack, top, out)
	case top.ChildCursor != nil:
		return e.stepChild(ctx, stack, top, out)
	default:
		return fmt.Errorf("%w: container %q (%s) at depth %d", domain.ErrCursorDesync, top.Name, top.ID, stack.Len())
	}
}

func (e *Engine) stepLeaf(ctx context.Context, stack *domain.Stack, top *domain.Frame, out ports.RecordWriter) error {
	if top.LeafCursor.End {
		top.LeafCursor = nil
		e.emitStep(ctx, domain.OpLeafDone, stack, stack.Path())
		return nil
	}

	item, next, err := e.tree.ListItems(ctx, top.Node(), *top.LeafCursor)
	if err != nil {
		return fmt.Errorf("failed to list items of %q: %w", stack.Path(), err)
	}

	if item == nil {
		// An empty page that still carries a token is progress, not exhaustion.
		if next != nil {
			top.LeafCursor = next.Clone()
			e.emitStep(ctx, domain.OpLeafAdvance, stack, stack.Path())
			return nil
		}
		top.LeafCursor = nil
		e.emitStep(ctx, domain.OpLeafDone, stack, stack.Path())
		return nil
	}

	path := stack.Join(item.Name)
	if err := e.report(ctx, out, *item, path, domain.KindLeaf); err != nil {
		return err
	}
	top.LeafCursor = domain.NextCursor(next)
	e.emitStep(ctx, domain.OpLeafAdvance, stack, path)
	return nil
}

func (e *Engine) stepChild(ctx context.Context, stack *domain.Stack, top *domain.Frame, out ports.RecordWriter) error {
	if top.ChildCursor.End {
		e.pop(ctx, stack)
		return nil
	}

	child, next, err := e.tree.ListContainers(ctx, top.Node(), *top.ChildCursor)
	if err != nil {
		return fmt.Errorf("failed to list containers of %q: %w", stack.Path(), err)
	}

	if child == nil {
		if next != nil {
			top.ChildCursor = next.Clone()
			e.emitStep(ctx, domain.OpChildAdvance, stack, stack.Path())
			return nil
		}
		e.pop(ctx, stack)
		return nil
	}

	path := stack.Join(child.Name)
	if err := e.report(ctx, out, *child, path, domain.KindContainer); err != nil {
		return err
	}
	top.ChildCursor = domain.NextCursor(next)
	stack.Push(domain.NewFrame(*child))

	e.logger.Debug("Descending", "path", path, "depth", stack.Len())
	e.emitStep(ctx, domain.OpDescend, stack, path)
	return nil
}

func (e *Engine) pop(ctx context.Context, stack *domain.Stack) {
	path := stack.Path()
	stack.Pop()
	e.logger.Debug("Container visited", "path", path, "depth", stack.Len())
	e.emitStep(ctx, domain.OpPop, stack, path)
}

// report classifies node and appends it to out when it is reportable.
func (e *Engine) report(ctx context.Context, out ports.RecordWriter, node domain.Node, path string, kind domain.Kind) error {
	access, err := e.access(ctx, node)
	if err != nil {
		return fmt.Errorf("failed to read sharing of %q: %w", path, err)
	}

	class := Classify(access, e.actor)
	if !class.Reportable() {
		return nil
	}

	rec := domain.Record{Path: path, Kind: kind, Classification: class}
	if err := out.Append(ctx, rec); err != nil {
		return fmt.Errorf("failed to append record %q: %w", path, err)
	}
	if e.hooks.OnRecord != nil {
		e.hooks.OnRecord(ctx, rec)
	}
	return nil
}

func (e *Engine) access(ctx context.Context, node domain.Node) (domain.Access, error) {
	if node.Access != nil {
		return *node.Access, nil
	}
	if e.sharing == nil {
		return domain.Access{}, fmt.Errorf("node %s carries no sharing metadata and no sharing source is configured", node.ID)
	}
	return e.sharing.Access(ctx, node)
}

func (e *Engine) emitStep(ctx context.Context, op domain.StepOp, stack *domain.Stack, path string) {
	if e.hooks.OnStep == nil {
		return
	}
	e.hooks.OnStep(ctx, domain.StepEvent{Op: op, Depth: stack.Len(), Path: path})
}
