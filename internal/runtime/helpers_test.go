package runtime_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/aretw0/sharewalk/internal/runtime"
	"github.com/aretw0/sharewalk/pkg/adapters/memory"
	"github.com/aretw0/sharewalk/pkg/domain"
	"github.com/stretchr/testify/require"
)

const (
	me    = "me@example.com"
	other = "other@example.com"
)

var (
	private = memory.PrivateAccess(me)
	shared  = memory.LinkAccess(me)
)

// tickClock advances by tick on every call to Now.
type tickClock struct {
	mu   sync.Mutex
	now  time.Time
	tick time.Duration
}

func newTickClock(tick time.Duration) *tickClock {
	return &tickClock{now: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC), tick: tick}
}

func (c *tickClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	now := c.now
	c.now = c.now.Add(c.tick)
	return now
}

// recorder collects records and step events in order.
type recorder struct {
	records []domain.Record
	steps   []domain.StepEvent
}

func (r *recorder) Append(ctx context.Context, rec domain.Record) error {
	r.records = append(r.records, rec)
	return nil
}

func (r *recorder) hooks() domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnStep: func(_ context.Context, ev domain.StepEvent) {
			r.steps = append(r.steps, ev)
		},
	}
}

// scenarioTree is: root { a.txt (shared), sub (private) { b.txt (shared) } }.
func scenarioTree() *memory.Tree {
	tree := memory.NewTree(me)
	tree.MustAddItem(memory.RootID, "a.txt", shared)
	sub := tree.MustAddContainer(memory.RootID, "sub", private)
	tree.MustAddItem(sub, "b.txt", shared)
	return tree
}

// deepTree mixes private and shared nodes over several levels and shapes:
// empty containers, containers with only leaves, with only children, and both.
func deepTree(t *testing.T) (*memory.Tree, treeStats) {
	t.Helper()
	tree := memory.NewTree(me)
	var st treeStats
	st.containers = 1

	addItem := func(parent, name string, access domain.Access) {
		tree.MustAddItem(parent, name, access)
		st.items++
	}
	addDir := func(parent, name string, access domain.Access) string {
		st.containers++
		return tree.MustAddContainer(parent, name, access)
	}

	addItem(memory.RootID, "L1", shared)
	addItem(memory.RootID, "L2", private)
	addItem(memory.RootID, "L3", domain.Access{Level: domain.AccessPrivate, Owner: me, Editors: []string{other}})

	c1 := addDir(memory.RootID, "C1", shared)
	addItem(c1, "c1-a", shared)
	addDir(c1, "empty", private)
	c1y := addDir(c1, "only-dirs", shared)
	c1y1 := addDir(c1y, "inner", shared)
	addItem(c1y1, "deep.txt", shared)
	addItem(c1y1, "deep-private.txt", private)
	addDir(c1y, "inner2", private)

	c2 := addDir(memory.RootID, "C2", private)
	for _, n := range []string{"x", "y", "z"} {
		addItem(c2, n, shared)
	}
	c2a := addDir(c2, "C1", shared) // same name as an uncle
	addItem(c2a, "dup-name.txt", shared)

	addDir(memory.RootID, "C3", domain.Access{Level: domain.AccessPrivate, Owner: other})
	return tree, st
}

type treeStats struct {
	containers int // including root
	items      int
}

// runUntilDone invokes Select + Loop repeatedly with the given budget, the way
// separate process invocations would, and returns the records written.
func runUntilDone(t *testing.T, tree *memory.Tree, budget time.Duration, tick time.Duration) ([]domain.Record, int) {
	t.Helper()
	ctx := context.Background()
	store := memory.NewStore()
	out := &recorder{}
	clock := newTickClock(tick)

	invocations := 0
	for {
		invocations++
		require.Less(t, invocations, 10_000, "traversal did not terminate")

		sel, err := runtime.Select(ctx, runtime.SelectOptions{}, tree, store, nil)
		require.NoError(t, err)
		if invocations == 1 {
			require.Equal(t, runtime.ModeFreshRoot, sel.Mode)
		} else {
			require.Equal(t, runtime.ModeResume, sel.Mode)
		}

		engine := runtime.NewEngine(tree, tree, me)
		loop := runtime.NewLoop(engine, store, runtime.WithClock(clock))
		outcome, err := loop.Run(ctx, sel.RunID, clock.Now(), budget, sel.Stack, out)
		require.NoError(t, err)

		if outcome.State == runtime.Finished {
			return out.records, invocations
		}
	}
}
