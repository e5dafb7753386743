package sharewalk_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/aretw0/sharewalk"
	"github.com/aretw0/sharewalk/pkg/adapters/memory"
	"github.com/aretw0/sharewalk/pkg/checkpoint"
	"github.com/aretw0/sharewalk/pkg/domain"
	"github.com/aretw0/sharewalk/pkg/session"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const me = "me@example.com"

// tickClock advances by one second on every call to Now.
type tickClock struct {
	mu  sync.Mutex
	now time.Time
}

func newTickClock() *tickClock {
	return &tickClock{now: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)}
}

func (c *tickClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	now := c.now
	c.now = c.now.Add(time.Second)
	return now
}

// scenarioTree is: root { a.txt (shared), sub (private) { b.txt (shared) } }.
// A complete walk takes seven steps.
func scenarioTree() *memory.Tree {
	tree := memory.NewTree(me)
	tree.MustAddItem(memory.RootID, "a.txt", memory.LinkAccess(me))
	sub := tree.MustAddContainer(memory.RootID, "sub", memory.PrivateAccess(me))
	tree.MustAddItem(sub, "b.txt", memory.LinkAccess(me))
	return tree
}

type fixture struct {
	tree    *memory.Tree
	store   *memory.Store
	output  *memory.Output
	scanner *sharewalk.Scanner
}

func newFixture(t *testing.T, tree *memory.Tree, opts ...sharewalk.Option) *fixture {
	t.Helper()
	f := &fixture{tree: tree, store: memory.NewStore(), output: memory.NewOutput()}
	opts = append([]sharewalk.Option{sharewalk.WithClock(newTickClock())}, opts...)
	s, err := sharewalk.New(tree, tree, f.store, f.output, opts...)
	require.NoError(t, err)
	f.scanner = s
	return f
}

func (f *fixture) records(t *testing.T) []domain.Record {
	t.Helper()
	recs, err := f.scanner.Records(context.Background())
	require.NoError(t, err)
	return recs
}

func TestInvoke_SingleInvocationFinishes(t *testing.T) {
	f := newFixture(t, scenarioTree())

	res, err := f.scanner.Invoke(context.Background(), sharewalk.Invocation{Budget: time.Hour})
	require.NoError(t, err)

	assert.Equal(t, sharewalk.Finished, res.State)
	assert.Equal(t, sharewalk.ModeFreshRoot, res.Mode)
	assert.Equal(t, 7, res.Steps)
	assert.Equal(t, 2, res.Records)
	assert.Equal(t, domain.CompletionYes, res.Status.Completion)
	assert.Equal(t, 1, res.Status.Invocations)
	assert.Equal(t, []domain.Record{
		{Path: "a.txt", Kind: domain.KindLeaf, Classification: domain.Shared},
		{Path: "sub/b.txt", Kind: domain.KindLeaf, Classification: domain.Shared},
	}, f.records(t))
	assert.Empty(t, f.store.Keys(), "finished traversal leaves no checkpoint")
}

func TestInvoke_SuspendAndResume(t *testing.T) {
	f := newFixture(t, scenarioTree())
	ctx := context.Background()
	inv := sharewalk.Invocation{Budget: 3 * time.Second}

	first, err := f.scanner.Invoke(ctx, inv)
	require.NoError(t, err)
	assert.Equal(t, sharewalk.Suspended, first.State)
	assert.Equal(t, 3, first.Steps)
	assert.Equal(t, 2, first.Depth, "suspended inside sub")
	assert.NotEmpty(t, first.CheckpointID)
	assert.Equal(t, domain.CompletionNo, first.Status.Completion)
	assert.Equal(t, 1, first.Status.Invocations)

	second, err := f.scanner.Invoke(ctx, inv)
	require.NoError(t, err)
	assert.Equal(t, sharewalk.ModeResume, second.Mode)
	assert.Equal(t, first.RunID, second.RunID)
	assert.Equal(t, sharewalk.Suspended, second.State)
	assert.Equal(t, 2, second.Status.Invocations)

	third, err := f.scanner.Invoke(ctx, inv)
	require.NoError(t, err)
	assert.Equal(t, sharewalk.Finished, third.State)
	assert.Equal(t, 1, third.Steps)
	assert.Equal(t, 3, third.Status.Invocations)
	assert.Equal(t, domain.CompletionYes, third.Status.Completion)
	assert.True(t, third.Status.StartedAt.Before(third.Status.LastRunAt))

	assert.Len(t, f.output.Tables(), 1, "resumes append to the same table")
	assert.Equal(t, []domain.Record{
		{Path: "a.txt", Kind: domain.KindLeaf, Classification: domain.Shared},
		{Path: "sub/b.txt", Kind: domain.KindLeaf, Classification: domain.Shared},
	}, f.records(t))
}

func TestInvoke_AfterFinishStartsNewTable(t *testing.T) {
	f := newFixture(t, scenarioTree())
	ctx := context.Background()

	first, err := f.scanner.Invoke(ctx, sharewalk.Invocation{Budget: time.Hour})
	require.NoError(t, err)
	second, err := f.scanner.Invoke(ctx, sharewalk.Invocation{Budget: time.Hour})
	require.NoError(t, err)

	assert.Equal(t, sharewalk.ModeFreshRoot, second.Mode)
	assert.NotEqual(t, first.RunID, second.RunID)
	assert.Len(t, f.output.Tables(), 2)
	assert.Equal(t, 1, second.Status.Invocations)
}

func TestInvoke_StartPath(t *testing.T) {
	f := newFixture(t, scenarioTree())

	res, err := f.scanner.Invoke(context.Background(), sharewalk.Invocation{Budget: time.Hour, StartPath: "sub"})
	require.NoError(t, err)

	assert.Equal(t, sharewalk.ModeFreshPath, res.Mode)
	assert.Equal(t, []domain.Record{
		{Path: "b.txt", Kind: domain.KindLeaf, Classification: domain.Shared},
	}, f.records(t))
}

func TestInvoke_ForceFreshDiscardsCheckpoint(t *testing.T) {
	f := newFixture(t, scenarioTree())
	ctx := context.Background()

	first, err := f.scanner.Invoke(ctx, sharewalk.Invocation{Budget: 2 * time.Second})
	require.NoError(t, err)
	require.Equal(t, sharewalk.Suspended, first.State)

	res, err := f.scanner.Invoke(ctx, sharewalk.Invocation{Budget: time.Hour, ForceFresh: true})
	require.NoError(t, err)
	assert.Equal(t, sharewalk.ModeFreshRoot, res.Mode)
	assert.NotEqual(t, first.RunID, res.RunID)
	assert.Len(t, f.output.Tables(), 2)
	assert.Len(t, f.records(t), 2)
}

func TestInvoke_FailureLeavesRunningAndCheckpoint(t *testing.T) {
	f := newFixture(t, scenarioTree())
	ctx := context.Background()
	inv := sharewalk.Invocation{Budget: 3 * time.Second}

	_, err := f.scanner.Invoke(ctx, inv)
	require.NoError(t, err)
	saved, err := f.store.Get(ctx, domain.CheckpointKey)
	require.NoError(t, err)

	boom := errors.New("sheet quota exceeded")
	f.output.Tables()[0].FailAppend = boom

	_, err = f.scanner.Invoke(ctx, inv)
	require.ErrorIs(t, err, boom)

	status, err := f.output.Tables()[0].Status(ctx)
	require.NoError(t, err)
	assert.Equal(t, domain.CompletionRunning, status.Completion)
	assert.Equal(t, 2, status.Invocations)

	after, err := f.store.Get(ctx, domain.CheckpointKey)
	require.NoError(t, err)
	assert.Equal(t, saved, after, "failed invocation keeps the previous checkpoint")

	f.output.Tables()[0].FailAppend = nil
	res, err := f.scanner.Invoke(ctx, sharewalk.Invocation{Budget: time.Hour})
	require.NoError(t, err)
	assert.Equal(t, sharewalk.Finished, res.State)
	assert.Equal(t, 3, res.Status.Invocations)
	assert.Len(t, f.records(t), 2)
}

func TestInvoke_RunMismatch(t *testing.T) {
	f := newFixture(t, scenarioTree())
	ctx := context.Background()

	_, err := f.scanner.Invoke(ctx, sharewalk.Invocation{Budget: 2 * time.Second})
	require.NoError(t, err)

	// Someone started another table behind the checkpoint's back.
	_, err = f.output.Create(ctx, domain.NewRunMetadata("other-run", time.Now()))
	require.NoError(t, err)

	_, err = f.scanner.Invoke(ctx, sharewalk.Invocation{Budget: time.Hour})
	assert.ErrorIs(t, err, domain.ErrRunMismatch)
}

func TestInvoke_ResumeWithoutTable(t *testing.T) {
	tree := scenarioTree()
	f := newFixture(t, tree)
	ctx := context.Background()

	_, err := f.scanner.Invoke(ctx, sharewalk.Invocation{Budget: 2 * time.Second})
	require.NoError(t, err)

	// Same checkpoint, different (empty) output store.
	blob, err := f.store.Get(ctx, domain.CheckpointKey)
	require.NoError(t, err)
	store := memory.NewStore()
	require.NoError(t, store.Set(ctx, domain.CheckpointKey, blob))
	s, err := sharewalk.New(tree, tree, store, memory.NewOutput())
	require.NoError(t, err)

	_, err = s.Invoke(ctx, sharewalk.Invocation{Budget: time.Hour})
	assert.ErrorIs(t, err, domain.ErrNoOutputTable)
}

func TestInvoke_CorruptCheckpoint(t *testing.T) {
	f := newFixture(t, scenarioTree())
	ctx := context.Background()
	require.NoError(t, f.store.Set(ctx, domain.CheckpointKey, []byte(`{"version":1,`)))

	_, err := f.scanner.Invoke(ctx, sharewalk.Invocation{Budget: time.Hour})
	assert.ErrorIs(t, err, domain.ErrInvalidCheckpoint)

	res, err := f.scanner.Invoke(ctx, sharewalk.Invocation{Budget: time.Hour, ForceFresh: true})
	require.NoError(t, err)
	assert.Equal(t, sharewalk.Finished, res.State)
}

func TestInvoke_RejectsNonPositiveBudget(t *testing.T) {
	f := newFixture(t, scenarioTree())
	_, err := f.scanner.Invoke(context.Background(), sharewalk.Invocation{})
	assert.Error(t, err)
}

func TestInvoke_ActorOverride(t *testing.T) {
	f := newFixture(t, scenarioTree())

	// Everything is owned by me, so for someone else even private nodes are shared.
	_, err := f.scanner.Invoke(context.Background(), sharewalk.Invocation{Budget: time.Hour, Actor: "auditor@example.com"})
	require.NoError(t, err)
	assert.Equal(t, []domain.Record{
		{Path: "a.txt", Kind: domain.KindLeaf, Classification: domain.Shared},
		{Path: "sub", Kind: domain.KindContainer, Classification: domain.Shared},
		{Path: "sub/b.txt", Kind: domain.KindLeaf, Classification: domain.Shared},
	}, f.records(t))
}

func TestInvoke_HooksAndGuard(t *testing.T) {
	var steps, records int
	hooks := domain.LifecycleHooks{
		OnStep:   func(context.Context, domain.StepEvent) { steps++ },
		OnRecord: func(context.Context, domain.Record) { records++ },
	}
	f := newFixture(t, scenarioTree(),
		sharewalk.WithLifecycleHooks(hooks),
		sharewalk.WithGuard(session.NewManager()),
	)

	_, err := f.scanner.Invoke(context.Background(), sharewalk.Invocation{Budget: time.Hour})
	require.NoError(t, err)
	assert.Equal(t, 7, steps)
	assert.Equal(t, 2, records)
}

func TestStatusAndReset(t *testing.T) {
	f := newFixture(t, scenarioTree())
	ctx := context.Background()

	st, err := f.scanner.Status(ctx)
	require.NoError(t, err)
	assert.Nil(t, st.Run)
	assert.Nil(t, st.Checkpoint)

	res, err := f.scanner.Invoke(ctx, sharewalk.Invocation{Budget: 3 * time.Second})
	require.NoError(t, err)

	st, err = f.scanner.Status(ctx)
	require.NoError(t, err)
	require.NotNil(t, st.Run)
	assert.Equal(t, res.RunID, st.Run.RunID)
	require.NotNil(t, st.Checkpoint)
	assert.Equal(t, res.CheckpointID, st.Checkpoint.ID)
	assert.Equal(t, "sub", st.Path)

	require.NoError(t, f.scanner.Reset(ctx))
	st, err = f.scanner.Status(ctx)
	require.NoError(t, err)
	assert.Nil(t, st.Checkpoint)
}

func TestStatus_ReportsCorruptCheckpoint(t *testing.T) {
	f := newFixture(t, scenarioTree())
	ctx := context.Background()
	require.NoError(t, f.store.Set(ctx, domain.CheckpointKey, []byte("garbage")))

	_, err := f.scanner.Status(ctx)
	assert.ErrorIs(t, err, domain.ErrInvalidCheckpoint)
}

func TestInvoke_CheckpointMatchesResult(t *testing.T) {
	f := newFixture(t, scenarioTree())
	ctx := context.Background()

	res, err := f.scanner.Invoke(ctx, sharewalk.Invocation{Budget: 3 * time.Second})
	require.NoError(t, err)

	blob, err := f.store.Get(ctx, domain.CheckpointKey)
	require.NoError(t, err)
	cp, err := checkpoint.Decode(blob)
	require.NoError(t, err)
	assert.Equal(t, res.RunID, cp.RunID)
	assert.Equal(t, res.CheckpointID, cp.ID)
	assert.Len(t, cp.Frames, res.Depth)
}

func TestNew_RequiresStores(t *testing.T) {
	tree := scenarioTree()
	_, err := sharewalk.New(tree, tree, nil, memory.NewOutput())
	assert.Error(t, err)
	_, err = sharewalk.New(nil, tree, memory.NewStore(), memory.NewOutput())
	assert.Error(t, err)
}
