package observability_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/aretw0/sharewalk/pkg/domain"
	"github.com/aretw0/sharewalk/pkg/observability"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetrics_Hooks(t *testing.T) {
	m := observability.NewMetrics()
	hooks := m.Hooks()
	ctx := context.Background()

	hooks.OnStep(ctx, domain.StepEvent{Op: domain.OpLeafAdvance, Depth: 1})
	hooks.OnStep(ctx, domain.StepEvent{Op: domain.OpLeafAdvance, Depth: 1})
	hooks.OnStep(ctx, domain.StepEvent{Op: domain.OpDescend, Depth: 2})
	hooks.OnRecord(ctx, domain.Record{Path: "a", Kind: domain.KindContainer, Classification: domain.Shared})

	expected := `
# HELP sharewalk_steps_total Traversal steps executed, by operation.
# TYPE sharewalk_steps_total counter
sharewalk_steps_total{op="descend"} 1
sharewalk_steps_total{op="leaf_advance"} 2
`
	require.NoError(t, testutil.GatherAndCompare(m.Registry(), strings.NewReader(expected), "sharewalk_steps_total"))

	expected = `
# HELP sharewalk_stack_depth Depth of the traversal stack after the latest step.
# TYPE sharewalk_stack_depth gauge
sharewalk_stack_depth 2
`
	require.NoError(t, testutil.GatherAndCompare(m.Registry(), strings.NewReader(expected), "sharewalk_stack_depth"))

	expected = `
# HELP sharewalk_records_total Shared nodes written to the output table, by kind.
# TYPE sharewalk_records_total counter
sharewalk_records_total{kind="container"} 1
`
	require.NoError(t, testutil.GatherAndCompare(m.Registry(), strings.NewReader(expected), "sharewalk_records_total"))
}

func TestMetrics_ObserveInvocation(t *testing.T) {
	m := observability.NewMetrics()
	now := time.Unix(1_800_000_000, 0)

	m.ObserveInvocation("suspended", 3*time.Second, nil, now)
	m.ObserveInvocation("finished", time.Second, nil, now)
	m.ObserveInvocation("", time.Second, errors.New("boom"), now.Add(time.Minute))

	expected := `
# HELP sharewalk_invocations_total Invocations by outcome (finished, suspended, failed).
# TYPE sharewalk_invocations_total counter
sharewalk_invocations_total{outcome="failed"} 1
sharewalk_invocations_total{outcome="finished"} 1
sharewalk_invocations_total{outcome="suspended"} 1
`
	require.NoError(t, testutil.GatherAndCompare(m.Registry(), strings.NewReader(expected), "sharewalk_invocations_total"))

	expected = `
# HELP sharewalk_last_success_timestamp_seconds Unix time of the latest invocation that did not fail.
# TYPE sharewalk_last_success_timestamp_seconds gauge
sharewalk_last_success_timestamp_seconds 1.8e+09
`
	require.NoError(t, testutil.GatherAndCompare(m.Registry(), strings.NewReader(expected), "sharewalk_last_success_timestamp_seconds"))
}

func TestMetrics_WriteTextfile(t *testing.T) {
	m := observability.NewMetrics()
	m.Hooks().OnStep(context.Background(), domain.StepEvent{Op: domain.OpPop})

	path := filepath.Join(t.TempDir(), "sharewalk.prom")
	require.NoError(t, m.WriteTextfile(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `sharewalk_steps_total{op="pop"} 1`)
}

func TestChain(t *testing.T) {
	var steps, records int
	counting := domain.LifecycleHooks{
		OnStep:   func(context.Context, domain.StepEvent) { steps++ },
		OnRecord: func(context.Context, domain.Record) { records++ },
	}
	hooks := observability.Chain(counting, domain.LifecycleHooks{}, counting)

	hooks.OnStep(context.Background(), domain.StepEvent{})
	hooks.OnRecord(context.Background(), domain.Record{})

	assert.Equal(t, 2, steps)
	assert.Equal(t, 2, records)
}
