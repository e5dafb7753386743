package observability

import (
	"context"
	"fmt"
	"time"

	"github.com/aretw0/sharewalk/pkg/domain"
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "sharewalk"

// Metrics holds the collectors for one process.
type Metrics struct {
	registry *prometheus.Registry

	steps       *prometheus.CounterVec
	records     *prometheus.CounterVec
	depth       prometheus.Gauge
	invocations *prometheus.CounterVec
	duration    prometheus.Histogram
	lastSuccess prometheus.Gauge
}

// NewMetrics creates the collectors on a private registry.
func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		steps: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "steps_total",
			Help:      "Traversal steps executed, by operation.",
		}, []string{"op"}),
		records: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "records_total",
			Help:      "Shared nodes written to the output table, by kind.",
		}, []string{"kind"}),
		depth: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "stack_depth",
			Help:      "Depth of the traversal stack after the latest step.",
		}),
		invocations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "invocations_total",
			Help:      "Invocations by outcome (finished, suspended, failed).",
		}, []string{"outcome"}),
		duration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "invocation_duration_seconds",
			Help:      "Wall time spent stepping per invocation.",
			Buckets:   prometheus.ExponentialBuckets(1, 2, 12),
		}),
		lastSuccess: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_success_timestamp_seconds",
			Help:      "Unix time of the latest invocation that did not fail.",
		}),
	}
	m.registry.MustRegister(m.steps, m.records, m.depth, m.invocations, m.duration, m.lastSuccess)
	return m
}

// Registry returns the registry holding the collectors.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Hooks returns lifecycle hooks that feed the step and record collectors.
func (m *Metrics) Hooks() domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnStep: func(_ context.Context, e domain.StepEvent) {
			m.steps.WithLabelValues(string(e.Op)).Inc()
			m.depth.Set(float64(e.Depth))
		},
		OnRecord: func(_ context.Context, r domain.Record) {
			m.records.WithLabelValues(string(r.Kind)).Inc()
		},
	}
}

// ObserveInvocation records how an invocation ended. An empty outcome with a
// non-nil err counts as failed.
func (m *Metrics) ObserveInvocation(outcome string, elapsed time.Duration, err error, now time.Time) {
	if err != nil {
		outcome = "failed"
	} else {
		m.lastSuccess.Set(float64(now.Unix()))
	}
	m.invocations.WithLabelValues(outcome).Inc()
	m.duration.Observe(elapsed.Seconds())
}

// WriteTextfile writes the registry in the text exposition format, for the
// node_exporter textfile collector.
func (m *Metrics) WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, m.registry); err != nil {
		return fmt.Errorf("write metrics textfile: %w", err)
	}
	return nil
}

// Chain combines hooks so several observers see every event.
func Chain(hooks ...domain.LifecycleHooks) domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnStep: func(ctx context.Context, e domain.StepEvent) {
			for _, h := range hooks {
				if h.OnStep != nil {
					h.OnStep(ctx, e)
				}
			}
		},
		OnRecord: func(ctx context.Context, r domain.Record) {
			for _, h := range hooks {
				if h.OnRecord != nil {
					h.OnRecord(ctx, r)
				}
			}
		},
	}
}
