package cli

import (
	"context"
	"log/slog"

	"github.com/aretw0/sharewalk/pkg/domain"
)

// debugHooks logs every step and record at debug level.
func debugHooks(logger *slog.Logger) domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnStep: func(ctx context.Context, e domain.StepEvent) {
			logger.DebugContext(ctx, "step", "op", e.Op, "depth", e.Depth, "path", e.Path)
		},
		OnRecord: func(ctx context.Context, r domain.Record) {
			logger.DebugContext(ctx, "shared", "path", r.Path, "kind", r.Kind)
		},
	}
}
