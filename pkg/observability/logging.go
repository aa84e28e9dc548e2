package observability

import (
	"context"
	"log/slog"

	"github.com/aretw0/stepflow/pkg/domain"
)

// LogHooks returns lifecycle hooks that audit every transition on logger at
// Debug level.
func LogHooks(logger *slog.Logger) domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnStateEnter: func(ctx context.Context, e *domain.StateEvent) {
			logger.DebugContext(ctx, "state_enter", "execution_id", e.ExecutionID, "state", e.StateID, "type", e.StateType)
		},
		OnStateLeave: func(ctx context.Context, e *domain.StateEvent) {
			logger.DebugContext(ctx, "state_leave", "execution_id", e.ExecutionID, "state", e.StateID)
		},
		OnTaskCall: func(ctx context.Context, e *domain.TaskEvent) {
			logger.DebugContext(ctx, "task_call", "execution_id", e.ExecutionID, "state", e.StateID, "resource", e.Resource)
		},
		OnTaskReturn: func(ctx context.Context, e *domain.TaskEvent) {
			logger.DebugContext(ctx, "task_return",
				"execution_id", e.ExecutionID,
				"state", e.StateID,
				"resource", e.Resource,
				"duration", e.Duration,
				"is_error", e.IsError,
			)
		},
	}
}
