package ports

import (
	"context"
	"time"

	"github.com/aretw0/stepflow/pkg/domain"
)

// Executor defines the engine surface used by transport adapters (HTTP, MCP).
type Executor interface {
	// Execute runs the definition to completion. It never returns an error:
	// every failure is represented in the result.
	Execute(ctx context.Context, def *domain.Definition, input map[string]any, deadline time.Duration) domain.ExecutionResult

	// Result loads a previously persisted execution.
	Result(ctx context.Context, id string) (domain.ExecutionResult, error)

	// Results lists the IDs of persisted executions.
	Results(ctx context.Context) ([]string, error)
}
