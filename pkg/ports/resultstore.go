package ports

import (
	"context"

	"github.com/aretw0/stepflow/pkg/domain"
)

// ResultStore defines the interface for persisting terminal execution results.
type ResultStore interface {
	// Save persists the result under its ID.
	Save(ctx context.Context, result domain.ExecutionResult) error

	// Load retrieves the result for a given execution ID.
	// Returns domain.ErrResultNotFound if the execution does not exist.
	Load(ctx context.Context, id string) (domain.ExecutionResult, error)

	// List returns the IDs of all stored executions.
	List(ctx context.Context) ([]string, error)

	// Delete removes the result for a given execution ID.
	Delete(ctx context.Context, id string) error
}
