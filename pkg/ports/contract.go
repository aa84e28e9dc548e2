package ports

import (
	"context"
	"testing"
	"time"

	"github.com/aretw0/stepflow/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// RunResultStoreContract runs a suite of tests to verify that a ResultStore implementation
// adheres to the defined interface contract.
func RunResultStoreContract(t *testing.T, store ResultStore) {
	ctx := context.Background()
	id := "contract-test-execution-" + time.Now().Format("20060102150405")

	newResult := func(id string) domain.ExecutionResult {
		now := time.Now().UTC().Truncate(time.Millisecond)
		return domain.ExecutionResult{
			ID:         id,
			Workflow:   "contract",
			Status:     domain.StatusSucceeded,
			Context:    domain.Context{"food": "Pizza"},
			Terminal:   "passed",
			Visited:    []string{"detect", "extract", "choice", "passed"},
			StartedAt:  now,
			FinishedAt: now.Add(time.Second),
		}
	}

	t.Run("Save and Load", func(t *testing.T) {
		result := newResult(id)
		result.Context["confidence"] = 98.2

		err := store.Save(ctx, result)
		require.NoError(t, err, "Save should not return error")

		loaded, err := store.Load(ctx, id)
		require.NoError(t, err, "Load should not return error")
		assert.Equal(t, result.Status, loaded.Status)
		assert.Equal(t, result.Terminal, loaded.Terminal)
		assert.Equal(t, result.Visited, loaded.Visited)
		assert.Equal(t, "Pizza", loaded.Context["food"])
		// JSON backends may not preserve numeric types exactly, so only check existence.
		assert.NotNil(t, loaded.Context["confidence"])
		assert.True(t, result.StartedAt.Equal(loaded.StartedAt))
	})

	t.Run("Save preserves errors", func(t *testing.T) {
		result := newResult(id + "-errored")
		result.Status = domain.StatusErrored
		result.Terminal = ""
		result.Error = domain.NewStepError(domain.KindMissingField, "extract", "index 0 out of range")

		require.NoError(t, store.Save(ctx, result))
		defer func() { _ = store.Delete(ctx, result.ID) }()

		loaded, err := store.Load(ctx, result.ID)
		require.NoError(t, err)
		require.NotNil(t, loaded.Error)
		assert.Equal(t, domain.KindMissingField, loaded.Error.Kind)
		assert.ErrorIs(t, loaded.Error, domain.ErrMissingField)
	})

	t.Run("Load Non-Existent", func(t *testing.T) {
		_, err := store.Load(ctx, "non-existent-"+id)
		assert.ErrorIs(t, err, domain.ErrResultNotFound)
	})

	t.Run("Delete", func(t *testing.T) {
		err := store.Save(ctx, newResult(id))
		require.NoError(t, err)

		err = store.Delete(ctx, id)
		require.NoError(t, err, "Delete should not return error")

		_, err = store.Load(ctx, id)
		assert.ErrorIs(t, err, domain.ErrResultNotFound, "Load after Delete should return ErrResultNotFound")
	})

	t.Run("List", func(t *testing.T) {
		id1 := id + "-1"
		id2 := id + "-2"
		_ = store.Save(ctx, newResult(id1))
		_ = store.Save(ctx, newResult(id2))

		defer func() {
			_ = store.Delete(ctx, id1)
			_ = store.Delete(ctx, id2)
		}()

		ids, err := store.List(ctx)
		require.NoError(t, err)
		assert.Contains(t, ids, id1)
		assert.Contains(t, ids, id2)
	})
}
