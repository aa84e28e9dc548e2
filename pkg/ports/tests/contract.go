package tests

import (
	"context"
	"strings"
	"testing"

	"github.com/aretw0/stepflow/pkg/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ObjectStoreContractTest is a reusable test suite that verifies if an adapter complies with ports.ObjectStore.
func ObjectStoreContractTest(t *testing.T, store ports.ObjectStore) {
	t.Helper()
	ctx := context.Background()

	t.Run("Put_ReturnsLocator", func(t *testing.T) {
		loc, err := store.Put(ctx, "images/pizza.jpeg", strings.NewReader("jpeg-bytes"), "image/jpeg")
		require.NoError(t, err)
		assert.Equal(t, "images/pizza.jpeg", loc.Key)
		assert.NotEmpty(t, loc.Bucket)

		ok, err := store.Exists(ctx, "images/pizza.jpeg")
		require.NoError(t, err)
		assert.True(t, ok)
	})

	t.Run("Exists_Missing", func(t *testing.T) {
		ok, err := store.Exists(ctx, "images/missing.jpeg")
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("Put_RejectsInvalidKeys", func(t *testing.T) {
		for _, key := range []string{"", "../escape.jpeg"} {
			_, err := store.Put(ctx, key, strings.NewReader("x"), "image/jpeg")
			assert.Error(t, err, "key %q should be rejected", key)
		}
	})
}
