package blobstore_test

import (
	"context"
	"log/slog"
	"os"
	"strings"
	"testing"

	"github.com/aretw0/stepflow/pkg/adapters/blobstore"
	"github.com/aretw0/stepflow/pkg/domain"
	contract "github.com/aretw0/stepflow/pkg/ports/tests"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const azuriteConnString = "DefaultEndpointsProtocol=http;AccountName=devstoreaccount1;AccountKey=Eby8vdM02xNOcqFlqUwJPLlmEtlCDXJ1OUzFT50uSRZ6IFsuFq2UVErCz4I6tq/K1SZFPTOtr/KBHBeksoGMGw==;BlobEndpoint=http://127.0.0.1:10000/devstoreaccount1;"

func TestNew(t *testing.T) {
	store, err := blobstore.New(blobstore.Config{Container: "images", ConnectionString: azuriteConnString}, slog.Default())

	require.NoError(t, err)
	assert.NotNil(t, store)
}

func TestNew_InvalidConnectionString(t *testing.T) {
	_, err := blobstore.New(blobstore.Config{Container: "images", ConnectionString: "not-a-connection-string"}, nil)

	assert.Error(t, err)
}

func TestStore_RejectsInvalidKeysOffline(t *testing.T) {
	store, err := blobstore.New(blobstore.Config{Container: "images", ConnectionString: azuriteConnString}, nil)
	require.NoError(t, err)
	ctx := context.Background()

	for _, key := range []string{"", "../escape.jpeg"} {
		_, err := store.Put(ctx, key, strings.NewReader("x"), "image/jpeg")
		assert.ErrorIs(t, err, domain.ErrInvalidInput, "put %q", key)

		_, err = store.Exists(ctx, key)
		assert.ErrorIs(t, err, domain.ErrInvalidInput, "exists %q", key)
	}
}

func TestConfig_Finalize(t *testing.T) {
	t.Setenv("TEST_BLOB_CONTAINER", "from-env")
	t.Setenv("TEST_BLOB_CONN", azuriteConnString)

	cfg := blobstore.Config{}
	err := cfg.Finalize(&blobstore.Env{Container: "TEST_BLOB_CONTAINER", ConnectionString: "TEST_BLOB_CONN"})

	require.NoError(t, err)
	assert.Equal(t, "from-env", cfg.Container)
	assert.Equal(t, azuriteConnString, cfg.ConnectionString)
}

func TestConfig_FinalizeDefaults(t *testing.T) {
	cfg := blobstore.Config{}

	err := cfg.Finalize(nil)

	assert.ErrorContains(t, err, "connection_string required")
	assert.Equal(t, blobstore.DefaultContainer, cfg.Container)
}

// TestStore_Contract runs against a live Azurite or Azure account when
// STEPFLOW_AZURE_CONNECTION_STRING is set.
func TestStore_Contract(t *testing.T) {
	conn := os.Getenv("STEPFLOW_AZURE_CONNECTION_STRING")
	if conn == "" {
		t.Skip("STEPFLOW_AZURE_CONNECTION_STRING not set")
	}
	store, err := blobstore.New(blobstore.Config{Container: "stepflow-contract", ConnectionString: conn}, nil)
	require.NoError(t, err)
	require.NoError(t, store.EnsureContainer(context.Background()))

	contract.ObjectStoreContractTest(t, store)
}
