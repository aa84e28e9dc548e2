package memory_test

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/aretw0/stepflow/pkg/adapters/memory"
	"github.com/aretw0/stepflow/pkg/domain"
	contract "github.com/aretw0/stepflow/pkg/ports/tests"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestObjectStore_Contract(t *testing.T) {
	contract.ObjectStoreContractTest(t, memory.NewObjectStore("service-integration"))
}

func TestObjectStore_Get(t *testing.T) {
	store := memory.NewObjectStore("b")
	_, err := store.Put(context.Background(), "k.jpeg", strings.NewReader("data"), "image/jpeg")
	require.NoError(t, err)

	obj, err := store.Get("k.jpeg")
	require.NoError(t, err)
	assert.Equal(t, "data", string(obj.Data))
	assert.Equal(t, "image/jpeg", obj.ContentType)

	_, err = store.Get("other")
	assert.ErrorIs(t, err, domain.ErrObjectNotFound)
}

func TestDetector_Scripted(t *testing.T) {
	d := memory.NewDetector(
		memory.WithLabels("pizza.jpeg", domain.Label{Name: "Pizza", Confidence: 99}),
		memory.WithDefaultLabels(domain.Label{Name: "Salad"}),
	)
	ctx := context.Background()

	labels, err := d.Detect(ctx, domain.Locator{Bucket: "b", Key: "pizza.jpeg"})
	require.NoError(t, err)
	assert.Equal(t, "Pizza", labels[0].Name)

	labels, err = d.Detect(ctx, domain.Locator{Bucket: "b", Key: "other.jpeg"})
	require.NoError(t, err)
	assert.Equal(t, "Salad", labels[0].Name)
	assert.Equal(t, 2, d.Calls())
}

func TestDetector_EmptyScriptIsNotMissing(t *testing.T) {
	d := memory.NewDetector(memory.WithLabels("blank.jpeg"))

	labels, err := d.Detect(context.Background(), domain.Locator{Bucket: "b", Key: "blank.jpeg"})

	require.NoError(t, err)
	assert.Empty(t, labels)
}

func TestDetector_Unknown(t *testing.T) {
	_, err := memory.NewDetector().Detect(context.Background(), domain.Locator{Bucket: "b", Key: "x"})

	assert.ErrorIs(t, err, domain.ErrObjectNotFound)
}

func TestDetector_LatencyHonorsContext(t *testing.T) {
	d := memory.NewDetector(memory.WithLatency(time.Minute), memory.WithDefaultLabels(domain.Label{Name: "Pizza"}))
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := d.Detect(ctx, domain.Locator{Bucket: "b", Key: "k"})

	assert.True(t, errors.Is(err, context.DeadlineExceeded))
}

func TestDetector_Error(t *testing.T) {
	d := memory.NewDetector(memory.WithError(domain.ErrServiceUnavailable))

	_, err := d.Detect(context.Background(), domain.Locator{Bucket: "b", Key: "k"})

	assert.ErrorIs(t, err, domain.ErrServiceUnavailable)
}
