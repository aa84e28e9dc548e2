package capability_test

import (
	"context"
	"errors"
	"testing"

	"github.com/aretw0/stepflow/pkg/capability"
	"github.com/aretw0/stepflow/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type detectorFunc func(ctx context.Context, loc domain.Locator) ([]domain.Label, error)

func (f detectorFunc) Detect(ctx context.Context, loc domain.Locator) ([]domain.Label, error) {
	return f(ctx, loc)
}

func TestRegistry(t *testing.T) {
	reg := capability.NewRegistry()
	noop := func(context.Context, map[string]any) (map[string]any, error) { return nil, nil }

	reg.Register("b", noop)
	reg.Register("a", noop)

	_, ok := reg.Lookup("a")
	assert.True(t, ok)
	_, ok = reg.Lookup("missing")
	assert.False(t, ok)
	assert.Equal(t, []string{"a", "b"}, reg.Names())
}

func TestDetectLabels(t *testing.T) {
	var seen domain.Locator
	fn := capability.DetectLabels(detectorFunc(func(_ context.Context, loc domain.Locator) ([]domain.Label, error) {
		seen = loc
		return []domain.Label{{Name: "Pizza", Confidence: 99}}, nil
	}))

	out, err := fn(context.Background(), map[string]any{"Bucket": "images", "Key": "255911618.jpeg"})

	require.NoError(t, err)
	assert.Equal(t, domain.Locator{Bucket: "images", Key: "255911618.jpeg"}, seen)
	assert.Equal(t, domain.LabelsResult([]domain.Label{{Name: "Pizza", Confidence: 99}}), out)
}

func TestDetectLabels_InvalidArguments(t *testing.T) {
	fn := capability.DetectLabels(detectorFunc(func(context.Context, domain.Locator) ([]domain.Label, error) {
		t.Fatal("detector must not be called")
		return nil, nil
	}))

	for name, args := range map[string]map[string]any{
		"missing bucket": {"Key": "k"},
		"numeric key":    {"Bucket": "b", "Key": 7},
		"escaping key":   {"Bucket": "b", "Key": "../k"},
	} {
		t.Run(name, func(t *testing.T) {
			_, err := fn(context.Background(), args)
			assert.ErrorIs(t, err, domain.ErrInvalidInput)
		})
	}
}

func TestDetectLabels_WrapsDetectorError(t *testing.T) {
	fn := capability.DetectLabels(detectorFunc(func(context.Context, domain.Locator) ([]domain.Label, error) {
		return nil, domain.ErrServiceUnavailable
	}))

	_, err := fn(context.Background(), map[string]any{"Bucket": "b", "Key": "k"})

	assert.True(t, errors.Is(err, domain.ErrServiceUnavailable))
	assert.Contains(t, err.Error(), "b/k")
}
