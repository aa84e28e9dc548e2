package runtime_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/aretw0/stepflow/internal/runtime"
	"github.com/aretw0/stepflow/pkg/capability"
	"github.com/aretw0/stepflow/pkg/domain"
	"github.com/aretw0/stepflow/pkg/dsl"
	"github.com/stretchr/testify/require"
)

// qualityControl builds the reference workflow used across engine tests.
func qualityControl(t *testing.T) *domain.Definition {
	t.Helper()
	b := dsl.New("FoodQualityControl").Timeout(30 * time.Second)

	b.Task("Detect Object").
		Resource(capability.DetectLabelsResource).
		Param(capability.ParamBucket, "'images'").
		Param(capability.ParamKey, "$.Key").
		Next("Extract Name")

	b.Transform("Extract Name").
		Project("$.Labels[0].Name", "food").
		Next("Is Pizza?")

	b.Choice("Is Pizza?").
		When("$.food", "Pizza", "Quality Control Passed").
		Otherwise("Quality Control Failed")

	b.Succeed("Quality Control Passed")
	b.Fail("Quality Control Failed", "QualityControlFailed", "food is not pizza")

	def, err := b.Build()
	require.NoError(t, err)
	return def
}

// labelsCapability returns a detection capability answering with fixed labels.
func labelsCapability(labels ...domain.Label) capability.Func {
	return func(ctx context.Context, args map[string]any) (map[string]any, error) {
		return domain.LabelsResult(labels), nil
	}
}

func newEngine(fn capability.Func, opts ...runtime.EngineOption) *runtime.Engine {
	reg := capability.NewRegistry()
	reg.Register(capability.DetectLabelsResource, fn)
	return runtime.NewEngine(reg, opts...)
}

// steppingClock advances by step on every reading.
type steppingClock struct {
	mu   sync.Mutex
	now  time.Time
	step time.Duration
}

func (c *steppingClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(c.step)
	return c.now
}

func (c *steppingClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}
