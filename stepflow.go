package stepflow

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/aretw0/stepflow/internal/logging"
	"github.com/aretw0/stepflow/internal/runtime"
	"github.com/aretw0/stepflow/pkg/adapters/memory"
	"github.com/aretw0/stepflow/pkg/capability"
	"github.com/aretw0/stepflow/pkg/domain"
	"github.com/aretw0/stepflow/pkg/observability"
	"github.com/aretw0/stepflow/pkg/ports"
	"golang.org/x/sync/errgroup"
)

// Engine is the high-level entry point for the Stepflow library.
// It wraps the internal runtime with capability wiring, result persistence
// and metrics.
type Engine struct {
	runtime         *runtime.Engine
	registry        *capability.Registry
	store           ports.ResultStore
	metrics         *observability.Metrics
	hooks           domain.LifecycleHooks
	logger          *slog.Logger
	defaultDeadline time.Duration
	runtimeOpts     []runtime.EngineOption
}

// Option defines a functional option for configuring the Engine.
type Option func(*Engine)

// WithLogger sets a custom structured logger for the engine.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		e.logger = logger
	}
}

// WithLifecycleHooks registers observability hooks. Hooks registered more
// than once are chained in registration order.
func WithLifecycleHooks(hooks domain.LifecycleHooks) Option {
	return func(e *Engine) {
		e.hooks = e.hooks.Merge(hooks)
	}
}

// WithCapability registers fn under the task resource name.
func WithCapability(name string, fn capability.Func) Option {
	return func(e *Engine) {
		e.registry.Register(name, fn)
	}
}

// WithDetector binds detector to the detect_labels resource.
func WithDetector(detector ports.LabelDetector) Option {
	return WithCapability(capability.DetectLabelsResource, capability.DetectLabels(detector))
}

// WithResultStore persists every finished execution to store.
func WithResultStore(store ports.ResultStore) Option {
	return func(e *Engine) {
		e.store = store
	}
}

// WithDefaultDeadline sets the deadline used when neither Execute nor the
// definition provides one.
func WithDefaultDeadline(d time.Duration) Option {
	return func(e *Engine) {
		e.defaultDeadline = d
	}
}

// WithMetrics records state, task and execution metrics on m.
func WithMetrics(m *observability.Metrics) Option {
	return func(e *Engine) {
		e.metrics = m
	}
}

// WithRuntimeOptions passes low-level options (clock, id generator, step
// limit) to the underlying runtime.
func WithRuntimeOptions(opts ...runtime.EngineOption) Option {
	return func(e *Engine) {
		e.runtimeOpts = append(e.runtimeOpts, opts...)
	}
}

// New initializes a new Stepflow Engine. Without a result store, results are
// kept in memory.
func New(opts ...Option) *Engine {
	eng := &Engine{
		registry: capability.NewRegistry(),
	}
	for _, opt := range opts {
		opt(eng)
	}

	// Ensure logger is initialized (so we don't pass nil to runtime, which would overwrite its default)
	if eng.logger == nil {
		eng.logger = logging.NewNop()
	}
	if eng.store == nil {
		eng.store = memory.NewStore()
	}

	hooks := eng.hooks
	if eng.metrics != nil {
		hooks = eng.metrics.Hooks().Merge(hooks)
	}

	runtimeOpts := []runtime.EngineOption{
		runtime.WithLogger(eng.logger),
		runtime.WithLifecycleHooks(hooks),
		runtime.WithDefaultDeadline(eng.defaultDeadline),
	}
	runtimeOpts = append(runtimeOpts, eng.runtimeOpts...)

	eng.runtime = runtime.NewEngine(eng.registry, runtimeOpts...)
	return eng
}

// Execute runs def to a terminal outcome under deadline and persists the
// result. It never returns an error: every failure is represented in the
// result. Persistence failures are logged, not surfaced.
func (e *Engine) Execute(ctx context.Context, def *domain.Definition, input map[string]any, deadline time.Duration) domain.ExecutionResult {
	result := e.runtime.Execute(ctx, def, input, deadline)

	if e.metrics != nil {
		e.metrics.ObserveResult(result)
	}
	if err := e.store.Save(context.WithoutCancel(ctx), result); err != nil {
		e.logger.Error("failed to persist execution result", "execution_id", result.ID, "error", err)
	}
	return result
}

// RunBatch executes def once per input, at most concurrency runs at a time
// (unbounded when concurrency <= 0). Runs are independent: each owns its
// context and they share only the read-only definition. Results are returned
// in input order.
func (e *Engine) RunBatch(ctx context.Context, def *domain.Definition, inputs []map[string]any, concurrency int) []domain.ExecutionResult {
	results := make([]domain.ExecutionResult, len(inputs))

	var g errgroup.Group
	if concurrency > 0 {
		g.SetLimit(concurrency)
	}
	for i, input := range inputs {
		g.Go(func() error {
			results[i] = e.Execute(ctx, def, input, 0)
			return nil
		})
	}
	_ = g.Wait()

	return results
}

// Upload stores an object through store and returns its locator, ready to be
// passed as run input.
func (e *Engine) Upload(ctx context.Context, store ports.ObjectStore, key string, r io.Reader, contentType string) (domain.Locator, error) {
	loc, err := store.Put(ctx, key, r, contentType)
	if err != nil {
		return domain.Locator{}, fmt.Errorf("failed to upload %s: %w", key, err)
	}
	e.logger.Info("object uploaded", "locator", loc.String())
	return loc, nil
}

// Result loads a persisted execution.
func (e *Engine) Result(ctx context.Context, id string) (domain.ExecutionResult, error) {
	return e.store.Load(ctx, id)
}

// Results lists the IDs of persisted executions.
func (e *Engine) Results(ctx context.Context) ([]string, error) {
	return e.store.List(ctx)
}

// Capabilities returns the registered task resource names.
func (e *Engine) Capabilities() []string {
	return e.registry.Names()
}

var _ ports.Executor = (*Engine)(nil)
