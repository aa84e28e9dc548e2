package runtime

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/aretw0/stepflow/pkg/capability"
	"github.com/aretw0/stepflow/pkg/domain"
	"github.com/google/uuid"
)

const (
	// DefaultDeadline bounds a run when neither the caller nor the definition sets one.
	DefaultDeadline = 30 * time.Second
	// DefaultMaxSteps guards against cycles in definitions that were never validated.
	DefaultMaxSteps = 1000
)

// CapabilityResolver resolves the resource named by a task state.
type CapabilityResolver interface {
	Lookup(name string) (capability.Func, bool)
}

// Engine is the core workflow interpreter. It holds no per-run state, so a
// single Engine may execute any number of runs concurrently.
type Engine struct {
	capabilities    CapabilityResolver
	logger          *slog.Logger
	hooks           domain.LifecycleHooks
	defaultDeadline time.Duration
	maxSteps        int
	now             func() time.Time
	newID           func() string
}

// EngineOption defines a functional option for configuring the Engine.
type EngineOption func(*Engine)

// WithLogger sets a custom structured logger for the engine.
func WithLogger(logger *slog.Logger) EngineOption {
	return func(e *Engine) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// WithLifecycleHooks registers observability hooks.
func WithLifecycleHooks(hooks domain.LifecycleHooks) EngineOption {
	return func(e *Engine) {
		e.hooks = hooks
	}
}

// WithDefaultDeadline sets the deadline used when neither Execute nor the definition provides one.
func WithDefaultDeadline(d time.Duration) EngineOption {
	return func(e *Engine) {
		if d > 0 {
			e.defaultDeadline = d
		}
	}
}

// WithMaxSteps sets the maximum number of states a single run may enter.
func WithMaxSteps(n int) EngineOption {
	return func(e *Engine) {
		if n > 0 {
			e.maxSteps = n
		}
	}
}

// WithClock overrides the wall clock used for deadline checks.
func WithClock(now func() time.Time) EngineOption {
	return func(e *Engine) {
		if now != nil {
			e.now = now
		}
	}
}

// WithIDGenerator overrides how execution IDs are generated.
func WithIDGenerator(fn func() string) EngineOption {
	return func(e *Engine) {
		if fn != nil {
			e.newID = fn
		}
	}
}

// NewEngine creates a new engine resolving task resources through capabilities.
func NewEngine(capabilities CapabilityResolver, opts ...EngineOption) *Engine {
	if capabilities == nil {
		capabilities = capability.NewRegistry()
	}
	e := &Engine{
		capabilities:    capabilities,
		logger:          slog.New(slog.NewTextHandler(io.Discard, nil)),
		defaultDeadline: DefaultDeadline,
		maxSteps:        DefaultMaxSteps,
		now:             time.Now,
		newID:           uuid.NewString,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// run carries the mutable state of one execution.
type run struct {
	def    *domain.Definition
	result domain.ExecutionResult
	data   domain.Context
	expiry time.Time
	limit  time.Duration
	logger *slog.Logger
}

// Execute drives def from its start state to a terminal state, enforcing the
// deadline. A non-positive deadline falls back to def.Timeout and then to the
// engine default. Execute never panics and never returns an error: every
// failure is reported through the result.
func (e *Engine) Execute(ctx context.Context, def *domain.Definition, input map[string]any, deadline time.Duration) domain.ExecutionResult {
	start := e.now()
	r := &run{
		def: def,
		result: domain.ExecutionResult{
			ID:        e.newID(),
			StartedAt: start,
			Visited:   []string{},
		},
		data: domain.NewContext(input),
	}
	if def == nil {
		return e.finish(r, domain.StatusErrored, domain.NewStepError(domain.KindInvalidDefinition, "", "definition is nil"))
	}
	r.result.Workflow = def.Name

	r.limit = deadline
	if r.limit <= 0 {
		r.limit = def.Timeout
	}
	if r.limit <= 0 {
		r.limit = e.defaultDeadline
	}
	r.expiry = start.Add(r.limit)
	r.logger = e.logger.With("workflow", def.Name, "execution_id", r.result.ID)
	r.logger.Debug("execution started", "start_at", def.StartAt, "deadline", r.limit)

	if err := checkInput(def.InputSchema, r.data); err != nil {
		return e.finish(r, domain.StatusErrored, err)
	}

	runCtx, cancel := context.WithDeadline(ctx, r.expiry)
	defer cancel()

	current := def.StartAt
	for steps := 0; ; steps++ {
		if e.expired(r) {
			return e.finish(r, domain.StatusTimedOut, e.timeoutError(r, current))
		}
		if err := ctx.Err(); err != nil {
			return e.finish(r, domain.StatusErrored, &domain.StepError{Kind: domain.KindCanceled, StateID: current, Detail: err.Error(), Err: err})
		}
		if steps >= e.maxSteps {
			return e.finish(r, domain.StatusErrored, domain.NewStepError(domain.KindInvalidDefinition, current, fmt.Sprintf("step limit of %d exceeded", e.maxSteps)))
		}

		state, ok := def.State(current)
		if !ok || state == nil {
			return e.finish(r, domain.StatusErrored, domain.NewStepError(domain.KindInvalidDefinition, current, "state not found"))
		}

		r.result.Visited = append(r.result.Visited, state.ID)
		e.emitStateEnter(ctx, r, state)

		if state.IsTerminal() {
			e.emitStateLeave(ctx, r, state)
			r.result.Terminal = state.ID
			if state.Outcome == domain.OutcomeSucceeded {
				return e.finish(r, domain.StatusSucceeded, nil)
			}
			return e.finishFailed(r, state)
		}

		next, data, serr := e.step(ctx, runCtx, r, state)
		if serr != nil {
			if serr.StateID == "" {
				serr.StateID = state.ID
			}
			status := domain.StatusErrored
			if serr.Kind == domain.KindTimedOut {
				status = domain.StatusTimedOut
			}
			return e.finish(r, status, serr)
		}

		e.emitStateLeave(ctx, r, state)
		r.logger.Debug("state completed", "state", state.ID, "next", next)
		r.data = data
		current = next
	}
}

// step evaluates a non-terminal state and returns its successor and the new context.
func (e *Engine) step(ctx, runCtx context.Context, r *run, state *domain.State) (string, domain.Context, *domain.StepError) {
	switch state.Type {
	case domain.StateTask:
		data, serr := e.runTask(ctx, runCtx, r, state)
		if serr != nil {
			return "", nil, serr
		}
		return state.Next, data, nil

	case domain.StateTransform:
		data, err := project(r.data, state.Projections)
		if err != nil {
			return "", nil, asStepError(err, domain.KindInvalidInput)
		}
		return state.Next, data, nil

	case domain.StateChoice:
		next, err := Route(r.data, state.Rules, state.Default)
		if err != nil {
			return "", nil, asStepError(err, domain.KindMissingField)
		}
		return next, r.data, nil

	default:
		return "", nil, domain.NewStepError(domain.KindInvalidDefinition, state.ID, fmt.Sprintf("unknown state type %q", state.Type))
	}
}

func (e *Engine) expired(r *run) bool {
	return !e.now().Before(r.expiry)
}

func (e *Engine) timeoutError(r *run, stateID string) *domain.StepError {
	return &domain.StepError{
		Kind:    domain.KindTimedOut,
		StateID: stateID,
		Detail:  fmt.Sprintf("deadline of %s exceeded", r.limit),
		Err:     context.DeadlineExceeded,
	}
}

func (e *Engine) finish(r *run, status domain.Status, serr *domain.StepError) domain.ExecutionResult {
	r.result.Status = status
	r.result.Error = serr
	r.result.Context = r.data
	r.result.FinishedAt = e.now()

	logger := r.logger
	if logger == nil {
		logger = e.logger
	}
	switch status {
	case domain.StatusSucceeded:
		logger.Info("execution succeeded", "terminal", r.result.Terminal, "duration", r.result.Duration())
	case domain.StatusFailed:
		logger.Info("execution failed", "terminal", r.result.Terminal, "duration", r.result.Duration())
	default:
		logger.Warn("execution aborted", "status", status, "error", serr, "duration", r.result.Duration())
	}
	return r.result
}

func (e *Engine) finishFailed(r *run, state *domain.State) domain.ExecutionResult {
	if state.Error != "" || state.Cause != "" {
		r.result.Failure = &domain.Failure{Error: state.Error, Cause: state.Cause}
	}
	return e.finish(r, domain.StatusFailed, nil)
}

// asStepError classifies err, defaulting to fallback for unclassified errors.
func asStepError(err error, fallback domain.ErrorKind) *domain.StepError {
	if se, ok := err.(*domain.StepError); ok {
		return se
	}
	return &domain.StepError{Kind: domain.KindOf(err, fallback), Detail: err.Error(), Err: err}
}

func (e *Engine) emitStateEnter(ctx context.Context, r *run, state *domain.State) {
	if e.hooks.OnStateEnter == nil {
		return
	}
	defer e.recoverHook(r, domain.EventStateEnter)
	e.hooks.OnStateEnter(ctx, e.stateEvent(r, domain.EventStateEnter, state))
}

func (e *Engine) emitStateLeave(ctx context.Context, r *run, state *domain.State) {
	if e.hooks.OnStateLeave == nil {
		return
	}
	defer e.recoverHook(r, domain.EventStateLeave)
	e.hooks.OnStateLeave(ctx, e.stateEvent(r, domain.EventStateLeave, state))
}

// recoverHook contains a panicking lifecycle hook; the run continues.
func (e *Engine) recoverHook(r *run, typ domain.EventType) {
	if p := recover(); p != nil {
		logger := r.logger
		if logger == nil {
			logger = e.logger
		}
		logger.Error("lifecycle hook panicked", "event", typ, "panic", p)
	}
}

func (e *Engine) stateEvent(r *run, typ domain.EventType, state *domain.State) *domain.StateEvent {
	return &domain.StateEvent{
		EventBase: domain.EventBase{
			Timestamp:   e.now(),
			Type:        typ,
			ExecutionID: r.result.ID,
			Workflow:    r.result.Workflow,
		},
		StateID:   state.ID,
		StateType: state.Type,
	}
}
