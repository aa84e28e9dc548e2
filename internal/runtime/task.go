package runtime

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/aretw0/stepflow/pkg/domain"
)

type taskOutcome struct {
	output map[string]any
	err    error
}

// runTask invokes the capability bound to state.Resource and merges its result.
//
// The call runs on its own goroutine so the engine can stop waiting at the
// deadline; the capability observes the deadline only through runCtx. A result
// arriving after expiry is discarded.
func (e *Engine) runTask(ctx, runCtx context.Context, r *run, state *domain.State) (domain.Context, *domain.StepError) {
	fn, ok := e.capabilities.Lookup(state.Resource)
	if !ok {
		return nil, domain.NewStepError(domain.KindInvalidInput, state.ID, fmt.Sprintf("capability %q is not registered", state.Resource))
	}

	args, err := resolveParameters(r.data, state.Parameters)
	if err != nil {
		return nil, asStepError(err, domain.KindInvalidInput)
	}

	e.emitTaskCall(ctx, r, state, args)
	began := e.now()

	done := make(chan taskOutcome, 1)
	go func() {
		defer func() {
			if p := recover(); p != nil {
				done <- taskOutcome{err: fmt.Errorf("%w: capability %q panicked: %v", domain.ErrServiceUnavailable, state.Resource, p)}
			}
		}()
		out, err := fn(runCtx, args)
		done <- taskOutcome{output: out, err: err}
	}()

	timer := time.NewTimer(r.expiry.Sub(e.now()))
	defer timer.Stop()

	var outcome taskOutcome
	select {
	case outcome = <-done:
	case <-timer.C:
		r.logger.Warn("task abandoned at deadline", "state", state.ID, "resource", state.Resource)
		e.emitTaskReturn(ctx, r, state, nil, e.now().Sub(began), true)
		return nil, e.timeoutError(r, state.ID)
	case <-ctx.Done():
		e.emitTaskReturn(ctx, r, state, nil, e.now().Sub(began), true)
		return nil, &domain.StepError{Kind: domain.KindCanceled, StateID: state.ID, Detail: ctx.Err().Error(), Err: ctx.Err()}
	}

	elapsed := e.now().Sub(began)
	e.emitTaskReturn(ctx, r, state, outcome.output, elapsed, outcome.err != nil)

	if e.expired(r) {
		return nil, e.timeoutError(r, state.ID)
	}

	if outcome.err != nil {
		r.logger.Debug("task failed", "state", state.ID, "resource", state.Resource, "error", outcome.err)
		// Only the run's own deadline counts as a timeout.
		if errors.Is(outcome.err, context.DeadlineExceeded) && errors.Is(runCtx.Err(), context.DeadlineExceeded) {
			return nil, e.timeoutError(r, state.ID)
		}
		if ctx.Err() != nil {
			return nil, &domain.StepError{Kind: domain.KindCanceled, StateID: state.ID, Detail: ctx.Err().Error(), Err: ctx.Err()}
		}
		return nil, &domain.StepError{
			Kind:    domain.KindOf(outcome.err, domain.KindServiceUnavailable),
			StateID: state.ID,
			Detail:  outcome.err.Error(),
			Err:     outcome.err,
		}
	}

	return mergeResult(r.data, state.ResultKey, outcome.output), nil
}

// resolveParameters builds the task arguments. A single-quoted value is a
// literal; anything else is a path resolved against the context.
func resolveParameters(data domain.Context, params map[string]string) (map[string]any, error) {
	args := make(map[string]any, len(params))
	for name, expr := range params {
		expr = strings.TrimSpace(expr)
		if len(expr) >= 2 && expr[0] == '\'' && expr[len(expr)-1] == '\'' {
			args[name] = expr[1 : len(expr)-1]
			continue
		}
		v, err := lookup(data, expr)
		if err != nil {
			return nil, err
		}
		args[name] = v
	}
	return args, nil
}

// mergeResult stores output under key, or merges its top-level keys when key is empty.
func mergeResult(data domain.Context, key string, output map[string]any) domain.Context {
	if key != "" {
		return data.With(key, output)
	}
	out := data.Clone()
	for k, v := range domain.Context(output).Clone() {
		out[k] = v
	}
	return out
}

func (e *Engine) emitTaskCall(ctx context.Context, r *run, state *domain.State, args map[string]any) {
	if e.hooks.OnTaskCall == nil {
		return
	}
	defer e.recoverHook(r, domain.EventTaskCall)
	e.hooks.OnTaskCall(ctx, &domain.TaskEvent{
		EventBase: domain.EventBase{Timestamp: e.now(), Type: domain.EventTaskCall, ExecutionID: r.result.ID, Workflow: r.result.Workflow},
		StateID:   state.ID,
		Resource:  state.Resource,
		Input:     args,
	})
}

func (e *Engine) emitTaskReturn(ctx context.Context, r *run, state *domain.State, output map[string]any, elapsed time.Duration, isError bool) {
	if e.hooks.OnTaskReturn == nil {
		return
	}
	defer e.recoverHook(r, domain.EventTaskReturn)
	e.hooks.OnTaskReturn(ctx, &domain.TaskEvent{
		EventBase: domain.EventBase{Timestamp: e.now(), Type: domain.EventTaskReturn, ExecutionID: r.result.ID, Workflow: r.result.Workflow},
		StateID:   state.ID,
		Resource:  state.Resource,
		Output:    output,
		Duration:  elapsed,
		IsError:   isError,
	})
}
