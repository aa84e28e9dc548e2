package domain

import (
	"context"
	"time"
)

// EventType defines the category of the event.
type EventType string

const (
	EventStateEnter EventType = "state_enter"
	EventStateLeave EventType = "state_leave"
	EventTaskCall   EventType = "task_call"
	EventTaskReturn EventType = "task_return"
)

// EventBase contains common fields for all events.
type EventBase struct {
	Timestamp   time.Time `json:"timestamp"`
	Type        EventType `json:"type"`
	ExecutionID string    `json:"execution_id"`
	Workflow    string    `json:"workflow"`
}

// StateEvent represents entry or exit from a state.
type StateEvent struct {
	EventBase
	StateID   string    `json:"state_id"`
	StateType StateType `json:"state_type"`
}

// TaskEvent represents a capability invocation.
type TaskEvent struct {
	EventBase
	StateID  string         `json:"state_id"`
	Resource string         `json:"resource"`
	Input    map[string]any `json:"input,omitempty"`
	Output   map[string]any `json:"output,omitempty"`
	Duration time.Duration  `json:"duration,omitempty"`
	IsError  bool           `json:"is_error,omitempty"`
}

// LifecycleHooks defines callbacks for engine observability.
// Hooks run synchronously on the execution goroutine.
type LifecycleHooks struct {
	OnStateEnter func(context.Context, *StateEvent)
	OnStateLeave func(context.Context, *StateEvent)
	OnTaskCall   func(context.Context, *TaskEvent)
	OnTaskReturn func(context.Context, *TaskEvent)
}

// Merge returns hooks that invoke h first and then other.
func (h LifecycleHooks) Merge(other LifecycleHooks) LifecycleHooks {
	return LifecycleHooks{
		OnStateEnter: chain(h.OnStateEnter, other.OnStateEnter),
		OnStateLeave: chain(h.OnStateLeave, other.OnStateLeave),
		OnTaskCall:   chain(h.OnTaskCall, other.OnTaskCall),
		OnTaskReturn: chain(h.OnTaskReturn, other.OnTaskReturn),
	}
}

func chain[E any](a, b func(context.Context, E)) func(context.Context, E) {
	switch {
	case a == nil:
		return b
	case b == nil:
		return a
	}
	return func(ctx context.Context, e E) {
		a(ctx, e)
		b(ctx, e)
	}
}
