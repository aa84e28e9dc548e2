package dsl

import (
	"fmt"
	"maps"
	"time"

	"github.com/aretw0/stepflow/internal/runtime"
	"github.com/aretw0/stepflow/pkg/domain"
)

// Builder manages the definition construction.
type Builder struct {
	def   domain.Definition
	order []string
	nodes map[string]*StateBuilder
}

// New creates a new definition builder for the named workflow.
func New(name string) *Builder {
	return &Builder{
		def:   domain.Definition{Name: name},
		nodes: make(map[string]*StateBuilder),
	}
}

// StartAt sets the start state. By default the first state added is the start.
func (b *Builder) StartAt(id string) *Builder {
	b.def.StartAt = id
	return b
}

// Timeout sets the wall-clock bound of a run.
func (b *Builder) Timeout(d time.Duration) *Builder {
	b.def.Timeout = d
	return b
}

// Input declares a field the initial context must carry, e.g. Input("Key", "string").
func (b *Builder) Input(key, typ string) *Builder {
	if b.def.InputSchema == nil {
		b.def.InputSchema = make(map[string]string)
	}
	b.def.InputSchema[key] = typ
	return b
}

// Add creates a new state in the definition.
// If the state already exists, it returns the existing builder.
func (b *Builder) Add(id string, typ domain.StateType) *StateBuilder {
	if sb, ok := b.nodes[id]; ok {
		return sb
	}
	sb := &StateBuilder{
		state: domain.State{ID: id, Type: typ},
	}
	b.nodes[id] = sb
	b.order = append(b.order, id)
	return sb
}

// Task adds a state invoking an external capability.
func (b *Builder) Task(id string) *StateBuilder {
	return b.Add(id, domain.StateTask)
}

// Transform adds a state applying pure projections to the context.
func (b *Builder) Transform(id string) *StateBuilder {
	return b.Add(id, domain.StateTransform)
}

// Choice adds a state branching on ordered rules.
func (b *Builder) Choice(id string) *StateBuilder {
	return b.Add(id, domain.StateChoice)
}

// Succeed adds a terminal state ending the run with Succeeded.
func (b *Builder) Succeed(id string) *StateBuilder {
	sb := b.Add(id, domain.StateTerminal)
	sb.state.Outcome = domain.OutcomeSucceeded
	return sb
}

// Fail adds a terminal state ending the run with Failed, declaring an error name and cause.
func (b *Builder) Fail(id, errName, cause string) *StateBuilder {
	sb := b.Add(id, domain.StateTerminal)
	sb.state.Outcome = domain.OutcomeFailed
	sb.state.Error = errName
	sb.state.Cause = cause
	return sb
}

// Build compiles and validates the definition.
func (b *Builder) Build() (*domain.Definition, error) {
	def := b.def
	def.InputSchema = maps.Clone(b.def.InputSchema)
	if def.StartAt == "" && len(b.order) > 0 {
		def.StartAt = b.order[0]
	}

	def.States = make(map[string]*domain.State, len(b.nodes))
	for _, id := range b.order {
		s := b.nodes[id].Build()
		def.States[id] = &s
	}

	if err := runtime.ValidateDefinition(&def); err != nil {
		return nil, fmt.Errorf("failed to build definition: %w", err)
	}
	return &def, nil
}
