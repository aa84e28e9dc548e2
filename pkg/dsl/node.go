package dsl

import "github.com/aretw0/stepflow/pkg/domain"

// StateBuilder provides a fluent API for configuring a state.
type StateBuilder struct {
	state domain.State
}

// Resource names the capability a task state invokes.
func (s *StateBuilder) Resource(name string) *StateBuilder {
	s.state.Resource = name
	return s
}

// Param binds a task argument to a context path, or to a literal when single-quoted.
func (s *StateBuilder) Param(name, expr string) *StateBuilder {
	if s.state.Parameters == nil {
		s.state.Parameters = make(map[string]string)
	}
	s.state.Parameters[name] = expr
	return s
}

// ResultKey stores the task result under key instead of merging it into the context.
func (s *StateBuilder) ResultKey(key string) *StateBuilder {
	s.state.ResultKey = key
	return s
}

// Project copies the value at source into the context key dest.
func (s *StateBuilder) Project(source, dest string) *StateBuilder {
	s.state.Projections = append(s.state.Projections, domain.Projection{Source: source, Dest: dest})
	return s
}

// Next sets the successor of a task or transform state.
func (s *StateBuilder) Next(target string) *StateBuilder {
	s.state.Next = target
	return s
}

// When adds a choice rule: route to target if the value at variable equals literal.
func (s *StateBuilder) When(variable, literal, target string) *StateBuilder {
	s.state.Rules = append(s.state.Rules, domain.ChoiceRule{
		Variable:     variable,
		StringEquals: literal,
		Next:         target,
	})
	return s
}

// Otherwise sets the default successor of a choice state.
func (s *StateBuilder) Otherwise(target string) *StateBuilder {
	s.state.Default = target
	return s
}

// Build returns the underlying domain.State.
// This is primarily used by the Builder, but exposed for advanced usage.
func (s *StateBuilder) Build() domain.State {
	out := s.state
	if s.state.Parameters != nil {
		out.Parameters = make(map[string]string, len(s.state.Parameters))
		for k, v := range s.state.Parameters {
			out.Parameters[k] = v
		}
	}
	out.Projections = append([]domain.Projection(nil), s.state.Projections...)
	out.Rules = append([]domain.ChoiceRule(nil), s.state.Rules...)
	return out
}
