package domain

import "time"

// StateType defines the control flow behavior of a state.
type StateType string

const (
	// StateTask invokes an external capability (side-effect).
	StateTask StateType = "task"
	// StateTransform applies pure projections to the working data.
	StateTransform StateType = "transform"
	// StateChoice selects the successor from an ordered list of rules.
	StateChoice StateType = "choice"
	// StateTerminal ends the run with a fixed outcome.
	StateTerminal StateType = "terminal"
)

// Outcome is the fixed result carried by a terminal state.
type Outcome string

const (
	OutcomeSucceeded Outcome = "succeeded"
	OutcomeFailed    Outcome = "failed"
)

// State represents one node of the workflow graph.
// Only the fields relevant to its Type are populated.
type State struct {
	ID   string    `json:"id" yaml:"id"`
	Type StateType `json:"type" yaml:"type"`

	// Next is the successor of task and transform states.
	Next string `json:"next,omitempty" yaml:"next,omitempty"`

	// Task configuration.
	Resource   string            `json:"resource,omitempty" yaml:"resource,omitempty"`
	Parameters map[string]string `json:"parameters,omitempty" yaml:"parameters,omitempty"`
	// ResultKey is the context key the task result is stored under.
	// When empty, the top-level keys of the result are merged into the context.
	ResultKey string `json:"result_key,omitempty" yaml:"result_key,omitempty"`

	// Transform configuration.
	Projections []Projection `json:"projections,omitempty" yaml:"projections,omitempty"`

	// Choice configuration.
	Rules   []ChoiceRule `json:"rules,omitempty" yaml:"rules,omitempty"`
	Default string       `json:"default,omitempty" yaml:"default,omitempty"`

	// Terminal configuration.
	Outcome Outcome `json:"outcome,omitempty" yaml:"outcome,omitempty"`
	Error   string  `json:"error,omitempty" yaml:"error,omitempty"`
	Cause   string  `json:"cause,omitempty" yaml:"cause,omitempty"`
}

// Projection copies the value found at Source into the context key Dest.
type Projection struct {
	Source string `json:"source" yaml:"source"`
	Dest   string `json:"dest" yaml:"dest"`
}

// ChoiceRule routes to Next when the value at Variable equals StringEquals.
type ChoiceRule struct {
	Variable     string `json:"variable" yaml:"variable"`
	StringEquals string `json:"string_equals" yaml:"string_equals"`
	Next         string `json:"next" yaml:"next"`
}

// Successors returns the IDs this state may transition to, in declaration order.
func (s *State) Successors() []string {
	switch s.Type {
	case StateTask, StateTransform:
		if s.Next == "" {
			return nil
		}
		return []string{s.Next}
	case StateChoice:
		out := make([]string, 0, len(s.Rules)+1)
		for _, r := range s.Rules {
			out = append(out, r.Next)
		}
		if s.Default != "" {
			out = append(out, s.Default)
		}
		return out
	default:
		return nil
	}
}

// IsTerminal reports whether the state ends the run.
func (s *State) IsTerminal() bool {
	return s.Type == StateTerminal
}

// Definition is the workflow graph: an arena of states addressed by ID.
// It is immutable after construction and may be shared by concurrent executions.
type Definition struct {
	Name    string `json:"name" yaml:"name"`
	StartAt string `json:"start_at" yaml:"start_at"`
	// Timeout bounds the wall-clock duration of a run. Zero means the engine default.
	Timeout time.Duration `json:"timeout,omitempty" yaml:"timeout,omitempty"`
	// InputSchema declares the types the initial context must carry, e.g. {"Key": "string"}.
	InputSchema map[string]string `json:"input_schema,omitempty" yaml:"input_schema,omitempty"`
	States      map[string]*State `json:"states" yaml:"states"`
}

// State returns the state with the given ID.
func (d *Definition) State(id string) (*State, bool) {
	s, ok := d.States[id]
	return s, ok
}
