package runtime

import (
	"fmt"
	"sort"

	"github.com/aretw0/stepflow/pkg/domain"
)

// ValidateDefinition checks that def is a well-formed workflow graph: a single
// existing start state, successors defined and existing for every non-terminal
// state, every state reachable from the start, and no cycles.
// All problems found are reported together as a *domain.DefinitionError.
func ValidateDefinition(def *domain.Definition) error {
	if def == nil {
		return &domain.DefinitionError{Problems: []string{"definition is nil"}}
	}

	var problems []string
	report := func(format string, args ...any) {
		problems = append(problems, fmt.Sprintf(format, args...))
	}

	if def.Name == "" {
		report("workflow name is empty")
	}
	if len(def.States) == 0 {
		report("workflow has no states")
	}
	if def.Timeout < 0 {
		report("timeout must not be negative")
	}
	if _, ok := def.States[def.StartAt]; !ok {
		report("start state '%s' not found", def.StartAt)
	}
	if err := validateSchema(def.InputSchema); err != nil {
		report("%v", err)
	}

	for _, id := range sortedIDs(def) {
		state := def.States[id]
		if state == nil {
			report("state '%s' is nil", id)
			continue
		}
		if state.ID != "" && state.ID != id {
			report("state '%s' declares mismatched id '%s'", id, state.ID)
		}
		for _, p := range validateState(id, state) {
			report("%s", p)
		}
		for _, next := range state.Successors() {
			if _, ok := def.States[next]; !ok {
				report("state '%s' transitions to unknown state '%s'", id, next)
			}
		}
	}

	if len(problems) == 0 {
		problems = append(problems, validateGraph(def)...)
	}

	if len(problems) > 0 {
		return &domain.DefinitionError{Workflow: def.Name, Problems: problems}
	}
	return nil
}

func validateState(id string, s *domain.State) []string {
	var problems []string
	switch s.Type {
	case domain.StateTask:
		if s.Resource == "" {
			problems = append(problems, fmt.Sprintf("task state '%s' has no resource", id))
		}
		if s.Next == "" {
			problems = append(problems, fmt.Sprintf("task state '%s' has no successor", id))
		}
	case domain.StateTransform:
		if len(s.Projections) == 0 {
			problems = append(problems, fmt.Sprintf("transform state '%s' has no projections", id))
		}
		for _, p := range s.Projections {
			if _, err := parsePath(p.Source); err != nil {
				problems = append(problems, fmt.Sprintf("transform state '%s': %v", id, err))
			}
			if p.Dest == "" {
				problems = append(problems, fmt.Sprintf("transform state '%s' has a projection without destination", id))
			}
		}
		if s.Next == "" {
			problems = append(problems, fmt.Sprintf("transform state '%s' has no successor", id))
		}
	case domain.StateChoice:
		if s.Default == "" {
			problems = append(problems, fmt.Sprintf("choice state '%s' has no default successor", id))
		}
		for i, rule := range s.Rules {
			if _, err := parsePath(rule.Variable); err != nil {
				problems = append(problems, fmt.Sprintf("choice state '%s' rule %d: %v", id, i, err))
			}
			if rule.Next == "" {
				problems = append(problems, fmt.Sprintf("choice state '%s' rule %d has no successor", id, i))
			}
		}
	case domain.StateTerminal:
		if s.Outcome != domain.OutcomeSucceeded && s.Outcome != domain.OutcomeFailed {
			problems = append(problems, fmt.Sprintf("terminal state '%s' has invalid outcome %q", id, s.Outcome))
		}
		if s.Next != "" || len(s.Rules) > 0 || s.Default != "" {
			problems = append(problems, fmt.Sprintf("terminal state '%s' must not declare successors", id))
		}
	default:
		problems = append(problems, fmt.Sprintf("state '%s' has unknown type %q", id, s.Type))
	}
	return problems
}

// validateGraph reports unreachable states and cycles. It assumes every
// successor exists.
func validateGraph(def *domain.Definition) []string {
	const (
		unvisited = iota
		onStack
		done
	)
	var problems []string
	color := make(map[string]int, len(def.States))

	var visit func(id string, path []string)
	visit = func(id string, path []string) {
		switch color[id] {
		case onStack:
			problems = append(problems, fmt.Sprintf("cycle detected: %v", append(path, id)))
			return
		case done:
			return
		}
		color[id] = onStack
		trail := append(append([]string(nil), path...), id)
		for _, next := range def.States[id].Successors() {
			visit(next, trail)
		}
		color[id] = done
	}
	visit(def.StartAt, nil)

	for _, id := range sortedIDs(def) {
		if color[id] == unvisited {
			problems = append(problems, fmt.Sprintf("state '%s' is unreachable from '%s'", id, def.StartAt))
		}
	}
	return problems
}

func sortedIDs(def *domain.Definition) []string {
	ids := make([]string, 0, len(def.States))
	for id := range def.States {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
