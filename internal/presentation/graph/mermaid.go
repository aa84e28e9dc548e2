package graph

import (
	"fmt"
	"sort"
	"strings"

	"github.com/aretw0/stepflow/pkg/domain"
)

// GraphOverlay contains execution data to visualize on the graph.
type GraphOverlay struct {
	VisitedStates []string
	CurrentState  string
}

// OverlayFor builds the overlay of a finished execution: its visited states,
// with the last one highlighted.
func OverlayFor(result domain.ExecutionResult) *GraphOverlay {
	overlay := &GraphOverlay{VisitedStates: result.Visited}
	if n := len(result.Visited); n > 0 {
		overlay.CurrentState = result.Visited[n-1]
	}
	return overlay
}

// GenerateMermaid produces a Mermaid flowchart of the definition.
// It applies semantic styling:
// - Start: ((Circle))
// - Task: [[Subroutine]]
// - Choice: {Rhombus}
// - Terminal: ([Stadium]), failed outcomes styled red
// - Transform: [Rectangle]
// It also applies overlay styles (Visited/Current) if provided.
func GenerateMermaid(def *domain.Definition, overlay *GraphOverlay) string {
	var sb strings.Builder
	sb.WriteString("graph TD\n")
	if def == nil {
		return sb.String()
	}

	ids := stateOrder(def)
	var failed []string
	for _, id := range ids {
		state := def.States[id]
		safeID := sanitizeMermaidID(id)

		opener, closer := "[", "]"
		switch {
		case id == def.StartAt:
			opener, closer = "((", "))"
		case state.Type == domain.StateTask:
			opener, closer = "[[", "]]"
		case state.Type == domain.StateChoice:
			opener, closer = "{", "}"
		case state.Type == domain.StateTerminal:
			opener, closer = "([", "])"
		}

		label := escapeLabel(id)
		if state.Type == domain.StateTask && state.Resource != "" {
			label = fmt.Sprintf("%s <br/> %s", label, escapeLabel(state.Resource))
		}
		sb.WriteString(fmt.Sprintf("    %s%s\"%s\"%s\n", safeID, opener, label, closer))

		if state.Type == domain.StateTerminal && state.Outcome == domain.OutcomeFailed {
			failed = append(failed, safeID)
		}

		switch state.Type {
		case domain.StateTask, domain.StateTransform:
			if state.Next != "" {
				sb.WriteString(fmt.Sprintf("    %s --> %s\n", safeID, sanitizeMermaidID(state.Next)))
			}
		case domain.StateChoice:
			for _, rule := range state.Rules {
				cond := fmt.Sprintf("%s == '%s'", rule.Variable, rule.StringEquals)
				sb.WriteString(fmt.Sprintf("    %s -- \"%s\" --> %s\n", safeID, escapeLabel(cond), sanitizeMermaidID(rule.Next)))
			}
			if state.Default != "" {
				sb.WriteString(fmt.Sprintf("    %s -. \"otherwise\" .-> %s\n", safeID, sanitizeMermaidID(state.Default)))
			}
		}
	}

	if len(failed) > 0 {
		sb.WriteString("    classDef failed fill:#ffebee,stroke:#b71c1c,color:#000;\n")
		for _, id := range failed {
			sb.WriteString(fmt.Sprintf("    class %s failed;\n", id))
		}
	}

	// Apply Overlay Styles
	if overlay != nil {
		sb.WriteString("\n    %% Overlay Styles\n")
		// Force black text (color:#000) for high-contrast on light backgrounds, regardless of theme (Light/Dark)
		sb.WriteString("    classDef visited fill:#e1f5fe,stroke:#01579b,stroke-width:2px,color:#000;\n")
		sb.WriteString("    classDef current fill:#ffeb3b,stroke:#fbc02d,stroke-width:4px,color:#000;\n")

		visitedSet := make(map[string]bool)
		for _, id := range overlay.VisitedStates {
			if _, ok := def.States[id]; !ok {
				continue
			}
			safeID := sanitizeMermaidID(id)
			if !visitedSet[safeID] {
				visitedSet[safeID] = true
				sb.WriteString(fmt.Sprintf("    class %s visited;\n", safeID))
			}
		}

		if overlay.CurrentState != "" {
			sb.WriteString(fmt.Sprintf("    class %s current;\n", sanitizeMermaidID(overlay.CurrentState)))
		}
	}

	return sb.String()
}

// stateOrder lists states breadth-first from the start, then any unreachable
// states sorted by ID, so output is stable.
func stateOrder(def *domain.Definition) []string {
	seen := make(map[string]bool, len(def.States))
	var order []string
	queue := []string{def.StartAt}
	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		state, ok := def.States[id]
		if !ok || seen[id] {
			continue
		}
		seen[id] = true
		order = append(order, id)
		queue = append(queue, state.Successors()...)
	}

	var rest []string
	for id := range def.States {
		if !seen[id] {
			rest = append(rest, id)
		}
	}
	sort.Strings(rest)
	return append(order, rest...)
}

func escapeLabel(s string) string {
	return strings.ReplaceAll(s, "\"", "'")
}

func sanitizeMermaidID(id string) string {
	var b strings.Builder
	for _, r := range id {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '_':
			b.WriteRune(r)
		default:
			b.WriteRune('_')
		}
	}
	return b.String()
}
