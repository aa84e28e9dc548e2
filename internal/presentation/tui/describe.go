package tui

import (
	"fmt"
	"sort"
	"strings"

	"github.com/aretw0/stepflow/pkg/domain"
)

// DescribeMarkdown renders a definition as a markdown document listing its
// states in a stable order, start state first.
func DescribeMarkdown(def *domain.Definition) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "# %s\n\n", def.Name)
	fmt.Fprintf(&sb, "- **Start:** `%s`\n", def.StartAt)
	if def.Timeout > 0 {
		fmt.Fprintf(&sb, "- **Timeout:** %s\n", def.Timeout)
	}
	if len(def.InputSchema) > 0 {
		keys := make([]string, 0, len(def.InputSchema))
		for k := range def.InputSchema {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		parts := make([]string, 0, len(keys))
		for _, k := range keys {
			parts = append(parts, fmt.Sprintf("`%s` (%s)", k, def.InputSchema[k]))
		}
		fmt.Fprintf(&sb, "- **Input:** %s\n", strings.Join(parts, ", "))
	}

	sb.WriteString("\n## States\n\n")
	sb.WriteString("| State | Type | Details | Next |\n")
	sb.WriteString("|-------|------|---------|------|\n")

	ids := make([]string, 0, len(def.States))
	for id := range def.States {
		if id != def.StartAt {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)
	if _, ok := def.States[def.StartAt]; ok {
		ids = append([]string{def.StartAt}, ids...)
	}

	for _, id := range ids {
		s := def.States[id]
		fmt.Fprintf(&sb, "| %s | %s | %s | %s |\n", cell(id), s.Type, cell(details(s)), cell(strings.Join(s.Successors(), ", ")))
	}
	return sb.String()
}

func details(s *domain.State) string {
	switch s.Type {
	case domain.StateTask:
		if s.ResultKey != "" {
			return fmt.Sprintf("`%s` into `%s`", s.Resource, s.ResultKey)
		}
		return fmt.Sprintf("`%s`", s.Resource)
	case domain.StateTransform:
		parts := make([]string, 0, len(s.Projections))
		for _, p := range s.Projections {
			parts = append(parts, fmt.Sprintf("`%s` = `%s`", p.Dest, p.Source))
		}
		return strings.Join(parts, "; ")
	case domain.StateChoice:
		parts := make([]string, 0, len(s.Rules)+1)
		for _, r := range s.Rules {
			parts = append(parts, fmt.Sprintf("`%s` == %q: %s", r.Variable, r.StringEquals, r.Next))
		}
		parts = append(parts, "otherwise: "+s.Default)
		return strings.Join(parts, "; ")
	case domain.StateTerminal:
		if s.Error != "" {
			return fmt.Sprintf("%s (%s)", s.Outcome, s.Error)
		}
		return string(s.Outcome)
	}
	return ""
}

func cell(s string) string {
	return strings.ReplaceAll(s, "|", "\\|")
}
