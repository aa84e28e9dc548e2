package tui

import (
	"fmt"
	"strings"

	"github.com/aretw0/stepflow/pkg/domain"
	"github.com/muesli/termenv"
)

// StatusColor returns the color used for an execution status.
func StatusColor(p termenv.Profile, status domain.Status) termenv.Color {
	switch status {
	case domain.StatusSucceeded:
		return p.Color("#22c55e")
	case domain.StatusFailed:
		return p.Color("#ef4444")
	case domain.StatusTimedOut:
		return p.Color("#f59e0b")
	default:
		return p.Color("#a855f7")
	}
}

// FormatResult renders a one-screen summary of an execution.
// Pass termenv.Ascii to disable colors.
func FormatResult(p termenv.Profile, result domain.ExecutionResult) string {
	var sb strings.Builder

	status := paint(p, string(result.Status), StatusColor(p, result.Status), true)
	fmt.Fprintf(&sb, "%s  %s (%s)\n", status, result.Workflow, result.ID)
	fmt.Fprintf(&sb, "  path:     %s\n", strings.Join(result.Visited, " -> "))
	if result.Terminal != "" {
		fmt.Fprintf(&sb, "  terminal: %s\n", result.Terminal)
	}
	if food, ok := result.Context["food"]; ok {
		fmt.Fprintf(&sb, "  food:     %v\n", food)
	}
	if result.Failure != nil {
		fmt.Fprintf(&sb, "  failure:  %s %s\n", result.Failure.Error, result.Failure.Cause)
	}
	if result.Error != nil {
		errLine := paint(p, result.Error.Error(), StatusColor(p, result.Status), false)
		fmt.Fprintf(&sb, "  error:    %s\n", errLine)
	}
	fmt.Fprintf(&sb, "  duration: %s\n", result.Duration())
	return sb.String()
}

func paint(p termenv.Profile, s string, c termenv.Color, bold bool) string {
	if p == termenv.Ascii {
		return s
	}
	style := termenv.String(s).Foreground(c)
	if bold {
		style = style.Bold()
	}
	return style.String()
}
