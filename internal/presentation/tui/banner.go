package tui

import (
	"fmt"
	"io"

	"github.com/muesli/termenv"
)

// PrintBanner writes the Stepflow ASCII art banner to w.
func PrintBanner(w io.Writer) {
	p := termenv.ColorProfile()
	// Using a subtle gradient-like color scheme (Teal/Green)
	lines := []termenv.Style{
		termenv.String("     _             __ _").Foreground(p.Color("#2dd4bf")),
		termenv.String(" ___| |_ ___ _ __ / _| | _____      __").Foreground(p.Color("#34d399")),
		termenv.String("/ __| __/ _ \\ '_ \\| |_| |/ _ \\ \\ /\\ / /").Foreground(p.Color("#4ade80")),
		termenv.String("\\__ \\ ||  __/ |_) |  _| | (_) \\ V  V /").Foreground(p.Color("#a3e635")),
		termenv.String("|___/\\__\\___| .__/|_| |_|\\___/ \\_/\\_/").Foreground(p.Color("#facc15")),
		termenv.String("            |_|").Foreground(p.Color("#fbbf24")),
	}

	fmt.Fprintln(w)
	for _, l := range lines {
		fmt.Fprintln(w, l)
	}
	fmt.Fprintln(w)
}
