package stepflow

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/aretw0/stepflow/pkg/domain"
)

var (
	// DefaultMaxInputSize bounds a single input line.
	DefaultMaxInputSize = 64 * 1024
	// EnvMaxInputSize overrides DefaultMaxInputSize.
	EnvMaxInputSize = "STEPFLOW_MAX_INPUT_SIZE"
)

// ErrInputTooLarge is returned for an input line longer than the runner limit.
var ErrInputTooLarge = errors.New("input exceeds maximum allowed size")

// Runner feeds run inputs read from Input to an Engine and writes one result
// per run to Output. Input carries one JSON object per line; blank lines are
// skipped.
type Runner struct {
	Input    io.Reader
	Output   io.Writer
	Headless bool
	Renderer ResultRenderer
	// MaxInputSize bounds each line; zero means DefaultMaxInputSize or
	// the STEPFLOW_MAX_INPUT_SIZE environment variable.
	MaxInputSize int
}

// ResultRenderer formats a result for Output. When nil, or when Headless is
// set, results are written as JSON lines.
type ResultRenderer func(domain.ExecutionResult) string

// NewRunner creates a Runner over in and out.
func NewRunner(in io.Reader, out io.Writer) *Runner {
	return &Runner{Input: in, Output: out}
}

// Summary counts the outcomes of a Run.
type Summary struct {
	Total     int
	Succeeded int
}

// OK reports whether every run succeeded.
func (s Summary) OK() bool {
	return s.Total > 0 && s.Total == s.Succeeded
}

// Run executes def once per input line until EOF. A malformed line aborts the
// loop; failed runs do not.
func (r *Runner) Run(ctx context.Context, engine *Engine, def *domain.Definition) (Summary, error) {
	var summary Summary
	if r.Input == nil {
		return summary, fmt.Errorf("input reader must be set (use os.Stdin)")
	}
	if r.Output == nil {
		return summary, fmt.Errorf("output writer must be set (use os.Stdout)")
	}

	limit := r.maxInputSize()
	scanner := bufio.NewScanner(r.Input)
	scanner.Buffer(make([]byte, 0, min(limit, 64*1024)), limit)
	enc := json.NewEncoder(r.Output)
	line := 0
	for scanner.Scan() {
		line++
		text := strings.TrimSpace(scanner.Text())
		if text == "" {
			continue
		}
		if err := ctx.Err(); err != nil {
			return summary, err
		}

		if !utf8.ValidString(text) {
			return summary, fmt.Errorf("line %d: %w: invalid UTF-8", line, domain.ErrInvalidInput)
		}

		var input map[string]any
		if err := json.Unmarshal([]byte(text), &input); err != nil {
			return summary, fmt.Errorf("line %d: %w: %v", line, domain.ErrInvalidInput, err)
		}

		result := engine.Execute(ctx, def, input, 0)
		summary.Total++
		if result.OK() {
			summary.Succeeded++
		}

		if r.Renderer != nil && !r.Headless {
			fmt.Fprintln(r.Output, strings.TrimRight(r.Renderer(result), "\n"))
			continue
		}
		if err := enc.Encode(result); err != nil {
			return summary, fmt.Errorf("write result: %w", err)
		}
	}
	if err := scanner.Err(); err != nil {
		if errors.Is(err, bufio.ErrTooLong) {
			return summary, fmt.Errorf("line %d: %w: limit=%d", line+1, ErrInputTooLarge, limit)
		}
		return summary, fmt.Errorf("input error: %w", err)
	}
	return summary, nil
}

func (r *Runner) maxInputSize() int {
	if r.MaxInputSize > 0 {
		return r.MaxInputSize
	}
	if val := os.Getenv(EnvMaxInputSize); val != "" {
		if size, err := strconv.Atoi(val); err == nil && size > 0 {
			return size
		}
	}
	return DefaultMaxInputSize
}
