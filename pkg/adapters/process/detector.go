package process

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os/exec"
	"sort"
	"strings"
	"time"

	"github.com/aretw0/stepflow/pkg/domain"
)

// Environment variables carrying the object locator to the command.
const (
	EnvBucket = "STEPFLOW_ARG_BUCKET"
	EnvKey    = "STEPFLOW_ARG_KEY"
)

const waitDelay = 500 * time.Millisecond

// Detector implements ports.LabelDetector by running an allow-listed local
// command. The locator is passed through environment variables, never as
// command-line flags, and the command prints the detection as JSON on stdout:
// either {"Labels": [...]} or a bare array of labels.
type Detector struct {
	cfg     CommandConfig
	baseDir string
}

// DetectorOption configures the detector.
type DetectorOption func(*Detector)

// WithBaseDir sets the working directory for executed processes.
func WithBaseDir(dir string) DetectorOption {
	return func(d *Detector) {
		d.baseDir = dir
	}
}

// NewDetector creates a detector running cfg.
func NewDetector(cfg CommandConfig, opts ...DetectorOption) (*Detector, error) {
	if cfg.Command == "" {
		return nil, fmt.Errorf("%w: detector %q has no command", domain.ErrInvalidInput, cfg.Name)
	}
	d := &Detector{cfg: cfg}
	for _, opt := range opts {
		opt(d)
	}
	return d, nil
}

// FromFile loads the named detector from a detectors config file.
func FromFile(path, name string, opts ...DetectorOption) (*Detector, error) {
	commands, err := LoadCommands(path)
	if err != nil {
		return nil, err
	}
	cfg, ok := commands[name]
	if !ok {
		names := make([]string, 0, len(commands))
		for n := range commands {
			names = append(names, n)
		}
		sort.Strings(names)
		return nil, fmt.Errorf("detector %q not registered in %s (available: %s)", name, path, strings.Join(names, ", "))
	}
	return NewDetector(cfg, opts...)
}

// Detect runs the command for loc and decodes its labels.
func (d *Detector) Detect(ctx context.Context, loc domain.Locator) ([]domain.Label, error) {
	if err := loc.Validate(); err != nil {
		return nil, err
	}

	cmd := exec.CommandContext(ctx, d.cfg.Command, d.cfg.Args...)
	cmd.Dir = d.baseDir
	// Children holding stdout open must not outlive the deadline.
	cmd.WaitDelay = waitDelay

	env := cmd.Environ()
	for k, v := range d.cfg.Environment {
		env = append(env, fmt.Sprintf("%s=%s", k, v))
	}
	env = append(env, EnvBucket+"="+loc.Bucket, EnvKey+"="+loc.Key)
	cmd.Env = env

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, fmt.Errorf("detector %q interrupted: %w", d.cfg.Name, ctxErr)
		}
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return nil, fmt.Errorf("%w: detector %q exited with code %d: %s", domain.ErrServiceUnavailable, d.cfg.Name, exitErr.ExitCode(), strings.TrimSpace(stderr.String()))
		}
		return nil, fmt.Errorf("%w: detector %q failed to start: %v", domain.ErrServiceUnavailable, d.cfg.Name, err)
	}

	return decodeLabels(stdout.Bytes())
}

// decodeLabels accepts {"Labels": [...]} or a bare [...] document.
func decodeLabels(out []byte) ([]domain.Label, error) {
	trimmed := bytes.TrimSpace(out)
	if len(trimmed) == 0 {
		return nil, fmt.Errorf("%w: detector produced no output", domain.ErrServiceUnavailable)
	}

	var labels []domain.Label
	if trimmed[0] == '[' {
		if err := json.Unmarshal(trimmed, &labels); err != nil {
			return nil, fmt.Errorf("%w: invalid detector output: %v", domain.ErrServiceUnavailable, err)
		}
		return labels, nil
	}

	var doc struct {
		Labels *[]domain.Label `json:"Labels"`
	}
	if err := json.Unmarshal(trimmed, &doc); err != nil {
		return nil, fmt.Errorf("%w: invalid detector output: %v", domain.ErrServiceUnavailable, err)
	}
	if doc.Labels == nil {
		return nil, fmt.Errorf("%w: detector output has no %q field", domain.ErrServiceUnavailable, domain.FieldLabels)
	}
	return *doc.Labels, nil
}
