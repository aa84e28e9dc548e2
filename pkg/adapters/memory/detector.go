package memory

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/aretw0/stepflow/pkg/domain"
)

// Detector implements ports.LabelDetector with scripted answers.
// It is used in tests and by the CLI when no real detector is configured.
type Detector struct {
	mu       sync.RWMutex
	byKey    map[string][]domain.Label
	fallback []domain.Label
	latency  time.Duration
	err      error
	calls    int
}

// DetectorOption configures a Detector.
type DetectorOption func(*Detector)

// WithLabels scripts the labels returned for key.
func WithLabels(key string, labels ...domain.Label) DetectorOption {
	return func(d *Detector) {
		d.byKey[key] = labels
	}
}

// WithDefaultLabels sets the labels returned for keys without a script.
func WithDefaultLabels(labels ...domain.Label) DetectorOption {
	return func(d *Detector) {
		d.fallback = labels
	}
}

// WithLatency delays every detection by d, honoring cancellation.
func WithLatency(d time.Duration) DetectorOption {
	return func(det *Detector) {
		det.latency = d
	}
}

// WithError makes every detection fail with err.
func WithError(err error) DetectorOption {
	return func(d *Detector) {
		d.err = err
	}
}

// NewDetector creates a scripted detector.
func NewDetector(opts ...DetectorOption) *Detector {
	d := &Detector{byKey: make(map[string][]domain.Label)}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Detect returns the labels scripted for loc.Key.
func (d *Detector) Detect(ctx context.Context, loc domain.Locator) ([]domain.Label, error) {
	d.mu.Lock()
	d.calls++
	latency, err := d.latency, d.err
	labels, ok := d.byKey[loc.Key]
	if !ok {
		labels = d.fallback
	}
	d.mu.Unlock()

	if latency > 0 {
		timer := time.NewTimer(latency)
		defer timer.Stop()
		select {
		case <-timer.C:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if err != nil {
		return nil, err
	}
	if !ok && labels == nil {
		return nil, fmt.Errorf("%w: %s", domain.ErrObjectNotFound, loc)
	}
	return append([]domain.Label(nil), labels...), nil
}

// Calls returns how many detections were requested.
func (d *Detector) Calls() int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.calls
}
