package ports

import (
	"context"

	"github.com/aretw0/stepflow/pkg/domain"
)

// LabelDetector defines the label-detection collaborator consumed by task states.
// Labels are returned ranked, most confident first.
// Failures wrap domain.ErrServiceUnavailable or domain.ErrInvalidInput.
type LabelDetector interface {
	Detect(ctx context.Context, locator domain.Locator) ([]domain.Label, error)
}
