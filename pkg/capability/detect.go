package capability

import (
	"context"
	"fmt"

	"github.com/aretw0/stepflow/pkg/domain"
	"github.com/aretw0/stepflow/pkg/ports"
)

// DetectLabelsResource is the resource name the label-detection capability is registered under.
const DetectLabelsResource = "detect_labels"

// Parameter names read by DetectLabels.
const (
	ParamBucket = "Bucket"
	ParamKey    = "Key"
)

// DetectLabels adapts a LabelDetector into a task capability.
// It reads the Bucket and Key parameters and returns {"Labels": [...]}.
func DetectLabels(detector ports.LabelDetector) Func {
	return func(ctx context.Context, args map[string]any) (map[string]any, error) {
		loc, err := locatorFrom(args)
		if err != nil {
			return nil, err
		}

		labels, err := detector.Detect(ctx, loc)
		if err != nil {
			return nil, fmt.Errorf("detect labels on %s: %w", loc, err)
		}
		return domain.LabelsResult(labels), nil
	}
}

func locatorFrom(args map[string]any) (domain.Locator, error) {
	bucket, ok := args[ParamBucket].(string)
	if !ok {
		return domain.Locator{}, fmt.Errorf("%w: parameter %q must be a string, got %T", domain.ErrInvalidInput, ParamBucket, args[ParamBucket])
	}
	key, ok := args[ParamKey].(string)
	if !ok {
		return domain.Locator{}, fmt.Errorf("%w: parameter %q must be a string, got %T", domain.ErrInvalidInput, ParamKey, args[ParamKey])
	}

	loc := domain.Locator{Bucket: bucket, Key: key}
	if err := loc.Validate(); err != nil {
		return domain.Locator{}, err
	}
	return loc, nil
}
