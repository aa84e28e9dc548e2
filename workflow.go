package stepflow

import (
	"fmt"
	"time"

	"github.com/aretw0/stepflow/pkg/capability"
	"github.com/aretw0/stepflow/pkg/domain"
	"github.com/aretw0/stepflow/pkg/dsl"
)

// State IDs of the quality-control workflow.
const (
	StateDetectObject = "Detect Object"
	StateExtractName  = "Extract Name"
	StateIsMatch      = "Is Pizza?"
	StatePassed       = "Quality Control Passed"
	StateFailed       = "Quality Control Failed"
)

// FailureError is the error name declared by the failed terminal state.
const FailureError = "QualityControlFailed"

// QualityControlConfig parameterizes the quality-control workflow.
type QualityControlConfig struct {
	WorkflowName    string
	MatchLiteral    string
	Bucket          string
	SourceObjectKey string
	Deadline        time.Duration
}

// DefaultQualityControlConfig returns the reference configuration.
func DefaultQualityControlConfig() QualityControlConfig {
	return QualityControlConfig{
		WorkflowName:    "FoodQualityControl",
		MatchLiteral:    "Pizza",
		Bucket:          "service-integration",
		SourceObjectKey: "255911618.jpeg",
		Deadline:        30 * time.Second,
	}
}

// Input returns the run input locating the configured source object.
func (c QualityControlConfig) Input() map[string]any {
	return map[string]any{
		capability.ParamBucket: c.Bucket,
		capability.ParamKey:    c.SourceObjectKey,
	}
}

// QualityControl builds the food quality-control workflow: detect labels on
// the object named by the run input, extract the top label into "food", and
// succeed only when it equals cfg.MatchLiteral.
func QualityControl(cfg QualityControlConfig) (*domain.Definition, error) {
	if cfg.WorkflowName == "" {
		return nil, fmt.Errorf("%w: workflow name is required", domain.ErrInvalidDefinition)
	}
	if cfg.MatchLiteral == "" {
		return nil, fmt.Errorf("%w: match literal is required", domain.ErrInvalidDefinition)
	}

	b := dsl.New(cfg.WorkflowName).
		Timeout(cfg.Deadline).
		Input(capability.ParamBucket, "string").
		Input(capability.ParamKey, "string")

	b.Task(StateDetectObject).
		Resource(capability.DetectLabelsResource).
		Param(capability.ParamBucket, "$."+capability.ParamBucket).
		Param(capability.ParamKey, "$."+capability.ParamKey).
		Next(StateExtractName)

	b.Transform(StateExtractName).
		Project("$.Labels[0].Name", "food").
		Next(StateIsMatch)

	b.Choice(StateIsMatch).
		When("$.food", cfg.MatchLiteral, StatePassed).
		Otherwise(StateFailed)

	b.Succeed(StatePassed)
	b.Fail(StateFailed, FailureError, fmt.Sprintf("food is not %s", cfg.MatchLiteral))

	return b.Build()
}
