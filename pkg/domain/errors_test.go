package domain_test

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/aretw0/stepflow/pkg/domain"
	"github.com/stretchr/testify/assert"
)

func TestStepError_MatchesKindSentinel(t *testing.T) {
	err := fmt.Errorf("wrapped: %w", domain.NewStepError(domain.KindMissingField, "Extract Name", "index 0 absent"))

	assert.ErrorIs(t, err, domain.ErrMissingField)
	assert.NotErrorIs(t, err, domain.ErrTypeMismatch)
	assert.Equal(t, domain.KindMissingField, domain.KindOf(err, domain.KindServiceUnavailable))
	assert.Contains(t, err.Error(), "Extract Name")
}

func TestStepError_UnwrapsCause(t *testing.T) {
	err := &domain.StepError{Kind: domain.KindTimedOut, Detail: "deadline", Err: context.DeadlineExceeded}

	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.ErrorIs(t, err, domain.ErrTimedOut)
}

func TestKindOf(t *testing.T) {
	assert.Equal(t, domain.KindInvalidInput, domain.KindOf(fmt.Errorf("x: %w", domain.ErrInvalidInput), domain.KindServiceUnavailable))
	assert.Equal(t, domain.KindServiceUnavailable, domain.KindOf(errors.New("boom"), domain.KindServiceUnavailable))
}

func TestDefinitionError(t *testing.T) {
	err := &domain.DefinitionError{Workflow: "wf", Problems: []string{"a", "b"}}

	assert.ErrorIs(t, err, domain.ErrInvalidDefinition)
	assert.Contains(t, err.Error(), "2 problems")
}

func TestLocator(t *testing.T) {
	assert.NoError(t, domain.Locator{Bucket: "b", Key: "255911618.jpeg"}.Validate())
	assert.ErrorIs(t, domain.Locator{Key: "k"}.Validate(), domain.ErrInvalidInput)
	assert.ErrorIs(t, domain.Locator{Bucket: "b"}.Validate(), domain.ErrInvalidInput)
	assert.ErrorIs(t, domain.Locator{Bucket: "b", Key: "../etc/passwd"}.Validate(), domain.ErrInvalidInput)
	assert.Equal(t, "b/k.jpeg", domain.Locator{Bucket: "b", Key: "k.jpeg"}.String())
}
