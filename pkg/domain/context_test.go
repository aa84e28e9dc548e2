package domain_test

import (
	"testing"

	"github.com/aretw0/stepflow/pkg/domain"
	"github.com/stretchr/testify/assert"
)

func TestContext_CloneIsDeep(t *testing.T) {
	orig := domain.Context{
		"Labels": []any{map[string]any{"Name": "Pizza"}},
		"tags":   []string{"a"},
	}

	c := orig.Clone()
	c["Labels"].([]any)[0].(map[string]any)["Name"] = "Salad"
	c["tags"].([]string)[0] = "b"
	c["extra"] = true

	assert.Equal(t, "Pizza", orig["Labels"].([]any)[0].(map[string]any)["Name"])
	assert.Equal(t, "a", orig["tags"].([]string)[0])
	assert.NotContains(t, orig, "extra")
}

func TestContext_WithLeavesOriginal(t *testing.T) {
	orig := domain.Context{"Key": "a.jpeg"}

	next := orig.With("food", "Pizza")

	assert.Equal(t, domain.Context{"Key": "a.jpeg"}, orig)
	assert.Equal(t, domain.Context{"Key": "a.jpeg", "food": "Pizza"}, next)
}

func TestNewContext_Nil(t *testing.T) {
	c := domain.NewContext(nil)

	assert.NotNil(t, c)
	assert.Empty(t, c)
}

func TestLabelsResult(t *testing.T) {
	got := domain.LabelsResult([]domain.Label{{Name: "Pizza", Confidence: 98.5}})

	assert.Equal(t, map[string]any{
		"Labels": []any{map[string]any{"Name": "Pizza", "Confidence": 98.5}},
	}, got)
	assert.Equal(t, map[string]any{"Labels": []any{}}, domain.LabelsResult(nil))
}
