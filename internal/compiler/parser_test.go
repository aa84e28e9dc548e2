package compiler_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/aretw0/stepflow/internal/compiler"
	"github.com/aretw0/stepflow/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const qualityControlYAML = `
name: FoodQualityControl
start_at: Detect Object
timeout: 30s
input_schema:
  Key: string
states:
  Detect Object:
    type: task
    resource: detect_labels
    parameters:
      Bucket: "'service-integration'"
      Key: $.Key
    next: Extract Name
  Extract Name:
    type: transform
    projections:
      - source: $.Labels[0].Name
        dest: food
    next: Is Pizza?
  Is Pizza?:
    type: choice
    rules:
      - variable: $.food
        string_equals: Pizza
        next: Quality Control Passed
    default: Quality Control Failed
  Quality Control Passed:
    type: terminal
    outcome: succeeded
  Quality Control Failed:
    type: terminal
    outcome: failed
    error: QualityControlFailed
`

func TestParser_YAML(t *testing.T) {
	def, err := compiler.NewParser().Parse([]byte(qualityControlYAML))

	require.NoError(t, err)
	assert.Equal(t, "FoodQualityControl", def.Name)
	assert.Equal(t, 30*time.Second, def.Timeout)
	assert.Equal(t, "string", def.InputSchema["Key"])

	detect := def.States["Detect Object"]
	assert.Equal(t, "Detect Object", detect.ID)
	assert.Equal(t, domain.StateTask, detect.Type)
	assert.Equal(t, "'service-integration'", detect.Parameters["Bucket"])

	choice := def.States["Is Pizza?"]
	require.Len(t, choice.Rules, 1)
	assert.Equal(t, "Pizza", choice.Rules[0].StringEquals)
	assert.Equal(t, "Quality Control Failed", choice.Default)

	assert.Equal(t, domain.OutcomeFailed, def.States["Quality Control Failed"].Outcome)
}

func TestParser_JSON(t *testing.T) {
	doc := `{
		"name": "tiny",
		"start_at": "copy",
		"states": {
			"copy": {"type": "transform", "projections": [{"source": "$.a", "dest": "b"}], "next": "done"},
			"done": {"type": "terminal", "outcome": "succeeded"}
		}
	}`

	def, err := compiler.NewParser().Parse([]byte(doc))

	require.NoError(t, err)
	assert.Equal(t, "copy", def.StartAt)
	assert.Equal(t, "b", def.States["copy"].Projections[0].Dest)
}

func TestParser_SingleStateDefaultsStart(t *testing.T) {
	def, err := compiler.NewParser().Parse([]byte("name: one\nstates:\n  only:\n    type: terminal\n    outcome: succeeded\n"))

	require.NoError(t, err)
	assert.Equal(t, "only", def.StartAt)
}

func TestParser_Invalid(t *testing.T) {
	tests := map[string]string{
		"empty":     "",
		"malformed": "name: [unclosed",
		"dangling":  "name: x\nstart_at: a\nstates:\n  a:\n    type: transform\n    projections: [{source: $.a, dest: b}]\n    next: ghost\n",
		"bad type":  "name: x\nstart_at: a\nstates:\n  a:\n    type: parallel\n",
	}
	for name, doc := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := compiler.NewParser().Parse([]byte(doc))
			assert.ErrorIs(t, err, domain.ErrInvalidDefinition)
		})
	}
}

func TestParser_StrictFields(t *testing.T) {
	doc := "name: x\nstart_at: a\nretries: 3\nstates:\n  a:\n    type: terminal\n    outcome: succeeded\n"

	_, err := compiler.NewParser().Parse([]byte(doc))
	assert.NoError(t, err)

	_, err = compiler.NewParser(compiler.WithStrictFields()).Parse([]byte(doc))
	assert.ErrorIs(t, err, domain.ErrInvalidDefinition)
}

func TestParser_ParseFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "qc.yaml")
	require.NoError(t, os.WriteFile(path, []byte(qualityControlYAML), 0o644))

	def, err := compiler.NewParser().ParseFile(path)
	require.NoError(t, err)
	assert.Len(t, def.States, 5)

	_, err = compiler.NewParser().ParseFile(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
