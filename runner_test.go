package stepflow_test

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/aretw0/stepflow"
	"github.com/aretw0/stepflow/pkg/adapters/memory"
	"github.com/aretw0/stepflow/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunner_JSONLines(t *testing.T) {
	def, _ := referenceWorkflow(t)
	eng := stepflow.New(stepflow.WithDetector(memory.NewDetector(
		memory.WithLabels("pizza.jpeg", domain.Label{Name: "Pizza"}),
		memory.WithLabels("salad.jpeg", domain.Label{Name: "Salad"}),
	)))
	in := strings.NewReader(`{"Bucket":"b","Key":"pizza.jpeg"}

{"Bucket":"b","Key":"salad.jpeg"}
`)
	var out bytes.Buffer

	summary, err := stepflow.NewRunner(in, &out).Run(context.Background(), eng, def)

	require.NoError(t, err)
	assert.Equal(t, stepflow.Summary{Total: 2, Succeeded: 1}, summary)
	assert.False(t, summary.OK())

	var statuses []domain.Status
	scanner := bufio.NewScanner(&out)
	for scanner.Scan() {
		var res domain.ExecutionResult
		require.NoError(t, json.Unmarshal(scanner.Bytes(), &res))
		statuses = append(statuses, res.Status)
	}
	assert.Equal(t, []domain.Status{domain.StatusSucceeded, domain.StatusFailed}, statuses)
}

func TestRunner_Renderer(t *testing.T) {
	def, _ := referenceWorkflow(t)
	eng := stepflow.New(stepflow.WithDetector(memory.NewDetector(memory.WithDefaultLabels(domain.Label{Name: "Pizza"}))))
	var out bytes.Buffer
	r := stepflow.NewRunner(strings.NewReader(`{"Bucket":"b","Key":"k.jpeg"}`), &out)
	r.Renderer = func(res domain.ExecutionResult) string { return string(res.Status) + "\n" }

	summary, err := r.Run(context.Background(), eng, def)

	require.NoError(t, err)
	assert.True(t, summary.OK())
	assert.Equal(t, "Succeeded\n", out.String())
}

func TestRunner_MalformedLine(t *testing.T) {
	def, _ := referenceWorkflow(t)
	eng := stepflow.New()

	_, err := stepflow.NewRunner(strings.NewReader("not json\n"), &bytes.Buffer{}).Run(context.Background(), eng, def)

	assert.ErrorIs(t, err, domain.ErrInvalidInput)
	assert.Contains(t, err.Error(), "line 1")
}

func TestRunner_RequiresIO(t *testing.T) {
	_, err := (&stepflow.Runner{}).Run(context.Background(), stepflow.New(), nil)
	assert.Error(t, err)
}

func TestRunner_InputTooLarge(t *testing.T) {
	def, _ := referenceWorkflow(t)
	r := stepflow.NewRunner(strings.NewReader(`{"Bucket":"b","Key":"`+strings.Repeat("k", 100)+`"}`), &bytes.Buffer{})
	r.MaxInputSize = 32

	_, err := r.Run(context.Background(), stepflow.New(), def)

	assert.ErrorIs(t, err, stepflow.ErrInputTooLarge)
}

func TestRunner_InvalidUTF8(t *testing.T) {
	def, _ := referenceWorkflow(t)

	_, err := stepflow.NewRunner(strings.NewReader("{\"Key\":\"\xff\"}\n"), &bytes.Buffer{}).Run(context.Background(), stepflow.New(), def)

	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}
