package runtime_test

import (
	"testing"

	"github.com/aretw0/stepflow/internal/runtime"
	"github.com/aretw0/stepflow/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func detection(names ...string) domain.Context {
	labels := make([]domain.Label, 0, len(names))
	for _, n := range names {
		labels = append(labels, domain.Label{Name: n, Confidence: 90})
	}
	return domain.NewContext(domain.LabelsResult(labels))
}

func TestExtract_FirstLabel(t *testing.T) {
	in := detection("Pizza", "Food")

	out, err := runtime.Extract(in, "$.Labels[0].Name", "food")

	require.NoError(t, err)
	assert.Equal(t, "Pizza", out["food"])
	assert.NotContains(t, in, "food", "input context must not change")
	assert.Equal(t, in["Labels"], out["Labels"])
}

func TestExtract_Idempotent(t *testing.T) {
	in := detection("Salad")

	once, err := runtime.Extract(in, "$.Labels[0].Name", "food")
	require.NoError(t, err)
	twice, err := runtime.Extract(once, "$.Labels[0].Name", "food")
	require.NoError(t, err)

	assert.Equal(t, once, twice)
}

func TestExtract_Paths(t *testing.T) {
	ctx := domain.Context{
		"Labels": []any{map[string]any{"Name": "Pizza"}},
		"count":  3,
		"nested": map[string]any{"inner": map[string]any{"v": "deep"}},
		"null":   nil,
		"typed":  []map[string]any{{"Name": "Typed"}},
	}

	tests := []struct {
		name string
		path string
		want any
		kind domain.ErrorKind
	}{
		{"without root", "Labels[0].Name", "Pizza", ""},
		{"nested fields", "$.nested.inner.v", "deep", ""},
		{"typed slice", "$.typed[0].Name", "Typed", ""},
		{"missing key", "$.absent", nil, domain.KindMissingField},
		{"index out of range", "$.Labels[1].Name", nil, domain.KindMissingField},
		{"field of a list", "$.Labels.Name", nil, domain.KindTypeMismatch},
		{"index into a number", "$.count[0]", nil, domain.KindTypeMismatch},
		{"through null", "$.null.x", nil, domain.KindMissingField},
		{"unclosed index", "$.Labels[0", nil, domain.KindInvalidInput},
		{"negative index", "$.Labels[-1]", nil, domain.KindInvalidInput},
		{"empty segment", "$.nested..v", nil, domain.KindInvalidInput},
		{"empty path", "", nil, domain.KindInvalidInput},
		{"field glued to index", "$.Labels[0]Name", nil, domain.KindInvalidInput},
		{"double dot after root", "$..x", nil, domain.KindInvalidInput},
		{"field glued to root", "$foo", nil, domain.KindInvalidInput},
		{"root only dot", "$.", nil, domain.KindInvalidInput},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := runtime.Extract(ctx, tt.path, "dest")
			if tt.kind == "" {
				require.NoError(t, err)
				assert.Equal(t, tt.want, out["dest"])
				return
			}
			require.Error(t, err)
			assert.Equal(t, tt.kind, domain.KindOf(err, ""))
			assert.ErrorIs(t, err, tt.kind.Sentinel())
		})
	}
}

func TestExtract_WholeContext(t *testing.T) {
	ctx := domain.Context{"a": "b"}

	out, err := runtime.Extract(ctx, "$", "copy")

	require.NoError(t, err)
	assert.Equal(t, map[string]any{"a": "b"}, out["copy"])
}

func TestExtract_InvalidDestination(t *testing.T) {
	for _, dest := range []string{"", "$.", "a.b", "a[0]"} {
		_, err := runtime.Extract(detection("Pizza"), "$.Labels[0].Name", dest)
		assert.ErrorIs(t, err, domain.ErrInvalidInput, "dest %q", dest)
	}
}

func TestExtract_DestWithRootPrefix(t *testing.T) {
	out, err := runtime.Extract(detection("Pizza"), "$.Labels[0].Name", "$.food")

	require.NoError(t, err)
	assert.Equal(t, "Pizza", out["food"])
}

func TestExtract_EmptyLabels(t *testing.T) {
	_, err := runtime.Extract(detection(), "$.Labels[0].Name", "food")

	assert.ErrorIs(t, err, domain.ErrMissingField)
}

func TestExtract_CopyIsIndependent(t *testing.T) {
	in := detection("Pizza")

	out, err := runtime.Extract(in, "$.Labels[0]", "first")
	require.NoError(t, err)
	out["first"].(map[string]any)["Name"] = "Changed"

	assert.Equal(t, "Pizza", in["Labels"].([]any)[0].(map[string]any)["Name"])
}
