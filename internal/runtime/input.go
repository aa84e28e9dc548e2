package runtime

import (
	"fmt"
	"reflect"
	"sort"

	"github.com/aretw0/stepflow/pkg/domain"
)

// Type names accepted in a definition's input schema.
var schemaTypes = map[string]func(any) bool{
	"string": func(v any) bool { _, ok := v.(string); return ok },
	"bool":   func(v any) bool { _, ok := v.(bool); return ok },
	"number": func(v any) bool {
		switch v.(type) {
		case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64, float32, float64:
			return true
		}
		return false
	},
	"object": func(v any) bool {
		rv := reflect.ValueOf(v)
		return rv.Kind() == reflect.Map
	},
	"array": func(v any) bool {
		rv := reflect.ValueOf(v)
		return rv.Kind() == reflect.Slice || rv.Kind() == reflect.Array
	},
	"any": func(any) bool { return true },
}

func validateSchema(schema map[string]string) error {
	for _, key := range sortedKeys(schema) {
		if _, ok := schemaTypes[schema[key]]; !ok {
			return fmt.Errorf("input field %q has unsupported type %q", key, schema[key])
		}
	}
	return nil
}

// checkInput verifies the initial context carries every field of the schema with
// the declared type.
func checkInput(schema map[string]string, data domain.Context) *domain.StepError {
	for _, key := range sortedKeys(schema) {
		typ := schema[key]
		v, ok := data[key]
		if !ok {
			return domain.NewStepError(domain.KindInvalidInput, "", fmt.Sprintf("input field %q is required", key))
		}
		check, known := schemaTypes[typ]
		if !known || !check(v) {
			return domain.NewStepError(domain.KindInvalidInput, "", fmt.Sprintf("input field %q: expected %s, got %T", key, typ, v))
		}
	}
	return nil
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
