package domain

// Context holds the working data of a single execution.
// It is owned by exactly one in-flight run and never shared across runs.
type Context map[string]any

// NewContext creates a context seeded with a deep copy of initial.
func NewContext(initial map[string]any) Context {
	return Context(initial).Clone()
}

// Clone returns a deep copy of the context. Nested maps and slices are copied
// so that writes to the clone are never visible through the original.
func (c Context) Clone() Context {
	out := make(Context, len(c))
	for k, v := range c {
		out[k] = cloneValue(v)
	}
	return out
}

// With returns a copy of the context with key set to value.
func (c Context) With(key string, value any) Context {
	out := c.Clone()
	out[key] = cloneValue(value)
	return out
}

func cloneValue(v any) any {
	switch t := v.(type) {
	case map[string]any:
		m := make(map[string]any, len(t))
		for k, inner := range t {
			m[k] = cloneValue(inner)
		}
		return m
	case Context:
		return t.Clone()
	case []any:
		s := make([]any, len(t))
		for i, inner := range t {
			s[i] = cloneValue(inner)
		}
		return s
	case []map[string]any:
		s := make([]map[string]any, len(t))
		for i, inner := range t {
			s[i] = cloneValue(inner).(map[string]any)
		}
		return s
	case []string:
		return append([]string(nil), t...)
	default:
		return v
	}
}
