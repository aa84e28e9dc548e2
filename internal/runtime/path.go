package runtime

import (
	"fmt"
	"reflect"
	"strconv"
	"strings"

	"github.com/aretw0/stepflow/pkg/domain"
)

// segment is one step of a path: a field name or a sequence index.
type segment struct {
	field   string
	index   int
	isIndex bool
}

func (s segment) String() string {
	if s.isIndex {
		return fmt.Sprintf("[%d]", s.index)
	}
	return s.field
}

// parsePath splits a path such as "$.Labels[0].Name" into segments.
// The "$" root is optional; "$" alone addresses the whole context.
func parsePath(path string) ([]segment, error) {
	p := strings.TrimSpace(path)
	if p == "" {
		return nil, domain.NewStepError(domain.KindInvalidInput, "", "empty path")
	}
	if rest, ok := strings.CutPrefix(p, "$"); ok {
		if rest != "" && rest[0] != '.' && rest[0] != '[' {
			return nil, domain.NewStepError(domain.KindInvalidInput, "", fmt.Sprintf("expected . or [ after $ in path %q", path))
		}
		p = rest
	}
	if strings.HasPrefix(p, ".") {
		if len(p) == 1 || p[1] == '.' || p[1] == '[' {
			return nil, domain.NewStepError(domain.KindInvalidInput, "", fmt.Sprintf("empty field in path %q", path))
		}
		p = p[1:]
	}

	var segs []segment
	for i := 0; i < len(p); {
		switch p[i] {
		case '[':
			end := strings.IndexByte(p[i:], ']')
			if end < 0 {
				return nil, domain.NewStepError(domain.KindInvalidInput, "", fmt.Sprintf("unclosed index in path %q", path))
			}
			n, err := strconv.Atoi(p[i+1 : i+end])
			if err != nil || n < 0 {
				return nil, domain.NewStepError(domain.KindInvalidInput, "", fmt.Sprintf("invalid index %q in path %q", p[i+1:i+end], path))
			}
			segs = append(segs, segment{index: n, isIndex: true})
			i += end + 1
			if i < len(p) && p[i] != '.' && p[i] != '[' {
				return nil, domain.NewStepError(domain.KindInvalidInput, "", fmt.Sprintf("expected . or [ after index in path %q", path))
			}
		case '.':
			if i+1 >= len(p) || p[i+1] == '.' || p[i+1] == '[' {
				return nil, domain.NewStepError(domain.KindInvalidInput, "", fmt.Sprintf("empty field in path %q", path))
			}
			i++
		default:
			end := strings.IndexAny(p[i:], ".[")
			if end < 0 {
				end = len(p) - i
			}
			segs = append(segs, segment{field: p[i : i+end]})
			i += end
		}
	}
	return segs, nil
}

// lookup resolves path against the context without modifying it.
func lookup(ctx domain.Context, path string) (any, error) {
	segs, err := parsePath(path)
	if err != nil {
		return nil, err
	}

	var current any = map[string]any(ctx)
	walked := "$"
	for _, seg := range segs {
		if current == nil {
			return nil, domain.NewStepError(domain.KindMissingField, "", fmt.Sprintf("%s is null, cannot resolve %s", walked, seg))
		}
		if seg.isIndex {
			current, err = indexInto(current, seg.index, walked)
			walked += seg.String()
		} else {
			current, err = fieldOf(current, seg.field, walked)
			walked += "." + seg.field
		}
		if err != nil {
			return nil, err
		}
	}
	return current, nil
}

func fieldOf(value any, field, walked string) (any, error) {
	var m map[string]any
	switch t := value.(type) {
	case map[string]any:
		m = t
	case domain.Context:
		m = t
	default:
		rv := reflect.ValueOf(value)
		if rv.Kind() != reflect.Map || rv.Type().Key().Kind() != reflect.String {
			return nil, domain.NewStepError(domain.KindTypeMismatch, "", fmt.Sprintf("%s is %T, cannot select field %q", walked, value, field))
		}
		v := rv.MapIndex(reflect.ValueOf(field).Convert(rv.Type().Key()))
		if !v.IsValid() {
			return nil, domain.NewStepError(domain.KindMissingField, "", fmt.Sprintf("field %q not found at %s", field, walked))
		}
		return v.Interface(), nil
	}

	v, ok := m[field]
	if !ok {
		return nil, domain.NewStepError(domain.KindMissingField, "", fmt.Sprintf("field %q not found at %s", field, walked))
	}
	return v, nil
}

func indexInto(value any, index int, walked string) (any, error) {
	rv := reflect.ValueOf(value)
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return nil, domain.NewStepError(domain.KindTypeMismatch, "", fmt.Sprintf("%s is %T, cannot index [%d]", walked, value, index))
	}
	if index >= rv.Len() {
		return nil, domain.NewStepError(domain.KindMissingField, "", fmt.Sprintf("index %d absent at %s (length %d)", index, walked, rv.Len()))
	}
	return rv.Index(index).Interface(), nil
}
