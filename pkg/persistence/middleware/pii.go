package middleware

import (
	"context"
	"fmt"
	"regexp"

	"github.com/aretw0/stepflow/pkg/domain"
	"github.com/aretw0/stepflow/pkg/ports"
)

// Mask replaces the values of masked context fields.
const Mask = "***"

type piiMiddleware struct {
	next     ports.ResultStore
	patterns []*regexp.Regexp
}

// NewPIIMiddleware creates a middleware that masks context values whose key
// matches any of the patterns, at any depth, before the result is stored.
func NewPIIMiddleware(patterns []string) (Middleware, error) {
	compiled := make([]*regexp.Regexp, len(patterns))
	for i, p := range patterns {
		re, err := regexp.Compile(p)
		if err != nil {
			return nil, fmt.Errorf("%w: mask pattern %q: %v", domain.ErrInvalidInput, p, err)
		}
		compiled[i] = re
	}
	return func(next ports.ResultStore) ports.ResultStore {
		return &piiMiddleware{next: next, patterns: compiled}
	}, nil
}

func (m *piiMiddleware) Save(ctx context.Context, result domain.ExecutionResult) error {
	// The engine still holds result; mask a copy.
	result.Context = result.Context.Clone()
	maskValue(map[string]any(result.Context), m.patterns)
	return m.next.Save(ctx, result)
}

func (m *piiMiddleware) Load(ctx context.Context, id string) (domain.ExecutionResult, error) {
	return m.next.Load(ctx, id)
}

func (m *piiMiddleware) Delete(ctx context.Context, id string) error {
	return m.next.Delete(ctx, id)
}

func (m *piiMiddleware) List(ctx context.Context) ([]string, error) {
	return m.next.List(ctx)
}

func maskValue(v any, patterns []*regexp.Regexp) {
	switch t := v.(type) {
	case map[string]any:
		for k, sub := range t {
			if matchesAny(k, patterns) {
				t[k] = Mask
				continue
			}
			maskValue(sub, patterns)
		}
	case []any:
		for _, item := range t {
			maskValue(item, patterns)
		}
	}
}

func matchesAny(key string, patterns []*regexp.Regexp) bool {
	for _, p := range patterns {
		if p.MatchString(key) {
			return true
		}
	}
	return false
}
