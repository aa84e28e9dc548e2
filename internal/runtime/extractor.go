package runtime

import (
	"fmt"
	"strings"

	"github.com/aretw0/stepflow/pkg/domain"
)

// Extract returns a new context equal to ctx with destKey set to the value found
// at sourcePath. The input context is never modified.
//
// It fails with MissingField when the path resolves to nothing and TypeMismatch
// when an intermediate segment cannot be selected or indexed.
func Extract(ctx domain.Context, sourcePath, destKey string) (domain.Context, error) {
	dest := strings.TrimPrefix(strings.TrimPrefix(destKey, "$"), ".")
	if dest == "" || strings.ContainsAny(dest, ".[]") {
		return nil, domain.NewStepError(domain.KindInvalidInput, "", fmt.Sprintf("invalid destination key %q", destKey))
	}

	value, err := lookup(ctx, sourcePath)
	if err != nil {
		return nil, err
	}
	return ctx.With(dest, value), nil
}

// project applies the projections of a transform state in order.
// Later projections observe the output of earlier ones.
func project(ctx domain.Context, projections []domain.Projection) (domain.Context, error) {
	out := ctx
	for _, p := range projections {
		next, err := Extract(out, p.Source, p.Dest)
		if err != nil {
			return nil, err
		}
		out = next
	}
	return out, nil
}
