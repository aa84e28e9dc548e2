package ports

import (
	"context"
	"io"

	"github.com/aretw0/stepflow/pkg/domain"
)

// ObjectStore defines how objects to be analyzed are stored.
type ObjectStore interface {
	// Put streams the object to the given key and returns its locator.
	Put(ctx context.Context, key string, reader io.Reader, contentType string) (domain.Locator, error)

	// Exists reports whether an object is stored at the given key.
	Exists(ctx context.Context, key string) (bool, error)
}
