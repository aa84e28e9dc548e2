package memory

import (
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/aretw0/stepflow/pkg/domain"
)

// Object is a stored blob and its content type.
type Object struct {
	Data        []byte
	ContentType string
}

// ObjectStore implements ports.ObjectStore in memory.
type ObjectStore struct {
	bucket  string
	mu      sync.RWMutex
	objects map[string]Object
}

// NewObjectStore creates an empty store whose locators carry bucket.
func NewObjectStore(bucket string) *ObjectStore {
	return &ObjectStore{
		bucket:  bucket,
		objects: make(map[string]Object),
	}
}

// Put stores the contents of r under key.
func (s *ObjectStore) Put(ctx context.Context, key string, r io.Reader, contentType string) (domain.Locator, error) {
	loc := domain.Locator{Bucket: s.bucket, Key: key}
	if err := loc.Validate(); err != nil {
		return domain.Locator{}, err
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return domain.Locator{}, fmt.Errorf("failed to read object %s: %w", loc, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.objects[key] = Object{Data: data, ContentType: contentType}
	return loc, nil
}

// Exists reports whether key has been stored.
func (s *ObjectStore) Exists(ctx context.Context, key string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.objects[key]
	return ok, nil
}

// Get returns the object stored under key.
func (s *ObjectStore) Get(key string) (Object, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	obj, ok := s.objects[key]
	if !ok {
		return Object{}, fmt.Errorf("%w: %s/%s", domain.ErrObjectNotFound, s.bucket, key)
	}
	return obj, nil
}
