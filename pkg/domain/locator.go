package domain

import (
	"fmt"
	"strings"
)

// Locator identifies a stored object (bucket/key equivalent).
type Locator struct {
	Bucket string `json:"bucket"`
	Key    string `json:"key"`
}

func (l Locator) String() string {
	return fmt.Sprintf("%s/%s", l.Bucket, l.Key)
}

// Validate checks that the locator addresses a single object.
func (l Locator) Validate() error {
	if l.Bucket == "" {
		return fmt.Errorf("%w: bucket must not be empty", ErrInvalidInput)
	}
	return ValidateKey(l.Key)
}

// ValidateKey rejects empty keys and keys escaping their bucket.
func ValidateKey(key string) error {
	if key == "" {
		return fmt.Errorf("%w: object key must not be empty", ErrInvalidInput)
	}
	if strings.Contains(key, "..") {
		return fmt.Errorf("%w: object key %q must not contain '..'", ErrInvalidInput, key)
	}
	return nil
}
