// Package blobstore implements ports.ObjectStore on Azure Blob Storage.
package blobstore

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob/blob"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob/bloberror"
	"github.com/aretw0/stepflow/pkg/domain"
)

// Store uploads workflow inputs into a single blob container.
type Store struct {
	client    *azblob.Client
	container string
	logger    *slog.Logger
}

// New creates a store from the given configuration.
// It validates the connection string and creates the Azure client
// but does not contact the service until a method is called.
func New(cfg Config, logger *slog.Logger) (*Store, error) {
	client, err := azblob.NewClientFromConnectionString(cfg.ConnectionString, nil)
	if err != nil {
		return nil, fmt.Errorf("create storage client: %w", err)
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &Store{
		client:    client,
		container: cfg.Container,
		logger:    logger.With("component", "blobstore"),
	}, nil
}

// EnsureContainer creates the container if it does not exist yet.
func (s *Store) EnsureContainer(ctx context.Context) error {
	_, err := s.client.CreateContainer(ctx, s.container, nil)
	if err != nil && !bloberror.HasCode(err, bloberror.ContainerAlreadyExists) {
		return fmt.Errorf("%w: create container %s: %v", domain.ErrServiceUnavailable, s.container, err)
	}
	s.logger.Info("storage container ready", "container", s.container)
	return nil
}

// Put streams r to the blob at key.
func (s *Store) Put(ctx context.Context, key string, r io.Reader, contentType string) (domain.Locator, error) {
	loc := domain.Locator{Bucket: s.container, Key: key}
	if err := loc.Validate(); err != nil {
		return domain.Locator{}, err
	}

	opts := &azblob.UploadStreamOptions{
		HTTPHeaders: &blob.HTTPHeaders{
			BlobContentType: &contentType,
		},
	}
	if _, err := s.client.UploadStream(ctx, s.container, key, r, opts); err != nil {
		return domain.Locator{}, fmt.Errorf("%w: upload blob %s: %v", domain.ErrServiceUnavailable, loc, err)
	}

	s.logger.Debug("object uploaded", "locator", loc.String(), "content_type", contentType)
	return loc, nil
}

// Exists reports whether a blob exists at key.
func (s *Store) Exists(ctx context.Context, key string) (bool, error) {
	if err := domain.ValidateKey(key); err != nil {
		return false, err
	}

	blobClient := s.client.
		ServiceClient().
		NewContainerClient(s.container).
		NewBlobClient(key)

	if _, err := blobClient.GetProperties(ctx, nil); err != nil {
		if bloberror.HasCode(err, bloberror.BlobNotFound) {
			return false, nil
		}
		return false, fmt.Errorf("%w: check blob %s/%s: %v", domain.ErrServiceUnavailable, s.container, key, err)
	}
	return true, nil
}
