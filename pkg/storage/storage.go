// Package storage defines the storage connections spectra are published to and the
// Publisher that mirrors a run's results into one.
package storage

import (
	"context"
	"io"

	"github.com/littlepadawan/turbospectrum-wrapper/pkg/config"
)

// StorageExecutor defines the object operations a backend must support.
type StorageExecutor interface {
	// Upload writes data to objectName in bucket. contentType is the MIME type of the data.
	Upload(ctx context.Context, bucket, objectName string, data io.Reader, contentType string) error
	// ListObjects calls fn for every object of bucket whose name starts with prefix.
	ListObjects(ctx context.Context, bucket, prefix string, fn func(objectName string) error) error
	// DeleteObject removes objectName; a missing object is not an error.
	DeleteObject(ctx context.Context, bucket, objectName string) error
}

// StorageConnection is an open connection to a storage backend.
type StorageConnection interface {
	StorageExecutor
	// Type returns the backend type ("local", "gcs").
	Type() string
	// Name returns the connection name used in log messages.
	Name() string
	Close() error
}

// ConnectionFactory opens the connection described by cfg.
type ConnectionFactory func(ctx context.Context, cfg config.PublishConfig) (StorageConnection, error)
