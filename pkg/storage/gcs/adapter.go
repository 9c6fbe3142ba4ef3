// Package gcs publishes objects to Google Cloud Storage.
package gcs

import (
	"context"
	"errors"
	"fmt"
	"io"

	gcsstorage "cloud.google.com/go/storage"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"

	"github.com/littlepadawan/turbospectrum-wrapper/pkg/config"
	"github.com/littlepadawan/turbospectrum-wrapper/pkg/storage"
	"github.com/littlepadawan/turbospectrum-wrapper/pkg/support/util/logger"
)

// ProviderType is the publish.type value selecting this adapter.
const ProviderType = "gcs"

// Adapter is a StorageConnection backed by a GCS client.
type Adapter struct {
	client *gcsstorage.Client
	bucket string
	log    *logger.Logger
}

var _ storage.StorageConnection = (*Adapter)(nil)

// NewAdapter opens a GCS client. cfg.CredentialsFile, when set, is a service account key;
// otherwise Application Default Credentials are used. Extra client options are appended.
func NewAdapter(ctx context.Context, cfg config.PublishConfig, log *logger.Logger, opts ...option.ClientOption) (*Adapter, error) {
	if cfg.Bucket == "" {
		return nil, fmt.Errorf("gcs storage: bucket must be specified")
	}
	var clientOpts []option.ClientOption
	if cfg.CredentialsFile != "" {
		clientOpts = append(clientOpts, option.WithCredentialsFile(cfg.CredentialsFile))
	}
	clientOpts = append(clientOpts, opts...)

	client, err := gcsstorage.NewClient(ctx, clientOpts...)
	if err != nil {
		return nil, fmt.Errorf("gcs storage: failed to create client: %w", err)
	}
	return &Adapter{client: client, bucket: cfg.Bucket, log: logger.OrDefault(log)}, nil
}

func (a *Adapter) Type() string { return ProviderType }

func (a *Adapter) Name() string { return "gs://" + a.bucket }

// Close releases the client.
func (a *Adapter) Close() error { return a.client.Close() }

func (a *Adapter) bucketName(bucket string) string {
	if bucket == "" {
		return a.bucket
	}
	return bucket
}

func (a *Adapter) bucketHandle(bucket string) *gcsstorage.BucketHandle {
	return a.client.Bucket(a.bucketName(bucket))
}

// Upload streams data into a new object version.
func (a *Adapter) Upload(ctx context.Context, bucket, objectName string, data io.Reader, contentType string) error {
	w := a.bucketHandle(bucket).Object(objectName).NewWriter(ctx)
	w.ContentType = contentType
	if _, err := io.Copy(w, data); err != nil {
		w.Close()
		return fmt.Errorf("failed to upload '%s': %w", objectName, err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("failed to finalize upload of '%s': %w", objectName, err)
	}
	a.log.Debugf("Uploaded gs://%s/%s", a.bucketName(bucket), objectName)
	return nil
}

// ListObjects pages through the objects whose names start with prefix.
func (a *Adapter) ListObjects(ctx context.Context, bucket, prefix string, fn func(objectName string) error) error {
	it := a.bucketHandle(bucket).Objects(ctx, &gcsstorage.Query{Prefix: prefix})
	for {
		attrs, err := it.Next()
		if errors.Is(err, iterator.Done) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("failed to list objects with prefix '%s': %w", prefix, err)
		}
		if err := fn(attrs.Name); err != nil {
			return err
		}
	}
}

// DeleteObject deletes objectName, ignoring objects that do not exist.
func (a *Adapter) DeleteObject(ctx context.Context, bucket, objectName string) error {
	err := a.bucketHandle(bucket).Object(objectName).Delete(ctx)
	if err != nil && !errors.Is(err, gcsstorage.ErrObjectNotExist) {
		return fmt.Errorf("failed to delete '%s': %w", objectName, err)
	}
	return nil
}
