// Package local stores published objects on the local file system.
package local

import (
	"context"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/littlepadawan/turbospectrum-wrapper/pkg/config"
	"github.com/littlepadawan/turbospectrum-wrapper/pkg/storage"
	"github.com/littlepadawan/turbospectrum-wrapper/pkg/support/util/logger"
)

// ProviderType is the publish.type value selecting this adapter.
const ProviderType = "local"

// Adapter maps bucket/objectName to BaseDir/bucket/objectName.
type Adapter struct {
	baseDir string
	bucket  string
	log     *logger.Logger
}

var _ storage.StorageConnection = (*Adapter)(nil)

// NewAdapter creates an Adapter rooted at cfg.BaseDir, creating the directory if needed.
// cfg.Bucket is the default bucket when an operation passes an empty one.
func NewAdapter(cfg config.PublishConfig, log *logger.Logger) (*Adapter, error) {
	if cfg.BaseDir == "" {
		return nil, fmt.Errorf("local storage: base_dir must be specified")
	}
	info, err := os.Stat(cfg.BaseDir)
	switch {
	case os.IsNotExist(err):
		if err := os.MkdirAll(cfg.BaseDir, 0o755); err != nil {
			return nil, fmt.Errorf("local storage: failed to create base_dir '%s': %w", cfg.BaseDir, err)
		}
	case err != nil:
		return nil, fmt.Errorf("local storage: failed to stat base_dir '%s': %w", cfg.BaseDir, err)
	case !info.IsDir():
		return nil, fmt.Errorf("local storage: base_dir '%s' is not a directory", cfg.BaseDir)
	}

	abs, err := filepath.Abs(cfg.BaseDir)
	if err != nil {
		return nil, fmt.Errorf("local storage: failed to resolve base_dir '%s': %w", cfg.BaseDir, err)
	}
	return &Adapter{baseDir: abs, bucket: cfg.Bucket, log: logger.OrDefault(log)}, nil
}

func (a *Adapter) Type() string { return ProviderType }

func (a *Adapter) Name() string { return ProviderType + ":" + a.baseDir }

// Close does nothing; the adapter holds no resources.
func (a *Adapter) Close() error { return nil }

// Upload writes data to the resolved path, creating parent directories.
func (a *Adapter) Upload(ctx context.Context, bucket, objectName string, data io.Reader, contentType string) error {
	fullPath, err := a.resolvePath(bucket, objectName)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(fullPath), 0o755); err != nil {
		return fmt.Errorf("failed to create directory for '%s': %w", fullPath, err)
	}

	file, err := os.Create(fullPath)
	if err != nil {
		return fmt.Errorf("failed to create file '%s': %w", fullPath, err)
	}
	if _, err := io.Copy(file, data); err != nil {
		file.Close()
		return fmt.Errorf("failed to write file '%s': %w", fullPath, err)
	}
	if err := file.Close(); err != nil {
		return fmt.Errorf("failed to close file '%s': %w", fullPath, err)
	}
	a.log.Debugf("Stored %s", fullPath)
	return nil
}

// ListObjects walks the bucket directory. Object names use '/' separators and are
// relative to the bucket.
func (a *Adapter) ListObjects(ctx context.Context, bucket, prefix string, fn func(objectName string) error) error {
	root, err := a.resolvePath(bucket, "")
	if err != nil {
		return err
	}
	if _, err := os.Stat(root); os.IsNotExist(err) {
		return nil
	}

	err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		name := filepath.ToSlash(rel)
		if !strings.HasPrefix(name, prefix) {
			return nil
		}
		return fn(name)
	})
	if err != nil {
		return fmt.Errorf("failed to list '%s' with prefix '%s': %w", root, prefix, err)
	}
	return nil
}

// DeleteObject removes the file behind objectName.
func (a *Adapter) DeleteObject(ctx context.Context, bucket, objectName string) error {
	fullPath, err := a.resolvePath(bucket, objectName)
	if err != nil {
		return err
	}
	if err := os.Remove(fullPath); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete '%s': %w", fullPath, err)
	}
	return nil
}

// resolvePath joins base dir, bucket and object name, refusing paths that escape the base dir.
func (a *Adapter) resolvePath(bucket, objectName string) (string, error) {
	if bucket == "" {
		bucket = a.bucket
	}
	fullPath := filepath.Join(a.baseDir, bucket, filepath.FromSlash(objectName))
	if fullPath != a.baseDir && !strings.HasPrefix(fullPath, a.baseDir+string(filepath.Separator)) {
		return "", fmt.Errorf("object '%s' resolves outside of base_dir '%s'", objectName, a.baseDir)
	}
	return fullPath, nil
}
