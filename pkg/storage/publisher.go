package storage

import (
	"context"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"github.com/hashicorp/go-multierror"

	"github.com/littlepadawan/turbospectrum-wrapper/pkg/config"
	"github.com/littlepadawan/turbospectrum-wrapper/pkg/support/util/exception"
	"github.com/littlepadawan/turbospectrum-wrapper/pkg/support/util/logger"
)

const moduleName = "storage"

// ParametersFile is the parameter table published next to the spectra when it exists.
const ParametersFile = "parameters.parquet"

// Publisher implements publish_spectra.
type Publisher struct {
	open ConnectionFactory
	log  *logger.Logger
}

// NewPublisher creates a Publisher that opens its connection through open.
func NewPublisher(open ConnectionFactory, log *logger.Logger) *Publisher {
	return &Publisher{open: open, log: logger.OrDefault(log)}
}

type upload struct {
	src         string
	object      string
	contentType string
}

// ObjectPrefix is the object name prefix of a run: <publish.prefix>/<run name>.
func ObjectPrefix(cfg *config.Config) string {
	return path.Join(cfg.Publish.Prefix, cfg.RunName)
}

// PublishSpectra mirrors the run's spectra (and parameters.parquet when present) to
// <bucket>/<prefix>/<run name>/. Objects left under that prefix by an earlier publish
// of the same run name that are no longer produced are deleted.
func (p *Publisher) PublishSpectra(ctx context.Context, cfg *config.Config) error {
	uploads, err := collectUploads(cfg)
	if err != nil {
		return err
	}

	conn, err := p.open(ctx, cfg.Publish)
	if err != nil {
		return exception.Newf(exception.KindIO, moduleName, "cannot open %s storage", cfg.Publish.Type, err)
	}
	defer func() {
		if err := conn.Close(); err != nil {
			p.log.Warnf("Failed to close storage connection %s: %v", conn.Name(), err)
		}
	}()

	bucket := cfg.Publish.Bucket
	prefix := ObjectPrefix(cfg)
	p.log.Infof("Publishing %d files to %s under %s/", len(uploads), conn.Name(), prefix)

	var errs *multierror.Error
	wanted := make(map[string]bool, len(uploads))
	for _, u := range uploads {
		if err := ctx.Err(); err != nil {
			errs = multierror.Append(errs, err)
			break
		}
		wanted[u.object] = true
		if err := uploadFile(ctx, conn, bucket, u); err != nil {
			errs = multierror.Append(errs, err)
		}
	}
	if err := errs.ErrorOrNil(); err != nil {
		return exception.Newf(exception.KindIO, moduleName, "failed to publish %d of %d files", len(errs.Errors), len(uploads), err)
	}

	var stale []string
	err = conn.ListObjects(ctx, bucket, prefix+"/", func(name string) error {
		if !wanted[name] {
			stale = append(stale, name)
		}
		return nil
	})
	if err != nil {
		return exception.New(exception.KindIO, moduleName, "cannot list published objects", err)
	}
	for _, name := range stale {
		if err := conn.DeleteObject(ctx, bucket, name); err != nil {
			errs = multierror.Append(errs, err)
		}
	}
	if err := errs.ErrorOrNil(); err != nil {
		return exception.Newf(exception.KindIO, moduleName, "failed to remove %d stale objects", len(errs.Errors), err)
	}
	if len(stale) > 0 {
		p.log.Infof("Removed %d stale objects under %s/", len(stale), prefix)
	}
	p.log.Infof("Published %d files to %s", len(uploads), conn.Name())
	return nil
}

func collectUploads(cfg *config.Config) ([]upload, error) {
	prefix := ObjectPrefix(cfg)
	dir := cfg.SpectraDir()
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, exception.Newf(exception.KindIO, moduleName, "cannot read spectra directory '%s'", dir, err)
	}

	var out []upload
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		out = append(out, upload{
			src:         filepath.Join(dir, e.Name()),
			object:      path.Join(prefix, config.SpectraDirName, e.Name()),
			contentType: "text/plain",
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].object < out[j].object })

	params := filepath.Join(cfg.OutputDir(), ParametersFile)
	if _, err := os.Stat(params); err == nil {
		out = append(out, upload{
			src:         params,
			object:      path.Join(prefix, ParametersFile),
			contentType: "application/octet-stream",
		})
	}
	return out, nil
}

func uploadFile(ctx context.Context, conn StorageConnection, bucket string, u upload) error {
	f, err := os.Open(u.src)
	if err != nil {
		return fmt.Errorf("cannot open %s: %w", u.src, err)
	}
	defer f.Close()
	if err := conn.Upload(ctx, bucket, u.object, f, u.contentType); err != nil {
		return fmt.Errorf("%s: %w", strings.TrimPrefix(u.object, "/"), err)
	}
	return nil
}
