// Package output manages the run directory: creating it, persisting the configuration
// that produced it, and removing intermediate files once a run is done.
package output

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/littlepadawan/turbospectrum-wrapper/pkg/config"
	"github.com/littlepadawan/turbospectrum-wrapper/pkg/support/util/exception"
	"github.com/littlepadawan/turbospectrum-wrapper/pkg/support/util/logger"
)

const moduleName = "output"

// EffectiveConfigFile is the name of the YAML snapshot of the active configuration.
const EffectiveConfigFile = "configuration.effective.yaml"

// Manager implements the output directory operations.
type Manager struct {
	log *logger.Logger
}

// NewManager creates a Manager.
func NewManager(log *logger.Logger) *Manager {
	return &Manager{log: logger.OrDefault(log)}
}

// SetUpOutputDirectory creates the run directory with its spectra/ and temp/ subdirectories
// and checks that it is writable. Calling it again for the same configuration is a no-op.
func (m *Manager) SetUpOutputDirectory(cfg *config.Config) error {
	for _, dir := range []string{cfg.OutputDir(), cfg.SpectraDir(), cfg.TempDir()} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return exception.Newf(exception.KindIO, moduleName, "failed to create directory '%s'", dir, err)
		}
	}

	probe, err := os.CreateTemp(cfg.OutputDir(), ".write-probe-*")
	if err != nil {
		return exception.Newf(exception.KindIO, moduleName, "output directory '%s' is not writable", cfg.OutputDir(), err)
	}
	name := probe.Name()
	probe.Close()
	if err := os.Remove(name); err != nil {
		return exception.Newf(exception.KindIO, moduleName, "failed to remove write probe '%s'", name, err)
	}

	m.log.Infof("Output directory ready: %s", cfg.OutputDir())
	return nil
}

// CopyConfigFile copies the configuration source file into the run directory unchanged
// and writes a snapshot of the effective configuration next to it.
func (m *Manager) CopyConfigFile(cfg *config.Config) error {
	if cfg.SourcePath != "" {
		dst := filepath.Join(cfg.OutputDir(), filepath.Base(cfg.SourcePath))
		if err := copyFile(cfg.SourcePath, dst); err != nil {
			return exception.Newf(exception.KindIO, moduleName, "failed to copy configuration file '%s' to '%s'", cfg.SourcePath, dst, err)
		}
		m.log.Debugf("Copied configuration file to %s", dst)
	}

	snapshot, err := cfg.Snapshot()
	if err != nil {
		return exception.New(exception.KindIO, moduleName, "failed to render effective configuration", err)
	}
	dst := filepath.Join(cfg.OutputDir(), EffectiveConfigFile)
	if err := os.WriteFile(dst, snapshot, 0o644); err != nil {
		return exception.Newf(exception.KindIO, moduleName, "failed to write '%s'", dst, err)
	}

	m.log.Infof("Configuration saved to %s", cfg.OutputDir())
	return nil
}

// RemoveTempFiles deletes the temp/ directory of the run.
func (m *Manager) RemoveTempFiles(cfg *config.Config) error {
	if err := os.RemoveAll(cfg.TempDir()); err != nil {
		return exception.Newf(exception.KindIO, moduleName, "failed to remove temporary files in '%s'", cfg.TempDir(), err)
	}
	m.log.Infof("Removed temporary files in %s", cfg.TempDir())
	return nil
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return fmt.Errorf("copy: %w", err)
	}
	return out.Close()
}
