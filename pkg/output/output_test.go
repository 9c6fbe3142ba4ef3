package output_test

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/littlepadawan/turbospectrum-wrapper/pkg/config"
	"github.com/littlepadawan/turbospectrum-wrapper/pkg/output"
	"github.com/littlepadawan/turbospectrum-wrapper/pkg/support/util/exception"
	"github.com/littlepadawan/turbospectrum-wrapper/pkg/support/util/logger"
)

func newTestConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg := config.NewConfig()
	cfg.Paths.OutputBase = filepath.Join(t.TempDir(), "output")
	cfg.RunName = "2024-01-01-00-00-00"
	return cfg
}

func newManager() *output.Manager {
	return output.NewManager(logger.New(&bytes.Buffer{}, logger.LevelError))
}

func TestSetUpOutputDirectory_CreatesLayout(t *testing.T) {
	cfg := newTestConfig(t)
	m := newManager()

	require.NoError(t, m.SetUpOutputDirectory(cfg))

	for _, dir := range []string{cfg.OutputDir(), cfg.SpectraDir(), cfg.TempDir()} {
		info, err := os.Stat(dir)
		require.NoError(t, err)
		assert.True(t, info.IsDir())
	}

	entries, err := os.ReadDir(cfg.OutputDir())
	require.NoError(t, err)
	assert.Len(t, entries, 2, "probe file must not be left behind")
}

func TestSetUpOutputDirectory_Idempotent(t *testing.T) {
	cfg := newTestConfig(t)
	m := newManager()

	require.NoError(t, m.SetUpOutputDirectory(cfg))
	marker := filepath.Join(cfg.SpectraDir(), "keep.spec")
	require.NoError(t, os.WriteFile(marker, []byte("x"), 0o644))

	require.NoError(t, m.SetUpOutputDirectory(cfg))
	_, err := os.Stat(marker)
	assert.NoError(t, err)
}

func TestSetUpOutputDirectory_BaseIsAFile(t *testing.T) {
	cfg := newTestConfig(t)
	require.NoError(t, os.WriteFile(cfg.Paths.OutputBase, []byte("not a dir"), 0o644))

	err := newManager().SetUpOutputDirectory(cfg)
	require.Error(t, err)
	assert.True(t, exception.IsKind(err, exception.KindIO))
}

func TestCopyConfigFile(t *testing.T) {
	cfg := newTestConfig(t)
	src := filepath.Join(t.TempDir(), "configuration.yaml")
	original := []byte("compiler: gfortran\n# comment kept verbatim\n")
	require.NoError(t, os.WriteFile(src, original, 0o644))
	cfg.SourcePath = src

	m := newManager()
	require.NoError(t, m.SetUpOutputDirectory(cfg))
	require.NoError(t, m.CopyConfigFile(cfg))

	copied, err := os.ReadFile(filepath.Join(cfg.OutputDir(), "configuration.yaml"))
	require.NoError(t, err)
	assert.Equal(t, original, copied)

	snapshot, err := os.ReadFile(filepath.Join(cfg.OutputDir(), output.EffectiveConfigFile))
	require.NoError(t, err)
	assert.Contains(t, string(snapshot), "compiler: gfortran")
}

func TestCopyConfigFile_MissingSource(t *testing.T) {
	cfg := newTestConfig(t)
	cfg.SourcePath = filepath.Join(t.TempDir(), "gone.yaml")

	m := newManager()
	require.NoError(t, m.SetUpOutputDirectory(cfg))

	err := m.CopyConfigFile(cfg)
	require.Error(t, err)
	assert.True(t, exception.IsKind(err, exception.KindIO))
}

func TestRemoveTempFiles(t *testing.T) {
	cfg := newTestConfig(t)
	m := newManager()
	require.NoError(t, m.SetUpOutputDirectory(cfg))
	require.NoError(t, os.WriteFile(filepath.Join(cfg.TempDir(), "model.interpol"), []byte("x"), 0o644))

	require.NoError(t, m.RemoveTempFiles(cfg))

	_, err := os.Stat(cfg.TempDir())
	assert.True(t, os.IsNotExist(err))
	_, err = os.Stat(cfg.SpectraDir())
	assert.NoError(t, err)
}
