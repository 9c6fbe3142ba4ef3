package interpolation_test

import (
	"bytes"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/littlepadawan/turbospectrum-wrapper/pkg/config"
	"github.com/littlepadawan/turbospectrum-wrapper/pkg/interpolation"
	"github.com/littlepadawan/turbospectrum-wrapper/pkg/support/util/exception"
	"github.com/littlepadawan/turbospectrum-wrapper/pkg/support/util/logger"
)

func newConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg := config.NewConfig()
	cfg.RunName = "run"
	cfg.Paths.OutputBase = t.TempDir()
	cfg.Paths.Interpolator = "/opt/interpolator"
	require.NoError(t, os.MkdirAll(cfg.TempDir(), 0o755))
	return cfg
}

func models() []string {
	out := make([]string, 8)
	for i := range out {
		out[i] = fmt.Sprintf("/grid/m%d.mod", i+1)
	}
	return out
}

func TestCreateTemplateAndRender(t *testing.T) {
	cfg := newConfig(t)
	w := interpolation.NewWriter(logger.New(&bytes.Buffer{}, logger.LevelError))

	require.NoError(t, w.CreateTemplateInterpolatorScript(cfg))
	path := interpolation.TemplatePath(cfg)
	assert.FileExists(t, path)

	tmpl, err := interpolation.LoadTemplate(path)
	require.NoError(t, err)

	script, err := tmpl.Render(interpolation.Input{
		ID:          "000001",
		Executable:  "/opt/interpolator/interpol_modeles",
		Models:      models(),
		OutputModel: "/run/temp/000001/000001.interpol",
		OutputAlt:   "/run/temp/000001/000001.alt",
		Teff:        5777,
		Logg:        4.44,
		FeH:         -0.25,
	})
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(script), "\n")
	assert.Equal(t, "#!/bin/sh", lines[0])
	assert.Equal(t, "'/opt/interpolator/interpol_modeles' <<'EOF'", lines[3])
	assert.Equal(t, "'/grid/m1.mod'", lines[4])
	assert.Equal(t, "'/grid/m8.mod'", lines[11])
	assert.Equal(t, "'/run/temp/000001/000001.interpol'", lines[12])
	assert.Equal(t, "'/run/temp/000001/000001.alt'", lines[13])
	assert.Equal(t, []string{"5777.00", "4.440", "-0.250", ".false.", ".false.", "EOF"}, lines[14:])
}

func TestRender_RequiresEightModels(t *testing.T) {
	cfg := newConfig(t)
	require.NoError(t, interpolation.NewWriter(nil).CreateTemplateInterpolatorScript(cfg))
	tmpl, err := interpolation.LoadTemplate(interpolation.TemplatePath(cfg))
	require.NoError(t, err)

	_, err = tmpl.Render(interpolation.Input{ID: "x", Executable: "/bin/true", Models: models()[:4]})
	assert.Error(t, err)

	_, err = tmpl.Render(interpolation.Input{ID: "x", Models: models()})
	assert.Error(t, err)
}

func TestCreateTemplate_ExecutablePathIsNotTemplateText(t *testing.T) {
	cfg := newConfig(t)
	cfg.Paths.Interpolator = "/opt/it's {{.ID}}"
	require.NoError(t, interpolation.NewWriter(nil).CreateTemplateInterpolatorScript(cfg))

	data, err := os.ReadFile(interpolation.TemplatePath(cfg))
	require.NoError(t, err)
	assert.NotContains(t, string(data), cfg.Paths.Interpolator)

	tmpl, err := interpolation.LoadTemplate(interpolation.TemplatePath(cfg))
	require.NoError(t, err)
	script, err := tmpl.Render(interpolation.Input{
		ID:         "000007",
		Executable: "/opt/it's {{.ID}}/interpol_modeles",
		Models:     models(),
	})
	require.NoError(t, err)

	lines := strings.Split(script, "\n")
	assert.Equal(t, `'/opt/it'\''s {{.ID}}/interpol_modeles' <<'EOF'`, lines[3])
}

func TestWriteScript_QuotedExecutableRunsUnderSh(t *testing.T) {
	if _, err := exec.LookPath("sh"); err != nil {
		t.Skip("sh not available")
	}
	dir := filepath.Join(t.TempDir(), "it's $HOME")
	require.NoError(t, os.MkdirAll(dir, 0o755))
	exe := filepath.Join(dir, "interpol_modeles")
	out := filepath.Join(t.TempDir(), "stdin.txt")
	require.NoError(t, os.WriteFile(exe, []byte("#!/bin/sh\ncat > '"+out+"'\n"), 0o755))

	cfg := newConfig(t)
	require.NoError(t, interpolation.NewWriter(nil).CreateTemplateInterpolatorScript(cfg))
	tmpl, err := interpolation.LoadTemplate(interpolation.TemplatePath(cfg))
	require.NoError(t, err)

	script := filepath.Join(t.TempDir(), "interpolate.sh")
	require.NoError(t, tmpl.WriteScript(script, interpolation.Input{ID: "x", Executable: exe, Models: models(), OutputModel: "/tmp/$x.interpol"}))
	require.NoError(t, exec.Command("sh", script).Run())

	got, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Contains(t, string(got), "'/grid/m1.mod'\n")
	assert.Contains(t, string(got), "'/tmp/$x.interpol'\n")
}

func TestWriteScript_IsExecutable(t *testing.T) {
	cfg := newConfig(t)
	require.NoError(t, interpolation.NewWriter(nil).CreateTemplateInterpolatorScript(cfg))
	tmpl, err := interpolation.LoadTemplate(interpolation.TemplatePath(cfg))
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "interpolate.sh")
	require.NoError(t, tmpl.WriteScript(path, interpolation.Input{ID: "x", Executable: "/bin/true", Models: models()}))
	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.NotZero(t, info.Mode()&0o100)
}

func TestCreateTemplate_MissingTempDir(t *testing.T) {
	cfg := config.NewConfig()
	cfg.RunName = "run"
	cfg.Paths.OutputBase = filepath.Join(t.TempDir(), "missing")

	err := interpolation.NewWriter(nil).CreateTemplateInterpolatorScript(cfg)
	assert.True(t, exception.IsKind(err, exception.KindIO))
}

func TestLoadTemplate_Missing(t *testing.T) {
	_, err := interpolation.LoadTemplate(filepath.Join(t.TempDir(), "nope.tmpl"))
	assert.True(t, exception.IsKind(err, exception.KindIO))
}
