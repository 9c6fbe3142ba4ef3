package parameters_test

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/littlepadawan/turbospectrum-wrapper/pkg/config"
	"github.com/littlepadawan/turbospectrum-wrapper/pkg/parameters"
	"github.com/littlepadawan/turbospectrum-wrapper/pkg/support/util/exception"
	"github.com/littlepadawan/turbospectrum-wrapper/pkg/support/util/logger"
)

func newConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg := config.NewConfig()
	cfg.RunName = "run"
	cfg.Paths.OutputBase = t.TempDir()
	cfg.Parameters.ExportParquet = false
	require.NoError(t, os.MkdirAll(cfg.OutputDir(), 0o755))
	return cfg
}

func newGenerator() *parameters.Generator {
	return parameters.NewGenerator(logger.New(&bytes.Buffer{}, logger.LevelError))
}

func writeTable(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "params.csv")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestGenerateParameters_Grid(t *testing.T) {
	cfg := newConfig(t)
	cfg.Parameters.Mode = config.ModeGrid
	cfg.Parameters.Teff = config.RangeConfig{Min: 5000, Max: 5500, Step: 250}
	cfg.Parameters.Logg = config.RangeConfig{Min: 4.0, Max: 4.5, Step: 0.5}
	cfg.Parameters.FeH = config.RangeConfig{Min: 0, Max: 0, Step: 0.25}
	cfg.Parameters.Vmic = 1.5

	params, err := newGenerator().GenerateParameters(cfg)
	require.NoError(t, err)
	require.Len(t, params, 6)

	assert.Equal(t, parameters.StellarParameters{ID: "000001", Teff: 5000, Logg: 4.0, FeH: 0, Vmic: 1.5}, params[0])
	assert.Equal(t, parameters.StellarParameters{ID: "000002", Teff: 5000, Logg: 4.5, FeH: 0, Vmic: 1.5}, params[1])
	assert.Equal(t, parameters.StellarParameters{ID: "000006", Teff: 5500, Logg: 4.5, FeH: 0, Vmic: 1.5}, params[5])
}

func TestGrid_FractionalStepIncludesMax(t *testing.T) {
	pc := config.NewConfig().Parameters
	pc.Teff = config.RangeConfig{Min: 5000, Max: 5000, Step: 100}
	pc.Logg = config.RangeConfig{Min: 1.0, Max: 2.0, Step: 0.1}
	pc.FeH = config.RangeConfig{Min: 0, Max: 0, Step: 0.1}

	params := parameters.Grid(pc)
	require.Len(t, params, 11)
	assert.Equal(t, 2.0, params[10].Logg)

	var loggs []float64
	for _, p := range params {
		loggs = append(loggs, p.Logg)
	}
	want := []float64{1.0, 1.1, 1.2, 1.3, 1.4, 1.5, 1.6, 1.7, 1.8, 1.9, 2.0}
	if diff := cmp.Diff(want, loggs, cmpopts.EquateApprox(0, 1e-9)); diff != "" {
		t.Errorf("logg grid mismatch (-want +got):\n%s", diff)
	}
}

func TestRandom_DeterministicAndInRange(t *testing.T) {
	pc := config.NewConfig().Parameters
	pc.NumSpectra = 50

	a := parameters.Random(pc, 42)
	b := parameters.Random(pc, 42)
	c := parameters.Random(pc, 43)

	require.Len(t, a, 50)
	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c)
	for _, p := range a {
		assert.GreaterOrEqual(t, p.Teff, pc.Teff.Min)
		assert.LessOrEqual(t, p.Teff, pc.Teff.Max)
		assert.GreaterOrEqual(t, p.Logg, pc.Logg.Min)
		assert.LessOrEqual(t, p.Logg, pc.Logg.Max)
		assert.GreaterOrEqual(t, p.FeH, pc.FeH.Min)
		assert.LessOrEqual(t, p.FeH, pc.FeH.Max)
		assert.Equal(t, pc.Vmic, p.Vmic)
	}
	assert.Equal(t, "000050", a[49].ID)
}

func TestGenerateParameters_File(t *testing.T) {
	cfg := newConfig(t)
	cfg.Parameters.Mode = config.ModeFile
	cfg.Parameters.Vmic = 2.0
	cfg.Paths.InputParameters = writeTable(t, "# target stars\nTeff, logg, [Fe/H]\n5750,4.5,0.0\n\n4500 2.0 -1.0\n")

	params, err := newGenerator().GenerateParameters(cfg)
	require.NoError(t, err)
	assert.Equal(t, []parameters.StellarParameters{
		{ID: "000001", Teff: 5750, Logg: 4.5, FeH: 0, Vmic: 2.0},
		{ID: "000002", Teff: 4500, Logg: 2.0, FeH: -1.0, Vmic: 2.0},
	}, params)
}

func TestReadFile_OptionalColumns(t *testing.T) {
	path := writeTable(t, "id teff logg feh vmic\nsun 5772 4.44 0.00 0.9\n")

	params, err := parameters.ReadFile(path, 1.0)
	require.NoError(t, err)
	assert.Equal(t, []parameters.StellarParameters{{ID: "sun", Teff: 5772, Logg: 4.44, FeH: 0, Vmic: 0.9}}, params)
}

func TestReadFile_Errors(t *testing.T) {
	for _, tc := range []struct {
		name    string
		content string
		kind    exception.Kind
	}{
		{"non-numeric value", "teff logg feh\n5750 high 0.0\n", exception.KindParse},
		{"missing column", "teff logg\n5750 4.5\n", exception.KindParse},
		{"unknown column", "teff logg feh mass\n5750 4.5 0 1\n", exception.KindParse},
		{"field count", "teff logg feh\n5750 4.5\n", exception.KindParse},
		{"empty file", "# nothing\n", exception.KindParse},
	} {
		t.Run(tc.name, func(t *testing.T) {
			_, err := parameters.ReadFile(writeTable(t, tc.content), 1.0)
			require.Error(t, err)
			assert.Equal(t, tc.kind, exception.KindOf(err))
		})
	}
}

func TestReadFile_Missing(t *testing.T) {
	_, err := parameters.ReadFile(filepath.Join(t.TempDir(), "nope.csv"), 1.0)
	assert.True(t, exception.IsKind(err, exception.KindIO))
}

func TestGenerateParameters_ValidationErrors(t *testing.T) {
	for _, tc := range []struct {
		name   string
		mutate func(cfg *config.Config)
		want   string
	}{
		{"min above max", func(cfg *config.Config) { cfg.Parameters.Logg = config.RangeConfig{Min: 5, Max: 1} }, "logg.min"},
		{"zero grid step", func(cfg *config.Config) {
			cfg.Parameters.Mode = config.ModeGrid
			cfg.Parameters.FeH.Step = 0
		}, "feh.step"},
		{"no spectra", func(cfg *config.Config) { cfg.Parameters.NumSpectra = 0 }, "num_spectra"},
		{"negative teff", func(cfg *config.Config) { cfg.Parameters.Teff = config.RangeConfig{Min: -10, Max: 100} }, "teff must be positive"},
		{"negative vmic", func(cfg *config.Config) { cfg.Parameters.Vmic = -1 }, "vmic"},
		{"unknown mode", func(cfg *config.Config) { cfg.Parameters.Mode = "sobol" }, "sobol"},
		{"file mode without path", func(cfg *config.Config) { cfg.Parameters.Mode = config.ModeFile }, "input_parameters"},
	} {
		t.Run(tc.name, func(t *testing.T) {
			cfg := newConfig(t)
			tc.mutate(cfg)

			_, err := newGenerator().GenerateParameters(cfg)
			require.Error(t, err)
			assert.True(t, exception.IsKind(err, exception.KindValidation))
			assert.Contains(t, err.Error(), tc.want)
		})
	}
}

func TestGenerateParameters_FileRowValidation(t *testing.T) {
	cfg := newConfig(t)
	cfg.Parameters.Mode = config.ModeFile
	cfg.Paths.InputParameters = writeTable(t, "teff logg feh\n-5750 4.5 0.0\n")

	_, err := newGenerator().GenerateParameters(cfg)
	assert.True(t, exception.IsKind(err, exception.KindValidation))
	assert.Contains(t, err.Error(), "000001")
}

func TestGenerateParameters_RejectsUnsafeIDs(t *testing.T) {
	for name, table := range map[string]string{
		"duplicate":      "id teff logg feh\nstar 5750 4.5 0.0\nstar 5000 4.0 0.0\n",
		"parent":         "id teff logg feh\n../../escape 5750 4.5 0.0\n",
		"slash":          "id teff logg feh\nruns/a 5750 4.5 0.0\n",
		"backslash":      "id teff logg feh\nruns\\a 5750 4.5 0.0\n",
		"dots in middle": "id teff logg feh\na..b 5750 4.5 0.0\n",
	} {
		t.Run(name, func(t *testing.T) {
			cfg := newConfig(t)
			cfg.Parameters.Mode = config.ModeFile
			cfg.Paths.InputParameters = writeTable(t, table)

			params, err := newGenerator().GenerateParameters(cfg)
			require.Error(t, err)
			assert.Nil(t, params)
			assert.True(t, exception.IsKind(err, exception.KindValidation))
		})
	}
}

func TestGenerateParameters_DuplicateIDIsNamed(t *testing.T) {
	cfg := newConfig(t)
	cfg.Parameters.Mode = config.ModeFile
	cfg.Paths.InputParameters = writeTable(t, "id teff logg feh\nstar 5750 4.5 0.0\nstar 5000 4.0 0.0\nsun 5772 4.44 0.0\n")

	_, err := newGenerator().GenerateParameters(cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "star: duplicate id")
	assert.NotContains(t, err.Error(), "sun")
}

func TestGenerateParameters_ExportsParquet(t *testing.T) {
	cfg := newConfig(t)
	cfg.Parameters.Seed = 7
	cfg.Parameters.NumSpectra = 3
	cfg.Parameters.ExportParquet = true

	_, err := newGenerator().GenerateParameters(cfg)
	require.NoError(t, err)

	data, err := os.ReadFile(filepath.Join(cfg.OutputDir(), parameters.ParquetFile))
	require.NoError(t, err)
	require.Greater(t, len(data), 8)
	assert.Equal(t, "PAR1", string(data[:4]))
	assert.Equal(t, "PAR1", string(data[len(data)-4:]))
}

func TestExportParquet_UnwritablePath(t *testing.T) {
	params := []parameters.StellarParameters{{ID: "000001", Teff: 5000, Logg: 4, FeH: 0, Vmic: 1}}
	err := parameters.ExportParquet(filepath.Join(t.TempDir(), "missing", "p.parquet"), params)
	assert.True(t, exception.IsKind(err, exception.KindIO))
}
