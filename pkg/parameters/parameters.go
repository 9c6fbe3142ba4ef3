// Package parameters produces the stellar parameter sets for which spectra are generated.
package parameters

import (
	"fmt"
	"math"
	"math/rand"
	"path/filepath"
	"strings"
	"time"

	"github.com/littlepadawan/turbospectrum-wrapper/pkg/config"
	"github.com/littlepadawan/turbospectrum-wrapper/pkg/support/util/exception"
	"github.com/littlepadawan/turbospectrum-wrapper/pkg/support/util/logger"
)

const moduleName = "parameters"

// ParquetFile is the name of the exported parameter table inside the run directory.
const ParquetFile = "parameters.parquet"

// StellarParameters is one target star.
type StellarParameters struct {
	ID   string  `parquet:"name=id, type=BYTE_ARRAY, convertedtype=UTF8" yaml:"id"`
	Teff float64 `parquet:"name=teff, type=DOUBLE" yaml:"teff"`
	Logg float64 `parquet:"name=logg, type=DOUBLE" yaml:"logg"`
	FeH  float64 `parquet:"name=feh, type=DOUBLE" yaml:"feh"`
	Vmic float64 `parquet:"name=vmic, type=DOUBLE" yaml:"vmic"`
}

// String renders the parameters for log messages.
func (p StellarParameters) String() string {
	return fmt.Sprintf("%s (Teff=%.0f, logg=%.2f, [Fe/H]=%.2f)", p.ID, p.Teff, p.Logg, p.FeH)
}

// FormatID returns the zero-padded identifier of the i-th (0-based) parameter set.
func FormatID(i int) string {
	return fmt.Sprintf("%06d", i+1)
}

// Generator implements generate_parameters.
type Generator struct {
	log *logger.Logger
	now func() time.Time
}

// NewGenerator creates a Generator.
func NewGenerator(log *logger.Logger) *Generator {
	return &Generator{log: logger.OrDefault(log), now: time.Now}
}

// GenerateParameters builds the parameter sets described by cfg.Parameters and, when
// export_parquet is set, writes them to <run dir>/parameters.parquet.
func (g *Generator) GenerateParameters(cfg *config.Config) ([]StellarParameters, error) {
	pc := cfg.Parameters
	if err := validateSettings(pc); err != nil {
		return nil, err
	}

	var (
		params []StellarParameters
		err    error
	)
	switch pc.Mode {
	case config.ModeRandom:
		seed := pc.Seed
		if seed == 0 {
			seed = g.now().UnixNano()
		}
		g.log.Infof("Drawing %d random parameter sets (seed %d)", pc.NumSpectra, seed)
		params = Random(pc, seed)
	case config.ModeGrid:
		params = Grid(pc)
	case config.ModeFile:
		params, err = ReadFile(cfg.Paths.InputParameters, pc.Vmic)
		if err != nil {
			return nil, err
		}
	}

	if err := validateResult(params); err != nil {
		return nil, err
	}
	g.log.Infof("Generated %d parameter sets (%s mode)", len(params), pc.Mode)

	if pc.ExportParquet {
		path := filepath.Join(cfg.OutputDir(), ParquetFile)
		if err := ExportParquet(path, params); err != nil {
			return nil, err
		}
		g.log.Debugf("Parameter table exported to %s", path)
	}
	return params, nil
}

// Random draws pc.NumSpectra parameter sets uniformly within the configured ranges.
// The same seed yields the same sets.
func Random(pc config.ParametersConfig, seed int64) []StellarParameters {
	rng := rand.New(rand.NewSource(seed))
	draw := func(r config.RangeConfig, decimals int) float64 {
		return round(r.Min+rng.Float64()*(r.Max-r.Min), decimals)
	}

	out := make([]StellarParameters, pc.NumSpectra)
	for i := range out {
		out[i] = StellarParameters{
			ID:   FormatID(i),
			Teff: draw(pc.Teff, 0),
			Logg: draw(pc.Logg, 2),
			FeH:  draw(pc.FeH, 2),
			Vmic: pc.Vmic,
		}
	}
	return out
}

// Grid returns the Cartesian product of the configured ranges, Teff varying slowest.
func Grid(pc config.ParametersConfig) []StellarParameters {
	var out []StellarParameters
	for _, teff := range steps(pc.Teff) {
		for _, logg := range steps(pc.Logg) {
			for _, feh := range steps(pc.FeH) {
				out = append(out, StellarParameters{
					ID:   FormatID(len(out)),
					Teff: teff,
					Logg: logg,
					FeH:  feh,
					Vmic: pc.Vmic,
				})
			}
		}
	}
	return out
}

func steps(r config.RangeConfig) []float64 {
	n := int(math.Floor((r.Max-r.Min)/r.Step+1e-9)) + 1
	out := make([]float64, n)
	for i := range out {
		out[i] = round(r.Min+float64(i)*r.Step, 6)
	}
	return out
}

func round(v float64, decimals int) float64 {
	p := math.Pow(10, float64(decimals))
	return math.Round(v*p) / p
}

func validateSettings(pc config.ParametersConfig) error {
	var problems []string
	switch pc.Mode {
	case config.ModeRandom, config.ModeGrid, config.ModeFile:
	default:
		problems = append(problems, fmt.Sprintf("unknown parameters.mode '%s'", pc.Mode))
	}
	if pc.Vmic < 0 {
		problems = append(problems, "vmic must not be negative")
	}
	if pc.Mode == config.ModeRandom && pc.NumSpectra <= 0 {
		problems = append(problems, "num_spectra must be positive")
	}
	if pc.Mode == config.ModeRandom || pc.Mode == config.ModeGrid {
		for _, r := range []struct {
			name string
			rng  config.RangeConfig
		}{{"teff", pc.Teff}, {"logg", pc.Logg}, {"feh", pc.FeH}} {
			if r.rng.Min > r.rng.Max {
				problems = append(problems, fmt.Sprintf("%s.min (%g) is greater than %s.max (%g)", r.name, r.rng.Min, r.name, r.rng.Max))
			}
			if pc.Mode == config.ModeGrid && r.rng.Step <= 0 {
				problems = append(problems, fmt.Sprintf("%s.step must be positive", r.name))
			}
		}
		if pc.Teff.Min <= 0 {
			problems = append(problems, "teff must be positive")
		}
	}
	if len(problems) > 0 {
		return exception.New(exception.KindValidation, moduleName, "invalid parameter settings: "+strings.Join(problems, "; "), nil)
	}
	return nil
}

func validateResult(params []StellarParameters) error {
	if len(params) == 0 {
		return exception.New(exception.KindValidation, moduleName, "no parameter sets generated", nil)
	}
	var problems []string
	seen := make(map[string]struct{}, len(params))
	for _, p := range params {
		// IDs name the per-spectrum temp directory and output file.
		switch {
		case strings.TrimSpace(p.ID) == "":
			problems = append(problems, "empty id")
		case strings.ContainsAny(p.ID, `/\`) || strings.Contains(p.ID, ".."):
			problems = append(problems, fmt.Sprintf("%s: id must not contain path separators or '..'", p.ID))
		}
		if _, dup := seen[p.ID]; dup {
			problems = append(problems, fmt.Sprintf("%s: duplicate id", p.ID))
		}
		seen[p.ID] = struct{}{}
		if p.Teff <= 0 {
			problems = append(problems, fmt.Sprintf("%s: teff must be positive", p.ID))
		}
		if p.Vmic < 0 {
			problems = append(problems, fmt.Sprintf("%s: vmic must not be negative", p.ID))
		}
	}
	if len(problems) > 0 {
		return exception.New(exception.KindValidation, moduleName, "invalid parameter sets: "+strings.Join(problems, "; "), nil)
	}
	return nil
}
