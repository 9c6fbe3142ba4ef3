// Package atmosphere reads the MARCS model-atmosphere grid from disk and selects the
// models that bracket a target star for interpolation.
package atmosphere

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/littlepadawan/turbospectrum-wrapper/pkg/support/util/exception"
	"github.com/littlepadawan/turbospectrum-wrapper/pkg/support/util/logger"
)

const moduleName = "atmosphere"

// ModelExtension is the suffix of MARCS model files.
const ModelExtension = ".mod"

// Geometry is the MARCS model geometry.
type Geometry string

const (
	PlaneParallel Geometry = "p"
	Spherical     Geometry = "s"
)

// String returns a readable geometry name.
func (g Geometry) String() string {
	switch g {
	case PlaneParallel:
		return "plane-parallel"
	case Spherical:
		return "spherical"
	default:
		return string(g)
	}
}

// Model describes one MARCS model atmosphere, as encoded in its file name
// (e.g. p5750_g+4.5_m0.0_t01_st_z+0.00_a+0.00_c+0.00_n+0.00_o+0.00_r+0.00_s+0.00.mod).
type Model struct {
	Geometry        Geometry
	Teff            float64
	Logg            float64
	Mass            float64
	Microturbulence float64
	Composition     string
	FeH             float64
	Alpha           float64
	Name            string
	Path            string
}

var marcsName = regexp.MustCompile(
	`^([ps])(\d+)_g([+-]?\d+(?:\.\d+)?)_m(\d+(?:\.\d+)?)_t(\d+)_([a-z]{2})_z([+-]?\d+(?:\.\d+)?)_a([+-]?\d+(?:\.\d+)?)(?:_.*)?\.mod$`,
)

// ParseModelName parses a MARCS model file name.
func ParseModelName(name string) (Model, error) {
	m := marcsName.FindStringSubmatch(name)
	if m == nil {
		return Model{}, fmt.Errorf("'%s' is not a MARCS model file name", name)
	}

	nums := make([]float64, 0, 6)
	for _, idx := range []int{2, 3, 4, 5, 7, 8} {
		v, err := strconv.ParseFloat(m[idx], 64)
		if err != nil {
			return Model{}, fmt.Errorf("'%s': invalid number '%s': %w", name, m[idx], err)
		}
		nums = append(nums, v)
	}

	return Model{
		Geometry:        Geometry(m[1]),
		Teff:            nums[0],
		Logg:            nums[1],
		Mass:            nums[2],
		Microturbulence: nums[3],
		Composition:     m[6],
		FeH:             nums[4],
		Alpha:           nums[5],
		Name:            name,
	}, nil
}

// Collector implements collect_model_atmosphere_parameters.
type Collector struct {
	log *logger.Logger
}

// NewCollector creates a Collector.
func NewCollector(log *logger.Logger) *Collector {
	return &Collector{log: logger.OrDefault(log)}
}

// CollectModelAtmosphereParameters scans path for *.mod files and returns the parsed models,
// sorted by geometry, Teff, log g and [Fe/H]. Files with other extensions are ignored.
func (c *Collector) CollectModelAtmosphereParameters(path string) ([]Model, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, exception.Newf(exception.KindIO, moduleName, "model atmosphere directory '%s' is not accessible", path, err)
	}
	if !info.IsDir() {
		return nil, exception.Newf(exception.KindIO, moduleName, "model atmosphere path '%s' is not a directory", path)
	}

	entries, err := os.ReadDir(path)
	if err != nil {
		return nil, exception.Newf(exception.KindIO, moduleName, "failed to list model atmospheres in '%s'", path, err)
	}

	var models []Model
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ModelExtension) {
			continue
		}
		model, err := ParseModelName(e.Name())
		if err != nil {
			return nil, exception.Newf(exception.KindParse, moduleName, "malformed model atmosphere in '%s'", path, err)
		}
		model.Path = filepath.Join(path, e.Name())
		models = append(models, model)
	}

	if len(models) == 0 {
		return nil, exception.Newf(exception.KindParse, moduleName, "no model atmospheres (*%s) found in '%s'", ModelExtension, path)
	}

	SortModels(models)
	c.log.Infof("Collected %d model atmospheres from %s", len(models), path)
	return models, nil
}

// SortModels orders models by geometry, Teff, log g, [Fe/H] and name.
func SortModels(models []Model) {
	sort.SliceStable(models, func(i, j int) bool {
		a, b := models[i], models[j]
		if a.Geometry != b.Geometry {
			return a.Geometry < b.Geometry
		}
		if a.Teff != b.Teff {
			return a.Teff < b.Teff
		}
		if a.Logg != b.Logg {
			return a.Logg < b.Logg
		}
		if a.FeH != b.FeH {
			return a.FeH < b.FeH
		}
		return a.Name < b.Name
	})
}
