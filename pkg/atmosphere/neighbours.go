package atmosphere

import (
	"errors"
	"fmt"
	"math"
	"sort"
)

// ErrOutsideGrid is returned when a target cannot be bracketed by the model grid.
var ErrOutsideGrid = errors.New("target outside model atmosphere grid")

// sphericalLoggLimit is the surface gravity below which spherical models are preferred.
const sphericalLoggLimit = 3.5

const eps = 1e-9

// ChooseGeometry picks the model geometry for a target surface gravity.
// spherical is the configuration value: "true", "false" or "auto".
func ChooseGeometry(logg float64, spherical string) Geometry {
	switch spherical {
	case "true":
		return Spherical
	case "false":
		return PlaneParallel
	}
	if logg < sphericalLoggLimit {
		return Spherical
	}
	return PlaneParallel
}

// Cube holds the eight models bracketing a target, in the order expected by the
// interpolator: (T1,g1,z1) (T1,g1,z2) (T1,g2,z1) (T1,g2,z2) (T2,g1,z1) ... (T2,g2,z2).
type Cube [8]Model

// Paths returns the model file paths in cube order.
func (c Cube) Paths() []string {
	out := make([]string, len(c))
	for i, m := range c {
		out[i] = m.Path
	}
	return out
}

type cornerKey struct {
	teff, logg, feh float64
}

// FindNeighbours returns the cube of models of the given geometry bracketing (teff, logg, feh).
// When the target sits exactly on a grid value the adjacent value is used as the second corner,
// so that interpolation weights stay defined.
func FindNeighbours(models []Model, teff, logg, feh float64, geometry Geometry) (Cube, error) {
	var cube Cube

	index := make(map[cornerKey]Model)
	var teffs, loggs, fehs []float64
	for _, m := range models {
		if m.Geometry != geometry {
			continue
		}
		key := cornerKey{m.Teff, m.Logg, m.FeH}
		if _, seen := index[key]; !seen {
			index[key] = m
		}
		teffs = append(teffs, m.Teff)
		loggs = append(loggs, m.Logg)
		fehs = append(fehs, m.FeH)
	}
	if len(index) == 0 {
		return cube, fmt.Errorf("%w: no %s models available", ErrOutsideGrid, geometry)
	}

	t1, t2, err := bracket(uniqueSorted(teffs), teff, "teff")
	if err != nil {
		return cube, err
	}
	g1, g2, err := bracket(uniqueSorted(loggs), logg, "logg")
	if err != nil {
		return cube, err
	}
	z1, z2, err := bracket(uniqueSorted(fehs), feh, "[Fe/H]")
	if err != nil {
		return cube, err
	}

	i := 0
	for _, t := range []float64{t1, t2} {
		for _, g := range []float64{g1, g2} {
			for _, z := range []float64{z1, z2} {
				m, ok := index[cornerKey{t, g, z}]
				if !ok {
					return cube, fmt.Errorf("%w: no %s model for teff=%g logg=%g [Fe/H]=%g", ErrOutsideGrid, geometry, t, g, z)
				}
				cube[i] = m
				i++
			}
		}
	}
	return cube, nil
}

func bracket(values []float64, target float64, name string) (float64, float64, error) {
	n := len(values)
	if target < values[0]-eps || target > values[n-1]+eps {
		return 0, 0, fmt.Errorf("%w: %s=%g not within [%g, %g]", ErrOutsideGrid, name, target, values[0], values[n-1])
	}
	if n == 1 {
		return values[0], values[0], nil
	}
	// First index with value >= target.
	hi := sort.Search(n, func(i int) bool { return values[i] >= target-eps })
	if math.Abs(values[hi]-target) <= eps {
		if hi == n-1 {
			return values[hi-1], values[hi], nil
		}
		return values[hi], values[hi+1], nil
	}
	return values[hi-1], values[hi], nil
}

func uniqueSorted(values []float64) []float64 {
	sort.Float64s(values)
	out := values[:0]
	for i, v := range values {
		if i == 0 || v != out[len(out)-1] {
			out = append(out, v)
		}
	}
	return out
}
