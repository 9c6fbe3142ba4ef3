package spectra

import (
	"fmt"
	"strings"
)

// HydrogenLinelist is the hydrogen line data shipped with Turbospectrum, relative to its root.
const HydrogenLinelist = "DATA/Hlinedata"

// SynthesisInput holds what babsyn_lu and bsyn_lu read for one spectrum.
// All paths must be absolute, except HydrogenLinelist which resolves against the
// Turbospectrum root the programs run in.
type SynthesisInput struct {
	ModelPath  string
	OpacPath   string
	ResultPath string
	Linelists  []string

	FeH       float64
	AlphaFe   float64
	Vmic      float64
	Spherical bool

	WavelengthMin  float64
	WavelengthMax  float64
	WavelengthStep float64
}

// AlphaEnhancement is the standard [alpha/Fe] of the MARCS grid: +0.4 below [Fe/H] = -1,
// zero at solar metallicity and above, linear in between.
func AlphaEnhancement(feh float64) float64 {
	switch {
	case feh <= -1:
		return 0.4
	case feh >= 0:
		return 0
	default:
		return -0.4 * feh
	}
}

func fortranBool(b bool) string {
	if b {
		return "T"
	}
	return "F"
}

func writeWavelengths(sb *strings.Builder, in SynthesisInput) {
	fmt.Fprintf(sb, "'LAMBDA_MIN:'  '%.3f'\n", in.WavelengthMin)
	fmt.Fprintf(sb, "'LAMBDA_MAX:'  '%.3f'\n", in.WavelengthMax)
	fmt.Fprintf(sb, "'LAMBDA_STEP:' '%.3f'\n", in.WavelengthStep)
}

func writeAbundances(sb *strings.Builder, in SynthesisInput) {
	fmt.Fprintf(sb, "'METALLICITY:' '%.2f'\n", in.FeH)
	fmt.Fprintf(sb, "'ALPHA/Fe   :' '%.2f'\n", in.AlphaFe)
	sb.WriteString("'HELIUM     :' '0.00'\n")
	sb.WriteString("'R-PROCESS  :' '0.00'\n")
	sb.WriteString("'S-PROCESS  :' '0.00'\n")
	sb.WriteString("'INDIVIDUAL ABUNDANCES:' '0'\n")
}

// BabsynScript renders the stdin of babsyn_lu, which computes continuous opacities.
func BabsynScript(in SynthesisInput) string {
	var sb strings.Builder
	writeWavelengths(&sb, in)
	fmt.Fprintf(&sb, "'MODELINPUT:' '%s'\n", in.ModelPath)
	sb.WriteString("'MARCS-FILE:' '.false.'\n")
	fmt.Fprintf(&sb, "'MODELOPAC:' '%s'\n", in.OpacPath)
	writeAbundances(&sb, in)
	sb.WriteString("'XIFIX:' 'T'\n")
	fmt.Fprintf(&sb, "%.3f\n", in.Vmic)
	return sb.String()
}

// BsynScript renders the stdin of bsyn_lu, which synthesises the flux spectrum.
func BsynScript(in SynthesisInput) string {
	var sb strings.Builder
	sb.WriteString("'PURE-LTE  :' '.true.'\n")
	writeWavelengths(&sb, in)
	sb.WriteString("'INTENSITY/FLUX:' 'Flux'\n")
	sb.WriteString("'COS(THETA)    :' '1.00'\n")
	sb.WriteString("'ABFIND        :' '.false.'\n")
	fmt.Fprintf(&sb, "'MODELOPAC:' '%s'\n", in.OpacPath)
	fmt.Fprintf(&sb, "'RESULTFILE :' '%s'\n", in.ResultPath)
	writeAbundances(&sb, in)
	sb.WriteString("'ISOTOPES : ' '0'\n")
	fmt.Fprintf(&sb, "'NFILES   :' '%d'\n", len(in.Linelists)+1)
	sb.WriteString(HydrogenLinelist + "\n")
	for _, l := range in.Linelists {
		sb.WriteString(l + "\n")
	}
	fmt.Fprintf(&sb, "'SPHERICAL:' '%s'\n", fortranBool(in.Spherical))
	// Radiative transfer settings used by the spherical solver.
	sb.WriteString("  30\n  300.00\n  15\n  1.30\n")
	return sb.String()
}
