package parameters

import (
	"bufio"
	"fmt"
	"os"
	"strings"
	"unicode"

	"github.com/littlepadawan/turbospectrum-wrapper/pkg/support/util/configbinder"
	"github.com/littlepadawan/turbospectrum-wrapper/pkg/support/util/exception"
)

// Column aliases accepted in a parameter table header.
var columnAliases = map[string]string{
	"teff":   "teff",
	"t_eff":  "teff",
	"logg":   "logg",
	"log_g":  "logg",
	"feh":    "feh",
	"fe_h":   "feh",
	"[fe/h]": "feh",
	"met":    "feh",
	"vmic":   "vmic",
	"vt":     "vmic",
	"id":     "id",
}

var requiredColumns = []string{"teff", "logg", "feh"}

// ReadFile reads a parameter table. The first non-comment line is a header naming the
// columns (teff, logg, feh and optionally vmic and id); fields are separated by commas or
// whitespace and lines starting with '#' are ignored. Rows without a vmic value get
// defaultVmic; rows without an id are numbered in file order.
func ReadFile(path string, defaultVmic float64) ([]StellarParameters, error) {
	if path == "" {
		return nil, exception.New(exception.KindValidation, moduleName, "paths.input_parameters is required in file mode", nil)
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, exception.Newf(exception.KindIO, moduleName, "cannot read parameter file '%s'", path, err)
	}
	defer f.Close()

	var (
		header []string
		out    []StellarParameters
		lineNo int
	)
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		fields := splitFields(line)

		if header == nil {
			header, err = parseHeader(fields)
			if err != nil {
				return nil, exception.Newf(exception.KindParse, moduleName, "invalid header in '%s'", path, err)
			}
			continue
		}

		if len(fields) != len(header) {
			return nil, exception.Newf(exception.KindParse, moduleName,
				"'%s' line %d: expected %d fields, got %d", path, lineNo, len(header), len(fields))
		}
		row := make(map[string]string, len(header))
		for i, col := range header {
			row[col] = fields[i]
		}

		p := StellarParameters{Vmic: defaultVmic}
		if err := configbinder.BindStrings(row, &p); err != nil {
			return nil, exception.Newf(exception.KindParse, moduleName, "'%s' line %d", path, lineNo, err)
		}
		if p.ID == "" {
			p.ID = FormatID(len(out))
		}
		out = append(out, p)
	}
	if err := scanner.Err(); err != nil {
		return nil, exception.Newf(exception.KindIO, moduleName, "cannot read parameter file '%s'", path, err)
	}
	if header == nil {
		return nil, exception.Newf(exception.KindParse, moduleName, "parameter file '%s' has no header", path)
	}
	return out, nil
}

func splitFields(line string) []string {
	return strings.FieldsFunc(line, func(r rune) bool {
		return r == ',' || unicode.IsSpace(r)
	})
}

func parseHeader(fields []string) ([]string, error) {
	cols := make([]string, len(fields))
	seen := make(map[string]bool, len(fields))
	for i, f := range fields {
		col, ok := columnAliases[strings.ToLower(f)]
		if !ok {
			return nil, fmt.Errorf("unknown column '%s'", f)
		}
		if seen[col] {
			return nil, fmt.Errorf("duplicate column '%s'", f)
		}
		seen[col] = true
		cols[i] = col
	}
	for _, req := range requiredColumns {
		if !seen[req] {
			return nil, fmt.Errorf("missing column '%s'", req)
		}
	}
	return cols, nil
}
