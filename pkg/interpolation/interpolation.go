// Package interpolation writes the interpolator script template and renders the
// per-spectrum scripts that build an interpolated model atmosphere.
package interpolation

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"text/template"

	"github.com/littlepadawan/turbospectrum-wrapper/pkg/config"
	"github.com/littlepadawan/turbospectrum-wrapper/pkg/support/util/exception"
	"github.com/littlepadawan/turbospectrum-wrapper/pkg/support/util/logger"
)

const moduleName = "interpolation"

// TemplateFile is the name of the template written to the run's temp directory.
const TemplateFile = "interpolate.tmpl"

// scriptTemplate feeds interpol_modeles on stdin: the eight corner models, the output
// model and its .alt companion, the target parameters, then the test and binary flags.
// The heredoc delimiter is quoted so the shell leaves the paths alone.
const scriptTemplate = `#!/bin/sh
# Interpolated model atmosphere for spectrum {{.ID}}
set -e
{{shellQuote .Executable}} <<'EOF'
{{- range .Models}}
'{{.}}'
{{- end}}
'{{.OutputModel}}'
'{{.OutputAlt}}'
{{printf "%.2f" .Teff}}
{{printf "%.3f" .Logg}}
{{printf "%.3f" .FeH}}
.false.
.false.
EOF
`

var funcs = template.FuncMap{"shellQuote": shellQuote}

// shellQuote wraps s in single quotes for /bin/sh.
func shellQuote(s string) string {
	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}

// Input holds the values of one rendered script.
type Input struct {
	ID          string
	Executable  string
	Models      []string
	OutputModel string
	OutputAlt   string
	Teff        float64
	Logg        float64
	FeH         float64
}

// Template is a parsed interpolator script template.
type Template struct {
	tmpl *template.Template
}

// Writer implements create_template_interpolator_script.
type Writer struct {
	log *logger.Logger
}

// NewWriter creates a Writer.
func NewWriter(log *logger.Logger) *Writer {
	return &Writer{log: logger.OrDefault(log)}
}

// TemplatePath is where CreateTemplateInterpolatorScript writes the template.
func TemplatePath(cfg *config.Config) string {
	return filepath.Join(cfg.TempDir(), TemplateFile)
}

// CreateTemplateInterpolatorScript writes the script template to TemplatePath(cfg). The
// interpolator executable is supplied per script through Input.Executable.
func (w *Writer) CreateTemplateInterpolatorScript(cfg *config.Config) error {
	if _, err := parse(TemplateFile, scriptTemplate); err != nil {
		return exception.New(exception.KindIO, moduleName, "invalid interpolator template", err)
	}

	path := TemplatePath(cfg)
	if err := os.WriteFile(path, []byte(scriptTemplate), 0o644); err != nil {
		return exception.Newf(exception.KindIO, moduleName, "cannot write interpolator template '%s'", path, err)
	}
	w.log.Debugf("Interpolator template written to %s", path)
	return nil
}

// LoadTemplate parses a template written by CreateTemplateInterpolatorScript.
func LoadTemplate(path string) (*Template, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, exception.Newf(exception.KindIO, moduleName, "cannot read interpolator template '%s'", path, err)
	}
	tmpl, err := parse(filepath.Base(path), string(data))
	if err != nil {
		return nil, exception.Newf(exception.KindParse, moduleName, "invalid interpolator template '%s'", path, err)
	}
	return &Template{tmpl: tmpl}, nil
}

func parse(name, text string) (*template.Template, error) {
	return template.New(name).Funcs(funcs).Option("missingkey=error").Parse(text)
}

// Render produces the script for one spectrum.
func (t *Template) Render(in Input) (string, error) {
	if len(in.Models) != 8 {
		return "", fmt.Errorf("interpolation needs 8 models, got %d", len(in.Models))
	}
	if in.Executable == "" {
		return "", fmt.Errorf("no interpolator executable for %s", in.ID)
	}
	var buf bytes.Buffer
	if err := t.tmpl.Execute(&buf, in); err != nil {
		return "", fmt.Errorf("failed to render interpolator script for %s: %w", in.ID, err)
	}
	return buf.String(), nil
}

// WriteScript renders in and writes it as an executable script at path.
func (t *Template) WriteScript(path string, in Input) error {
	script, err := t.Render(in)
	if err != nil {
		return err
	}
	return os.WriteFile(path, []byte(script), 0o755)
}
