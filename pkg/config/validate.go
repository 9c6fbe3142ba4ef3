package config

import (
	"fmt"
	"strings"
)

const (
	MinWorkers = 1
	MaxWorkers = 256
)

var (
	validCompilers    = map[string]struct{}{CompilerGfortran: {}, CompilerIntel: {}}
	validSpherical    = map[string]struct{}{"auto": {}, "true": {}, "false": {}}
	validRepositories = map[string]struct{}{"memory": {}, "sqlite": {}, "mysql": {}, "postgres": {}}
	validMetrics      = map[string]struct{}{"prometheus": {}, "otel": {}, "none": {}}
	validProtocols    = map[string]struct{}{"http": {}, "grpc": {}}
	validPublishers   = map[string]struct{}{"local": {}, "gcs": {}}
)

// ValidationError collects multiple validation failures
type ValidationError struct {
	Errors []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("config validation failed:\n  - %s",
		strings.Join(e.Errors, "\n  - "))
}

// Add appends a validation error message
func (e *ValidationError) Add(msg string) {
	e.Errors = append(e.Errors, msg)
}

// HasErrors returns true if there are any validation errors
func (e *ValidationError) HasErrors() bool {
	return len(e.Errors) > 0
}

// Validate checks the config for semantic errors and reports all of them at once.
// Parameter ranges are checked later by the parameter generator.
func (c *Config) Validate() error {
	errs := &ValidationError{}

	if _, ok := validCompilers[c.Compiler]; !ok {
		errs.Add(fmt.Sprintf("compiler must be one of gfortran, intel (got %q)", c.Compiler))
	}

	required := []struct{ name, value string }{
		{"paths.turbospectrum", c.Paths.Turbospectrum},
		{"paths.interpolator", c.Paths.Interpolator},
		{"paths.linelists", c.Paths.Linelists},
		{"paths.model_atmospheres", c.Paths.ModelAtmospheres},
		{"paths.output_base", c.Paths.OutputBase},
	}
	for _, r := range required {
		if strings.TrimSpace(r.value) == "" {
			errs.Add(r.name + " is required")
		}
	}
	if c.Parameters.Mode == ModeFile && c.Paths.InputParameters == "" {
		errs.Add("paths.input_parameters is required when parameters.mode is file")
	}

	if c.Spectra.WavelengthMin >= c.Spectra.WavelengthMax {
		errs.Add(fmt.Sprintf("spectra.wavelength_min (%g) must be below spectra.wavelength_max (%g)",
			c.Spectra.WavelengthMin, c.Spectra.WavelengthMax))
	}
	if c.Spectra.WavelengthStep <= 0 {
		errs.Add("spectra.wavelength_step must be positive")
	}
	if _, ok := validSpherical[c.Spectra.Spherical]; !ok {
		errs.Add(fmt.Sprintf("spectra.spherical must be auto, true or false (got %q)", c.Spectra.Spherical))
	}

	if c.Run.Workers < MinWorkers || c.Run.Workers > MaxWorkers {
		errs.Add(fmt.Sprintf("run.workers must be between %d and %d (got %d)", MinWorkers, MaxWorkers, c.Run.Workers))
	}

	if _, ok := validRepositories[c.Repository.Type]; !ok {
		errs.Add(fmt.Sprintf("repository.type must be memory, sqlite, mysql or postgres (got %q)", c.Repository.Type))
	} else if (c.Repository.Type == "mysql" || c.Repository.Type == "postgres") && c.Repository.DSN == "" {
		errs.Add("repository.dsn is required for " + c.Repository.Type)
	}

	if _, ok := validMetrics[c.Metrics.Backend]; !ok {
		errs.Add(fmt.Sprintf("metrics.backend must be prometheus, otel or none (got %q)", c.Metrics.Backend))
	}
	if c.Metrics.Backend == "otel" {
		if _, ok := validProtocols[c.Metrics.OTLPProtocol]; !ok {
			errs.Add(fmt.Sprintf("metrics.otlp_protocol must be http or grpc (got %q)", c.Metrics.OTLPProtocol))
		}
	}
	if c.Tracing.Enabled {
		if _, ok := validProtocols[c.Tracing.Protocol]; !ok {
			errs.Add(fmt.Sprintf("tracing.protocol must be http or grpc (got %q)", c.Tracing.Protocol))
		}
	}

	if c.Publish.Enabled {
		if _, ok := validPublishers[c.Publish.Type]; !ok {
			errs.Add(fmt.Sprintf("publish.type must be local or gcs (got %q)", c.Publish.Type))
		}
		if c.Publish.Type == "gcs" && c.Publish.Bucket == "" {
			errs.Add("publish.bucket is required for gcs")
		}
		if c.Publish.Type == "local" && c.Publish.BaseDir == "" {
			errs.Add("publish.base_dir is required for local publishing")
		}
	}

	if errs.HasErrors() {
		return errs
	}
	return nil
}
