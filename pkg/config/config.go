// Package config provides the configuration value object of the spectra pipeline
// and the utilities that load it from YAML files, .env files and the environment.
package config

import (
	"path/filepath"
)

// Supported compilers.
const (
	CompilerGfortran = "gfortran"
	CompilerIntel    = "intel"
)

// Parameter generation modes.
const (
	ModeRandom = "random"
	ModeGrid   = "grid"
	ModeFile   = "file"
)

// Names of the directories created below the run directory.
const (
	SpectraDirName = "spectra"
	TempDirName    = "temp"
)

// PathsConfig holds the locations of external tools and input data.
type PathsConfig struct {
	// Turbospectrum is the root of the Turbospectrum source tree (contains exec-gf/, exec/ and DATA/).
	Turbospectrum string `yaml:"turbospectrum"`
	// Interpolator is the directory holding interpol_modeles.f.
	Interpolator string `yaml:"interpolator"`
	// Linelists is the directory of line list files passed to bsyn.
	Linelists string `yaml:"linelists"`
	// ModelAtmospheres is the directory of MARCS *.mod files.
	ModelAtmospheres string `yaml:"model_atmospheres"`
	// InputParameters is the parameter table used when parameters.mode is "file".
	InputParameters string `yaml:"input_parameters"`
	// OutputBase is the directory below which a run directory is created.
	OutputBase string `yaml:"output_base"`
}

// SpectraConfig holds the synthesis settings shared by all spectra.
type SpectraConfig struct {
	WavelengthMin  float64 `yaml:"wavelength_min"`
	WavelengthMax  float64 `yaml:"wavelength_max"`
	WavelengthStep float64 `yaml:"wavelength_step"`
	// Spherical is "auto" (decided by log g), "true" or "false".
	Spherical string `yaml:"spherical"`
}

// RangeConfig is an inclusive parameter range. Step is only used in grid mode.
type RangeConfig struct {
	Min  float64 `yaml:"min"`
	Max  float64 `yaml:"max"`
	Step float64 `yaml:"step"`
}

// ParametersConfig describes how stellar parameter sets are produced.
type ParametersConfig struct {
	Mode          string      `yaml:"mode"`
	NumSpectra    int         `yaml:"num_spectra"`
	Seed          int64       `yaml:"seed"`
	Teff          RangeConfig `yaml:"teff"`
	Logg          RangeConfig `yaml:"logg"`
	FeH           RangeConfig `yaml:"feh"`
	Vmic          float64     `yaml:"vmic"`
	ExportParquet bool        `yaml:"export_parquet"`
}

// RunConfig holds execution settings.
type RunConfig struct {
	// Workers is the number of spectra generated concurrently.
	Workers int `yaml:"workers"`
	// CleanupTempFiles enables the final remove_temp_files stage.
	CleanupTempFiles bool `yaml:"cleanup_temp_files"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	// Level is the logging level (e.g., "INFO", "DEBUG").
	Level string `yaml:"level"`
}

// SystemConfig holds process-wide settings.
type SystemConfig struct {
	Logging LoggingConfig `yaml:"logging"`
}

// RepositoryConfig selects the run history store.
type RepositoryConfig struct {
	// Type is one of "memory", "sqlite", "mysql", "postgres".
	Type string `yaml:"type"`
	// DSN is the connection string; for sqlite it is the database file path.
	DSN string `yaml:"dsn"`
}

// MetricsConfig selects the metric backend.
type MetricsConfig struct {
	// Backend is one of "prometheus", "otel", "none".
	Backend string `yaml:"backend"`
	// Textfile is where the Prometheus backend writes its exposition file. Defaults to <run dir>/metrics.prom.
	Textfile     string `yaml:"textfile"`
	OTLPEndpoint string `yaml:"otlp_endpoint"`
	// OTLPProtocol is "http" or "grpc".
	OTLPProtocol string `yaml:"otlp_protocol"`
}

// TracingConfig enables OpenTelemetry tracing of runs and stages.
type TracingConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Endpoint string `yaml:"endpoint"`
	// Protocol is "http" or "grpc".
	Protocol string `yaml:"protocol"`
}

// PublishConfig controls the optional upload of generated spectra.
type PublishConfig struct {
	Enabled bool `yaml:"enabled"`
	// Type is "local" or "gcs".
	Type            string `yaml:"type"`
	Bucket          string `yaml:"bucket"`
	Prefix          string `yaml:"prefix"`
	BaseDir         string `yaml:"base_dir"`
	CredentialsFile string `yaml:"credentials_file"`
}

// Config is the root structure of the pipeline configuration.
// It is built once by Load and must be treated as read-only afterwards.
type Config struct {
	Compiler   string           `yaml:"compiler"`
	Paths      PathsConfig      `yaml:"paths"`
	Spectra    SpectraConfig    `yaml:"spectra"`
	Parameters ParametersConfig `yaml:"parameters"`
	Run        RunConfig        `yaml:"run"`
	System     SystemConfig     `yaml:"system"`
	Repository RepositoryConfig `yaml:"repository"`
	Metrics    MetricsConfig    `yaml:"metrics"`
	Tracing    TracingConfig    `yaml:"tracing"`
	Publish    PublishConfig    `yaml:"publish"`

	// SourcePath is the file the configuration was read from.
	SourcePath string `yaml:"-"`
	// RunName identifies this run; it names the run directory below Paths.OutputBase.
	RunName string `yaml:"-"`
}

// NewConfig returns a new instance of Config with default values.
func NewConfig() *Config {
	return &Config{
		Compiler: CompilerGfortran,
		Paths: PathsConfig{
			Turbospectrum:    "Turbospectrum_NLTE",
			Interpolator:     "interpolator",
			Linelists:        "input/linelists",
			ModelAtmospheres: "input/model_atmospheres",
			OutputBase:       "output",
		},
		Spectra: SpectraConfig{
			WavelengthMin:  4000,
			WavelengthMax:  9000,
			WavelengthStep: 0.05,
			Spherical:      "auto",
		},
		Parameters: ParametersConfig{
			Mode:          ModeRandom,
			NumSpectra:    10,
			Teff:          RangeConfig{Min: 4000, Max: 6500, Step: 250},
			Logg:          RangeConfig{Min: 1.0, Max: 5.0, Step: 0.5},
			FeH:           RangeConfig{Min: -1.0, Max: 0.5, Step: 0.25},
			Vmic:          1.0,
			ExportParquet: true,
		},
		Run: RunConfig{
			Workers:          1,
			CleanupTempFiles: false,
		},
		System: SystemConfig{
			Logging: LoggingConfig{Level: "INFO"},
		},
		Repository: RepositoryConfig{Type: "sqlite"},
		Metrics: MetricsConfig{
			Backend:      "prometheus",
			OTLPProtocol: "http",
		},
		Tracing: TracingConfig{Protocol: "http"},
		Publish: PublishConfig{Type: "local"},
	}
}

// OutputDir is the directory that receives everything produced by this run.
func (c *Config) OutputDir() string {
	return filepath.Join(c.Paths.OutputBase, c.RunName)
}

// SpectraDir is where finished spectra are collected.
func (c *Config) SpectraDir() string {
	return filepath.Join(c.OutputDir(), SpectraDirName)
}

// TempDir holds intermediate files (interpolated models, opacity files, scripts).
func (c *Config) TempDir() string {
	return filepath.Join(c.OutputDir(), TempDirName)
}

// TurbospectrumExecDir is the build directory matching the configured compiler.
func (c *Config) TurbospectrumExecDir() string {
	if c.Compiler == CompilerIntel {
		return filepath.Join(c.Paths.Turbospectrum, "exec")
	}
	return filepath.Join(c.Paths.Turbospectrum, "exec-gf")
}

// InterpolatorExecutable is the path of the compiled interpolator.
func (c *Config) InterpolatorExecutable() string {
	return filepath.Join(c.Paths.Interpolator, "interpol_modeles")
}

// RepositoryDSN returns the configured DSN, defaulting sqlite to <output_base>/runs.db.
// The database is opened at boot, so with the default DSN output_base exists before
// set_up_output_directory runs.
func (c *Config) RepositoryDSN() string {
	if c.Repository.DSN == "" && c.Repository.Type == "sqlite" {
		return filepath.Join(c.Paths.OutputBase, "runs.db")
	}
	return c.Repository.DSN
}

// MetricsTextfile returns where Prometheus metrics are written at shutdown.
func (c *Config) MetricsTextfile() string {
	if c.Metrics.Textfile != "" {
		return c.Metrics.Textfile
	}
	return filepath.Join(c.OutputDir(), "metrics.prom")
}
