package config

import (
	"errors"
	"fmt"
	"os"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/littlepadawan/turbospectrum-wrapper/pkg/support/util/exception"
	"github.com/littlepadawan/turbospectrum-wrapper/pkg/support/util/logger"
)

const moduleName = "config"

// EnvPrefix prefixes every environment variable that overrides a configuration field,
// e.g. TSW_RUN_WORKERS or TSW_PATHS_OUTPUT_BASE.
const EnvPrefix = "TSW_"

// RunNameLayout formats the timestamp that names a run directory.
const RunNameLayout = "2006-01-02-15-04-05"

// Options tune Load.
type Options struct {
	// EnvFilePath is the .env file to load before reading the environment. Empty means ".env".
	EnvFilePath string
	// Expander expands ${VAR} placeholders in the YAML file. Nil uses the OS environment.
	Expander EnvironmentExpander
	// Now fixes the run timestamp. Nil uses time.Now.
	Now func() time.Time
	// Logger receives diagnostics. Nil uses the default logger.
	Logger *logger.Logger
}

// Load reads the configuration named by src and returns it validated.
// Every failure is reported as a ConfigurationError.
//
// Order of precedence for each field: environment override, then YAML file, then defaults.
func Load(src Source, opts Options) (*Config, error) {
	log := logger.OrDefault(opts.Logger)

	envFile := opts.EnvFilePath
	if envFile == "" {
		envFile = ".env"
	}
	if err := godotenv.Load(envFile); err != nil {
		if opts.EnvFilePath != "" {
			log.Warnf(".env file (%s) not found or could not be loaded: %v", envFile, err)
		} else {
			log.Debugf(".env file not found or could not be loaded: %v", err)
		}
	}

	raw, err := os.ReadFile(src.Path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, exception.Newf(exception.KindConfiguration, moduleName, "configuration file '%s' (%s) not found", src.Path, src.Origin, err)
		}
		return nil, exception.Newf(exception.KindConfiguration, moduleName, "configuration file '%s' could not be read", src.Path, err)
	}

	expander := opts.Expander
	if expander == nil {
		expander = NewOsEnvironmentExpander()
	}
	expanded, err := expander.Expand(raw)
	if err != nil {
		return nil, exception.Newf(exception.KindConfiguration, moduleName, "failed to expand environment placeholders in '%s'", src.Path, err)
	}

	// Decoding onto the defaults keeps every field the file does not mention.
	cfg := NewConfig()
	if err := yaml.Unmarshal(expanded, cfg); err != nil {
		return nil, exception.Newf(exception.KindConfiguration, moduleName, "failed to parse configuration file '%s'", src.Path, err)
	}

	if err := loadStructFromEnv(reflect.ValueOf(cfg).Elem(), EnvPrefix); err != nil {
		return nil, exception.New(exception.KindConfiguration, moduleName, "failed to load config from environment variables", err)
	}

	now := time.Now
	if opts.Now != nil {
		now = opts.Now
	}
	cfg.SourcePath = src.Path
	cfg.RunName = now().Format(RunNameLayout)

	if err := cfg.Validate(); err != nil {
		return nil, exception.Newf(exception.KindConfiguration, moduleName, "invalid configuration in '%s'", src.Path, err)
	}

	log.Debugf("Configuration loaded from '%s' (%s). Run directory: %s", src.Path, src.Origin, cfg.OutputDir())
	return cfg, nil
}

// Snapshot renders the active configuration as YAML.
func (c *Config) Snapshot() ([]byte, error) {
	return yaml.Marshal(c)
}

// loadStructFromEnv recursively loads configuration values into a struct from environment variables.
// It uses the "yaml" tag to derive the environment variable name.
func loadStructFromEnv(val reflect.Value, prefix string) error {
	typ := val.Type()
	for i := 0; i < typ.NumField(); i++ {
		field := val.Field(i)
		fieldType := typ.Field(i)
		yamlTag := strings.Split(fieldType.Tag.Get("yaml"), ",")[0]
		if yamlTag == "" || yamlTag == "-" {
			continue
		}
		envVarName := strings.ToUpper(prefix + yamlTag)

		if field.Kind() == reflect.Struct {
			if err := loadStructFromEnv(field, envVarName+"_"); err != nil {
				return err
			}
			continue
		}

		envValue, exists := os.LookupEnv(envVarName)
		if !exists {
			continue
		}
		if err := setField(field, envValue); err != nil {
			return fmt.Errorf("failed to set field '%s' from env var '%s': %w", fieldType.Name, envVarName, err)
		}
	}
	return nil
}

// setField sets the value of a reflect.Value field based on its kind.
func setField(field reflect.Value, value string) error {
	if !field.CanSet() {
		return nil
	}
	switch field.Kind() {
	case reflect.String:
		field.SetString(value)
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		intValue, err := strconv.ParseInt(value, 10, 64)
		if err != nil {
			return err
		}
		field.SetInt(intValue)
	case reflect.Float64, reflect.Float32:
		floatValue, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return err
		}
		field.SetFloat(floatValue)
	case reflect.Bool:
		boolValue, err := strconv.ParseBool(value)
		if err != nil {
			return err
		}
		field.SetBool(boolValue)
	}
	return nil
}
