package config

import "os"

// EnvConfigPath names the environment variable that selects the configuration file
// when no explicit path is given.
const EnvConfigPath = "TSW_CONFIG_PATH"

// DefaultConfigPath is used when neither an explicit path nor EnvConfigPath is set.
const DefaultConfigPath = "input/configuration.yaml"

// Origins of a resolved configuration path.
const (
	OriginExplicit = "explicit"
	OriginEnv      = "environment"
	OriginDefault  = "default"
)

// Source is a resolved configuration location.
type Source struct {
	Path   string
	Origin string
}

// Resolve picks the configuration file: explicit path, then EnvConfigPath, then DefaultConfigPath.
func Resolve(explicit string) Source {
	if explicit != "" {
		return Source{Path: explicit, Origin: OriginExplicit}
	}
	if p, ok := os.LookupEnv(EnvConfigPath); ok && p != "" {
		return Source{Path: p, Origin: OriginEnv}
	}
	return Source{Path: DefaultConfigPath, Origin: OriginDefault}
}
