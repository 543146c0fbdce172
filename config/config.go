// Package config loads elm-pair's daemon configuration: a YAML file with
// CLI-flag overrides.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config is elm-pair's daemon configuration.
type Config struct {
	// Socket is the address the daemon listens on for editor connections,
	// e.g. "unix:/tmp/elm-pair.sock" or "tcp:127.0.0.1:5679".
	Socket string `yaml:"socket"`
	// ElmBin is the path to the elm compiler executable.
	ElmBin string `yaml:"elm_bin"`
	// LogLevel is a logrus level name: "debug", "info", "warn", "error".
	LogLevel string `yaml:"log_level"`
	// JSONLogs selects logrus's JSON formatter instead of its text one.
	JSONLogs bool `yaml:"json_logs"`
	// DependencyInterfaceFile, relative to an Elm project's root, is where
	// the dependency export index reader looks for the compiler's
	// dependency interface (defaults to elm-stuff/0.19.1/i.json).
	DependencyInterfaceFile string `yaml:"dependency_interface_file"`
}

// Default returns the configuration used when no config file is given.
func Default() Config {
	return Config{
		Socket:                  "unix:/tmp/elm-pair.sock",
		ElmBin:                  "elm",
		LogLevel:                "info",
		JSONLogs:                false,
		DependencyInterfaceFile: "elm-stuff/0.19.1/i.json",
	}
}

// Load reads and parses a YAML config file at path, starting from Default()
// so an absent field in the file keeps its default value.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}
	bytes, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("config: reading %s: %w", path, err)
	}
	if err := yaml.Unmarshal(bytes, &cfg); err != nil {
		return cfg, fmt.Errorf("config: parsing %s: %w", path, err)
	}
	return cfg, nil
}
