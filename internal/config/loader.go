package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	toml "github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

// Config holds runtime parameters for the daemon.
// Zero values mean "unspecified" and are replaced by defaults in Resolve.
type Config struct {
	Addr                 string   `json:"addr" yaml:"addr" toml:"addr"`
	ScriptsDir           string   `json:"scripts_dir" yaml:"scripts_dir" toml:"scripts_dir"`
	Script               string   `json:"script" yaml:"script" toml:"script"`
	JournalPath          string   `json:"journal_path" yaml:"journal_path" toml:"journal_path"`
	CheckIntervalSeconds int      `json:"check_interval_seconds" yaml:"check_interval_seconds" toml:"check_interval_seconds"`
	ReloadOnUpdate       *bool    `json:"reload_on_update" yaml:"reload_on_update" toml:"reload_on_update"`
	LogLevel             string   `json:"log_level" yaml:"log_level" toml:"log_level"`
	CORSEnabled          bool     `json:"cors_enabled" yaml:"cors_enabled" toml:"cors_enabled"`
	CORSOrigins          []string `json:"cors_origins" yaml:"cors_origins" toml:"cors_origins"`
	Swagger              bool     `json:"swagger" yaml:"swagger" toml:"swagger"`
}

// Load reads a configuration file based on its extension.
// Supports: .yaml/.yml, .json, .toml
func Load(path string) (Config, error) {
	var cfg Config
	if path == "" {
		return cfg, fmt.Errorf("empty config path")
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(b, &cfg); err != nil {
			return cfg, fmt.Errorf("parse %s: %w", path, err)
		}
	case ".json":
		if err := json.Unmarshal(b, &cfg); err != nil {
			return cfg, fmt.Errorf("parse %s: %w", path, err)
		}
	case ".toml":
		if err := toml.Unmarshal(b, &cfg); err != nil {
			return cfg, fmt.Errorf("parse %s: %w", path, err)
		}
	default:
		return cfg, fmt.Errorf("unsupported config extension: %s", ext)
	}
	return cfg, nil
}
