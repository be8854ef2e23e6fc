package config

import (
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Keys shared by the config file, SWUPDATE_* env vars and CLI flags.
// Flags use the same names with '-' instead of '_'.
const (
	KeyAddr           = "addr"
	KeyScriptsDir     = "scripts_dir"
	KeyScript         = "script"
	KeyJournalPath    = "journal_path"
	KeyCheckInterval  = "check_interval_seconds"
	KeyReloadOnUpdate = "reload_on_update"
	KeyLogLevel       = "log_level"
	KeyCORSEnabled    = "cors_enabled"
	KeyCORSOrigins    = "cors_origins"
	KeySwagger        = "swagger"

	envPrefix = "SWUPDATE"
)

// Defaults applied when nothing else sets a key.
const (
	DefaultAddr          = ":8080"
	DefaultScriptsDir    = "."
	DefaultScript        = "sw.js"
	DefaultCheckInterval = 60
	DefaultLogLevel      = "info"
)

var allKeys = []string{
	KeyAddr, KeyScriptsDir, KeyScript, KeyJournalPath, KeyCheckInterval,
	KeyReloadOnUpdate, KeyLogLevel, KeyCORSEnabled, KeyCORSOrigins, KeySwagger,
}

// Resolve layers defaults < config file < SWUPDATE_* env < changed flags.
// path may be empty; flags may be nil.
func Resolve(path string, flags *pflag.FlagSet) (Config, error) {
	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))
	v.AutomaticEnv()

	if path != "" {
		fileCfg, err := Load(path)
		if err != nil {
			return Config{}, err
		}
		if err := v.MergeConfigMap(fileCfg.settings()); err != nil {
			return Config{}, err
		}
	}
	if flags != nil {
		for _, key := range allKeys {
			if f := flags.Lookup(flagName(key)); f != nil {
				if err := v.BindPFlag(key, f); err != nil {
					return Config{}, err
				}
			}
		}
	}

	reload := v.GetBool(KeyReloadOnUpdate)
	return Config{
		Addr:                 v.GetString(KeyAddr),
		ScriptsDir:           v.GetString(KeyScriptsDir),
		Script:               v.GetString(KeyScript),
		JournalPath:          v.GetString(KeyJournalPath),
		CheckIntervalSeconds: v.GetInt(KeyCheckInterval),
		ReloadOnUpdate:       &reload,
		LogLevel:             strings.ToLower(v.GetString(KeyLogLevel)),
		CORSEnabled:          v.GetBool(KeyCORSEnabled),
		CORSOrigins:          SplitCSV(v.GetString(KeyCORSOrigins)),
		Swagger:              v.GetBool(KeySwagger),
	}, nil
}

// CheckInterval returns the update-check period; zero disables polling.
func (c Config) CheckInterval() time.Duration {
	if c.CheckIntervalSeconds <= 0 {
		return 0
	}
	return time.Duration(c.CheckIntervalSeconds) * time.Second
}

// ReloadEnabled reports the reload_on_update setting, true when unset.
func (c Config) ReloadEnabled() bool {
	return c.ReloadOnUpdate == nil || *c.ReloadOnUpdate
}

// RegisterFlags adds one flag per config key to fs, using the defaults.
func RegisterFlags(fs *pflag.FlagSet) {
	fs.String(flagName(KeyAddr), DefaultAddr, "HTTP listen address, e.g. :8080")
	fs.String(flagName(KeyScriptsDir), DefaultScriptsDir, "Directory holding worker scripts")
	fs.String(flagName(KeyScript), DefaultScript, "Worker script to register (file name in scripts dir)")
	fs.String(flagName(KeyJournalPath), "", "SQLite journal path (empty = in-memory)")
	fs.Int(flagName(KeyCheckInterval), DefaultCheckInterval, "Seconds between update checks (0 disables)")
	fs.Bool(flagName(KeyReloadOnUpdate), true, "Run the reload action once control moves to the new worker")
	fs.String(flagName(KeyLogLevel), DefaultLogLevel, "Log level: debug|info|warn|error")
	fs.Bool(flagName(KeyCORSEnabled), false, "Enable CORS")
	fs.String(flagName(KeyCORSOrigins), "*", "Comma-separated CORS origins")
	fs.Bool(flagName(KeySwagger), false, "Serve swagger UI at /swagger/")
}

// SplitCSV splits a comma-separated list, trimming blanks.
func SplitCSV(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func flagName(key string) string { return strings.ReplaceAll(key, "_", "-") }

func setDefaults(v *viper.Viper) {
	v.SetDefault(KeyAddr, DefaultAddr)
	v.SetDefault(KeyScriptsDir, DefaultScriptsDir)
	v.SetDefault(KeyScript, DefaultScript)
	v.SetDefault(KeyJournalPath, "")
	v.SetDefault(KeyCheckInterval, DefaultCheckInterval)
	v.SetDefault(KeyReloadOnUpdate, true)
	v.SetDefault(KeyLogLevel, DefaultLogLevel)
	v.SetDefault(KeyCORSEnabled, false)
	v.SetDefault(KeyCORSOrigins, "*")
	v.SetDefault(KeySwagger, false)
}

// settings returns the explicitly set file values keyed like the flags.
func (c Config) settings() map[string]any {
	m := map[string]any{}
	if c.Addr != "" {
		m[KeyAddr] = c.Addr
	}
	if c.ScriptsDir != "" {
		m[KeyScriptsDir] = c.ScriptsDir
	}
	if c.Script != "" {
		m[KeyScript] = c.Script
	}
	if c.JournalPath != "" {
		m[KeyJournalPath] = c.JournalPath
	}
	if c.CheckIntervalSeconds != 0 {
		m[KeyCheckInterval] = c.CheckIntervalSeconds
	}
	if c.ReloadOnUpdate != nil {
		m[KeyReloadOnUpdate] = *c.ReloadOnUpdate
	}
	if c.LogLevel != "" {
		m[KeyLogLevel] = c.LogLevel
	}
	if c.CORSEnabled {
		m[KeyCORSEnabled] = true
	}
	if len(c.CORSOrigins) > 0 {
		m[KeyCORSOrigins] = strings.Join(c.CORSOrigins, ",")
	}
	if c.Swagger {
		m[KeySwagger] = true
	}
	return m
}
