package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"

	"lancamentos/internal/log"
)

// EnvPrefix prefixes every environment variable read by Load.
const EnvPrefix = "LANCAMENTOS"

type Config struct {
	// Storage
	DataDir      string
	SettingsFile string

	// Logging
	LogLevel  string
	LogFormat string

	// Signed-in user, as handed over by the identity provider
	UserHandle string
	UserName   string
	UserEmail  string
}

// Load reads LANCAMENTOS_* environment variables on top of defaults.
func Load() *Config {
	return LoadFrom(viper.New())
}

// LoadFrom reads configuration from v after installing defaults and binding
// the environment.
func LoadFrom(v *viper.Viper) *Config {
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("data_dir", "./data")
	v.SetDefault("settings_file", "")
	v.SetDefault("log_level", "info")
	v.SetDefault("log_format", "text")
	v.SetDefault("user_handle", "")
	v.SetDefault("user_name", "")
	v.SetDefault("user_email", "")

	cfg := &Config{
		DataDir:      v.GetString("data_dir"),
		SettingsFile: v.GetString("settings_file"),
		LogLevel:     v.GetString("log_level"),
		LogFormat:    v.GetString("log_format"),
		UserHandle:   v.GetString("user_handle"),
		UserName:     v.GetString("user_name"),
		UserEmail:    v.GetString("user_email"),
	}
	if cfg.SettingsFile == "" && cfg.DataDir != "" {
		cfg.SettingsFile = filepath.Join(cfg.DataDir, "settings.json")
	}
	return cfg
}

// DBPath places dbFile inside the data directory.
func (c *Config) DBPath(dbFile string) string {
	return filepath.Join(c.DataDir, dbFile)
}

// Validate validates the configuration and returns an error if invalid
func (c *Config) Validate() error {
	var errors []string

	if strings.TrimSpace(c.DataDir) == "" {
		errors = append(errors, "data directory cannot be empty")
	} else if info, err := os.Stat(c.DataDir); err == nil && !info.IsDir() {
		errors = append(errors, fmt.Sprintf("data directory '%s' is not a directory", c.DataDir))
	}

	if strings.TrimSpace(c.SettingsFile) == "" {
		errors = append(errors, "settings file cannot be empty")
	}

	if _, err := log.ParseLevel(c.LogLevel); err != nil {
		errors = append(errors, fmt.Sprintf("invalid log level '%s': must be one of debug, info, warn, error", c.LogLevel))
	}

	validFormats := []string{"text", "json"}
	isValidFormat := false
	for _, f := range validFormats {
		if c.LogFormat == f {
			isValidFormat = true
			break
		}
	}
	if !isValidFormat {
		errors = append(errors, fmt.Sprintf("invalid log format '%s': must be one of %v", c.LogFormat, validFormats))
	}

	if c.UserHandle == "" && (c.UserName != "" || c.UserEmail != "") {
		errors = append(errors, "user handle is required when a user name or email is set")
	}

	// Return combined errors
	if len(errors) > 0 {
		return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(errors, "\n- "))
	}

	return nil
}
