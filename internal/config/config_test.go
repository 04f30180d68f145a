package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg := LoadFrom(viper.New())

	assert.Equal(t, "./data", cfg.DataDir)
	assert.Equal(t, filepath.Join("./data", "settings.json"), cfg.SettingsFile)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "text", cfg.LogFormat)
	assert.Empty(t, cfg.UserHandle)
	assert.Equal(t, filepath.Join("./data", "lancamentos.sqlite"), cfg.DBPath("lancamentos.sqlite"))
}

func TestLoad_Environment(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("LANCAMENTOS_DATA_DIR", dir)
	t.Setenv("LANCAMENTOS_LOG_LEVEL", "debug")
	t.Setenv("LANCAMENTOS_LOG_FORMAT", "json")
	t.Setenv("LANCAMENTOS_USER_HANDLE", "u-123")
	t.Setenv("LANCAMENTOS_USER_EMAIL", "ana@example.com")

	cfg := Load()
	assert.Equal(t, dir, cfg.DataDir)
	assert.Equal(t, filepath.Join(dir, "settings.json"), cfg.SettingsFile)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "json", cfg.LogFormat)
	assert.Equal(t, "u-123", cfg.UserHandle)
	assert.Equal(t, "ana@example.com", cfg.UserEmail)
	require.NoError(t, cfg.Validate())
}

func TestLoad_ExplicitSettingsFile(t *testing.T) {
	t.Setenv("LANCAMENTOS_SETTINGS_FILE", "/tmp/custom.json")
	cfg := Load()
	assert.Equal(t, "/tmp/custom.json", cfg.SettingsFile)
}

func TestConfig_Validate(t *testing.T) {
	file := filepath.Join(t.TempDir(), "plain-file")
	require.NoError(t, os.WriteFile(file, nil, 0o644))

	valid := Config{
		DataDir:      t.TempDir(),
		SettingsFile: "settings.json",
		LogLevel:     "info",
		LogFormat:    "text",
	}

	tests := []struct {
		name        string
		mutate      func(*Config)
		wantErr     bool
		errorString string
	}{
		{
			name:    "valid config",
			mutate:  func(*Config) {},
			wantErr: false,
		},
		{
			name:    "data directory not created yet",
			mutate:  func(c *Config) { c.DataDir = filepath.Join(c.DataDir, "later") },
			wantErr: false,
		},
		{
			name:        "empty data directory",
			mutate:      func(c *Config) { c.DataDir = " " },
			wantErr:     true,
			errorString: "data directory cannot be empty",
		},
		{
			name:        "data directory is a file",
			mutate:      func(c *Config) { c.DataDir = file },
			wantErr:     true,
			errorString: "is not a directory",
		},
		{
			name:        "empty settings file",
			mutate:      func(c *Config) { c.SettingsFile = "" },
			wantErr:     true,
			errorString: "settings file cannot be empty",
		},
		{
			name:        "invalid log level",
			mutate:      func(c *Config) { c.LogLevel = "verbose" },
			wantErr:     true,
			errorString: "invalid log level 'verbose'",
		},
		{
			name:        "invalid log format",
			mutate:      func(c *Config) { c.LogFormat = "xml" },
			wantErr:     true,
			errorString: "invalid log format 'xml': must be one of [text json]",
		},
		{
			name:        "user details without handle",
			mutate:      func(c *Config) { c.UserName = "Ana" },
			wantErr:     true,
			errorString: "user handle is required",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid
			tt.mutate(&cfg)
			err := cfg.Validate()
			if !tt.wantErr {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errorString)
		})
	}
}

func TestConfig_ValidateReportsEveryProblem(t *testing.T) {
	cfg := Config{LogLevel: "loud", LogFormat: "yaml"}
	err := cfg.Validate()
	require.Error(t, err)
	assert.Equal(t, 4, strings.Count(err.Error(), "\n- "))
}
