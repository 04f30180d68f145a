// Package cli provides common CLI initialization utilities.
// It consolidates the start-up sequence of cmd/lancamentos: environment,
// configuration, logging, settings and the store gate.
package cli

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"lancamentos/internal/config"
	"lancamentos/internal/core"
	"lancamentos/internal/log"
	"lancamentos/internal/settings"
	"lancamentos/internal/storage"
)

// SetupLogger builds the process logger from the configured level and format
// and installs it as the default logger. cfg is assumed validated.
func SetupLogger(cfg *config.Config) *log.Logger {
	lc := log.DefaultConfig()
	if level, err := log.ParseLevel(cfg.LogLevel); err == nil {
		lc.Level = level
	}
	lc.Format = cfg.LogFormat
	lc.Output = os.Stderr
	logger := log.New(lc)
	log.SetDefault(logger)
	return logger
}

// LoadEnvFile loads the .env file for local development.
// Errors are ignored silently as the file is optional.
func LoadEnvFile() {
	_ = godotenv.Load()
}

// LoadAndValidateConfig loads configuration and validates it.
// Returns the config or exits the process on validation failure.
func LoadAndValidateConfig(logger *log.Logger) *config.Config {
	cfg, err := loadConfig(logger)
	if err != nil {
		os.Exit(1)
	}
	return cfg
}

func loadConfig(logger *log.Logger) (*config.Config, error) {
	logger = logger.WithComponent(log.ComponentConfig)
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", log.FieldOperation, log.OpStartup, log.FieldError, err)
		return nil, err
	}
	logger.Debug("Configuration loaded", log.FieldOperation, log.OpStartup, log.FieldPath, cfg.DataDir)
	return cfg, nil
}

// BootstrapLogger logs to stderr at info until the configuration is known.
func BootstrapLogger() *log.Logger {
	lc := log.DefaultConfig()
	lc.Output = os.Stderr
	return log.New(lc)
}

// OpenSettings opens the device settings file or exits the process.
func OpenSettings(logger *log.Logger, cfg *config.Config) *settings.Store {
	s, err := settings.Open(cfg.SettingsFile, logger)
	if err != nil {
		logger.Error("Failed to open settings", log.FieldError, err, log.FieldPath, cfg.SettingsFile)
		os.Exit(1)
	}
	return s
}

// NewStoreGate wires the store gate for the configured data directory.
func NewStoreGate(logger *log.Logger, cfg *config.Config, s *settings.Store) *storage.Gate {
	return storage.NewGate(cfg.DBPath(storage.DBFileName),
		storage.WithLogger(logger),
		storage.WithSettings(s),
	)
}

// MustOpenStore runs the gate and returns the ready store.
// A failure is fatal: it is logged and the process exits.
func MustOpenStore(ctx context.Context, logger *log.Logger, gate *storage.Gate) *storage.Handle {
	h, err := gate.Handle(ctx)
	if err != nil {
		logger.ErrorContext(ctx, "Store unavailable",
			log.FieldError, err,
			"fatal", core.IsFatal(err),
		)
		os.Exit(1)
	}
	return h
}

// SignalContext returns a context cancelled on SIGINT or SIGTERM.
func SignalContext(logger *log.Logger) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		select {
		case sig := <-sigChan:
			logger.Info("Shutdown signal received", "signal", sig.String())
			cancel()
		case <-ctx.Done():
		}
		signal.Stop(sigChan)
	}()
	return ctx, cancel
}
