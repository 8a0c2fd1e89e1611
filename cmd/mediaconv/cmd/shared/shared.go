// Package shared holds state and helpers common to all subcommands.
package shared

import (
	"context"

	"go.uber.org/zap"

	"mediaconv/internal/app"
	"mediaconv/internal/app/logging"
	"mediaconv/internal/config"
)

var (
	ConfigPath string
	Verbose    bool
)

// LoadConfig reads and validates the configuration. Verbose forces debug logging.
func LoadConfig() (*config.Config, error) {
	cfg, err := config.InitializeConfig(ConfigPath)
	if err != nil {
		return nil, err
	}
	if Verbose {
		cfg.Log.Level = "debug"
	}
	return cfg, nil
}

// Bootstrap loads the configuration and wires the whole application.
func Bootstrap(ctx context.Context) (*app.Application, func(), error) {
	cfg, err := LoadConfig()
	if err != nil {
		return nil, nil, err
	}
	return app.InitializeApplication(ctx, cfg)
}

// Logger builds a logger for commands that do not need the full application.
func Logger(cfg *config.Config) *zap.Logger {
	logger, err := logging.NewLogger(!cfg.IsProduction(), cfg.Log.Level)
	if err != nil {
		return zap.NewNop()
	}
	return logger
}
