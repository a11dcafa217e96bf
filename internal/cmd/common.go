package cmd

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/kailas-cloud/modelsearch/internal/config"
	logpkg "github.com/kailas-cloud/modelsearch/internal/logger"
)

// loadCLI resolves config and a stderr logger for interactive subcommands.
func loadCLI() (config.Config, *zap.Logger, error) {
	cfg, err := config.Resolve(flagEnv, flagBackendURL)
	if err != nil {
		return config.Config{}, nil, fmt.Errorf("%w (set --backend-url or backend.url in config/%s.yaml)", err, flagEnv)
	}
	level := flagLogLevel
	if level == "" {
		level = "warn"
	}
	logger, err := logpkg.NewLogger("cli", level)
	if err != nil {
		return config.Config{}, nil, fmt.Errorf("create logger: %w", err)
	}
	return cfg, logger, nil
}
