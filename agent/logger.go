package main

import (
	"fmt"

	"github.com/gitclock/agent/agent/types"
	"go.uber.org/zap"
)

// NewLogger builds the agent logger from the log section of the config.
func NewLogger(cfg types.LogConfig) (*zap.SugaredLogger, error) {
	zapCfg := zap.NewProductionConfig()
	if cfg.Development {
		zapCfg = zap.NewDevelopmentConfig()
	}

	if cfg.Level != "" {
		level, err := zap.ParseAtomicLevel(cfg.Level)
		if err != nil {
			return nil, fmt.Errorf("invalid log level %q: %w", cfg.Level, err)
		}
		zapCfg.Level = level
	}

	logger, err := zapCfg.Build()
	if err != nil {
		return nil, fmt.Errorf("failed to build logger: %w", err)
	}
	return logger.Sugar(), nil
}
