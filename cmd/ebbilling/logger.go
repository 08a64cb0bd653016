package main

import (
	"github.com/septivank/eb-billing/internal/config"
	"github.com/septivank/eb-billing/internal/logging"
	"go.uber.org/fx/fxevent"
	"go.uber.org/zap"
)

func newLogger(cfg *config.Config) (*zap.Logger, error) {
	return logging.NewLogger(cfg.ServiceName, cfg.Logging.Level, cfg.Logging.Output)
}

// newFxLogger sends fx lifecycle events to the application log instead of stderr
func newFxLogger(logger *zap.Logger) fxevent.Logger {
	return &fxevent.ZapLogger{Logger: logger.Named("fx")}
}
