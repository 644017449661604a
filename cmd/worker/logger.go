package main

import (
	"github.com/septivank/usage-delta-worker/internal/config"
	"github.com/septivank/usage-delta-worker/internal/logging"
	"go.uber.org/zap"
)

func newLogger(cfg *config.Config) (*zap.Logger, error) {
	return logging.NewLogger(cfg.ServiceName)
}
