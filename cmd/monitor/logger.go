package main

import (
	"github.com/airmon/air-monitor-service/internal/config"
	"github.com/airmon/air-monitor-service/internal/logging"
	"go.uber.org/zap"
)

func newLogger(cfg *config.Config) (*zap.Logger, error) {
	return logging.NewLogger(cfg.ServiceName, cfg.Log.File)
}
