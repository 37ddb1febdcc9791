package main

import (
	"context"
	"time"

	"github.com/airmon/air-monitor-service/internal/backend"
	"github.com/airmon/air-monitor-service/internal/config"
	"github.com/airmon/air-monitor-service/internal/history"
	"github.com/airmon/air-monitor-service/internal/httpapi"
	"github.com/airmon/air-monitor-service/internal/livebuffer"
	"github.com/airmon/air-monitor-service/internal/snapshot"
	"github.com/airmon/air-monitor-service/internal/telemetry"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

// startTelemetry ties the telemetry client to the application lifecycle.
// Connect is fire-and-forget: broker trouble shows up as state transitions,
// not as a failed start.
func startTelemetry(lc fx.Lifecycle, client *telemetry.Client, cfg *config.Config, logger *zap.Logger) {
	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			logger.Info("starting telemetry client",
				zap.String("broker", cfg.MQTT.BrokerURL),
				zap.String("topic", cfg.MQTT.Topic),
			)
			client.Connect()
			return nil
		},
		OnStop: func(context.Context) error {
			client.Close()
			logger.Info("telemetry client stopped gracefully")
			return nil
		},
	})
}

// startHTTPServer ties the REST surface to the application lifecycle.
func startHTTPServer(lc fx.Lifecycle, server *httpapi.Server, logger *zap.Logger) {
	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			server.Start()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			if err := server.Shutdown(ctx); err != nil {
				logger.Error("failed to shut down http server", zap.Error(err))
				return err
			}
			logger.Info("http server stopped gracefully")
			return nil
		},
	})
}

// ProvideLiveBuffer creates the live data window
func ProvideLiveBuffer(cfg *config.Config) *livebuffer.Buffer {
	return livebuffer.NewBuffer(cfg.Live.Capacity)
}

// ProvideBackendClient creates the storage backend client
func ProvideBackendClient(cfg *config.Config, logger *zap.Logger) *backend.Client {
	return backend.NewClient(cfg.Backend.URL, time.Duration(cfg.Backend.TimeoutSeconds)*time.Second, logger)
}

// ProvideHistoryService creates the historical query service
func ProvideHistoryService(client *backend.Client, cfg *config.Config, logger *zap.Logger) *history.Service {
	return history.NewService(client, cfg.MQTT.Topic, logger)
}

// ProvideSnapshotService creates the snapshot service
func ProvideSnapshotService(client *backend.Client, logger *zap.Logger) *snapshot.Service {
	return snapshot.NewService(client, logger)
}

// ProvideTelemetryClient creates the MQTT telemetry client
func ProvideTelemetryClient(cfg *config.Config, buffer *livebuffer.Buffer, logger *zap.Logger) *telemetry.Client {
	return telemetry.NewClient(telemetry.Config{
		BrokerURL:      cfg.MQTT.BrokerURL,
		Topic:          cfg.MQTT.Topic,
		ClientIDPrefix: cfg.MQTT.ClientIDPrefix,
		MaxReconnects:  cfg.MQTT.MaxReconnects,
	}, buffer, logger, nil)
}

// ProvideHTTPServer creates the REST surface
func ProvideHTTPServer(
	cfg *config.Config,
	buffer *livebuffer.Buffer,
	client *telemetry.Client,
	hs *history.Service,
	ss *snapshot.Service,
	logger *zap.Logger,
) *httpapi.Server {
	return httpapi.NewServer(cfg.HTTPPort, buffer, client, hs, ss, logger)
}
