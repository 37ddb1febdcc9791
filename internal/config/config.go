package config

import (
	"fmt"
	"os"
	"strconv"
)

// Config holds all application configuration
type Config struct {
	ServiceName string
	HTTPPort    int
	MQTT        MQTTConfig
	Backend     BackendConfig
	Live        LiveConfig
	Log         LogConfig
}

// MQTTConfig holds broker connection and subscription settings
type MQTTConfig struct {
	BrokerURL      string
	Topic          string
	ClientIDPrefix string
	MaxReconnects  int
}

// BackendConfig holds storage backend settings
type BackendConfig struct {
	URL            string
	TimeoutSeconds int
}

// LiveConfig holds live buffer settings
type LiveConfig struct {
	Capacity int
}

// LogConfig holds logging settings
type LogConfig struct {
	// File enables a rotating log file in addition to stdout when set.
	File string
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	cfg := &Config{
		ServiceName: getEnv("SERVICE_NAME", "air-monitor-service"),
		HTTPPort:    getEnvAsInt("HTTP_PORT", 8080),
		MQTT: MQTTConfig{
			BrokerURL:      getEnv("MQTT_BROKER_URL", ""),
			Topic:          getEnv("MQTT_TOPIC", "z2m/air-monitor"),
			ClientIDPrefix: getEnv("MQTT_CLIENT_ID_PREFIX", "air-monitor"),
			MaxReconnects:  getEnvAsInt("MQTT_MAX_RECONNECTS", 5),
		},
		Backend: BackendConfig{
			URL:            getEnv("BACKEND_URL", ""),
			TimeoutSeconds: getEnvAsInt("BACKEND_TIMEOUT_SECONDS", 15),
		},
		Live: LiveConfig{
			Capacity: getEnvAsInt("LIVE_BUFFER_CAPACITY", 100),
		},
		Log: LogConfig{
			File: getEnv("LOG_FILE", ""),
		},
	}

	// Validate required fields
	if cfg.MQTT.BrokerURL == "" {
		return nil, fmt.Errorf("MQTT_BROKER_URL is required but not set in environment variables")
	}
	if cfg.Backend.URL == "" {
		return nil, fmt.Errorf("BACKEND_URL is required but not set in environment variables")
	}
	if cfg.Live.Capacity <= 0 {
		return nil, fmt.Errorf("LIVE_BUFFER_CAPACITY must be positive, got %d", cfg.Live.Capacity)
	}

	return cfg, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}
