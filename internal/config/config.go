package config

import (
	"fmt"
	"os"
	"strconv"
)

// Backend selects the history store implementation.
const (
	BackendFile     = "file"
	BackendPostgres = "postgres"
)

// Notifier sink selection.
const (
	NotifierLog      = "log"
	NotifierRabbitMQ = "rabbitmq"
)

// Config holds all application configuration
type Config struct {
	ServiceName string
	Billing     BillingConfig
	History     HistoryConfig
	Delta       DeltaConfig
	Notify      NotifyConfig
}

// BillingConfig holds billing API connection settings
type BillingConfig struct {
	URL       string
	AccessKey string
	SecretKey string
	PageSize  int
}

// HistoryConfig holds history store settings
type HistoryConfig struct {
	Backend     string
	Path        string
	MaxSamples  int
	DatabaseURL string
}

// DeltaConfig holds delta detection settings
type DeltaConfig struct {
	ThresholdPercent float64
}

// NotifyConfig holds notification sink settings
type NotifyConfig struct {
	Sink            string
	RabbitMQURL     string
	AlertExchange   string
	AlertRoutingKey string
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	cfg := &Config{
		ServiceName: getEnv("SERVICE_NAME", "usage-delta-worker"),
		Billing: BillingConfig{
			URL:       getEnv("BILLING_API_URL", ""),
			AccessKey: getEnv("BILLING_ACCESS_KEY", ""),
			SecretKey: getEnv("BILLING_SECRET_KEY", ""),
			PageSize:  getEnvAsInt("BILLING_PAGE_SIZE", 50),
		},
		History: HistoryConfig{
			Backend:     getEnv("HISTORY_BACKEND", BackendFile),
			Path:        getEnv("HISTORY_PATH", "usage-history.jsonl"),
			MaxSamples:  getEnvAsInt("HISTORY_MAX_SAMPLES", 30),
			DatabaseURL: getEnv("DATABASE_URL", ""),
		},
		Delta: DeltaConfig{
			ThresholdPercent: getEnvAsFloat("DELTA_THRESHOLD_PERCENT", 10.0),
		},
		Notify: NotifyConfig{
			Sink:            getEnv("NOTIFIER", NotifierLog),
			RabbitMQURL:     getEnv("RABBITMQ_URL", ""),
			AlertExchange:   getEnv("RABBITMQ_ALERT_EXCHANGE", "usage-delta.alerts.exchange"),
			AlertRoutingKey: getEnv("RABBITMQ_ALERT_ROUTING_KEY", "usage.delta.alert"),
		},
	}

	// Validate required fields
	if cfg.Billing.URL == "" {
		return nil, fmt.Errorf("BILLING_API_URL is required but not set in environment variables")
	}
	if cfg.Billing.AccessKey == "" {
		return nil, fmt.Errorf("BILLING_ACCESS_KEY is required but not set in environment variables")
	}
	if cfg.Billing.SecretKey == "" {
		return nil, fmt.Errorf("BILLING_SECRET_KEY is required but not set in environment variables")
	}
	if cfg.Billing.PageSize <= 0 {
		return nil, fmt.Errorf("BILLING_PAGE_SIZE must be positive, got %d", cfg.Billing.PageSize)
	}
	if cfg.Delta.ThresholdPercent < 0 {
		return nil, fmt.Errorf("DELTA_THRESHOLD_PERCENT must not be negative, got %v", cfg.Delta.ThresholdPercent)
	}
	if cfg.History.MaxSamples <= 0 {
		return nil, fmt.Errorf("HISTORY_MAX_SAMPLES must be positive, got %d", cfg.History.MaxSamples)
	}

	switch cfg.History.Backend {
	case BackendFile:
		if cfg.History.Path == "" {
			return nil, fmt.Errorf("HISTORY_PATH is required with HISTORY_BACKEND=file")
		}
	case BackendPostgres:
		if cfg.History.DatabaseURL == "" {
			return nil, fmt.Errorf("DATABASE_URL is required with HISTORY_BACKEND=postgres")
		}
	default:
		return nil, fmt.Errorf("unknown HISTORY_BACKEND %q (expected %q or %q)", cfg.History.Backend, BackendFile, BackendPostgres)
	}

	switch cfg.Notify.Sink {
	case NotifierLog:
	case NotifierRabbitMQ:
		if cfg.Notify.RabbitMQURL == "" {
			return nil, fmt.Errorf("RABBITMQ_URL is required with NOTIFIER=rabbitmq")
		}
	default:
		return nil, fmt.Errorf("unknown NOTIFIER %q (expected %q or %q)", cfg.Notify.Sink, NotifierLog, NotifierRabbitMQ)
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

func getEnvAsFloat(key string, defaultValue float64) float64 {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.ParseFloat(valueStr, 64)
	if err != nil {
		return defaultValue
	}
	return value
}
