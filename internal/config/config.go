package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

// Config holds all application configuration
type Config struct {
	ServiceName string
	Database    DatabaseConfig
	Logging     LoggingConfig
	RabbitMQ    RabbitMQConfig
	Anomaly     AnomalyConfig
}

// DatabaseConfig holds database connection settings
type DatabaseConfig struct {
	URL string
}

// IsPostgres reports whether URL points at a PostgreSQL server rather than a local SQLite file
func (d DatabaseConfig) IsPostgres() bool {
	lower := strings.ToLower(d.URL)
	return strings.HasPrefix(lower, "postgres://") || strings.HasPrefix(lower, "postgresql://")
}

// LoggingConfig holds logger settings
type LoggingConfig struct {
	Level  string
	Output string
}

// RabbitMQConfig holds RabbitMQ connection and queue settings.
// An empty URL disables bill events and the ingest command.
type RabbitMQConfig struct {
	URL              string
	BillingExchange  string
	BillRoutingKey   string
	IngestExchange   string
	IngestQueue      string
	IngestRoutingKey string
	DLQQueue         string
	PrefetchCount    int
}

// Enabled reports whether a broker is configured
func (r RabbitMQConfig) Enabled() bool {
	return r.URL != ""
}

// AnomalyConfig holds consumption anomaly settings
type AnomalyConfig struct {
	SpikeThreshold            float64
	MinDataPointsForDetection int
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	cfg := &Config{
		ServiceName: getEnv("SERVICE_NAME", "ebbilling"),
		Database: DatabaseConfig{
			URL: getEnv("DATABASE_URL", "eb_system.db"),
		},
		Logging: LoggingConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Output: getEnv("LOG_OUTPUT", "ebbilling.log"),
		},
		RabbitMQ: RabbitMQConfig{
			URL:              getEnv("RABBITMQ_URL", ""),
			BillingExchange:  getEnv("RABBITMQ_BILLING_EXCHANGE", "eb-billing.events.exchange"),
			BillRoutingKey:   getEnv("RABBITMQ_BILL_ROUTING_KEY", "bill.generated"),
			IngestExchange:   getEnv("RABBITMQ_INGEST_EXCHANGE", "eb-billing.readings.exchange"),
			IngestQueue:      getEnv("RABBITMQ_INGEST_QUEUE", "eb-billing.readings.queue"),
			IngestRoutingKey: getEnv("RABBITMQ_INGEST_ROUTING_KEY", "meter.reading.manual"),
			DLQQueue:         getEnv("RABBITMQ_DLQ_QUEUE", "eb-billing.readings.dlq"),
			PrefetchCount:    getEnvAsInt("RABBITMQ_PREFETCH", 10),
		},
		Anomaly: AnomalyConfig{
			SpikeThreshold:            getEnvAsFloat("ANOMALY_SPIKE_THRESHOLD", 3.0),
			MinDataPointsForDetection: getEnvAsInt("ANOMALY_MIN_DATA_POINTS", 3),
		},
	}

	if strings.TrimSpace(cfg.Database.URL) == "" {
		return nil, fmt.Errorf("DATABASE_URL must not be blank")
	}
	if cfg.RabbitMQ.PrefetchCount < 1 {
		return nil, fmt.Errorf("RABBITMQ_PREFETCH must be at least 1, got %d", cfg.RabbitMQ.PrefetchCount)
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
