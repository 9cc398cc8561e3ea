package app

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"

	"github.com/vladislavdragonenkov/checkout/internal/messaging/kafka"
)

// Поддерживаемые драйверы хранилища.
const (
	StorageDriverMemory   = "memory"
	StorageDriverPostgres = "postgres"
)

const envPrefix = "checkout"

// Config описывает настройки запуска приложения.
type Config struct {
	MetricsAddr string `envconfig:"METRICS_ADDR" default:":9090"`

	StorageDriver       string `envconfig:"STORAGE_DRIVER" default:"memory"`
	PostgresDSN         string `envconfig:"POSTGRES_DSN"`
	PostgresAutoMigrate bool   `envconfig:"POSTGRES_AUTO_MIGRATE" default:"true"`

	KafkaBrokers     string `envconfig:"KAFKA_BROKERS"`
	OrderEventsTopic string `envconfig:"ORDER_EVENTS_TOPIC" default:"checkout.order.events"`
	DLQTopic         string `envconfig:"DLQ_TOPIC" default:"checkout.dlq"`

	OutboxPollInterval time.Duration `envconfig:"OUTBOX_POLL_INTERVAL" default:"1s"`
	OutboxBatchSize    int           `envconfig:"OUTBOX_BATCH_SIZE" default:"100"`
	OutboxMaxAttempts  int           `envconfig:"OUTBOX_MAX_ATTEMPTS" default:"3"`
	OutboxRetryDelay   time.Duration `envconfig:"OUTBOX_RETRY_DELAY" default:"50ms"`
}

// DefaultConfig возвращает конфигурацию по умолчанию без чтения окружения.
func DefaultConfig() Config {
	return Config{
		MetricsAddr:         ":9090",
		StorageDriver:       StorageDriverMemory,
		PostgresAutoMigrate: true,
		OrderEventsTopic:    kafka.TopicOrderEvents,
		DLQTopic:            kafka.TopicDeadLetterQueue,
		OutboxPollInterval:  time.Second,
		OutboxBatchSize:     100,
		OutboxMaxAttempts:   3,
		OutboxRetryDelay:    50 * time.Millisecond,
	}
}

// LoadConfig читает конфигурацию из переменных окружения с префиксом CHECKOUT_.
func LoadConfig() (Config, error) {
	var cfg Config
	if err := envconfig.Process(envPrefix, &cfg); err != nil {
		return Config{}, fmt.Errorf("load config from env: %w", err)
	}
	return cfg, nil
}
