// Package config loads service configuration from environment variables.
package config

import (
	"fmt"
	"time"

	pkgconfig "github.com/luanvuhlu/compmarket/pkg/config"
)

// Search backend selection values.
const (
	BackendPostgres      = "postgres"
	BackendElasticsearch = "elasticsearch"
	BackendMemory        = "memory"
)

// Config holds all configuration for the compmarket service.
type Config struct {
	Environment string `env:"ENVIRONMENT" envDefault:"development"`
	LogLevel    string `env:"LOG_LEVEL" envDefault:"info"`

	// HTTP server
	HTTPPort int `env:"HTTP_PORT" envDefault:"8080"`

	// CORS
	AllowedOrigins []string `env:"ALLOWED_ORIGINS" envDefault:"*" envSeparator:","`

	// Search backend selection (postgres, elasticsearch or memory)
	SearchBackend string `env:"SEARCH_BACKEND" envDefault:"postgres"`

	// PostgreSQL (catalog source of truth)
	PostgresHost     string `env:"POSTGRES_HOST" envDefault:"localhost"`
	PostgresPort     int    `env:"POSTGRES_PORT" envDefault:"5432"`
	PostgresUser     string `env:"POSTGRES_USER" envDefault:"compmarket"`
	PostgresPassword string `env:"POSTGRES_PASSWORD" envDefault:"compmarket"`
	PostgresDB       string `env:"POSTGRES_DB" envDefault:"compmarket"`
	PostgresSSLMode  string `env:"POSTGRES_SSLMODE" envDefault:"disable"`

	// Redis (catalog read cache)
	CacheEnabled  bool          `env:"CACHE_ENABLED" envDefault:"true"`
	RedisHost     string        `env:"REDIS_HOST" envDefault:"localhost"`
	RedisPort     int           `env:"REDIS_PORT" envDefault:"6379"`
	RedisPassword string        `env:"REDIS_PASSWORD" envDefault:""`
	RedisDB       int           `env:"REDIS_DB" envDefault:"0"`
	CacheTTL      time.Duration `env:"CACHE_TTL" envDefault:"5m"`

	// Elasticsearch (only used when SEARCH_BACKEND=elasticsearch)
	ElasticsearchURL   string `env:"ELASTICSEARCH_URL" envDefault:"http://localhost:9200"`
	ElasticsearchIndex string `env:"ELASTICSEARCH_INDEX" envDefault:"compmarket_products"`

	// Kafka (index sync events)
	KafkaBrokers []string `env:"KAFKA_BROKERS" envDefault:"localhost:9092" envSeparator:","`
	KafkaGroupID string   `env:"KAFKA_GROUP_ID" envDefault:"compmarket-indexer"`
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := pkgconfig.Load(cfg); err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// validate checks configuration invariants.
func (c *Config) validate() error {
	if c.HTTPPort < 1 || c.HTTPPort > 65535 {
		return fmt.Errorf("invalid HTTP port: %d", c.HTTPPort)
	}
	switch c.SearchBackend {
	case BackendPostgres, BackendElasticsearch, BackendMemory:
	default:
		return fmt.Errorf("invalid search backend: %q", c.SearchBackend)
	}
	if c.CacheTTL <= 0 {
		return fmt.Errorf("cache TTL must be positive: %s", c.CacheTTL)
	}
	return nil
}
