// Package config loads the search service configuration from the
// environment.
package config

import (
	"fmt"
	"time"

	pkgconfig "github.com/loziogigio/vinc-pim-sub001/pkg/config"
)

// Config holds all configuration for the search service.
type Config struct {
	Environment string `env:"ENVIRONMENT" envDefault:"development"`
	LogLevel    string `env:"LOG_LEVEL" envDefault:"info"`

	// HTTP server
	HTTPPort int `env:"SEARCH_HTTP_PORT" envDefault:"8010"`

	// Solr
	SolrURL        string `env:"SOLR_URL" envDefault:"http://localhost:8983/solr"`
	SolrCorePrefix string `env:"SOLR_CORE_PREFIX" envDefault:"catalog"`

	// MongoDB document store
	MongoURI      string        `env:"MONGO_URI" envDefault:"mongodb://localhost:27017"`
	MongoDBPrefix string        `env:"MONGO_DB_PREFIX" envDefault:"catalog"`
	MongoTimeout  time.Duration `env:"MONGO_TIMEOUT" envDefault:"10s"`

	// Enrichment
	CacheTTL time.Duration `env:"ENTITY_CACHE_TTL" envDefault:"60s"`
	MaxRows  int           `env:"SEARCH_MAX_ROWS" envDefault:"100"`

	// Kafka
	KafkaBrokers []string `env:"KAFKA_BROKERS" envDefault:"localhost:9092" envSeparator:","`
	KafkaEnabled bool     `env:"KAFKA_ENABLED" envDefault:"true"`

	// Pprof
	PprofAllowedCIDRs []string `env:"PPROF_ALLOWED_CIDRS" envDefault:"10.0.0.0/8,172.16.0.0/12,192.168.0.0/16,127.0.0.0/8,::1/128" envSeparator:","`
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := pkgconfig.Load(cfg); err != nil {
		return nil, fmt.Errorf("load search config: %w", err)
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
	if c.MaxRows < 1 {
		return fmt.Errorf("invalid max rows: %d", c.MaxRows)
	}
	if c.CacheTTL <= 0 {
		return fmt.Errorf("invalid cache TTL: %s", c.CacheTTL)
	}
	return nil
}
