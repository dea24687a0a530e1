// Package config provides runtime configuration values for the service.
package config

import (
	"time"

	"github.com/kelseyhightower/envconfig"
)

// HTTPConfig holds the listener and shutdown knobs.
type HTTPConfig struct {
	Addr            string        `envconfig:"HTTP_ADDR" default:":5503"`
	ShutdownTimeout time.Duration `envconfig:"SHUTDOWN_TIMEOUT" default:"15s"`
}

// KafkaConfig holds broker connection settings.
type KafkaConfig struct {
	Brokers       []string `envconfig:"KAFKA_BROKERS" default:"localhost:9092"`
	ClientID      string   `envconfig:"KAFKA_CLIENT_ID" default:"order-pricing-service"`
	FromBeginning bool     `envconfig:"KAFKA_FROM_BEGINNING" default:"false"`
}

// RedisConfig holds cache and order store connection settings.
type RedisConfig struct {
	URL          string        `envconfig:"REDIS_URL" default:"redis://localhost:6379/0"`
	DialTimeout  time.Duration `envconfig:"REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"REDIS_READ_TIMEOUT" default:"3s"`
	WriteTimeout time.Duration `envconfig:"REDIS_WRITE_TIMEOUT" default:"3s"`
}

// StripeConfig holds payment gateway credentials.
type StripeConfig struct {
	SecretKey string `envconfig:"STRIPE_SECRET_KEY"`
}

// Config holds all configuration knobs for the service.
type Config struct {
	Environment string `envconfig:"ENVIRONMENT" default:"development"`
	HTTP        HTTPConfig
	Kafka       KafkaConfig
	Redis       RedisConfig
	Stripe      StripeConfig
}

// Load collects configuration from environment with defaults.
func Load() (Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}
