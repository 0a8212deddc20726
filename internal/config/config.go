// Package config содержит логику чтения конфигурации сервиса JuEntregas.
package config

import (
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
)

// Значения по умолчанию для параметров, задаваемых флагами.
const (
	DefaultRunAddress    = "localhost:8080"
	DefaultTrackingDelay = 1500 * time.Millisecond
)

// Config содержит параметры конфигурации сервиса JuEntregas.
type Config struct {
	RunAddress   string   `env:"RUN_ADDRESS"`
	RedisAddress string   `env:"REDIS_ADDRESS"`
	KafkaBrokers []string `env:"KAFKA_BROKERS" envSeparator:","`
	OrdersTopic  string   `env:"ORDERS_TOPIC" envDefault:"juentregas.orders"`
	ClientsTopic string   `env:"CLIENTS_TOPIC" envDefault:"juentregas.clients"`

	TrackingDelay      time.Duration `env:"TRACKING_DELAY"`
	TrackingCacheTTL   time.Duration `env:"TRACKING_CACHE_TTL" envDefault:"5m"`
	TrackingRateLimit  int64         `env:"TRACKING_RATE_LIMIT" envDefault:"30"`
	TrackingRateWindow time.Duration `env:"TRACKING_RATE_WINDOW" envDefault:"1m"`

	TimeZone       string `env:"TIME_ZONE" envDefault:"America/Sao_Paulo"`
	WhatsAppNumber string `env:"WHATSAPP_NUMBER" envDefault:"5521986039803"`
	SeedDemo       bool   `env:"SEED_DEMO"`
}

// Parse считывает конфигурацию из флагов командной строки и переменных окружения.
// Переменные окружения имеют приоритет над флагами.
func Parse() (*Config, error) {
	cfg := &Config{}

	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}

	envCfg := *cfg

	var kafkaBrokers string
	flag.StringVar(&cfg.RunAddress, "a", DefaultRunAddress, "address and port for HTTP server")
	flag.StringVar(&cfg.RedisAddress, "r", "", "redis address for tracking cache and rate limiting")
	flag.StringVar(&kafkaBrokers, "k", "", "comma separated kafka brokers")
	flag.DurationVar(&cfg.TrackingDelay, "t", DefaultTrackingDelay, "artificial tracking lookup delay")
	flag.BoolVar(&cfg.SeedDemo, "s", true, "seed demo client and order at startup")

	flag.Parse()

	cfg.KafkaBrokers = splitList(kafkaBrokers)

	if isSet("RUN_ADDRESS") {
		cfg.RunAddress = envCfg.RunAddress
	}
	if isSet("REDIS_ADDRESS") {
		cfg.RedisAddress = envCfg.RedisAddress
	}
	if isSet("KAFKA_BROKERS") {
		cfg.KafkaBrokers = envCfg.KafkaBrokers
	}
	if isSet("TRACKING_DELAY") {
		cfg.TrackingDelay = envCfg.TrackingDelay
	}
	if isSet("SEED_DEMO") {
		cfg.SeedDemo = envCfg.SeedDemo
	}

	if cfg.RunAddress == "" {
		cfg.RunAddress = DefaultRunAddress
	}
	if cfg.TrackingDelay < 0 {
		return nil, fmt.Errorf("tracking delay must not be negative: %s", cfg.TrackingDelay)
	}

	return cfg, nil
}

func isSet(key string) bool {
	_, ok := os.LookupEnv(key)
	return ok
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
