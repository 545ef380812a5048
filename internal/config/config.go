package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	FlightsFile        string
	HTTPAddr           string
	RedisAddr          string
	RabbitURL          string
	OTLPEndpoint       string
	LogLevel           string
	IdempotencyTTL     time.Duration
	OutboxInterval     time.Duration
	OutboxCapacity     int
	RateLimitPerMinute int
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	return &Config{
		FlightsFile:        getenv("FLIGHTS_FILE", "flights.txt"),
		HTTPAddr:           getenv("HTTP_ADDR", ":8080"),
		RedisAddr:          os.Getenv("REDIS_ADDR"),
		RabbitURL:          os.Getenv("RABBIT_URL"),
		OTLPEndpoint:       os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT"),
		LogLevel:           getenv("LOG_LEVEL", "info"),
		IdempotencyTTL:     duration("IDEMPOTENCY_TTL", time.Hour),
		OutboxInterval:     duration("OUTBOX_INTERVAL", 5*time.Second),
		OutboxCapacity:     integer("OUTBOX_CAPACITY", 1024),
		RateLimitPerMinute: integer("RATE_LIMIT_PER_MINUTE", 100),
	}, nil
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func duration(key string, def time.Duration) time.Duration {
	d, _ := time.ParseDuration(os.Getenv(key))
	if d <= 0 {
		return def
	}
	return d
}

func integer(key string, def int) int {
	n, err := strconv.Atoi(os.Getenv(key))
	if err != nil || n <= 0 {
		return def
	}
	return n
}
