package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	HTTPAddr     string
	RedisAddr    string
	KafkaBrokers []string
	ServiceName  string

	OrderTopic      string
	DeadLetterTopic string
	ConsumerGroup   string

	// PublishWait bounds the caller-visible publish wait; WriteTimeout is
	// the producer's own deadline and must stay longer.
	PublishWait  time.Duration
	WriteTimeout time.Duration

	BreakerWindow    int
	BreakerThreshold float64
	BreakerCooldown  time.Duration

	ConsumerMaxRetries int
	ConsumerBackoff    time.Duration

	HealthyProbeInterval   time.Duration
	UnhealthyProbeInterval time.Duration
	ProbeTimeout           time.Duration
	ShutdownGrace          time.Duration
}

func Load() Config {
	return Config{
		HTTPAddr:     getenv("HTTP_ADDR", ":8081"),
		RedisAddr:    getenv("REDIS_ADDR", "redis:6379"),
		KafkaBrokers: splitCSV(getenv("KAFKA_BROKERS", "kafka:9092")),
		ServiceName:  getenv("SERVICE_NAME", "order-api"),

		OrderTopic:      getenv("ORDER_TOPIC", "order.events"),
		DeadLetterTopic: getenv("DEAD_LETTER_TOPIC", "order.events.dlt"),
		ConsumerGroup:   getenv("SHIPPING_GROUP", "shipping-svc"),

		PublishWait:  getdur("PUBLISH_WAIT", 3*time.Second),
		WriteTimeout: getdur("WRITE_TIMEOUT", 10*time.Second),

		BreakerWindow:    getint("BREAKER_WINDOW", 10),
		BreakerThreshold: getfloat("BREAKER_THRESHOLD", 0.5),
		BreakerCooldown:  getdur("BREAKER_COOLDOWN", 30*time.Second),

		ConsumerMaxRetries: getint("CONSUMER_MAX_RETRIES", 3),
		ConsumerBackoff:    getdur("CONSUMER_BACKOFF", 200*time.Millisecond),

		HealthyProbeInterval:   getdur("HEALTHY_PROBE_INTERVAL", 30*time.Second),
		UnhealthyProbeInterval: getdur("UNHEALTHY_PROBE_INTERVAL", time.Second),
		ProbeTimeout:           getdur("PROBE_TIMEOUT", 3*time.Second),
		ShutdownGrace:          getdur("SHUTDOWN_GRACE", 5*time.Second),
	}
}

func getenv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func getdur(k string, def time.Duration) time.Duration {
	if v := os.Getenv(k); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}

func getint(k string, def int) int {
	if v := os.Getenv(k); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return def
}

func getfloat(k string, def float64) float64 {
	if v := os.Getenv(k); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return def
}

func splitCSV(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if t := strings.TrimSpace(p); t != "" {
			out = append(out, t)
		}
	}
	return out
}
