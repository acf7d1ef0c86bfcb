package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Server captures process-wide configuration, read once at startup.
type Server struct {
	Addr          string
	DatabaseURL   string
	RedisURL      string
	KafkaBrokers  []string
	JWTSigningKey string
	MinimumAge    int
	CacheTTL      time.Duration
}

// FromEnv builds a Server config from environment variables so main stays lean.
func FromEnv() Server {
	addr := os.Getenv("USERVAULT_ADDR")
	if addr == "" {
		addr = ":8080"
	}

	jwtSigningKey := os.Getenv("USERVAULT_JWT_SIGNING_KEY")
	if jwtSigningKey == "" {
		// Use a default for development - should be overridden in production
		jwtSigningKey = "dev-secret-key-change-in-production"
	}

	minimumAge := 18
	if raw := os.Getenv("USERVAULT_MIN_AGE"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed > 0 {
			minimumAge = parsed
		}
	}

	cacheTTL := 5 * time.Minute
	if raw := os.Getenv("USERVAULT_CACHE_TTL"); raw != "" {
		if parsed, err := time.ParseDuration(raw); err == nil && parsed > 0 {
			cacheTTL = parsed
		}
	}

	var brokers []string
	if raw := os.Getenv("USERVAULT_KAFKA_BROKERS"); raw != "" {
		for _, b := range strings.Split(raw, ",") {
			if b = strings.TrimSpace(b); b != "" {
				brokers = append(brokers, b)
			}
		}
	}

	return Server{
		Addr:          addr,
		DatabaseURL:   os.Getenv("USERVAULT_DATABASE_URL"),
		RedisURL:      os.Getenv("USERVAULT_REDIS_URL"),
		KafkaBrokers:  brokers,
		JWTSigningKey: jwtSigningKey,
		MinimumAge:    minimumAge,
		CacheTTL:      cacheTTL,
	}
}
