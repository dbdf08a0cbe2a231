// Package config loads the daemon's environment-driven configuration.
package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds every knob the composition root (cmd/authzd) needs to wire
// the core, the cross-cutting shell and the persistence adapters.
type Config struct {
	ListenAddr string

	DBDriver string
	DBDSN    string

	RedisAddr string

	KafkaBrokers []string

	OtlpEndpoint string

	GroupDepthLimit int
	OuDepthLimit    int

	DecisionCacheTTL time.Duration
}

// Load reads Config from the process environment, falling back to
// development-friendly defaults for anything unset.
func Load() Config {
	return Config{
		ListenAddr: getenv("AUTHZ_LISTEN_ADDR", ":8443"),

		DBDriver: getenv("AUTHZ_DB_DRIVER", "sqlite"),
		DBDSN:    getenv("AUTHZ_DB_DSN", "hodei-authz.db"),

		RedisAddr: getenv("AUTHZ_REDIS_ADDR", ""),

		KafkaBrokers: getenvList("AUTHZ_KAFKA_BROKERS", nil),

		OtlpEndpoint: getenv("AUTHZ_OTLP_ENDPOINT", ""),

		GroupDepthLimit: getenvInt("AUTHZ_GROUP_DEPTH_LIMIT", 8),
		OuDepthLimit:    getenvInt("AUTHZ_OU_DEPTH_LIMIT", 5),

		DecisionCacheTTL: getenvDuration("AUTHZ_DECISION_CACHE_TTL", 5*time.Minute),
	}
}

// Snapshot returns a loggable view of the configuration. This service holds
// no API keys or secrets of its own; credentials for Postgres/Redis/Kafka
// live in the DSN/addr strings and are the composition root's concern, not
// logged here.
func (c Config) Snapshot() map[string]any {
	return map[string]any{
		"listenAddr":      c.ListenAddr,
		"dbDriver":        c.DBDriver,
		"groupDepthLimit": c.GroupDepthLimit,
		"ouDepthLimit":    c.OuDepthLimit,
		"cacheTTL":        c.DecisionCacheTTL.String(),
	}
}

func getenv(k, fallback string) string {
	v := strings.TrimSpace(os.Getenv(k))
	if v == "" {
		return fallback
	}
	return v
}

func getenvInt(k string, fallback int) int {
	raw := strings.TrimSpace(os.Getenv(k))
	if raw == "" {
		return fallback
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v < 0 {
		return fallback
	}
	return v
}

func getenvDuration(k string, fallback time.Duration) time.Duration {
	raw := strings.TrimSpace(os.Getenv(k))
	if raw == "" {
		return fallback
	}
	v, err := time.ParseDuration(raw)
	if err != nil || v <= 0 {
		return fallback
	}
	return v
}

func getenvList(k string, fallback []string) []string {
	raw := strings.TrimSpace(os.Getenv(k))
	if raw == "" {
		return fallback
	}
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}
