package config

import (
	"os"
	"strings"
	"time"
)

type Config struct {
	Port            string
	DatabaseDSN     string
	RabbitURL       string
	RedisAddr       string
	RequestTimeout  time.Duration
	CatalogCacheTTL time.Duration

	// CORS
	CORSAllowOrigins []string
}

func Load() Config {
	return Config{
		Port:            getenv("PORT", "5000"),
		DatabaseDSN:     getenv("BOOKNEST_DB_DSN", ""),
		RabbitURL:       getenv("RABBITMQ_URL", ""),
		RedisAddr:       getenv("REDIS_ADDR", ""),
		RequestTimeout:  parseDuration(getenv("REQUEST_TIMEOUT", "10s"), 10*time.Second),
		CatalogCacheTTL: parseDuration(getenv("CATALOG_CACHE_TTL", "5m"), 5*time.Minute),

		CORSAllowOrigins: splitCSV(getenv("CORS_ALLOW_ORIGINS", "*")),
	}
}

func getenv(k, def string) string {
	if v := os.Getenv(k); strings.TrimSpace(v) != "" {
		return v
	}
	return def
}

func splitCSV(v string) []string {
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	if len(out) == 0 {
		return []string{"*"}
	}
	return out
}

func parseDuration(v string, def time.Duration) time.Duration {
	d, err := time.ParseDuration(v)
	if err != nil {
		return def
	}
	return d
}
