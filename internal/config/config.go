package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds runtime configuration parsed from environment variables.
type Config struct {
	HTTPAddr        string
	DBConnString    string
	BackendBaseURL  string
	AssetBaseURL    string
	CORSOrigins     []string
	BackendTimeout  time.Duration
	SessionIdleTTL  time.Duration
	ShutdownTimeout time.Duration
}

// FromEnv builds Config with defaults, overridden by environment variables.
// DB_DSN may be empty, in which case session state is held in memory only.
func FromEnv() Config {
	return Config{
		HTTPAddr:        envOrDefault("HTTP_ADDR", ":8081"),
		DBConnString:    envOrDefault("DB_DSN", ""),
		BackendBaseURL:  envOrDefault("BACKEND_BASE_URL", "http://localhost:8080"),
		AssetBaseURL:    envOrDefault("ASSET_BASE_URL", envOrDefault("BACKEND_BASE_URL", "http://localhost:8080")),
		CORSOrigins:     envList("CORS_ORIGINS", []string{"http://localhost:5173"}),
		BackendTimeout:  envDuration("BACKEND_TIMEOUT_SECONDS", 15*time.Second),
		SessionIdleTTL:  envDuration("SESSION_IDLE_TTL_SECONDS", 12*time.Hour),
		ShutdownTimeout: envDuration("SHUTDOWN_TIMEOUT_SECONDS", 10*time.Second),
	}
}

func envOrDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envDuration(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		seconds, err := strconv.Atoi(v)
		if err == nil {
			return time.Duration(seconds) * time.Second
		}
	}
	return def
}

func envList(key string, def []string) []string {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	if len(out) == 0 {
		return def
	}
	return out
}
