package app

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Config holds dev service configuration
type Config struct {
	ServerPort      string
	PublicURL       string
	JWTSecret       string
	TokenTTL        time.Duration
	DBPath          string
	AllowOrigins    []string
	LogLevel        string
	GeneratedSecret bool
}

const defaultAllowOrigins = "http://localhost:5173,http://localhost:3000"

// LoadConfig loads configuration from environment variables
func LoadConfig() (*Config, error) {
	port := getEnv("DEVSVC_PORT", "8000")

	cfg := &Config{
		ServerPort:   port,
		PublicURL:    strings.TrimRight(getEnv("DEVSVC_PUBLIC_URL", "http://localhost:"+port), "/"),
		JWTSecret:    os.Getenv("DEVSVC_JWT_SECRET"),
		TokenTTL:     24 * time.Hour,
		DBPath:       getEnv("DEVSVC_DB_PATH", ":memory:"),
		AllowOrigins: parseOrigins(getEnv("DEVSVC_ALLOW_ORIGINS", defaultAllowOrigins)),
		LogLevel:     getEnv("DEVSVC_LOG_LEVEL", "info"),
	}

	// A random secret means links stop working after a restart, which is
	// fine for an in-memory registry.
	if cfg.JWTSecret == "" {
		cfg.JWTSecret = uuid.NewString()
		cfg.GeneratedSecret = true
	}

	if raw := os.Getenv("DEVSVC_TOKEN_TTL_SEC"); raw != "" {
		secs, err := strconv.Atoi(raw)
		if err != nil || secs <= 0 {
			return nil, fmt.Errorf("DEVSVC_TOKEN_TTL_SEC must be a positive integer, got %q", raw)
		}
		cfg.TokenTTL = time.Duration(secs) * time.Second
	}

	return cfg, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// parseOrigins splits a comma separated origin list, dropping blank entries.
func parseOrigins(raw string) []string {
	var origins []string
	for _, origin := range strings.Split(raw, ",") {
		if origin = strings.TrimSpace(origin); origin != "" {
			origins = append(origins, origin)
		}
	}
	return origins
}
