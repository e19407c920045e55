package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

type Config struct {
	App struct {
		Env         string
		Port        string
		LogLevel    logrus.Level
		CORSOrigins []string
	}
	DB struct {
		Driver       string // sqlite or postgres
		DSN          string
		MaxOpenConns int
	}
}

// Load reads configuration from the environment. A .env file in the working
// directory is loaded first if present; variables already set win over it.
func Load() (*Config, error) {
	// Missing .env is fine, production sets variables directly.
	_ = godotenv.Load()

	cfg := &Config{}
	cfg.App.Env = getEnv("APP_ENV", "development")
	cfg.App.Port = getEnv("PORT", "8081")

	level, err := logrus.ParseLevel(getEnv("LOG_LEVEL", "info"))
	if err != nil {
		return nil, fmt.Errorf("invalid LOG_LEVEL: %w", err)
	}
	cfg.App.LogLevel = level

	for _, origin := range strings.Split(getEnv("CORS_ORIGINS", "*"), ",") {
		if origin = strings.TrimSpace(origin); origin != "" {
			cfg.App.CORSOrigins = append(cfg.App.CORSOrigins, origin)
		}
	}

	cfg.DB.Driver = getEnv("DB_DRIVER", "sqlite")
	if cfg.DB.Driver != "sqlite" && cfg.DB.Driver != "postgres" {
		return nil, fmt.Errorf("invalid DB_DRIVER %q: expected sqlite or postgres", cfg.DB.Driver)
	}
	cfg.DB.DSN = getEnv("DB_DSN", "tournament.db")

	cfg.DB.MaxOpenConns, err = getEnvAsInt("DB_MAX_OPEN_CONNS", 0)
	if err != nil {
		return nil, fmt.Errorf("invalid DB_MAX_OPEN_CONNS: %w", err)
	}
	return cfg, nil
}

// IsDevelopment reports whether SQL statements should be logged.
func (c *Config) IsDevelopment() bool {
	return c.App.Env == "development"
}

// Helper function to get an environment variable or return a default value.
// An empty variable counts as unset.
func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists && value != "" {
		return value
	}
	return fallback
}

// Helper function to get an environment variable as an integer or return a default value.
func getEnvAsInt(key string, fallback int) (int, error) {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return fallback, nil
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return fallback, fmt.Errorf("env var %s: expected integer, got '%s'", key, valueStr)
	}
	return value, nil
}
