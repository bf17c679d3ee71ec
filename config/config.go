package config

import (
	"fmt"
	"os"
	"strconv"
)

type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Redis    RedisConfig
	CORS     CORSConfig
	Model    ModelConfig
}

type ServerConfig struct {
	Port int
}

// DatabaseConfig selects the backing store. If URL is set it is used as a
// postgres DSN; otherwise a local SQLite file at SQLitePath is used.
type DatabaseConfig struct {
	URL        string
	SQLitePath string
}

func (d DatabaseConfig) UsePostgres() bool {
	return d.URL != ""
}

// RedisConfig holds the optional redis connection URL. An empty URL disables
// caching and the live prediction stream.
type RedisConfig struct {
	URL string
}

type CORSConfig struct {
	AllowedOrigins string
}

// ModelConfig points at the directory holding the scoring artifact.
type ModelConfig struct {
	Path string
}

func LoadConfig() (*Config, error) {
	serverPort, err := getIntEnv("SERVER_PORT", 5000)
	if err != nil {
		return nil, fmt.Errorf("invalid SERVER_PORT: %w", err)
	}

	cfg := &Config{
		Server: ServerConfig{
			Port: serverPort,
		},
		Database: DatabaseConfig{
			URL:        getEnv("DATABASE_URL", ""),
			SQLitePath: getEnv("SQLITE_PATH", "predictions.db"),
		},
		Redis: RedisConfig{
			URL: getEnv("REDIS_URL", ""),
		},
		CORS: CORSConfig{
			AllowedOrigins: getEnv("CORS_ALLOWED_ORIGINS", "*"),
		},
		Model: ModelConfig{
			Path: getEnv("MODEL_PATH", "model"),
		},
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	return value
}

func getIntEnv(key string, fallback int) (int, error) {
	value := os.Getenv(key)
	if value == "" {
		return fallback, nil
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return 0, err
	}
	return parsed, nil
}
