package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Runtime holds process settings read from the environment.
type Runtime struct {
	Env       string // development, production
	LogLevel  string
	LogFormat string // json | console

	// Storage
	StoreBackend  string // memory | postgres
	PostgresDSN   string
	ClickHouseDSN string

	// Server
	HTTPAddr        string
	ShutdownTimeout time.Duration

	// Engine
	EngineConfigPath string // optional YAML file
	Parallelism      int
}

// LoadRuntime reads the runtime settings. An optional .env file in the
// working directory is loaded first; variables already set take precedence.
func LoadRuntime() (*Runtime, error) {
	loadEnvFile(".env")

	rt := &Runtime{
		Env:              getEnv("POP_ENV", "development"),
		LogLevel:         getEnv("LOG_LEVEL", "info"),
		LogFormat:        getEnv("LOG_FORMAT", "console"),
		StoreBackend:     getEnv("STORE_BACKEND", "memory"),
		PostgresDSN:      getEnv("POSTGRES_DSN", ""),
		ClickHouseDSN:    getEnv("CLICKHOUSE_DSN", ""),
		HTTPAddr:         getEnv("HTTP_ADDR", ":8080"),
		ShutdownTimeout:  getEnvAsDuration("SHUTDOWN_TIMEOUT", "10s"),
		EngineConfigPath: getEnv("ENGINE_CONFIG", ""),
		Parallelism:      getEnvAsInt("PARALLELISM", 4),
	}

	if err := rt.validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return rt, nil
}

func (r *Runtime) validate() error {
	switch r.StoreBackend {
	case "memory":
	case "postgres":
		if r.PostgresDSN == "" {
			return fmt.Errorf("POSTGRES_DSN is required for postgres backend")
		}
	default:
		return fmt.Errorf("STORE_BACKEND must be one of: memory, postgres")
	}
	if r.Parallelism <= 0 {
		return fmt.Errorf("PARALLELISM must be positive")
	}
	return nil
}

func loadEnvFile(path string) {
	if _, err := os.Stat(path); err == nil {
		_ = godotenv.Load(path)
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsDuration(key, defaultValue string) time.Duration {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		valueStr = defaultValue
	}
	d, err := time.ParseDuration(valueStr)
	if err != nil {
		d, _ = time.ParseDuration(defaultValue)
	}
	return d
}
