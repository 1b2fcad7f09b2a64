package config

import (
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

type Config struct {
	Server ServerConfig
	DB     DBConfig
	Log    LogConfig
	CORS   CORSConfig
	Seed   SeedConfig
}

type ServerConfig struct {
	Port string
	Env  string // development, production
}

type DBConfig struct {
	// URL is a Postgres connection string. The API server runs on the
	// in-memory store when it is empty; the batch runner requires it.
	URL string
}

type LogConfig struct {
	Level string // trace, debug, info, warn, error
}

type CORSConfig struct {
	AllowedOrigins []string
}

// SeedConfig shapes the generated demo dataset.
type SeedConfig struct {
	Patients  int
	Resources int
	DaysAhead int
}

func Load() *Config {
	// Load .env if present; real env vars win.
	_ = godotenv.Load()

	return &Config{
		Server: ServerConfig{
			Port: getEnv("PORT", "8000"),
			Env:  getEnv("ENV", "development"),
		},
		DB: DBConfig{
			URL: getEnv("DATABASE_URL", ""),
		},
		Log: LogConfig{
			Level: getEnv("LOG_LEVEL", "info"),
		},
		CORS: CORSConfig{
			AllowedOrigins: splitOrigins(getEnv("ALLOWED_ORIGINS", "http://localhost:3000")),
		},
		Seed: SeedConfig{
			Patients:  getEnvInt("SEED_PATIENTS", 50),
			Resources: getEnvInt("SEED_RESOURCES", 10),
			DaysAhead: getEnvInt("SEED_DAYS_AHEAD", 30),
		},
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

func splitOrigins(s string) []string {
	var out []string
	for _, origin := range strings.Split(s, ",") {
		if origin = strings.TrimSpace(origin); origin != "" {
			out = append(out, origin)
		}
	}
	return out
}
