package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config stores the client configuration. Everything has a workable default
// so a console can start against a local backend with an empty environment.
type Config struct {
	APIBaseURL     string        // REST base, e.g. http://127.0.0.1:8000/api/v1
	EventsURL      string        // push channel endpoint, e.g. ws://127.0.0.1:8000/ws
	APIKey         string        // operator credential sent as X-API-Key
	RequestTimeout time.Duration // per-call HTTP timeout
	ReconnectDelay time.Duration // fixed delay between channel reconnects
	UndoTimeout    time.Duration // grace period for the auto-promotion undo banner
	SessionFile    string        // local session persistence path

	// Redis warm-start cache; empty host disables it.
	RedisHost     string
	RedisPort     string
	RedisPassword string
	RedisDB       int

	LogLevel      string
	LogOutputPath string
}

// getEnv gets an environment variable or returns a default value.
func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

// getEnvInt gets an environment variable as int or returns a default value.
func getEnvInt(key string, fallback int) int {
	if value, exists := os.LookupEnv(key); exists {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return fallback
}

// getEnvDuration gets an environment variable as a duration or returns a
// default value.
func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if value, exists := os.LookupEnv(key); exists {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return fallback
}

// Load loads configuration from environment variables (via .env file) or defaults.
func Load() *Config {
	// godotenv.Load() will not override existing env vars.
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found or error loading .env, relying on existing environment variables and defaults.")
	}

	return &Config{
		APIBaseURL:     getEnv("API_BASE_URL", "http://127.0.0.1:8000/api/v1"),
		EventsURL:      getEnv("EVENTS_URL", "ws://127.0.0.1:8000/ws"),
		APIKey:         os.Getenv("API_KEY"), // no hardcoded default for credentials
		RequestTimeout: getEnvDuration("REQUEST_TIMEOUT", 10*time.Second),
		ReconnectDelay: getEnvDuration("RECONNECT_DELAY", 3*time.Second),
		UndoTimeout:    getEnvDuration("UNDO_TIMEOUT", 15*time.Second),
		SessionFile:    getEnv("SESSION_FILE", ".qrkara_session.json"),
		RedisHost:      getEnv("REDIS_HOST", ""),
		RedisPort:      getEnv("REDIS_PORT", "6379"),
		RedisPassword:  getEnv("REDIS_PASSWORD", ""),
		RedisDB:        getEnvInt("REDIS_DB", 0),
		LogLevel:       getEnv("LOG_LEVEL", "info"),
		LogOutputPath:  getEnv("LOG_OUTPUT", ""),
	}
}
