package config

import (
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

type Config struct {
	// Environment
	Environment string

	// Server
	Host          string
	Port          string
	AllowedOrigin string

	// Logging
	LogPath string

	// Session liveness
	HeartbeatIntervalSecs int
	ClientTimeoutSecs     int

	// Matchmaking
	MatchmakingIntervalMS   int
	PendingMatchTimeoutSecs int
	DefaultRating           uint32

	// Sessions
	MailboxCapacity int
}

func Load() *Config {
	// Load .env file if it exists
	godotenv.Load()

	return &Config{
		Environment: getEnv("APP_ENV", "development"),

		Host:          getEnv("APP_HOST", "127.0.0.1"),
		Port:          getEnv("APP_PORT", "8080"),
		AllowedOrigin: getEnv("ALLOWED_ORIGIN", "http://localhost:3000"),

		LogPath: getEnv("LOG_PATH", "/server/log/actix.log"),

		HeartbeatIntervalSecs: getEnvInt("HEARTBEAT_INTERVAL_SECONDS", 5),
		ClientTimeoutSecs:     getEnvInt("CLIENT_TIMEOUT_SECONDS", 10),

		MatchmakingIntervalMS:   getEnvInt("MATCHMAKING_INTERVAL_MS", 1000),
		PendingMatchTimeoutSecs: getEnvInt("PENDING_MATCH_TIMEOUT_SECONDS", 30),
		DefaultRating:           uint32(getEnvInt("DEFAULT_RATING", 1000)),

		MailboxCapacity: getEnvInt("MAILBOX_CAPACITY", 100),
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}
