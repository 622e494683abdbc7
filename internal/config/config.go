package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

// Config holds all runtime configuration, loaded from the environment.
type Config struct {
	Port      string
	MongoURI  string
	DBName    string
	JWTSecret string

	TokenExpiry time.Duration

	// CalendarTimeout bounds every external calendar feed fetch.
	CalendarTimeout time.Duration

	// AllowReRequest controls whether a rejected friend request may be sent
	// again. When false the rejection is final.
	AllowReRequest bool
}

// LoadConfig reads configuration from .env (if present) and the environment.
func LoadConfig() *Config {
	if err := godotenv.Load(); err != nil {
		logrus.Info("No .env file found, relying on environment variables")
	}

	return &Config{
		Port:            getEnv("PORT", "8080"),
		MongoURI:        getEnv("MONGO_URI", "mongodb://localhost:27017"),
		DBName:          getEnv("DB_NAME", "meetsync"),
		JWTSecret:       getEnv("JWT_SECRET", ""),
		TokenExpiry:     getDurationEnv("TOKEN_EXPIRY", 24*time.Hour),
		CalendarTimeout: getDurationEnv("CALENDAR_TIMEOUT", 5*time.Second),
		AllowReRequest:  getBoolEnv("FRIEND_ALLOW_REREQUEST", true),
	}
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getDurationEnv(key string, fallback time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := time.ParseDuration(value)
	if err != nil {
		logrus.WithField(key, value).Warn("Invalid duration, using default")
		return fallback
	}
	return parsed
}

func getBoolEnv(key string, fallback bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		logrus.WithField(key, value).Warn("Invalid boolean, using default")
		return fallback
	}
	return parsed
}
