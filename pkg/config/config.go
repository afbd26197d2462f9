package config

import (
	"os"
	"strconv"
	"time"
)

type Config struct {
	Port        string
	Env         string
	JWTSecret   string
	JWTTTL      time.Duration
	PostgresURL string
	MongoURI    string

	RedisAddr     string
	RedisPassword string
	RedisDB       int

	FirebaseCredentialsPath string

	LogLevel  string
	LogFormat string

	// WSReadTimeout bounds how long a connection may stay silent before
	// the read pump gives up on it.
	WSReadTimeout time.Duration
}

func Load() *Config {
	return &Config{
		Port:        getEnv("PORT", "8080"),
		Env:         getEnv("ENV", "development"),
		JWTSecret:   getEnv("JWT_SECRET", "supersecretjwtkey"),
		JWTTTL:      getDuration("JWT_TTL", 72*time.Hour),
		PostgresURL: getEnv("POSTGRES_CONN_STR", ""),
		MongoURI:    getEnv("MONGO_URI", ""),

		RedisAddr:     getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       getInt("REDIS_DB", 0),

		FirebaseCredentialsPath: getEnv("FIREBASE_CREDENTIALS_PATH", ""),

		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFormat: getEnv("LOG_FORMAT", "text"),

		WSReadTimeout: getDuration("WS_READ_TIMEOUT", 5*time.Minute),
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return defaultValue
}

func getDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
