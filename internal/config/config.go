package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/sirupsen/logrus"
)

// Config holds the token and signing settings read from the environment.
type Config struct {
	JWTSecret   []byte
	JWTIssuer   string
	JWTAudience string

	AccessTokenTTL          time.Duration
	RefreshTokenTTL         time.Duration
	RefreshTokenRememberTTL time.Duration

	MaxTokensPerUser    int
	MaxTokensSystemUser int
	TokenRetention      time.Duration
}

// Load reads the configuration from environment variables with defaults.
func Load() *Config {
	secret := []byte(os.Getenv("JWT_SECRET"))
	if len(secret) == 0 {
		secret = []byte("default-secret-key-change-in-production")
		logrus.Warn("JWT_SECRET not set, using default secret")
	}

	cfg := &Config{
		JWTSecret:   secret,
		JWTIssuer:   getEnv("JWT_ISSUER", "modaliv-backend"),
		JWTAudience: getEnv("JWT_AUDIENCE", "modaliv-storefront"),

		AccessTokenTTL:          time.Duration(getEnvAsInt("ACCESS_TOKEN_MINUTES", 15)) * time.Minute,
		RefreshTokenTTL:         time.Duration(getEnvAsInt("REFRESH_TOKEN_DAYS", 7)) * 24 * time.Hour,
		RefreshTokenRememberTTL: time.Duration(getEnvAsInt("REFRESH_TOKEN_REMEMBER_DAYS", 30)) * 24 * time.Hour,

		MaxTokensPerUser:    getEnvAsInt("MAX_TOKENS_PER_USER", 5),
		MaxTokensSystemUser: getEnvAsInt("MAX_TOKENS_SYSTEM_USER", 20),
		TokenRetention:      time.Duration(getEnvAsInt("TOKEN_RETENTION_DAYS", 14)) * 24 * time.Hour,
	}

	logrus.Infof("Access token TTL: %s", cfg.AccessTokenTTL)
	logrus.Infof("Refresh token TTL: %s (remember me: %s)", cfg.RefreshTokenTTL, cfg.RefreshTokenRememberTTL)

	return cfg
}

func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, fmt.Sprintf("%d", defaultValue))
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}
