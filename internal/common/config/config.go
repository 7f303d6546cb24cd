package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	commonerrors "github.com/androidmontreal/rhok-server/internal/common/errors"
)

type AccountsConfig struct {
	HTTPPort            string
	DatabaseURL         string
	SessionTimeout      time.Duration
	UnconfirmedMaxAge   time.Duration
	ResetTokenTTL       time.Duration
	RequestTimeout      time.Duration
	MaxRequestBodyBytes int64
}

func LoadAccountsConfig() (AccountsConfig, error) {
	databaseURL, err := mustEnv("DATABASE_URL")
	if err != nil {
		return AccountsConfig{}, err
	}

	return AccountsConfig{
		HTTPPort:            getEnv("ACCOUNTS_HTTP_PORT", "8080"),
		DatabaseURL:         databaseURL,
		SessionTimeout:      getDurationEnv("ACCOUNTS_SESSION_TIMEOUT", time.Hour),
		UnconfirmedMaxAge:   getDurationEnv("ACCOUNTS_UNCONFIRMED_MAX_AGE", 7*24*time.Hour),
		ResetTokenTTL:       getDurationEnv("ACCOUNTS_RESET_TOKEN_TTL", 30*time.Minute),
		RequestTimeout:      getDurationEnv("ACCOUNTS_REQUEST_TIMEOUT", 5*time.Second),
		MaxRequestBodyBytes: getInt64Env("ACCOUNTS_MAX_REQUEST_BODY", 1<<20),
	}, nil
}

func getEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok {
		return v
	}
	return fallback
}

func mustEnv(key string) (string, error) {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return "", fmt.Errorf("%w: %s", commonerrors.ErrMissingRequiredEnv, key)
	}
	return v, nil
}

func getDurationEnv(key string, fallback time.Duration) time.Duration {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fallback
	}
	return d
}

func getInt64Env(key string, fallback int64) int64 {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return fallback
	}
	i, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return fallback
	}
	return i
}
