package main

import (
	"crypto/rand"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

var ErrMissingDatabaseURL = errors.New("DATABASE_URL environment variable is not set")

type MailConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	To       string
	UseTLS   bool
}

// Configured reports whether every setting needed to deliver mail is present.
func (m MailConfig) Configured() bool {
	return m.Host != "" && m.User != "" && m.Password != "" && m.To != ""
}

type Config struct {
	DatabaseURL   string
	Mail          MailConfig
	SessionSecret []byte
	SessionTTL    time.Duration
	Port          int
	Debug         bool
	SecureCookies bool
	FrontendURLs  []string
	AdminUsername string
	AdminPassword string
}

// loadConfig reads .env (if any) and the process environment.
func loadConfig() (Config, error) {
	if err := godotenv.Load(); err != nil {
		slog.Debug("no .env file found")
	}
	return configFromEnv(os.Getenv)
}

func configFromEnv(getenv func(string) string) (Config, error) {
	cfg := Config{
		DatabaseURL:   strings.TrimSpace(getenv("DATABASE_URL")),
		AdminUsername: getenv("ADMIN_USERNAME"),
		AdminPassword: getenv("ADMIN_PASSWORD"),
	}
	if cfg.DatabaseURL == "" {
		return Config{}, ErrMissingDatabaseURL
	}

	var err error
	cfg.Mail = MailConfig{
		Host:     getenv("EMAIL_HOST"),
		User:     getenv("EMAIL_USER"),
		Password: getenv("EMAIL_PASSWORD"),
		To:       getenv("EMAIL_TO"),
	}
	if cfg.Mail.Port, err = intEnv(getenv, "EMAIL_PORT", 587); err != nil {
		return Config{}, err
	}
	if cfg.Mail.UseTLS, err = boolEnv(getenv, "EMAIL_USE_TLS", true); err != nil {
		return Config{}, err
	}
	if cfg.Port, err = intEnv(getenv, "PORT", 8000); err != nil {
		return Config{}, err
	}
	if cfg.Debug, err = boolEnv(getenv, "DEBUG", false); err != nil {
		return Config{}, err
	}
	if cfg.SecureCookies, err = boolEnv(getenv, "SECURE_COOKIES", false); err != nil {
		return Config{}, err
	}

	cfg.SessionTTL = 24 * time.Hour
	if v := getenv("SESSION_TTL"); v != "" {
		if cfg.SessionTTL, err = time.ParseDuration(v); err != nil || cfg.SessionTTL <= 0 {
			return Config{}, fmt.Errorf("SESSION_TTL: invalid duration %q", v)
		}
	}

	if secret := getenv("SESSION_SECRET"); secret != "" {
		cfg.SessionSecret = []byte(secret)
	} else {
		cfg.SessionSecret = make([]byte, 32)
		if _, err := rand.Read(cfg.SessionSecret); err != nil {
			return Config{}, fmt.Errorf("generate session secret: %w", err)
		}
		slog.Warn("SESSION_SECRET not set, using a random secret; admin sessions will not survive a restart")
	}

	for _, key := range []string{"FRONTEND_URL", "FRONTEND_URL2"} {
		if v := strings.TrimSpace(getenv(key)); v != "" {
			cfg.FrontendURLs = append(cfg.FrontendURLs, v)
		}
	}
	return cfg, nil
}

func intEnv(getenv func(string) string, key string, def int) (int, error) {
	v := strings.TrimSpace(getenv(key))
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s: %q is not a number", key, v)
	}
	return n, nil
}

func boolEnv(getenv func(string) string, key string, def bool) (bool, error) {
	v := strings.TrimSpace(getenv(key))
	if v == "" {
		return def, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, fmt.Errorf("%s: %q is not a boolean", key, v)
	}
	return b, nil
}
