package config

import (
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	HTTPAddr             string
	DatabaseURL          string
	CORSAllowedOrigins   []string
	CORSAllowCredentials bool

	JWTSecret string

	// AdminEmails get the admin role assigned when they register.
	AdminEmails []string

	// Sessions are dropped after SessionIdleTimeout without requests and
	// after SessionMaxAge in any case; the role is resolved again afterwards.
	SessionIdleTimeout time.Duration
	SessionMaxAge      time.Duration

	LogLevel       string
	WebhookTimeout time.Duration
	WorkerID       string

	// WebhookAllowPrivate lets webhooks target loopback and private networks.
	WebhookAllowPrivate bool
}

func Load() (Config, error) {
	_ = godotenv.Load()

	cfg := Config{
		HTTPAddr:             getenv("HTTP_ADDR", ":8080"),
		DatabaseURL:          mustGetenv("DATABASE_URL"),
		CORSAllowCredentials: getenv("CORS_ALLOW_CREDENTIALS", "false") == "true",
		CORSAllowedOrigins:   splitList(getenv("CORS_ALLOWED_ORIGINS", "")),
		LogLevel:             getenv("LOG_LEVEL", "info"),
		WorkerID:             getenv("WORKER_ID", "worker-1"),
		WebhookAllowPrivate:  getenv("WEBHOOK_ALLOW_PRIVATE", "false") == "true",
	}

	for _, e := range splitList(getenv("ADMIN_EMAILS", "")) {
		cfg.AdminEmails = append(cfg.AdminEmails, strings.ToLower(e))
	}

	timeout, err := time.ParseDuration(getenv("WEBHOOK_TIMEOUT", "10s"))
	if err != nil {
		return cfg, err
	}
	cfg.WebhookTimeout = timeout

	if cfg.SessionIdleTimeout, err = time.ParseDuration(getenv("SESSION_IDLE_TIMEOUT", "30m")); err != nil {
		return cfg, err
	}
	if cfg.SessionMaxAge, err = time.ParseDuration(getenv("SESSION_MAX_AGE", "12h")); err != nil {
		return cfg, err
	}

	cfg.JWTSecret = mustGetenv("JWT_SECRET")
	return cfg, nil
}

// IsAdminEmail reports whether email is listed in ADMIN_EMAILS.
func (c Config) IsAdminEmail(email string) bool {
	email = strings.ToLower(strings.TrimSpace(email))
	for _, e := range c.AdminEmails {
		if e == email {
			return true
		}
	}
	return false
}

func splitList(raw string) []string {
	var out []string
	for _, v := range strings.Split(raw, ",") {
		v = strings.TrimSpace(v)
		if v != "" {
			out = append(out, v)
		}
	}
	return out
}

func getenv(key, def string) string {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	return v
}

func mustGetenv(key string) string {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		panic("missing env: " + key)
	}
	return v
}
