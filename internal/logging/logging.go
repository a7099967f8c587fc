package logging

import (
	"net/url"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// New builds the production JSON logger at the given level ("debug", "info", ...).
func New(level string) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		return nil, err
	}
	cfg.Level = zap.NewAtomicLevelAt(lvl)
	return cfg.Build()
}

// OrNop returns l, or a no-op logger when l is nil.
func OrNop(l *zap.Logger) *zap.Logger {
	if l == nil {
		return zap.NewNop()
	}
	return l
}

// URL logs only the scheme and host of raw. Webhook URLs carry their secret in the path.
func URL(key, raw string) zap.Field {
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return zap.String(key, "####")
	}
	return zap.String(key, u.Scheme+"://"+u.Host+"/####")
}
