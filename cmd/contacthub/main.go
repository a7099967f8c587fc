package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"contacthub/internal/auth"
	"contacthub/internal/config"
	"contacthub/internal/contact"
	"contacthub/internal/db"
	httpx "contacthub/internal/http"
	"contacthub/internal/jobs"
	"contacthub/internal/logging"
	"contacthub/internal/role"
	"contacthub/internal/session"
	"contacthub/internal/webhook"

	"go.uber.org/zap"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}

	logger, err := logging.New(cfg.LogLevel)
	if err != nil {
		log.Fatal(err)
	}
	defer func() { _ = logger.Sync() }()

	gdb, err := db.Connect(cfg.DatabaseURL)
	if err != nil {
		logger.Fatal("connect database", zap.Error(err))
	}
	if err := db.AutoMigrateAndIndexes(gdb); err != nil {
		logger.Fatal("migrate database", zap.Error(err))
	}

	jwtSvc := auth.NewJWT(cfg.JWTSecret)

	sessions := session.NewManager(
		&role.Resolver{Lookup: &role.GormLookup{DB: gdb}, Log: logger},
		&contact.GormStore{DB: gdb},
		logger,
	)
	sessions.IdleTimeout = cfg.SessionIdleTimeout
	sessions.MaxAge = cfg.SessionMaxAge

	r := httpx.NewRouter(cfg, gdb, jwtSvc, sessions, logger)

	// webhook delivery worker
	worker := &jobs.Worker{
		ID:       cfg.WorkerID,
		Queue:    &jobs.Repo{DB: gdb},
		Webhooks: webhook.NewClient(cfg.WebhookTimeout, webhook.Targets{AllowPrivate: cfg.WebhookAllowPrivate}, logger),
		Log:      logger,
	}

	ctx, cancel := context.WithCancel(context.Background())
	go worker.Run(ctx)
	go sessions.Run(ctx, time.Minute)

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		logger.Info("listening", zap.String("addr", cfg.HTTPAddr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("http server", zap.Error(err))
		}
	}()

	// graceful shutdown
	ch := make(chan os.Signal, 1)
	signal.Notify(ch, syscall.SIGINT, syscall.SIGTERM)
	<-ch

	cancel()
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	_ = srv.Shutdown(shutdownCtx)
}
