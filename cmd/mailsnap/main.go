package main

import (
	"log"
	"log/slog"
	"net/http"
	"time"

	"mailsnap/internal/app"
	"mailsnap/internal/config"
	"mailsnap/internal/ratelimit"
	"mailsnap/internal/server"
	"mailsnap/internal/util"
	"mailsnap/pkg/events"
	"mailsnap/pkg/storage"
	"mailsnap/pkg/store"
)

func main() {
	cfg, err := config.Load(config.ConfigPath)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger := util.InitLogger(cfg.LogLevel)

	st, err := store.NewGormStore(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("failed to init store: %v", err)
	}

	var counts *store.CountCache
	if cfg.RedisAddr != "" {
		ttl := time.Duration(cfg.CountCacheTTLSeconds) * time.Second
		counts = store.NewCountCache(cfg.RedisAddr, cfg.RedisPassword, st, ttl)
		if err := counts.Ping(); err != nil {
			log.Fatalf("failed to reach redis: %v", err)
		}
	}

	var archive storage.SnapshotArchive
	if cfg.MinioEndpoint != "" {
		minioArchive, err := storage.NewMinioArchive(cfg.MinioEndpoint, cfg.MinioAccessKey,
			cfg.MinioSecretKey, cfg.MinioBucket, cfg.MinioUseSSL)
		if err != nil {
			log.Fatalf("failed to init snapshot archive: %v", err)
		}
		archive = minioArchive
	}

	var publisher app.EventPublisher
	if cfg.RedisAddr != "" && cfg.EventStream != "" {
		redisPublisher, err := events.NewRedisPublisher(cfg.RedisAddr, cfg.RedisPassword,
			cfg.EventStream, cfg.EventStreamMaxLen)
		if err != nil {
			log.Fatalf("failed to init event publisher: %v", err)
		}
		publisher = redisPublisher
	}

	appCore := app.New(app.Config{
		Store:   st,
		Archive: archive,
		Events:  publisher,
		Counts:  counts,
	})

	var limiter *ratelimit.Limiter
	if cfg.UploadRateLimit > 0 && cfg.RedisAddr != "" {
		window := time.Duration(cfg.UploadRateWindowSeconds) * time.Second
		limiter, err = ratelimit.NewRedisLimiter(cfg.RedisAddr, cfg.RedisPassword,
			"", cfg.UploadRateLimit, window)
		if err != nil {
			log.Fatalf("failed to init rate limiter: %v", err)
		}
	}

	trusted, err := util.NewTrustedProxies(cfg.TrustedProxies)
	if err != nil {
		log.Fatalf("invalid trustedProxies: %v", err)
	}

	httpServer := server.New(server.Config{
		App:            appCore,
		MaxUploadBytes: cfg.MaxUploadBytes,
		UploadLimiter:  limiter,
		TrustedProxies: trusted,
	})

	addr := ":" + cfg.Port
	srv := &http.Server{
		Addr:         addr,
		Handler:      httpServer.Router(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	slog.Info("mailsnap server listening", "addr", addr)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error("server error", "err", err)
	}
}
