package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"betbridge/internal/converter"
	"betbridge/internal/matcher"
	"betbridge/internal/notify"
	"betbridge/internal/pkg/config"
	"betbridge/internal/pkg/logging"
	"betbridge/internal/pkg/mirror"
	"betbridge/internal/pkg/storage"
	"betbridge/internal/providers"
	"betbridge/internal/providers/bet9ja"
	"betbridge/internal/providers/onexbet"
	"betbridge/internal/providers/providerutil"
	"betbridge/internal/providers/sportybet"
	"betbridge/internal/registry"
	"betbridge/internal/server"
	"betbridge/internal/translator"
)

const defaultConfigPath = "configs/production.yaml"

func main() {
	if err := run(); err != nil {
		slog.Error("betbridge failed", "error", err)
		os.Exit(1)
	}
}

func run() error {
	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()

	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = defaultConfigPath
	}
	flag.StringVar(&configPath, "config", configPath, "path to config file")
	flag.Parse()

	slog.Info("Loading config", "path", configPath)
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	if _, err := logging.SetupLogger(&cfg.Logging, "betbridge"); err != nil {
		slog.Warn("Failed to setup logging, continuing with default logger", "error", err)
	}

	reg, err := registry.Load()
	if err != nil {
		return fmt.Errorf("failed to load alias registry: %w", err)
	}
	m := matcher.New(reg)

	var cache providerutil.SearchCache
	if cfg.Redis.Addr != "" {
		redisCache, err := storage.NewRedisCache(cfg.Redis)
		if err != nil {
			slog.Warn("Redis unavailable, search caching disabled", "error", err)
		} else {
			defer redisCache.Close()
			cache = redisCache
		}
	}

	resolver := mirror.NewResolver(cfg.Providers.Timeout, time.Hour)

	set := providers.NewSet(
		sportybet.New(cfg, reg, m, cache),
		onexbet.New(cfg, reg, m, resolver, cache),
		bet9ja.New(cfg, reg, m, cache),
	)
	slog.Info("Providers configured", "providers", set.Names())

	var recorder storage.Recorder = storage.NoopRecorder{}
	if cfg.Postgres.DSN != "" {
		pg, err := storage.NewPostgresRecorder(cfg.Postgres)
		if err != nil {
			slog.Warn("Postgres unavailable, ticket history disabled", "error", err)
		} else {
			defer pg.Close()
			recorder = pg
		}
	}

	notifier := notify.NewTelegramNotifier(cfg.Telegram.BotToken, cfg.Telegram.ChatID)
	defer notifier.Stop()

	conv := converter.New(set, translator.New(reg), recorder, notifier)
	srv := server.New(cfg.Server, conv)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	errCh := make(chan error, 1)
	go func() { errCh <- srv.Start() }()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	slog.Info("Shutting down...")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}
