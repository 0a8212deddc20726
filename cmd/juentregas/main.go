// Package main запускает HTTP-сервер сервиса JuEntregas.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/mmeshcher/juentregas/internal/broker/kafka"
	"github.com/mmeshcher/juentregas/internal/cache"
	"github.com/mmeshcher/juentregas/internal/cache/rediscache"
	"github.com/mmeshcher/juentregas/internal/config"
	"github.com/mmeshcher/juentregas/internal/handler"
	"github.com/mmeshcher/juentregas/internal/quote"
	"github.com/mmeshcher/juentregas/internal/repository"
	"github.com/mmeshcher/juentregas/internal/seed"
	"github.com/mmeshcher/juentregas/internal/service"
	"github.com/mmeshcher/juentregas/internal/tracking"
)

func main() {
	logger, _ := zap.NewProduction()
	defer logger.Sync()

	sugar := logger.Sugar()

	cfg, err := config.Parse()
	if err != nil {
		sugar.Fatalw("configuration error", "error", err.Error())
	}

	loc, err := time.LoadLocation(cfg.TimeZone)
	if err != nil {
		sugar.Warnw("unknown time zone, using local", "tz", cfg.TimeZone, "error", err.Error())
		loc = time.Local
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	repo := repository.NewMemoryRepository()

	if cfg.SeedDemo {
		ds, err := seed.Demo()
		if err != nil {
			sugar.Fatalw("demo dataset error", "error", err.Error())
		}
		if err := seed.Load(ctx, repo, ds); err != nil {
			sugar.Fatalw("demo dataset load error", "error", err.Error())
		}
		sugar.Infow("demo dataset loaded", "clients", len(ds.Clients), "orders", len(ds.Orders))
	}

	var (
		viewCache cache.BytesCache
		limiter   *rediscache.RateLimiter
	)
	if cfg.RedisAddress != "" {
		rc := rediscache.New(cfg.RedisAddress)
		defer rc.Close()
		if err := rc.Ping(ctx); err != nil {
			sugar.Warnw("redis unavailable, tracking cache will fail open", "addr", cfg.RedisAddress, "error", err.Error())
		}
		viewCache = rc

		limiter = rediscache.NewRateLimiter(cfg.RedisAddress)
		defer limiter.Close()
	}

	resolver := tracking.NewResolver(repo, viewCache, cfg.TrackingCacheTTL, cfg.TrackingDelay, logger)

	opts := service.Options{
		Invalidator:  resolver,
		OrdersTopic:  cfg.OrdersTopic,
		ClientsTopic: cfg.ClientsTopic,
		Location:     loc,
	}
	if len(cfg.KafkaBrokers) > 0 {
		producer := kafka.NewProducer(cfg.KafkaBrokers, logger)
		defer producer.Close()
		opts.Publisher = producer
	}

	svc := service.NewService(repo, logger, opts)
	defer svc.Close()

	rl := handler.RateLimitOptions{
		Limit:  cfg.TrackingRateLimit,
		Window: cfg.TrackingRateWindow,
	}
	if limiter != nil {
		rl.Limiter = limiter
	}

	h := handler.NewHandler(svc, resolver, quote.NewBuilder(cfg.WhatsAppNumber), logger, rl)

	server := &http.Server{
		Addr:    cfg.RunAddress,
		Handler: h.SetupRouter(),
	}

	g, ctx := errgroup.WithContext(ctx)

	// Запуск HTTP-сервера
	g.Go(func() error {
		sugar.Infow("starting juentregas server", "addr", cfg.RunAddress)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})

	// Graceful shutdown при отмене контекста (сигнал или ошибка в другой горутине)
	g.Go(func() error {
		<-ctx.Done()
		sugar.Info("shutting down server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server shutdown error: %w", err)
		}
		sugar.Info("server stopped gracefully")
		return nil
	})

	if err := g.Wait(); err != nil {
		sugar.Fatalw("application terminated with error", "error", err)
	}
}
