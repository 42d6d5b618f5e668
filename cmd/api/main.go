package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"

	"github.com/bighogz/insider-monitor/internal/config"
	"github.com/bighogz/insider-monitor/internal/dashboard"
	"github.com/bighogz/insider-monitor/internal/logger"
	"github.com/bighogz/insider-monitor/internal/models"
	"github.com/bighogz/insider-monitor/internal/notify"
	"github.com/bighogz/insider-monitor/internal/providers"
	"github.com/bighogz/insider-monitor/internal/snapshot"
	"github.com/bighogz/insider-monitor/internal/telemetry"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "api: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load(os.Getenv("INSIDER_CONFIG"))
	if err != nil {
		return err
	}
	log := logger.Setup(cfg.Log.Level, cfg.Log.Format, os.Stderr).With("run_id", uuid.NewString(), "component", "api")
	slog.SetDefault(log)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := telemetry.Setup(ctx, cfg.Telemetry.Enabled, cfg.Telemetry.Pretty, os.Stderr)
	if err != nil {
		return err
	}
	defer shutdownTracing(context.Background())

	set, err := providers.New(ctx, cfg)
	if err != nil {
		return err
	}
	defer set.Close()

	opts := dashboard.Options{
		LookbackMonths: cfg.Watchlist.LookbackMonths,
		Concurrency:    cfg.Watchlist.Concurrency,
		LatestLimit:    cfg.Recommendations.LatestLimit,
		TopN:           cfg.Recommendations.TopN,
		Logger:         log,
	}
	if set.Universe != nil {
		opts.Universe = set.Universe
	}

	srv := &server{
		store:      snapshot.NewStore(cfg.Output.DataDir),
		builder:    dashboard.New(set.Source, opts),
		sourceName: set.Source.Name(),
		symbols:    cfg.Watchlist.Symbols,
		staticDir:  "static",
		adminKey:   cfg.API.AdminKey,
		debounce:   cfg.API.RefreshDebounce,
		limiter:    newRateLimiter(time.Minute),
		log:        log,
		now:        time.Now,
		baseCtx:    ctx,
	}
	if cfg.Telegram.Enabled {
		tg, err := notify.NewTelegram(cfg.Telegram.BotToken, cfg.Telegram.ChatID)
		if err != nil {
			log.Warn("telegram disabled", "error", err)
		} else {
			srv.onRefreshed = func(ctx context.Context, stocks *models.StocksSnapshot, recs *models.RecommendationsSnapshot) {
				if err := tg.SendSummary(ctx, stocks, recs); err != nil {
					log.Warn("telegram summary not sent", "error", err)
				}
			}
		}
	}

	if !srv.store.Fresh(cfg.API.MaxAge, time.Now()) {
		log.Info("snapshots missing or stale; refreshing in background", "max_age", cfg.API.MaxAge)
		srv.startRefresh()
	}

	httpSrv := &http.Server{
		Addr:              ":" + cfg.API.Port,
		Handler:           srv.routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		log.Info("listening", "addr", httpSrv.Addr, "source", srv.sourceName)
		errCh <- httpSrv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
	case <-ctx.Done():
		log.Info("shutting down")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	srv.wait()
	return nil
}
