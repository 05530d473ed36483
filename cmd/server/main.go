package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/baxromumarov/review-monitor/internal/api"
	"github.com/baxromumarov/review-monitor/internal/config"
	"github.com/baxromumarov/review-monitor/internal/core"
	"github.com/baxromumarov/review-monitor/internal/httpx"
	"github.com/baxromumarov/review-monitor/internal/notify"
	"github.com/baxromumarov/review-monitor/internal/scraper"
	"github.com/baxromumarov/review-monitor/internal/store"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	initLogger(os.Stdout, cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	state, closeState, err := openState(ctx, cfg)
	if err != nil {
		slog.Error("failed to open state store", "backend", cfg.StateBackend, "error", err)
		os.Exit(1)
	}
	defer closeState()

	rules := scraper.DefaultRules()
	for i, expr := range cfg.NoisePatterns {
		rule, err := scraper.Pattern(fmt.Sprintf("custom-%d", i+1), expr, "")
		if err != nil {
			slog.Error("invalid noise pattern", "pattern", expr, "error", err)
			os.Exit(1)
		}
		rules = append(rules, rule)
	}

	extractor, err := scraper.NewReviewExtractor(cfg.CounterSelector, cfg.DetailSelector)
	if err != nil {
		slog.Error("invalid selector", "error", err)
		os.Exit(1)
	}

	fetcher := httpx.NewCollyFetcher(cfg.UserAgent, cfg.FetchTimeout)
	if target, err := url.Parse(cfg.TargetURL); err == nil {
		fetcher.SetHostLimit(target.Hostname(), cfg.FetchRate, cfg.FetchBurst)
	}

	monitor := core.NewMonitor(
		cfg.TargetURL,
		fetcher,
		scraper.NewRuleNormalizer(rules...),
		extractor,
		core.NewChangeDetector(state, cfg.StateKey),
		notify.NewComposer(cfg.TargetURL),
		notify.NewSMTPSender(notify.SmtpConfig{
			Server:   cfg.SMTPHost,
			Port:     cfg.SMTPPort,
			Username: cfg.SMTPUsername,
			Password: cfg.SMTPPassword,
		}),
		notify.Envelope{
			Subject:     cfg.MailSubject,
			FromName:    cfg.MailFromName,
			FromAddress: cfg.MailFromAddress,
			To:          cfg.MailTo,
			Cc:          cfg.MailCc,
		},
	)

	scheduler := core.NewSchedulerService(monitor, cfg.PollInterval)
	scheduler.Start(ctx)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           api.NewServer(scheduler).Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			slog.Error("server shutdown failed", "error", err)
		}
	}()

	slog.Info("starting server", "port", cfg.Port, "target", cfg.TargetURL, "state_backend", cfg.StateBackend)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		slog.Error("server failed", "error", err)
		os.Exit(1)
	}
	slog.Info("shutdown complete")
}

func initLogger(w io.Writer, level slog.Level) {
	handler := slog.NewJSONHandler(w, &slog.HandlerOptions{
		Level: level,
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			switch a.Key {
			case slog.TimeKey:
				a.Key = "timestamp"
			case slog.LevelKey:
				a.Key = "level"
			case slog.MessageKey:
				a.Key = "message"
			}
			return a
		},
	})
	slog.SetDefault(slog.New(handler))
}

func openState(ctx context.Context, cfg *config.Config) (store.StateStore, func(), error) {
	switch cfg.StateBackend {
	case "postgres", "sqlite":
		db, err := store.NewStore(cfg.StateBackend, cfg.DatabaseURL)
		if err != nil {
			return nil, nil, err
		}
		if err := db.EnsureSchema(ctx); err != nil {
			db.Close()
			return nil, nil, err
		}
		return db, func() { db.Close() }, nil
	case "redis":
		rdb := store.NewRedisStore(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		if err := rdb.Ping(ctx); err != nil {
			rdb.Close()
			return nil, nil, err
		}
		return rdb, func() { rdb.Close() }, nil
	default:
		return store.NewFileStore(cfg.StateDir), func() {}, nil
	}
}
