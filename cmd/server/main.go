package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/redis/go-redis/v9"
	"golang.org/x/text/language"

	"github.com/DevShoesed/amazon-scrape/internal/api"
	"github.com/DevShoesed/amazon-scrape/internal/browser"
	"github.com/DevShoesed/amazon-scrape/internal/config"
	"github.com/DevShoesed/amazon-scrape/internal/database"
	"github.com/DevShoesed/amazon-scrape/internal/ratelimit"
	"github.com/DevShoesed/amazon-scrape/internal/scheduler"
	"github.com/DevShoesed/amazon-scrape/internal/scraper"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := newLogger(cfg.Logging)
	slog.SetDefault(logger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	db, err := database.New(ctx, database.Config{
		Host:     cfg.Database.Host,
		Port:     cfg.Database.Port,
		User:     cfg.Database.User,
		Password: cfg.Database.Password,
		Database: cfg.Database.Name,
		SSLMode:  cfg.Database.SSLMode,
		MaxConns: cfg.Database.MaxConns,
	})
	if err != nil {
		logger.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	if err := db.Migrate(ctx); err != nil {
		logger.Error("failed to run migrations", "error", err)
		os.Exit(1)
	}

	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	defer redisClient.Close()

	if err := redisClient.Ping(ctx).Err(); err != nil {
		logger.Error("failed to connect to redis", "error", err)
		os.Exit(1)
	}

	fetcher, cleanup, err := newFetcher(cfg, logger)
	if err != nil {
		logger.Error("failed to initialize fetcher", "error", err)
		os.Exit(1)
	}
	defer cleanup()

	locale, err := language.Parse(cfg.Scraper.Locale)
	if err != nil {
		logger.Error("invalid scraper locale", "locale", cfg.Scraper.Locale, "error", err)
		os.Exit(1)
	}

	service := scraper.NewService(scraper.Deps{
		Fetcher:    fetcher,
		Categories: database.NewCategoryRepo(db),
		Products:   database.NewProductRepo(db),
		Prices:     database.NewPriceRepo(db),
		Locale:     locale,
		Locker:     scraper.NewScrapeLock(redisClient, cfg.Scraper.LockTTL),
		Logger:     logger,
	})

	if cfg.Refresher.Enabled {
		refresher := scheduler.NewRefresher(service, scheduler.Options{
			Spec:         cfg.Refresher.Spec,
			PauseBetween: cfg.Refresher.PauseBetween,
		}, logger)
		if err := refresher.Start(ctx); err != nil {
			logger.Error("failed to start price refresher", "error", err)
			os.Exit(1)
		}
		defer refresher.Stop()
	}

	handlers := api.NewHandlers(service, logger)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"http://localhost:*", "https://localhost:*"},
		AllowedMethods:   []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if err := db.Ping(r.Context()); err != nil {
			w.WriteHeader(http.StatusServiceUnavailable)
			fmt.Fprint(w, `{"status":"error","message":"database unreachable"}`)
			return
		}
		fmt.Fprint(w, `{"status":"ok"}`)
	})

	r.Route("/api/v1", handlers.Routes)

	server := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
		<-sigChan

		logger.Info("shutting down server...")
		cancel()

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer shutdownCancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("server shutdown failed", "error", err)
		}
	}()

	logger.Info("server starting", "addr", server.Addr, "fetch_mode", cfg.Scraper.FetchMode)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error("server failed", "error", err)
		os.Exit(1)
	}

	logger.Info("server stopped")
}

func newLogger(cfg config.LoggingConfig) *slog.Logger {
	var level slog.Level
	if err := level.UnmarshalText([]byte(cfg.Level)); err != nil {
		level = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: level}
	if cfg.Format == "text" {
		return slog.New(slog.NewTextHandler(os.Stdout, opts))
	}
	return slog.New(slog.NewJSONHandler(os.Stdout, opts))
}

func newFetcher(cfg *config.Config, logger *slog.Logger) (scraper.Fetcher, func(), error) {
	if cfg.Scraper.FetchMode == config.FetchModeBrowser {
		b, err := browser.New(&browser.Options{
			BaseURL:        cfg.Scraper.BaseURL,
			Headless:       cfg.Browser.Headless,
			Timeout:        cfg.Browser.Timeout,
			ViewportWidth:  cfg.Browser.ViewportWidth,
			ViewportHeight: cfg.Browser.ViewportHeight,
			AcceptLanguage: cfg.Browser.AcceptLanguage,
			TimezoneID:     cfg.Browser.TimezoneID,
			Locale:         cfg.Browser.Locale,
			ProxyServer:    cfg.Browser.ProxyServer,
			MaxRetries:     cfg.Browser.MaxRetries,
			UserAgent:      cfg.Scraper.UserAgents[0],
		}, logger)
		if err != nil {
			return nil, nil, err
		}
		return b, func() { b.Close() }, nil
	}

	f := scraper.NewHTTPFetcher(scraper.FetcherOptions{
		BaseURL:        cfg.Scraper.BaseURL,
		Timeout:        cfg.Scraper.Timeout,
		UserAgents:     cfg.Scraper.UserAgents,
		AcceptLanguage: cfg.Browser.AcceptLanguage,
		Limiter:        ratelimit.New(cfg.Scraper.RateLimitMin, cfg.Scraper.RateLimitMax),
	}, logger)
	return f, func() {}, nil
}
