package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"os"

	"golang.org/x/text/language"

	"github.com/DevShoesed/amazon-scrape/internal/config"
	"github.com/DevShoesed/amazon-scrape/internal/database"
	"github.com/DevShoesed/amazon-scrape/internal/ratelimit"
	"github.com/DevShoesed/amazon-scrape/internal/scraper"
)

// One-shot scrape of a single ASIN, for cron jobs and manual runs.
func main() {
	asin := flag.String("asin", "", "ASIN of the listing to scrape")
	asJSON := flag.Bool("json", false, "print the stored product as JSON")
	flag.Parse()

	if *asin == "" {
		fmt.Fprintln(os.Stderr, "usage: scrape -asin B0XXXXXXX [-json]")
		os.Exit(2)
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, "failed to load config:", err)
		os.Exit(1)
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))

	ctx := context.Background()

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
		fmt.Fprintln(os.Stderr, "failed to connect to database:", err)
		os.Exit(1)
	}
	defer db.Close()

	if err := db.Migrate(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "failed to run migrations:", err)
		os.Exit(1)
	}

	locale, err := language.Parse(cfg.Scraper.Locale)
	if err != nil {
		fmt.Fprintln(os.Stderr, "invalid locale:", err)
		os.Exit(1)
	}

	fetcher := scraper.NewHTTPFetcher(scraper.FetcherOptions{
		BaseURL:        cfg.Scraper.BaseURL,
		Timeout:        cfg.Scraper.Timeout,
		UserAgents:     cfg.Scraper.UserAgents,
		AcceptLanguage: cfg.Browser.AcceptLanguage,
		Limiter:        ratelimit.New(cfg.Scraper.RateLimitMin, cfg.Scraper.RateLimitMax),
	}, logger)

	service := scraper.NewService(scraper.Deps{
		Fetcher:    fetcher,
		Categories: database.NewCategoryRepo(db),
		Products:   database.NewProductRepo(db),
		Prices:     database.NewPriceRepo(db),
		Locale:     locale,
		Logger:     logger,
	})

	if err := service.Scrape(ctx, *asin); err != nil {
		fmt.Fprintf(os.Stderr, "could not scrape product %s: %v\n", *asin, err)
		os.Exit(1)
	}

	view, err := service.GetProduct(ctx, *asin)
	if err != nil {
		fmt.Fprintln(os.Stderr, "failed to load product:", err)
		os.Exit(1)
	}

	if *asJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		enc.Encode(view)
		return
	}

	fmt.Printf("%s  %s\n", view.Product.ASIN, view.Product.Name)
	fmt.Printf("  categories: %v\n", view.Categories)
	fmt.Printf("  price: %s (history: %d entries)\n", view.CurrentPrice.String(), len(view.History))
}
