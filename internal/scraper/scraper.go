package scraper

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/PuerkitoBio/goquery"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"golang.org/x/text/language"

	"github.com/DevShoesed/amazon-scrape/internal/catalog"
	"github.com/DevShoesed/amazon-scrape/internal/parser"
)

var (
	ErrNameNotFound       = errors.New("name not found")
	ErrCategoriesNotFound = errors.New("categories not found")
	ErrPriceNotFound      = errors.New("price not found")
	ErrZeroPrice          = errors.New("zero price")
	ErrProductNotFound    = errors.New("product not found")
)

// Fetcher retrieves and parses the listing page for an ASIN.
type Fetcher interface {
	Fetch(ctx context.Context, asin string) (*goquery.Document, error)
}

// Locker serializes scrapes of the same ASIN. Acquire returns a release
// func on success.
type Locker interface {
	Acquire(ctx context.Context, asin string) (func(), error)
}

// Deps carries the collaborators of a Service. Locker is optional.
type Deps struct {
	Fetcher    Fetcher
	Categories catalog.CategoryStore
	Products   catalog.ProductStore
	Prices     catalog.PriceStore
	Locale     language.Tag
	Locker     Locker
	Logger     *slog.Logger
}

// Service sequences extraction, price parsing, category resolution,
// product upsert and price recording for one ASIN at a time.
type Service struct {
	fetcher  Fetcher
	products catalog.ProductStore
	prices   catalog.PriceStore
	resolver *catalog.HierarchyResolver
	tracker  *catalog.PriceTracker
	locale   language.Tag
	locker   Locker
	logger   *slog.Logger
}

func NewService(d Deps) *Service {
	locale := d.Locale
	if locale == language.Und {
		locale = language.Italian
	}
	return &Service{
		fetcher:  d.Fetcher,
		products: d.Products,
		prices:   d.Prices,
		resolver: catalog.NewHierarchyResolver(d.Categories, d.Logger),
		tracker:  catalog.NewPriceTracker(d.Prices, d.Logger),
		locale:   locale,
		locker:   d.Locker,
		logger:   d.Logger.With("component", "scraper"),
	}
}

// Scrape ingests the listing page for asin and persists what it finds.
// Every precondition is hard: the first failure aborts the run before any
// product or price write. Category rows created by an aborted run are left
// in place.
func (s *Service) Scrape(ctx context.Context, asin string) error {
	logger := s.logger.With("asin", asin, "run_id", uuid.New().String())

	if s.locker != nil {
		release, err := s.locker.Acquire(ctx, asin)
		if err != nil {
			return fmt.Errorf("acquire scrape lock for %s: %w", asin, err)
		}
		defer release()
	}

	doc, err := s.fetcher.Fetch(ctx, asin)
	if err != nil {
		logger.Error("failed to fetch product page", "error", err)
		return fmt.Errorf("fetch %s: %w", asin, err)
	}

	name, ok := parser.ExtractName(doc)
	if !ok {
		logger.Error("impossible to scrape product", "reason", "name not found")
		return ErrNameNotFound
	}

	categories := parser.ExtractCategories(doc)
	if len(categories) == 0 {
		logger.Error("impossible to scrape product", "reason", "categories not found")
		return ErrCategoriesNotFound
	}

	raw, ok := parser.ExtractPrice(doc)
	if !ok {
		logger.Error("impossible to scrape product", "reason", "price not found")
		return ErrPriceNotFound
	}

	amount, err := parser.ParsePrice(raw, s.locale)
	if err != nil {
		logger.Error("impossible to scrape product", "reason", "price not parseable", "raw", raw, "error", err)
		return fmt.Errorf("%w: %v", ErrPriceNotFound, err)
	}
	if amount.IsZero() {
		// Listings never legitimately show a zero price.
		logger.Error("impossible to scrape product", "reason", "zero price")
		return fmt.Errorf("%w: %v", ErrPriceNotFound, ErrZeroPrice)
	}

	// Extracted but not persisted; reserved for a future image store.
	images := parser.ExtractImages(doc)

	categoryID, err := s.resolver.ResolveChain(ctx, categories)
	if err != nil {
		logger.Error("failed to resolve category chain", "error", err)
		return fmt.Errorf("resolve categories for %s: %w", asin, err)
	}

	product := &catalog.Product{ASIN: asin, Name: name, CategoryID: categoryID}
	if err := s.products.Upsert(ctx, product); err != nil {
		logger.Error("failed to store product", "error", err)
		return fmt.Errorf("store product %s: %w", asin, err)
	}

	price, changed, err := s.tracker.RecordPrice(ctx, asin, amount)
	if err != nil {
		logger.Error("failed to record price", "error", err)
		return fmt.Errorf("record price for %s: %w", asin, err)
	}

	logger.Info("product scraped",
		"name", name,
		"category_id", categoryID,
		"price", price.Amount.String(),
		"price_changed", changed,
		"images", len(images),
	)
	return nil
}

// ProductView is a product joined with its category chain (leaf to root)
// and price data.
type ProductView struct {
	Product      catalog.Product
	Categories   []string
	CurrentPrice decimal.Decimal
	History      []catalog.Price
}

// GetProduct returns a product with its ancestor chain and full price
// history. ErrProductNotFound when the ASIN is unknown.
func (s *Service) GetProduct(ctx context.Context, asin string) (*ProductView, error) {
	p, err := s.products.ByASIN(ctx, asin)
	if err != nil {
		return nil, fmt.Errorf("get product %s: %w", asin, err)
	}
	if p == nil {
		return nil, fmt.Errorf("%w: %s", ErrProductNotFound, asin)
	}

	chain, err := s.resolver.AncestorChain(ctx, p.CategoryID)
	if err != nil {
		return nil, fmt.Errorf("resolve ancestors for %s: %w", asin, err)
	}

	history, err := s.prices.History(ctx, asin)
	if err != nil {
		return nil, fmt.Errorf("load price history for %s: %w", asin, err)
	}

	current := decimal.Zero
	if len(history) > 0 {
		current = history[0].Amount
	}

	return &ProductView{
		Product:      *p,
		Categories:   chain,
		CurrentPrice: current,
		History:      history,
	}, nil
}

// ListProducts returns products matching the filter, cheapest current
// price first, each with its ancestor chain.
func (s *Service) ListProducts(ctx context.Context, f catalog.ListFilter) ([]ProductView, error) {
	rows, err := s.products.List(ctx, f)
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}

	views := make([]ProductView, 0, len(rows))
	for _, row := range rows {
		chain, err := s.resolver.AncestorChain(ctx, row.CategoryID)
		if err != nil {
			return nil, fmt.Errorf("resolve ancestors for %s: %w", row.ASIN, err)
		}
		views = append(views, ProductView{
			Product:      row.Product,
			Categories:   chain,
			CurrentPrice: row.CurrentPrice,
		})
	}
	return views, nil
}

// DeleteProduct removes a product and, through the store, its price
// history. Returns false when the ASIN is unknown.
func (s *Service) DeleteProduct(ctx context.Context, asin string) (bool, error) {
	deleted, err := s.products.Delete(ctx, asin)
	if err != nil {
		return false, fmt.Errorf("delete product %s: %w", asin, err)
	}
	if deleted {
		s.logger.Info("product deleted", "asin", asin)
	}
	return deleted, nil
}

// ListASINs returns the ASINs of every stored product, for refresh runs.
func (s *Service) ListASINs(ctx context.Context) ([]string, error) {
	rows, err := s.products.List(ctx, catalog.ListFilter{})
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	asins := make([]string, 0, len(rows))
	for _, row := range rows {
		asins = append(asins, row.ASIN)
	}
	return asins, nil
}
