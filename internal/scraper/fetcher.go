package scraper

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand"
	"net/http"
	"time"

	"github.com/PuerkitoBio/goquery"
)

// Limiter paces outbound fetches and hears about their outcomes.
type Limiter interface {
	Wait(ctx context.Context) error
	RecordSuccess()
	RecordError()
}

// HTTPFetcher fetches listing pages over plain HTTP. The browser-based
// fetcher is the alternative when listings require script execution.
type HTTPFetcher struct {
	client     *http.Client
	baseURL    string
	userAgents []string
	language   string
	limiter    Limiter
	logger     *slog.Logger
}

type FetcherOptions struct {
	BaseURL        string
	Timeout        time.Duration
	UserAgents     []string
	AcceptLanguage string
	Limiter        Limiter
}

func NewHTTPFetcher(opts FetcherOptions, logger *slog.Logger) *HTTPFetcher {
	return &HTTPFetcher{
		client:     &http.Client{Timeout: opts.Timeout},
		baseURL:    opts.BaseURL,
		userAgents: opts.UserAgents,
		language:   opts.AcceptLanguage,
		limiter:    opts.Limiter,
		logger:     logger.With("component", "http_fetcher"),
	}
}

func (f *HTTPFetcher) Fetch(ctx context.Context, asin string) (*goquery.Document, error) {
	url := fmt.Sprintf("%s/dp/%s", f.baseURL, asin)

	if f.limiter != nil {
		if err := f.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("rate limit wait: %w", err)
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	if len(f.userAgents) > 0 {
		req.Header.Set("User-Agent", f.userAgents[rand.Intn(len(f.userAgents))])
	}
	if f.language != "" {
		req.Header.Set("Accept-Language", f.language)
	}

	f.logger.Debug("fetching product page", "asin", asin, "url", url)

	resp, err := f.client.Do(req)
	if err != nil {
		f.recordError()
		return nil, fmt.Errorf("failed to fetch page: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		f.recordError()
		return nil, fmt.Errorf("unexpected status %d fetching %s", resp.StatusCode, url)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to parse page: %w", err)
	}
	f.recordSuccess()
	return doc, nil
}

func (f *HTTPFetcher) recordSuccess() {
	if f.limiter != nil {
		f.limiter.RecordSuccess()
	}
}

func (f *HTTPFetcher) recordError() {
	if f.limiter != nil {
		f.limiter.RecordError()
	}
}
