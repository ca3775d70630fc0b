package browser

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/playwright-community/playwright-go"
)

// Fetcher loads listing pages through a headless Chromium so pages that
// assemble their content with scripts still render. It satisfies the same
// contract as the plain HTTP fetcher.
type Fetcher struct {
	pw      *playwright.Playwright
	browser playwright.Browser
	context playwright.BrowserContext
	baseURL string
	timeout time.Duration
	retries int
	logger  *slog.Logger
}

type Options struct {
	BaseURL        string
	Headless       bool
	Timeout        time.Duration
	UserAgent      string
	ViewportWidth  int
	ViewportHeight int
	AcceptLanguage string
	TimezoneID     string
	Locale         string
	ProxyServer    string
	MaxRetries     int
}

func DefaultOptions() *Options {
	return &Options{
		BaseURL:        "https://www.amazon.it",
		Headless:       true,
		Timeout:        30 * time.Second,
		UserAgent:      "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
		ViewportWidth:  1920,
		ViewportHeight: 1080,
		AcceptLanguage: "it-IT,it;q=0.9,en;q=0.8",
		TimezoneID:     "Europe/Rome",
		Locale:         "it-IT",
		MaxRetries:     3,
	}
}

func New(opts *Options, logger *slog.Logger) (*Fetcher, error) {
	if opts == nil {
		opts = DefaultOptions()
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 30 * time.Second
	}

	pw, err := playwright.Run()
	if err != nil {
		return nil, fmt.Errorf("failed to start playwright: %w", err)
	}

	launchOpts := playwright.BrowserTypeLaunchOptions{
		Headless: &opts.Headless,
		Args: []string{
			"--disable-blink-features=AutomationControlled",
			"--disable-dev-shm-usage",
			"--no-sandbox",
			"--disable-setuid-sandbox",
			fmt.Sprintf("--window-size=%d,%d", opts.ViewportWidth, opts.ViewportHeight),
			"--user-agent=" + opts.UserAgent,
		},
	}
	if opts.ProxyServer != "" {
		launchOpts.Proxy = &playwright.Proxy{Server: opts.ProxyServer}
	}

	chromium, err := pw.Chromium.Launch(launchOpts)
	if err != nil {
		pw.Stop()
		return nil, fmt.Errorf("failed to launch browser: %w", err)
	}

	browserCtx, err := chromium.NewContext(playwright.BrowserNewContextOptions{
		UserAgent:         &opts.UserAgent,
		AcceptDownloads:   playwright.Bool(false),
		JavaScriptEnabled: playwright.Bool(true),
		Locale:            &opts.Locale,
		TimezoneId:        &opts.TimezoneID,
		Viewport: &playwright.Size{
			Width:  opts.ViewportWidth,
			Height: opts.ViewportHeight,
		},
		ExtraHttpHeaders: map[string]string{
			"Accept":          "text/html,application/xhtml+xml,application/xml;q=0.9,image/webp,*/*;q=0.8",
			"Accept-Language": opts.AcceptLanguage,
		},
	})
	if err != nil {
		chromium.Close()
		pw.Stop()
		return nil, fmt.Errorf("failed to create browser context: %w", err)
	}

	return &Fetcher{
		pw:      pw,
		browser: chromium,
		context: browserCtx,
		baseURL: opts.BaseURL,
		timeout: opts.Timeout,
		retries: opts.MaxRetries,
		logger:  logger.With("component", "browser_fetcher"),
	}, nil
}

// Fetch renders the listing page for asin and returns its parsed DOM.
func (f *Fetcher) Fetch(ctx context.Context, asin string) (*goquery.Document, error) {
	url := fmt.Sprintf("%s/dp/%s", f.baseURL, asin)

	page, err := f.context.NewPage()
	if err != nil {
		return nil, fmt.Errorf("failed to open page: %w", err)
	}
	defer page.Close()
	page.SetDefaultTimeout(float64(f.timeout.Milliseconds()))

	if err := f.navigate(ctx, page, url); err != nil {
		return nil, err
	}

	content, err := page.Content()
	if err != nil {
		return nil, fmt.Errorf("failed to read page content: %w", err)
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(content))
	if err != nil {
		return nil, fmt.Errorf("failed to parse page: %w", err)
	}
	return doc, nil
}

func (f *Fetcher) navigate(ctx context.Context, page playwright.Page, url string) error {
	var lastErr error

	for attempt := 0; attempt < f.retries; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		if attempt > 0 {
			f.logger.Info("retrying navigation", "attempt", attempt+1, "url", url)
			time.Sleep(time.Duration(attempt+1) * time.Second)
		}

		_, err := page.Goto(url, playwright.PageGotoOptions{
			WaitUntil: playwright.WaitUntilStateDomcontentloaded,
			Timeout:   playwright.Float(float64(f.timeout.Milliseconds())),
		})
		if err != nil {
			lastErr = err
			f.logger.Error("navigation failed", "error", err, "attempt", attempt+1)
			continue
		}

		if err := f.passBotCheck(page); err != nil {
			lastErr = err
			f.logger.Error("bot check not passed", "error", err)
			continue
		}
		return nil
	}

	return fmt.Errorf("failed after %d attempts: %w", f.retries, lastErr)
}

// passBotCheck detects the interstitial Amazon serves to suspected bots
// and clicks through it when possible.
func (f *Fetcher) passBotCheck(page playwright.Page) error {
	content, err := page.Content()
	if err != nil {
		return fmt.Errorf("failed to read page content: %w", err)
	}

	if !strings.Contains(content, "Continua con gli acquisti") &&
		!strings.Contains(content, "Clicca sul pulsante") {
		return nil
	}

	f.logger.Info("bot check detected, clicking through")

	selectors := []string{
		`button:has-text("Continua con gli acquisti")`,
		`input[type="submit"][value*="Continua"]`,
		`.a-button-primary`,
		`button.a-button-text`,
	}

	for _, selector := range selectors {
		button := page.Locator(selector).First()
		count, err := button.Count()
		if err != nil || count == 0 {
			continue
		}
		if err := button.Click(); err != nil {
			f.logger.Error("failed to click bot check button", "error", err, "selector", selector)
			continue
		}

		time.Sleep(3 * time.Second)

		after, _ := page.Content()
		if !strings.Contains(after, "Clicca sul pulsante") {
			return nil
		}
	}

	return fmt.Errorf("could not click through bot check")
}

func (f *Fetcher) Close() error {
	var errs []error

	if f.context != nil {
		if err := f.context.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close context: %w", err))
		}
	}
	if f.browser != nil {
		if err := f.browser.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close browser: %w", err))
		}
	}
	if f.pw != nil {
		if err := f.pw.Stop(); err != nil {
			errs = append(errs, fmt.Errorf("failed to stop playwright: %w", err))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("errors during close: %v", errs)
	}
	return nil
}
