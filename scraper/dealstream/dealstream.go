package dealstream

import (
	"context"
	"fmt"
	"math/rand"
	"os"
	"os/exec"
	"time"

	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"

	"github.com/bramsey123/Deal-Scout/config"
	"github.com/bramsey123/Deal-Scout/models"
	"github.com/bramsey123/Deal-Scout/utils"
)

// Source is the canonical source tag for records produced by this adapter.
const Source = "DealStream"

// selectorCandidates are tried in priority order while waiting for the
// listings to render. The first one that appears wins; if none show up
// within their timeouts the adapter proceeds after a fallback delay and
// relies on whatever JSON-LD made it into the page.
var selectorCandidates = []string{
	`div[data-testid*="listing"]`,
	`div[class*="listing"]`,
	`article[class*="card"]`,
	`.listing-card`,
	`[data-cy="listing-card"]`,
}

const (
	selectorWait  = 10 * time.Second
	fallbackDelay = 5 * time.Second
	scrollPasses  = 3
)

// stealthScript runs before any page script and hides the usual headless
// automation tells.
const stealthScript = `
	Object.defineProperty(navigator, 'webdriver', {
		get: () => undefined,
	});
	window.chrome = window.chrome || { runtime: {} };
	Object.defineProperty(navigator, 'languages', {
		get: () => ['en-US', 'en'],
	});
`

// Adapter scrapes DealStream search results through a headless browser.
// DealStream renders listings client-side, so a plain HTTP fetch returns
// an empty shell; the usable data is the JSON-LD embedded after hydration.
type Adapter struct {
	cfg    *config.Config
	logger *utils.Logger
	retry  *utils.RetryConfig
}

// New creates a ready-to-use DealStream adapter.
func New(cfg *config.Config, logger *utils.Logger) *Adapter {
	return &Adapter{
		cfg:    cfg,
		logger: logger,
		retry: &utils.RetryConfig{
			MaxAttempts: cfg.MaxRetries,
			BaseDelay:   2 * time.Second,
			Logger:      logger,
		},
	}
}

// Name implements scraper.Adapter.
func (a *Adapter) Name() string { return Source }

// Scrape renders the search page and parses its structured data. The
// browser session lives inside this call: every exit path tears it down
// through the deferred context cancels.
func (a *Adapter) Scrape(ctx context.Context) ([]*models.Listing, error) {
	html, err := a.fetchRenderedHTML(ctx)
	if err != nil {
		return nil, fmt.Errorf("dealstream: fetch: %w", err)
	}

	listings := ParseSearchResults(html, time.Now())
	a.logger.Info("[dealstream] Parsed %d listings from structured data", len(listings))
	return listings, nil
}

func (a *Adapter) fetchRenderedHTML(ctx context.Context) (string, error) {
	chromeBin := findChromeBinary(a.cfg.ChromeBin)
	if chromeBin != "" {
		a.logger.Debug("[dealstream] Using browser binary: %s", chromeBin)
	}

	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", true),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.Flag("disable-blink-features", "AutomationControlled"),
		chromedp.UserAgent(utils.RandomUserAgent()),
		chromedp.WindowSize(1920, 1080),
		chromedp.Flag("lang", "en-US"),
	)
	if chromeBin != "" {
		opts = append(opts, chromedp.ExecPath(chromeBin))
	}

	allocCtx, cancelAlloc := chromedp.NewExecAllocator(ctx, opts...)
	defer cancelAlloc()

	var html string

	err := a.retry.Do(ctx, "dealstream-render", func() error {
		tabCtx, cancelTab := chromedp.NewContext(allocCtx,
			chromedp.WithLogf(func(string, ...interface{}) {}))
		defer cancelTab()

		return chromedp.Run(tabCtx,
			chromedp.ActionFunc(func(ctx context.Context) error {
				_, err := page.AddScriptToEvaluateOnNewDocument(stealthScript).Do(ctx)
				return err
			}),
			// Pause like a human would before hitting the URL.
			chromedp.ActionFunc(func(context.Context) error {
				utils.RandomDelay(1*time.Second, 3*time.Second)
				return nil
			}),
			chromedp.Navigate(a.cfg.DealStreamURL),
			chromedp.ActionFunc(a.waitForListings),
			chromedp.ActionFunc(scrollIncrementally),
			chromedp.OuterHTML("html", &html),
		)
	})
	if err != nil {
		return "", err
	}

	a.logger.Debug("[dealstream] Rendered page: %d bytes", len(html))
	return html, nil
}

// waitForListings tries each selector candidate in turn and returns as
// soon as one is visible. None matching is not an error: the page may
// still carry structured data, so we wait out the fallback delay instead.
func (a *Adapter) waitForListings(ctx context.Context) error {
	for _, sel := range selectorCandidates {
		waitCtx, cancel := context.WithTimeout(ctx, selectorWait)
		err := chromedp.WaitReady(sel, chromedp.ByQuery).Do(waitCtx)
		cancel()
		if err == nil {
			a.logger.Debug("[dealstream] Content ready via selector %q", sel)
			return nil
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
	}

	a.logger.Warn("[dealstream] No listing selector matched, continuing after fallback delay")
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(fallbackDelay):
		return nil
	}
}

// scrollIncrementally nudges the viewport down a few times to trigger
// lazy-loaded content.
func scrollIncrementally(ctx context.Context) error {
	for i := 0; i < scrollPasses; i++ {
		if err := chromedp.Evaluate(`window.scrollBy(0, 1000)`, nil).Do(ctx); err != nil {
			return err
		}
		pause := time.Duration(1000+rand.Intn(1000)) * time.Millisecond
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(pause):
		}
	}
	return nil
}

// findChromeBinary locates a Chrome/Chromium binary, preferring the
// configured path.
func findChromeBinary(configured string) string {
	if configured != "" {
		return configured
	}

	names := []string{"google-chrome-stable", "google-chrome", "chromium", "chromium-browser"}
	for _, name := range names {
		if path, err := exec.LookPath(name); err == nil {
			return path
		}
	}

	paths := []string{
		"/usr/bin/google-chrome-stable",
		"/usr/bin/google-chrome",
		"/usr/bin/chromium-browser",
		"/usr/bin/chromium",
		"/snap/bin/chromium",
		"/opt/google/chrome/google-chrome",
	}
	for _, p := range paths {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}

	return ""
}
