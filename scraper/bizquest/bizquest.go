package bizquest

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/gocolly/colly/v2"

	"github.com/bramsey123/Deal-Scout/config"
	"github.com/bramsey123/Deal-Scout/models"
	"github.com/bramsey123/Deal-Scout/utils"
)

// Source is the canonical source tag for records produced by this adapter.
const Source = "BizQuest"

const (
	// maxContainers bounds per-run work on the results page.
	maxContainers = 20
	// minTitleLen rejects stub anchors ("More", "Map") as titles.
	minTitleLen = 5
	// resultsCtxKey marks the results-page request so it can be told
	// apart from the warm-up even when the server redirects it.
	resultsCtxKey = "results"
)

// Adapter scrapes BizQuest search results over plain HTTP. The site is
// server-rendered, so a primed session with browser-like headers gets the
// full markup without a browser.
type Adapter struct {
	cfg    *config.Config
	logger *utils.Logger
}

// New creates a ready-to-use BizQuest adapter.
func New(cfg *config.Config, logger *utils.Logger) *Adapter {
	return &Adapter{cfg: cfg, logger: logger}
}

// Name implements scraper.Adapter.
func (a *Adapter) Name() string { return Source }

// Scrape visits the source home page first to prime session cookies, then
// fetches the results page and extracts up to maxContainers listings.
// Extraction problems in one container skip only that container.
func (a *Adapter) Scrape(ctx context.Context) ([]*models.Listing, error) {
	target, err := url.Parse(a.cfg.BizQuestURL)
	if err != nil {
		return nil, fmt.Errorf("bizquest: bad target url: %w", err)
	}
	base := &url.URL{Scheme: target.Scheme, Host: target.Host}

	c := colly.NewCollector(
		colly.UserAgent(utils.RandomUserAgent()),
		colly.AllowedDomains(target.Hostname()),
	)
	c.SetRequestTimeout(30 * time.Second)
	if err := c.Limit(&colly.LimitRule{
		DomainGlob:  "*",
		Delay:       1 * time.Second,
		RandomDelay: 2 * time.Second,
	}); err != nil {
		return nil, fmt.Errorf("bizquest: limit rule: %w", err)
	}

	c.OnRequest(func(r *colly.Request) {
		r.Headers.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
		r.Headers.Set("Accept-Language", "en-US,en;q=0.9")
		r.Headers.Set("Upgrade-Insecure-Requests", "1")
	})

	var listings []*models.Listing
	var fetchErr error

	// The results request is tagged through the request context rather
	// than matched by URL: colly rewrites Request.URL to the final URL
	// after a redirect, so a URL comparison would misread a redirected
	// results page as the warm-up.
	c.OnResponse(func(r *colly.Response) {
		if r.Ctx.Get(resultsCtxKey) == "" {
			return // warm-up response, cookies are all we wanted
		}
		doc, err := goquery.NewDocumentFromReader(bytes.NewReader(r.Body))
		if err != nil {
			fetchErr = fmt.Errorf("bizquest: parse response: %w", err)
			return
		}
		listings = a.parseResults(doc, base)
	})

	c.OnError(func(r *colly.Response, err error) {
		if r.Request.Ctx.Get(resultsCtxKey) != "" {
			fetchErr = fmt.Errorf("bizquest: fetch %s: %w", r.Request.URL, err)
		} else {
			a.logger.Debug("[bizquest] Warm-up request failed (continuing): %v", err)
		}
	})

	// Cookie priming: hit the home page before the search page so the
	// session looks like a normal browsing flow.
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := c.Visit(base.String()); err != nil {
		a.logger.Debug("[bizquest] Warm-up visit failed (continuing): %v", err)
	}

	utils.RandomDelay(500*time.Millisecond, 2*time.Second)

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	resultsCtx := colly.NewContext()
	resultsCtx.Put(resultsCtxKey, "1")
	if err := c.Request(http.MethodGet, a.cfg.BizQuestURL, nil, resultsCtx, nil); err != nil {
		return nil, fmt.Errorf("bizquest: visit: %w", err)
	}
	c.Wait()

	if fetchErr != nil {
		return nil, fetchErr
	}

	a.logger.Info("[bizquest] Extracted %d listings", len(listings))
	return listings, nil
}

func (a *Adapter) parseResults(doc *goquery.Document, base *url.URL) []*models.Listing {
	containers := SelectContainers(doc, maxContainers)
	a.logger.Debug("[bizquest] Found %d candidate containers", len(containers))

	now := time.Now()
	var listings []*models.Listing
	for i, container := range containers {
		l := a.parseContainer(container, base, now)
		if l == nil {
			a.logger.Debug("[bizquest] Container %d yielded no listing", i)
			continue
		}
		listings = append(listings, l)
	}
	return listings
}

// parseContainer extracts one listing from one container. A panic from a
// malformed fragment is confined here and drops just that container.
func (a *Adapter) parseContainer(container *goquery.Selection, base *url.URL, now time.Time) (l *models.Listing) {
	defer func() {
		if r := recover(); r != nil {
			a.logger.Warn("[bizquest] Container parse panicked, skipping: %v", r)
			l = nil
		}
	}()

	title, href := ExtractTitle(container, minTitleLen)
	if title == "" {
		return nil
	}

	text := container.Text()
	return &models.Listing{
		Source:    Source,
		Title:     title,
		URL:       ResolveURL(base, href),
		Price:     ExtractPrice(text),
		Location:  ExtractLocation(text),
		ScrapedAt: now,
	}
}
