package bizquest

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/bramsey123/Deal-Scout/config"
	"github.com/bramsey123/Deal-Scout/utils"
)

const resultsHTML = `<html><body>
<div class="listing-card">
	<a class="listing-title" href="/texas/houston-car-wash/">Houston Car Wash Chain</a>
	<span>Asking Price: $450,000</span>
	<span>Houston, TX</span>
</div>
<div class="listing-card">
	<h3>Commercial Bakery Opportunity</h3>
	<span>Price on request · Dallas, TX</span>
</div>
<div class="listing-card">
	<span>$99</span>
</div>
</body></html>`

func TestScrapeExtractsListings(t *testing.T) {
	var warmedUp bool

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/":
			warmedUp = true
			_, _ = w.Write([]byte(`<html><body>home</body></html>`))
		case "/texas/houston/":
			_, _ = w.Write([]byte(resultsHTML))
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	cfg := &config.Config{BizQuestURL: srv.URL + "/texas/houston/"}
	adapter := New(cfg, utils.NewLogger())

	listings, err := adapter.Scrape(context.Background())
	if err != nil {
		t.Fatalf("Scrape: %v", err)
	}

	if !warmedUp {
		t.Error("expected a warm-up visit to the home page")
	}
	if len(listings) != 2 {
		t.Fatalf("expected 2 listings (titleless container dropped), got %d", len(listings))
	}

	first := listings[0]
	if first.Source != "BizQuest" {
		t.Errorf("Source = %q", first.Source)
	}
	if first.Title != "Houston Car Wash Chain" {
		t.Errorf("Title = %q", first.Title)
	}
	if !strings.HasPrefix(first.URL, srv.URL) || !strings.HasSuffix(first.URL, "/texas/houston-car-wash/") {
		t.Errorf("URL not resolved against base origin: %q", first.URL)
	}
	if first.Price != "$450,000" {
		t.Errorf("Price = %q", first.Price)
	}
	if first.Location != "Houston, TX" {
		t.Errorf("Location = %q", first.Location)
	}

	second := listings[1]
	if second.Price != "" {
		t.Errorf("price should be absent, got %q", second.Price)
	}
	if second.URL != "" {
		t.Errorf("heading title carries no URL, got %q", second.URL)
	}
	if second.Location != "Dallas, TX" {
		t.Errorf("Location = %q", second.Location)
	}
}

func TestScrapeFollowsRedirectedResultsPage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/":
			_, _ = w.Write([]byte(`<html><body>home</body></html>`))
		case "/texas/houston":
			http.Redirect(w, r, "/texas/houston/", http.StatusMovedPermanently)
		case "/texas/houston/":
			_, _ = w.Write([]byte(resultsHTML))
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	cfg := &config.Config{BizQuestURL: srv.URL + "/texas/houston"}
	adapter := New(cfg, utils.NewLogger())

	listings, err := adapter.Scrape(context.Background())
	if err != nil {
		t.Fatalf("Scrape: %v", err)
	}
	if len(listings) != 2 {
		t.Fatalf("redirected results page should still be parsed, got %d listings", len(listings))
	}
	if listings[0].Title != "Houston Car Wash Chain" {
		t.Errorf("Title = %q", listings[0].Title)
	}
}

func TestScrapeTargetFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/" {
			_, _ = w.Write([]byte("home"))
			return
		}
		http.Error(w, "blocked", http.StatusForbidden)
	}))
	defer srv.Close()

	cfg := &config.Config{BizQuestURL: srv.URL + "/texas/houston/"}
	adapter := New(cfg, utils.NewLogger())

	if _, err := adapter.Scrape(context.Background()); err == nil {
		t.Error("expected error when the results page cannot be fetched")
	}
}
