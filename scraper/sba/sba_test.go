package sba

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/bramsey123/Deal-Scout/config"
	"github.com/bramsey123/Deal-Scout/utils"
)

func newTestAdapter(feedURL string) *Adapter {
	return New(&config.Config{SBAFeedURL: feedURL}, utils.NewLogger())
}

func TestIsSpreadsheet(t *testing.T) {
	tests := []struct {
		url         string
		contentType string
		want        bool
	}{
		{"https://example.com/feed.xlsx", "", true},
		{"https://example.com/feed.xls", "", true},
		{"https://example.com/feed.csv", "text/csv", false},
		{"https://example.com/feed", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", true},
		{"https://example.com/feed", "text/csv", false},
	}

	for _, tt := range tests {
		if got := isSpreadsheet(tt.url, tt.contentType); got != tt.want {
			t.Errorf("isSpreadsheet(%q, %q) = %v; want %v", tt.url, tt.contentType, got, tt.want)
		}
	}
}

func TestScrapeCSVFeed(t *testing.T) {
	csvBody := strings.Join([]string{
		"Business Name,City,State,Gross Approval",
		"Acme Machining,Houston,TX,350000",
		",Austin,TX,120000",
		"Lone Star Bakery,,,",
	}, "\n")

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/csv")
		_, _ = w.Write([]byte(csvBody))
	}))
	defer srv.Close()

	listings, err := newTestAdapter(srv.URL + "/feed.csv").Scrape(context.Background())
	if err != nil {
		t.Fatalf("Scrape: %v", err)
	}
	if len(listings) != 3 {
		t.Fatalf("expected 3 listings, got %d", len(listings))
	}

	if listings[0].Title != "Acme Machining — $350000 in Houston, TX" {
		t.Errorf("synthesized title = %q", listings[0].Title)
	}
	if listings[0].Source != "SBA-7a" {
		t.Errorf("Source = %q", listings[0].Source)
	}
	if listings[0].Location != "Houston, TX" {
		t.Errorf("Location = %q", listings[0].Location)
	}

	if !strings.HasPrefix(listings[1].Title, "Unknown — ") {
		t.Errorf("missing business name should substitute Unknown: %q", listings[1].Title)
	}
	if listings[2].Location != "" {
		t.Errorf("row without city/state should have absent location, got %q", listings[2].Location)
	}
}

func TestScrapeXLSXFeed(t *testing.T) {
	f := excelize.NewFile()
	sheet := f.GetSheetName(0)
	rows := [][]interface{}{
		{"Business Name", "City", "State", "Gross Approval"},
		{"Gulf Coast Logistics", "Houston", "TX", "500000"},
		{"Hill Country Tools", "Austin", "TX", "250000"},
	}
	for i, row := range rows {
		cell, _ := excelize.CoordinatesToCellName(1, i+1)
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			t.Fatalf("build workbook: %v", err)
		}
	}
	buf, err := f.WriteToBuffer()
	if err != nil {
		t.Fatalf("serialize workbook: %v", err)
	}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write(buf.Bytes())
	}))
	defer srv.Close()

	listings, err := newTestAdapter(srv.URL + "/activity.xlsx").Scrape(context.Background())
	if err != nil {
		t.Fatalf("Scrape: %v", err)
	}
	if len(listings) != 2 {
		t.Fatalf("expected 2 listings, got %d", len(listings))
	}
	if listings[0].Title != "Gulf Coast Logistics — $500000 in Houston, TX" {
		t.Errorf("synthesized title = %q", listings[0].Title)
	}
	if listings[1].ScrapedAt.IsZero() {
		t.Error("ScrapedAt not set")
	}
}

func TestScrapeFeedErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "maintenance", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	if _, err := newTestAdapter(srv.URL + "/feed.csv").Scrape(context.Background()); err == nil {
		t.Error("expected error for non-200 feed response")
	}
}

func TestScrapeEmptyFeed(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {}))
	defer srv.Close()

	listings, err := newTestAdapter(srv.URL + "/feed.csv").Scrape(context.Background())
	if err != nil {
		t.Fatalf("empty feed should not error: %v", err)
	}
	if len(listings) != 0 {
		t.Errorf("expected 0 listings, got %d", len(listings))
	}
}

func TestScrapeRespectsContext(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		time.Sleep(200 * time.Millisecond)
	}))
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	if _, err := newTestAdapter(srv.URL + "/feed.csv").Scrape(ctx); err == nil {
		t.Error("expected context deadline error")
	}
}
