package sba

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"mime"
	"net/http"
	"path"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/bramsey123/Deal-Scout/config"
	"github.com/bramsey123/Deal-Scout/models"
	"github.com/bramsey123/Deal-Scout/utils"
)

// Source is the canonical source tag for records produced by this adapter.
const Source = "SBA-7a"

// Column names in the monthly 7(a) lender activity feed.
const (
	colBusinessName = "Business Name"
	colCity         = "City"
	colState        = "State"
	colAmount       = "Gross Approval"
)

const fetchTimeout = 20 * time.Second

// Adapter ingests the SBA 7(a) loan activity feed. The feed alternates
// between XLSX and CSV publications, so the format is detected per fetch.
type Adapter struct {
	cfg    *config.Config
	logger *utils.Logger
	client *http.Client
}

// New creates a ready-to-use SBA feed adapter.
func New(cfg *config.Config, logger *utils.Logger) *Adapter {
	return &Adapter{
		cfg:    cfg,
		logger: logger,
		client: &http.Client{Timeout: fetchTimeout},
	}
}

// Name implements scraper.Adapter.
func (a *Adapter) Name() string { return Source }

// Scrape downloads the feed and maps its rows to canonical listings.
// Rows with missing columns substitute placeholders instead of failing.
func (a *Adapter) Scrape(ctx context.Context) ([]*models.Listing, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, a.cfg.SBAFeedURL, nil)
	if err != nil {
		return nil, fmt.Errorf("sba: build request: %w", err)
	}

	resp, err := a.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("sba: fetch feed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("sba: feed returned status %d", resp.StatusCode)
	}

	var rows []map[string]string
	if isSpreadsheet(a.cfg.SBAFeedURL, resp.Header.Get("Content-Type")) {
		rows, err = parseXLSX(resp.Body)
	} else {
		rows, err = parseCSV(resp.Body)
	}
	if err != nil {
		return nil, fmt.Errorf("sba: parse feed: %w", err)
	}

	now := time.Now()
	listings := make([]*models.Listing, 0, len(rows))
	for _, row := range rows {
		listings = append(listings, listingFromRow(row, now))
	}

	a.logger.Info("[sba] Mapped %d feed rows", len(listings))
	return listings, nil
}

// isSpreadsheet reports whether the feed should be parsed as XLSX, judged
// by the URL extension's MIME type with the response Content-Type as a
// fallback.
func isSpreadsheet(feedURL, contentType string) bool {
	ext := strings.ToLower(path.Ext(feedURL))
	if ext == ".xls" || ext == ".xlsx" {
		return true
	}
	if mt := mime.TypeByExtension(ext); strings.Contains(mt, "spreadsheet") {
		return true
	}
	return strings.Contains(contentType, "spreadsheet")
}

// parseXLSX reads the first sheet of an Excel feed into header-keyed rows.
func parseXLSX(r io.Reader) ([]map[string]string, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("open workbook: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("workbook has no sheets")
	}

	raw, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("read sheet %q: %w", sheets[0], err)
	}
	if len(raw) < 2 {
		return nil, nil
	}

	header := raw[0]
	rows := make([]map[string]string, 0, len(raw)-1)
	for _, cells := range raw[1:] {
		row := make(map[string]string, len(header))
		for i, name := range header {
			if i < len(cells) {
				row[strings.TrimSpace(name)] = strings.TrimSpace(cells[i])
			}
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// parseCSV reads a delimited feed into header-keyed rows. Short records
// are tolerated; a corrupt record is skipped rather than aborting the feed.
func parseCSV(r io.Reader) ([]map[string]string, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err == io.EOF {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}

	var rows []map[string]string
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			continue
		}
		row := make(map[string]string, len(header))
		for i, name := range header {
			if i < len(record) {
				row[strings.TrimSpace(name)] = strings.TrimSpace(record[i])
			}
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// listingFromRow synthesizes a one-line title from the mapped columns,
// e.g. "Acme Machining — $350000 in Houston, TX".
func listingFromRow(row map[string]string, now time.Time) *models.Listing {
	biz := row[colBusinessName]
	if biz == "" {
		biz = "Unknown"
	}
	city := row[colCity]
	state := row[colState]
	amount := row[colAmount]

	l := &models.Listing{
		Source:    Source,
		Title:     fmt.Sprintf("%s — $%s in %s, %s", biz, amount, city, state),
		ScrapedAt: now,
	}

	switch {
	case city != "" && state != "":
		l.Location = city + ", " + state
	case state != "":
		l.Location = state
	}

	return l
}
