package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/bramsey123/Deal-Scout/utils"
)

const airtableAPIBase = "https://api.airtable.com/v0"

// AirtableStore talks to the Airtable REST API. Inserts are created with
// typecast enabled so the receiving side coerces field types; existence
// checks use filterByFormula on the natural key. Requests are paced to
// stay under Airtable's requests-per-second cap.
type AirtableStore struct {
	endpoint string
	token    string
	client   *http.Client
	limiter  *utils.RateLimiter
}

// NewAirtableStore builds a store for one base and table.
func NewAirtableStore(baseID, table, token string, rateLimit time.Duration) *AirtableStore {
	return &AirtableStore{
		endpoint: fmt.Sprintf("%s/%s/%s", airtableAPIBase, url.PathEscape(baseID), url.PathEscape(table)),
		token:    token,
		client:   &http.Client{Timeout: 15 * time.Second},
		limiter:  utils.NewRateLimiter(rateLimit),
	}
}

type airtableRecord struct {
	Fields   map[string]string `json:"fields"`
	Typecast bool              `json:"typecast"`
}

type airtableList struct {
	Records []struct {
		ID string `json:"id"`
	} `json:"records"`
}

// Insert creates one record.
func (s *AirtableStore) Insert(ctx context.Context, fields map[string]string) error {
	body, err := json.Marshal(airtableRecord{Fields: fields, Typecast: true})
	if err != nil {
		return fmt.Errorf("airtable: marshal record: %w", err)
	}

	s.limiter.Wait()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("airtable: build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+s.token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("airtable: create record: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("airtable: create returned %d: %s", resp.StatusCode, strings.TrimSpace(string(detail)))
	}
	return nil
}

// Exists queries for a record matching the natural key.
func (s *AirtableStore) Exists(ctx context.Context, key NaturalKey) (bool, error) {
	formula := keyFormula(key)

	s.limiter.Wait()

	q := url.Values{}
	q.Set("filterByFormula", formula)
	q.Set("maxRecords", "1")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.endpoint+"?"+q.Encode(), nil)
	if err != nil {
		return false, fmt.Errorf("airtable: build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+s.token)

	resp, err := s.client.Do(req)
	if err != nil {
		return false, fmt.Errorf("airtable: list records: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return false, fmt.Errorf("airtable: list returned %d: %s", resp.StatusCode, strings.TrimSpace(string(detail)))
	}

	var list airtableList
	if err := json.NewDecoder(resp.Body).Decode(&list); err != nil {
		return false, fmt.Errorf("airtable: decode list: %w", err)
	}
	return len(list.Records) > 0, nil
}

// Close implements DealStore; the HTTP client holds no resources to release.
func (s *AirtableStore) Close() error { return nil }

// keyFormula renders an Airtable filterByFormula for the natural key.
func keyFormula(key NaturalKey) string {
	if key.URL != "" {
		return fmt.Sprintf("{URL}=%s", formulaString(key.URL))
	}
	return fmt.Sprintf("AND({Source}=%s,{Title}=%s)",
		formulaString(key.Source), formulaString(key.Title))
}

// formulaString quotes a value for use inside a formula. Airtable string
// literals use double quotes with backslash escaping.
func formulaString(v string) string {
	v = strings.ReplaceAll(v, `\`, `\\`)
	v = strings.ReplaceAll(v, `"`, `\"`)
	return `"` + v + `"`
}
