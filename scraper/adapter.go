package scraper

import (
	"context"

	"github.com/bramsey123/Deal-Scout/models"
)

// Adapter is the contract every listing source implements. Scrape returns
// zero or more canonical listings; an error means the source as a whole
// failed and contributed nothing. Adapters must never panic across this
// boundary; per-item problems are handled internally and skipped.
type Adapter interface {
	Name() string
	Scrape(ctx context.Context) ([]*models.Listing, error)
}
