package services

import (
	"strings"
	"time"

	"github.com/bramsey123/Deal-Scout/models"
	"github.com/bramsey123/Deal-Scout/utils"
)

// Normalizer coerces adapter output into fully-populated canonical records.
// It fills defaults for fields the adapter left unset and never mutates a
// field that is already populated.
type Normalizer struct {
	logger *utils.Logger
}

// NewNormalizer creates a Normalizer with the given logger.
func NewNormalizer(logger *utils.Logger) *Normalizer {
	return &Normalizer{logger: logger}
}

// Normalize applies per-source defaults to one adapter's output: Source
// falls back to the adapter name, ScrapedAt to now, and the description
// bound is re-asserted. Records without a usable title are dropped since
// every canonical listing requires one.
func (n *Normalizer) Normalize(source string, raw []*models.Listing) []*models.Listing {
	now := time.Now()
	out := make([]*models.Listing, 0, len(raw))

	for _, l := range raw {
		if l == nil {
			continue
		}

		l.Title = strings.TrimSpace(l.Title)
		if l.Title == "" {
			n.logger.Warn("[normalize] Dropping %s record with empty title (url=%q)", source, l.URL)
			continue
		}

		if l.Source == "" {
			l.Source = source
		}
		if l.ScrapedAt.IsZero() {
			l.ScrapedAt = now
		}
		l.Description = models.TruncateDescription(l.Description)

		out = append(out, l)
	}

	if len(out) != len(raw) {
		n.logger.Info("[normalize] %s: %d -> %d records", source, len(raw), len(out))
	}
	return out
}
