package services

import (
	"context"

	"github.com/bramsey123/Deal-Scout/models"
	"github.com/bramsey123/Deal-Scout/storage"
	"github.com/bramsey123/Deal-Scout/utils"
)

// SyncReport summarizes one sync pass over the filtered listings.
type SyncReport struct {
	Attempted int
	Inserted  int
	Skipped   int // already present in the store, or a within-run duplicate
	Failed    int
}

// SyncEngine pushes filtered listings into the destination store.
// Idempotency is the core contract: the same logical listing never
// produces two destination records, no matter how many runs see it.
type SyncEngine struct {
	store  storage.DealStore
	logger *utils.Logger
	seen   *utils.KeySet
}

// NewSyncEngine creates a SyncEngine over the injected store.
func NewSyncEngine(store storage.DealStore, logger *utils.Logger) *SyncEngine {
	return &SyncEngine{
		store:  store,
		logger: logger,
		seen:   utils.NewKeySet(),
	}
}

// Run attempts each listing independently in input order. A failure for
// one listing is logged and counted, never fatal to the rest.
func (s *SyncEngine) Run(ctx context.Context, listings []*models.Listing) SyncReport {
	report := SyncReport{Attempted: len(listings)}

	for _, l := range listings {
		if err := ctx.Err(); err != nil {
			s.logger.Warn("[sync] Run cancelled with %d listings left", report.Attempted-report.Inserted-report.Skipped-report.Failed)
			break
		}

		key := storage.KeyFor(l)

		if !s.seen.Add(key.String()) {
			s.logger.Debug("[sync] Within-run duplicate skipped: %s", l.Title)
			report.Skipped++
			continue
		}

		exists, err := s.store.Exists(ctx, key)
		if err != nil {
			// Without a trustworthy existence answer an insert could
			// duplicate, so the listing is counted failed and left alone.
			s.logger.Error("[sync] Existence check failed for %q: %v", l.Title, err)
			report.Failed++
			continue
		}
		if exists {
			s.logger.Debug("[sync] Already in store, skipping: %s", l.Title)
			report.Skipped++
			continue
		}

		if err := s.store.Insert(ctx, BuildRecord(l)); err != nil {
			s.logger.Error("[sync] Insert failed for %q: %v", l.Title, err)
			report.Failed++
			continue
		}
		report.Inserted++
	}

	s.logger.Info("[sync] Done: attempted %d, inserted %d, skipped %d, failed %d",
		report.Attempted, report.Inserted, report.Skipped, report.Failed)
	return report
}

// BuildRecord maps a listing to destination fields. Source and Title are
// always present; optional fields are attached only when known so the
// store's own defaults survive.
func BuildRecord(l *models.Listing) map[string]string {
	record := map[string]string{
		"Source": l.Source,
		"Title":  l.Title,
	}
	if l.URL != "" {
		record["URL"] = l.URL
	}
	if l.Price != "" {
		record["Price"] = l.Price
	}
	if l.Location != "" {
		record["Location"] = l.Location
	}
	return record
}
