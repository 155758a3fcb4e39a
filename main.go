package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/bramsey123/Deal-Scout/config"
	"github.com/bramsey123/Deal-Scout/models"
	"github.com/bramsey123/Deal-Scout/scraper"
	"github.com/bramsey123/Deal-Scout/scraper/bizquest"
	"github.com/bramsey123/Deal-Scout/scraper/dealstream"
	"github.com/bramsey123/Deal-Scout/scraper/sba"
	"github.com/bramsey123/Deal-Scout/services"
	"github.com/bramsey123/Deal-Scout/storage"
	"github.com/bramsey123/Deal-Scout/utils"
)

func main() {
	logger := utils.NewLogger()
	cfg := config.Load()

	logger.Info("=== Deal Scout starting ===")
	logger.Info("Config: store=%s | price=$%d-$%d | locations=%v | adapter timeout=%ds",
		cfg.DealStore, cfg.MinPrice, cfg.MaxPrice, cfg.RequiredLocations, cfg.AdapterTimeoutSec)

	// Credentials are checked before any network activity.
	if err := cfg.Validate(); err != nil {
		logger.Error("%v", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, err := newDealStore(cfg)
	if err != nil {
		logger.Error("Failed to initialize destination store: %v", err)
		os.Exit(1)
	}
	defer store.Close()

	adapters := []scraper.Adapter{
		dealstream.New(cfg, logger),
		bizquest.New(cfg, logger),
		sba.New(cfg, logger),
	}

	aggregator := services.NewAggregator(adapters, logger,
		time.Duration(cfg.AdapterTimeoutSec)*time.Second, cfg.ParallelAdapters)
	listings, results := aggregator.Run(ctx)

	succeeded := 0
	for _, r := range results {
		if r.OK() {
			succeeded++
		}
	}
	logger.Info("Aggregation complete: %d/%d adapters succeeded, %d listings total",
		succeeded, len(results), len(listings))

	if succeeded == 0 {
		logger.Error("All source adapters failed. Exiting.")
		os.Exit(1)
	}

	writeSnapshot(cfg, logger, listings)

	insightSvc := services.NewInsightService(logger)
	insightSvc.Print(insightSvc.Generate(listings))

	criteria := models.FilterCriteria{
		MinPrice:          cfg.MinPrice,
		MaxPrice:          cfg.MaxPrice,
		RequiredLocations: cfg.RequiredLocations,
	}
	filtered := services.Filter(listings, criteria)
	logger.Info("After filtering: %d listings (from %d total)", len(filtered), len(listings))

	if len(filtered) == 0 {
		logger.Info("No listings matched criteria. Nothing to sync.")
		return
	}

	engine := services.NewSyncEngine(store, logger)
	report := engine.Run(ctx, filtered)

	logger.Info("=== Run complete: %d inserted, %d skipped, %d failed ===",
		report.Inserted, report.Skipped, report.Failed)
}

// newDealStore constructs the configured destination store.
func newDealStore(cfg *config.Config) (storage.DealStore, error) {
	if cfg.DealStore == "postgres" {
		return storage.NewPostgresStore(cfg.DSN())
	}
	return storage.NewAirtableStore(
		cfg.AirtableBase, cfg.AirtableTable, cfg.AirtableToken,
		time.Duration(cfg.RateLimitMs)*time.Millisecond,
	), nil
}

// writeSnapshot saves the aggregated listings to CSV for auditing.
// Snapshot problems never block the sync stage.
func writeSnapshot(cfg *config.Config, logger *utils.Logger, listings []*models.Listing) {
	w, err := storage.NewCSVWriter(cfg.CSVOutputPath)
	if err != nil {
		logger.Warn("Snapshot writer unavailable: %v", err)
		return
	}
	defer w.Close()

	if err := w.WriteRaw(listings); err != nil {
		logger.Warn("Snapshot write failed: %v", err)
		return
	}
	logger.Info("Raw snapshot saved to %s", cfg.CSVOutputPath)
}
