package services

import (
	"context"
	"fmt"
	"time"

	"github.com/bramsey123/Deal-Scout/models"
	"github.com/bramsey123/Deal-Scout/scraper"
	"github.com/bramsey123/Deal-Scout/utils"
)

// AdapterResult records one adapter's outcome for the run report.
type AdapterResult struct {
	Source   string
	Count    int
	Duration time.Duration
	Err      error
}

// OK reports whether the adapter completed without error.
func (r AdapterResult) OK() bool { return r.Err == nil }

// Aggregator runs every configured source adapter and concatenates their
// normalized output. One adapter failing, timing out, or panicking costs
// only that adapter's contribution; the others still report.
type Aggregator struct {
	adapters   []scraper.Adapter
	normalizer *Normalizer
	logger     *utils.Logger
	timeout    time.Duration
	parallel   bool
}

// NewAggregator creates an Aggregator over the given adapters. Each
// adapter gets at most timeout to produce its listings.
func NewAggregator(adapters []scraper.Adapter, logger *utils.Logger, timeout time.Duration, parallel bool) *Aggregator {
	return &Aggregator{
		adapters:   adapters,
		normalizer: NewNormalizer(logger),
		logger:     logger,
		timeout:    timeout,
		parallel:   parallel,
	}
}

// Run executes all adapters and returns the unified listing sequence plus
// a per-adapter result. Output preserves adapter order and each adapter's
// internal order regardless of execution mode.
func (a *Aggregator) Run(ctx context.Context) ([]*models.Listing, []AdapterResult) {
	perAdapter := make([][]*models.Listing, len(a.adapters))
	results := make([]AdapterResult, len(a.adapters))

	runOne := func(i int, ad scraper.Adapter) {
		start := time.Now()
		listings, err := a.scrapeOne(ctx, ad)
		results[i] = AdapterResult{
			Source:   ad.Name(),
			Count:    len(listings),
			Duration: time.Since(start),
			Err:      err,
		}
		if err != nil {
			a.logger.Warn("[aggregate] %s failed, contributing 0 listings: %v", ad.Name(), err)
			return
		}
		perAdapter[i] = a.normalizer.Normalize(ad.Name(), listings)
		results[i].Count = len(perAdapter[i])
		a.logger.Info("[aggregate] %s: %d listings in %v", ad.Name(), results[i].Count, results[i].Duration.Round(time.Millisecond))
	}

	if a.parallel {
		pool := utils.NewWorkerPool(len(a.adapters))
		for i, ad := range a.adapters {
			i, ad := i, ad
			pool.Submit(func() { runOne(i, ad) })
		}
		pool.Wait()
	} else {
		for i, ad := range a.adapters {
			runOne(i, ad)
		}
	}

	var all []*models.Listing
	for _, listings := range perAdapter {
		all = append(all, listings...)
	}
	return all, results
}

// scrapeOne wraps a single adapter call with the per-adapter timeout and a
// panic guard so no adapter can take down the run.
func (a *Aggregator) scrapeOne(ctx context.Context, ad scraper.Adapter) (listings []*models.Listing, err error) {
	adapterCtx := ctx
	if a.timeout > 0 {
		var cancel context.CancelFunc
		adapterCtx, cancel = context.WithTimeout(ctx, a.timeout)
		defer cancel()
	}

	defer func() {
		if r := recover(); r != nil {
			listings = nil
			err = fmt.Errorf("%s panicked: %v", ad.Name(), r)
		}
	}()

	return ad.Scrape(adapterCtx)
}
