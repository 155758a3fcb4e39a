package services

import (
	"fmt"
	"sort"
	"strings"

	"github.com/bramsey123/Deal-Scout/models"
	"github.com/bramsey123/Deal-Scout/utils"
)

// RunInsights summarizes one aggregation pass: how much each source
// contributed and what the priced deals look like.
type RunInsights struct {
	TotalListings    int
	BySource         map[string]int
	PricedListings   int
	AveragePrice     int
	MinPrice         int
	MaxPrice         int
	MostExpensive    *models.Listing
	ListingsByRegion map[string]int
}

// InsightService computes and prints run insights.
type InsightService struct {
	logger *utils.Logger
}

// NewInsightService creates an InsightService with the given logger.
func NewInsightService(logger *utils.Logger) *InsightService {
	return &InsightService{logger: logger}
}

// Generate computes insights over the aggregated listings. Listings with
// an unparseable price contribute to counts but not to price statistics.
func (s *InsightService) Generate(listings []*models.Listing) *RunInsights {
	report := &RunInsights{
		BySource:         make(map[string]int),
		ListingsByRegion: make(map[string]int),
	}

	if len(listings) == 0 {
		return report
	}

	report.TotalListings = len(listings)

	var total int
	for _, l := range listings {
		report.BySource[l.Source]++
		if l.Location != "" {
			report.ListingsByRegion[l.Location]++
		}

		price, ok := models.ParsePrice(l.Price)
		if !ok {
			continue
		}
		report.PricedListings++
		total += price
		if report.MinPrice == 0 || price < report.MinPrice {
			report.MinPrice = price
		}
		if price > report.MaxPrice {
			report.MaxPrice = price
			report.MostExpensive = l
		}
	}

	if report.PricedListings > 0 {
		report.AveragePrice = total / report.PricedListings
	}

	return report
}

// Print renders the insights to stdout.
func (s *InsightService) Print(r *RunInsights) {
	sep := strings.Repeat("═", 54)
	thin := strings.Repeat("─", 54)

	fmt.Printf("\n\033[1;35m%s\033[0m\n", sep)
	fmt.Printf("\033[1;35m  DEAL SCOUT RUN INSIGHTS\033[0m\n")
	fmt.Printf("\033[1;35m%s\033[0m\n\n", sep)

	fmt.Printf("\033[1;33m  Overview\033[0m\n")
	fmt.Printf("  %s\n", thin)
	fmt.Printf("  Total listings aggregated : \033[1m%d\033[0m\n", r.TotalListings)
	for _, source := range sortedKeys(r.BySource) {
		fmt.Printf("  %-25s : \033[1m%d\033[0m\n", source, r.BySource[source])
	}
	fmt.Println()

	fmt.Printf("\033[1;33m  Asking Price Statistics\033[0m\n")
	fmt.Printf("  %s\n", thin)
	if r.PricedListings > 0 {
		fmt.Printf("  Priced listings : \033[1m%d\033[0m\n", r.PricedListings)
		fmt.Printf("  Average price   : \033[1;32m%s\033[0m\n", models.FormatPrice(r.AveragePrice))
		fmt.Printf("  Minimum price   : \033[1;32m%s\033[0m\n", models.FormatPrice(r.MinPrice))
		fmt.Printf("  Maximum price   : \033[1;32m%s\033[0m\n", models.FormatPrice(r.MaxPrice))
	} else {
		fmt.Printf("  No price data available\n")
	}
	fmt.Println()

	if r.MostExpensive != nil {
		fmt.Printf("\033[1;33m  Largest Deal\033[0m\n")
		fmt.Printf("  %s\n", thin)
		fmt.Printf("  %s\n", truncate(r.MostExpensive.Title, 50))
		if r.MostExpensive.Location != "" {
			fmt.Printf("  Location : %s\n", r.MostExpensive.Location)
		}
		fmt.Printf("  Asking   : \033[1;31m%s\033[0m\n", r.MostExpensive.Price)
		fmt.Println()
	}

	fmt.Printf("\033[1;33m  Listings by Location\033[0m\n")
	fmt.Printf("  %s\n", thin)
	if len(r.ListingsByRegion) == 0 {
		fmt.Printf("  No location data\n")
	} else {
		type locCount struct {
			loc   string
			count int
		}
		var locs []locCount
		for loc, cnt := range r.ListingsByRegion {
			locs = append(locs, locCount{loc, cnt})
		}
		sort.Slice(locs, func(i, j int) bool {
			if locs[i].count != locs[j].count {
				return locs[i].count > locs[j].count
			}
			return locs[i].loc < locs[j].loc
		})
		for _, lc := range locs {
			bar := strings.Repeat("█", lc.count)
			fmt.Printf("  %-30s %s (%d)\n", truncate(lc.loc, 28), bar, lc.count)
		}
	}

	fmt.Printf("\n\033[1;35m%s\033[0m\n\n", sep)
}

func sortedKeys(m map[string]int) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func truncate(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max-3]) + "..."
}
