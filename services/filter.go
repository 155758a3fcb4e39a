package services

import (
	"strings"

	"github.com/bramsey123/Deal-Scout/models"
)

// Filter applies the price-range and location predicates over the unified
// listing sequence. Surviving listings keep their input order.
//
// Price policy: listings with an absent or unparseable price bypass the
// price check entirely ("unknown price passes"). Bounds are inclusive.
//
// Location policy: when the criteria name required locations, a listing
// must contain one of them (case-insensitive) in its location or title;
// a listing with no location text and no matching title is excluded.
func Filter(listings []*models.Listing, criteria models.FilterCriteria) []*models.Listing {
	out := make([]*models.Listing, 0, len(listings))
	for _, l := range listings {
		if !passesPrice(l, criteria) {
			continue
		}
		if !matchesLocation(l, criteria) {
			continue
		}
		out = append(out, l)
	}
	return out
}

func passesPrice(l *models.Listing, c models.FilterCriteria) bool {
	if c.MinPrice == 0 && c.MaxPrice == 0 {
		return true
	}
	price, ok := models.ParsePrice(l.Price)
	if !ok {
		return true
	}
	if c.MinPrice > 0 && price < c.MinPrice {
		return false
	}
	if c.MaxPrice > 0 && price > c.MaxPrice {
		return false
	}
	return true
}

func matchesLocation(l *models.Listing, c models.FilterCriteria) bool {
	if len(c.RequiredLocations) == 0 {
		return true
	}
	location := strings.ToLower(l.Location)
	title := strings.ToLower(l.Title)
	for _, required := range c.RequiredLocations {
		req := strings.ToLower(required)
		if strings.Contains(location, req) || strings.Contains(title, req) {
			return true
		}
	}
	return false
}
