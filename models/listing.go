package models

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

// Listing is the canonical record every source adapter produces.
// Title and Source are always set; the remaining string fields use the
// empty string to mean "unknown" so downstream stages can omit them
// instead of writing blanks into the destination store.
type Listing struct {
	Source      string
	Title       string
	URL         string
	Price       string
	Location    string
	Description string
	ScrapedAt   time.Time
}

// FilterCriteria controls which listings survive the filter stage.
// A zero price bound means "no bound on that side"; an empty location
// list lets every listing through the location check.
type FilterCriteria struct {
	MinPrice          int
	MaxPrice          int
	RequiredLocations []string
}

// Description length is bounded on every listing; truncation appends the
// marker and always cuts on a rune boundary.
const (
	MaxDescriptionRunes = 200
	TruncationMarker    = "..."
)

// TruncateDescription enforces the description bound.
func TruncateDescription(desc string) string {
	runes := []rune(desc)
	if len(runes) <= MaxDescriptionRunes {
		return desc
	}
	return string(runes[:MaxDescriptionRunes]) + TruncationMarker
}

var priceDigits = regexp.MustCompile(`\d[\d,]*`)

// ParsePrice extracts the integer magnitude from a formatted price string
// such as "$1,200,000". The second return value is false when the string
// contains no parseable number.
func ParsePrice(raw string) (int, bool) {
	match := priceDigits.FindString(raw)
	if match == "" {
		return 0, false
	}
	n, err := strconv.Atoi(strings.ReplaceAll(match, ",", ""))
	if err != nil {
		return 0, false
	}
	return n, true
}

// FormatPrice renders an integer dollar amount the way listings carry it,
// with a currency prefix and thousands separators ("$1,200,000").
func FormatPrice(amount int) string {
	if amount < 0 {
		amount = 0
	}
	s := strconv.Itoa(amount)
	var b strings.Builder
	b.WriteByte('$')
	for i, d := range s {
		if i > 0 && (len(s)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(d)
	}
	return b.String()
}
