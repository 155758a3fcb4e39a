package dealstream

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/bramsey123/Deal-Scout/models"
)

const (
	// minTitleLen is the quality filter: shorter titles are navigation
	// noise ("Home", "Login"), not listings.
	minTitleLen = 6

	titleSuffix = " - DealStream"
)

// searchResultsPage mirrors the JSON-LD a DealStream results page embeds.
type searchResultsPage struct {
	Type  string `json:"@type"`
	About []struct {
		Item productItem `json:"item"`
	} `json:"about"`
}

type productItem struct {
	Type        string      `json:"@type"`
	Name        string      `json:"name"`
	URL         string      `json:"url"`
	Description string      `json:"description"`
	Offers      *offerBlock `json:"offers"`
}

type offerBlock struct {
	Price             offerPrice `json:"price"`
	AvailableAtOrFrom *struct {
		Address postalAddress `json:"address"`
	} `json:"availableAtOrFrom"`
}

// offerPrice absorbs the shapes schema.org allows for a price: a bare
// number or a numeric string. Anything else decodes to the empty value
// so one odd offer never fails the enclosing page unmarshal.
type offerPrice struct {
	raw json.Number
}

func (p *offerPrice) UnmarshalJSON(data []byte) error {
	var n json.Number
	if err := json.Unmarshal(data, &n); err == nil {
		p.raw = n
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		p.raw = json.Number(strings.TrimSpace(s))
		return nil
	}
	p.raw = ""
	return nil
}

type postalAddress struct {
	Locality string `json:"addressLocality"`
	Region   string `json:"addressRegion"`
}

// ParseSearchResults extracts canonical listings from the JSON-LD blocks of
// a rendered search-results page. Malformed blocks and non-product items
// are skipped; a page with no usable structured data yields an empty slice,
// never an error.
func ParseSearchResults(html string, now time.Time) []*models.Listing {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil
	}

	var listings []*models.Listing

	doc.Find(`script[type="application/ld+json"]`).Each(func(_ int, s *goquery.Selection) {
		var page searchResultsPage
		if err := json.Unmarshal([]byte(s.Text()), &page); err != nil {
			return
		}
		if page.Type != "SearchResultsPage" {
			return
		}

		for _, wrapper := range page.About {
			if l := listingFromProduct(wrapper.Item, now); l != nil {
				listings = append(listings, l)
			}
		}
	})

	return listings
}

func listingFromProduct(item productItem, now time.Time) *models.Listing {
	if item.Type != "Product" {
		return nil
	}

	title := strings.TrimSuffix(strings.TrimSpace(item.Name), titleSuffix)
	if item.URL == "" || len(title) < minTitleLen {
		return nil
	}

	l := &models.Listing{
		Source:      Source,
		Title:       title,
		URL:         item.URL,
		Description: models.TruncateDescription(item.Description),
		ScrapedAt:   now,
	}

	if item.Offers != nil {
		l.Price = formatOfferPrice(item.Offers.Price)
		l.Location = formatAddress(item.Offers)
	}

	return l
}

// formatOfferPrice renders a JSON-LD offer price as "$1,200,000".
// Zero, negative, and non-numeric prices come back as "" (unknown).
func formatOfferPrice(price offerPrice) string {
	if amount, err := price.raw.Int64(); err == nil {
		if amount <= 0 {
			return ""
		}
		return models.FormatPrice(int(amount))
	}
	if f, err := price.raw.Float64(); err == nil && f > 0 {
		return models.FormatPrice(int(f))
	}
	return ""
}

// formatAddress prefers "city, region", falls back to region alone, and
// returns "" when neither is present.
func formatAddress(offers *offerBlock) string {
	if offers.AvailableAtOrFrom == nil {
		return ""
	}
	city := strings.TrimSpace(offers.AvailableAtOrFrom.Address.Locality)
	region := strings.TrimSpace(offers.AvailableAtOrFrom.Address.Region)
	switch {
	case city != "" && region != "":
		return city + ", " + region
	case region != "":
		return region
	default:
		return ""
	}
}
