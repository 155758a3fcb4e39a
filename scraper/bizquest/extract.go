package bizquest

import (
	"net/url"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// containerSelectors are tried in priority order against the result page;
// the first one that matches at least one element wins.
var containerSelectors = []string{
	`div[data-listing-id]`,
	`div[class*="listing-card"]`,
	`div[class*="listing"]`,
	`div[class*="result-item"]`,
	`article[class*="result"]`,
}

// containerKeywords drive the generic fallback: any div/article/li whose
// class attribute mentions one of these is treated as a candidate container.
var containerKeywords = []string{"listing", "result", "business", "opportunity", "card"}

var (
	priceRe = regexp.MustCompile(`\$[\d,]+`)
	// cityStateRe matches "Houston, TX" style runs. The city part is one
	// to three capitalized words so surrounding prose is not swallowed.
	cityStateRe = regexp.MustCompile(`\b([A-Z][a-z.\-']+(?: [A-Z][a-z.\-']+){0,2}),\s*([A-Z]{2})\b`)
	// stateCodeRe matches a bare 2-letter state code as its own word.
	stateCodeRe = regexp.MustCompile(`\b(TX|OK|LA|NM|AR|AZ|CA|FL|GA|NY|CO)\b`)
)

// knownPlaces covers markets the pipeline targets; matched case-insensitively
// when no city/state pattern is found.
var knownPlaces = []string{"Houston", "Dallas", "Austin", "San Antonio", "Fort Worth", "Texas"}

// SelectContainers finds listing containers in a results document, trying
// the prioritized selectors first and falling back to the keyword
// heuristic. At most max containers are returned.
func SelectContainers(doc *goquery.Document, max int) []*goquery.Selection {
	for _, sel := range containerSelectors {
		if found := doc.Find(sel); found.Length() > 0 {
			return firstN(found, max)
		}
	}

	// Heuristic fallback: containers whose class hints at listings.
	matched := doc.Find("div, article, li").FilterFunction(func(_ int, s *goquery.Selection) bool {
		class, _ := s.Attr("class")
		class = strings.ToLower(class)
		for _, kw := range containerKeywords {
			if strings.Contains(class, kw) {
				return true
			}
		}
		return false
	})
	return firstN(matched, max)
}

func firstN(sel *goquery.Selection, n int) []*goquery.Selection {
	var out []*goquery.Selection
	sel.EachWithBreak(func(i int, s *goquery.Selection) bool {
		if i >= n {
			return false
		}
		out = append(out, s)
		return true
	})
	return out
}

// ExtractTitle pulls a human-readable title out of one listing container.
// Priority: an anchor whose class suggests a title, then any heading, then
// any anchor; the first with at least minLen characters of text wins.
// The second return value is the element's href when the winner is a link.
func ExtractTitle(container *goquery.Selection, minLen int) (title, href string) {
	candidates := []string{`a[class*="title"]`, "h1, h2, h3, h4", "a"}

	for _, sel := range candidates {
		var found *goquery.Selection
		container.Find(sel).EachWithBreak(func(_ int, s *goquery.Selection) bool {
			if len(strings.TrimSpace(s.Text())) >= minLen {
				found = s
				return false
			}
			return true
		})
		if found == nil {
			continue
		}

		title = collapseWhitespace(found.Text())
		if goquery.NodeName(found) == "a" {
			href, _ = found.Attr("href")
		}
		return title, href
	}

	return "", ""
}

// ResolveURL turns a possibly-relative href into an absolute URL against
// the source's base origin. Unparseable inputs yield "".
func ResolveURL(base *url.URL, href string) string {
	href = strings.TrimSpace(href)
	if href == "" || base == nil {
		return ""
	}
	ref, err := url.Parse(href)
	if err != nil {
		return ""
	}
	return base.ResolveReference(ref).String()
}

// ExtractPrice finds the first currency-prefixed number in the container
// text, e.g. "$250,000". Returns "" when no price is present.
func ExtractPrice(text string) string {
	return priceRe.FindString(text)
}

// ExtractLocation finds the first location-looking run of text: a
// "City, ST" composite, a bare state code, or a known place name.
func ExtractLocation(text string) string {
	if m := cityStateRe.FindString(text); m != "" {
		return collapseWhitespace(m)
	}
	if m := stateCodeRe.FindString(text); m != "" {
		return m
	}
	lower := strings.ToLower(text)
	for _, place := range knownPlaces {
		if strings.Contains(lower, strings.ToLower(place)) {
			return place
		}
	}
	return ""
}

func collapseWhitespace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
