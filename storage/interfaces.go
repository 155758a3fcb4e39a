package storage

import (
	"context"

	"github.com/bramsey123/Deal-Scout/models"
)

// NaturalKey identifies the "same" logical listing across runs. URL is the
// preferred key when the source provides one; source+title is the fallback
// for feeds that carry no links.
type NaturalKey struct {
	URL    string
	Source string
	Title  string
}

// KeyFor derives the natural key for a listing.
func KeyFor(l *models.Listing) NaturalKey {
	if l.URL != "" {
		return NaturalKey{URL: l.URL}
	}
	return NaturalKey{Source: l.Source, Title: l.Title}
}

// String renders a stable form usable as a set member.
func (k NaturalKey) String() string {
	if k.URL != "" {
		return "url:" + k.URL
	}
	return "st:" + k.Source + "\x1f" + k.Title
}

// DealStore is the destination for qualifying listings. Implementations
// must tolerate unknown fields in Insert and answer existence checks by
// natural key so the sync engine can stay idempotent across runs.
type DealStore interface {
	Insert(ctx context.Context, fields map[string]string) error
	Exists(ctx context.Context, key NaturalKey) (bool, error)
	Close() error
}

// RawListingWriter persists the pre-filter listing snapshot for auditing.
type RawListingWriter interface {
	WriteRaw(listings []*models.Listing) error
	Close() error
}
