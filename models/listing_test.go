package models

import (
	"strings"
	"testing"
)

func TestParsePrice(t *testing.T) {
	tests := []struct {
		raw    string
		want   int
		wantOK bool
	}{
		{"$120,000", 120000, true},
		{"$50,000", 50000, true},
		{"$1,200,000", 1200000, true},
		{"250000", 250000, true},
		{"Contact broker", 0, false},
		{"", 0, false},
		{"$", 0, false},
	}

	for _, tt := range tests {
		got, ok := ParsePrice(tt.raw)
		if got != tt.want || ok != tt.wantOK {
			t.Errorf("ParsePrice(%q) = (%d, %v); want (%d, %v)", tt.raw, got, ok, tt.want, tt.wantOK)
		}
	}
}

func TestFormatPrice(t *testing.T) {
	tests := []struct {
		amount int
		want   string
	}{
		{120000, "$120,000"},
		{1200000, "$1,200,000"},
		{999, "$999"},
		{1000, "$1,000"},
		{0, "$0"},
		{-5, "$0"},
	}

	for _, tt := range tests {
		if got := FormatPrice(tt.amount); got != tt.want {
			t.Errorf("FormatPrice(%d) = %q; want %q", tt.amount, got, tt.want)
		}
	}
}

func TestFormatParseRoundTrip(t *testing.T) {
	for _, amount := range []int{1, 999, 1000, 50000, 5000000, 123456789} {
		got, ok := ParsePrice(FormatPrice(amount))
		if !ok || got != amount {
			t.Errorf("ParsePrice(FormatPrice(%d)) = (%d, %v)", amount, got, ok)
		}
	}
}

func TestTruncateDescriptionBound(t *testing.T) {
	long := strings.Repeat("a", 500)
	got := TruncateDescription(long)

	if len([]rune(got)) > MaxDescriptionRunes+len([]rune(TruncationMarker)) {
		t.Errorf("truncated length %d exceeds bound", len([]rune(got)))
	}
	if !strings.HasSuffix(got, TruncationMarker) {
		t.Errorf("expected truncation marker suffix, got %q", got[len(got)-10:])
	}
}

func TestTruncateDescriptionShortUnchanged(t *testing.T) {
	short := "Established plumbing business with loyal customer base."
	if got := TruncateDescription(short); got != short {
		t.Errorf("short description modified: %q", got)
	}
}

func TestTruncateDescriptionMultibyteSafe(t *testing.T) {
	// 300 multibyte runes; a byte-indexed cut would corrupt the encoding.
	long := strings.Repeat("é", 300)
	got := TruncateDescription(long)

	if !strings.HasPrefix(got, strings.Repeat("é", MaxDescriptionRunes)) {
		t.Error("truncation corrupted multibyte text")
	}
	if len([]rune(got)) != MaxDescriptionRunes+len([]rune(TruncationMarker)) {
		t.Errorf("unexpected rune count %d", len([]rune(got)))
	}
}
