package usecase

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/kirillkom/personal-reading-tracker/internal/core/domain"
)

func TestNormalizeSynthesizesStableID(t *testing.T) {
	raw := domain.RawCandidate{
		SourceProviderID: "bestsellers",
		Title:            "The Name of the Wind",
		Author:           "Patrick Rothfuss",
	}

	first := Normalize(raw)
	second := Normalize(raw)

	if first.ID != second.ID {
		t.Fatalf("expected identical IDs, got %q and %q", first.ID, second.ID)
	}
	if first.ID != "bestsellers:the-name-of-the-wind" {
		t.Fatalf("unexpected synthesized ID %q", first.ID)
	}
}

func TestNormalizePrefersExternalID(t *testing.T) {
	c := Normalize(domain.RawCandidate{
		SourceProviderID: "googlebooks",
		ExternalID:       "vol-42",
		Title:            "Dune",
		Author:           "Frank Herbert",
	})
	if c.ID != "vol-42" {
		t.Fatalf("expected external ID to win, got %q", c.ID)
	}
}

func TestNormalizeDefaults(t *testing.T) {
	c := Normalize(domain.RawCandidate{SourceProviderID: "curated", Title: "Some Book", Author: "Someone"})

	if len(c.Genres) != 1 || c.Genres[0] != defaultGenre {
		t.Fatalf("expected default genre, got %v", c.Genres)
	}
	if c.Rating != neutralRating {
		t.Fatalf("expected neutral rating %.1f, got %.1f", neutralRating, c.Rating)
	}
}

func TestNormalizeAllDropsUnknownRecords(t *testing.T) {
	out := NormalizeAll([]domain.RawCandidate{
		{SourceProviderID: "p", Title: "", Author: "Known Author"},
		{SourceProviderID: "p", Title: "Known Title", Author: ""},
		{SourceProviderID: "p", Title: "Good", Author: "Fine"},
	})
	if len(out) != 1 || out[0].Title != "Good" {
		t.Fatalf("expected only the fully known record to survive, got %v", out)
	}
}

func TestNormalizeStripsMarkupAndTruncatesAtSentence(t *testing.T) {
	long := strings.Repeat("This is a sentence about the plot. ", 30)
	c := Normalize(domain.RawCandidate{
		SourceProviderID: "googlebooks",
		Title:            "Verbose",
		Author:           "Author",
		Description:      "<p><b>" + long + "</b></p>",
	})

	if strings.ContainsAny(c.Summary, "<>") {
		t.Fatalf("markup left in summary: %q", c.Summary)
	}
	if len(c.Summary) > summaryMaxChars {
		t.Fatalf("summary exceeds %d chars: %d", summaryMaxChars, len(c.Summary))
	}
	if !strings.HasSuffix(c.Summary, ".") {
		t.Fatalf("expected truncation at a sentence boundary, got tail %q", c.Summary[len(c.Summary)-10:])
	}
}

func TestTruncateNeverCutsMidWord(t *testing.T) {
	s := strings.Repeat("supercalifragilistic ", 40)
	out := truncateAtSentence(s, 100)
	if len(out) > 101 { // ellipsis may land on the boundary
		t.Fatalf("truncation too long: %d", len(out))
	}
	trimmed := strings.TrimSuffix(out, "…")
	if !strings.HasSuffix(strings.TrimSpace(trimmed), "supercalifragilistic") {
		t.Fatalf("word was cut: %q", out)
	}
}

func TestTruncateBacksUpToRuneBoundary(t *testing.T) {
	s := strings.Repeat("書", 20) // three bytes per rune, no spaces or periods
	out := truncateAtSentence(s, 10)
	if !utf8.ValidString(out) {
		t.Fatalf("truncation produced invalid UTF-8: %q", out)
	}
	if out != strings.Repeat("書", 3) {
		t.Fatalf("expected a 3-rune prefix, got %q", out)
	}
}
