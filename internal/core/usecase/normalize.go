package usecase

import (
	"strings"
	"unicode/utf8"

	"golang.org/x/net/html"

	"github.com/kirillkom/personal-reading-tracker/internal/core/domain"
)

const (
	unknownTitle  = "Unknown Title"
	unknownAuthor = "Unknown Author"
	defaultGenre  = "General"

	// neutralRating keeps un-rated external candidates from being zeroed out
	// by the quality factor downstream.
	neutralRating = 4.0

	summaryMaxChars = 400
)

// Normalize converts a provider-specific record into the canonical candidate
// shape. It is deterministic: the same raw record always yields the same
// candidate, including the synthesized ID.
func Normalize(raw domain.RawCandidate) domain.Candidate {
	title := strings.TrimSpace(raw.Title)
	if title == "" {
		title = unknownTitle
	}
	author := strings.TrimSpace(raw.Author)
	if author == "" {
		author = unknownAuthor
	}

	id := strings.TrimSpace(raw.ExternalID)
	if id == "" {
		id = raw.SourceProviderID + ":" + slugify(title)
	}

	genres := make([]string, 0, len(raw.Genres))
	for _, g := range raw.Genres {
		g = strings.TrimSpace(g)
		if g != "" {
			genres = append(genres, g)
		}
	}
	if len(genres) == 0 {
		genres = []string{defaultGenre}
	}

	rating := raw.Rating
	if rating <= 0 {
		rating = neutralRating
	}
	if rating > 5 {
		rating = 5
	}

	return domain.Candidate{
		Book: domain.Book{
			ID:       id,
			Title:    title,
			Author:   author,
			Genres:   genres,
			Rating:   rating,
			Year:     raw.Year,
			ISBN:     raw.ISBN,
			Tags:     raw.Tags,
			Summary:  truncateAtSentence(stripMarkup(raw.Description), summaryMaxChars),
			CoverURL: raw.CoverURL,
		},
		SourceProviderID: raw.SourceProviderID,
	}
}

// NormalizeAll maps a provider batch and drops records that stayed unknown
// after normalization; a book with an unknown title must never be surfaced.
func NormalizeAll(raws []domain.RawCandidate) []domain.Candidate {
	out := make([]domain.Candidate, 0, len(raws))
	for _, raw := range raws {
		c := Normalize(raw)
		if c.Title == unknownTitle || c.Author == unknownAuthor {
			continue
		}
		out = append(out, c)
	}
	return out
}

func slugify(s string) string {
	var b strings.Builder
	lastDash := true
	for _, r := range strings.ToLower(s) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			lastDash = false
		default:
			if !lastDash {
				b.WriteByte('-')
				lastDash = true
			}
		}
	}
	return strings.TrimRight(b.String(), "-")
}

// stripMarkup drops tags from HTML-bearing description text and collapses
// the remaining whitespace.
func stripMarkup(s string) string {
	if s == "" {
		return ""
	}
	if !strings.ContainsRune(s, '<') {
		return strings.Join(strings.Fields(s), " ")
	}

	var b strings.Builder
	tokenizer := html.NewTokenizer(strings.NewReader(s))
	for {
		tt := tokenizer.Next()
		if tt == html.ErrorToken {
			break
		}
		if tt == html.TextToken {
			b.WriteString(tokenizer.Token().Data)
			b.WriteByte(' ')
		}
	}
	return strings.Join(strings.Fields(b.String()), " ")
}

// truncateAtSentence bounds s to max characters, preferring a sentence
// boundary and falling back to a word boundary. It never cuts mid-word.
func truncateAtSentence(s string, max int) string {
	if len(s) <= max {
		return s
	}
	cut := s[:max]
	if idx := strings.LastIndex(cut, ". "); idx > 0 {
		return cut[:idx+1]
	}
	if idx := strings.LastIndexByte(cut, '.'); idx > 0 {
		return cut[:idx+1]
	}
	if idx := strings.LastIndexByte(cut, ' '); idx > 0 {
		return cut[:idx] + "…"
	}
	// No sentence or word boundary in the window; back up to a rune boundary
	// so multi-byte text is never cut mid-rune.
	for max > 0 && !utf8.RuneStart(s[max]) {
		max--
	}
	return s[:max]
}
