package usecase

import (
	"sort"

	"github.com/kirillkom/personal-reading-tracker/internal/core/domain"
)

// BuildPreferenceProfile derives the weighting model for one recommendation
// call from the library snapshot. Pure: an empty library yields a zero
// profile instead of an error, which callers treat as the cold-start signal.
func BuildPreferenceProfile(books []domain.Book) domain.PreferenceProfile {
	profile := domain.PreferenceProfile{
		GenreWeight:  make(map[string]float64),
		AuthorWeight: make(map[string]float64),
		TagWeight:    make(map[string]float64),
	}
	if len(books) == 0 {
		return profile
	}

	ratings := make([]float64, 0, len(books))
	var ratingSum float64
	for _, book := range books {
		for _, genre := range book.Genres {
			profile.GenreWeight[genre]++
		}
		profile.AuthorWeight[book.Author]++
		for _, tag := range book.Tags {
			// Preference strength ties tagger confidence to how much the
			// user liked the book carrying the tag.
			profile.TagWeight[tag.Name] += tag.Confidence * (book.Rating / 5)
		}
		ratings = append(ratings, book.Rating)
		ratingSum += book.Rating
	}

	profile.TotalBooks = len(books)
	profile.AverageRating = ratingSum / float64(len(books))

	sort.Float64s(ratings)
	q1 := percentile(ratings, 0.25)
	q3 := percentile(ratings, 0.75)
	// Widened by half a star on each side so the band is not overly exclusive.
	profile.RatingBandLow = clamp(q1-0.5, 1, 5)
	profile.RatingBandHigh = clamp(q3+0.5, 1, 5)

	return profile
}

// percentile computes the q-th percentile of sorted values with linear
// interpolation between closest ranks.
func percentile(sorted []float64, q float64) float64 {
	if len(sorted) == 0 {
		return 0
	}
	if len(sorted) == 1 {
		return sorted[0]
	}
	pos := q * float64(len(sorted)-1)
	lo := int(pos)
	if lo >= len(sorted)-1 {
		return sorted[len(sorted)-1]
	}
	frac := pos - float64(lo)
	return sorted[lo] + frac*(sorted[lo+1]-sorted[lo])
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
