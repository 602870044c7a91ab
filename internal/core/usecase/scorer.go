package usecase

import (
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/kirillkom/personal-reading-tracker/internal/core/domain"
)

// Factor caps. With a full single genre/tag set realized they sum to 100, so
// no single factor dominates the final score.
const (
	genreFactorMax   = 25.0
	tagFactorMax     = 20.0
	authorFactorMax  = 20.0
	bandFactorMax    = 20.0
	qualityFactorMax = 10.0
	recencyFactorMax = 5.0

	recencyWindowYears = 20
	maxReasons         = 3
)

type factorContribution struct {
	points float64
	reason string
}

// ScoreCandidate rates a candidate against the profile on a 0-100 scale and
// returns the top contributing factors as human-readable reasons. The raw
// weighted sum is normalized by the candidate's own achievable maximum, so a
// single-genre candidate competes on equal footing with a three-genre one.
// Deterministic given identical inputs. A zero score means "matches nothing"
// and must be filtered by the caller, never ranked last.
func ScoreCandidate(c domain.Candidate, profile domain.PreferenceProfile, now time.Time) (int, []string) {
	var contributions []factorContribution
	var raw, ceiling float64

	if !profile.Empty() {
		totalGenre := weightTotal(profile.GenreWeight)
		if totalGenre > 0 && len(c.Genres) > 0 {
			ceiling += genreFactorMax
			var points float64
			best := ""
			bestShare := 0.0
			for _, genre := range c.Genres {
				share := profile.GenreWeight[genre] / totalGenre
				points += genreFactorMax * share
				if share > bestShare {
					bestShare = share
					best = genre
				}
			}
			if points > genreFactorMax {
				points = genreFactorMax
			}
			if points > 0 {
				raw += points
				contributions = append(contributions, factorContribution{
					points: points,
					reason: fmt.Sprintf("matches your interest in %s", best),
				})
			}
		}

		totalTag := weightTotal(profile.TagWeight)
		if totalTag > 0 && len(c.Tags) > 0 {
			ceiling += tagFactorMax
			var points float64
			best := ""
			bestPart := 0.0
			for _, tag := range c.Tags {
				part := (profile.TagWeight[tag.Name] / totalTag) * tag.Confidence
				points += tagFactorMax * part
				if part > bestPart {
					bestPart = part
					best = tag.Name
				}
			}
			if points > tagFactorMax {
				points = tagFactorMax
			}
			if points > 0 {
				raw += points
				contributions = append(contributions, factorContribution{
					points: points,
					reason: fmt.Sprintf("shares themes you enjoy: %s", best),
				})
			}
		}

		ceiling += authorFactorMax
		if share := profile.AuthorWeight[c.Author] / float64(profile.TotalBooks); share > 0 {
			points := authorFactorMax * share
			raw += points
			contributions = append(contributions, factorContribution{
				points: points,
				reason: fmt.Sprintf("by %s, an author you have read", c.Author),
			})
		}

		ceiling += bandFactorMax
		if points := ratingBandFit(c.Rating, profile); points > 0 {
			raw += points
			contributions = append(contributions, factorContribution{
				points: points,
				reason: "fits the rating range you enjoy",
			})
		}
	}

	ceiling += qualityFactorMax
	if c.Rating > 0 {
		points := qualityFactorMax * (c.Rating / 5)
		raw += points
		reason := "solidly rated"
		if c.Rating >= 4.2 {
			reason = "highly rated"
		}
		contributions = append(contributions, factorContribution{points: points, reason: reason})
	}

	if c.Year > 0 {
		ceiling += recencyFactorMax
		age := now.Year() - c.Year
		if age >= 0 && age < recencyWindowYears {
			points := recencyFactorMax * (1 - float64(age)/recencyWindowYears)
			raw += points
			contributions = append(contributions, factorContribution{points: points, reason: "recent release"})
		}
	}

	if ceiling <= 0 || raw <= 0 {
		return 0, nil
	}

	score := int(math.Round(100 * raw / ceiling))
	if score > 100 {
		score = 100
	}
	if score < 1 {
		// Any positive contribution keeps the candidate above the hard filter.
		score = 1
	}

	sort.SliceStable(contributions, func(i, j int) bool {
		return contributions[i].points > contributions[j].points
	})
	reasons := make([]string, 0, maxReasons)
	for _, contribution := range contributions {
		if len(reasons) == maxReasons {
			break
		}
		reasons = append(reasons, contribution.reason)
	}
	return score, reasons
}

// ratingBandFit gives full credit at the user's average rating, decays
// linearly toward the band edges, and gives nothing outside the band.
func ratingBandFit(rating float64, profile domain.PreferenceProfile) float64 {
	if rating < profile.RatingBandLow || rating > profile.RatingBandHigh {
		return 0
	}
	span := math.Max(profile.RatingBandHigh-profile.AverageRating, profile.AverageRating-profile.RatingBandLow)
	if span <= 0 {
		return bandFactorMax
	}
	distance := math.Abs(rating - profile.AverageRating)
	fit := 1 - distance/span
	if fit < 0 {
		fit = 0
	}
	return bandFactorMax * fit
}

func weightTotal(weights map[string]float64) float64 {
	var total float64
	for _, w := range weights {
		total += w
	}
	return total
}
