package usecase

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/kirillkom/personal-reading-tracker/internal/core/domain"
)

// GetReplacement finds one substitute for a rejected candidate through a
// three-tier fallback. Each tier returns as soon as it yields an acceptable
// candidate. A nil result with nil error means every tier was exhausted; the
// caller removes the rejected item without a replacement.
func (uc *RecommendUseCase) GetReplacement(
	ctx context.Context,
	rejected domain.Candidate,
	currentBatch []domain.Candidate,
) (*domain.Candidate, error) {
	library, err := uc.library.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("load library: %w", err)
	}
	rejectedIDs, err := uc.recLog.RejectedIDs(ctx)
	if err != nil {
		slog.Warn("replacement: rejected history unavailable", "error", err)
	}
	exclusions := BuildExclusionSet(library, rejectedIDs, nil)
	profile := BuildPreferenceProfile(library)

	batchIDs := make(map[string]struct{}, len(currentBatch)+1)
	batchKeys := make(map[string]struct{}, len(currentBatch)+1)
	batchIDs[rejected.ID] = struct{}{}
	batchKeys[IdentityKey(rejected.Title, rejected.Author)] = struct{}{}
	for _, member := range currentBatch {
		batchIDs[member.ID] = struct{}{}
		batchKeys[IdentityKey(member.Title, member.Author)] = struct{}{}
	}

	batchAuthors := make(map[string]int, len(currentBatch))
	for _, member := range currentBatch {
		if member.ID == rejected.ID {
			continue
		}
		batchAuthors[NormalizeAuthor(member.Author)]++
	}

	acceptable := func(c domain.Candidate) bool {
		if Excluded(c, exclusions) {
			return false
		}
		if _, ok := batchIDs[c.ID]; ok {
			return false
		}
		_, ok := batchKeys[IdentityKey(c.Title, c.Author)]
		return !ok
	}

	// pick enforces the author cap against the surviving batch. An author not
	// in the batch wins immediately; a first duplicate is held back and only
	// used when no tier finds anything better, mirroring the assembly cap
	// relaxing from one to two per author.
	var relaxed *domain.Candidate
	pick := func(c domain.Candidate) *domain.Candidate {
		switch batchAuthors[NormalizeAuthor(c.Author)] {
		case 0:
			return &c
		case 1:
			if relaxed == nil {
				held := c
				relaxed = &held
			}
		}
		return nil
	}

	// Tier 1: same genre as the rejected candidate, with a quality floor.
	if replacement := uc.replaceByGenre(ctx, rejected.PrimaryGenre(), profile, acceptable, pick); replacement != nil {
		return replacement, nil
	}

	// Tier 2: similarity to up to two favorites, first match per favorite.
	for _, favorite := range topFavorites(library, uc.tunables.FavoriteMinRating, 2) {
		raws, err := uc.search.Search(ctx, domain.SearchQuery{Subject: favorite.PrimaryGenre(), Limit: 10})
		if err != nil {
			slog.Warn("replacement: similarity search failed", "favorite", favorite.Title, "error", err)
			uc.observeProviderFailure("search")
			continue
		}
		favoriteAuthor := NormalizeAuthor(favorite.Author)
		for _, candidate := range NormalizeAll(raws) {
			if NormalizeAuthor(candidate.Author) == favoriteAuthor || !acceptable(candidate) {
				continue
			}
			score, reasons := ScoreCandidate(candidate, profile, uc.now())
			if score <= 0 {
				continue
			}
			candidate.Score = score
			candidate.Reasons = reasons
			candidate.SimilarToTitle = favorite.Title
			if chosen := pick(candidate); chosen != nil {
				return chosen, nil
			}
		}
	}

	// Tier 3: bestsellers in one of the user's genres, or fiction without any.
	genre := uc.pickGenre(profile)
	raws, err := uc.bestsellers.ListByCategory(ctx, genre)
	if err != nil {
		slog.Warn("replacement: bestseller feed failed", "genre", genre, "error", err)
		uc.observeProviderFailure("bestseller")
		return relaxed, nil
	}
	for _, candidate := range NormalizeAll(raws) {
		if !acceptable(candidate) {
			continue
		}
		prefScore, prefReasons := ScoreCandidate(candidate, profile, uc.now())
		candidate.Score = popularityScore(bestsellerBaseScore, prefScore)
		candidate.Reasons = appendReasons([]string{"popular in " + genre}, prefReasons)
		if chosen := pick(candidate); chosen != nil {
			return chosen, nil
		}
	}
	return relaxed, nil
}

func (uc *RecommendUseCase) replaceByGenre(
	ctx context.Context,
	genre string,
	profile domain.PreferenceProfile,
	acceptable func(domain.Candidate) bool,
	pick func(domain.Candidate) *domain.Candidate,
) *domain.Candidate {
	if genre == "" {
		return nil
	}
	raws, err := uc.search.Search(ctx, domain.SearchQuery{Subject: genre, Limit: 10})
	if err != nil {
		slog.Warn("replacement: genre search failed", "genre", genre, "error", err)
		uc.observeProviderFailure("search")
		return nil
	}
	for _, candidate := range NormalizeAll(raws) {
		if candidate.Rating < uc.tunables.ReplacementMinRating || !acceptable(candidate) {
			continue
		}
		score, reasons := ScoreCandidate(candidate, profile, uc.now())
		if score <= 0 {
			continue
		}
		candidate.Score = score
		candidate.Reasons = reasons
		if chosen := pick(candidate); chosen != nil {
			return chosen
		}
	}
	return nil
}

// pickGenre chooses a represented genre with the seeded PRNG, over a sorted
// genre list so a fixed seed picks reproducibly.
func (uc *RecommendUseCase) pickGenre(profile domain.PreferenceProfile) string {
	genres := topGenres(profile, len(profile.GenreWeight))
	if len(genres) == 0 {
		return "fiction"
	}
	uc.mu.Lock()
	defer uc.mu.Unlock()
	return genres[uc.rng.Intn(len(genres))]
}
