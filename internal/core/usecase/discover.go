package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/kirillkom/personal-reading-tracker/internal/core/domain"
	"github.com/kirillkom/personal-reading-tracker/internal/core/ports"
)

// DiscoverUseCase serves the free-text search surface backed by the LLM
// recommender. A parse failure or unavailable model yields an empty batch,
// never an error; only an invalid query is rejected.
type DiscoverUseCase struct {
	recommender ports.BookRecommender
	library     ports.LibraryRepository
	recLog      ports.RecommendationLog
	now         func() time.Time
}

func NewDiscoverUseCase(
	recommender ports.BookRecommender,
	library ports.LibraryRepository,
	recLog ports.RecommendationLog,
) *DiscoverUseCase {
	return &DiscoverUseCase{
		recommender: recommender,
		library:     library,
		recLog:      recLog,
		now:         time.Now,
	}
}

func (uc *DiscoverUseCase) Discover(ctx context.Context, query string) ([]domain.Candidate, error) {
	if strings.TrimSpace(query) == "" {
		return nil, domain.WrapError(domain.ErrInvalidInput, "discover", fmt.Errorf("query is required"))
	}

	library, err := uc.library.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("load library: %w", err)
	}

	raws, err := uc.recommender.Recommend(ctx, query, library)
	if err != nil {
		if domain.IsProviderFault(err) {
			slog.Warn("discover: recommender degraded to empty result", "error", err)
			return []domain.Candidate{}, nil
		}
		return nil, fmt.Errorf("llm recommend: %w", err)
	}

	rejected, err := uc.recLog.RejectedIDs(ctx)
	if err != nil {
		slog.Warn("discover: rejected history unavailable", "error", err)
	}
	exclusions := BuildExclusionSet(library, rejected, nil)
	profile := BuildPreferenceProfile(library)

	candidates := NormalizeAll(raws)
	scored := candidates[:0]
	for _, candidate := range candidates {
		score, reasons := ScoreCandidate(candidate, profile, uc.now())
		if score <= 0 {
			continue
		}
		candidate.Score = score
		candidate.Reasons = reasons
		scored = append(scored, candidate)
	}
	return AssembleBatch(scored, exclusions, domain.RecommendationBatchSize), nil
}
