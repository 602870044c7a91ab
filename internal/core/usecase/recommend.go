package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand"
	"sort"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/kirillkom/personal-reading-tracker/internal/core/domain"
	"github.com/kirillkom/personal-reading-tracker/internal/core/ports"
)

// Popularity-driven strategies start from an elevated base score: popularity
// is a weaker but real signal, and the preference boost is layered on top.
const (
	trendingBaseScore   = 60
	bestsellerBaseScore = 55
)

// Tunables are the per-strategy caps of the orchestrator. They are heuristic,
// not derived from a formula, so they stay configurable instead of constant.
type Tunables struct {
	BatchSize             int
	SimilarityFavorites   int     // favorites considered by the similarity strategy
	SimilarityCap         int     // accepted candidates across all favorites combined
	TrendingGenres        int     // genres probed by the trending strategy, one accept each
	MinPoolBeforeFallback int     // pool size below which the general bestseller feed fills in
	FavoriteMinRating     float64 // rating from which a book counts as a favorite
	ReplacementMinRating  float64 // tier-1 replacement quality floor
	Seed                  int64   // PRNG seed for tie shuffling and tier-3 genre choice
}

func DefaultTunables() Tunables {
	return Tunables{
		BatchSize:             domain.RecommendationBatchSize,
		SimilarityFavorites:   3,
		SimilarityCap:         3,
		TrendingGenres:        3,
		MinPoolBeforeFallback: 8,
		FavoriteMinRating:     4.0,
		ReplacementMinRating:  3.5,
		Seed:                  1,
	}
}

func (t Tunables) normalize() Tunables {
	out := t
	def := DefaultTunables()
	if out.BatchSize <= 0 {
		out.BatchSize = def.BatchSize
	}
	if out.SimilarityFavorites <= 0 {
		out.SimilarityFavorites = def.SimilarityFavorites
	}
	if out.SimilarityCap <= 0 {
		out.SimilarityCap = def.SimilarityCap
	}
	if out.TrendingGenres <= 0 {
		out.TrendingGenres = def.TrendingGenres
	}
	if out.MinPoolBeforeFallback <= 0 {
		out.MinPoolBeforeFallback = def.MinPoolBeforeFallback
	}
	if out.FavoriteMinRating <= 0 {
		out.FavoriteMinRating = def.FavoriteMinRating
	}
	if out.ReplacementMinRating <= 0 {
		out.ReplacementMinRating = def.ReplacementMinRating
	}
	if out.Seed == 0 {
		out.Seed = def.Seed
	}
	return out
}

// RecommendUseCase runs the multi-strategy retrieval pipeline: concurrent
// strategy fan-out, merge, dedup/exclusion filtering, scoring and diversity
// capped batch assembly. Every provider failure degrades to zero candidates
// from that strategy; nothing below the entry points returns an error for a
// runtime provider condition.
type RecommendUseCase struct {
	library     ports.LibraryRepository
	recLog      ports.RecommendationLog
	search      ports.SearchProvider
	bestsellers ports.BestsellerProvider
	curated     ports.CuratedProvider
	cache       ports.EnrichmentCache
	metrics     ports.RecommendationMetrics
	tunables    Tunables
	now         func() time.Time

	mu  sync.Mutex
	rng *rand.Rand
}

func NewRecommendUseCase(
	library ports.LibraryRepository,
	recLog ports.RecommendationLog,
	search ports.SearchProvider,
	bestsellers ports.BestsellerProvider,
	curated ports.CuratedProvider,
	cache ports.EnrichmentCache,
	tunables Tunables,
) *RecommendUseCase {
	tunables = tunables.normalize()
	return &RecommendUseCase{
		library:     library,
		recLog:      recLog,
		search:      search,
		bestsellers: bestsellers,
		curated:     curated,
		cache:       cache,
		tunables:    tunables,
		now:         time.Now,
		rng:         rand.New(rand.NewSource(tunables.Seed)),
	}
}

// WithMetrics attaches the pipeline observation sink. A nil sink keeps every
// observation a no-op.
func (uc *RecommendUseCase) WithMetrics(m ports.RecommendationMetrics) *RecommendUseCase {
	uc.metrics = m
	return uc
}

func (uc *RecommendUseCase) observeStrategy(strategy string, count int) {
	if uc.metrics != nil {
		uc.metrics.StrategyCandidates(strategy, count)
	}
}

func (uc *RecommendUseCase) observeProviderFailure(provider string) {
	if uc.metrics != nil {
		uc.metrics.ProviderFailure(provider)
	}
}

func (uc *RecommendUseCase) observeCacheLookup(hit bool) {
	if uc.metrics != nil {
		uc.metrics.CacheLookup(hit)
	}
}

// GetRecommendations produces the ranked, diversified batch for the primary
// surface. With an empty library it switches to the cold-start bestseller
// path; with every provider down it falls back to the curated list; with
// nothing at all it returns an empty batch rather than an error.
func (uc *RecommendUseCase) GetRecommendations(ctx context.Context) ([]domain.Candidate, error) {
	library, err := uc.library.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("load library: %w", err)
	}
	exclusions := uc.loadExclusions(ctx, library)

	if len(library) == 0 {
		return uc.coldStart(ctx, exclusions), nil
	}

	profile := BuildPreferenceProfile(library)

	var poolMu sync.Mutex
	var pool []domain.Candidate
	eg, strategyCtx := errgroup.WithContext(ctx)
	eg.Go(func() error {
		items := uc.similarityStrategy(strategyCtx, library, profile, exclusions)
		uc.observeStrategy("similarity", len(items))
		poolMu.Lock()
		pool = append(pool, items...)
		poolMu.Unlock()
		return nil
	})
	eg.Go(func() error {
		items := uc.trendingStrategy(strategyCtx, profile, exclusions)
		uc.observeStrategy("trending", len(items))
		poolMu.Lock()
		pool = append(pool, items...)
		poolMu.Unlock()
		return nil
	})
	// Strategies degrade internally and never return errors.
	_ = eg.Wait()

	if len(pool) < uc.tunables.MinPoolBeforeFallback {
		extra := uc.bestsellerStrategy(ctx, profile)
		uc.observeStrategy("bestseller", len(extra))
		pool = append(pool, extra...)
	}
	if len(pool) == 0 {
		pool = uc.curatedFallback(profile)
		uc.observeStrategy("curated", len(pool))
	}

	uc.rank(pool)
	return AssembleBatch(pool, exclusions, uc.tunables.BatchSize), nil
}

// loadExclusions reads rejection/shown history. The log is best-effort local
// state; a read failure narrows the exclusion set instead of failing the call.
func (uc *RecommendUseCase) loadExclusions(ctx context.Context, library []domain.Book) domain.ExclusionSet {
	rejected, err := uc.recLog.RejectedIDs(ctx)
	if err != nil {
		slog.Warn("recommend: rejected history unavailable", "error", err)
	}
	shown, err := uc.recLog.ShownIDs(ctx)
	if err != nil {
		slog.Warn("recommend: shown history unavailable", "error", err)
	}
	return BuildExclusionSet(library, rejected, shown)
}

// rank shuffles with the seeded PRNG so ties break reproducibly, then sorts
// by score. The stable sort keeps the shuffled order inside equal scores.
func (uc *RecommendUseCase) rank(pool []domain.Candidate) {
	uc.mu.Lock()
	uc.rng.Shuffle(len(pool), func(i, j int) {
		pool[i], pool[j] = pool[j], pool[i]
	})
	uc.mu.Unlock()
	sort.SliceStable(pool, func(i, j int) bool {
		return pool[i].Score > pool[j].Score
	})
}

func (uc *RecommendUseCase) similarityStrategy(
	ctx context.Context,
	library []domain.Book,
	profile domain.PreferenceProfile,
	exclusions domain.ExclusionSet,
) []domain.Candidate {
	favorites := topFavorites(library, uc.tunables.FavoriteMinRating, uc.tunables.SimilarityFavorites)
	accepted := make([]domain.Candidate, 0, uc.tunables.SimilarityCap)
	for _, favorite := range favorites {
		if len(accepted) == uc.tunables.SimilarityCap || ctx.Err() != nil {
			break
		}
		raws, err := uc.search.Search(ctx, domain.SearchQuery{
			Subject: favorite.PrimaryGenre(),
			Limit:   10,
		})
		if err != nil {
			slog.Warn("similarity strategy: search failed", "favorite", favorite.Title, "error", err)
			uc.observeProviderFailure("search")
			continue
		}
		favoriteAuthor := NormalizeAuthor(favorite.Author)
		for _, candidate := range NormalizeAll(raws) {
			if len(accepted) == uc.tunables.SimilarityCap {
				break
			}
			// Shared genre space, but never the favorite's own author.
			if NormalizeAuthor(candidate.Author) == favoriteAuthor {
				continue
			}
			if Excluded(candidate, exclusions) {
				continue
			}
			score, reasons := ScoreCandidate(candidate, profile, uc.now())
			if score <= 0 {
				continue
			}
			candidate.Score = score
			candidate.Reasons = reasons
			candidate.SimilarToTitle = favorite.Title
			accepted = append(accepted, candidate)
		}
	}
	return accepted
}

func (uc *RecommendUseCase) trendingStrategy(
	ctx context.Context,
	profile domain.PreferenceProfile,
	exclusions domain.ExclusionSet,
) []domain.Candidate {
	genres := topGenres(profile, uc.tunables.TrendingGenres)
	out := make([]domain.Candidate, 0, len(genres))
	for _, genre := range genres {
		if ctx.Err() != nil {
			break
		}
		raws, err := uc.bestsellers.ListByCategory(ctx, genre)
		if err != nil {
			slog.Warn("trending strategy: bestseller feed failed", "genre", genre, "error", err)
			uc.observeProviderFailure("bestseller")
			continue
		}
		for _, candidate := range NormalizeAll(raws) {
			if Excluded(candidate, exclusions) {
				continue
			}
			candidate = uc.enrich(ctx, candidate)
			prefScore, prefReasons := ScoreCandidate(candidate, profile, uc.now())
			candidate.Score = popularityScore(trendingBaseScore, prefScore)
			candidate.Reasons = appendReasons([]string{"trending in " + genre}, prefReasons)
			out = append(out, candidate)
			break // one accepted candidate per genre
		}
	}
	return out
}

func (uc *RecommendUseCase) bestsellerStrategy(ctx context.Context, profile domain.PreferenceProfile) []domain.Candidate {
	raws, err := uc.bestsellers.ListByCategory(ctx, "")
	if err != nil {
		slog.Warn("bestseller strategy: feed failed", "error", err)
		uc.observeProviderFailure("bestseller")
		return nil
	}
	candidates := NormalizeAll(raws)
	for i := range candidates {
		prefScore, prefReasons := ScoreCandidate(candidates[i], profile, uc.now())
		candidates[i].Score = popularityScore(bestsellerBaseScore, prefScore)
		candidates[i].Reasons = appendReasons([]string{"on the bestseller lists"}, prefReasons)
	}
	return candidates
}

func (uc *RecommendUseCase) curatedFallback(profile domain.PreferenceProfile) []domain.Candidate {
	candidates := NormalizeAll(uc.curated.List(""))
	out := candidates[:0]
	for _, candidate := range candidates {
		score, reasons := ScoreCandidate(candidate, profile, uc.now())
		if score <= 0 {
			continue
		}
		candidate.Score = score
		candidate.Reasons = reasons
		out = append(out, candidate)
	}
	return out
}

// coldStart serves users with no library: general bestsellers scored with a
// neutral profile (quality and recency only), curated list if the feed is down.
func (uc *RecommendUseCase) coldStart(ctx context.Context, exclusions domain.ExclusionSet) []domain.Candidate {
	var candidates []domain.Candidate
	raws, err := uc.bestsellers.ListByCategory(ctx, "")
	if err != nil {
		slog.Warn("cold start: bestseller feed failed", "error", err)
		uc.observeProviderFailure("bestseller")
	} else {
		candidates = NormalizeAll(raws)
	}
	if len(candidates) == 0 {
		candidates = NormalizeAll(uc.curated.List(""))
	}

	neutral := domain.PreferenceProfile{}
	scored := candidates[:0]
	for _, candidate := range candidates {
		score, reasons := ScoreCandidate(candidate, neutral, uc.now())
		if score <= 0 {
			continue
		}
		candidate.Score = score
		candidate.Reasons = appendReasons([]string{"popular right now"}, reasons)
		scored = append(scored, candidate)
	}

	uc.rank(scored)
	return AssembleBatch(scored, exclusions, uc.tunables.BatchSize)
}

// enrich fills summary/cover gaps on a trending candidate from the search
// provider, through the TTL cache. Enrichment failure is silently ignored;
// the un-enriched candidate is still usable.
func (uc *RecommendUseCase) enrich(ctx context.Context, candidate domain.Candidate) domain.Candidate {
	if candidate.Summary != "" && candidate.CoverURL != "" {
		return candidate
	}
	key := "enrich:" + candidate.ID

	raw, ok := uc.cache.Get(key)
	uc.observeCacheLookup(ok)
	if !ok {
		results, err := uc.search.Search(ctx, domain.SearchQuery{
			Title:  candidate.Title,
			Author: candidate.Author,
			Limit:  1,
		})
		if err != nil {
			uc.observeProviderFailure("search")
			return candidate
		}
		if len(results) == 0 {
			return candidate
		}
		raw = results[0]
		uc.cache.Set(key, raw)
	}

	extra := Normalize(raw)
	if candidate.Summary == "" {
		candidate.Summary = extra.Summary
	}
	if candidate.CoverURL == "" {
		candidate.CoverURL = extra.CoverURL
	}
	if candidate.Year == 0 {
		candidate.Year = extra.Year
	}
	return candidate
}

// popularityScore layers the preference boost over the strategy's base score,
// scaled into the remaining headroom so the result stays within [base, 100].
func popularityScore(base, prefScore int) int {
	score := base + prefScore*(100-base)/100
	if score > 100 {
		return 100
	}
	return score
}

func appendReasons(reasons []string, extra []string) []string {
	for _, reason := range extra {
		if len(reasons) == maxReasons {
			break
		}
		reasons = append(reasons, reason)
	}
	return reasons
}

// topFavorites returns up to n books rated at or above min, best rating
// first, most recently added first on ties.
func topFavorites(library []domain.Book, min float64, n int) []domain.Book {
	favorites := make([]domain.Book, 0, len(library))
	for _, book := range library {
		if book.Rating >= min {
			favorites = append(favorites, book)
		}
	}
	sort.SliceStable(favorites, func(i, j int) bool {
		if favorites[i].Rating != favorites[j].Rating {
			return favorites[i].Rating > favorites[j].Rating
		}
		return favorites[i].AddedAt.After(favorites[j].AddedAt)
	})
	if len(favorites) > n {
		favorites = favorites[:n]
	}
	return favorites
}

// topGenres returns up to n of the profile's genres by weight, alphabetical
// on ties so the strategy order is deterministic.
func topGenres(profile domain.PreferenceProfile, n int) []string {
	genres := make([]string, 0, len(profile.GenreWeight))
	for genre := range profile.GenreWeight {
		genres = append(genres, genre)
	}
	sort.Slice(genres, func(i, j int) bool {
		wi, wj := profile.GenreWeight[genres[i]], profile.GenreWeight[genres[j]]
		if wi != wj {
			return wi > wj
		}
		return genres[i] < genres[j]
	})
	if len(genres) > n {
		genres = genres[:n]
	}
	return genres
}
