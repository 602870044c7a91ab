package ports

import (
	"context"
	"io"

	"github.com/kirillkom/personal-reading-tracker/internal/core/domain"
)

// LibraryRepository persists the user's book list.
type LibraryRepository interface {
	Add(ctx context.Context, book *domain.Book) error
	List(ctx context.Context) ([]domain.Book, error)
	GetByID(ctx context.Context, id string) (*domain.Book, error)
	UpdateRating(ctx context.Context, id string, rating float64) error
	Delete(ctx context.Context, id string) error
}

// RecommendationLog persists rejection, shown and liked state across
// recommendation calls.
type RecommendationLog interface {
	RejectedIDs(ctx context.Context) ([]string, error)
	AddRejected(ctx context.Context, id string) error
	ShownIDs(ctx context.Context) ([]string, error)
	RecordShown(ctx context.Context, ids []string) error
	LikedBooks(ctx context.Context) ([]domain.Candidate, error)
	AddLiked(ctx context.Context, candidate domain.Candidate) error
	RemoveLiked(ctx context.Context, id string) error
}

// SearchProvider queries a general-purpose book metadata API.
type SearchProvider interface {
	Search(ctx context.Context, query domain.SearchQuery) ([]domain.RawCandidate, error)
}

// BestsellerProvider lists popular books for a category feed. An empty
// category requests the mixed general feed.
type BestsellerProvider interface {
	ListByCategory(ctx context.Context, category string) ([]domain.RawCandidate, error)
}

// CuratedProvider serves static curated lists. It is the last-resort source
// and must never fail. An empty genre returns a mixed list.
type CuratedProvider interface {
	List(genre string) []domain.RawCandidate
}

// BookRecommender turns a free-text prompt plus library context into exactly
// RecommendationBatchSize structured picks, or a typed parse failure.
type BookRecommender interface {
	Recommend(ctx context.Context, query string, library []domain.Book) ([]domain.RawCandidate, error)
}

// ImportQueue publishes/consumes import job events.
type ImportQueue interface {
	PublishImportRequested(ctx context.Context, jobID string) error
	SubscribeImportRequested(ctx context.Context, handler func(context.Context, string) error) error
}

// ImportJobRepository persists import job state.
type ImportJobRepository interface {
	Create(ctx context.Context, job *domain.ImportJob) error
	GetByID(ctx context.Context, id string) (*domain.ImportJob, error)
	UpdateStatus(ctx context.Context, id string, status domain.ImportStatus, booksAdded int, errMessage string) error
}

// ImportStorage keeps raw export files until the worker picks them up.
type ImportStorage interface {
	Save(ctx context.Context, key string, data io.Reader) error
	Open(ctx context.Context, key string) (io.ReadCloser, error)
	Remove(ctx context.Context, key string) error
}

// ExportParser converts an external reading-history export into books.
// Format is a file extension hint ("csv", "xlsx").
type ExportParser interface {
	Parse(r io.Reader, format string) ([]domain.Book, error)
}

// RecommendationMetrics receives pipeline observations from the
// recommendation orchestrator: candidates contributed per strategy, provider
// calls degraded to zero candidates, and enrichment cache lookups.
// Implementations must be safe for concurrent use.
type RecommendationMetrics interface {
	StrategyCandidates(strategy string, count int)
	ProviderFailure(provider string)
	CacheLookup(hit bool)
}

// EnrichmentCache fronts repeated metadata lookups for the same candidate.
// TTL and eviction policy belong to the implementation's constructor.
type EnrichmentCache interface {
	Get(key string) (domain.RawCandidate, bool)
	Set(key string, value domain.RawCandidate)
}
