package ports

import (
	"context"
	"io"

	"github.com/kirillkom/personal-reading-tracker/internal/core/domain"
)

// Recommender is the inbound contract for the recommendation surfaces.
type Recommender interface {
	GetRecommendations(ctx context.Context) ([]domain.Candidate, error)
	GetReplacement(ctx context.Context, rejected domain.Candidate, currentBatch []domain.Candidate) (*domain.Candidate, error)
}

// Discoverer is the inbound contract for free-text, LLM-backed discovery.
type Discoverer interface {
	Discover(ctx context.Context, query string) ([]domain.Candidate, error)
}

// LibraryService is the inbound contract for book list management.
type LibraryService interface {
	AddBook(ctx context.Context, book domain.Book) (*domain.Book, error)
	ListBooks(ctx context.Context) ([]domain.Book, error)
	GetBook(ctx context.Context, id string) (*domain.Book, error)
	RateBook(ctx context.Context, id string, rating float64) error
	RemoveBook(ctx context.Context, id string) error
}

// BookImporter is the inbound contract for export upload orchestration.
type BookImporter interface {
	Upload(ctx context.Context, filename string, body io.Reader) (*domain.ImportJob, error)
}

// ImportProcessor is the inbound contract for asynchronous import processing.
type ImportProcessor interface {
	ProcessByID(ctx context.Context, jobID string) error
}

// ImportReader is the inbound read model for import job state.
type ImportReader interface {
	GetByID(ctx context.Context, id string) (*domain.ImportJob, error)
}
