package usecase

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/kirillkom/personal-reading-tracker/internal/core/domain"
	"github.com/kirillkom/personal-reading-tracker/internal/core/ports"
)

// LibraryUseCase manages the user's book list.
type LibraryUseCase struct {
	repo ports.LibraryRepository
}

func NewLibraryUseCase(repo ports.LibraryRepository) *LibraryUseCase {
	return &LibraryUseCase{repo: repo}
}

func (uc *LibraryUseCase) AddBook(ctx context.Context, book domain.Book) (*domain.Book, error) {
	book.Title = strings.TrimSpace(book.Title)
	book.Author = strings.TrimSpace(book.Author)
	if book.Title == "" {
		return nil, domain.WrapError(domain.ErrInvalidInput, "add book", fmt.Errorf("title is required"))
	}
	if book.Author == "" {
		return nil, domain.WrapError(domain.ErrInvalidInput, "add book", fmt.Errorf("author is required"))
	}
	if !domain.ValidRating(book.Rating) {
		return nil, domain.WrapError(domain.ErrInvalidInput, "add book", fmt.Errorf("rating must be a half-star value in [0,5]"))
	}
	if len(book.Genres) == 0 {
		book.Genres = []string{defaultGenre}
	}

	now := time.Now().UTC()
	book.ID = uuid.NewString()
	book.AddedAt = now
	book.UpdatedAt = now

	if err := uc.repo.Add(ctx, &book); err != nil {
		return nil, fmt.Errorf("add book: %w", err)
	}
	return &book, nil
}

func (uc *LibraryUseCase) ListBooks(ctx context.Context) ([]domain.Book, error) {
	books, err := uc.repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list books: %w", err)
	}
	return books, nil
}

func (uc *LibraryUseCase) GetBook(ctx context.Context, id string) (*domain.Book, error) {
	book, err := uc.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return book, nil
}

func (uc *LibraryUseCase) RateBook(ctx context.Context, id string, rating float64) error {
	if !domain.ValidRating(rating) {
		return domain.WrapError(domain.ErrInvalidInput, "rate book", fmt.Errorf("rating must be a half-star value in [0,5]"))
	}
	return uc.repo.UpdateRating(ctx, id, rating)
}

func (uc *LibraryUseCase) RemoveBook(ctx context.Context, id string) error {
	return uc.repo.Delete(ctx, id)
}
