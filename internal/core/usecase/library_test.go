package usecase

import (
	"context"
	"testing"

	"github.com/kirillkom/personal-reading-tracker/internal/core/domain"
)

func TestAddBookAssignsIDAndDefaults(t *testing.T) {
	repo := &libraryFake{}
	uc := NewLibraryUseCase(repo)

	added, err := uc.AddBook(context.Background(), domain.Book{
		Title:  "  The Left Hand of Darkness ",
		Author: " Ursula K. Le Guin ",
		Rating: 4.5,
	})
	if err != nil {
		t.Fatalf("add book: %v", err)
	}
	if added.ID == "" {
		t.Fatalf("expected generated id")
	}
	if added.Title != "The Left Hand of Darkness" || added.Author != "Ursula K. Le Guin" {
		t.Fatalf("expected trimmed fields, got %q / %q", added.Title, added.Author)
	}
	if len(added.Genres) != 1 || added.Genres[0] != "General" {
		t.Fatalf("expected default genre, got %v", added.Genres)
	}
	if added.AddedAt.IsZero() || added.UpdatedAt.IsZero() {
		t.Fatalf("expected timestamps to be set")
	}
	if len(repo.books) != 1 {
		t.Fatalf("expected book persisted, got %d", len(repo.books))
	}
}

func TestAddBookValidation(t *testing.T) {
	uc := NewLibraryUseCase(&libraryFake{})

	cases := []struct {
		name string
		book domain.Book
	}{
		{"missing title", domain.Book{Author: "A", Rating: 4}},
		{"missing author", domain.Book{Title: "T", Rating: 4}},
		{"rating above range", domain.Book{Title: "T", Author: "A", Rating: 5.5}},
		{"rating off the half-star grid", domain.Book{Title: "T", Author: "A", Rating: 4.3}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := uc.AddBook(context.Background(), tc.book); !domain.IsKind(err, domain.ErrInvalidInput) {
				t.Fatalf("expected invalid input, got %v", err)
			}
		})
	}
}

func TestRateBookRejectsInvalidRating(t *testing.T) {
	uc := NewLibraryUseCase(&libraryFake{})

	if err := uc.RateBook(context.Background(), "id-1", 3.7); !domain.IsKind(err, domain.ErrInvalidInput) {
		t.Fatalf("expected invalid input, got %v", err)
	}
	if err := uc.RateBook(context.Background(), "id-1", 3.5); err != nil {
		t.Fatalf("expected valid half-star rating, got %v", err)
	}
}
