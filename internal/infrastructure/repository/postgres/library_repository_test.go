package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"

	"github.com/kirillkom/personal-reading-tracker/internal/core/domain"
)

func TestLibraryRepositoryListUnmarshalsJSONColumns(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New() error = %v", err)
	}
	defer db.Close()

	repo := NewLibraryRepository(db)
	rows := sqlmock.NewRows([]string{"id", "title", "author", "genres", "rating", "year", "isbn", "tags", "summary", "cover_url", "added_at", "updated_at"}).
		AddRow("b-1", "The Hobbit", "J.R.R. Tolkien", []byte(`["Fantasy","Adventure"]`), 4.5, 1937, "",
			[]byte(`[{"name":"dragons","confidence":0.9}]`), "", "", time.Now(), time.Now())

	mock.ExpectQuery("FROM books").WillReturnRows(rows)

	books, err := repo.List(context.Background())
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(books) != 1 {
		t.Fatalf("expected 1 book, got %d", len(books))
	}
	if books[0].PrimaryGenre() != "Fantasy" {
		t.Fatalf("genres not decoded: %+v", books[0].Genres)
	}
	if len(books[0].Tags) != 1 || books[0].Tags[0].Name != "dragons" {
		t.Fatalf("tags not decoded: %+v", books[0].Tags)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestLibraryRepositoryGetByIDNotFound(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New() error = %v", err)
	}
	defer db.Close()

	repo := NewLibraryRepository(db)
	mock.ExpectQuery("FROM books").
		WithArgs("missing").
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	_, err = repo.GetByID(context.Background(), "missing")
	if !domain.IsKind(err, domain.ErrBookNotFound) {
		t.Fatalf("expected book not found, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestLibraryRepositoryUpdateRatingNoRows(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New() error = %v", err)
	}
	defer db.Close()

	repo := NewLibraryRepository(db)
	mock.ExpectExec("UPDATE books").
		WithArgs("missing", 4.5, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err = repo.UpdateRating(context.Background(), "missing", 4.5)
	if !domain.IsKind(err, domain.ErrBookNotFound) {
		t.Fatalf("expected book not found, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}
