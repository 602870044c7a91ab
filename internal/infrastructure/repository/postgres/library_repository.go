package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/kirillkom/personal-reading-tracker/internal/core/domain"
)

type LibraryRepository struct {
	db *sql.DB
}

func NewLibraryRepository(db *sql.DB) *LibraryRepository {
	return &LibraryRepository{db: db}
}

func (r *LibraryRepository) Add(ctx context.Context, book *domain.Book) error {
	genresJSON, err := json.Marshal(book.Genres)
	if err != nil {
		return fmt.Errorf("marshal genres: %w", err)
	}
	tagsJSON, err := json.Marshal(book.Tags)
	if err != nil {
		return fmt.Errorf("marshal tags: %w", err)
	}

	_, err = r.db.ExecContext(ctx, `
INSERT INTO books (id, title, author, genres, rating, year, isbn, tags, summary, cover_url, added_at, updated_at)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12)
`,
		book.ID, book.Title, book.Author, genresJSON, book.Rating, book.Year,
		book.ISBN, tagsJSON, book.Summary, book.CoverURL, book.AddedAt, book.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert book: %w", err)
	}
	return nil
}

func (r *LibraryRepository) List(ctx context.Context) ([]domain.Book, error) {
	rows, err := r.db.QueryContext(ctx, `
SELECT id, title, author, genres, rating, year, isbn, tags, summary, cover_url, added_at, updated_at
FROM books
ORDER BY added_at DESC
`)
	if err != nil {
		return nil, fmt.Errorf("list books: %w", err)
	}
	defer rows.Close()

	out := make([]domain.Book, 0)
	for rows.Next() {
		book, err := scanBook(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, book)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate books: %w", err)
	}
	return out, nil
}

func (r *LibraryRepository) GetByID(ctx context.Context, id string) (*domain.Book, error) {
	row := r.db.QueryRowContext(ctx, `
SELECT id, title, author, genres, rating, year, isbn, tags, summary, cover_url, added_at, updated_at
FROM books
WHERE id = $1
`, id)

	book, err := scanBook(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.WrapError(domain.ErrBookNotFound, "get book", fmt.Errorf("id=%s", id))
		}
		return nil, fmt.Errorf("get book by id: %w", err)
	}
	return &book, nil
}

func (r *LibraryRepository) UpdateRating(ctx context.Context, id string, rating float64) error {
	result, err := r.db.ExecContext(ctx, `
UPDATE books
SET rating = $2, updated_at = $3
WHERE id = $1
`, id, rating, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("update rating: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("update rating rows affected: %w", err)
	}
	if rows == 0 {
		return domain.WrapError(domain.ErrBookNotFound, "update rating", fmt.Errorf("id=%s", id))
	}
	return nil
}

func (r *LibraryRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM books WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete book: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete book rows affected: %w", err)
	}
	if rows == 0 {
		return domain.WrapError(domain.ErrBookNotFound, "delete book", fmt.Errorf("id=%s", id))
	}
	return nil
}

type bookScanner interface {
	Scan(dest ...interface{}) error
}

func scanBook(row bookScanner) (domain.Book, error) {
	var book domain.Book
	var genresRaw, tagsRaw []byte

	err := row.Scan(
		&book.ID,
		&book.Title,
		&book.Author,
		&genresRaw,
		&book.Rating,
		&book.Year,
		&book.ISBN,
		&tagsRaw,
		&book.Summary,
		&book.CoverURL,
		&book.AddedAt,
		&book.UpdatedAt,
	)
	if err != nil {
		return domain.Book{}, err
	}

	if err := json.Unmarshal(genresRaw, &book.Genres); err != nil {
		return domain.Book{}, fmt.Errorf("unmarshal genres: %w", err)
	}
	if err := json.Unmarshal(tagsRaw, &book.Tags); err != nil {
		return domain.Book{}, fmt.Errorf("unmarshal tags: %w", err)
	}
	return book, nil
}
