package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/kirillkom/personal-reading-tracker/internal/core/domain"
)

type ImportJobRepository struct {
	db *sql.DB
}

func NewImportJobRepository(db *sql.DB) *ImportJobRepository {
	return &ImportJobRepository{db: db}
}

func (r *ImportJobRepository) Create(ctx context.Context, job *domain.ImportJob) error {
	_, err := r.db.ExecContext(ctx, `
INSERT INTO import_jobs (id, filename, format, storage_path, status, books_added, error_message, created_at, updated_at)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
`, job.ID, job.Filename, job.Format, job.StoragePath, string(job.Status), job.BooksAdded, job.Error, job.CreatedAt, job.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert import job: %w", err)
	}
	return nil
}

func (r *ImportJobRepository) GetByID(ctx context.Context, id string) (*domain.ImportJob, error) {
	row := r.db.QueryRowContext(ctx, `
SELECT id, filename, format, storage_path, status, books_added, error_message, created_at, updated_at
FROM import_jobs
WHERE id = $1
`, id)

	var job domain.ImportJob
	var status string
	err := row.Scan(
		&job.ID,
		&job.Filename,
		&job.Format,
		&job.StoragePath,
		&status,
		&job.BooksAdded,
		&job.Error,
		&job.CreatedAt,
		&job.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.WrapError(domain.ErrImportJobNotFound, "get import job", fmt.Errorf("id=%s", id))
		}
		return nil, fmt.Errorf("scan import job: %w", err)
	}
	job.Status = domain.ImportStatus(status)
	return &job, nil
}

func (r *ImportJobRepository) UpdateStatus(ctx context.Context, id string, status domain.ImportStatus, booksAdded int, errMessage string) error {
	result, err := r.db.ExecContext(ctx, `
UPDATE import_jobs
SET status = $2, books_added = $3, error_message = $4, updated_at = $5
WHERE id = $1
`, id, string(status), booksAdded, errMessage, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("update import job status: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("update import job rows affected: %w", err)
	}
	if rows == 0 {
		return domain.WrapError(domain.ErrImportJobNotFound, "update import job status", fmt.Errorf("id=%s", id))
	}
	return nil
}
