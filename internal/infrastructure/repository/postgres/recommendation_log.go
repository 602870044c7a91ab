package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/kirillkom/personal-reading-tracker/internal/core/domain"
)

// RecommendationLogRepository persists rejected, shown and liked state so a
// fresh batch never repeats what the user has already dealt with.
type RecommendationLogRepository struct {
	db *sql.DB
}

func NewRecommendationLogRepository(db *sql.DB) *RecommendationLogRepository {
	return &RecommendationLogRepository{db: db}
}

func (r *RecommendationLogRepository) RejectedIDs(ctx context.Context) ([]string, error) {
	return r.listIDs(ctx, `SELECT book_id FROM rejected_recommendations`, "rejected")
}

func (r *RecommendationLogRepository) AddRejected(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx, `
INSERT INTO rejected_recommendations (book_id, created_at)
VALUES ($1, $2)
ON CONFLICT (book_id) DO NOTHING
`, id, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("insert rejected: %w", err)
	}
	return nil
}

// Shown exclusion covers recent sessions only. Older entries age out of the
// query so a long-lived install never exhausts the candidate pool for good.
const shownRecencyWindow = 14 * 24 * time.Hour

func (r *RecommendationLogRepository) ShownIDs(ctx context.Context) ([]string, error) {
	cutoff := time.Now().UTC().Add(-shownRecencyWindow)
	return r.listIDs(ctx, `SELECT book_id FROM shown_recommendations WHERE last_shown_at >= $1`, "shown", cutoff)
}

func (r *RecommendationLogRepository) RecordShown(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin shown tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	now := time.Now().UTC()
	for _, id := range ids {
		if _, err := tx.ExecContext(ctx, `
INSERT INTO shown_recommendations (book_id, last_shown_at)
VALUES ($1, $2)
ON CONFLICT (book_id) DO UPDATE SET last_shown_at = EXCLUDED.last_shown_at
`, id, now); err != nil {
			return fmt.Errorf("upsert shown %s: %w", id, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit shown tx: %w", err)
	}
	return nil
}

func (r *RecommendationLogRepository) LikedBooks(ctx context.Context) ([]domain.Candidate, error) {
	rows, err := r.db.QueryContext(ctx, `
SELECT payload
FROM liked_books
ORDER BY created_at DESC
`)
	if err != nil {
		return nil, fmt.Errorf("list liked: %w", err)
	}
	defer rows.Close()

	out := make([]domain.Candidate, 0)
	for rows.Next() {
		var payload []byte
		if err := rows.Scan(&payload); err != nil {
			return nil, fmt.Errorf("scan liked: %w", err)
		}
		var candidate domain.Candidate
		if err := json.Unmarshal(payload, &candidate); err != nil {
			return nil, fmt.Errorf("unmarshal liked: %w", err)
		}
		out = append(out, candidate)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate liked: %w", err)
	}
	return out, nil
}

func (r *RecommendationLogRepository) AddLiked(ctx context.Context, candidate domain.Candidate) error {
	payload, err := json.Marshal(candidate)
	if err != nil {
		return fmt.Errorf("marshal liked: %w", err)
	}
	_, err = r.db.ExecContext(ctx, `
INSERT INTO liked_books (book_id, payload, created_at)
VALUES ($1, $2, $3)
ON CONFLICT (book_id) DO UPDATE SET payload = EXCLUDED.payload
`, candidate.ID, payload, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("insert liked: %w", err)
	}
	return nil
}

func (r *RecommendationLogRepository) RemoveLiked(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM liked_books WHERE book_id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete liked: %w", err)
	}
	return nil
}

func (r *RecommendationLogRepository) listIDs(ctx context.Context, query, what string, args ...any) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", what, err)
	}
	defer rows.Close()

	out := make([]string, 0)
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan %s: %w", what, err)
		}
		out = append(out, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate %s: %w", what, err)
	}
	return out, nil
}
