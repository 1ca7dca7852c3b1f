package postgres

import (
	"context"
	"fmt"

	"carbonmint/internal/domain"
)

// submissionRepository implements domain.SubmissionRepository
type submissionRepository struct {
	db *DB
}

// NewSubmissionRepository creates a new submission repository
func NewSubmissionRepository(db *DB) domain.SubmissionRepository {
	return &submissionRepository{db: db}
}

// Create records a finished pipeline run
func (r *submissionRepository) Create(ctx context.Context, sub *domain.Submission) error {
	query := `
		INSERT INTO submissions (id, operation, symbol, tx_hash, status, error, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	_, err := r.db.ExecContext(ctx, query,
		sub.ID,
		sub.Operation,
		sub.Symbol,
		sub.TxHash,
		sub.Status,
		sub.Error,
		sub.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert submission: %w", err)
	}

	return nil
}

// List retrieves a paginated history slice, newest first
func (r *submissionRepository) List(ctx context.Context, limit, offset int, symbol string) ([]*domain.Submission, error) {
	query := `
		SELECT id, operation, symbol, tx_hash, status, error, created_at
		FROM submissions
		WHERE ($3 = '' OR symbol = $3)
		ORDER BY created_at DESC
		LIMIT $1 OFFSET $2
	`

	rows, err := r.db.QueryContext(ctx, query, limit, offset, symbol)
	if err != nil {
		return nil, fmt.Errorf("failed to query submissions: %w", err)
	}
	defer rows.Close()

	var subs []*domain.Submission
	for rows.Next() {
		var sub domain.Submission
		if err := rows.Scan(
			&sub.ID,
			&sub.Operation,
			&sub.Symbol,
			&sub.TxHash,
			&sub.Status,
			&sub.Error,
			&sub.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan submission: %w", err)
		}
		subs = append(subs, &sub)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate submissions: %w", err)
	}

	return subs, nil
}

// Count returns the total number of recorded submissions, optionally
// filtered by symbol
func (r *submissionRepository) Count(ctx context.Context, symbol string) (int, error) {
	query := `
		SELECT COUNT(*)
		FROM submissions
		WHERE ($1 = '' OR symbol = $1)
	`

	var count int
	if err := r.db.QueryRowContext(ctx, query, symbol).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count submissions: %w", err)
	}

	return count, nil
}
