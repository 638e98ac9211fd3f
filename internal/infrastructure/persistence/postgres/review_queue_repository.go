package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/alihumdard/suya-kabab-app-sub000/internal/application"
)

// ReviewQueueRepository persists the manual reconciliation queue. Confirmed
// payments and refund events the engine cannot process automatically land
// here for operator follow-up instead of being dropped.
type ReviewQueueRepository struct {
	q Executor
}

func NewReviewQueueRepository(db *DB) *ReviewQueueRepository {
	return &ReviewQueueRepository{q: db.Pool}
}

func (r *ReviewQueueRepository) Enqueue(ctx context.Context, item *application.ReviewItem) error {
	if item.ID == uuid.Nil {
		item.ID = uuid.New()
	}
	if item.CreatedAt.IsZero() {
		item.CreatedAt = time.Now()
	}

	query := `
		INSERT INTO reconciliation_queue (
			id, kind, reference, transaction_id, amount, detail, payload, resolved, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`

	_, err := r.q.Exec(ctx, query,
		item.ID,
		string(item.Kind),
		item.Reference,
		item.TransactionID,
		item.Amount,
		item.Detail,
		item.Payload,
		item.Resolved,
		item.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to enqueue review item: %w", err)
	}

	return nil
}

func (r *ReviewQueueRepository) ListOpen(ctx context.Context, limit, offset int) ([]*application.ReviewItem, error) {
	query := `
		SELECT id, kind, reference, transaction_id, amount, detail, payload, resolved, created_at
		FROM reconciliation_queue
		WHERE resolved = FALSE
		ORDER BY created_at ASC
		LIMIT $1 OFFSET $2
	`

	rows, err := r.q.Query(ctx, query, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("query review queue: %w", err)
	}

	results, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (*application.ReviewItem, error) {
		var item application.ReviewItem
		var kind string
		err := row.Scan(
			&item.ID, &kind, &item.Reference, &item.TransactionID,
			&item.Amount, &item.Detail, &item.Payload, &item.Resolved, &item.CreatedAt,
		)
		item.Kind = application.ReviewKind(kind)
		return &item, err
	})
	if err != nil {
		return nil, fmt.Errorf("scan review queue: %w", err)
	}

	return results, nil
}
