package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/fieldops/fieldops-api/internal/models"
)

// ErrStaleVersion is returned when a guarded update matched an existing row
// but its version (or status predicate) changed since the caller read it.
var ErrStaleVersion = errors.New("stale entity version")

// ErrAlreadyResolved is returned when a terminal resolution is attempted on
// an entity that has already been resolved.
var ErrAlreadyResolved = errors.New("already resolved")

// insertInterventionLogTx appends one audit row inside the caller's
// transaction. When the log carries an idempotency key and a row with that
// key already exists, no row is written and false is returned so the caller
// can abort the enclosing transaction as a duplicate delivery.
func insertInterventionLogTx(ctx context.Context, tx *sqlx.Tx, log *models.InterventionLog) (bool, error) {
	if log.ID == "" {
		log.ID = uuid.NewString()
	}
	if log.CreatedAt.IsZero() {
		log.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO intervention_logs
	(id, intervention_id, status_from, status_to, created_by_id, note, idempotency_key, created_at)
	VALUES (:id, :intervention_id, :status_from, :status_to, :created_by_id, :note, :idempotency_key, :created_at)
	ON CONFLICT (idempotency_key) WHERE idempotency_key IS NOT NULL DO NOTHING`
	result, err := tx.NamedExecContext(ctx, query, log)
	if err != nil {
		return false, fmt.Errorf("insert intervention log: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("insert intervention log: %w", err)
	}
	return affected > 0, nil
}

// insertReviewItemTx appends an unresolved review-queue entry inside the
// caller's transaction. Multiple open items per reference are allowed.
func insertReviewItemTx(ctx context.Context, tx *sqlx.Tx, item *models.ReviewItem) error {
	if item.ID == "" {
		item.ID = uuid.NewString()
	}
	if item.CreatedAt.IsZero() {
		item.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO review_items
	(id, queue, reference_id, label, notes, resolved_at, resolved_by_id, created_at)
	VALUES (:id, :queue, :reference_id, :label, :notes, :resolved_at, :resolved_by_id, :created_at)`
	if _, err := tx.NamedExecContext(ctx, query, item); err != nil {
		return fmt.Errorf("insert review item: %w", err)
	}
	return nil
}

// resolveOpenReviewItemsTx bulk-resolves every open item for the reference
// (optionally scoped to one queue) inside the caller's transaction. Zero
// matches is a no-op, not an error.
func resolveOpenReviewItemsTx(ctx context.Context, tx *sqlx.Tx, referenceID string, queue *models.ReviewQueue, resolvedAt time.Time, resolvedByID, notes *string) (int64, error) {
	query := `UPDATE review_items SET resolved_at = $1,
	resolved_by_id = COALESCE($2, resolved_by_id),
	notes = COALESCE($3, notes)
	WHERE reference_id = $4 AND resolved_at IS NULL`
	args := []interface{}{resolvedAt, resolvedByID, notes, referenceID}
	if queue != nil {
		query += " AND queue = $5"
		args = append(args, *queue)
	}
	result, err := tx.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("resolve review items: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("resolve review items: %w", err)
	}
	return affected, nil
}
