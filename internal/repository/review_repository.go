package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/fieldops/fieldops-api/internal/models"
)

const reviewItemColumns = `id, queue, reference_id, label, notes, resolved_at,
	resolved_by_id, created_at`

// ReviewRepository persists the human-approval backlog.
type ReviewRepository struct {
	db *sqlx.DB
}

// NewReviewRepository constructs the repository.
func NewReviewRepository(db *sqlx.DB) *ReviewRepository {
	return &ReviewRepository{db: db}
}

// ReviewFilter constrains review-item listing.
type ReviewFilter struct {
	Queue       models.ReviewQueue
	ReferenceID string
	PendingOnly bool
}

// List returns review items oldest first, so reviewers work the backlog in
// arrival order.
func (r *ReviewRepository) List(ctx context.Context, filter ReviewFilter) ([]models.ReviewItem, error) {
	builder := strings.Builder{}
	builder.WriteString(fmt.Sprintf(`SELECT %s FROM review_items`, reviewItemColumns))

	args := make([]interface{}, 0, 2)
	conditions := make([]string, 0, 3)
	if filter.Queue != "" {
		args = append(args, filter.Queue)
		conditions = append(conditions, fmt.Sprintf("queue = $%d", len(args)))
	}
	if filter.ReferenceID != "" {
		args = append(args, filter.ReferenceID)
		conditions = append(conditions, fmt.Sprintf("reference_id = $%d", len(args)))
	}
	if filter.PendingOnly {
		conditions = append(conditions, "resolved_at IS NULL")
	}
	if len(conditions) > 0 {
		builder.WriteString(" WHERE ")
		builder.WriteString(strings.Join(conditions, " AND "))
	}
	builder.WriteString(" ORDER BY created_at ASC")

	var items []models.ReviewItem
	if err := r.db.SelectContext(ctx, &items, builder.String(), args...); err != nil {
		return nil, fmt.Errorf("list review items: %w", err)
	}
	return items, nil
}

// GetByID fetches one review item.
func (r *ReviewRepository) GetByID(ctx context.Context, id string) (*models.ReviewItem, error) {
	query := fmt.Sprintf(`SELECT %s FROM review_items WHERE id = $1`, reviewItemColumns)
	var item models.ReviewItem
	if err := r.db.GetContext(ctx, &item, query, id); err != nil {
		return nil, err
	}
	return &item, nil
}

// ResolveOne closes a single review item. Resolving an already-resolved
// item reports ErrAlreadyResolved so callers can answer idempotently.
func (r *ReviewRepository) ResolveOne(ctx context.Context, id string, resolvedAt time.Time, resolvedByID string, notes *string) (*models.ReviewItem, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin resolve review tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	const query = `UPDATE review_items SET
	resolved_at = $1,
	resolved_by_id = $2,
	notes = COALESCE($3, notes)
	WHERE id = $4 AND resolved_at IS NULL`
	result, err := tx.ExecContext(ctx, query, resolvedAt, resolvedByID, notes, id)
	if err != nil {
		return nil, fmt.Errorf("resolve review item: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("resolve review item: %w", err)
	}
	if affected == 0 {
		query := fmt.Sprintf(`SELECT %s FROM review_items WHERE id = $1`, reviewItemColumns)
		var current models.ReviewItem
		if err := tx.GetContext(ctx, &current, query, id); err != nil {
			return nil, err
		}
		return &current, ErrAlreadyResolved
	}

	query2 := fmt.Sprintf(`SELECT %s FROM review_items WHERE id = $1`, reviewItemColumns)
	var item models.ReviewItem
	if err := tx.GetContext(ctx, &item, query2, id); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit resolve review tx: %w", err)
	}
	return &item, nil
}

// ResolveAllOpenFor closes every open item referencing an entity,
// optionally restricted to one queue. Returns the number of items closed.
func (r *ReviewRepository) ResolveAllOpenFor(ctx context.Context, referenceID string, queue *models.ReviewQueue, resolvedAt time.Time, resolvedByID string, notes *string) (int64, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin resolve reviews tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	resolvedBy := resolvedByID
	count, err := resolveOpenReviewItemsTx(ctx, tx, referenceID, queue, resolvedAt, &resolvedBy, notes)
	if err != nil {
		return 0, err
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit resolve reviews tx: %w", err)
	}
	return count, nil
}

// CountOpenByQueue returns per-queue pending counts for the dashboard.
func (r *ReviewRepository) CountOpenByQueue(ctx context.Context) (map[models.ReviewQueue]int64, error) {
	rows, err := r.db.QueryxContext(ctx,
		`SELECT queue, COUNT(*) FROM review_items WHERE resolved_at IS NULL GROUP BY queue`)
	if err != nil {
		return nil, fmt.Errorf("count open review items: %w", err)
	}
	defer rows.Close()

	counts := make(map[models.ReviewQueue]int64)
	for rows.Next() {
		var queue models.ReviewQueue
		var count int64
		if err := rows.Scan(&queue, &count); err != nil {
			return nil, fmt.Errorf("scan review count: %w", err)
		}
		counts[queue] = count
	}
	return counts, rows.Err()
}
