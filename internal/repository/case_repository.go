package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/fieldops/fieldops-api/internal/models"
)

const caseColumns = `id, title, description, priority, status, client_id, site_id,
	drive_folder_url, calendar_event_id, planned_at, created_by_id, closed_by_id,
	closed_at, version, created_at, updated_at`

// CaseRepository persists service cases.
type CaseRepository struct {
	db *sqlx.DB
}

// NewCaseRepository constructs the repository.
func NewCaseRepository(db *sqlx.DB) *CaseRepository {
	return &CaseRepository{db: db}
}

// Create inserts a new case in OPEN state.
func (r *CaseRepository) Create(ctx context.Context, kase *models.Case) error {
	if kase.ID == "" {
		kase.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if kase.Status == "" {
		kase.Status = models.CaseStatusOpen
	}
	if kase.Priority == "" {
		kase.Priority = models.PriorityStandard
	}
	kase.Version = 1
	kase.CreatedAt = now
	kase.UpdatedAt = now

	const query = `INSERT INTO cases
	(id, title, description, priority, status, client_id, site_id, drive_folder_url,
	 calendar_event_id, planned_at, created_by_id, closed_by_id, closed_at, version,
	 created_at, updated_at)
	VALUES (:id, :title, :description, :priority, :status, :client_id, :site_id, :drive_folder_url,
	 :calendar_event_id, :planned_at, :created_by_id, :closed_by_id, :closed_at, :version,
	 :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, kase); err != nil {
		return fmt.Errorf("create case: %w", err)
	}
	return nil
}

// GetByID fetches a case with its interventions and quotes.
func (r *CaseRepository) GetByID(ctx context.Context, id string) (*models.Case, error) {
	query := fmt.Sprintf(`SELECT %s FROM cases WHERE id = $1`, caseColumns)
	var kase models.Case
	if err := r.db.GetContext(ctx, &kase, query, id); err != nil {
		return nil, err
	}

	interventionsQuery := fmt.Sprintf(`SELECT %s FROM interventions WHERE case_id = $1 ORDER BY created_at ASC`, interventionColumns)
	if err := r.db.SelectContext(ctx, &kase.Interventions, interventionsQuery, id); err != nil {
		return nil, fmt.Errorf("load case interventions: %w", err)
	}

	quotesQuery := fmt.Sprintf(`SELECT %s FROM quotes WHERE case_id = $1 ORDER BY created_at ASC`, quoteColumns)
	if err := r.db.SelectContext(ctx, &kase.Quotes, quotesQuery, id); err != nil {
		return nil, fmt.Errorf("load case quotes: %w", err)
	}
	return &kase, nil
}

// CaseFilter constrains case listing.
type CaseFilter struct {
	ClientID string
	SiteID   string
	Status   []models.CaseStatus
	Priority models.Priority
	Limit    int
	Offset   int
}

// List returns cases, most recently updated first.
func (r *CaseRepository) List(ctx context.Context, filter CaseFilter) ([]models.Case, error) {
	builder := strings.Builder{}
	builder.WriteString(fmt.Sprintf(`SELECT %s FROM cases`, caseColumns))

	args := make([]interface{}, 0, 4)
	conditions := make([]string, 0, 4)
	if filter.ClientID != "" {
		args = append(args, filter.ClientID)
		conditions = append(conditions, fmt.Sprintf("client_id = $%d", len(args)))
	}
	if filter.SiteID != "" {
		args = append(args, filter.SiteID)
		conditions = append(conditions, fmt.Sprintf("site_id = $%d", len(args)))
	}
	if len(filter.Status) > 0 {
		placeholders := make([]string, len(filter.Status))
		for i, status := range filter.Status {
			args = append(args, status)
			placeholders[i] = fmt.Sprintf("$%d", len(args))
		}
		conditions = append(conditions, fmt.Sprintf("status IN (%s)", strings.Join(placeholders, ",")))
	}
	if filter.Priority != "" {
		args = append(args, filter.Priority)
		conditions = append(conditions, fmt.Sprintf("priority = $%d", len(args)))
	}
	if len(conditions) > 0 {
		builder.WriteString(" WHERE ")
		builder.WriteString(strings.Join(conditions, " AND "))
	}
	builder.WriteString(" ORDER BY updated_at DESC")

	limit := filter.Limit
	if limit <= 0 {
		limit = 50
	}
	if limit > 200 {
		limit = 200
	}
	args = append(args, limit)
	builder.WriteString(fmt.Sprintf(" LIMIT $%d", len(args)))
	if filter.Offset > 0 {
		args = append(args, filter.Offset)
		builder.WriteString(fmt.Sprintf(" OFFSET $%d", len(args)))
	}

	var cases []models.Case
	if err := r.db.SelectContext(ctx, &cases, builder.String(), args...); err != nil {
		return nil, fmt.Errorf("list cases: %w", err)
	}
	return cases, nil
}

// UpdateCaseParams carries a version-guarded case patch.
type UpdateCaseParams struct {
	ID              string
	Version         int64
	Title           *string
	Description     *string
	Priority        *models.Priority
	Status          *models.CaseStatus
	DriveFolderURL  *string
	CalendarEventID *string
	PlannedAt       *time.Time
}

// Update patches the provided case columns behind the version guard.
func (r *CaseRepository) Update(ctx context.Context, params UpdateCaseParams) (*models.Case, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin update case tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	const query = `UPDATE cases SET
	title = COALESCE($1, title),
	description = COALESCE($2, description),
	priority = COALESCE($3, priority),
	status = COALESCE($4, status),
	drive_folder_url = COALESCE($5, drive_folder_url),
	calendar_event_id = COALESCE($6, calendar_event_id),
	planned_at = COALESCE($7, planned_at),
	version = version + 1,
	updated_at = now()
	WHERE id = $8 AND version = $9`
	result, err := tx.ExecContext(ctx, query,
		params.Title, params.Description, params.Priority, params.Status,
		params.DriveFolderURL, params.CalendarEventID, params.PlannedAt,
		params.ID, params.Version)
	if err != nil {
		return nil, fmt.Errorf("update case: %w", err)
	}
	if err := guardAffected(ctx, tx, result, "cases", params.ID); err != nil {
		return nil, err
	}

	updated, err := getCaseTx(ctx, tx, params.ID)
	if err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit update case tx: %w", err)
	}
	return updated, nil
}

// CloseCaseParams carries the explicit close action.
type CloseCaseParams struct {
	ID          string
	Version     int64
	ClosedByID  string
	ClosedAt    time.Time
	ReviewLabel string
	Notes       *string
}

// Close moves a case to CLOSED and opens a REPORT review item for the
// closing summary in the same transaction.
func (r *CaseRepository) Close(ctx context.Context, params CloseCaseParams) (*models.Case, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin close case tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	const query = `UPDATE cases SET
	status = $1,
	closed_by_id = $2,
	closed_at = $3,
	version = version + 1,
	updated_at = now()
	WHERE id = $4 AND version = $5`
	result, err := tx.ExecContext(ctx, query,
		models.CaseStatusClosed, params.ClosedByID, params.ClosedAt, params.ID, params.Version)
	if err != nil {
		return nil, fmt.Errorf("close case: %w", err)
	}
	if err := guardAffected(ctx, tx, result, "cases", params.ID); err != nil {
		return nil, err
	}

	if err := insertReviewItemTx(ctx, tx, &models.ReviewItem{
		Queue:       models.ReviewQueueReport,
		ReferenceID: params.ID,
		Label:       params.ReviewLabel,
		Notes:       params.Notes,
	}); err != nil {
		return nil, err
	}

	updated, err := getCaseTx(ctx, tx, params.ID)
	if err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit close case tx: %w", err)
	}
	return updated, nil
}

// CountByStatus returns per-status case counts for the dashboard.
func (r *CaseRepository) CountByStatus(ctx context.Context) (map[models.CaseStatus]int64, error) {
	rows, err := r.db.QueryxContext(ctx, `SELECT status, COUNT(*) FROM cases GROUP BY status`)
	if err != nil {
		return nil, fmt.Errorf("count cases by status: %w", err)
	}
	defer rows.Close()

	counts := make(map[models.CaseStatus]int64)
	for rows.Next() {
		var status models.CaseStatus
		var count int64
		if err := rows.Scan(&status, &count); err != nil {
			return nil, fmt.Errorf("scan case count: %w", err)
		}
		counts[status] = count
	}
	return counts, rows.Err()
}

func getCaseTx(ctx context.Context, tx *sqlx.Tx, id string) (*models.Case, error) {
	query := fmt.Sprintf(`SELECT %s FROM cases WHERE id = $1`, caseColumns)
	var kase models.Case
	if err := tx.GetContext(ctx, &kase, query, id); err != nil {
		return nil, err
	}
	return &kase, nil
}
