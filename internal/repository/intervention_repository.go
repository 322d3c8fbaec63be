package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/fieldops/fieldops-api/internal/models"
)

const interventionColumns = `id, case_id, title, type, priority, status, technician_id,
	scheduled_start, scheduled_end, actual_start, actual_end, notes, drive_folder_url,
	version, created_at, updated_at`

// InterventionRepository persists interventions and their workflow writes.
// Every multi-row action (create with initial log, assign, transition) runs
// in a single transaction so the intervention row, its audit log and any
// review-queue mutation commit together or not at all.
type InterventionRepository struct {
	db *sqlx.DB
}

// NewInterventionRepository constructs the repository.
func NewInterventionRepository(db *sqlx.DB) *InterventionRepository {
	return &InterventionRepository{db: db}
}

// Create inserts a new intervention; when initialLog is non-nil the audit row
// is written in the same transaction.
func (r *InterventionRepository) Create(ctx context.Context, itv *models.Intervention, initialLog *models.InterventionLog) error {
	if itv.ID == "" {
		itv.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	itv.Version = 1
	itv.CreatedAt = now
	itv.UpdatedAt = now

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin create intervention tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	const query = `INSERT INTO interventions
	(id, case_id, title, type, priority, status, technician_id, scheduled_start, scheduled_end,
	 actual_start, actual_end, notes, drive_folder_url, version, created_at, updated_at)
	VALUES (:id, :case_id, :title, :type, :priority, :status, :technician_id, :scheduled_start, :scheduled_end,
	 :actual_start, :actual_end, :notes, :drive_folder_url, :version, :created_at, :updated_at)`
	if _, err := tx.NamedExecContext(ctx, query, itv); err != nil {
		return fmt.Errorf("create intervention: %w", err)
	}

	if initialLog != nil {
		initialLog.InterventionID = itv.ID
		if _, err := insertInterventionLogTx(ctx, tx, initialLog); err != nil {
			return err
		}
	}

	return tx.Commit()
}

// GetByID fetches an intervention without relations.
func (r *InterventionRepository) GetByID(ctx context.Context, id string) (*models.Intervention, error) {
	query := fmt.Sprintf(`SELECT %s FROM interventions WHERE id = $1`, interventionColumns)
	var itv models.Intervention
	if err := r.db.GetContext(ctx, &itv, query, id); err != nil {
		return nil, err
	}
	return &itv, nil
}

// InterventionFilter constrains listing queries.
type InterventionFilter struct {
	CaseID       string
	TechnicianID string
	Status       []models.InterventionStatus
	Limit        int
	Offset       int
}

// List returns interventions matching the filter, newest first.
func (r *InterventionRepository) List(ctx context.Context, filter InterventionFilter) ([]models.Intervention, error) {
	builder := strings.Builder{}
	builder.WriteString(fmt.Sprintf(`SELECT %s FROM interventions`, interventionColumns))

	args := make([]interface{}, 0, 4)
	conditions := make([]string, 0, 3)
	if filter.CaseID != "" {
		args = append(args, filter.CaseID)
		conditions = append(conditions, fmt.Sprintf("case_id = $%d", len(args)))
	}
	if filter.TechnicianID != "" {
		args = append(args, filter.TechnicianID)
		conditions = append(conditions, fmt.Sprintf("technician_id = $%d", len(args)))
	}
	if len(filter.Status) > 0 {
		placeholders := make([]string, len(filter.Status))
		for i, status := range filter.Status {
			args = append(args, status)
			placeholders[i] = fmt.Sprintf("$%d", len(args))
		}
		conditions = append(conditions, fmt.Sprintf("status IN (%s)", strings.Join(placeholders, ",")))
	}
	if len(conditions) > 0 {
		builder.WriteString(" WHERE ")
		builder.WriteString(strings.Join(conditions, " AND "))
	}
	builder.WriteString(" ORDER BY created_at DESC")

	limit := filter.Limit
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	offset := filter.Offset
	if offset < 0 {
		offset = 0
	}
	builder.WriteString(fmt.Sprintf(" LIMIT %d OFFSET %d", limit, offset))

	var interventions []models.Intervention
	if err := r.db.SelectContext(ctx, &interventions, builder.String(), args...); err != nil {
		return nil, fmt.Errorf("list interventions: %w", err)
	}
	return interventions, nil
}

// LoadRelations attaches logs (oldest first), media, quote requests and
// device proposals to the intervention.
func (r *InterventionRepository) LoadRelations(ctx context.Context, itv *models.Intervention) error {
	const logsQuery = `SELECT id, intervention_id, status_from, status_to, created_by_id, note, idempotency_key, created_at
	FROM intervention_logs WHERE intervention_id = $1 ORDER BY created_at ASC`
	if err := r.db.SelectContext(ctx, &itv.Logs, logsQuery, itv.ID); err != nil {
		return fmt.Errorf("load intervention logs: %w", err)
	}

	const mediaQuery = `SELECT id, intervention_id, url, description, media_type, created_at
	FROM intervention_media WHERE intervention_id = $1 ORDER BY created_at ASC`
	if err := r.db.SelectContext(ctx, &itv.Media, mediaQuery, itv.ID); err != nil {
		return fmt.Errorf("load intervention media: %w", err)
	}

	const requestsQuery = `SELECT id, intervention_id, quote_id, description, template_key, status, created_at, updated_at
	FROM quote_requests WHERE intervention_id = $1 ORDER BY created_at ASC`
	if err := r.db.SelectContext(ctx, &itv.QuoteRequests, requestsQuery, itv.ID); err != nil {
		return fmt.Errorf("load quote requests: %w", err)
	}

	proposalsQuery := fmt.Sprintf(`SELECT %s FROM device_proposals WHERE intervention_id = $1 ORDER BY created_at ASC`, proposalColumns)
	if err := r.db.SelectContext(ctx, &itv.DeviceProposals, proposalsQuery, itv.ID); err != nil {
		return fmt.Errorf("load device proposals: %w", err)
	}
	return nil
}

// ListLogs returns the audit trail for an intervention, oldest first.
func (r *InterventionRepository) ListLogs(ctx context.Context, interventionID string) ([]models.InterventionLog, error) {
	const query = `SELECT id, intervention_id, status_from, status_to, created_by_id, note, idempotency_key, created_at
	FROM intervention_logs WHERE intervention_id = $1 ORDER BY created_at ASC`
	var logs []models.InterventionLog
	if err := r.db.SelectContext(ctx, &logs, query, interventionID); err != nil {
		return nil, fmt.Errorf("list intervention logs: %w", err)
	}
	return logs, nil
}

// AssignInterventionParams groups the columns touched by an assignment.
type AssignInterventionParams struct {
	ID             string
	Version        int64
	StatusFrom     models.InterventionStatus
	TechnicianID   string
	AssignedByID   string
	ScheduledStart *time.Time
	ScheduledEnd   *time.Time
	Note           *string
	IdempotencyKey *string
}

// Assign sets the technician and moves the intervention to ASSIGNED, writing
// the audit row in the same transaction.
func (r *InterventionRepository) Assign(ctx context.Context, params AssignInterventionParams) (*models.Intervention, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin assign tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	const query = `UPDATE interventions SET
	technician_id = $1,
	status = $2,
	scheduled_start = COALESCE($3, scheduled_start),
	scheduled_end = COALESCE($4, scheduled_end),
	version = version + 1,
	updated_at = now()
	WHERE id = $5 AND version = $6`
	result, err := tx.ExecContext(ctx, query,
		params.TechnicianID, models.InterventionStatusAssigned,
		params.ScheduledStart, params.ScheduledEnd, params.ID, params.Version)
	if err != nil {
		return nil, fmt.Errorf("assign intervention: %w", err)
	}
	if err := guardAffected(ctx, tx, result, "interventions", params.ID); err != nil {
		return nil, err
	}

	note := params.Note
	if note == nil {
		defaultNote := "Assignation"
		note = &defaultNote
	}
	statusFrom := params.StatusFrom
	applied, err := insertInterventionLogTx(ctx, tx, &models.InterventionLog{
		InterventionID: params.ID,
		StatusFrom:     &statusFrom,
		StatusTo:       models.InterventionStatusAssigned,
		CreatedByID:    params.AssignedByID,
		Note:           note,
		IdempotencyKey: params.IdempotencyKey,
	})
	if err != nil {
		return nil, err
	}
	if !applied {
		// Duplicate delivery: abandon every write from this call.
		_ = tx.Rollback()
		return r.GetByID(ctx, params.ID)
	}

	itv, err := getInterventionTx(ctx, tx, params.ID)
	if err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit assign tx: %w", err)
	}
	return itv, nil
}

// TransitionInterventionParams groups a status-change write and its fan-out.
type TransitionInterventionParams struct {
	ID             string
	Version        int64
	NewStatus      models.InterventionStatus
	UserID         string
	Note           *string
	Timestamp      time.Time
	IdempotencyKey *string
	// ReviewLabel is the label for the REPORT review item created when the
	// new status is REPORT_PENDING.
	ReviewLabel string
}

// Transition applies a status change together with its audit row and any
// review-queue fan-out: REPORT_PENDING opens a REPORT item, COMPLETED
// resolves every open item referencing the intervention.
func (r *InterventionRepository) Transition(ctx context.Context, params TransitionInterventionParams) (*models.Intervention, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin transition tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	// actualStart/actualEnd are written once; a later transition into the
	// same status never overwrites the recorded time.
	const query = `UPDATE interventions SET
	status = $1,
	actual_start = CASE WHEN $1 = 'ON_SITE' THEN COALESCE(actual_start, $2) ELSE actual_start END,
	actual_end = CASE WHEN $1 = 'COMPLETED' THEN COALESCE(actual_end, $2) ELSE actual_end END,
	version = version + 1,
	updated_at = now()
	WHERE id = $3 AND version = $4`
	result, err := tx.ExecContext(ctx, query, params.NewStatus, params.Timestamp, params.ID, params.Version)
	if err != nil {
		return nil, fmt.Errorf("transition intervention: %w", err)
	}
	if err := guardAffected(ctx, tx, result, "interventions", params.ID); err != nil {
		return nil, err
	}

	applied, err := insertInterventionLogTx(ctx, tx, &models.InterventionLog{
		InterventionID: params.ID,
		StatusTo:       params.NewStatus,
		CreatedByID:    params.UserID,
		Note:           params.Note,
		IdempotencyKey: params.IdempotencyKey,
	})
	if err != nil {
		return nil, err
	}
	if !applied {
		_ = tx.Rollback()
		return r.GetByID(ctx, params.ID)
	}

	switch params.NewStatus {
	case models.InterventionStatusReportPending:
		if err := insertReviewItemTx(ctx, tx, &models.ReviewItem{
			Queue:       models.ReviewQueueReport,
			ReferenceID: params.ID,
			Label:       params.ReviewLabel,
		}); err != nil {
			return nil, err
		}
	case models.InterventionStatusCompleted:
		note := "Intervention terminée"
		if _, err := resolveOpenReviewItemsTx(ctx, tx, params.ID, nil, params.Timestamp, nil, &note); err != nil {
			return nil, err
		}
	}

	itv, err := getInterventionTx(ctx, tx, params.ID)
	if err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit transition tx: %w", err)
	}
	return itv, nil
}

// CreateMedia attaches a media record to an intervention.
func (r *InterventionRepository) CreateMedia(ctx context.Context, media *models.InterventionMedia) error {
	if media.ID == "" {
		media.ID = uuid.NewString()
	}
	if media.MediaType == "" {
		media.MediaType = models.MediaTypePhoto
	}
	if media.CreatedAt.IsZero() {
		media.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO intervention_media
	(id, intervention_id, url, description, media_type, created_at)
	VALUES (:id, :intervention_id, :url, :description, :media_type, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, media); err != nil {
		return fmt.Errorf("create intervention media: %w", err)
	}
	return nil
}

// CountByStatus returns per-status intervention counts for the dashboard.
func (r *InterventionRepository) CountByStatus(ctx context.Context) (map[models.InterventionStatus]int64, error) {
	rows, err := r.db.QueryxContext(ctx, `SELECT status, COUNT(*) FROM interventions GROUP BY status`)
	if err != nil {
		return nil, fmt.Errorf("count interventions by status: %w", err)
	}
	defer rows.Close()

	counts := make(map[models.InterventionStatus]int64)
	for rows.Next() {
		var status models.InterventionStatus
		var count int64
		if err := rows.Scan(&status, &count); err != nil {
			return nil, fmt.Errorf("scan intervention count: %w", err)
		}
		counts[status] = count
	}
	return counts, rows.Err()
}

func getInterventionTx(ctx context.Context, tx *sqlx.Tx, id string) (*models.Intervention, error) {
	query := fmt.Sprintf(`SELECT %s FROM interventions WHERE id = $1`, interventionColumns)
	var itv models.Intervention
	if err := tx.GetContext(ctx, &itv, query, id); err != nil {
		return nil, err
	}
	return &itv, nil
}

// guardAffected distinguishes a vanished row from a lost version race after
// a zero-row guarded update.
func guardAffected(ctx context.Context, tx *sqlx.Tx, result sql.Result, table, id string) error {
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("update %s: %w", table, err)
	}
	if affected > 0 {
		return nil
	}
	var exists bool
	query := fmt.Sprintf("SELECT EXISTS (SELECT 1 FROM %s WHERE id = $1)", table)
	if err := tx.GetContext(ctx, &exists, query, id); err != nil {
		return fmt.Errorf("check %s existence: %w", table, err)
	}
	if !exists {
		return sql.ErrNoRows
	}
	return ErrStaleVersion
}
