package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/fieldops/fieldops-api/internal/models"
)

const quoteColumns = `id, case_id, label, status, amount, currency, document_url,
	requested_by_id, handled_by_id, notes, sent_at, accepted_at, version, created_at, updated_at`

const quoteRequestColumns = `id, intervention_id, quote_id, description, template_key,
	status, created_at, updated_at`

// QuoteRepository persists quotes, quote requests and their review items.
type QuoteRepository struct {
	db *sqlx.DB
}

// NewQuoteRepository constructs the repository.
func NewQuoteRepository(db *sqlx.DB) *QuoteRepository {
	return &QuoteRepository{db: db}
}

// Create inserts a quote and opens its QUOTE review item in one transaction.
func (r *QuoteRepository) Create(ctx context.Context, quote *models.Quote, reviewLabel string) error {
	if quote.ID == "" {
		quote.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if quote.Status == "" {
		quote.Status = models.QuoteStatusRequested
	}
	if quote.Currency == "" {
		quote.Currency = "EUR"
	}
	quote.Version = 1
	quote.CreatedAt = now
	quote.UpdatedAt = now

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin create quote tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	const query = `INSERT INTO quotes
	(id, case_id, label, status, amount, currency, document_url, requested_by_id,
	 handled_by_id, notes, sent_at, accepted_at, version, created_at, updated_at)
	VALUES (:id, :case_id, :label, :status, :amount, :currency, :document_url, :requested_by_id,
	 :handled_by_id, :notes, :sent_at, :accepted_at, :version, :created_at, :updated_at)`
	if _, err := tx.NamedExecContext(ctx, query, quote); err != nil {
		return fmt.Errorf("create quote: %w", err)
	}

	if err := insertReviewItemTx(ctx, tx, &models.ReviewItem{
		Queue:       models.ReviewQueueQuote,
		ReferenceID: quote.ID,
		Label:       reviewLabel,
	}); err != nil {
		return err
	}

	return tx.Commit()
}

// GetByID fetches a quote with its linked field requests.
func (r *QuoteRepository) GetByID(ctx context.Context, id string) (*models.Quote, error) {
	query := fmt.Sprintf(`SELECT %s FROM quotes WHERE id = $1`, quoteColumns)
	var quote models.Quote
	if err := r.db.GetContext(ctx, &quote, query, id); err != nil {
		return nil, err
	}

	requestsQuery := fmt.Sprintf(`SELECT %s FROM quote_requests WHERE quote_id = $1 ORDER BY created_at ASC`, quoteRequestColumns)
	if err := r.db.SelectContext(ctx, &quote.QuoteRequests, requestsQuery, id); err != nil {
		return nil, fmt.Errorf("load quote requests: %w", err)
	}
	return &quote, nil
}

// QuoteFilter constrains quote listing.
type QuoteFilter struct {
	CaseID string
	Status []models.QuoteStatus
}

// List returns quotes, most recently updated first.
func (r *QuoteRepository) List(ctx context.Context, filter QuoteFilter) ([]models.Quote, error) {
	builder := strings.Builder{}
	builder.WriteString(fmt.Sprintf(`SELECT %s FROM quotes`, quoteColumns))

	args := make([]interface{}, 0, 2)
	conditions := make([]string, 0, 2)
	if filter.CaseID != "" {
		args = append(args, filter.CaseID)
		conditions = append(conditions, fmt.Sprintf("case_id = $%d", len(args)))
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
	builder.WriteString(" ORDER BY updated_at DESC")

	var quotes []models.Quote
	if err := r.db.SelectContext(ctx, &quotes, builder.String(), args...); err != nil {
		return nil, fmt.Errorf("list quotes: %w", err)
	}
	return quotes, nil
}

// UpdateQuoteParams carries a version-guarded quote update.
type UpdateQuoteParams struct {
	ID           string
	Version      int64
	Label        *string
	Amount       *float64
	Currency     *string
	Status       *models.QuoteStatus
	DocumentURL  *string
	HandledByID  *string
	Notes        *string
	ResolvedByID string
	Now          time.Time
}

// Update patches a quote; when the new status resolves the commercial
// follow-up (SENT, ACCEPTED or DECLINED) the open QUOTE review items are
// resolved in the same transaction.
func (r *QuoteRepository) Update(ctx context.Context, params UpdateQuoteParams) (*models.Quote, error) {
	now := params.Now
	if now.IsZero() {
		now = time.Now().UTC()
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin update quote tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	const query = `UPDATE quotes SET
	label = COALESCE($1, label),
	amount = COALESCE($2, amount),
	currency = COALESCE($3, currency),
	status = COALESCE($4, status),
	document_url = COALESCE($5, document_url),
	handled_by_id = COALESCE($6, handled_by_id),
	notes = COALESCE($7, notes),
	sent_at = CASE WHEN $4 = 'SENT' THEN COALESCE(sent_at, $8) ELSE sent_at END,
	accepted_at = CASE WHEN $4 = 'ACCEPTED' THEN COALESCE(accepted_at, $8) ELSE accepted_at END,
	version = version + 1,
	updated_at = now()
	WHERE id = $9 AND version = $10`
	result, err := tx.ExecContext(ctx, query,
		params.Label, params.Amount, params.Currency, params.Status,
		params.DocumentURL, params.HandledByID, params.Notes, now, params.ID, params.Version)
	if err != nil {
		return nil, fmt.Errorf("update quote: %w", err)
	}
	if err := guardAffected(ctx, tx, result, "quotes", params.ID); err != nil {
		return nil, err
	}

	if params.Status != nil && params.Status.Resolving() {
		queue := models.ReviewQueueQuote
		var resolvedBy *string
		if params.ResolvedByID != "" {
			resolvedBy = &params.ResolvedByID
		}
		if _, err := resolveOpenReviewItemsTx(ctx, tx, params.ID, &queue, now, resolvedBy, nil); err != nil {
			return nil, err
		}
	}

	updated, err := getQuoteTx(ctx, tx, params.ID)
	if err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit update quote tx: %w", err)
	}
	return updated, nil
}

// MarkSentParams carries the send transition.
type MarkSentParams struct {
	ID          string
	Version     int64
	SentAt      time.Time
	DocumentURL *string
	HandledByID string
}

// MarkSent moves a quote to SENT and resolves its open QUOTE review items.
func (r *QuoteRepository) MarkSent(ctx context.Context, params MarkSentParams) (*models.Quote, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin mark sent tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	const query = `UPDATE quotes SET
	status = $1,
	sent_at = COALESCE(sent_at, $2),
	document_url = COALESCE($3, document_url),
	handled_by_id = $4,
	version = version + 1,
	updated_at = now()
	WHERE id = $5 AND version = $6`
	result, err := tx.ExecContext(ctx, query,
		models.QuoteStatusSent, params.SentAt, params.DocumentURL,
		params.HandledByID, params.ID, params.Version)
	if err != nil {
		return nil, fmt.Errorf("mark quote sent: %w", err)
	}
	if err := guardAffected(ctx, tx, result, "quotes", params.ID); err != nil {
		return nil, err
	}

	queue := models.ReviewQueueQuote
	resolvedBy := params.HandledByID
	if _, err := resolveOpenReviewItemsTx(ctx, tx, params.ID, &queue, params.SentAt, &resolvedBy, nil); err != nil {
		return nil, err
	}

	updated, err := getQuoteTx(ctx, tx, params.ID)
	if err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit mark sent tx: %w", err)
	}
	return updated, nil
}

// MarkAcceptedParams carries the acceptance transition.
type MarkAcceptedParams struct {
	ID         string
	Version    int64
	AcceptedAt time.Time
}

// MarkAccepted moves a quote to ACCEPTED. Review items were already
// resolved when the quote went out, so none are touched here.
func (r *QuoteRepository) MarkAccepted(ctx context.Context, params MarkAcceptedParams) (*models.Quote, error) {
	const query = `UPDATE quotes SET
	status = $1,
	accepted_at = COALESCE(accepted_at, $2),
	version = version + 1,
	updated_at = now()
	WHERE id = $3 AND version = $4
	RETURNING ` + quoteColumns
	var quote models.Quote
	err := r.db.GetContext(ctx, &quote, query, models.QuoteStatusAccepted, params.AcceptedAt, params.ID, params.Version)
	if errors.Is(err, sql.ErrNoRows) {
		var exists bool
		if probeErr := r.db.GetContext(ctx, &exists,
			`SELECT EXISTS (SELECT 1 FROM quotes WHERE id = $1)`, params.ID); probeErr != nil {
			return nil, fmt.Errorf("probe quotes row: %w", probeErr)
		}
		if exists {
			return nil, ErrStaleVersion
		}
		return nil, sql.ErrNoRows
	}
	if err != nil {
		return nil, fmt.Errorf("mark quote accepted: %w", err)
	}
	return &quote, nil
}

// CreateQuoteRequest inserts a field request for commercial follow-up and
// opens its QUOTE review item in one transaction.
func (r *QuoteRepository) CreateQuoteRequest(ctx context.Context, request *models.QuoteRequest, reviewLabel string) error {
	if request.ID == "" {
		request.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if request.Status == "" {
		request.Status = models.QuoteRequestStatusPending
	}
	request.CreatedAt = now
	request.UpdatedAt = now

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin create quote request tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	const query = `INSERT INTO quote_requests
	(id, intervention_id, quote_id, description, template_key, status, created_at, updated_at)
	VALUES (:id, :intervention_id, :quote_id, :description, :template_key, :status, :created_at, :updated_at)`
	if _, err := tx.NamedExecContext(ctx, query, request); err != nil {
		return fmt.Errorf("create quote request: %w", err)
	}

	if err := insertReviewItemTx(ctx, tx, &models.ReviewItem{
		Queue:       models.ReviewQueueQuote,
		ReferenceID: request.ID,
		Label:       reviewLabel,
	}); err != nil {
		return err
	}

	return tx.Commit()
}

// GetQuoteRequestByID fetches one quote request.
func (r *QuoteRepository) GetQuoteRequestByID(ctx context.Context, id string) (*models.QuoteRequest, error) {
	query := fmt.Sprintf(`SELECT %s FROM quote_requests WHERE id = $1`, quoteRequestColumns)
	var request models.QuoteRequest
	if err := r.db.GetContext(ctx, &request, query, id); err != nil {
		return nil, err
	}
	return &request, nil
}

// LinkRequest attaches a pending request to a quote and moves it to
// IN_PROGRESS.
func (r *QuoteRepository) LinkRequest(ctx context.Context, requestID, quoteID string) (*models.QuoteRequest, error) {
	const query = `UPDATE quote_requests SET
	quote_id = $1,
	status = $2,
	updated_at = now()
	WHERE id = $3
	RETURNING ` + quoteRequestColumns
	var request models.QuoteRequest
	if err := r.db.GetContext(ctx, &request, query, quoteID, models.QuoteRequestStatusInProgress, requestID); err != nil {
		return nil, err
	}
	return &request, nil
}

func getQuoteTx(ctx context.Context, tx *sqlx.Tx, id string) (*models.Quote, error) {
	query := fmt.Sprintf(`SELECT %s FROM quotes WHERE id = $1`, quoteColumns)
	var quote models.Quote
	if err := tx.GetContext(ctx, &quote, query, id); err != nil {
		return nil, err
	}
	return &quote, nil
}
