package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"

	"github.com/fieldops/fieldops-api/internal/models"
)

func newQuoteRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func quoteRows(id string, status models.QuoteStatus, version int64) *sqlmock.Rows {
	now := time.Now()
	return sqlmock.NewRows([]string{
		"id", "case_id", "label", "status", "amount", "currency", "document_url",
		"requested_by_id", "handled_by_id", "notes", "sent_at", "accepted_at",
		"version", "created_at", "updated_at",
	}).AddRow(id, "case-1", "Remplacement ballon", status, 1890.50, "EUR", nil,
		"user-1", nil, nil, nil, nil, version, now, now)
}

func TestQuoteRepositoryCreateOpensQuoteReviewItem(t *testing.T) {
	db, mock, cleanup := newQuoteRepoMock(t)
	defer cleanup()

	repo := NewQuoteRepository(db)
	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO quotes")).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO review_items")).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	label := "Remplacement ballon"
	quote := &models.Quote{
		CaseID:        "case-1",
		Label:         &label,
		RequestedByID: "user-1",
	}
	err := repo.Create(context.Background(), quote, "Devis à traiter - Remplacement ballon")
	require.NoError(t, err)
	require.NotEmpty(t, quote.ID)
	require.Equal(t, models.QuoteStatusRequested, quote.Status)
	require.Equal(t, "EUR", quote.Currency)
	require.EqualValues(t, 1, quote.Version)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestQuoteRepositoryMarkSentResolvesQuoteQueue(t *testing.T) {
	db, mock, cleanup := newQuoteRepoMock(t)
	defer cleanup()

	repo := NewQuoteRepository(db)
	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("UPDATE quotes SET")).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE review_items SET")).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, case_id, label")).
		WithArgs("quote-1").
		WillReturnRows(quoteRows("quote-1", models.QuoteStatusSent, 2))
	mock.ExpectCommit()

	quote, err := repo.MarkSent(context.Background(), MarkSentParams{
		ID:          "quote-1",
		Version:     1,
		SentAt:      time.Now(),
		HandledByID: "office-1",
	})
	require.NoError(t, err)
	require.Equal(t, models.QuoteStatusSent, quote.Status)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestQuoteRepositoryUpdateResolvesQueueOnDecline(t *testing.T) {
	db, mock, cleanup := newQuoteRepoMock(t)
	defer cleanup()

	repo := NewQuoteRepository(db)
	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("UPDATE quotes SET")).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE review_items SET")).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, case_id, label")).
		WithArgs("quote-1").
		WillReturnRows(quoteRows("quote-1", models.QuoteStatusDeclined, 2))
	mock.ExpectCommit()

	declined := models.QuoteStatusDeclined
	quote, err := repo.Update(context.Background(), UpdateQuoteParams{
		ID:           "quote-1",
		Version:      1,
		Status:       &declined,
		ResolvedByID: "office-1",
	})
	require.NoError(t, err)
	require.Equal(t, models.QuoteStatusDeclined, quote.Status)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestQuoteRepositoryMarkAcceptedStaleVersion(t *testing.T) {
	db, mock, cleanup := newQuoteRepoMock(t)
	defer cleanup()

	repo := NewQuoteRepository(db)
	mock.ExpectQuery(regexp.QuoteMeta("UPDATE quotes SET")).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT EXISTS")).
		WithArgs("quote-1").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))

	_, err := repo.MarkAccepted(context.Background(), MarkAcceptedParams{
		ID:         "quote-1",
		Version:    1,
		AcceptedAt: time.Now(),
	})
	require.ErrorIs(t, err, ErrStaleVersion)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestQuoteRepositoryCreateQuoteRequestOpensQueueItem(t *testing.T) {
	db, mock, cleanup := newQuoteRepoMock(t)
	defer cleanup()

	repo := NewQuoteRepository(db)
	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO quote_requests")).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO review_items")).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	request := &models.QuoteRequest{
		InterventionID: "itv-1",
		Description:    "Remplacement vanne trois voies",
	}
	err := repo.CreateQuoteRequest(context.Background(), request, "Demande de devis - Remplacement vanne trois voi")
	require.NoError(t, err)
	require.NotEmpty(t, request.ID)
	require.Equal(t, models.QuoteRequestStatusPending, request.Status)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestQuoteRepositoryLinkRequestMovesToInProgress(t *testing.T) {
	db, mock, cleanup := newQuoteRepoMock(t)
	defer cleanup()

	repo := NewQuoteRepository(db)
	now := time.Now()
	rows := sqlmock.NewRows([]string{
		"id", "intervention_id", "quote_id", "description", "template_key",
		"status", "created_at", "updated_at",
	}).AddRow("req-1", "itv-1", "quote-1", "Remplacement vanne", nil, "IN_PROGRESS", now, now)
	mock.ExpectQuery(regexp.QuoteMeta("UPDATE quote_requests SET")).
		WithArgs("quote-1", "IN_PROGRESS", "req-1").
		WillReturnRows(rows)

	request, err := repo.LinkRequest(context.Background(), "req-1", "quote-1")
	require.NoError(t, err)
	require.Equal(t, models.QuoteRequestStatusInProgress, request.Status)
	require.NotNil(t, request.QuoteID)
	require.Equal(t, "quote-1", *request.QuoteID)
	require.NoError(t, mock.ExpectationsWereMet())
}
