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

func newReviewRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func reviewRows(id string, resolvedAt *time.Time) *sqlmock.Rows {
	return sqlmock.NewRows([]string{
		"id", "queue", "reference_id", "label", "notes", "resolved_at",
		"resolved_by_id", "created_at",
	}).AddRow(id, "REPORT", "itv-1", "Compte rendu à valider - Fuite", nil, resolvedAt, nil, time.Now())
}

func TestReviewRepositoryListPendingOnly(t *testing.T) {
	db, mock, cleanup := newReviewRepoMock(t)
	defer cleanup()

	repo := NewReviewRepository(db)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, queue, reference_id")).
		WithArgs("REPORT").
		WillReturnRows(reviewRows("rev-1", nil))

	items, err := repo.List(context.Background(), ReviewFilter{
		Queue:       models.ReviewQueueReport,
		PendingOnly: true,
	})
	require.NoError(t, err)
	require.Len(t, items, 1)
	require.False(t, items[0].Resolved())
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestReviewRepositoryResolveOne(t *testing.T) {
	db, mock, cleanup := newReviewRepoMock(t)
	defer cleanup()

	repo := NewReviewRepository(db)
	resolvedAt := time.Now()
	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("UPDATE review_items SET")).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, queue, reference_id")).
		WithArgs("rev-1").
		WillReturnRows(reviewRows("rev-1", &resolvedAt))
	mock.ExpectCommit()

	item, err := repo.ResolveOne(context.Background(), "rev-1", resolvedAt, "office-1", nil)
	require.NoError(t, err)
	require.True(t, item.Resolved())
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestReviewRepositoryResolveOneAlreadyResolved(t *testing.T) {
	db, mock, cleanup := newReviewRepoMock(t)
	defer cleanup()

	repo := NewReviewRepository(db)
	resolvedAt := time.Now().Add(-time.Hour)
	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("UPDATE review_items SET")).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, queue, reference_id")).
		WithArgs("rev-1").
		WillReturnRows(reviewRows("rev-1", &resolvedAt))
	mock.ExpectRollback()

	item, err := repo.ResolveOne(context.Background(), "rev-1", time.Now(), "office-1", nil)
	require.ErrorIs(t, err, ErrAlreadyResolved)
	require.NotNil(t, item)
	require.True(t, item.Resolved())
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestReviewRepositoryCountOpenByQueue(t *testing.T) {
	db, mock, cleanup := newReviewRepoMock(t)
	defer cleanup()

	repo := NewReviewRepository(db)
	rows := sqlmock.NewRows([]string{"queue", "count"}).
		AddRow("REPORT", 3).
		AddRow("QUOTE", 1)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT queue, COUNT(*) FROM review_items")).
		WillReturnRows(rows)

	counts, err := repo.CountOpenByQueue(context.Background())
	require.NoError(t, err)
	require.EqualValues(t, 3, counts[models.ReviewQueueReport])
	require.EqualValues(t, 1, counts[models.ReviewQueueQuote])
	require.NoError(t, mock.ExpectationsWereMet())
}
