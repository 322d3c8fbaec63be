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

func newDeviceRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func proposalRows(id string, status models.ProposalStatus, version int64) *sqlmock.Rows {
	now := time.Now()
	return sqlmock.NewRows([]string{
		"id", "site_id", "intervention_id", "previous_device_id", "label", "brand", "model",
		"serial_number", "gps_latitude", "gps_longitude", "access_location", "notes",
		"photos_folder_url", "status", "validated_by_id", "validated_at", "rejection_note",
		"rejected_at", "version", "created_at", "updated_at",
	}).AddRow(id, "site-1", "itv-1", nil, "Chaudière Viessmann", nil, nil, nil,
		nil, nil, nil, nil, nil, status, nil, nil, nil, nil, version, now, now)
}

func TestDeviceRepositoryCreateProposalOpensValidationItem(t *testing.T) {
	db, mock, cleanup := newDeviceRepoMock(t)
	defer cleanup()

	repo := NewDeviceRepository(db)
	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO device_proposals")).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO review_items")).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	proposal := &models.DeviceProposal{
		SiteID:         "site-1",
		InterventionID: "itv-1",
		Label:          "Chaudière Viessmann",
	}
	err := repo.CreateProposal(context.Background(), proposal, "Nouvel appareil à valider - Chaudière Viessmann")
	require.NoError(t, err)
	require.NotEmpty(t, proposal.ID)
	require.Equal(t, models.ProposalStatusPendingValidation, proposal.Status)
	require.EqualValues(t, 1, proposal.Version)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestDeviceRepositoryResolveProposalActiveCreatesDeviceAndRetiresPrevious(t *testing.T) {
	db, mock, cleanup := newDeviceRepoMock(t)
	defer cleanup()

	repo := NewDeviceRepository(db)
	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO devices")).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE devices SET status")).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE device_proposals SET")).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE review_items SET")).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, site_id, intervention_id")).
		WithArgs("prop-1").
		WillReturnRows(proposalRows("prop-1", models.ProposalStatusActive, 2))
	mock.ExpectCommit()

	previousID := "dev-old"
	proposal := &models.DeviceProposal{
		ID:               "prop-1",
		SiteID:           "site-1",
		InterventionID:   "itv-1",
		PreviousDeviceID: &previousID,
		Label:            "Chaudière Viessmann",
		Status:           models.ProposalStatusPendingValidation,
		Version:          1,
	}
	updated, device, err := repo.ResolveProposal(context.Background(), ResolveProposalParams{
		Proposal:      proposal,
		Outcome:       models.ProposalStatusActive,
		ValidatedByID: "office-1",
	})
	require.NoError(t, err)
	require.Equal(t, models.ProposalStatusActive, updated.Status)
	require.NotNil(t, device)
	require.Equal(t, models.DeviceStatusActive, device.Status)
	require.Equal(t, proposal.SiteID, device.SiteID)
	require.Equal(t, proposal.Label, device.Label)
	require.NotNil(t, device.InstalledAt)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestDeviceRepositoryResolveProposalRejectedSkipsDeviceCreation(t *testing.T) {
	db, mock, cleanup := newDeviceRepoMock(t)
	defer cleanup()

	repo := NewDeviceRepository(db)
	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("UPDATE device_proposals SET")).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE review_items SET")).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, site_id, intervention_id")).
		WithArgs("prop-1").
		WillReturnRows(proposalRows("prop-1", models.ProposalStatusRejected, 2))
	mock.ExpectCommit()

	rejection := "Numéro de série illisible"
	updated, device, err := repo.ResolveProposal(context.Background(), ResolveProposalParams{
		Proposal: &models.DeviceProposal{
			ID:      "prop-1",
			SiteID:  "site-1",
			Label:   "Chaudière Viessmann",
			Status:  models.ProposalStatusPendingValidation,
			Version: 1,
		},
		Outcome:       models.ProposalStatusRejected,
		ValidatedByID: "office-1",
		RejectionNote: &rejection,
	})
	require.NoError(t, err)
	require.Nil(t, device)
	require.Equal(t, models.ProposalStatusRejected, updated.Status)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestDeviceRepositoryResolveProposalAlreadyResolved(t *testing.T) {
	db, mock, cleanup := newDeviceRepoMock(t)
	defer cleanup()

	repo := NewDeviceRepository(db)
	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("UPDATE device_proposals SET")).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, site_id, intervention_id")).
		WithArgs("prop-1").
		WillReturnRows(proposalRows("prop-1", models.ProposalStatusActive, 2))
	mock.ExpectRollback()

	_, _, err := repo.ResolveProposal(context.Background(), ResolveProposalParams{
		Proposal: &models.DeviceProposal{
			ID:      "prop-1",
			SiteID:  "site-1",
			Label:   "Chaudière Viessmann",
			Status:  models.ProposalStatusPendingValidation,
			Version: 1,
		},
		Outcome:       models.ProposalStatusRejected,
		ValidatedByID: "office-1",
	})
	require.ErrorIs(t, err, ErrAlreadyResolved)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestDeviceRepositoryListFiltersBySiteAndStatus(t *testing.T) {
	db, mock, cleanup := newDeviceRepoMock(t)
	defer cleanup()

	repo := NewDeviceRepository(db)
	now := time.Now()
	rows := sqlmock.NewRows([]string{
		"id", "site_id", "label", "brand", "model", "serial_number", "status",
		"gps_latitude", "gps_longitude", "access_location", "notes", "installed_at",
		"retired_at", "created_at", "updated_at",
	}).AddRow("dev-1", "site-1", "Chaudière", nil, nil, nil, "ACTIVE",
		nil, nil, nil, nil, now, nil, now, now)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, site_id, label")).
		WithArgs("site-1", "ACTIVE").
		WillReturnRows(rows)

	devices, err := repo.List(context.Background(), DeviceFilter{
		SiteID: "site-1",
		Status: []models.DeviceStatus{models.DeviceStatusActive},
	})
	require.NoError(t, err)
	require.Len(t, devices, 1)
	require.Equal(t, "dev-1", devices[0].ID)
	require.NoError(t, mock.ExpectationsWereMet())
}
