package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fieldops/fieldops-api/internal/dto"
	"github.com/fieldops/fieldops-api/internal/models"
	"github.com/fieldops/fieldops-api/internal/repository"
	appErrors "github.com/fieldops/fieldops-api/pkg/errors"
)

type mockDeviceRepo struct {
	devices    map[string]models.Device
	proposals  map[string]models.DeviceProposal
	resolved   *repository.ResolveProposalParams
	resolveErr error
}

func (m *mockDeviceRepo) List(ctx context.Context, filter repository.DeviceFilter) ([]models.Device, error) {
	var out []models.Device
	for _, device := range m.devices {
		out = append(out, device)
	}
	return out, nil
}

func (m *mockDeviceRepo) GetByID(ctx context.Context, id string) (*models.Device, error) {
	if device, ok := m.devices[id]; ok {
		return &device, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockDeviceRepo) Update(ctx context.Context, params repository.UpdateDeviceParams) (*models.Device, error) {
	device, ok := m.devices[params.ID]
	if !ok {
		return nil, sql.ErrNoRows
	}
	if params.Label != nil {
		device.Label = *params.Label
	}
	if params.Status != nil {
		device.Status = *params.Status
	}
	m.devices[params.ID] = device
	return &device, nil
}

func (m *mockDeviceRepo) GetProposalByID(ctx context.Context, id string) (*models.DeviceProposal, error) {
	if proposal, ok := m.proposals[id]; ok {
		return &proposal, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockDeviceRepo) ListPendingProposals(ctx context.Context) ([]models.DeviceProposal, error) {
	var out []models.DeviceProposal
	for _, proposal := range m.proposals {
		if !proposal.Status.Terminal() {
			out = append(out, proposal)
		}
	}
	return out, nil
}

func (m *mockDeviceRepo) ResolveProposal(ctx context.Context, params repository.ResolveProposalParams) (*models.DeviceProposal, *models.Device, error) {
	if m.resolveErr != nil {
		return nil, nil, m.resolveErr
	}
	m.resolved = &params
	proposal := *params.Proposal
	proposal.Status = params.Outcome
	proposal.ValidatedByID = &params.ValidatedByID
	proposal.ValidatedAt = &params.Now
	m.proposals[proposal.ID] = proposal

	var device *models.Device
	if params.Outcome == models.ProposalStatusActive {
		device = &models.Device{
			ID:          "dev-new",
			SiteID:      proposal.SiteID,
			Label:       proposal.Label,
			Status:      models.DeviceStatusActive,
			InstalledAt: &params.Now,
		}
		m.devices[device.ID] = *device
		if proposal.PreviousDeviceID != nil {
			previous := m.devices[*proposal.PreviousDeviceID]
			previous.Status = models.DeviceStatusReplaced
			previous.RetiredAt = &params.Now
			m.devices[*proposal.PreviousDeviceID] = previous
		}
	}
	return &proposal, device, nil
}

func newDeviceServiceFixture(devices map[string]models.Device, proposals map[string]models.DeviceProposal) (*DeviceService, *mockDeviceRepo) {
	if devices == nil {
		devices = make(map[string]models.Device)
	}
	if proposals == nil {
		proposals = make(map[string]models.DeviceProposal)
	}
	repo := &mockDeviceRepo{devices: devices, proposals: proposals}
	return NewDeviceService(repo, nil), repo
}

func TestDeviceServiceValidateActiveCreatesDeviceAndRetiresPrevious(t *testing.T) {
	previousID := "dev-old"
	svc, repo := newDeviceServiceFixture(
		map[string]models.Device{
			"dev-old": {ID: "dev-old", SiteID: "site-1", Status: models.DeviceStatusActive},
		},
		map[string]models.DeviceProposal{
			"prop-1": {
				ID:               "prop-1",
				SiteID:           "site-1",
				InterventionID:   "itv-1",
				PreviousDeviceID: &previousID,
				Label:            "Chaudière Viessmann",
				Status:           models.ProposalStatusPendingValidation,
				Version:          1,
			},
		},
	)

	result, err := svc.ValidateProposal(context.Background(), "prop-1", dto.ValidateProposalRequest{
		ValidatedByID: "office-1",
		Status:        models.ProposalStatusActive,
	})
	require.NoError(t, err)
	assert.Equal(t, models.ProposalStatusActive, result.Proposal.Status)
	require.NotNil(t, result.Device)
	assert.Equal(t, models.DeviceStatusActive, result.Device.Status)
	assert.NotNil(t, result.Device.InstalledAt)

	replaced := repo.devices["dev-old"]
	assert.Equal(t, models.DeviceStatusReplaced, replaced.Status)
	assert.NotNil(t, replaced.RetiredAt)
}

func TestDeviceServiceValidateDefaultsToActive(t *testing.T) {
	svc, repo := newDeviceServiceFixture(nil, map[string]models.DeviceProposal{
		"prop-1": {ID: "prop-1", SiteID: "site-1", Label: "Adoucisseur", Status: models.ProposalStatusPendingValidation, Version: 1},
	})

	_, err := svc.ValidateProposal(context.Background(), "prop-1", dto.ValidateProposalRequest{
		ValidatedByID: "office-1",
	})
	require.NoError(t, err)
	require.NotNil(t, repo.resolved)
	assert.Equal(t, models.ProposalStatusActive, repo.resolved.Outcome)
}

func TestDeviceServiceValidateRejectsUnknownOutcome(t *testing.T) {
	svc, _ := newDeviceServiceFixture(nil, map[string]models.DeviceProposal{
		"prop-1": {ID: "prop-1", Status: models.ProposalStatusPendingValidation, Version: 1},
	})

	_, err := svc.ValidateProposal(context.Background(), "prop-1", dto.ValidateProposalRequest{
		ValidatedByID: "office-1",
		Status:        models.ProposalStatus("PENDING_VALIDATION"),
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestDeviceServiceValidateTwiceConflicts(t *testing.T) {
	at := time.Now()
	svc, _ := newDeviceServiceFixture(nil, map[string]models.DeviceProposal{
		"prop-1": {ID: "prop-1", Status: models.ProposalStatusActive, ValidatedAt: &at, Version: 2},
	})

	_, err := svc.ValidateProposal(context.Background(), "prop-1", dto.ValidateProposalRequest{
		ValidatedByID: "office-1",
		Status:        models.ProposalStatusActive,
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrConflict.Code, appErrors.FromError(err).Code)
}

func TestDeviceServiceValidateRaceMapsToConflict(t *testing.T) {
	svc, repo := newDeviceServiceFixture(nil, map[string]models.DeviceProposal{
		"prop-1": {ID: "prop-1", Status: models.ProposalStatusPendingValidation, Version: 1},
	})
	repo.resolveErr = repository.ErrAlreadyResolved

	_, err := svc.ValidateProposal(context.Background(), "prop-1", dto.ValidateProposalRequest{
		ValidatedByID: "office-1",
		Status:        models.ProposalStatusActive,
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrConflict.Code, appErrors.FromError(err).Code)
}

func TestDeviceServiceRejectCarriesNoteAndOutcome(t *testing.T) {
	svc, repo := newDeviceServiceFixture(nil, map[string]models.DeviceProposal{
		"prop-1": {ID: "prop-1", SiteID: "site-1", Label: "Adoucisseur", Status: models.ProposalStatusPendingValidation, Version: 1},
	})

	result, err := svc.RejectProposal(context.Background(), "prop-1", dto.RejectProposalRequest{
		ValidatedByID: "office-1",
		RejectionNote: "Numéro de série illisible",
	})
	require.NoError(t, err)
	assert.Nil(t, result.Device)
	assert.Equal(t, models.ProposalStatusRejected, result.Proposal.Status)
	require.NotNil(t, repo.resolved)
	assert.Equal(t, models.ProposalStatusRejected, repo.resolved.Outcome)
	require.NotNil(t, repo.resolved.RejectionNote)
	assert.Equal(t, "Numéro de série illisible", *repo.resolved.RejectionNote)
}

func TestDeviceServiceValidateMissingProposalNotFound(t *testing.T) {
	svc, _ := newDeviceServiceFixture(nil, nil)

	_, err := svc.ValidateProposal(context.Background(), "missing", dto.ValidateProposalRequest{
		ValidatedByID: "office-1",
		Status:        models.ProposalStatusActive,
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}
