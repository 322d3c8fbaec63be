package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/fieldops/fieldops-api/internal/dto"
	"github.com/fieldops/fieldops-api/internal/models"
	"github.com/fieldops/fieldops-api/internal/repository"
	appErrors "github.com/fieldops/fieldops-api/pkg/errors"
)

type deviceStore interface {
	List(ctx context.Context, filter repository.DeviceFilter) ([]models.Device, error)
	GetByID(ctx context.Context, id string) (*models.Device, error)
	Update(ctx context.Context, params repository.UpdateDeviceParams) (*models.Device, error)
	GetProposalByID(ctx context.Context, id string) (*models.DeviceProposal, error)
	ListPendingProposals(ctx context.Context) ([]models.DeviceProposal, error)
	ResolveProposal(ctx context.Context, params repository.ResolveProposalParams) (*models.DeviceProposal, *models.Device, error)
}

// DeviceService owns the equipment register and the proposal validation
// workflow. Every terminal proposal outcome closes its open review items,
// rejection included.
type DeviceService struct {
	repo     deviceStore
	observer workflowObserver
	logger   *zap.Logger
}

// DeviceServiceOption configures the service.
type DeviceServiceOption func(*DeviceService)

// WithDeviceObserver attaches metrics/cache notifications.
func WithDeviceObserver(observer workflowObserver) DeviceServiceOption {
	return func(s *DeviceService) {
		if observer != nil {
			s.observer = observer
		}
	}
}

// NewDeviceService constructs the service.
func NewDeviceService(repo deviceStore, logger *zap.Logger, opts ...DeviceServiceOption) *DeviceService {
	if logger == nil {
		logger = zap.NewNop()
	}
	svc := &DeviceService{repo: repo, observer: nopObserver{}, logger: logger}
	for _, opt := range opts {
		if opt != nil {
			opt(svc)
		}
	}
	return svc
}

// List returns devices matching the filter.
func (s *DeviceService) List(ctx context.Context, filter repository.DeviceFilter) ([]models.Device, error) {
	devices, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list devices")
	}
	return devices, nil
}

// Get returns one device.
func (s *DeviceService) Get(ctx context.Context, id string) (*models.Device, error) {
	device, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.ErrNotFound
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load device")
	}
	return device, nil
}

// Update patches the device register.
func (s *DeviceService) Update(ctx context.Context, id string, req dto.UpdateDeviceRequest) (*models.Device, error) {
	device, err := s.repo.Update(ctx, repository.UpdateDeviceParams{
		ID:             id,
		Label:          req.Label,
		Brand:          req.Brand,
		Model:          req.Model,
		SerialNumber:   req.SerialNumber,
		Status:         req.Status,
		GPSLatitude:    req.GPSLatitude,
		GPSLongitude:   req.GPSLongitude,
		AccessLocation: req.AccessLocation,
		Notes:          req.Notes,
		InstalledAt:    req.InstalledAt,
		RetiredAt:      req.RetiredAt,
	})
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.ErrNotFound
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update device")
	}
	return device, nil
}

// PendingProposals returns unresolved proposals for the validation queue.
func (s *DeviceService) PendingProposals(ctx context.Context) ([]models.DeviceProposal, error) {
	proposals, err := s.repo.ListPendingProposals(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list pending proposals")
	}
	return proposals, nil
}

// ValidateProposalResult carries both outputs of a validation.
type ValidateProposalResult struct {
	Proposal *models.DeviceProposal `json:"proposal"`
	Device   *models.Device         `json:"device,omitempty"`
}

// ValidateProposal resolves a pending proposal with a terminal outcome. An
// ACTIVE outcome creates the Device from the proposal's captured attributes
// and retires any superseded device; resolving a proposal twice reports a
// conflict.
func (s *DeviceService) ValidateProposal(ctx context.Context, id string, req dto.ValidateProposalRequest) (*ValidateProposalResult, error) {
	outcome := req.Status
	if outcome == "" {
		outcome = models.ProposalStatusActive
	}
	if !outcome.ValidOutcome() {
		return nil, appErrors.Validation("status must be ACTIVE, REJECTED or REPLACED", map[string]string{"status": string(outcome)})
	}
	return s.resolveProposal(ctx, id, repository.ResolveProposalParams{
		Outcome:       outcome,
		ValidatedByID: req.ValidatedByID,
		Notes:         req.Notes,
	})
}

// RejectProposal is the direct rejection shortcut; it records the rejection
// note and, like every terminal outcome, closes the open review items.
func (s *DeviceService) RejectProposal(ctx context.Context, id string, req dto.RejectProposalRequest) (*ValidateProposalResult, error) {
	note := req.RejectionNote
	return s.resolveProposal(ctx, id, repository.ResolveProposalParams{
		Outcome:       models.ProposalStatusRejected,
		ValidatedByID: req.ValidatedByID,
		RejectionNote: &note,
	})
}

func (s *DeviceService) resolveProposal(ctx context.Context, id string, params repository.ResolveProposalParams) (*ValidateProposalResult, error) {
	proposal, err := s.repo.GetProposalByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "device proposal not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load device proposal")
	}
	if proposal.Status.Terminal() {
		return nil, appErrors.Clone(appErrors.ErrConflict,
			fmt.Sprintf("proposal already resolved as %s", proposal.Status))
	}

	params.Proposal = proposal
	params.Now = time.Now().UTC()
	updated, device, err := s.repo.ResolveProposal(ctx, params)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrAlreadyResolved):
			return nil, appErrors.Clone(appErrors.ErrConflict, "proposal already resolved")
		case errors.Is(err, repository.ErrStaleVersion):
			return nil, appErrors.Clone(appErrors.ErrConflict, "proposal was modified concurrently, retry with fresh state")
		case errors.Is(err, sql.ErrNoRows):
			return nil, appErrors.ErrNotFound
		default:
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to resolve device proposal")
		}
	}
	s.observer.Transition("device_proposal", string(params.Outcome))
	s.observer.Invalidate(ctx)
	s.logger.Info("device proposal resolved",
		zap.String("proposal_id", id),
		zap.String("outcome", string(params.Outcome)))
	return &ValidateProposalResult{Proposal: updated, Device: device}, nil
}
