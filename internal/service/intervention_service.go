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

type interventionStore interface {
	Create(ctx context.Context, itv *models.Intervention, initialLog *models.InterventionLog) error
	GetByID(ctx context.Context, id string) (*models.Intervention, error)
	List(ctx context.Context, filter repository.InterventionFilter) ([]models.Intervention, error)
	LoadRelations(ctx context.Context, itv *models.Intervention) error
	ListLogs(ctx context.Context, interventionID string) ([]models.InterventionLog, error)
	Assign(ctx context.Context, params repository.AssignInterventionParams) (*models.Intervention, error)
	Transition(ctx context.Context, params repository.TransitionInterventionParams) (*models.Intervention, error)
	CreateMedia(ctx context.Context, media *models.InterventionMedia) error
}

type caseReader interface {
	GetByID(ctx context.Context, id string) (*models.Case, error)
}

type proposalCreator interface {
	CreateProposal(ctx context.Context, proposal *models.DeviceProposal, reviewLabel string) error
}

type quoteRequestCreator interface {
	CreateQuoteRequest(ctx context.Context, request *models.QuoteRequest, reviewLabel string) error
}

// workflowObserver receives workflow-side notifications (metrics counters,
// dashboard cache invalidation). Implementations must be cheap and must not
// fail the calling action.
type workflowObserver interface {
	Transition(entity string, to string)
	Invalidate(ctx context.Context)
}

type nopObserver struct{}

func (nopObserver) Transition(string, string) {}
func (nopObserver) Invalidate(context.Context) {}

// InterventionService is the intervention workflow handler: it guards status
// moves against the transition table and delegates the atomic multi-row
// writes to the repository.
type InterventionService struct {
	repo     interventionStore
	cases    caseReader
	devices  proposalCreator
	quotes   quoteRequestCreator
	observer workflowObserver
	logger   *zap.Logger
}

// InterventionServiceOption configures the service.
type InterventionServiceOption func(*InterventionService)

// WithInterventionObserver attaches metrics/cache notifications.
func WithInterventionObserver(observer workflowObserver) InterventionServiceOption {
	return func(s *InterventionService) {
		if observer != nil {
			s.observer = observer
		}
	}
}

// NewInterventionService constructs the service.
func NewInterventionService(repo interventionStore, cases caseReader, devices proposalCreator, quotes quoteRequestCreator, logger *zap.Logger, opts ...InterventionServiceOption) *InterventionService {
	if logger == nil {
		logger = zap.NewNop()
	}
	svc := &InterventionService{
		repo:     repo,
		cases:    cases,
		devices:  devices,
		quotes:   quotes,
		observer: nopObserver{},
		logger:   logger,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(svc)
		}
	}
	return svc
}

// CreateForCase attaches a new intervention to a case. The initial status is
// derived from technician presence; when a technician is supplied the
// assignment log row is written in the same transaction.
func (s *InterventionService) CreateForCase(ctx context.Context, caseID string, req dto.CreateInterventionRequest) (*models.Intervention, error) {
	kase, err := s.cases.GetByID(ctx, caseID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "case not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load case")
	}
	if kase.Status == models.CaseStatusClosed {
		return nil, appErrors.Clone(appErrors.ErrConflict, "case is closed")
	}

	priority := req.Priority
	if priority == "" {
		priority = models.PriorityStandard
	}
	itv := &models.Intervention{
		CaseID:         caseID,
		Title:          req.Title,
		Type:           req.Type,
		Priority:       priority,
		Status:         models.InterventionStatusPendingAssignment,
		TechnicianID:   req.TechnicianID,
		ScheduledStart: req.ScheduledStart,
		ScheduledEnd:   req.ScheduledEnd,
		Notes:          req.Notes,
		DriveFolderURL: req.DriveFolderURL,
	}

	var initialLog *models.InterventionLog
	if req.TechnicianID != nil && *req.TechnicianID != "" {
		itv.Status = models.InterventionStatusAssigned
		from := models.InterventionStatusPendingAssignment
		note := "Assignation initiale"
		initialLog = &models.InterventionLog{
			StatusFrom:  &from,
			StatusTo:    models.InterventionStatusAssigned,
			CreatedByID: *req.TechnicianID,
			Note:        &note,
		}
	}

	if err := s.repo.Create(ctx, itv, initialLog); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create intervention")
	}
	s.observer.Transition("intervention", string(itv.Status))
	s.observer.Invalidate(ctx)
	return itv, nil
}

// Get returns an intervention with logs, media, quote requests and proposals.
func (s *InterventionService) Get(ctx context.Context, id string) (*models.Intervention, error) {
	itv, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.ErrNotFound
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load intervention")
	}
	if err := s.repo.LoadRelations(ctx, itv); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load intervention relations")
	}
	return itv, nil
}

// List returns interventions matching the filter.
func (s *InterventionService) List(ctx context.Context, filter repository.InterventionFilter) ([]models.Intervention, error) {
	interventions, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list interventions")
	}
	return interventions, nil
}

// Logs returns the audit trail, oldest first.
func (s *InterventionService) Logs(ctx context.Context, id string) ([]models.InterventionLog, error) {
	logs, err := s.repo.ListLogs(ctx, id)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list intervention logs")
	}
	return logs, nil
}

// Assign sets the technician and moves the intervention to ASSIGNED.
// Reassignment from any non-terminal state is allowed; the audit row records
// the actual prior status.
func (s *InterventionService) Assign(ctx context.Context, id string, req dto.AssignInterventionRequest) (*models.Intervention, error) {
	itv, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.ErrNotFound
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load intervention")
	}
	if itv.Status.Terminal() {
		return nil, appErrors.Clone(appErrors.ErrConflict, fmt.Sprintf("intervention is %s and can no longer be assigned", itv.Status))
	}

	updated, err := s.repo.Assign(ctx, repository.AssignInterventionParams{
		ID:             id,
		Version:        itv.Version,
		StatusFrom:     itv.Status,
		TechnicianID:   req.TechnicianID,
		AssignedByID:   req.AssignedByID,
		ScheduledStart: req.ScheduledStart,
		ScheduledEnd:   req.ScheduledEnd,
		Note:           req.Note,
		IdempotencyKey: req.IdempotencyKey,
	})
	if err != nil {
		return nil, s.mapWorkflowError(err, "failed to assign intervention")
	}
	s.observer.Transition("intervention", string(models.InterventionStatusAssigned))
	s.observer.Invalidate(ctx)
	return updated, nil
}

// Transition applies a status change with its review-queue fan-out.
func (s *InterventionService) Transition(ctx context.Context, id string, req dto.TransitionInterventionRequest) (*models.Intervention, error) {
	if !req.Status.Valid() {
		return nil, appErrors.Validation("unknown intervention status", map[string]string{"status": string(req.Status)})
	}
	itv, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.ErrNotFound
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load intervention")
	}
	if !itv.Status.CanTransition(req.Status) {
		return nil, appErrors.Clone(appErrors.ErrConflict,
			fmt.Sprintf("transition %s -> %s is not allowed", itv.Status, req.Status))
	}

	timestamp := time.Now().UTC()
	if req.Timestamp != nil {
		timestamp = req.Timestamp.UTC()
	}
	updated, err := s.repo.Transition(ctx, repository.TransitionInterventionParams{
		ID:             id,
		Version:        itv.Version,
		NewStatus:      req.Status,
		UserID:         req.UserID,
		Note:           req.Note,
		Timestamp:      timestamp,
		IdempotencyKey: req.IdempotencyKey,
		ReviewLabel:    fmt.Sprintf("Compte rendu à valider - %s", itv.Title),
	})
	if err != nil {
		return nil, s.mapWorkflowError(err, "failed to transition intervention")
	}
	s.observer.Transition("intervention", string(req.Status))
	s.observer.Invalidate(ctx)
	return updated, nil
}

// AddMedia attaches field evidence to an intervention.
func (s *InterventionService) AddMedia(ctx context.Context, id string, req dto.CreateMediaRequest) (*models.InterventionMedia, error) {
	if _, err := s.repo.GetByID(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.ErrNotFound
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load intervention")
	}
	media := &models.InterventionMedia{
		InterventionID: id,
		URL:            req.URL,
		Description:    req.Description,
		MediaType:      req.MediaType,
	}
	if err := s.repo.CreateMedia(ctx, media); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create intervention media")
	}
	return media, nil
}

// RequestQuote raises a field quote request and its QUOTE review item.
func (s *InterventionService) RequestQuote(ctx context.Context, id string, req dto.CreateQuoteRequestRequest) (*models.QuoteRequest, error) {
	if _, err := s.repo.GetByID(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.ErrNotFound
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load intervention")
	}
	request := &models.QuoteRequest{
		InterventionID: id,
		Description:    req.Description,
		TemplateKey:    req.TemplateKey,
	}
	label := fmt.Sprintf("Demande de devis - %s", truncate(req.Description, 40))
	if err := s.quotes.CreateQuoteRequest(ctx, request, label); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create quote request")
	}
	s.observer.Invalidate(ctx)
	return request, nil
}

// ProposeDevice submits a technician equipment candidate for validation.
func (s *InterventionService) ProposeDevice(ctx context.Context, id string, req dto.CreateDeviceProposalRequest) (*models.DeviceProposal, error) {
	if _, err := s.repo.GetByID(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.ErrNotFound
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load intervention")
	}
	proposal := &models.DeviceProposal{
		SiteID:           req.SiteID,
		InterventionID:   id,
		PreviousDeviceID: req.PreviousDeviceID,
		Label:            req.Label,
		Brand:            req.Brand,
		Model:            req.Model,
		SerialNumber:     req.SerialNumber,
		GPSLatitude:      req.GPSLatitude,
		GPSLongitude:     req.GPSLongitude,
		AccessLocation:   req.AccessLocation,
		Notes:            req.Notes,
		PhotosFolderURL:  req.PhotosFolderURL,
	}
	label := fmt.Sprintf("Nouvel appareil à valider - %s", req.Label)
	if err := s.devices.CreateProposal(ctx, proposal, label); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create device proposal")
	}
	s.observer.Invalidate(ctx)
	return proposal, nil
}

func (s *InterventionService) mapWorkflowError(err error, message string) error {
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return appErrors.ErrNotFound
	case errors.Is(err, repository.ErrStaleVersion):
		return appErrors.Clone(appErrors.ErrConflict, "intervention was modified concurrently, retry with fresh state")
	default:
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, message)
	}
}

func truncate(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max])
}
