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

type caseStore interface {
	Create(ctx context.Context, kase *models.Case) error
	GetByID(ctx context.Context, id string) (*models.Case, error)
	List(ctx context.Context, filter repository.CaseFilter) ([]models.Case, error)
	Update(ctx context.Context, params repository.UpdateCaseParams) (*models.Case, error)
	Close(ctx context.Context, params repository.CloseCaseParams) (*models.Case, error)
}

// CaseService is the case workflow handler.
type CaseService struct {
	repo     caseStore
	observer workflowObserver
	logger   *zap.Logger
}

// CaseServiceOption configures the service.
type CaseServiceOption func(*CaseService)

// WithCaseObserver attaches metrics/cache notifications.
func WithCaseObserver(observer workflowObserver) CaseServiceOption {
	return func(s *CaseService) {
		if observer != nil {
			s.observer = observer
		}
	}
}

// NewCaseService constructs the service.
func NewCaseService(repo caseStore, logger *zap.Logger, opts ...CaseServiceOption) *CaseService {
	if logger == nil {
		logger = zap.NewNop()
	}
	svc := &CaseService{repo: repo, observer: nopObserver{}, logger: logger}
	for _, opt := range opts {
		if opt != nil {
			opt(svc)
		}
	}
	return svc
}

// Create opens a new case.
func (s *CaseService) Create(ctx context.Context, req dto.CreateCaseRequest) (*models.Case, error) {
	priority := req.Priority
	if priority == "" {
		priority = models.PriorityStandard
	}
	kase := &models.Case{
		Title:           req.Title,
		Description:     req.Description,
		Priority:        priority,
		Status:          models.CaseStatusOpen,
		ClientID:        req.ClientID,
		SiteID:          req.SiteID,
		DriveFolderURL:  req.DriveFolderURL,
		CalendarEventID: req.CalendarEventID,
		PlannedAt:       req.PlannedAt,
		CreatedByID:     req.CreatedByID,
	}
	if err := s.repo.Create(ctx, kase); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create case")
	}
	s.observer.Invalidate(ctx)
	return kase, nil
}

// Get returns a case with its interventions and quotes.
func (s *CaseService) Get(ctx context.Context, id string) (*models.Case, error) {
	kase, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.ErrNotFound
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load case")
	}
	return kase, nil
}

// List returns cases matching the filter.
func (s *CaseService) List(ctx context.Context, filter repository.CaseFilter) ([]models.Case, error) {
	cases, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list cases")
	}
	return cases, nil
}

// Update patches a case. Status moves are guarded by the case transition
// table; closing must go through Close.
func (s *CaseService) Update(ctx context.Context, id string, req dto.UpdateCaseRequest) (*models.Case, error) {
	kase, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.ErrNotFound
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load case")
	}
	if req.Status != nil {
		if !req.Status.Valid() {
			return nil, appErrors.Validation("unknown case status", map[string]string{"status": string(*req.Status)})
		}
		if *req.Status == models.CaseStatusClosed {
			return nil, appErrors.Clone(appErrors.ErrValidation, "closing a case goes through the close action")
		}
		if !kase.Status.CanTransition(*req.Status) {
			return nil, appErrors.Clone(appErrors.ErrConflict,
				fmt.Sprintf("transition %s -> %s is not allowed", kase.Status, *req.Status))
		}
	}

	updated, err := s.repo.Update(ctx, repository.UpdateCaseParams{
		ID:              id,
		Version:         kase.Version,
		Title:           req.Title,
		Description:     req.Description,
		Priority:        req.Priority,
		Status:          req.Status,
		DriveFolderURL:  req.DriveFolderURL,
		CalendarEventID: req.CalendarEventID,
		PlannedAt:       req.PlannedAt,
	})
	if err != nil {
		return nil, s.mapWorkflowError(err, "failed to update case")
	}
	if req.Status != nil {
		s.observer.Transition("case", string(*req.Status))
	}
	s.observer.Invalidate(ctx)
	return updated, nil
}

// Close moves a case to CLOSED and opens the closing-report review item.
func (s *CaseService) Close(ctx context.Context, id string, req dto.CloseCaseRequest) (*models.Case, error) {
	kase, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.ErrNotFound
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load case")
	}
	if kase.Status == models.CaseStatusClosed {
		return nil, appErrors.Clone(appErrors.ErrConflict, "case is already closed")
	}

	closed, err := s.repo.Close(ctx, repository.CloseCaseParams{
		ID:          id,
		Version:     kase.Version,
		ClosedByID:  req.ClosedByID,
		ClosedAt:    time.Now().UTC(),
		ReviewLabel: fmt.Sprintf("Clôture du dossier %s", kase.Title),
		Notes:       req.Note,
	})
	if err != nil {
		return nil, s.mapWorkflowError(err, "failed to close case")
	}
	s.observer.Transition("case", string(models.CaseStatusClosed))
	s.observer.Invalidate(ctx)
	s.logger.Info("case closed", zap.String("case_id", id), zap.String("closed_by", req.ClosedByID))
	return closed, nil
}

func (s *CaseService) mapWorkflowError(err error, message string) error {
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return appErrors.ErrNotFound
	case errors.Is(err, repository.ErrStaleVersion):
		return appErrors.Clone(appErrors.ErrConflict, "case was modified concurrently, retry with fresh state")
	default:
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, message)
	}
}
