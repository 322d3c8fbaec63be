package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/fieldops/fieldops-api/internal/dto"
	"github.com/fieldops/fieldops-api/internal/models"
	"github.com/fieldops/fieldops-api/internal/repository"
	appErrors "github.com/fieldops/fieldops-api/pkg/errors"
)

type quoteStore interface {
	Create(ctx context.Context, quote *models.Quote, reviewLabel string) error
	GetByID(ctx context.Context, id string) (*models.Quote, error)
	List(ctx context.Context, filter repository.QuoteFilter) ([]models.Quote, error)
	Update(ctx context.Context, params repository.UpdateQuoteParams) (*models.Quote, error)
	MarkSent(ctx context.Context, params repository.MarkSentParams) (*models.Quote, error)
	MarkAccepted(ctx context.Context, params repository.MarkAcceptedParams) (*models.Quote, error)
	GetQuoteRequestByID(ctx context.Context, id string) (*models.QuoteRequest, error)
	LinkRequest(ctx context.Context, requestID, quoteID string) (*models.QuoteRequest, error)
}

// QuoteService is the quote workflow handler: transitions ride the quote
// transition table, and entering SENT/ACCEPTED/DECLINED resolves the open
// QUOTE review items.
type QuoteService struct {
	repo     quoteStore
	cases    caseReader
	observer workflowObserver
	logger   *zap.Logger
}

// QuoteServiceOption configures the service.
type QuoteServiceOption func(*QuoteService)

// WithQuoteObserver attaches metrics/cache notifications.
func WithQuoteObserver(observer workflowObserver) QuoteServiceOption {
	return func(s *QuoteService) {
		if observer != nil {
			s.observer = observer
		}
	}
}

// NewQuoteService constructs the service.
func NewQuoteService(repo quoteStore, cases caseReader, logger *zap.Logger, opts ...QuoteServiceOption) *QuoteService {
	if logger == nil {
		logger = zap.NewNop()
	}
	svc := &QuoteService{repo: repo, cases: cases, observer: nopObserver{}, logger: logger}
	for _, opt := range opts {
		if opt != nil {
			opt(svc)
		}
	}
	return svc
}

// Create opens a REQUESTED quote and its QUOTE review item.
func (s *QuoteService) Create(ctx context.Context, req dto.CreateQuoteRequest) (*models.Quote, error) {
	if _, err := s.cases.GetByID(ctx, req.CaseID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "case not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load case")
	}

	quote := &models.Quote{
		ID:            uuid.NewString(),
		CaseID:        req.CaseID,
		Label:         req.Label,
		Notes:         req.Notes,
		RequestedByID: req.RequestedByID,
		Status:        models.QuoteStatusRequested,
	}
	subject := quote.ID
	if req.Label != nil && *req.Label != "" {
		subject = *req.Label
	}
	if err := s.repo.Create(ctx, quote, fmt.Sprintf("Devis à traiter - %s", subject)); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create quote")
	}
	s.observer.Transition("quote", string(models.QuoteStatusRequested))
	s.observer.Invalidate(ctx)
	return quote, nil
}

// Get returns a quote with its linked field requests.
func (s *QuoteService) Get(ctx context.Context, id string) (*models.Quote, error) {
	quote, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.ErrNotFound
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load quote")
	}
	return quote, nil
}

// List returns quotes matching the filter.
func (s *QuoteService) List(ctx context.Context, filter repository.QuoteFilter) ([]models.Quote, error) {
	quotes, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list quotes")
	}
	return quotes, nil
}

// Update patches a quote; status moves ride the transition table.
func (s *QuoteService) Update(ctx context.Context, id string, req dto.UpdateQuoteRequest, actorID string) (*models.Quote, error) {
	quote, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.ErrNotFound
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load quote")
	}
	if req.Status != nil {
		if !req.Status.Valid() {
			return nil, appErrors.Validation("unknown quote status", map[string]string{"status": string(*req.Status)})
		}
		if !quote.Status.CanTransition(*req.Status) {
			return nil, appErrors.Clone(appErrors.ErrConflict,
				fmt.Sprintf("transition %s -> %s is not allowed", quote.Status, *req.Status))
		}
	}

	updated, err := s.repo.Update(ctx, repository.UpdateQuoteParams{
		ID:           id,
		Version:      quote.Version,
		Status:       req.Status,
		Amount:       req.Amount,
		Currency:     req.Currency,
		DocumentURL:  req.DocumentURL,
		HandledByID:  req.HandledByID,
		Notes:        req.Notes,
		ResolvedByID: actorID,
	})
	if err != nil {
		return nil, s.mapWorkflowError(err, "failed to update quote")
	}
	if req.Status != nil {
		s.observer.Transition("quote", string(*req.Status))
	}
	s.observer.Invalidate(ctx)
	return updated, nil
}

// MarkSent is the convenience SENT transition; it resolves the open QUOTE
// review items in the same transaction.
func (s *QuoteService) MarkSent(ctx context.Context, id string, req dto.MarkQuoteSentRequest, actorID string) (*models.Quote, error) {
	quote, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.ErrNotFound
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load quote")
	}
	if !quote.Status.CanTransition(models.QuoteStatusSent) {
		return nil, appErrors.Clone(appErrors.ErrConflict,
			fmt.Sprintf("transition %s -> %s is not allowed", quote.Status, models.QuoteStatusSent))
	}

	sentAt := time.Now().UTC()
	if req.SentAt != nil {
		sentAt = req.SentAt.UTC()
	}
	handledBy := actorID
	if req.HandledByID != nil && *req.HandledByID != "" {
		handledBy = *req.HandledByID
	}
	updated, err := s.repo.MarkSent(ctx, repository.MarkSentParams{
		ID:          id,
		Version:     quote.Version,
		SentAt:      sentAt,
		HandledByID: handledBy,
	})
	if err != nil {
		return nil, s.mapWorkflowError(err, "failed to mark quote sent")
	}
	s.observer.Transition("quote", string(models.QuoteStatusSent))
	s.observer.Invalidate(ctx)
	return updated, nil
}

// MarkAccepted is the convenience ACCEPTED transition.
func (s *QuoteService) MarkAccepted(ctx context.Context, id string, req dto.MarkQuoteAcceptedRequest) (*models.Quote, error) {
	quote, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.ErrNotFound
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load quote")
	}
	if !quote.Status.CanTransition(models.QuoteStatusAccepted) {
		return nil, appErrors.Clone(appErrors.ErrConflict,
			fmt.Sprintf("transition %s -> %s is not allowed", quote.Status, models.QuoteStatusAccepted))
	}

	acceptedAt := time.Now().UTC()
	if req.AcceptedAt != nil {
		acceptedAt = req.AcceptedAt.UTC()
	}
	updated, err := s.repo.MarkAccepted(ctx, repository.MarkAcceptedParams{
		ID:         id,
		Version:    quote.Version,
		AcceptedAt: acceptedAt,
	})
	if err != nil {
		return nil, s.mapWorkflowError(err, "failed to mark quote accepted")
	}
	s.observer.Transition("quote", string(models.QuoteStatusAccepted))
	s.observer.Invalidate(ctx)
	return updated, nil
}

// LinkRequest attaches a pending field request to a quote.
func (s *QuoteService) LinkRequest(ctx context.Context, quoteID, requestID string) (*models.QuoteRequest, error) {
	if _, err := s.repo.GetByID(ctx, quoteID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "quote not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load quote")
	}
	request, err := s.repo.GetQuoteRequestByID(ctx, requestID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "quote request not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load quote request")
	}
	if request.QuoteID != nil && *request.QuoteID != quoteID {
		return nil, appErrors.Clone(appErrors.ErrConflict, "quote request already linked to another quote")
	}

	linked, err := s.repo.LinkRequest(ctx, requestID, quoteID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.ErrNotFound
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to link quote request")
	}
	return linked, nil
}

func (s *QuoteService) mapWorkflowError(err error, message string) error {
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return appErrors.ErrNotFound
	case errors.Is(err, repository.ErrStaleVersion):
		return appErrors.Clone(appErrors.ErrConflict, "quote was modified concurrently, retry with fresh state")
	default:
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, message)
	}
}
