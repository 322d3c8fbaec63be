package service

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/fieldops/fieldops-api/internal/dto"
	"github.com/fieldops/fieldops-api/internal/models"
	"github.com/fieldops/fieldops-api/internal/repository"
	appErrors "github.com/fieldops/fieldops-api/pkg/errors"
)

type reviewStore interface {
	List(ctx context.Context, filter repository.ReviewFilter) ([]models.ReviewItem, error)
	ResolveOne(ctx context.Context, id string, resolvedAt time.Time, resolvedByID string, notes *string) (*models.ReviewItem, error)
}

// ReviewService exposes the human-approval backlog.
type ReviewService struct {
	repo     reviewStore
	observer workflowObserver
	logger   *zap.Logger
}

// ReviewServiceOption configures the service.
type ReviewServiceOption func(*ReviewService)

// WithReviewObserver attaches metrics/cache notifications.
func WithReviewObserver(observer workflowObserver) ReviewServiceOption {
	return func(s *ReviewService) {
		if observer != nil {
			s.observer = observer
		}
	}
}

// NewReviewService constructs the service.
func NewReviewService(repo reviewStore, logger *zap.Logger, opts ...ReviewServiceOption) *ReviewService {
	if logger == nil {
		logger = zap.NewNop()
	}
	svc := &ReviewService{repo: repo, observer: nopObserver{}, logger: logger}
	for _, opt := range opts {
		if opt != nil {
			opt(svc)
		}
	}
	return svc
}

// List returns review items in ascending creation order.
func (s *ReviewService) List(ctx context.Context, filter repository.ReviewFilter) ([]models.ReviewItem, error) {
	if filter.Queue != "" && !filter.Queue.Valid() {
		return nil, appErrors.Validation("unknown review queue", map[string]string{"queue": string(filter.Queue)})
	}
	items, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list review items")
	}
	return items, nil
}

// Resolve closes one review item. Re-resolving an already-closed item
// returns the item unchanged rather than an error, so retried deliveries
// converge on the same state.
func (s *ReviewService) Resolve(ctx context.Context, id string, req dto.ResolveReviewItemRequest, actorID string) (*models.ReviewItem, error) {
	resolvedBy := actorID
	if req.ResolvedByID != nil && *req.ResolvedByID != "" {
		resolvedBy = *req.ResolvedByID
	}
	item, err := s.repo.ResolveOne(ctx, id, time.Now().UTC(), resolvedBy, req.Notes)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrAlreadyResolved):
			return item, nil
		case errors.Is(err, sql.ErrNoRows):
			return nil, appErrors.ErrNotFound
		default:
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to resolve review item")
		}
	}
	s.observer.Invalidate(ctx)
	return item, nil
}
