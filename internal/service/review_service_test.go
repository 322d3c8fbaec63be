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

type mockReviewRepo struct {
	items      map[string]models.ReviewItem
	lastFilter repository.ReviewFilter
	resolvedBy string
}

func (m *mockReviewRepo) List(ctx context.Context, filter repository.ReviewFilter) ([]models.ReviewItem, error) {
	m.lastFilter = filter
	var out []models.ReviewItem
	for _, item := range m.items {
		if filter.PendingOnly && item.Resolved() {
			continue
		}
		out = append(out, item)
	}
	return out, nil
}

func (m *mockReviewRepo) ResolveOne(ctx context.Context, id string, resolvedAt time.Time, resolvedByID string, notes *string) (*models.ReviewItem, error) {
	item, ok := m.items[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	if item.Resolved() {
		return &item, repository.ErrAlreadyResolved
	}
	m.resolvedBy = resolvedByID
	item.ResolvedAt = &resolvedAt
	item.ResolvedByID = &resolvedByID
	item.Notes = notes
	m.items[id] = item
	return &item, nil
}

func TestReviewServiceListRejectsUnknownQueue(t *testing.T) {
	svc := NewReviewService(&mockReviewRepo{}, nil)

	_, err := svc.List(context.Background(), repository.ReviewFilter{Queue: "NOPE"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestReviewServiceListFiltersPending(t *testing.T) {
	now := time.Now().UTC()
	repo := &mockReviewRepo{items: map[string]models.ReviewItem{
		"item-1": {ID: "item-1", Queue: models.ReviewQueueReport, ReferenceID: "itv-1", Label: "Compte rendu à valider - Fuite"},
		"item-2": {ID: "item-2", Queue: models.ReviewQueueQuote, ReferenceID: "quote-1", Label: "Devis à traiter - quote-1", ResolvedAt: &now},
	}}
	svc := NewReviewService(repo, nil)

	items, err := svc.List(context.Background(), repository.ReviewFilter{PendingOnly: true})
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "item-1", items[0].ID)
}

func TestReviewServiceResolveDefaultsToActor(t *testing.T) {
	repo := &mockReviewRepo{items: map[string]models.ReviewItem{
		"item-1": {ID: "item-1", Queue: models.ReviewQueueReport, ReferenceID: "itv-1", Label: "Compte rendu à valider - Fuite"},
	}}
	svc := NewReviewService(repo, nil)

	item, err := svc.Resolve(context.Background(), "item-1", dto.ResolveReviewItemRequest{}, "user-7")
	require.NoError(t, err)
	assert.True(t, item.Resolved())
	assert.Equal(t, "user-7", repo.resolvedBy)
}

func TestReviewServiceResolveAlreadyResolvedConverges(t *testing.T) {
	resolvedAt := time.Date(2026, 2, 1, 9, 0, 0, 0, time.UTC)
	resolvedBy := "user-1"
	repo := &mockReviewRepo{items: map[string]models.ReviewItem{
		"item-1": {ID: "item-1", Queue: models.ReviewQueueQuote, ReferenceID: "quote-1", Label: "Devis à traiter - quote-1", ResolvedAt: &resolvedAt, ResolvedByID: &resolvedBy},
	}}
	svc := NewReviewService(repo, nil)

	item, err := svc.Resolve(context.Background(), "item-1", dto.ResolveReviewItemRequest{}, "user-2")
	require.NoError(t, err)
	require.NotNil(t, item.ResolvedByID)
	assert.Equal(t, "user-1", *item.ResolvedByID)
	assert.Equal(t, resolvedAt, *item.ResolvedAt)
}

func TestReviewServiceResolveMissingNotFound(t *testing.T) {
	svc := NewReviewService(&mockReviewRepo{}, nil)

	_, err := svc.Resolve(context.Background(), "missing", dto.ResolveReviewItemRequest{}, "user-1")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}
