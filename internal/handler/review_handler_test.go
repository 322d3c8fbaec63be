package handler

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fieldops/fieldops-api/internal/dto"
	"github.com/fieldops/fieldops-api/internal/models"
	"github.com/fieldops/fieldops-api/internal/repository"
	"github.com/fieldops/fieldops-api/pkg/middleware/actor"
)

type reviewServiceMock struct {
	item       *models.ReviewItem
	err        error
	lastFilter repository.ReviewFilter
	lastActor  string
	lastReq    dto.ResolveReviewItemRequest
}

func (m *reviewServiceMock) List(ctx context.Context, filter repository.ReviewFilter) ([]models.ReviewItem, error) {
	m.lastFilter = filter
	if m.item == nil {
		return nil, m.err
	}
	return []models.ReviewItem{*m.item}, m.err
}

func (m *reviewServiceMock) Resolve(ctx context.Context, id string, req dto.ResolveReviewItemRequest, actorID string) (*models.ReviewItem, error) {
	m.lastActor = actorID
	m.lastReq = req
	return m.item, m.err
}

func newReviewTestRouter(mockSvc *reviewServiceMock) *gin.Engine {
	gin.SetMode(gin.TestMode)
	handler := NewReviewHandler(mockSvc)
	r := gin.New()
	r.Use(actor.Middleware(""))
	r.GET("/reviews", handler.List)
	r.POST("/reviews/:id/resolve", handler.Resolve)
	return r
}

func TestReviewHandlerListParsesQueue(t *testing.T) {
	mockSvc := &reviewServiceMock{item: &models.ReviewItem{ID: "item-1", Queue: models.ReviewQueueReport}}
	r := newReviewTestRouter(mockSvc)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodGet, "/reviews?queue=report&pending=true", nil)
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, models.ReviewQueueReport, mockSvc.lastFilter.Queue)
	assert.True(t, mockSvc.lastFilter.PendingOnly)
}

func TestReviewHandlerResolveUsesActorHeader(t *testing.T) {
	mockSvc := &reviewServiceMock{item: &models.ReviewItem{ID: "item-1"}}
	r := newReviewTestRouter(mockSvc)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodPost, "/reviews/item-1/resolve", bytes.NewBufferString(`{}`))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Actor-ID", "user-3")
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "user-3", mockSvc.lastActor)
}

func TestReviewHandlerResolveWithoutIdentity(t *testing.T) {
	mockSvc := &reviewServiceMock{item: &models.ReviewItem{ID: "item-1"}}
	r := newReviewTestRouter(mockSvc)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodPost, "/reviews/item-1/resolve", bytes.NewBufferString(`{}`))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Empty(t, mockSvc.lastActor)
}

func TestReviewHandlerResolveBodyFallback(t *testing.T) {
	mockSvc := &reviewServiceMock{item: &models.ReviewItem{ID: "item-1"}}
	r := newReviewTestRouter(mockSvc)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodPost, "/reviews/item-1/resolve", bytes.NewBufferString(`{"resolvedById":"user-5"}`))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	require.NotNil(t, mockSvc.lastReq.ResolvedByID)
	assert.Equal(t, "user-5", *mockSvc.lastReq.ResolvedByID)
}
