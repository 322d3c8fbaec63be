package handler

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/fieldops/fieldops-api/internal/dto"
	"github.com/fieldops/fieldops-api/internal/models"
	"github.com/fieldops/fieldops-api/internal/repository"
	appErrors "github.com/fieldops/fieldops-api/pkg/errors"
	"github.com/fieldops/fieldops-api/pkg/middleware/actor"
	"github.com/fieldops/fieldops-api/pkg/response"
)

type reviewService interface {
	List(ctx context.Context, filter repository.ReviewFilter) ([]models.ReviewItem, error)
	Resolve(ctx context.Context, id string, req dto.ResolveReviewItemRequest, actorID string) (*models.ReviewItem, error)
}

// ReviewHandler exposes the human-approval backlog.
type ReviewHandler struct {
	service reviewService
}

// NewReviewHandler constructs the handler.
func NewReviewHandler(service reviewService) *ReviewHandler {
	return &ReviewHandler{service: service}
}

// List godoc
// @Summary List review items in arrival order
// @Tags Reviews
// @Produce json
// @Param queue query string false "REPORT, DEVICE_VALIDATION, ASTREINTE or QUOTE"
// @Param referenceId query string false "Referenced entity ID"
// @Param pending query bool false "Only unresolved items"
// @Success 200 {object} response.Envelope
// @Router /reviews [get]
func (h *ReviewHandler) List(c *gin.Context) {
	filter := repository.ReviewFilter{
		ReferenceID: strings.TrimSpace(c.Query("referenceId")),
		PendingOnly: boolQuery(c, "pending"),
	}
	if raw := c.Query("queue"); raw != "" {
		filter.Queue = models.ReviewQueue(strings.ToUpper(strings.TrimSpace(raw)))
	}
	items, err := h.service.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, items)
}

// Resolve godoc
// @Summary Resolve one review item
// @Tags Reviews
// @Accept json
// @Produce json
// @Param id path string true "Review item ID"
// @Param payload body dto.ResolveReviewItemRequest true "Resolution payload"
// @Success 200 {object} response.Envelope
// @Router /reviews/{id}/resolve [post]
func (h *ReviewHandler) Resolve(c *gin.Context) {
	var req dto.ResolveReviewItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid resolution payload"))
		return
	}
	actorID := actor.Value(c)
	if actorID == "" && (req.ResolvedByID == nil || *req.ResolvedByID == "") {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "resolvedById or X-Actor-ID required"))
		return
	}
	item, err := h.service.Resolve(c.Request.Context(), c.Param("id"), req, actorID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, item)
}
