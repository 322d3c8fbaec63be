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

type quoteService interface {
	Create(ctx context.Context, req dto.CreateQuoteRequest) (*models.Quote, error)
	Get(ctx context.Context, id string) (*models.Quote, error)
	List(ctx context.Context, filter repository.QuoteFilter) ([]models.Quote, error)
	Update(ctx context.Context, id string, req dto.UpdateQuoteRequest, actorID string) (*models.Quote, error)
	MarkSent(ctx context.Context, id string, req dto.MarkQuoteSentRequest, actorID string) (*models.Quote, error)
	MarkAccepted(ctx context.Context, id string, req dto.MarkQuoteAcceptedRequest) (*models.Quote, error)
	LinkRequest(ctx context.Context, quoteID, requestID string) (*models.QuoteRequest, error)
}

// QuoteHandler exposes REST endpoints for the quote workflow.
type QuoteHandler struct {
	service quoteService
}

// NewQuoteHandler constructs the handler.
func NewQuoteHandler(service quoteService) *QuoteHandler {
	return &QuoteHandler{service: service}
}

// Create godoc
// @Summary Open a quote and its review item
// @Tags Quotes
// @Accept json
// @Produce json
// @Param payload body dto.CreateQuoteRequest true "Quote payload"
// @Success 201 {object} response.Envelope
// @Router /quotes [post]
func (h *QuoteHandler) Create(c *gin.Context) {
	var req dto.CreateQuoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid quote payload"))
		return
	}
	quote, err := h.service.Create(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusCreated, quote)
}

// List godoc
// @Summary List quotes
// @Tags Quotes
// @Produce json
// @Param caseId query string false "Case ID"
// @Param status query string false "Comma separated statuses"
// @Success 200 {object} response.Envelope
// @Router /quotes [get]
func (h *QuoteHandler) List(c *gin.Context) {
	filter := repository.QuoteFilter{
		CaseID: strings.TrimSpace(c.Query("caseId")),
	}
	for _, part := range csvUpper(c.Query("status")) {
		filter.Status = append(filter.Status, models.QuoteStatus(part))
	}
	quotes, err := h.service.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, quotes)
}

// Get godoc
// @Summary Get a quote with its linked field requests
// @Tags Quotes
// @Produce json
// @Param id path string true "Quote ID"
// @Success 200 {object} response.Envelope
// @Router /quotes/{id} [get]
func (h *QuoteHandler) Get(c *gin.Context) {
	quote, err := h.service.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, quote)
}

// Update godoc
// @Summary Patch a quote
// @Tags Quotes
// @Accept json
// @Produce json
// @Param id path string true "Quote ID"
// @Param payload body dto.UpdateQuoteRequest true "Fields to update"
// @Success 200 {object} response.Envelope
// @Router /quotes/{id} [patch]
func (h *QuoteHandler) Update(c *gin.Context) {
	var req dto.UpdateQuoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid quote payload"))
		return
	}
	actorID := actor.Value(c)
	if actorID == "" && req.HandledByID != nil {
		actorID = *req.HandledByID
	}
	quote, err := h.service.Update(c.Request.Context(), c.Param("id"), req, actorID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, quote)
}

// MarkSent godoc
// @Summary Mark a quote sent
// @Tags Quotes
// @Accept json
// @Produce json
// @Param id path string true "Quote ID"
// @Param payload body dto.MarkQuoteSentRequest true "Sent payload"
// @Success 200 {object} response.Envelope
// @Router /quotes/{id}/mark-sent [post]
func (h *QuoteHandler) MarkSent(c *gin.Context) {
	var req dto.MarkQuoteSentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid mark-sent payload"))
		return
	}
	actorID := actor.Value(c)
	if actorID == "" && (req.HandledByID == nil || *req.HandledByID == "") {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "handledById or X-Actor-ID required"))
		return
	}
	quote, err := h.service.MarkSent(c.Request.Context(), c.Param("id"), req, actorID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, quote)
}

// MarkAccepted godoc
// @Summary Mark a quote accepted
// @Tags Quotes
// @Accept json
// @Produce json
// @Param id path string true "Quote ID"
// @Param payload body dto.MarkQuoteAcceptedRequest true "Accepted payload"
// @Success 200 {object} response.Envelope
// @Router /quotes/{id}/mark-accepted [post]
func (h *QuoteHandler) MarkAccepted(c *gin.Context) {
	var req dto.MarkQuoteAcceptedRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid mark-accepted payload"))
		return
	}
	quote, err := h.service.MarkAccepted(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, quote)
}

// LinkRequest godoc
// @Summary Link a field quote request to a quote
// @Tags Quotes
// @Produce json
// @Param id path string true "Quote ID"
// @Param requestId path string true "Quote request ID"
// @Success 200 {object} response.Envelope
// @Router /quotes/{id}/link-request/{requestId} [post]
func (h *QuoteHandler) LinkRequest(c *gin.Context) {
	request, err := h.service.LinkRequest(c.Request.Context(), c.Param("id"), c.Param("requestId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, request)
}
