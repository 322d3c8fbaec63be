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
	"github.com/fieldops/fieldops-api/pkg/response"
)

type interventionService interface {
	Get(ctx context.Context, id string) (*models.Intervention, error)
	List(ctx context.Context, filter repository.InterventionFilter) ([]models.Intervention, error)
	Logs(ctx context.Context, id string) ([]models.InterventionLog, error)
	Assign(ctx context.Context, id string, req dto.AssignInterventionRequest) (*models.Intervention, error)
	Transition(ctx context.Context, id string, req dto.TransitionInterventionRequest) (*models.Intervention, error)
	AddMedia(ctx context.Context, id string, req dto.CreateMediaRequest) (*models.InterventionMedia, error)
	RequestQuote(ctx context.Context, id string, req dto.CreateQuoteRequestRequest) (*models.QuoteRequest, error)
	ProposeDevice(ctx context.Context, id string, req dto.CreateDeviceProposalRequest) (*models.DeviceProposal, error)
}

// InterventionHandler exposes REST endpoints for the intervention workflow.
type InterventionHandler struct {
	service interventionService
}

// NewInterventionHandler constructs the handler.
func NewInterventionHandler(service interventionService) *InterventionHandler {
	return &InterventionHandler{service: service}
}

// List godoc
// @Summary List interventions
// @Tags Interventions
// @Produce json
// @Param caseId query string false "Case ID"
// @Param technicianId query string false "Technician ID"
// @Param status query string false "Comma separated statuses"
// @Param limit query int false "Page size"
// @Param offset query int false "Page offset"
// @Success 200 {object} response.Envelope
// @Router /interventions [get]
func (h *InterventionHandler) List(c *gin.Context) {
	filter := interventionFilterFromQuery(c)
	interventions, err := h.service.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, interventions)
}

// Get godoc
// @Summary Get an intervention with logs, media, quote requests and proposals
// @Tags Interventions
// @Produce json
// @Param id path string true "Intervention ID"
// @Success 200 {object} response.Envelope
// @Router /interventions/{id} [get]
func (h *InterventionHandler) Get(c *gin.Context) {
	itv, err := h.service.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, itv)
}

// Logs godoc
// @Summary Get the intervention audit trail, oldest first
// @Tags Interventions
// @Produce json
// @Param id path string true "Intervention ID"
// @Success 200 {object} response.Envelope
// @Router /interventions/{id}/logs [get]
func (h *InterventionHandler) Logs(c *gin.Context) {
	logs, err := h.service.Logs(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, logs)
}

// Assign godoc
// @Summary Assign or reassign a technician
// @Tags Interventions
// @Accept json
// @Produce json
// @Param id path string true "Intervention ID"
// @Param payload body dto.AssignInterventionRequest true "Assignment payload"
// @Success 200 {object} response.Envelope
// @Router /interventions/{id}/assign [post]
func (h *InterventionHandler) Assign(c *gin.Context) {
	var req dto.AssignInterventionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid assignment payload"))
		return
	}
	itv, err := h.service.Assign(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, itv)
}

// Transition godoc
// @Summary Apply a status change
// @Tags Interventions
// @Accept json
// @Produce json
// @Param id path string true "Intervention ID"
// @Param payload body dto.TransitionInterventionRequest true "Transition payload"
// @Success 200 {object} response.Envelope
// @Router /interventions/{id}/status [post]
func (h *InterventionHandler) Transition(c *gin.Context) {
	var req dto.TransitionInterventionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid transition payload"))
		return
	}
	itv, err := h.service.Transition(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, itv)
}

// AddMedia godoc
// @Summary Attach field evidence
// @Tags Interventions
// @Accept json
// @Produce json
// @Param id path string true "Intervention ID"
// @Param payload body dto.CreateMediaRequest true "Media payload"
// @Success 201 {object} response.Envelope
// @Router /interventions/{id}/media [post]
func (h *InterventionHandler) AddMedia(c *gin.Context) {
	var req dto.CreateMediaRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid media payload"))
		return
	}
	media, err := h.service.AddMedia(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusCreated, media)
}

// RequestQuote godoc
// @Summary Raise a field quote request
// @Tags Interventions
// @Accept json
// @Produce json
// @Param id path string true "Intervention ID"
// @Param payload body dto.CreateQuoteRequestRequest true "Quote request payload"
// @Success 201 {object} response.Envelope
// @Router /interventions/{id}/quote-request [post]
func (h *InterventionHandler) RequestQuote(c *gin.Context) {
	var req dto.CreateQuoteRequestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid quote request payload"))
		return
	}
	request, err := h.service.RequestQuote(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusCreated, request)
}

// ProposeDevice godoc
// @Summary Submit an equipment candidate for validation
// @Tags Interventions
// @Accept json
// @Produce json
// @Param id path string true "Intervention ID"
// @Param payload body dto.CreateDeviceProposalRequest true "Proposal payload"
// @Success 201 {object} response.Envelope
// @Router /interventions/{id}/device-proposals [post]
func (h *InterventionHandler) ProposeDevice(c *gin.Context) {
	var req dto.CreateDeviceProposalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid device proposal payload"))
		return
	}
	proposal, err := h.service.ProposeDevice(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusCreated, proposal)
}

func interventionFilterFromQuery(c *gin.Context) repository.InterventionFilter {
	filter := repository.InterventionFilter{
		CaseID:       strings.TrimSpace(c.Query("caseId")),
		TechnicianID: strings.TrimSpace(c.Query("technicianId")),
		Limit:        intQuery(c, "limit"),
		Offset:       intQuery(c, "offset"),
	}
	for _, part := range csvUpper(c.Query("status")) {
		filter.Status = append(filter.Status, models.InterventionStatus(part))
	}
	return filter
}
