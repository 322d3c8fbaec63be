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

type caseService interface {
	Create(ctx context.Context, req dto.CreateCaseRequest) (*models.Case, error)
	Get(ctx context.Context, id string) (*models.Case, error)
	List(ctx context.Context, filter repository.CaseFilter) ([]models.Case, error)
	Update(ctx context.Context, id string, req dto.UpdateCaseRequest) (*models.Case, error)
	Close(ctx context.Context, id string, req dto.CloseCaseRequest) (*models.Case, error)
}

type caseInterventionCreator interface {
	CreateForCase(ctx context.Context, caseID string, req dto.CreateInterventionRequest) (*models.Intervention, error)
}

// CaseHandler exposes REST endpoints for the case workflow.
type CaseHandler struct {
	service       caseService
	interventions caseInterventionCreator
}

// NewCaseHandler constructs the handler.
func NewCaseHandler(service caseService, interventions caseInterventionCreator) *CaseHandler {
	return &CaseHandler{service: service, interventions: interventions}
}

// Create godoc
// @Summary Open a case
// @Tags Cases
// @Accept json
// @Produce json
// @Param payload body dto.CreateCaseRequest true "Case payload"
// @Success 201 {object} response.Envelope
// @Router /cases [post]
func (h *CaseHandler) Create(c *gin.Context) {
	var req dto.CreateCaseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid case payload"))
		return
	}
	kase, err := h.service.Create(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusCreated, kase)
}

// List godoc
// @Summary List cases
// @Tags Cases
// @Produce json
// @Param clientId query string false "Client ID"
// @Param siteId query string false "Site ID"
// @Param status query string false "Comma separated statuses"
// @Param priority query string false "STANDARD or URGENT"
// @Param limit query int false "Page size"
// @Param offset query int false "Page offset"
// @Success 200 {object} response.Envelope
// @Router /cases [get]
func (h *CaseHandler) List(c *gin.Context) {
	filter := repository.CaseFilter{
		ClientID: strings.TrimSpace(c.Query("clientId")),
		SiteID:   strings.TrimSpace(c.Query("siteId")),
		Limit:    intQuery(c, "limit"),
		Offset:   intQuery(c, "offset"),
	}
	if raw := c.Query("priority"); raw != "" {
		filter.Priority = models.Priority(strings.ToUpper(strings.TrimSpace(raw)))
	}
	for _, part := range csvUpper(c.Query("status")) {
		filter.Status = append(filter.Status, models.CaseStatus(part))
	}
	cases, err := h.service.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, cases)
}

// Get godoc
// @Summary Get a case with its interventions and quotes
// @Tags Cases
// @Produce json
// @Param id path string true "Case ID"
// @Success 200 {object} response.Envelope
// @Router /cases/{id} [get]
func (h *CaseHandler) Get(c *gin.Context) {
	kase, err := h.service.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, kase)
}

// Update godoc
// @Summary Patch a case
// @Tags Cases
// @Accept json
// @Produce json
// @Param id path string true "Case ID"
// @Param payload body dto.UpdateCaseRequest true "Fields to update"
// @Success 200 {object} response.Envelope
// @Router /cases/{id} [patch]
func (h *CaseHandler) Update(c *gin.Context) {
	var req dto.UpdateCaseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid case payload"))
		return
	}
	kase, err := h.service.Update(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, kase)
}

// Close godoc
// @Summary Close a case and open its report review item
// @Tags Cases
// @Accept json
// @Produce json
// @Param id path string true "Case ID"
// @Param payload body dto.CloseCaseRequest true "Closing payload"
// @Success 200 {object} response.Envelope
// @Router /cases/{id}/close [post]
func (h *CaseHandler) Close(c *gin.Context) {
	var req dto.CloseCaseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid close payload"))
		return
	}
	kase, err := h.service.Close(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, kase)
}

// CreateIntervention godoc
// @Summary Attach an intervention to a case
// @Tags Cases
// @Accept json
// @Produce json
// @Param id path string true "Case ID"
// @Param payload body dto.CreateInterventionRequest true "Intervention payload"
// @Success 201 {object} response.Envelope
// @Router /cases/{id}/interventions [post]
func (h *CaseHandler) CreateIntervention(c *gin.Context) {
	var req dto.CreateInterventionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid intervention payload"))
		return
	}
	itv, err := h.interventions.CreateForCase(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusCreated, itv)
}
