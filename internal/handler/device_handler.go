package handler

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/fieldops/fieldops-api/internal/dto"
	"github.com/fieldops/fieldops-api/internal/models"
	"github.com/fieldops/fieldops-api/internal/repository"
	"github.com/fieldops/fieldops-api/internal/service"
	appErrors "github.com/fieldops/fieldops-api/pkg/errors"
	"github.com/fieldops/fieldops-api/pkg/response"
)

type deviceService interface {
	List(ctx context.Context, filter repository.DeviceFilter) ([]models.Device, error)
	Get(ctx context.Context, id string) (*models.Device, error)
	Update(ctx context.Context, id string, req dto.UpdateDeviceRequest) (*models.Device, error)
	PendingProposals(ctx context.Context) ([]models.DeviceProposal, error)
	ValidateProposal(ctx context.Context, id string, req dto.ValidateProposalRequest) (*service.ValidateProposalResult, error)
	RejectProposal(ctx context.Context, id string, req dto.RejectProposalRequest) (*service.ValidateProposalResult, error)
}

// DeviceHandler exposes REST endpoints for the equipment register and the
// proposal validation workflow.
type DeviceHandler struct {
	service deviceService
}

// NewDeviceHandler constructs the handler.
func NewDeviceHandler(service deviceService) *DeviceHandler {
	return &DeviceHandler{service: service}
}

// List godoc
// @Summary List devices
// @Tags Devices
// @Produce json
// @Param siteId query string false "Site ID"
// @Param status query string false "Comma separated statuses"
// @Success 200 {object} response.Envelope
// @Router /devices [get]
func (h *DeviceHandler) List(c *gin.Context) {
	filter := repository.DeviceFilter{
		SiteID: strings.TrimSpace(c.Query("siteId")),
	}
	for _, part := range csvUpper(c.Query("status")) {
		filter.Status = append(filter.Status, models.DeviceStatus(part))
	}
	devices, err := h.service.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, devices)
}

// Get godoc
// @Summary Get a device
// @Tags Devices
// @Produce json
// @Param id path string true "Device ID"
// @Success 200 {object} response.Envelope
// @Router /devices/{id} [get]
func (h *DeviceHandler) Get(c *gin.Context) {
	device, err := h.service.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, device)
}

// Update godoc
// @Summary Patch the device register
// @Tags Devices
// @Accept json
// @Produce json
// @Param id path string true "Device ID"
// @Param payload body dto.UpdateDeviceRequest true "Fields to update"
// @Success 200 {object} response.Envelope
// @Router /devices/{id} [patch]
func (h *DeviceHandler) Update(c *gin.Context) {
	var req dto.UpdateDeviceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid device payload"))
		return
	}
	device, err := h.service.Update(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, device)
}

// PendingProposals godoc
// @Summary List equipment proposals awaiting validation
// @Tags Devices
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /devices/proposals [get]
func (h *DeviceHandler) PendingProposals(c *gin.Context) {
	proposals, err := h.service.PendingProposals(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, proposals)
}

// ValidateProposal godoc
// @Summary Resolve a proposal with a terminal outcome
// @Tags Devices
// @Accept json
// @Produce json
// @Param id path string true "Proposal ID"
// @Param payload body dto.ValidateProposalRequest true "Resolution payload"
// @Success 200 {object} response.Envelope
// @Router /devices/proposals/{id}/validate [post]
func (h *DeviceHandler) ValidateProposal(c *gin.Context) {
	var req dto.ValidateProposalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid validation payload"))
		return
	}
	result, err := h.service.ValidateProposal(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result)
}

// RejectProposal godoc
// @Summary Reject a proposal with a note
// @Tags Devices
// @Accept json
// @Produce json
// @Param id path string true "Proposal ID"
// @Param payload body dto.RejectProposalRequest true "Rejection payload"
// @Success 200 {object} response.Envelope
// @Router /devices/proposals/{id}/reject [post]
func (h *DeviceHandler) RejectProposal(c *gin.Context) {
	var req dto.RejectProposalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid rejection payload"))
		return
	}
	result, err := h.service.RejectProposal(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result)
}
