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

type clientService interface {
	Create(ctx context.Context, req dto.CreateClientRequest) (*models.Client, error)
	Get(ctx context.Context, id string) (*models.Client, error)
	List(ctx context.Context, filter repository.ClientFilter) ([]models.Client, error)
	Update(ctx context.Context, id string, req dto.UpdateClientRequest) (*models.Client, error)
	AddSite(ctx context.Context, clientID string, req dto.CreateSiteRequest) (*models.Site, error)
}

// ClientHandler exposes REST endpoints for clients and their sites.
type ClientHandler struct {
	service clientService
}

// NewClientHandler constructs the handler.
func NewClientHandler(service clientService) *ClientHandler {
	return &ClientHandler{service: service}
}

// Create godoc
// @Summary Create a client, optionally with initial sites
// @Tags Clients
// @Accept json
// @Produce json
// @Param payload body dto.CreateClientRequest true "Client payload"
// @Success 201 {object} response.Envelope
// @Router /clients [post]
func (h *ClientHandler) Create(c *gin.Context) {
	var req dto.CreateClientRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid client payload"))
		return
	}
	client, err := h.service.Create(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusCreated, client)
}

// List godoc
// @Summary List clients
// @Tags Clients
// @Produce json
// @Param search query string false "Name search"
// @Param limit query int false "Page size"
// @Param offset query int false "Page offset"
// @Success 200 {object} response.Envelope
// @Router /clients [get]
func (h *ClientHandler) List(c *gin.Context) {
	filter := repository.ClientFilter{
		Search: strings.TrimSpace(c.Query("search")),
		Limit:  intQuery(c, "limit"),
		Offset: intQuery(c, "offset"),
	}
	clients, err := h.service.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, clients)
}

// Get godoc
// @Summary Get a client with sites, devices and cases
// @Tags Clients
// @Produce json
// @Param id path string true "Client ID"
// @Success 200 {object} response.Envelope
// @Router /clients/{id} [get]
func (h *ClientHandler) Get(c *gin.Context) {
	client, err := h.service.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, client)
}

// Update godoc
// @Summary Patch a client record
// @Tags Clients
// @Accept json
// @Produce json
// @Param id path string true "Client ID"
// @Param payload body dto.UpdateClientRequest true "Fields to update"
// @Success 200 {object} response.Envelope
// @Router /clients/{id} [patch]
func (h *ClientHandler) Update(c *gin.Context) {
	var req dto.UpdateClientRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid client payload"))
		return
	}
	client, err := h.service.Update(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, client)
}

// AddSite godoc
// @Summary Attach a site to a client
// @Tags Clients
// @Accept json
// @Produce json
// @Param id path string true "Client ID"
// @Param payload body dto.CreateSiteRequest true "Site payload"
// @Success 201 {object} response.Envelope
// @Router /clients/{id}/sites [post]
func (h *ClientHandler) AddSite(c *gin.Context) {
	var req dto.CreateSiteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid site payload"))
		return
	}
	site, err := h.service.AddSite(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusCreated, site)
}
