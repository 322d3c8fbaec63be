package handler

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/fieldops/fieldops-api/internal/repository"
	"github.com/fieldops/fieldops-api/internal/service"
	appErrors "github.com/fieldops/fieldops-api/pkg/errors"
	"github.com/fieldops/fieldops-api/pkg/response"
)

type exportService interface {
	GenerateInterventionReport(ctx context.Context, interventionID string) (*service.ReportExport, error)
	OpenExport(token string) (*os.File, error)
	InterventionsCSV(ctx context.Context, filter repository.InterventionFilter) ([]byte, error)
}

// ExportHandler exposes report rendering and signed downloads.
type ExportHandler struct {
	service exportService
}

// NewExportHandler constructs the handler.
func NewExportHandler(service exportService) *ExportHandler {
	return &ExportHandler{service: service}
}

// InterventionReport godoc
// @Summary Render an intervention report PDF and return a download token
// @Tags Exports
// @Produce json
// @Param id path string true "Intervention ID"
// @Success 200 {object} response.Envelope
// @Router /interventions/{id}/report [get]
func (h *ExportHandler) InterventionReport(c *gin.Context) {
	export, err := h.service.GenerateInterventionReport(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, export)
}

// Download godoc
// @Summary Serve a previously generated export
// @Tags Exports
// @Produce application/pdf
// @Param token path string true "Signed download token"
// @Success 200 {file} binary
// @Router /exports/{token} [get]
func (h *ExportHandler) Download(c *gin.Context) {
	file, err := h.service.OpenExport(c.Param("token"))
	if err != nil {
		response.Error(c, err)
		return
	}
	defer file.Close() //nolint:errcheck

	info, err := file.Stat()
	if err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to stat export"))
		return
	}
	name := filepath.Base(file.Name())
	c.DataFromReader(http.StatusOK, info.Size(), "application/pdf", file, map[string]string{
		"Content-Disposition": fmt.Sprintf("attachment; filename=%q", name),
	})
}

// InterventionsCSV godoc
// @Summary Export the intervention list as CSV
// @Tags Exports
// @Produce text/csv
// @Param caseId query string false "Case ID"
// @Param technicianId query string false "Technician ID"
// @Param status query string false "Comma separated statuses"
// @Success 200 {file} binary
// @Router /interventions/export.csv [get]
func (h *ExportHandler) InterventionsCSV(c *gin.Context) {
	payload, err := h.service.InterventionsCSV(c.Request.Context(), interventionFilterFromQuery(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	name := fmt.Sprintf("interventions-%s.csv", time.Now().UTC().Format("20060102-150405"))
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
	c.Data(http.StatusOK, "text/csv; charset=utf-8", payload)
}
