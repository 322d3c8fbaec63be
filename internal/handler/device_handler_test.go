package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fieldops/fieldops-api/internal/dto"
	"github.com/fieldops/fieldops-api/internal/models"
	"github.com/fieldops/fieldops-api/internal/repository"
	"github.com/fieldops/fieldops-api/internal/service"
	appErrors "github.com/fieldops/fieldops-api/pkg/errors"
)

type deviceServiceMock struct {
	device       *models.Device
	proposals    []models.DeviceProposal
	result       *service.ValidateProposalResult
	err          error
	lastFilter   repository.DeviceFilter
	lastID       string
	lastValidate dto.ValidateProposalRequest
	lastReject   dto.RejectProposalRequest
}

func (m *deviceServiceMock) List(ctx context.Context, filter repository.DeviceFilter) ([]models.Device, error) {
	m.lastFilter = filter
	if m.device == nil {
		return nil, m.err
	}
	return []models.Device{*m.device}, m.err
}

func (m *deviceServiceMock) Get(ctx context.Context, id string) (*models.Device, error) {
	m.lastID = id
	return m.device, m.err
}

func (m *deviceServiceMock) Update(ctx context.Context, id string, req dto.UpdateDeviceRequest) (*models.Device, error) {
	m.lastID = id
	return m.device, m.err
}

func (m *deviceServiceMock) PendingProposals(ctx context.Context) ([]models.DeviceProposal, error) {
	return m.proposals, m.err
}

func (m *deviceServiceMock) ValidateProposal(ctx context.Context, id string, req dto.ValidateProposalRequest) (*service.ValidateProposalResult, error) {
	m.lastID = id
	m.lastValidate = req
	return m.result, m.err
}

func (m *deviceServiceMock) RejectProposal(ctx context.Context, id string, req dto.RejectProposalRequest) (*service.ValidateProposalResult, error) {
	m.lastID = id
	m.lastReject = req
	return m.result, m.err
}

func TestDeviceHandlerListParsesFilter(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mockSvc := &deviceServiceMock{device: &models.Device{ID: "dev-1"}}
	handler := NewDeviceHandler(mockSvc)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodGet, "/devices?siteId=site-1&status=active,replaced", nil)
	c.Request = req

	handler.List(c)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "site-1", mockSvc.lastFilter.SiteID)
	assert.Equal(t, []models.DeviceStatus{models.DeviceStatusActive, models.DeviceStatusReplaced}, mockSvc.lastFilter.Status)
}

func TestDeviceHandlerValidateProposal(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mockSvc := &deviceServiceMock{result: &service.ValidateProposalResult{
		Proposal: &models.DeviceProposal{ID: "prop-1", Status: models.ProposalStatusActive},
		Device:   &models.Device{ID: "dev-1"},
	}}
	handler := NewDeviceHandler(mockSvc)

	payload, _ := json.Marshal(dto.ValidateProposalRequest{ValidatedByID: "user-1"})
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodPost, "/devices/proposals/prop-1/validate", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	c.Request = req
	c.Params = gin.Params{{Key: "id", Value: "prop-1"}}

	handler.ValidateProposal(c)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "prop-1", mockSvc.lastID)
	assert.Equal(t, "user-1", mockSvc.lastValidate.ValidatedByID)
}

func TestDeviceHandlerRejectRequiresNote(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := NewDeviceHandler(&deviceServiceMock{})

	payload, _ := json.Marshal(map[string]string{"validatedById": "user-1"})
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodPost, "/devices/proposals/prop-1/reject", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	c.Request = req
	c.Params = gin.Params{{Key: "id", Value: "prop-1"}}

	handler.RejectProposal(c)
	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestDeviceHandlerValidateConflict(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mockSvc := &deviceServiceMock{err: appErrors.Clone(appErrors.ErrConflict, "proposal already resolved as ACTIVE")}
	handler := NewDeviceHandler(mockSvc)

	payload, _ := json.Marshal(dto.ValidateProposalRequest{ValidatedByID: "user-1"})
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodPost, "/devices/proposals/prop-1/validate", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	c.Request = req
	c.Params = gin.Params{{Key: "id", Value: "prop-1"}}

	handler.ValidateProposal(c)
	require.Equal(t, http.StatusConflict, w.Code)
}
