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
	appErrors "github.com/fieldops/fieldops-api/pkg/errors"
)

type interventionServiceMock struct {
	itv        *models.Intervention
	logs       []models.InterventionLog
	err        error
	lastFilter repository.InterventionFilter
	lastAssign dto.AssignInterventionRequest
	lastTrans  dto.TransitionInterventionRequest
	lastID     string
}

func (m *interventionServiceMock) Get(ctx context.Context, id string) (*models.Intervention, error) {
	m.lastID = id
	return m.itv, m.err
}

func (m *interventionServiceMock) List(ctx context.Context, filter repository.InterventionFilter) ([]models.Intervention, error) {
	m.lastFilter = filter
	if m.itv == nil {
		return nil, m.err
	}
	return []models.Intervention{*m.itv}, m.err
}

func (m *interventionServiceMock) Logs(ctx context.Context, id string) ([]models.InterventionLog, error) {
	m.lastID = id
	return m.logs, m.err
}

func (m *interventionServiceMock) Assign(ctx context.Context, id string, req dto.AssignInterventionRequest) (*models.Intervention, error) {
	m.lastID = id
	m.lastAssign = req
	return m.itv, m.err
}

func (m *interventionServiceMock) Transition(ctx context.Context, id string, req dto.TransitionInterventionRequest) (*models.Intervention, error) {
	m.lastID = id
	m.lastTrans = req
	return m.itv, m.err
}

func (m *interventionServiceMock) AddMedia(ctx context.Context, id string, req dto.CreateMediaRequest) (*models.InterventionMedia, error) {
	m.lastID = id
	return &models.InterventionMedia{InterventionID: id, URL: req.URL}, m.err
}

func (m *interventionServiceMock) RequestQuote(ctx context.Context, id string, req dto.CreateQuoteRequestRequest) (*models.QuoteRequest, error) {
	m.lastID = id
	return &models.QuoteRequest{InterventionID: id, Description: req.Description}, m.err
}

func (m *interventionServiceMock) ProposeDevice(ctx context.Context, id string, req dto.CreateDeviceProposalRequest) (*models.DeviceProposal, error) {
	m.lastID = id
	return &models.DeviceProposal{InterventionID: id, Label: req.Label}, m.err
}

func TestInterventionHandlerListParsesFilter(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mockSvc := &interventionServiceMock{itv: &models.Intervention{ID: "itv-1"}}
	handler := NewInterventionHandler(mockSvc)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodGet, "/interventions?caseId=case-1&status=on_site,COMPLETED&limit=10", nil)
	c.Request = req

	handler.List(c)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "case-1", mockSvc.lastFilter.CaseID)
	assert.Equal(t, []models.InterventionStatus{models.InterventionStatusOnSite, models.InterventionStatusCompleted}, mockSvc.lastFilter.Status)
	assert.Equal(t, 10, mockSvc.lastFilter.Limit)
}

func TestInterventionHandlerTransition(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mockSvc := &interventionServiceMock{itv: &models.Intervention{ID: "itv-1", Status: models.InterventionStatusOnSite}}
	handler := NewInterventionHandler(mockSvc)

	payload, _ := json.Marshal(dto.TransitionInterventionRequest{
		Status: models.InterventionStatusOnSite,
		UserID: "tech-1",
	})
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodPost, "/interventions/itv-1/status", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	c.Request = req
	c.Params = gin.Params{{Key: "id", Value: "itv-1"}}

	handler.Transition(c)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "itv-1", mockSvc.lastID)
	assert.Equal(t, models.InterventionStatusOnSite, mockSvc.lastTrans.Status)
}

func TestInterventionHandlerTransitionInvalidBody(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := NewInterventionHandler(&interventionServiceMock{})

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodPost, "/interventions/itv-1/status", bytes.NewBufferString(`{"status":`))
	req.Header.Set("Content-Type", "application/json")
	c.Request = req
	c.Params = gin.Params{{Key: "id", Value: "itv-1"}}

	handler.Transition(c)
	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestInterventionHandlerAssignConflict(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mockSvc := &interventionServiceMock{err: appErrors.Clone(appErrors.ErrConflict, "intervention is CANCELLED and can no longer be assigned")}
	handler := NewInterventionHandler(mockSvc)

	payload, _ := json.Marshal(dto.AssignInterventionRequest{TechnicianID: "tech-1", AssignedByID: "user-1"})
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodPost, "/interventions/itv-1/assign", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	c.Request = req
	c.Params = gin.Params{{Key: "id", Value: "itv-1"}}

	handler.Assign(c)
	require.Equal(t, http.StatusConflict, w.Code)
}

func TestInterventionHandlerProposeDevice(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mockSvc := &interventionServiceMock{}
	handler := NewInterventionHandler(mockSvc)

	payload, _ := json.Marshal(dto.CreateDeviceProposalRequest{Label: "Chaudière atelier", SiteID: "site-1"})
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodPost, "/interventions/itv-1/device-proposals", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	c.Request = req
	c.Params = gin.Params{{Key: "id", Value: "itv-1"}}

	handler.ProposeDevice(c)
	require.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, "itv-1", mockSvc.lastID)
}
