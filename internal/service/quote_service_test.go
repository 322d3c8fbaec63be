package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fieldops/fieldops-api/internal/dto"
	"github.com/fieldops/fieldops-api/internal/models"
	"github.com/fieldops/fieldops-api/internal/repository"
	appErrors "github.com/fieldops/fieldops-api/pkg/errors"
)

type mockQuoteRepo struct {
	quotes   map[string]models.Quote
	requests map[string]models.QuoteRequest

	createdLabel   string
	updateParams   *repository.UpdateQuoteParams
	sentParams     *repository.MarkSentParams
	acceptedParams *repository.MarkAcceptedParams
}

func (m *mockQuoteRepo) Create(ctx context.Context, quote *models.Quote, reviewLabel string) error {
	m.createdLabel = reviewLabel
	quote.Version = 1
	quote.Currency = "EUR"
	if m.quotes == nil {
		m.quotes = make(map[string]models.Quote)
	}
	m.quotes[quote.ID] = *quote
	return nil
}

func (m *mockQuoteRepo) GetByID(ctx context.Context, id string) (*models.Quote, error) {
	if quote, ok := m.quotes[id]; ok {
		return &quote, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockQuoteRepo) List(ctx context.Context, filter repository.QuoteFilter) ([]models.Quote, error) {
	var out []models.Quote
	for _, quote := range m.quotes {
		out = append(out, quote)
	}
	return out, nil
}

func (m *mockQuoteRepo) Update(ctx context.Context, params repository.UpdateQuoteParams) (*models.Quote, error) {
	m.updateParams = &params
	quote, ok := m.quotes[params.ID]
	if !ok {
		return nil, sql.ErrNoRows
	}
	if params.Status != nil {
		quote.Status = *params.Status
	}
	quote.Version = params.Version + 1
	m.quotes[params.ID] = quote
	return &quote, nil
}

func (m *mockQuoteRepo) MarkSent(ctx context.Context, params repository.MarkSentParams) (*models.Quote, error) {
	m.sentParams = &params
	quote, ok := m.quotes[params.ID]
	if !ok {
		return nil, sql.ErrNoRows
	}
	quote.Status = models.QuoteStatusSent
	quote.SentAt = &params.SentAt
	quote.HandledByID = &params.HandledByID
	quote.Version = params.Version + 1
	m.quotes[params.ID] = quote
	return &quote, nil
}

func (m *mockQuoteRepo) MarkAccepted(ctx context.Context, params repository.MarkAcceptedParams) (*models.Quote, error) {
	m.acceptedParams = &params
	quote, ok := m.quotes[params.ID]
	if !ok {
		return nil, sql.ErrNoRows
	}
	quote.Status = models.QuoteStatusAccepted
	quote.AcceptedAt = &params.AcceptedAt
	quote.Version = params.Version + 1
	m.quotes[params.ID] = quote
	return &quote, nil
}

func (m *mockQuoteRepo) GetQuoteRequestByID(ctx context.Context, id string) (*models.QuoteRequest, error) {
	if request, ok := m.requests[id]; ok {
		return &request, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockQuoteRepo) LinkRequest(ctx context.Context, requestID, quoteID string) (*models.QuoteRequest, error) {
	request, ok := m.requests[requestID]
	if !ok {
		return nil, sql.ErrNoRows
	}
	request.QuoteID = &quoteID
	request.Status = models.QuoteRequestStatusInProgress
	m.requests[requestID] = request
	return &request, nil
}

func newQuoteServiceFixture() (*QuoteService, *mockQuoteRepo) {
	repo := &mockQuoteRepo{}
	cases := &mockCaseReader{cases: map[string]models.Case{
		"case-1": {ID: "case-1", Status: models.CaseStatusOpen},
	}}
	return NewQuoteService(repo, cases, nil), repo
}

func TestQuoteServiceCreateUsesLabelInReviewSubject(t *testing.T) {
	svc, repo := newQuoteServiceFixture()

	label := "Remplacement chaudière"
	quote, err := svc.Create(context.Background(), dto.CreateQuoteRequest{
		CaseID:        "case-1",
		RequestedByID: "user-1",
		Label:         &label,
	})
	require.NoError(t, err)
	assert.Equal(t, models.QuoteStatusRequested, quote.Status)
	assert.Equal(t, "Devis à traiter - Remplacement chaudière", repo.createdLabel)
}

func TestQuoteServiceCreateFallsBackToQuoteID(t *testing.T) {
	svc, repo := newQuoteServiceFixture()

	quote, err := svc.Create(context.Background(), dto.CreateQuoteRequest{
		CaseID:        "case-1",
		RequestedByID: "user-1",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, quote.ID)
	assert.Equal(t, "Devis à traiter - "+quote.ID, repo.createdLabel)
}

func TestQuoteServiceCreateUnknownCaseNotFound(t *testing.T) {
	svc, _ := newQuoteServiceFixture()

	_, err := svc.Create(context.Background(), dto.CreateQuoteRequest{
		CaseID:        "missing",
		RequestedByID: "user-1",
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestQuoteServiceUpdateGuardsTransitionTable(t *testing.T) {
	svc, repo := newQuoteServiceFixture()
	repo.quotes = map[string]models.Quote{
		"quote-1": {ID: "quote-1", Status: models.QuoteStatusRequested, Version: 1},
	}

	accepted := models.QuoteStatusAccepted
	_, err := svc.Update(context.Background(), "quote-1", dto.UpdateQuoteRequest{Status: &accepted}, "user-1")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrConflict.Code, appErrors.FromError(err).Code)
	assert.Nil(t, repo.updateParams)
}

func TestQuoteServiceUpdateDeclineCarriesActor(t *testing.T) {
	svc, repo := newQuoteServiceFixture()
	repo.quotes = map[string]models.Quote{
		"quote-1": {ID: "quote-1", Status: models.QuoteStatusSent, Version: 2},
	}

	declined := models.QuoteStatusDeclined
	quote, err := svc.Update(context.Background(), "quote-1", dto.UpdateQuoteRequest{Status: &declined}, "user-9")
	require.NoError(t, err)
	assert.Equal(t, models.QuoteStatusDeclined, quote.Status)
	require.NotNil(t, repo.updateParams)
	assert.Equal(t, "user-9", repo.updateParams.ResolvedByID)
	assert.EqualValues(t, 2, repo.updateParams.Version)
}

func TestQuoteServiceMarkSentDefaultsTimestampAndHandler(t *testing.T) {
	svc, repo := newQuoteServiceFixture()
	repo.quotes = map[string]models.Quote{
		"quote-1": {ID: "quote-1", Status: models.QuoteStatusInProgress, Version: 1},
	}

	quote, err := svc.MarkSent(context.Background(), "quote-1", dto.MarkQuoteSentRequest{}, "user-2")
	require.NoError(t, err)
	assert.Equal(t, models.QuoteStatusSent, quote.Status)
	require.NotNil(t, repo.sentParams)
	assert.Equal(t, "user-2", repo.sentParams.HandledByID)
	assert.WithinDuration(t, time.Now(), repo.sentParams.SentAt, 2*time.Second)
}

func TestQuoteServiceMarkAcceptedRequiresSent(t *testing.T) {
	svc, repo := newQuoteServiceFixture()
	repo.quotes = map[string]models.Quote{
		"quote-1": {ID: "quote-1", Status: models.QuoteStatusRequested, Version: 1},
	}

	_, err := svc.MarkAccepted(context.Background(), "quote-1", dto.MarkQuoteAcceptedRequest{})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrConflict.Code, appErrors.FromError(err).Code)
	assert.Nil(t, repo.acceptedParams)
}

func TestQuoteServiceMarkAcceptedFromSent(t *testing.T) {
	svc, repo := newQuoteServiceFixture()
	acceptedAt := time.Date(2026, 3, 4, 10, 0, 0, 0, time.UTC)
	repo.quotes = map[string]models.Quote{
		"quote-1": {ID: "quote-1", Status: models.QuoteStatusSent, Version: 3},
	}

	quote, err := svc.MarkAccepted(context.Background(), "quote-1", dto.MarkQuoteAcceptedRequest{AcceptedAt: &acceptedAt})
	require.NoError(t, err)
	assert.Equal(t, models.QuoteStatusAccepted, quote.Status)
	require.NotNil(t, quote.AcceptedAt)
	assert.Equal(t, acceptedAt, *quote.AcceptedAt)
}

func TestQuoteServiceLinkRequestConflictsWhenTaken(t *testing.T) {
	svc, repo := newQuoteServiceFixture()
	other := "quote-other"
	repo.quotes = map[string]models.Quote{
		"quote-1": {ID: "quote-1", Status: models.QuoteStatusRequested, Version: 1},
	}
	repo.requests = map[string]models.QuoteRequest{
		"req-1": {ID: "req-1", InterventionID: "itv-1", QuoteID: &other, Status: models.QuoteRequestStatusInProgress},
	}

	_, err := svc.LinkRequest(context.Background(), "quote-1", "req-1")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrConflict.Code, appErrors.FromError(err).Code)
}

func TestQuoteServiceLinkRequestMovesToInProgress(t *testing.T) {
	svc, repo := newQuoteServiceFixture()
	repo.quotes = map[string]models.Quote{
		"quote-1": {ID: "quote-1", Status: models.QuoteStatusRequested, Version: 1},
	}
	repo.requests = map[string]models.QuoteRequest{
		"req-1": {ID: "req-1", InterventionID: "itv-1", Status: models.QuoteRequestStatusPending},
	}

	linked, err := svc.LinkRequest(context.Background(), "quote-1", "req-1")
	require.NoError(t, err)
	require.NotNil(t, linked.QuoteID)
	assert.Equal(t, "quote-1", *linked.QuoteID)
	assert.Equal(t, models.QuoteRequestStatusInProgress, linked.Status)
}
