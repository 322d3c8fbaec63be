package service

import (
	"context"
	"database/sql"
	"errors"

	"go.uber.org/zap"

	"github.com/fieldops/fieldops-api/internal/dto"
	"github.com/fieldops/fieldops-api/internal/models"
	"github.com/fieldops/fieldops-api/internal/repository"
	appErrors "github.com/fieldops/fieldops-api/pkg/errors"
)

type clientStore interface {
	CreateWithSites(ctx context.Context, client *models.Client) error
	GetByID(ctx context.Context, id string) (*models.Client, error)
	List(ctx context.Context, filter repository.ClientFilter) ([]models.Client, error)
	Update(ctx context.Context, params repository.UpdateClientParams) (*models.Client, error)
	CreateSite(ctx context.Context, site *models.Site) error
	GetSiteByID(ctx context.Context, id string) (*models.Site, error)
}

// ClientService manages client accounts and their sites.
type ClientService struct {
	repo   clientStore
	logger *zap.Logger
}

// NewClientService constructs the service.
func NewClientService(repo clientStore, logger *zap.Logger) *ClientService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ClientService{repo: repo, logger: logger}
}

// Create inserts a client, optionally with its initial sites.
func (s *ClientService) Create(ctx context.Context, req dto.CreateClientRequest) (*models.Client, error) {
	client := &models.Client{
		Name:           req.Name,
		ContactName:    req.ContactName,
		ContactEmail:   req.ContactEmail,
		ContactPhone:   req.ContactPhone,
		BillingAddress: req.BillingAddress,
		Notes:          req.Notes,
	}
	for _, site := range req.Sites {
		client.Sites = append(client.Sites, siteFromRequest(site))
	}
	if err := s.repo.CreateWithSites(ctx, client); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create client")
	}
	return client, nil
}

// Get returns a client with sites, devices and cases.
func (s *ClientService) Get(ctx context.Context, id string) (*models.Client, error) {
	client, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.ErrNotFound
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load client")
	}
	return client, nil
}

// List returns clients ordered by name.
func (s *ClientService) List(ctx context.Context, filter repository.ClientFilter) ([]models.Client, error) {
	clients, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list clients")
	}
	return clients, nil
}

// Update patches a client record.
func (s *ClientService) Update(ctx context.Context, id string, req dto.UpdateClientRequest) (*models.Client, error) {
	client, err := s.repo.Update(ctx, repository.UpdateClientParams{
		ID:             id,
		Name:           req.Name,
		ContactName:    req.ContactName,
		ContactEmail:   req.ContactEmail,
		ContactPhone:   req.ContactPhone,
		BillingAddress: req.BillingAddress,
		Notes:          req.Notes,
	})
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.ErrNotFound
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update client")
	}
	return client, nil
}

// AddSite attaches a new site to an existing client.
func (s *ClientService) AddSite(ctx context.Context, clientID string, req dto.CreateSiteRequest) (*models.Site, error) {
	if _, err := s.repo.GetByID(ctx, clientID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "client not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load client")
	}
	site := siteFromRequest(req)
	site.ClientID = clientID
	if err := s.repo.CreateSite(ctx, &site); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create site")
	}
	return &site, nil
}

func siteFromRequest(req dto.CreateSiteRequest) models.Site {
	return models.Site{
		Label:        req.Label,
		AddressLine1: req.AddressLine1,
		AddressLine2: req.AddressLine2,
		PostalCode:   req.PostalCode,
		City:         req.City,
		Country:      req.Country,
		Latitude:     req.Latitude,
		Longitude:    req.Longitude,
		AccessNotes:  req.AccessNotes,
		ContactName:  req.ContactName,
		ContactEmail: req.ContactEmail,
		ContactPhone: req.ContactPhone,
	}
}
