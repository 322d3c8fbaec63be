package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/fieldops/fieldops-api/internal/models"
)

const clientColumns = `id, name, contact_name, contact_email, contact_phone,
	billing_address, notes, created_at, updated_at`

const siteColumns = `id, client_id, label, address_line1, address_line2, postal_code,
	city, country, latitude, longitude, access_notes, contact_name, contact_email,
	contact_phone, created_at, updated_at`

// ClientRepository persists client accounts and their sites.
type ClientRepository struct {
	db *sqlx.DB
}

// NewClientRepository constructs the repository.
func NewClientRepository(db *sqlx.DB) *ClientRepository {
	return &ClientRepository{db: db}
}

// CreateWithSites inserts a client and its initial sites in one transaction.
func (r *ClientRepository) CreateWithSites(ctx context.Context, client *models.Client) error {
	if client.ID == "" {
		client.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	client.CreatedAt = now
	client.UpdatedAt = now

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin create client tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	const insertClient = `INSERT INTO clients
	(id, name, contact_name, contact_email, contact_phone, billing_address, notes, created_at, updated_at)
	VALUES (:id, :name, :contact_name, :contact_email, :contact_phone, :billing_address, :notes, :created_at, :updated_at)`
	if _, err := tx.NamedExecContext(ctx, insertClient, client); err != nil {
		return fmt.Errorf("create client: %w", err)
	}

	for i := range client.Sites {
		site := &client.Sites[i]
		site.ClientID = client.ID
		if err := insertSiteTx(ctx, tx, site, now); err != nil {
			return err
		}
	}

	return tx.Commit()
}

// GetByID fetches a client with its sites (devices included) and cases.
func (r *ClientRepository) GetByID(ctx context.Context, id string) (*models.Client, error) {
	query := fmt.Sprintf(`SELECT %s FROM clients WHERE id = $1`, clientColumns)
	var client models.Client
	if err := r.db.GetContext(ctx, &client, query, id); err != nil {
		return nil, err
	}

	sitesQuery := fmt.Sprintf(`SELECT %s FROM sites WHERE client_id = $1 ORDER BY created_at ASC`, siteColumns)
	if err := r.db.SelectContext(ctx, &client.Sites, sitesQuery, id); err != nil {
		return nil, fmt.Errorf("load client sites: %w", err)
	}
	for i := range client.Sites {
		devicesQuery := fmt.Sprintf(`SELECT %s FROM devices WHERE site_id = $1 ORDER BY created_at ASC`, deviceColumns)
		if err := r.db.SelectContext(ctx, &client.Sites[i].Devices, devicesQuery, client.Sites[i].ID); err != nil {
			return nil, fmt.Errorf("load site devices: %w", err)
		}
	}

	casesQuery := fmt.Sprintf(`SELECT %s FROM cases WHERE client_id = $1 ORDER BY created_at DESC`, caseColumns)
	if err := r.db.SelectContext(ctx, &client.Cases, casesQuery, id); err != nil {
		return nil, fmt.Errorf("load client cases: %w", err)
	}
	return &client, nil
}

// ClientFilter constrains client listing.
type ClientFilter struct {
	Search string
	Limit  int
	Offset int
}

// List returns clients ordered by name.
func (r *ClientRepository) List(ctx context.Context, filter ClientFilter) ([]models.Client, error) {
	builder := strings.Builder{}
	builder.WriteString(fmt.Sprintf(`SELECT %s FROM clients`, clientColumns))

	args := make([]interface{}, 0, 3)
	if filter.Search != "" {
		args = append(args, "%"+filter.Search+"%")
		builder.WriteString(fmt.Sprintf(" WHERE name ILIKE $%d", len(args)))
	}
	builder.WriteString(" ORDER BY name ASC")

	limit := filter.Limit
	if limit <= 0 {
		limit = 50
	}
	if limit > 200 {
		limit = 200
	}
	args = append(args, limit)
	builder.WriteString(fmt.Sprintf(" LIMIT $%d", len(args)))
	if filter.Offset > 0 {
		args = append(args, filter.Offset)
		builder.WriteString(fmt.Sprintf(" OFFSET $%d", len(args)))
	}

	var clients []models.Client
	if err := r.db.SelectContext(ctx, &clients, builder.String(), args...); err != nil {
		return nil, fmt.Errorf("list clients: %w", err)
	}
	return clients, nil
}

// UpdateClientParams carries the optional client corrections.
type UpdateClientParams struct {
	ID             string
	Name           *string
	ContactName    *string
	ContactEmail   *string
	ContactPhone   *string
	BillingAddress *string
	Notes          *string
}

// Update patches the provided client columns.
func (r *ClientRepository) Update(ctx context.Context, params UpdateClientParams) (*models.Client, error) {
	const query = `UPDATE clients SET
	name = COALESCE($1, name),
	contact_name = COALESCE($2, contact_name),
	contact_email = COALESCE($3, contact_email),
	contact_phone = COALESCE($4, contact_phone),
	billing_address = COALESCE($5, billing_address),
	notes = COALESCE($6, notes),
	updated_at = now()
	WHERE id = $7
	RETURNING ` + clientColumns
	var client models.Client
	if err := r.db.GetContext(ctx, &client, query,
		params.Name, params.ContactName, params.ContactEmail, params.ContactPhone,
		params.BillingAddress, params.Notes, params.ID); err != nil {
		return nil, err
	}
	return &client, nil
}

// CreateSite adds a site to an existing client.
func (r *ClientRepository) CreateSite(ctx context.Context, site *models.Site) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin create site tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	if err := insertSiteTx(ctx, tx, site, time.Now().UTC()); err != nil {
		return err
	}
	return tx.Commit()
}

// GetSiteByID fetches one site with its devices.
func (r *ClientRepository) GetSiteByID(ctx context.Context, id string) (*models.Site, error) {
	query := fmt.Sprintf(`SELECT %s FROM sites WHERE id = $1`, siteColumns)
	var site models.Site
	if err := r.db.GetContext(ctx, &site, query, id); err != nil {
		return nil, err
	}

	devicesQuery := fmt.Sprintf(`SELECT %s FROM devices WHERE site_id = $1 ORDER BY created_at ASC`, deviceColumns)
	if err := r.db.SelectContext(ctx, &site.Devices, devicesQuery, id); err != nil {
		return nil, fmt.Errorf("load site devices: %w", err)
	}
	return &site, nil
}

func insertSiteTx(ctx context.Context, tx *sqlx.Tx, site *models.Site, now time.Time) error {
	if site.ID == "" {
		site.ID = uuid.NewString()
	}
	if site.Country == "" {
		site.Country = "France"
	}
	site.CreatedAt = now
	site.UpdatedAt = now

	const query = `INSERT INTO sites
	(id, client_id, label, address_line1, address_line2, postal_code, city, country,
	 latitude, longitude, access_notes, contact_name, contact_email, contact_phone,
	 created_at, updated_at)
	VALUES (:id, :client_id, :label, :address_line1, :address_line2, :postal_code, :city, :country,
	 :latitude, :longitude, :access_notes, :contact_name, :contact_email, :contact_phone,
	 :created_at, :updated_at)`
	if _, err := tx.NamedExecContext(ctx, query, site); err != nil {
		return fmt.Errorf("create site: %w", err)
	}
	return nil
}
