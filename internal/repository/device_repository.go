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

const deviceColumns = `id, site_id, label, brand, model, serial_number, status,
	gps_latitude, gps_longitude, access_location, notes, installed_at, retired_at,
	created_at, updated_at`

const proposalColumns = `id, site_id, intervention_id, previous_device_id, label, brand, model,
	serial_number, gps_latitude, gps_longitude, access_location, notes, photos_folder_url,
	status, validated_by_id, validated_at, rejection_note, rejected_at, version, created_at, updated_at`

// DeviceRepository persists the equipment register and proposal workflow.
type DeviceRepository struct {
	db *sqlx.DB
}

// NewDeviceRepository constructs the repository.
func NewDeviceRepository(db *sqlx.DB) *DeviceRepository {
	return &DeviceRepository{db: db}
}

// DeviceFilter constrains device listing.
type DeviceFilter struct {
	SiteID string
	Status []models.DeviceStatus
}

// List returns devices, most recently updated first.
func (r *DeviceRepository) List(ctx context.Context, filter DeviceFilter) ([]models.Device, error) {
	builder := strings.Builder{}
	builder.WriteString(fmt.Sprintf(`SELECT %s FROM devices`, deviceColumns))

	args := make([]interface{}, 0, 2)
	conditions := make([]string, 0, 2)
	if filter.SiteID != "" {
		args = append(args, filter.SiteID)
		conditions = append(conditions, fmt.Sprintf("site_id = $%d", len(args)))
	}
	if len(filter.Status) > 0 {
		placeholders := make([]string, len(filter.Status))
		for i, status := range filter.Status {
			args = append(args, status)
			placeholders[i] = fmt.Sprintf("$%d", len(args))
		}
		conditions = append(conditions, fmt.Sprintf("status IN (%s)", strings.Join(placeholders, ",")))
	}
	if len(conditions) > 0 {
		builder.WriteString(" WHERE ")
		builder.WriteString(strings.Join(conditions, " AND "))
	}
	builder.WriteString(" ORDER BY updated_at DESC")

	var devices []models.Device
	if err := r.db.SelectContext(ctx, &devices, builder.String(), args...); err != nil {
		return nil, fmt.Errorf("list devices: %w", err)
	}
	return devices, nil
}

// GetByID fetches one device.
func (r *DeviceRepository) GetByID(ctx context.Context, id string) (*models.Device, error) {
	query := fmt.Sprintf(`SELECT %s FROM devices WHERE id = $1`, deviceColumns)
	var device models.Device
	if err := r.db.GetContext(ctx, &device, query, id); err != nil {
		return nil, err
	}
	return &device, nil
}

// UpdateDeviceParams carries the optional register corrections.
type UpdateDeviceParams struct {
	ID             string
	Label          *string
	Brand          *string
	Model          *string
	SerialNumber   *string
	Status         *models.DeviceStatus
	GPSLatitude    *float64
	GPSLongitude   *float64
	AccessLocation *string
	Notes          *string
	InstalledAt    *time.Time
	RetiredAt      *time.Time
}

// Update patches the provided device columns.
func (r *DeviceRepository) Update(ctx context.Context, params UpdateDeviceParams) (*models.Device, error) {
	setParts := make([]string, 0, 12)
	args := make([]interface{}, 0, 12)
	add := func(column string, value interface{}) {
		args = append(args, value)
		setParts = append(setParts, fmt.Sprintf("%s = $%d", column, len(args)))
	}
	if params.Label != nil {
		add("label", *params.Label)
	}
	if params.Brand != nil {
		add("brand", *params.Brand)
	}
	if params.Model != nil {
		add("model", *params.Model)
	}
	if params.SerialNumber != nil {
		add("serial_number", *params.SerialNumber)
	}
	if params.Status != nil {
		add("status", *params.Status)
	}
	if params.GPSLatitude != nil {
		add("gps_latitude", *params.GPSLatitude)
	}
	if params.GPSLongitude != nil {
		add("gps_longitude", *params.GPSLongitude)
	}
	if params.AccessLocation != nil {
		add("access_location", *params.AccessLocation)
	}
	if params.Notes != nil {
		add("notes", *params.Notes)
	}
	if params.InstalledAt != nil {
		add("installed_at", *params.InstalledAt)
	}
	if params.RetiredAt != nil {
		add("retired_at", *params.RetiredAt)
	}
	if len(setParts) == 0 {
		return r.GetByID(ctx, params.ID)
	}
	setParts = append(setParts, "updated_at = now()")

	args = append(args, params.ID)
	query := fmt.Sprintf("UPDATE devices SET %s WHERE id = $%d RETURNING %s",
		strings.Join(setParts, ", "), len(args), deviceColumns)
	var device models.Device
	if err := r.db.GetContext(ctx, &device, query, args...); err != nil {
		return nil, err
	}
	return &device, nil
}

// CreateProposal inserts a technician submission and opens its
// DEVICE_VALIDATION review item in one transaction.
func (r *DeviceRepository) CreateProposal(ctx context.Context, proposal *models.DeviceProposal, reviewLabel string) error {
	if proposal.ID == "" {
		proposal.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	proposal.Status = models.ProposalStatusPendingValidation
	proposal.Version = 1
	proposal.CreatedAt = now
	proposal.UpdatedAt = now

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin create proposal tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	const query = `INSERT INTO device_proposals
	(id, site_id, intervention_id, previous_device_id, label, brand, model, serial_number,
	 gps_latitude, gps_longitude, access_location, notes, photos_folder_url, status,
	 validated_by_id, validated_at, rejection_note, rejected_at, version, created_at, updated_at)
	VALUES (:id, :site_id, :intervention_id, :previous_device_id, :label, :brand, :model, :serial_number,
	 :gps_latitude, :gps_longitude, :access_location, :notes, :photos_folder_url, :status,
	 :validated_by_id, :validated_at, :rejection_note, :rejected_at, :version, :created_at, :updated_at)`
	if _, err := tx.NamedExecContext(ctx, query, proposal); err != nil {
		return fmt.Errorf("create device proposal: %w", err)
	}

	if err := insertReviewItemTx(ctx, tx, &models.ReviewItem{
		Queue:       models.ReviewQueueDeviceValidation,
		ReferenceID: proposal.ID,
		Label:       reviewLabel,
	}); err != nil {
		return err
	}

	return tx.Commit()
}

// GetProposalByID fetches one proposal.
func (r *DeviceRepository) GetProposalByID(ctx context.Context, id string) (*models.DeviceProposal, error) {
	query := fmt.Sprintf(`SELECT %s FROM device_proposals WHERE id = $1`, proposalColumns)
	var proposal models.DeviceProposal
	if err := r.db.GetContext(ctx, &proposal, query, id); err != nil {
		return nil, err
	}
	return &proposal, nil
}

// ListPendingProposals returns unresolved proposals, newest first.
func (r *DeviceRepository) ListPendingProposals(ctx context.Context) ([]models.DeviceProposal, error) {
	query := fmt.Sprintf(`SELECT %s FROM device_proposals WHERE status = $1 ORDER BY created_at DESC`, proposalColumns)
	var proposals []models.DeviceProposal
	if err := r.db.SelectContext(ctx, &proposals, query, models.ProposalStatusPendingValidation); err != nil {
		return nil, fmt.Errorf("list pending proposals: %w", err)
	}
	return proposals, nil
}

// CountPendingProposals returns the number of unresolved proposals.
func (r *DeviceRepository) CountPendingProposals(ctx context.Context) (int64, error) {
	var count int64
	if err := r.db.GetContext(ctx, &count,
		`SELECT COUNT(*) FROM device_proposals WHERE status = $1`,
		models.ProposalStatusPendingValidation); err != nil {
		return 0, fmt.Errorf("count pending proposals: %w", err)
	}
	return count, nil
}

// ResolveProposalParams describes a terminal proposal resolution.
type ResolveProposalParams struct {
	Proposal      *models.DeviceProposal
	Outcome       models.ProposalStatus
	ValidatedByID string
	Notes         *string
	RejectionNote *string
	Now           time.Time
}

// ResolveProposal applies the terminal three-way resolution in one
// transaction: when the outcome is ACTIVE a Device is created from the
// proposal's captured attributes and any superseded device is marked
// REPLACED; in every outcome the proposal is finalised and its open review
// items are resolved. The status predicate rides in the UPDATE's WHERE
// clause so a concurrent resolution loses cleanly instead of double-creating
// devices.
func (r *DeviceRepository) ResolveProposal(ctx context.Context, params ResolveProposalParams) (*models.DeviceProposal, *models.Device, error) {
	proposal := params.Proposal
	now := params.Now
	if now.IsZero() {
		now = time.Now().UTC()
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, nil, fmt.Errorf("begin resolve proposal tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	var device *models.Device
	if params.Outcome == models.ProposalStatusActive {
		device = &models.Device{
			ID:             uuid.NewString(),
			SiteID:         proposal.SiteID,
			Label:          proposal.Label,
			Brand:          proposal.Brand,
			Model:          proposal.Model,
			SerialNumber:   proposal.SerialNumber,
			Status:         models.DeviceStatusActive,
			GPSLatitude:    proposal.GPSLatitude,
			GPSLongitude:   proposal.GPSLongitude,
			AccessLocation: proposal.AccessLocation,
			Notes:          proposal.Notes,
			InstalledAt:    &now,
			CreatedAt:      now,
			UpdatedAt:      now,
		}
		const insertDevice = `INSERT INTO devices
		(id, site_id, label, brand, model, serial_number, status, gps_latitude, gps_longitude,
		 access_location, notes, installed_at, retired_at, created_at, updated_at)
		VALUES (:id, :site_id, :label, :brand, :model, :serial_number, :status, :gps_latitude, :gps_longitude,
		 :access_location, :notes, :installed_at, :retired_at, :created_at, :updated_at)`
		if _, err := tx.NamedExecContext(ctx, insertDevice, device); err != nil {
			return nil, nil, fmt.Errorf("create device from proposal: %w", err)
		}

		if proposal.PreviousDeviceID != nil {
			const retireDevice = `UPDATE devices SET status = $1, retired_at = $2, updated_at = now() WHERE id = $3`
			if _, err := tx.ExecContext(ctx, retireDevice, models.DeviceStatusReplaced, now, *proposal.PreviousDeviceID); err != nil {
				return nil, nil, fmt.Errorf("retire replaced device: %w", err)
			}
		}
	}

	const updateProposal = `UPDATE device_proposals SET
	status = $1,
	validated_by_id = $2,
	validated_at = $3,
	notes = COALESCE($4, notes),
	rejection_note = COALESCE($5, rejection_note),
	rejected_at = CASE WHEN $1 = 'REJECTED' THEN $3 ELSE rejected_at END,
	version = version + 1,
	updated_at = now()
	WHERE id = $6 AND version = $7 AND status = $8`
	result, err := tx.ExecContext(ctx, updateProposal,
		params.Outcome, params.ValidatedByID, now, params.Notes, params.RejectionNote,
		proposal.ID, proposal.Version, models.ProposalStatusPendingValidation)
	if err != nil {
		return nil, nil, fmt.Errorf("finalise proposal: %w", err)
	}
	if err := r.guardProposal(ctx, tx, result, proposal.ID); err != nil {
		return nil, nil, err
	}

	notes := params.Notes
	if notes == nil {
		notes = params.RejectionNote
	}
	resolvedBy := params.ValidatedByID
	if _, err := resolveOpenReviewItemsTx(ctx, tx, proposal.ID, nil, now, &resolvedBy, notes); err != nil {
		return nil, nil, err
	}

	updated, err := getProposalTx(ctx, tx, proposal.ID)
	if err != nil {
		return nil, nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, nil, fmt.Errorf("commit resolve proposal tx: %w", err)
	}
	return updated, device, nil
}

func (r *DeviceRepository) guardProposal(ctx context.Context, tx *sqlx.Tx, result interface{ RowsAffected() (int64, error) }, id string) error {
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("finalise proposal: %w", err)
	}
	if affected > 0 {
		return nil
	}
	current, err := getProposalTx(ctx, tx, id)
	if err != nil {
		return err
	}
	if current.Status.Terminal() {
		return ErrAlreadyResolved
	}
	return ErrStaleVersion
}

func getProposalTx(ctx context.Context, tx *sqlx.Tx, id string) (*models.DeviceProposal, error) {
	query := fmt.Sprintf(`SELECT %s FROM device_proposals WHERE id = $1`, proposalColumns)
	var proposal models.DeviceProposal
	if err := tx.GetContext(ctx, &proposal, query, id); err != nil {
		return nil, err
	}
	return &proposal, nil
}
