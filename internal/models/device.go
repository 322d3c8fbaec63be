package models

import "time"

// DeviceStatus tracks the authoritative equipment register.
type DeviceStatus string

const (
	DeviceStatusPendingValidation DeviceStatus = "PENDING_VALIDATION"
	DeviceStatusActive            DeviceStatus = "ACTIVE"
	DeviceStatusRetired           DeviceStatus = "RETIRED"
	DeviceStatusReplaced          DeviceStatus = "REPLACED"
)

// Device is a validated piece of equipment installed at a site.
type Device struct {
	ID             string       `db:"id" json:"id"`
	SiteID         string       `db:"site_id" json:"siteId"`
	Label          string       `db:"label" json:"label"`
	Brand          *string      `db:"brand" json:"brand,omitempty"`
	Model          *string      `db:"model" json:"model,omitempty"`
	SerialNumber   *string      `db:"serial_number" json:"serialNumber,omitempty"`
	Status         DeviceStatus `db:"status" json:"status"`
	GPSLatitude    *float64     `db:"gps_latitude" json:"gpsLatitude,omitempty"`
	GPSLongitude   *float64     `db:"gps_longitude" json:"gpsLongitude,omitempty"`
	AccessLocation *string      `db:"access_location" json:"accessLocation,omitempty"`
	Notes          *string      `db:"notes" json:"notes,omitempty"`
	InstalledAt    *time.Time   `db:"installed_at" json:"installedAt,omitempty"`
	RetiredAt      *time.Time   `db:"retired_at" json:"retiredAt,omitempty"`
	CreatedAt      time.Time    `db:"created_at" json:"createdAt"`
	UpdatedAt      time.Time    `db:"updated_at" json:"updatedAt"`
}

// ProposalStatus is the terminal three-way resolution of a device proposal.
type ProposalStatus string

const (
	ProposalStatusPendingValidation ProposalStatus = "PENDING_VALIDATION"
	ProposalStatusActive            ProposalStatus = "ACTIVE"
	ProposalStatusRejected          ProposalStatus = "REJECTED"
	ProposalStatusReplaced          ProposalStatus = "REPLACED"
)

// Terminal reports whether the proposal has been resolved.
func (s ProposalStatus) Terminal() bool {
	return s != ProposalStatusPendingValidation
}

// ValidOutcome reports whether the status is an acceptable validation outcome.
func (s ProposalStatus) ValidOutcome() bool {
	switch s {
	case ProposalStatusActive, ProposalStatusRejected, ProposalStatusReplaced:
		return true
	}
	return false
}

// DeviceProposal is a technician-submitted equipment candidate awaiting
// office validation. Its captured attributes become the Device on approval.
type DeviceProposal struct {
	ID               string         `db:"id" json:"id"`
	SiteID           string         `db:"site_id" json:"siteId"`
	InterventionID   string         `db:"intervention_id" json:"interventionId"`
	PreviousDeviceID *string        `db:"previous_device_id" json:"previousDeviceId,omitempty"`
	Label            string         `db:"label" json:"label"`
	Brand            *string        `db:"brand" json:"brand,omitempty"`
	Model            *string        `db:"model" json:"model,omitempty"`
	SerialNumber     *string        `db:"serial_number" json:"serialNumber,omitempty"`
	GPSLatitude      *float64       `db:"gps_latitude" json:"gpsLatitude,omitempty"`
	GPSLongitude     *float64       `db:"gps_longitude" json:"gpsLongitude,omitempty"`
	AccessLocation   *string        `db:"access_location" json:"accessLocation,omitempty"`
	Notes            *string        `db:"notes" json:"notes,omitempty"`
	PhotosFolderURL  *string        `db:"photos_folder_url" json:"photosFolderUrl,omitempty"`
	Status           ProposalStatus `db:"status" json:"status"`
	ValidatedByID    *string        `db:"validated_by_id" json:"validatedById,omitempty"`
	ValidatedAt      *time.Time     `db:"validated_at" json:"validatedAt,omitempty"`
	RejectionNote    *string        `db:"rejection_note" json:"rejectionNote,omitempty"`
	RejectedAt       *time.Time     `db:"rejected_at" json:"rejectedAt,omitempty"`
	Version          int64          `db:"version" json:"version"`
	CreatedAt        time.Time      `db:"created_at" json:"createdAt"`
	UpdatedAt        time.Time      `db:"updated_at" json:"updatedAt"`

	Site         *Site         `db:"-" json:"site,omitempty"`
	Intervention *Intervention `db:"-" json:"intervention,omitempty"`
}
