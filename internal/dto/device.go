package dto

import (
	"time"

	"github.com/fieldops/fieldops-api/internal/models"
)

// UpdateDeviceRequest payload for partial device register updates.
type UpdateDeviceRequest struct {
	Label          *string              `json:"label" binding:"omitempty,min=2"`
	Brand          *string              `json:"brand"`
	Model          *string              `json:"model"`
	SerialNumber   *string              `json:"serialNumber"`
	Status         *models.DeviceStatus `json:"status"`
	GPSLatitude    *float64             `json:"gpsLatitude"`
	GPSLongitude   *float64             `json:"gpsLongitude"`
	AccessLocation *string              `json:"accessLocation"`
	Notes          *string              `json:"notes"`
	InstalledAt    *time.Time           `json:"installedAt"`
	RetiredAt      *time.Time           `json:"retiredAt"`
}

// ValidateProposalRequest payload for the three-way proposal resolution.
type ValidateProposalRequest struct {
	ValidatedByID string                `json:"validatedById" binding:"required"`
	Status        models.ProposalStatus `json:"status"`
	Notes         *string               `json:"notes"`
}

// RejectProposalRequest payload for the direct rejection shortcut.
type RejectProposalRequest struct {
	ValidatedByID string `json:"validatedById" binding:"required"`
	RejectionNote string `json:"rejectionNote" binding:"required,min=5"`
}
