package dto

import (
	"time"

	"github.com/fieldops/fieldops-api/internal/models"
)

// AssignInterventionRequest payload for (re)assigning a technician.
type AssignInterventionRequest struct {
	TechnicianID   string     `json:"technicianId" binding:"required"`
	AssignedByID   string     `json:"assignedById" binding:"required"`
	ScheduledStart *time.Time `json:"scheduledStart"`
	ScheduledEnd   *time.Time `json:"scheduledEnd"`
	Note           *string    `json:"note"`
	IdempotencyKey *string    `json:"idempotencyKey"`
}

// TransitionInterventionRequest payload for a status change.
type TransitionInterventionRequest struct {
	Status         models.InterventionStatus `json:"status" binding:"required"`
	UserID         string                    `json:"userId" binding:"required"`
	Note           *string                   `json:"note"`
	Timestamp      *time.Time                `json:"timestamp"`
	IdempotencyKey *string                   `json:"idempotencyKey"`
}

// CreateMediaRequest payload for attaching field evidence.
type CreateMediaRequest struct {
	URL         string           `json:"url" binding:"required,url"`
	Description *string          `json:"description"`
	MediaType   models.MediaType `json:"mediaType"`
}

// CreateQuoteRequestRequest payload for a field-raised quote request.
type CreateQuoteRequestRequest struct {
	Description string  `json:"description" binding:"required,min=5"`
	TemplateKey *string `json:"templateKey"`
}

// CreateDeviceProposalRequest payload for a technician equipment submission.
type CreateDeviceProposalRequest struct {
	Label            string   `json:"label" binding:"required,min=2"`
	Brand            *string  `json:"brand"`
	Model            *string  `json:"model"`
	SerialNumber     *string  `json:"serialNumber"`
	GPSLatitude      *float64 `json:"gpsLatitude"`
	GPSLongitude     *float64 `json:"gpsLongitude"`
	AccessLocation   *string  `json:"accessLocation"`
	Notes            *string  `json:"notes"`
	PhotosFolderURL  *string  `json:"photosFolderUrl" binding:"omitempty,url"`
	SiteID           string   `json:"siteId" binding:"required"`
	PreviousDeviceID *string  `json:"previousDeviceId"`
}
