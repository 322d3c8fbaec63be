package dto

import (
	"time"

	"github.com/fieldops/fieldops-api/internal/models"
)

// CreateCaseRequest payload for opening a service case.
type CreateCaseRequest struct {
	Title           string          `json:"title" binding:"required,min=3"`
	Description     *string         `json:"description"`
	Priority        models.Priority `json:"priority" binding:"omitempty,priority"`
	ClientID        string          `json:"clientId" binding:"required"`
	SiteID          string          `json:"siteId" binding:"required"`
	DriveFolderURL  *string         `json:"driveFolderUrl" binding:"omitempty,url"`
	CalendarEventID *string         `json:"calendarEventId"`
	PlannedAt       *time.Time      `json:"plannedAt"`
	CreatedByID     string          `json:"createdById" binding:"required"`
}

// UpdateCaseRequest payload for partial case updates, including workflow
// status moves (guarded by the case transition table).
type UpdateCaseRequest struct {
	Title           *string            `json:"title" binding:"omitempty,min=3"`
	Description     *string            `json:"description"`
	Priority        *models.Priority   `json:"priority" binding:"omitempty,priority"`
	Status          *models.CaseStatus `json:"status"`
	ClientID        *string            `json:"clientId"`
	SiteID          *string            `json:"siteId"`
	DriveFolderURL  *string            `json:"driveFolderUrl" binding:"omitempty,url"`
	CalendarEventID *string            `json:"calendarEventId"`
	PlannedAt       *time.Time         `json:"plannedAt"`
	ClosedByID      *string            `json:"closedById"`
	ClosedAt        *time.Time         `json:"closedAt"`
}

// CloseCaseRequest payload for the close action.
type CloseCaseRequest struct {
	ClosedByID string  `json:"closedById" binding:"required"`
	Note       *string `json:"note"`
}

// CreateInterventionRequest payload for attaching an intervention to a case.
type CreateInterventionRequest struct {
	Title          string                  `json:"title" binding:"required,min=3"`
	Type           models.InterventionType `json:"type" binding:"required,interventiontype"`
	Priority       models.Priority         `json:"priority" binding:"omitempty,priority"`
	ScheduledStart *time.Time              `json:"scheduledStart"`
	ScheduledEnd   *time.Time              `json:"scheduledEnd"`
	TechnicianID   *string                 `json:"technicianId"`
	Notes          *string                 `json:"notes"`
	DriveFolderURL *string                 `json:"driveFolderUrl"`
}
