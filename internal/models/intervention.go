package models

import "time"

// InterventionStatus tracks a technician visit from dispatch to completion.
type InterventionStatus string

const (
	InterventionStatusPendingAssignment InterventionStatus = "PENDING_ASSIGNMENT"
	InterventionStatusAssigned          InterventionStatus = "ASSIGNED"
	InterventionStatusEnRoute           InterventionStatus = "EN_ROUTE"
	InterventionStatusOnSite            InterventionStatus = "ON_SITE"
	InterventionStatusReportPending     InterventionStatus = "REPORT_PENDING"
	InterventionStatusCompleted         InterventionStatus = "COMPLETED"
	InterventionStatusCancelled         InterventionStatus = "CANCELLED"
)

// interventionTransitions is the allowed (from, to) table for status actions.
// Technicians routinely skip EN_ROUTE and file a report without checking in
// on site, so forward jumps stay legal; terminal states admit nothing.
var interventionTransitions = map[InterventionStatus][]InterventionStatus{
	InterventionStatusPendingAssignment: {InterventionStatusAssigned, InterventionStatusCancelled},
	InterventionStatusAssigned:          {InterventionStatusEnRoute, InterventionStatusOnSite, InterventionStatusReportPending, InterventionStatusCancelled},
	InterventionStatusEnRoute:           {InterventionStatusOnSite, InterventionStatusReportPending, InterventionStatusCancelled},
	InterventionStatusOnSite:            {InterventionStatusReportPending, InterventionStatusCompleted, InterventionStatusCancelled},
	InterventionStatusReportPending:     {InterventionStatusCompleted, InterventionStatusCancelled},
	InterventionStatusCompleted:         {},
	InterventionStatusCancelled:         {},
}

// CanTransition reports whether the status may move to the target.
func (s InterventionStatus) CanTransition(to InterventionStatus) bool {
	for _, allowed := range interventionTransitions[s] {
		if allowed == to {
			return true
		}
	}
	return false
}

// Terminal reports whether no further transitions are allowed.
func (s InterventionStatus) Terminal() bool {
	return len(interventionTransitions[s]) == 0
}

// Valid reports whether the status is a known intervention state.
func (s InterventionStatus) Valid() bool {
	_, ok := interventionTransitions[s]
	return ok
}

// InterventionType categorises the visit.
type InterventionType string

const (
	InterventionTypeUrgent       InterventionType = "URGENT"
	InterventionTypeStandard     InterventionType = "STANDARD"
	InterventionTypeAstreinte    InterventionType = "ASTREINTE"
	InterventionTypeInstallation InterventionType = "INSTALLATION"
	InterventionTypeMaintenance  InterventionType = "MAINTENANCE"
	InterventionTypeQuoteOnly    InterventionType = "QUOTE_ONLY"
)

// Valid reports whether the type is one of the known visit categories.
func (t InterventionType) Valid() bool {
	switch t {
	case InterventionTypeUrgent, InterventionTypeStandard, InterventionTypeAstreinte,
		InterventionTypeInstallation, InterventionTypeMaintenance, InterventionTypeQuoteOnly:
		return true
	default:
		return false
	}
}

// Intervention is a single scheduled or executed technician visit.
type Intervention struct {
	ID             string             `db:"id" json:"id"`
	CaseID         string             `db:"case_id" json:"caseId"`
	Title          string             `db:"title" json:"title"`
	Type           InterventionType   `db:"type" json:"type"`
	Priority       Priority           `db:"priority" json:"priority"`
	Status         InterventionStatus `db:"status" json:"status"`
	TechnicianID   *string            `db:"technician_id" json:"technicianId,omitempty"`
	ScheduledStart *time.Time         `db:"scheduled_start" json:"scheduledStart,omitempty"`
	ScheduledEnd   *time.Time         `db:"scheduled_end" json:"scheduledEnd,omitempty"`
	ActualStart    *time.Time         `db:"actual_start" json:"actualStart,omitempty"`
	ActualEnd      *time.Time         `db:"actual_end" json:"actualEnd,omitempty"`
	Notes          *string            `db:"notes" json:"notes,omitempty"`
	DriveFolderURL *string            `db:"drive_folder_url" json:"driveFolderUrl,omitempty"`
	Version        int64              `db:"version" json:"version"`
	CreatedAt      time.Time          `db:"created_at" json:"createdAt"`
	UpdatedAt      time.Time          `db:"updated_at" json:"updatedAt"`

	Case           *Case               `db:"-" json:"case,omitempty"`
	Logs           []InterventionLog   `db:"-" json:"logs,omitempty"`
	Media          []InterventionMedia `db:"-" json:"media,omitempty"`
	QuoteRequests  []QuoteRequest      `db:"-" json:"quoteRequests,omitempty"`
	DeviceProposals []DeviceProposal   `db:"-" json:"deviceProposals,omitempty"`
}

// InterventionLog is an append-only audit row for a status change.
type InterventionLog struct {
	ID             string              `db:"id" json:"id"`
	InterventionID string              `db:"intervention_id" json:"interventionId"`
	StatusFrom     *InterventionStatus `db:"status_from" json:"statusFrom,omitempty"`
	StatusTo       InterventionStatus  `db:"status_to" json:"statusTo"`
	CreatedByID    string              `db:"created_by_id" json:"createdById"`
	Note           *string             `db:"note" json:"note,omitempty"`
	IdempotencyKey *string             `db:"idempotency_key" json:"-"`
	CreatedAt      time.Time           `db:"created_at" json:"createdAt"`
}

// MediaType distinguishes uploaded evidence kinds.
type MediaType string

const (
	MediaTypePhoto    MediaType = "PHOTO"
	MediaTypeDocument MediaType = "DOCUMENT"
)

// InterventionMedia references a photo or document captured during a visit.
type InterventionMedia struct {
	ID             string    `db:"id" json:"id"`
	InterventionID string    `db:"intervention_id" json:"interventionId"`
	URL            string    `db:"url" json:"url"`
	Description    *string   `db:"description" json:"description,omitempty"`
	MediaType      MediaType `db:"media_type" json:"mediaType"`
	CreatedAt      time.Time `db:"created_at" json:"createdAt"`
}
