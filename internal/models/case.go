package models

import "time"

// Priority ranks cases and interventions for dispatch.
type Priority string

const (
	PriorityStandard Priority = "STANDARD"
	PriorityUrgent   Priority = "URGENT"
)

// Valid reports whether the priority is a known level.
func (p Priority) Valid() bool {
	return p == PriorityStandard || p == PriorityUrgent
}

// CaseStatus captures the lifecycle of a service case.
type CaseStatus string

const (
	CaseStatusOpen          CaseStatus = "OPEN"
	CaseStatusInProgress    CaseStatus = "IN_PROGRESS"
	CaseStatusWaitingClient CaseStatus = "WAITING_CLIENT"
	CaseStatusWaitingParts  CaseStatus = "WAITING_PARTS"
	CaseStatusReportPending CaseStatus = "REPORT_PENDING"
	CaseStatusCompleted     CaseStatus = "COMPLETED"
	CaseStatusClosed        CaseStatus = "CLOSED"
)

// caseTransitions is the allowed (from, to) table for patch-driven status
// changes. Closing goes through the dedicated close action, which is allowed
// from every state except CLOSED.
var caseTransitions = map[CaseStatus][]CaseStatus{
	CaseStatusOpen:          {CaseStatusInProgress, CaseStatusWaitingClient, CaseStatusWaitingParts, CaseStatusReportPending, CaseStatusCompleted},
	CaseStatusInProgress:    {CaseStatusWaitingClient, CaseStatusWaitingParts, CaseStatusReportPending, CaseStatusCompleted},
	CaseStatusWaitingClient: {CaseStatusInProgress, CaseStatusWaitingParts, CaseStatusReportPending},
	CaseStatusWaitingParts:  {CaseStatusInProgress, CaseStatusWaitingClient, CaseStatusReportPending},
	CaseStatusReportPending: {CaseStatusInProgress, CaseStatusCompleted},
	CaseStatusCompleted:     {CaseStatusClosed},
	CaseStatusClosed:        {},
}

// CanTransition reports whether a case may move from its current status to the target.
func (s CaseStatus) CanTransition(to CaseStatus) bool {
	for _, allowed := range caseTransitions[s] {
		if allowed == to {
			return true
		}
	}
	return false
}

// Terminal reports whether no further transitions are allowed.
func (s CaseStatus) Terminal() bool {
	return len(caseTransitions[s]) == 0
}

// Valid reports whether the status is a known case state.
func (s CaseStatus) Valid() bool {
	_, ok := caseTransitions[s]
	return ok
}

// Case is a customer service ticket grouping interventions and quotes.
type Case struct {
	ID              string     `db:"id" json:"id"`
	Title           string     `db:"title" json:"title"`
	Description     *string    `db:"description" json:"description,omitempty"`
	Priority        Priority   `db:"priority" json:"priority"`
	Status          CaseStatus `db:"status" json:"status"`
	ClientID        string     `db:"client_id" json:"clientId"`
	SiteID          string     `db:"site_id" json:"siteId"`
	DriveFolderURL  *string    `db:"drive_folder_url" json:"driveFolderUrl,omitempty"`
	CalendarEventID *string    `db:"calendar_event_id" json:"calendarEventId,omitempty"`
	PlannedAt       *time.Time `db:"planned_at" json:"plannedAt,omitempty"`
	CreatedByID     string     `db:"created_by_id" json:"createdById"`
	ClosedByID      *string    `db:"closed_by_id" json:"closedById,omitempty"`
	ClosedAt        *time.Time `db:"closed_at" json:"closedAt,omitempty"`
	Version         int64      `db:"version" json:"version"`
	CreatedAt       time.Time  `db:"created_at" json:"createdAt"`
	UpdatedAt       time.Time  `db:"updated_at" json:"updatedAt"`

	Client        *Client        `db:"-" json:"client,omitempty"`
	Site          *Site          `db:"-" json:"site,omitempty"`
	Interventions []Intervention `db:"-" json:"interventions,omitempty"`
	Quotes        []Quote        `db:"-" json:"quotes,omitempty"`
}
