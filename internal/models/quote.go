package models

import "time"

// QuoteStatus tracks a price quote from request to acceptance.
type QuoteStatus string

const (
	QuoteStatusRequested  QuoteStatus = "REQUESTED"
	QuoteStatusInProgress QuoteStatus = "IN_PROGRESS"
	QuoteStatusSent       QuoteStatus = "SENT"
	QuoteStatusAccepted   QuoteStatus = "ACCEPTED"
	QuoteStatusDeclined   QuoteStatus = "DECLINED"
)

var quoteTransitions = map[QuoteStatus][]QuoteStatus{
	QuoteStatusRequested:  {QuoteStatusInProgress, QuoteStatusSent, QuoteStatusDeclined},
	QuoteStatusInProgress: {QuoteStatusSent, QuoteStatusDeclined},
	QuoteStatusSent:       {QuoteStatusAccepted, QuoteStatusDeclined},
	QuoteStatusAccepted:   {},
	QuoteStatusDeclined:   {},
}

// CanTransition reports whether the status may move to the target.
func (s QuoteStatus) CanTransition(to QuoteStatus) bool {
	for _, allowed := range quoteTransitions[s] {
		if allowed == to {
			return true
		}
	}
	return false
}

// Terminal reports whether no further transitions are allowed.
func (s QuoteStatus) Terminal() bool {
	return len(quoteTransitions[s]) == 0
}

// Valid reports whether the status is a known quote state.
func (s QuoteStatus) Valid() bool {
	_, ok := quoteTransitions[s]
	return ok
}

// Resolving reports whether entering this status closes the QUOTE review item.
func (s QuoteStatus) Resolving() bool {
	switch s {
	case QuoteStatusSent, QuoteStatusAccepted, QuoteStatusDeclined:
		return true
	}
	return false
}

// Quote is a price offer attached to a case.
type Quote struct {
	ID            string      `db:"id" json:"id"`
	CaseID        string      `db:"case_id" json:"caseId"`
	Label         *string     `db:"label" json:"label,omitempty"`
	Status        QuoteStatus `db:"status" json:"status"`
	Amount        *float64    `db:"amount" json:"amount,omitempty"`
	Currency      string      `db:"currency" json:"currency"`
	DocumentURL   *string     `db:"document_url" json:"documentUrl,omitempty"`
	RequestedByID string      `db:"requested_by_id" json:"requestedById"`
	HandledByID   *string     `db:"handled_by_id" json:"handledById,omitempty"`
	Notes         *string     `db:"notes" json:"notes,omitempty"`
	SentAt        *time.Time  `db:"sent_at" json:"sentAt,omitempty"`
	AcceptedAt    *time.Time  `db:"accepted_at" json:"acceptedAt,omitempty"`
	Version       int64       `db:"version" json:"version"`
	CreatedAt     time.Time   `db:"created_at" json:"createdAt"`
	UpdatedAt     time.Time   `db:"updated_at" json:"updatedAt"`

	Case          *Case          `db:"-" json:"case,omitempty"`
	QuoteRequests []QuoteRequest `db:"-" json:"quoteRequests,omitempty"`
}

// QuoteRequestStatus tracks a technician's field request for a quote.
type QuoteRequestStatus string

const (
	QuoteRequestStatusPending    QuoteRequestStatus = "PENDING"
	QuoteRequestStatusInProgress QuoteRequestStatus = "IN_PROGRESS"
)

// QuoteRequest is raised from the field and optionally linked to a Quote later.
type QuoteRequest struct {
	ID             string             `db:"id" json:"id"`
	InterventionID string             `db:"intervention_id" json:"interventionId"`
	QuoteID        *string            `db:"quote_id" json:"quoteId,omitempty"`
	Description    string             `db:"description" json:"description"`
	TemplateKey    *string            `db:"template_key" json:"templateKey,omitempty"`
	Status         QuoteRequestStatus `db:"status" json:"status"`
	CreatedAt      time.Time          `db:"created_at" json:"createdAt"`
	UpdatedAt      time.Time          `db:"updated_at" json:"updatedAt"`
}
