package models

import "time"

// ReviewQueue names a backlog of pending human approvals. An item's
// ReferenceID points at the entity requiring attention: an intervention for
// REPORT, a device proposal for DEVICE_VALIDATION, a quote or quote request
// for QUOTE, an intervention for ASTREINTE. The reference is lookup-only;
// the queue tolerates the referenced entity disappearing.
type ReviewQueue string

const (
	ReviewQueueReport           ReviewQueue = "REPORT"
	ReviewQueueDeviceValidation ReviewQueue = "DEVICE_VALIDATION"
	ReviewQueueAstreinte        ReviewQueue = "ASTREINTE"
	ReviewQueueQuote            ReviewQueue = "QUOTE"
)

// Valid reports whether the queue name is known.
func (q ReviewQueue) Valid() bool {
	switch q {
	case ReviewQueueReport, ReviewQueueDeviceValidation, ReviewQueueAstreinte, ReviewQueueQuote:
		return true
	}
	return false
}

// ReviewItem is one pending (or resolved) approval in a queue.
type ReviewItem struct {
	ID           string      `db:"id" json:"id"`
	Queue        ReviewQueue `db:"queue" json:"queue"`
	ReferenceID  string      `db:"reference_id" json:"referenceId"`
	Label        string      `db:"label" json:"label"`
	Notes        *string     `db:"notes" json:"notes,omitempty"`
	ResolvedAt   *time.Time  `db:"resolved_at" json:"resolvedAt,omitempty"`
	ResolvedByID *string     `db:"resolved_by_id" json:"resolvedById,omitempty"`
	CreatedAt    time.Time   `db:"created_at" json:"createdAt"`
}

// Resolved reports whether the item has been closed.
func (i ReviewItem) Resolved() bool {
	return i.ResolvedAt != nil
}
