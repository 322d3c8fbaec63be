package dto

import (
	"time"

	"github.com/fieldops/fieldops-api/internal/models"
)

// CreateQuoteRequest payload for opening a quote on a case.
type CreateQuoteRequest struct {
	CaseID        string  `json:"caseId" binding:"required"`
	RequestedByID string  `json:"requestedById" binding:"required"`
	Label         *string `json:"label"`
	Notes         *string `json:"notes"`
}

// UpdateQuoteRequest payload for partial quote updates, including workflow
// status moves (guarded by the quote transition table).
type UpdateQuoteRequest struct {
	Status      *models.QuoteStatus `json:"status"`
	Amount      *float64            `json:"amount" binding:"omitempty,gte=0"`
	Currency    *string             `json:"currency"`
	DocumentURL *string             `json:"documentUrl" binding:"omitempty,url"`
	HandledByID *string             `json:"handledById"`
	Notes       *string             `json:"notes"`
}

// MarkQuoteSentRequest payload for the mark-sent convenience action.
type MarkQuoteSentRequest struct {
	SentAt      *time.Time `json:"sentAt"`
	HandledByID *string    `json:"handledById"`
}

// MarkQuoteAcceptedRequest payload for the mark-accepted convenience action.
type MarkQuoteAcceptedRequest struct {
	AcceptedAt *time.Time `json:"acceptedAt"`
}
