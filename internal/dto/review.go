package dto

// ResolveReviewItemRequest payload for explicitly resolving one review item.
type ResolveReviewItemRequest struct {
	ResolvedByID *string `json:"resolvedById"`
	Notes        *string `json:"notes"`
}
