package dto

// CreateSiteRequest payload for attaching a site to a client.
type CreateSiteRequest struct {
	Label        string   `json:"label" binding:"required"`
	AddressLine1 string   `json:"addressLine1" binding:"required"`
	AddressLine2 *string  `json:"addressLine2"`
	PostalCode   string   `json:"postalCode" binding:"required"`
	City         string   `json:"city" binding:"required"`
	Country      string   `json:"country"`
	Latitude     *float64 `json:"latitude"`
	Longitude    *float64 `json:"longitude"`
	AccessNotes  *string  `json:"accessNotes"`
	ContactName  *string  `json:"contactName"`
	ContactEmail *string  `json:"contactEmail" binding:"omitempty,email"`
	ContactPhone *string  `json:"contactPhone"`
}

// CreateClientRequest payload for creating a client, optionally with sites.
type CreateClientRequest struct {
	Name           string              `json:"name" binding:"required,min=2"`
	ContactName    *string             `json:"contactName"`
	ContactEmail   *string             `json:"contactEmail" binding:"omitempty,email"`
	ContactPhone   *string             `json:"contactPhone"`
	BillingAddress *string             `json:"billingAddress"`
	Notes          *string             `json:"notes"`
	Sites          []CreateSiteRequest `json:"sites"`
}

// UpdateClientRequest payload for partial client updates.
type UpdateClientRequest struct {
	Name           *string `json:"name" binding:"omitempty,min=2"`
	ContactName    *string `json:"contactName"`
	ContactEmail   *string `json:"contactEmail" binding:"omitempty,email"`
	ContactPhone   *string `json:"contactPhone"`
	BillingAddress *string `json:"billingAddress"`
	Notes          *string `json:"notes"`
}
