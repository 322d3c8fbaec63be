package models

import "time"

// Client is a customer account owning one or more serviced sites.
type Client struct {
	ID             string    `db:"id" json:"id"`
	Name           string    `db:"name" json:"name"`
	ContactName    *string   `db:"contact_name" json:"contactName,omitempty"`
	ContactEmail   *string   `db:"contact_email" json:"contactEmail,omitempty"`
	ContactPhone   *string   `db:"contact_phone" json:"contactPhone,omitempty"`
	BillingAddress *string   `db:"billing_address" json:"billingAddress,omitempty"`
	Notes          *string   `db:"notes" json:"notes,omitempty"`
	CreatedAt      time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt      time.Time `db:"updated_at" json:"updatedAt"`

	Sites []Site `db:"-" json:"sites,omitempty"`
	Cases []Case `db:"-" json:"cases,omitempty"`
}

// Site is a physical location belonging to a client.
type Site struct {
	ID           string    `db:"id" json:"id"`
	ClientID     string    `db:"client_id" json:"clientId"`
	Label        string    `db:"label" json:"label"`
	AddressLine1 string    `db:"address_line1" json:"addressLine1"`
	AddressLine2 *string   `db:"address_line2" json:"addressLine2,omitempty"`
	PostalCode   string    `db:"postal_code" json:"postalCode"`
	City         string    `db:"city" json:"city"`
	Country      string    `db:"country" json:"country"`
	Latitude     *float64  `db:"latitude" json:"latitude,omitempty"`
	Longitude    *float64  `db:"longitude" json:"longitude,omitempty"`
	AccessNotes  *string   `db:"access_notes" json:"accessNotes,omitempty"`
	ContactName  *string   `db:"contact_name" json:"contactName,omitempty"`
	ContactEmail *string   `db:"contact_email" json:"contactEmail,omitempty"`
	ContactPhone *string   `db:"contact_phone" json:"contactPhone,omitempty"`
	CreatedAt    time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt    time.Time `db:"updated_at" json:"updatedAt"`

	Devices []Device `db:"-" json:"devices,omitempty"`
}
