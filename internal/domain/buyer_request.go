package domain

import "time"

type BuyerRequestStatus string

const (
	BuyerRequestStatusOpen    BuyerRequestStatus = "OPEN"
	BuyerRequestStatusClaimed BuyerRequestStatus = "CLAIMED"
)

// ContactInfo holds a buyer's reachable contact details.
type ContactInfo struct {
	Name  string `json:"name"`
	Phone string `json:"phone"`
	Email string `json:"email"`
}

// ContactPreferences describes how and when the buyer wants to be reached.
type ContactPreferences struct {
	Channels    []string `json:"channels"`
	TimeWindows []string `json:"timeWindows"`
	Language    string   `json:"language"`
}

// BuyerRequest is a buyer's published search criteria, open for agent pursuit.
// Numeric criteria are optional; nil means unbounded.
type BuyerRequest struct {
	ID                 string
	City               string
	PropertyType       string
	MinPrice           *int64
	MaxPrice           *int64
	MinBedrooms        *int
	MaxBedrooms        *int
	ContactPreferences ContactPreferences
	Status             BuyerRequestStatus
	MaskedContact      ContactInfo
	FullContact        ContactInfo
	CreatedAt          time.Time
	UpdatedAt          time.Time
}
