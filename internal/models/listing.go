package models

import "time"

type ListingType string

const (
	TypeRent       ListingType = "rent"
	TypeSell       ListingType = "sell"
	TypeCommission ListingType = "commission"
)

// AllListingTypes is the full type set in display order.
var AllListingTypes = []ListingType{TypeRent, TypeSell, TypeCommission}

func (t ListingType) Valid() bool {
	switch t {
	case TypeRent, TypeSell, TypeCommission:
		return true
	}
	return false
}

type PriceUnit string

const (
	PriceFixed  PriceUnit = "fixed"
	PricePerDay PriceUnit = "day"
)

// DefaultPriceUnit is per day for rentals and fixed otherwise.
func DefaultPriceUnit(t ListingType) PriceUnit {
	if t == TypeRent {
		return PricePerDay
	}
	return PriceFixed
}

const StatusActive = "active"

// MaxListingImages caps the images attached to one listing.
const MaxListingImages = 5

// Listing represents a published marketplace listing.
type Listing struct {
	ID          string      `firestore:"-" json:"id"`
	OwnerID     string      `firestore:"owner" json:"owner" validate:"required"`
	Type        ListingType `firestore:"ltype" json:"type" validate:"required,oneof=rent sell commission"`
	Title       string      `firestore:"title" json:"title" validate:"required"`
	Price       int         `firestore:"price" json:"price" validate:"gte=0"`
	PriceUnit   PriceUnit   `firestore:"price_unit" json:"price_unit" validate:"omitempty,oneof=fixed day"`
	City        string      `firestore:"city" json:"city"`
	Description string      `firestore:"description" json:"description"`
	Franchise   string      `firestore:"franchise" json:"franchise"`
	Character   string      `firestore:"character" json:"character"`
	Tags        []string    `firestore:"tags" json:"tags"`
	Images      []string    `firestore:"images" json:"images" validate:"max=5,dive,url"`
	Quantity    int         `firestore:"quantity" json:"quantity"`
	Status      string      `firestore:"status" json:"status"`
	CreatedAt   time.Time   `firestore:"created_at" json:"created_at" validate:"required"`
}

// ListingImage is an uploaded image payload attached to a draft.
type ListingImage struct {
	Data        []byte
	ContentType string
}

// ListingDraft is the publish input before validation and upload.
type ListingDraft struct {
	Type          ListingType
	Title         string
	Price         *int
	PriceUnit     PriceUnit
	City          string
	Description   string
	Franchise     string
	Character     string
	Tags          []string
	Images        []ListingImage
	AgreedToTerms bool
}

// ListingFilter is the store-side query for listings, ordered by CreatedAt descending.
type ListingFilter struct {
	Status       string
	City         *string
	Types        []ListingType
	CreatedAtGte time.Time
	Limit        int
}
