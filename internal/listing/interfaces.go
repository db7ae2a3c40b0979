package listing

import (
	"context"

	"github.com/pauljones0/rentacos/internal/models"
)

// ListingCreator persists a new listing and assigns its ID and CreatedAt.
type ListingCreator interface {
	CreateListing(ctx context.Context, l models.Listing) (*models.Listing, error)
}

// ImageStore uploads an object and returns its public URL.
type ImageStore interface {
	Put(ctx context.Context, path string, data []byte, contentType string) (string, error)
}

// Announcer publicises a newly published listing.
type Announcer interface {
	Announce(ctx context.Context, l models.Listing) (string, error)
}
