package alerts

import (
	"context"
	"time"

	"github.com/pauljones0/rentacos/internal/models"
)

// ListingFinder abstracts the listing query side of the store.
type ListingFinder interface {
	FindListings(ctx context.Context, filter models.ListingFilter) ([]models.Listing, error)
}

// SavedSearchStore abstracts the saved search persistence layer.
type SavedSearchStore interface {
	ListSavedSearches(ctx context.Context, userID string) ([]models.SavedSearch, error)
	GetSavedSearch(ctx context.Context, id string) (*models.SavedSearch, error)
	CreateSavedSearch(ctx context.Context, draft models.SavedSearchDraft) (*models.SavedSearch, error)
	UpdateLastSeen(ctx context.Context, id string, lastSeen time.Time) error
	DeleteSavedSearch(ctx context.Context, id string) error
}

// Clock supplies the acknowledgement time.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now().UTC() }
