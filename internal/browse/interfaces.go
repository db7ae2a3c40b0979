package browse

import (
	"context"

	"github.com/pauljones0/rentacos/internal/alerts"
	"github.com/pauljones0/rentacos/internal/models"
)

type ListingFinder interface {
	FindListings(ctx context.Context, f models.ListingFilter) ([]models.Listing, error)
}

// AlertService is the part of the alert reconciler the browse view drives.
type AlertService interface {
	ComputeAlerts(ctx context.Context, userID string) ([]alerts.Alert, error)
	Acknowledge(ctx context.Context, userID, id string) (*models.SavedSearch, error)
	Get(ctx context.Context, userID, id string) (*models.SavedSearch, error)
	Save(ctx context.Context, userID string, criteria models.Criteria) (*models.SavedSearch, error)
}

// Overrides carries a one-shot replacement text query between requests of a session.
type Overrides interface {
	Set(session, text string)
	TakeAndClear(session string) (string, bool)
}
