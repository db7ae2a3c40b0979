package api

import (
	"context"
	"net/http"

	"github.com/pauljones0/rentacos/internal/ai"
	"github.com/pauljones0/rentacos/internal/alerts"
	"github.com/pauljones0/rentacos/internal/browse"
	"github.com/pauljones0/rentacos/internal/identity"
	"github.com/pauljones0/rentacos/internal/models"
	"github.com/pauljones0/rentacos/internal/suggest"
)

type Authenticator interface {
	FromRequest(r *http.Request) (*identity.User, error)
}

type Browser interface {
	Render(ctx context.Context, req browse.Request) (*browse.View, error)
	AcknowledgeAlert(ctx context.Context, session, userID, id string) (*models.SavedSearch, error)
	ApplySavedSearch(ctx context.Context, session, userID, id string) (*models.SavedSearch, error)
	SaveSearch(ctx context.Context, userID string, criteria models.Criteria) (*models.SavedSearch, error)
}

type ListingReader interface {
	GetListing(ctx context.Context, id string) (*models.Listing, error)
}

type Publisher interface {
	Publish(ctx context.Context, userID string, draft models.ListingDraft) (*models.Listing, error)
}

type Suggester interface {
	Suggest(ctx context.Context, req suggest.Request) suggest.Suggestions
}

// Writer generates listing text.
type Writer interface {
	WriteDescription(ctx context.Context, in ai.DescriptionInput) ai.Result[string]
	AutoTags(ctx context.Context, text string) ai.Result[[]string]
}

type SavedSearches interface {
	List(ctx context.Context, userID string) ([]models.SavedSearch, error)
	Delete(ctx context.Context, userID, id string) error
	ComputeAlerts(ctx context.Context, userID string) ([]alerts.Alert, error)
}
