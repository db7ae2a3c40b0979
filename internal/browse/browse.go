// Package browse assembles the listing browse view: pending search overrides,
// filtered listings and, for signed-in users, saved-search alerts.
package browse

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/pauljones0/rentacos/internal/alerts"
	"github.com/pauljones0/rentacos/internal/matcher"
	"github.com/pauljones0/rentacos/internal/models"
)

const DefaultLimit = 60

type Request struct {
	Session  string
	UserID   string
	Criteria models.Criteria
}

type View struct {
	Criteria        models.Criteria  `json:"criteria"`
	AppliedOverride bool             `json:"applied_override"`
	Listings        []models.Listing `json:"listings"`
	Alerts          []alerts.Alert   `json:"alerts,omitempty"`
	// AlertErrors maps saved-search IDs to the reason their alert could not be computed.
	AlertErrors map[string]string `json:"alert_errors,omitempty"`
}

type Service struct {
	listings  ListingFinder
	alerts    AlertService
	overrides Overrides
	limit     int
}

func New(listings ListingFinder, alerts AlertService, overrides Overrides, limit int) *Service {
	if limit <= 0 {
		limit = DefaultLimit
	}
	return &Service{listings: listings, alerts: alerts, overrides: overrides, limit: limit}
}

// Render builds the browse view for one request. A pending override for the
// session replaces the request's text query and is consumed.
func (s *Service) Render(ctx context.Context, req Request) (*View, error) {
	criteria := req.Criteria
	criteria.City = normalizeCity(criteria.City)

	view := &View{}
	if req.Session != "" {
		if text, ok := s.overrides.TakeAndClear(req.Session); ok {
			criteria.Query = text
			view.AppliedOverride = true
		}
	}
	view.Criteria = criteria

	listings, err := s.find(ctx, criteria)
	if err != nil {
		return nil, err
	}
	view.Listings = listings

	if req.UserID != "" {
		found, err := s.alerts.ComputeAlerts(ctx, req.UserID)
		var partial *alerts.PartialError
		switch {
		case err == nil:
		case errors.As(err, &partial):
			view.AlertErrors = make(map[string]string, len(partial.Failed))
			for id, ferr := range partial.Failed {
				view.AlertErrors[id] = ferr.Error()
			}
		default:
			// Alerts are an add-on; the listings still render.
			slog.Error("Failed to compute alerts", "user", req.UserID, "error", err)
			found = nil
		}
		view.Alerts = found
	}
	return view, nil
}

// find returns at most s.limit active listings, newest first. With a text
// query the store is scanned without a limit so older matches are not cut off
// before the text filter runs.
func (s *Service) find(ctx context.Context, c models.Criteria) ([]models.Listing, error) {
	limit := s.limit
	if c.Query != "" {
		limit = 0
	}
	rows, err := s.listings.FindListings(ctx, models.ListingFilter{
		Status: models.StatusActive,
		City:   c.City,
		Types:  c.Types,
		Limit:  limit,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to query listings: %w", err)
	}

	out := make([]models.Listing, 0, min(len(rows), s.limit))
	for _, l := range rows {
		if !matcher.MatchesText(matcher.FromListing(l), c.Query) {
			continue
		}
		out = append(out, l)
		if len(out) == s.limit {
			break
		}
	}
	return out, nil
}

// AcknowledgeAlert advances the search's watermark and queues its text query
// as the session's override for the next render.
func (s *Service) AcknowledgeAlert(ctx context.Context, session, userID, id string) (*models.SavedSearch, error) {
	search, err := s.alerts.Acknowledge(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	s.setOverride(session, search.Query)
	return search, nil
}

// ApplySavedSearch queues the search's text query for the next render without
// touching its watermark.
func (s *Service) ApplySavedSearch(ctx context.Context, session, userID, id string) (*models.SavedSearch, error) {
	search, err := s.alerts.Get(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	s.setOverride(session, search.Query)
	return search, nil
}

// SaveSearch stores the criteria as a saved search of userID.
func (s *Service) SaveSearch(ctx context.Context, userID string, criteria models.Criteria) (*models.SavedSearch, error) {
	return s.alerts.Save(ctx, userID, criteria)
}

func (s *Service) setOverride(session, query string) {
	if session == "" || query == "" {
		return
	}
	s.overrides.Set(session, query)
}

func normalizeCity(city *string) *string {
	if city == nil {
		return nil
	}
	return models.CityFilter(*city)
}
