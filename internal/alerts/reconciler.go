// Package alerts tracks saved searches and counts the listings that are new
// since each search was last acknowledged.
package alerts

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/pauljones0/rentacos/internal/matcher"
	"github.com/pauljones0/rentacos/internal/models"
)

// Alert is the reconciliation result for one saved search.
type Alert struct {
	Search   models.SavedSearch `json:"search"`
	NewCount int                `json:"new_count"`
	Err      error              `json:"-"`
}

// PartialError is returned by ComputeAlerts when some searches could not be
// reconciled. The alerts for the remaining searches are still valid.
type PartialError struct {
	Failed map[string]error
}

func (e *PartialError) Error() string {
	ids := make([]string, 0, len(e.Failed))
	for id := range e.Failed {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	parts := make([]string, 0, len(ids))
	for _, id := range ids {
		parts = append(parts, fmt.Sprintf("%s: %v", id, e.Failed[id]))
	}
	return fmt.Sprintf("%d saved searches failed to reconcile: %s", len(ids), strings.Join(parts, "; "))
}

type Option func(*Reconciler)

// WithClock replaces the wall clock used for acknowledgements.
func WithClock(c Clock) Option {
	return func(r *Reconciler) { r.clock = c }
}

// WithConcurrency bounds how many saved searches are reconciled at once.
func WithConcurrency(n int) Option {
	return func(r *Reconciler) {
		if n > 0 {
			r.concurrency = n
		}
	}
}

type Reconciler struct {
	listings    ListingFinder
	searches    SavedSearchStore
	clock       Clock
	concurrency int
}

func New(listings ListingFinder, searches SavedSearchStore, opts ...Option) *Reconciler {
	r := &Reconciler{
		listings:    listings,
		searches:    searches,
		clock:       systemClock{},
		concurrency: 4,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// List returns the user's saved searches, newest first with ties broken by ID.
// Malformed stored searches are logged and left out.
func (r *Reconciler) List(ctx context.Context, userID string) ([]models.SavedSearch, error) {
	searches, skipped, err := r.list(ctx, userID)
	if err != nil {
		return nil, err
	}
	for _, d := range skipped {
		slog.Warn("Skipping malformed saved search", "id", d.ID, "user", userID, "error", d.Err)
	}
	return searches, nil
}

func (r *Reconciler) list(ctx context.Context, userID string) ([]models.SavedSearch, []*models.DecodeError, error) {
	if userID == "" {
		return nil, nil, models.ErrSignInRequired
	}
	searches, err := r.searches.ListSavedSearches(ctx, userID)
	var skipped *models.SkippedRecordsError
	if err != nil && !errors.As(err, &skipped) {
		return nil, nil, fmt.Errorf("failed to list saved searches: %w", err)
	}
	sortSearches(searches)
	if skipped != nil {
		return searches, skipped.Skipped, nil
	}
	return searches, nil, nil
}

// Save stores a new saved search. Empty type sets default to all types.
func (r *Reconciler) Save(ctx context.Context, userID string, criteria models.Criteria) (*models.SavedSearch, error) {
	if userID == "" {
		return nil, models.ErrSignInRequired
	}
	for _, t := range criteria.Types {
		if !t.Valid() {
			return nil, &models.ValidationError{Invalid: []string{"Type"}}
		}
	}
	search, err := r.searches.CreateSavedSearch(ctx, models.SavedSearchDraft{
		UserID:   userID,
		Criteria: criteria.Normalize(),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to save search: %w", err)
	}
	slog.Info("Saved search created", "id", search.ID, "user", userID)
	return search, nil
}

// ComputeAlerts counts, for every saved search of userID, the active listings
// created at or after the search's watermark that match its criteria. A
// failure on one search is reported on its Alert and in a *PartialError; it
// never stops the others.
func (r *Reconciler) ComputeAlerts(ctx context.Context, userID string) ([]Alert, error) {
	searches, skipped, err := r.list(ctx, userID)
	if err != nil {
		return nil, err
	}

	alerts := make([]Alert, len(searches), len(searches)+len(skipped))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.concurrency)
	for i, search := range searches {
		g.Go(func() error {
			count, err := r.countNew(gctx, search)
			alerts[i] = Alert{Search: search, NewCount: count, Err: err}
			return nil
		})
	}
	_ = g.Wait()

	// Searches that could not be decoded still get an alert entry carrying the error.
	for _, d := range skipped {
		alerts = append(alerts, Alert{Search: models.SavedSearch{ID: d.ID, UserID: userID}, Err: d})
	}

	failed := make(map[string]error)
	for _, a := range alerts {
		if a.Err != nil {
			slog.Warn("Failed to reconcile saved search", "id", a.Search.ID, "error", a.Err)
			failed[a.Search.ID] = a.Err
		}
	}
	if len(failed) > 0 {
		return alerts, &PartialError{Failed: failed}
	}
	return alerts, nil
}

func (r *Reconciler) countNew(ctx context.Context, search models.SavedSearch) (int, error) {
	criteria := search.Criteria.Normalize()
	listings, err := r.listings.FindListings(ctx, models.ListingFilter{
		Status:       models.StatusActive,
		City:         criteria.City,
		Types:        criteria.Types,
		CreatedAtGte: search.LastSeen,
	})
	if err != nil {
		return 0, fmt.Errorf("failed to query listings: %w", err)
	}

	count := 0
	for _, l := range listings {
		if l.CreatedAt.Before(search.LastSeen) {
			continue
		}
		if matcher.Matches(matcher.FromListing(l), criteria) {
			count++
		}
	}
	return count, nil
}

// Acknowledge advances the watermark of a saved search to the current time and
// returns the updated search. The watermark never moves backwards.
func (r *Reconciler) Acknowledge(ctx context.Context, userID, id string) (*models.SavedSearch, error) {
	search, err := r.owned(ctx, userID, id)
	if err != nil {
		return nil, err
	}

	now := r.clock.Now()
	if now.After(search.LastSeen) {
		if err := r.searches.UpdateLastSeen(ctx, id, now); err != nil {
			return nil, fmt.Errorf("failed to update last seen for %s: %w", id, err)
		}
		search.LastSeen = now
	}
	slog.Info("Saved search acknowledged", "id", id, "lastSeen", search.LastSeen)
	return search, nil
}

// Get returns a saved search owned by userID.
func (r *Reconciler) Get(ctx context.Context, userID, id string) (*models.SavedSearch, error) {
	return r.owned(ctx, userID, id)
}

// Delete permanently removes a saved search owned by userID.
func (r *Reconciler) Delete(ctx context.Context, userID, id string) error {
	if _, err := r.owned(ctx, userID, id); err != nil {
		return err
	}
	if err := r.searches.DeleteSavedSearch(ctx, id); err != nil {
		return fmt.Errorf("failed to delete saved search %s: %w", id, err)
	}
	slog.Info("Saved search deleted", "id", id, "user", userID)
	return nil
}

func (r *Reconciler) owned(ctx context.Context, userID, id string) (*models.SavedSearch, error) {
	if userID == "" {
		return nil, models.ErrSignInRequired
	}
	search, err := r.searches.GetSavedSearch(ctx, id)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to get saved search %s: %w", id, err)
	}
	if search == nil {
		return nil, models.ErrNotFound
	}
	if search.UserID != userID {
		return nil, models.ErrForbidden
	}
	return search, nil
}

func sortSearches(searches []models.SavedSearch) {
	slices.SortStableFunc(searches, func(a, b models.SavedSearch) int {
		if c := b.CreatedAt.Compare(a.CreatedAt); c != 0 {
			return c
		}
		return cmp.Compare(a.ID, b.ID)
	})
}
