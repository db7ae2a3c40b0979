package storage

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/pauljones0/rentacos/internal/models"
	"github.com/pauljones0/rentacos/internal/validator"
)

const (
	listingsCollection      = "listings"
	savedSearchesCollection = "saved_searches"
)

type Client struct {
	client   *firestore.Client
	validate *validator.Validator
	now      func() time.Time
}

func New(ctx context.Context, projectID string) (*Client, error) {
	client, err := firestore.NewClient(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("firestore.NewClient: %w", err)
	}
	return &Client{client: client, validate: validator.New(), now: utcNow}, nil
}

func (c *Client) Close() error {
	return c.client.Close()
}

// FindListings returns listings matching f, newest first.
func (c *Client) FindListings(ctx context.Context, f models.ListingFilter) ([]models.Listing, error) {
	q := c.client.Collection(listingsCollection).Query
	if f.Status != "" {
		q = q.Where("status", "==", f.Status)
	}
	if f.City != nil {
		q = q.Where("city", "==", *f.City)
	}
	if len(f.Types) > 0 {
		q = q.Where("ltype", "in", typeStrings(f.Types))
	}
	if !f.CreatedAtGte.IsZero() {
		q = q.Where("created_at", ">=", f.CreatedAtGte)
	}
	q = q.OrderBy("created_at", firestore.Desc)
	if f.Limit > 0 {
		q = q.Limit(f.Limit)
	}

	iter := q.Documents(ctx)
	defer iter.Stop()

	var listings []models.Listing
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to iterate listings: %w", err)
		}
		l, err := c.decodeListing(doc)
		if err != nil {
			slog.Warn("Skipping malformed listing", "id", doc.Ref.ID, "error", err)
			continue
		}
		listings = append(listings, *l)
	}
	return listings, nil
}

// GetListing retrieves a listing by its document ID.
func (c *Client) GetListing(ctx context.Context, id string) (*models.Listing, error) {
	doc, err := c.client.Collection(listingsCollection).Doc(id).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, models.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get listing by ID %s: %w", id, err)
	}
	return c.decodeListing(doc)
}

// CreateListing stores l under a new document ID and sets its creation time.
func (c *Client) CreateListing(ctx context.Context, l models.Listing) (*models.Listing, error) {
	docRef := c.client.Collection(listingsCollection).NewDoc()
	l.ID = docRef.ID
	l.CreatedAt = c.now()
	if err := c.validate.Fields(l); err != nil {
		return nil, err
	}

	// Create fails if the document already exists.
	if _, err := docRef.Create(ctx, l); err != nil {
		if status.Code(err) == codes.AlreadyExists {
			return nil, models.ErrListingExists
		}
		return nil, fmt.Errorf("failed to create listing: %w", err)
	}
	return &l, nil
}

// ListSavedSearches returns the saved searches of userID, newest first.
// Malformed documents are left out and reported in a *models.SkippedRecordsError
// returned with the searches that did decode.
func (c *Client) ListSavedSearches(ctx context.Context, userID string) ([]models.SavedSearch, error) {
	iter := c.client.Collection(savedSearchesCollection).
		Where("user_id", "==", userID).
		OrderBy("created_at", firestore.Desc).
		Documents(ctx)
	defer iter.Stop()

	var (
		searches []models.SavedSearch
		skipped  []*models.DecodeError
	)
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to iterate saved searches: %w", err)
		}
		s, err := c.decodeSavedSearch(doc)
		var derr *models.DecodeError
		if errors.As(err, &derr) {
			skipped = append(skipped, derr)
			continue
		}
		if err != nil {
			return nil, err
		}
		searches = append(searches, *s)
	}
	if len(skipped) > 0 {
		return searches, &models.SkippedRecordsError{Skipped: skipped}
	}
	return searches, nil
}

// GetSavedSearch retrieves a saved search by its document ID.
func (c *Client) GetSavedSearch(ctx context.Context, id string) (*models.SavedSearch, error) {
	doc, err := c.client.Collection(savedSearchesCollection).Doc(id).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, models.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get saved search by ID %s: %w", id, err)
	}
	return c.decodeSavedSearch(doc)
}

// CreateSavedSearch stores a new saved search with an unset watermark.
func (c *Client) CreateSavedSearch(ctx context.Context, d models.SavedSearchDraft) (*models.SavedSearch, error) {
	docRef := c.client.Collection(savedSearchesCollection).NewDoc()
	s := models.SavedSearch{
		ID:        docRef.ID,
		UserID:    d.UserID,
		Criteria:  d.Criteria.Normalize(),
		CreatedAt: c.now(),
	}
	if err := c.validate.Fields(s); err != nil {
		return nil, err
	}
	if _, err := docRef.Create(ctx, s); err != nil {
		return nil, fmt.Errorf("failed to create saved search: %w", err)
	}
	return &s, nil
}

// UpdateLastSeen sets the alert watermark of a saved search.
func (c *Client) UpdateLastSeen(ctx context.Context, id string, lastSeen time.Time) error {
	_, err := c.client.Collection(savedSearchesCollection).Doc(id).Update(ctx, []firestore.Update{
		{Path: "last_seen", Value: lastSeen},
	})
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return models.ErrNotFound
		}
		return fmt.Errorf("failed to update last seen for %s: %w", id, err)
	}
	return nil
}

// DeleteSavedSearch removes a saved search permanently.
func (c *Client) DeleteSavedSearch(ctx context.Context, id string) error {
	if _, err := c.client.Collection(savedSearchesCollection).Doc(id).Delete(ctx); err != nil {
		return fmt.Errorf("failed to delete saved search %s: %w", id, err)
	}
	return nil
}

func (c *Client) decodeListing(doc *firestore.DocumentSnapshot) (*models.Listing, error) {
	if !doc.Exists() {
		return nil, models.ErrNotFound
	}
	var l models.Listing
	if err := doc.DataTo(&l); err != nil {
		return nil, &models.DecodeError{Collection: listingsCollection, ID: doc.Ref.ID, Err: err}
	}
	l.ID = doc.Ref.ID
	if err := c.validate.Fields(l); err != nil {
		return nil, &models.DecodeError{Collection: listingsCollection, ID: doc.Ref.ID, Err: err}
	}
	return &l, nil
}

func (c *Client) decodeSavedSearch(doc *firestore.DocumentSnapshot) (*models.SavedSearch, error) {
	if !doc.Exists() {
		return nil, models.ErrNotFound
	}
	var s models.SavedSearch
	if err := doc.DataTo(&s); err != nil {
		return nil, &models.DecodeError{Collection: savedSearchesCollection, ID: doc.Ref.ID, Err: err}
	}
	s.ID = doc.Ref.ID
	if err := c.validate.Fields(s); err != nil {
		return nil, &models.DecodeError{Collection: savedSearchesCollection, ID: doc.Ref.ID, Err: err}
	}
	return &s, nil
}

func typeStrings(types []models.ListingType) []string {
	out := make([]string, len(types))
	for i, t := range types {
		out[i] = string(t)
	}
	return out
}

func utcNow() time.Time {
	return time.Now().UTC()
}
