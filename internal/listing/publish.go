// Package listing publishes marketplace listings.
package listing

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/pauljones0/rentacos/internal/blob"
	"github.com/pauljones0/rentacos/internal/models"
	"github.com/pauljones0/rentacos/internal/util"
)

const (
	uploadRetries = 2
	imageMIME     = "image/jpeg"
)

// Field names reported in a *models.ValidationError, in display order.
const (
	FieldTitle       = "Title"
	FieldType        = "Type"
	FieldPrice       = "Price"
	FieldCity        = "City"
	FieldDescription = "Description"
	FieldAgreement   = "Agreement"
	FieldImages      = "Images"
)

type Service struct {
	store     ListingCreator
	images    ImageStore
	announcer Announcer
	newID     func() string
	retries   int
	backoff   time.Duration
}

// New builds a publish service. images and announcer may be nil: a nil image
// store rejects drafts with images and a nil announcer skips announcements.
func New(store ListingCreator, images ImageStore, announcer Announcer) *Service {
	return &Service{
		store:     store,
		images:    images,
		announcer: announcer,
		newID:     uuid.NewString,
		retries:   uploadRetries,
		backoff:   util.DefaultBackoff,
	}
}

// Publish validates the draft, uploads its images and inserts an active listing.
func (s *Service) Publish(ctx context.Context, userID string, draft models.ListingDraft) (*models.Listing, error) {
	if userID == "" {
		return nil, models.ErrSignInRequired
	}
	if err := Validate(draft); err != nil {
		return nil, err
	}

	images, err := s.prepareImages(draft.Images)
	if err != nil {
		return nil, err
	}
	urls, err := s.upload(ctx, userID, images)
	if err != nil {
		return nil, err
	}

	unit := draft.PriceUnit
	if unit == "" {
		unit = models.DefaultPriceUnit(draft.Type)
	}

	l := models.Listing{
		OwnerID:     userID,
		Type:        draft.Type,
		Title:       strings.TrimSpace(draft.Title),
		Price:       *draft.Price,
		PriceUnit:   unit,
		City:        strings.TrimSpace(draft.City),
		Description: strings.TrimSpace(draft.Description),
		Franchise:   strings.TrimSpace(draft.Franchise),
		Character:   strings.TrimSpace(draft.Character),
		Tags:        cleanTags(draft.Tags),
		Images:      urls,
		Quantity:    1,
		Status:      models.StatusActive,
	}

	created, err := s.store.CreateListing(ctx, l)
	if err != nil {
		return nil, fmt.Errorf("failed to create listing: %w", err)
	}
	slog.Info("Listing published", "id", created.ID, "owner", userID, "type", created.Type, "images", len(urls))

	if s.announcer != nil {
		if _, err := s.announcer.Announce(ctx, *created); err != nil {
			slog.Warn("Failed to announce listing", "id", created.ID, "error", err)
		}
	}
	return created, nil
}

// Validate reports every missing or invalid field of draft.
func Validate(d models.ListingDraft) error {
	verr := &models.ValidationError{}
	missing := func(blank bool, field string) {
		if blank {
			verr.Missing = append(verr.Missing, field)
		}
	}
	missing(strings.TrimSpace(d.Title) == "", FieldTitle)
	missing(d.Type == "", FieldType)
	missing(d.Price == nil, FieldPrice)
	missing(strings.TrimSpace(d.City) == "", FieldCity)
	missing(strings.TrimSpace(d.Description) == "", FieldDescription)
	missing(!d.AgreedToTerms, FieldAgreement)

	if d.Type != "" && !d.Type.Valid() {
		verr.Invalid = append(verr.Invalid, FieldType)
	}
	if d.Price != nil && *d.Price < 0 {
		verr.Invalid = append(verr.Invalid, FieldPrice)
	}
	if d.PriceUnit != "" && d.PriceUnit != models.PriceFixed && d.PriceUnit != models.PricePerDay {
		verr.Invalid = append(verr.Invalid, "PriceUnit")
	}
	if len(d.Images) > models.MaxListingImages {
		verr.Invalid = append(verr.Invalid, FieldImages)
	}

	if verr.Empty() {
		return nil
	}
	return verr
}

// prepareImages re-encodes every image as JPEG before anything is uploaded so
// an undecodable image aborts the publish with no side effects.
func (s *Service) prepareImages(in []models.ListingImage) ([][]byte, error) {
	if len(in) == 0 {
		return nil, nil
	}
	if s.images == nil {
		return nil, fmt.Errorf("image uploads are not configured")
	}
	out := make([][]byte, 0, len(in))
	for i, img := range in {
		data, err := blob.NormalizeJPEG(img.Data)
		if err != nil {
			slog.Warn("Rejected listing image", "index", i, "content_type", img.ContentType, "error", err)
			return nil, &models.ValidationError{Invalid: []string{FieldImages}}
		}
		out = append(out, data)
	}
	return out, nil
}

func (s *Service) upload(ctx context.Context, owner string, images [][]byte) ([]string, error) {
	urls := make([]string, 0, len(images))
	for _, data := range images {
		path := owner + "/" + s.newID() + ".jpg"
		var url string
		err := util.Retry(ctx, s.retries, s.backoff, func(attempt int) error {
			var err error
			url, err = s.images.Put(ctx, path, data, imageMIME)
			if err != nil {
				slog.Warn("Image upload failed", "path", path, "attempt", attempt+1, "error", err)
			}
			return err
		})
		if err != nil {
			return nil, fmt.Errorf("failed to upload image %s: %w", path, err)
		}
		urls = append(urls, url)
	}
	return urls, nil
}

func cleanTags(tags []string) []string {
	seen := make(map[string]bool, len(tags))
	out := make([]string, 0, len(tags))
	for _, t := range tags {
		t = strings.TrimSpace(t)
		key := strings.ToLower(t)
		if t == "" || seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, t)
	}
	return out
}
