package models

import (
	"strings"
	"time"
)

// AllCitiesLabel is the browse form's catch-all city choice.
const AllCitiesLabel = "All"

// Criteria is a set of listing filters. A nil City means all cities and an
// empty Types set means all types.
type Criteria struct {
	City  *string       `firestore:"city" json:"city"`
	Types []ListingType `firestore:"ltypes" json:"types" validate:"dive,oneof=rent sell commission"`
	Query string        `firestore:"query" json:"query"`
}

// CityFilter turns a form value into an optional city. Blank input and the
// "All" choice both mean no city filter.
func CityFilter(v string) *string {
	v = strings.TrimSpace(v)
	if v == "" || v == AllCitiesLabel {
		return nil
	}
	return &v
}

// Normalize returns a copy with a canonical city and a non-empty type set.
func (c Criteria) Normalize() Criteria {
	out := Criteria{Query: strings.TrimSpace(c.Query)}
	if c.City != nil {
		out.City = CityFilter(*c.City)
	}
	if len(c.Types) == 0 {
		out.Types = append([]ListingType(nil), AllListingTypes...)
	} else {
		seen := make(map[ListingType]bool, len(c.Types))
		for _, t := range c.Types {
			if !seen[t] {
				seen[t] = true
				out.Types = append(out.Types, t)
			}
		}
	}
	return out
}

// SavedSearch is a persisted criteria set with an alert watermark. A zero
// LastSeen means the search has never been acknowledged.
type SavedSearch struct {
	Criteria
	ID        string    `firestore:"-" json:"id"`
	UserID    string    `firestore:"user_id" json:"user_id" validate:"required"`
	LastSeen  time.Time `firestore:"last_seen" json:"last_seen"`
	CreatedAt time.Time `firestore:"created_at" json:"created_at"`
}

// SavedSearchDraft is the input for creating a saved search.
type SavedSearchDraft struct {
	UserID   string
	Criteria Criteria
}

// SuggestionContext is the ephemeral text used to guess franchise and character
// for a listing draft.
type SuggestionContext struct {
	Description string
	Caption     string
}

// Text joins the description and caption the way the suggestion models expect.
func (s SuggestionContext) Text() string {
	if s.Caption == "" {
		return s.Description
	}
	return s.Description + "\n" + s.Caption
}
