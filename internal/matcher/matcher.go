// Package matcher decides whether a listing satisfies a set of search criteria.
package matcher

import (
	"slices"
	"strings"

	"github.com/pauljones0/rentacos/internal/models"
)

// Subject is the part of a listing the matcher looks at. The alert path only
// loads these fields, so nothing else may be required here.
type Subject struct {
	Type      models.ListingType
	City      string
	Title     string
	Franchise string
	Character string
}

// FromListing projects a listing onto the fields used for matching.
func FromListing(l models.Listing) Subject {
	return Subject{
		Type:      l.Type,
		City:      l.City,
		Title:     l.Title,
		Franchise: l.Franchise,
		Character: l.Character,
	}
}

// Matches reports whether s passes the type, city and text filters of c.
func Matches(s Subject, c models.Criteria) bool {
	return MatchesType(s, c.Types) && MatchesCity(s, c.City) && MatchesText(s, c.Query)
}

// MatchesType treats an empty type set as all types.
func MatchesType(s Subject, types []models.ListingType) bool {
	return len(types) == 0 || slices.Contains(types, s.Type)
}

// MatchesCity compares cities exactly, as the store does.
func MatchesCity(s Subject, city *string) bool {
	if city == nil || *city == "" {
		return true
	}
	return s.City == *city
}

// MatchesText is a case-insensitive substring test of query against the
// title, franchise and character joined by single spaces.
func MatchesText(s Subject, query string) bool {
	if query == "" {
		return true
	}
	return strings.Contains(strings.ToLower(haystack(s)), strings.ToLower(query))
}

func haystack(s Subject) string {
	return strings.Join([]string{s.Title, s.Franchise, s.Character}, " ")
}
