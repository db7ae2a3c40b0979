package matcher

import (
	"testing"

	"github.com/pauljones0/rentacos/internal/models"
)

func city(s string) *string { return &s }

func TestMatches(t *testing.T) {
	criteria := models.Criteria{
		City:  city("Pune"),
		Types: []models.ListingType{models.TypeRent},
		Query: "gojo",
	}

	tests := []struct {
		name     string
		subject  Subject
		criteria models.Criteria
		want     bool
	}{
		{
			name:     "Pune rental matches",
			subject:  Subject{City: "Pune", Type: models.TypeRent, Title: "Gojo blindfold"},
			criteria: criteria,
			want:     true,
		},
		{
			name:     "City mismatch",
			subject:  Subject{City: "Mumbai", Type: models.TypeRent, Title: "Gojo blindfold"},
			criteria: criteria,
			want:     false,
		},
		{
			name:     "City compared case-sensitively",
			subject:  Subject{City: "pune", Type: models.TypeRent, Title: "Gojo blindfold"},
			criteria: criteria,
			want:     false,
		},
		{
			name:     "Type mismatch",
			subject:  Subject{City: "Pune", Type: models.TypeSell, Title: "Gojo blindfold"},
			criteria: criteria,
			want:     false,
		},
		{
			name:     "Query found in character",
			subject:  Subject{City: "Pune", Type: models.TypeRent, Title: "White wig", Character: "Satoru GOJO"},
			criteria: criteria,
			want:     true,
		},
		{
			name:     "Query absent",
			subject:  Subject{City: "Pune", Type: models.TypeRent, Title: "Sukuna robe", Franchise: "Jujutsu Kaisen"},
			criteria: criteria,
			want:     false,
		},
		{
			name:     "Empty types means all types",
			subject:  Subject{Type: models.TypeCommission, Title: "Anything"},
			criteria: models.Criteria{},
			want:     true,
		},
		{
			name:     "Empty city string means all cities",
			subject:  Subject{City: "Delhi", Type: models.TypeSell},
			criteria: models.Criteria{City: city("")},
			want:     true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Matches(tt.subject, tt.criteria); got != tt.want {
				t.Errorf("Matches() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestMatches_OpenCriteriaMatchesEverything(t *testing.T) {
	open := models.Criteria{Types: models.AllListingTypes}
	subjects := []Subject{
		{},
		{Type: models.TypeRent, City: "Pune", Title: "Gojo blindfold"},
		{Type: models.TypeSell, City: "Remote", Franchise: "Naruto"},
		{Type: models.TypeCommission, Character: "Nezuko Kamado"},
	}
	for _, s := range subjects {
		if !Matches(s, open) {
			t.Errorf("Matches(%+v) = false with open criteria", s)
		}
	}
}

func TestMatchesText_FieldContainment(t *testing.T) {
	subject := Subject{Title: "Akatsuki Cloak", Franchise: "Naruto", Character: "Itachi Uchiha"}

	tests := []struct {
		query string
		want  bool
	}{
		{"cloak", true},
		{"NARUTO", true},
		{"uchiha", true},
		{"itachi", true},
		{"sasuke", false},
		{"bleach", false},
		{"", true},
	}

	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			if got := MatchesText(subject, tt.query); got != tt.want {
				t.Errorf("MatchesText(%q) = %v, want %v", tt.query, got, tt.want)
			}
		})
	}
}

func TestFromListing(t *testing.T) {
	l := models.Listing{
		ID:        "abc",
		Type:      models.TypeSell,
		City:      "Chennai",
		Title:     "Zoro swords",
		Franchise: "One Piece",
		Character: "Roronoa Zoro",
		Price:     1200,
	}
	s := FromListing(l)
	if s.Type != l.Type || s.City != l.City || s.Title != l.Title || s.Franchise != l.Franchise || s.Character != l.Character {
		t.Errorf("FromListing() = %+v, fields not copied from %+v", s, l)
	}
}
