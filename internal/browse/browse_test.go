package browse

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/pauljones0/rentacos/internal/alerts"
	"github.com/pauljones0/rentacos/internal/models"
	"github.com/pauljones0/rentacos/internal/override"
)

type mockListings struct {
	rows    []models.Listing
	filters []models.ListingFilter
	err     error
}

func (m *mockListings) FindListings(_ context.Context, f models.ListingFilter) ([]models.Listing, error) {
	m.filters = append(m.filters, f)
	if m.err != nil {
		return nil, m.err
	}
	var out []models.Listing
	for _, l := range m.rows {
		if f.Limit > 0 && len(out) == f.Limit {
			break
		}
		out = append(out, l)
	}
	return out, nil
}

type mockAlerts struct {
	searches map[string]*models.SavedSearch
	alerts   []alerts.Alert
	err      error
	acked    []string
}

func (m *mockAlerts) ComputeAlerts(_ context.Context, userID string) ([]alerts.Alert, error) {
	if userID == "" {
		return nil, models.ErrSignInRequired
	}
	return m.alerts, m.err
}

func (m *mockAlerts) Acknowledge(ctx context.Context, userID, id string) (*models.SavedSearch, error) {
	s, err := m.Get(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	m.acked = append(m.acked, id)
	return s, nil
}

func (m *mockAlerts) Get(_ context.Context, userID, id string) (*models.SavedSearch, error) {
	if userID == "" {
		return nil, models.ErrSignInRequired
	}
	s, ok := m.searches[id]
	if !ok {
		return nil, models.ErrNotFound
	}
	if s.UserID != userID {
		return nil, models.ErrForbidden
	}
	return s, nil
}

func (m *mockAlerts) Save(_ context.Context, userID string, c models.Criteria) (*models.SavedSearch, error) {
	if userID == "" {
		return nil, models.ErrSignInRequired
	}
	return &models.SavedSearch{ID: "new", UserID: userID, Criteria: c}, nil
}

func strPtr(s string) *string { return &s }

func catalogListings() []models.Listing {
	base := time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)
	return []models.Listing{
		{ID: "1", Title: "Gojo set", Franchise: "Jujutsu Kaisen", Character: "Gojo Satoru", City: "Pune", Type: models.TypeRent, CreatedAt: base.Add(3 * time.Hour)},
		{ID: "2", Title: "Naruto jumpsuit", Franchise: "Naruto", Character: "Naruto Uzumaki", City: "Pune", Type: models.TypeRent, CreatedAt: base.Add(2 * time.Hour)},
		{ID: "3", Title: "Sukuna wig", Franchise: "Jujutsu Kaisen", Character: "Ryomen Sukuna", City: "Pune", Type: models.TypeSell, CreatedAt: base.Add(time.Hour)},
	}
}

func ids(ls []models.Listing) []string {
	out := make([]string, 0, len(ls))
	for _, l := range ls {
		out = append(out, l.ID)
	}
	return out
}

func TestRender_FiltersByText(t *testing.T) {
	finder := &mockListings{rows: catalogListings()}
	s := New(finder, &mockAlerts{}, override.NewStore(time.Minute), 0)

	view, err := s.Render(context.Background(), Request{Criteria: models.Criteria{Query: "jujutsu", City: strPtr("All")}})
	if err != nil {
		t.Fatalf("Render() error = %v", err)
	}
	if diff := cmp.Diff([]string{"1", "3"}, ids(view.Listings)); diff != "" {
		t.Errorf("Listings mismatch (-want +got):\n%s", diff)
	}
	f := finder.filters[0]
	if f.Status != models.StatusActive || f.City != nil {
		t.Errorf("Filter = %+v, want active with no city", f)
	}
	if view.Alerts != nil {
		t.Error("Anonymous render should not compute alerts")
	}
}

func TestRender_CapsResults(t *testing.T) {
	var rows []models.Listing
	for i := range 10 {
		rows = append(rows, models.Listing{ID: fmt.Sprint(i), Title: "Cape"})
	}
	finder := &mockListings{rows: rows}
	s := New(finder, &mockAlerts{}, override.NewStore(time.Minute), 3)

	view, err := s.Render(context.Background(), Request{Criteria: models.Criteria{Query: "cape"}})
	if err != nil {
		t.Fatalf("Render() error = %v", err)
	}
	if len(view.Listings) != 3 {
		t.Errorf("Expected 3 listings, got %d", len(view.Listings))
	}
	if finder.filters[0].Limit != 0 {
		t.Errorf("Text queries should scan without a store limit, limit = %d", finder.filters[0].Limit)
	}
}

func TestRender_NoQueryUsesStoreLimit(t *testing.T) {
	finder := &mockListings{rows: catalogListings()}
	s := New(finder, &mockAlerts{}, override.NewStore(time.Minute), 2)

	view, err := s.Render(context.Background(), Request{})
	if err != nil {
		t.Fatalf("Render() error = %v", err)
	}
	if finder.filters[0].Limit != 2 || len(view.Listings) != 2 {
		t.Errorf("Limit = %d, rendered %d; want 2 and 2", finder.filters[0].Limit, len(view.Listings))
	}
}

func TestRender_FindsOlderMatchesBehindManyNewerRows(t *testing.T) {
	base := time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)
	var rows []models.Listing
	for i := range 400 {
		rows = append(rows, models.Listing{
			ID:        fmt.Sprintf("naruto-%d", i),
			Title:     "Naruto jumpsuit",
			CreatedAt: base.Add(time.Duration(400-i) * time.Minute),
		})
	}
	rows = append(rows, models.Listing{ID: "gojo", Title: "Gojo blindfold", CreatedAt: base})
	s := New(&mockListings{rows: rows}, &mockAlerts{}, override.NewStore(time.Minute), 0)

	view, err := s.Render(context.Background(), Request{Criteria: models.Criteria{Query: "gojo"}})
	if err != nil {
		t.Fatalf("Render() error = %v", err)
	}
	if diff := cmp.Diff([]string{"gojo"}, ids(view.Listings)); diff != "" {
		t.Errorf("Listings mismatch (-want +got):\n%s", diff)
	}
}

func TestRender_ConsumesOverrideOnce(t *testing.T) {
	overrides := override.NewStore(time.Minute)
	overrides.Set("sess", "Naruto")
	s := New(&mockListings{rows: catalogListings()}, &mockAlerts{}, overrides, 0)

	first, err := s.Render(context.Background(), Request{Session: "sess", Criteria: models.Criteria{Query: "gojo"}})
	if err != nil {
		t.Fatalf("Render() error = %v", err)
	}
	if !first.AppliedOverride || first.Criteria.Query != "Naruto" {
		t.Errorf("First render should apply the override, got %+v", first.Criteria)
	}
	if diff := cmp.Diff([]string{"2"}, ids(first.Listings)); diff != "" {
		t.Errorf("Listings mismatch (-want +got):\n%s", diff)
	}

	second, _ := s.Render(context.Background(), Request{Session: "sess", Criteria: models.Criteria{Query: "gojo"}})
	if second.AppliedOverride || second.Criteria.Query != "gojo" {
		t.Errorf("Second render should use the request query, got %+v", second.Criteria)
	}
}

func TestRender_ReportsPartialAlertFailures(t *testing.T) {
	ma := &mockAlerts{
		alerts: []alerts.Alert{
			{Search: models.SavedSearch{ID: "ok"}, NewCount: 2},
			{Search: models.SavedSearch{ID: "bad"}, Err: errors.New("timeout")},
		},
		err: &alerts.PartialError{Failed: map[string]error{"bad": errors.New("timeout")}},
	}
	s := New(&mockListings{rows: catalogListings()}, ma, override.NewStore(time.Minute), 0)

	view, err := s.Render(context.Background(), Request{UserID: "user-1"})
	if err != nil {
		t.Fatalf("Render() error = %v", err)
	}
	if len(view.Alerts) != 2 {
		t.Errorf("Expected 2 alerts, got %d", len(view.Alerts))
	}
	if view.AlertErrors["bad"] != "timeout" {
		t.Errorf("AlertErrors = %v", view.AlertErrors)
	}
	if len(view.Listings) != 3 {
		t.Errorf("Listings should still render, got %d", len(view.Listings))
	}
}

func TestRender_AlertFailureDoesNotFailRender(t *testing.T) {
	ma := &mockAlerts{err: errors.New("store down")}
	s := New(&mockListings{rows: catalogListings()}, ma, override.NewStore(time.Minute), 0)

	view, err := s.Render(context.Background(), Request{UserID: "user-1"})
	if err != nil {
		t.Fatalf("Render() error = %v", err)
	}
	if view.Alerts != nil {
		t.Errorf("Alerts = %v, want none", view.Alerts)
	}
}

func TestRender_ListingFailure(t *testing.T) {
	s := New(&mockListings{err: errors.New("boom")}, &mockAlerts{}, override.NewStore(time.Minute), 0)
	if _, err := s.Render(context.Background(), Request{}); err == nil {
		t.Fatal("Expected listing query error")
	}
}

func TestAcknowledgeAlert_SetsOverride(t *testing.T) {
	overrides := override.NewStore(time.Minute)
	ma := &mockAlerts{searches: map[string]*models.SavedSearch{
		"s1": {ID: "s1", UserID: "user-1", Criteria: models.Criteria{Query: "Gojo"}},
		"s2": {ID: "s2", UserID: "user-1"},
	}}
	s := New(&mockListings{}, ma, overrides, 0)

	if _, err := s.AcknowledgeAlert(context.Background(), "sess", "user-1", "s1"); err != nil {
		t.Fatalf("AcknowledgeAlert() error = %v", err)
	}
	if got, ok := overrides.TakeAndClear("sess"); !ok || got != "Gojo" {
		t.Errorf("Override = %q, %v; want Gojo", got, ok)
	}

	if _, err := s.AcknowledgeAlert(context.Background(), "sess", "user-1", "s2"); err != nil {
		t.Fatalf("AcknowledgeAlert() error = %v", err)
	}
	if _, ok := overrides.TakeAndClear("sess"); ok {
		t.Error("Empty query must not set an override")
	}
	if diff := cmp.Diff([]string{"s1", "s2"}, ma.acked); diff != "" {
		t.Errorf("Acknowledged mismatch (-want +got):\n%s", diff)
	}
}

func TestAcknowledgeAlert_ErrorsLeaveOverrideAlone(t *testing.T) {
	overrides := override.NewStore(time.Minute)
	ma := &mockAlerts{searches: map[string]*models.SavedSearch{
		"s1": {ID: "s1", UserID: "someone-else", Criteria: models.Criteria{Query: "Gojo"}},
	}}
	s := New(&mockListings{}, ma, overrides, 0)

	if _, err := s.AcknowledgeAlert(context.Background(), "sess", "user-1", "s1"); !errors.Is(err, models.ErrForbidden) {
		t.Fatalf("Expected ErrForbidden, got %v", err)
	}
	if overrides.Len() != 0 {
		t.Error("Failed acknowledge must not set an override")
	}
}

func TestApplySavedSearch(t *testing.T) {
	overrides := override.NewStore(time.Minute)
	ma := &mockAlerts{searches: map[string]*models.SavedSearch{
		"s1": {ID: "s1", UserID: "user-1", Criteria: models.Criteria{Query: "Sukuna"}},
	}}
	s := New(&mockListings{}, ma, overrides, 0)

	if _, err := s.ApplySavedSearch(context.Background(), "sess", "user-1", "s1"); err != nil {
		t.Fatalf("ApplySavedSearch() error = %v", err)
	}
	if got, _ := overrides.TakeAndClear("sess"); got != "Sukuna" {
		t.Errorf("Override = %q, want Sukuna", got)
	}
	if len(ma.acked) != 0 {
		t.Error("Applying a saved search must not acknowledge it")
	}
	if _, err := s.ApplySavedSearch(context.Background(), "sess", "user-1", "missing"); !errors.Is(err, models.ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}
}

func TestSaveSearch_RequiresSignIn(t *testing.T) {
	s := New(&mockListings{}, &mockAlerts{}, override.NewStore(time.Minute), 0)
	if _, err := s.SaveSearch(context.Background(), "", models.Criteria{}); !errors.Is(err, models.ErrSignInRequired) {
		t.Errorf("Expected ErrSignInRequired, got %v", err)
	}
}
