package api

import (
	"net/http"
	"strings"

	"github.com/pauljones0/rentacos/internal/ai"
	"github.com/pauljones0/rentacos/internal/alerts"
	"github.com/pauljones0/rentacos/internal/browse"
	"github.com/pauljones0/rentacos/internal/identity"
	"github.com/pauljones0/rentacos/internal/models"
	"github.com/pauljones0/rentacos/internal/override"
	"github.com/pauljones0/rentacos/internal/suggest"
)

// criteriaFromQuery reads ?city=&type=&q=. type may repeat or be comma separated.
func criteriaFromQuery(r *http.Request) models.Criteria {
	q := r.URL.Query()
	c := models.Criteria{
		City:  models.CityFilter(q.Get("city")),
		Query: strings.TrimSpace(q.Get("q")),
	}
	for _, v := range q["type"] {
		for _, t := range strings.Split(v, ",") {
			if t = strings.TrimSpace(t); t != "" {
				c.Types = append(c.Types, models.ListingType(t))
			}
		}
	}
	return c
}

func (s *Server) handleBrowse(w http.ResponseWriter, r *http.Request) {
	criteria := criteriaFromQuery(r)
	for _, t := range criteria.Types {
		if !t.Valid() {
			writeError(w, r, &models.ValidationError{Invalid: []string{"Type"}})
			return
		}
	}

	view, err := s.browse.Render(r.Context(), browse.Request{
		Session:  override.SessionFrom(r.Context()),
		UserID:   identity.UserID(r.Context()),
		Criteria: criteria,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func (s *Server) handleGetListing(w http.ResponseWriter, r *http.Request) {
	l, err := s.listings.GetListing(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, l)
}

type imagePayload struct {
	Data        []byte `json:"data"`
	ContentType string `json:"content_type"`
}

type publishRequest struct {
	Type          models.ListingType `json:"type"`
	Title         string             `json:"title"`
	Price         *int               `json:"price"`
	PriceUnit     models.PriceUnit   `json:"price_unit"`
	City          string             `json:"city"`
	Description   string             `json:"description"`
	Franchise     string             `json:"franchise"`
	Character     string             `json:"character"`
	Tags          []string           `json:"tags"`
	Images        []imagePayload     `json:"images"`
	AgreedToTerms bool               `json:"agreed_to_terms"`
}

func (p publishRequest) draft() models.ListingDraft {
	d := models.ListingDraft{
		Type:          p.Type,
		Title:         p.Title,
		Price:         p.Price,
		PriceUnit:     p.PriceUnit,
		City:          p.City,
		Description:   p.Description,
		Franchise:     p.Franchise,
		Character:     p.Character,
		Tags:          p.Tags,
		AgreedToTerms: p.AgreedToTerms,
	}
	for _, img := range p.Images {
		d.Images = append(d.Images, models.ListingImage{Data: img.Data, ContentType: img.ContentType})
	}
	return d
}

func (s *Server) handlePublish(w http.ResponseWriter, r *http.Request) {
	userID := identity.UserID(r.Context())
	if userID == "" {
		writeError(w, r, models.ErrSignInRequired)
		return
	}
	var req publishRequest
	if !decodeBody(w, r, &req) {
		return
	}
	listing, err := s.publish.Publish(r.Context(), userID, req.draft())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, listing)
}

type suggestRequest struct {
	Description string `json:"description"`
	Image       []byte `json:"image"`
	ImageMIME   string `json:"image_mime"`
	Franchise   string `json:"franchise"`
}

func (s *Server) handleSuggest(w http.ResponseWriter, r *http.Request) {
	var req suggestRequest
	if !decodeBody(w, r, &req) {
		return
	}
	out := s.suggest.Suggest(r.Context(), suggest.Request{
		Description: req.Description,
		Image:       req.Image,
		ImageMIME:   req.ImageMIME,
		Franchise:   req.Franchise,
	})
	writeJSON(w, http.StatusOK, out)
}

type descriptionRequest struct {
	Title     string `json:"title"`
	Franchise string `json:"franchise"`
	Character string `json:"character"`
	Type      string `json:"type"`
	Handmade  bool   `json:"handmade"`
}

type textResponse struct {
	Description string   `json:"description,omitempty"`
	Tags        []string `json:"tags,omitempty"`
	Status      string   `json:"status"`
}

func (s *Server) handleDescription(w http.ResponseWriter, r *http.Request) {
	var req descriptionRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.Title) == "" {
		writeError(w, r, &models.ValidationError{Missing: []string{"Title"}})
		return
	}
	res := s.writer.WriteDescription(r.Context(), ai.DescriptionInput(req))
	writeJSON(w, statusFor(res.Status), textResponse{Description: res.Value, Status: res.Status.String()})
}

type tagsRequest struct {
	Text string `json:"text"`
}

func (s *Server) handleTags(w http.ResponseWriter, r *http.Request) {
	var req tagsRequest
	if !decodeBody(w, r, &req) {
		return
	}
	res := s.writer.AutoTags(r.Context(), req.Text)
	writeJSON(w, statusFor(res.Status), textResponse{Tags: res.Value, Status: res.Status.String()})
}

// statusFor reports upstream failures as 502 so clients can tell them from
// an empty answer.
func statusFor(st ai.Status) int {
	switch st {
	case ai.StatusFailed:
		return http.StatusBadGateway
	case ai.StatusUnavailable:
		return http.StatusServiceUnavailable
	}
	return http.StatusOK
}

func (s *Server) handleListSearches(w http.ResponseWriter, r *http.Request) {
	searches, err := s.searches.List(r.Context(), identity.UserID(r.Context()))
	if err != nil {
		writeError(w, r, err)
		return
	}
	if searches == nil {
		searches = []models.SavedSearch{}
	}
	writeJSON(w, http.StatusOK, searches)
}

func (s *Server) handleSaveSearch(w http.ResponseWriter, r *http.Request) {
	userID := identity.UserID(r.Context())
	if userID == "" {
		writeError(w, r, models.ErrSignInRequired)
		return
	}
	var criteria models.Criteria
	if !decodeBody(w, r, &criteria) {
		return
	}
	search, err := s.browse.SaveSearch(r.Context(), userID, criteria)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, search)
}

func (s *Server) handleDeleteSearch(w http.ResponseWriter, r *http.Request) {
	if err := s.searches.Delete(r.Context(), identity.UserID(r.Context()), r.PathValue("id")); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleApplySearch(w http.ResponseWriter, r *http.Request) {
	search, err := s.browse.ApplySavedSearch(r.Context(), override.SessionFrom(r.Context()), identity.UserID(r.Context()), r.PathValue("id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, search)
}

type alertResponse struct {
	Search   models.SavedSearch `json:"search"`
	NewCount int                `json:"new_count"`
	Error    string             `json:"error,omitempty"`
}

func (s *Server) handleAlerts(w http.ResponseWriter, r *http.Request) {
	found, err := s.searches.ComputeAlerts(r.Context(), identity.UserID(r.Context()))
	if err != nil && found == nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, alertResponses(found))
}

func alertResponses(in []alerts.Alert) []alertResponse {
	out := make([]alertResponse, 0, len(in))
	for _, a := range in {
		resp := alertResponse{Search: a.Search, NewCount: a.NewCount}
		if a.Err != nil {
			resp.Error = a.Err.Error()
		}
		out = append(out, resp)
	}
	return out
}

func (s *Server) handleAcknowledge(w http.ResponseWriter, r *http.Request) {
	search, err := s.browse.AcknowledgeAlert(r.Context(), override.SessionFrom(r.Context()), identity.UserID(r.Context()), r.PathValue("id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, search)
}
