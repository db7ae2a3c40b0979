// Package api exposes the marketplace over JSON HTTP.
package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/pauljones0/rentacos/internal/models"
)

// maxBodyBytes bounds request bodies; five base64 images fit comfortably.
const maxBodyBytes = 40 << 20

const signInPrompt = "Sign in to save searches and receive alerts."

type Server struct {
	auth     Authenticator
	browse   Browser
	listings ListingReader
	publish  Publisher
	suggest  Suggester
	writer   Writer
	searches SavedSearches
}

type Deps struct {
	Auth     Authenticator
	Browse   Browser
	Listings ListingReader
	Publish  Publisher
	Suggest  Suggester
	Writer   Writer
	Searches SavedSearches
}

func New(d Deps) *Server {
	return &Server{
		auth:     d.Auth,
		browse:   d.Browse,
		listings: d.Listings,
		publish:  d.Publish,
		suggest:  d.Suggest,
		writer:   d.Writer,
		searches: d.Searches,
	}
}

// Handler returns the routed handler with authentication and panic recovery applied.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		fmt.Fprintln(w, `{"status":"ok"}`)
	})

	mux.HandleFunc("GET /listings", s.handleBrowse)
	mux.HandleFunc("GET /listings/{id}", s.handleGetListing)
	mux.HandleFunc("POST /listings", s.handlePublish)
	mux.HandleFunc("POST /suggestions", s.handleSuggest)
	mux.HandleFunc("POST /ai/description", s.handleDescription)
	mux.HandleFunc("POST /ai/tags", s.handleTags)

	mux.HandleFunc("GET /saved-searches", s.handleListSearches)
	mux.HandleFunc("POST /saved-searches", s.handleSaveSearch)
	mux.HandleFunc("DELETE /saved-searches/{id}", s.handleDeleteSearch)
	mux.HandleFunc("POST /saved-searches/{id}/apply", s.handleApplySearch)

	mux.HandleFunc("GET /alerts", s.handleAlerts)
	mux.HandleFunc("POST /alerts/{id}/ack", s.handleAcknowledge)

	return recoverer(s.authenticate(mux))
}

type errorResponse struct {
	Error   string   `json:"error"`
	Missing []string `json:"missing,omitempty"`
	Invalid []string `json:"invalid,omitempty"`
	SignIn  string   `json:"sign_in,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Warn("Failed to encode response", "error", err)
	}
}

// writeError maps domain errors onto HTTP statuses.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	var verr *models.ValidationError
	switch {
	case errors.As(err, &verr):
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "validation failed", Missing: verr.Missing, Invalid: verr.Invalid})
	case errors.Is(err, models.ErrSignInRequired):
		writeJSON(w, http.StatusUnauthorized, errorResponse{Error: err.Error(), SignIn: signInPrompt})
	case errors.Is(err, models.ErrForbidden):
		writeJSON(w, http.StatusForbidden, errorResponse{Error: err.Error()})
	case errors.Is(err, models.ErrNotFound):
		writeJSON(w, http.StatusNotFound, errorResponse{Error: err.Error()})
	case errors.Is(err, models.ErrListingExists):
		writeJSON(w, http.StatusConflict, errorResponse{Error: err.Error()})
	default:
		slog.Error("Request failed", "method", r.Method, "path", r.URL.Path, "error", err)
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "internal error"})
	}
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body: " + err.Error()})
		return false
	}
	return true
}
