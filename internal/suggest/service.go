// Package suggest proposes a franchise and character for a listing draft by
// merging model guesses with the fixed catalog.
package suggest

import (
	"context"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/pauljones0/rentacos/internal/ai"
	"github.com/pauljones0/rentacos/internal/models"
)

// Inference is the part of the model client the suggester needs.
type Inference interface {
	Caption(ctx context.Context, image []byte, mimeType string) ai.Result[string]
	GuessFranchises(ctx context.Context, text string, candidates []string) ai.Result[[]string]
	ExtractPeople(ctx context.Context, text string) ai.Result[[]string]
}

// Suggestions are the options offered on the listing form.
type Suggestions struct {
	Caption          string   `json:"caption,omitempty"`
	Franchises       []string `json:"franchises"`
	DefaultFranchise string   `json:"default_franchise"`
	Characters       []string `json:"characters"`
	// Degraded is set when a model call failed or inference is off, so an
	// empty guess list is not mistaken for "nothing recognised".
	Degraded bool `json:"degraded"`
}

// Request is the suggestion input for one draft. Franchise, when set, is the
// user's choice and selects the character catalog; otherwise the top guess is used.
type Request struct {
	Description string
	Image       []byte
	ImageMIME   string
	Franchise   string
}

type Service struct {
	inference Inference
	catalog   Catalog
}

func NewService(inference Inference, catalog Catalog) *Service {
	return &Service{inference: inference, catalog: catalog}
}

func (s *Service) Catalog() Catalog {
	return s.catalog
}

// Suggest captions the first image, then guesses franchises and extracts
// person names from the description plus caption.
func (s *Service) Suggest(ctx context.Context, req Request) Suggestions {
	var out Suggestions
	sc := models.SuggestionContext{Description: req.Description}

	if len(req.Image) > 0 {
		caption := s.inference.Caption(ctx, req.Image, req.ImageMIME)
		out.Degraded = out.Degraded || caption.Degraded()
		sc.Caption = caption.Value
		out.Caption = caption.Value
	}

	text := sc.Text()
	var guesses, people ai.Result[[]string]
	if text != "" {
		g, gctx := errgroup.WithContext(ctx)
		g.Go(func() error {
			guesses = s.inference.GuessFranchises(gctx, text, s.catalog.Franchises)
			return nil
		})
		g.Go(func() error {
			people = s.inference.ExtractPeople(gctx, text)
			return nil
		})
		_ = g.Wait()
		out.Degraded = out.Degraded || guesses.Degraded() || people.Degraded()
	}

	out.Franchises = MergeFranchiseGuesses(guesses.Value, s.catalog.Franchises)
	out.DefaultFranchise = s.defaultFranchise(guesses.Value, out.Franchises)

	franchise := req.Franchise
	if franchise == "" {
		franchise = out.DefaultFranchise
	}
	out.Characters = s.characters(franchise, people.Value)

	if out.Degraded {
		slog.Warn("Suggestions degraded", "guesses", guesses.Status, "people", people.Status)
	}
	return out
}

func (s *Service) defaultFranchise(guessed, options []string) string {
	if len(guessed) > 0 {
		return guessed[0]
	}
	if s.catalog.HasFranchise(DefaultFranchise) {
		return DefaultFranchise
	}
	if len(options) > 0 {
		return options[0]
	}
	return ""
}

func (s *Service) characters(franchise string, extracted []string) []string {
	if franchise == "" {
		return nil
	}
	base := s.catalog.CharactersFor(franchise)
	merged := MergeCharacterGuesses(base, extracted)
	if len(merged) > 0 {
		return merged
	}
	if len(base) > 0 {
		return base
	}
	return append([]string(nil), FallbackCharacters...)
}
