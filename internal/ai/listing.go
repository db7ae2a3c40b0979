package ai

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"strings"

	"google.golang.org/genai"
)

const (
	tagScoreThreshold      = 0.35
	maxTags                = 12
	maxFranchiseGuesses    = 5
	personScoreThreshold   = 0.80
	descriptionTemperature = 0.7
	classifierTemperature  = 0.0
)

// TagLabels is the fixed label set used for automatic tagging.
var TagLabels = []string{
	"anime", "manga", "cosplay", "prop", "weapon", "costume", "figure", "collectible", "handmade", "official",
	"wig", "accessory", "Naruto", "One Piece", "Attack on Titan", "My Hero Academia", "Demon Slayer", "Dragon Ball", "Bleach",
}

var labelScoresSchema = &genai.Schema{
	Type: genai.TypeObject,
	Properties: map[string]*genai.Schema{
		"labels": {
			Type: genai.TypeArray,
			Items: &genai.Schema{
				Type: genai.TypeObject,
				Properties: map[string]*genai.Schema{
					"label": {Type: genai.TypeString, Description: "One of the candidate labels, copied exactly."},
					"score": {Type: genai.TypeNumber, Description: "Confidence between 0 and 1."},
				},
				Required: []string{"label", "score"},
			},
		},
	},
	Required: []string{"labels"},
}

var entitiesSchema = &genai.Schema{
	Type: genai.TypeObject,
	Properties: map[string]*genai.Schema{
		"entities": {
			Type: genai.TypeArray,
			Items: &genai.Schema{
				Type: genai.TypeObject,
				Properties: map[string]*genai.Schema{
					"text":  {Type: genai.TypeString, Description: "The entity exactly as written in the text."},
					"group": {Type: genai.TypeString, Description: "PER, ORG, LOC or MISC."},
					"score": {Type: genai.TypeNumber, Description: "Confidence between 0 and 1."},
				},
				Required: []string{"text", "group", "score"},
			},
		},
	},
	Required: []string{"entities"},
}

type labelScore struct {
	Label string  `json:"label"`
	Score float64 `json:"score"`
}

type labelScores struct {
	Labels []labelScore `json:"labels"`
}

type entity struct {
	Text  string  `json:"text"`
	Group string  `json:"group"`
	Score float64 `json:"score"`
}

type entities struct {
	Entities []entity `json:"entities"`
}

// DescriptionInput is what the description writer knows about a draft.
type DescriptionInput struct {
	Title     string
	Franchise string
	Character string
	Type      string
	Handmade  bool
}

// WriteDescription drafts an 80-120 word marketplace description.
func (c *Client) WriteDescription(ctx context.Context, in DescriptionInput) Result[string] {
	if !c.available() {
		return unavailable[string]()
	}

	prompt := fmt.Sprintf(`Write an 80-120 word marketplace listing for a cosplay item.
Title: %s
Franchise: %s
Character: %s
Type: %s. Handmade: %t. Include fit, sizing, materials, condition, who it suits.
Answer with the listing text only.`, in.Title, in.Franchise, in.Character, in.Type, in.Handmade)

	text, err := c.call(ctx, "description", request{Prompt: prompt, Temperature: descriptionTemperature})
	if err != nil {
		return failed[string](err)
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return emptyResult[string]()
	}
	return okResult(text)
}

// AutoTags labels text with the TagLabels that score above the tag threshold,
// highest first.
func (c *Client) AutoTags(ctx context.Context, text string) Result[[]string] {
	return c.classify(ctx, "tags", text, TagLabels, tagScoreThreshold, maxTags)
}

// GuessFranchises ranks the candidate franchises for text and returns the
// best few, highest confidence first.
func (c *Client) GuessFranchises(ctx context.Context, text string, candidates []string) Result[[]string] {
	return c.classify(ctx, "franchise", text, candidates, 0, maxFranchiseGuesses)
}

func (c *Client) classify(ctx context.Context, op, text string, candidates []string, threshold float64, limit int) Result[[]string] {
	if !c.available() {
		return unavailable[[]string]()
	}
	if strings.TrimSpace(text) == "" || len(candidates) == 0 {
		return emptyResult[[]string]()
	}

	prompt := fmt.Sprintf(`Zero-shot classification.
Text: %q
Candidate labels: %s

Score every candidate label between 0 and 1 for how well it describes the text.
Output JSON adhering to the schema.`, text, strings.Join(candidates, ", "))

	raw, err := c.call(ctx, op, request{Prompt: prompt, Schema: labelScoresSchema, Temperature: classifierTemperature})
	if err != nil {
		return failed[[]string](err)
	}
	var out labelScores
	if err := decodeJSON(raw, &out); err != nil {
		return failed[[]string](err)
	}

	labels := rankLabels(out.Labels, candidates, threshold, limit)
	if len(labels) == 0 {
		return emptyResult[[]string]()
	}
	return okResult(labels)
}

// rankLabels keeps known candidates scoring above threshold, sorted by score
// descending, de-duplicated and capped at limit.
func rankLabels(scores []labelScore, candidates []string, threshold float64, limit int) []string {
	kept := make([]labelScore, 0, len(scores))
	for _, s := range scores {
		if s.Score > threshold && slices.Contains(candidates, s.Label) {
			kept = append(kept, s)
		}
	}
	slices.SortStableFunc(kept, func(a, b labelScore) int {
		return cmp.Compare(b.Score, a.Score)
	})

	var labels []string
	for _, s := range kept {
		if slices.Contains(labels, s.Label) {
			continue
		}
		labels = append(labels, s.Label)
		if len(labels) == limit {
			break
		}
	}
	return labels
}

// Caption describes an image in one short sentence.
func (c *Client) Caption(ctx context.Context, image []byte, mimeType string) Result[string] {
	if !c.available() {
		return unavailable[string]()
	}
	if len(image) == 0 {
		return emptyResult[string]()
	}
	if mimeType == "" {
		mimeType = "image/jpeg"
	}

	text, err := c.call(ctx, "caption", request{
		Prompt:      "Caption this photo of a cosplay item in one short sentence. Name the character or franchise if recognisable.",
		Image:       image,
		ImageMIME:   mimeType,
		Temperature: classifierTemperature,
	})
	if err != nil {
		return failed[string](err)
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return emptyResult[string]()
	}
	return okResult(text)
}

// ExtractPeople returns the person names found in text with high confidence,
// in order of appearance and without duplicates.
func (c *Client) ExtractPeople(ctx context.Context, text string) Result[[]string] {
	if !c.available() {
		return unavailable[[]string]()
	}
	if strings.TrimSpace(text) == "" {
		return emptyResult[[]string]()
	}

	prompt := fmt.Sprintf(`Named-entity recognition.
Text: %q

List every named entity in order of appearance with its group (PER, ORG, LOC, MISC) and a confidence between 0 and 1.
Output JSON adhering to the schema.`, text)

	raw, err := c.call(ctx, "ner", request{Prompt: prompt, Schema: entitiesSchema, Temperature: classifierTemperature})
	if err != nil {
		return failed[[]string](err)
	}
	var out entities
	if err := decodeJSON(raw, &out); err != nil {
		return failed[[]string](err)
	}

	names := people(out.Entities)
	if len(names) == 0 {
		return emptyResult[[]string]()
	}
	return okResult(names)
}

func people(ents []entity) []string {
	var names []string
	seen := make(map[string]bool)
	for _, e := range ents {
		name := strings.TrimSpace(e.Text)
		if e.Group != "PER" || e.Score <= personScoreThreshold || name == "" || seen[name] {
			continue
		}
		seen[name] = true
		names = append(names, name)
	}
	return names
}
