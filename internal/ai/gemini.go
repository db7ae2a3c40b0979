// Package ai wraps the hosted Gemini model used for listing text generation,
// image captioning, tagging and franchise/character extraction. Every call is
// best effort: a missing key or a failed request yields an empty Result, never
// an error the caller has to handle.
package ai

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"google.golang.org/genai"
)

const defaultCallTimeout = 60 * time.Second

// request is one prompt sent to the model.
type request struct {
	Prompt      string
	Image       []byte
	ImageMIME   string
	Schema      *genai.Schema
	Temperature float32
}

// generator performs a single model call and returns the text of the answer.
type generator interface {
	generate(ctx context.Context, req request) (string, error)
}

type geminiGenerator struct {
	client *genai.Client
	model  string
}

func (g *geminiGenerator) generate(ctx context.Context, req request) (string, error) {
	parts := []*genai.Part{genai.NewPartFromText(req.Prompt)}
	if len(req.Image) > 0 {
		parts = append(parts, genai.NewPartFromBytes(req.Image, req.ImageMIME))
	}

	cfg := &genai.GenerateContentConfig{
		Temperature: genai.Ptr(req.Temperature),
	}
	if req.Schema != nil {
		cfg.ResponseMIMEType = "application/json"
		cfg.ResponseSchema = req.Schema
	}

	resp, err := g.client.Models.GenerateContent(ctx, g.model, []*genai.Content{genai.NewContentFromParts(parts, genai.RoleUser)}, cfg)
	if err != nil {
		return "", fmt.Errorf("gemini generation failed: %w", err)
	}
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return "", fmt.Errorf("no response candidates from gemini")
	}
	return resp.Text(), nil
}

type Client struct {
	gen     generator
	timeout time.Duration
}

// NewClient returns a nil client when apiKey is empty; a nil *Client is valid
// and reports every call as StatusUnavailable.
func NewClient(ctx context.Context, apiKey, modelID string) (*Client, error) {
	if apiKey == "" {
		return nil, nil
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create gemini client: %w", err)
	}

	return &Client{
		gen:     &geminiGenerator{client: client, model: modelID},
		timeout: defaultCallTimeout,
	}, nil
}

func (c *Client) available() bool {
	return c != nil && c.gen != nil
}

func (c *Client) call(ctx context.Context, op string, req request) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	text, err := c.gen.generate(ctx, req)
	if err != nil {
		slog.Warn("Inference call failed", "op", op, "error", err)
		return "", err
	}
	return text, nil
}

// decodeJSON parses a structured model answer, tolerating markdown fences.
func decodeJSON(raw string, v any) error {
	s := strings.TrimSpace(raw)
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	if err := json.Unmarshal([]byte(strings.TrimSpace(s)), v); err != nil {
		return fmt.Errorf("failed to parse gemini response: %w", err)
	}
	return nil
}
