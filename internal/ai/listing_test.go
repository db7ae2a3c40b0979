package ai

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

type fakeGenerator struct {
	answer   string
	err      error
	requests []request
}

func (f *fakeGenerator) generate(_ context.Context, req request) (string, error) {
	f.requests = append(f.requests, req)
	return f.answer, f.err
}

func newTestClient(answer string, err error) (*Client, *fakeGenerator) {
	gen := &fakeGenerator{answer: answer, err: err}
	return &Client{gen: gen, timeout: time.Second}, gen
}

func TestNilClientIsUnavailable(t *testing.T) {
	var c *Client
	ctx := context.Background()

	if r := c.WriteDescription(ctx, DescriptionInput{Title: "Wig"}); r.Status != StatusUnavailable || !r.Degraded() {
		t.Errorf("WriteDescription status = %v, want unavailable", r.Status)
	}
	if r := c.AutoTags(ctx, "wig"); r.Status != StatusUnavailable || r.Value != nil {
		t.Errorf("AutoTags = %+v, want unavailable and empty", r)
	}
	if r := c.Caption(ctx, []byte{1}, "image/png"); r.Status != StatusUnavailable {
		t.Errorf("Caption status = %v, want unavailable", r.Status)
	}
	if r := c.GuessFranchises(ctx, "wig", []string{"Naruto"}); r.Status != StatusUnavailable {
		t.Errorf("GuessFranchises status = %v, want unavailable", r.Status)
	}
	if r := c.ExtractPeople(ctx, "Gojo"); r.Status != StatusUnavailable {
		t.Errorf("ExtractPeople status = %v, want unavailable", r.Status)
	}
}

func TestNewClient_NoKey(t *testing.T) {
	c, err := NewClient(context.Background(), "", "gemini-2.5-flash")
	if err != nil {
		t.Fatalf("NewClient() error = %v", err)
	}
	if c != nil {
		t.Error("Expected nil client without an API key")
	}
}

func TestGuessFranchises_RanksAndFilters(t *testing.T) {
	answer := "```json\n" + `{"labels":[
		{"label":"Naruto","score":0.2},
		{"label":"Jujutsu Kaisen","score":0.9},
		{"label":"Not A Candidate","score":0.99},
		{"label":"Bleach","score":0.5},
		{"label":"One Piece","score":0.1},
		{"label":"Dragon Ball","score":0.3},
		{"label":"Demon Slayer","score":0.05}
	]}` + "\n```"
	c, gen := newTestClient(answer, nil)
	candidates := []string{"Naruto", "One Piece", "Bleach", "Jujutsu Kaisen", "Dragon Ball", "Demon Slayer"}

	r := c.GuessFranchises(context.Background(), "white hair blindfold", candidates)
	if r.Status != StatusOK {
		t.Fatalf("Status = %v, err = %v", r.Status, r.Err)
	}
	want := []string{"Jujutsu Kaisen", "Bleach", "Dragon Ball", "Naruto", "One Piece"}
	if diff := cmp.Diff(want, r.Value); diff != "" {
		t.Errorf("GuessFranchises mismatch (-want +got):\n%s", diff)
	}
	if gen.requests[0].Schema == nil {
		t.Error("Expected a response schema on classification requests")
	}
}

func TestAutoTags_Threshold(t *testing.T) {
	c, _ := newTestClient(`{"labels":[{"label":"wig","score":0.8},{"label":"prop","score":0.35},{"label":"anime","score":0.4}]}`, nil)

	r := c.AutoTags(context.Background(), "Gojo wig")
	if diff := cmp.Diff([]string{"wig", "anime"}, r.Value); diff != "" {
		t.Errorf("AutoTags mismatch (-want +got):\n%s", diff)
	}
}

func TestAutoTags_NothingAboveThresholdIsEmpty(t *testing.T) {
	c, _ := newTestClient(`{"labels":[{"label":"wig","score":0.1}]}`, nil)

	r := c.AutoTags(context.Background(), "Gojo wig")
	if r.Status != StatusEmpty || r.Degraded() {
		t.Errorf("Status = %v, want empty (not degraded)", r.Status)
	}
}

func TestClassify_Failures(t *testing.T) {
	tests := []struct {
		name   string
		answer string
		err    error
	}{
		{name: "transport error", err: errors.New("503")},
		{name: "malformed JSON", answer: "not json"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, _ := newTestClient(tt.answer, tt.err)
			r := c.GuessFranchises(context.Background(), "text", []string{"Naruto"})
			if r.Status != StatusFailed || r.Err == nil || r.Value != nil {
				t.Errorf("Result = %+v, want failed with error and no value", r)
			}
		})
	}
}

func TestClassify_EmptyTextSkipsCall(t *testing.T) {
	c, gen := newTestClient(`{"labels":[]}`, nil)
	r := c.GuessFranchises(context.Background(), "   ", []string{"Naruto"})
	if r.Status != StatusEmpty {
		t.Errorf("Status = %v, want empty", r.Status)
	}
	if len(gen.requests) != 0 {
		t.Errorf("Expected no model call, got %d", len(gen.requests))
	}
}

func TestExtractPeople(t *testing.T) {
	answer := `{"entities":[
		{"text":"Sasuke","group":"PER","score":0.95},
		{"text":"Konoha","group":"LOC","score":0.99},
		{"text":"Naruto","group":"PER","score":0.7},
		{"text":"Sasuke","group":"PER","score":0.91},
		{"text":"Itachi","group":"PER","score":0.85}
	]}`
	c, _ := newTestClient(answer, nil)

	r := c.ExtractPeople(context.Background(), "Sasuke cloak from Konoha, like Itachi")
	if diff := cmp.Diff([]string{"Sasuke", "Itachi"}, r.Value); diff != "" {
		t.Errorf("ExtractPeople mismatch (-want +got):\n%s", diff)
	}
}

func TestCaption(t *testing.T) {
	c, gen := newTestClient("  a person wearing a white wig and blindfold \n", nil)

	r := c.Caption(context.Background(), []byte{0xff, 0xd8}, "")
	if r.Value != "a person wearing a white wig and blindfold" {
		t.Errorf("Caption = %q", r.Value)
	}
	if gen.requests[0].ImageMIME != "image/jpeg" {
		t.Errorf("ImageMIME = %q, want image/jpeg default", gen.requests[0].ImageMIME)
	}
}

func TestWriteDescription(t *testing.T) {
	c, gen := newTestClient("Handmade Akatsuki cloak, fits M-L.", nil)

	r := c.WriteDescription(context.Background(), DescriptionInput{Title: "Akatsuki cloak", Franchise: "Naruto", Character: "Itachi Uchiha", Type: "rent", Handmade: true})
	if r.Status != StatusOK || r.Value != "Handmade Akatsuki cloak, fits M-L." {
		t.Errorf("WriteDescription = %+v", r)
	}
	if !strings.Contains(gen.requests[0].Prompt, "Itachi Uchiha") {
		t.Error("Prompt should include the character")
	}
	if gen.requests[0].Schema != nil {
		t.Error("Description requests should be free text")
	}
}

func TestStatusString(t *testing.T) {
	if StatusFailed.String() != "failed" || StatusOK.String() != "ok" {
		t.Errorf("unexpected Status strings: %s %s", StatusFailed, StatusOK)
	}
}
