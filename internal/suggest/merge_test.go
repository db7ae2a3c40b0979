package suggest

import (
	"fmt"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestMergeFranchiseGuesses(t *testing.T) {
	catalog := []string{"Naruto", "One Piece", "Bleach", "Jujutsu Kaisen"}

	tests := []struct {
		name    string
		guessed []string
		want    []string
	}{
		{
			name:    "Guesses first then remaining catalog",
			guessed: []string{"Jujutsu Kaisen", "Bleach"},
			want:    []string{"Jujutsu Kaisen", "Bleach", "Naruto", "One Piece"},
		},
		{
			name:    "No guesses keeps catalog order",
			guessed: nil,
			want:    catalog,
		},
		{
			name:    "Unknown guess is kept in front",
			guessed: []string{"Genshin Impact"},
			want:    []string{"Genshin Impact", "Naruto", "One Piece", "Bleach", "Jujutsu Kaisen"},
		},
		{
			name:    "Duplicate guesses collapse",
			guessed: []string{"Bleach", "Bleach"},
			want:    []string{"Bleach", "Naruto", "One Piece", "Jujutsu Kaisen"},
		},
		{
			name:    "Dedup is case-sensitive",
			guessed: []string{"naruto"},
			want:    []string{"naruto", "Naruto", "One Piece", "Bleach", "Jujutsu Kaisen"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := MergeFranchiseGuesses(tt.guessed, catalog)
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("MergeFranchiseGuesses() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestMergeFranchiseGuesses_Idempotent(t *testing.T) {
	catalog := []string{"Naruto", "One Piece", "Bleach"}
	once := MergeFranchiseGuesses([]string{"Bleach", "Dragon Ball"}, catalog)
	twice := MergeFranchiseGuesses(once, catalog)
	if diff := cmp.Diff(once, twice); diff != "" {
		t.Errorf("Re-merging changed the result (-once +twice):\n%s", diff)
	}
	if again := MergeFranchiseGuesses(once, nil); !cmp.Equal(once, again) {
		t.Errorf("Re-merging against an empty catalog changed the result: %v", again)
	}
}

func TestMergeCharacterGuesses(t *testing.T) {
	tests := []struct {
		name      string
		base      []string
		extracted []string
		want      []string
	}{
		{
			name:      "Extracted name lifts its catalog match",
			base:      []string{"Naruto Uzumaki", "Sasuke Uchiha"},
			extracted: []string{"sasuke"},
			want:      []string{"Sasuke Uchiha", "Naruto Uzumaki", "sasuke"},
		},
		{
			name:      "Ties keep catalog order",
			base:      []string{"Nami", "Sanji", "Roronoa Zoro", "Monkey D. Luffy"},
			extracted: []string{"Luffy", "Zoro"},
			want:      []string{"Roronoa Zoro", "Monkey D. Luffy", "Nami", "Sanji", "Luffy", "Zoro"},
		},
		{
			name:      "Catalog name inside extracted name",
			base:      []string{"Goku", "Vegeta"},
			extracted: []string{"Super Saiyan Vegeta"},
			want:      []string{"Vegeta", "Goku", "Super Saiyan Vegeta"},
		},
		{
			name:      "Unmatched extracted names appended in order",
			base:      []string{"Denji", "Power"},
			extracted: []string{"Makima", "Reze", "makima"},
			want:      []string{"Denji", "Power", "Makima", "Reze"},
		},
		{
			name:      "Exact extracted duplicate is not appended",
			base:      []string{"Denji", "Power"},
			extracted: []string{"POWER"},
			want:      []string{"Power", "Denji"},
		},
		{
			name:      "No catalog uses extracted names",
			base:      nil,
			extracted: []string{"Aloy", "", "  "},
			want:      []string{"Aloy"},
		},
		{
			name: "Nothing to merge",
			want: []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := MergeCharacterGuesses(tt.base, tt.extracted)
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("MergeCharacterGuesses() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestMergeCharacterGuesses_BoundedAndUnique(t *testing.T) {
	var base, extracted []string
	for i := 0; i < 8; i++ {
		base = append(base, fmt.Sprintf("Hero %d", i))
		extracted = append(extracted, fmt.Sprintf("Villain %d", i), fmt.Sprintf("HERO %d", i))
	}

	got := MergeCharacterGuesses(base, extracted)
	if len(got) > MaxCharacterSuggestions {
		t.Fatalf("len = %d, want at most %d", len(got), MaxCharacterSuggestions)
	}
	seen := make(map[string]bool)
	for _, n := range got {
		k := strings.ToLower(n)
		if seen[k] {
			t.Errorf("Duplicate name %q in %v", n, got)
		}
		seen[k] = true
	}
	if got[0] != "Hero 0" {
		t.Errorf("First = %q, want Hero 0", got[0])
	}
}
