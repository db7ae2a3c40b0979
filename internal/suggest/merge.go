package suggest

import (
	"slices"
	"strings"
)

// MaxCharacterSuggestions caps the merged character list.
const MaxCharacterSuggestions = 10

// MergeFranchiseGuesses puts the externally ranked guesses first, in their
// given order, followed by every catalog entry not already listed. Entries are
// compared exactly.
func MergeFranchiseGuesses(guessed, catalog []string) []string {
	out := make([]string, 0, len(guessed)+len(catalog))
	seen := make(map[string]bool, len(guessed)+len(catalog))
	for _, list := range [][]string{guessed, catalog} {
		for _, f := range list {
			if seen[f] {
				continue
			}
			seen[f] = true
			out = append(out, f)
		}
	}
	return out
}

type scoredName struct {
	name   string
	weight float64
}

// MergeCharacterGuesses ranks the catalog names for a franchise against the
// names extracted from the listing text. A catalog name related to any
// extracted name by case-insensitive substring, in either direction, weighs
// 2.0 and otherwise 1.0; equal weights keep catalog order. Extracted names not
// already present are appended in extraction order and the result is cut to
// MaxCharacterSuggestions.
func MergeCharacterGuesses(base, extracted []string) []string {
	lowered := make([]string, 0, len(extracted))
	for _, n := range extracted {
		if n = strings.TrimSpace(n); n != "" {
			lowered = append(lowered, strings.ToLower(n))
		}
	}

	ranked := make([]scoredName, 0, len(base))
	for _, name := range base {
		ranked = append(ranked, scoredName{name: name, weight: characterWeight(name, lowered)})
	}
	slices.SortStableFunc(ranked, func(a, b scoredName) int {
		switch {
		case a.weight > b.weight:
			return -1
		case a.weight < b.weight:
			return 1
		}
		return 0
	})

	out := make([]string, 0, len(ranked)+len(extracted))
	present := make(map[string]bool, len(ranked)+len(extracted))
	for _, r := range ranked {
		key := strings.ToLower(r.name)
		if present[key] {
			continue
		}
		present[key] = true
		out = append(out, r.name)
	}
	for _, n := range extracted {
		n = strings.TrimSpace(n)
		key := strings.ToLower(n)
		if n == "" || present[key] {
			continue
		}
		present[key] = true
		out = append(out, n)
	}

	if len(out) > MaxCharacterSuggestions {
		out = out[:MaxCharacterSuggestions]
	}
	return out
}

func characterWeight(name string, extracted []string) float64 {
	lname := strings.ToLower(name)
	for _, e := range extracted {
		if strings.Contains(lname, e) || strings.Contains(e, lname) {
			return 2.0
		}
	}
	return 1.0
}
