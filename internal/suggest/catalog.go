package suggest

import (
	"embed"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"slices"
)

//go:embed catalog.json
var embeddedCatalog embed.FS

// DefaultFranchise is preselected when nothing was guessed.
const DefaultFranchise = "Naruto"

// FallbackCharacters are offered when a franchise has no catalog entry and
// nothing could be extracted.
var FallbackCharacters = []string{"Naruto Uzumaki", "Sasuke Uchiha"}

// Catalog is the fixed list of known franchises, their popular characters and
// the cities offered by the browse form.
type Catalog struct {
	Franchises []string            `json:"franchises"`
	Characters map[string][]string `json:"characters"`
	Cities     []string            `json:"cities"`
}

// CharactersFor returns the catalog characters of franchise.
func (c Catalog) CharactersFor(franchise string) []string {
	return c.Characters[franchise]
}

// HasFranchise reports whether franchise is in the catalog.
func (c Catalog) HasFranchise(franchise string) bool {
	return slices.Contains(c.Franchises, franchise)
}

// LoadCatalog tries the following sources in order:
// 1. External file at path, when path is set
// 2. Embedded catalog.json
// 3. Hardcoded defaults
func LoadCatalog(path string) Catalog {
	if path != "" {
		if c, err := LoadCatalogFile(path); err == nil {
			slog.Info("Loaded catalog from external file", "path", path)
			return c
		} else {
			slog.Warn("Failed to load external catalog, falling back to embedded", "path", path, "error", err)
		}
	}

	data, err := embeddedCatalog.ReadFile("catalog.json")
	if err == nil {
		c, parseErr := LoadCatalogFromBytes(data)
		if parseErr == nil {
			return c
		}
		slog.Warn("Embedded catalog failed to parse. Using defaults.", "error", parseErr)
	}

	return DefaultCatalog()
}

// LoadCatalogFile loads a catalog from a JSON file.
func LoadCatalogFile(path string) (Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Catalog{}, fmt.Errorf("failed to read catalog file: %w", err)
	}
	return LoadCatalogFromBytes(data)
}

// LoadCatalogFromBytes parses a catalog from raw JSON bytes.
func LoadCatalogFromBytes(data []byte) (Catalog, error) {
	var c Catalog
	if err := json.Unmarshal(data, &c); err != nil {
		return Catalog{}, fmt.Errorf("failed to parse catalog JSON: %w", err)
	}
	if len(c.Franchises) == 0 {
		return Catalog{}, fmt.Errorf("catalog has no franchises")
	}
	return c, nil
}

// DefaultCatalog is the minimal catalog used when no JSON could be loaded.
func DefaultCatalog() Catalog {
	return Catalog{
		Franchises: []string{"Naruto", "One Piece", "Attack on Titan", "My Hero Academia", "Demon Slayer", "Dragon Ball", "Bleach", "Jujutsu Kaisen"},
		Characters: map[string][]string{
			"Naruto":         {"Naruto Uzumaki", "Sasuke Uchiha", "Sakura Haruno", "Kakashi Hatake", "Itachi Uchiha"},
			"One Piece":      {"Monkey D. Luffy", "Roronoa Zoro", "Nami", "Sanji"},
			"Demon Slayer":   {"Tanjiro Kamado", "Nezuko Kamado", "Zenitsu Agatsuma"},
			"Jujutsu Kaisen": {"Satoru Gojo", "Yuji Itadori", "Megumi Fushiguro"},
		},
		Cities: []string{"Bengaluru", "Mumbai", "Delhi", "Hyderabad", "Pune", "Kolkata", "Chennai", "Remote"},
	}
}
