package directory

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

type fakeSource struct {
	characters []Character
	err        error
}

func (f fakeSource) ListCharacters(context.Context) ([]Character, error) {
	return f.characters, f.err
}

func TestResolve(t *testing.T) {
	dir := New(fakeSource{characters: []Character{
		{ID: "c3", Name: "Ekaterina Volkova"},
		{ID: "c1", Name: "Mira"},
		{ID: "c2", Name: "Helix Corp"},
		{ID: "c4", Name: "Miranda"},
		{ID: "c5", Name: "Σίσυφος"},
	}})

	tests := []struct {
		name   string
		query  string
		wantID string
		found  bool
	}{
		{name: "exact", query: "Mira", wantID: "c1", found: true},
		{name: "case insensitive exact", query: "helix corp", wantID: "c2", found: true},
		{name: "partial", query: "ekaterina", wantID: "c3", found: true},
		{name: "partial prefers shortest", query: "mir", wantID: "c1", found: true},
		{name: "case folding", query: "ΣΊΣΥΦΟΣ", wantID: "c5", found: true},
		{name: "no match", query: "Nobody", found: false},
		{name: "blank", query: "  ", found: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			character, found, err := dir.Resolve(context.Background(), tt.query)
			if err != nil {
				t.Fatalf("resolve: %v", err)
			}
			if found != tt.found || character.ID != tt.wantID {
				t.Fatalf("Resolve(%q) = %q, %v, want %q, %v", tt.query, character.ID, found, tt.wantID, tt.found)
			}
		})
	}
}

func TestResolvePropagatesSourceError(t *testing.T) {
	boom := errors.New("boom")
	dir := New(fakeSource{err: boom})
	if _, _, err := dir.Resolve(context.Background(), "Mira"); !errors.Is(err, boom) {
		t.Fatalf("err = %v, want %v", err, boom)
	}
}

func TestResolveNilDirectory(t *testing.T) {
	var dir *Directory
	if _, found, err := dir.Resolve(context.Background(), "Mira"); found || err != nil {
		t.Fatalf("nil directory = %v, %v", found, err)
	}
}

func TestLoadSeed(t *testing.T) {
	characters, err := LoadSeed(strings.NewReader("characters:\n  - id: c1\n    name: ' Mira '\n  - id: c2\n    name: Helix Corp\n"))
	if err != nil {
		t.Fatalf("load seed: %v", err)
	}
	if len(characters) != 2 || characters[0].Name != "Mira" || characters[1].ID != "c2" {
		t.Fatalf("characters = %+v", characters)
	}

	if _, err := LoadSeed(strings.NewReader("characters:\n  - id: c1\n")); err == nil {
		t.Fatal("expected missing name to fail")
	}
	if characters, err := LoadSeed(strings.NewReader("")); err != nil || len(characters) != 0 {
		t.Fatalf("empty seed = %v, %v", characters, err)
	}
}

func TestLoadSeedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "characters.yaml")
	if err := os.WriteFile(path, []byte("characters:\n  - id: c9\n    name: Orin\n"), 0o600); err != nil {
		t.Fatalf("write seed: %v", err)
	}
	characters, err := LoadSeedFile(path)
	if err != nil {
		t.Fatalf("load seed file: %v", err)
	}
	if len(characters) != 1 || characters[0].ID != "c9" {
		t.Fatalf("characters = %+v", characters)
	}
}
