// Package directory resolves character names written by the narrative
// generator to character ids.
package directory

import (
	"context"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"golang.org/x/text/cases"
	"gopkg.in/yaml.v3"
)

// Character is one directory entry.
type Character struct {
	ID   string `yaml:"id"`
	Name string `yaml:"name"`
}

// Source lists the known characters.
type Source interface {
	ListCharacters(ctx context.Context) ([]Character, error)
}

// Directory resolves names against a Source.
type Directory struct {
	source Source
}

// New creates a directory over source.
func New(source Source) *Directory {
	return &Directory{source: source}
}

// Resolve finds the character whose name matches name ignoring case. An
// exact match wins over a partial one; among partial matches the shortest
// name wins, then the lowest id. No match is a valid outcome, reported with
// found=false.
func (d *Directory) Resolve(ctx context.Context, name string) (Character, bool, error) {
	name = strings.TrimSpace(name)
	if d == nil || d.source == nil || name == "" {
		return Character{}, false, nil
	}
	characters, err := d.source.ListCharacters(ctx)
	if err != nil {
		return Character{}, false, fmt.Errorf("list characters: %w", err)
	}
	character, ok := Match(characters, name)
	return character, ok, nil
}

// Match applies the resolution rules of Resolve to an in-memory list.
func Match(characters []Character, name string) (Character, bool) {
	fold := cases.Fold()
	needle := fold.String(strings.TrimSpace(name))
	if needle == "" {
		return Character{}, false
	}

	var partial []Character
	for _, character := range characters {
		folded := fold.String(character.Name)
		if folded == needle {
			return character, true
		}
		if strings.Contains(folded, needle) {
			partial = append(partial, character)
		}
	}
	if len(partial) == 0 {
		return Character{}, false
	}
	sort.Slice(partial, func(i, j int) bool {
		li, lj := len(partial[i].Name), len(partial[j].Name)
		if li != lj {
			return li < lj
		}
		return partial[i].ID < partial[j].ID
	})
	return partial[0], true
}

type seedFile struct {
	Characters []Character `yaml:"characters"`
}

// LoadSeed reads a YAML document of the form:
//
//	characters:
//	  - id: c1
//	    name: Mira
func LoadSeed(r io.Reader) ([]Character, error) {
	var seed seedFile
	if err := yaml.NewDecoder(r).Decode(&seed); err != nil {
		if err == io.EOF {
			return nil, nil
		}
		return nil, fmt.Errorf("decode character seed: %w", err)
	}
	characters := make([]Character, 0, len(seed.Characters))
	for i, character := range seed.Characters {
		character.ID = strings.TrimSpace(character.ID)
		character.Name = strings.TrimSpace(character.Name)
		if character.ID == "" || character.Name == "" {
			return nil, fmt.Errorf("character seed entry %d: id and name are required", i)
		}
		characters = append(characters, character)
	}
	return characters, nil
}

// LoadSeedFile reads a YAML seed from path.
func LoadSeedFile(path string) ([]Character, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open character seed: %w", err)
	}
	defer file.Close()
	return LoadSeed(file)
}
