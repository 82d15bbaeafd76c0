// Package player models the per-user progression aggregate: wallet, mission
// sets, encountered characters and the story position.
package player

import (
	"strings"
	"time"

	apperrors "github.com/louisbranch/storyquest/internal/platform/errors"
	"github.com/louisbranch/storyquest/internal/services/progression/domain/currency"
	"github.com/louisbranch/storyquest/internal/services/progression/domain/ledger"
)

// Player is the progression state of one user.
type Player struct {
	UserID           string
	Level            int
	ExperiencePoints int
	Balances         ledger.Balances

	ActiveMissions    []string
	CompletedMissions []string
	FailedMissions    []string

	Encounters map[string]Encounter

	CurrentStoryID string
	CurrentNodeID  string

	// Version increments on every persisted write and guards concurrent updates.
	Version   int64
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Encounter tracks the player's standing with one character.
type Encounter struct {
	CharacterID       string
	Name              string
	RelationshipLevel int
	EncounterCount    int
	FirstEncounterAt  time.Time
	LastEncounterAt   time.Time
	History           []RelationshipChange
}

// RelationshipChange is one reasoned relationship adjustment.
type RelationshipChange struct {
	Delta  int
	Reason string
	At     time.Time
}

// New creates a level 1 player with the starting wallet.
func New(userID string, now time.Time) (Player, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return Player{}, ErrEmptyUserID
	}
	return Player{
		UserID:     userID,
		Level:      1,
		Balances:   ledger.Balances(currency.DefaultBalances()),
		Encounters: map[string]Encounter{},
		CreatedAt:  now,
		UpdatedAt:  now,
	}, nil
}

// Spend debits requirements and returns the entries to persist.
func (p *Player) Spend(requirements map[currency.Code]int, memo ledger.Memo, now time.Time) ([]ledger.Entry, error) {
	if p.Balances == nil {
		p.Balances = ledger.Balances{}
	}
	memo.UserID = p.UserID
	entries, err := ledger.Spend(p.Balances, requirements, memo, now)
	if err != nil {
		return nil, err
	}
	if len(entries) > 0 {
		p.UpdatedAt = now
	}
	return entries, nil
}

// Credit adds amount of code and returns the entry to persist.
func (p *Player) Credit(code currency.Code, amount int, memo ledger.Memo, now time.Time) (ledger.Entry, error) {
	if p.Balances == nil {
		p.Balances = ledger.Balances{}
	}
	memo.UserID = p.UserID
	entry, err := ledger.Credit(p.Balances, code, amount, memo, now)
	if err != nil {
		return ledger.Entry{}, err
	}
	p.UpdatedAt = now
	return entry, nil
}

// EncounterCharacter records a meeting with a character. The first meeting
// seeds the relationship level; later ones only bump the counters.
func (p *Player) EncounterCharacter(characterID, name string, initialRelationship int, now time.Time) (Encounter, error) {
	characterID = strings.TrimSpace(characterID)
	if characterID == "" {
		return Encounter{}, ErrEmptyCharacterID
	}
	if p.Encounters == nil {
		p.Encounters = map[string]Encounter{}
	}
	encounter, ok := p.Encounters[characterID]
	if !ok {
		encounter = Encounter{
			CharacterID:       characterID,
			Name:              name,
			RelationshipLevel: initialRelationship,
			EncounterCount:    1,
			FirstEncounterAt:  now,
			LastEncounterAt:   now,
		}
	} else {
		encounter.EncounterCount++
		encounter.LastEncounterAt = now
	}
	p.Encounters[characterID] = encounter
	p.UpdatedAt = now
	return encounter, nil
}

// ChangeRelationship adjusts the relationship level with an encountered
// character. A history entry is kept only when a reason is given.
func (p *Player) ChangeRelationship(characterID string, delta int, reason string, now time.Time) (Encounter, error) {
	encounter, ok := p.Encounters[characterID]
	if !ok {
		return Encounter{}, apperrors.Detail(ErrUnknownCharacter, map[string]string{"character_id": characterID})
	}
	encounter.RelationshipLevel += delta
	if reason = strings.TrimSpace(reason); reason != "" {
		encounter.History = append(encounter.History, RelationshipChange{Delta: delta, Reason: reason, At: now})
	}
	p.Encounters[characterID] = encounter
	p.UpdatedAt = now
	return encounter, nil
}

// HasEncountered reports whether the player has met the character.
func (p Player) HasEncountered(characterID string) bool {
	_, ok := p.Encounters[characterID]
	return ok
}
