package mcptools

import (
	"maps"
	"slices"
	"time"

	"github.com/louisbranch/storyquest/internal/services/progression/domain/currency"
	"github.com/louisbranch/storyquest/internal/services/progression/domain/evolution"
	"github.com/louisbranch/storyquest/internal/services/progression/domain/ledger"
	"github.com/louisbranch/storyquest/internal/services/progression/domain/mission"
	"github.com/louisbranch/storyquest/internal/services/progression/domain/player"
)

// Balance is one currency amount.
type Balance struct {
	Currency string `json:"currency" jsonschema:"currency symbol"`
	Amount   int    `json:"amount" jsonschema:"amount held"`
}

// PlayerView is the readable player state.
type PlayerView struct {
	UserID            string          `json:"user_id"`
	Level             int             `json:"level"`
	ExperiencePoints  int             `json:"experience_points"`
	Balances          []Balance       `json:"balances"`
	ActiveMissions    []string        `json:"active_missions"`
	CompletedMissions []string        `json:"completed_missions"`
	FailedMissions    []string        `json:"failed_missions"`
	Encounters        []EncounterView `json:"encounters"`
	CurrentStoryID    string          `json:"current_story_id,omitempty"`
	CurrentNodeID     string          `json:"current_node_id,omitempty"`
	UpdatedAt         string          `json:"updated_at"`
}

// EncounterView is the player's standing with one character.
type EncounterView struct {
	CharacterID       string `json:"character_id"`
	Name              string `json:"name,omitempty"`
	RelationshipLevel int    `json:"relationship_level"`
	EncounterCount    int    `json:"encounter_count"`
	FirstEncounterAt  string `json:"first_encounter_at"`
	LastEncounterAt   string `json:"last_encounter_at"`
}

// MissionView is the readable mission state.
type MissionView struct {
	ID                string           `json:"id"`
	Title             string           `json:"title"`
	Description       string           `json:"description,omitempty"`
	GiverCharacterID  string           `json:"giver_character_id,omitempty"`
	TargetCharacterID string           `json:"target_character_id,omitempty"`
	Objective         string           `json:"objective,omitempty"`
	Difficulty        string           `json:"difficulty"`
	RewardCurrency    string           `json:"reward_currency"`
	RewardAmount      int              `json:"reward_amount"`
	Status            string           `json:"status"`
	Progress          int              `json:"progress"`
	Log               []MissionLogView `json:"log"`
	DeadlineText      string           `json:"deadline_text,omitempty"`
	StoryID           string           `json:"story_id,omitempty"`
	CreatedAt         string           `json:"created_at"`
	UpdatedAt         string           `json:"updated_at"`
	CompletedAt       string           `json:"completed_at,omitempty"`
}

// MissionLogView is one mission log entry.
type MissionLogView struct {
	Progress    int    `json:"progress"`
	Status      string `json:"status,omitempty"`
	Description string `json:"description,omitempty"`
	Reason      string `json:"reason,omitempty"`
	At          string `json:"at"`
}

// LedgerEntryView is one ledger entry.
type LedgerEntryView struct {
	ID          string `json:"id"`
	Seq         int64  `json:"seq"`
	Type        string `json:"type"`
	Currency    string `json:"currency"`
	Amount      int    `json:"amount" jsonschema:"signed amount, negative for debits"`
	Description string `json:"description,omitempty"`
	StoryID     string `json:"story_id,omitempty"`
	StoryNodeID string `json:"story_node_id,omitempty"`
	At          string `json:"at"`
}

// EvolutionView is a character's record in one story.
type EvolutionView struct {
	CharacterID       string                 `json:"character_id"`
	StoryID           string                 `json:"story_id"`
	Status            string                 `json:"status"`
	Role              string                 `json:"role,omitempty"`
	Traits            []string               `json:"traits"`
	Relationships     map[string]EdgeView    `json:"relationships"`
	PlotContributions []PlotContributionView `json:"plot_contributions"`
	Log               []EventView            `json:"log"`
	FirstAppearanceAt string                 `json:"first_appearance_at"`
	UpdatedAt         string                 `json:"updated_at"`
}

// EdgeView is a directed relationship edge.
type EdgeView struct {
	Type          string `json:"type"`
	Strength      int    `json:"strength"`
	LastUpdatedAt string `json:"last_updated_at"`
}

// PlotContributionView is one plot contribution.
type PlotContributionView struct {
	PlotPoint  string `json:"plot_point"`
	Importance int    `json:"importance"`
	At         string `json:"at"`
}

// EventView is one evolution log entry.
type EventView struct {
	Type              string `json:"type"`
	Trait             string `json:"trait,omitempty"`
	OldRole           string `json:"old_role,omitempty"`
	NewRole           string `json:"new_role,omitempty"`
	OldStatus         string `json:"old_status,omitempty"`
	NewStatus         string `json:"new_status,omitempty"`
	TargetCharacterID string `json:"target_character_id,omitempty"`
	RelationshipType  string `json:"relationship_type,omitempty"`
	Strength          *int   `json:"strength,omitempty"`
	PlotPoint         string `json:"plot_point,omitempty"`
	Importance        int    `json:"importance,omitempty"`
	Context           string `json:"context,omitempty"`
	Reason            string `json:"reason,omitempty"`
	At                string `json:"at"`
}

func formatTime(value time.Time) string {
	if value.IsZero() {
		return ""
	}
	return value.UTC().Format(time.RFC3339)
}

func balancesView(balances map[currency.Code]int) []Balance {
	out := make([]Balance, 0, len(balances))
	for _, code := range currency.Sorted(balances) {
		out = append(out, Balance{Currency: string(code), Amount: balances[code]})
	}
	return out
}

func playerView(p player.Player) PlayerView {
	view := PlayerView{
		UserID:            p.UserID,
		Level:             p.Level,
		ExperiencePoints:  p.ExperiencePoints,
		Balances:          balancesView(p.Balances),
		ActiveMissions:    nonNil(p.ActiveMissions),
		CompletedMissions: nonNil(p.CompletedMissions),
		FailedMissions:    nonNil(p.FailedMissions),
		Encounters:        []EncounterView{},
		CurrentStoryID:    p.CurrentStoryID,
		CurrentNodeID:     p.CurrentNodeID,
		UpdatedAt:         formatTime(p.UpdatedAt),
	}
	for _, characterID := range sortedKeys(p.Encounters) {
		view.Encounters = append(view.Encounters, encounterView(p.Encounters[characterID]))
	}
	return view
}

func encounterView(e player.Encounter) EncounterView {
	return EncounterView{
		CharacterID:       e.CharacterID,
		Name:              e.Name,
		RelationshipLevel: e.RelationshipLevel,
		EncounterCount:    e.EncounterCount,
		FirstEncounterAt:  formatTime(e.FirstEncounterAt),
		LastEncounterAt:   formatTime(e.LastEncounterAt),
	}
}

func missionView(m mission.Mission) MissionView {
	view := MissionView{
		ID:                m.ID,
		Title:             m.Title,
		Description:       m.Description,
		GiverCharacterID:  m.GiverCharacterID,
		TargetCharacterID: m.TargetCharacterID,
		Objective:         m.Objective,
		Difficulty:        string(m.Difficulty),
		RewardCurrency:    string(m.RewardCurrency),
		RewardAmount:      m.RewardAmount,
		Status:            string(m.Status),
		Progress:          m.Progress,
		Log:               make([]MissionLogView, 0, len(m.Log)),
		DeadlineText:      m.DeadlineText,
		StoryID:           m.StoryID,
		CreatedAt:         formatTime(m.CreatedAt),
		UpdatedAt:         formatTime(m.UpdatedAt),
	}
	if m.CompletedAt != nil {
		view.CompletedAt = formatTime(*m.CompletedAt)
	}
	for _, entry := range m.Log {
		view.Log = append(view.Log, MissionLogView{
			Progress:    entry.Progress,
			Status:      string(entry.Status),
			Description: entry.Description,
			Reason:      entry.Reason,
			At:          formatTime(entry.At),
		})
	}
	return view
}

func missionViews(missions []mission.Mission) []MissionView {
	out := make([]MissionView, 0, len(missions))
	for _, m := range missions {
		out = append(out, missionView(m))
	}
	return out
}

func ledgerViews(entries []ledger.Entry) []LedgerEntryView {
	out := make([]LedgerEntryView, 0, len(entries))
	for _, entry := range entries {
		out = append(out, LedgerEntryView{
			ID:          entry.ID,
			Seq:         entry.Seq,
			Type:        entry.Type,
			Currency:    string(entry.Currency()),
			Amount:      entry.Signed(),
			Description: entry.Description,
			StoryID:     entry.StoryID,
			StoryNodeID: entry.StoryNodeID,
			At:          formatTime(entry.At),
		})
	}
	return out
}

func evolutionView(e evolution.Evolution) EvolutionView {
	view := EvolutionView{
		CharacterID:       e.CharacterID,
		StoryID:           e.StoryID,
		Status:            string(e.Status),
		Role:              e.Role,
		Traits:            nonNil(e.Traits),
		Relationships:     make(map[string]EdgeView, len(e.Relationships)),
		PlotContributions: make([]PlotContributionView, 0, len(e.PlotContributions)),
		Log:               make([]EventView, 0, len(e.Log)),
		FirstAppearanceAt: formatTime(e.FirstAppearanceAt),
		UpdatedAt:         formatTime(e.UpdatedAt),
	}
	for targetID, edge := range e.Relationships {
		view.Relationships[targetID] = edgeView(edge)
	}
	for _, contribution := range e.PlotContributions {
		view.PlotContributions = append(view.PlotContributions, PlotContributionView{
			PlotPoint:  contribution.PlotPoint,
			Importance: contribution.Importance,
			At:         formatTime(contribution.At),
		})
	}
	for _, event := range e.Log {
		view.Log = append(view.Log, EventView{
			Type:              event.Type,
			Trait:             event.Trait,
			OldRole:           event.OldRole,
			NewRole:           event.NewRole,
			OldStatus:         event.OldStatus,
			NewStatus:         event.NewStatus,
			TargetCharacterID: event.TargetCharacterID,
			RelationshipType:  event.RelationshipType,
			Strength:          event.Strength,
			PlotPoint:         event.PlotPoint,
			Importance:        event.Importance,
			Context:           event.Context,
			Reason:            event.Reason,
			At:                formatTime(event.At),
		})
	}
	return view
}

func edgeView(edge evolution.Edge) EdgeView {
	return EdgeView{Type: edge.Type, Strength: edge.Strength, LastUpdatedAt: formatTime(edge.LastUpdatedAt)}
}

func sortedKeys[V any](m map[string]V) []string {
	return slices.Sorted(maps.Keys(m))
}

func nonNil(values []string) []string {
	if values == nil {
		return []string{}
	}
	return values
}
