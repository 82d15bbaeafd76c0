// Package evolution tracks how a character changes within one user's story:
// traits, role, status, plot contributions and directed relationship edges.
package evolution

import (
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	apperrors "github.com/louisbranch/storyquest/internal/platform/errors"
)

// Status is a character's state in the story.
type Status string

const (
	StatusActive   Status = "active"
	StatusDeceased Status = "deceased"
	StatusMissing  Status = "missing"
)

// ParseStatus normalizes a status label.
func ParseStatus(value string) (Status, bool) {
	switch Status(strings.ToLower(strings.TrimSpace(value))) {
	case StatusActive:
		return StatusActive, true
	case StatusDeceased:
		return StatusDeceased, true
	case StatusMissing:
		return StatusMissing, true
	default:
		return "", false
	}
}

// Event tags written to the evolution log.
const (
	EventTraitAdded          = "trait_added"
	EventRoleChanged         = "role_changed"
	EventRelationshipChanged = "relationship_changed"
	EventPlotContribution    = "plot_contribution"
	EventStatusChanged       = "status_changed"
	EventStoryInteraction    = "story_interaction"
)

const (
	// MinStrength and MaxStrength bound relationship edge strength.
	MinStrength = -10
	MaxStrength = 10
	// DefaultRelationshipType labels edges created without a type.
	DefaultRelationshipType = "neutral"

	contextPreviewRunes = 100
)

// Key identifies an evolution record.
type Key struct {
	UserID      string
	CharacterID string
	StoryID     string
}

// Evolution is the per-user, per-story record of one character.
type Evolution struct {
	Key
	Status            Status
	Role              string
	Traits            []string
	Relationships     map[string]Edge
	PlotContributions []PlotContribution
	Log               []Event
	FirstAppearanceAt time.Time
	UpdatedAt         time.Time
}

// Edge is a directed relationship to another character.
type Edge struct {
	Type          string    `json:"type"`
	Strength      int       `json:"strength"`
	LastUpdatedAt time.Time `json:"last_updated_at"`
}

// PlotContribution records the character's part in a plot point.
type PlotContribution struct {
	PlotPoint  string    `json:"plot_point"`
	Importance int       `json:"importance"`
	At         time.Time `json:"at"`
}

// Event is one tagged evolution log entry. Only the fields relevant to the
// tag are set.
type Event struct {
	Type              string    `json:"type"`
	Trait             string    `json:"trait,omitempty"`
	OldRole           string    `json:"old_role,omitempty"`
	NewRole           string    `json:"new_role,omitempty"`
	OldStatus         string    `json:"old_status,omitempty"`
	NewStatus         string    `json:"new_status,omitempty"`
	TargetCharacterID string    `json:"target_character_id,omitempty"`
	RelationshipType  string    `json:"relationship_type,omitempty"`
	Strength          *int      `json:"strength,omitempty"`
	PlotPoint         string    `json:"plot_point,omitempty"`
	Importance        int       `json:"importance,omitempty"`
	Context           string    `json:"context,omitempty"`
	Reason            string    `json:"reason,omitempty"`
	At                time.Time `json:"at"`
}

// New creates an active record for a character's first appearance.
func New(key Key, role string, now time.Time) (Evolution, error) {
	key.UserID = strings.TrimSpace(key.UserID)
	key.CharacterID = strings.TrimSpace(key.CharacterID)
	key.StoryID = strings.TrimSpace(key.StoryID)
	if key.UserID == "" || key.CharacterID == "" || key.StoryID == "" {
		return Evolution{}, ErrEmptyKey
	}
	return Evolution{
		Key:               key,
		Status:            StatusActive,
		Role:              strings.TrimSpace(role),
		Relationships:     map[string]Edge{},
		FirstAppearanceAt: now,
		UpdatedAt:         now,
	}, nil
}

// AddTrait adds a trait once. It reports false when the trait is already
// present.
func (e *Evolution) AddTrait(trait, reason string, now time.Time) (bool, error) {
	trait = strings.TrimSpace(trait)
	if trait == "" {
		return false, ErrEmptyTrait
	}
	for _, existing := range e.Traits {
		if existing == trait {
			return false, nil
		}
	}
	e.Traits = append(e.Traits, trait)
	e.record(Event{Type: EventTraitAdded, Trait: trait, Reason: strings.TrimSpace(reason)}, now)
	return true, nil
}

// UpdateRole replaces the role and logs old and new values.
func (e *Evolution) UpdateRole(role, reason string, now time.Time) {
	old := e.Role
	e.Role = strings.TrimSpace(role)
	e.record(Event{Type: EventRoleChanged, OldRole: old, NewRole: e.Role, Reason: strings.TrimSpace(reason)}, now)
}

// SetStatus changes the character status.
func (e *Evolution) SetStatus(status Status, reason string, now time.Time) error {
	parsed, ok := ParseStatus(string(status))
	if !ok {
		return apperrors.Detail(ErrInvalidStatus, map[string]string{"status": string(status)})
	}
	old := e.Status
	e.Status = parsed
	e.record(Event{Type: EventStatusChanged, OldStatus: string(old), NewStatus: string(parsed), Reason: strings.TrimSpace(reason)}, now)
	return nil
}

// AddRelationship overwrites the edge to targetID. The reverse edge is not
// touched.
func (e *Evolution) AddRelationship(targetID, relationshipType string, strength int, now time.Time) Edge {
	relationshipType = strings.TrimSpace(relationshipType)
	if relationshipType == "" {
		relationshipType = DefaultRelationshipType
	}
	edge := Edge{Type: relationshipType, Strength: ClampStrength(strength), LastUpdatedAt: now}
	if e.Relationships == nil {
		e.Relationships = map[string]Edge{}
	}
	e.Relationships[targetID] = edge
	stored := edge.Strength
	e.record(Event{
		Type:              EventRelationshipChanged,
		TargetCharacterID: targetID,
		RelationshipType:  relationshipType,
		Strength:          &stored,
	}, now)
	return edge
}

// AddPlotContribution appends a plot point with importance 1..5.
func (e *Evolution) AddPlotContribution(plotPoint string, importance int, now time.Time) error {
	if importance < 1 || importance > 5 {
		return apperrors.Detail(ErrInvalidImportance, map[string]string{"importance": strconv.Itoa(importance)})
	}
	plotPoint = strings.TrimSpace(plotPoint)
	e.PlotContributions = append(e.PlotContributions, PlotContribution{PlotPoint: plotPoint, Importance: importance, At: now})
	e.record(Event{Type: EventPlotContribution, PlotPoint: plotPoint, Importance: importance}, now)
	return nil
}

// RecordStoryInteraction logs a preview of the story context.
func (e *Evolution) RecordStoryInteraction(storyContext string, now time.Time) {
	e.record(Event{Type: EventStoryInteraction, Context: Preview(storyContext)}, now)
}

func (e *Evolution) record(event Event, now time.Time) {
	event.At = now
	e.Log = append(e.Log, event)
	e.UpdatedAt = now
}

// ClampStrength bounds strength to MinStrength..MaxStrength.
func ClampStrength(strength int) int {
	return min(max(strength, MinStrength), MaxStrength)
}

// Preview returns at most the first 100 runes of text followed by "...".
func Preview(text string) string {
	if utf8.RuneCountInString(text) <= contextPreviewRunes {
		return text + "..."
	}
	runes := []rune(text)
	return string(runes[:contextPreviewRunes]) + "..."
}
