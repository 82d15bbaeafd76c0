package mission

import "strings"

// Status describes the mission lifecycle.
type Status string

const (
	StatusActive    Status = "active"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
)

// Terminal reports whether no further transition is allowed.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

// Difficulty grades a mission and sizes its experience reward.
type Difficulty string

const (
	DifficultyEasy   Difficulty = "easy"
	DifficultyMedium Difficulty = "medium"
	DifficultyHard   Difficulty = "hard"
)

// DefaultDifficulty applies when a payload names none.
const DefaultDifficulty = DifficultyMedium

// ParseDifficulty normalizes a difficulty label. Empty input yields the default.
func ParseDifficulty(value string) (Difficulty, bool) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "":
		return DefaultDifficulty, true
	case "easy":
		return DifficultyEasy, true
	case "medium":
		return DifficultyMedium, true
	case "hard":
		return DifficultyHard, true
	default:
		return "", false
	}
}

// ExperienceReward returns the experience granted on completion.
func (d Difficulty) ExperienceReward() int {
	switch d {
	case DifficultyMedium:
		return 100
	case DifficultyHard:
		return 200
	default:
		return 50
	}
}

// Relationship deltas applied when a mission resolves.
const (
	GiverCompletionDelta  = 2
	TargetCompletionDelta = -3
	GiverFailureDelta     = -1
)
