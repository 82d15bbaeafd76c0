// Package mission implements the mission state machine:
// active -> completed or active -> failed, with no way back.
package mission

import (
	"strconv"
	"strings"
	"time"

	apperrors "github.com/louisbranch/storyquest/internal/platform/errors"
	"github.com/louisbranch/storyquest/internal/services/progression/domain/currency"
)

const (
	defaultTitle          = "Untitled Mission"
	completionDescription = "Mission successfully completed!"
)

// Mission is a quest-like unit owned by one user.
type Mission struct {
	ID                string
	UserID            string
	Title             string
	Description       string
	GiverCharacterID  string
	TargetCharacterID string
	Objective         string
	Difficulty        Difficulty
	RewardCurrency    currency.Code
	RewardAmount      int
	Status            Status
	Progress          int
	Log               []LogEntry
	DeadlineText      string
	StoryID           string
	CreatedAt         time.Time
	UpdatedAt         time.Time
	CompletedAt       *time.Time
}

// LogEntry records one progress step or status change.
type LogEntry struct {
	Progress    int
	Status      Status
	Description string
	Reason      string
	At          time.Time
}

// Draft is a resolved mission record ready to be created.
type Draft struct {
	Title             string
	Description       string
	GiverCharacterID  string
	TargetCharacterID string
	Objective         string
	Difficulty        Difficulty
	RewardCurrency    currency.Code
	RewardAmount      int
	DeadlineText      string
	StoryID           string
}

// New creates an active mission from a draft.
func New(id, userID string, draft Draft, now time.Time) (Mission, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return Mission{}, ErrEmptyUserID
	}
	if draft.RewardAmount <= 0 {
		return Mission{}, apperrors.Detail(ErrInvalidReward, map[string]string{"amount": strconv.Itoa(draft.RewardAmount)})
	}
	difficulty, ok := ParseDifficulty(string(draft.Difficulty))
	if !ok {
		return Mission{}, apperrors.Detail(ErrInvalidDifficulty, map[string]string{"difficulty": string(draft.Difficulty)})
	}
	rewardCurrency := draft.RewardCurrency
	if rewardCurrency == "" {
		rewardCurrency = currency.Default
	}
	title := strings.TrimSpace(draft.Title)
	if title == "" {
		title = defaultTitle
	}
	return Mission{
		ID:                id,
		UserID:            userID,
		Title:             title,
		Description:       strings.TrimSpace(draft.Description),
		GiverCharacterID:  strings.TrimSpace(draft.GiverCharacterID),
		TargetCharacterID: strings.TrimSpace(draft.TargetCharacterID),
		Objective:         strings.TrimSpace(draft.Objective),
		Difficulty:        difficulty,
		RewardCurrency:    rewardCurrency,
		RewardAmount:      draft.RewardAmount,
		Status:            StatusActive,
		DeadlineText:      strings.TrimSpace(draft.DeadlineText),
		StoryID:           strings.TrimSpace(draft.StoryID),
		CreatedAt:         now,
		UpdatedAt:         now,
	}, nil
}

// UpdateProgress sets progress on an active mission and logs it.
func (m *Mission) UpdateProgress(progress int, description string, now time.Time) error {
	if err := m.requireActive(); err != nil {
		return err
	}
	if progress < 0 || progress > 100 {
		return apperrors.Detail(ErrInvalidProgress, map[string]string{"progress": strconv.Itoa(progress)})
	}
	m.Progress = progress
	m.Log = append(m.Log, LogEntry{
		Progress:    progress,
		Description: strings.TrimSpace(description),
		At:          now,
	})
	m.UpdatedAt = now
	return nil
}

// Complete moves an active mission to completed with full progress.
func (m *Mission) Complete(now time.Time) error {
	if err := m.requireActive(); err != nil {
		return err
	}
	m.Status = StatusCompleted
	m.Progress = 100
	m.Log = append(m.Log, LogEntry{
		Progress:    100,
		Status:      StatusCompleted,
		Description: completionDescription,
		At:          now,
	})
	m.UpdatedAt = now
	completedAt := now
	m.CompletedAt = &completedAt
	return nil
}

// Fail moves an active mission to failed. Progress is kept as it was.
func (m *Mission) Fail(reason string, now time.Time) error {
	if err := m.requireActive(); err != nil {
		return err
	}
	m.Status = StatusFailed
	m.Log = append(m.Log, LogEntry{
		Progress: m.Progress,
		Status:   StatusFailed,
		Reason:   strings.TrimSpace(reason),
		At:       now,
	})
	m.UpdatedAt = now
	return nil
}

func (m *Mission) requireActive() error {
	if m.Status != StatusActive {
		return apperrors.Detail(ErrNotActive, map[string]string{
			"mission_id": m.ID,
			"status":     string(m.Status),
		})
	}
	return nil
}
