// Package extract recovers a candidate mission record from generator output.
//
// Structured payloads win when present. Anything else is treated as story
// text and run through a best-effort pattern parser that always produces a
// record, falling back to defaults field by field.
package extract

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/dustin/go-humanize"

	apperrors "github.com/louisbranch/storyquest/internal/platform/errors"
	"github.com/louisbranch/storyquest/internal/services/progression/domain/currency"
	"github.com/louisbranch/storyquest/internal/services/progression/domain/mission"
)

const (
	// DefaultObjective is used when no objective clause matches.
	DefaultObjective = "Objective not clearly specified."
	// DefaultRewardAmount is used when no reward clause matches.
	DefaultRewardAmount = 1500

	titlePreviewRunes = 30
	unknownName       = "Unknown"
)

// Source tells where a record came from.
type Source string

const (
	SourcePayload Source = "payload"
	SourceText    Source = "text"
)

// ErrEmptyInput indicates generator output with nothing to parse.
var ErrEmptyInput = apperrors.New(apperrors.CodeInvalidArgument, "generator output is empty")

// Record is the canonical mission candidate. Ids are empty until resolved;
// names keep the references as written.
type Record struct {
	Source         Source
	Title          string
	Description    string
	GiverID        string
	GiverName      string
	TargetID       string
	TargetName     string
	Objective      string
	RewardCurrency currency.Code
	RewardAmount   int
	Difficulty     mission.Difficulty
	DeadlineText   string
}

// Draft converts the record into a mission draft for storyID.
func (r Record) Draft(storyID string) mission.Draft {
	return mission.Draft{
		Title:             r.Title,
		Description:       r.Description,
		GiverCharacterID:  r.GiverID,
		TargetCharacterID: r.TargetID,
		Objective:         r.Objective,
		Difficulty:        r.Difficulty,
		RewardCurrency:    r.RewardCurrency,
		RewardAmount:      r.RewardAmount,
		DeadlineText:      r.DeadlineText,
		StoryID:           storyID,
	}
}

var (
	giverPattern     = regexp.MustCompile(`figure of (\w+ Corp|[A-Z][a-z]+)`)
	targetPattern    = regexp.MustCompile(`on (\w+'s) plans|against (\w+)`)
	objectivePattern = regexp.MustCompile(`mission—(.+?)[.']`)
	rewardPattern    = regexp.MustCompile(`reward\?\s*(\d{1,3}(?:,\d{3})*|\d+)\s*([💎💵💷💶💴])`)
)

// FromText extracts a mission from narrative text. It never fails; missing
// clauses fall back to defaults.
func FromText(text string) Record {
	record := Record{
		Source:         SourceText,
		Objective:      DefaultObjective,
		RewardCurrency: currency.Default,
		RewardAmount:   DefaultRewardAmount,
	}

	if match := giverPattern.FindStringSubmatch(text); match != nil {
		record.GiverName = match[1]
	}
	if match := targetPattern.FindStringSubmatch(text); match != nil {
		target := match[1]
		if target == "" {
			target = match[2]
		}
		record.TargetName = strings.ReplaceAll(target, "'s", "")
	}
	if match := objectivePattern.FindStringSubmatch(text); match != nil {
		if objective := strings.TrimSpace(match[1]); objective != "" {
			record.Objective = objective
		}
	}
	if match := rewardPattern.FindStringSubmatch(text); match != nil {
		if amount, err := strconv.Atoi(strings.ReplaceAll(match[1], ",", "")); err == nil && amount > 0 {
			record.RewardAmount = amount
			record.RewardCurrency = currency.Code(match[2])
		}
	}

	record.Difficulty = InferDifficulty(record.RewardAmount, record.RewardCurrency)
	record.Title = Title(record.Objective)
	record.Description = Describe(record)
	record.DeadlineText = Deadline(record.Difficulty)
	return record
}

// InferDifficulty grades a reward against the currency's base reward.
// Thresholds are checked in order so hard overrides medium. Currencies
// without a base reward grade as the default difficulty.
func InferDifficulty(amount int, code currency.Code) mission.Difficulty {
	base, ok := currency.BaseReward(code)
	if !ok {
		return mission.DefaultDifficulty
	}
	difficulty := mission.DifficultyEasy
	if float64(amount) > float64(base)*1.5 {
		difficulty = mission.DifficultyMedium
	}
	if float64(amount) > float64(base)*2.5 {
		difficulty = mission.DifficultyHard
	}
	return difficulty
}

// Title derives a mission title from the objective.
func Title(objective string) string {
	if utf8.RuneCountInString(objective) > titlePreviewRunes {
		return "Mission: " + string([]rune(objective)[:titlePreviewRunes]) + "..."
	}
	return "Mission: " + objective
}

// Describe synthesizes the mission description.
func Describe(record Record) string {
	return fmt.Sprintf("Mission from %s to %s. Target: %s. Reward: %s %s.",
		orUnknown(record.GiverName),
		record.Objective,
		orUnknown(record.TargetName),
		humanize.Comma(int64(record.RewardAmount)),
		record.RewardCurrency,
	)
}

// Deadline returns the fixed deadline phrase for a difficulty.
func Deadline(difficulty mission.Difficulty) string {
	if difficulty == mission.DifficultyHard {
		return "Complete within 3 days"
	}
	return "Complete within 5 days"
}

func orUnknown(name string) string {
	if strings.TrimSpace(name) == "" {
		return unknownName
	}
	return name
}
