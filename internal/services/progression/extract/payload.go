package extract

import (
	"strconv"
	"strings"

	"github.com/tidwall/gjson"

	"github.com/louisbranch/storyquest/internal/services/progression/domain/currency"
	"github.com/louisbranch/storyquest/internal/services/progression/domain/mission"
)

// Accepted source fields per attribute, in priority order.
var (
	giverIDFields    = []string{"giver_id", "giverId"}
	giverNameFields  = []string{"giver", "giver_name"}
	targetIDFields   = []string{"target_id", "targetId"}
	targetNameFields = []string{"target", "target_name"}
	objectiveFields  = []string{"objective", "goal"}
	currencyFields   = []string{"reward_currency", "currency"}
	amountFields     = []string{"reward_amount", "reward", "amount"}
	deadlineFields   = []string{"deadline", "deadline_text"}
	difficultyFields = []string{"difficulty"}
)

// Parse reads raw generator output. A JSON document with a titled mission
// object is read as a structured payload; a JSON document with a story field
// has that story parsed as text; anything else is parsed as text.
func Parse(raw string) (Record, error) {
	if strings.TrimSpace(raw) == "" {
		return Record{}, ErrEmptyInput
	}
	if !gjson.Valid(raw) {
		return FromText(raw), nil
	}
	doc := gjson.Parse(raw)
	if !doc.IsObject() {
		return FromText(raw), nil
	}
	if record, ok := FromPayload(doc); ok {
		return record, nil
	}
	if story := doc.Get("story"); story.Type == gjson.String && strings.TrimSpace(story.String()) != "" {
		return FromText(story.String()), nil
	}
	return FromText(raw), nil
}

// FromPayload reads a structured mission from a parsed document. The mission
// is taken from the "mission" object, or from the document itself when it
// carries both a title and an objective. It reports false when no titled
// mission is present.
func FromPayload(doc gjson.Result) (Record, bool) {
	node := doc.Get("mission")
	if !node.IsObject() || strings.TrimSpace(node.Get("title").String()) == "" {
		if strings.TrimSpace(doc.Get("title").String()) == "" || !doc.Get("objective").Exists() {
			return Record{}, false
		}
		node = doc
	}

	record := Record{
		Source:         SourcePayload,
		Title:          strings.TrimSpace(node.Get("title").String()),
		Description:    strings.TrimSpace(node.Get("description").String()),
		GiverID:        firstString(node, giverIDFields),
		GiverName:      firstString(node, giverNameFields),
		TargetID:       firstString(node, targetIDFields),
		TargetName:     firstString(node, targetNameFields),
		Objective:      firstString(node, objectiveFields),
		RewardCurrency: currency.Default,
		RewardAmount:   DefaultRewardAmount,
		Difficulty:     mission.DefaultDifficulty,
		DeadlineText:   firstString(node, deadlineFields),
	}
	if code, ok := currency.Parse(firstString(node, currencyFields)); ok {
		record.RewardCurrency = code
	}
	if amount, ok := firstAmount(node, amountFields); ok {
		record.RewardAmount = amount
	}
	if difficulty, ok := mission.ParseDifficulty(firstString(node, difficultyFields)); ok {
		record.Difficulty = difficulty
	}
	if record.Objective == "" {
		record.Objective = DefaultObjective
	}
	if record.Description == "" {
		record.Description = Describe(record)
	}
	if record.DeadlineText == "" {
		record.DeadlineText = Deadline(record.Difficulty)
	}
	return record, true
}

func firstString(node gjson.Result, fields []string) string {
	for _, field := range fields {
		value := node.Get(field)
		if !value.Exists() || value.Type == gjson.Null {
			continue
		}
		if text := strings.TrimSpace(value.String()); text != "" {
			return text
		}
	}
	return ""
}

func firstAmount(node gjson.Result, fields []string) (int, bool) {
	for _, field := range fields {
		value := node.Get(field)
		switch value.Type {
		case gjson.Number:
			if amount := int(value.Int()); amount > 0 {
				return amount, true
			}
		case gjson.String:
			cleaned := strings.ReplaceAll(strings.TrimSpace(value.String()), ",", "")
			if amount, err := strconv.Atoi(cleaned); err == nil && amount > 0 {
				return amount, true
			}
		}
	}
	return 0, false
}
