package player

import (
	"strings"
	"time"

	"github.com/louisbranch/storyquest/internal/services/progression/domain/currency"
	"github.com/louisbranch/storyquest/internal/services/progression/domain/ledger"
)

// Choice is one entry of the append-only choice history.
type Choice struct {
	ChoiceID   string
	ChoiceText string
	NodeID     string
	StoryID    string
	At         time.Time
}

// RecordChoice pays the choice's cost, moves the story position and returns
// the history entry and ledger entries to persist. An unaffordable choice
// changes nothing.
func (p *Player) RecordChoice(choice Choice, cost map[currency.Code]int, now time.Time) (Choice, []ledger.Entry, error) {
	choice.At = now
	var entries []ledger.Entry
	if len(cost) > 0 {
		description := "Choice: " + strings.TrimSpace(choice.ChoiceText)
		var err error
		entries, err = p.Spend(cost, ledger.Memo{
			Type:        ledger.TypeChoiceCost,
			Description: description,
			StoryID:     choice.StoryID,
			StoryNodeID: choice.NodeID,
		}, now)
		if err != nil {
			return Choice{}, nil, err
		}
	}
	if choice.StoryID != "" {
		p.CurrentStoryID = choice.StoryID
	}
	if choice.NodeID != "" {
		p.CurrentNodeID = choice.NodeID
	}
	p.UpdatedAt = now
	return choice, entries, nil
}
