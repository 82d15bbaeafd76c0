package evolution

import (
	"sort"
	"time"
)

// RelationshipChange describes one entry of a batch update. Inverse fields
// default to the forward values when nil.
type RelationshipChange struct {
	Type          string
	Amount        int
	InverseType   *string
	InverseAmount *int
}

// BatchResult lists which records changed and which targets were skipped.
type BatchResult struct {
	Updated []string
	Skipped []string
}

// UpdateRelationships applies relationship changes between a protagonist and
// several targets within one story. records maps character id to the loaded
// evolution record. The protagonist->target edge is written only when the
// protagonist has a record; the target->protagonist edge is always written.
// Targets without a record are skipped.
func UpdateRelationships(records map[string]*Evolution, protagonistID string, changes map[string]RelationshipChange, now time.Time) BatchResult {
	targets := make([]string, 0, len(changes))
	for targetID := range changes {
		targets = append(targets, targetID)
	}
	sort.Strings(targets)

	touched := map[string]bool{}
	result := BatchResult{}
	protagonist := records[protagonistID]
	for _, targetID := range targets {
		target, ok := records[targetID]
		if !ok || target == nil {
			result.Skipped = append(result.Skipped, targetID)
			continue
		}
		change := changes[targetID]
		if protagonist != nil {
			protagonist.AddRelationship(targetID, change.Type, change.Amount, now)
			touched[protagonistID] = true
		}
		inverseType := change.Type
		if change.InverseType != nil {
			inverseType = *change.InverseType
		}
		inverseAmount := change.Amount
		if change.InverseAmount != nil {
			inverseAmount = *change.InverseAmount
		}
		target.AddRelationship(protagonistID, inverseType, inverseAmount, now)
		touched[targetID] = true
	}

	for characterID := range touched {
		result.Updated = append(result.Updated, characterID)
	}
	sort.Strings(result.Updated)
	return result
}
