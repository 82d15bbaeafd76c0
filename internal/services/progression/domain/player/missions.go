package player

import (
	"slices"
	"time"
)

// Bucket names one of the player's three mission sets.
type Bucket string

const (
	BucketActive    Bucket = "active"
	BucketCompleted Bucket = "completed"
	BucketFailed    Bucket = "failed"
)

// ActivateMission adds a mission id to the active set. It reports false when
// the id is already tracked in any set.
func (p *Player) ActivateMission(missionID string, now time.Time) bool {
	if _, ok := p.MissionBucket(missionID); ok {
		return false
	}
	p.ActiveMissions = append(p.ActiveMissions, missionID)
	p.UpdatedAt = now
	return true
}

// ResolveMission moves a mission id into the completed or failed set. The id
// is removed from every other set so it lives in exactly one.
func (p *Player) ResolveMission(missionID string, to Bucket, now time.Time) {
	p.ActiveMissions = remove(p.ActiveMissions, missionID)
	p.CompletedMissions = remove(p.CompletedMissions, missionID)
	p.FailedMissions = remove(p.FailedMissions, missionID)
	switch to {
	case BucketCompleted:
		p.CompletedMissions = append(p.CompletedMissions, missionID)
	case BucketFailed:
		p.FailedMissions = append(p.FailedMissions, missionID)
	default:
		p.ActiveMissions = append(p.ActiveMissions, missionID)
	}
	p.UpdatedAt = now
}

// MissionBucket returns the set holding missionID.
func (p Player) MissionBucket(missionID string) (Bucket, bool) {
	switch {
	case slices.Contains(p.ActiveMissions, missionID):
		return BucketActive, true
	case slices.Contains(p.CompletedMissions, missionID):
		return BucketCompleted, true
	case slices.Contains(p.FailedMissions, missionID):
		return BucketFailed, true
	default:
		return "", false
	}
}

func remove(ids []string, id string) []string {
	return slices.DeleteFunc(ids, func(candidate string) bool { return candidate == id })
}
