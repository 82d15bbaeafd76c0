package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"

	apperrors "github.com/louisbranch/storyquest/internal/platform/errors"
	"github.com/louisbranch/storyquest/internal/services/progression/domain/ledger"
	"github.com/louisbranch/storyquest/internal/services/progression/domain/mission"
	"github.com/louisbranch/storyquest/internal/services/progression/domain/player"
	"github.com/louisbranch/storyquest/internal/services/progression/domain/progression"
	"github.com/louisbranch/storyquest/internal/services/progression/extract"
	"github.com/louisbranch/storyquest/internal/services/progression/filter"
	"github.com/louisbranch/storyquest/internal/services/progression/storage"
)

// CompletionResult describes every effect of a completed mission.
type CompletionResult struct {
	Mission  mission.Mission
	Player   player.Player
	Reward   ledger.Entry
	Progress progression.Result
	// Skipped lists character ids whose relationship effect was skipped
	// because the player never encountered them.
	Skipped []string
}

// FailureResult describes the effects of a failed mission.
type FailureResult struct {
	Mission mission.Mission
	Player  player.Player
	Skipped []string
}

// GeneratedMission is a mission created from generator output.
type GeneratedMission struct {
	Mission mission.Mission
	Record  extract.Record
}

// CreateMission persists an active mission and adds it to the player's
// active set.
func (s *Service) CreateMission(ctx context.Context, userID string, draft mission.Draft) (mission.Mission, error) {
	var created mission.Mission
	err := s.update(ctx, "create_mission", func(ctx context.Context, tx storage.Tx) error {
		var err error
		created, err = s.createMission(ctx, tx, userID, draft)
		return err
	})
	return created, err
}

// CreateMissionFromGeneration extracts a mission from raw generator output,
// resolves giver and target names through the character directory and
// creates it. Names without a match leave the id empty.
func (s *Service) CreateMissionFromGeneration(ctx context.Context, userID, storyID, raw string) (GeneratedMission, error) {
	if s == nil || s.store == nil {
		return GeneratedMission{}, errStoreNotConfigured
	}
	record, err := extract.Parse(raw)
	if err != nil {
		return GeneratedMission{}, err
	}
	if err := s.resolveNames(ctx, &record); err != nil {
		return GeneratedMission{}, classify("resolve_characters", err)
	}
	created, err := s.CreateMission(ctx, userID, record.Draft(storyID))
	if err != nil {
		return GeneratedMission{}, err
	}
	return GeneratedMission{Mission: created, Record: record}, nil
}

func (s *Service) resolveNames(ctx context.Context, record *extract.Record) error {
	if record.GiverID == "" && record.GiverName != "" {
		character, ok, err := s.directory.Resolve(ctx, record.GiverName)
		if err != nil {
			return err
		}
		if ok {
			record.GiverID = character.ID
		}
	}
	if record.TargetID == "" && record.TargetName != "" {
		character, ok, err := s.directory.Resolve(ctx, record.TargetName)
		if err != nil {
			return err
		}
		if ok {
			record.TargetID = character.ID
		}
	}
	return nil
}

func (s *Service) createMission(ctx context.Context, tx storage.Tx, userID string, draft mission.Draft) (mission.Mission, error) {
	p, opening, err := s.loadPlayer(ctx, tx, userID)
	if err != nil {
		return mission.Mission{}, err
	}
	missionID, err := s.idGenerator()
	if err != nil {
		return mission.Mission{}, err
	}
	now := s.now()
	m, err := mission.New(missionID, p.UserID, draft, now)
	if err != nil {
		return mission.Mission{}, err
	}
	p.ActivateMission(m.ID, now)
	if err := s.commitPlayer(ctx, tx, &p, opening); err != nil {
		return mission.Mission{}, err
	}
	if err := tx.CreateMission(ctx, m); err != nil {
		return mission.Mission{}, err
	}
	return m, nil
}

// UpdateMissionProgress sets progress on an active mission.
func (s *Service) UpdateMissionProgress(ctx context.Context, userID, missionID string, progress int, description string) (mission.Mission, error) {
	var updated mission.Mission
	err := s.update(ctx, "update_mission_progress", func(ctx context.Context, tx storage.Tx) error {
		m, err := loadMission(ctx, tx, userID, missionID)
		if err != nil {
			return err
		}
		if err := m.UpdateProgress(progress, description, s.now()); err != nil {
			return err
		}
		if err := tx.UpdateMission(ctx, m); err != nil {
			return err
		}
		updated = m
		return nil
	})
	return updated, err
}

// CompleteMission completes an active mission and applies its reward,
// experience and relationship effects in the same transaction.
func (s *Service) CompleteMission(ctx context.Context, userID, missionID string) (CompletionResult, error) {
	var result CompletionResult
	err := s.update(ctx, "complete_mission", func(ctx context.Context, tx storage.Tx) error {
		m, err := loadMission(ctx, tx, userID, missionID)
		if err != nil {
			return err
		}
		now := s.now()
		if err := m.Complete(now); err != nil {
			return err
		}
		p, entries, err := s.loadPlayer(ctx, tx, m.UserID)
		if err != nil {
			return err
		}
		p.ResolveMission(m.ID, player.BucketCompleted, now)

		reward, err := p.Credit(m.RewardCurrency, m.RewardAmount, ledger.Memo{
			Type:        ledger.TypeMissionReward,
			Description: "Mission reward: " + m.Title,
			StoryID:     m.StoryID,
		}, now)
		if err != nil {
			return err
		}
		entries = append(entries, reward)

		progress, err := progression.AddExperience(&p, m.Difficulty.ExperienceReward(), "Completed mission: "+m.Title, now)
		if err != nil {
			return err
		}
		if progress.Bonus != nil {
			entries = append(entries, *progress.Bonus)
		}

		var skipped []string
		skipped, err = adjustRelationship(&p, skipped, m, m.GiverCharacterID, mission.GiverCompletionDelta, "Successfully completed mission: "+m.Title)
		if err != nil {
			return err
		}
		skipped, err = adjustRelationship(&p, skipped, m, m.TargetCharacterID, mission.TargetCompletionDelta, "Targeted in mission: "+m.Title)
		if err != nil {
			return err
		}

		if err := s.commitPlayer(ctx, tx, &p, entries); err != nil {
			return err
		}
		if err := tx.UpdateMission(ctx, m); err != nil {
			return err
		}
		result = CompletionResult{Mission: m, Player: p, Reward: reward, Progress: progress, Skipped: skipped}
		return nil
	})
	if err != nil {
		return CompletionResult{}, err
	}
	logExperience(result.Player.UserID, result.Progress)
	return result, nil
}

// FailMission fails an active mission and sours the giver relationship.
func (s *Service) FailMission(ctx context.Context, userID, missionID, reason string) (FailureResult, error) {
	var result FailureResult
	err := s.update(ctx, "fail_mission", func(ctx context.Context, tx storage.Tx) error {
		m, err := loadMission(ctx, tx, userID, missionID)
		if err != nil {
			return err
		}
		now := s.now()
		if err := m.Fail(reason, now); err != nil {
			return err
		}
		p, entries, err := s.loadPlayer(ctx, tx, m.UserID)
		if err != nil {
			return err
		}
		p.ResolveMission(m.ID, player.BucketFailed, now)

		skipped, err := adjustRelationship(&p, nil, m, m.GiverCharacterID, mission.GiverFailureDelta, "Failed mission: "+m.Title)
		if err != nil {
			return err
		}
		if err := s.commitPlayer(ctx, tx, &p, entries); err != nil {
			return err
		}
		if err := tx.UpdateMission(ctx, m); err != nil {
			return err
		}
		result = FailureResult{Mission: m, Player: p, Skipped: skipped}
		return nil
	})
	return result, err
}

// adjustRelationship applies a mission's relationship effect. An empty
// character id is a no-op; a character the player never met is skipped and
// reported instead of aborting the mission.
func adjustRelationship(p *player.Player, skipped []string, m mission.Mission, characterID string, delta int, reason string) ([]string, error) {
	if characterID == "" {
		return skipped, nil
	}
	if !p.HasEncountered(characterID) {
		log.Printf("progression: skip relationship effect user_id=%s mission_id=%s character_id=%s delta=%d", p.UserID, m.ID, characterID, delta)
		return append(skipped, characterID), nil
	}
	if _, err := p.ChangeRelationship(characterID, delta, reason, m.UpdatedAt); err != nil {
		return skipped, err
	}
	return skipped, nil
}

// GetMission returns the mission when it exists and belongs to userID. A
// missing mission is reported through found, not as an error.
func (s *Service) GetMission(ctx context.Context, userID, missionID string) (mission.Mission, bool, error) {
	var (
		m     mission.Mission
		found bool
	)
	err := s.read(ctx, "get_mission", func(ctx context.Context) error {
		var err error
		m, err = loadMission(ctx, s.store, userID, missionID)
		if errors.Is(err, mission.ErrNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		found = true
		return nil
	})
	if err != nil || !found {
		return mission.Mission{}, false, err
	}
	return m, true, nil
}

// ListActiveMissions returns every active mission of the player. An unknown
// player has none.
func (s *Service) ListActiveMissions(ctx context.Context, userID string) ([]mission.Mission, error) {
	missions := []mission.Mission{}
	err := s.read(ctx, "list_active_missions", func(ctx context.Context) error {
		userID = strings.TrimSpace(userID)
		if userID == "" {
			return errEmptyUserID
		}
		condition := filter.SQLCondition{Clause: "status = ?", Params: []any{string(mission.StatusActive)}}
		token := ""
		for {
			page, err := s.store.ListMissions(ctx, userID, storage.ListOptions{Filter: condition, PageToken: token})
			if err != nil {
				return err
			}
			missions = append(missions, page.Missions...)
			if page.NextPageToken == "" {
				return nil
			}
			token = page.NextPageToken
		}
	})
	if err != nil {
		return []mission.Mission{}, err
	}
	return missions, nil
}

// ListMissions pages through the player's missions. filterStr is an AIP-160
// expression over status, difficulty, reward_currency, reward_amount,
// story_id, giver_id, target_id and created_at.
func (s *Service) ListMissions(ctx context.Context, userID, filterStr string, pageSize int, pageToken string) (storage.MissionPage, error) {
	var page storage.MissionPage
	err := s.read(ctx, "list_missions", func(ctx context.Context) error {
		userID = strings.TrimSpace(userID)
		if userID == "" {
			return errEmptyUserID
		}
		condition, err := filter.ParseMissionFilter(filterStr)
		if err != nil {
			return err
		}
		page, err = s.store.ListMissions(ctx, userID, storage.ListOptions{
			Filter:    condition,
			PageSize:  pageSize,
			PageToken: pageToken,
		})
		return err
	})
	if page.Missions == nil {
		page.Missions = []mission.Mission{}
	}
	return page, err
}

// loadMission reads a mission owned by userID. Missions of other users are
// reported as not found.
func loadMission(ctx context.Context, missions storage.MissionStore, userID, missionID string) (mission.Mission, error) {
	userID = strings.TrimSpace(userID)
	missionID = strings.TrimSpace(missionID)
	if userID == "" {
		return mission.Mission{}, errEmptyUserID
	}
	if missionID == "" {
		return mission.Mission{}, errEmptyMissionID
	}
	notFound := apperrors.Detail(mission.ErrNotFound, map[string]string{"mission_id": missionID})
	m, err := missions.GetMission(ctx, missionID)
	if errors.Is(err, storage.ErrNotFound) {
		return mission.Mission{}, notFound
	}
	if err != nil {
		return mission.Mission{}, fmt.Errorf("get mission %s: %w", missionID, err)
	}
	if m.UserID != userID {
		return mission.Mission{}, notFound
	}
	return m, nil
}
