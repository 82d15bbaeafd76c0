package service

import (
	"context"
	"errors"
	"log"
	"strings"

	apperrors "github.com/louisbranch/storyquest/internal/platform/errors"
	"github.com/louisbranch/storyquest/internal/services/progression/domain/evolution"
	"github.com/louisbranch/storyquest/internal/services/progression/domain/player"
	"github.com/louisbranch/storyquest/internal/services/progression/storage"
)

// EncounterCharacter records that the player met a character. Only the first
// encounter uses initialRelationship.
func (s *Service) EncounterCharacter(ctx context.Context, userID, characterID, name string, initialRelationship int) (player.Encounter, error) {
	var encounter player.Encounter
	err := s.update(ctx, "encounter_character", func(ctx context.Context, tx storage.Tx) error {
		p, opening, err := s.loadPlayer(ctx, tx, userID)
		if err != nil {
			return err
		}
		encounter, err = p.EncounterCharacter(characterID, strings.TrimSpace(name), initialRelationship, s.now())
		if err != nil {
			return err
		}
		return s.commitPlayer(ctx, tx, &p, opening)
	})
	return encounter, err
}

// ChangeRelationship adjusts the player's relationship level with a character
// they have encountered.
func (s *Service) ChangeRelationship(ctx context.Context, userID, characterID string, delta int, reason string) (player.Encounter, error) {
	var encounter player.Encounter
	err := s.update(ctx, "change_relationship", func(ctx context.Context, tx storage.Tx) error {
		p, opening, err := s.loadPlayer(ctx, tx, userID)
		if err != nil {
			return err
		}
		encounter, err = p.ChangeRelationship(strings.TrimSpace(characterID), delta, reason, s.now())
		if err != nil {
			return err
		}
		return s.commitPlayer(ctx, tx, &p, opening)
	})
	return encounter, err
}

// EnsureCharacterEvolution returns the character's record in the story,
// creating it with role on first participation. An existing record keeps
// its role.
func (s *Service) EnsureCharacterEvolution(ctx context.Context, key evolution.Key, role string) (evolution.Evolution, error) {
	var record evolution.Evolution
	err := s.update(ctx, "ensure_character_evolution", func(ctx context.Context, tx storage.Tx) error {
		e, created, err := s.loadEvolution(ctx, tx, key, role)
		if err != nil {
			return err
		}
		if created {
			if err := tx.PutEvolution(ctx, e); err != nil {
				return err
			}
		}
		record = e
		return nil
	})
	return record, err
}

// GetCharacterEvolution returns the character's record in the story. A
// missing record is reported through found.
func (s *Service) GetCharacterEvolution(ctx context.Context, key evolution.Key) (evolution.Evolution, bool, error) {
	var (
		record evolution.Evolution
		found  bool
	)
	err := s.read(ctx, "get_character_evolution", func(ctx context.Context) error {
		e, err := s.store.GetEvolution(ctx, normalizeKey(key))
		if errors.Is(err, storage.ErrNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		record, found = e, true
		return nil
	})
	return record, found, err
}

// ListStoryEvolutions returns every character record of the user's story.
func (s *Service) ListStoryEvolutions(ctx context.Context, userID, storyID string) ([]evolution.Evolution, error) {
	records := []evolution.Evolution{}
	err := s.read(ctx, "list_story_evolutions", func(ctx context.Context) error {
		found, err := s.store.ListStoryEvolutions(ctx, strings.TrimSpace(userID), strings.TrimSpace(storyID))
		if err != nil {
			return err
		}
		records = append(records, found...)
		return nil
	})
	return records, err
}

// AddTrait adds a trait to the character. It reports false when the trait
// was already present.
func (s *Service) AddTrait(ctx context.Context, key evolution.Key, trait, reason string) (bool, error) {
	var added bool
	err := s.mutateEvolution(ctx, "add_trait", key, func(e *evolution.Evolution) (bool, error) {
		var err error
		added, err = e.AddTrait(trait, reason, s.now())
		return added, err
	})
	return added, err
}

// UpdateRole changes the character's role in the story.
func (s *Service) UpdateRole(ctx context.Context, key evolution.Key, role, reason string) (evolution.Evolution, error) {
	var record evolution.Evolution
	err := s.mutateEvolution(ctx, "update_role", key, func(e *evolution.Evolution) (bool, error) {
		e.UpdateRole(role, reason, s.now())
		record = *e
		return true, nil
	})
	return record, err
}

// SetCharacterStatus marks the character active, deceased or missing.
func (s *Service) SetCharacterStatus(ctx context.Context, key evolution.Key, status, reason string) (evolution.Evolution, error) {
	parsed, ok := evolution.ParseStatus(status)
	if !ok {
		return evolution.Evolution{}, apperrors.Detail(evolution.ErrInvalidStatus, map[string]string{"status": status})
	}
	var record evolution.Evolution
	err := s.mutateEvolution(ctx, "set_character_status", key, func(e *evolution.Evolution) (bool, error) {
		if err := e.SetStatus(parsed, reason, s.now()); err != nil {
			return false, err
		}
		record = *e
		return true, nil
	})
	return record, err
}

// AddRelationship upserts the character's directed edge to targetID. The
// reverse edge is left alone.
func (s *Service) AddRelationship(ctx context.Context, key evolution.Key, targetID, relationshipType string, strength int) (evolution.Edge, error) {
	targetID = strings.TrimSpace(targetID)
	if targetID == "" {
		return evolution.Edge{}, player.ErrEmptyCharacterID
	}
	var edge evolution.Edge
	err := s.mutateEvolution(ctx, "add_relationship", key, func(e *evolution.Evolution) (bool, error) {
		edge = e.AddRelationship(targetID, relationshipType, strength, s.now())
		return true, nil
	})
	return edge, err
}

// AddPlotContribution records the character's part in a plot point.
func (s *Service) AddPlotContribution(ctx context.Context, key evolution.Key, plotPoint string, importance int) (evolution.Evolution, error) {
	var record evolution.Evolution
	err := s.mutateEvolution(ctx, "add_plot_contribution", key, func(e *evolution.Evolution) (bool, error) {
		if err := e.AddPlotContribution(plotPoint, importance, s.now()); err != nil {
			return false, err
		}
		record = *e
		return true, nil
	})
	return record, err
}

// RecordStoryInteraction logs a preview of a story passage the character
// took part in.
func (s *Service) RecordStoryInteraction(ctx context.Context, key evolution.Key, storyContext string) (evolution.Evolution, error) {
	var record evolution.Evolution
	err := s.mutateEvolution(ctx, "record_story_interaction", key, func(e *evolution.Evolution) (bool, error) {
		e.RecordStoryInteraction(storyContext, s.now())
		record = *e
		return true, nil
	})
	return record, err
}

// UpdateCharacterRelationships applies a protagonist's relationship changes
// to several characters of one story in both directions. Targets without an
// evolution record are skipped and reported.
func (s *Service) UpdateCharacterRelationships(ctx context.Context, userID, storyID, protagonistID string, changes map[string]evolution.RelationshipChange) (evolution.BatchResult, error) {
	var result evolution.BatchResult
	err := s.update(ctx, "update_character_relationships", func(ctx context.Context, tx storage.Tx) error {
		userID = strings.TrimSpace(userID)
		if userID == "" {
			return errEmptyUserID
		}
		protagonistID = strings.TrimSpace(protagonistID)
		if protagonistID == "" {
			return player.ErrEmptyCharacterID
		}
		existing, err := tx.ListStoryEvolutions(ctx, userID, strings.TrimSpace(storyID))
		if err != nil {
			return err
		}
		records := make(map[string]*evolution.Evolution, len(existing))
		for i := range existing {
			records[existing[i].CharacterID] = &existing[i]
		}

		result = evolution.UpdateRelationships(records, protagonistID, changes, s.now())
		for _, targetID := range result.Skipped {
			log.Printf("progression: skip relationship batch target user_id=%s story_id=%s character_id=%s", userID, storyID, targetID)
		}
		for _, characterID := range result.Updated {
			if err := tx.PutEvolution(ctx, *records[characterID]); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return evolution.BatchResult{}, err
	}
	return result, nil
}

// mutateEvolution loads an existing record, applies fn and writes the record
// back when fn reports a change. A missing record is NOT_FOUND; records are
// created only through EnsureCharacterEvolution.
func (s *Service) mutateEvolution(ctx context.Context, op string, key evolution.Key, fn func(e *evolution.Evolution) (bool, error)) error {
	key = normalizeKey(key)
	if key.UserID == "" || key.CharacterID == "" || key.StoryID == "" {
		return evolution.ErrEmptyKey
	}
	return s.update(ctx, op, func(ctx context.Context, tx storage.Tx) error {
		e, err := tx.GetEvolution(ctx, key)
		if errors.Is(err, storage.ErrNotFound) {
			return apperrors.Detail(evolution.ErrNotFound, map[string]string{
				"user_id":      key.UserID,
				"character_id": key.CharacterID,
				"story_id":     key.StoryID,
			})
		}
		if err != nil {
			return err
		}
		changed, err := fn(&e)
		if err != nil || !changed {
			return err
		}
		return tx.PutEvolution(ctx, e)
	})
}

// loadEvolution returns the stored record or a new one. The owning player is
// created first when missing.
func (s *Service) loadEvolution(ctx context.Context, tx storage.Tx, key evolution.Key, role string) (evolution.Evolution, bool, error) {
	key = normalizeKey(key)
	e, err := tx.GetEvolution(ctx, key)
	if err == nil {
		return e, false, nil
	}
	if !errors.Is(err, storage.ErrNotFound) {
		return evolution.Evolution{}, false, err
	}
	e, err = evolution.New(key, role, s.now())
	if err != nil {
		return evolution.Evolution{}, false, err
	}
	if _, err := s.ensurePlayer(ctx, tx, key.UserID); err != nil {
		return evolution.Evolution{}, false, err
	}
	return e, true, nil
}

func normalizeKey(key evolution.Key) evolution.Key {
	return evolution.Key{
		UserID:      strings.TrimSpace(key.UserID),
		CharacterID: strings.TrimSpace(key.CharacterID),
		StoryID:     strings.TrimSpace(key.StoryID),
	}
}
