package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/louisbranch/storyquest/internal/services/progression/domain/currency"
	"github.com/louisbranch/storyquest/internal/services/progression/domain/ledger"
	"github.com/louisbranch/storyquest/internal/services/progression/domain/player"
	"github.com/louisbranch/storyquest/internal/services/progression/storage"
)

type relationshipChangeRecord struct {
	Delta  int    `json:"delta"`
	Reason string `json:"reason"`
	At     int64  `json:"at"`
}

// GetPlayer loads a player with balances, mission sets and encounters.
func (q queries) GetPlayer(ctx context.Context, userID string) (player.Player, error) {
	if err := ctx.Err(); err != nil {
		return player.Player{}, err
	}
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return player.Player{}, fmt.Errorf("user id is required")
	}

	var p player.Player
	var createdAt, updatedAt int64
	err := q.db.QueryRowContext(
		ctx,
		`SELECT user_id, level, experience_points, current_story_id, current_node_id,
		        version, created_at, updated_at
		   FROM players
		  WHERE user_id = ?`,
		userID,
	).Scan(
		&p.UserID,
		&p.Level,
		&p.ExperiencePoints,
		&p.CurrentStoryID,
		&p.CurrentNodeID,
		&p.Version,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return player.Player{}, storage.ErrNotFound
		}
		return player.Player{}, classify("get player", err)
	}
	p.CreatedAt = fromMillis(createdAt)
	p.UpdatedAt = fromMillis(updatedAt)

	if p.Balances, err = q.loadBalances(ctx, userID); err != nil {
		return player.Player{}, err
	}
	if err := q.loadMissionSets(ctx, &p); err != nil {
		return player.Player{}, err
	}
	if p.Encounters, err = q.loadEncounters(ctx, userID); err != nil {
		return player.Player{}, err
	}
	return p, nil
}

func (q queries) loadBalances(ctx context.Context, userID string) (ledger.Balances, error) {
	rows, err := q.db.QueryContext(ctx, `SELECT currency, amount FROM player_balances WHERE user_id = ?`, userID)
	if err != nil {
		return nil, classify("load balances", err)
	}
	defer rows.Close()

	balances := ledger.Balances{}
	for rows.Next() {
		var code string
		var amount int
		if err := rows.Scan(&code, &amount); err != nil {
			return nil, classify("load balances", err)
		}
		balances[currency.Code(code)] = amount
	}
	if err := rows.Err(); err != nil {
		return nil, classify("load balances", err)
	}
	return balances, nil
}

func (q queries) loadMissionSets(ctx context.Context, p *player.Player) error {
	rows, err := q.db.QueryContext(
		ctx,
		`SELECT mission_id, bucket FROM player_missions WHERE user_id = ? ORDER BY position ASC`,
		p.UserID,
	)
	if err != nil {
		return classify("load mission sets", err)
	}
	defer rows.Close()

	for rows.Next() {
		var missionID, bucket string
		if err := rows.Scan(&missionID, &bucket); err != nil {
			return classify("load mission sets", err)
		}
		switch player.Bucket(bucket) {
		case player.BucketActive:
			p.ActiveMissions = append(p.ActiveMissions, missionID)
		case player.BucketCompleted:
			p.CompletedMissions = append(p.CompletedMissions, missionID)
		case player.BucketFailed:
			p.FailedMissions = append(p.FailedMissions, missionID)
		}
	}
	if err := rows.Err(); err != nil {
		return classify("load mission sets", err)
	}
	return nil
}

func (q queries) loadEncounters(ctx context.Context, userID string) (map[string]player.Encounter, error) {
	rows, err := q.db.QueryContext(
		ctx,
		`SELECT character_id, name, relationship_level, encounter_count,
		        first_encounter_at, last_encounter_at, relationship_history_json
		   FROM encountered_characters
		  WHERE user_id = ?`,
		userID,
	)
	if err != nil {
		return nil, classify("load encounters", err)
	}
	defer rows.Close()

	encounters := map[string]player.Encounter{}
	for rows.Next() {
		var encounter player.Encounter
		var firstAt, lastAt int64
		var historyJSON string
		if err := rows.Scan(
			&encounter.CharacterID,
			&encounter.Name,
			&encounter.RelationshipLevel,
			&encounter.EncounterCount,
			&firstAt,
			&lastAt,
			&historyJSON,
		); err != nil {
			return nil, classify("load encounters", err)
		}
		encounter.FirstEncounterAt = fromMillis(firstAt)
		encounter.LastEncounterAt = fromMillis(lastAt)

		var history []relationshipChangeRecord
		if err := json.Unmarshal([]byte(historyJSON), &history); err != nil {
			return nil, fmt.Errorf("decode relationship history for %s: %w", encounter.CharacterID, err)
		}
		for _, record := range history {
			encounter.History = append(encounter.History, player.RelationshipChange{
				Delta:  record.Delta,
				Reason: record.Reason,
				At:     fromMillis(record.At),
			})
		}
		encounters[encounter.CharacterID] = encounter
	}
	if err := rows.Err(); err != nil {
		return nil, classify("load encounters", err)
	}
	return encounters, nil
}

// PutPlayer writes the player row and replaces its child rows.
func (q queries) PutPlayer(ctx context.Context, p player.Player) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	userID := strings.TrimSpace(p.UserID)
	if userID == "" {
		return 0, fmt.Errorf("user id is required")
	}

	var version int64
	if p.Version == 0 {
		_, err := q.db.ExecContext(
			ctx,
			`INSERT INTO players (
			   user_id, level, experience_points, current_story_id, current_node_id,
			   version, created_at, updated_at
			 ) VALUES (?, ?, ?, ?, ?, 1, ?, ?)`,
			userID,
			p.Level,
			p.ExperiencePoints,
			p.CurrentStoryID,
			p.CurrentNodeID,
			toMillis(p.CreatedAt),
			toMillis(p.UpdatedAt),
		)
		if err != nil {
			if isUniqueViolation(err) {
				return 0, fmt.Errorf("insert player %s: %w", userID, storage.ErrConflict)
			}
			return 0, classify("insert player", err)
		}
		version = 1
	} else {
		result, err := q.db.ExecContext(
			ctx,
			`UPDATE players
			    SET level = ?, experience_points = ?, current_story_id = ?, current_node_id = ?,
			        version = version + 1, updated_at = ?
			  WHERE user_id = ? AND version = ?`,
			p.Level,
			p.ExperiencePoints,
			p.CurrentStoryID,
			p.CurrentNodeID,
			toMillis(p.UpdatedAt),
			userID,
			p.Version,
		)
		if err != nil {
			return 0, classify("update player", err)
		}
		affected, err := result.RowsAffected()
		if err != nil {
			return 0, classify("update player", err)
		}
		if affected == 0 {
			return 0, fmt.Errorf("update player %s at version %d: %w", userID, p.Version, storage.ErrConflict)
		}
		version = p.Version + 1
	}

	if err := q.replaceBalances(ctx, userID, p.Balances); err != nil {
		return 0, err
	}
	if err := q.replaceMissionSets(ctx, p); err != nil {
		return 0, err
	}
	if err := q.replaceEncounters(ctx, userID, p.Encounters); err != nil {
		return 0, err
	}
	return version, nil
}

func (q queries) replaceBalances(ctx context.Context, userID string, balances ledger.Balances) error {
	if _, err := q.db.ExecContext(ctx, `DELETE FROM player_balances WHERE user_id = ?`, userID); err != nil {
		return classify("clear balances", err)
	}
	for _, code := range currency.Sorted(balances) {
		if _, err := q.db.ExecContext(
			ctx,
			`INSERT INTO player_balances (user_id, currency, amount) VALUES (?, ?, ?)`,
			userID,
			string(code),
			balances[code],
		); err != nil {
			return classify("write balance", err)
		}
	}
	return nil
}

func (q queries) replaceMissionSets(ctx context.Context, p player.Player) error {
	if _, err := q.db.ExecContext(ctx, `DELETE FROM player_missions WHERE user_id = ?`, p.UserID); err != nil {
		return classify("clear mission sets", err)
	}
	sets := []struct {
		bucket player.Bucket
		ids    []string
	}{
		{player.BucketActive, p.ActiveMissions},
		{player.BucketCompleted, p.CompletedMissions},
		{player.BucketFailed, p.FailedMissions},
	}
	for _, set := range sets {
		for position, missionID := range set.ids {
			if _, err := q.db.ExecContext(
				ctx,
				`INSERT INTO player_missions (user_id, mission_id, bucket, position) VALUES (?, ?, ?, ?)`,
				p.UserID,
				missionID,
				string(set.bucket),
				position,
			); err != nil {
				return classify("write mission set", err)
			}
		}
	}
	return nil
}

func (q queries) replaceEncounters(ctx context.Context, userID string, encounters map[string]player.Encounter) error {
	if _, err := q.db.ExecContext(ctx, `DELETE FROM encountered_characters WHERE user_id = ?`, userID); err != nil {
		return classify("clear encounters", err)
	}
	for characterID, encounter := range encounters {
		history := make([]relationshipChangeRecord, 0, len(encounter.History))
		for _, change := range encounter.History {
			history = append(history, relationshipChangeRecord{
				Delta:  change.Delta,
				Reason: change.Reason,
				At:     toMillis(change.At),
			})
		}
		historyJSON, err := json.Marshal(history)
		if err != nil {
			return fmt.Errorf("encode relationship history for %s: %w", characterID, err)
		}
		if _, err := q.db.ExecContext(
			ctx,
			`INSERT INTO encountered_characters (
			   user_id, character_id, name, relationship_level, encounter_count,
			   first_encounter_at, last_encounter_at, relationship_history_json
			 ) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			userID,
			characterID,
			encounter.Name,
			encounter.RelationshipLevel,
			encounter.EncounterCount,
			toMillis(encounter.FirstEncounterAt),
			toMillis(encounter.LastEncounterAt),
			string(historyJSON),
		); err != nil {
			return classify("write encounter", err)
		}
	}
	return nil
}

// PutPlayer writes the player in its own transaction.
func (s *Store) PutPlayer(ctx context.Context, p player.Player) (int64, error) {
	var version int64
	err := s.WithTx(ctx, func(tx storage.Tx) error {
		var err error
		version, err = tx.PutPlayer(ctx, p)
		return err
	})
	return version, err
}
