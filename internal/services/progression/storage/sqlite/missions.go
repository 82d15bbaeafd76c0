package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/louisbranch/storyquest/internal/services/progression/domain/currency"
	"github.com/louisbranch/storyquest/internal/services/progression/domain/mission"
	"github.com/louisbranch/storyquest/internal/services/progression/storage"
)

type progressLogRecord struct {
	Progress    int    `json:"progress"`
	Status      string `json:"status,omitempty"`
	Description string `json:"description,omitempty"`
	Reason      string `json:"reason,omitempty"`
	At          int64  `json:"at"`
}

const missionColumns = `id, user_id, title, description, giver_character_id, target_character_id,
		        objective, difficulty, reward_currency, reward_amount, status, progress,
		        progress_log_json, deadline_text, story_id, created_at, updated_at, completed_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanMission(row rowScanner) (mission.Mission, error) {
	var m mission.Mission
	var difficulty, rewardCurrency, status, logJSON string
	var createdAt, updatedAt int64
	var completedAt sql.NullInt64
	if err := row.Scan(
		&m.ID,
		&m.UserID,
		&m.Title,
		&m.Description,
		&m.GiverCharacterID,
		&m.TargetCharacterID,
		&m.Objective,
		&difficulty,
		&rewardCurrency,
		&m.RewardAmount,
		&status,
		&m.Progress,
		&logJSON,
		&m.DeadlineText,
		&m.StoryID,
		&createdAt,
		&updatedAt,
		&completedAt,
	); err != nil {
		return mission.Mission{}, err
	}
	m.Difficulty = mission.Difficulty(difficulty)
	m.RewardCurrency = currency.Code(rewardCurrency)
	m.Status = mission.Status(status)
	m.CreatedAt = fromMillis(createdAt)
	m.UpdatedAt = fromMillis(updatedAt)
	if completedAt.Valid {
		value := fromMillis(completedAt.Int64)
		m.CompletedAt = &value
	}

	var records []progressLogRecord
	if err := json.Unmarshal([]byte(logJSON), &records); err != nil {
		return mission.Mission{}, fmt.Errorf("decode progress log for %s: %w", m.ID, err)
	}
	for _, record := range records {
		m.Log = append(m.Log, mission.LogEntry{
			Progress:    record.Progress,
			Status:      mission.Status(record.Status),
			Description: record.Description,
			Reason:      record.Reason,
			At:          fromMillis(record.At),
		})
	}
	return m, nil
}

func encodeProgressLog(entries []mission.LogEntry) (string, error) {
	records := make([]progressLogRecord, 0, len(entries))
	for _, entry := range entries {
		records = append(records, progressLogRecord{
			Progress:    entry.Progress,
			Status:      string(entry.Status),
			Description: entry.Description,
			Reason:      entry.Reason,
			At:          toMillis(entry.At),
		})
	}
	data, err := json.Marshal(records)
	if err != nil {
		return "", fmt.Errorf("encode progress log: %w", err)
	}
	return string(data), nil
}

func completedMillis(m mission.Mission) any {
	if m.CompletedAt == nil {
		return nil
	}
	return toMillis(*m.CompletedAt)
}

// GetMission returns one mission by id.
func (q queries) GetMission(ctx context.Context, missionID string) (mission.Mission, error) {
	if err := ctx.Err(); err != nil {
		return mission.Mission{}, err
	}
	missionID = strings.TrimSpace(missionID)
	if missionID == "" {
		return mission.Mission{}, fmt.Errorf("mission id is required")
	}

	row := q.db.QueryRowContext(ctx, `SELECT `+missionColumns+` FROM missions WHERE id = ?`, missionID)
	m, err := scanMission(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return mission.Mission{}, storage.ErrNotFound
		}
		return mission.Mission{}, classify("get mission", err)
	}
	return m, nil
}

// CreateMission inserts a new mission.
func (q queries) CreateMission(ctx context.Context, m mission.Mission) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if strings.TrimSpace(m.ID) == "" {
		return fmt.Errorf("mission id is required")
	}
	logJSON, err := encodeProgressLog(m.Log)
	if err != nil {
		return err
	}

	_, err = q.db.ExecContext(
		ctx,
		`INSERT INTO missions (
		   id, user_id, title, description, giver_character_id, target_character_id,
		   objective, difficulty, reward_currency, reward_amount, status, progress,
		   progress_log_json, deadline_text, story_id, created_at, updated_at, completed_at
		 ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		m.ID,
		m.UserID,
		m.Title,
		m.Description,
		m.GiverCharacterID,
		m.TargetCharacterID,
		m.Objective,
		string(m.Difficulty),
		string(m.RewardCurrency),
		m.RewardAmount,
		string(m.Status),
		m.Progress,
		logJSON,
		m.DeadlineText,
		m.StoryID,
		toMillis(m.CreatedAt),
		toMillis(m.UpdatedAt),
		completedMillis(m),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return storage.ErrAlreadyExists
		}
		return classify("create mission", err)
	}
	return nil
}

// UpdateMission writes the mutable mission fields.
func (q queries) UpdateMission(ctx context.Context, m mission.Mission) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	logJSON, err := encodeProgressLog(m.Log)
	if err != nil {
		return err
	}

	result, err := q.db.ExecContext(
		ctx,
		`UPDATE missions
		    SET status = ?, progress = ?, progress_log_json = ?, updated_at = ?, completed_at = ?
		  WHERE id = ?`,
		string(m.Status),
		m.Progress,
		logJSON,
		toMillis(m.UpdatedAt),
		completedMillis(m),
		m.ID,
	)
	if err != nil {
		return classify("update mission", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return classify("update mission", err)
	}
	if affected == 0 {
		return storage.ErrNotFound
	}
	return nil
}

// ListMissions returns one page of a user's missions in creation order.
func (s *Store) ListMissions(ctx context.Context, userID string, opts storage.ListOptions) (storage.MissionPage, error) {
	if err := ctx.Err(); err != nil {
		return storage.MissionPage{}, err
	}
	if s == nil || s.sqlDB == nil {
		return storage.MissionPage{}, fmt.Errorf("storage is not configured")
	}
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return storage.MissionPage{}, fmt.Errorf("user id is required")
	}
	pageSize := normalizePageSize(opts.PageSize)
	cursor, err := parseCursor(opts.PageToken)
	if err != nil {
		return storage.MissionPage{}, err
	}

	args := []any{userID, cursor}
	args = append(args, opts.Filter.Params...)
	args = append(args, pageSize+1)
	rows, err := s.sqlDB.QueryContext(
		ctx,
		`SELECT rowid, `+missionColumns+`
		   FROM missions
		  WHERE user_id = ? AND rowid > ?`+whereFilter(opts.Filter.Clause)+`
		  ORDER BY rowid ASC
		  LIMIT ?`,
		args...,
	)
	if err != nil {
		return storage.MissionPage{}, classify("list missions", err)
	}
	defer rows.Close()

	page := storage.MissionPage{Missions: make([]mission.Mission, 0, pageSize)}
	var rowIDs []int64
	for rows.Next() {
		var rowID int64
		m, err := scanMission(scannerFunc(func(dest ...any) error {
			return rows.Scan(append([]any{&rowID}, dest...)...)
		}))
		if err != nil {
			return storage.MissionPage{}, classify("list missions", err)
		}
		rowIDs = append(rowIDs, rowID)
		page.Missions = append(page.Missions, m)
	}
	if err := rows.Err(); err != nil {
		return storage.MissionPage{}, classify("list missions", err)
	}
	if len(page.Missions) > pageSize {
		page.NextPageToken = strconv.FormatInt(rowIDs[pageSize-1], 10)
		page.Missions = page.Missions[:pageSize]
	}
	return page, nil
}

type scannerFunc func(dest ...any) error

func (f scannerFunc) Scan(dest ...any) error {
	return f(dest...)
}

// CreateMission inserts a mission in its own transaction.
func (s *Store) CreateMission(ctx context.Context, m mission.Mission) error {
	return s.WithTx(ctx, func(tx storage.Tx) error {
		return tx.CreateMission(ctx, m)
	})
}

// UpdateMission updates a mission in its own transaction.
func (s *Store) UpdateMission(ctx context.Context, m mission.Mission) error {
	return s.WithTx(ctx, func(tx storage.Tx) error {
		return tx.UpdateMission(ctx, m)
	})
}
