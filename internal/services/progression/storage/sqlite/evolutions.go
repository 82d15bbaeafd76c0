package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/louisbranch/storyquest/internal/services/progression/domain/evolution"
	"github.com/louisbranch/storyquest/internal/services/progression/storage"
)

const evolutionColumns = `user_id, character_id, story_id, status, role, traits_json,
		        relationships_json, plot_contributions_json, log_json,
		        first_appearance_at, updated_at`

func scanEvolution(row rowScanner) (evolution.Evolution, error) {
	var e evolution.Evolution
	var status, traitsJSON, relationshipsJSON, contributionsJSON, logJSON string
	var firstAppearanceAt, updatedAt int64
	if err := row.Scan(
		&e.UserID,
		&e.CharacterID,
		&e.StoryID,
		&status,
		&e.Role,
		&traitsJSON,
		&relationshipsJSON,
		&contributionsJSON,
		&logJSON,
		&firstAppearanceAt,
		&updatedAt,
	); err != nil {
		return evolution.Evolution{}, err
	}
	e.Status = evolution.Status(status)
	e.FirstAppearanceAt = fromMillis(firstAppearanceAt)
	e.UpdatedAt = fromMillis(updatedAt)

	decode := []struct {
		name   string
		data   string
		target any
	}{
		{"traits", traitsJSON, &e.Traits},
		{"relationships", relationshipsJSON, &e.Relationships},
		{"plot contributions", contributionsJSON, &e.PlotContributions},
		{"evolution log", logJSON, &e.Log},
	}
	for _, d := range decode {
		if err := json.Unmarshal([]byte(d.data), d.target); err != nil {
			return evolution.Evolution{}, fmt.Errorf("decode %s for %s: %w", d.name, e.CharacterID, err)
		}
	}
	if e.Relationships == nil {
		e.Relationships = map[string]evolution.Edge{}
	}
	return e, nil
}

// GetEvolution returns one character evolution record.
func (q queries) GetEvolution(ctx context.Context, key evolution.Key) (evolution.Evolution, error) {
	if err := ctx.Err(); err != nil {
		return evolution.Evolution{}, err
	}
	row := q.db.QueryRowContext(
		ctx,
		`SELECT `+evolutionColumns+`
		   FROM character_evolutions
		  WHERE user_id = ? AND story_id = ? AND character_id = ?`,
		strings.TrimSpace(key.UserID),
		strings.TrimSpace(key.StoryID),
		strings.TrimSpace(key.CharacterID),
	)
	e, err := scanEvolution(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return evolution.Evolution{}, storage.ErrNotFound
		}
		return evolution.Evolution{}, classify("get evolution", err)
	}
	return e, nil
}

// ListStoryEvolutions returns every record of one user's story.
func (q queries) ListStoryEvolutions(ctx context.Context, userID, storyID string) ([]evolution.Evolution, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	rows, err := q.db.QueryContext(
		ctx,
		`SELECT `+evolutionColumns+`
		   FROM character_evolutions
		  WHERE user_id = ? AND story_id = ?
		  ORDER BY character_id ASC`,
		strings.TrimSpace(userID),
		strings.TrimSpace(storyID),
	)
	if err != nil {
		return nil, classify("list story evolutions", err)
	}
	defer rows.Close()

	var records []evolution.Evolution
	for rows.Next() {
		e, err := scanEvolution(rows)
		if err != nil {
			return nil, classify("list story evolutions", err)
		}
		records = append(records, e)
	}
	if err := rows.Err(); err != nil {
		return nil, classify("list story evolutions", err)
	}
	return records, nil
}

// PutEvolution inserts or replaces a character evolution record.
func (q queries) PutEvolution(ctx context.Context, e evolution.Evolution) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if e.UserID == "" || e.CharacterID == "" || e.StoryID == "" {
		return fmt.Errorf("evolution key is required")
	}

	encoded := make([]string, 0, 4)
	for _, value := range []any{nonNilStrings(e.Traits), nonNilEdges(e.Relationships), nonNilContributions(e.PlotContributions), nonNilEvents(e.Log)} {
		data, err := json.Marshal(value)
		if err != nil {
			return fmt.Errorf("encode evolution for %s: %w", e.CharacterID, err)
		}
		encoded = append(encoded, string(data))
	}

	_, err := q.db.ExecContext(
		ctx,
		`INSERT INTO character_evolutions (
		   user_id, character_id, story_id, status, role, traits_json,
		   relationships_json, plot_contributions_json, log_json,
		   first_appearance_at, updated_at
		 ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT (user_id, story_id, character_id) DO UPDATE SET
		   status = excluded.status,
		   role = excluded.role,
		   traits_json = excluded.traits_json,
		   relationships_json = excluded.relationships_json,
		   plot_contributions_json = excluded.plot_contributions_json,
		   log_json = excluded.log_json,
		   updated_at = excluded.updated_at`,
		e.UserID,
		e.CharacterID,
		e.StoryID,
		string(e.Status),
		e.Role,
		encoded[0],
		encoded[1],
		encoded[2],
		encoded[3],
		toMillis(e.FirstAppearanceAt),
		toMillis(e.UpdatedAt),
	)
	if err != nil {
		return classify("put evolution", err)
	}
	return nil
}

func nonNilStrings(values []string) []string {
	if values == nil {
		return []string{}
	}
	return values
}

func nonNilEdges(values map[string]evolution.Edge) map[string]evolution.Edge {
	if values == nil {
		return map[string]evolution.Edge{}
	}
	return values
}

func nonNilContributions(values []evolution.PlotContribution) []evolution.PlotContribution {
	if values == nil {
		return []evolution.PlotContribution{}
	}
	return values
}

func nonNilEvents(values []evolution.Event) []evolution.Event {
	if values == nil {
		return []evolution.Event{}
	}
	return values
}

// PutEvolution writes a record in its own transaction.
func (s *Store) PutEvolution(ctx context.Context, e evolution.Evolution) error {
	return s.WithTx(ctx, func(tx storage.Tx) error {
		return tx.PutEvolution(ctx, e)
	})
}
