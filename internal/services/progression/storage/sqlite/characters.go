package sqlite

import (
	"context"
	"fmt"
	"strings"

	"github.com/louisbranch/storyquest/internal/services/progression/directory"
)

// ListCharacters returns the character directory ordered by id.
func (s *Store) ListCharacters(ctx context.Context) ([]directory.Character, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s == nil || s.sqlDB == nil {
		return nil, fmt.Errorf("storage is not configured")
	}
	rows, err := s.sqlDB.QueryContext(ctx, `SELECT id, name FROM characters ORDER BY id ASC`)
	if err != nil {
		return nil, classify("list characters", err)
	}
	defer rows.Close()

	var characters []directory.Character
	for rows.Next() {
		var character directory.Character
		if err := rows.Scan(&character.ID, &character.Name); err != nil {
			return nil, classify("list characters", err)
		}
		characters = append(characters, character)
	}
	if err := rows.Err(); err != nil {
		return nil, classify("list characters", err)
	}
	return characters, nil
}

// PutCharacters upserts directory entries.
func (s *Store) PutCharacters(ctx context.Context, characters []directory.Character) error {
	return s.withTx(ctx, func(tx *txStore) error {
		for _, character := range characters {
			id := strings.TrimSpace(character.ID)
			name := strings.TrimSpace(character.Name)
			if id == "" || name == "" {
				return fmt.Errorf("character id and name are required")
			}
			if _, err := tx.db.ExecContext(
				ctx,
				`INSERT INTO characters (id, name) VALUES (?, ?)
				 ON CONFLICT (id) DO UPDATE SET name = excluded.name`,
				id,
				name,
			); err != nil {
				return classify("put character", err)
			}
		}
		return nil
	})
}
