package sqlite

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/louisbranch/storyquest/internal/services/progression/domain/currency"
	"github.com/louisbranch/storyquest/internal/services/progression/domain/ledger"
	"github.com/louisbranch/storyquest/internal/services/progression/domain/player"
	"github.com/louisbranch/storyquest/internal/services/progression/storage"
)

// AppendLedgerEntries appends entries after the user's last sequence number.
func (q queries) AppendLedgerEntries(ctx context.Context, entries []ledger.Entry) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	next := map[string]int64{}
	for _, entry := range entries {
		userID := strings.TrimSpace(entry.UserID)
		if userID == "" {
			return fmt.Errorf("ledger entry user id is required")
		}
		if strings.TrimSpace(entry.ID) == "" {
			return fmt.Errorf("ledger entry id is required")
		}
		seq, ok := next[userID]
		if !ok {
			if err := q.db.QueryRowContext(
				ctx,
				`SELECT COALESCE(MAX(seq), 0) FROM ledger_entries WHERE user_id = ?`,
				userID,
			).Scan(&seq); err != nil {
				return classify("read ledger sequence", err)
			}
		}
		seq++
		next[userID] = seq

		if _, err := q.db.ExecContext(
			ctx,
			`INSERT INTO ledger_entries (
			   id, user_id, seq, entry_type, from_currency, to_currency, amount,
			   description, story_id, story_node_id, created_at
			 ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			entry.ID,
			userID,
			seq,
			entry.Type,
			string(entry.FromCurrency),
			string(entry.ToCurrency),
			entry.Amount,
			entry.Description,
			entry.StoryID,
			entry.StoryNodeID,
			toMillis(entry.At),
		); err != nil {
			if isUniqueViolation(err) {
				return fmt.Errorf("append ledger entry: %w", storage.ErrConflict)
			}
			return classify("append ledger entry", err)
		}
	}
	return nil
}

// AppendChoice appends one entry to the user's choice history.
func (q queries) AppendChoice(ctx context.Context, userID string, choice player.Choice) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return fmt.Errorf("user id is required")
	}
	_, err := q.db.ExecContext(
		ctx,
		`INSERT INTO choice_history (user_id, seq, choice_id, choice_text, node_id, story_id, created_at)
		 SELECT ?, COALESCE(MAX(seq), 0) + 1, ?, ?, ?, ?, ?
		   FROM choice_history
		  WHERE user_id = ?`,
		userID,
		choice.ChoiceID,
		choice.ChoiceText,
		choice.NodeID,
		choice.StoryID,
		toMillis(choice.At),
		userID,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("append choice: %w", storage.ErrConflict)
		}
		return classify("append choice", err)
	}
	return nil
}

// ListLedgerEntries returns one page of a user's entries in append order.
func (s *Store) ListLedgerEntries(ctx context.Context, userID string, opts storage.ListOptions) (storage.LedgerPage, error) {
	if err := ctx.Err(); err != nil {
		return storage.LedgerPage{}, err
	}
	if s == nil || s.sqlDB == nil {
		return storage.LedgerPage{}, fmt.Errorf("storage is not configured")
	}
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return storage.LedgerPage{}, fmt.Errorf("user id is required")
	}
	pageSize := normalizePageSize(opts.PageSize)
	cursor, err := parseCursor(opts.PageToken)
	if err != nil {
		return storage.LedgerPage{}, err
	}

	args := []any{userID, cursor}
	args = append(args, opts.Filter.Params...)
	args = append(args, pageSize+1)
	rows, err := s.sqlDB.QueryContext(
		ctx,
		`SELECT id, user_id, seq, entry_type, from_currency, to_currency, amount,
		        description, story_id, story_node_id, created_at
		   FROM ledger_entries
		  WHERE user_id = ? AND seq > ?`+whereFilter(opts.Filter.Clause)+`
		  ORDER BY seq ASC
		  LIMIT ?`,
		args...,
	)
	if err != nil {
		return storage.LedgerPage{}, classify("list ledger entries", err)
	}
	defer rows.Close()

	page := storage.LedgerPage{Entries: make([]ledger.Entry, 0, pageSize)}
	for rows.Next() {
		var entry ledger.Entry
		var fromCurrency, toCurrency string
		var createdAt int64
		if err := rows.Scan(
			&entry.ID,
			&entry.UserID,
			&entry.Seq,
			&entry.Type,
			&fromCurrency,
			&toCurrency,
			&entry.Amount,
			&entry.Description,
			&entry.StoryID,
			&entry.StoryNodeID,
			&createdAt,
		); err != nil {
			return storage.LedgerPage{}, classify("list ledger entries", err)
		}
		entry.FromCurrency = currency.Code(fromCurrency)
		entry.ToCurrency = currency.Code(toCurrency)
		entry.At = fromMillis(createdAt)
		page.Entries = append(page.Entries, entry)
	}
	if err := rows.Err(); err != nil {
		return storage.LedgerPage{}, classify("list ledger entries", err)
	}
	if len(page.Entries) > pageSize {
		page.NextPageToken = strconv.FormatInt(page.Entries[pageSize-1].Seq, 10)
		page.Entries = page.Entries[:pageSize]
	}
	return page, nil
}

// LedgerTotals sums credits minus debits per currency. Inside a transaction
// it sees the same snapshot as the player's balances.
func (q queries) LedgerTotals(ctx context.Context, userID string) (map[currency.Code]int, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if q.db == nil {
		return nil, fmt.Errorf("storage is not configured")
	}
	rows, err := q.db.QueryContext(
		ctx,
		`SELECT code, SUM(delta) FROM (
		   SELECT to_currency AS code, amount AS delta
		     FROM ledger_entries WHERE user_id = ? AND to_currency <> ''
		   UNION ALL
		   SELECT from_currency AS code, -amount AS delta
		     FROM ledger_entries WHERE user_id = ? AND from_currency <> ''
		 )
		 GROUP BY code`,
		userID,
		userID,
	)
	if err != nil {
		return nil, classify("ledger totals", err)
	}
	defer rows.Close()

	totals := map[currency.Code]int{}
	for rows.Next() {
		var code string
		var total int
		if err := rows.Scan(&code, &total); err != nil {
			return nil, classify("ledger totals", err)
		}
		totals[currency.Code(code)] = total
	}
	if err := rows.Err(); err != nil {
		return nil, classify("ledger totals", err)
	}
	return totals, nil
}

// ListChoices returns the most recent choices, oldest first.
func (s *Store) ListChoices(ctx context.Context, userID string, limit int) ([]player.Choice, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s == nil || s.sqlDB == nil {
		return nil, fmt.Errorf("storage is not configured")
	}
	limit = normalizePageSize(limit)
	rows, err := s.sqlDB.QueryContext(
		ctx,
		`SELECT choice_id, choice_text, node_id, story_id, created_at FROM (
		   SELECT seq, choice_id, choice_text, node_id, story_id, created_at
		     FROM choice_history
		    WHERE user_id = ?
		    ORDER BY seq DESC
		    LIMIT ?
		 ) ORDER BY seq ASC`,
		userID,
		limit,
	)
	if err != nil {
		return nil, classify("list choices", err)
	}
	defer rows.Close()

	var choices []player.Choice
	for rows.Next() {
		var choice player.Choice
		var createdAt int64
		if err := rows.Scan(&choice.ChoiceID, &choice.ChoiceText, &choice.NodeID, &choice.StoryID, &createdAt); err != nil {
			return nil, classify("list choices", err)
		}
		choice.At = fromMillis(createdAt)
		choices = append(choices, choice)
	}
	if err := rows.Err(); err != nil {
		return nil, classify("list choices", err)
	}
	return choices, nil
}

// AppendLedgerEntries appends entries in their own transaction.
func (s *Store) AppendLedgerEntries(ctx context.Context, entries []ledger.Entry) error {
	return s.WithTx(ctx, func(tx storage.Tx) error {
		return tx.AppendLedgerEntries(ctx, entries)
	})
}

// AppendChoice appends a choice in its own transaction.
func (s *Store) AppendChoice(ctx context.Context, userID string, choice player.Choice) error {
	return s.WithTx(ctx, func(tx storage.Tx) error {
		return tx.AppendChoice(ctx, userID, choice)
	})
}
