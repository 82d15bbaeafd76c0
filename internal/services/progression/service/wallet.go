package service

import (
	"context"
	"log"
	"strings"

	"github.com/louisbranch/storyquest/internal/services/progression/domain/currency"
	"github.com/louisbranch/storyquest/internal/services/progression/domain/ledger"
	"github.com/louisbranch/storyquest/internal/services/progression/domain/player"
	"github.com/louisbranch/storyquest/internal/services/progression/domain/progression"
	"github.com/louisbranch/storyquest/internal/services/progression/filter"
	"github.com/louisbranch/storyquest/internal/services/progression/storage"
)

// WalletResult is the player state after a ledger operation together with
// the entries it appended.
type WalletResult struct {
	Player  player.Player
	Entries []ledger.Entry
}

// ExperienceResult is the player state after an experience grant.
type ExperienceResult struct {
	Player   player.Player
	Progress progression.Result
}

// ChoiceResult is the player state after a recorded choice.
type ChoiceResult struct {
	Player  player.Player
	Choice  player.Choice
	Entries []ledger.Entry
}

// LedgerReport compares stored balances with the ledger sums.
type LedgerReport struct {
	Balances   ledger.Balances
	Totals     map[currency.Code]int
	Consistent bool
}

// GetPlayer returns the player, creating it with the starting wallet on
// first interaction.
func (s *Service) GetPlayer(ctx context.Context, userID string) (player.Player, error) {
	var result player.Player
	err := s.update(ctx, "get_player", func(ctx context.Context, tx storage.Tx) error {
		p, err := s.ensurePlayer(ctx, tx, userID)
		if err != nil {
			return err
		}
		result = p
		return nil
	})
	return result, err
}

// Spend debits every currency in requirements or nothing at all.
func (s *Service) Spend(ctx context.Context, userID string, requirements map[currency.Code]int, memo ledger.Memo) (WalletResult, error) {
	var result WalletResult
	err := s.update(ctx, "spend", func(ctx context.Context, tx storage.Tx) error {
		p, entries, err := s.loadPlayer(ctx, tx, userID)
		if err != nil {
			return err
		}
		spent, err := p.Spend(requirements, memo, s.now())
		if err != nil {
			return err
		}
		entries = append(entries, spent...)
		if err := s.commitPlayer(ctx, tx, &p, entries); err != nil {
			return err
		}
		result = WalletResult{Player: p, Entries: spent}
		return nil
	})
	return result, err
}

// Credit adds amount of code to the player's wallet.
func (s *Service) Credit(ctx context.Context, userID string, code currency.Code, amount int, memo ledger.Memo) (WalletResult, error) {
	var result WalletResult
	err := s.update(ctx, "credit", func(ctx context.Context, tx storage.Tx) error {
		p, entries, err := s.loadPlayer(ctx, tx, userID)
		if err != nil {
			return err
		}
		entry, err := p.Credit(code, amount, memo, s.now())
		if err != nil {
			return err
		}
		if err := s.commitPlayer(ctx, tx, &p, append(entries, entry)); err != nil {
			return err
		}
		result = WalletResult{Player: p, Entries: []ledger.Entry{entry}}
		return nil
	})
	return result, err
}

// AddExperience grants experience points, paying the level-up bonus when the
// player reaches a new level.
func (s *Service) AddExperience(ctx context.Context, userID string, points int, reason string) (ExperienceResult, error) {
	var result ExperienceResult
	err := s.update(ctx, "add_experience", func(ctx context.Context, tx storage.Tx) error {
		p, entries, err := s.loadPlayer(ctx, tx, userID)
		if err != nil {
			return err
		}
		progress, err := progression.AddExperience(&p, points, reason, s.now())
		if err != nil {
			return err
		}
		if progress.Bonus != nil {
			entries = append(entries, *progress.Bonus)
		}
		if err := s.commitPlayer(ctx, tx, &p, entries); err != nil {
			return err
		}
		result = ExperienceResult{Player: p, Progress: progress}
		return nil
	})
	if err != nil {
		return ExperienceResult{}, err
	}
	logExperience(result.Player.UserID, result.Progress)
	return result, nil
}

// logExperience records a committed experience grant.
func logExperience(userID string, progress progression.Result) {
	log.Printf("progression: experience user_id=%s points=%d level=%d leveled_up=%t reason=%q",
		userID, progress.Points, progress.Level, progress.LeveledUp, progress.Reason)
}

// RecordChoice pays a story choice's cost and appends it to the player's
// choice history. An unaffordable choice records nothing.
func (s *Service) RecordChoice(ctx context.Context, userID string, choice player.Choice, cost map[currency.Code]int) (ChoiceResult, error) {
	var result ChoiceResult
	err := s.update(ctx, "record_choice", func(ctx context.Context, tx storage.Tx) error {
		p, entries, err := s.loadPlayer(ctx, tx, userID)
		if err != nil {
			return err
		}
		recorded, spent, err := p.RecordChoice(choice, cost, s.now())
		if err != nil {
			return err
		}
		if err := s.commitPlayer(ctx, tx, &p, append(entries, spent...)); err != nil {
			return err
		}
		if err := tx.AppendChoice(ctx, p.UserID, recorded); err != nil {
			return err
		}
		result = ChoiceResult{Player: p, Choice: recorded, Entries: spent}
		return nil
	})
	return result, err
}

// ListChoices returns the most recent choices, oldest first.
func (s *Service) ListChoices(ctx context.Context, userID string, limit int) ([]player.Choice, error) {
	var choices []player.Choice
	err := s.read(ctx, "list_choices", func(ctx context.Context) error {
		userID = strings.TrimSpace(userID)
		if userID == "" {
			return errEmptyUserID
		}
		var err error
		choices, err = s.store.ListChoices(ctx, userID, limit)
		return err
	})
	if choices == nil {
		choices = []player.Choice{}
	}
	return choices, err
}

// ListLedger pages through the player's ledger in append order. filterStr is
// an AIP-160 expression over type, from_currency, to_currency, amount,
// story_id, story_node_id and at.
func (s *Service) ListLedger(ctx context.Context, userID, filterStr string, pageSize int, pageToken string) (storage.LedgerPage, error) {
	var page storage.LedgerPage
	err := s.read(ctx, "list_ledger", func(ctx context.Context) error {
		userID = strings.TrimSpace(userID)
		if userID == "" {
			return errEmptyUserID
		}
		condition, err := filter.ParseLedgerFilter(filterStr)
		if err != nil {
			return err
		}
		page, err = s.store.ListLedgerEntries(ctx, userID, storage.ListOptions{
			Filter:    condition,
			PageSize:  pageSize,
			PageToken: pageToken,
		})
		return err
	})
	return page, err
}

// VerifyLedger reports whether every stored balance equals the sum of the
// player's ledger entries in that currency.
func (s *Service) VerifyLedger(ctx context.Context, userID string) (LedgerReport, error) {
	var report LedgerReport
	err := s.update(ctx, "verify_ledger", func(ctx context.Context, tx storage.Tx) error {
		p, err := s.ensurePlayer(ctx, tx, userID)
		if err != nil {
			return err
		}
		totals, err := tx.LedgerTotals(ctx, p.UserID)
		if err != nil {
			return err
		}
		report = LedgerReport{
			Balances:   p.Balances.Clone(),
			Totals:     totals,
			Consistent: balancesMatch(p.Balances, totals),
		}
		return nil
	})
	if err != nil {
		return LedgerReport{}, err
	}
	return report, nil
}

func balancesMatch(balances ledger.Balances, totals map[currency.Code]int) bool {
	for code, amount := range balances {
		if totals[code] != amount {
			return false
		}
	}
	for code, amount := range totals {
		if balances[code] != amount {
			return false
		}
	}
	return true
}
