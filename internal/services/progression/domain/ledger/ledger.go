// Package ledger implements currency balances and their append-only entries.
//
// Every balance change made through this package yields exactly one Entry,
// so a caller that persists both in the same transaction keeps the cached
// balances equal to the sum of the ledger.
package ledger

import (
	"strconv"
	"time"

	apperrors "github.com/louisbranch/storyquest/internal/platform/errors"
	"github.com/louisbranch/storyquest/internal/services/progression/domain/currency"
)

// Entry types recorded by the engine. Type is free-form; these are the ones
// produced internally.
const (
	TypeMissionReward = "mission_reward"
	TypeChoiceCost    = "choice_cost"
	TypeLevelUp       = "level_up"
	TypeOpening       = "opening_balance"
)

// Balances maps a currency to its live amount. Absent currencies read as 0.
type Balances map[currency.Code]int

// Clone returns an independent copy.
func (b Balances) Clone() Balances {
	out := make(Balances, len(b))
	for code, amount := range b {
		out[code] = amount
	}
	return out
}

// Entry is one currency change. Debits set FromCurrency, credits set
// ToCurrency.
type Entry struct {
	ID           string
	UserID       string
	Seq          int64
	Type         string
	FromCurrency currency.Code
	ToCurrency   currency.Code
	Amount       int
	Description  string
	StoryID      string
	StoryNodeID  string
	At           time.Time
}

// Currency returns the currency the entry moved.
func (e Entry) Currency() currency.Code {
	if e.ToCurrency != "" {
		return e.ToCurrency
	}
	return e.FromCurrency
}

// Signed returns the amount as a balance delta.
func (e Entry) Signed() int {
	if e.FromCurrency != "" && e.ToCurrency == "" {
		return -e.Amount
	}
	return e.Amount
}

// Memo carries the descriptive fields copied onto produced entries.
type Memo struct {
	UserID      string
	Type        string
	Description string
	StoryID     string
	StoryNodeID string
}

// CanAfford reports whether balances cover every requirement.
func CanAfford(balances Balances, requirements map[currency.Code]int) bool {
	for code, amount := range requirements {
		if balances[code] < amount {
			return false
		}
	}
	return true
}

// Spend debits every requirement from balances. Validation happens before
// any mutation, so on error balances are untouched. Entries are returned in
// currency order.
func Spend(balances Balances, requirements map[currency.Code]int, memo Memo, now time.Time) ([]Entry, error) {
	codes := currency.Sorted(requirements)
	for _, code := range codes {
		if requirements[code] <= 0 {
			return nil, apperrors.Detail(ErrInvalidAmount, map[string]string{
				"currency": string(code),
				"amount":   strconv.Itoa(requirements[code]),
			})
		}
	}
	for _, code := range codes {
		if balances[code] < requirements[code] {
			return nil, apperrors.Detail(ErrInsufficientFunds, map[string]string{
				"currency":  string(code),
				"required":  strconv.Itoa(requirements[code]),
				"available": strconv.Itoa(balances[code]),
			})
		}
	}

	entries := make([]Entry, 0, len(codes))
	for _, code := range codes {
		amount := requirements[code]
		balances[code] -= amount
		entries = append(entries, Entry{
			UserID:       memo.UserID,
			Type:         memo.Type,
			FromCurrency: code,
			Amount:       amount,
			Description:  memo.Description,
			StoryID:      memo.StoryID,
			StoryNodeID:  memo.StoryNodeID,
			At:           now,
		})
	}
	return entries, nil
}

// Credit adds amount of code to balances.
func Credit(balances Balances, code currency.Code, amount int, memo Memo, now time.Time) (Entry, error) {
	if amount <= 0 {
		return Entry{}, apperrors.Detail(ErrInvalidAmount, map[string]string{
			"currency": string(code),
			"amount":   strconv.Itoa(amount),
		})
	}
	if code == "" {
		code = currency.Default
	}
	balances[code] += amount
	return Entry{
		UserID:      memo.UserID,
		Type:        memo.Type,
		ToCurrency:  code,
		Amount:      amount,
		Description: memo.Description,
		StoryID:     memo.StoryID,
		StoryNodeID: memo.StoryNodeID,
		At:          now,
	}, nil
}

// Opening returns one credit per non-zero starting balance so that a new
// wallet is fully accounted for in the ledger.
func Opening(userID string, balances Balances, now time.Time) []Entry {
	var entries []Entry
	for _, code := range currency.Sorted(balances) {
		if balances[code] <= 0 {
			continue
		}
		entries = append(entries, Entry{
			UserID:      userID,
			Type:        TypeOpening,
			ToCurrency:  code,
			Amount:      balances[code],
			Description: "Opening balance",
			At:          now,
		})
	}
	return entries
}

// Net sums entries into per-currency balance deltas.
func Net(entries []Entry) map[currency.Code]int {
	totals := make(map[currency.Code]int)
	for _, entry := range entries {
		totals[entry.Currency()] += entry.Signed()
	}
	return totals
}
