// Package storage defines persistence contracts for progression state.
package storage

import (
	"context"
	"errors"

	"github.com/louisbranch/storyquest/internal/services/progression/directory"
	"github.com/louisbranch/storyquest/internal/services/progression/domain/currency"
	"github.com/louisbranch/storyquest/internal/services/progression/domain/evolution"
	"github.com/louisbranch/storyquest/internal/services/progression/domain/ledger"
	"github.com/louisbranch/storyquest/internal/services/progression/domain/mission"
	"github.com/louisbranch/storyquest/internal/services/progression/domain/player"
	"github.com/louisbranch/storyquest/internal/services/progression/filter"
)

var (
	// ErrNotFound indicates a requested record is missing.
	ErrNotFound = errors.New("record not found")
	// ErrAlreadyExists indicates a uniqueness-constrained record already exists.
	ErrAlreadyExists = errors.New("record already exists")
	// ErrConflict indicates a concurrent writer won the race; the whole
	// operation may be retried.
	ErrConflict = errors.New("concurrent update conflict")
)

// ListOptions narrows and pages a listing.
type ListOptions struct {
	Filter    filter.SQLCondition
	PageSize  int
	PageToken string
}

// MissionPage stores one page of missions.
type MissionPage struct {
	Missions      []mission.Mission
	NextPageToken string
}

// LedgerPage stores one page of ledger entries in append order.
type LedgerPage struct {
	Entries       []ledger.Entry
	NextPageToken string
}

// PlayerStore persists the player aggregate. PutPlayer inserts when
// Version is 0 and otherwise updates only if the stored version still
// matches, returning ErrConflict when it does not. It returns the new version.
type PlayerStore interface {
	GetPlayer(ctx context.Context, userID string) (player.Player, error)
	PutPlayer(ctx context.Context, p player.Player) (int64, error)
}

// MissionStore persists missions.
type MissionStore interface {
	GetMission(ctx context.Context, missionID string) (mission.Mission, error)
	CreateMission(ctx context.Context, m mission.Mission) error
	UpdateMission(ctx context.Context, m mission.Mission) error
}

// LedgerStore appends currency entries and choice history.
type LedgerStore interface {
	AppendLedgerEntries(ctx context.Context, entries []ledger.Entry) error
	AppendChoice(ctx context.Context, userID string, choice player.Choice) error
	// LedgerTotals sums credits minus debits per currency.
	LedgerTotals(ctx context.Context, userID string) (map[currency.Code]int, error)
}

// EvolutionStore persists character evolution records.
type EvolutionStore interface {
	GetEvolution(ctx context.Context, key evolution.Key) (evolution.Evolution, error)
	ListStoryEvolutions(ctx context.Context, userID, storyID string) ([]evolution.Evolution, error)
	PutEvolution(ctx context.Context, e evolution.Evolution) error
}

// Tx is the unit of work handed to Store.WithTx. Writes become visible
// together when the callback returns nil.
type Tx interface {
	PlayerStore
	MissionStore
	LedgerStore
	EvolutionStore
}

// Store is the full progression persistence surface.
type Store interface {
	Tx
	directory.Source

	// WithTx runs fn in one transaction, committing when fn returns nil and
	// rolling back otherwise.
	WithTx(ctx context.Context, fn func(tx Tx) error) error

	ListMissions(ctx context.Context, userID string, opts ListOptions) (MissionPage, error)
	ListLedgerEntries(ctx context.Context, userID string, opts ListOptions) (LedgerPage, error)
	ListChoices(ctx context.Context, userID string, limit int) ([]player.Choice, error)
	PutCharacters(ctx context.Context, characters []directory.Character) error
	Close() error
}
