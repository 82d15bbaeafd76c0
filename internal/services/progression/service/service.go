// Package service orchestrates progression operations. Each mutating call
// runs as one storage transaction: aggregates are loaded, domain rules are
// applied, and mission, player and ledger rows commit together.
package service

import (
	"context"
	"errors"
	"log"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v5"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	apperrors "github.com/louisbranch/storyquest/internal/platform/errors"
	"github.com/louisbranch/storyquest/internal/platform/id"
	"github.com/louisbranch/storyquest/internal/services/progression/directory"
	"github.com/louisbranch/storyquest/internal/services/progression/domain/ledger"
	"github.com/louisbranch/storyquest/internal/services/progression/domain/player"
	"github.com/louisbranch/storyquest/internal/services/progression/storage"
)

const (
	tracerName = "github.com/louisbranch/storyquest/internal/services/progression/service"

	// DefaultMaxAttempts bounds how often an operation is replayed after a
	// concurrent write conflict.
	DefaultMaxAttempts = 5
)

var (
	errStoreNotConfigured = apperrors.New(apperrors.CodeStorageFault, "progression store is not configured")
	errEmptyUserID        = apperrors.New(apperrors.CodeInvalidArgument, "user id is required")
	errEmptyMissionID     = apperrors.New(apperrors.CodeInvalidArgument, "mission id is required")
)

// Service implements the progression operations over a Store.
type Service struct {
	store       storage.Store
	directory   *directory.Directory
	clock       func() time.Time
	idGenerator func() (string, error)
	tracer      trace.Tracer
	maxAttempts uint
	retryDelay  time.Duration
}

// Option customizes a Service.
type Option func(*Service)

// WithClock overrides the time source.
func WithClock(clock func() time.Time) Option {
	return func(s *Service) {
		if clock != nil {
			s.clock = clock
		}
	}
}

// WithIDGenerator overrides the id source for missions and ledger entries.
func WithIDGenerator(generate func() (string, error)) Option {
	return func(s *Service) {
		if generate != nil {
			s.idGenerator = generate
		}
	}
}

// WithMaxAttempts bounds conflict retries. Values below 1 are ignored.
func WithMaxAttempts(attempts int) Option {
	return func(s *Service) {
		if attempts > 0 {
			s.maxAttempts = uint(attempts)
		}
	}
}

// WithRetryDelay sets the initial backoff between conflict retries.
func WithRetryDelay(delay time.Duration) Option {
	return func(s *Service) {
		if delay > 0 {
			s.retryDelay = delay
		}
	}
}

// NewService creates a progression service backed by store. Character names
// are resolved against the store's directory.
func NewService(store storage.Store, opts ...Option) *Service {
	s := &Service{
		store:       store,
		clock:       time.Now,
		idGenerator: id.NewID,
		tracer:      otel.Tracer(tracerName),
		maxAttempts: DefaultMaxAttempts,
		retryDelay:  10 * time.Millisecond,
	}
	if store != nil {
		s.directory = directory.New(store)
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Service) now() time.Time {
	return s.clock().UTC()
}

// update runs fn in a transaction, replaying the whole transaction when a
// concurrent writer wins. Errors that are not domain errors surface as
// STORAGE_FAULT.
func (s *Service) update(ctx context.Context, op string, fn func(ctx context.Context, tx storage.Tx) error) error {
	if s == nil || s.store == nil {
		return errStoreNotConfigured
	}
	ctx, span := s.tracer.Start(ctx, "progression."+op)
	defer span.End()

	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = s.retryDelay
	policy.MaxInterval = 20 * s.retryDelay

	attempt := 0
	_, err := backoff.Retry(ctx, func() (struct{}, error) {
		attempt++
		err := s.store.WithTx(ctx, func(tx storage.Tx) error {
			return fn(ctx, tx)
		})
		if err == nil {
			return struct{}{}, nil
		}
		if errors.Is(err, storage.ErrConflict) {
			log.Printf("progression: %s conflict attempt=%d err=%v", op, attempt, err)
			return struct{}{}, err
		}
		return struct{}{}, backoff.Permanent(err)
	}, backoff.WithBackOff(policy), backoff.WithMaxTries(s.maxAttempts))
	span.SetAttributes(attribute.Int("progression.attempts", attempt))
	return s.finish(span, op, err)
}

// read runs a non-transactional query under a span.
func (s *Service) read(ctx context.Context, op string, fn func(ctx context.Context) error) error {
	if s == nil || s.store == nil {
		return errStoreNotConfigured
	}
	ctx, span := s.tracer.Start(ctx, "progression."+op)
	defer span.End()
	return s.finish(span, op, fn(ctx))
}

func (s *Service) finish(span trace.Span, op string, err error) error {
	if err == nil {
		return nil
	}
	err = classify(op, err)
	if code := apperrors.CodeOf(err); code.Warning() {
		// No state changed; the caller may treat the call as a no-op.
		span.AddEvent("warning", trace.WithAttributes(attribute.String("code", string(code))))
		log.Printf("progression: %s warning code=%s err=%v", op, code, err)
		return err
	}
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	return err
}

// classify keeps domain errors and context cancellation as they are and
// reports everything else as a storage fault.
func classify(op string, err error) error {
	var domainErr *apperrors.Error
	if errors.As(err, &domainErr) {
		return err
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	return apperrors.Wrap(apperrors.CodeStorageFault, op+" failed", err)
}

// loadPlayer returns the stored player or a fresh one along with the
// opening-balance entries its creation must record.
func (s *Service) loadPlayer(ctx context.Context, tx storage.Tx, userID string) (player.Player, []ledger.Entry, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return player.Player{}, nil, errEmptyUserID
	}
	p, err := tx.GetPlayer(ctx, userID)
	if err == nil {
		return p, nil, nil
	}
	if !errors.Is(err, storage.ErrNotFound) {
		return player.Player{}, nil, err
	}
	now := s.now()
	p, err = player.New(userID, now)
	if err != nil {
		return player.Player{}, nil, err
	}
	return p, ledger.Opening(userID, p.Balances, now), nil
}

// commitPlayer writes the player and its new ledger entries, stamping ids on
// entries that lack one.
func (s *Service) commitPlayer(ctx context.Context, tx storage.Tx, p *player.Player, entries []ledger.Entry) error {
	version, err := tx.PutPlayer(ctx, *p)
	if err != nil {
		return err
	}
	p.Version = version
	if len(entries) == 0 {
		return nil
	}
	for i := range entries {
		if entries[i].ID != "" {
			continue
		}
		entryID, err := s.idGenerator()
		if err != nil {
			return err
		}
		entries[i].ID = entryID
	}
	return tx.AppendLedgerEntries(ctx, entries)
}

// ensurePlayer loads the player, creating it when missing.
func (s *Service) ensurePlayer(ctx context.Context, tx storage.Tx, userID string) (player.Player, error) {
	p, opening, err := s.loadPlayer(ctx, tx, userID)
	if err != nil {
		return player.Player{}, err
	}
	if p.Version == 0 {
		if err := s.commitPlayer(ctx, tx, &p, opening); err != nil {
			return player.Player{}, err
		}
	}
	return p, nil
}
