package service

import (
	"context"
	"errors"
	"time"

	"github.com/partyplaylist/backend/src/domain"
)

var (
	// ErrNothingToSchedule means the challenge table is empty. It is a quiescent state, not a failure.
	ErrNothingToSchedule = errors.New("nothing to schedule")
	// ErrScheduleGap means a freshly rebuilt schedule still has no window covering now.
	ErrScheduleGap = errors.New("no challenge window covers the current time")
	// ErrTickInProgress means another instance holds the rotation lease.
	ErrTickInProgress = errors.New("rotation tick already in progress on another instance")
	// ErrMonitorStarted is returned by Start when the monitor is already running.
	ErrMonitorStarted = errors.New("rotation monitor already started")
)

// ChallengeStore is the persistence the rotation core reads and writes.
// Every method is a single round trip; nothing is cached between calls.
type ChallengeStore interface {
	ListChallenges(ctx context.Context) ([]*domain.Challenge, error)
	FindChallengeById(ctx context.Context, id int64) (*domain.Challenge, error)
	FindActive(ctx context.Context) ([]*domain.Challenge, error)
	FindChallengeContaining(ctx context.Context, t time.Time) (*domain.Challenge, error)
	FindUpcoming(ctx context.Context, after time.Time, limit int) ([]*domain.Challenge, error)
	Activate(ctx context.Context, id int64) (bool, error)
	Deactivate(ctx context.Context, id int64) (bool, error)
	ApplySchedule(ctx context.Context, entries []domain.ScheduleEntry) error
}

// TickLock is a cross-instance lease around a single tick
type TickLock interface {
	Acquire(ctx context.Context) (release func(context.Context) error, acquired bool, err error)
}

// EventPublisher broadcasts rotation changes
type EventPublisher interface {
	Publish(ctx context.Context, event domain.RotationEvent) error
}

// Clock returns the current time. Each tick reads it exactly once.
type Clock func() time.Time

func systemClock() time.Time {
	return time.Now().UTC()
}

type noopLock struct{}

func (noopLock) Acquire(context.Context) (func(context.Context) error, bool, error) {
	return func(context.Context) error { return nil }, true, nil
}

type noopPublisher struct{}

func (noopPublisher) Publish(context.Context, domain.RotationEvent) error {
	return nil
}

// timeoutStore bounds every persistence call with its own deadline
type timeoutStore struct {
	next    ChallengeStore
	timeout time.Duration
}

// WithStoreTimeout wraps store so that each call is cancelled after timeout.
// A non-positive timeout returns store unchanged.
func WithStoreTimeout(store ChallengeStore, timeout time.Duration) ChallengeStore {
	if timeout <= 0 {
		return store
	}
	return &timeoutStore{next: store, timeout: timeout}
}

func (s *timeoutStore) ListChallenges(ctx context.Context) ([]*domain.Challenge, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	return s.next.ListChallenges(ctx)
}

func (s *timeoutStore) FindChallengeById(ctx context.Context, id int64) (*domain.Challenge, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	return s.next.FindChallengeById(ctx, id)
}

func (s *timeoutStore) FindActive(ctx context.Context) ([]*domain.Challenge, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	return s.next.FindActive(ctx)
}

func (s *timeoutStore) FindChallengeContaining(ctx context.Context, t time.Time) (*domain.Challenge, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	return s.next.FindChallengeContaining(ctx, t)
}

func (s *timeoutStore) FindUpcoming(ctx context.Context, after time.Time, limit int) ([]*domain.Challenge, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	return s.next.FindUpcoming(ctx, after, limit)
}

func (s *timeoutStore) Activate(ctx context.Context, id int64) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	return s.next.Activate(ctx, id)
}

func (s *timeoutStore) Deactivate(ctx context.Context, id int64) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	return s.next.Deactivate(ctx, id)
}

func (s *timeoutStore) ApplySchedule(ctx context.Context, entries []domain.ScheduleEntry) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	return s.next.ApplySchedule(ctx, entries)
}
