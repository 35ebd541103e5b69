package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/partyplaylist/backend/src/domain"
	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
)

// Transition names the state a tick found the table in
type Transition string

const (
	TransitionConsistent     Transition = "consistent"
	TransitionExpiredActive  Transition = "expired_active"
	TransitionNoActive       Transition = "no_active"
	TransitionMultipleActive Transition = "multiple_active"
)

// TickResult describes what a single check-and-correct pass did
type TickResult struct {
	TickID     uuid.UUID
	Now        time.Time
	Transition Transition
	// Challenge is the active challenge after the tick, nil when none could be established
	Challenge *domain.Challenge
	// Rebuilt is set when the tick fell back to a full schedule initialization
	Rebuilt bool
	// Writes counts rows changed by this tick
	Writes int
	// LostRaces counts conditional writes that found the row already changed by someone else
	LostRaces int
}

type RotationConfig struct {
	// Interval between scheduled ticks. cron.Every rounds it down to whole seconds.
	Interval time.Duration

	// Optional collaborators
	Lock      TickLock
	Publisher EventPublisher
	Clock     Clock
}

// RotationMonitor keeps exactly one challenge active as time passes
type RotationMonitor struct {
	store       ChallengeStore
	initializer *ScheduleInitializer
	lock        TickLock
	publisher   EventPublisher
	clock       Clock
	interval    time.Duration

	// tickMu serializes ticks within the process
	tickMu sync.Mutex

	mu   sync.Mutex
	cron *cron.Cron
}

func NewRotationMonitor(store ChallengeStore, initializer *ScheduleInitializer, config RotationConfig) *RotationMonitor {
	m := &RotationMonitor{
		store:       store,
		initializer: initializer,
		lock:        config.Lock,
		publisher:   config.Publisher,
		clock:       config.Clock,
		interval:    config.Interval,
	}

	if m.lock == nil {
		m.lock = noopLock{}
	}
	if m.publisher == nil {
		m.publisher = noopPublisher{}
	}
	if m.clock == nil {
		m.clock = systemClock
	}
	if m.interval <= 0 {
		m.interval = time.Hour
	}

	return m
}

// logger wraps the execution context with component info
func (m *RotationMonitor) logger(ctx context.Context) *zerolog.Logger {
	l := zerolog.Ctx(ctx).With().Str("component", "rotation-monitor").Logger()
	return &l
}

// Start runs one tick synchronously and then schedules a tick every interval.
// Ticks triggered by the timer never overlap.
func (m *RotationMonitor) Start(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.cron != nil {
		return ErrMonitorStarted
	}

	// ticks outlive cancellation of the caller's context; Stop is what ends them
	tickCtx := context.WithoutCancel(ctx)

	m.logger(ctx).Info().
		Dur("interval", m.interval).
		Msg("starting rotation monitor")

	m.runTick(tickCtx)

	cronLog := cronLogger{logger: *m.logger(ctx)}
	c := cron.New(
		cron.WithLocation(time.UTC),
		cron.WithLogger(cronLog),
		cron.WithChain(cron.Recover(cronLog), cron.SkipIfStillRunning(cronLog)),
	)
	c.Schedule(cron.Every(m.interval), cron.FuncJob(func() {
		m.runTick(tickCtx)
	}))
	c.Start()

	m.cron = c
	return nil
}

// Stop halts future ticks and waits for a tick already in progress to finish
func (m *RotationMonitor) Stop() {
	m.mu.Lock()
	c := m.cron
	m.cron = nil
	m.mu.Unlock()

	if c == nil {
		return
	}

	<-c.Stop().Done()
}

// runTick executes a tick and logs its outcome. Failures never escape.
func (m *RotationMonitor) runTick(ctx context.Context) {
	_, err := m.Tick(ctx)
	switch {
	case err == nil:
	case errors.Is(err, ErrTickInProgress):
		m.logger(ctx).Debug().Msg("rotation tick skipped, lease held elsewhere")
	case errors.Is(err, ErrScheduleGap):
		m.logger(ctx).Warn().Err(err).Msg("rotation tick could not establish a current challenge")
	default:
		m.logger(ctx).Error().Err(err).Msg("rotation tick failed")
	}
}

// ForceRefresh re-runs the check-and-correct routine on demand
func (m *RotationMonitor) ForceRefresh(ctx context.Context) (*domain.Challenge, error) {
	m.logger(ctx).Info().Msg("forced rotation refresh requested")

	result, err := m.Tick(ctx)
	if errors.Is(err, ErrTickInProgress) {
		// the lease holder is correcting right now; report what is stored
		return m.currentActive(ctx, m.clock())
	}
	if err != nil {
		return nil, err
	}
	return result.Challenge, nil
}

// InitializeSchedule rebuilds the whole schedule and then verifies the result with a tick.
// It returns false when there is nothing to schedule, and ErrTickInProgress when another
// instance holds the rotation lease.
func (m *RotationMonitor) InitializeSchedule(ctx context.Context) (bool, error) {
	entries, err := m.initializeLocked(ctx)
	if errors.Is(err, ErrNothingToSchedule) {
		return false, nil
	}
	if err != nil {
		return false, err
	}

	m.logger(ctx).Info().Int("challenge_count", len(entries)).Msg("schedule initialized on request")

	if _, err := m.Tick(ctx); err != nil && !errors.Is(err, ErrTickInProgress) {
		return true, fmt.Errorf("schedule written but verification tick failed: %w", err)
	}
	return true, nil
}

// initializeLocked runs the initializer under the same locks as a tick
func (m *RotationMonitor) initializeLocked(ctx context.Context) ([]domain.ScheduleEntry, error) {
	m.tickMu.Lock()
	defer m.tickMu.Unlock()

	now := m.clock()
	tickID := uuid.New()
	ctx = zerolog.Ctx(ctx).With().Str("tick_id", tickID.String()).Logger().WithContext(ctx)

	release, err := m.acquireLease(ctx)
	if err != nil {
		return nil, err
	}
	defer release()

	entries, err := m.initializer.Initialize(ctx, now)
	if err != nil {
		return nil, err
	}
	m.publish(ctx, domain.RotationEventRebuilt, tickID, 0, now)
	return entries, nil
}

// Tick reads now once and runs a single check-and-correct pass against the store
func (m *RotationMonitor) Tick(ctx context.Context) (*TickResult, error) {
	m.tickMu.Lock()
	defer m.tickMu.Unlock()

	now := m.clock()
	tickID := uuid.New()
	ctx = zerolog.Ctx(ctx).With().Str("tick_id", tickID.String()).Logger().WithContext(ctx)
	logger := m.logger(ctx)

	release, err := m.acquireLease(ctx)
	if err != nil {
		return nil, err
	}
	defer release()

	result, err := m.check(ctx, tickID, now)
	if err != nil {
		return result, err
	}

	event := logger.Debug()
	if result.Writes > 0 {
		event = logger.Info()
	}
	if result.Challenge != nil {
		event = event.Int64("challenge_id", result.Challenge.ID)
	}
	event.
		Str("transition", string(result.Transition)).
		Bool("rebuilt", result.Rebuilt).
		Int("writes", result.Writes).
		Int("lost_races", result.LostRaces).
		Msg("rotation tick completed")

	return result, nil
}

// acquireLease takes the cross-instance lease. An unreachable lease backend is logged and
// ignored; a lease held elsewhere yields ErrTickInProgress.
func (m *RotationMonitor) acquireLease(ctx context.Context) (func(), error) {
	release, acquired, err := m.lock.Acquire(ctx)
	switch {
	case err != nil:
		// conditional writes still converge without the lease
		m.logger(ctx).Warn().Err(err).Msg("rotation lease unavailable, continuing without it")
		return func() {}, nil
	case !acquired:
		return nil, ErrTickInProgress
	}

	return func() {
		if err := release(context.WithoutCancel(ctx)); err != nil {
			m.logger(ctx).Warn().Err(err).Msg("failed to release rotation lease")
		}
	}, nil
}

func (m *RotationMonitor) check(ctx context.Context, tickID uuid.UUID, now time.Time) (*TickResult, error) {
	result := &TickResult{TickID: tickID, Now: now}

	active, err := m.store.FindActive(ctx)
	if err != nil {
		return result, fmt.Errorf("failed to find active challenges: %w", err)
	}

	switch {
	case len(active) == 1 && active[0].Contains(now):
		result.Transition = TransitionConsistent
		result.Challenge = active[0]
		return result, nil

	case len(active) == 1:
		result.Transition = TransitionExpiredActive
		return m.activateCurrent(ctx, result, now, active)

	case len(active) > 1:
		result.Transition = TransitionMultipleActive

		var qualifying []*domain.Challenge
		for _, challenge := range active {
			if challenge.Contains(now) {
				qualifying = append(qualifying, challenge)
			}
		}

		if len(qualifying) == 1 {
			winner := qualifying[0]
			for _, challenge := range active {
				if challenge.ID == winner.ID {
					continue
				}
				if err := m.deactivate(ctx, result, challenge.ID); err != nil {
					return result, err
				}
			}
			result.Challenge = winner
			return result, nil
		}

		return m.activateCurrent(ctx, result, now, active)

	default:
		result.Transition = TransitionNoActive
		return m.activateCurrent(ctx, result, now, nil)
	}
}

// activateCurrent looks up the stored window containing now and only then moves the active flag
// off stale onto it. Without such a window the schedule is rebuilt, which rewrites every flag.
func (m *RotationMonitor) activateCurrent(ctx context.Context, result *TickResult, now time.Time, stale []*domain.Challenge) (*TickResult, error) {
	current, err := m.store.FindChallengeContaining(ctx, now)
	if err != nil {
		return result, fmt.Errorf("failed to find challenge for %s: %w", now.Format(time.RFC3339), err)
	}

	if current == nil {
		return m.rebuild(ctx, result, now)
	}

	for _, challenge := range stale {
		if challenge.ID == current.ID {
			continue
		}
		if err := m.deactivate(ctx, result, challenge.ID); err != nil {
			return result, err
		}
	}

	if current.IsActive {
		result.Challenge = current
		return result, nil
	}
	if err := m.activate(ctx, result, current); err != nil {
		return result, err
	}
	return result, nil
}

func (m *RotationMonitor) rebuild(ctx context.Context, result *TickResult, now time.Time) (*TickResult, error) {
	m.logger(ctx).Info().
		Str("transition", string(result.Transition)).
		Msg("no stored window covers now, rebuilding schedule")

	entries, err := m.initializer.Initialize(ctx, now)
	if errors.Is(err, ErrNothingToSchedule) {
		return result, nil
	}
	if err != nil {
		return result, err
	}

	result.Rebuilt = true
	result.Writes += len(entries)
	m.publish(ctx, domain.RotationEventRebuilt, result.TickID, 0, now)

	current, err := m.store.FindChallengeContaining(ctx, now)
	if err != nil {
		return result, fmt.Errorf("failed to re-check rebuilt schedule: %w", err)
	}
	if current == nil {
		return result, ErrScheduleGap
	}

	if !current.IsActive {
		// the rebuilt first week does not cover now; move the flag forward
		for _, entry := range entries {
			if entry.IsActive && entry.ChallengeID != current.ID {
				if err := m.deactivate(ctx, result, entry.ChallengeID); err != nil {
					return result, err
				}
			}
		}
		if err := m.activate(ctx, result, current); err != nil {
			return result, err
		}
		return result, nil
	}

	result.Challenge = current
	return result, nil
}

func (m *RotationMonitor) activate(ctx context.Context, result *TickResult, challenge *domain.Challenge) error {
	changed, err := m.store.Activate(ctx, challenge.ID)
	if err != nil {
		return fmt.Errorf("failed to activate challenge %d: %w", challenge.ID, err)
	}

	challenge.IsActive = true
	result.Challenge = challenge

	if !changed {
		result.LostRaces++
		m.logger(ctx).Debug().Int64("challenge_id", challenge.ID).Msg("challenge already active")
		return nil
	}

	result.Writes++
	m.logger(ctx).Info().
		Int64("challenge_id", challenge.ID).
		Str("title", challenge.Title).
		Msg("challenge activated")
	m.publish(ctx, domain.RotationEventActivated, result.TickID, challenge.ID, result.Now)
	return nil
}

func (m *RotationMonitor) deactivate(ctx context.Context, result *TickResult, id int64) error {
	changed, err := m.store.Deactivate(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to deactivate challenge %d: %w", id, err)
	}

	if !changed {
		result.LostRaces++
		m.logger(ctx).Debug().Int64("challenge_id", id).Msg("challenge already inactive")
		return nil
	}

	result.Writes++
	m.logger(ctx).Info().Int64("challenge_id", id).Msg("challenge deactivated")
	m.publish(ctx, domain.RotationEventDeactivated, result.TickID, id, result.Now)
	return nil
}

func (m *RotationMonitor) publish(ctx context.Context, eventType domain.RotationEventType, tickID uuid.UUID, challengeID int64, at time.Time) {
	err := m.publisher.Publish(ctx, domain.RotationEvent{
		Type:        eventType,
		ChallengeID: challengeID,
		TickID:      tickID,
		At:          at,
	})
	if err != nil {
		m.logger(ctx).Warn().Err(err).Str("event", string(eventType)).Msg("failed to publish rotation event")
	}
}

// currentActive returns the stored active challenge if exactly one is active and covers now
func (m *RotationMonitor) currentActive(ctx context.Context, now time.Time) (*domain.Challenge, error) {
	active, err := m.store.FindActive(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to find active challenges: %w", err)
	}
	if len(active) == 1 && active[0].Contains(now) {
		return active[0], nil
	}
	return nil, nil
}

// cronLogger adapts zerolog to cron.Logger
type cronLogger struct {
	logger zerolog.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.logger.Debug().Fields(keysAndValues).Msg(msg)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.logger.Error().Err(err).Fields(keysAndValues).Msg(msg)
}
