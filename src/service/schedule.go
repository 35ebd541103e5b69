package service

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"time"

	"github.com/partyplaylist/backend/src/domain"
	"github.com/rs/zerolog"
)

const (
	challengeWeek = 7 * 24 * time.Hour
	// windows end on the last millisecond of their seventh day
	windowEndOffset = challengeWeek - time.Millisecond
)

// WeekStart returns Monday 00:00:00.000 UTC of the week containing t.
func WeekStart(t time.Time) time.Time {
	t = t.UTC()
	daysSinceMonday := (int(t.Weekday()) + 6) % 7
	midnight := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
	return midnight.AddDate(0, 0, -daysSinceMonday)
}

// BuildSchedule tiles one week per challenge in id order starting at the week containing now.
// The first window is marked active.
func BuildSchedule(challenges []*domain.Challenge, now time.Time) []domain.ScheduleEntry {
	ordered := slices.Clone(challenges)
	slices.SortFunc(ordered, func(a, b *domain.Challenge) int {
		return cmp.Compare(a.ID, b.ID)
	})

	weekStart := WeekStart(now)
	entries := make([]domain.ScheduleEntry, 0, len(ordered))
	for i, challenge := range ordered {
		start := weekStart.AddDate(0, 0, 7*i)
		entries = append(entries, domain.ScheduleEntry{
			ChallengeID: challenge.ID,
			StartDate:   start,
			EndDate:     start.Add(windowEndOffset),
			IsActive:    i == 0,
		})
	}
	return entries
}

// ScheduleInitializer rewrites the windows of every challenge from scratch
type ScheduleInitializer struct {
	store ChallengeStore
}

func NewScheduleInitializer(store ChallengeStore) *ScheduleInitializer {
	return &ScheduleInitializer{
		store: store,
	}
}

// logger wraps the execution context with component info
func (s *ScheduleInitializer) logger(ctx context.Context) *zerolog.Logger {
	l := zerolog.Ctx(ctx).With().Str("component", "schedule-initializer").Logger()
	return &l
}

// Initialize assigns consecutive weekly windows anchored at now and activates the first one.
// The whole pass is written at once, so a failed run is retried from the top rather than resumed.
func (s *ScheduleInitializer) Initialize(ctx context.Context, now time.Time) ([]domain.ScheduleEntry, error) {
	challenges, err := s.store.ListChallenges(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list challenges: %w", err)
	}

	if len(challenges) == 0 {
		s.logger(ctx).Info().Msg("no challenges found, nothing to schedule")
		return nil, ErrNothingToSchedule
	}

	entries := BuildSchedule(challenges, now)
	if err := s.store.ApplySchedule(ctx, entries); err != nil {
		return nil, fmt.Errorf("failed to apply schedule: %w", err)
	}

	first, last := entries[0], entries[len(entries)-1]
	s.logger(ctx).Info().
		Int("challenge_count", len(entries)).
		Int64("active_challenge_id", first.ChallengeID).
		Time("schedule_start", first.StartDate).
		Time("schedule_end", last.EndDate).
		Msg("challenge schedule initialized")

	return entries, nil
}
