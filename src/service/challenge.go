package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/partyplaylist/backend/src/domain"
	"github.com/rs/zerolog"
)

const (
	DefaultUpcomingLimit = 3
	MaxUpcomingLimit     = 50
)

// ChallengeService is the read side consumed by the HTTP layer
type ChallengeService struct {
	store   ChallengeStore
	monitor *RotationMonitor
	clock   Clock
}

func NewChallengeService(store ChallengeStore, monitor *RotationMonitor, clock Clock) *ChallengeService {
	if clock == nil {
		clock = systemClock
	}
	return &ChallengeService{
		store:   store,
		monitor: monitor,
		clock:   clock,
	}
}

// logger wraps the execution context with component info
func (s *ChallengeService) logger(ctx context.Context) *zerolog.Logger {
	l := zerolog.Ctx(ctx).With().Str("component", "challenge-service").Logger()
	return &l
}

// GetCurrentChallenge returns the active challenge, running a correcting tick first when the
// stored state is not consistent. It never fails: any problem degrades to nil.
func (s *ChallengeService) GetCurrentChallenge(ctx context.Context) *domain.Challenge {
	now := s.clock()

	active, err := s.store.FindActive(ctx)
	if err != nil {
		s.logger(ctx).Error().Err(err).Msg("failed to read active challenge")
		return nil
	}
	if len(active) == 1 && active[0].Contains(now) {
		return active[0]
	}

	s.logger(ctx).Debug().Int("active_count", len(active)).Msg("no consistent active challenge, running correcting tick")

	result, err := s.monitor.Tick(ctx)
	switch {
	case errors.Is(err, ErrTickInProgress):
		current, err := s.monitor.currentActive(ctx, now)
		if err != nil {
			s.logger(ctx).Error().Err(err).Msg("failed to re-read active challenge")
			return nil
		}
		return current
	case err != nil:
		s.logger(ctx).Warn().Err(err).Msg("correcting tick failed, no current challenge")
		return nil
	}

	return result.Challenge
}

// ForceRefresh is the operator triggered re-check
func (s *ChallengeService) ForceRefresh(ctx context.Context) (*domain.Challenge, error) {
	challenge, err := s.monitor.ForceRefresh(ctx)
	if err != nil {
		s.logger(ctx).Error().Err(err).Msg("forced refresh failed")
		return nil, domain.NewError(domain.ErrorCodeRemoteProcess, err, domain.WithMsg("Failed to refresh the current challenge"))
	}
	return challenge, nil
}

// InitializeSchedule rebuilds the weekly schedule. It returns false when there are no challenges.
func (s *ChallengeService) InitializeSchedule(ctx context.Context) (bool, error) {
	scheduled, err := s.monitor.InitializeSchedule(ctx)
	if errors.Is(err, ErrTickInProgress) {
		s.logger(ctx).Warn().Msg("schedule initialization refused, rotation lease held elsewhere")
		return false, domain.NewError(domain.ErrorCodeResourceConflict, err, domain.WithMsg("Rotation in progress on another instance, retry shortly"))
	}
	if err != nil {
		s.logger(ctx).Error().Err(err).Msg("schedule initialization failed")
		return scheduled, domain.NewError(domain.ErrorCodeRemoteProcess, err, domain.WithMsg("Failed to initialize the challenge schedule"))
	}
	return scheduled, nil
}

// GetChallenge returns a single challenge by id
func (s *ChallengeService) GetChallenge(ctx context.Context, id int64) (*domain.Challenge, error) {
	challenge, err := s.store.FindChallengeById(ctx, id)
	if err != nil {
		s.logger(ctx).Error().Err(err).Int64("challenge_id", id).Msg("failed to retrieve challenge")
		return nil, domain.NewError(domain.ErrorCodeRemoteProcess, err)
	}
	if challenge == nil {
		return nil, domain.NewError(
			domain.ErrorCodeResourceNotFound,
			fmt.Errorf("challenge %d not found", id),
			domain.WithMsg("Challenge not found"),
		)
	}
	return challenge, nil
}

// GetUpcomingChallenges returns up to limit challenges starting strictly after now, soonest first
func (s *ChallengeService) GetUpcomingChallenges(ctx context.Context, limit int) ([]*domain.Challenge, error) {
	if limit < 1 || limit > MaxUpcomingLimit {
		return nil, domain.NewError(
			domain.ErrorCodeParameterInvalid,
			fmt.Errorf("limit %d out of range", limit),
			domain.WithMsg(fmt.Sprintf("limit must be between 1 and %d", MaxUpcomingLimit)),
		)
	}

	challenges, err := s.store.FindUpcoming(ctx, s.clock(), limit)
	if err != nil {
		s.logger(ctx).Error().Err(err).Msg("failed to retrieve upcoming challenges")
		return nil, domain.NewError(domain.ErrorCodeRemoteProcess, err)
	}

	s.logger(ctx).Debug().Int("challenge_count", len(challenges)).Msg("retrieved upcoming challenges")
	return challenges, nil
}

// ListChallenges returns every challenge in rotation order
func (s *ChallengeService) ListChallenges(ctx context.Context) ([]*domain.Challenge, error) {
	challenges, err := s.store.ListChallenges(ctx)
	if err != nil {
		s.logger(ctx).Error().Err(err).Msg("failed to retrieve challenges")
		return nil, domain.NewError(domain.ErrorCodeRemoteProcess, err)
	}
	return challenges, nil
}
