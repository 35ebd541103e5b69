package service

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/partyplaylist/backend/src/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestChallengeService(store ChallengeStore, now time.Time, config RotationConfig) *ChallengeService {
	monitor := newTestMonitor(store, now, config)
	return NewChallengeService(store, monitor, fixedClock(now))
}

func fiveWeekStore(activeID int64) *memStore {
	store := threeWeekStore(activeID)
	for i, id := range []int64{4, 5} {
		c := challengeWithWindow(id, week3.AddDate(0, 0, 7*(i+1)), false)
		store.challenges[id] = c
	}
	return store
}

func TestGetCurrentChallenge(t *testing.T) {
	ctx := context.Background()

	t.Run("consistent state is read without writes", func(t *testing.T) {
		store := threeWeekStore(1)
		svc := newTestChallengeService(store, midWeek1, RotationConfig{})

		current := svc.GetCurrentChallenge(ctx)
		require.NotNil(t, current)
		assert.Equal(t, int64(1), current.ID)
		assert.Zero(t, store.writeCount())
	})

	t.Run("expired active is corrected before returning", func(t *testing.T) {
		store := threeWeekStore(1)
		svc := newTestChallengeService(store, at("2026-10-20T12:00:00Z"), RotationConfig{})

		current := svc.GetCurrentChallenge(ctx)
		require.NotNil(t, current)
		assert.Equal(t, int64(2), current.ID)
		assert.Equal(t, []int64{2}, store.activeIDs())
	})

	t.Run("empty table", func(t *testing.T) {
		svc := newTestChallengeService(newMemStore(), midWeek1, RotationConfig{})
		assert.Nil(t, svc.GetCurrentChallenge(ctx))
	})

	t.Run("store failure degrades to nil", func(t *testing.T) {
		store := threeWeekStore(1)
		store.failOn["FindActive"] = errors.New("connection reset")
		svc := newTestChallengeService(store, midWeek1, RotationConfig{})

		assert.Nil(t, svc.GetCurrentChallenge(ctx))
	})

	t.Run("failed correction degrades to nil", func(t *testing.T) {
		store := threeWeekStore(0)
		store.failOn["Activate"] = errors.New("connection reset")
		svc := newTestChallengeService(store, midWeek1, RotationConfig{})

		assert.Nil(t, svc.GetCurrentChallenge(ctx))
	})

	t.Run("lease held elsewhere with inconsistent state", func(t *testing.T) {
		store := threeWeekStore(1)
		store.force(2, true)
		svc := newTestChallengeService(store, midWeek1, RotationConfig{Lock: &stubLock{}})

		assert.Nil(t, svc.GetCurrentChallenge(ctx))
		assert.Equal(t, []int64{1, 2}, store.activeIDs())
	})
}

func TestGetUpcomingChallenges(t *testing.T) {
	ctx := context.Background()

	t.Run("soonest first, current excluded", func(t *testing.T) {
		store := fiveWeekStore(1)
		svc := newTestChallengeService(store, midWeek1, RotationConfig{})

		upcoming, err := svc.GetUpcomingChallenges(ctx, DefaultUpcomingLimit)
		require.NoError(t, err)
		require.Len(t, upcoming, 3)
		assert.Equal(t, int64(2), upcoming[0].ID)
		assert.Equal(t, int64(3), upcoming[1].ID)
		assert.Equal(t, int64(4), upcoming[2].ID)
	})

	t.Run("fewer than the limit", func(t *testing.T) {
		store := fiveWeekStore(1)
		svc := newTestChallengeService(store, at("2026-11-04T12:00:00Z"), RotationConfig{})

		upcoming, err := svc.GetUpcomingChallenges(ctx, 10)
		require.NoError(t, err)
		require.Len(t, upcoming, 1)
		assert.Equal(t, int64(5), upcoming[0].ID)
	})

	t.Run("limit out of range", func(t *testing.T) {
		svc := newTestChallengeService(newMemStore(), midWeek1, RotationConfig{})

		for _, limit := range []int{0, -1, MaxUpcomingLimit + 1} {
			_, err := svc.GetUpcomingChallenges(ctx, limit)
			require.Error(t, err)

			var domainErr domain.DomainError
			require.ErrorAs(t, err, &domainErr)
			assert.Equal(t, http.StatusBadRequest, domainErr.HTTPStatus())
			assert.Equal(t, "PARAMETER_INVALID", domainErr.Name())
		}
	})

	t.Run("store failure", func(t *testing.T) {
		store := fiveWeekStore(1)
		store.failOn["FindUpcoming"] = errors.New("connection reset")
		svc := newTestChallengeService(store, midWeek1, RotationConfig{})

		_, err := svc.GetUpcomingChallenges(ctx, 3)
		var domainErr domain.DomainError
		require.ErrorAs(t, err, &domainErr)
		assert.Equal(t, http.StatusBadGateway, domainErr.HTTPStatus())
	})
}

func TestChallengeService_ForceRefresh(t *testing.T) {
	store := threeWeekStore(1)
	store.failOn["FindActive"] = errors.New("connection reset")
	svc := newTestChallengeService(store, midWeek1, RotationConfig{})

	_, err := svc.ForceRefresh(context.Background())
	var domainErr domain.DomainError
	require.ErrorAs(t, err, &domainErr)
	assert.Equal(t, "REMOTE_PROCESS_ERROR", domainErr.Name())
	assert.Equal(t, "Failed to refresh the current challenge", domainErr.ClientMsg())

	delete(store.failOn, "FindActive")
	current, err := svc.ForceRefresh(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(1), current.ID)
}

func TestChallengeService_InitializeSchedule(t *testing.T) {
	ctx := context.Background()

	t.Run("scheduled", func(t *testing.T) {
		store := newMemStore(unscheduled(2), unscheduled(1))
		svc := newTestChallengeService(store, midWeek1, RotationConfig{})

		scheduled, err := svc.InitializeSchedule(ctx)
		require.NoError(t, err)
		assert.True(t, scheduled)
		assert.Equal(t, []int64{1}, store.activeIDs())

		all, err := svc.ListChallenges(ctx)
		require.NoError(t, err)
		require.Len(t, all, 2)
		assert.Equal(t, int64(1), all[0].ID)
		assert.True(t, week2.Equal(*all[1].StartDate))
	})

	t.Run("lease held elsewhere is a conflict", func(t *testing.T) {
		store := newMemStore(unscheduled(2), unscheduled(1))
		svc := newTestChallengeService(store, midWeek1, RotationConfig{Lock: &stubLock{}})

		scheduled, err := svc.InitializeSchedule(ctx)
		assert.False(t, scheduled)
		assert.ErrorIs(t, err, ErrTickInProgress)

		var domainErr domain.DomainError
		require.ErrorAs(t, err, &domainErr)
		assert.Equal(t, "RESOURCE_CONFLICT", domainErr.Name())
		assert.Equal(t, http.StatusConflict, domainErr.HTTPStatus())
		assert.Zero(t, store.writeCount())
		assert.Nil(t, store.get(1).StartDate)
	})
}

func TestChallengeService_GetChallenge(t *testing.T) {
	ctx := context.Background()

	t.Run("found", func(t *testing.T) {
		svc := newTestChallengeService(threeWeekStore(1), midWeek1, RotationConfig{})

		challenge, err := svc.GetChallenge(ctx, 2)
		require.NoError(t, err)
		assert.Equal(t, int64(2), challenge.ID)
		assert.True(t, week2.Equal(*challenge.StartDate))
	})

	t.Run("not found", func(t *testing.T) {
		svc := newTestChallengeService(threeWeekStore(1), midWeek1, RotationConfig{})

		_, err := svc.GetChallenge(ctx, 42)
		var domainErr domain.DomainError
		require.ErrorAs(t, err, &domainErr)
		assert.Equal(t, "RESOURCE_NOT_FOUND", domainErr.Name())
		assert.Equal(t, "Challenge not found", domainErr.ClientMsg())
	})

	t.Run("store failure", func(t *testing.T) {
		store := threeWeekStore(1)
		store.failOn["FindChallengeById"] = errors.New("connection reset")
		svc := newTestChallengeService(store, midWeek1, RotationConfig{})

		_, err := svc.GetChallenge(ctx, 1)
		var domainErr domain.DomainError
		require.ErrorAs(t, err, &domainErr)
		assert.Equal(t, http.StatusBadGateway, domainErr.HTTPStatus())
	})
}
