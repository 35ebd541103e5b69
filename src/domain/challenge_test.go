package domain

import (
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestChallenge_Window(t *testing.T) {
	start := time.Date(2026, 10, 12, 0, 0, 0, 0, time.UTC)
	end := start.Add(7*24*time.Hour - time.Millisecond)
	challenge := &Challenge{ID: 1, StartDate: &start, EndDate: &end}

	assert.True(t, challenge.HasWindow())
	assert.True(t, challenge.Contains(start))
	assert.True(t, challenge.Contains(end))
	assert.False(t, challenge.Contains(start.Add(-time.Millisecond)))
	assert.False(t, challenge.Contains(end.Add(time.Millisecond)))

	assert.False(t, challenge.Expired(end))
	assert.True(t, challenge.Expired(end.Add(time.Millisecond)))

	assert.True(t, challenge.StartsAfter(start.Add(-time.Millisecond)))
	assert.False(t, challenge.StartsAfter(start))
}

func TestChallenge_Unscheduled(t *testing.T) {
	challenge := &Challenge{ID: 1}
	now := time.Now()

	assert.False(t, challenge.HasWindow())
	assert.False(t, challenge.Contains(now))
	assert.False(t, challenge.Expired(now))
	assert.False(t, challenge.StartsAfter(now))
}

func TestDomainError(t *testing.T) {
	cause := errors.New("connection reset")
	err := NewError(ErrorCodeRemoteProcess, cause,
		WithMsg("Failed to refresh the current challenge"),
		WithDetail(map[string]interface{}{"attempt": 1}),
	)

	var domainErr DomainError
	assert.ErrorAs(t, err, &domainErr)
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "connection reset", err.Error())
	assert.Equal(t, "REMOTE_PROCESS_ERROR", domainErr.Name())
	assert.Equal(t, http.StatusBadGateway, domainErr.HTTPStatus())
	assert.Equal(t, "Failed to refresh the current challenge", domainErr.ClientMsg())
	assert.Equal(t, 1, domainErr.Detail()["attempt"])
}

func TestDomainError_ZeroValue(t *testing.T) {
	var domainErr DomainError

	assert.Equal(t, "INTERNAL_PROCESS", domainErr.Name())
	assert.Equal(t, http.StatusInternalServerError, domainErr.HTTPStatus())
	assert.Equal(t, "INTERNAL_PROCESS", domainErr.Error())
	assert.Empty(t, domainErr.ClientMsg())
	assert.Nil(t, domainErr.Detail())
}
