package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/partyplaylist/backend/src/domain"
	"github.com/partyplaylist/backend/src/service"
	"github.com/rs/zerolog"
)

// ChallengeService is the part of the rotation core exposed over HTTP
type ChallengeService interface {
	GetCurrentChallenge(ctx context.Context) *domain.Challenge
	GetChallenge(ctx context.Context, id int64) (*domain.Challenge, error)
	GetUpcomingChallenges(ctx context.Context, limit int) ([]*domain.Challenge, error)
	ListChallenges(ctx context.Context) ([]*domain.Challenge, error)
	ForceRefresh(ctx context.Context) (*domain.Challenge, error)
	InitializeSchedule(ctx context.Context) (bool, error)
}

type ChallengeHandler struct {
	challengeService ChallengeService
}

func NewChallengeHandler(challengeService ChallengeService) *ChallengeHandler {
	return &ChallengeHandler{
		challengeService: challengeService,
	}
}

func (h *ChallengeHandler) logger(ctx context.Context) *zerolog.Logger {
	l := zerolog.Ctx(ctx).With().Str("handler", "challenge").Logger()
	return &l
}

// CurrentChallengeResponse wraps the active challenge. Challenge is null when none is active.
type CurrentChallengeResponse struct {
	Challenge *domain.Challenge `json:"challenge"`
}

// ChallengeListResponse wraps a list of challenges
type ChallengeListResponse struct {
	Challenges []*domain.Challenge `json:"challenges"`
	Count      int                 `json:"count"`
}

// InitializeScheduleResponse reports whether a schedule was written
type InitializeScheduleResponse struct {
	Scheduled bool              `json:"scheduled"`
	Current   *domain.Challenge `json:"current"`
}

// UpcomingQuery holds the query parameters of GET /challenges/upcoming
type UpcomingQuery struct {
	Limit int `form:"limit" binding:"omitempty,min=1,max=50"`
}

// ChallengeURI holds the path parameter of GET /challenges/:id
type ChallengeURI struct {
	ID int64 `uri:"id" binding:"required,min=1"`
}

// GetCurrentChallenge godoc
// @Summary Current weekly challenge
// @Description Returns the active challenge. An empty schedule yields a null challenge, never an error.
// @Tags challenges
// @Produce json
// @Success 200 {object} StandardResponse{data=CurrentChallengeResponse}
// @Router /challenges/current [get]
func (h *ChallengeHandler) GetCurrentChallenge(c *gin.Context) {
	challenge := h.challengeService.GetCurrentChallenge(c.Request.Context())
	respondWithSuccess(c, CurrentChallengeResponse{Challenge: challenge})
}

// GetUpcomingChallenges godoc
// @Summary Upcoming weekly challenges
// @Description Challenges starting strictly after now, soonest first
// @Tags challenges
// @Produce json
// @Param limit query int false "Maximum number of challenges (1-50, default 3)"
// @Success 200 {object} StandardResponse{data=ChallengeListResponse}
// @Failure 400 {object} StandardResponse
// @Router /challenges/upcoming [get]
func (h *ChallengeHandler) GetUpcomingChallenges(c *gin.Context) {
	logger := h.logger(c.Request.Context()).With().Str("func", "GetUpcomingChallenges").Logger()

	var query UpcomingQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		logger.Error().Err(err).Msg("invalid query parameters")
		respondWithError(c, domain.NewError(domain.ErrorCodeParameterInvalid, err, domain.WithMsg("limit must be between 1 and 50")))
		return
	}
	if query.Limit == 0 {
		query.Limit = service.DefaultUpcomingLimit
	}

	challenges, err := h.challengeService.GetUpcomingChallenges(c.Request.Context(), query.Limit)
	if err != nil {
		respondWithError(c, err)
		return
	}

	respondWithSuccess(c, ChallengeListResponse{Challenges: challenges, Count: len(challenges)})
}

// ListChallenges godoc
// @Summary All challenges in rotation order
// @Tags challenges
// @Produce json
// @Success 200 {object} StandardResponse{data=ChallengeListResponse}
// @Router /challenges [get]
func (h *ChallengeHandler) ListChallenges(c *gin.Context) {
	challenges, err := h.challengeService.ListChallenges(c.Request.Context())
	if err != nil {
		respondWithError(c, err)
		return
	}

	respondWithSuccess(c, ChallengeListResponse{Challenges: challenges, Count: len(challenges)})
}

// GetChallenge godoc
// @Summary Single challenge
// @Tags challenges
// @Produce json
// @Param id path int true "Challenge ID"
// @Success 200 {object} StandardResponse{data=domain.Challenge}
// @Failure 400 {object} StandardResponse
// @Failure 404 {object} StandardResponse
// @Router /challenges/{id} [get]
func (h *ChallengeHandler) GetChallenge(c *gin.Context) {
	var uri ChallengeURI
	if err := c.ShouldBindUri(&uri); err != nil {
		h.logger(c.Request.Context()).Error().Err(err).Str("func", "GetChallenge").Msg("invalid challenge id")
		respondWithError(c, domain.NewError(domain.ErrorCodeParameterInvalid, err, domain.WithMsg("id must be a positive integer")))
		return
	}

	challenge, err := h.challengeService.GetChallenge(c.Request.Context(), uri.ID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	respondWithSuccess(c, challenge)
}

// ForceRefresh godoc
// @Summary Force a rotation check
// @Description Re-runs the check-and-correct routine and returns the resulting active challenge
// @Tags challenges
// @Produce json
// @Param X-API-Secret header string true "Operator secret"
// @Success 200 {object} StandardResponse{data=CurrentChallengeResponse}
// @Failure 401 {object} StandardResponse
// @Failure 429 {object} StandardResponse
// @Failure 502 {object} StandardResponse
// @Router /challenges/refresh [post]
func (h *ChallengeHandler) ForceRefresh(c *gin.Context) {
	logger := h.logger(c.Request.Context()).With().Str("func", "ForceRefresh").Logger()

	challenge, err := h.challengeService.ForceRefresh(c.Request.Context())
	if err != nil {
		respondWithError(c, err)
		return
	}

	event := logger.Info()
	if challenge != nil {
		event = event.Int64("challenge_id", challenge.ID)
	}
	event.Msg("forced refresh completed")

	respondWithSuccess(c, CurrentChallengeResponse{Challenge: challenge})
}

// InitializeSchedule godoc
// @Summary Rebuild the weekly schedule
// @Description Assigns consecutive weekly windows to every challenge starting this week and activates the first
// @Tags challenges
// @Produce json
// @Param X-API-Secret header string true "Operator secret"
// @Success 201 {object} StandardResponse{data=InitializeScheduleResponse}
// @Success 200 {object} StandardResponse{data=InitializeScheduleResponse}
// @Failure 401 {object} StandardResponse
// @Failure 409 {object} StandardResponse
// @Failure 502 {object} StandardResponse
// @Router /challenges/schedule [post]
func (h *ChallengeHandler) InitializeSchedule(c *gin.Context) {
	logger := h.logger(c.Request.Context()).With().Str("func", "InitializeSchedule").Logger()

	scheduled, err := h.challengeService.InitializeSchedule(c.Request.Context())
	if err != nil {
		respondWithError(c, err)
		return
	}

	if !scheduled {
		logger.Info().Msg("nothing to schedule")
		respondWithStatus(c, http.StatusOK, "Nothing to schedule", InitializeScheduleResponse{Scheduled: false})
		return
	}

	current := h.challengeService.GetCurrentChallenge(c.Request.Context())
	logger.Info().Msg("challenge schedule initialized")
	respondWithStatus(c, http.StatusCreated, "Schedule initialized", InitializeScheduleResponse{Scheduled: true, Current: current})
}
