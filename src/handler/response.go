package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/partyplaylist/backend/src/domain"
	"github.com/rs/zerolog"
)

// StandardResponse is the envelope of every API response. Code is 0 on success.
type StandardResponse struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
	Error   interface{} `json:"error,omitempty"`
}

const genericErrorCode = 1000

// errorCodes maps domain error names to the numeric codes clients switch on
var errorCodes = map[string]int{
	domain.ErrorCodeParameterInvalid.Name:     1001,
	domain.ErrorCodeResourceNotFound.Name:     1002,
	domain.ErrorCodeAuthPermissionDenied.Name: 1003,
	domain.ErrorCodeAuthNotAuthenticated.Name: 1004,
	domain.ErrorCodeInternalProcess.Name:      1005,
	domain.ErrorCodeRemoteProcess.Name:        1006,
	domain.ErrorCodeTooManyRequests.Name:      1007,
	domain.ErrorCodeResourceConflict.Name:     1008,
}

func respondWithSuccess(c *gin.Context, data interface{}) {
	respondWithStatus(c, http.StatusOK, "OK", data)
}

// respondWithStatus sends a success envelope with an explicit status and message
func respondWithStatus(c *gin.Context, httpStatus int, message string, data interface{}) {
	c.JSON(httpStatus, StandardResponse{
		Code:    0,
		Message: message,
		Data:    data,
	})
}

// respondWithError aborts the request with the envelope derived from err.
// Errors that are not a domain.DomainError are reported as an internal error.
func respondWithError(c *gin.Context, err error) {
	var domainErr domain.DomainError
	errors.As(err, &domainErr)

	message := domainErr.ClientMsg()
	if message == "" {
		message = err.Error()
	}

	code, ok := errorCodes[domainErr.Name()]
	if !ok {
		code = genericErrorCode
	}

	response := StandardResponse{
		Code:    code,
		Message: message,
	}
	if detail := domainErr.Detail(); detail != nil {
		response.Error = detail
	}

	zerolog.Ctx(c.Request.Context()).Error().
		Err(err).
		Str("error_name", domainErr.Name()).
		Int("error_code", code).
		Int("status", domainErr.HTTPStatus()).
		Msg(message)

	_ = c.Error(err)
	c.AbortWithStatusJSON(domainErr.HTTPStatus(), response)
}
