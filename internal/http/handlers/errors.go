// Package handlers defines HTTP-layer error codes used across all API endpoints.
//
// Codes are lowercase snake_case and give clients a stable, machine-readable
// taxonomy next to the human-readable message. Service errors are translated
// by writeServiceError, which switches on services.KindOf.
//
// Example response:
//
//	{
//	  "request_id": "e1b9be03-4999-4289-9f03-999b042d65d6",
//	  "code": "conflict",
//	  "message": "a friendship or pending request already exists"
//	}
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/fandom-backend/internal/http/middleware"
	"github.com/tbourn/fandom-backend/internal/services"
)

const (
	ErrCodeBadRequest   = "bad_request"
	ErrCodeUnauthorized = "unauthorized"
	ErrCodeForbidden    = "forbidden"
	ErrCodeNotFound     = "not_found"
	ErrCodeConflict     = "conflict"
	ErrCodeInternal     = "internal_error"

	// Domain-specific:
	ErrCodeInvalidState     = "invalid_state"
	ErrCodeMethodNotAllowed = "method_not_allowed"
)

const internalMessage = "internal server error"

// writeServiceError maps a service error to its status and code. Client
// errors carry the sentinel's message only; internal errors are logged with
// their cause and answered with a generic message.
func writeServiceError(c *gin.Context, err error) {
	var status int
	var code string
	switch services.KindOf(err) {
	case services.KindInvalidArgument:
		status, code = http.StatusBadRequest, ErrCodeBadRequest
	case services.KindUnauthorized:
		status, code = http.StatusUnauthorized, ErrCodeUnauthorized
	case services.KindForbidden:
		status, code = http.StatusForbidden, ErrCodeForbidden
	case services.KindNotFound:
		status, code = http.StatusNotFound, ErrCodeNotFound
	case services.KindConflict:
		status, code = http.StatusConflict, ErrCodeConflict
	case services.KindInvalidState:
		status, code = http.StatusConflict, ErrCodeInvalidState
	default:
		middleware.LoggerFrom(c).Error().Err(err).Msg("unhandled service error")
		fail(c, http.StatusInternalServerError, ErrCodeInternal, internalMessage)
		return
	}

	lg := middleware.LoggerFrom(c)
	lg.Debug().Err(err).Str("code", code).Msg("request rejected")
	fail(c, status, code, services.Sentinel(err).Error())
}
