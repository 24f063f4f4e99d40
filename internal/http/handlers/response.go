// Package handlers provides the HTTP handlers of the public API.
//
// This file holds the response helpers shared by every endpoint so that
// success and error bodies have one shape:
//
//	HTTP/1.1 404 Not Found
//	{
//	  "request_id": "123e4567-e89b-12d3-a456-426614174000",
//	  "code": "not_found",
//	  "message": "post not found"
//	}
package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/fandom-backend/internal/http/middleware"
)

// ErrorResponse is the standard error envelope returned by all endpoints.
type ErrorResponse struct {
	// Correlates server logs and client errors
	RequestID string `json:"request_id,omitempty" example:"123e4567-e89b-12d3-a456-426614174000"`
	// Stable, machine-readable code (see errors.go constants)
	Code string `json:"code" example:"not_found"`
	// Human-readable message (safe to show to users)
	Message string `json:"message" example:"resource not found"`
}

// MessageResponse acknowledges an operation that has no resource to return.
type MessageResponse struct {
	Message string `json:"message" example:"friend request rejected"`
}

// SuccessResponse acknowledges a replace-set save.
type SuccessResponse struct {
	Success bool   `json:"success" example:"true"`
	Message string `json:"message" example:"ratings saved"`
}

// fail aborts the request with the error envelope. 5xx responses are logged
// with the request-scoped logger.
func fail(c *gin.Context, status int, code, msg string) {
	if status >= http.StatusInternalServerError {
		lg := middleware.LoggerFrom(c)
		lg.Error().
			Int("status", status).
			Str("code", code).
			Str("message", msg).
			Msg("api error")
	}
	c.AbortWithStatusJSON(status, ErrorResponse{
		RequestID: middleware.RequestIDFrom(c),
		Code:      code,
		Message:   msg,
	})
}

// Fail is the exported variant of fail for router-level fallbacks.
func Fail(c *gin.Context, status int, code, msg string) { fail(c, status, code, msg) }

func ok(c *gin.Context, status int, body any) {
	c.JSON(status, body)
}

func noContent(c *gin.Context) {
	c.Status(http.StatusNoContent)
}

// bindJSON decodes the body into dst, answering 400 on malformed input.
func bindJSON(c *gin.Context, dst any) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		middleware.LoggerFrom(c).Debug().Err(err).Msg("bad request body")
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid JSON body")
		return false
	}
	return true
}

// pathParam returns a trimmed, non-empty path parameter or answers 400.
func pathParam(c *gin.Context, name string) (string, bool) {
	v := strings.TrimSpace(c.Param(name))
	if v == "" {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, name+" is required")
		return "", false
	}
	return v, true
}

// currentUser returns the internal id resolved by the auth middleware.
func currentUser(c *gin.Context) string {
	return middleware.UserIDFrom(c)
}

// notModified sets a weak ETag for version and answers 304 when the client
// already holds it.
func notModified(c *gin.Context, scope, version string) bool {
	etag := `W/"` + scope + ":" + version + `"`
	c.Header("ETag", etag)
	c.Header("Cache-Control", "private, no-cache")
	for _, cand := range strings.Split(c.GetHeader("If-None-Match"), ",") {
		if cand = strings.TrimSpace(cand); cand == etag || cand == "*" {
			c.Status(http.StatusNotModified)
			return true
		}
	}
	return false
}
