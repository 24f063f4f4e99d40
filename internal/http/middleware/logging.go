// Package middleware contains the Gin middleware shared by the HTTP layer:
// correlation ids, access logging, panic recovery, bearer authentication,
// idempotency keys, rate limiting, security headers and Prometheus metrics.
//
// Recommended order: RequestID, Logger (or RedactingLogger), Recovery,
// Metrics, then RequireAuth and ResolveUser on the protected group.
package middleware

import (
	"net/http"
	"regexp"
	"runtime/debug"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

const (
	requestIDKey      = "requestID"
	requestIDHeader   = "X-Request-ID"
	loggerKey         = "logger"
	maxQueryLogLength = 2048
)

// Client-supplied request ids are only trusted when they look like ids.
var requestIDPattern = regexp.MustCompile(`^[A-Za-z0-9._\-]{1,128}$`)

// RequestID propagates a well-formed X-Request-ID or generates a UUIDv4, and
// echoes it on the response.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		rid := c.GetHeader(requestIDHeader)
		if !requestIDPattern.MatchString(rid) {
			rid = uuid.NewString()
		}
		c.Set(requestIDKey, rid)
		c.Writer.Header().Set(requestIDHeader, rid)
		c.Next()
	}
}

// RequestIDFrom returns the correlation id of the current request, or "".
func RequestIDFrom(c *gin.Context) string {
	return c.GetString(requestIDKey)
}

// Logger attaches a request-scoped zerolog.Logger to the context and writes
// one access log line per request: error for 5xx or recorded gin errors, warn
// for 4xx, info otherwise. The query string is scrubbed of emails, phone
// numbers and UUIDs; use RedactingLogger to also log request headers.
func Logger() gin.HandlerFunc {
	return accessLog(defaultRedactor, false)
}

func accessLog(rd *redactor, withHeaders bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		l := log.With().
			Str("request_id", RequestIDFrom(c)).
			Str("method", c.Request.Method).
			Str("route", routeOf(c)).
			Logger()
		c.Set(loggerKey, &l)

		var headers map[string]string
		if withHeaders {
			headers = rd.headers(c.Request.Header)
		}

		c.Next()

		// ResolveUser may have replaced the logger with one carrying user_id.
		lg := LoggerFrom(c)
		status := c.Writer.Status()
		var ev *zerolog.Event
		switch {
		case len(c.Errors) > 0:
			ev = lg.Error().Str("errors", c.Errors.String())
		case status >= 500:
			ev = lg.Error()
		case status >= 400:
			ev = lg.Warn()
		default:
			ev = lg.Info()
		}
		if headers != nil {
			ev = ev.Interface("headers", headers)
		}
		ev.Str("remote_ip", c.ClientIP()).
			Str("user_agent", rd.scrub(c.Request.UserAgent())).
			Str("query", truncate(rd.scrub(c.Request.URL.RawQuery), maxQueryLogLength)).
			Int64("bytes_in", c.Request.ContentLength).
			Int("status", status).
			Int("bytes_out", c.Writer.Size()).
			Dur("latency", time.Since(start)).
			Msg("request")
	}
}

// Recovery turns a panic into the JSON 500 envelope and logs the stack. When
// the handler already started writing, only the status is forced.
func Recovery() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			rec := recover()
			if rec == nil {
				return
			}
			LoggerFrom(c).Error().
				Interface("panic", rec).
				Bytes("stack", debug.Stack()).
				Msg("panic recovered")

			if c.Writer.Written() {
				c.AbortWithStatus(http.StatusInternalServerError)
				return
			}
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
				"request_id": RequestIDFrom(c),
				"code":       "internal_error",
				"message":    "internal server error",
			})
		}()
		c.Next()
	}
}

// LoggerFrom returns the request-scoped logger, falling back to the global
// logger when Logger is not installed.
func LoggerFrom(c *gin.Context) *zerolog.Logger {
	if v, ok := c.Get(loggerKey); ok {
		if lg, ok := v.(*zerolog.Logger); ok {
			return lg
		}
	}
	l := log.With().Logger()
	return &l
}

// withUser rebinds the request-scoped logger with the resolved user id.
func withUser(c *gin.Context, userID string) {
	l := LoggerFrom(c).With().Str("user_id", userID).Logger()
	c.Set(loggerKey, &l)
}

func routeOf(c *gin.Context) string {
	if p := c.FullPath(); p != "" {
		return p
	}
	return c.Request.URL.Path
}

// truncate caps s at max bytes. A max <= 0 disables truncation.
func truncate(s string, max int) string {
	if max <= 0 || len(s) <= max {
		return s
	}
	return s[:max] + "…"
}
