package middleware

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/fandom-backend/internal/auth"
	"github.com/tbourn/fandom-backend/internal/services"
)

// Context keys set by the authentication chain.
const (
	ctxKeySub    = "sub"
	ctxKeyUserID = "userID"
)

// TokenVerifier validates a raw bearer token and returns its subject.
type TokenVerifier interface {
	Verify(raw string) (string, error)
}

// SubjectResolver maps a token subject to the internal user id.
type SubjectResolver interface {
	ResolveSub(ctx context.Context, sub string) (string, error)
}

// RequireAuth verifies the Authorization bearer token and stores its subject
// in the context. Failures abort with 401 and a message naming the problem
// (missing, invalid or expired token).
func RequireAuth(v TokenVerifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		raw, err := auth.BearerToken(c.GetHeader("Authorization"))
		if err == nil {
			var sub string
			if sub, err = v.Verify(raw); err == nil {
				c.Set(ctxKeySub, sub)
				c.Next()
				return
			}
		}

		msg := "invalid token"
		switch {
		case errors.Is(err, auth.ErrMissingToken):
			msg = "missing bearer token"
		case errors.Is(err, auth.ErrExpiredToken):
			msg = "token expired"
		}
		LoggerFrom(c).Debug().Err(err).Msg("authentication failed")
		c.Header("WWW-Authenticate", `Bearer realm="api"`)
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
			"request_id": RequestIDFrom(c),
			"code":       "unauthorized",
			"message":    msg,
		})
	}
}

// ResolveUser binds the verified subject to an internal user id. Requests
// whose subject has no user yet get 404 so the client knows to call the
// sync endpoint; paths listed in skip are passed through unresolved.
func ResolveUser(r SubjectResolver, skip ...string) gin.HandlerFunc {
	skipped := make(map[string]bool, len(skip))
	for _, p := range skip {
		skipped[p] = true
	}
	return func(c *gin.Context) {
		if skipped[c.FullPath()] {
			c.Next()
			return
		}
		sub := SubjectFrom(c)
		if sub == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"request_id": RequestIDFrom(c),
				"code":       "unauthorized",
				"message":    "missing bearer token",
			})
			return
		}
		uid, err := r.ResolveSub(c.Request.Context(), sub)
		if err != nil {
			status, code, msg := http.StatusNotFound, "not_found", "user not registered; call POST /users/sync first"
			if services.KindOf(err) != services.KindNotFound {
				LoggerFrom(c).Error().Err(err).Msg("resolve subject")
				status, code, msg = http.StatusInternalServerError, "internal_error", "internal server error"
			}
			c.AbortWithStatusJSON(status, gin.H{
				"request_id": RequestIDFrom(c),
				"code":       code,
				"message":    msg,
			})
			return
		}
		c.Set(ctxKeyUserID, uid)
		withUser(c, uid)
		c.Next()
	}
}

// SubjectFrom returns the verified token subject, or "".
func SubjectFrom(c *gin.Context) string {
	return c.GetString(ctxKeySub)
}

// UserIDFrom returns the resolved internal user id, or "".
func UserIDFrom(c *gin.Context) string {
	return c.GetString(ctxKeyUserID)
}
