package middleware

import (
	"net/http"
	"regexp"
	"strings"

	"github.com/gin-gonic/gin"
)

// RedactOptions configures RedactingLogger.
//
// MaskHeaders lists extra header names (case-insensitive) whose values are
// replaced wholesale with "[REDACTED]", on top of Authorization, Cookie,
// Set-Cookie and Idempotency-Key.
type RedactOptions struct {
	MaskHeaders []string
}

// UUIDs are replaced before phone numbers so the looser phone pattern cannot
// eat the digit groups of an id.
var (
	uuidRE  = regexp.MustCompile(`(?i)\b[0-9a-f]{8}-[0-9a-f]{4}-[1-8][0-9a-f]{3}-[89ab][0-9a-f]{3}-[0-9a-f]{12}\b`)
	emailRE = regexp.MustCompile(`(?i)\b[a-z0-9._%+\-]+@[a-z0-9.\-]+\.[a-z]{2,}\b`)
	phoneRE = regexp.MustCompile(`\b(?:\+?\d{1,3}[ .-]?)?(?:\(?\d{2,4}\)?[ .-]?)?\d{3,4}[ .-]?\d{4}\b`)
)

var defaultMasked = []string{"authorization", "cookie", "set-cookie", "idempotency-key"}

type redactor struct {
	masked map[string]bool
}

var defaultRedactor = newRedactor(nil)

func newRedactor(extra []string) *redactor {
	rd := &redactor{masked: make(map[string]bool, len(defaultMasked)+len(extra))}
	for _, h := range append(append([]string{}, defaultMasked...), extra...) {
		if h = strings.ToLower(strings.TrimSpace(h)); h != "" {
			rd.masked[h] = true
		}
	}
	return rd
}

func (rd *redactor) scrub(s string) string {
	if s == "" {
		return s
	}
	s = uuidRE.ReplaceAllString(s, "[REDACTED:id]")
	s = emailRE.ReplaceAllString(s, "[REDACTED:email]")
	return phoneRE.ReplaceAllString(s, "[REDACTED:phone]")
}

func (rd *redactor) headers(h http.Header) map[string]string {
	out := make(map[string]string, len(h))
	for k, vv := range h {
		if rd.masked[strings.ToLower(k)] {
			out[k] = "[REDACTED]"
			continue
		}
		out[k] = rd.scrub(strings.Join(vv, ", "))
	}
	return out
}

// RedactingLogger is Logger plus a scrubbed copy of the request headers.
// Bodies are never logged.
func RedactingLogger(opts RedactOptions) gin.HandlerFunc {
	return accessLog(newRedactor(opts.MaskHeaders), true)
}
