// Package utils provides small, generic helper functions used across
// different layers of the application. These utilities are independent
// of domain or business logic.
package utils

import (
	"errors"
	"strconv"
	"strings"
	"time"
)

// ErrBadCursor is returned by ParseCursor for values that are not RFC 3339
// timestamps.
var ErrBadCursor = errors.New("bad cursor")

// AtoiDefault converts a string to an int using strconv.Atoi.
// If the string is empty or cannot be parsed as an integer,
// it returns the provided default value instead.
//
// Example:
//
//	n := utils.AtoiDefault("42", 0) // returns 42
//	n = utils.AtoiDefault("", 10)   // returns 10
//	n = utils.AtoiDefault("x", 5)   // returns 5
func AtoiDefault(s string, def int) int {
	if s == "" {
		return def
	}
	if n, err := strconv.Atoi(s); err == nil {
		return n
	}
	return def
}

// ClampPageSize returns def when n is not positive and max when n exceeds
// it. A non-positive max disables the upper bound.
func ClampPageSize(n, def, max int) int {
	if n <= 0 {
		n = def
	}
	if max > 0 && n > max {
		n = max
	}
	return n
}

// ParseCursor parses a feed cursor. An empty string means "from the top" and
// yields nil. Both RFC 3339 and RFC 3339 with fractional seconds are
// accepted; the result is in UTC.
func ParseCursor(s string) (*time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return nil, ErrBadCursor
	}
	t = t.UTC()
	return &t, nil
}

// FormatCursor renders t as a cursor accepted by ParseCursor.
func FormatCursor(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

// ParseUintPtr parses an optional unsigned id. Empty input yields nil.
func ParseUintPtr(s string) (*uint, error) {
	if s == "" {
		return nil, nil
	}
	n, err := strconv.ParseUint(s, 10, 0)
	if err != nil {
		return nil, err
	}
	v := uint(n)
	return &v, nil
}

// SplitIDs splits a comma-separated id list, dropping blanks and duplicates
// while keeping the first-seen order.
func SplitIDs(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	seen := make(map[string]bool, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" || seen[p] {
			continue
		}
		seen[p] = true
		out = append(out, p)
	}
	return out
}
