// Package services defines the business logic for users, friendships, feeds,
// rankings, ratings, taglines and sweepstakes. This file centralizes the
// service-level error values so that they can be consistently returned by
// service methods and checked by callers.
//
// Every sentinel belongs to exactly one Kind. Translation into HTTP status
// codes is performed at the handler layer by switching on KindOf(err).
package services

import "errors"

// Kind classifies a service error for transport mapping.
type Kind int

const (
	// KindInternal covers unexpected store or dependency failures.
	KindInternal Kind = iota
	KindInvalidArgument
	KindUnauthorized
	KindForbidden
	KindNotFound
	KindConflict
	KindInvalidState
)

// Generic errors.
var (
	// ErrNotFound is a generic "no such resource" error.
	ErrNotFound = errors.New("not found")

	// ErrInvalidArgument is a generic malformed-input error.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrUnauthorized is returned when the caller's identity cannot be established.
	ErrUnauthorized = errors.New("unauthorized")
)

// User errors.
var (
	ErrUserNotFound    = errors.New("user not found")
	ErrInvalidUsername = errors.New("username must be 3-30 characters of letters, digits or underscore")
	ErrUsernameTaken   = errors.New("username already taken")
	ErrInvalidProfile  = errors.New("invalid profile")
)

// Friendship errors.
var (
	ErrFriendshipNotFound = errors.New("friendship not found")
	ErrSelfRequest        = errors.New("cannot send a friend request to yourself")
	ErrFriendshipExists   = errors.New("a friendship or pending request already exists")
	ErrNotAddressee       = errors.New("only the addressee can respond to this request")
	ErrNotPending         = errors.New("friend request is not pending")
)

// Rating, tagline and catalog errors.
var (
	ErrInvalidRatings  = errors.New("invalid ratings")
	ErrInvalidTaglines = errors.New("invalid taglines")
	ErrEntityNotFound  = errors.New("referenced entity not found")
	ErrInvalidCategory = errors.New("category must be one of: teams, athletes, all")
)

// Post errors.
var (
	ErrPostNotFound   = errors.New("post not found")
	ErrPostForbidden  = errors.New("only the author can modify this post")
	ErrAlreadyLiked   = errors.New("post already liked")
	ErrNotLiked       = errors.New("post not liked")
	ErrEmptyContent   = errors.New("content is empty")
	ErrContentTooLong = errors.New("content exceeds 280 characters")
	ErrInvalidCursor  = errors.New("cursor must be an RFC 3339 timestamp")
)

// Sweepstake errors.
var (
	ErrSweepstakeNotFound = errors.New("sweepstake not found")
	ErrSweepstakeClosed   = errors.New("sweepstake is not open for entries")
	ErrInvalidPicks       = errors.New("invalid picks")
	ErrEntryNotFound      = errors.New("entry not found")
)

var kinds = map[error]Kind{
	ErrNotFound:           KindNotFound,
	ErrInvalidArgument:    KindInvalidArgument,
	ErrUnauthorized:       KindUnauthorized,
	ErrUserNotFound:       KindNotFound,
	ErrInvalidUsername:    KindInvalidArgument,
	ErrUsernameTaken:      KindConflict,
	ErrInvalidProfile:     KindInvalidArgument,
	ErrFriendshipNotFound: KindNotFound,
	ErrSelfRequest:        KindInvalidArgument,
	ErrFriendshipExists:   KindConflict,
	ErrNotAddressee:       KindForbidden,
	ErrNotPending:         KindInvalidState,
	ErrInvalidRatings:     KindInvalidArgument,
	ErrInvalidTaglines:    KindInvalidArgument,
	ErrEntityNotFound:     KindNotFound,
	ErrInvalidCategory:    KindInvalidArgument,
	ErrPostNotFound:       KindNotFound,
	ErrPostForbidden:      KindForbidden,
	ErrAlreadyLiked:       KindConflict,
	ErrNotLiked:           KindNotFound,
	ErrEmptyContent:       KindInvalidArgument,
	ErrContentTooLong:     KindInvalidArgument,
	ErrInvalidCursor:      KindInvalidArgument,
	ErrSweepstakeNotFound: KindNotFound,
	ErrSweepstakeClosed:   KindInvalidState,
	ErrInvalidPicks:       KindInvalidArgument,
	ErrEntryNotFound:      KindNotFound,
}

// KindOf returns the Kind of the sentinel wrapped by err, or KindInternal
// when none matches.
func KindOf(err error) Kind {
	if s := Sentinel(err); s != nil {
		return kinds[s]
	}
	return KindInternal
}

// Sentinel returns the service sentinel wrapped by err, or nil. Errors wrap
// at most one sentinel. Handlers use its message as the client-facing text so
// wrapped detail stays in the logs.
func Sentinel(err error) error {
	if err == nil {
		return nil
	}
	for s := range kinds {
		if errors.Is(err, s) {
			return s
		}
	}
	return nil
}
