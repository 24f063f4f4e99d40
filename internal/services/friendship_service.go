// Package services – FriendshipService
//
// This file implements the friendship state engine. A friendship is a single
// directed row (requester → addressee) that is PENDING until the addressee
// accepts it. Rejecting, cancelling and unfriending delete the row, so a pair
// can always start over. The viewer-relative status (FRIENDS,
// OUTGOING_REQUEST, INCOMING_REQUEST, NOT_FRIENDS) is never stored; it is
// derived from the row and the viewer's role by deriveStatus.
package services

import (
	"context"
	"errors"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"

	"github.com/tbourn/fandom-backend/internal/domain"
	"github.com/tbourn/fandom-backend/internal/repo"
)

// FriendshipService implements the friend request lifecycle and the
// friendship queries.
type FriendshipService struct {
	DB *gorm.DB
}

// SendRequest creates a PENDING request from requesterID to addresseeID.
//
// Errors:
//   - ErrSelfRequest if both ids are equal.
//   - ErrUserNotFound if either user does not exist.
//   - ErrFriendshipExists if any row already links the pair, in either direction.
func (s *FriendshipService) SendRequest(ctx context.Context, requesterID, addresseeID string) (*domain.Friendship, error) {
	if requesterID == addresseeID {
		return nil, ErrSelfRequest
	}
	var out *domain.Friendship
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		n, err := repo.UsersExist(ctx, tx, requesterID, addresseeID)
		if err != nil {
			return err
		}
		if n != 2 {
			return ErrUserNotFound
		}

		// Either-direction check first so the common conflict never reaches the
		// unique index.
		if _, err := repo.FindFriendshipBetween(ctx, tx, requesterID, addresseeID); err == nil {
			return ErrFriendshipExists
		} else if !errors.Is(err, repo.ErrNotFound) {
			return err
		}

		f, err := repo.CreateFriendship(ctx, tx, requesterID, addresseeID)
		if errors.Is(err, repo.ErrDuplicate) {
			return ErrFriendshipExists
		}
		if err != nil {
			return err
		}
		out = f
		return nil
	})
	if err != nil {
		return nil, err
	}
	countTransition("requested")
	return out, nil
}

// AcceptRequest moves a PENDING request to ACCEPTED. Only the addressee may
// accept.
func (s *FriendshipService) AcceptRequest(ctx context.Context, friendshipID, callerID string) (*domain.Friendship, error) {
	var out *domain.Friendship
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		f, err := s.addressedTo(ctx, tx, friendshipID, callerID)
		if err != nil {
			return err
		}
		if f.Status != domain.FriendshipPending {
			return ErrNotPending
		}
		if err := repo.AcceptFriendship(ctx, tx, f.ID); err != nil {
			if errors.Is(err, repo.ErrNotFound) {
				return ErrNotPending
			}
			return err
		}
		out, err = repo.GetFriendship(ctx, tx, f.ID)
		return err
	})
	if err != nil {
		return nil, err
	}
	countTransition("accepted")
	return out, nil
}

// RejectRequest deletes a request addressed to callerID. It does not check
// the stored status.
func (s *FriendshipService) RejectRequest(ctx context.Context, friendshipID, callerID string) error {
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		f, err := s.addressedTo(ctx, tx, friendshipID, callerID)
		if err != nil {
			return err
		}
		return deleteFriendship(ctx, tx, f.ID)
	})
	if err == nil {
		countTransition("rejected")
	}
	return err
}

// CancelRequest withdraws callerID's pending request to targetUserID.
func (s *FriendshipService) CancelRequest(ctx context.Context, targetUserID, callerID string) error {
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		f, err := repo.FindPendingRequest(ctx, tx, callerID, targetUserID)
		if errors.Is(err, repo.ErrNotFound) {
			return fmt.Errorf("%w: no pending request to %s", ErrFriendshipNotFound, targetUserID)
		}
		if err != nil {
			return err
		}
		return deleteFriendship(ctx, tx, f.ID)
	})
	if err == nil {
		countTransition("cancelled")
	}
	return err
}

// RemoveFriend deletes the ACCEPTED row between callerID and friendID.
func (s *FriendshipService) RemoveFriend(ctx context.Context, friendID, callerID string) error {
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		f, err := repo.FindAcceptedBetween(ctx, tx, callerID, friendID)
		if errors.Is(err, repo.ErrNotFound) {
			return fmt.Errorf("%w: not friends with %s", ErrFriendshipNotFound, friendID)
		}
		if err != nil {
			return err
		}
		return deleteFriendship(ctx, tx, f.ID)
	})
	if err == nil {
		countTransition("removed")
	}
	return err
}

// StatusForUsers maps every candidate id to the viewer-relative status. All
// rows are fetched with one query; candidates without a row are NOT_FRIENDS.
func (s *FriendshipService) StatusForUsers(ctx context.Context, viewerID string, candidateIDs []string) (map[string]string, error) {
	tr := otel.Tracer("services/FriendshipService")
	ctx, span := tr.Start(ctx, "StatusForUsers",
		trace.WithAttributes(
			attribute.String("user.id", viewerID),
			attribute.Int("candidates", len(candidateIDs)),
		),
	)
	defer span.End()

	return friendshipStatuses(ctx, s.DB, viewerID, candidateIDs)
}

// GetFriends returns the public profiles of userID's accepted friends.
func (s *FriendshipService) GetFriends(ctx context.Context, userID string) ([]PublicUser, error) {
	rows, err := repo.ListAccepted(ctx, s.DB, userID)
	if err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(rows))
	for _, f := range rows {
		ids = append(ids, f.OtherParty(userID))
	}
	users, err := repo.GetUsersByIDs(ctx, s.DB, ids)
	if err != nil {
		return nil, err
	}
	out := make([]PublicUser, 0, len(ids))
	for _, id := range ids {
		if u, ok := users[id]; ok {
			out = append(out, publicUser(u))
		}
	}
	return out, nil
}

// GetUserFriends is GetFriends for another user; it fails with
// ErrUserNotFound when targetUserID does not exist.
func (s *FriendshipService) GetUserFriends(ctx context.Context, targetUserID string) ([]PublicUser, error) {
	if err := ensureUser(ctx, s.DB, targetUserID); err != nil {
		return nil, err
	}
	return s.GetFriends(ctx, targetUserID)
}

// PendingRequests lists requests addressed to userID, newest first.
func (s *FriendshipService) PendingRequests(ctx context.Context, userID string) ([]FriendRequestView, error) {
	rows, err := repo.ListIncomingPending(ctx, s.DB, userID)
	if err != nil {
		return nil, err
	}
	return s.requestViews(ctx, userID, rows)
}

// OutgoingRequests lists requests sent by userID that are still pending.
func (s *FriendshipService) OutgoingRequests(ctx context.Context, userID string) ([]FriendRequestView, error) {
	rows, err := repo.ListOutgoingPending(ctx, s.DB, userID)
	if err != nil {
		return nil, err
	}
	return s.requestViews(ctx, userID, rows)
}

func (s *FriendshipService) requestViews(ctx context.Context, userID string, rows []domain.Friendship) ([]FriendRequestView, error) {
	ids := make([]string, 0, len(rows))
	for _, f := range rows {
		ids = append(ids, f.OtherParty(userID))
	}
	users, err := repo.GetUsersByIDs(ctx, s.DB, ids)
	if err != nil {
		return nil, err
	}
	out := make([]FriendRequestView, 0, len(rows))
	for _, f := range rows {
		u, ok := users[f.OtherParty(userID)]
		if !ok {
			continue
		}
		out = append(out, FriendRequestView{
			ID:        f.ID,
			User:      publicUser(u),
			Status:    f.Status,
			CreatedAt: f.CreatedAt,
		})
	}
	return out, nil
}

// addressedTo loads a friendship and checks that callerID is its addressee.
func (s *FriendshipService) addressedTo(ctx context.Context, tx *gorm.DB, friendshipID, callerID string) (*domain.Friendship, error) {
	f, err := repo.GetFriendship(ctx, tx, friendshipID)
	if errors.Is(err, repo.ErrNotFound) {
		return nil, ErrFriendshipNotFound
	}
	if err != nil {
		return nil, err
	}
	if f.AddresseeID != callerID {
		return nil, ErrNotAddressee
	}
	return f, nil
}

func deleteFriendship(ctx context.Context, tx *gorm.DB, id string) error {
	err := repo.DeleteFriendship(ctx, tx, id)
	if errors.Is(err, repo.ErrNotFound) {
		return ErrFriendshipNotFound
	}
	return err
}

// friendshipStatuses is the batched status lookup shared by the friendship
// and user services.
func friendshipStatuses(ctx context.Context, db *gorm.DB, viewerID string, candidateIDs []string) (map[string]string, error) {
	out := make(map[string]string, len(candidateIDs))
	for _, id := range candidateIDs {
		out[id] = domain.StatusNotFriends
	}
	rows, err := repo.ListFriendshipsWith(ctx, db, viewerID, candidateIDs)
	if err != nil {
		return nil, err
	}
	for _, f := range rows {
		out[f.OtherParty(viewerID)] = deriveStatus(viewerID, &f)
	}
	return out, nil
}

// deriveStatus maps the viewer's role in f and f's stored status to the
// viewer-relative status. A nil row means NOT_FRIENDS.
//
//	requester + ACCEPTED → FRIENDS
//	requester + PENDING  → OUTGOING_REQUEST
//	addressee + ACCEPTED → FRIENDS
//	addressee + PENDING  → INCOMING_REQUEST
func deriveStatus(viewerID string, f *domain.Friendship) string {
	if f == nil {
		return domain.StatusNotFriends
	}
	if f.Status == domain.FriendshipAccepted {
		return domain.StatusFriends
	}
	switch viewerID {
	case f.RequesterID:
		return domain.StatusOutgoingRequest
	case f.AddresseeID:
		return domain.StatusIncomingRequest
	}
	return domain.StatusNotFriends
}

// ensureUser returns ErrUserNotFound unless id names an existing user.
func ensureUser(ctx context.Context, db *gorm.DB, id string) error {
	n, err := repo.UsersExist(ctx, db, id)
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrUserNotFound
	}
	return nil
}
