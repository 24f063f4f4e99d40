// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for the
// Friendship model: edge creation, lookups in either direction, and the
// batched queries behind friend lists and viewer-relative status.
package repo

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/tbourn/fandom-backend/internal/domain"
)

// CreateFriendship inserts a PENDING edge from requesterID to addresseeID.
// A violation of the unordered-pair unique index yields ErrDuplicate.
func CreateFriendship(ctx context.Context, db *gorm.DB, requesterID, addresseeID string) (*domain.Friendship, error) {
	now := time.Now().UTC()
	f := &domain.Friendship{
		ID:          uuid.NewString(),
		RequesterID: requesterID,
		AddresseeID: addresseeID,
		Status:      domain.FriendshipPending,
		PairKey:     domain.PairKey(requesterID, addresseeID),
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := db.WithContext(ctx).Create(f).Error; err != nil {
		if IsUniqueViolation(err) {
			return nil, ErrDuplicate
		}
		return nil, err
	}
	return f, nil
}

// GetFriendship fetches a friendship by id.
func GetFriendship(ctx context.Context, db *gorm.DB, id string) (*domain.Friendship, error) {
	var f domain.Friendship
	if err := db.WithContext(ctx).Where("id = ?", id).First(&f).Error; err != nil {
		return nil, err
	}
	return &f, nil
}

// FindFriendshipBetween returns the row linking a and b in either direction.
func FindFriendshipBetween(ctx context.Context, db *gorm.DB, a, b string) (*domain.Friendship, error) {
	var f domain.Friendship
	err := db.WithContext(ctx).
		Where("(requester_id = ? AND addressee_id = ?) OR (requester_id = ? AND addressee_id = ?)", a, b, b, a).
		First(&f).Error
	if err != nil {
		return nil, err
	}
	return &f, nil
}

// FindPendingRequest returns the PENDING row sent by requesterID to addresseeID.
func FindPendingRequest(ctx context.Context, db *gorm.DB, requesterID, addresseeID string) (*domain.Friendship, error) {
	var f domain.Friendship
	err := db.WithContext(ctx).
		Where("requester_id = ? AND addressee_id = ? AND status = ?", requesterID, addresseeID, domain.FriendshipPending).
		First(&f).Error
	if err != nil {
		return nil, err
	}
	return &f, nil
}

// FindAcceptedBetween returns the ACCEPTED row linking a and b in either direction.
func FindAcceptedBetween(ctx context.Context, db *gorm.DB, a, b string) (*domain.Friendship, error) {
	var f domain.Friendship
	err := db.WithContext(ctx).
		Where("((requester_id = ? AND addressee_id = ?) OR (requester_id = ? AND addressee_id = ?)) AND status = ?",
			a, b, b, a, domain.FriendshipAccepted).
		First(&f).Error
	if err != nil {
		return nil, err
	}
	return &f, nil
}

// AcceptFriendship flips a PENDING row to ACCEPTED. It returns ErrNotFound if
// the row is missing or no longer pending.
func AcceptFriendship(ctx context.Context, db *gorm.DB, id string) error {
	res := db.WithContext(ctx).
		Model(&domain.Friendship{}).
		Where("id = ? AND status = ?", id, domain.FriendshipPending).
		Updates(map[string]any{"status": domain.FriendshipAccepted, "updated_at": time.Now().UTC()})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// DeleteFriendship removes a row by id. It returns ErrNotFound if nothing
// was deleted.
func DeleteFriendship(ctx context.Context, db *gorm.DB, id string) error {
	res := db.WithContext(ctx).Where("id = ?", id).Delete(&domain.Friendship{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// ListFriendshipsWith fetches, in a single query, every row where viewerID is
// on one side and the other side is one of candidateIDs.
func ListFriendshipsWith(ctx context.Context, db *gorm.DB, viewerID string, candidateIDs []string) ([]domain.Friendship, error) {
	var out []domain.Friendship
	if len(candidateIDs) == 0 {
		return out, nil
	}
	err := db.WithContext(ctx).
		Where("(requester_id = ? AND addressee_id IN ?) OR (addressee_id = ? AND requester_id IN ?)",
			viewerID, candidateIDs, viewerID, candidateIDs).
		Find(&out).Error
	return out, err
}

// ListAccepted returns all ACCEPTED rows touching userID in either role.
func ListAccepted(ctx context.Context, db *gorm.DB, userID string) ([]domain.Friendship, error) {
	var out []domain.Friendship
	err := db.WithContext(ctx).
		Where("(requester_id = ? OR addressee_id = ?) AND status = ?", userID, userID, domain.FriendshipAccepted).
		Order("updated_at DESC, id ASC").
		Find(&out).Error
	return out, err
}

// ListIncomingPending returns PENDING rows addressed to userID, newest first.
func ListIncomingPending(ctx context.Context, db *gorm.DB, userID string) ([]domain.Friendship, error) {
	var out []domain.Friendship
	err := db.WithContext(ctx).
		Where("addressee_id = ? AND status = ?", userID, domain.FriendshipPending).
		Order("created_at DESC, id ASC").
		Find(&out).Error
	return out, err
}

// ListOutgoingPending returns PENDING rows sent by userID, newest first.
func ListOutgoingPending(ctx context.Context, db *gorm.DB, userID string) ([]domain.Friendship, error) {
	var out []domain.Friendship
	err := db.WithContext(ctx).
		Where("requester_id = ? AND status = ?", userID, domain.FriendshipPending).
		Order("created_at DESC, id ASC").
		Find(&out).Error
	return out, err
}

// FriendIDs returns the ids of every accepted friend of userID.
func FriendIDs(ctx context.Context, db *gorm.DB, userID string) ([]string, error) {
	rows, err := ListAccepted(ctx, db, userID)
	if err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(rows))
	for _, f := range rows {
		ids = append(ids, f.OtherParty(userID))
	}
	return ids, nil
}
