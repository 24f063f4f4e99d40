// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for sweepstakes,
// their games, and user entries.
package repo

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/tbourn/fandom-backend/internal/domain"
)

// CompleteExpiredSweepstakes flips every ACTIVE sweepstake whose end date is
// before now to COMPLETED and returns how many rows changed.
func CompleteExpiredSweepstakes(ctx context.Context, db *gorm.DB, now time.Time) (int64, error) {
	res := db.WithContext(ctx).
		Model(&domain.Sweepstake{}).
		Where("status = ? AND end_date < ?", domain.SweepstakeActive, now.UTC()).
		Updates(map[string]any{"status": domain.SweepstakeCompleted, "updated_at": now.UTC()})
	return res.RowsAffected, res.Error
}

// ListSweepstakes returns all sweepstakes, active ones first, then by start
// date descending.
func ListSweepstakes(ctx context.Context, db *gorm.DB) ([]domain.Sweepstake, error) {
	var out []domain.Sweepstake
	err := db.WithContext(ctx).
		Order("CASE WHEN status = 'ACTIVE' THEN 0 ELSE 1 END, start_date DESC, id ASC").
		Find(&out).Error
	return out, err
}

// GetSweepstake fetches a sweepstake with its games ordered by start time.
func GetSweepstake(ctx context.Context, db *gorm.DB, id string) (*domain.Sweepstake, error) {
	var s domain.Sweepstake
	err := db.WithContext(ctx).
		Preload("Games", func(tx *gorm.DB) *gorm.DB { return tx.Order("start_time ASC, id ASC") }).
		Where("id = ?", id).
		First(&s).Error
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// FindOrCreateEntry returns userID's entry in sweepstakeID, creating it when
// absent. Call it inside the transaction that replaces the entry's picks.
func FindOrCreateEntry(ctx context.Context, tx *gorm.DB, sweepstakeID, userID string) (*domain.SweepstakeEntry, error) {
	var e domain.SweepstakeEntry
	err := tx.WithContext(ctx).
		Where("sweepstake_id = ? AND user_id = ?", sweepstakeID, userID).
		First(&e).Error
	switch {
	case err == nil:
		if err := tx.WithContext(ctx).Model(&e).Update("updated_at", time.Now().UTC()).Error; err != nil {
			return nil, err
		}
		return &e, nil
	case !errors.Is(err, gorm.ErrRecordNotFound):
		return nil, err
	}

	now := time.Now().UTC()
	e = domain.SweepstakeEntry{
		ID:           uuid.NewString(),
		SweepstakeID: sweepstakeID,
		UserID:       userID,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := tx.WithContext(ctx).Omit("Picks", "Sweepstake", "User").Create(&e).Error; err != nil {
		if IsUniqueViolation(err) {
			return nil, ErrDuplicate
		}
		return nil, err
	}
	return &e, nil
}

// GetEntry fetches userID's entry in sweepstakeID with its picks.
func GetEntry(ctx context.Context, db *gorm.DB, sweepstakeID, userID string) (*domain.SweepstakeEntry, error) {
	var e domain.SweepstakeEntry
	err := db.WithContext(ctx).
		Preload("Picks", func(tx *gorm.DB) *gorm.DB { return tx.Order("game_id ASC") }).
		Where("sweepstake_id = ? AND user_id = ?", sweepstakeID, userID).
		First(&e).Error
	if err != nil {
		return nil, err
	}
	return &e, nil
}
