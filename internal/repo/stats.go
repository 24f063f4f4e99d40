// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides small aggregate/statistics queries used
// primarily for conditional responses (e.g., ETag generation) in the HTTP
// layer. Each function is context-aware and safe to call from services or
// handlers.
package repo

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/tbourn/fandom-backend/internal/domain"
)

// RatingsStats returns aggregate metadata for a user's rating set: the total
// number of rows and the newest CreatedAt among them. Because the set is
// replaced wholesale on every save, the pair changes whenever the set does.
//
// When the user has no ratings, the returned count is 0 and maxCreatedAt is nil.
func RatingsStats(ctx context.Context, db *gorm.DB, userID string) (count int64, maxCreatedAt *time.Time, err error) {
	return ownedStats(ctx, db, &domain.UserRating{}, userID)
}

// TaglinesStats is RatingsStats for the user's tagline slots.
func TaglinesStats(ctx context.Context, db *gorm.DB, userID string) (count int64, maxCreatedAt *time.Time, err error) {
	return ownedStats(ctx, db, &domain.UserTagline{}, userID)
}

func ownedStats(ctx context.Context, db *gorm.DB, model any, userID string) (count int64, maxCreatedAt *time.Time, err error) {
	q := db.WithContext(ctx).Model(model).Where("user_id = ?", userID)

	// Count
	if err = q.Count(&count).Error; err != nil {
		return 0, nil, err
	}
	if count == 0 {
		return 0, nil, nil
	}

	// Get latest created_at (avoid MAX() -> TEXT in SQLite)
	var row struct {
		CreatedAt time.Time
	}
	if err = db.WithContext(ctx).Model(model).Where("user_id = ?", userID).
		Select("created_at").Order("created_at DESC").Limit(1).Scan(&row).Error; err != nil {
		return 0, nil, err
	}
	return count, &row.CreatedAt, nil
}
