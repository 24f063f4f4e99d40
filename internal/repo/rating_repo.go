// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for user ratings
// and taglines, and the grouped aggregates behind the leaderboards.
package repo

import (
	"context"

	"gorm.io/gorm"

	"github.com/tbourn/fandom-backend/internal/domain"
)

// RatingAggregate is the grouped rating summary for one entity.
type RatingAggregate struct {
	EntityID    uint
	AvgRating   float64
	RatingCount int64
}

// ListUserRatings returns a user's ratings ordered by position.
func ListUserRatings(ctx context.Context, db *gorm.DB, userID string) ([]domain.UserRating, error) {
	var out []domain.UserRating
	err := db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("position ASC, id ASC").
		Find(&out).Error
	return out, err
}

// ListUserTaglines returns a user's taglines ordered by position.
func ListUserTaglines(ctx context.Context, db *gorm.DB, userID string) ([]domain.UserTagline, error) {
	var out []domain.UserTagline
	err := db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("position ASC").
		Find(&out).Error
	return out, err
}

// aggregateQuery groups ratings of entityType by entity id.
func aggregateQuery(ctx context.Context, db *gorm.DB, entityType string) *gorm.DB {
	return db.WithContext(ctx).
		Model(&domain.UserRating{}).
		Select("entity_id, AVG(CAST(rating AS FLOAT)) AS avg_rating, COUNT(*) AS rating_count").
		Where("entity_type = ?", entityType).
		Group("entity_id")
}

// RankEntities returns the limit best (or worst, when ascending) rated
// entities of entityType. Equal averages are ordered by entity id ascending.
func RankEntities(ctx context.Context, db *gorm.DB, entityType string, ascending bool, limit int) ([]RatingAggregate, error) {
	order := "avg_rating DESC, entity_id ASC"
	if ascending {
		order = "avg_rating ASC, entity_id ASC"
	}
	var out []RatingAggregate
	err := aggregateQuery(ctx, db, entityType).
		Order(order).
		Limit(limit).
		Scan(&out).Error
	return out, err
}

// AggregatesFor returns the rating summary for each of ids that has at least
// one rating, keyed by entity id.
func AggregatesFor(ctx context.Context, db *gorm.DB, entityType string, ids []uint) (map[uint]RatingAggregate, error) {
	out := make(map[uint]RatingAggregate, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	var rows []RatingAggregate
	err := aggregateQuery(ctx, db, entityType).
		Where("entity_id IN ?", ids).
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	for _, r := range rows {
		out[r.EntityID] = r
	}
	return out, nil
}
