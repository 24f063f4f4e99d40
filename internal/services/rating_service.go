// Package services – RatingService
//
// This file implements saving and reading a user's rating set. A save
// replaces the whole set: the incoming items are validated up front, then the
// user's previous ratings are deleted and the new ones inserted in a single
// transaction. A successful save invalidates cached leaderboards.
package services

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/tbourn/fandom-backend/internal/domain"
	"github.com/tbourn/fandom-backend/internal/repo"
)

// MaxRatingsPerUser bounds the size of one rating set.
const MaxRatingsPerUser = 200

// RatingInput is one item of a rating save. Position defaults to the item's
// index in the request.
type RatingInput struct {
	EntityType string `json:"entityType" validate:"required,oneof=ATHLETE TEAM SPORT"`
	EntityID   uint   `json:"entityId"   validate:"required"`
	Rating     *int   `json:"rating"     validate:"required,min=-5,max=5"`
	Position   *int   `json:"position,omitempty" validate:"omitempty,min=0"`
}

// RatingService owns user rating sets.
type RatingService struct {
	DB *gorm.DB

	// Cache, when set, is bumped after every committed save so cached
	// leaderboards are recomputed.
	Cache LeaderboardCache
}

// SaveRatings replaces userID's ratings with items.
//
// Errors:
//   - ErrInvalidRatings: too many items, a malformed item, or the same entity
//     rated twice. Nothing is written.
//   - ErrEntityNotFound: an item references an unknown entity. Nothing is written.
func (s *RatingService) SaveRatings(ctx context.Context, userID string, items []RatingInput) error {
	op := replaceSet[RatingInput, domain.UserRating]{
		OwnerColumn: "user_id",
		Validate:    validateRatings,
		Owner:       fixedOwner(userID),
		ToRows: func(owner any, items []RatingInput) []domain.UserRating {
			now := time.Now().UTC()
			rows := make([]domain.UserRating, 0, len(items))
			for i, it := range items {
				pos := i
				if it.Position != nil {
					pos = *it.Position
				}
				rows = append(rows, domain.UserRating{
					UserID:     owner.(string),
					EntityType: it.EntityType,
					EntityID:   it.EntityID,
					Rating:     *it.Rating,
					Position:   pos,
					CreatedAt:  now,
				})
			}
			return rows
		},
	}
	if err := op.Run(ctx, s.DB, items); err != nil {
		return err
	}
	if s.Cache != nil {
		if err := s.Cache.Bump(ctx); err != nil {
			log.Warn().Err(err).Msg("leaderboard cache bump failed")
		}
	}
	return nil
}

func validateRatings(ctx context.Context, db *gorm.DB, items []RatingInput) error {
	if len(items) > MaxRatingsPerUser {
		return fmt.Errorf("%w: at most %d ratings", ErrInvalidRatings, MaxRatingsPerUser)
	}
	seen := make(map[EntityKey]bool, len(items))
	refs := make([]EntityKey, 0, len(items))
	for i := range items {
		if err := validate.Struct(items[i]); err != nil {
			return fmt.Errorf("%w: item %d: %v", ErrInvalidRatings, i, err)
		}
		k := EntityKey{Type: items[i].EntityType, ID: items[i].EntityID}
		if seen[k] {
			return fmt.Errorf("%w: %s %d rated more than once", ErrInvalidRatings, k.Type, k.ID)
		}
		seen[k] = true
		refs = append(refs, k)
	}
	return entitiesExist(ctx, db, refs)
}

// GetUserRatings returns userID's ratings ordered by position, each hydrated
// with the entity's display name.
func (s *RatingService) GetUserRatings(ctx context.Context, userID string) ([]RatingView, error) {
	if err := ensureUser(ctx, s.DB, userID); err != nil {
		return nil, err
	}
	rows, err := repo.ListUserRatings(ctx, s.DB, userID)
	if err != nil {
		return nil, err
	}
	refs := make([]EntityKey, 0, len(rows))
	for _, r := range rows {
		refs = append(refs, EntityKey{Type: r.EntityType, ID: r.EntityID})
	}
	names, err := entityNames(ctx, s.DB, refs)
	if err != nil {
		return nil, err
	}
	out := make([]RatingView, 0, len(rows))
	for _, r := range rows {
		out = append(out, RatingView{
			EntityType: r.EntityType,
			EntityID:   r.EntityID,
			EntityName: names[r.EntityType][r.EntityID].Name,
			Rating:     r.Rating,
			Position:   r.Position,
			CreatedAt:  r.CreatedAt,
		})
	}
	return out, nil
}

// RatingsVersion returns a weak validator for userID's rating set. It
// changes on every save. Unknown users yield ErrUserNotFound.
func (s *RatingService) RatingsVersion(ctx context.Context, userID string) (string, error) {
	if err := ensureUser(ctx, s.DB, userID); err != nil {
		return "", err
	}
	n, last, err := repo.RatingsStats(ctx, s.DB, userID)
	if err != nil {
		return "", err
	}
	return setVersion(n, last), nil
}

func setVersion(n int64, last *time.Time) string {
	v := strconv.FormatInt(n, 10)
	if last != nil {
		v += "-" + strconv.FormatInt(last.UnixNano(), 36)
	}
	return v
}
