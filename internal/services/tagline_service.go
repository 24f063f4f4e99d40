// Package services – TaglineService
//
// This file implements a user's tagline: exactly four slots, each naming a
// catalog entity with a sentiment. Like ratings, a save replaces the whole
// set in one transaction after the incoming slots pass validation.
package services

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/tbourn/fandom-backend/internal/domain"
	"github.com/tbourn/fandom-backend/internal/repo"
)

// TaglineSlots is the fixed number of tagline items.
const TaglineSlots = 4

// TaglineInput is one tagline slot. Position defaults to the item's index.
type TaglineInput struct {
	EntityType string `json:"entityType" validate:"required,oneof=ATHLETE TEAM SPORT"`
	EntityID   uint   `json:"entityId"   validate:"required"`
	Sentiment  string `json:"sentiment"  validate:"required,oneof=LOVE LIKE DISLIKE HATE"`
	Position   *int   `json:"position,omitempty" validate:"omitempty,min=0,max=3"`
}

// TaglineService owns user taglines.
type TaglineService struct {
	DB *gorm.DB
}

// SaveTaglines replaces userID's tagline with items.
//
// Errors:
//   - ErrInvalidTaglines: not exactly four items, a malformed item, or two
//     items in the same position. Nothing is written.
//   - ErrEntityNotFound: an item references an unknown entity. Nothing is written.
func (s *TaglineService) SaveTaglines(ctx context.Context, userID string, items []TaglineInput) error {
	op := replaceSet[TaglineInput, domain.UserTagline]{
		OwnerColumn: "user_id",
		Validate:    validateTaglines,
		Owner:       fixedOwner(userID),
		ToRows: func(owner any, items []TaglineInput) []domain.UserTagline {
			now := time.Now().UTC()
			rows := make([]domain.UserTagline, 0, len(items))
			for i, it := range items {
				rows = append(rows, domain.UserTagline{
					UserID:     owner.(string),
					EntityType: it.EntityType,
					EntityID:   it.EntityID,
					Sentiment:  it.Sentiment,
					Position:   slotOf(i, it.Position),
					CreatedAt:  now,
				})
			}
			return rows
		},
	}
	return op.Run(ctx, s.DB, items)
}

func slotOf(i int, pos *int) int {
	if pos != nil {
		return *pos
	}
	return i
}

func validateTaglines(ctx context.Context, db *gorm.DB, items []TaglineInput) error {
	if len(items) != TaglineSlots {
		return fmt.Errorf("%w: exactly %d items required, got %d", ErrInvalidTaglines, TaglineSlots, len(items))
	}
	var used [TaglineSlots]bool
	refs := make([]EntityKey, 0, len(items))
	for i := range items {
		if err := validate.Struct(items[i]); err != nil {
			return fmt.Errorf("%w: item %d: %v", ErrInvalidTaglines, i, err)
		}
		p := slotOf(i, items[i].Position)
		if used[p] {
			return fmt.Errorf("%w: position %d used twice", ErrInvalidTaglines, p)
		}
		used[p] = true
		refs = append(refs, EntityKey{Type: items[i].EntityType, ID: items[i].EntityID})
	}
	return entitiesExist(ctx, db, refs)
}

// GetUserTaglines returns userID's taglines ordered by position, each
// hydrated with the entity's display name.
func (s *TaglineService) GetUserTaglines(ctx context.Context, userID string) ([]TaglineView, error) {
	if err := ensureUser(ctx, s.DB, userID); err != nil {
		return nil, err
	}
	rows, err := repo.ListUserTaglines(ctx, s.DB, userID)
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
	out := make([]TaglineView, 0, len(rows))
	for _, r := range rows {
		out = append(out, TaglineView{
			EntityType: r.EntityType,
			EntityID:   r.EntityID,
			EntityName: names[r.EntityType][r.EntityID].Name,
			Sentiment:  r.Sentiment,
			Position:   r.Position,
			CreatedAt:  r.CreatedAt,
		})
	}
	return out, nil
}

// TaglinesVersion returns a weak validator for userID's tagline. Unknown
// users yield ErrUserNotFound.
func (s *TaglineService) TaglinesVersion(ctx context.Context, userID string) (string, error) {
	if err := ensureUser(ctx, s.DB, userID); err != nil {
		return "", err
	}
	n, last, err := repo.TaglinesStats(ctx, s.DB, userID)
	if err != nil {
		return "", err
	}
	return setVersion(n, last), nil
}
