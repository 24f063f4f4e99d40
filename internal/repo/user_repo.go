// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for the User model.
//
// All functions are context-aware and accept a *gorm.DB handle, making them
// safe for use within transactions or connection-scoped operations.
// They follow the "thin repository" approach: no business logic, only CRUD
// persistence and query composition.
//
// Error semantics:
//   - When a user is not found, functions return gorm.ErrRecordNotFound
//     (also exported here as ErrNotFound for convenience).
//   - A unique violation on sub or username is returned as ErrDuplicate.
//   - On other DB errors the raw gorm error is propagated.
package repo

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/tbourn/fandom-backend/internal/domain"
)

// CreateUser inserts a new User bound to sub. The ID is a random UUID and
// timestamps are set to UTC.
func CreateUser(ctx context.Context, db *gorm.DB, u *domain.User) (*domain.User, error) {
	now := time.Now().UTC()
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	u.CreatedAt, u.UpdatedAt = now, now
	if err := db.WithContext(ctx).Create(u).Error; err != nil {
		if IsUniqueViolation(err) {
			return nil, ErrDuplicate
		}
		return nil, err
	}
	return u, nil
}

// GetUser fetches a user by internal id.
func GetUser(ctx context.Context, db *gorm.DB, id string) (*domain.User, error) {
	var u domain.User
	if err := db.WithContext(ctx).Where("id = ?", id).First(&u).Error; err != nil {
		return nil, err
	}
	return &u, nil
}

// GetUserBySub fetches a user by the token subject it is bound to.
func GetUserBySub(ctx context.Context, db *gorm.DB, sub string) (*domain.User, error) {
	var u domain.User
	if err := db.WithContext(ctx).Where("sub = ?", sub).First(&u).Error; err != nil {
		return nil, err
	}
	return &u, nil
}

// UsersExist reports how many of ids resolve to users.
func UsersExist(ctx context.Context, db *gorm.DB, ids ...string) (int64, error) {
	var n int64
	err := db.WithContext(ctx).
		Model(&domain.User{}).
		Where("id IN ?", ids).
		Count(&n).Error
	return n, err
}

// GetUsersByIDs returns the users with the given ids, keyed by id.
func GetUsersByIDs(ctx context.Context, db *gorm.DB, ids []string) (map[string]domain.User, error) {
	out := make(map[string]domain.User, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	var rows []domain.User
	if err := db.WithContext(ctx).Where("id IN ?", ids).Find(&rows).Error; err != nil {
		return nil, err
	}
	for _, u := range rows {
		out[u.ID] = u
	}
	return out, nil
}

// UpdateUserProfile applies the given column updates to a user. Sub is never
// updatable. Returns ErrNotFound if no row matched.
func UpdateUserProfile(ctx context.Context, db *gorm.DB, id string, fields map[string]any) error {
	delete(fields, "sub")
	if len(fields) == 0 {
		return nil
	}
	fields["updated_at"] = time.Now().UTC()
	res := db.WithContext(ctx).
		Model(&domain.User{}).
		Where("id = ?", id).
		Updates(fields)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// SearchUsers returns users whose username or display name contains q
// (case-insensitive), excluding excludeID, ordered by username.
func SearchUsers(ctx context.Context, db *gorm.DB, q, excludeID string, limit int) ([]domain.User, error) {
	pattern := "%" + EscapeLike(strings.ToLower(q)) + "%"
	var out []domain.User
	err := db.WithContext(ctx).
		Where("(LOWER(username) LIKE ? ESCAPE '\\' OR LOWER(display_name) LIKE ? ESCAPE '\\') AND id <> ?", pattern, pattern, excludeID).
		Order("username ASC").
		Limit(limit).
		Find(&out).Error
	return out, err
}

// EscapeLike escapes LIKE wildcards so user input matches literally.
func EscapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}
