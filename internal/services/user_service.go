// Package services – UserService
//
// This file binds external token subjects to internal users and serves the
// profile operations: sync (find-or-create by subject), profile reads and
// updates, and user search annotated with the viewer's friendship status.
package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"gorm.io/gorm"

	"github.com/tbourn/fandom-backend/internal/domain"
	"github.com/tbourn/fandom-backend/internal/repo"
)

// Search limits for user lookups.
const (
	DefaultUserSearchLimit = 20
	MaxUserSearchLimit     = 50
)

// SyncInput carries the profile used when a subject is seen for the first
// time. It is ignored for subjects that are already bound.
type SyncInput struct {
	Username    string `json:"username"    validate:"required,username"`
	DisplayName string `json:"displayName" validate:"max=80"`
	AvatarURL   string `json:"avatarURL"   validate:"omitempty,url,max=512"`
}

// ProfileUpdate is a partial profile update; nil fields are left unchanged
// and an empty string clears a field.
type ProfileUpdate struct {
	DisplayName *string `json:"displayName"`
	AvatarURL   *string `json:"avatarURL"`
	Bio         *string `json:"bio"`
}

// UserService manages user identities and profiles.
type UserService struct {
	DB *gorm.DB
}

// SyncUser returns the user bound to sub, creating it from in when the
// subject is new. created reports whether a row was inserted.
//
// Errors:
//   - ErrUnauthorized if sub is blank.
//   - ErrInvalidUsername / ErrInvalidProfile for a malformed first-time profile.
//   - ErrUsernameTaken if another user already holds the username.
func (s *UserService) SyncUser(ctx context.Context, sub string, in SyncInput) (*domain.User, bool, error) {
	if strings.TrimSpace(sub) == "" {
		return nil, false, ErrUnauthorized
	}
	u, err := repo.GetUserBySub(ctx, s.DB, sub)
	if err == nil {
		return u, false, nil
	}
	if !errors.Is(err, repo.ErrNotFound) {
		return nil, false, err
	}

	in.Username = strings.TrimSpace(in.Username)
	in.DisplayName = strings.TrimSpace(in.DisplayName)
	if err := validate.Struct(in); err != nil {
		return nil, false, profileError(err)
	}
	if in.DisplayName == "" {
		in.DisplayName = in.Username
	}

	u, err = repo.CreateUser(ctx, s.DB, &domain.User{
		Sub:         sub,
		Username:    in.Username,
		DisplayName: in.DisplayName,
		AvatarURL:   in.AvatarURL,
	})
	if errors.Is(err, repo.ErrDuplicate) {
		// A concurrent sync for the same subject wins the insert.
		if existing, gerr := repo.GetUserBySub(ctx, s.DB, sub); gerr == nil {
			return existing, false, nil
		}
		return nil, false, ErrUsernameTaken
	}
	if err != nil {
		return nil, false, err
	}
	return u, true, nil
}

// ResolveSub maps a token subject to the internal user id.
func (s *UserService) ResolveSub(ctx context.Context, sub string) (string, error) {
	u, err := repo.GetUserBySub(ctx, s.DB, sub)
	if errors.Is(err, repo.ErrNotFound) {
		return "", ErrUserNotFound
	}
	if err != nil {
		return "", err
	}
	return u.ID, nil
}

// GetMe returns the caller's full user record.
func (s *UserService) GetMe(ctx context.Context, userID string) (*domain.User, error) {
	u, err := repo.GetUser(ctx, s.DB, userID)
	if errors.Is(err, repo.ErrNotFound) {
		return nil, ErrUserNotFound
	}
	return u, err
}

// UpdateMe applies a partial profile update and returns the updated user.
func (s *UserService) UpdateMe(ctx context.Context, userID string, in ProfileUpdate) (*domain.User, error) {
	fields := map[string]any{}
	for _, f := range []struct {
		column string
		value  *string
		rules  string
	}{
		{"display_name", in.DisplayName, "max=80"},
		{"avatar_url", in.AvatarURL, "omitempty,url,max=512"},
		{"bio", in.Bio, "max=280"},
	} {
		if f.value == nil {
			continue
		}
		v := strings.TrimSpace(*f.value)
		if err := validate.Var(v, f.rules); err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrInvalidProfile, f.column, err)
		}
		fields[f.column] = v
	}
	if err := repo.UpdateUserProfile(ctx, s.DB, userID, fields); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return s.GetMe(ctx, userID)
}

// GetProfile returns targetID's public profile and the viewer's friendship
// status with them.
func (s *UserService) GetProfile(ctx context.Context, viewerID, targetID string) (*ProfileView, error) {
	u, err := repo.GetUser(ctx, s.DB, targetID)
	if errors.Is(err, repo.ErrNotFound) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}
	st, err := friendshipStatuses(ctx, s.DB, viewerID, []string{targetID})
	if err != nil {
		return nil, err
	}
	return &ProfileView{PublicUser: publicUser(*u), FriendshipStatus: st[targetID]}, nil
}

// SearchUsers finds users by username or display name substring, excluding
// the viewer. Each hit carries the viewer's friendship status, resolved with
// one batched query. A blank query yields an empty result.
func (s *UserService) SearchUsers(ctx context.Context, viewerID, q string, limit int) ([]UserSearchResult, error) {
	q = strings.TrimSpace(q)
	if q == "" {
		return []UserSearchResult{}, nil
	}
	if limit <= 0 {
		limit = DefaultUserSearchLimit
	}
	if limit > MaxUserSearchLimit {
		limit = MaxUserSearchLimit
	}
	users, err := repo.SearchUsers(ctx, s.DB, q, viewerID, limit)
	if err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(users))
	for _, u := range users {
		ids = append(ids, u.ID)
	}
	st, err := friendshipStatuses(ctx, s.DB, viewerID, ids)
	if err != nil {
		return nil, err
	}
	out := make([]UserSearchResult, 0, len(users))
	for _, u := range users {
		out = append(out, UserSearchResult{PublicUser: publicUser(u), FriendshipStatus: st[u.ID]})
	}
	return out, nil
}

// profileError maps validator failures onto the user sentinels.
func profileError(err error) error {
	var ve validator.ValidationErrors
	if errors.As(err, &ve) {
		for _, fe := range ve {
			if fe.Field() == "Username" {
				return ErrInvalidUsername
			}
		}
		return fmt.Errorf("%w: %s failed %q", ErrInvalidProfile, ve[0].Field(), ve[0].Tag())
	}
	return fmt.Errorf("%w: %v", ErrInvalidProfile, err)
}
