// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for posts and
// likes, including the keyset page query behind the cursor feeds.
package repo

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/tbourn/fandom-backend/internal/domain"
)

// CreatePost inserts a new post authored by userID.
func CreatePost(ctx context.Context, db *gorm.DB, userID, content string) (*domain.Post, error) {
	now := time.Now().UTC()
	p := &domain.Post{
		ID:        uuid.NewString(),
		UserID:    userID,
		Content:   content,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := db.WithContext(ctx).Create(p).Error; err != nil {
		return nil, err
	}
	return p, nil
}

// GetPost fetches a post by id.
func GetPost(ctx context.Context, db *gorm.DB, id string) (*domain.Post, error) {
	var p domain.Post
	if err := db.WithContext(ctx).Where("id = ?", id).First(&p).Error; err != nil {
		return nil, err
	}
	return &p, nil
}

// UpdatePostContent rewrites a post's content. Returns ErrNotFound if no row
// matched.
func UpdatePostContent(ctx context.Context, db *gorm.DB, id, content string) error {
	res := db.WithContext(ctx).
		Model(&domain.Post{}).
		Where("id = ?", id).
		Updates(map[string]any{"content": content, "updated_at": time.Now().UTC()})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// DeletePost removes a post; likes go with it through the FK cascade.
// Likes are also deleted explicitly for stores running without FK enforcement.
func DeletePost(ctx context.Context, db *gorm.DB, id string) error {
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("post_id = ?", id).Delete(&domain.PostLike{}).Error; err != nil {
			return err
		}
		res := tx.Where("id = ?", id).Delete(&domain.Post{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
}

// ListPostsPage returns up to limit posts authored by any of authorIDs,
// ordered newest first (created_at DESC, id DESC). When before is non-nil
// only posts created strictly before it are returned.
func ListPostsPage(ctx context.Context, db *gorm.DB, authorIDs []string, before *time.Time, limit int) ([]domain.Post, error) {
	var out []domain.Post
	if len(authorIDs) == 0 {
		return out, nil
	}
	q := db.WithContext(ctx).Where("user_id IN ?", authorIDs)
	if before != nil {
		q = q.Where("created_at < ?", before.UTC())
	}
	err := q.Order("created_at DESC, id DESC").Limit(limit).Find(&out).Error
	return out, err
}

// LikeCounts returns the number of likes per post id. Posts without likes
// are absent from the map.
func LikeCounts(ctx context.Context, db *gorm.DB, postIDs []string) (map[string]int64, error) {
	out := make(map[string]int64, len(postIDs))
	if len(postIDs) == 0 {
		return out, nil
	}
	var rows []struct {
		PostID string
		N      int64
	}
	err := db.WithContext(ctx).
		Model(&domain.PostLike{}).
		Select("post_id, COUNT(*) AS n").
		Where("post_id IN ?", postIDs).
		Group("post_id").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	for _, r := range rows {
		out[r.PostID] = r.N
	}
	return out, nil
}

// LikedBy returns the subset of postIDs that userID has liked.
func LikedBy(ctx context.Context, db *gorm.DB, userID string, postIDs []string) (map[string]bool, error) {
	out := make(map[string]bool, len(postIDs))
	if len(postIDs) == 0 {
		return out, nil
	}
	var ids []string
	err := db.WithContext(ctx).
		Model(&domain.PostLike{}).
		Where("user_id = ? AND post_id IN ?", userID, postIDs).
		Pluck("post_id", &ids).Error
	if err != nil {
		return nil, err
	}
	for _, id := range ids {
		out[id] = true
	}
	return out, nil
}

// CreateLike records that userID liked postID. A second like by the same
// user yields ErrDuplicate.
func CreateLike(ctx context.Context, db *gorm.DB, postID, userID string) error {
	l := &domain.PostLike{PostID: postID, UserID: userID, CreatedAt: time.Now().UTC()}
	if err := db.WithContext(ctx).Create(l).Error; err != nil {
		if IsUniqueViolation(err) {
			return ErrDuplicate
		}
		return err
	}
	return nil
}

// DeleteLike removes userID's like on postID. Returns ErrNotFound if the
// user had not liked the post.
func DeleteLike(ctx context.Context, db *gorm.DB, postID, userID string) error {
	res := db.WithContext(ctx).
		Where("post_id = ? AND user_id = ?", postID, userID).
		Delete(&domain.PostLike{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
