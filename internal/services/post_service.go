// Package services – PostService
//
// This file implements posts, likes and the two cursor feeds: the home feed
// (the viewer plus accepted friends) and a single user's posts. Pages are
// ordered newest first; the cursor is the createdAt of the last post of the
// previous page and the next page holds strictly older posts. One extra row
// is fetched to detect whether another page exists.
//
// Observability: feed reads are OpenTelemetry-instrumented.
package services

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/text/unicode/norm"
	"gorm.io/gorm"

	"github.com/tbourn/fandom-backend/internal/domain"
	"github.com/tbourn/fandom-backend/internal/repo"
	"github.com/tbourn/fandom-backend/internal/utils"
)

const (
	// MaxPostRunes is the longest post content accepted, after normalization.
	MaxPostRunes = 280

	// IdempotencyScopeCreatePost namespaces Idempotency-Key records for
	// post creation.
	IdempotencyScopeCreatePost = "posts.create"
)

// PostService implements the post and feed use-cases.
type PostService struct {
	DB *gorm.DB

	// PageSize is used when the client does not ask for one; MaxPageSize
	// caps what it may ask for.
	PageSize    int
	MaxPageSize int

	// IdempotencyTTL is how long a create with an Idempotency-Key is
	// remembered. Zero disables replay detection.
	IdempotencyTTL time.Duration
}

// Feed returns one page of the home feed for viewerID.
func (s *PostService) Feed(ctx context.Context, viewerID, cursor string, pageSize int) (*FeedPage, error) {
	tr := otel.Tracer("services/PostService")
	ctx, span := tr.Start(ctx, "Feed",
		trace.WithAttributes(
			attribute.String("user.id", viewerID),
			attribute.Int("page.size", pageSize),
			attribute.Bool("page.cursor", cursor != ""),
		),
	)
	defer span.End()

	friends, err := repo.FriendIDs(ctx, s.DB, viewerID)
	if err != nil {
		return nil, err
	}
	authors := append([]string{viewerID}, friends...)
	return s.page(ctx, viewerID, authors, cursor, pageSize)
}

// UserPosts returns one page of targetID's posts as seen by viewerID.
func (s *PostService) UserPosts(ctx context.Context, viewerID, targetID, cursor string, pageSize int) (*FeedPage, error) {
	tr := otel.Tracer("services/PostService")
	ctx, span := tr.Start(ctx, "UserPosts",
		trace.WithAttributes(
			attribute.String("user.id", viewerID),
			attribute.String("target.id", targetID),
			attribute.Int("page.size", pageSize),
		),
	)
	defer span.End()

	if err := ensureUser(ctx, s.DB, targetID); err != nil {
		return nil, err
	}
	return s.page(ctx, viewerID, []string{targetID}, cursor, pageSize)
}

func (s *PostService) page(ctx context.Context, viewerID string, authors []string, cursor string, pageSize int) (*FeedPage, error) {
	before, err := utils.ParseCursor(cursor)
	if err != nil {
		return nil, ErrInvalidCursor
	}
	size := utils.ClampPageSize(pageSize, s.pageSize(), s.MaxPageSize)

	rows, err := repo.ListPostsPage(ctx, s.DB, authors, before, size+1)
	if err != nil {
		return nil, err
	}
	hasNext := len(rows) > size
	if hasNext {
		rows = rows[:size]
	}
	views, err := s.hydrate(ctx, viewerID, rows)
	if err != nil {
		return nil, err
	}

	out := &FeedPage{Posts: views, Pagination: Pagination{HasNextPage: hasNext}}
	if hasNext {
		c := utils.FormatCursor(rows[len(rows)-1].CreatedAt)
		out.Pagination.NextCursor = &c
	}
	return out, nil
}

func (s *PostService) pageSize() int {
	if s.PageSize > 0 {
		return s.PageSize
	}
	return 10
}

// hydrate attaches authors, like counts and the viewer's likes to rows with
// one query each.
func (s *PostService) hydrate(ctx context.Context, viewerID string, rows []domain.Post) ([]PostView, error) {
	postIDs := make([]string, 0, len(rows))
	authorIDs := make([]string, 0, len(rows))
	for _, p := range rows {
		postIDs = append(postIDs, p.ID)
		authorIDs = append(authorIDs, p.UserID)
	}
	authors, err := repo.GetUsersByIDs(ctx, s.DB, authorIDs)
	if err != nil {
		return nil, err
	}
	counts, err := repo.LikeCounts(ctx, s.DB, postIDs)
	if err != nil {
		return nil, err
	}
	liked, err := repo.LikedBy(ctx, s.DB, viewerID, postIDs)
	if err != nil {
		return nil, err
	}

	out := make([]PostView, 0, len(rows))
	for _, p := range rows {
		out = append(out, PostView{
			ID:                   p.ID,
			Content:              p.Content,
			CreatedAt:            p.CreatedAt,
			UpdatedAt:            p.UpdatedAt,
			Author:               publicUser(authors[p.UserID]),
			LikeCount:            counts[p.ID],
			IsLikedByCurrentUser: liked[p.ID],
		})
	}
	return out, nil
}

func (s *PostService) view(ctx context.Context, viewerID, postID string) (*PostView, error) {
	p, err := repo.GetPost(ctx, s.DB, postID)
	if errors.Is(err, repo.ErrNotFound) {
		return nil, ErrPostNotFound
	}
	if err != nil {
		return nil, err
	}
	views, err := s.hydrate(ctx, viewerID, []domain.Post{*p})
	if err != nil {
		return nil, err
	}
	return &views[0], nil
}

// CreatePost publishes content as userID.
//
// When idemKey is non-empty and a post was already created with the same key
// within IdempotencyTTL, that post is returned and replayed is true.
func (s *PostService) CreatePost(ctx context.Context, userID, content, idemKey string) (post *PostView, replayed bool, err error) {
	content, err = normalizeContent(content)
	if err != nil {
		return nil, false, err
	}

	useKey := idemKey != "" && s.IdempotencyTTL > 0
	if useKey {
		if v, ok, err := s.replay(ctx, userID, idemKey); err != nil || ok {
			return v, ok, err
		}
	}

	var created *domain.Post
	err = s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		p, err := repo.CreatePost(ctx, tx, userID, content)
		if err != nil {
			return err
		}
		if useKey {
			if _, err := repo.CreateIdempotency(ctx, tx, userID, IdempotencyScopeCreatePost, idemKey, p.ID, http.StatusCreated, s.IdempotencyTTL); err != nil {
				return err
			}
		}
		created = p
		return nil
	})
	if errors.Is(err, repo.ErrDuplicate) && useKey {
		// Lost the race to a concurrent request with the same key.
		v, ok, rerr := s.replay(ctx, userID, idemKey)
		if rerr == nil && ok {
			return v, true, nil
		}
	}
	if err != nil {
		return nil, false, err
	}
	v, err := s.view(ctx, userID, created.ID)
	return v, false, err
}

func (s *PostService) replay(ctx context.Context, userID, key string) (*PostView, bool, error) {
	rec, err := repo.GetIdempotency(ctx, s.DB, userID, IdempotencyScopeCreatePost, key, time.Now().UTC())
	if errors.Is(err, repo.ErrNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	v, err := s.view(ctx, userID, rec.ResourceID)
	if errors.Is(err, ErrPostNotFound) {
		// The post was deleted since; treat the key as fresh.
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return v, true, nil
}

// HasIdempotentResult reports whether key already produced a result for
// userID in scope. It backs the HTTP idempotency middleware.
func (s *PostService) HasIdempotentResult(ctx context.Context, userID, scope, key string, now time.Time) (bool, error) {
	_, err := repo.GetIdempotency(ctx, s.DB, userID, scope, key, now)
	if errors.Is(err, repo.ErrNotFound) {
		return false, nil
	}
	return err == nil, err
}

// UpdatePost replaces the content of a post owned by userID.
func (s *PostService) UpdatePost(ctx context.Context, userID, postID, content string) (*PostView, error) {
	content, err := normalizeContent(content)
	if err != nil {
		return nil, err
	}
	err = s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := ownPost(ctx, tx, userID, postID); err != nil {
			return err
		}
		return repo.UpdatePostContent(ctx, tx, postID, content)
	})
	if err != nil {
		return nil, err
	}
	return s.view(ctx, userID, postID)
}

// DeletePost removes a post owned by userID together with its likes.
func (s *PostService) DeletePost(ctx context.Context, userID, postID string) error {
	return s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := ownPost(ctx, tx, userID, postID); err != nil {
			return err
		}
		return repo.DeletePost(ctx, tx, postID)
	})
}

// LikePost records userID's like and returns the updated post.
func (s *PostService) LikePost(ctx context.Context, userID, postID string) (*PostView, error) {
	if _, err := s.view(ctx, userID, postID); err != nil {
		return nil, err
	}
	if err := repo.CreateLike(ctx, s.DB, postID, userID); err != nil {
		if errors.Is(err, repo.ErrDuplicate) {
			return nil, ErrAlreadyLiked
		}
		return nil, err
	}
	return s.view(ctx, userID, postID)
}

// UnlikePost removes userID's like and returns the updated post.
func (s *PostService) UnlikePost(ctx context.Context, userID, postID string) (*PostView, error) {
	if _, err := s.view(ctx, userID, postID); err != nil {
		return nil, err
	}
	if err := repo.DeleteLike(ctx, s.DB, postID, userID); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, ErrNotLiked
		}
		return nil, err
	}
	return s.view(ctx, userID, postID)
}

func ownPost(ctx context.Context, tx *gorm.DB, userID, postID string) error {
	p, err := repo.GetPost(ctx, tx, postID)
	if errors.Is(err, repo.ErrNotFound) {
		return ErrPostNotFound
	}
	if err != nil {
		return err
	}
	if p.UserID != userID {
		return ErrPostForbidden
	}
	return nil
}

// normalizeContent trims and NFC-normalizes post content and enforces the
// length bounds on the result.
func normalizeContent(content string) (string, error) {
	content = norm.NFC.String(strings.TrimSpace(content))
	n := utf8.RuneCountInString(content)
	switch {
	case n == 0:
		return "", ErrEmptyContent
	case n > MaxPostRunes:
		return "", ErrContentTooLong
	}
	return content, nil
}
