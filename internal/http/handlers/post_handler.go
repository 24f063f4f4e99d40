// Post HTTP handlers.
//
// This file exposes REST endpoints for posts, likes and the cursor feeds:
//   - GET    /posts                 (home feed: own and friends' posts)
//   - GET    /posts/user/{userId}   (one user's posts)
//   - POST   /posts                 (create, honors Idempotency-Key)
//   - PUT    /posts/{postId}        (edit, author only)
//   - DELETE /posts/{postId}        (delete, author only)
//   - POST   /posts/{postId}/like   (like)
//   - DELETE /posts/{postId}/like   (unlike)
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/fandom-backend/internal/http/middleware"
	"github.com/tbourn/fandom-backend/internal/utils"
)

// PostBody is the JSON payload for creating or editing a post.
type PostBody struct {
	// Content is 1-280 characters after trimming.
	Content string `json:"content" example:"What a finish last night!"`
}

// feedQuery reads the cursor and pageSize query parameters. A missing or
// malformed pageSize leaves the choice to the service.
func feedQuery(c *gin.Context) (cursor string, pageSize int) {
	return c.Query("cursor"), utils.AtoiDefault(c.Query("pageSize"), 0)
}

// Feed godoc
// @ID          getFeed
// @Summary     Home feed
// @Description Newest-first posts by the caller and the caller's friends. Pass pagination.nextCursor back as cursor to fetch the next page.
// @Tags        Posts
// @Produce     json
// @Security    BearerAuth
//
// @Param       cursor    query  string  false  "createdAt of the last post already seen (RFC 3339)"
// @Param       pageSize  query  int     false  "Posts per page"  minimum(1) maximum(50) default(10)
//
// @Success     200  {object}  services.FeedPage
// @Failure     400  {object}  handlers.ErrorResponse  "Malformed cursor"
// @Failure     401  {object}  handlers.ErrorResponse  "Unauthorized"
// @Router      /posts [get]
func (h *Handlers) Feed(c *gin.Context) {
	cursor, size := feedQuery(c)
	page, err := h.posts.Feed(c.Request.Context(), currentUser(c), cursor, size)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	ok(c, http.StatusOK, page)
}

// UserPosts godoc
// @ID          getUserPosts
// @Summary     A user's posts
// @Tags        Posts
// @Produce     json
// @Security    BearerAuth
//
// @Param       userId    path   string  true   "User ID"  format(uuid)
// @Param       cursor    query  string  false  "createdAt of the last post already seen (RFC 3339)"
// @Param       pageSize  query  int     false  "Posts per page"  minimum(1) maximum(50) default(10)
//
// @Success     200  {object}  services.FeedPage
// @Failure     400  {object}  handlers.ErrorResponse  "Malformed cursor"
// @Failure     401  {object}  handlers.ErrorResponse  "Unauthorized"
// @Failure     404  {object}  handlers.ErrorResponse  "User not found"
// @Router      /posts/user/{userId} [get]
func (h *Handlers) UserPosts(c *gin.Context) {
	target, okp := pathParam(c, "userId")
	if !okp {
		return
	}
	cursor, size := feedQuery(c)
	page, err := h.posts.UserPosts(c.Request.Context(), currentUser(c), target, cursor, size)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	ok(c, http.StatusOK, page)
}

// CreatePost godoc
// @ID          createPost
// @Summary     Create a post
// @Description Repeating a request with the same Idempotency-Key returns the original post with Idempotency-Replayed: true.
// @Tags        Posts
// @Accept      json
// @Produce     json
// @Security    BearerAuth
//
// @Param       Idempotency-Key  header  string               false  "Client key for safe retries"  example(3f1c2a7e-1)
// @Param       body             body    handlers.PostBody    true   "Post content"
//
// @Success     201  {object}  services.PostView
// @Header      201  {string}  Idempotency-Replayed  "true when served from a previous request"
// @Failure     400  {object}  handlers.ErrorResponse  "Empty or too long content, bad key"
// @Failure     401  {object}  handlers.ErrorResponse  "Unauthorized"
// @Failure     429  {object}  handlers.ErrorResponse  "Rate limited"
// @Router      /posts [post]
func (h *Handlers) CreatePost(c *gin.Context) {
	var req PostBody
	if !bindJSON(c, &req) {
		return
	}
	key, _ := middleware.GetIdempotencyKey(c)
	p, replayed, err := h.posts.CreatePost(c.Request.Context(), currentUser(c), req.Content, key)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	if replayed {
		c.Header(middleware.HeaderIdempotencyReplayed, "true")
	}
	ok(c, http.StatusCreated, p)
}

// UpdatePost godoc
// @ID          updatePost
// @Summary     Edit a post
// @Tags        Posts
// @Accept      json
// @Produce     json
// @Security    BearerAuth
//
// @Param       postId  path  string             true  "Post ID"  format(uuid)
// @Param       body    body  handlers.PostBody  true  "New content"
//
// @Success     200  {object}  services.PostView
// @Failure     400  {object}  handlers.ErrorResponse  "Empty or too long content"
// @Failure     401  {object}  handlers.ErrorResponse  "Unauthorized"
// @Failure     403  {object}  handlers.ErrorResponse  "Not the author"
// @Failure     404  {object}  handlers.ErrorResponse  "Post not found"
// @Router      /posts/{postId} [put]
func (h *Handlers) UpdatePost(c *gin.Context) {
	postID, okp := pathParam(c, "postId")
	if !okp {
		return
	}
	var req PostBody
	if !bindJSON(c, &req) {
		return
	}
	p, err := h.posts.UpdatePost(c.Request.Context(), currentUser(c), postID, req.Content)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	ok(c, http.StatusOK, p)
}

// DeletePost godoc
// @ID          deletePost
// @Summary     Delete a post
// @Tags        Posts
// @Security    BearerAuth
//
// @Param       postId  path  string  true  "Post ID"  format(uuid)
//
// @Success     204  {string}  string  "No Content"
// @Failure     401  {object}  handlers.ErrorResponse  "Unauthorized"
// @Failure     403  {object}  handlers.ErrorResponse  "Not the author"
// @Failure     404  {object}  handlers.ErrorResponse  "Post not found"
// @Router      /posts/{postId} [delete]
func (h *Handlers) DeletePost(c *gin.Context) {
	postID, okp := pathParam(c, "postId")
	if !okp {
		return
	}
	if err := h.posts.DeletePost(c.Request.Context(), currentUser(c), postID); err != nil {
		writeServiceError(c, err)
		return
	}
	noContent(c)
}

// LikePost godoc
// @ID          likePost
// @Summary     Like a post
// @Tags        Posts
// @Produce     json
// @Security    BearerAuth
//
// @Param       postId  path  string  true  "Post ID"  format(uuid)
//
// @Success     200  {object}  services.PostView
// @Failure     401  {object}  handlers.ErrorResponse  "Unauthorized"
// @Failure     404  {object}  handlers.ErrorResponse  "Post not found"
// @Failure     409  {object}  handlers.ErrorResponse  "Already liked"
// @Router      /posts/{postId}/like [post]
func (h *Handlers) LikePost(c *gin.Context) {
	postID, okp := pathParam(c, "postId")
	if !okp {
		return
	}
	p, err := h.posts.LikePost(c.Request.Context(), currentUser(c), postID)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	ok(c, http.StatusOK, p)
}

// UnlikePost godoc
// @ID          unlikePost
// @Summary     Remove a like
// @Tags        Posts
// @Produce     json
// @Security    BearerAuth
//
// @Param       postId  path  string  true  "Post ID"  format(uuid)
//
// @Success     200  {object}  services.PostView
// @Failure     401  {object}  handlers.ErrorResponse  "Unauthorized"
// @Failure     404  {object}  handlers.ErrorResponse  "Post not found or not liked"
// @Router      /posts/{postId}/like [delete]
func (h *Handlers) UnlikePost(c *gin.Context) {
	postID, okp := pathParam(c, "postId")
	if !okp {
		return
	}
	p, err := h.posts.UnlikePost(c.Request.Context(), currentUser(c), postID)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	ok(c, http.StatusOK, p)
}
