// Rating and tagline HTTP handlers.
//
// This file exposes the replace-set endpoints:
//   - POST /ratings, /taglines                    (replace the caller's set)
//   - GET  /ratings, /taglines                    (caller's set, ETag support)
//   - GET  /ratings/user/{userId}, /taglines/...  (another user's set, ETag support)
//
// Reads carry a weak ETag derived from the set's size and latest write, so a
// client holding the current set gets 304 without a body.
package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/fandom-backend/internal/http/middleware"
	"github.com/tbourn/fandom-backend/internal/services"
)

// SaveRatingsRequest is the JSON payload for replacing the caller's ratings.
// An empty list clears them.
type SaveRatingsRequest struct {
	Ratings []services.RatingInput `json:"ratings"`
}

// SaveTaglinesRequest is the JSON payload for replacing the caller's tagline.
type SaveTaglinesRequest struct {
	Taglines []services.TaglineInput `json:"taglines"`
}

// SaveRatings godoc
// @ID          saveRatings
// @Summary     Replace the caller's ratings
// @Description Atomically replaces every rating of the caller. Ratings range from -5 to 5; each entity may appear once.
// @Tags        Ratings
// @Accept      json
// @Produce     json
// @Security    BearerAuth
//
// @Param       body  body  handlers.SaveRatingsRequest  true  "Complete rating set"
//
// @Success     200  {object}  handlers.SuccessResponse
// @Failure     400  {object}  handlers.ErrorResponse  "Invalid ratings"
// @Failure     401  {object}  handlers.ErrorResponse  "Unauthorized"
// @Failure     404  {object}  handlers.ErrorResponse  "Referenced entity not found"
// @Router      /ratings [post]
func (h *Handlers) SaveRatings(c *gin.Context) {
	var req SaveRatingsRequest
	if !bindJSON(c, &req) {
		return
	}
	if req.Ratings == nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "ratings is required")
		return
	}
	if err := h.ratings.SaveRatings(c.Request.Context(), currentUser(c), req.Ratings); err != nil {
		writeServiceError(c, err)
		return
	}
	ok(c, http.StatusOK, SuccessResponse{Success: true, Message: "ratings saved"})
}

// MyRatings godoc
// @ID          getMyRatings
// @Summary     The caller's ratings
// @Tags        Ratings
// @Produce     json
// @Security    BearerAuth
//
// @Param       If-None-Match  header  string  false  "Return 304 if ETag matches"
//
// @Success     200  {array}   services.RatingView
// @Header      200  {string}  ETag  "Weak ETag for the current set"
// @Success     304  {string}  string  "Not Modified"
// @Failure     401  {object}  handlers.ErrorResponse  "Unauthorized"
// @Router      /ratings [get]
func (h *Handlers) MyRatings(c *gin.Context) {
	h.userRatings(c, currentUser(c))
}

// UserRatings godoc
// @ID          getUserRatings
// @Summary     Another user's ratings
// @Tags        Ratings
// @Produce     json
// @Security    BearerAuth
//
// @Param       userId         path    string  true   "User ID"  format(uuid)
// @Param       If-None-Match  header  string  false  "Return 304 if ETag matches"
//
// @Success     200  {array}   services.RatingView
// @Header      200  {string}  ETag  "Weak ETag for the current set"
// @Success     304  {string}  string  "Not Modified"
// @Failure     401  {object}  handlers.ErrorResponse  "Unauthorized"
// @Failure     404  {object}  handlers.ErrorResponse  "User not found"
// @Router      /ratings/user/{userId} [get]
func (h *Handlers) UserRatings(c *gin.Context) {
	target, okp := pathParam(c, "userId")
	if !okp {
		return
	}
	h.userRatings(c, target)
}

func (h *Handlers) userRatings(c *gin.Context, userID string) {
	ctx := c.Request.Context()
	if conditional(c, "ratings:"+userID, userID, h.ratings.RatingsVersion) {
		return
	}
	out, err := h.ratings.GetUserRatings(ctx, userID)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	ok(c, http.StatusOK, out)
}

// SaveTaglines godoc
// @ID          saveTaglines
// @Summary     Replace the caller's tagline
// @Description Exactly four items in distinct positions 0-3, each naming an entity and a sentiment.
// @Tags        Taglines
// @Accept      json
// @Produce     json
// @Security    BearerAuth
//
// @Param       body  body  handlers.SaveTaglinesRequest  true  "Four tagline slots"
//
// @Success     200  {object}  handlers.SuccessResponse
// @Failure     400  {object}  handlers.ErrorResponse  "Wrong count or duplicate positions"
// @Failure     401  {object}  handlers.ErrorResponse  "Unauthorized"
// @Failure     404  {object}  handlers.ErrorResponse  "Referenced entity not found"
// @Router      /taglines [post]
func (h *Handlers) SaveTaglines(c *gin.Context) {
	var req SaveTaglinesRequest
	if !bindJSON(c, &req) {
		return
	}
	if err := h.taglines.SaveTaglines(c.Request.Context(), currentUser(c), req.Taglines); err != nil {
		writeServiceError(c, err)
		return
	}
	ok(c, http.StatusOK, SuccessResponse{Success: true, Message: "taglines saved"})
}

// MyTaglines godoc
// @ID          getMyTaglines
// @Summary     The caller's tagline
// @Tags        Taglines
// @Produce     json
// @Security    BearerAuth
//
// @Param       If-None-Match  header  string  false  "Return 304 if ETag matches"
//
// @Success     200  {array}   services.TaglineView
// @Success     304  {string}  string  "Not Modified"
// @Failure     401  {object}  handlers.ErrorResponse  "Unauthorized"
// @Router      /taglines [get]
func (h *Handlers) MyTaglines(c *gin.Context) {
	h.userTaglines(c, currentUser(c))
}

// UserTaglines godoc
// @ID          getUserTaglines
// @Summary     Another user's tagline
// @Tags        Taglines
// @Produce     json
// @Security    BearerAuth
//
// @Param       userId         path    string  true   "User ID"  format(uuid)
// @Param       If-None-Match  header  string  false  "Return 304 if ETag matches"
//
// @Success     200  {array}   services.TaglineView
// @Success     304  {string}  string  "Not Modified"
// @Failure     401  {object}  handlers.ErrorResponse  "Unauthorized"
// @Failure     404  {object}  handlers.ErrorResponse  "User not found"
// @Router      /taglines/user/{userId} [get]
func (h *Handlers) UserTaglines(c *gin.Context) {
	target, okp := pathParam(c, "userId")
	if !okp {
		return
	}
	h.userTaglines(c, target)
}

func (h *Handlers) userTaglines(c *gin.Context, userID string) {
	if conditional(c, "taglines:"+userID, userID, h.taglines.TaglinesVersion) {
		return
	}
	out, err := h.taglines.GetUserTaglines(c.Request.Context(), userID)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	ok(c, http.StatusOK, out)
}

// conditional computes the set version and answers 304 when it matches
// If-None-Match. It reports true when the response has been written. An
// unknown user is answered with 404; other version errors skip the
// precondition.
func conditional(c *gin.Context, scope, userID string, version func(context.Context, string) (string, error)) bool {
	v, err := version(c.Request.Context(), userID)
	if err != nil {
		if services.KindOf(err) == services.KindNotFound {
			writeServiceError(c, err)
			return true
		}
		middleware.LoggerFrom(c).Warn().Err(err).Str("scope", scope).Msg("etag version failed")
		return false
	}
	return notModified(c, scope, v)
}
