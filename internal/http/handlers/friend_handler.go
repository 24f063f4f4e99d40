// Friendship HTTP handlers.
//
// This file exposes REST endpoints for the friend request lifecycle and the
// friendship queries:
//   - POST   /friends/request                (send)
//   - PATCH  /friends/accept/{friendshipId}  (accept, addressee only)
//   - PATCH  /friends/reject/{friendshipId}  (reject, addressee only)
//   - DELETE /friends/cancel/{userId}        (withdraw an outgoing request)
//   - DELETE /friends/{friendId}             (unfriend)
//   - GET    /friends, /friends/{userId}     (friend lists)
//   - GET    /friends/pending, /outgoing     (open requests)
//   - GET    /friends/status?ids=a,b         (viewer-relative status map)
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/fandom-backend/internal/utils"
)

// maxStatusIDs bounds the ids accepted by one status lookup.
const maxStatusIDs = 100

// FriendRequestBody is the JSON payload for sending a friend request.
type FriendRequestBody struct {
	// AddresseeID is the user the request is sent to.
	AddresseeID string `json:"addresseeId" binding:"required" example:"8c1f2d8e-5b7a-4c55-9a43-0f1e2d3c4b5a"`
}

// SendFriendRequest godoc
// @ID          sendFriendRequest
// @Summary     Send a friend request
// @Tags        Friends
// @Accept      json
// @Produce     json
// @Security    BearerAuth
//
// @Param       body  body  handlers.FriendRequestBody  true  "Addressee"
//
// @Success     201  {object}  domain.Friendship
// @Failure     400  {object}  handlers.ErrorResponse  "Self request or bad body"
// @Failure     401  {object}  handlers.ErrorResponse  "Unauthorized"
// @Failure     404  {object}  handlers.ErrorResponse  "User not found"
// @Failure     409  {object}  handlers.ErrorResponse  "Friendship or request already exists"
// @Router      /friends/request [post]
func (h *Handlers) SendFriendRequest(c *gin.Context) {
	var req FriendRequestBody
	if !bindJSON(c, &req) {
		return
	}
	f, err := h.friends.SendRequest(c.Request.Context(), currentUser(c), req.AddresseeID)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	ok(c, http.StatusCreated, f)
}

// AcceptFriendRequest godoc
// @ID          acceptFriendRequest
// @Summary     Accept a friend request
// @Tags        Friends
// @Produce     json
// @Security    BearerAuth
//
// @Param       friendshipId  path  string  true  "Friendship ID"  format(uuid)
//
// @Success     200  {object}  domain.Friendship
// @Failure     401  {object}  handlers.ErrorResponse  "Unauthorized"
// @Failure     403  {object}  handlers.ErrorResponse  "Caller is not the addressee"
// @Failure     404  {object}  handlers.ErrorResponse  "Friendship not found"
// @Failure     409  {object}  handlers.ErrorResponse  "Request is not pending"
// @Router      /friends/accept/{friendshipId} [patch]
func (h *Handlers) AcceptFriendRequest(c *gin.Context) {
	fid, okp := pathParam(c, "friendshipId")
	if !okp {
		return
	}
	f, err := h.friends.AcceptRequest(c.Request.Context(), fid, currentUser(c))
	if err != nil {
		writeServiceError(c, err)
		return
	}
	ok(c, http.StatusOK, f)
}

// RejectFriendRequest godoc
// @ID          rejectFriendRequest
// @Summary     Reject a friend request
// @Description Deletes the request so the pair can start over.
// @Tags        Friends
// @Produce     json
// @Security    BearerAuth
//
// @Param       friendshipId  path  string  true  "Friendship ID"  format(uuid)
//
// @Success     200  {object}  handlers.MessageResponse
// @Failure     401  {object}  handlers.ErrorResponse  "Unauthorized"
// @Failure     403  {object}  handlers.ErrorResponse  "Caller is not the addressee"
// @Failure     404  {object}  handlers.ErrorResponse  "Friendship not found"
// @Router      /friends/reject/{friendshipId} [patch]
func (h *Handlers) RejectFriendRequest(c *gin.Context) {
	fid, okp := pathParam(c, "friendshipId")
	if !okp {
		return
	}
	if err := h.friends.RejectRequest(c.Request.Context(), fid, currentUser(c)); err != nil {
		writeServiceError(c, err)
		return
	}
	ok(c, http.StatusOK, MessageResponse{Message: "friend request rejected"})
}

// CancelFriendRequest godoc
// @ID          cancelFriendRequest
// @Summary     Cancel an outgoing friend request
// @Tags        Friends
// @Produce     json
// @Security    BearerAuth
//
// @Param       userId  path  string  true  "Addressee user ID"  format(uuid)
//
// @Success     200  {object}  handlers.MessageResponse
// @Failure     401  {object}  handlers.ErrorResponse  "Unauthorized"
// @Failure     404  {object}  handlers.ErrorResponse  "No pending request to that user"
// @Router      /friends/cancel/{userId} [delete]
func (h *Handlers) CancelFriendRequest(c *gin.Context) {
	target, okp := pathParam(c, "userId")
	if !okp {
		return
	}
	if err := h.friends.CancelRequest(c.Request.Context(), target, currentUser(c)); err != nil {
		writeServiceError(c, err)
		return
	}
	ok(c, http.StatusOK, MessageResponse{Message: "friend request cancelled"})
}

// RemoveFriend godoc
// @ID          removeFriend
// @Summary     Remove a friend
// @Tags        Friends
// @Produce     json
// @Security    BearerAuth
//
// @Param       friendId  path  string  true  "Friend's user ID"  format(uuid)
//
// @Success     200  {object}  handlers.MessageResponse
// @Failure     401  {object}  handlers.ErrorResponse  "Unauthorized"
// @Failure     404  {object}  handlers.ErrorResponse  "Not friends"
// @Router      /friends/{friendId} [delete]
func (h *Handlers) RemoveFriend(c *gin.Context) {
	friendID, okp := pathParam(c, "friendId")
	if !okp {
		return
	}
	if err := h.friends.RemoveFriend(c.Request.Context(), friendID, currentUser(c)); err != nil {
		writeServiceError(c, err)
		return
	}
	ok(c, http.StatusOK, MessageResponse{Message: "friend removed"})
}

// ListFriends godoc
// @ID          listFriends
// @Summary     List the caller's friends
// @Tags        Friends
// @Produce     json
// @Security    BearerAuth
//
// @Success     200  {array}   services.PublicUser
// @Failure     401  {object}  handlers.ErrorResponse  "Unauthorized"
// @Router      /friends [get]
func (h *Handlers) ListFriends(c *gin.Context) {
	out, err := h.friends.GetFriends(c.Request.Context(), currentUser(c))
	if err != nil {
		writeServiceError(c, err)
		return
	}
	ok(c, http.StatusOK, out)
}

// ListUserFriends godoc
// @ID          listUserFriends
// @Summary     List another user's friends
// @Tags        Friends
// @Produce     json
// @Security    BearerAuth
//
// @Param       userId  path  string  true  "User ID"  format(uuid)
//
// @Success     200  {array}   services.PublicUser
// @Failure     401  {object}  handlers.ErrorResponse  "Unauthorized"
// @Failure     404  {object}  handlers.ErrorResponse  "User not found"
// @Router      /friends/{userId} [get]
func (h *Handlers) ListUserFriends(c *gin.Context) {
	target, okp := pathParam(c, "userId")
	if !okp {
		return
	}
	out, err := h.friends.GetUserFriends(c.Request.Context(), target)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	ok(c, http.StatusOK, out)
}

// PendingRequests godoc
// @ID          pendingFriendRequests
// @Summary     List incoming friend requests
// @Tags        Friends
// @Produce     json
// @Security    BearerAuth
//
// @Success     200  {array}   services.FriendRequestView
// @Failure     401  {object}  handlers.ErrorResponse  "Unauthorized"
// @Router      /friends/pending [get]
func (h *Handlers) PendingRequests(c *gin.Context) {
	out, err := h.friends.PendingRequests(c.Request.Context(), currentUser(c))
	if err != nil {
		writeServiceError(c, err)
		return
	}
	ok(c, http.StatusOK, out)
}

// OutgoingRequests godoc
// @ID          outgoingFriendRequests
// @Summary     List outgoing friend requests
// @Tags        Friends
// @Produce     json
// @Security    BearerAuth
//
// @Success     200  {array}   services.FriendRequestView
// @Failure     401  {object}  handlers.ErrorResponse  "Unauthorized"
// @Router      /friends/outgoing [get]
func (h *Handlers) OutgoingRequests(c *gin.Context) {
	out, err := h.friends.OutgoingRequests(c.Request.Context(), currentUser(c))
	if err != nil {
		writeServiceError(c, err)
		return
	}
	ok(c, http.StatusOK, out)
}

// FriendshipStatus godoc
// @ID          friendshipStatus
// @Summary     Friendship status for several users
// @Description Maps every id to FRIENDS, OUTGOING_REQUEST, INCOMING_REQUEST or NOT_FRIENDS, relative to the caller.
// @Tags        Friends
// @Produce     json
// @Security    BearerAuth
//
// @Param       ids  query  string  true  "Comma-separated user IDs"  example(id1,id2)
//
// @Success     200  {object}  map[string]string
// @Failure     400  {object}  handlers.ErrorResponse  "Missing or too many ids"
// @Failure     401  {object}  handlers.ErrorResponse  "Unauthorized"
// @Router      /friends/status [get]
func (h *Handlers) FriendshipStatus(c *gin.Context) {
	ids := utils.SplitIDs(c.Query("ids"))
	if len(ids) == 0 {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "ids is required")
		return
	}
	if len(ids) > maxStatusIDs {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "too many ids")
		return
	}
	st, err := h.friends.StatusForUsers(c.Request.Context(), currentUser(c), ids)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	ok(c, http.StatusOK, st)
}
