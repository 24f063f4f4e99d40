// User HTTP handlers.
//
// This file exposes REST endpoints for identities and profiles:
//   - POST   /users/sync     (bind the token subject to a user)
//   - GET    /users/me       (own profile)
//   - PATCH  /users/me       (partial profile update)
//   - GET    /users/search   (username / display name search)
//   - GET    /users/{userId} (public profile with friendship status)
package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/fandom-backend/internal/http/middleware"
	"github.com/tbourn/fandom-backend/internal/services"
	"github.com/tbourn/fandom-backend/internal/utils"
)

// SyncUser godoc
// @ID          syncUser
// @Summary     Bind the caller's token subject to a user
// @Description Returns the user bound to the bearer token's subject, creating it from the payload on first sight.
// @Tags        Users
// @Accept      json
// @Produce     json
// @Security    BearerAuth
//
// @Param       body  body  services.SyncInput  true  "First-time profile"
//
// @Success     200  {object}  domain.User  "Already bound"
// @Success     201  {object}  domain.User  "Created"
// @Failure     400  {object}  handlers.ErrorResponse  "Invalid username or profile"
// @Failure     401  {object}  handlers.ErrorResponse  "Missing or invalid token"
// @Failure     409  {object}  handlers.ErrorResponse  "Username taken"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /users/sync [post]
func (h *Handlers) SyncUser(c *gin.Context) {
	var in services.SyncInput
	if !bindJSON(c, &in) {
		return
	}
	u, created, err := h.users.SyncUser(c.Request.Context(), middleware.SubjectFrom(c), in)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	ok(c, status, u)
}

// GetMe godoc
// @ID          getMe
// @Summary     Get the caller's profile
// @Tags        Users
// @Produce     json
// @Security    BearerAuth
//
// @Success     200  {object}  domain.User
// @Failure     401  {object}  handlers.ErrorResponse  "Unauthorized"
// @Failure     404  {object}  handlers.ErrorResponse  "User not found"
// @Router      /users/me [get]
func (h *Handlers) GetMe(c *gin.Context) {
	u, err := h.users.GetMe(c.Request.Context(), currentUser(c))
	if err != nil {
		writeServiceError(c, err)
		return
	}
	ok(c, http.StatusOK, u)
}

// UpdateMe godoc
// @ID          updateMe
// @Summary     Update the caller's profile
// @Description Partial update: omitted fields are unchanged, an empty string clears a field.
// @Tags        Users
// @Accept      json
// @Produce     json
// @Security    BearerAuth
//
// @Param       body  body  services.ProfileUpdate  true  "Profile fields"
//
// @Success     200  {object}  domain.User
// @Failure     400  {object}  handlers.ErrorResponse  "Invalid profile"
// @Failure     401  {object}  handlers.ErrorResponse  "Unauthorized"
// @Failure     404  {object}  handlers.ErrorResponse  "User not found"
// @Router      /users/me [patch]
func (h *Handlers) UpdateMe(c *gin.Context) {
	var in services.ProfileUpdate
	if !bindJSON(c, &in) {
		return
	}
	u, err := h.users.UpdateMe(c.Request.Context(), currentUser(c), in)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	ok(c, http.StatusOK, u)
}

// SearchUsers godoc
// @ID          searchUsers
// @Summary     Search users
// @Description Case-insensitive substring match on username and display name. The caller is excluded and every hit carries the caller's friendship status.
// @Tags        Users
// @Produce     json
// @Security    BearerAuth
//
// @Param       q      query  string  false  "Search text; blank yields an empty list"  example(ali)
// @Param       limit  query  int     false  "Max results"  minimum(1) maximum(50) default(20)
//
// @Success     200  {array}   services.UserSearchResult
// @Failure     401  {object}  handlers.ErrorResponse  "Unauthorized"
// @Router      /users/search [get]
func (h *Handlers) SearchUsers(c *gin.Context) {
	q := strings.TrimSpace(c.Query("q"))
	limit := utils.AtoiDefault(c.Query("limit"), services.DefaultUserSearchLimit)
	res, err := h.users.SearchUsers(c.Request.Context(), currentUser(c), q, limit)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	ok(c, http.StatusOK, res)
}

// GetProfile godoc
// @ID          getUserProfile
// @Summary     Get a user's public profile
// @Tags        Users
// @Produce     json
// @Security    BearerAuth
//
// @Param       userId  path  string  true  "User ID"  format(uuid)
//
// @Success     200  {object}  services.ProfileView
// @Failure     401  {object}  handlers.ErrorResponse  "Unauthorized"
// @Failure     404  {object}  handlers.ErrorResponse  "User not found"
// @Router      /users/{userId} [get]
func (h *Handlers) GetProfile(c *gin.Context) {
	target, okp := pathParam(c, "userId")
	if !okp {
		return
	}
	p, err := h.users.GetProfile(c.Request.Context(), currentUser(c), target)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	ok(c, http.StatusOK, p)
}
