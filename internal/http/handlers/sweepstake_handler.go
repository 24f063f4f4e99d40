// Sweepstake HTTP handlers.
//
// This file exposes REST endpoints for sweepstakes and entries:
//   - GET  /sweepstakes             (list, active first)
//   - GET  /sweepstakes/{id}        (detail with games)
//   - POST /sweepstakes/{id}/entry  (submit or replace the caller's picks)
//   - GET  /sweepstakes/{id}/entry  (the caller's entry)
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/fandom-backend/internal/services"
)

// SubmitEntryRequest is the JSON payload for a sweepstake entry.
type SubmitEntryRequest struct {
	// Picks holds one pick per game of the sweepstake.
	Picks []services.PickInput `json:"picks"`
}

// ListSweepstakes godoc
// @ID          listSweepstakes
// @Summary     List sweepstakes
// @Tags        Sweepstakes
// @Produce     json
// @Security    BearerAuth
//
// @Success     200  {array}   domain.Sweepstake
// @Failure     401  {object}  handlers.ErrorResponse  "Unauthorized"
// @Router      /sweepstakes [get]
func (h *Handlers) ListSweepstakes(c *gin.Context) {
	out, err := h.sweepstakes.ListSweepstakes(c.Request.Context())
	if err != nil {
		writeServiceError(c, err)
		return
	}
	ok(c, http.StatusOK, out)
}

// GetSweepstake godoc
// @ID          getSweepstake
// @Summary     Get a sweepstake with its games
// @Tags        Sweepstakes
// @Produce     json
// @Security    BearerAuth
//
// @Param       id  path  string  true  "Sweepstake ID"  format(uuid)
//
// @Success     200  {object}  services.SweepstakeView
// @Failure     401  {object}  handlers.ErrorResponse  "Unauthorized"
// @Failure     404  {object}  handlers.ErrorResponse  "Sweepstake not found"
// @Router      /sweepstakes/{id} [get]
func (h *Handlers) GetSweepstake(c *gin.Context) {
	id, okp := pathParam(c, "id")
	if !okp {
		return
	}
	sw, err := h.sweepstakes.GetSweepstake(c.Request.Context(), id)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	ok(c, http.StatusOK, sw)
}

// SubmitEntry godoc
// @ID          submitSweepstakeEntry
// @Summary     Submit picks
// @Description Creates the caller's entry on first submit and replaces its picks afterwards. Every game needs exactly one pick; the final game also needs both predicted scores.
// @Tags        Sweepstakes
// @Accept      json
// @Produce     json
// @Security    BearerAuth
//
// @Param       id    path  string                       true  "Sweepstake ID"  format(uuid)
// @Param       body  body  handlers.SubmitEntryRequest  true  "Picks"
//
// @Success     200  {object}  domain.SweepstakeEntry
// @Failure     400  {object}  handlers.ErrorResponse  "Invalid picks"
// @Failure     401  {object}  handlers.ErrorResponse  "Unauthorized"
// @Failure     404  {object}  handlers.ErrorResponse  "Sweepstake not found"
// @Failure     409  {object}  handlers.ErrorResponse  "Sweepstake closed"
// @Router      /sweepstakes/{id}/entry [post]
func (h *Handlers) SubmitEntry(c *gin.Context) {
	id, okp := pathParam(c, "id")
	if !okp {
		return
	}
	var req SubmitEntryRequest
	if !bindJSON(c, &req) {
		return
	}
	e, err := h.sweepstakes.SubmitEntry(c.Request.Context(), id, currentUser(c), req.Picks)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	ok(c, http.StatusOK, e)
}

// MyEntry godoc
// @ID          getMySweepstakeEntry
// @Summary     The caller's entry
// @Tags        Sweepstakes
// @Produce     json
// @Security    BearerAuth
//
// @Param       id  path  string  true  "Sweepstake ID"  format(uuid)
//
// @Success     200  {object}  domain.SweepstakeEntry
// @Failure     401  {object}  handlers.ErrorResponse  "Unauthorized"
// @Failure     404  {object}  handlers.ErrorResponse  "No entry"
// @Router      /sweepstakes/{id}/entry [get]
func (h *Handlers) MyEntry(c *gin.Context) {
	id, okp := pathParam(c, "id")
	if !okp {
		return
	}
	e, err := h.sweepstakes.GetMyEntry(c.Request.Context(), id, currentUser(c))
	if err != nil {
		writeServiceError(c, err)
		return
	}
	ok(c, http.StatusOK, e)
}
