// Ranking and catalog HTTP handlers.
//
// This file exposes the read-only leaderboard, search and sports catalog
// endpoints:
//   - GET /rankings/teams/top|bottom
//   - GET /rankings/athletes/top|bottom
//   - GET /rankings/search?q&category&sportId
//   - GET /sports, /teams?sportId, /athletes?sportId&teamId
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/fandom-backend/internal/domain"
	"github.com/tbourn/fandom-backend/internal/utils"
)

// TopTeams godoc
// @ID          topTeams
// @Summary     Best-rated teams
// @Description Teams ordered by average rating, highest first. Ties are ordered by team id.
// @Tags        Rankings
// @Produce     json
// @Security    BearerAuth
//
// @Success     200  {array}   services.RankedEntity
// @Failure     401  {object}  handlers.ErrorResponse  "Unauthorized"
// @Router      /rankings/teams/top [get]
func (h *Handlers) TopTeams(c *gin.Context) { h.leaderboard(c, domain.EntityTeam, false) }

// BottomTeams godoc
// @ID          bottomTeams
// @Summary     Worst-rated teams
// @Tags        Rankings
// @Produce     json
// @Security    BearerAuth
//
// @Success     200  {array}   services.RankedEntity
// @Failure     401  {object}  handlers.ErrorResponse  "Unauthorized"
// @Router      /rankings/teams/bottom [get]
func (h *Handlers) BottomTeams(c *gin.Context) { h.leaderboard(c, domain.EntityTeam, true) }

// TopAthletes godoc
// @ID          topAthletes
// @Summary     Best-rated athletes
// @Tags        Rankings
// @Produce     json
// @Security    BearerAuth
//
// @Success     200  {array}   services.RankedEntity
// @Failure     401  {object}  handlers.ErrorResponse  "Unauthorized"
// @Router      /rankings/athletes/top [get]
func (h *Handlers) TopAthletes(c *gin.Context) { h.leaderboard(c, domain.EntityAthlete, false) }

// BottomAthletes godoc
// @ID          bottomAthletes
// @Summary     Worst-rated athletes
// @Tags        Rankings
// @Produce     json
// @Security    BearerAuth
//
// @Success     200  {array}   services.RankedEntity
// @Failure     401  {object}  handlers.ErrorResponse  "Unauthorized"
// @Router      /rankings/athletes/bottom [get]
func (h *Handlers) BottomAthletes(c *gin.Context) { h.leaderboard(c, domain.EntityAthlete, true) }

func (h *Handlers) leaderboard(c *gin.Context, entityType string, bottom bool) {
	out, err := h.rankings.Leaderboard(c.Request.Context(), entityType, bottom)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	ok(c, http.StatusOK, out)
}

// SearchRankings godoc
// @ID          searchRankings
// @Summary     Search rated teams and athletes
// @Description Name substring search with each match's rating aggregate, most-rated first.
// @Tags        Rankings
// @Produce     json
// @Security    BearerAuth
//
// @Param       q         query  string  false  "Name substring"  example(lake)
// @Param       category  query  string  false  "teams, athletes or all"  Enums(teams, athletes, all) default(all)
// @Param       sportId   query  int     false  "Restrict to one sport"
//
// @Success     200  {array}   services.SearchResult
// @Failure     400  {object}  handlers.ErrorResponse  "Bad category or sportId"
// @Failure     401  {object}  handlers.ErrorResponse  "Unauthorized"
// @Router      /rankings/search [get]
func (h *Handlers) SearchRankings(c *gin.Context) {
	sportID, okq := uintQuery(c, "sportId")
	if !okq {
		return
	}
	out, err := h.rankings.Search(c.Request.Context(), c.Query("q"), c.Query("category"), sportID)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	ok(c, http.StatusOK, out)
}

// ListSports godoc
// @ID          listSports
// @Summary     List sports
// @Tags        Catalog
// @Produce     json
// @Security    BearerAuth
//
// @Success     200  {array}   domain.Sport
// @Failure     401  {object}  handlers.ErrorResponse  "Unauthorized"
// @Router      /sports [get]
func (h *Handlers) ListSports(c *gin.Context) {
	out, err := h.catalog.ListSports(c.Request.Context())
	if err != nil {
		writeServiceError(c, err)
		return
	}
	ok(c, http.StatusOK, out)
}

// ListTeams godoc
// @ID          listTeams
// @Summary     List teams
// @Tags        Catalog
// @Produce     json
// @Security    BearerAuth
//
// @Param       sportId  query  int  false  "Restrict to one sport"
//
// @Success     200  {array}   domain.Team
// @Failure     400  {object}  handlers.ErrorResponse  "Bad sportId"
// @Failure     401  {object}  handlers.ErrorResponse  "Unauthorized"
// @Router      /teams [get]
func (h *Handlers) ListTeams(c *gin.Context) {
	sportID, okq := uintQuery(c, "sportId")
	if !okq {
		return
	}
	out, err := h.catalog.ListTeams(c.Request.Context(), sportID)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	ok(c, http.StatusOK, out)
}

// ListAthletes godoc
// @ID          listAthletes
// @Summary     List athletes
// @Tags        Catalog
// @Produce     json
// @Security    BearerAuth
//
// @Param       sportId  query  int  false  "Restrict to one sport"
// @Param       teamId   query  int  false  "Restrict to one team"
//
// @Success     200  {array}   domain.Athlete
// @Failure     400  {object}  handlers.ErrorResponse  "Bad sportId or teamId"
// @Failure     401  {object}  handlers.ErrorResponse  "Unauthorized"
// @Router      /athletes [get]
func (h *Handlers) ListAthletes(c *gin.Context) {
	sportID, okq := uintQuery(c, "sportId")
	if !okq {
		return
	}
	teamID, okq := uintQuery(c, "teamId")
	if !okq {
		return
	}
	out, err := h.catalog.ListAthletes(c.Request.Context(), sportID, teamID)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	ok(c, http.StatusOK, out)
}

// uintQuery parses an optional numeric id query parameter, answering 400
// when it is present but malformed.
func uintQuery(c *gin.Context, name string) (*uint, bool) {
	v, err := utils.ParseUintPtr(c.Query(name))
	if err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, name+" must be a positive integer")
		return nil, false
	}
	return v, true
}
