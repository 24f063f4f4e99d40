package handlers

import (
	"net/http"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/tbourn/fandom-backend/internal/domain"
	"github.com/tbourn/fandom-backend/internal/services"
)

func seedSweepstake(t *testing.T, db *gorm.DB, id string, end time.Time) {
	t.Helper()
	now := time.Now().UTC().Truncate(time.Second)
	sw := &domain.Sweepstake{
		ID:        id,
		Title:     "Week " + id,
		StartDate: now.Add(-48 * time.Hour),
		EndDate:   end,
		Status:    domain.SweepstakeActive,
	}
	if err := db.Create(sw).Error; err != nil {
		t.Fatalf("seed sweepstake: %v", err)
	}
	games := []domain.Game{
		{SweepstakeID: id, HomeTeamID: 1, AwayTeamID: 2, StartTime: now.Add(time.Hour)},
		{SweepstakeID: id, HomeTeamID: 3, AwayTeamID: 1, StartTime: now.Add(2 * time.Hour), IsFinal: true},
	}
	if err := db.Create(&games).Error; err != nil {
		t.Fatalf("seed games: %v", err)
	}
}

func TestSweepstakes_SubmitAndReadEntry(t *testing.T) {
	db := newHandlersDB(t)
	seedUsers(t, db, "alice")
	seedTeams(t, db)
	seedSweepstake(t, db, "open", time.Now().UTC().Add(72*time.Hour))
	r := newTestRouter(newTestHandlers(db))

	w := do(t, r, "alice", http.MethodGet, "/sweepstakes/open", nil)
	expectStatus(t, w, http.StatusOK)
	sw := decode[services.SweepstakeView](t, w)
	if len(sw.Games) != 2 || sw.Games[0].HomeTeam.Name != "Lakers" {
		t.Fatalf("sweepstake = %+v", sw)
	}
	regular, final := sw.Games[0], sw.Games[1]
	if !final.IsFinal {
		regular, final = final, regular
	}

	expectStatus(t, do(t, r, "alice", http.MethodGet, "/sweepstakes/open/entry", nil), http.StatusNotFound)

	// the final game needs predicted scores
	missing := gin.H{"picks": []gin.H{
		{"gameId": regular.ID, "pickedTeamId": regular.HomeTeam.ID},
		{"gameId": final.ID, "pickedTeamId": final.AwayTeam.ID},
	}}
	expectStatus(t, do(t, r, "alice", http.MethodPost, "/sweepstakes/open/entry", missing), http.StatusBadRequest)

	picks := gin.H{"picks": []gin.H{
		{"gameId": regular.ID, "pickedTeamId": regular.HomeTeam.ID},
		{"gameId": final.ID, "pickedTeamId": final.AwayTeam.ID, "homeScore": 98, "awayScore": 104},
	}}
	w = do(t, r, "alice", http.MethodPost, "/sweepstakes/open/entry", picks)
	expectStatus(t, w, http.StatusOK)
	entry := decode[domain.SweepstakeEntry](t, w)
	if entry.UserID != "alice" || len(entry.Picks) != 2 {
		t.Fatalf("entry = %+v", entry)
	}

	w = do(t, r, "alice", http.MethodGet, "/sweepstakes/open/entry", nil)
	expectStatus(t, w, http.StatusOK)
	if again := decode[domain.SweepstakeEntry](t, w); again.ID != entry.ID {
		t.Fatalf("entry id changed: %s != %s", again.ID, entry.ID)
	}

	expectStatus(t, do(t, r, "alice", http.MethodPost, "/sweepstakes/nope/entry", picks), http.StatusNotFound)
}

func TestSweepstakes_ExpiredIsCompletedAndClosed(t *testing.T) {
	db := newHandlersDB(t)
	seedUsers(t, db, "alice")
	seedTeams(t, db)
	seedSweepstake(t, db, "old", time.Now().UTC().Add(-time.Hour))
	r := newTestRouter(newTestHandlers(db))

	w := do(t, r, "alice", http.MethodGet, "/sweepstakes", nil)
	expectStatus(t, w, http.StatusOK)
	list := decode[[]domain.Sweepstake](t, w)
	if len(list) != 1 || list[0].Status != domain.SweepstakeCompleted {
		t.Fatalf("list = %+v", list)
	}

	w = do(t, r, "alice", http.MethodPost, "/sweepstakes/old/entry", gin.H{"picks": []gin.H{}})
	expectStatus(t, w, http.StatusConflict)
	if e := decode[ErrorResponse](t, w); e.Code != ErrCodeInvalidState {
		t.Fatalf("code = %s", e.Code)
	}
}
