package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"gorm.io/gorm"

	"github.com/tbourn/fandom-backend/internal/domain"
)

var sweepNow = time.Date(2025, 6, 10, 12, 0, 0, 0, time.UTC)

// seedSweepstakes creates an open sweepstake "open" with two games (the
// second is the final) and an expired, still ACTIVE sweepstake "old".
func seedSweepstakes(t *testing.T, db *gorm.DB) {
	t.Helper()
	seedCatalog(t, db)
	open := &domain.Sweepstake{
		ID:        "open",
		Title:     "Week 1",
		StartDate: sweepNow.Add(-24 * time.Hour),
		EndDate:   sweepNow.Add(72 * time.Hour),
		Status:    domain.SweepstakeActive,
		Games: []domain.Game{
			{ID: 10, HomeTeamID: 1, AwayTeamID: 2, StartTime: sweepNow.Add(24 * time.Hour)},
			{ID: 11, HomeTeamID: 3, AwayTeamID: 1, StartTime: sweepNow.Add(48 * time.Hour), IsFinal: true},
		},
	}
	old := &domain.Sweepstake{
		ID:        "old",
		Title:     "Week 0",
		StartDate: sweepNow.Add(-10 * 24 * time.Hour),
		EndDate:   sweepNow.Add(-time.Hour),
		Status:    domain.SweepstakeActive,
	}
	for _, s := range []*domain.Sweepstake{open, old} {
		if err := db.Create(s).Error; err != nil {
			t.Fatalf("seed sweepstake: %v", err)
		}
	}
}

func newSweepSvc(db *gorm.DB) *SweepstakeService {
	return &SweepstakeService{DB: db, Now: func() time.Time { return sweepNow }}
}

func validPicks() []PickInput {
	return []PickInput{
		{GameID: 10, PickedTeamID: 2},
		{GameID: 11, PickedTeamID: 3, HomeScore: intp(101), AwayScore: intp(99)},
	}
}

func TestSweepstakes_ListCompletesExpired(t *testing.T) {
	db := newTestDB(t)
	seedSweepstakes(t, db)
	svc := newSweepSvc(db)

	list, err := svc.ListSweepstakes(context.Background())
	if err != nil {
		t.Fatalf("ListSweepstakes: %v", err)
	}
	if len(list) != 2 || list[0].ID != "open" || list[1].Status != domain.SweepstakeCompleted {
		t.Fatalf("unexpected list: %+v", list)
	}

	view, err := svc.GetSweepstake(context.Background(), "open")
	if err != nil {
		t.Fatalf("GetSweepstake: %v", err)
	}
	if len(view.Games) != 2 || view.Games[0].HomeTeam.Name != "Lakers" || view.Games[1].AwayTeam.Name != "Lakers" {
		t.Fatalf("games not hydrated: %+v", view.Games)
	}
	if _, err := svc.GetSweepstake(context.Background(), "nope"); !errors.Is(err, ErrSweepstakeNotFound) {
		t.Fatalf("expected ErrSweepstakeNotFound, got %v", err)
	}
}

func TestSweepstakes_SubmitEntry_ReplacesPicks(t *testing.T) {
	db := newTestDB(t)
	seedUser(t, db, "a", "alice")
	seedSweepstakes(t, db)
	svc := newSweepSvc(db)
	ctx := context.Background()

	if _, err := svc.GetMyEntry(ctx, "open", "a"); !errors.Is(err, ErrEntryNotFound) {
		t.Fatalf("expected ErrEntryNotFound before submitting, got %v", err)
	}

	e, err := svc.SubmitEntry(ctx, "open", "a", validPicks())
	if err != nil {
		t.Fatalf("SubmitEntry: %v", err)
	}
	if len(e.Picks) != 2 || e.Picks[1].HomeScore == nil || *e.Picks[1].HomeScore != 101 {
		t.Fatalf("unexpected entry: %+v", e)
	}

	again := validPicks()
	again[0].PickedTeamID = 1
	e2, err := svc.SubmitEntry(ctx, "open", "a", again)
	if err != nil {
		t.Fatalf("resubmit: %v", err)
	}
	if e2.ID != e.ID || len(e2.Picks) != 2 || e2.Picks[0].PickedTeamID != 1 {
		t.Fatalf("resubmit should reuse the entry and replace picks: %+v", e2)
	}

	var n int64
	db.Model(&domain.GamePick{}).Count(&n)
	if n != 2 {
		t.Fatalf("expected 2 pick rows, got %d", n)
	}
}

func TestSweepstakes_SubmitEntry_Rejects(t *testing.T) {
	db := newTestDB(t)
	seedUser(t, db, "a", "alice")
	seedSweepstakes(t, db)
	svc := newSweepSvc(db)
	ctx := context.Background()

	if _, err := svc.SubmitEntry(ctx, "nope", "a", validPicks()); !errors.Is(err, ErrSweepstakeNotFound) {
		t.Fatalf("expected ErrSweepstakeNotFound, got %v", err)
	}
	if _, err := svc.SubmitEntry(ctx, "old", "a", nil); !errors.Is(err, ErrSweepstakeClosed) {
		t.Fatalf("expected ErrSweepstakeClosed, got %v", err)
	}

	missingGame := validPicks()[:1]
	dupGame := validPicks()
	dupGame[1].GameID = 10
	wrongTeam := validPicks()
	wrongTeam[0].PickedTeamID = 4
	noScores := validPicks()
	noScores[1].AwayScore = nil
	negScore := validPicks()
	negScore[1].HomeScore = intp(-1)
	foreignGame := validPicks()
	foreignGame[0].GameID = 99

	for name, picks := range map[string][]PickInput{
		"missing game": missingGame,
		"duplicate":    dupGame,
		"wrong team":   wrongTeam,
		"final scores": noScores,
		"negative":     negScore,
		"foreign game": foreignGame,
	} {
		if _, err := svc.SubmitEntry(ctx, "open", "a", picks); !errors.Is(err, ErrInvalidPicks) {
			t.Fatalf("%s: expected ErrInvalidPicks, got %v", name, err)
		}
	}
	var n int64
	db.Model(&domain.SweepstakeEntry{}).Count(&n)
	if n != 0 {
		t.Fatalf("rejected submissions must not create entries, got %d", n)
	}
}
