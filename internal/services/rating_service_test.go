package services

import (
	"context"
	"errors"
	"testing"

	"gorm.io/gorm"

	"github.com/tbourn/fandom-backend/internal/domain"
	"github.com/tbourn/fandom-backend/internal/repo"
)

func intp(v int) *int { return &v }

func TestSaveRatings_ReplacesWholeSet(t *testing.T) {
	db := newTestDB(t)
	seedUser(t, db, "a", "alice")
	seedCatalog(t, db)
	cache := newMemCache()
	svc := &RatingService{DB: db, Cache: cache}
	ctx := context.Background()

	err := svc.SaveRatings(ctx, "a", []RatingInput{
		{EntityType: domain.EntityTeam, EntityID: 1, Rating: intp(5)},
		{EntityType: domain.EntityTeam, EntityID: 2, Rating: intp(-3)},
	})
	if err != nil {
		t.Fatalf("SaveRatings: %v", err)
	}
	if err := svc.SaveRatings(ctx, "a", []RatingInput{{EntityType: domain.EntityTeam, EntityID: 1, Rating: intp(2)}}); err != nil {
		t.Fatalf("second SaveRatings: %v", err)
	}

	rows, _ := repo.ListUserRatings(ctx, db, "a")
	if len(rows) != 1 || rows[0].EntityID != 1 || rows[0].Rating != 2 {
		t.Fatalf("expected only (TEAM,1,2), got %+v", rows)
	}
	if cache.version != 2 {
		t.Fatalf("each save must bump the cache version, got %d", cache.version)
	}
}

func TestSaveRatings_InvalidLeavesPriorSet(t *testing.T) {
	db := newTestDB(t)
	seedUser(t, db, "a", "alice")
	seedCatalog(t, db)
	svc := &RatingService{DB: db}
	ctx := context.Background()

	if err := svc.SaveRatings(ctx, "a", []RatingInput{{EntityType: domain.EntityAthlete, EntityID: 1, Rating: intp(4)}}); err != nil {
		t.Fatalf("seed ratings: %v", err)
	}

	cases := []struct {
		name  string
		items []RatingInput
		want  error
	}{
		{"out of range", []RatingInput{{EntityType: domain.EntityTeam, EntityID: 1, Rating: intp(6)}}, ErrInvalidRatings},
		{"missing rating", []RatingInput{{EntityType: domain.EntityTeam, EntityID: 1}}, ErrInvalidRatings},
		{"bad type", []RatingInput{{EntityType: "PLAYER", EntityID: 1, Rating: intp(1)}}, ErrInvalidRatings},
		{"negative position", []RatingInput{{EntityType: domain.EntityTeam, EntityID: 1, Rating: intp(1), Position: intp(-1)}}, ErrInvalidRatings},
		{"duplicate entity", []RatingInput{
			{EntityType: domain.EntityTeam, EntityID: 1, Rating: intp(1)},
			{EntityType: domain.EntityTeam, EntityID: 1, Rating: intp(2)},
		}, ErrInvalidRatings},
		{"unknown entity", []RatingInput{{EntityType: domain.EntityTeam, EntityID: 99, Rating: intp(1)}}, ErrEntityNotFound},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if err := svc.SaveRatings(ctx, "a", tc.items); !errors.Is(err, tc.want) {
				t.Fatalf("expected %v, got %v", tc.want, err)
			}
			rows, _ := repo.ListUserRatings(ctx, db, "a")
			if len(rows) != 1 || rows[0].EntityType != domain.EntityAthlete {
				t.Fatalf("prior set must be untouched, got %+v", rows)
			}
		})
	}
}

func TestGetUserRatings_HydratedAndOrdered(t *testing.T) {
	db := newTestDB(t)
	seedUser(t, db, "a", "alice")
	seedCatalog(t, db)
	svc := &RatingService{DB: db}
	ctx := context.Background()

	err := svc.SaveRatings(ctx, "a", []RatingInput{
		{EntityType: domain.EntityTeam, EntityID: 4, Rating: intp(3), Position: intp(1)},
		{EntityType: domain.EntitySport, EntityID: 1, Rating: intp(5), Position: intp(0)},
	})
	if err != nil {
		t.Fatalf("SaveRatings: %v", err)
	}
	got, err := svc.GetUserRatings(ctx, "a")
	if err != nil {
		t.Fatalf("GetUserRatings: %v", err)
	}
	if len(got) != 2 || got[0].EntityName != "Basketball" || got[1].EntityName != "Packers" {
		t.Fatalf("unexpected ratings: %+v", got)
	}
	if _, err := svc.GetUserRatings(ctx, "ghost"); !errors.Is(err, ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}

	v1, _ := svc.RatingsVersion(ctx, "a")
	_ = svc.SaveRatings(ctx, "a", nil)
	v2, _ := svc.RatingsVersion(ctx, "a")
	if v1 == v2 || v2 != "0" {
		t.Fatalf("version should change when the set is cleared: %q -> %q", v1, v2)
	}
	if _, err := svc.RatingsVersion(ctx, "ghost"); !errors.Is(err, ErrUserNotFound) {
		t.Fatalf("RatingsVersion(ghost): expected ErrUserNotFound, got %v", err)
	}
	if _, err := (&TaglineService{DB: db}).TaglinesVersion(ctx, "ghost"); !errors.Is(err, ErrUserNotFound) {
		t.Fatalf("TaglinesVersion(ghost): expected ErrUserNotFound, got %v", err)
	}
}

func TestSaveTaglines_Validation(t *testing.T) {
	db := newTestDB(t)
	seedUser(t, db, "a", "alice")
	seedCatalog(t, db)
	svc := &TaglineService{DB: db}
	ctx := context.Background()

	four := func(positions ...int) []TaglineInput {
		out := make([]TaglineInput, 0, len(positions))
		for i, p := range positions {
			out = append(out, TaglineInput{
				EntityType: domain.EntityTeam,
				EntityID:   uint(i%4 + 1),
				Sentiment:  domain.SentimentLove,
				Position:   intp(p),
			})
		}
		return out
	}

	if err := svc.SaveTaglines(ctx, "a", four(3, 2, 1, 0)); err != nil {
		t.Fatalf("SaveTaglines: %v", err)
	}

	bad := map[string][]TaglineInput{
		"three items":         four(0, 1, 2),
		"duplicate positions": four(0, 1, 1, 3),
		"position too large":  four(0, 1, 2, 4),
	}
	for name, items := range bad {
		if err := svc.SaveTaglines(ctx, "a", items); !errors.Is(err, ErrInvalidTaglines) {
			t.Fatalf("%s: expected ErrInvalidTaglines, got %v", name, err)
		}
	}
	badSentiment := four(0, 1, 2, 3)
	badSentiment[2].Sentiment = "MEH"
	if err := svc.SaveTaglines(ctx, "a", badSentiment); !errors.Is(err, ErrInvalidTaglines) {
		t.Fatalf("expected ErrInvalidTaglines for sentiment, got %v", err)
	}
	unknown := four(0, 1, 2, 3)
	unknown[0].EntityType, unknown[0].EntityID = domain.EntityAthlete, 42
	if err := svc.SaveTaglines(ctx, "a", unknown); !errors.Is(err, ErrEntityNotFound) {
		t.Fatalf("expected ErrEntityNotFound, got %v", err)
	}

	got, err := svc.GetUserTaglines(ctx, "a")
	if err != nil || len(got) != 4 {
		t.Fatalf("GetUserTaglines = %+v err=%v", got, err)
	}
	// saved with positions 3,2,1,0 for teams 1..4, so slot 0 holds team 4
	if got[0].Position != 0 || got[0].EntityName != "Packers" || got[3].EntityName != "Lakers" {
		t.Fatalf("taglines not ordered by position: %+v", got)
	}
}

func TestReplaceSet_OwnerErrorRollsBack(t *testing.T) {
	db := newTestDB(t)
	seedUser(t, db, "a", "alice")
	seedCatalog(t, db)
	ctx := context.Background()
	_ = (&RatingService{DB: db}).SaveRatings(ctx, "a", []RatingInput{{EntityType: domain.EntityTeam, EntityID: 1, Rating: intp(1)}})

	boom := errors.New("boom")
	op := replaceSet[int, domain.UserRating]{
		OwnerColumn: "user_id",
		Owner:       fixedOwner("a"),
		ToRows: func(owner any, items []int) []domain.UserRating {
			// entity type violates the check constraint, so the insert fails
			return []domain.UserRating{{UserID: owner.(string), EntityType: "BOGUS", EntityID: 1}}
		},
	}
	if err := op.Run(ctx, db, []int{1}); err == nil {
		t.Fatalf("expected insert failure")
	}
	rows, _ := repo.ListUserRatings(ctx, db, "a")
	if len(rows) != 1 {
		t.Fatalf("failed replace must roll back the delete, got %+v", rows)
	}

	op.Owner = func(context.Context, *gorm.DB) (any, error) { return nil, boom }
	if err := op.Run(ctx, db, []int{1}); !errors.Is(err, boom) {
		t.Fatalf("expected owner error, got %v", err)
	}
}
