package handlers

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	sqlite "github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/tbourn/fandom-backend/internal/domain"
	"github.com/tbourn/fandom-backend/internal/http/middleware"
	"github.com/tbourn/fandom-backend/internal/repo"
	"github.com/tbourn/fandom-backend/internal/services"
)

// ---------- test DB + wiring ----------

func newHandlersDB(t *testing.T) *gorm.DB {
	t.Helper()

	// Unique DSN per call to avoid cross-test contamination
	dsn := fmt.Sprintf("file:handlers_%s?mode=memory&cache=shared&_pragma=foreign_keys(1)", uuid.NewString())

	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	db.Exec("PRAGMA foreign_keys=ON;")
	if sqlDB, err := db.DB(); err == nil {
		sqlDB.SetMaxOpenConns(1)
		t.Cleanup(func() { _ = sqlDB.Close() })
	}
	if err := repo.AutoMigrate(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

func seedUsers(t *testing.T, db *gorm.DB, names ...string) {
	t.Helper()
	for _, n := range names {
		u := &domain.User{ID: n, Sub: "sub-" + n, Username: n, DisplayName: n}
		if err := db.Create(u).Error; err != nil {
			t.Fatalf("seed user %s: %v", n, err)
		}
	}
}

func seedTeams(t *testing.T, db *gorm.DB) {
	t.Helper()
	rows := []any{
		&domain.Sport{ID: 1, Name: "Basketball"},
		&domain.Team{ID: 1, Name: "Lakers", SportID: 1, City: "Los Angeles"},
		&domain.Team{ID: 2, Name: "Celtics", SportID: 1, City: "Boston"},
		&domain.Team{ID: 3, Name: "Bulls", SportID: 1, City: "Chicago"},
		&domain.Athlete{ID: 1, Name: "Larry Bird", SportID: 1},
	}
	for _, r := range rows {
		if err := db.Create(r).Error; err != nil {
			t.Fatalf("seed catalog: %v", err)
		}
	}
}

// newTestHandlers wires every handler to real services over db.
func newTestHandlers(db *gorm.DB) *Handlers {
	return New(Deps{
		Users:       &services.UserService{DB: db},
		Friends:     &services.FriendshipService{DB: db},
		Posts:       &services.PostService{DB: db, PageSize: 10, MaxPageSize: 50, IdempotencyTTL: time.Hour},
		Ratings:     &services.RatingService{DB: db},
		Taglines:    &services.TaglineService{DB: db},
		Rankings:    &services.RankingService{DB: db},
		Catalog:     &services.CatalogService{DB: db},
		Sweepstakes: &services.SweepstakeService{DB: db},
	})
}

// actAs stands in for the auth chain: X-Test-User becomes both the token
// subject ("sub-<id>") and the resolved user id.
func actAs() gin.HandlerFunc {
	return func(c *gin.Context) {
		if id := c.GetHeader("X-Test-User"); id != "" {
			c.Set("sub", "sub-"+id)
			c.Set("userID", id)
		}
		c.Next()
	}
}

// newTestRouter mounts the routes under test without the /api prefix.
func newTestRouter(h *Handlers) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(middleware.RequestID(), actAs())

	r.POST("/users/sync", h.SyncUser)
	r.GET("/users/me", h.GetMe)
	r.PATCH("/users/me", h.UpdateMe)
	r.GET("/users/search", h.SearchUsers)
	r.GET("/users/:userId", h.GetProfile)

	r.POST("/friends/request", h.SendFriendRequest)
	r.PATCH("/friends/accept/:friendshipId", h.AcceptFriendRequest)
	r.PATCH("/friends/reject/:friendshipId", h.RejectFriendRequest)
	r.GET("/friends/pending", h.PendingRequests)
	r.GET("/friends/outgoing", h.OutgoingRequests)
	r.GET("/friends/status", h.FriendshipStatus)
	r.GET("/friends", h.ListFriends)
	r.GET("/friends/:userId", h.ListUserFriends)
	r.DELETE("/friends/cancel/:userId", h.CancelFriendRequest)
	r.DELETE("/friends/:friendId", h.RemoveFriend)

	r.GET("/posts", h.Feed)
	r.GET("/posts/user/:userId", h.UserPosts)
	r.POST("/posts", middleware.IdempotencyValidator(middleware.IdempotencyOptions{Scope: services.IdempotencyScopeCreatePost}, nil), h.CreatePost)
	r.PUT("/posts/:postId", h.UpdatePost)
	r.DELETE("/posts/:postId", h.DeletePost)
	r.POST("/posts/:postId/like", h.LikePost)
	r.DELETE("/posts/:postId/like", h.UnlikePost)

	r.POST("/ratings", h.SaveRatings)
	r.GET("/ratings", h.MyRatings)
	r.GET("/ratings/user/:userId", h.UserRatings)
	r.POST("/taglines", h.SaveTaglines)
	r.GET("/taglines", h.MyTaglines)
	r.GET("/taglines/user/:userId", h.UserTaglines)

	r.GET("/rankings/teams/top", h.TopTeams)
	r.GET("/rankings/teams/bottom", h.BottomTeams)
	r.GET("/rankings/athletes/top", h.TopAthletes)
	r.GET("/rankings/athletes/bottom", h.BottomAthletes)
	r.GET("/rankings/search", h.SearchRankings)
	r.GET("/sports", h.ListSports)
	r.GET("/teams", h.ListTeams)
	r.GET("/athletes", h.ListAthletes)

	r.GET("/sweepstakes", h.ListSweepstakes)
	r.GET("/sweepstakes/:id", h.GetSweepstake)
	r.POST("/sweepstakes/:id/entry", h.SubmitEntry)
	r.GET("/sweepstakes/:id/entry", h.MyEntry)
	return r
}

// do sends one request as user (empty for anonymous) with an optional JSON
// body and extra header pairs.
func do(t *testing.T, r http.Handler, user, method, path string, body any, headers ...string) *httptest.ResponseRecorder {
	t.Helper()
	var rd *bytes.Reader
	switch b := body.(type) {
	case nil:
		rd = bytes.NewReader(nil)
	case string:
		rd = bytes.NewReader([]byte(b))
	default:
		raw, err := json.Marshal(b)
		if err != nil {
			t.Fatalf("marshal: %v", err)
		}
		rd = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, rd)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if user != "" {
		req.Header.Set("X-Test-User", user)
	}
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(w.Body.Bytes(), &v); err != nil {
		t.Fatalf("decode %T: %v (body=%s)", v, err, w.Body.String())
	}
	return v
}

func expectStatus(t *testing.T, w *httptest.ResponseRecorder, want int) {
	t.Helper()
	if w.Code != want {
		t.Fatalf("status=%d want=%d body=%s", w.Code, want, w.Body.String())
	}
}
