package repo

import (
	"context"
	"fmt"
	"testing"
	"time"

	sqlite "github.com/glebarez/sqlite" // pure-Go SQLite (no CGO)
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/tbourn/fandom-backend/internal/domain"
)

func newTestDB(t *testing.T, migrate ...any) *gorm.DB {
	t.Helper()
	// Unique DB per test to avoid schema leaking across tests.
	dsn := fmt.Sprintf("file:repo_%s?mode=memory&cache=shared&_pragma=foreign_keys(1)", uuid.NewString())
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
	if len(migrate) > 0 {
		if err := db.AutoMigrate(migrate...); err != nil {
			t.Fatalf("automigrate: %v", err)
		}
	}
	return db
}

// newMigratedDB returns a test DB with the full schema.
func newMigratedDB(t *testing.T) *gorm.DB {
	t.Helper()
	return newTestDB(t, Models()...)
}

func seedUser(t *testing.T, db *gorm.DB, id, username string) *domain.User {
	t.Helper()
	u := &domain.User{ID: id, Sub: "sub-" + id, Username: username, DisplayName: username}
	if err := db.Create(u).Error; err != nil {
		t.Fatalf("seed user %s: %v", id, err)
	}
	return u
}

func TestRatingsStats_CountError_NoTable(t *testing.T) {
	db := newTestDB(t /* no migrations */)
	_, _, err := RatingsStats(context.Background(), db, "u1")
	if err == nil {
		t.Fatalf("expected error due to missing user_ratings table")
	}
}

func TestRatingsStats_ZeroRows(t *testing.T) {
	db := newMigratedDB(t)
	count, maxAt, err := RatingsStats(context.Background(), db, "u1")
	if err != nil {
		t.Fatalf("RatingsStats error: %v", err)
	}
	if count != 0 || maxAt != nil {
		t.Fatalf("expected (0, nil), got (%d, %v)", count, maxAt)
	}
}

func TestRatingsStats_Success_FilterAndMax(t *testing.T) {
	db := newMigratedDB(t)
	seedUser(t, db, "u1", "alice")
	seedUser(t, db, "u2", "bob")

	t1 := time.Date(2025, 1, 2, 15, 0, 0, 0, time.UTC)
	t2 := time.Date(2025, 3, 4, 10, 30, 0, 0, time.UTC) // max for u1
	t3 := time.Date(2025, 5, 1, 9, 0, 0, 0, time.UTC)   // for other user

	rows := []domain.UserRating{
		{UserID: "u1", EntityType: domain.EntityTeam, EntityID: 1, Rating: 3, CreatedAt: t1},
		{UserID: "u1", EntityType: domain.EntityTeam, EntityID: 2, Rating: 4, CreatedAt: t2},
		{UserID: "u2", EntityType: domain.EntityTeam, EntityID: 1, Rating: 1, CreatedAt: t3},
	}
	if err := db.Create(&rows).Error; err != nil {
		t.Fatalf("seed ratings: %v", err)
	}

	count, maxAt, err := RatingsStats(context.Background(), db, "u1")
	if err != nil {
		t.Fatalf("RatingsStats error: %v", err)
	}
	if count != 2 {
		t.Fatalf("expected count 2, got %d", count)
	}
	if maxAt == nil || !maxAt.Equal(t2) {
		t.Fatalf("expected maxCreatedAt %v, got %v", t2, maxAt)
	}
}

func TestTaglinesStats_Success(t *testing.T) {
	db := newMigratedDB(t)
	seedUser(t, db, "u1", "alice")

	ts := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	row := &domain.UserTagline{UserID: "u1", EntityType: domain.EntitySport, EntityID: 1, Sentiment: domain.SentimentLove, Position: 0, CreatedAt: ts}
	if err := db.Create(row).Error; err != nil {
		t.Fatalf("seed tagline: %v", err)
	}
	count, maxAt, err := TaglinesStats(context.Background(), db, "u1")
	if err != nil || count != 1 || maxAt == nil || !maxAt.Equal(ts) {
		t.Fatalf("unexpected stats: count=%d max=%v err=%v", count, maxAt, err)
	}
}
