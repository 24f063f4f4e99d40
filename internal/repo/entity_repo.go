// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides read access to the sports catalog
// (sports, teams, athletes) and the batched lookups used to validate and
// hydrate references to catalog entities.
package repo

import (
	"context"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"github.com/tbourn/fandom-backend/internal/domain"
)

// EntityRef is the minimal display projection of a catalog entity.
type EntityRef struct {
	ID      uint
	Name    string
	SportID uint
}

// modelFor maps an entity type to its catalog model.
func modelFor(entityType string) (any, error) {
	switch entityType {
	case domain.EntityAthlete:
		return &domain.Athlete{}, nil
	case domain.EntityTeam:
		return &domain.Team{}, nil
	case domain.EntitySport:
		return &domain.Sport{}, nil
	}
	return nil, fmt.Errorf("unknown entity type %q", entityType)
}

// ListSports returns every sport ordered by name.
func ListSports(ctx context.Context, db *gorm.DB) ([]domain.Sport, error) {
	var out []domain.Sport
	err := db.WithContext(ctx).Order("name ASC, id ASC").Find(&out).Error
	return out, err
}

// ListTeams returns teams ordered by name, optionally filtered by sport.
func ListTeams(ctx context.Context, db *gorm.DB, sportID *uint) ([]domain.Team, error) {
	var out []domain.Team
	q := db.WithContext(ctx)
	if sportID != nil {
		q = q.Where("sport_id = ?", *sportID)
	}
	err := q.Order("name ASC, id ASC").Find(&out).Error
	return out, err
}

// ListAthletes returns athletes ordered by name, optionally filtered by sport
// and team.
func ListAthletes(ctx context.Context, db *gorm.DB, sportID, teamID *uint) ([]domain.Athlete, error) {
	var out []domain.Athlete
	q := db.WithContext(ctx)
	if sportID != nil {
		q = q.Where("sport_id = ?", *sportID)
	}
	if teamID != nil {
		q = q.Where("team_id = ?", *teamID)
	}
	err := q.Order("name ASC, id ASC").Find(&out).Error
	return out, err
}

// CountEntities returns how many of the distinct ids exist for entityType.
func CountEntities(ctx context.Context, db *gorm.DB, entityType string, ids []uint) (int64, error) {
	model, err := modelFor(entityType)
	if err != nil {
		return 0, err
	}
	var n int64
	if len(ids) == 0 {
		return 0, nil
	}
	err = db.WithContext(ctx).Model(model).Where("id IN ?", ids).Count(&n).Error
	return n, err
}

// EntityRefs resolves display projections for ids of entityType, keyed by id.
// Sports carry their own id as SportID.
func EntityRefs(ctx context.Context, db *gorm.DB, entityType string, ids []uint) (map[uint]EntityRef, error) {
	out := make(map[uint]EntityRef, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	model, err := modelFor(entityType)
	if err != nil {
		return nil, err
	}
	cols := "id, name, sport_id"
	if entityType == domain.EntitySport {
		cols = "id, name, id AS sport_id"
	}
	var rows []EntityRef
	if err := db.WithContext(ctx).Model(model).Select(cols).Where("id IN ?", ids).Scan(&rows).Error; err != nil {
		return nil, err
	}
	for _, r := range rows {
		out[r.ID] = r
	}
	return out, nil
}

// SearchEntities returns entities of entityType whose name contains q
// (case-insensitive), optionally restricted to sportID, ordered by name.
func SearchEntities(ctx context.Context, db *gorm.DB, entityType, q string, sportID *uint, limit int) ([]EntityRef, error) {
	model, err := modelFor(entityType)
	if err != nil {
		return nil, err
	}
	pattern := "%" + EscapeLike(strings.ToLower(q)) + "%"
	tx := db.WithContext(ctx).
		Model(model).
		Select("id, name, sport_id").
		Where("LOWER(name) LIKE ? ESCAPE '\\'", pattern)
	if sportID != nil {
		tx = tx.Where("sport_id = ?", *sportID)
	}
	var out []EntityRef
	err = tx.Order("name ASC, id ASC").Limit(limit).Scan(&out).Error
	return out, err
}

// GetTeamsByIDs returns teams keyed by id.
func GetTeamsByIDs(ctx context.Context, db *gorm.DB, ids []uint) (map[uint]domain.Team, error) {
	out := make(map[uint]domain.Team, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	var rows []domain.Team
	if err := db.WithContext(ctx).Where("id IN ?", ids).Find(&rows).Error; err != nil {
		return nil, err
	}
	for _, t := range rows {
		out[t.ID] = t
	}
	return out, nil
}
