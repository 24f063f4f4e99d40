// Package services – CatalogService
//
// This file exposes the read-only sports catalog (sports, teams, athletes)
// and the existence check the replace-set writers use to reject references to
// unknown entities.
package services

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/tbourn/fandom-backend/internal/domain"
	"github.com/tbourn/fandom-backend/internal/repo"
)

// CatalogService serves the sports catalog.
type CatalogService struct {
	DB *gorm.DB
}

// ListSports returns every sport ordered by name.
func (s *CatalogService) ListSports(ctx context.Context) ([]domain.Sport, error) {
	return repo.ListSports(ctx, s.DB)
}

// ListTeams returns teams, optionally restricted to one sport.
func (s *CatalogService) ListTeams(ctx context.Context, sportID *uint) ([]domain.Team, error) {
	return repo.ListTeams(ctx, s.DB, sportID)
}

// ListAthletes returns athletes, optionally restricted by sport and team.
func (s *CatalogService) ListAthletes(ctx context.Context, sportID, teamID *uint) ([]domain.Athlete, error) {
	return repo.ListAthletes(ctx, s.DB, sportID, teamID)
}

// EntityKey identifies one catalog entity.
type EntityKey struct {
	Type string
	ID   uint
}

// entitiesExist reports ErrEntityNotFound unless every ref is present in the
// catalog. It runs one COUNT query per entity type.
func entitiesExist(ctx context.Context, db *gorm.DB, refs []EntityKey) error {
	byType := make(map[string]map[uint]struct{})
	for _, r := range refs {
		if byType[r.Type] == nil {
			byType[r.Type] = make(map[uint]struct{})
		}
		byType[r.Type][r.ID] = struct{}{}
	}
	for typ, set := range byType {
		ids := make([]uint, 0, len(set))
		for id := range set {
			ids = append(ids, id)
		}
		n, err := repo.CountEntities(ctx, db, typ, ids)
		if err != nil {
			return err
		}
		if n != int64(len(ids)) {
			return fmt.Errorf("%w: %d of %d %s references unknown", ErrEntityNotFound, int64(len(ids))-n, len(ids), typ)
		}
	}
	return nil
}

// entityNames resolves display names for refs, keyed by type then id.
func entityNames(ctx context.Context, db *gorm.DB, refs []EntityKey) (map[string]map[uint]repo.EntityRef, error) {
	ids := make(map[string][]uint)
	for _, r := range refs {
		ids[r.Type] = append(ids[r.Type], r.ID)
	}
	out := make(map[string]map[uint]repo.EntityRef, len(ids))
	for typ, list := range ids {
		m, err := repo.EntityRefs(ctx, db, typ, list)
		if err != nil {
			return nil, err
		}
		out[typ] = m
	}
	return out, nil
}
