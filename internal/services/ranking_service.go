// Package services – RankingService
//
// This file implements the leaderboards and the ranking search. Both use a
// two-phase read: ratings are aggregated per entity first, then display
// names are resolved with a second batched lookup keyed by the aggregated
// ids. Leaderboards may be served from a LeaderboardCache whose keys carry a
// version that every rating save bumps.
//
// Observability: all public methods are OpenTelemetry-instrumented.
package services

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"

	"github.com/tbourn/fandom-backend/internal/domain"
	"github.com/tbourn/fandom-backend/internal/repo"
)

// Search categories accepted by Search.
const (
	CategoryTeams    = "teams"
	CategoryAthletes = "athletes"
	CategoryAll      = "all"
)

// SearchLimitPerType caps the matches taken from each entity type.
const SearchLimitPerType = 50

// LeaderboardCache stores serialized leaderboards. Implementations must be
// safe for concurrent use. Version returns a counter that Bump increments;
// it is part of every cache key so a bump orphans all older entries.
type LeaderboardCache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, val []byte) error
	Version(ctx context.Context) (int64, error)
	Bump(ctx context.Context) error
}

// RankingService serves leaderboards and ranking search.
type RankingService struct {
	DB *gorm.DB

	// Size is the number of leaderboard rows; defaults to 5.
	Size int

	// Cache is optional. Cache failures fall back to the database.
	Cache LeaderboardCache
}

// TopTeams returns the best-rated teams.
func (s *RankingService) TopTeams(ctx context.Context) ([]RankedEntity, error) {
	return s.Leaderboard(ctx, domain.EntityTeam, false)
}

// BottomTeams returns the worst-rated teams.
func (s *RankingService) BottomTeams(ctx context.Context) ([]RankedEntity, error) {
	return s.Leaderboard(ctx, domain.EntityTeam, true)
}

// TopAthletes returns the best-rated athletes.
func (s *RankingService) TopAthletes(ctx context.Context) ([]RankedEntity, error) {
	return s.Leaderboard(ctx, domain.EntityAthlete, false)
}

// BottomAthletes returns the worst-rated athletes.
func (s *RankingService) BottomAthletes(ctx context.Context) ([]RankedEntity, error) {
	return s.Leaderboard(ctx, domain.EntityAthlete, true)
}

// Leaderboard ranks entities of entityType by average rating, best first
// (or worst first when bottom is set). Equal averages are ordered by entity
// id ascending. Averages are rounded to two decimals.
func (s *RankingService) Leaderboard(ctx context.Context, entityType string, bottom bool) ([]RankedEntity, error) {
	dir := "top"
	if bottom {
		dir = "bottom"
	}
	tr := otel.Tracer("services/RankingService")
	ctx, span := tr.Start(ctx, "Leaderboard",
		trace.WithAttributes(
			attribute.String("entity.type", entityType),
			attribute.String("direction", dir),
		),
	)
	defer span.End()

	size := s.Size
	if size <= 0 {
		size = 5
	}

	key := ""
	if s.Cache != nil {
		if v, err := s.Cache.Version(ctx); err != nil {
			log.Warn().Err(err).Msg("leaderboard cache version failed")
		} else {
			key = fmt.Sprintf("leaderboard:v%d:%s:%s:%d", v, entityType, dir, size)
			if out, ok := s.cached(ctx, key); ok {
				span.SetAttributes(attribute.Bool("cache.hit", true))
				return out, nil
			}
		}
	}

	out, err := s.rank(ctx, entityType, bottom, size)
	if err != nil {
		return nil, err
	}

	if key != "" {
		if b, err := json.Marshal(out); err == nil {
			if err := s.Cache.Set(ctx, key, b); err != nil {
				log.Warn().Err(err).Str("key", key).Msg("leaderboard cache set failed")
			}
		}
	}
	return out, nil
}

// rank fills up to size rows from the rating aggregates. Aggregates whose
// entity is gone from the catalog are skipped, and the query window doubles
// until the board is full or the aggregates run out. Ranks are assigned
// after skipping, so they stay contiguous.
func (s *RankingService) rank(ctx context.Context, entityType string, bottom bool, size int) ([]RankedEntity, error) {
	limit := size
	for {
		aggs, err := repo.RankEntities(ctx, s.DB, entityType, bottom, limit)
		if err != nil {
			return nil, err
		}
		ids := make([]uint, 0, len(aggs))
		for _, a := range aggs {
			ids = append(ids, a.EntityID)
		}
		refs, err := repo.EntityRefs(ctx, s.DB, entityType, ids)
		if err != nil {
			return nil, err
		}

		out := make([]RankedEntity, 0, size)
		for _, a := range aggs {
			ref, ok := refs[a.EntityID]
			if !ok {
				continue
			}
			out = append(out, RankedEntity{
				Rank:        len(out) + 1,
				EntityType:  entityType,
				EntityID:    a.EntityID,
				Name:        ref.Name,
				SportID:     ref.SportID,
				AvgRating:   round2(a.AvgRating),
				RatingCount: a.RatingCount,
			})
			if len(out) == size {
				return out, nil
			}
		}
		if len(aggs) < limit {
			return out, nil
		}
		log.Debug().Str("entity_type", entityType).Int("missing", len(aggs)-len(out)).Msg("leaderboard skipped entities missing from catalog")
		limit *= 2
	}
}

func (s *RankingService) cached(ctx context.Context, key string) ([]RankedEntity, bool) {
	b, ok, err := s.Cache.Get(ctx, key)
	if err != nil {
		log.Warn().Err(err).Str("key", key).Msg("leaderboard cache get failed")
		return nil, false
	}
	if !ok {
		return nil, false
	}
	var out []RankedEntity
	if err := json.Unmarshal(b, &out); err != nil {
		return nil, false
	}
	return out, true
}

// Search matches teams and/or athletes by case-insensitive name substring,
// optionally within one sport, and attaches each match's rating aggregate.
// Results are ordered by rating count descending; unrated entities come last
// with a nil average.
func (s *RankingService) Search(ctx context.Context, q, category string, sportID *uint) ([]SearchResult, error) {
	tr := otel.Tracer("services/RankingService")
	ctx, span := tr.Start(ctx, "Search",
		trace.WithAttributes(
			attribute.String("category", category),
			attribute.Int("query.len", len(q)),
		),
	)
	defer span.End()

	var types []string
	switch strings.ToLower(strings.TrimSpace(category)) {
	case "", CategoryAll:
		types = []string{domain.EntityTeam, domain.EntityAthlete}
	case CategoryTeams:
		types = []string{domain.EntityTeam}
	case CategoryAthletes:
		types = []string{domain.EntityAthlete}
	default:
		return nil, ErrInvalidCategory
	}
	q = strings.TrimSpace(q)

	out := []SearchResult{}
	for _, typ := range types {
		matches, err := repo.SearchEntities(ctx, s.DB, typ, q, sportID, SearchLimitPerType)
		if err != nil {
			return nil, err
		}
		ids := make([]uint, 0, len(matches))
		for _, m := range matches {
			ids = append(ids, m.ID)
		}
		aggs, err := repo.AggregatesFor(ctx, s.DB, typ, ids)
		if err != nil {
			return nil, err
		}
		for _, m := range matches {
			r := SearchResult{EntityType: typ, EntityID: m.ID, Name: m.Name, SportID: m.SportID}
			if a, ok := aggs[m.ID]; ok && a.RatingCount > 0 {
				avg := round2(a.AvgRating)
				r.AvgRating = &avg
				r.RatingCount = a.RatingCount
			}
			out = append(out, r)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].RatingCount > out[j].RatingCount })
	span.SetAttributes(attribute.Int("results", len(out)))
	return out, nil
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
