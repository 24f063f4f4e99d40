// Package services – SweepstakeService
//
// This file implements sweepstakes: listing and reading them (each read first
// completes any sweepstake whose end date has passed), and submitting a
// user's entry. An entry holds one pick per game; resubmitting replaces all
// of the entry's picks in one transaction, creating the entry on first use.
package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/tbourn/fandom-backend/internal/domain"
	"github.com/tbourn/fandom-backend/internal/repo"
)

// PickInput is one game pick. Scores are only kept for the final game,
// where both are required.
type PickInput struct {
	GameID       uint `json:"gameId"              validate:"required"`
	PickedTeamID uint `json:"pickedTeamId"        validate:"required"`
	HomeScore    *int `json:"homeScore,omitempty" validate:"omitempty,min=0"`
	AwayScore    *int `json:"awayScore,omitempty" validate:"omitempty,min=0"`
}

// SweepstakeService implements the sweepstake use-cases.
type SweepstakeService struct {
	DB *gorm.DB

	// Now is the clock; nil means time.Now.
	Now func() time.Time
}

func (s *SweepstakeService) now() time.Time {
	if s.Now != nil {
		return s.Now().UTC()
	}
	return time.Now().UTC()
}

// sweep completes every active sweepstake whose end date has passed.
func (s *SweepstakeService) sweep(ctx context.Context) error {
	_, err := repo.CompleteExpiredSweepstakes(ctx, s.DB, s.now())
	return err
}

// ListSweepstakes returns all sweepstakes, active ones first.
func (s *SweepstakeService) ListSweepstakes(ctx context.Context) ([]domain.Sweepstake, error) {
	if err := s.sweep(ctx); err != nil {
		return nil, err
	}
	return repo.ListSweepstakes(ctx, s.DB)
}

// GetSweepstake returns one sweepstake with its games and their teams.
func (s *SweepstakeService) GetSweepstake(ctx context.Context, id string) (*SweepstakeView, error) {
	if err := s.sweep(ctx); err != nil {
		return nil, err
	}
	sw, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}

	ids := make([]uint, 0, 2*len(sw.Games))
	for _, g := range sw.Games {
		ids = append(ids, g.HomeTeamID, g.AwayTeamID)
	}
	teams, err := repo.GetTeamsByIDs(ctx, s.DB, ids)
	if err != nil {
		return nil, err
	}
	games := make([]GameView, 0, len(sw.Games))
	for _, g := range sw.Games {
		games = append(games, GameView{
			ID:        g.ID,
			HomeTeam:  teams[g.HomeTeamID],
			AwayTeam:  teams[g.AwayTeamID],
			StartTime: g.StartTime,
			IsFinal:   g.IsFinal,
		})
	}
	return &SweepstakeView{Sweepstake: *sw, Games: games}, nil
}

func (s *SweepstakeService) load(ctx context.Context, id string) (*domain.Sweepstake, error) {
	sw, err := repo.GetSweepstake(ctx, s.DB, id)
	if errors.Is(err, repo.ErrNotFound) {
		return nil, ErrSweepstakeNotFound
	}
	return sw, err
}

// SubmitEntry validates picks against the sweepstake and replaces userID's
// picks with them.
//
// Errors:
//   - ErrSweepstakeNotFound if the sweepstake does not exist.
//   - ErrSweepstakeClosed if it is completed or past its end date.
//   - ErrInvalidPicks if picks do not cover every game exactly once, pick a
//     team not playing in the game, or omit the final game's scores.
func (s *SweepstakeService) SubmitEntry(ctx context.Context, sweepstakeID, userID string, picks []PickInput) (*domain.SweepstakeEntry, error) {
	if err := s.sweep(ctx); err != nil {
		return nil, err
	}
	sw, err := s.load(ctx, sweepstakeID)
	if err != nil {
		return nil, err
	}
	if sw.Status != domain.SweepstakeActive || s.now().After(sw.EndDate) {
		return nil, ErrSweepstakeClosed
	}

	games := make(map[uint]domain.Game, len(sw.Games))
	for _, g := range sw.Games {
		games[g.ID] = g
	}

	op := replaceSet[PickInput, domain.GamePick]{
		OwnerColumn: "entry_id",
		Validate: func(_ context.Context, _ *gorm.DB, items []PickInput) error {
			return validatePicks(games, items)
		},
		Owner: func(ctx context.Context, tx *gorm.DB) (any, error) {
			e, err := repo.FindOrCreateEntry(ctx, tx, sweepstakeID, userID)
			if err != nil {
				return nil, err
			}
			return e.ID, nil
		},
		ToRows: func(owner any, items []PickInput) []domain.GamePick {
			rows := make([]domain.GamePick, 0, len(items))
			for _, it := range items {
				p := domain.GamePick{
					EntryID:      owner.(string),
					GameID:       it.GameID,
					PickedTeamID: it.PickedTeamID,
				}
				if games[it.GameID].IsFinal {
					p.HomeScore, p.AwayScore = it.HomeScore, it.AwayScore
				}
				rows = append(rows, p)
			}
			return rows
		},
	}
	if err := op.Run(ctx, s.DB, picks); err != nil {
		return nil, err
	}
	return s.GetMyEntry(ctx, sweepstakeID, userID)
}

func validatePicks(games map[uint]domain.Game, picks []PickInput) error {
	if len(picks) != len(games) {
		return fmt.Errorf("%w: expected %d picks, got %d", ErrInvalidPicks, len(games), len(picks))
	}
	seen := make(map[uint]bool, len(picks))
	for i, p := range picks {
		if err := validate.Struct(p); err != nil {
			return fmt.Errorf("%w: pick %d: %v", ErrInvalidPicks, i, err)
		}
		g, ok := games[p.GameID]
		if !ok {
			return fmt.Errorf("%w: game %d is not part of this sweepstake", ErrInvalidPicks, p.GameID)
		}
		if seen[p.GameID] {
			return fmt.Errorf("%w: game %d picked twice", ErrInvalidPicks, p.GameID)
		}
		seen[p.GameID] = true
		if p.PickedTeamID != g.HomeTeamID && p.PickedTeamID != g.AwayTeamID {
			return fmt.Errorf("%w: team %d does not play in game %d", ErrInvalidPicks, p.PickedTeamID, p.GameID)
		}
		if g.IsFinal && (p.HomeScore == nil || p.AwayScore == nil) {
			return fmt.Errorf("%w: final game %d needs both scores", ErrInvalidPicks, p.GameID)
		}
	}
	return nil
}

// GetMyEntry returns userID's entry in the sweepstake with its picks.
func (s *SweepstakeService) GetMyEntry(ctx context.Context, sweepstakeID, userID string) (*domain.SweepstakeEntry, error) {
	e, err := repo.GetEntry(ctx, s.DB, sweepstakeID, userID)
	if errors.Is(err, repo.ErrNotFound) {
		return nil, ErrEntryNotFound
	}
	return e, err
}
