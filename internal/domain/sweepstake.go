package domain

import "time"

// Sweepstake states. ACTIVE flips to COMPLETED once EndDate has passed.
const (
	SweepstakeActive    = "ACTIVE"
	SweepstakeCompleted = "COMPLETED"
)

// Sweepstake is a prediction contest over a fixed set of games, exactly one
// of which is flagged as the final.
type Sweepstake struct {
	ID          string    `json:"id"          gorm:"type:char(36);primaryKey"`
	Title       string    `json:"title"       gorm:"type:varchar(200);not null"`
	Description string    `json:"description" gorm:"type:text;not null;default:''"`
	PrizePool   string    `json:"prizePool"   gorm:"type:varchar(200);not null;default:''"`
	StartDate   time.Time `json:"startDate"   gorm:"not null"`
	EndDate     time.Time `json:"endDate"     gorm:"not null;index:idx_sweepstakes_status_end,priority:2"`
	Status      string    `json:"status"      gorm:"type:varchar(16);not null;default:'ACTIVE';index:idx_sweepstakes_status_end,priority:1;check:status IN ('ACTIVE','COMPLETED')"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`

	Games []Game `json:"games,omitempty" gorm:"foreignKey:SweepstakeID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
}

// TableName returns the database table name for Sweepstake.
func (Sweepstake) TableName() string { return "sweepstakes" }

// Game is a single matchup inside a sweepstake.
type Game struct {
	ID           uint      `json:"id"            gorm:"primaryKey"`
	SweepstakeID string    `json:"sweepstakeId"  gorm:"type:char(36);not null;index"`
	HomeTeamID   uint      `json:"homeTeamId"    gorm:"not null"`
	AwayTeamID   uint      `json:"awayTeamId"    gorm:"not null"`
	StartTime    time.Time `json:"startTime"     gorm:"not null"`
	IsFinal      bool      `json:"isFinal"       gorm:"not null;default:false"`
}

// TableName returns the database table name for Game.
func (Game) TableName() string { return "games" }

// SweepstakeEntry is a user's participation in one sweepstake.
type SweepstakeEntry struct {
	ID           string    `json:"id"            gorm:"type:char(36);primaryKey"`
	SweepstakeID string    `json:"sweepstakeId"  gorm:"type:char(36);not null;uniqueIndex:ux_entries_sweepstake_user,priority:1"`
	UserID       string    `json:"userId"        gorm:"type:char(36);not null;uniqueIndex:ux_entries_sweepstake_user,priority:2"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`

	Picks []GamePick `json:"picks" gorm:"foreignKey:EntryID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`

	Sweepstake Sweepstake `json:"-" gorm:"foreignKey:SweepstakeID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
	User       User       `json:"-" gorm:"foreignKey:UserID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
}

// TableName returns the database table name for SweepstakeEntry.
func (SweepstakeEntry) TableName() string { return "sweepstake_entries" }

// GamePick is an entry's prediction for one game. Predicted scores are only
// required for the final game.
type GamePick struct {
	ID           uint   `json:"id"                   gorm:"primaryKey"`
	EntryID      string `json:"entryId"              gorm:"type:char(36);not null;uniqueIndex:ux_picks_entry_game,priority:1"`
	GameID       uint   `json:"gameId"               gorm:"not null;uniqueIndex:ux_picks_entry_game,priority:2"`
	PickedTeamID uint   `json:"pickedTeamId"         gorm:"not null"`
	HomeScore    *int   `json:"homeScore,omitempty"`
	AwayScore    *int   `json:"awayScore,omitempty"`

	Game Game `json:"-" gorm:"foreignKey:GameID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
}

// TableName returns the database table name for GamePick.
func (GamePick) TableName() string { return "game_picks" }
