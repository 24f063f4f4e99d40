package services

import (
	"time"

	"github.com/tbourn/fandom-backend/internal/domain"
)

// PublicUser is the profile projection other users are allowed to see.
type PublicUser struct {
	ID          string `json:"id"`
	Username    string `json:"username"`
	DisplayName string `json:"displayName"`
	AvatarURL   string `json:"avatarURL"`
	Bio         string `json:"bio"`
}

func publicUser(u domain.User) PublicUser {
	return PublicUser{
		ID:          u.ID,
		Username:    u.Username,
		DisplayName: u.DisplayName,
		AvatarURL:   u.AvatarURL,
		Bio:         u.Bio,
	}
}

// ProfileView is a user's public profile as seen by a specific viewer.
type ProfileView struct {
	PublicUser
	FriendshipStatus string `json:"friendshipStatus"`
}

// UserSearchResult is one row of a user search, annotated with the viewer's
// relationship to that user.
type UserSearchResult struct {
	PublicUser
	FriendshipStatus string `json:"friendshipStatus"`
}

// FriendRequestView is a pending request together with the other party.
type FriendRequestView struct {
	ID        string     `json:"id"`
	User      PublicUser `json:"user"`
	Status    string     `json:"status"`
	CreatedAt time.Time  `json:"createdAt"`
}

// PostView is a post as returned to a viewer: the author's public profile,
// the like count and whether the viewer liked it.
type PostView struct {
	ID                   string     `json:"id"`
	Content              string     `json:"content"`
	CreatedAt            time.Time  `json:"createdAt"`
	UpdatedAt            time.Time  `json:"updatedAt"`
	Author               PublicUser `json:"author"`
	LikeCount            int64      `json:"likeCount"`
	IsLikedByCurrentUser bool       `json:"isLikedByCurrentUser"`
}

// Pagination describes the position of a feed page.
type Pagination struct {
	HasNextPage bool    `json:"hasNextPage"`
	NextCursor  *string `json:"nextCursor"`
}

// FeedPage is one page of a cursor feed.
type FeedPage struct {
	Posts      []PostView `json:"posts"`
	Pagination Pagination `json:"pagination"`
}

// RatingView is one saved rating hydrated with the entity's display name.
type RatingView struct {
	EntityType string    `json:"entityType"`
	EntityID   uint      `json:"entityId"`
	EntityName string    `json:"entityName"`
	Rating     int       `json:"rating"`
	Position   int       `json:"position"`
	CreatedAt  time.Time `json:"createdAt"`
}

// TaglineView is one tagline slot hydrated with the entity's display name.
type TaglineView struct {
	EntityType string    `json:"entityType"`
	EntityID   uint      `json:"entityId"`
	EntityName string    `json:"entityName"`
	Sentiment  string    `json:"sentiment"`
	Position   int       `json:"position"`
	CreatedAt  time.Time `json:"createdAt"`
}

// RankedEntity is one leaderboard row.
type RankedEntity struct {
	Rank        int     `json:"rank"`
	EntityType  string  `json:"entityType"`
	EntityID    uint    `json:"entityId"`
	Name        string  `json:"name"`
	SportID     uint    `json:"sportId"`
	AvgRating   float64 `json:"avgRating"`
	RatingCount int64   `json:"ratingCount"`
}

// SearchResult is one ranking search hit. AvgRating is nil for entities
// nobody has rated yet.
type SearchResult struct {
	EntityType  string   `json:"entityType"`
	EntityID    uint     `json:"entityId"`
	Name        string   `json:"name"`
	SportID     uint     `json:"sportId"`
	AvgRating   *float64 `json:"avgRating"`
	RatingCount int64    `json:"ratingCount"`
}

// GameView is a sweepstake game with both teams resolved.
type GameView struct {
	ID        uint        `json:"id"`
	HomeTeam  domain.Team `json:"homeTeam"`
	AwayTeam  domain.Team `json:"awayTeam"`
	StartTime time.Time   `json:"startTime"`
	IsFinal   bool        `json:"isFinal"`
}

// SweepstakeView is a sweepstake with its games.
type SweepstakeView struct {
	domain.Sweepstake
	Games []GameView `json:"games"`
}
