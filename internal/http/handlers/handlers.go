package handlers

import (
	"context"

	"github.com/tbourn/fandom-backend/internal/domain"
	"github.com/tbourn/fandom-backend/internal/services"
)

//
// Service contracts (context-aware)
//

// UserService manages identities and public profiles.
type UserService interface {
	SyncUser(ctx context.Context, sub string, in services.SyncInput) (*domain.User, bool, error)
	GetMe(ctx context.Context, userID string) (*domain.User, error)
	UpdateMe(ctx context.Context, userID string, in services.ProfileUpdate) (*domain.User, error)
	GetProfile(ctx context.Context, viewerID, targetID string) (*services.ProfileView, error)
	SearchUsers(ctx context.Context, viewerID, q string, limit int) ([]services.UserSearchResult, error)
}

// FriendshipService drives the friendship state machine.
type FriendshipService interface {
	SendRequest(ctx context.Context, requesterID, addresseeID string) (*domain.Friendship, error)
	AcceptRequest(ctx context.Context, friendshipID, callerID string) (*domain.Friendship, error)
	RejectRequest(ctx context.Context, friendshipID, callerID string) error
	CancelRequest(ctx context.Context, targetUserID, callerID string) error
	RemoveFriend(ctx context.Context, friendID, callerID string) error
	StatusForUsers(ctx context.Context, viewerID string, candidateIDs []string) (map[string]string, error)
	GetFriends(ctx context.Context, userID string) ([]services.PublicUser, error)
	GetUserFriends(ctx context.Context, targetUserID string) ([]services.PublicUser, error)
	PendingRequests(ctx context.Context, userID string) ([]services.FriendRequestView, error)
	OutgoingRequests(ctx context.Context, userID string) ([]services.FriendRequestView, error)
}

// PostService serves posts, likes and the cursor feeds.
type PostService interface {
	Feed(ctx context.Context, viewerID, cursor string, pageSize int) (*services.FeedPage, error)
	UserPosts(ctx context.Context, viewerID, targetID, cursor string, pageSize int) (*services.FeedPage, error)
	CreatePost(ctx context.Context, userID, content, idemKey string) (*services.PostView, bool, error)
	UpdatePost(ctx context.Context, userID, postID, content string) (*services.PostView, error)
	DeletePost(ctx context.Context, userID, postID string) error
	LikePost(ctx context.Context, userID, postID string) (*services.PostView, error)
	UnlikePost(ctx context.Context, userID, postID string) (*services.PostView, error)
}

// RatingService owns rating sets.
type RatingService interface {
	SaveRatings(ctx context.Context, userID string, items []services.RatingInput) error
	GetUserRatings(ctx context.Context, userID string) ([]services.RatingView, error)
	RatingsVersion(ctx context.Context, userID string) (string, error)
}

// TaglineService owns the four-slot taglines.
type TaglineService interface {
	SaveTaglines(ctx context.Context, userID string, items []services.TaglineInput) error
	GetUserTaglines(ctx context.Context, userID string) ([]services.TaglineView, error)
	TaglinesVersion(ctx context.Context, userID string) (string, error)
}

// RankingService serves leaderboards and ranking search.
type RankingService interface {
	Leaderboard(ctx context.Context, entityType string, bottom bool) ([]services.RankedEntity, error)
	Search(ctx context.Context, q, category string, sportID *uint) ([]services.SearchResult, error)
}

// CatalogService lists the read-only sports catalog.
type CatalogService interface {
	ListSports(ctx context.Context) ([]domain.Sport, error)
	ListTeams(ctx context.Context, sportID *uint) ([]domain.Team, error)
	ListAthletes(ctx context.Context, sportID, teamID *uint) ([]domain.Athlete, error)
}

// SweepstakeService serves sweepstakes and entries.
type SweepstakeService interface {
	ListSweepstakes(ctx context.Context) ([]domain.Sweepstake, error)
	GetSweepstake(ctx context.Context, id string) (*services.SweepstakeView, error)
	SubmitEntry(ctx context.Context, sweepstakeID, userID string, picks []services.PickInput) (*domain.SweepstakeEntry, error)
	GetMyEntry(ctx context.Context, sweepstakeID, userID string) (*domain.SweepstakeEntry, error)
}

//
// Handler wiring
//

// Deps lists the services the handlers depend on.
type Deps struct {
	Users       UserService
	Friends     FriendshipService
	Posts       PostService
	Ratings     RatingService
	Taglines    TaglineService
	Rankings    RankingService
	Catalog     CatalogService
	Sweepstakes SweepstakeService
}

// Handlers groups every REST endpoint. It depends on abstract service
// interfaces to keep transport concerns separate from business logic.
type Handlers struct {
	users       UserService
	friends     FriendshipService
	posts       PostService
	ratings     RatingService
	taglines    TaglineService
	rankings    RankingService
	catalog     CatalogService
	sweepstakes SweepstakeService
}

// New constructs Handlers bound to d.
func New(d Deps) *Handlers {
	return &Handlers{
		users:       d.Users,
		friends:     d.Friends,
		posts:       d.Posts,
		ratings:     d.Ratings,
		taglines:    d.Taglines,
		rankings:    d.Rankings,
		catalog:     d.Catalog,
		sweepstakes: d.Sweepstakes,
	}
}
