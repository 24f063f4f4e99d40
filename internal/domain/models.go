// Package domain defines the persistence models for users, the sports
// catalog, ratings, taglines, posts and likes. These types are mapped with
// GORM and form the core data layer of the fandom backend.
package domain

import "time"

// Entity types that can be rated or named in a tagline.
const (
	EntityAthlete = "ATHLETE"
	EntityTeam    = "TEAM"
	EntitySport   = "SPORT"
)

// Tagline sentiments.
const (
	SentimentLove    = "LOVE"
	SentimentLike    = "LIKE"
	SentimentDislike = "DISLIKE"
	SentimentHate    = "HATE"
)

// User is the internal identity bound 1:1 to an external token subject.
//
// Fields:
//   - ID: stable UUID primary key (char(36)).
//   - Sub: subject claim of the verified bearer token; unique and immutable.
//   - Username: unique public handle.
//   - DisplayName / AvatarURL / Bio: editable public profile fields.
//   - CreatedAt / UpdatedAt: timestamps managed by GORM.
type User struct {
	ID          string    `json:"id"           gorm:"type:char(36);primaryKey"`
	Sub         string    `json:"-"            gorm:"type:varchar(255);not null;uniqueIndex:ux_users_sub"`
	Username    string    `json:"username"     gorm:"type:varchar(30);not null;uniqueIndex:ux_users_username"`
	DisplayName string    `json:"displayName"  gorm:"type:varchar(80);not null;default:''"`
	AvatarURL   string    `json:"avatarURL"    gorm:"type:varchar(512);not null;default:''"`
	Bio         string    `json:"bio"          gorm:"type:varchar(280);not null;default:''"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// TableName returns the database table name for User.
func (User) TableName() string { return "users" }

// Sport is a catalog entry (e.g. "Basketball"). Catalog rows use integer ids
// and are seeded outside the application.
type Sport struct {
	ID   uint   `json:"id"   gorm:"primaryKey"`
	Name string `json:"name" gorm:"type:varchar(120);not null;uniqueIndex"`
}

// TableName returns the database table name for Sport.
func (Sport) TableName() string { return "sports" }

// Team belongs to a Sport.
type Team struct {
	ID      uint   `json:"id"       gorm:"primaryKey"`
	Name    string `json:"name"     gorm:"type:varchar(120);not null;index"`
	SportID uint   `json:"sportId"  gorm:"not null;index"`
	City    string `json:"city"     gorm:"type:varchar(120);not null;default:''"`
	LogoURL string `json:"logoURL"  gorm:"type:varchar(512);not null;default:''"`

	Sport Sport `json:"-" gorm:"foreignKey:SportID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
}

// TableName returns the database table name for Team.
func (Team) TableName() string { return "teams" }

// Athlete belongs to a Sport and optionally to a Team.
type Athlete struct {
	ID       uint   `json:"id"                gorm:"primaryKey"`
	Name     string `json:"name"              gorm:"type:varchar(120);not null;index"`
	SportID  uint   `json:"sportId"           gorm:"not null;index"`
	TeamID   *uint  `json:"teamId,omitempty"  gorm:"index"`
	Position string `json:"position"          gorm:"type:varchar(60);not null;default:''"`

	Sport Sport `json:"-" gorm:"foreignKey:SportID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
	Team  *Team `json:"-" gorm:"foreignKey:TeamID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:SET NULL"`
}

// TableName returns the database table name for Athlete.
func (Athlete) TableName() string { return "athletes" }

// UserRating is one entry of a user's rating set. The whole set is replaced
// on every save; Position preserves the display order.
type UserRating struct {
	ID         uint      `json:"id"          gorm:"primaryKey"`
	UserID     string    `json:"userId"      gorm:"type:char(36);not null;index:idx_ratings_user;index:idx_ratings_entity,priority:3"`
	EntityType string    `json:"entityType"  gorm:"type:varchar(16);not null;index:idx_ratings_entity,priority:1;check:entity_type IN ('ATHLETE','TEAM','SPORT')"`
	EntityID   uint      `json:"entityId"    gorm:"not null;index:idx_ratings_entity,priority:2"`
	Rating     int       `json:"rating"      gorm:"not null;check:rating BETWEEN -5 AND 5"`
	Position   int       `json:"position"    gorm:"not null;default:0"`
	CreatedAt  time.Time `json:"createdAt"`

	User User `json:"-" gorm:"foreignKey:UserID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
}

// TableName returns the database table name for UserRating.
func (UserRating) TableName() string { return "user_ratings" }

// UserTagline is one of the four fixed slots of a user's tagline.
type UserTagline struct {
	ID         uint      `json:"id"          gorm:"primaryKey"`
	UserID     string    `json:"userId"      gorm:"type:char(36);not null;uniqueIndex:ux_taglines_user_position,priority:1"`
	EntityType string    `json:"entityType"  gorm:"type:varchar(16);not null;check:entity_type IN ('ATHLETE','TEAM','SPORT')"`
	EntityID   uint      `json:"entityId"    gorm:"not null"`
	Sentiment  string    `json:"sentiment"   gorm:"type:varchar(16);not null;check:sentiment IN ('LOVE','LIKE','DISLIKE','HATE')"`
	Position   int       `json:"position"    gorm:"not null;uniqueIndex:ux_taglines_user_position,priority:2;check:position BETWEEN 0 AND 3"`
	CreatedAt  time.Time `json:"createdAt"`

	User User `json:"-" gorm:"foreignKey:UserID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
}

// TableName returns the database table name for UserTagline.
func (UserTagline) TableName() string { return "user_taglines" }

// Post is a short status update. The (created_at, id) index backs the
// cursor feeds.
type Post struct {
	ID        string    `json:"id"         gorm:"type:char(36);primaryKey"`
	UserID    string    `json:"userId"     gorm:"type:char(36);not null;index:idx_posts_user_created,priority:1"`
	Content   string    `json:"content"    gorm:"type:varchar(1200);not null"`
	CreatedAt time.Time `json:"createdAt"  gorm:"index:idx_posts_user_created,priority:2;index:idx_posts_created"`
	UpdatedAt time.Time `json:"updatedAt"`

	User User `json:"-" gorm:"foreignKey:UserID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
}

// TableName returns the database table name for Post.
func (Post) TableName() string { return "posts" }

// PostLike marks that a user liked a post. Likes are unique per
// (post, user) and cascade-deleted with the post.
type PostLike struct {
	ID        uint      `json:"id"         gorm:"primaryKey"`
	PostID    string    `json:"postId"     gorm:"type:char(36);not null;uniqueIndex:ux_post_likes_post_user,priority:1"`
	UserID    string    `json:"userId"     gorm:"type:char(36);not null;uniqueIndex:ux_post_likes_post_user,priority:2;index"`
	CreatedAt time.Time `json:"createdAt"`

	Post Post `json:"-" gorm:"foreignKey:PostID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
	User User `json:"-" gorm:"foreignKey:UserID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
}

// TableName returns the database table name for PostLike.
func (PostLike) TableName() string { return "post_likes" }
