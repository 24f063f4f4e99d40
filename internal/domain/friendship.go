package domain

import "time"

// Stored friendship states. Rejection, cancellation and unfriending delete
// the row, so there is no terminal state.
const (
	FriendshipPending  = "PENDING"
	FriendshipAccepted = "ACCEPTED"
)

// Viewer-relative friendship states. They are derived per request and never
// stored.
const (
	StatusFriends         = "FRIENDS"
	StatusOutgoingRequest = "OUTGOING_REQUEST"
	StatusIncomingRequest = "INCOMING_REQUEST"
	StatusNotFriends      = "NOT_FRIENDS"
)

// Friendship is a directed edge from the requester to the addressee.
//
// PairKey holds the canonical unordered pair ("min:max" of the two user ids)
// under a unique index, so at most one row can exist per pair regardless of
// direction.
type Friendship struct {
	ID          string    `json:"id"           gorm:"type:char(36);primaryKey"`
	RequesterID string    `json:"requesterId"  gorm:"type:char(36);not null;index:idx_friendships_requester,priority:1"`
	AddresseeID string    `json:"addresseeId"  gorm:"type:char(36);not null;index:idx_friendships_addressee,priority:1"`
	Status      string    `json:"status"       gorm:"type:varchar(16);not null;index:idx_friendships_requester,priority:2;index:idx_friendships_addressee,priority:2;check:status IN ('PENDING','ACCEPTED')"`
	PairKey     string    `json:"-"            gorm:"type:varchar(80);not null;uniqueIndex:ux_friendships_pair"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`

	Requester User `json:"-" gorm:"foreignKey:RequesterID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
	Addressee User `json:"-" gorm:"foreignKey:AddresseeID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
}

// TableName returns the database table name for Friendship.
func (Friendship) TableName() string { return "friendships" }

// PairKey returns the canonical key for the unordered pair {a, b}.
func PairKey(a, b string) string {
	if b < a {
		a, b = b, a
	}
	return a + ":" + b
}

// OtherParty returns the id on the opposite side of the edge from userID.
func (f Friendship) OtherParty(userID string) string {
	if f.RequesterID == userID {
		return f.AddresseeID
	}
	return f.RequesterID
}
