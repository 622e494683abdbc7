package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Friendship status values. A friendship starts out pending and moves to
// accepted or rejected exactly once; neither of those ever goes back to pending.
const (
	FriendshipPending  = "pending"
	FriendshipAccepted = "accepted"
	FriendshipRejected = "rejected"
)

// Friendship is one edge between two users. OwnerID is the user who sent the
// request, FriendID the recipient. There is at most one record per unordered
// pair of users.
type Friendship struct {
	ID         primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	OwnerID    primitive.ObjectID `bson:"owner_id" json:"owner_id"`
	FriendID   primitive.ObjectID `bson:"friend_id" json:"friend_id"`
	Status     string             `bson:"status" json:"status"`
	IsClose    bool               `bson:"is_close" json:"is_close"`
	CreatedAt  time.Time          `bson:"created_at" json:"created_at"`
	UpdatedAt  time.Time          `bson:"updated_at" json:"updated_at"`
	AcceptedAt time.Time          `bson:"accepted_at,omitempty" json:"accepted_at,omitempty"`
}

// Other returns the user on the opposite side of the edge from userID.
func (f *Friendship) Other(userID primitive.ObjectID) primitive.ObjectID {
	if f.OwnerID == userID {
		return f.FriendID
	}
	return f.OwnerID
}

// Involves reports whether userID is on either side of the edge.
func (f *Friendship) Involves(userID primitive.ObjectID) bool {
	return f.OwnerID == userID || f.FriendID == userID
}

// Friend is a friendship joined with the other user's public profile,
// as returned by the friends list.
type Friend struct {
	User       PublicUser `json:"user"`
	IsClose    bool       `json:"is_close"`
	AcceptedAt time.Time  `json:"accepted_at"`
}
