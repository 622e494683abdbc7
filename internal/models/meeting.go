package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Meeting status values. Legal transitions are pending→confirmed,
// pending→cancelled and confirmed→cancelled. Cancelled is terminal.
const (
	MeetingPending   = "pending"
	MeetingConfirmed = "confirmed"
	MeetingCancelled = "cancelled"
)

// Meeting is a scheduled meeting between an organizer and one friend.
type Meeting struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	OrganizerID primitive.ObjectID `bson:"organizer_id" json:"organizer_id"`
	FriendID    primitive.ObjectID `bson:"friend_id" json:"friend_id"`
	Title       string             `bson:"title" json:"title"`
	Description string             `bson:"description,omitempty" json:"description,omitempty"`
	Location    string             `bson:"location,omitempty" json:"location,omitempty"`
	StartTime   time.Time          `bson:"start_time" json:"start_time"`
	EndTime     time.Time          `bson:"end_time" json:"end_time"`
	Status      string             `bson:"status" json:"status"`
	CreatedAt   time.Time          `bson:"created_at" json:"created_at"`
	UpdatedAt   time.Time          `bson:"updated_at" json:"updated_at"`
	CancelledAt time.Time          `bson:"cancelled_at,omitempty" json:"cancelled_at,omitempty"`
}

// Interval returns the meeting's time span as an interval.
func (m *Meeting) Interval() TimeInterval {
	return TimeInterval{Start: m.StartTime, End: m.EndTime}
}

// Involves reports whether userID is the organizer or the invitee.
func (m *Meeting) Involves(userID primitive.ObjectID) bool {
	return m.OrganizerID == userID || m.FriendID == userID
}
