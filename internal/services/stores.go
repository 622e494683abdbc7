package services

import (
	"context"
	"time"

	"github.com/aidos-dev/meetsync/internal/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// The services own their store contracts; implementations are injected at
// construction. Lookups return (nil, nil) when no record exists so callers
// can distinguish absence from store failure.

// UserStore persists user accounts.
type UserStore interface {
	CreateUser(ctx context.Context, user *models.User) (*models.User, error)
	GetUserByID(ctx context.Context, id primitive.ObjectID) (*models.User, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	GetUsersByIDs(ctx context.Context, ids []primitive.ObjectID) ([]models.User, error)
	UpdateUser(ctx context.Context, id primitive.ObjectID, update map[string]interface{}) error
}

// FriendshipStore persists friendship edges. There is at most one record per
// unordered pair of users; GetByPair looks the edge up in both directions.
type FriendshipStore interface {
	Create(ctx context.Context, friendship *models.Friendship) (*models.Friendship, error)
	GetByPair(ctx context.Context, a, b primitive.ObjectID) (*models.Friendship, error)
	Update(ctx context.Context, friendship *models.Friendship) error
	// ListByUser returns every edge involving userID regardless of status.
	ListByUser(ctx context.Context, userID primitive.ObjectID) ([]models.Friendship, error)
	// ListAccepted returns accepted edges ordered by acceptance time.
	ListAccepted(ctx context.Context, userID primitive.ObjectID) ([]models.Friendship, error)
	// ListPendingReceived returns pending edges where userID is the recipient.
	ListPendingReceived(ctx context.Context, userID primitive.ObjectID) ([]models.Friendship, error)
}

// MeetingStore persists meetings.
type MeetingStore interface {
	Create(ctx context.Context, meeting *models.Meeting) (*models.Meeting, error)
	GetByID(ctx context.Context, id primitive.ObjectID) (*models.Meeting, error)
	Update(ctx context.Context, meeting *models.Meeting) error
	// ListOverlapping returns non-cancelled meetings of userID whose interval
	// intersects [start, end).
	ListOverlapping(ctx context.Context, userID primitive.ObjectID, start, end time.Time) ([]models.Meeting, error)
	// ListUpcoming returns non-cancelled meetings of userID starting at or
	// after now, ascending by start time.
	ListUpcoming(ctx context.Context, userID primitive.ObjectID, now time.Time) ([]models.Meeting, error)
	// ListInRange returns meetings of userID starting within [start, end),
	// ascending by start time.
	ListInRange(ctx context.Context, userID primitive.ObjectID, start, end time.Time) ([]models.Meeting, error)
}
