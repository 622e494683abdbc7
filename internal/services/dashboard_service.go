package services

import (
	"context"
	"time"

	"github.com/aidos-dev/meetsync/internal/models"
	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// DashboardService composes read-only summary counts from the stores. It
// never fails for data reasons: a metric whose source errors is reported as
// zero and the rest of the aggregate stands.
type DashboardService struct {
	friendships FriendshipStore
	meetings    MeetingStore

	now func() time.Time
}

// NewDashboardService creates a new DashboardService.
func NewDashboardService(friendships FriendshipStore, meetings MeetingStore) *DashboardService {
	return &DashboardService{
		friendships: friendships,
		meetings:    meetings,
		now:         time.Now,
	}
}

// Stats returns the dashboard counts for userID.
func (s *DashboardService) Stats(ctx context.Context, userID primitive.ObjectID) models.DashboardStats {
	var stats models.DashboardStats

	rels, err := s.friendships.ListByUser(ctx, userID)
	if err != nil {
		logrus.WithError(err).WithField("user_id", userID.Hex()).Warn("Friendship counts unavailable, reporting zero")
	} else {
		for _, rel := range rels {
			switch {
			case rel.Status == models.FriendshipAccepted:
				stats.TotalFriends++
				if rel.IsClose {
					stats.CloseFriends++
				}
			case rel.Status == models.FriendshipPending && rel.FriendID == userID:
				stats.PendingRequests++
			}
		}
	}

	upcoming, err := s.meetings.ListUpcoming(ctx, userID, s.now().UTC())
	if err != nil {
		logrus.WithError(err).WithField("user_id", userID.Hex()).Warn("Meeting count unavailable, reporting zero")
	} else {
		stats.UpcomingMeetings = len(upcoming)
	}

	return stats
}
