package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/aidos-dev/meetsync/internal/models"
	"github.com/aidos-dev/meetsync/internal/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// failingFriendshipStore errors on every call.
type failingFriendshipStore struct{}

func (failingFriendshipStore) Create(context.Context, *models.Friendship) (*models.Friendship, error) {
	return nil, errors.New("store down")
}
func (failingFriendshipStore) GetByPair(context.Context, primitive.ObjectID, primitive.ObjectID) (*models.Friendship, error) {
	return nil, errors.New("store down")
}
func (failingFriendshipStore) Update(context.Context, *models.Friendship) error {
	return errors.New("store down")
}
func (failingFriendshipStore) ListByUser(context.Context, primitive.ObjectID) ([]models.Friendship, error) {
	return nil, errors.New("store down")
}
func (failingFriendshipStore) ListAccepted(context.Context, primitive.ObjectID) ([]models.Friendship, error) {
	return nil, errors.New("store down")
}
func (failingFriendshipStore) ListPendingReceived(context.Context, primitive.ObjectID) ([]models.Friendship, error) {
	return nil, errors.New("store down")
}

func TestStatsCountsEverything(t *testing.T) {
	friendships := repository.NewMemoryFriendshipStore()
	meetings := repository.NewMemoryMeetingStore()
	ctx := context.Background()

	user := primitive.NewObjectID()
	closeFriend := primitive.NewObjectID()
	plainFriend := primitive.NewObjectID()
	requester := primitive.NewObjectID()

	_, err := friendships.Create(ctx, &models.Friendship{
		OwnerID: user, FriendID: closeFriend,
		Status: models.FriendshipAccepted, IsClose: true,
	})
	require.NoError(t, err)
	_, err = friendships.Create(ctx, &models.Friendship{
		OwnerID: plainFriend, FriendID: user,
		Status: models.FriendshipAccepted,
	})
	require.NoError(t, err)
	// Incoming pending request counts; an outgoing one does not.
	_, err = friendships.Create(ctx, &models.Friendship{
		OwnerID: requester, FriendID: user,
		Status: models.FriendshipPending,
	})
	require.NoError(t, err)
	_, err = friendships.Create(ctx, &models.Friendship{
		OwnerID: user, FriendID: primitive.NewObjectID(),
		Status: models.FriendshipPending,
	})
	require.NoError(t, err)
	// Rejected edges count nowhere.
	_, err = friendships.Create(ctx, &models.Friendship{
		OwnerID: user, FriendID: primitive.NewObjectID(),
		Status: models.FriendshipRejected,
	})
	require.NoError(t, err)

	svc := NewDashboardService(friendships, meetings)
	now := day(8, 0)
	svc.now = func() time.Time { return now }

	addMeeting(t, meetings, user, closeFriend, day(10, 0), day(11, 0), models.MeetingConfirmed)
	addMeeting(t, meetings, plainFriend, user, day(12, 0), day(13, 0), models.MeetingPending)
	addMeeting(t, meetings, user, closeFriend, day(14, 0), day(15, 0), models.MeetingCancelled)

	stats := svc.Stats(ctx, user)

	assert.Equal(t, 2, stats.TotalFriends)
	assert.Equal(t, 1, stats.CloseFriends)
	assert.Equal(t, 1, stats.PendingRequests)
	assert.Equal(t, 2, stats.UpcomingMeetings)
}

func TestStatsAfterRequestAccepted(t *testing.T) {
	f := newFriendshipFixture(t, true)
	ctx := context.Background()

	_, err := f.svc.SendRequest(ctx, f.alice.ID, "bob@example.com")
	require.NoError(t, err)
	require.NoError(t, f.svc.Accept(ctx, f.bob.ID, f.alice.ID))

	dashboard := NewDashboardService(f.friendships, repository.NewMemoryMeetingStore())
	stats := dashboard.Stats(ctx, f.alice.ID)

	assert.Equal(t, 1, stats.TotalFriends)
	assert.Equal(t, 0, stats.PendingRequests)
}

// A failing metric source degrades to zero without taking down the rest of
// the aggregate.
func TestStatsDegradePerMetric(t *testing.T) {
	meetings := repository.NewMemoryMeetingStore()
	user := primitive.NewObjectID()

	svc := NewDashboardService(failingFriendshipStore{}, meetings)
	now := day(8, 0)
	svc.now = func() time.Time { return now }

	addMeeting(t, meetings, user, primitive.NewObjectID(), day(10, 0), day(11, 0), models.MeetingConfirmed)

	stats := svc.Stats(context.Background(), user)

	assert.Equal(t, 0, stats.TotalFriends)
	assert.Equal(t, 0, stats.CloseFriends)
	assert.Equal(t, 0, stats.PendingRequests)
	assert.Equal(t, 1, stats.UpcomingMeetings, "meeting count survives the friendship store failure")
}

// A broken calendar feed must not leak into dashboard numbers or internal
// busy intervals.
func TestStatsUnaffectedByCalendarOutage(t *testing.T) {
	friendships := repository.NewMemoryFriendshipStore()
	meetings := repository.NewMemoryMeetingStore()
	ctx := context.Background()

	organizer := primitive.NewObjectID()
	friend := primitive.NewObjectID()

	_, err := friendships.Create(ctx, &models.Friendship{
		OwnerID: organizer, FriendID: friend, Status: models.FriendshipAccepted,
	})
	require.NoError(t, err)
	addMeeting(t, meetings, organizer, friend, day(10, 0), day(11, 0), models.MeetingConfirmed)

	broken := &stubProvider{err: errors.New("feed down")}
	availability := NewAvailabilityService(meetings, broken, time.Second)

	busy, err := availability.BusyIntervals(ctx, organizer, day(8, 0), day(18, 0))
	require.NoError(t, err)
	require.Len(t, busy, 1)
	assert.Equal(t, day(10, 0), busy[0].Start)

	dashboard := NewDashboardService(friendships, meetings)
	now := day(8, 0)
	dashboard.now = func() time.Time { return now }

	stats := dashboard.Stats(ctx, organizer)
	assert.Equal(t, 1, stats.TotalFriends)
	assert.Equal(t, 1, stats.UpcomingMeetings)
}
