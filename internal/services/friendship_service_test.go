package services

import (
	"context"
	"testing"
	"time"

	"github.com/aidos-dev/meetsync/internal/models"
	"github.com/aidos-dev/meetsync/internal/repository"
	"github.com/aidos-dev/meetsync/pkg/apperrors"
	"github.com/aidos-dev/meetsync/pkg/keylock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type friendshipFixture struct {
	svc         *FriendshipService
	friendships *repository.MemoryFriendshipStore
	users       *repository.MemoryUserStore
	alice       *models.User
	bob         *models.User
}

func newFriendshipFixture(t *testing.T, allowReRequest bool) *friendshipFixture {
	t.Helper()

	users := repository.NewMemoryUserStore()
	friendships := repository.NewMemoryFriendshipStore()
	ctx := context.Background()

	alice, err := users.CreateUser(ctx, &models.User{Name: "Alice", Email: "alice@example.com"})
	require.NoError(t, err)
	bob, err := users.CreateUser(ctx, &models.User{Name: "Bob", Email: "bob@example.com"})
	require.NoError(t, err)

	return &friendshipFixture{
		svc:         NewFriendshipService(friendships, users, keylock.New(), allowReRequest),
		friendships: friendships,
		users:       users,
		alice:       alice,
		bob:         bob,
	}
}

func TestSendRequestCreatesPending(t *testing.T) {
	f := newFriendshipFixture(t, true)

	friendship, err := f.svc.SendRequest(context.Background(), f.alice.ID, "bob@example.com")
	require.NoError(t, err)

	assert.Equal(t, models.FriendshipPending, friendship.Status)
	assert.Equal(t, f.alice.ID, friendship.OwnerID)
	assert.Equal(t, f.bob.ID, friendship.FriendID)
	assert.False(t, friendship.IsClose)
}

func TestSendRequestToUnknownEmail(t *testing.T) {
	f := newFriendshipFixture(t, true)

	_, err := f.svc.SendRequest(context.Background(), f.alice.ID, "nobody@example.com")
	assert.True(t, apperrors.IsKind(err, apperrors.KindNotFound))
}

func TestSendRequestToSelf(t *testing.T) {
	f := newFriendshipFixture(t, true)

	_, err := f.svc.SendRequest(context.Background(), f.alice.ID, "alice@example.com")
	assert.True(t, apperrors.IsKind(err, apperrors.KindInvalidArgument))
}

func TestSendRequestTwiceConflicts(t *testing.T) {
	f := newFriendshipFixture(t, true)
	ctx := context.Background()

	_, err := f.svc.SendRequest(ctx, f.alice.ID, "bob@example.com")
	require.NoError(t, err)

	_, err = f.svc.SendRequest(ctx, f.alice.ID, "bob@example.com")
	assert.True(t, apperrors.IsKind(err, apperrors.KindConflict))

	// Same pair from the other direction conflicts too.
	_, err = f.svc.SendRequest(ctx, f.bob.ID, "alice@example.com")
	assert.True(t, apperrors.IsKind(err, apperrors.KindConflict))
}

func TestAcceptByRecipient(t *testing.T) {
	f := newFriendshipFixture(t, true)
	ctx := context.Background()

	_, err := f.svc.SendRequest(ctx, f.alice.ID, "bob@example.com")
	require.NoError(t, err)

	require.NoError(t, f.svc.Accept(ctx, f.bob.ID, f.alice.ID))

	rel, err := f.friendships.GetByPair(ctx, f.alice.ID, f.bob.ID)
	require.NoError(t, err)
	require.NotNil(t, rel)
	assert.Equal(t, models.FriendshipAccepted, rel.Status)
	assert.False(t, rel.AcceptedAt.IsZero())
}

func TestAcceptBySenderNotFound(t *testing.T) {
	f := newFriendshipFixture(t, true)
	ctx := context.Background()

	_, err := f.svc.SendRequest(ctx, f.alice.ID, "bob@example.com")
	require.NoError(t, err)

	// The sender cannot accept their own request.
	err = f.svc.Accept(ctx, f.alice.ID, f.bob.ID)
	assert.True(t, apperrors.IsKind(err, apperrors.KindNotFound))
}

func TestAcceptTwiceIsInvalidState(t *testing.T) {
	f := newFriendshipFixture(t, true)
	ctx := context.Background()

	_, err := f.svc.SendRequest(ctx, f.alice.ID, "bob@example.com")
	require.NoError(t, err)
	require.NoError(t, f.svc.Accept(ctx, f.bob.ID, f.alice.ID))

	err = f.svc.Accept(ctx, f.bob.ID, f.alice.ID)
	assert.True(t, apperrors.IsKind(err, apperrors.KindInvalidState))

	err = f.svc.Reject(ctx, f.bob.ID, f.alice.ID)
	assert.True(t, apperrors.IsKind(err, apperrors.KindInvalidState))
}

func TestAcceptWithoutRequestNotFound(t *testing.T) {
	f := newFriendshipFixture(t, true)

	err := f.svc.Accept(context.Background(), f.bob.ID, f.alice.ID)
	assert.True(t, apperrors.IsKind(err, apperrors.KindNotFound))
}

func TestRejectIsRetainedAndReRequestPolicy(t *testing.T) {
	f := newFriendshipFixture(t, true)
	ctx := context.Background()

	_, err := f.svc.SendRequest(ctx, f.alice.ID, "bob@example.com")
	require.NoError(t, err)
	require.NoError(t, f.svc.Reject(ctx, f.bob.ID, f.alice.ID))

	rel, err := f.friendships.GetByPair(ctx, f.alice.ID, f.bob.ID)
	require.NoError(t, err)
	require.NotNil(t, rel, "rejected relationships are kept")
	assert.Equal(t, models.FriendshipRejected, rel.Status)

	// With re-requests allowed, the rejected edge re-opens as pending from
	// the new sender.
	reopened, err := f.svc.SendRequest(ctx, f.bob.ID, "alice@example.com")
	require.NoError(t, err)
	assert.Equal(t, models.FriendshipPending, reopened.Status)
	assert.Equal(t, f.bob.ID, reopened.OwnerID)
	assert.Equal(t, rel.ID, reopened.ID, "the original record is reused, not replaced")
}

func TestReRequestBlockedByPolicy(t *testing.T) {
	f := newFriendshipFixture(t, false)
	ctx := context.Background()

	_, err := f.svc.SendRequest(ctx, f.alice.ID, "bob@example.com")
	require.NoError(t, err)
	require.NoError(t, f.svc.Reject(ctx, f.bob.ID, f.alice.ID))

	_, err = f.svc.SendRequest(ctx, f.alice.ID, "bob@example.com")
	assert.True(t, apperrors.IsKind(err, apperrors.KindConflict))
}

func TestToggleCloseRequiresAccepted(t *testing.T) {
	f := newFriendshipFixture(t, true)
	ctx := context.Background()

	_, err := f.svc.SendRequest(ctx, f.alice.ID, "bob@example.com")
	require.NoError(t, err)

	_, err = f.svc.ToggleClose(ctx, f.alice.ID, f.bob.ID)
	assert.True(t, apperrors.IsKind(err, apperrors.KindInvalidState))

	require.NoError(t, f.svc.Accept(ctx, f.bob.ID, f.alice.ID))

	rel, err := f.svc.ToggleClose(ctx, f.alice.ID, f.bob.ID)
	require.NoError(t, err)
	assert.True(t, rel.IsClose)

	rel, err = f.svc.ToggleClose(ctx, f.alice.ID, f.bob.ID)
	require.NoError(t, err)
	assert.False(t, rel.IsClose)
}

func TestListOrderedByAcceptance(t *testing.T) {
	f := newFriendshipFixture(t, true)
	ctx := context.Background()

	carol, err := f.users.CreateUser(ctx, &models.User{Name: "Carol", Email: "carol@example.com"})
	require.NoError(t, err)

	// Carol's friendship is accepted first, Bob's second.
	_, err = f.svc.SendRequest(ctx, f.alice.ID, "carol@example.com")
	require.NoError(t, err)
	require.NoError(t, f.svc.Accept(ctx, carol.ID, f.alice.ID))

	time.Sleep(5 * time.Millisecond)

	_, err = f.svc.SendRequest(ctx, f.alice.ID, "bob@example.com")
	require.NoError(t, err)
	require.NoError(t, f.svc.Accept(ctx, f.bob.ID, f.alice.ID))

	friends, err := f.svc.List(ctx, f.alice.ID)
	require.NoError(t, err)

	require.Len(t, friends, 2)
	assert.Equal(t, "Carol", friends[0].User.Name)
	assert.Equal(t, "Bob", friends[1].User.Name)
	assert.True(t, !friends[1].AcceptedAt.Before(friends[0].AcceptedAt))
}

func TestPendingRequestsOnlyForRecipient(t *testing.T) {
	f := newFriendshipFixture(t, true)
	ctx := context.Background()

	_, err := f.svc.SendRequest(ctx, f.alice.ID, "bob@example.com")
	require.NoError(t, err)

	requests, err := f.svc.PendingRequests(ctx, f.bob.ID)
	require.NoError(t, err)
	require.Len(t, requests, 1)
	assert.Equal(t, f.alice.ID, requests[0].OwnerID)

	requests, err = f.svc.PendingRequests(ctx, f.alice.ID)
	require.NoError(t, err)
	assert.Empty(t, requests)
}

func TestPairKeyIsDirectionIndependent(t *testing.T) {
	a := primitive.NewObjectID()
	b := primitive.NewObjectID()
	assert.Equal(t, pairKey(a, b), pairKey(b, a))
	assert.NotEqual(t, pairKey(a, b), pairKey(a, primitive.NewObjectID()))
}
