package services

import (
	"context"
	"strings"
	"time"

	"github.com/aidos-dev/meetsync/internal/models"
	"github.com/aidos-dev/meetsync/pkg/apperrors"
	"github.com/aidos-dev/meetsync/pkg/keylock"
	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// FriendshipService enforces the friend-request state machine:
// pending → accepted or rejected, with the close-friend flag only mutable on
// accepted edges. All writes for one pair of users are serialized on the
// pair key.
type FriendshipService struct {
	friendships FriendshipStore
	users       UserStore
	locks       *keylock.KeyLock

	// allowReRequest permits a fresh request over a previously rejected edge.
	allowReRequest bool
}

// NewFriendshipService creates a new FriendshipService.
func NewFriendshipService(friendships FriendshipStore, users UserStore, locks *keylock.KeyLock, allowReRequest bool) *FriendshipService {
	return &FriendshipService{
		friendships:    friendships,
		users:          users,
		locks:          locks,
		allowReRequest: allowReRequest,
	}
}

// pairKey builds a direction-independent lock key for two users.
func pairKey(a, b primitive.ObjectID) string {
	x, y := a.Hex(), b.Hex()
	if x > y {
		x, y = y, x
	}
	return x + ":" + y
}

// SendRequest creates a pending friendship from ownerID to the user owning
// friendEmail.
func (s *FriendshipService) SendRequest(ctx context.Context, ownerID primitive.ObjectID, friendEmail string) (*models.Friendship, error) {
	friend, err := s.users.GetUserByEmail(ctx, strings.ToLower(strings.TrimSpace(friendEmail)))
	if err != nil {
		return nil, apperrors.Unavailable(err, "failed to look up user")
	}
	if friend == nil {
		return nil, apperrors.NotFound("no user with email %s", friendEmail)
	}
	if friend.ID == ownerID {
		return nil, apperrors.InvalidArgument("cannot send a friend request to yourself")
	}

	key := pairKey(ownerID, friend.ID)
	s.locks.Lock(key)
	defer s.locks.Unlock(key)

	existing, err := s.friendships.GetByPair(ctx, ownerID, friend.ID)
	if err != nil {
		return nil, apperrors.Unavailable(err, "failed to look up friendship")
	}

	if existing != nil {
		switch existing.Status {
		case models.FriendshipRejected:
			if !s.allowReRequest {
				return nil, apperrors.Conflict(nil, "a previous request between these users was rejected")
			}
			// Re-open the rejected edge with the new direction. The record
			// itself is retained, never replaced.
			existing.OwnerID = ownerID
			existing.FriendID = friend.ID
			existing.Status = models.FriendshipPending
			existing.IsClose = false
			existing.UpdatedAt = time.Now().UTC()
			if err := s.friendships.Update(ctx, existing); err != nil {
				return nil, apperrors.Unavailable(err, "failed to save friend request")
			}
			logrus.WithFields(logrus.Fields{
				"owner_id":  ownerID.Hex(),
				"friend_id": friend.ID.Hex(),
			}).Info("Re-opened rejected friendship as pending")
			return existing, nil
		default:
			return nil, apperrors.Conflict(nil, "a %s friendship already exists between these users", existing.Status)
		}
	}

	now := time.Now().UTC()
	friendship := &models.Friendship{
		OwnerID:   ownerID,
		FriendID:  friend.ID,
		Status:    models.FriendshipPending,
		CreatedAt: now,
		UpdatedAt: now,
	}

	created, err := s.friendships.Create(ctx, friendship)
	if err != nil {
		return nil, apperrors.Unavailable(err, "failed to save friend request")
	}

	logrus.WithFields(logrus.Fields{
		"owner_id":  ownerID.Hex(),
		"friend_id": friend.ID.Hex(),
	}).Info("Friend request sent")
	return created, nil
}

// Accept transitions a pending request addressed to userID into accepted.
func (s *FriendshipService) Accept(ctx context.Context, userID, friendID primitive.ObjectID) error {
	return s.respond(ctx, userID, friendID, models.FriendshipAccepted)
}

// Reject transitions a pending request addressed to userID into rejected.
func (s *FriendshipService) Reject(ctx context.Context, userID, friendID primitive.ObjectID) error {
	return s.respond(ctx, userID, friendID, models.FriendshipRejected)
}

func (s *FriendshipService) respond(ctx context.Context, userID, friendID primitive.ObjectID, status string) error {
	key := pairKey(userID, friendID)
	s.locks.Lock(key)
	defer s.locks.Unlock(key)

	rel, err := s.friendships.GetByPair(ctx, userID, friendID)
	if err != nil {
		return apperrors.Unavailable(err, "failed to look up friendship")
	}
	if rel == nil {
		return apperrors.NotFound("no friend request between these users")
	}
	if rel.Status != models.FriendshipPending {
		return apperrors.InvalidState("request already %s", rel.Status)
	}
	// Only the recipient may respond.
	if rel.FriendID != userID {
		return apperrors.NotFound("no pending friend request addressed to this user")
	}

	rel.Status = status
	rel.UpdatedAt = time.Now().UTC()
	if status == models.FriendshipAccepted {
		rel.AcceptedAt = rel.UpdatedAt
	}

	if err := s.friendships.Update(ctx, rel); err != nil {
		return apperrors.Unavailable(err, "failed to update friendship")
	}

	logrus.WithFields(logrus.Fields{
		"user_id":   userID.Hex(),
		"friend_id": friendID.Hex(),
		"status":    status,
	}).Info("Responded to friend request")
	return nil
}

// ToggleClose flips the close-friend flag on an accepted friendship.
func (s *FriendshipService) ToggleClose(ctx context.Context, userID, friendID primitive.ObjectID) (*models.Friendship, error) {
	key := pairKey(userID, friendID)
	s.locks.Lock(key)
	defer s.locks.Unlock(key)

	rel, err := s.friendships.GetByPair(ctx, userID, friendID)
	if err != nil {
		return nil, apperrors.Unavailable(err, "failed to look up friendship")
	}
	if rel == nil {
		return nil, apperrors.NotFound("no friendship between these users")
	}
	if rel.Status != models.FriendshipAccepted {
		return nil, apperrors.InvalidState("friendship is %s, not accepted", rel.Status)
	}

	rel.IsClose = !rel.IsClose
	rel.UpdatedAt = time.Now().UTC()
	if err := s.friendships.Update(ctx, rel); err != nil {
		return nil, apperrors.Unavailable(err, "failed to update friendship")
	}

	return rel, nil
}

// List returns userID's accepted friends with their public profiles, ordered
// by acceptance time.
func (s *FriendshipService) List(ctx context.Context, userID primitive.ObjectID) ([]models.Friend, error) {
	rels, err := s.friendships.ListAccepted(ctx, userID)
	if err != nil {
		return nil, apperrors.Unavailable(err, "failed to list friendships")
	}
	if len(rels) == 0 {
		return []models.Friend{}, nil
	}

	ids := make([]primitive.ObjectID, 0, len(rels))
	for _, rel := range rels {
		ids = append(ids, rel.Other(userID))
	}

	users, err := s.users.GetUsersByIDs(ctx, ids)
	if err != nil {
		return nil, apperrors.Unavailable(err, "failed to load friend profiles")
	}
	byID := make(map[primitive.ObjectID]models.User, len(users))
	for _, u := range users {
		byID[u.ID] = u
	}

	friends := make([]models.Friend, 0, len(rels))
	for _, rel := range rels {
		user, ok := byID[rel.Other(userID)]
		if !ok {
			continue
		}
		friends = append(friends, models.Friend{
			User:       user.Public(),
			IsClose:    rel.IsClose,
			AcceptedAt: rel.AcceptedAt,
		})
	}

	return friends, nil
}

// PendingRequests returns the pending requests addressed to userID.
func (s *FriendshipService) PendingRequests(ctx context.Context, userID primitive.ObjectID) ([]models.Friendship, error) {
	requests, err := s.friendships.ListPendingReceived(ctx, userID)
	if err != nil {
		return nil, apperrors.Unavailable(err, "failed to list friend requests")
	}
	if requests == nil {
		requests = []models.Friendship{}
	}
	return requests, nil
}
