package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/aidos-dev/meetsync/internal/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// In-memory store implementations, mainly for isolated unit tests. They
// mirror the Mongo repositories' contracts: lookups return (nil, nil) when
// absent, lists come back sorted, and records are copied on the way in and
// out so callers never share memory with the store.

// MemoryUserStore is an in-memory UserStore and calendar feed resolver.
type MemoryUserStore struct {
	mu    sync.RWMutex
	users map[primitive.ObjectID]models.User
}

func NewMemoryUserStore() *MemoryUserStore {
	return &MemoryUserStore{users: make(map[primitive.ObjectID]models.User)}
}

func (s *MemoryUserStore) CreateUser(ctx context.Context, user *models.User) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if user.ID.IsZero() {
		user.ID = primitive.NewObjectID()
	}
	s.users[user.ID] = *user
	copied := *user
	return &copied, nil
}

func (s *MemoryUserStore) GetUserByID(ctx context.Context, id primitive.ObjectID) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	user, ok := s.users[id]
	if !ok {
		return nil, nil
	}
	return &user, nil
}

func (s *MemoryUserStore) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, user := range s.users {
		if user.Email == email {
			copied := user
			return &copied, nil
		}
	}
	return nil, nil
}

func (s *MemoryUserStore) GetUsersByIDs(ctx context.Context, ids []primitive.ObjectID) ([]models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var users []models.User
	for _, id := range ids {
		if user, ok := s.users[id]; ok {
			users = append(users, user)
		}
	}
	return users, nil
}

func (s *MemoryUserStore) UpdateUser(ctx context.Context, id primitive.ObjectID, update map[string]interface{}) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	user, ok := s.users[id]
	if !ok {
		return nil
	}
	if v, ok := update["calendar_feed_url"].(string); ok {
		user.CalendarFeedURL = v
	}
	if v, ok := update["name"].(string); ok {
		user.Name = v
	}
	if v, ok := update["updated_at"].(time.Time); ok {
		user.UpdatedAt = v
	}
	s.users[id] = user
	return nil
}

func (s *MemoryUserStore) CalendarFeedURL(ctx context.Context, userID primitive.ObjectID) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.users[userID].CalendarFeedURL, nil
}

// MemoryFriendshipStore is an in-memory FriendshipStore.
type MemoryFriendshipStore struct {
	mu    sync.RWMutex
	edges map[primitive.ObjectID]models.Friendship
}

func NewMemoryFriendshipStore() *MemoryFriendshipStore {
	return &MemoryFriendshipStore{edges: make(map[primitive.ObjectID]models.Friendship)}
}

func (s *MemoryFriendshipStore) Create(ctx context.Context, friendship *models.Friendship) (*models.Friendship, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if friendship.ID.IsZero() {
		friendship.ID = primitive.NewObjectID()
	}
	s.edges[friendship.ID] = *friendship
	copied := *friendship
	return &copied, nil
}

func (s *MemoryFriendshipStore) GetByPair(ctx context.Context, a, b primitive.ObjectID) (*models.Friendship, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, edge := range s.edges {
		if (edge.OwnerID == a && edge.FriendID == b) || (edge.OwnerID == b && edge.FriendID == a) {
			copied := edge
			return &copied, nil
		}
	}
	return nil, nil
}

func (s *MemoryFriendshipStore) Update(ctx context.Context, friendship *models.Friendship) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.edges[friendship.ID] = *friendship
	return nil
}

func (s *MemoryFriendshipStore) ListByUser(ctx context.Context, userID primitive.ObjectID) ([]models.Friendship, error) {
	return s.filter(func(edge models.Friendship) bool {
		return edge.Involves(userID)
	}, func(a, b models.Friendship) bool {
		return a.CreatedAt.Before(b.CreatedAt)
	}), nil
}

func (s *MemoryFriendshipStore) ListAccepted(ctx context.Context, userID primitive.ObjectID) ([]models.Friendship, error) {
	return s.filter(func(edge models.Friendship) bool {
		return edge.Involves(userID) && edge.Status == models.FriendshipAccepted
	}, func(a, b models.Friendship) bool {
		return a.AcceptedAt.Before(b.AcceptedAt)
	}), nil
}

func (s *MemoryFriendshipStore) ListPendingReceived(ctx context.Context, userID primitive.ObjectID) ([]models.Friendship, error) {
	return s.filter(func(edge models.Friendship) bool {
		return edge.FriendID == userID && edge.Status == models.FriendshipPending
	}, func(a, b models.Friendship) bool {
		return a.CreatedAt.Before(b.CreatedAt)
	}), nil
}

func (s *MemoryFriendshipStore) filter(keep func(models.Friendship) bool, less func(a, b models.Friendship) bool) []models.Friendship {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var edges []models.Friendship
	for _, edge := range s.edges {
		if keep(edge) {
			edges = append(edges, edge)
		}
	}
	sort.Slice(edges, func(i, j int) bool { return less(edges[i], edges[j]) })
	return edges
}

// MemoryMeetingStore is an in-memory MeetingStore.
type MemoryMeetingStore struct {
	mu       sync.RWMutex
	meetings map[primitive.ObjectID]models.Meeting
}

func NewMemoryMeetingStore() *MemoryMeetingStore {
	return &MemoryMeetingStore{meetings: make(map[primitive.ObjectID]models.Meeting)}
}

func (s *MemoryMeetingStore) Create(ctx context.Context, meeting *models.Meeting) (*models.Meeting, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if meeting.ID.IsZero() {
		meeting.ID = primitive.NewObjectID()
	}
	s.meetings[meeting.ID] = *meeting
	copied := *meeting
	return &copied, nil
}

func (s *MemoryMeetingStore) GetByID(ctx context.Context, id primitive.ObjectID) (*models.Meeting, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	meeting, ok := s.meetings[id]
	if !ok {
		return nil, nil
	}
	return &meeting, nil
}

func (s *MemoryMeetingStore) Update(ctx context.Context, meeting *models.Meeting) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.meetings[meeting.ID] = *meeting
	return nil
}

func (s *MemoryMeetingStore) ListOverlapping(ctx context.Context, userID primitive.ObjectID, start, end time.Time) ([]models.Meeting, error) {
	window := models.TimeInterval{Start: start, End: end}
	return s.filter(func(m models.Meeting) bool {
		return m.Involves(userID) && m.Status != models.MeetingCancelled && m.Interval().Overlaps(window)
	}), nil
}

func (s *MemoryMeetingStore) ListUpcoming(ctx context.Context, userID primitive.ObjectID, now time.Time) ([]models.Meeting, error) {
	return s.filter(func(m models.Meeting) bool {
		return m.Involves(userID) && m.Status != models.MeetingCancelled && !m.StartTime.Before(now)
	}), nil
}

func (s *MemoryMeetingStore) ListInRange(ctx context.Context, userID primitive.ObjectID, start, end time.Time) ([]models.Meeting, error) {
	return s.filter(func(m models.Meeting) bool {
		return m.Involves(userID) && !m.StartTime.Before(start) && m.StartTime.Before(end)
	}), nil
}

func (s *MemoryMeetingStore) filter(keep func(models.Meeting) bool) []models.Meeting {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var meetings []models.Meeting
	for _, m := range s.meetings {
		if keep(m) {
			meetings = append(meetings, m)
		}
	}
	sort.Slice(meetings, func(i, j int) bool {
		return meetings[i].StartTime.Before(meetings[j].StartTime)
	})
	return meetings
}
