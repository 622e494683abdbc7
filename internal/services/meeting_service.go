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

// legalTransitions is the meeting lifecycle graph. Cancelled is terminal.
var legalTransitions = map[string]map[string]bool{
	models.MeetingPending:   {models.MeetingConfirmed: true, models.MeetingCancelled: true},
	models.MeetingConfirmed: {models.MeetingCancelled: true},
	models.MeetingCancelled: {},
}

// MeetingService enforces the meeting lifecycle over the meeting store. The
// conflict check at proposal time goes through the availability engine;
// writes for one organizer/friend pair are serialized on the pair key so two
// concurrent proposals cannot both pass the check.
type MeetingService struct {
	meetings     MeetingStore
	friendships  FriendshipStore
	availability *AvailabilityService
	locks        *keylock.KeyLock

	// now is replaceable for tests.
	now func() time.Time
}

// NewMeetingService creates a new MeetingService.
func NewMeetingService(meetings MeetingStore, friendships FriendshipStore, availability *AvailabilityService, locks *keylock.KeyLock) *MeetingService {
	return &MeetingService{
		meetings:     meetings,
		friendships:  friendships,
		availability: availability,
		locks:        locks,
		now:          time.Now,
	}
}

// Propose validates and persists a new pending meeting between organizerID
// and friendID over [start, end).
func (s *MeetingService) Propose(ctx context.Context, organizerID, friendID primitive.ObjectID, title, description string, start, end time.Time, location string) (*models.Meeting, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return nil, apperrors.InvalidArgument("meeting title is required")
	}
	start, end = start.UTC(), end.UTC()
	if !start.Before(end) {
		return nil, apperrors.InvalidArgument("meeting start must be before its end")
	}
	now := s.now().UTC()
	if start.Before(now) {
		return nil, apperrors.InvalidArgument("meeting start must not be in the past")
	}

	rel, err := s.friendships.GetByPair(ctx, organizerID, friendID)
	if err != nil {
		return nil, apperrors.Unavailable(err, "failed to look up friendship")
	}
	if rel == nil || rel.Status != models.FriendshipAccepted {
		return nil, apperrors.Permission("meetings can only be scheduled with accepted friends")
	}

	// External feeds are fetched before taking the pair lock; adapter I/O
	// must never run under an entity lock. The feed is volatile anyway, so
	// the prefetch being slightly stale is acceptable.
	externalBusy := s.availability.ExternalBusy(ctx, []primitive.ObjectID{organizerID, friendID}, start, end)

	key := pairKey(organizerID, friendID)
	s.locks.Lock(key)
	defer s.locks.Unlock(key)

	requested := models.TimeInterval{Start: start, End: end}
	for _, userID := range []primitive.ObjectID{organizerID, friendID} {
		overlapping, err := s.meetings.ListOverlapping(ctx, userID, start, end)
		if err != nil {
			return nil, apperrors.Unavailable(err, "failed to check for conflicts")
		}
		if len(overlapping) > 0 {
			conflict := overlapping[0].Interval()
			return nil, apperrors.Conflict(&conflict, "requested time overlaps an existing meeting")
		}
	}
	if conflict := firstOverlap(externalBusy, requested); conflict != nil {
		return nil, apperrors.Conflict(conflict, "requested time overlaps a calendar event")
	}

	meeting := &models.Meeting{
		OrganizerID: organizerID,
		FriendID:    friendID,
		Title:       title,
		Description: description,
		Location:    location,
		StartTime:   start,
		EndTime:     end,
		Status:      models.MeetingPending,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	created, err := s.meetings.Create(ctx, meeting)
	if err != nil {
		return nil, apperrors.Unavailable(err, "failed to save meeting")
	}

	logrus.WithFields(logrus.Fields{
		"meeting_id":   created.ID.Hex(),
		"organizer_id": organizerID.Hex(),
		"friend_id":    friendID.Hex(),
	}).Info("Meeting proposed")
	return created, nil
}

// UpdateStatus applies one lifecycle transition to a meeting.
func (s *MeetingService) UpdateStatus(ctx context.Context, meetingID primitive.ObjectID, newStatus string) (*models.Meeting, error) {
	if _, known := legalTransitions[newStatus]; !known {
		return nil, apperrors.InvalidArgument("unknown meeting status %q", newStatus)
	}

	meeting, err := s.meetings.GetByID(ctx, meetingID)
	if err != nil {
		return nil, apperrors.Unavailable(err, "failed to look up meeting")
	}
	if meeting == nil {
		return nil, apperrors.NotFound("no meeting with id %s", meetingID.Hex())
	}

	key := pairKey(meeting.OrganizerID, meeting.FriendID)
	s.locks.Lock(key)
	defer s.locks.Unlock(key)

	// Re-read under the lock; a concurrent transition may have landed.
	meeting, err = s.meetings.GetByID(ctx, meetingID)
	if err != nil {
		return nil, apperrors.Unavailable(err, "failed to look up meeting")
	}
	if meeting == nil {
		return nil, apperrors.NotFound("no meeting with id %s", meetingID.Hex())
	}

	if !legalTransitions[meeting.Status][newStatus] {
		return nil, apperrors.InvalidState("cannot move meeting from %s to %s", meeting.Status, newStatus)
	}

	meeting.Status = newStatus
	meeting.UpdatedAt = s.now().UTC()
	if newStatus == models.MeetingCancelled {
		// The timestamp is the signal an external notifier consumes.
		meeting.CancelledAt = meeting.UpdatedAt
	}

	if err := s.meetings.Update(ctx, meeting); err != nil {
		return nil, apperrors.Unavailable(err, "failed to update meeting")
	}

	logrus.WithFields(logrus.Fields{
		"meeting_id": meetingID.Hex(),
		"status":     newStatus,
	}).Info("Meeting status updated")
	return meeting, nil
}

// Cancel is shorthand for a transition to cancelled.
func (s *MeetingService) Cancel(ctx context.Context, meetingID primitive.ObjectID) (*models.Meeting, error) {
	return s.UpdateStatus(ctx, meetingID, models.MeetingCancelled)
}

// Get returns one meeting by id.
func (s *MeetingService) Get(ctx context.Context, meetingID primitive.ObjectID) (*models.Meeting, error) {
	meeting, err := s.meetings.GetByID(ctx, meetingID)
	if err != nil {
		return nil, apperrors.Unavailable(err, "failed to look up meeting")
	}
	if meeting == nil {
		return nil, apperrors.NotFound("no meeting with id %s", meetingID.Hex())
	}
	return meeting, nil
}

// Upcoming returns the user's non-cancelled meetings starting at or after
// now, ascending by start time.
func (s *MeetingService) Upcoming(ctx context.Context, userID primitive.ObjectID) ([]models.Meeting, error) {
	meetings, err := s.meetings.ListUpcoming(ctx, userID, s.now().UTC())
	if err != nil {
		return nil, apperrors.Unavailable(err, "failed to list meetings")
	}
	if meetings == nil {
		meetings = []models.Meeting{}
	}
	return meetings, nil
}

// ByDateRange returns the user's meetings starting within [start, end).
func (s *MeetingService) ByDateRange(ctx context.Context, userID primitive.ObjectID, start, end time.Time) ([]models.Meeting, error) {
	if !start.Before(end) {
		return nil, apperrors.InvalidArgument("range start must be before range end")
	}

	meetings, err := s.meetings.ListInRange(ctx, userID, start.UTC(), end.UTC())
	if err != nil {
		return nil, apperrors.Unavailable(err, "failed to list meetings")
	}
	if meetings == nil {
		meetings = []models.Meeting{}
	}
	return meetings, nil
}
