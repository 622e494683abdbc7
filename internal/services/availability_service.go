package services

import (
	"context"
	"sort"
	"time"

	"github.com/aidos-dev/meetsync/internal/calendar"
	"github.com/aidos-dev/meetsync/internal/models"
	"github.com/aidos-dev/meetsync/pkg/apperrors"
	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"golang.org/x/sync/errgroup"
)

// defaultSlotTemplate lists the daily candidate start times, as offsets from
// midnight, used when the caller does not supply explicit candidates.
var defaultSlotTemplate = []time.Duration{
	9 * time.Hour,
	10*time.Hour + 30*time.Minute,
	12 * time.Hour,
	14 * time.Hour,
	16*time.Hour + 30*time.Minute,
	18 * time.Hour,
}

// AvailabilityService computes free/busy intervals by merging internal
// meetings with the external calendar feed. External data is volatile, so
// nothing here is cached; every query recomputes from source. Feed failures
// degrade the result to meetings-only rather than failing the query.
type AvailabilityService struct {
	meetings MeetingStore
	provider calendar.Provider

	// timeout bounds each external feed fetch.
	timeout time.Duration
}

// NewAvailabilityService creates a new AvailabilityService.
func NewAvailabilityService(meetings MeetingStore, provider calendar.Provider, timeout time.Duration) *AvailabilityService {
	return &AvailabilityService{
		meetings: meetings,
		provider: provider,
		timeout:  timeout,
	}
}

// BusyIntervals returns the union of userID's non-cancelled meetings and
// external events within [from, to), sorted and coalesced: no two returned
// intervals overlap or touch.
func (s *AvailabilityService) BusyIntervals(ctx context.Context, userID primitive.ObjectID, from, to time.Time) ([]models.TimeInterval, error) {
	if !from.Before(to) {
		return nil, apperrors.InvalidArgument("range start must be before range end")
	}
	from, to = from.UTC(), to.UTC()

	meetings, err := s.meetings.ListOverlapping(ctx, userID, from, to)
	if err != nil {
		return nil, apperrors.Unavailable(err, "failed to load meetings")
	}

	intervals := make([]models.TimeInterval, 0, len(meetings))
	for _, m := range meetings {
		intervals = append(intervals, m.Interval())
	}
	intervals = append(intervals, s.externalBusy(ctx, userID, from, to)...)

	return coalesce(intervals), nil
}

// IsFree reports whether [start, end) intersects none of userID's busy
// intervals.
func (s *AvailabilityService) IsFree(ctx context.Context, userID primitive.ObjectID, start, end time.Time) (bool, error) {
	busy, err := s.BusyIntervals(ctx, userID, start, end)
	if err != nil {
		return false, err
	}
	return firstOverlap(busy, models.TimeInterval{Start: start.UTC(), End: end.UTC()}) == nil, nil
}

// SuggestSlots produces one TimeSlot per candidate start, marked available
// when both parties are free over [start, start+slotDuration). With no
// explicit candidates, the daily template is applied across the window.
// Candidate order is preserved.
func (s *AvailabilityService) SuggestSlots(ctx context.Context, organizerID, friendID primitive.ObjectID, windowStart, windowEnd time.Time, slotDuration time.Duration, candidateStarts []time.Time) ([]models.TimeSlot, error) {
	if !windowStart.Before(windowEnd) {
		return nil, apperrors.InvalidArgument("window start must be before window end")
	}
	if slotDuration <= 0 {
		return nil, apperrors.InvalidArgument("slot duration must be positive")
	}
	// Template expansion happens before the UTC normalization so the daily
	// start times land on the caller's wall clock, not on UTC midnight.
	candidates := candidateStarts
	if len(candidates) == 0 {
		candidates = templateCandidates(windowStart, windowEnd)
	}
	windowStart, windowEnd = windowStart.UTC(), windowEnd.UTC()

	// Busy data for both parties is fetched once over the whole window; a
	// slot may end past windowEnd, so the fetch covers that tail too.
	fetchEnd := windowEnd.Add(slotDuration)

	var organizerBusy, friendBusy []models.TimeInterval
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		organizerBusy, err = s.BusyIntervals(gctx, organizerID, windowStart, fetchEnd)
		return err
	})
	g.Go(func() error {
		var err error
		friendBusy, err = s.BusyIntervals(gctx, friendID, windowStart, fetchEnd)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	slots := make([]models.TimeSlot, 0, len(candidates))
	for _, start := range candidates {
		start = start.UTC()
		if start.Before(windowStart) || !start.Before(windowEnd) {
			continue
		}
		slot := models.TimeInterval{Start: start, End: start.Add(slotDuration)}
		available := firstOverlap(organizerBusy, slot) == nil && firstOverlap(friendBusy, slot) == nil
		slots = append(slots, models.TimeSlot{
			Start:     slot.Start,
			End:       slot.End,
			Available: available,
		})
	}

	return slots, nil
}

// ExternalBusy returns the coalesced external busy intervals for each given
// user, best effort: a user whose feed fails contributes nothing.
func (s *AvailabilityService) ExternalBusy(ctx context.Context, userIDs []primitive.ObjectID, from, to time.Time) []models.TimeInterval {
	var intervals []models.TimeInterval
	for _, id := range userIDs {
		intervals = append(intervals, s.externalBusy(ctx, id, from.UTC(), to.UTC())...)
	}
	return coalesce(intervals)
}

// ExternalEvents returns the user's raw external events for display. The
// second result reports degradation: true means the feed was unavailable and
// the list is empty rather than complete.
func (s *AvailabilityService) ExternalEvents(ctx context.Context, userID primitive.ObjectID, from, to time.Time) ([]models.CalendarEvent, bool) {
	fetchCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	events, err := s.provider.ListEvents(fetchCtx, userID, from.UTC(), to.UTC())
	if err != nil {
		logrus.WithError(err).WithField("user_id", userID.Hex()).Warn("Calendar feed unavailable, returning empty event list")
		return []models.CalendarEvent{}, true
	}
	if events == nil {
		events = []models.CalendarEvent{}
	}
	return events, false
}

func (s *AvailabilityService) externalBusy(ctx context.Context, userID primitive.ObjectID, from, to time.Time) []models.TimeInterval {
	fetchCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	events, err := s.provider.ListEvents(fetchCtx, userID, from, to)
	if err != nil {
		// Conflict avoidance against internal meetings matters more than
		// completeness, so a failing feed degrades the query instead of
		// aborting it.
		logrus.WithError(err).WithField("user_id", userID.Hex()).Warn("Calendar feed unavailable, using meetings only")
		return nil
	}

	intervals := make([]models.TimeInterval, 0, len(events))
	for _, ev := range events {
		intervals = append(intervals, models.TimeInterval{Start: ev.Start, End: ev.End})
	}
	return intervals
}

// coalesce sorts intervals and merges every overlapping or touching pair,
// returning the union as disjoint, non-touching intervals.
func coalesce(intervals []models.TimeInterval) []models.TimeInterval {
	if len(intervals) == 0 {
		return []models.TimeInterval{}
	}

	sorted := make([]models.TimeInterval, len(intervals))
	copy(sorted, intervals)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].Start.Before(sorted[j].Start)
	})

	merged := []models.TimeInterval{sorted[0]}
	for _, iv := range sorted[1:] {
		last := &merged[len(merged)-1]
		if !iv.Start.After(last.End) {
			if iv.End.After(last.End) {
				last.End = iv.End
			}
			continue
		}
		merged = append(merged, iv)
	}

	return merged
}

// firstOverlap returns the first busy interval intersecting slot, or nil.
func firstOverlap(busy []models.TimeInterval, slot models.TimeInterval) *models.TimeInterval {
	for i := range busy {
		if busy[i].Overlaps(slot) {
			return &busy[i]
		}
	}
	return nil
}

// templateCandidates expands the daily template across [windowStart,
// windowEnd), in the window's timezone.
func templateCandidates(windowStart, windowEnd time.Time) []time.Time {
	var candidates []time.Time
	day := time.Date(windowStart.Year(), windowStart.Month(), windowStart.Day(), 0, 0, 0, 0, windowStart.Location())
	for day.Before(windowEnd) {
		for _, offset := range defaultSlotTemplate {
			t := day.Add(offset)
			if !t.Before(windowStart) && t.Before(windowEnd) {
				candidates = append(candidates, t)
			}
		}
		day = day.AddDate(0, 0, 1)
	}
	return candidates
}
