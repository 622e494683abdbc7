package calendar

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/aidos-dev/meetsync/internal/models"
	"github.com/aidos-dev/meetsync/pkg/apperrors"
	"github.com/aidos-dev/meetsync/pkg/logger"
	"github.com/emersion/go-ical"
	"github.com/google/uuid"
	"github.com/sony/gobreaker"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ICSProvider fetches and parses iCalendar feeds over HTTP. Each feed URL
// gets its own circuit breaker, so one user's flapping feed cannot block
// fetches of everyone else's feeds.
type ICSProvider struct {
	resolver FeedResolver
	client   *http.Client

	mu       sync.Mutex
	breakers map[string]*gobreaker.CircuitBreaker
}

// NewICSProvider creates a provider whose fetches are bounded by timeout.
func NewICSProvider(resolver FeedResolver, timeout time.Duration) *ICSProvider {
	return &ICSProvider{
		resolver: resolver,
		client:   &http.Client{Timeout: timeout},
		breakers: make(map[string]*gobreaker.CircuitBreaker),
	}
}

func (p *ICSProvider) breakerFor(feedURL string) *gobreaker.CircuitBreaker {
	p.mu.Lock()
	defer p.mu.Unlock()

	if breaker, ok := p.breakers[feedURL]; ok {
		return breaker
	}

	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:    "calendar-feed " + feedURL,
		Timeout: 30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 3
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Log.Warnf("Circuit breaker %s changed from %v to %v", name, from, to)
		},
	})
	p.breakers[feedURL] = breaker
	return breaker
}

// ListEvents implements Provider. A user without a configured feed yields no
// events rather than an error.
func (p *ICSProvider) ListEvents(ctx context.Context, userID primitive.ObjectID, start, end time.Time) ([]models.CalendarEvent, error) {
	feedURL, err := p.resolver.CalendarFeedURL(ctx, userID)
	if err != nil {
		return nil, apperrors.Unavailable(err, "failed to resolve calendar feed for user %s", userID.Hex())
	}
	if feedURL == "" {
		return nil, nil
	}

	result, err := p.breakerFor(feedURL).Execute(func() (interface{}, error) {
		return p.fetch(ctx, feedURL)
	})
	if err != nil {
		return nil, apperrors.Unavailable(err, "calendar feed unavailable")
	}

	events := result.([]models.CalendarEvent)

	window := models.TimeInterval{Start: start, End: end}
	filtered := make([]models.CalendarEvent, 0, len(events))
	for _, ev := range events {
		if (models.TimeInterval{Start: ev.Start, End: ev.End}).Overlaps(window) {
			filtered = append(filtered, ev)
		}
	}
	return filtered, nil
}

func (p *ICSProvider) fetch(ctx context.Context, feedURL string) ([]models.CalendarEvent, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, feedURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build feed request: %v", err)
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("feed request failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("feed returned status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read feed body: %v", err)
	}

	raw := strings.TrimSpace(string(body))
	if !strings.HasPrefix(raw, "BEGIN:VCALENDAR") {
		return nil, fmt.Errorf("response is not an iCalendar feed")
	}

	return parseFeed(raw)
}

func parseFeed(raw string) ([]models.CalendarEvent, error) {
	decoder := ical.NewDecoder(strings.NewReader(raw))

	var events []models.CalendarEvent
	for {
		cal, err := decoder.Decode()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to decode calendar: %v", err)
		}

		for _, comp := range cal.Children {
			if comp.Name != ical.CompEvent {
				continue
			}
			ev, ok := parseEvent(comp)
			if ok {
				events = append(events, ev)
			}
		}
	}

	return events, nil
}

func parseEvent(comp *ical.Component) (models.CalendarEvent, bool) {
	var ev models.CalendarEvent

	if prop := comp.Props.Get(ical.PropUID); prop != nil {
		ev.ID = prop.Value
	}
	if ev.ID == "" {
		ev.ID = uuid.NewString()
	}

	if prop := comp.Props.Get(ical.PropSummary); prop != nil {
		ev.Title = prop.Value
	}
	if prop := comp.Props.Get(ical.PropLocation); prop != nil {
		ev.Location = prop.Value
	}
	if prop := comp.Props.Get(ical.PropDescription); prop != nil {
		ev.Description = prop.Value
	}

	start, err := parseDateTime(comp.Props.Get(ical.PropDateTimeStart))
	if err != nil {
		return ev, false
	}
	end, err := parseDateTime(comp.Props.Get(ical.PropDateTimeEnd))
	if err != nil {
		return ev, false
	}
	if !start.Before(end) {
		return ev, false
	}

	ev.Start = start.UTC()
	ev.End = end.UTC()
	return ev, true
}

func parseDateTime(prop *ical.Prop) (time.Time, error) {
	if prop == nil {
		return time.Time{}, fmt.Errorf("missing datetime property")
	}

	if t, err := prop.DateTime(time.UTC); err == nil {
		return t, nil
	}

	// Some feeds emit non-standard datetime values; try common layouts.
	for _, layout := range []string{"20060102T150405Z", "20060102T150405", time.RFC3339} {
		if t, err := time.Parse(layout, prop.Value); err == nil {
			return t, nil
		}
	}

	return time.Time{}, fmt.Errorf("unable to parse datetime value %q", prop.Value)
}
