package calendar

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/aidos-dev/meetsync/pkg/apperrors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

const sampleFeed = `BEGIN:VCALENDAR
VERSION:2.0
PRODID:-//Test//Test//EN
BEGIN:VEVENT
UID:event-1
SUMMARY:Dentist
LOCATION:Main St 5
DTSTART:20300610T090000Z
DTEND:20300610T100000Z
END:VEVENT
BEGIN:VEVENT
UID:event-2
SUMMARY:Flight
DTSTART:20300615T060000Z
DTEND:20300615T090000Z
END:VEVENT
BEGIN:VEVENT
SUMMARY:Broken
DTSTART:20300610T120000Z
END:VEVENT
END:VCALENDAR
`

type staticResolver struct {
	url string
}

func (r staticResolver) CalendarFeedURL(ctx context.Context, userID primitive.ObjectID) (string, error) {
	return r.url, nil
}

func feedRange() (time.Time, time.Time) {
	return time.Date(2030, time.June, 9, 0, 0, 0, 0, time.UTC),
		time.Date(2030, time.June, 12, 0, 0, 0, 0, time.UTC)
}

func TestListEventsParsesAndFiltersFeed(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(sampleFeed))
	}))
	defer server.Close()

	provider := NewICSProvider(staticResolver{url: server.URL}, time.Second)
	start, end := feedRange()

	events, err := provider.ListEvents(context.Background(), primitive.NewObjectID(), start, end)
	require.NoError(t, err)

	// event-2 is outside the window, the broken event has no end time.
	require.Len(t, events, 1)
	assert.Equal(t, "event-1", events[0].ID)
	assert.Equal(t, "Dentist", events[0].Title)
	assert.Equal(t, "Main St 5", events[0].Location)
	assert.Equal(t, time.Date(2030, time.June, 10, 9, 0, 0, 0, time.UTC), events[0].Start)
	assert.Equal(t, time.UTC, events[0].Start.Location())
}

func TestListEventsWithoutFeedURL(t *testing.T) {
	provider := NewICSProvider(staticResolver{url: ""}, time.Second)
	start, end := feedRange()

	events, err := provider.ListEvents(context.Background(), primitive.NewObjectID(), start, end)
	require.NoError(t, err)
	assert.Empty(t, events)
}

func TestListEventsRejectsNonCalendarBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("<!DOCTYPE html><html>login required</html>"))
	}))
	defer server.Close()

	provider := NewICSProvider(staticResolver{url: server.URL}, time.Second)
	start, end := feedRange()

	_, err := provider.ListEvents(context.Background(), primitive.NewObjectID(), start, end)
	assert.True(t, apperrors.IsKind(err, apperrors.KindUnavailable))
}

func TestListEventsUnavailableOnServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	provider := NewICSProvider(staticResolver{url: server.URL}, time.Second)
	start, end := feedRange()

	_, err := provider.ListEvents(context.Background(), primitive.NewObjectID(), start, end)
	assert.True(t, apperrors.IsKind(err, apperrors.KindUnavailable))
}

func TestBreakerOpensAfterConsecutiveFailures(t *testing.T) {
	var requests int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests++
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	provider := NewICSProvider(staticResolver{url: server.URL}, time.Second)
	start, end := feedRange()
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		_, err := provider.ListEvents(ctx, primitive.NewObjectID(), start, end)
		assert.True(t, apperrors.IsKind(err, apperrors.KindUnavailable))
	}

	// After three consecutive failures the breaker short-circuits and stops
	// hitting the host.
	assert.Equal(t, 3, requests)
}

type mapResolver struct {
	urls map[primitive.ObjectID]string
}

func (r mapResolver) CalendarFeedURL(ctx context.Context, userID primitive.ObjectID) (string, error) {
	return r.urls[userID], nil
}

func TestBreakerIsScopedPerFeed(t *testing.T) {
	badServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer badServer.Close()

	goodServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(sampleFeed))
	}))
	defer goodServer.Close()

	badUser := primitive.NewObjectID()
	goodUser := primitive.NewObjectID()
	provider := NewICSProvider(mapResolver{urls: map[primitive.ObjectID]string{
		badUser:  badServer.URL,
		goodUser: goodServer.URL,
	}}, time.Second)
	start, end := feedRange()
	ctx := context.Background()

	// Trip the breaker on the dead feed.
	for i := 0; i < 5; i++ {
		_, err := provider.ListEvents(ctx, badUser, start, end)
		assert.True(t, apperrors.IsKind(err, apperrors.KindUnavailable))
	}

	// The other user's feed still works.
	events, err := provider.ListEvents(ctx, goodUser, start, end)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, "event-1", events[0].ID)
}
