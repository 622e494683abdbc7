// Package calendar adapts external calendar feeds into the coordination
// engine. Feeds are untrusted, volatile input: they are re-fetched per query
// and failures surface as an unavailable error the caller degrades around.
package calendar

import (
	"context"
	"time"

	"github.com/aidos-dev/meetsync/internal/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Provider is the capability interface over one external calendar source.
// Additional providers are new implementations of this interface; the
// availability engine never knows which one it is talking to.
type Provider interface {
	// ListEvents returns the user's events overlapping [start, end).
	// It returns an unavailable error on transport, auth or parse failure.
	ListEvents(ctx context.Context, userID primitive.ObjectID, start, end time.Time) ([]models.CalendarEvent, error)
}

// FeedResolver maps a user to their calendar feed URL. An empty URL means
// the user has not connected a calendar.
type FeedResolver interface {
	CalendarFeedURL(ctx context.Context, userID primitive.ObjectID) (string, error)
}
