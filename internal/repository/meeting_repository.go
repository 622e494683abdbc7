package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aidos-dev/meetsync/internal/models"
	"github.com/aidos-dev/meetsync/pkg/logger"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MeetingRepository handles database operations for meetings.
type MeetingRepository struct {
	collection *mongo.Collection
}

// NewMeetingRepository creates a new instance of MeetingRepository.
func NewMeetingRepository(db *mongo.Database) *MeetingRepository {
	return &MeetingRepository{
		collection: db.Collection("meetings"),
	}
}

// Create inserts a new meeting.
func (r *MeetingRepository) Create(ctx context.Context, meeting *models.Meeting) (*models.Meeting, error) {
	result, err := r.collection.InsertOne(ctx, meeting)
	if err != nil {
		logger.Log.WithError(err).Error("Failed to insert meeting")
		return nil, fmt.Errorf("failed to create meeting: %v", err)
	}

	insertedID, ok := result.InsertedID.(primitive.ObjectID)
	if !ok {
		return nil, fmt.Errorf("failed to cast inserted ID")
	}
	meeting.ID = insertedID

	return meeting, nil
}

// GetByID fetches a meeting by id, returning (nil, nil) when absent.
func (r *MeetingRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*models.Meeting, error) {
	var meeting models.Meeting
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&meeting)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		logger.Log.WithError(err).WithField("meeting_id", id.Hex()).Error("Failed to find meeting")
		return nil, fmt.Errorf("failed to find meeting: %v", err)
	}
	return &meeting, nil
}

// Update replaces the stored record for one meeting.
func (r *MeetingRepository) Update(ctx context.Context, meeting *models.Meeting) error {
	meeting.UpdatedAt = time.Now()

	_, err := r.collection.UpdateOne(
		ctx,
		bson.M{"_id": meeting.ID},
		bson.M{"$set": meeting},
	)
	if err != nil {
		logger.Log.WithError(err).WithField("meeting_id", meeting.ID.Hex()).Error("Failed to update meeting")
		return fmt.Errorf("failed to update meeting: %v", err)
	}
	return nil
}

// ListOverlapping returns non-cancelled meetings of userID intersecting the
// half-open window [start, end).
func (r *MeetingRepository) ListOverlapping(ctx context.Context, userID primitive.ObjectID, start, end time.Time) ([]models.Meeting, error) {
	filter := bson.M{
		"status":     bson.M{"$ne": models.MeetingCancelled},
		"start_time": bson.M{"$lt": end},
		"end_time":   bson.M{"$gt": start},
		"$or": []bson.M{
			{"organizer_id": userID},
			{"friend_id": userID},
		},
	}
	return r.list(ctx, filter)
}

// ListUpcoming returns non-cancelled meetings of userID starting at or after
// now, soonest first.
func (r *MeetingRepository) ListUpcoming(ctx context.Context, userID primitive.ObjectID, now time.Time) ([]models.Meeting, error) {
	filter := bson.M{
		"status":     bson.M{"$ne": models.MeetingCancelled},
		"start_time": bson.M{"$gte": now},
		"$or": []bson.M{
			{"organizer_id": userID},
			{"friend_id": userID},
		},
	}
	return r.list(ctx, filter)
}

// ListInRange returns meetings of userID starting within [start, end).
func (r *MeetingRepository) ListInRange(ctx context.Context, userID primitive.ObjectID, start, end time.Time) ([]models.Meeting, error) {
	filter := bson.M{
		"start_time": bson.M{"$gte": start, "$lt": end},
		"$or": []bson.M{
			{"organizer_id": userID},
			{"friend_id": userID},
		},
	}
	return r.list(ctx, filter)
}

func (r *MeetingRepository) list(ctx context.Context, filter bson.M) ([]models.Meeting, error) {
	opts := options.Find().SetSort(bson.D{{Key: "start_time", Value: 1}})
	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		logger.Log.WithError(err).Error("Failed to list meetings")
		return nil, fmt.Errorf("failed to list meetings: %v", err)
	}
	defer cursor.Close(ctx)

	var meetings []models.Meeting
	for cursor.Next(ctx) {
		var meeting models.Meeting
		if err := cursor.Decode(&meeting); err != nil {
			return nil, err
		}
		meetings = append(meetings, meeting)
	}

	return meetings, nil
}
