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

// FriendshipRepository handles database operations for friendship edges.
type FriendshipRepository struct {
	collection *mongo.Collection
}

// NewFriendshipRepository creates a new instance of FriendshipRepository.
func NewFriendshipRepository(db *mongo.Database) *FriendshipRepository {
	return &FriendshipRepository{
		collection: db.Collection("friendships"),
	}
}

// Create inserts a new friendship edge.
func (r *FriendshipRepository) Create(ctx context.Context, friendship *models.Friendship) (*models.Friendship, error) {
	result, err := r.collection.InsertOne(ctx, friendship)
	if err != nil {
		logger.Log.WithError(err).Error("Failed to insert friendship")
		return nil, fmt.Errorf("failed to create friendship: %v", err)
	}

	insertedID, ok := result.InsertedID.(primitive.ObjectID)
	if !ok {
		return nil, fmt.Errorf("failed to cast inserted ID")
	}
	friendship.ID = insertedID

	return friendship, nil
}

// GetByPair finds the edge between two users in either direction, returning
// (nil, nil) when there is none.
func (r *FriendshipRepository) GetByPair(ctx context.Context, a, b primitive.ObjectID) (*models.Friendship, error) {
	filter := bson.M{
		"$or": []bson.M{
			{"owner_id": a, "friend_id": b},
			{"owner_id": b, "friend_id": a},
		},
	}

	var friendship models.Friendship
	err := r.collection.FindOne(ctx, filter).Decode(&friendship)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		logger.Log.WithError(err).Error("Failed to find friendship")
		return nil, fmt.Errorf("failed to find friendship: %v", err)
	}
	return &friendship, nil
}

// Update replaces the stored record for one edge.
func (r *FriendshipRepository) Update(ctx context.Context, friendship *models.Friendship) error {
	friendship.UpdatedAt = time.Now()

	_, err := r.collection.UpdateOne(
		ctx,
		bson.M{"_id": friendship.ID},
		bson.M{"$set": friendship},
	)
	if err != nil {
		logger.Log.WithError(err).WithField("friendship_id", friendship.ID.Hex()).Error("Failed to update friendship")
		return fmt.Errorf("failed to update friendship: %v", err)
	}
	return nil
}

// ListByUser returns every edge involving userID regardless of status.
func (r *FriendshipRepository) ListByUser(ctx context.Context, userID primitive.ObjectID) ([]models.Friendship, error) {
	filter := bson.M{
		"$or": []bson.M{
			{"owner_id": userID},
			{"friend_id": userID},
		},
	}
	return r.list(ctx, filter, nil)
}

// ListAccepted returns accepted edges involving userID, oldest acceptance
// first.
func (r *FriendshipRepository) ListAccepted(ctx context.Context, userID primitive.ObjectID) ([]models.Friendship, error) {
	filter := bson.M{
		"status": models.FriendshipAccepted,
		"$or": []bson.M{
			{"owner_id": userID},
			{"friend_id": userID},
		},
	}
	return r.list(ctx, filter, options.Find().SetSort(bson.D{{Key: "accepted_at", Value: 1}}))
}

// ListPendingReceived returns pending edges addressed to userID.
func (r *FriendshipRepository) ListPendingReceived(ctx context.Context, userID primitive.ObjectID) ([]models.Friendship, error) {
	filter := bson.M{
		"friend_id": userID,
		"status":    models.FriendshipPending,
	}
	return r.list(ctx, filter, options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}}))
}

func (r *FriendshipRepository) list(ctx context.Context, filter bson.M, opts *options.FindOptions) ([]models.Friendship, error) {
	var cursor *mongo.Cursor
	var err error
	if opts != nil {
		cursor, err = r.collection.Find(ctx, filter, opts)
	} else {
		cursor, err = r.collection.Find(ctx, filter)
	}
	if err != nil {
		logger.Log.WithError(err).Error("Failed to list friendships")
		return nil, fmt.Errorf("failed to list friendships: %v", err)
	}
	defer cursor.Close(ctx)

	var friendships []models.Friendship
	for cursor.Next(ctx) {
		var friendship models.Friendship
		if err := cursor.Decode(&friendship); err != nil {
			return nil, err
		}
		friendships = append(friendships, friendship)
	}

	return friendships, nil
}
