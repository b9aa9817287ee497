package repository

import (
	"context"
	"fmt"
	bookingserrors "roombook/internal/bookings/errors"
	"roombook/pkg/model"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const RoomNightsCollectionName = "Room_nights"

// RoomNightRepository manages the per-night claims backing the no-overlap
// guarantee. Both methods are meant to run inside the caller's transaction.
type RoomNightRepository interface {
	Claim(ctx context.Context, booking *model.Booking) error
	Release(ctx context.Context, bookingID string) error
}

type mongoRoomNightRepository struct {
	collection *mongo.Collection
}

func newMongoRoomNightRepository(db *mongo.Database) RoomNightRepository {
	return &mongoRoomNightRepository{
		collection: db.Collection(RoomNightsCollectionName),
	}
}

// Claim inserts one document per night of the booking. Returns ErrDateConflict
// if any night is already held by another booking.
func (r *mongoRoomNightRepository) Claim(ctx context.Context, booking *model.Booking) error {
	claims := model.RoomNightsFor(booking, time.Now().UTC().Truncate(time.Millisecond))
	if len(claims) == 0 {
		return nil
	}

	docs := make([]any, 0, len(claims))
	for _, c := range claims {
		docs = append(docs, c)
	}

	_, err := r.collection.InsertMany(ctx, docs, options.InsertMany().SetOrdered(true))
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return bookingserrors.ErrDateConflict
		}
		return storeError("failed to claim room nights", err)
	}
	return nil
}

func (r *mongoRoomNightRepository) Release(ctx context.Context, bookingID string) error {
	if _, err := r.collection.DeleteMany(ctx, bson.M{"booking_id": bookingID}); err != nil {
		return storeError(fmt.Sprintf("failed to release room nights of %s", bookingID), err)
	}
	return nil
}
