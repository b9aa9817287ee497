package repository

import (
	"context"
	"errors"
	"fmt"
	bookingserrors "roombook/internal/bookings/errors"
	"roombook/pkg/config"
	mongotx "roombook/pkg/db/mongo"
	"roombook/pkg/model"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

const (
	CollectionName = "Bookings"
)

// BookingRepository is the booking store. Every write that can make a booking
// active or move its dates is conditional: it fails with ErrDateConflict when
// another active booking holds one of the nights at write time.
type BookingRepository interface {
	Insert(ctx context.Context, booking *model.Booking) error
	FindByID(ctx context.Context, id string) (*model.Booking, error)
	FindAll(ctx context.Context, limit int, offset int64) ([]*model.Booking, error)
	Count(ctx context.Context) (int64, error)
	FindActiveOverlap(ctx context.Context, roomID string, checkIn, checkOut model.Date, excludeID string) ([]*model.Booking, error)
	// UpdateStatus is a compare-and-swap: ErrStateConflict when the current
	// status is not expected.
	UpdateStatus(ctx context.Context, id string, expected, next string) (*model.Booking, error)
	UpdateDates(ctx context.Context, id string, checkIn, checkOut model.Date) (*model.Booking, error)
	DeleteByID(ctx context.Context, id string) (bool, error)
	Healthy(ctx context.Context) error
}

type mongoBookingRepository struct {
	cfg        *config.Config
	client     *mongo.Client
	collection *mongo.Collection
	nights     RoomNightRepository
	txManager  mongotx.TransactionManager
}

func NewMongoBookingRepository(cfg *config.Config) BookingRepository {
	db := cfg.Client.Mongo.Database(cfg.MongoDatabaseName)
	return &mongoBookingRepository{
		cfg:        cfg,
		client:     cfg.Client.Mongo,
		collection: db.Collection(CollectionName),
		nights:     newMongoRoomNightRepository(db),
		txManager:  mongotx.NewTransactionManager(cfg.Client.Mongo),
	}
}

// withTimeout wraps the context with a timeout if not already in a transaction.
// A SessionContext is returned unchanged; the transaction as a whole is bounded
// by the timeout set before it started.
func (r *mongoBookingRepository) withTimeout(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if _, ok := ctx.(mongo.SessionContext); ok {
		return ctx, func() {}
	}

	deadline, hasDeadline := ctx.Deadline()
	if !hasDeadline {
		return context.WithTimeout(ctx, timeout)
	}

	remaining := time.Until(deadline)
	if remaining < timeout {
		return context.WithTimeout(ctx, remaining)
	}

	return context.WithTimeout(ctx, timeout)
}

func (r *mongoBookingRepository) Insert(ctx context.Context, booking *model.Booking) error {
	ctx, cancel := r.withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	now := time.Now().UTC().Truncate(time.Millisecond)
	booking.ID = primitive.NewObjectID().Hex()
	booking.CreatedAt = now
	booking.UpdatedAt = now

	err := r.txManager.ExecuteTransaction(ctx, func(sessCtx mongo.SessionContext) error {
		if booking.IsActive() {
			if err := r.claim(sessCtx, booking); err != nil {
				return err
			}
		}
		if _, err := r.collection.InsertOne(sessCtx, booking); err != nil {
			return storeError("failed to insert booking", err)
		}
		return nil
	})
	if err != nil {
		booking.ID = ""
		return err
	}
	return nil
}

func (r *mongoBookingRepository) FindByID(ctx context.Context, id string) (*model.Booking, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	if !primitive.IsValidObjectID(id) {
		return nil, fmt.Errorf("%w: %s", bookingserrors.ErrInvalidID, id)
	}

	var booking model.Booking
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&booking)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, bookingserrors.ErrNotFound
		}
		return nil, storeError("failed to find booking", err)
	}

	return &booking, nil
}

func (r *mongoBookingRepository) FindAll(ctx context.Context, limit int, offset int64) ([]*model.Booking, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	opts := options.Find().
		SetSort(bson.D{{Key: "check_in_date", Value: 1}, {Key: "created_at", Value: 1}}).
		SetLimit(int64(limit)).
		SetSkip(offset)

	cursor, err := r.collection.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, storeError("failed to find bookings", err)
	}
	defer cursor.Close(ctx)

	var bookings []*model.Booking
	if err = cursor.All(ctx, &bookings); err != nil {
		return nil, storeError("failed to decode bookings", err)
	}

	return bookings, nil
}

func (r *mongoBookingRepository) Count(ctx context.Context) (int64, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	count, err := r.collection.CountDocuments(ctx, bson.M{})
	if err != nil {
		return 0, storeError("failed to count bookings", err)
	}

	return count, nil
}

func (r *mongoBookingRepository) FindActiveOverlap(ctx context.Context, roomID string, checkIn, checkOut model.Date, excludeID string) ([]*model.Booking, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	opts := options.Find().SetSort(bson.D{{Key: "check_in_date", Value: 1}})

	cursor, err := r.collection.Find(ctx, buildOverlapFilter(roomID, checkIn, checkOut, excludeID), opts)
	if err != nil {
		return nil, storeError("failed to find overlapping bookings", err)
	}
	defer cursor.Close(ctx)

	var bookings []*model.Booking
	if err = cursor.All(ctx, &bookings); err != nil {
		return nil, storeError("failed to decode overlapping bookings", err)
	}

	return bookings, nil
}

func (r *mongoBookingRepository) UpdateStatus(ctx context.Context, id string, expected, next string) (*model.Booking, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	if !primitive.IsValidObjectID(id) {
		return nil, fmt.Errorf("%w: %s", bookingserrors.ErrInvalidID, id)
	}

	var updated model.Booking
	err := r.txManager.ExecuteTransaction(ctx, func(sessCtx mongo.SessionContext) error {
		current, err := r.findInSession(sessCtx, id)
		if err != nil {
			return err
		}
		if current.Status != expected {
			return fmt.Errorf("%w: expected %s, found %s", bookingserrors.ErrStateConflict, expected, current.Status)
		}

		switch {
		case current.IsActive() && !model.IsActiveStatus(next):
			if err := r.nights.Release(sessCtx, id); err != nil {
				return err
			}
		case !current.IsActive() && model.IsActiveStatus(next):
			if err := r.claim(sessCtx, current); err != nil {
				return err
			}
		case model.IsActiveStatus(next):
			if err := r.ensureNoOverlap(sessCtx, current); err != nil {
				return err
			}
		}

		filter := bson.M{"_id": id, "status": expected}
		update := bson.M{
			"$set": bson.M{
				"status":     next,
				"updated_at": time.Now().UTC().Truncate(time.Millisecond),
			},
		}
		opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

		err = r.collection.FindOneAndUpdate(sessCtx, filter, update, opts).Decode(&updated)
		if err != nil {
			if errors.Is(err, mongo.ErrNoDocuments) {
				return bookingserrors.ErrStateConflict
			}
			return storeError("failed to update booking status", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &updated, nil
}

func (r *mongoBookingRepository) UpdateDates(ctx context.Context, id string, checkIn, checkOut model.Date) (*model.Booking, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	if !primitive.IsValidObjectID(id) {
		return nil, fmt.Errorf("%w: %s", bookingserrors.ErrInvalidID, id)
	}

	var updated model.Booking
	err := r.txManager.ExecuteTransaction(ctx, func(sessCtx mongo.SessionContext) error {
		current, err := r.findInSession(sessCtx, id)
		if err != nil {
			return err
		}
		if !current.IsActive() {
			return fmt.Errorf("%w: booking is %s", bookingserrors.ErrStateConflict, current.Status)
		}

		moved := *current
		moved.CheckInDate = checkIn
		moved.CheckOutDate = checkOut

		if err := r.nights.Release(sessCtx, id); err != nil {
			return err
		}
		if err := r.claim(sessCtx, &moved); err != nil {
			return err
		}

		filter := bson.M{"_id": id, "status": current.Status}
		update := bson.M{
			"$set": bson.M{
				"check_in_date":  checkIn,
				"check_out_date": checkOut,
				"updated_at":     time.Now().UTC().Truncate(time.Millisecond),
			},
		}
		opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

		err = r.collection.FindOneAndUpdate(sessCtx, filter, update, opts).Decode(&updated)
		if err != nil {
			if errors.Is(err, mongo.ErrNoDocuments) {
				return bookingserrors.ErrStateConflict
			}
			return storeError("failed to update booking dates", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &updated, nil
}

func (r *mongoBookingRepository) DeleteByID(ctx context.Context, id string) (bool, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	if !primitive.IsValidObjectID(id) {
		return false, fmt.Errorf("%w: %s", bookingserrors.ErrInvalidID, id)
	}

	var deleted bool
	err := r.txManager.ExecuteTransaction(ctx, func(sessCtx mongo.SessionContext) error {
		result, err := r.collection.DeleteOne(sessCtx, bson.M{"_id": id})
		if err != nil {
			return storeError("failed to delete booking", err)
		}
		deleted = result.DeletedCount > 0
		if !deleted {
			return nil
		}
		return r.nights.Release(sessCtx, id)
	})
	if err != nil {
		return false, err
	}
	return deleted, nil
}

func (r *mongoBookingRepository) Healthy(ctx context.Context) error {
	ctx, cancel := r.withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	if err := r.client.Ping(ctx, readpref.Primary()); err != nil {
		return fmt.Errorf("%w: %w", bookingserrors.ErrStoreUnavailable, err)
	}
	return nil
}

// claim takes the booking's nights and re-checks the bookings collection in
// the same transaction.
func (r *mongoBookingRepository) claim(sessCtx mongo.SessionContext, booking *model.Booking) error {
	if err := r.nights.Claim(sessCtx, booking); err != nil {
		return err
	}
	return r.ensureNoOverlap(sessCtx, booking)
}

func (r *mongoBookingRepository) ensureNoOverlap(sessCtx mongo.SessionContext, booking *model.Booking) error {
	filter := buildOverlapFilter(booking.RoomID, booking.CheckInDate, booking.CheckOutDate, booking.ID)
	count, err := r.collection.CountDocuments(sessCtx, filter, options.Count().SetLimit(1))
	if err != nil {
		return storeError("failed to re-check overlap", err)
	}
	if count > 0 {
		return bookingserrors.ErrDateConflict
	}
	return nil
}

func (r *mongoBookingRepository) findInSession(sessCtx mongo.SessionContext, id string) (*model.Booking, error) {
	var booking model.Booking
	err := r.collection.FindOne(sessCtx, bson.M{"_id": id}).Decode(&booking)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, bookingserrors.ErrNotFound
		}
		return nil, storeError("failed to find booking", err)
	}
	return &booking, nil
}

func buildOverlapFilter(roomID string, checkIn, checkOut model.Date, excludeID string) bson.M {
	filter := bson.M{
		"room_id":        roomID,
		"status":         bson.M{"$in": model.ActiveStatuses},
		"check_in_date":  bson.M{"$lt": checkOut},
		"check_out_date": bson.M{"$gt": checkIn},
	}
	if excludeID != "" {
		filter["_id"] = bson.M{"$ne": excludeID}
	}
	return filter
}
