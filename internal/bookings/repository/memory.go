package repository

import (
	"context"
	"fmt"
	bookingserrors "roombook/internal/bookings/errors"
	"roombook/pkg/model"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// memoryBookingRepository keeps bookings in process. Each write re-checks
// overlap under the same lock that guards the map, which is what makes its
// writes conditional. Used by tests and STORE_BACKEND=memory.
type memoryBookingRepository struct {
	mu       sync.RWMutex
	bookings map[string]*model.Booking
	now      func() time.Time
}

func NewMemoryBookingRepository() BookingRepository {
	return &memoryBookingRepository{
		bookings: make(map[string]*model.Booking),
		now:      func() time.Time { return time.Now().UTC() },
	}
}

func (r *memoryBookingRepository) Insert(ctx context.Context, booking *model.Booking) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%w: %w", bookingserrors.ErrStoreUnavailable, err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if booking.IsActive() && r.overlapsLocked(booking.RoomID, booking.CheckInDate, booking.CheckOutDate, "") {
		return bookingserrors.ErrDateConflict
	}

	now := r.now()
	booking.ID = uuid.NewString()
	booking.CreatedAt = now
	booking.UpdatedAt = now

	stored := *booking
	r.bookings[booking.ID] = &stored
	return nil
}

func (r *memoryBookingRepository) FindByID(ctx context.Context, id string) (*model.Booking, error) {
	if err := uuid.Validate(id); err != nil {
		return nil, fmt.Errorf("%w: %s", bookingserrors.ErrInvalidID, id)
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	b, ok := r.bookings[id]
	if !ok {
		return nil, bookingserrors.ErrNotFound
	}
	out := *b
	return &out, nil
}

func (r *memoryBookingRepository) FindAll(ctx context.Context, limit int, offset int64) ([]*model.Booking, error) {
	r.mu.RLock()
	all := make([]*model.Booking, 0, len(r.bookings))
	for _, b := range r.bookings {
		out := *b
		all = append(all, &out)
	}
	r.mu.RUnlock()

	sort.Slice(all, func(i, j int) bool {
		if !all[i].CheckInDate.Equal(all[j].CheckInDate) {
			return all[i].CheckInDate.Before(all[j].CheckInDate)
		}
		if !all[i].CreatedAt.Equal(all[j].CreatedAt) {
			return all[i].CreatedAt.Before(all[j].CreatedAt)
		}
		return all[i].ID < all[j].ID
	})

	if offset >= int64(len(all)) {
		return []*model.Booking{}, nil
	}
	end := offset + int64(limit)
	if limit <= 0 || end > int64(len(all)) {
		end = int64(len(all))
	}
	return all[offset:end], nil
}

func (r *memoryBookingRepository) Count(ctx context.Context) (int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return int64(len(r.bookings)), nil
}

func (r *memoryBookingRepository) FindActiveOverlap(ctx context.Context, roomID string, checkIn, checkOut model.Date, excludeID string) ([]*model.Booking, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%w: %w", bookingserrors.ErrStoreUnavailable, err)
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	var found []*model.Booking
	for _, b := range r.bookings {
		if conflicts(b, roomID, checkIn, checkOut, excludeID) {
			out := *b
			found = append(found, &out)
		}
	}
	sort.Slice(found, func(i, j int) bool {
		return found[i].CheckInDate.Before(found[j].CheckInDate)
	})
	return found, nil
}

func (r *memoryBookingRepository) UpdateStatus(ctx context.Context, id string, expected, next string) (*model.Booking, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%w: %w", bookingserrors.ErrStoreUnavailable, err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	b, ok := r.bookings[id]
	if !ok {
		return nil, bookingserrors.ErrNotFound
	}
	if b.Status != expected {
		return nil, fmt.Errorf("%w: expected %s, found %s", bookingserrors.ErrStateConflict, expected, b.Status)
	}
	if model.IsActiveStatus(next) && r.overlapsLocked(b.RoomID, b.CheckInDate, b.CheckOutDate, b.ID) {
		return nil, bookingserrors.ErrDateConflict
	}

	b.Status = next
	b.UpdatedAt = r.now()
	out := *b
	return &out, nil
}

func (r *memoryBookingRepository) UpdateDates(ctx context.Context, id string, checkIn, checkOut model.Date) (*model.Booking, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%w: %w", bookingserrors.ErrStoreUnavailable, err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	b, ok := r.bookings[id]
	if !ok {
		return nil, bookingserrors.ErrNotFound
	}
	if !b.IsActive() {
		return nil, fmt.Errorf("%w: booking is %s", bookingserrors.ErrStateConflict, b.Status)
	}
	if r.overlapsLocked(b.RoomID, checkIn, checkOut, b.ID) {
		return nil, bookingserrors.ErrDateConflict
	}

	b.CheckInDate = checkIn
	b.CheckOutDate = checkOut
	b.UpdatedAt = r.now()
	out := *b
	return &out, nil
}

func (r *memoryBookingRepository) DeleteByID(ctx context.Context, id string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, fmt.Errorf("%w: %w", bookingserrors.ErrStoreUnavailable, err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.bookings[id]; !ok {
		return false, nil
	}
	delete(r.bookings, id)
	return true, nil
}

func (r *memoryBookingRepository) Healthy(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%w: %w", bookingserrors.ErrStoreUnavailable, err)
	}
	return nil
}

func (r *memoryBookingRepository) overlapsLocked(roomID string, checkIn, checkOut model.Date, excludeID string) bool {
	for _, b := range r.bookings {
		if conflicts(b, roomID, checkIn, checkOut, excludeID) {
			return true
		}
	}
	return false
}

func conflicts(b *model.Booking, roomID string, checkIn, checkOut model.Date, excludeID string) bool {
	return b.RoomID == roomID &&
		b.IsActive() &&
		b.ID != excludeID &&
		model.Overlaps(b.CheckInDate, b.CheckOutDate, checkIn, checkOut)
}
