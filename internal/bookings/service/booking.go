package service

import (
	"context"
	"errors"
	"fmt"
	bookingserrors "roombook/internal/bookings/errors"
	"roombook/internal/bookings/events"
	"roombook/internal/bookings/repository"
	"roombook/internal/bookings/validator"
	"roombook/pkg/config"
	apperrors "roombook/pkg/errors"
	"roombook/pkg/model"
	"roombook/pkg/sanitizer"
	"roombook/pkg/validation"
	"sync"
	"time"
)

const (
	// maxCancelAttempts bounds the re-read loop when the status moves between
	// the read and the compare-and-swap.
	maxCancelAttempts = 3

	publishTimeout = 5 * time.Second

	storeName = "Booking store"
)

type BookingService interface {
	IsAvailable(ctx context.Context, roomID string, checkIn, checkOut model.Date, excludeID string) (bool, error)
	Create(ctx context.Context, booking *model.Booking) error
	GetByID(ctx context.Context, id string) (*model.Booking, error)
	GetAll(ctx context.Context, limit int, offset int64) ([]*model.Booking, int64, error)
	Confirm(ctx context.Context, id string) (*model.Booking, error)
	Cancel(ctx context.Context, id string) (*model.Booking, error)
	UpdateDates(ctx context.Context, id string, checkIn, checkOut model.Date) (*model.Booking, error)
	Delete(ctx context.Context, id string) error
}

type Option func(*bookingService)

// WithClock replaces the clock used to decide what "today" is.
func WithClock(now func() time.Time) Option {
	return func(s *bookingService) {
		s.now = now
	}
}

type bookingService struct {
	repo      repository.BookingRepository
	validator *validator.BookingValidator
	publisher events.Publisher
	cfg       *config.Config
	now       func() time.Time
}

func NewBookingService(
	repo repository.BookingRepository,
	validator *validator.BookingValidator,
	publisher events.Publisher,
	cfg *config.Config,
	opts ...Option,
) BookingService {
	if publisher == nil {
		publisher = events.NewNoopPublisher()
	}
	s := &bookingService{
		repo:      repo,
		validator: validator,
		publisher: publisher,
		cfg:       cfg,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *bookingService) IsAvailable(ctx context.Context, roomID string, checkIn, checkOut model.Date, excludeID string) (bool, error) {
	roomID = sanitizer.NormalizeRoomID(roomID)
	if err := s.validator.ValidateRange(roomID, checkIn, checkOut); err != nil {
		return false, s.validationError("Availability query validation failed", err)
	}

	overlapping, err := s.repo.FindActiveOverlap(ctx, roomID, checkIn, checkOut, excludeID)
	if err != nil {
		s.cfg.Log.Error("Failed to check room availability",
			"room_id", roomID,
			"check_in_date", checkIn,
			"check_out_date", checkOut,
			"error", err,
		)
		return false, s.translateStoreError(err, excludeID)
	}

	return len(overlapping) == 0, nil
}

func (s *bookingService) Create(ctx context.Context, booking *model.Booking) error {
	booking.ID = ""
	booking.Status = model.StatusPending
	s.sanitize(booking)

	if err := s.validator.Validate(booking, s.today()); err != nil {
		return s.validationError("Booking validation failed", err)
	}

	available, err := s.IsAvailable(ctx, booking.RoomID, booking.CheckInDate, booking.CheckOutDate, "")
	if err != nil {
		return err
	}
	if !available {
		return s.conflict(booking.RoomID, booking.CheckInDate, booking.CheckOutDate)
	}

	if err := s.repo.Insert(ctx, booking); err != nil {
		if errors.Is(err, bookingserrors.ErrDateConflict) {
			s.cfg.Log.Info("Booking lost a concurrent write for its dates",
				"room_id", booking.RoomID,
				"check_in_date", booking.CheckInDate,
				"check_out_date", booking.CheckOutDate,
			)
		} else {
			s.cfg.Log.Error("Failed to create booking", "room_id", booking.RoomID, "error", err)
		}
		return s.translateStoreError(err, "")
	}

	s.cfg.Log.Info("Booking created successfully",
		"id", booking.ID,
		"room_id", booking.RoomID,
		"check_in_date", booking.CheckInDate,
		"check_out_date", booking.CheckOutDate,
	)
	s.publish(ctx, events.TypeCreated, booking)
	return nil
}

func (s *bookingService) GetByID(ctx context.Context, id string) (*model.Booking, error) {
	if id == "" {
		return nil, apperrors.InvalidInput("Booking ID cannot be empty")
	}

	booking, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, s.translateStoreError(err, id)
	}

	return booking, nil
}

func (s *bookingService) GetAll(ctx context.Context, limit int, offset int64) ([]*model.Booking, int64, error) {
	limit = config.NormalizePaginationLimit(limit)
	offset = config.NormalizeOffset(offset)

	var count int64
	var bookings []*model.Booking
	var errCount, errFind error
	var wg sync.WaitGroup
	wg.Add(2)

	go func() {
		defer wg.Done()
		count, errCount = s.repo.Count(ctx)
		if errCount != nil {
			s.cfg.Log.Error("Failed to count bookings", "error", errCount)
			errCount = s.translateStoreError(errCount, "")
		}
	}()

	go func() {
		defer wg.Done()
		bookings, errFind = s.repo.FindAll(ctx, limit, offset)
		if errFind != nil {
			s.cfg.Log.Error("Failed to list bookings", "limit", limit, "offset", offset, "error", errFind)
			errFind = s.translateStoreError(errFind, "")
		}
	}()

	wg.Wait()
	if errCount != nil {
		return nil, 0, errCount
	}
	if errFind != nil {
		return nil, 0, errFind
	}

	return bookings, count, nil
}

// Confirm re-checks availability before the status swap, and the store checks
// again inside the swap.
func (s *bookingService) Confirm(ctx context.Context, id string) (*model.Booking, error) {
	booking, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if booking.Status != model.StatusPending {
		return nil, apperrors.InvalidState(fmt.Sprintf("Only pending bookings can be confirmed, booking is %s", booking.Status))
	}

	available, err := s.IsAvailable(ctx, booking.RoomID, booking.CheckInDate, booking.CheckOutDate, booking.ID)
	if err != nil {
		return nil, err
	}
	if !available {
		s.cfg.Log.Warn("Booking cannot be confirmed, its dates are held by another booking",
			"id", id,
			"room_id", booking.RoomID,
		)
		return nil, s.conflict(booking.RoomID, booking.CheckInDate, booking.CheckOutDate)
	}

	confirmed, err := s.repo.UpdateStatus(ctx, id, model.StatusPending, model.StatusConfirmed)
	if err != nil {
		s.cfg.Log.Error("Failed to confirm booking", "id", id, "error", err)
		if errors.Is(err, bookingserrors.ErrDateConflict) {
			return nil, s.conflict(booking.RoomID, booking.CheckInDate, booking.CheckOutDate)
		}
		return nil, s.translateStoreError(err, id)
	}

	s.cfg.Log.Info("Booking confirmed successfully", "id", id, "room_id", confirmed.RoomID)
	s.publish(ctx, events.TypeConfirmed, confirmed)
	return confirmed, nil
}

// Cancel is idempotent: cancelling a cancelled booking returns it unchanged.
func (s *bookingService) Cancel(ctx context.Context, id string) (*model.Booking, error) {
	for attempt := 1; attempt <= maxCancelAttempts; attempt++ {
		booking, err := s.GetByID(ctx, id)
		if err != nil {
			return nil, err
		}
		if booking.Status == model.StatusCancelled {
			return booking, nil
		}

		cancelled, err := s.repo.UpdateStatus(ctx, id, booking.Status, model.StatusCancelled)
		if err != nil {
			if errors.Is(err, bookingserrors.ErrStateConflict) {
				s.cfg.Log.Debug("Booking status moved during cancel, retrying", "id", id, "attempt", attempt)
				continue
			}
			s.cfg.Log.Error("Failed to cancel booking", "id", id, "error", err)
			return nil, s.translateStoreError(err, id)
		}

		s.cfg.Log.Info("Booking cancelled successfully", "id", id, "previous_status", booking.Status)
		s.publish(ctx, events.TypeCancelled, cancelled)
		return cancelled, nil
	}

	return nil, apperrors.InvalidState("Booking status kept changing, please retry")
}

func (s *bookingService) UpdateDates(ctx context.Context, id string, checkIn, checkOut model.Date) (*model.Booking, error) {
	if errs := s.validator.ValidateStay(checkIn, checkOut, s.today()); len(errs) > 0 {
		return nil, s.validationError("Booking dates validation failed", errs)
	}

	booking, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !booking.IsActive() {
		return nil, apperrors.InvalidState(fmt.Sprintf("Dates of a %s booking cannot be changed", booking.Status))
	}

	available, err := s.IsAvailable(ctx, booking.RoomID, checkIn, checkOut, booking.ID)
	if err != nil {
		return nil, err
	}
	if !available {
		return nil, s.conflict(booking.RoomID, checkIn, checkOut)
	}

	updated, err := s.repo.UpdateDates(ctx, id, checkIn, checkOut)
	if err != nil {
		s.cfg.Log.Error("Failed to update booking dates", "id", id, "error", err)
		if errors.Is(err, bookingserrors.ErrStateConflict) {
			return nil, apperrors.InvalidState("Booking was cancelled while its dates were being changed")
		}
		return nil, s.translateStoreError(err, id)
	}

	s.cfg.Log.Info("Booking dates updated successfully",
		"id", id,
		"check_in_date", updated.CheckInDate,
		"check_out_date", updated.CheckOutDate,
	)
	s.publish(ctx, events.TypeRescheduled, updated)
	return updated, nil
}

func (s *bookingService) Delete(ctx context.Context, id string) error {
	booking, err := s.GetByID(ctx, id)
	if err != nil {
		return err
	}

	deleted, err := s.repo.DeleteByID(ctx, id)
	if err != nil {
		s.cfg.Log.Error("Failed to delete booking", "id", id, "error", err)
		return s.translateStoreError(err, id)
	}
	if !deleted {
		return apperrors.NotFoundWithID("Booking", id)
	}

	s.cfg.Log.Info("Booking deleted successfully", "id", id)
	s.publish(ctx, events.TypeDeleted, booking)
	return nil
}

// --- Helpers ---

func (s *bookingService) today() model.Date {
	return model.NewDate(s.now())
}

func (s *bookingService) sanitize(b *model.Booking) {
	b.RoomID = sanitizer.NormalizeRoomID(b.RoomID)
	b.CustomerName = sanitizer.NormalizeName(b.CustomerName)
	b.CustomerAddress = sanitizer.NormalizeAddress(b.CustomerAddress)
	b.CustomerMobileNo = sanitizer.NormalizeMobile(b.CustomerMobileNo, sanitizer.DefaultRegion)
	b.CustomerNationalID = sanitizer.DigitsOnly(b.CustomerNationalID)
}

func (s *bookingService) validationError(message string, err error) error {
	var fieldErrs validation.ValidationErrors
	if errors.As(err, &fieldErrs) {
		s.cfg.Log.Warn(message, "errors", len(fieldErrs), "error", err)
		return apperrors.Validation(message, fieldErrs.Details())
	}
	s.cfg.Log.Error(message, "error", err)
	return apperrors.Internal(message, err)
}

func (s *bookingService) conflict(roomID string, checkIn, checkOut model.Date) error {
	return apperrors.Conflict(fmt.Sprintf(
		"Room %s is already booked for some of the nights between %s and %s",
		roomID, checkIn, checkOut,
	))
}

// translateStoreError maps store sentinels to API errors. A store failure is
// never reported as a conflict or as available.
func (s *bookingService) translateStoreError(err error, id string) error {
	if apperrors.IsAppError(err) {
		return err
	}

	switch {
	case errors.Is(err, bookingserrors.ErrDateConflict):
		return apperrors.Conflict("Room is already booked for some of the requested nights")
	case errors.Is(err, bookingserrors.ErrStateConflict):
		return apperrors.InvalidState("Booking status changed concurrently, please retry")
	case errors.Is(err, bookingserrors.ErrNotFound):
		return apperrors.NotFoundWithID("Booking", id)
	case errors.Is(err, bookingserrors.ErrInvalidID):
		return apperrors.InvalidInput("Invalid booking ID format")
	case errors.Is(err, bookingserrors.ErrStoreUnavailable),
		errors.Is(err, context.DeadlineExceeded),
		errors.Is(err, context.Canceled):
		return apperrors.Unavailable(storeName, err)
	default:
		return apperrors.Internal("Booking store operation failed", err)
	}
}

// publish runs after the write has committed; a failure is logged and the
// request still succeeds.
func (s *bookingService) publish(ctx context.Context, eventType string, booking *model.Booking) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), publishTimeout)
	defer cancel()

	event := events.NewEvent(eventType, booking, s.now())
	if err := s.publisher.Publish(ctx, event); err != nil {
		s.cfg.Log.Error("Failed to publish booking event",
			"event_type", eventType,
			"booking_id", booking.ID,
			"error", err,
		)
	}
}
