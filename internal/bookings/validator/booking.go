package validator

import (
	"errors"
	"fmt"
	"roombook/pkg/logger"
	"roombook/pkg/model"
	"roombook/pkg/validation"
	"strings"

	"github.com/go-playground/validator/v10"
)

const (
	fieldRoomID   = "room_id"
	fieldCheckIn  = "check_in_date"
	fieldCheckOut = "check_out_date"
)

type BookingValidator struct {
	validate      *validator.Validate
	logger        *logger.Logger
	maxStayNights int
}

func NewBookingValidator(log *logger.Logger, maxStayNights int) *BookingValidator {
	v, err := validation.New()
	if err != nil {
		log.Fatal("Failed to initialize booking validator", "error", err)
	}

	log.Info("Booking validator initialized successfully", "max_stay_nights", maxStayNights)

	return &BookingValidator{
		validate:      v,
		logger:        log,
		maxStayNights: maxStayNights,
	}
}

// Validate checks the customer fields and the stay in one pass, so the caller
// gets every failing field at once. today is the first acceptable check-in day.
func (v *BookingValidator) Validate(booking *model.Booking, today model.Date) error {
	var errs validation.ValidationErrors

	if err := v.validate.Struct(booking); err != nil {
		var validationErrs validator.ValidationErrors
		if !errors.As(err, &validationErrs) {
			return err
		}
		errs = append(errs, validation.Translate(validationErrs)...)
	}

	errs = append(errs, v.ValidateStay(booking.CheckInDate, booking.CheckOutDate, today)...)

	if len(errs) > 0 {
		return errs
	}
	return nil
}

// ValidateStay checks a requested interval for a new or moved booking.
func (v *BookingValidator) ValidateStay(checkIn, checkOut, today model.Date) validation.ValidationErrors {
	errs := validateInterval(checkIn, checkOut)
	if len(errs) > 0 {
		return errs
	}

	if checkIn.Before(today) {
		errs = append(errs, validation.ValidationError{
			Field:   fieldCheckIn,
			Message: fmt.Sprintf("%s cannot be in the past (today is %s)", fieldCheckIn, today),
		})
	}
	if nights := checkIn.DaysUntil(checkOut); v.maxStayNights > 0 && nights > v.maxStayNights {
		errs = append(errs, validation.ValidationError{
			Field:   fieldCheckOut,
			Message: fmt.Sprintf("stay of %d nights exceeds the maximum of %d", nights, v.maxStayNights),
		})
	}
	return errs
}

// ValidateRange checks the inputs of an availability query. Past ranges are
// allowed since the query has no side effects.
func (v *BookingValidator) ValidateRange(roomID string, checkIn, checkOut model.Date) error {
	var errs validation.ValidationErrors
	if strings.TrimSpace(roomID) == "" {
		errs = append(errs, validation.ValidationError{
			Field:   fieldRoomID,
			Message: fmt.Sprintf("%s is required", fieldRoomID),
		})
	}
	errs = append(errs, validateInterval(checkIn, checkOut)...)

	if len(errs) > 0 {
		return errs
	}
	return nil
}

func validateInterval(checkIn, checkOut model.Date) validation.ValidationErrors {
	var errs validation.ValidationErrors
	if checkIn.IsZero() {
		errs = append(errs, validation.ValidationError{
			Field:   fieldCheckIn,
			Message: fmt.Sprintf("%s is required", fieldCheckIn),
		})
	}
	if checkOut.IsZero() {
		errs = append(errs, validation.ValidationError{
			Field:   fieldCheckOut,
			Message: fmt.Sprintf("%s is required", fieldCheckOut),
		})
	}
	if len(errs) > 0 {
		return errs
	}

	if !checkOut.After(checkIn) {
		errs = append(errs, validation.ValidationError{
			Field:   fieldCheckOut,
			Message: fmt.Sprintf("%s must be after %s", fieldCheckOut, fieldCheckIn),
		})
	}
	return errs
}
