package handler

import (
	"context"
	"net/http"

	"roombook/internal/bookings/events"
	"roombook/internal/bookings/service"
	httputil "roombook/pkg/http"
	"roombook/pkg/logger"
	"roombook/pkg/middleware"
	"roombook/pkg/model"
	"roombook/pkg/sanitizer"

	"github.com/julienschmidt/httprouter"
)

type BookingHandler struct {
	service     service.BookingService
	log         *logger.Logger
	authEnabled bool
}

// NewBookingHandler wires the booking routes. With authEnabled the confirm and
// delete routes require an admin token.
func NewBookingHandler(service service.BookingService, log *logger.Logger, authEnabled bool) *BookingHandler {
	return &BookingHandler{
		service:     service,
		log:         log,
		authEnabled: authEnabled,
	}
}

func (h *BookingHandler) Create(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var booking model.Booking
	if err := httputil.DecodeJSON(r, &booking); err != nil {
		h.writeError(w, "Create", err)
		return
	}

	if err := h.service.Create(requestContext(r), &booking); err != nil {
		h.writeError(w, "Create", err)
		return
	}

	if err := httputil.WriteCreated(w, booking); err != nil {
		h.log.Error("failed to write created response", "handler", "Create", "operation", "WriteCreated", "error", err)
	}
}

func (h *BookingHandler) GetByID(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	booking, err := h.service.GetByID(r.Context(), ps.ByName("id"))
	if err != nil {
		h.writeError(w, "GetByID", err)
		return
	}

	if err := httputil.WriteSuccess(w, booking); err != nil {
		h.log.Error("failed to write success response", "handler", "GetByID", "operation", "WriteSuccess", "error", err)
	}
}

func (h *BookingHandler) GetAll(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	limit, offset, err := httputil.ExtractLimitOffset(r)
	if err != nil {
		h.writeError(w, "GetAll", err)
		return
	}

	bookings, total, err := h.service.GetAll(r.Context(), limit, offset)
	if err != nil {
		h.writeError(w, "GetAll", err)
		return
	}

	if err := httputil.WritePaginated(w, bookings, total, limit, offset); err != nil {
		h.log.Error("failed to write paginated response", "handler", "GetAll", "operation", "WritePaginated", "error", err)
	}
}

func (h *BookingHandler) UpdateDates(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	var dates model.BookingDatesUpdate
	if err := httputil.DecodeJSON(r, &dates); err != nil {
		h.writeError(w, "UpdateDates", err)
		return
	}

	booking, err := h.service.UpdateDates(requestContext(r), ps.ByName("id"), dates.CheckInDate, dates.CheckOutDate)
	if err != nil {
		h.writeError(w, "UpdateDates", err)
		return
	}

	if err := httputil.WriteSuccess(w, booking); err != nil {
		h.log.Error("failed to write success response", "handler", "UpdateDates", "operation", "WriteSuccess", "error", err)
	}
}

func (h *BookingHandler) Confirm(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	booking, err := h.service.Confirm(requestContext(r), ps.ByName("id"))
	if err != nil {
		h.writeError(w, "Confirm", err)
		return
	}

	if err := httputil.WriteSuccess(w, booking); err != nil {
		h.log.Error("failed to write success response", "handler", "Confirm", "operation", "WriteSuccess", "error", err)
	}
}

func (h *BookingHandler) Cancel(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	booking, err := h.service.Cancel(requestContext(r), ps.ByName("id"))
	if err != nil {
		h.writeError(w, "Cancel", err)
		return
	}

	if err := httputil.WriteSuccess(w, booking); err != nil {
		h.log.Error("failed to write success response", "handler", "Cancel", "operation", "WriteSuccess", "error", err)
	}
}

func (h *BookingHandler) Delete(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	if err := h.service.Delete(requestContext(r), ps.ByName("id")); err != nil {
		h.writeError(w, "Delete", err)
		return
	}

	httputil.WriteNoContent(w)
}

// Availability answers whether a room is free for [check_in, check_out).
// exclude_id lets a client test a move of an existing booking.
func (h *BookingHandler) Availability(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	checkIn, checkOut, err := httputil.ExtractDateRange(r)
	if err != nil {
		h.writeError(w, "Availability", err)
		return
	}
	roomID := sanitizer.NormalizeRoomID(ps.ByName("room_id"))

	available, err := h.service.IsAvailable(r.Context(), roomID, checkIn, checkOut, r.URL.Query().Get("exclude_id"))
	if err != nil {
		h.writeError(w, "Availability", err)
		return
	}

	if err := httputil.WriteSuccess(w, model.Availability{
		RoomID:       roomID,
		CheckInDate:  checkIn,
		CheckOutDate: checkOut,
		Available:    available,
	}); err != nil {
		h.log.Error("failed to write success response", "handler", "Availability", "operation", "WriteSuccess", "error", err)
	}
}

func (h *BookingHandler) RegisterRoutes(router *httprouter.Router) {
	router.POST("/api/v1/bookings", h.Create)
	router.GET("/api/v1/bookings", h.GetAll)
	router.GET("/api/v1/bookings/id/:id", h.GetByID)
	router.PATCH("/api/v1/bookings/id/:id/dates", h.UpdateDates)
	router.POST("/api/v1/bookings/id/:id/confirm", h.adminOnly(h.Confirm))
	router.POST("/api/v1/bookings/id/:id/cancel", h.Cancel)
	router.DELETE("/api/v1/bookings/id/:id", h.adminOnly(h.Delete))
	router.GET("/api/v1/rooms/:room_id/availability", h.Availability)
}

func (h *BookingHandler) adminOnly(next httprouter.Handle) httprouter.Handle {
	if !h.authEnabled {
		return next
	}
	return middleware.RequireRole(model.RoleAdmin, h.log, next)
}

func (h *BookingHandler) writeError(w http.ResponseWriter, handler string, err error) {
	if writeErr := httputil.WriteError(w, err); writeErr != nil {
		h.log.Error("failed to write error response", "handler", handler, "operation", "WriteError", "error", writeErr)
	}
}

// requestContext carries the request id into published events.
func requestContext(r *http.Request) context.Context {
	return events.WithCorrelationID(r.Context(), middleware.RequestIDFromContext(r.Context()))
}
