package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"roombook/internal/bookings/repository"
	"roombook/internal/bookings/service"
	"roombook/internal/bookings/validator"
	"roombook/pkg/auth"
	"roombook/pkg/config"
	apperrors "roombook/pkg/errors"
	"roombook/pkg/logger"
	"roombook/pkg/middleware"
	"roombook/pkg/model"
	"testing"
	"time"

	"github.com/julienschmidt/httprouter"
)

// Mock service for error mapping tests
type mockBookingService struct {
	service.BookingService

	getAllFunc      func(ctx context.Context, limit int, offset int64) ([]*model.Booking, int64, error)
	isAvailableFunc func(ctx context.Context, roomID string, checkIn, checkOut model.Date, excludeID string) (bool, error)
}

func (m *mockBookingService) GetAll(ctx context.Context, limit int, offset int64) ([]*model.Booking, int64, error) {
	return m.getAllFunc(ctx, limit, offset)
}

func (m *mockBookingService) IsAvailable(ctx context.Context, roomID string, checkIn, checkOut model.Date, excludeID string) (bool, error) {
	return m.isAvailableFunc(ctx, roomID, checkIn, checkOut, excludeID)
}

type envelope struct {
	Data       json.RawMessage `json:"data"`
	TotalCount int64           `json:"total_count"`
	Limit      int             `json:"limit"`
	Error      string          `json:"error"`
	Code       string          `json:"code"`
}

func newRouter(t *testing.T, authEnabled bool) *httprouter.Router {
	t.Helper()
	log := logger.Discard()
	cfg := &config.Config{Log: log, MaxStayNights: config.DefaultMaxStayNights}
	svc := service.NewBookingService(
		repository.NewMemoryBookingRepository(),
		validator.NewBookingValidator(log, cfg.MaxStayNights),
		nil,
		cfg,
		service.WithClock(func() time.Time { return time.Date(2025, 5, 20, 0, 0, 0, 0, time.UTC) }),
	)

	router := httprouter.New()
	NewBookingHandler(svc, log, authEnabled).RegisterRoutes(router)
	return router
}

func do(t *testing.T, h http.Handler, method, path string, body any, mutate ...func(*http.Request)) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatal(err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	for _, m := range mutate {
		m(req)
	}

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	var env envelope
	if rec.Body.Len() > 0 {
		if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
			t.Fatalf("invalid JSON response %q: %v", rec.Body.String(), err)
		}
	}
	return rec, env
}

func bookingBody(roomID, checkIn, checkOut string) map[string]any {
	return map[string]any{
		"room_id":              roomID,
		"customer_name":        "Asha Verma",
		"customer_age":         34,
		"customer_address":     "12 MG Road, Bengaluru",
		"customer_mobile_no":   "9876543210",
		"customer_national_id": "123412341234",
		"check_in_date":        checkIn,
		"check_out_date":       checkOut,
	}
}

func decodeBooking(t *testing.T, env envelope) model.Booking {
	t.Helper()
	var b model.Booking
	if err := json.Unmarshal(env.Data, &b); err != nil {
		t.Fatalf("invalid booking payload %s: %v", env.Data, err)
	}
	return b
}

func TestBookingLifecycle(t *testing.T) {
	router := newRouter(t, false)

	rec, env := do(t, router, http.MethodPost, "/api/v1/bookings", bookingBody("R1", "2025-06-01", "2025-06-05"))
	if rec.Code != http.StatusCreated {
		t.Fatalf("create status = %d, body %s", rec.Code, rec.Body)
	}
	created := decodeBooking(t, env)
	if created.Status != model.StatusPending || created.ID == "" {
		t.Fatalf("unexpected booking %+v", created)
	}

	rec, env = do(t, router, http.MethodPost, "/api/v1/bookings", bookingBody("R1", "2025-06-04", "2025-06-06"))
	if rec.Code != http.StatusConflict || env.Code != apperrors.CodeConflict {
		t.Errorf("overlap: status = %d, code = %s", rec.Code, env.Code)
	}

	rec, env = do(t, router, http.MethodGet, "/api/v1/rooms/R1/availability?check_in=2025-06-05&check_out=2025-06-07", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("availability status = %d", rec.Code)
	}
	var availability model.Availability
	_ = json.Unmarshal(env.Data, &availability)
	if !availability.Available {
		t.Error("adjacent range should be available")
	}

	rec, env = do(t, router, http.MethodPost, "/api/v1/bookings/id/"+created.ID+"/confirm", nil)
	if rec.Code != http.StatusOK || decodeBooking(t, env).Status != model.StatusConfirmed {
		t.Errorf("confirm: status = %d, body %s", rec.Code, rec.Body)
	}

	rec, env = do(t, router, http.MethodPost, "/api/v1/bookings/id/"+created.ID+"/confirm", nil)
	if rec.Code != http.StatusConflict || env.Code != apperrors.CodeInvalidState {
		t.Errorf("second confirm: status = %d, code = %s", rec.Code, env.Code)
	}

	rec, env = do(t, router, http.MethodPatch, "/api/v1/bookings/id/"+created.ID+"/dates", map[string]string{
		"check_in_date":  "2025-06-02",
		"check_out_date": "2025-06-06",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("update dates: status = %d, body %s", rec.Code, rec.Body)
	}
	if moved := decodeBooking(t, env); moved.CheckInDate.String() != "2025-06-02" {
		t.Errorf("dates not moved: %+v", moved)
	}

	for i := 0; i < 2; i++ {
		rec, env = do(t, router, http.MethodPost, "/api/v1/bookings/id/"+created.ID+"/cancel", nil)
		if rec.Code != http.StatusOK || decodeBooking(t, env).Status != model.StatusCancelled {
			t.Errorf("cancel #%d: status = %d, body %s", i+1, rec.Code, rec.Body)
		}
	}

	rec, env = do(t, router, http.MethodGet, "/api/v1/bookings?limit=5", nil)
	if rec.Code != http.StatusOK || env.TotalCount != 1 || env.Limit != 5 {
		t.Errorf("list: status = %d, total = %d, limit = %d", rec.Code, env.TotalCount, env.Limit)
	}

	rec, _ = do(t, router, http.MethodDelete, "/api/v1/bookings/id/"+created.ID, nil)
	if rec.Code != http.StatusNoContent {
		t.Errorf("delete status = %d", rec.Code)
	}

	rec, env = do(t, router, http.MethodGet, "/api/v1/bookings/id/"+created.ID, nil)
	if rec.Code != http.StatusNotFound || env.Code != apperrors.CodeNotFound {
		t.Errorf("get after delete: status = %d, code = %s", rec.Code, env.Code)
	}
}

func TestCreate_BadRequests(t *testing.T) {
	router := newRouter(t, false)

	tests := []struct {
		name       string
		body       any
		wantStatus int
		wantCode   string
	}{
		{name: "empty body", body: nil, wantStatus: http.StatusBadRequest, wantCode: apperrors.CodeInvalidInput},
		{name: "unknown field", body: map[string]any{"room": "R1"}, wantStatus: http.StatusBadRequest, wantCode: apperrors.CodeInvalidInput},
		{name: "malformed date", body: bookingBody("R1", "06/01/2025", "2025-06-05"), wantStatus: http.StatusBadRequest, wantCode: apperrors.CodeInvalidInput},
		{name: "reversed dates", body: bookingBody("R1", "2025-06-05", "2025-06-01"), wantStatus: http.StatusUnprocessableEntity, wantCode: apperrors.CodeValidation},
		{name: "missing customer", body: map[string]any{"room_id": "R1", "check_in_date": "2025-06-01", "check_out_date": "2025-06-02"}, wantStatus: http.StatusUnprocessableEntity, wantCode: apperrors.CodeValidation},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec, env := do(t, router, http.MethodPost, "/api/v1/bookings", tt.body)
			if rec.Code != tt.wantStatus || env.Code != tt.wantCode {
				t.Errorf("status = %d code = %s, want %d %s (body %s)", rec.Code, env.Code, tt.wantStatus, tt.wantCode, rec.Body)
			}
		})
	}
}

func TestAvailability_QueryErrors(t *testing.T) {
	router := newRouter(t, false)

	rec, env := do(t, router, http.MethodGet, "/api/v1/rooms/R1/availability?check_in=2025-06-05", nil)
	if rec.Code != http.StatusBadRequest || env.Code != apperrors.CodeInvalidInput {
		t.Errorf("missing check_out: status = %d, code = %s", rec.Code, env.Code)
	}

	rec, env = do(t, router, http.MethodGet, "/api/v1/rooms/R1/availability?check_in=2025-06-05&check_out=2025-06-05", nil)
	if rec.Code != http.StatusUnprocessableEntity || env.Code != apperrors.CodeValidation {
		t.Errorf("empty range: status = %d, code = %s", rec.Code, env.Code)
	}
}

func TestAvailability_StoreUnavailable(t *testing.T) {
	h := NewBookingHandler(&mockBookingService{
		isAvailableFunc: func(ctx context.Context, roomID string, checkIn, checkOut model.Date, excludeID string) (bool, error) {
			if excludeID != "b1" {
				t.Errorf("exclude_id = %q, want b1", excludeID)
			}
			return false, apperrors.Unavailable("Booking store", errors.New("no primary"))
		},
	}, logger.Discard(), false)
	router := httprouter.New()
	h.RegisterRoutes(router)

	rec, env := do(t, router, http.MethodGet, "/api/v1/rooms/R1/availability?check_in=2025-06-01&check_out=2025-06-02&exclude_id=b1", nil)
	if rec.Code != http.StatusServiceUnavailable || env.Code != apperrors.CodeUnavailable {
		t.Errorf("status = %d, code = %s", rec.Code, env.Code)
	}
}

func TestAvailability_EchoesNormalizedRoomID(t *testing.T) {
	var queried string
	h := NewBookingHandler(&mockBookingService{
		isAvailableFunc: func(ctx context.Context, roomID string, checkIn, checkOut model.Date, excludeID string) (bool, error) {
			queried = roomID
			return true, nil
		},
	}, logger.Discard(), false)
	router := httprouter.New()
	h.RegisterRoutes(router)

	rec, env := do(t, router, http.MethodGet, "/api/v1/rooms/%20R1%20/availability?check_in=2025-06-01&check_out=2025-06-02", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	var got model.Availability
	if err := json.Unmarshal(env.Data, &got); err != nil {
		t.Fatal(err)
	}
	if queried != "R1" || got.RoomID != "R1" {
		t.Errorf("queried %q, answered for %q, want R1 for both", queried, got.RoomID)
	}
}

func TestGetAll_InvalidQueryParameters(t *testing.T) {
	var receivedLimit int
	var receivedOffset int64
	h := NewBookingHandler(&mockBookingService{
		getAllFunc: func(ctx context.Context, limit int, offset int64) ([]*model.Booking, int64, error) {
			receivedLimit, receivedOffset = limit, offset
			return []*model.Booking{}, 0, nil
		},
	}, logger.Discard(), false)
	router := httprouter.New()
	h.RegisterRoutes(router)

	tests := []struct {
		name       string
		query      string
		wantStatus int
		wantLimit  int
		wantOffset int64
	}{
		{name: "defaults", query: "", wantStatus: http.StatusOK, wantLimit: 10},
		{name: "explicit", query: "?limit=20&offset=40", wantStatus: http.StatusOK, wantLimit: 20, wantOffset: 40},
		{name: "capped", query: "?limit=5000", wantStatus: http.StatusOK, wantLimit: config.DefaultPaginationLimit},
		{name: "non-numeric limit", query: "?limit=abc", wantStatus: http.StatusBadRequest},
		{name: "non-numeric offset", query: "?offset=1.5", wantStatus: http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			receivedLimit, receivedOffset = -1, -1
			rec, _ := do(t, router, http.MethodGet, "/api/v1/bookings"+tt.query, nil)
			if rec.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
			if tt.wantStatus == http.StatusOK && (receivedLimit != tt.wantLimit || receivedOffset != tt.wantOffset) {
				t.Errorf("service got limit=%d offset=%d, want %d %d", receivedLimit, receivedOffset, tt.wantLimit, tt.wantOffset)
			}
		})
	}
}

func TestAdminRoutes_RequireAdminWhenAuthEnabled(t *testing.T) {
	router := newRouter(t, true)

	rec, env := do(t, router, http.MethodPost, "/api/v1/bookings", bookingBody("R1", "2025-06-01", "2025-06-05"))
	if rec.Code != http.StatusCreated {
		t.Fatalf("create status = %d", rec.Code)
	}
	id := decodeBooking(t, env).ID

	withRole := func(role string) func(*http.Request) {
		return func(r *http.Request) {
			claims := &auth.Claims{Role: role}
			claims.Subject = "u1"
			*r = *r.WithContext(middleware.WithClaims(r.Context(), claims))
		}
	}

	rec, _ = do(t, router, http.MethodPost, "/api/v1/bookings/id/"+id+"/confirm", nil)
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("anonymous confirm status = %d, want 401", rec.Code)
	}
	rec, _ = do(t, router, http.MethodDelete, "/api/v1/bookings/id/"+id, nil, withRole(model.RoleUser))
	if rec.Code != http.StatusForbidden {
		t.Errorf("user delete status = %d, want 403", rec.Code)
	}
	rec, _ = do(t, router, http.MethodPost, "/api/v1/bookings/id/"+id+"/confirm", nil, withRole(model.RoleAdmin))
	if rec.Code != http.StatusOK {
		t.Errorf("admin confirm status = %d, want 200", rec.Code)
	}
	rec, _ = do(t, router, http.MethodPost, "/api/v1/bookings/id/"+id+"/cancel", nil)
	if rec.Code != http.StatusOK {
		t.Errorf("cancel is open to any caller, status = %d", rec.Code)
	}
}

type stubProber struct{ err error }

func (p stubProber) Healthy(ctx context.Context) error { return p.err }

func TestHealthHandler(t *testing.T) {
	router := httprouter.New()
	NewHealthHandler(stubProber{}, logger.Discard()).RegisterRoutes(router)
	rec, _ := do(t, router, http.MethodGet, "/ready", nil)
	if rec.Code != http.StatusOK {
		t.Errorf("ready status = %d", rec.Code)
	}

	router = httprouter.New()
	NewHealthHandler(stubProber{err: errors.New("down")}, logger.Discard()).RegisterRoutes(router)
	rec, _ = do(t, router, http.MethodGet, "/ready", nil)
	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("ready status = %d, want 503", rec.Code)
	}
	rec, _ = do(t, router, http.MethodGet, "/health", nil)
	if rec.Code != http.StatusOK {
		t.Errorf("liveness must not depend on the store, status = %d", rec.Code)
	}
}
