package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	apperrors "roombook/pkg/errors"
	"roombook/pkg/logger"
	"roombook/pkg/model"
	"strings"
	"testing"
	"time"

	"github.com/julienschmidt/httprouter"
)

type mockUserService struct {
	registerFunc func(ctx context.Context, reg *model.Registration) (*model.Session, error)
	loginFunc    func(ctx context.Context, creds *model.Credentials) (*model.Session, error)
}

func (m *mockUserService) Register(ctx context.Context, reg *model.Registration) (*model.Session, error) {
	return m.registerFunc(ctx, reg)
}

func (m *mockUserService) Login(ctx context.Context, creds *model.Credentials) (*model.Session, error) {
	return m.loginFunc(ctx, creds)
}

func serve(h *AuthHandler, path, body string) *httptest.ResponseRecorder {
	router := httprouter.New()
	h.RegisterRoutes(router)

	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestRegisterHandler(t *testing.T) {
	h := NewAuthHandler(&mockUserService{
		registerFunc: func(ctx context.Context, reg *model.Registration) (*model.Session, error) {
			if reg.Email != "asha@example.com" {
				t.Errorf("email = %q", reg.Email)
			}
			return &model.Session{
				Token:     "tok",
				ExpiresAt: time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC),
				User:      &model.User{ID: "u1", Email: reg.Email, PasswordHash: "secret-hash", Role: model.RoleUser},
			}, nil
		},
	}, logger.Discard())

	rec := serve(h, "/api/v1/auth/register", `{"email":"asha@example.com","password":"correct-horse","first_name":"Asha","last_name":"Verma","phone":"9876543210"}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body)
	}
	if strings.Contains(rec.Body.String(), "secret-hash") {
		t.Error("password hash leaked into the response")
	}

	var resp struct {
		Data model.Session `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if resp.Data.Token != "tok" || resp.Data.User.ID != "u1" {
		t.Errorf("unexpected session %+v", resp.Data)
	}
}

func TestLoginHandler_Errors(t *testing.T) {
	h := NewAuthHandler(&mockUserService{
		loginFunc: func(ctx context.Context, creds *model.Credentials) (*model.Session, error) {
			return nil, apperrors.Unauthorized("Invalid email or password")
		},
	}, logger.Discard())

	tests := []struct {
		name       string
		body       string
		wantStatus int
	}{
		{name: "bad credentials", body: `{"email":"a@example.com","password":"x"}`, wantStatus: http.StatusUnauthorized},
		{name: "malformed JSON", body: `{"email":`, wantStatus: http.StatusBadRequest},
		{name: "unknown field", body: `{"username":"a"}`, wantStatus: http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := serve(h, "/api/v1/auth/login", tt.body)
			if rec.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
		})
	}
}
