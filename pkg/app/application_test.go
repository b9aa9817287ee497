package app

import (
	"net/http"
	"net/http/httptest"
	"roombook/pkg/auth"
	"roombook/pkg/config"
	"roombook/pkg/logger"
	"roombook/pkg/middleware"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/julienschmidt/httprouter"
)

type routes func(*httprouter.Router)

func (f routes) RegisterRoutes(r *httprouter.Router) { f(r) }

type closerFunc func() error

func (f closerFunc) Close() error { return f() }

func testConfig() *config.Config {
	return &config.Config{
		Port:              "0",
		RateLimitRequests: 3,
		RateLimitWindow:   time.Minute,
		RequestTimeout:    time.Second,
		IdempotencyTTL:    time.Minute,
		MaxRequestSize:    1024,
		ReadTimeout:       time.Second,
		WriteTimeout:      time.Second,
		IdleTimeout:       time.Second,
		ShutdownTimeout:   time.Second,
		Log:               logger.Discard(),
		Client:            nil,
	}
}

func newTestApp(t *testing.T, verifier auth.TokenVerifier, calls *atomic.Int32) *Application {
	t.Helper()
	health := routes(func(r *httprouter.Router) {
		r.GET("/health", func(w http.ResponseWriter, _ *http.Request, _ httprouter.Params) {
			w.WriteHeader(http.StatusOK)
		})
	})
	api := routes(func(r *httprouter.Router) {
		r.POST("/api/v1/things", func(w http.ResponseWriter, _ *http.Request, _ httprouter.Params) {
			calls.Add(1)
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusCreated)
			_, _ = w.Write([]byte(`{"data":{"n":1}}`))
		})
	})

	a := NewApplication(testConfig())
	a.SetApp(health, verifier, api)
	t.Cleanup(func() {
		a.idempotencyStore.Stop()
		a.rateLimiter.Stop()
	})
	return a
}

func post(h http.Handler, body string, headers map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/api/v1/things", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestApplication_HealthBypassesRateLimit(t *testing.T) {
	var calls atomic.Int32
	h := newTestApp(t, nil, &calls).Handler()

	for i := 0; i < 10; i++ {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
		if rec.Code != http.StatusOK {
			t.Fatalf("health #%d status = %d", i, rec.Code)
		}
		if rec.Header().Get(middleware.RequestIDHeader) == "" {
			t.Fatal("health response is missing a request id")
		}
	}
}

func TestApplication_MiddlewareChain(t *testing.T) {
	var calls atomic.Int32
	h := newTestApp(t, nil, &calls).Handler()

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/things", strings.NewReader("x=1"))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusUnsupportedMediaType {
		t.Errorf("form body status = %d, want 415", rec.Code)
	}

	key := map[string]string{middleware.IdempotencyHeader: "k1"}
	first := post(h, `{}`, key)
	second := post(h, `{}`, key)
	if first.Code != http.StatusCreated || second.Code != http.StatusCreated {
		t.Fatalf("statuses = %d, %d", first.Code, second.Code)
	}
	if second.Header().Get("Idempotent-Replayed") != "true" {
		t.Error("second request was not replayed")
	}
	if calls.Load() != 1 {
		t.Errorf("handler ran %d times, want 1", calls.Load())
	}

	if rec = post(h, `{}`, nil); rec.Code != http.StatusCreated {
		t.Errorf("third request status = %d, want 201", rec.Code)
	}
	rec = post(h, `{}`, nil)
	if rec.Code != http.StatusTooManyRequests {
		t.Errorf("fourth request status = %d, want 429", rec.Code)
	}
	if rec.Header().Get("Retry-After") == "" {
		t.Error("429 without Retry-After")
	}
}

func TestApplication_Authentication(t *testing.T) {
	tokens, err := auth.NewTokenManager("0123456789abcdef0123456789abcdef", time.Hour)
	if err != nil {
		t.Fatal(err)
	}
	var calls atomic.Int32
	h := newTestApp(t, tokens, &calls).Handler()

	rec := post(h, `{}`, map[string]string{"Authorization": "Bearer not-a-token"})
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("bad token status = %d, want 401", rec.Code)
	}

	token, _, err := tokens.Issue("u1", "asha@example.com", "user")
	if err != nil {
		t.Fatal(err)
	}
	rec = post(h, `{}`, map[string]string{"Authorization": "Bearer " + token})
	if rec.Code != http.StatusCreated {
		t.Errorf("valid token status = %d, want 201", rec.Code)
	}

	rec = post(h, `{}`, nil)
	if rec.Code != http.StatusCreated {
		t.Errorf("anonymous status = %d, want 201", rec.Code)
	}
}

func TestApplication_OnShutdownClosesResources(t *testing.T) {
	var calls atomic.Int32
	a := newTestApp(t, nil, &calls)

	closed := false
	a.OnShutdown(closerFunc(func() error {
		closed = true
		return nil
	}))
	a.closeResources()

	if !closed {
		t.Error("registered closer was not called")
	}
}
