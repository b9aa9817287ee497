package auth

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

const testSecret = "0123456789abcdef0123456789abcdef"

func TestNewTokenManager_RejectsWeakConfig(t *testing.T) {
	if _, err := NewTokenManager("short", time.Hour); err == nil {
		t.Error("expected error for a short secret")
	}
	if _, err := NewTokenManager(testSecret, 0); err == nil {
		t.Error("expected error for a zero ttl")
	}
}

func TestTokenManager_IssueVerify(t *testing.T) {
	m, err := NewTokenManager(testSecret, time.Hour)
	if err != nil {
		t.Fatal(err)
	}

	token, expiresAt, err := m.Issue("user-1", "asha@example.com", "admin")
	if err != nil {
		t.Fatalf("Issue failed: %v", err)
	}
	if time.Until(expiresAt) <= 0 {
		t.Error("expiry should be in the future")
	}

	claims, err := m.Verify(token)
	if err != nil {
		t.Fatalf("Verify failed: %v", err)
	}
	if claims.Subject != "user-1" || claims.Email != "asha@example.com" || claims.Role != "admin" {
		t.Errorf("unexpected claims %+v", claims)
	}
}

func TestTokenManager_Expired(t *testing.T) {
	m, _ := NewTokenManager(testSecret, time.Minute)
	m.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }
	token, _, err := m.Issue("user-1", "a@example.com", "user")
	if err != nil {
		t.Fatal(err)
	}

	m.now = time.Now
	if _, err := m.Verify(token); !errors.Is(err, ErrExpiredToken) {
		t.Errorf("expected ErrExpiredToken, got %v", err)
	}
}

func TestTokenManager_RejectsForeignTokens(t *testing.T) {
	m, _ := NewTokenManager(testSecret, time.Hour)
	other, _ := NewTokenManager(strings.Repeat("x", MinSecretLength), time.Hour)

	token, _, _ := other.Issue("user-1", "a@example.com", "admin")
	if _, err := m.Verify(token); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("token signed with another secret should be invalid, got %v", err)
	}

	none := jwt.NewWithClaims(jwt.SigningMethodNone, Claims{Role: "admin"})
	unsigned, _ := none.SignedString(jwt.UnsafeAllowNoneSignatureType)
	if _, err := m.Verify(unsigned); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("unsigned token should be invalid, got %v", err)
	}

	if _, err := m.Verify("garbage"); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("garbage should be invalid, got %v", err)
	}
}

func TestPassword(t *testing.T) {
	hash, err := HashPassword("correct horse", bcrypt.MinCost)
	if err != nil {
		t.Fatal(err)
	}
	if !VerifyPassword(hash, "correct horse") {
		t.Error("expected password to verify")
	}
	if VerifyPassword(hash, "wrong horse") {
		t.Error("wrong password must not verify")
	}
}
