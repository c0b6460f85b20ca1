package auth

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const testSecret = "test-secret"

func signToken(t *testing.T, secret string, claims jwt.MapClaims) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(secret))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return signed
}

func TestResolveValidToken(t *testing.T) {
	resolver := NewJWTResolver(testSecret, time.Minute)
	credential := signToken(t, testSecret, jwt.MapClaims{
		"user_id":  "u-42",
		"username": "alice",
		"exp":      time.Now().Add(time.Hour).Unix(),
	})

	identity, err := resolver.Resolve(context.Background(), credential)
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if identity.UserID != "u-42" {
		t.Errorf("UserID = %q, want u-42", identity.UserID)
	}
	if identity.Username != "alice" {
		t.Errorf("Username = %q, want alice", identity.Username)
	}
}

func TestResolveEmptyCredential(t *testing.T) {
	resolver := NewJWTResolver(testSecret, time.Minute)

	_, err := resolver.Resolve(context.Background(), "")
	if !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("err = %v, want ErrUnauthorized", err)
	}
}

func TestResolveWrongSecret(t *testing.T) {
	resolver := NewJWTResolver(testSecret, time.Minute)
	credential := signToken(t, "other-secret", jwt.MapClaims{
		"user_id": "u-1",
		"exp":     time.Now().Add(time.Hour).Unix(),
	})

	_, err := resolver.Resolve(context.Background(), credential)
	if !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("err = %v, want ErrUnauthorized", err)
	}
}

func TestResolveExpiredToken(t *testing.T) {
	resolver := NewJWTResolver(testSecret, time.Second)
	credential := signToken(t, testSecret, jwt.MapClaims{
		"user_id": "u-1",
		"exp":     time.Now().Add(-time.Hour).Unix(),
	})

	_, err := resolver.Resolve(context.Background(), credential)
	if !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("err = %v, want ErrUnauthorized", err)
	}
}

func TestResolveMissingExpiry(t *testing.T) {
	resolver := NewJWTResolver(testSecret, time.Minute)
	credential := signToken(t, testSecret, jwt.MapClaims{"user_id": "u-1"})

	_, err := resolver.Resolve(context.Background(), credential)
	if !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("err = %v, want ErrUnauthorized", err)
	}
}

func TestResolveSubjectFallback(t *testing.T) {
	resolver := NewJWTResolver(testSecret, time.Minute)
	credential := signToken(t, testSecret, jwt.MapClaims{
		"sub": "u-7",
		"exp": time.Now().Add(time.Hour).Unix(),
	})

	identity, err := resolver.Resolve(context.Background(), credential)
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if identity.UserID != "u-7" {
		t.Errorf("UserID = %q, want u-7", identity.UserID)
	}
	if identity.Username != "u-7" {
		t.Errorf("Username = %q, want user ID fallback", identity.Username)
	}
}

func TestResolveNumericUserID(t *testing.T) {
	resolver := NewJWTResolver(testSecret, time.Minute)
	credential := signToken(t, testSecret, jwt.MapClaims{
		"user_id": 42,
		"exp":     time.Now().Add(time.Hour).Unix(),
	})

	identity, err := resolver.Resolve(context.Background(), credential)
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if identity.UserID != "42" {
		t.Errorf("UserID = %q, want 42", identity.UserID)
	}
}

func TestResolveMissingUserID(t *testing.T) {
	resolver := NewJWTResolver(testSecret, time.Minute)
	credential := signToken(t, testSecret, jwt.MapClaims{
		"exp": time.Now().Add(time.Hour).Unix(),
	})

	_, err := resolver.Resolve(context.Background(), credential)
	if !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("err = %v, want ErrUnauthorized", err)
	}
}
