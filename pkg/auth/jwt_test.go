package auth

import (
	"errors"
	"testing"
	"time"
)

func TestGenerateAndValidate(t *testing.T) {
	t.Parallel()

	m := NewJWTManager("secret", time.Hour)
	token, err := m.GenerateToken("  Admin@Example.org ")
	if err != nil {
		t.Fatalf("generate: %v", err)
	}

	claims, err := m.ValidateToken(token)
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	if claims.Email != "admin@example.org" {
		t.Fatalf("unexpected email claim: %s", claims.Email)
	}
}

func TestValidateRejectsForeignSecret(t *testing.T) {
	t.Parallel()

	token, err := NewJWTManager("one", time.Hour).GenerateToken("a@b.c")
	if err != nil {
		t.Fatalf("generate: %v", err)
	}

	if _, err := NewJWTManager("two", time.Hour).ValidateToken(token); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken, got %v", err)
	}
}

func TestValidateRejectsExpired(t *testing.T) {
	t.Parallel()

	m := NewJWTManager("secret", -time.Minute)
	token, err := m.GenerateToken("a@b.c")
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if _, err := m.ValidateToken(token); err == nil {
		t.Fatalf("expected expired token to be rejected")
	}
}

func TestDisabledWithoutSecret(t *testing.T) {
	t.Parallel()

	m := NewJWTManager("", time.Hour)
	if m.Enabled() {
		t.Fatalf("expected disabled manager")
	}
	if _, err := m.GenerateToken("a@b.c"); err == nil {
		t.Fatalf("expected error without secret")
	}
}
