package jwt

import (
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
)

func TestTokenRoundTrip(t *testing.T) {
	s := NewSigner("test-secret", time.Hour)
	id := uuid.New()

	token, err := s.GenerateToken(id, "cashier@example.com", "Cashier", "CASHIER", []string{"sale:create"}, "v1")
	if err != nil {
		t.Fatalf("GenerateToken: %v", err)
	}
	claims, err := s.ValidateToken(token)
	if err != nil {
		t.Fatalf("ValidateToken: %v", err)
	}
	if claims.UserID != id || claims.TokenVersion != "v1" || claims.RoleCode != "CASHIER" {
		t.Fatalf("unexpected claims %+v", claims)
	}
}

func TestValidateTokenRejects(t *testing.T) {
	s := NewSigner("test-secret", time.Hour)
	token, err := s.GenerateToken(uuid.New(), "a@b.c", "A", "CASHIER", nil, "v1")
	if err != nil {
		t.Fatalf("GenerateToken: %v", err)
	}

	other := NewSigner("other-secret", time.Hour)
	if _, err := other.ValidateToken(token); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken for wrong secret, got %v", err)
	}

	if _, err := s.ValidateToken(""); !errors.Is(err, ErrMissingToken) {
		t.Fatalf("expected ErrMissingToken, got %v", err)
	}

	expired := NewSigner("test-secret", time.Hour)
	expired.now = func() time.Time { return time.Now().Add(2 * time.Hour) }
	if _, err := expired.ValidateToken(token); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected expired token to be rejected, got %v", err)
	}
}
