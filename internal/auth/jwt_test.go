package auth_test

import (
	"testing"
	"time"

	"github.com/fruteira-pos/terminal/internal/auth"
	"github.com/fruteira-pos/terminal/internal/enum"
	"github.com/google/uuid"
)

func TestGenerateAndValidateToken(t *testing.T) {
	secret := "test-secret"
	userID := uuid.New()
	terminalID := uuid.New()
	role := enum.UserRoleOperator

	token, err := auth.GenerateToken(secret, userID, "Maria", role, terminalID, time.Hour)
	if err != nil {
		t.Fatalf("generate token: %v", err)
	}

	claims, err := auth.ValidateToken(secret, token)
	if err != nil {
		t.Fatalf("validate token: %v", err)
	}

	if claims.UserID != userID {
		t.Errorf("user ID: got %v, want %v", claims.UserID, userID)
	}
	if claims.TerminalID != terminalID {
		t.Errorf("terminal ID: got %v, want %v", claims.TerminalID, terminalID)
	}
	if claims.Role != role {
		t.Errorf("role: got %v, want %v", claims.Role, role)
	}
	if claims.Name != "Maria" {
		t.Errorf("name: got %v, want Maria", claims.Name)
	}
}

func TestValidateTokenWithWrongSecret(t *testing.T) {
	token, err := auth.GenerateToken("secret-a", uuid.New(), "", enum.UserRoleOperator, uuid.Nil, 0)
	if err != nil {
		t.Fatalf("generate token: %v", err)
	}

	_, err = auth.ValidateToken("secret-b", token)
	if err == nil {
		t.Fatal("expected error validating with wrong secret")
	}
}

func TestGenerateTokenDefaultTTL(t *testing.T) {
	token, err := auth.GenerateToken("secret", uuid.New(), "", enum.UserRoleOperator, uuid.Nil, -time.Minute)
	if err != nil {
		t.Fatalf("generate token: %v", err)
	}
	// a non-positive ttl falls back to the default lifetime
	if _, err := auth.ValidateToken("secret", token); err != nil {
		t.Fatalf("validate token: %v", err)
	}
}

func TestValidateTokenWithInvalidString(t *testing.T) {
	_, err := auth.ValidateToken("secret", "not-a-jwt")
	if err == nil {
		t.Fatal("expected error validating invalid token string")
	}
}

func TestCanUseTerminal(t *testing.T) {
	terminal := uuid.New()
	other := uuid.New()

	tests := []struct {
		name   string
		claims auth.Claims
		want   bool
	}{
		{"unbound operator", auth.Claims{Role: enum.UserRoleOperator}, true},
		{"bound to this terminal", auth.Claims{Role: enum.UserRoleOperator, TerminalID: terminal}, true},
		{"bound to another terminal", auth.Claims{Role: enum.UserRoleOperator, TerminalID: other}, false},
		{"admin bound elsewhere", auth.Claims{Role: enum.UserRoleAdmin, TerminalID: other}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.claims.CanUseTerminal(terminal, enum.UserRoleAdmin); got != tt.want {
				t.Errorf("CanUseTerminal: got %v, want %v", got, tt.want)
			}
		})
	}
}

func TestTokenContext(t *testing.T) {
	ctx := auth.WithToken(t.Context(), "abc")
	if got := auth.TokenFromContext(ctx); got != "abc" {
		t.Errorf("token: got %q, want abc", got)
	}
	if got := auth.TokenFromContext(t.Context()); got != "" {
		t.Errorf("empty context token: got %q", got)
	}
}
