package auth

import (
	"context"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// DefaultTTL is the lifetime of operator tokens.
const DefaultTTL = 12 * time.Hour

// Claims identify the operator behind a request. A zero TerminalID lets the
// operator use any terminal.
type Claims struct {
	UserID     uuid.UUID `json:"user_id"`
	Name       string    `json:"name,omitempty"`
	Role       string    `json:"role"`
	TerminalID uuid.UUID `json:"terminal_id,omitempty"`
	jwt.RegisteredClaims
}

// CanUseTerminal reports whether the claims allow access to terminalID.
func (c *Claims) CanUseTerminal(terminalID uuid.UUID, adminRole string) bool {
	return c.Role == adminRole || c.TerminalID == uuid.Nil || c.TerminalID == terminalID
}

func GenerateToken(secret string, userID uuid.UUID, name, role string, terminalID uuid.UUID, ttl time.Duration) (string, error) {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	claims := Claims{
		UserID:     userID,
		Name:       name,
		Role:       role,
		TerminalID: terminalID,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(secret))
}

func ValidateToken(secret, tokenStr string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenStr, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return []byte(secret), nil
	})
	if err != nil {
		return nil, err
	}
	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, fmt.Errorf("invalid token")
	}
	return claims, nil
}

type tokenKey struct{}

// WithToken returns a context carrying the raw bearer token of the request,
// so that outgoing backend calls act on behalf of the same operator.
func WithToken(ctx context.Context, token string) context.Context {
	return context.WithValue(ctx, tokenKey{}, token)
}

// TokenFromContext returns the bearer token stored by WithToken.
func TokenFromContext(ctx context.Context) string {
	token, _ := ctx.Value(tokenKey{}).(string)
	return token
}
