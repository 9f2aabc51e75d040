package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"slices"
	"strings"

	"github.com/fruteira-pos/terminal/internal/auth"
	"github.com/fruteira-pos/terminal/internal/enum"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type contextKey string

const claimsKey contextKey = "claims"

type errorBody struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

// Authenticate validates the bearer token and stores both the claims and the
// raw token in the request context. The raw token is forwarded to the sales
// backend on the operator's behalf.
func Authenticate(jwtSecret string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, ok := bearerToken(r)
			if !ok {
				deny(w, http.StatusUnauthorized, "missing or malformed bearer token")
				return
			}

			claims, err := auth.ValidateToken(jwtSecret, token)
			if err != nil {
				deny(w, http.StatusUnauthorized, "invalid token")
				return
			}

			ctx := context.WithValue(r.Context(), claimsKey, claims)
			next.ServeHTTP(w, r.WithContext(auth.WithToken(ctx, token)))
		})
	}
}

// RequireTerminal rejects operators whose token is bound to a different
// terminal. Admins may use any terminal.
func RequireTerminal(terminalID uuid.UUID) func(http.Handler) http.Handler {
	return guard(func(c *auth.Claims) bool {
		return c.CanUseTerminal(terminalID, enum.UserRoleAdmin)
	}, "access denied for this terminal")
}

// RequireRole admits only the given roles.
func RequireRole(roles ...string) func(http.Handler) http.Handler {
	return guard(func(c *auth.Claims) bool {
		return slices.Contains(roles, c.Role)
	}, "insufficient permissions")
}

// ClaimsFromContext returns the claims stored by Authenticate, or nil.
func ClaimsFromContext(ctx context.Context) *auth.Claims {
	claims, _ := ctx.Value(claimsKey).(*auth.Claims)
	return claims
}

func guard(allow func(*auth.Claims) bool, reason string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims := ClaimsFromContext(r.Context())
			if claims == nil {
				deny(w, http.StatusUnauthorized, "not authenticated")
				return
			}
			if !allow(claims) {
				deny(w, http.StatusForbidden, reason)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func bearerToken(r *http.Request) (string, bool) {
	scheme, token, ok := strings.Cut(r.Header.Get("Authorization"), " ")
	if !ok || !strings.EqualFold(scheme, "bearer") || token == "" {
		return "", false
	}
	return token, true
}

func deny(w http.ResponseWriter, status int, msg string) {
	code := "UNAUTHORIZED"
	if status == http.StatusForbidden {
		code = "FORBIDDEN"
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(errorBody{Error: msg, Code: code}); err != nil {
		zap.L().Error("failed to encode JSON response", zap.Error(err))
	}
}
