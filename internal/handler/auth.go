package handler

import (
	"context"
	"errors"
	"net/http"

	"github.com/fruteira-pos/terminal/internal/auth"
	"github.com/fruteira-pos/terminal/internal/store"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"golang.org/x/crypto/bcrypt"
	"go.uber.org/zap"
)

// OperatorStore defines the database methods needed by the login handler.
// Satisfied by *store.Queries; narrow interface for testability.
type OperatorStore interface {
	GetOperatorByEmail(ctx context.Context, email string) (store.Operator, error)
}

// AuthHandler issues operator tokens when the terminal runs against its own
// database. With the REST backend, tokens come from the backend instead.
type AuthHandler struct {
	store      OperatorStore
	jwtSecret  string
	terminalID uuid.UUID
}

// NewAuthHandler creates a new AuthHandler. Issued tokens are bound to
// terminalID.
func NewAuthHandler(store OperatorStore, jwtSecret string, terminalID uuid.UUID) *AuthHandler {
	return &AuthHandler{store: store, jwtSecret: jwtSecret, terminalID: terminalID}
}

// RegisterRoutes registers auth endpoints on the given Chi router.
func (h *AuthHandler) RegisterRoutes(r chi.Router) {
	r.Post("/auth/login", h.Login)
}

// --- Request / Response types ---

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type tokenResponse struct {
	AccessToken string       `json:"access_token"`
	User        userResponse `json:"user"`
}

type userResponse struct {
	ID         uuid.UUID `json:"id"`
	TerminalID uuid.UUID `json:"terminal_id"`
	FullName   string    `json:"full_name"`
	Email      string    `json:"email"`
	Role       string    `json:"role"`
}

// --- Handlers ---

// Login handles email + password authentication.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	if req.Email == "" || req.Password == "" {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "email and password are required"})
		return
	}

	op, err := h.store.GetOperatorByEmail(r.Context(), req.Email)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeJSON(w, http.StatusUnauthorized, errorResponse{Error: "invalid credentials"})
			return
		}
		zap.L().Error("operator lookup failed", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "internal server error"})
		return
	}

	if err := bcrypt.CompareHashAndPassword([]byte(op.HashedPassword), []byte(req.Password)); err != nil {
		writeJSON(w, http.StatusUnauthorized, errorResponse{Error: "invalid credentials"})
		return
	}

	token, err := auth.GenerateToken(h.jwtSecret, op.ID, op.FullName, op.Role, h.terminalID, auth.DefaultTTL)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "internal server error"})
		return
	}

	writeJSON(w, http.StatusOK, tokenResponse{
		AccessToken: token,
		User: userResponse{
			ID:         op.ID,
			TerminalID: h.terminalID,
			FullName:   op.FullName,
			Email:      op.Email,
			Role:       op.Role,
		},
	})
}
