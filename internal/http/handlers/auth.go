package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/hongminglow/loyalty-ledger/internal/auth"
	"github.com/hongminglow/loyalty-ledger/internal/http/respond"
	"github.com/hongminglow/loyalty-ledger/internal/models"
	"github.com/hongminglow/loyalty-ledger/internal/models/dto"
)

// Authenticator checks staff credentials.
type Authenticator interface {
	Authenticate(username, password string) (models.StaffUser, error)
}

// TokenIssuer signs tokens for authenticated staff.
type TokenIssuer interface {
	Generate(user models.StaffUser) (string, error)
}

// AuthHandler owns the staff login endpoint.
type AuthHandler struct {
	staff  Authenticator
	tokens TokenIssuer
	log    *slog.Logger
}

// NewAuthHandler constructs the handler.
func NewAuthHandler(staff Authenticator, tokens TokenIssuer, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{staff: staff, tokens: tokens, log: logger.With("handler", "auth")}
}

// Register attaches auth routes to the router.
func (h *AuthHandler) Register(r chi.Router) {
	r.Post("/login", h.handleLogin)
}

func (h *AuthHandler) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req dto.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.Error(w, http.StatusBadRequest, "invalid JSON payload")
		return
	}
	username := strings.TrimSpace(req.Username)
	if username == "" || req.Password == "" {
		respond.Error(w, http.StatusBadRequest, "username and password are required")
		return
	}
	user, err := h.staff.Authenticate(username, req.Password)
	if err != nil {
		if errors.Is(err, auth.ErrInvalidCredentials) {
			h.log.WarnContext(r.Context(), "login rejected", slog.String("username", username))
			respond.Error(w, http.StatusUnauthorized, "invalid credentials")
			return
		}
		h.log.ErrorContext(r.Context(), "login failed", slog.Any("error", err))
		respond.Error(w, http.StatusInternalServerError, "failed to authenticate")
		return
	}
	token, err := h.tokens.Generate(user)
	if err != nil {
		h.log.ErrorContext(r.Context(), "sign token", slog.Any("error", err))
		respond.Error(w, http.StatusInternalServerError, "failed to generate token")
		return
	}
	respond.JSON(w, http.StatusOK, "login successful", dto.LoginResponse{Token: token, User: user})
}
