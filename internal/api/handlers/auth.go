package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/wealthwise/wealthwise/internal/api/middleware"
	"github.com/wealthwise/wealthwise/internal/identity"
	"github.com/wealthwise/wealthwise/internal/session"
)

// AuthHandler handles account creation and sign-in.
type AuthHandler struct {
	session *session.Session
	issuer  identity.TokenIssuer
	log     zerolog.Logger
}

// NewAuthHandler creates an auth handler.
func NewAuthHandler(s *session.Session, issuer identity.TokenIssuer, log zerolog.Logger) *AuthHandler {
	return &AuthHandler{session: s, issuer: issuer, log: log}
}

type credentialsRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Signup handles POST /api/auth/signup. The profile document is created
// synchronously with the account.
func (h *AuthHandler) Signup(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		middleware.WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.Email == "" || len(req.Password) < 8 {
		middleware.WriteError(w, http.StatusBadRequest, "Email and a password of at least 8 characters are required")
		return
	}

	id, err := h.session.CreateAccount(r.Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, identity.ErrAccountExists) {
			middleware.WriteError(w, http.StatusConflict, "Account already exists")
			return
		}
		h.log.Error().Err(err).Msg("Signup failed")
		middleware.WriteError(w, http.StatusInternalServerError, "Signup failed")
		return
	}

	h.respondWithToken(w, id)
}

// Login handles POST /api/auth/login.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		middleware.WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	id, err := h.session.SignIn(r.Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, identity.ErrInvalidCredentials) {
			middleware.WriteError(w, http.StatusUnauthorized, "Invalid email or password")
			return
		}
		h.log.Error().Err(err).Msg("Login failed")
		middleware.WriteError(w, http.StatusInternalServerError, "Login failed")
		return
	}

	h.respondWithToken(w, id)
}

// Logout handles POST /api/auth/logout.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if err := h.session.SignOut(r.Context()); err != nil {
		h.log.Error().Err(err).Msg("Logout failed")
		middleware.WriteError(w, http.StatusInternalServerError, "Logout failed")
		return
	}
	middleware.WriteJSON(w, http.StatusOK, map[string]string{"status": "signed out"})
}

func (h *AuthHandler) respondWithToken(w http.ResponseWriter, id *identity.Identity) {
	token, err := h.issuer.IssueToken(id)
	if err != nil {
		h.log.Error().Err(err).Msg("Token issue failed")
		middleware.WriteError(w, http.StatusInternalServerError, "Could not issue session token")
		return
	}
	middleware.WriteJSON(w, http.StatusOK, map[string]string{
		"token": token,
		"uid":   id.UID,
		"email": id.Email,
	})
}
