package authhandler

import (
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"hrkyc/internal/domain/auth"
	"hrkyc/internal/domain/identity"
	"hrkyc/internal/platform/requestctx"
	"hrkyc/internal/transport/http/api"
	"hrkyc/internal/transport/http/middleware"
)

const sessionTTL = 8 * time.Hour

type Handler struct {
	Store    *auth.Store
	Secret   string
	Resolver *identity.Service
}

func NewHandler(store *auth.Store, secret string, resolver *identity.Service) *Handler {
	return &Handler{Store: store, Secret: secret, Resolver: resolver}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/auth/login", h.HandleLogin)
	r.Post("/auth/logout", h.HandleLogout)
	r.With(middleware.RequireAuth).Get("/me", h.HandleMe)
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (h *Handler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var payload loginRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", requestctx.GetRequestID(r.Context()))
		return
	}

	email := strings.ToLower(strings.TrimSpace(payload.Email))
	user, err := h.Store.FindUserByEmail(r.Context(), email)
	if err != nil {
		api.Fail(w, http.StatusUnauthorized, "invalid_credentials", "invalid credentials", requestctx.GetRequestID(r.Context()))
		return
	}

	if err := auth.CheckPassword(user.Password, payload.Password); err != nil {
		api.Fail(w, http.StatusUnauthorized, "invalid_credentials", "invalid credentials", requestctx.GetRequestID(r.Context()))
		return
	}

	sessionID, err := generateSessionID()
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "token_error", "failed to issue token", requestctx.GetRequestID(r.Context()))
		return
	}
	if err := h.Store.CreateSession(r.Context(), user.ID, auth.HashToken(sessionID), time.Now().Add(sessionTTL)); err != nil {
		api.Fail(w, http.StatusInternalServerError, "session_error", "failed to start session", requestctx.GetRequestID(r.Context()))
		return
	}

	token, err := auth.GenerateToken(h.Secret, auth.Claims{
		UserID:    user.ID,
		Email:     user.Email,
		IsAdmin:   user.IsAdmin,
		SessionID: sessionID,
	}, sessionTTL)
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "token_error", "failed to issue token", requestctx.GetRequestID(r.Context()))
		return
	}

	if err := h.Store.UpdateLastLogin(r.Context(), user.ID); err != nil {
		slog.Warn("update last_login failed", "userId", user.ID, "err", err)
	}

	api.Success(w, map[string]any{
		"token": token,
		"user":  map[string]any{"id": user.ID, "email": user.Email, "isAdmin": user.IsAdmin},
	}, requestctx.GetRequestID(r.Context()))
}

func (h *Handler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", requestctx.GetRequestID(r.Context()))
		return
	}
	if err := h.Store.RevokeSession(r.Context(), user.UserID, auth.HashToken(user.SessionID)); err != nil {
		api.Fail(w, http.StatusInternalServerError, "logout_failed", "failed to revoke session", requestctx.GetRequestID(r.Context()))
		return
	}
	api.Success(w, map[string]string{"status": "logged_out"}, requestctx.GetRequestID(r.Context()))
}

// HandleMe resolves the session to its role and linked profile. An unlinked
// resolution carries a null employee; the client treats that as
// redirect-to-login, not as an error.
func (h *Handler) HandleMe(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())

	resolution := h.Resolver.Resolve(r.Context(), identity.Session{
		UserID:  user.UserID,
		Email:   user.Email,
		IsAdmin: user.IsAdmin,
	})

	api.Success(w, map[string]any{
		"user":     map[string]any{"id": user.UserID, "email": user.Email, "isAdmin": user.IsAdmin},
		"role":     resolution.Role,
		"employee": resolution.Employee,
	}, requestctx.GetRequestID(r.Context()))
}

func generateSessionID() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}
