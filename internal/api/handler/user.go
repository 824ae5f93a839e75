package handler

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/chronicle-app/chronicle/internal/api/middleware"
	"github.com/chronicle-app/chronicle/internal/api/response"
	"github.com/chronicle-app/chronicle/internal/api/validation"
	"github.com/chronicle-app/chronicle/internal/auth"
	"github.com/chronicle-app/chronicle/internal/reqctx"
	"github.com/chronicle-app/chronicle/internal/settings"
)

// UserHandler handles the current-user endpoints.
type UserHandler struct {
	authService *auth.Service
	production  bool
}

// NewUserHandler creates a new UserHandler.
func NewUserHandler(authService *auth.Service, production bool) *UserHandler {
	return &UserHandler{authService: authService, production: production}
}

type sessionResponse struct {
	ID        string `json:"id"`
	CreatedOn string `json:"createdOn"`
}

// userResponse exposes the identity without its credential material: no
// password hash, no refresh token, no provider subject id.
type userResponse struct {
	ID       string            `json:"uid"`
	Email    string            `json:"email"`
	Name     string            `json:"name"`
	Verified bool              `json:"verified"`
	ImageURL *string           `json:"imageUrl,omitempty"`
	Kind     string            `json:"kind"`
	Sessions []sessionResponse `json:"sessions"`
}

type settingsResponse struct {
	Module         string                  `json:"module"`
	Profiles       []settings.Profile      `json:"profile"`
	Groups         []settings.ExpenseGroup `json:"groups"`
	PaymentMethods []string                `json:"pms"`
}

type meData struct {
	User     userResponse      `json:"user"`
	Settings *settingsResponse `json:"settings"`
	Profile  *settings.Profile `json:"profile"`
}

func newUserResponse(u *auth.User) userResponse {
	sessions := make([]sessionResponse, 0, len(u.Sessions))
	for _, s := range u.Sessions {
		sessions = append(sessions, sessionResponse{
			ID:        s.ID,
			CreatedOn: s.CreatedOn.UTC().Format("2006-01-02T15:04:05Z"),
		})
	}
	return userResponse{
		ID:       u.ID.String(),
		Email:    u.Email,
		Name:     u.Name,
		Verified: u.Verified,
		ImageURL: u.ImageURL,
		Kind:     string(u.Kind),
		Sessions: sessions,
	}
}

// Me handles GET /api/me: the authenticated identity with its resolved
// tenant settings and profile.
func (h *UserHandler) Me(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())

	view, err := reqctx.CurrentUser(r.Context())
	if err != nil {
		slog.Error("current user missing after auth", "error", err, "requestId", requestID)
		response.Err(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to load user", requestID)
		return
	}

	data := meData{User: newUserResponse(view.User), Profile: view.Profile}
	if view.Settings != nil {
		groups := view.Settings.Groups
		if groups == nil {
			groups = []settings.ExpenseGroup{}
		}
		pms := view.Settings.PaymentMethods
		if pms == nil {
			pms = []string{}
		}
		data.Settings = &settingsResponse{
			Module:         view.Settings.Module,
			Profiles:       view.Settings.Profiles,
			Groups:         groups,
			PaymentMethods: pms,
		}
	}

	response.Success(w, http.StatusOK, data, requestID)
}

type logoutRequest struct {
	SessionID string `json:"sessionId"`
}

// Logout handles POST /api/logout. An empty body ends the current session;
// a sessionId of "*" ends every session the user owns.
func (h *UserHandler) Logout(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())

	view, err := reqctx.CurrentUser(r.Context())
	if err != nil {
		slog.Error("current user missing after auth", "error", err, "requestId", requestID)
		response.Err(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to log out", requestID)
		return
	}
	current, err := reqctx.CurrentSession(r.Context())
	if err != nil {
		slog.Error("current session missing after auth", "error", err, "requestId", requestID)
		response.Err(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to log out", requestID)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)
	var req logoutRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		response.Err(w, http.StatusBadRequest, "INVALID_JSON", "Request body must be valid JSON", requestID)
		return
	}
	target := req.SessionID
	if target == "" {
		target = current.ID
	}

	if err := h.authService.Logout(r.Context(), view.User.ID, target); err != nil {
		slog.Error("failed to remove session", "error", err, "requestId", requestID)
		response.Err(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to log out", requestID)
		return
	}

	if target == current.ID || target == auth.AllSessions {
		http.SetCookie(w, auth.ExpiredCookie(h.production))
	}

	response.NoContent(w)
}

type updatePasswordRequest struct {
	Password string `json:"password"`
}

// UpdatePassword handles PUT /api/me/password.
func (h *UserHandler) UpdatePassword(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())

	view, err := reqctx.CurrentUser(r.Context())
	if err != nil {
		slog.Error("current user missing after auth", "error", err, "requestId", requestID)
		response.Err(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to update password", requestID)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)
	var req updatePasswordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Err(w, http.StatusBadRequest, "INVALID_JSON", "Request body must be valid JSON", requestID)
		return
	}

	if !validation.IsPassword(req.Password) {
		response.ErrWithDetails(w, http.StatusBadRequest, "VALIDATION_ERROR", "Input validation failed",
			[]validation.FieldError{{Field: "password", Message: "password is invalid"}}, requestID)
		return
	}

	if err := h.authService.UpdatePassword(r.Context(), view.User.ID, req.Password); err != nil {
		slog.Error("failed to update password", "error", err, "requestId", requestID)
		response.Err(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to update password", requestID)
		return
	}

	response.NoContent(w)
}
