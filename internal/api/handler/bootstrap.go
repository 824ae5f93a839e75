package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/chronicle-app/chronicle/internal/api/middleware"
	"github.com/chronicle-app/chronicle/internal/api/response"
	"github.com/chronicle-app/chronicle/internal/auth"
)

// Fixed bootstrap account. This route only exists outside production.
const (
	bootstrapEmail    = "test-user@mail.com"
	bootstrapName     = "Test User"
	bootstrapPassword = "Password@123"
)

// BootstrapHandler handles GET /api/set-cookie, the one-time bootstrap login
// route: it registers the test account on first use, logs it in on
// subsequent uses, sets the auth cookie and returns a CSRF token bound to
// the new session. In production it answers 404 as if it did not exist.
type BootstrapHandler struct {
	authService *auth.Service
	users       auth.UserStore
	guard       *auth.CSRFGuard
	production  bool
}

// NewBootstrapHandler creates a new BootstrapHandler.
func NewBootstrapHandler(authService *auth.Service, users auth.UserStore, guard *auth.CSRFGuard, production bool) *BootstrapHandler {
	return &BootstrapHandler{
		authService: authService,
		users:       users,
		guard:       guard,
		production:  production,
	}
}

type bootstrapUser struct {
	Email    string `json:"email"`
	Name     string `json:"name"`
	Password string `json:"password"`
}

type bootstrapData struct {
	CSRFToken string        `json:"csrfToken"`
	User      bootstrapUser `json:"user"`
}

// ServeHTTP logs the bootstrap account in, creating it first if needed.
func (h *BootstrapHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())

	if h.production {
		response.Err(w, http.StatusNotFound, "NOT_FOUND", "Page not found", requestID)
		return
	}

	var (
		user    *auth.User
		session *auth.Session
	)

	_, err := h.users.FindByEmail(r.Context(), bootstrapEmail)
	switch {
	case errors.Is(err, auth.ErrUserNotFound):
		user, session, err = h.authService.Register(r.Context(), auth.RegisterNativeInput{
			Email:    bootstrapEmail,
			Name:     bootstrapName,
			Password: bootstrapPassword,
		})
	case err == nil:
		user, session, err = h.authService.Login(r.Context(), bootstrapEmail, bootstrapPassword)
	}
	if err != nil {
		slog.Error("bootstrap login failed", "error", err, "requestId", requestID)
		response.Err(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Bootstrap login failed", requestID)
		return
	}

	token, err := h.guard.Issue(session.ID)
	if err != nil {
		slog.Error("failed to issue csrf token", "error", err, "requestId", requestID)
		response.Err(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Bootstrap login failed", requestID)
		return
	}

	http.SetCookie(w, auth.NewCookie(user.ID.String(), session.ID, h.production))

	response.Success(w, http.StatusOK, bootstrapData{
		CSRFToken: token,
		User: bootstrapUser{
			Email:    bootstrapEmail,
			Name:     bootstrapName,
			Password: bootstrapPassword,
		},
	}, requestID)
}
