package middleware

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/google/uuid"

	"github.com/chronicle-app/chronicle/internal/api/response"
	"github.com/chronicle-app/chronicle/internal/auth"
	"github.com/chronicle-app/chronicle/internal/reqctx"
	"github.com/chronicle-app/chronicle/internal/settings"
)

// ProfileHeader optionally names the tenant profile a request operates on.
const ProfileHeader = "X-Chronicle-Profile"

// allowUnauthenticated lists the routes that bypass authentication entirely:
// the health check, the bootstrap login route, and the metrics scrape.
var allowUnauthenticated = map[string]bool{
	"/api/status":     true,
	"/api/set-cookie": true,
	"/metrics":        true,
}

// Auth is middleware that turns the raw auth cookie into a verified
// user, session and profile for the request. Every failure mode (missing
// cookie, malformed cookie, unknown user, stale session) produces the same
// generic 401 so a caller cannot learn which check failed.
func Auth(users auth.UserStore, settingsRepo settings.Repository) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if allowUnauthenticated[r.URL.Path] {
				next.ServeHTTP(w, r)
				return
			}

			ctx := r.Context()
			requestID := GetRequestID(ctx)

			cookie, err := r.Cookie(auth.CookieName)
			if err != nil {
				unauthorized(w, requestID)
				return
			}

			rawUID, sessionID, err := auth.DecodeCookie(cookie.Value)
			if err != nil {
				unauthorized(w, requestID)
				return
			}

			uid, err := uuid.Parse(rawUID)
			if err != nil {
				unauthorized(w, requestID)
				return
			}

			user, err := users.FindByID(ctx, uid)
			if err != nil {
				if errors.Is(err, auth.ErrUserNotFound) {
					unauthorized(w, requestID)
					return
				}
				slog.Error("failed to load user", "error", err, "requestId", requestID)
				response.Err(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Authentication failed", requestID)
				return
			}

			// Covers logout-elsewhere and tampered cookies uniformly.
			session := user.FindSession(sessionID)
			if session == nil {
				unauthorized(w, requestID)
				return
			}
			if err := reqctx.SetCurrentSession(ctx, session); err != nil {
				slog.Error("request scope missing", "error", err, "requestId", requestID)
				response.Err(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Authentication failed", requestID)
				return
			}

			userSettings, err := settingsRepo.FindByUserID(ctx, user.ID)
			if err != nil && !errors.Is(err, settings.ErrSettingsNotFound) {
				slog.Error("failed to load settings", "error", err, "requestId", requestID)
				response.Err(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Authentication failed", requestID)
				return
			}

			profile := selectProfile(userSettings, r.Header.Get(ProfileHeader))

			if err := reqctx.SetCurrentUser(ctx, user, userSettings, profile); err != nil {
				slog.Error("request scope missing", "error", err, "requestId", requestID)
				response.Err(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Authentication failed", requestID)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// selectProfile resolves the tenant profile for a request: the header-named
// profile when recognized, the default profile id when the header value is
// not, and the user's first configured profile when no header is sent.
func selectProfile(s *settings.Settings, header string) *settings.Profile {
	if s == nil {
		return nil
	}
	if header == "" {
		return s.FirstProfile()
	}
	pid := header
	if !settings.ProfileIDs[pid] {
		pid = settings.DefaultProfileID
	}
	return s.ProfileByID(pid)
}

func unauthorized(w http.ResponseWriter, requestID string) {
	response.Err(w, http.StatusUnauthorized, "UNAUTHORIZED", "Unauthorized", requestID)
}
