package middleware

import (
	"net/http"

	"github.com/chronicle-app/chronicle/internal/api/response"
	"github.com/chronicle-app/chronicle/internal/auth"
	"github.com/chronicle-app/chronicle/internal/reqctx"
)

// CSRFHeader carries the anti-forgery token on state-changing requests.
const CSRFHeader = "X-Csrf-Token"

// CSRF is middleware that verifies the submitted anti-forgery token against
// the active session before any state-changing method reaches its handler.
// A failed or missing token is indistinguishable from "not authorized to
// perform this action".
func CSRF(guard *auth.CSRFGuard) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			switch r.Method {
			case http.MethodGet, http.MethodHead, http.MethodOptions:
				next.ServeHTTP(w, r)
				return
			}
			if allowUnauthenticated[r.URL.Path] {
				next.ServeHTTP(w, r)
				return
			}

			requestID := GetRequestID(r.Context())

			session, err := reqctx.CurrentSession(r.Context())
			if err != nil || !guard.Verify(r.Header.Get(CSRFHeader), session.ID) {
				response.Err(w, http.StatusForbidden, "FORBIDDEN", "Not authorized to perform this action", requestID)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
