package middleware

import (
	"context"
	"net/http"

	"github.com/chronicle-app/chronicle/internal/reqctx"
)

// RequestScope is middleware that allocates the per-request identity scope
// with a fresh request id and sets the id as a response header. It runs
// first, for every route, authenticated or not.
func RequestScope(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx, _ := reqctx.New(r.Context(), r)

		id, _ := reqctx.RequestID(ctx)
		w.Header().Set("X-Request-ID", id)

		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// GetRequestID retrieves the request id from the context, or "" outside a
// request scope.
func GetRequestID(ctx context.Context) string {
	id, err := reqctx.RequestID(ctx)
	if err != nil {
		return ""
	}
	return id
}
