// Package reqctx carries the per-request identity scope through the call
// chain. The scope is an explicit context value, not a mutable global: each
// request gets its own allocation, so concurrent requests can never observe
// each other's identity, and the scope becomes unreachable when the request
// finishes.
package reqctx

import (
	"context"
	"errors"
	"net/http"

	"github.com/google/uuid"

	"github.com/chronicle-app/chronicle/internal/auth"
	"github.com/chronicle-app/chronicle/internal/settings"
)

// ErrNotInitialized is returned when a "current" value is read before it has
// been set, or from a context that was never given a scope. Both indicate a
// code path executing outside an authenticated request flow, a programming
// error rather than a user-facing condition.
var ErrNotInitialized = errors.New("request context not initialized")

// UserView is the composite stored once authentication completes: the
// identity plus the resolved tenant settings and profile. Settings and
// Profile are nil when the user has none configured.
type UserView struct {
	User     *auth.User
	Settings *settings.Settings
	Profile  *settings.Profile
}

// Scope is the per-request store. Mutations within a request are sequential
// (the middleware's steps never overlap), so no locking is needed; isolation
// between requests comes from each request owning its own Scope.
type Scope struct {
	requestID string
	req       *http.Request
	session   *auth.Session
	user      *UserView
}

type ctxKey struct{}

// New allocates a fresh Scope with a unique request id and attaches it to
// the context. Called exactly once per inbound request.
func New(ctx context.Context, r *http.Request) (context.Context, *Scope) {
	scope := &Scope{requestID: uuid.NewString(), req: r}
	return context.WithValue(ctx, ctxKey{}, scope), scope
}

func fromContext(ctx context.Context) (*Scope, error) {
	scope, ok := ctx.Value(ctxKey{}).(*Scope)
	if !ok {
		return nil, ErrNotInitialized
	}
	return scope, nil
}

// RequestID returns the current request's unique id.
func RequestID(ctx context.Context) (string, error) {
	scope, err := fromContext(ctx)
	if err != nil {
		return "", err
	}
	return scope.requestID, nil
}

// Request returns the raw request handle for the current request.
func Request(ctx context.Context) (*http.Request, error) {
	scope, err := fromContext(ctx)
	if err != nil {
		return nil, err
	}
	return scope.req, nil
}

// CurrentSession returns the active session resolved by authentication.
func CurrentSession(ctx context.Context) (*auth.Session, error) {
	scope, err := fromContext(ctx)
	if err != nil {
		return nil, err
	}
	if scope.session == nil {
		return nil, ErrNotInitialized
	}
	return scope.session, nil
}

// SetCurrentSession stores the active session for the current request.
func SetCurrentSession(ctx context.Context, session *auth.Session) error {
	scope, err := fromContext(ctx)
	if err != nil {
		return err
	}
	scope.session = session
	return nil
}

// CurrentUser returns the authenticated user view for the current request.
func CurrentUser(ctx context.Context) (*UserView, error) {
	scope, err := fromContext(ctx)
	if err != nil {
		return nil, err
	}
	if scope.user == nil {
		return nil, ErrNotInitialized
	}
	return scope.user, nil
}

// SetCurrentUser stores the identity with its resolved tenant settings and
// profile for the current request.
func SetCurrentUser(ctx context.Context, user *auth.User, s *settings.Settings, profile *settings.Profile) error {
	scope, err := fromContext(ctx)
	if err != nil {
		return err
	}
	scope.user = &UserView{User: user, Settings: s, Profile: profile}
	return nil
}
