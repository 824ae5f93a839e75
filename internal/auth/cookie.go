package auth

import (
	"errors"
	"net/http"
	"strings"
)

// Auth cookie constants. The cookie value is uid + "|" + session id, in the
// clear: the session id itself is the secret, so no signing or encryption is
// applied at this layer.
const (
	CookieName   = "SASID"
	CookieMaxAge = 30 * 24 * 60 * 60
)

// ErrMalformedCookie is returned when a cookie value cannot be split into a
// uid and a session id. It never crosses the HTTP boundary; the middleware
// collapses it into a generic 401.
var ErrMalformedCookie = errors.New("malformed auth cookie")

// EncodeCookie builds the auth cookie value for a uid and session id.
func EncodeCookie(uid, sessionID string) string {
	return uid + "|" + sessionID
}

// DecodeCookie splits a cookie value back into uid and session id. A missing
// delimiter or an empty half fails with ErrMalformedCookie, never a partial
// identity.
func DecodeCookie(value string) (uid, sessionID string, err error) {
	uid, sessionID, ok := strings.Cut(value, "|")
	if !ok || uid == "" || sessionID == "" {
		return "", "", ErrMalformedCookie
	}
	return uid, sessionID, nil
}

// NewCookie builds the http.Cookie carrying an encoded identity. The Secure
// flag is set only in production so local development over plain HTTP works.
func NewCookie(uid, sessionID string, production bool) *http.Cookie {
	return &http.Cookie{
		Name:     CookieName,
		Value:    EncodeCookie(uid, sessionID),
		MaxAge:   CookieMaxAge,
		Path:     "/",
		Secure:   production,
		HttpOnly: true,
	}
}

// ExpiredCookie returns a cookie that instructs the client to drop the auth
// cookie, used on logout.
func ExpiredCookie(production bool) *http.Cookie {
	return &http.Cookie{
		Name:     CookieName,
		Value:    "",
		MaxAge:   -1,
		Path:     "/",
		Secure:   production,
		HttpOnly: true,
	}
}
