package auth

import (
	"time"

	"github.com/google/uuid"
)

// Kind discriminates the two account flavours. A user is exactly one of the
// two, never both.
type Kind string

const (
	// KindNative is an email+password account.
	KindNative Kind = "native"
	// KindOAuth is an account delegated to an external identity provider.
	KindOAuth Kind = "oauth"
)

// Session is a server-recognized login instance. Its id is 32 random bytes,
// base64-encoded; unguessability of that id is the only thing protecting the
// auth cookie, which is neither signed nor encrypted.
type Session struct {
	ID        string
	CreatedOn time.Time
}

// NativeCredentials holds the password hash of a native account.
type NativeCredentials struct {
	PasswordHash string
}

// OAuthCredentials holds the provider subject id and the refresh token,
// encrypted at rest under the REFRESH_TOKEN purpose key.
type OAuthCredentials struct {
	ProviderUID           string
	EncryptedRefreshToken string
}

// User represents an account row plus its owned sessions. Exactly one of
// Native or OAuth is non-nil, matching Kind. Email is stored lowercased and
// is unique across accounts.
type User struct {
	ID        uuid.UUID
	Email     string
	Name      string
	Verified  bool
	ImageURL  *string
	Kind      Kind
	Native    *NativeCredentials
	OAuth     *OAuthCredentials
	Sessions  []Session
	CreatedAt time.Time
}

// FindSession returns the owned session with the given id, or nil.
func (u *User) FindSession(id string) *Session {
	for i := range u.Sessions {
		if u.Sessions[i].ID == id {
			return &u.Sessions[i]
		}
	}
	return nil
}
