package auth

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/chronicle-app/chronicle/internal/cryptox"
	"github.com/chronicle-app/chronicle/internal/metadata"
	"github.com/chronicle-app/chronicle/internal/settings"
)

const sessionIDBytes = 32

// ErrInvalidCredentials is returned on login when the account does not
// exist, is not a native account, or the password does not match. The cause
// is deliberately not distinguished.
var ErrInvalidCredentials = errors.New("invalid email or password")

// Service provides account and session operations.
type Service struct {
	users      UserStore
	settings   settings.Repository
	metadata   metadata.Repository
	box        *cryptox.Box
	bcryptCost int
}

// NewService creates a new auth Service.
func NewService(users UserStore, settingsRepo settings.Repository, metadataRepo metadata.Repository, box *cryptox.Box, bcryptCost int) *Service {
	return &Service{
		users:      users,
		settings:   settingsRepo,
		metadata:   metadataRepo,
		box:        box,
		bcryptCost: bcryptCost,
	}
}

// RegisterNativeInput is the input for a native account registration.
// Fields are assumed to have passed boundary validation.
type RegisterNativeInput struct {
	Email    string
	Name     string
	Password string
}

// RegisterOAuthInput is the input for an OAuth account registration.
type RegisterOAuthInput struct {
	Email        string
	Name         string
	ProviderUID  string
	RefreshToken string
	Verified     bool
}

// NewSession generates a fresh session: 32 bytes from a cryptographically
// secure source, base64-encoded.
func (s *Service) NewSession() (Session, error) {
	b := make([]byte, sessionIDBytes)
	if _, err := rand.Read(b); err != nil {
		return Session{}, fmt.Errorf("generating session id: %w", err)
	}
	return Session{ID: base64.StdEncoding.EncodeToString(b), CreatedOn: time.Now().UTC()}, nil
}

// Register creates a native account with its first session, plus the default
// settings and metadata records for the user's initial tenant partition.
func (s *Service) Register(ctx context.Context, input RegisterNativeInput) (*User, *Session, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(input.Password), s.bcryptCost)
	if err != nil {
		return nil, nil, fmt.Errorf("hashing password: %w", err)
	}

	user := &User{
		Email:  normalizeEmail(input.Email),
		Name:   strings.TrimSpace(input.Name),
		Kind:   KindNative,
		Native: &NativeCredentials{PasswordHash: string(hash)},
	}

	return s.create(ctx, user)
}

// RegisterOAuth creates an OAuth account. The refresh token is encrypted at
// rest under the REFRESH_TOKEN purpose key, using the first 16 bytes of the
// provider subject id as the IV so re-registration of the same subject
// produces the same ciphertext.
func (s *Service) RegisterOAuth(ctx context.Context, input RegisterOAuthInput) (*User, *Session, error) {
	if len(input.ProviderUID) < 16 {
		return nil, nil, fmt.Errorf("provider uid too short for refresh token iv: %d bytes", len(input.ProviderUID))
	}

	iv := []byte(input.ProviderUID)[:16]
	encrypted, err := s.box.Encrypt(iv, cryptox.PurposeRefreshToken, []byte(input.RefreshToken))
	if err != nil {
		return nil, nil, fmt.Errorf("encrypting refresh token: %w", err)
	}

	user := &User{
		Email:    normalizeEmail(input.Email),
		Name:     strings.TrimSpace(input.Name),
		Verified: input.Verified,
		Kind:     KindOAuth,
		OAuth:    &OAuthCredentials{ProviderUID: input.ProviderUID, EncryptedRefreshToken: encrypted},
	}

	return s.create(ctx, user)
}

func (s *Service) create(ctx context.Context, user *User) (*User, *Session, error) {
	session, err := s.NewSession()
	if err != nil {
		return nil, nil, err
	}
	user.Sessions = []Session{session}

	if err := s.users.Create(ctx, user); err != nil {
		return nil, nil, err
	}

	if err := s.settings.Create(ctx, settings.DefaultSettings(user.ID)); err != nil {
		return nil, nil, fmt.Errorf("creating default settings: %w", err)
	}

	upid := settings.UPID(user.ID, settings.DefaultProfileID)
	if err := s.metadata.Create(ctx, &metadata.Metadata{UPID: upid, Module: metadata.ModuleFinance}); err != nil {
		return nil, nil, fmt.Errorf("creating metadata: %w", err)
	}

	slog.Info("user registered", "email", user.Email, "kind", user.Kind)
	return user, &session, nil
}

// Login verifies a native account's password and appends a fresh session to
// the user's session list.
func (s *Service) Login(ctx context.Context, email, password string) (*User, *Session, error) {
	user, err := s.users.FindByEmail(ctx, normalizeEmail(email))
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return nil, nil, ErrInvalidCredentials
		}
		return nil, nil, err
	}
	if user.Kind != KindNative {
		return nil, nil, ErrInvalidCredentials
	}
	if bcrypt.CompareHashAndPassword([]byte(user.Native.PasswordHash), []byte(password)) != nil {
		return nil, nil, ErrInvalidCredentials
	}

	session, err := s.NewSession()
	if err != nil {
		return nil, nil, err
	}
	if err := s.users.AppendSession(ctx, user.ID, session); err != nil {
		return nil, nil, err
	}
	user.Sessions = append(user.Sessions, session)

	return user, &session, nil
}

// Logout removes one session, or all of them when sessionID is AllSessions.
func (s *Service) Logout(ctx context.Context, uid uuid.UUID, sessionID string) error {
	return s.users.RemoveSession(ctx, uid, sessionID)
}

// UpdatePassword re-hashes and stores a new password for a native account.
func (s *Service) UpdatePassword(ctx context.Context, uid uuid.UUID, password string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.bcryptCost)
	if err != nil {
		return fmt.Errorf("hashing password: %w", err)
	}
	return s.users.UpdatePasswordHash(ctx, uid, string(hash))
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
