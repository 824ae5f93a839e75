package auth

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const uniqueViolation = "23505"

// PostgresStore implements UserStore using pgxpool. Users live in the users
// table and their sessions in a child sessions table that cascades on
// delete, preserving the record ownership of the original model.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewStore creates a new UserStore backed by the given connection pool.
func NewStore(pool *pgxpool.Pool) UserStore {
	return &PostgresStore{pool: pool}
}

// Create inserts a user record along with any sessions already attached to
// it (register attaches the first session before persisting).
func (s *PostgresStore) Create(ctx context.Context, u *User) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	query := `
		INSERT INTO users (email, name, verified, image_url, kind, password_hash, provider_uid, refresh_token_enc)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, created_at`

	var passwordHash, providerUID, refreshToken *string
	if u.Native != nil {
		passwordHash = &u.Native.PasswordHash
	}
	if u.OAuth != nil {
		providerUID = &u.OAuth.ProviderUID
		refreshToken = &u.OAuth.EncryptedRefreshToken
	}

	err = tx.QueryRow(ctx, query,
		u.Email, u.Name, u.Verified, u.ImageURL, u.Kind,
		passwordHash, providerUID, refreshToken,
	).Scan(&u.ID, &u.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return ErrEmailTaken
		}
		return fmt.Errorf("inserting user: %w", err)
	}

	for _, sess := range u.Sessions {
		if _, err := tx.Exec(ctx,
			`INSERT INTO sessions (id, user_id, created_on) VALUES ($1, $2, $3)`,
			sess.ID, u.ID, sess.CreatedOn,
		); err != nil {
			return fmt.Errorf("inserting session: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("committing user: %w", err)
	}

	return nil
}

// FindByID retrieves a user and its owned sessions.
func (s *PostgresStore) FindByID(ctx context.Context, id uuid.UUID) (*User, error) {
	return s.findOne(ctx, "id = $1", id)
}

// FindByEmail retrieves a user by its case-normalized email address.
func (s *PostgresStore) FindByEmail(ctx context.Context, email string) (*User, error) {
	return s.findOne(ctx, "email = $1", email)
}

func (s *PostgresStore) findOne(ctx context.Context, where string, arg any) (*User, error) {
	query := `
		SELECT id, email, name, verified, image_url, kind, password_hash, provider_uid, refresh_token_enc, created_at
		FROM users
		WHERE ` + where

	var (
		u            User
		passwordHash *string
		providerUID  *string
		refreshToken *string
	)
	err := s.pool.QueryRow(ctx, query, arg).Scan(
		&u.ID, &u.Email, &u.Name, &u.Verified, &u.ImageURL, &u.Kind,
		&passwordHash, &providerUID, &refreshToken, &u.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("querying user: %w", err)
	}

	switch u.Kind {
	case KindNative:
		u.Native = &NativeCredentials{PasswordHash: *passwordHash}
	case KindOAuth:
		u.OAuth = &OAuthCredentials{ProviderUID: *providerUID, EncryptedRefreshToken: *refreshToken}
	}

	sessions, err := s.loadSessions(ctx, u.ID)
	if err != nil {
		return nil, err
	}
	u.Sessions = sessions

	return &u, nil
}

func (s *PostgresStore) loadSessions(ctx context.Context, id uuid.UUID) ([]Session, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, created_on FROM sessions WHERE user_id = $1 ORDER BY created_on ASC`, id)
	if err != nil {
		return nil, fmt.Errorf("querying sessions: %w", err)
	}
	defer rows.Close()

	var sessions []Session
	for rows.Next() {
		var sess Session
		if err := rows.Scan(&sess.ID, &sess.CreatedOn); err != nil {
			return nil, fmt.Errorf("scanning session row: %w", err)
		}
		sessions = append(sessions, sess)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating session rows: %w", err)
	}

	return sessions, nil
}

// AppendSession adds a session to the user's session list.
func (s *PostgresStore) AppendSession(ctx context.Context, id uuid.UUID, session Session) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO sessions (id, user_id, created_on) VALUES ($1, $2, $3)`,
		session.ID, id, session.CreatedOn,
	)
	if err != nil {
		return fmt.Errorf("appending session: %w", err)
	}
	return nil
}

// RemoveSession removes one session, or every session the user owns when
// sessionID is AllSessions.
func (s *PostgresStore) RemoveSession(ctx context.Context, id uuid.UUID, sessionID string) error {
	var err error
	if sessionID == AllSessions {
		_, err = s.pool.Exec(ctx, `DELETE FROM sessions WHERE user_id = $1`, id)
	} else {
		_, err = s.pool.Exec(ctx, `DELETE FROM sessions WHERE user_id = $1 AND id = $2`, id, sessionID)
	}
	if err != nil {
		return fmt.Errorf("removing session: %w", err)
	}
	return nil
}

// UpdatePasswordHash replaces the password hash of a native account.
func (s *PostgresStore) UpdatePasswordHash(ctx context.Context, id uuid.UUID, hash string) error {
	result, err := s.pool.Exec(ctx,
		`UPDATE users SET password_hash = $2 WHERE id = $1 AND kind = 'native'`, id, hash)
	if err != nil {
		return fmt.Errorf("updating password hash: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ErrUserNotFound
	}
	return nil
}
