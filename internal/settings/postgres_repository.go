package settings

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresRepository implements Repository using pgxpool. Profiles and
// groups are stored as jsonb, payment methods as a text array.
type PostgresRepository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a new Repository backed by the given connection pool.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &PostgresRepository{pool: pool}
}

// Create inserts a settings record.
func (r *PostgresRepository) Create(ctx context.Context, s *Settings) error {
	profiles, err := json.Marshal(s.Profiles)
	if err != nil {
		return fmt.Errorf("marshaling profiles: %w", err)
	}
	groups, err := json.Marshal(s.Groups)
	if err != nil {
		return fmt.Errorf("marshaling groups: %w", err)
	}

	pms := s.PaymentMethods
	if pms == nil {
		pms = []string{}
	}

	_, err = r.pool.Exec(ctx, `
		INSERT INTO settings (user_id, module, profiles, groups, payment_methods)
		VALUES ($1, $2, $3, $4, $5)`,
		s.UserID, s.Module, profiles, groups, pms,
	)
	if err != nil {
		return fmt.Errorf("inserting settings: %w", err)
	}
	return nil
}

// FindByUserID retrieves the finance settings for a user.
func (r *PostgresRepository) FindByUserID(ctx context.Context, uid uuid.UUID) (*Settings, error) {
	query := `
		SELECT user_id, module, profiles, groups, payment_methods
		FROM settings
		WHERE user_id = $1 AND module = $2`

	var (
		s        Settings
		profiles []byte
		groups   []byte
	)
	err := r.pool.QueryRow(ctx, query, uid, ModuleFinance).Scan(
		&s.UserID, &s.Module, &profiles, &groups, &s.PaymentMethods,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrSettingsNotFound
		}
		return nil, fmt.Errorf("querying settings: %w", err)
	}

	if err := json.Unmarshal(profiles, &s.Profiles); err != nil {
		return nil, fmt.Errorf("unmarshaling profiles: %w", err)
	}
	if err := json.Unmarshal(groups, &s.Groups); err != nil {
		return nil, fmt.Errorf("unmarshaling groups: %w", err)
	}

	return &s, nil
}

// AddPaymentMethod appends a payment method name to the user's list.
func (r *PostgresRepository) AddPaymentMethod(ctx context.Context, uid uuid.UUID, name string) error {
	result, err := r.pool.Exec(ctx, `
		UPDATE settings
		SET payment_methods = array_append(payment_methods, $3)
		WHERE user_id = $1 AND module = $2`,
		uid, ModuleFinance, name,
	)
	if err != nil {
		return fmt.Errorf("adding payment method: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ErrSettingsNotFound
	}
	return nil
}

// RemovePaymentMethod removes a payment method name from the user's list.
func (r *PostgresRepository) RemovePaymentMethod(ctx context.Context, uid uuid.UUID, name string) error {
	result, err := r.pool.Exec(ctx, `
		UPDATE settings
		SET payment_methods = array_remove(payment_methods, $3)
		WHERE user_id = $1 AND module = $2`,
		uid, ModuleFinance, name,
	)
	if err != nil {
		return fmt.Errorf("removing payment method: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ErrSettingsNotFound
	}
	return nil
}

// AddExpenseGroup appends a group with the next incrementing id. The
// read-modify-write runs in a transaction with the row locked.
func (r *PostgresRepository) AddExpenseGroup(ctx context.Context, uid uuid.UUID, name string, words []string) (int, error) {
	var id int
	err := r.mutateGroups(ctx, uid, func(groups []ExpenseGroup) ([]ExpenseGroup, error) {
		id = 1
		if len(groups) > 0 {
			id = groups[len(groups)-1].ID + 1
		}
		return append(groups, ExpenseGroup{ID: id, Name: name, Words: words}), nil
	})
	if err != nil {
		return 0, err
	}
	return id, nil
}

// UpdateExpenseGroup replaces the name and words of an existing group.
func (r *PostgresRepository) UpdateExpenseGroup(ctx context.Context, uid uuid.UUID, id int, name string, words []string) error {
	return r.mutateGroups(ctx, uid, func(groups []ExpenseGroup) ([]ExpenseGroup, error) {
		for i := range groups {
			if groups[i].ID == id {
				groups[i].Name = name
				groups[i].Words = words
				return groups, nil
			}
		}
		return nil, ErrGroupNotFound
	})
}

// RemoveExpenseGroup deletes a group by id.
func (r *PostgresRepository) RemoveExpenseGroup(ctx context.Context, uid uuid.UUID, id int) error {
	return r.mutateGroups(ctx, uid, func(groups []ExpenseGroup) ([]ExpenseGroup, error) {
		for i := range groups {
			if groups[i].ID == id {
				return append(groups[:i], groups[i+1:]...), nil
			}
		}
		return nil, ErrGroupNotFound
	})
}

func (r *PostgresRepository) mutateGroups(ctx context.Context, uid uuid.UUID, mutate func([]ExpenseGroup) ([]ExpenseGroup, error)) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	var raw []byte
	err = tx.QueryRow(ctx, `
		SELECT groups FROM settings
		WHERE user_id = $1 AND module = $2
		FOR UPDATE`,
		uid, ModuleFinance,
	).Scan(&raw)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrSettingsNotFound
		}
		return fmt.Errorf("querying groups: %w", err)
	}

	var groups []ExpenseGroup
	if err := json.Unmarshal(raw, &groups); err != nil {
		return fmt.Errorf("unmarshaling groups: %w", err)
	}

	groups, err = mutate(groups)
	if err != nil {
		return err
	}

	updated, err := json.Marshal(groups)
	if err != nil {
		return fmt.Errorf("marshaling groups: %w", err)
	}

	if _, err := tx.Exec(ctx, `
		UPDATE settings SET groups = $3
		WHERE user_id = $1 AND module = $2`,
		uid, ModuleFinance, updated,
	); err != nil {
		return fmt.Errorf("updating groups: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("committing groups: %w", err)
	}
	return nil
}
