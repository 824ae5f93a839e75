package expense

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresRepository implements Repository using pgxpool. Items are stored
// as jsonb.
type PostgresRepository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a new Repository backed by the given connection pool.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &PostgresRepository{pool: pool}
}

const expenseColumns = `id, upid, bill_id, store, store_addr, date, time, items, payment_method, description, currency, total, created_at`

// Create inserts an expense into its partition.
func (r *PostgresRepository) Create(ctx context.Context, e *Expense) error {
	items, err := json.Marshal(e.Items)
	if err != nil {
		return fmt.Errorf("marshaling items: %w", err)
	}

	query := `
		INSERT INTO expenses (upid, bill_id, store, store_addr, date, time, items, payment_method, description, currency, total)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING id, created_at`

	err = r.pool.QueryRow(ctx, query,
		e.UPID, e.BillID, e.Store, e.StoreAddr, e.Date, e.Time,
		items, e.PaymentMethod, e.Description, e.Currency, e.Total,
	).Scan(&e.ID, &e.CreatedAt)
	if err != nil {
		return fmt.Errorf("inserting expense: %w", err)
	}

	return nil
}

// FindByID retrieves one expense inside the given partition.
func (r *PostgresRepository) FindByID(ctx context.Context, upid string, id uuid.UUID) (*Expense, error) {
	query := `SELECT ` + expenseColumns + ` FROM expenses WHERE upid = $1 AND id = $2`

	e, err := scanExpense(r.pool.QueryRow(ctx, query, upid, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrExpenseNotFound
		}
		return nil, fmt.Errorf("querying expense: %w", err)
	}
	return e, nil
}

// List retrieves a page of the partition's expenses, newest bill date first.
func (r *PostgresRepository) List(ctx context.Context, upid string, limit, offset int) ([]Expense, error) {
	query := `SELECT ` + expenseColumns + ` FROM expenses
		WHERE upid = $1
		ORDER BY date DESC, created_at DESC
		LIMIT $2 OFFSET $3`

	rows, err := r.pool.Query(ctx, query, upid, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("listing expenses: %w", err)
	}
	defer rows.Close()

	expenses := []Expense{}
	for rows.Next() {
		e, err := scanExpense(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning expense row: %w", err)
		}
		expenses = append(expenses, *e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating expense rows: %w", err)
	}

	return expenses, nil
}

// Update replaces the mutable fields of an expense inside its partition.
func (r *PostgresRepository) Update(ctx context.Context, e *Expense) error {
	items, err := json.Marshal(e.Items)
	if err != nil {
		return fmt.Errorf("marshaling items: %w", err)
	}

	query := `
		UPDATE expenses
		SET bill_id = $3, store = $4, store_addr = $5, date = $6, time = $7,
		    items = $8, payment_method = $9, description = $10, currency = $11, total = $12
		WHERE upid = $1 AND id = $2`

	result, err := r.pool.Exec(ctx, query,
		e.UPID, e.ID, e.BillID, e.Store, e.StoreAddr, e.Date, e.Time,
		items, e.PaymentMethod, e.Description, e.Currency, e.Total,
	)
	if err != nil {
		return fmt.Errorf("updating expense: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ErrExpenseNotFound
	}
	return nil
}

// Delete removes an expense from its partition.
func (r *PostgresRepository) Delete(ctx context.Context, upid string, id uuid.UUID) error {
	result, err := r.pool.Exec(ctx, `DELETE FROM expenses WHERE upid = $1 AND id = $2`, upid, id)
	if err != nil {
		return fmt.Errorf("deleting expense: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ErrExpenseNotFound
	}
	return nil
}

func scanExpense(row pgx.Row) (*Expense, error) {
	var (
		e     Expense
		items []byte
	)
	err := row.Scan(
		&e.ID, &e.UPID, &e.BillID, &e.Store, &e.StoreAddr, &e.Date, &e.Time,
		&items, &e.PaymentMethod, &e.Description, &e.Currency, &e.Total, &e.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(items, &e.Items); err != nil {
		return nil, fmt.Errorf("unmarshaling items: %w", err)
	}
	return &e, nil
}
