package expense

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

// ErrExpenseNotFound is returned when an expense does not exist within the
// caller's partition. Records outside the caller's UPID are invisible, not
// forbidden.
var ErrExpenseNotFound = errors.New("expense not found")

// Repository provides operations on the expenses table. Every operation is
// scoped by UPID; there is no way to address a record across partitions.
type Repository interface {
	Create(ctx context.Context, e *Expense) error
	FindByID(ctx context.Context, upid string, id uuid.UUID) (*Expense, error)
	List(ctx context.Context, upid string, limit, offset int) ([]Expense, error)
	Update(ctx context.Context, e *Expense) error
	Delete(ctx context.Context, upid string, id uuid.UUID) error
}
