package settings

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

// ErrSettingsNotFound is returned when a user has no settings record.
var ErrSettingsNotFound = errors.New("settings not found")

// ErrGroupNotFound is returned when an expense group id does not exist.
var ErrGroupNotFound = errors.New("expense group not found")

// Repository provides operations on the settings table.
type Repository interface {
	Create(ctx context.Context, s *Settings) error
	FindByUserID(ctx context.Context, uid uuid.UUID) (*Settings, error)
	AddPaymentMethod(ctx context.Context, uid uuid.UUID, name string) error
	RemovePaymentMethod(ctx context.Context, uid uuid.UUID, name string) error
	// AddExpenseGroup assigns the next group id and returns it.
	AddExpenseGroup(ctx context.Context, uid uuid.UUID, name string, words []string) (int, error)
	UpdateExpenseGroup(ctx context.Context, uid uuid.UUID, id int, name string, words []string) error
	RemoveExpenseGroup(ctx context.Context, uid uuid.UUID, id int) error
}
