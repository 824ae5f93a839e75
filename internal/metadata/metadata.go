// Package metadata tracks per-partition bookkeeping for tenant-owned
// records, keyed by the UPID scoping key.
package metadata

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ModuleFinance is the only metadata module currently in use.
const ModuleFinance = "finance"

// ErrMetadataNotFound is returned when no record exists for a UPID.
var ErrMetadataNotFound = errors.New("metadata not found")

// Metadata is one bookkeeping row for a (upid, module) partition.
type Metadata struct {
	UPID      string
	Module    string
	BillCount int
}

// Repository provides operations on the metadata table.
type Repository interface {
	Create(ctx context.Context, m *Metadata) error
	FindByUPID(ctx context.Context, upid string) (*Metadata, error)
	IncrementBillCounter(ctx context.Context, upid string, delta int) error
}

// PostgresRepository implements Repository using pgxpool.
type PostgresRepository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a new Repository backed by the given connection pool.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &PostgresRepository{pool: pool}
}

// Create inserts a metadata record.
func (r *PostgresRepository) Create(ctx context.Context, m *Metadata) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO metadata (upid, module, bill_count)
		VALUES ($1, $2, $3)`,
		m.UPID, m.Module, m.BillCount,
	)
	if err != nil {
		return fmt.Errorf("inserting metadata: %w", err)
	}
	return nil
}

// FindByUPID retrieves the finance metadata for a scoping key.
func (r *PostgresRepository) FindByUPID(ctx context.Context, upid string) (*Metadata, error) {
	var m Metadata
	err := r.pool.QueryRow(ctx, `
		SELECT upid, module, bill_count FROM metadata
		WHERE upid = $1 AND module = $2`,
		upid, ModuleFinance,
	).Scan(&m.UPID, &m.Module, &m.BillCount)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrMetadataNotFound
		}
		return nil, fmt.Errorf("querying metadata: %w", err)
	}
	return &m, nil
}

// IncrementBillCounter adjusts the bill counter by delta. The row is created
// on first use so partitions that predate their metadata still count.
func (r *PostgresRepository) IncrementBillCounter(ctx context.Context, upid string, delta int) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO metadata (upid, module, bill_count)
		VALUES ($1, $2, GREATEST($3, 0))
		ON CONFLICT (upid, module)
		DO UPDATE SET bill_count = GREATEST(metadata.bill_count + $3, 0)`,
		upid, ModuleFinance, delta,
	)
	if err != nil {
		return fmt.Errorf("incrementing bill counter: %w", err)
	}
	return nil
}
