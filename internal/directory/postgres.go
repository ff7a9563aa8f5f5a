package directory

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/ticket-copilot/internal/domain"
)

// rowQuerier is the subset of *pgxpool.Pool used by PostgresDirectory.
type rowQuerier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// PostgresDirectory reads employees from the employees table.
type PostgresDirectory struct {
	pool rowQuerier
}

// NewPostgresDirectory instantiates the directory.
func NewPostgresDirectory(pool rowQuerier) *PostgresDirectory {
	return &PostgresDirectory{pool: pool}
}

const lookupEmployeeQuery = `
        SELECT id, COALESCE(name, ''), role, department, COALESCE(seniority, ''), COALESCE(permissions, '{}')
        FROM employees WHERE id=$1 AND active_flag`

// Lookup implements Directory.
func (d *PostgresDirectory) Lookup(ctx context.Context, id string) (*domain.EmployeeRecord, error) {
	var (
		emp  domain.EmployeeRecord
		role string
	)
	if err := d.pool.QueryRow(ctx, lookupEmployeeQuery, id).Scan(
		&emp.ID,
		&emp.Name,
		&role,
		&emp.Department,
		&emp.Seniority,
		&emp.Permissions,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrEmployeeNotFound
		}
		return nil, err
	}
	emp.Role = domain.Role(role)
	return &emp, nil
}
