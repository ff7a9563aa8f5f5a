// Package directory resolves requester identity claims to employee records.
package directory

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/spec-kit/ticket-copilot/internal/domain"
)

// Directory is a read-only employee store. Lookup returns
// domain.ErrEmployeeNotFound for unknown ids.
type Directory interface {
	Lookup(ctx context.Context, id string) (*domain.EmployeeRecord, error)
}

// Resolver normalizes identity claims before consulting a Directory.
type Resolver struct {
	dir    Directory
	logger *zap.Logger
}

// NewResolver constructs a Resolver.
func NewResolver(dir Directory, logger *zap.Logger) *Resolver {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Resolver{dir: dir, logger: logger}
}

// NormalizeID trims and upper-cases an employee id ("e007 " -> "E007").
func NormalizeID(id string) string {
	return strings.ToUpper(strings.TrimSpace(id))
}

// Resolve maps claim to a record. Unknown or empty claims yield
// domain.ErrEmployeeNotFound; other failures are wrapped as provider errors.
func (r *Resolver) Resolve(ctx context.Context, claim string) (domain.EmployeeRecord, error) {
	id := NormalizeID(claim)
	if id == "" {
		return domain.EmployeeRecord{}, domain.ErrEmployeeNotFound
	}

	record, err := r.dir.Lookup(ctx, id)
	switch {
	case errors.Is(err, domain.ErrEmployeeNotFound):
		return domain.EmployeeRecord{}, err
	case err != nil:
		r.logger.Warn("directory lookup failed", zap.String("employee_id", id), zap.Error(err))
		if errors.Is(err, domain.ErrProvider) {
			return domain.EmployeeRecord{}, err
		}
		return domain.EmployeeRecord{}, fmt.Errorf("directory lookup: %w: %w", domain.ErrProvider, err)
	case record == nil:
		return domain.EmployeeRecord{}, domain.ErrEmployeeNotFound
	}

	out := *record
	out.Role = domain.NormalizeRole(string(out.Role))
	out.Permissions = append([]string(nil), record.Permissions...)
	return out, nil
}
