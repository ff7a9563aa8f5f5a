package directory

import (
	"context"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/spec-kit/ticket-copilot/internal/domain"
)

// StaticDirectory serves employees held in memory, typically loaded from a
// YAML file for local runs.
type StaticDirectory struct {
	employees map[string]domain.EmployeeRecord
}

type employeesFile struct {
	Employees []domain.EmployeeRecord `yaml:"employees"`
}

// NewStaticDirectory indexes records by normalized id. Duplicate ids are rejected.
func NewStaticDirectory(records []domain.EmployeeRecord) (*StaticDirectory, error) {
	index := make(map[string]domain.EmployeeRecord, len(records))
	for _, rec := range records {
		id := NormalizeID(rec.ID)
		if id == "" {
			return nil, fmt.Errorf("employee record without id")
		}
		if _, dup := index[id]; dup {
			return nil, fmt.Errorf("duplicate employee id %q", id)
		}
		rec.ID = id
		index[id] = rec
	}
	return &StaticDirectory{employees: index}, nil
}

// LoadFile reads a YAML employees file.
func LoadFile(path string) (*StaticDirectory, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read employees file: %w", err)
	}
	var f employeesFile
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("parse employees file %s: %w", path, err)
	}
	return NewStaticDirectory(f.Employees)
}

// Lookup implements Directory.
func (d *StaticDirectory) Lookup(ctx context.Context, id string) (*domain.EmployeeRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	rec, ok := d.employees[NormalizeID(id)]
	if !ok {
		return nil, domain.ErrEmployeeNotFound
	}
	return &rec, nil
}

// Len returns the number of employees held.
func (d *StaticDirectory) Len() int {
	return len(d.employees)
}
