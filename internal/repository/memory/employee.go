package memory

import (
	"cmp"
	"context"
	"slices"
	"strings"
	"time"

	"github.com/cmlabs-hris/attendance-engine/internal/domain/branch"
	"github.com/cmlabs-hris/attendance-engine/internal/domain/employee"
	"github.com/google/uuid"
)

type employeeRepository struct {
	store *Store
}

func NewEmployeeRepository(store *Store) employee.EmployeeRepository {
	return &employeeRepository{store: store}
}

func (r *employeeRepository) Create(ctx context.Context, newEmployee employee.Employee) (employee.Employee, error) {
	err := r.store.write(ctx, func(t *tables) error {
		if _, ok := t.branches[newEmployee.BranchID]; !ok {
			return branch.ErrBranchNotFound
		}
		for _, e := range t.employees {
			if e.EmployeeCode == newEmployee.EmployeeCode {
				return employee.ErrEmployeeCodeExists
			}
		}
		now := time.Now()
		if newEmployee.ID == "" {
			newEmployee.ID = uuid.NewString()
		}
		newEmployee.JoiningDate = dateOnly(newEmployee.JoiningDate)
		newEmployee.CreatedAt = now
		newEmployee.UpdatedAt = now
		newEmployee.BranchName = nil
		t.employees[newEmployee.ID] = newEmployee
		return nil
	})
	if err != nil {
		return employee.Employee{}, err
	}
	return newEmployee, nil
}

func (r *employeeRepository) GetByID(ctx context.Context, id string) (employee.Employee, error) {
	var e employee.Employee
	err := r.store.read(func(t *tables) error {
		found, ok := t.employees[id]
		if !ok {
			return employee.ErrEmployeeNotFound
		}
		e = withBranchName(t, found)
		return nil
	})
	return e, err
}

func (r *employeeRepository) List(ctx context.Context, filter employee.EmployeeFilter) ([]employee.Employee, int64, error) {
	var result []employee.Employee
	var total int64
	err := r.store.read(func(t *tables) error {
		var matched []employee.Employee
		for _, e := range t.employees {
			if filter.BranchID != nil && *filter.BranchID != "" && e.BranchID != *filter.BranchID {
				continue
			}
			if filter.Role != nil && *filter.Role != "" && string(e.Role) != *filter.Role {
				continue
			}
			if filter.Search != nil && *filter.Search != "" {
				needle := strings.ToLower(*filter.Search)
				if !strings.Contains(strings.ToLower(e.FullName), needle) &&
					!strings.Contains(strings.ToLower(e.EmployeeCode), needle) {
					continue
				}
			}
			matched = append(matched, withBranchName(t, e))
		}
		slices.SortFunc(matched, func(a, b employee.Employee) int {
			return cmp.Compare(a.EmployeeCode, b.EmployeeCode)
		})
		total = int64(len(matched))
		result = paginate(matched, filter.Page, filter.Limit)
		return nil
	})
	return result, total, err
}

func (r *employeeRepository) UpdateBranch(ctx context.Context, id string, branchID string) error {
	return r.store.write(ctx, func(t *tables) error {
		e, ok := t.employees[id]
		if !ok {
			return employee.ErrEmployeeNotFound
		}
		if _, ok := t.branches[branchID]; !ok {
			return branch.ErrBranchNotFound
		}
		e.BranchID = branchID
		e.UpdatedAt = time.Now()
		t.employees[id] = e
		return nil
	})
}

func withBranchName(t *tables, e employee.Employee) employee.Employee {
	if b, ok := t.branches[e.BranchID]; ok {
		name := b.Name
		e.BranchName = &name
	}
	return e
}
