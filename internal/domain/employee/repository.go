package employee

import "context"

type EmployeeRepository interface {
	// Create fails with ErrEmployeeCodeExists when the code is taken.
	Create(ctx context.Context, newEmployee Employee) (Employee, error)
	GetByID(ctx context.Context, id string) (Employee, error)
	List(ctx context.Context, filter EmployeeFilter) ([]Employee, int64, error)
	UpdateBranch(ctx context.Context, id string, branchID string) error
}
