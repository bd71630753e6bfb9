package employee

import "context"

type EmployeeService interface {
	// Onboard creates the employee and grants leave for the rest of the joining year.
	Onboard(ctx context.Context, actor Actor, req OnboardEmployeeRequest) (EmployeeResponse, error)

	// ChangeBranch affects future evaluations only; past attendance is not recomputed.
	ChangeBranch(ctx context.Context, actor Actor, req ChangeBranchRequest) (EmployeeResponse, error)

	GetEmployee(ctx context.Context, actor Actor, id string) (EmployeeResponse, error)
	ListEmployees(ctx context.Context, actor Actor, filter EmployeeFilter) (ListEmployeeResponse, error)
}
