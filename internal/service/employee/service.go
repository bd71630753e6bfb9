package employee

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/cmlabs-hris/attendance-engine/internal/domain/audit"
	"github.com/cmlabs-hris/attendance-engine/internal/domain/branch"
	"github.com/cmlabs-hris/attendance-engine/internal/domain/employee"
	"github.com/cmlabs-hris/attendance-engine/internal/domain/leave"
	"github.com/cmlabs-hris/attendance-engine/internal/pkg/database"
	"github.com/cmlabs-hris/attendance-engine/internal/service/calendar"
)

const targetTable = "employees"

type EmployeeServiceImpl struct {
	db           database.Transactor
	employeeRepo employee.EmployeeRepository
	branchRepo   branch.BranchRepository
	ledger       leave.BalanceLedger
	grant        leave.Grant
	recorder     audit.Recorder
	now          func() time.Time
}

func NewEmployeeService(
	db database.Transactor,
	employeeRepo employee.EmployeeRepository,
	branchRepo branch.BranchRepository,
	ledger leave.BalanceLedger,
	grant leave.Grant,
	recorder audit.Recorder,
) employee.EmployeeService {
	return &EmployeeServiceImpl{
		db:           db,
		employeeRepo: employeeRepo,
		branchRepo:   branchRepo,
		ledger:       ledger,
		grant:        grant,
		recorder:     recorder,
		now:          time.Now,
	}
}

func mapEmployeeToResponse(emp employee.Employee) employee.EmployeeResponse {
	return employee.EmployeeResponse{
		ID:           emp.ID,
		EmployeeCode: emp.EmployeeCode,
		FullName:     emp.FullName,
		Email:        emp.Email,
		BranchID:     emp.BranchID,
		BranchName:   emp.BranchName,
		Role:         string(emp.Role),
		JoiningDate:  emp.JoiningDate.Format("2006-01-02"),
		CreatedAt:    emp.CreatedAt.Format("2006-01-02 15:04:05"),
	}
}

func employeeValues(emp employee.Employee) audit.Values {
	return audit.Values{
		"employee_code": emp.EmployeeCode,
		"full_name":     emp.FullName,
		"email":         emp.Email,
		"branch_id":     emp.BranchID,
		"role":          string(emp.Role),
		"joining_date":  emp.JoiningDate.Format("2006-01-02"),
	}
}

func (s *EmployeeServiceImpl) getBranch(ctx context.Context, id string) (branch.Branch, error) {
	b, err := s.branchRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, branch.ErrBranchNotFound) {
			return branch.Branch{}, err
		}
		return branch.Branch{}, fmt.Errorf("failed to get branch: %w", err)
	}
	return b, nil
}

// Onboard implements employee.EmployeeService.
func (s *EmployeeServiceImpl) Onboard(ctx context.Context, actor employee.Actor, req employee.OnboardEmployeeRequest) (employee.EmployeeResponse, error) {
	if err := actor.RequireAdmin(); err != nil {
		return employee.EmployeeResponse{}, err
	}
	if err := req.Validate(); err != nil {
		return employee.EmployeeResponse{}, err
	}

	b, err := s.getBranch(ctx, req.BranchID)
	if err != nil {
		return employee.EmployeeResponse{}, err
	}

	joiningDate := req.ParsedJoiningDate
	if req.JoiningDate == "" {
		joiningDate = calendar.Day(s.now().In(b.TimeLocation()))
	}

	newEmployee := employee.Employee{
		EmployeeCode: req.EmployeeCode,
		FullName:     req.FullName,
		Email:        req.Email,
		BranchID:     b.ID,
		Role:         employee.Role(req.Role),
		JoiningDate:  joiningDate,
	}

	var created employee.Employee

	// The employee row, its leave grants and the audit entry commit together
	err = s.db.WithinTransaction(ctx, func(ctx context.Context) error {
		created, err = s.employeeRepo.Create(ctx, newEmployee)
		if err != nil {
			if errors.Is(err, employee.ErrEmployeeCodeExists) || errors.Is(err, branch.ErrBranchNotFound) {
				return err
			}
			return fmt.Errorf("failed to create employee: %w", err)
		}

		if err := s.ledger.InitializeBalances(ctx, created.ID, int(joiningDate.Month()), joiningDate.Year(), s.grant); err != nil {
			return fmt.Errorf("failed to initialize leave balances: %w", err)
		}

		return s.recorder.Record(ctx, actor.EmployeeID, audit.ActionCreateEmployee, targetTable, created.ID, nil, employeeValues(created))
	})
	if err != nil {
		return employee.EmployeeResponse{}, err
	}

	slog.InfoContext(ctx, "employee onboarded", "employee_id", created.ID, "branch_id", created.BranchID)

	created.BranchName = &b.Name
	return mapEmployeeToResponse(created), nil
}

// ChangeBranch implements employee.EmployeeService.
func (s *EmployeeServiceImpl) ChangeBranch(ctx context.Context, actor employee.Actor, req employee.ChangeBranchRequest) (employee.EmployeeResponse, error) {
	if err := actor.RequireAdmin(); err != nil {
		return employee.EmployeeResponse{}, err
	}
	if err := req.Validate(); err != nil {
		return employee.EmployeeResponse{}, err
	}

	if _, err := s.getBranch(ctx, req.BranchID); err != nil {
		return employee.EmployeeResponse{}, err
	}

	err := s.db.WithinTransaction(ctx, func(ctx context.Context) error {
		existing, err := s.employeeRepo.GetByID(ctx, req.EmployeeID)
		if err != nil {
			if errors.Is(err, employee.ErrEmployeeNotFound) {
				return err
			}
			return fmt.Errorf("failed to get employee: %w", err)
		}
		if existing.BranchID == req.BranchID {
			return nil
		}

		if err := s.employeeRepo.UpdateBranch(ctx, req.EmployeeID, req.BranchID); err != nil {
			return fmt.Errorf("failed to update employee branch: %w", err)
		}

		return s.recorder.Record(ctx, actor.EmployeeID, audit.ActionChangeBranch, targetTable, req.EmployeeID,
			audit.Values{"branch_id": existing.BranchID}, audit.Values{"branch_id": req.BranchID})
	})
	if err != nil {
		return employee.EmployeeResponse{}, err
	}

	return s.GetEmployee(ctx, actor, req.EmployeeID)
}

// GetEmployee implements employee.EmployeeService.
func (s *EmployeeServiceImpl) GetEmployee(ctx context.Context, actor employee.Actor, id string) (employee.EmployeeResponse, error) {
	if err := actor.Validate(); err != nil {
		return employee.EmployeeResponse{}, err
	}

	// Employees can only view their own data
	if !actor.CanAccess(id) {
		return employee.EmployeeResponse{}, employee.ErrUnauthorized
	}

	emp, err := s.employeeRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, employee.ErrEmployeeNotFound) {
			return employee.EmployeeResponse{}, err
		}
		return employee.EmployeeResponse{}, fmt.Errorf("failed to get employee: %w", err)
	}

	return mapEmployeeToResponse(emp), nil
}

// ListEmployees implements employee.EmployeeService.
func (s *EmployeeServiceImpl) ListEmployees(ctx context.Context, actor employee.Actor, filter employee.EmployeeFilter) (employee.ListEmployeeResponse, error) {
	if err := actor.RequireAdmin(); err != nil {
		return employee.ListEmployeeResponse{}, err
	}
	if err := filter.Validate(); err != nil {
		return employee.ListEmployeeResponse{}, err
	}

	employees, totalCount, err := s.employeeRepo.List(ctx, filter)
	if err != nil {
		return employee.ListEmployeeResponse{}, fmt.Errorf("failed to list employees: %w", err)
	}

	responses := make([]employee.EmployeeResponse, 0, len(employees))
	for _, emp := range employees {
		responses = append(responses, mapEmployeeToResponse(emp))
	}

	return employee.ListEmployeeResponse{
		TotalCount: totalCount,
		Page:       filter.Page,
		Limit:      filter.Limit,
		TotalPages: int(math.Ceil(float64(totalCount) / float64(filter.Limit))),
		Employees:  responses,
	}, nil
}
