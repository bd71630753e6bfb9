package leave

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

const targetTable = "leave_applications"

type LeaveServiceImpl struct {
	db database.Transactor
	leave.ApplicationRepository
	employee.EmployeeRepository
	branch.BranchRepository
	ledger    leave.BalanceLedger
	conflicts leave.ConflictDetector
	days      calendar.Service
	recorder  audit.Recorder
	now       func() time.Time
}

func NewLeaveService(
	db database.Transactor,
	applicationRepository leave.ApplicationRepository,
	employeeRepository employee.EmployeeRepository,
	branchRepository branch.BranchRepository,
	ledger leave.BalanceLedger,
	conflicts leave.ConflictDetector,
	days calendar.Service,
	recorder audit.Recorder,
) leave.LeaveService {
	return &LeaveServiceImpl{
		db:                    db,
		ApplicationRepository: applicationRepository,
		EmployeeRepository:    employeeRepository,
		BranchRepository:      branchRepository,
		ledger:                ledger,
		conflicts:             conflicts,
		days:                  days,
		recorder:              recorder,
		now:                   time.Now,
	}
}

// evaluation is the outcome of the policy checks of a leave request.
type evaluation struct {
	employeeID  string
	today       time.Time
	chargedDays int
	available   *int
}

// evaluate runs the policy checks in order, stopping at the first failure.
func (l *LeaveServiceImpl) evaluate(ctx context.Context, employeeID string, req leave.ApplyLeaveRequest) (evaluation, error) {
	emp, err := l.EmployeeRepository.GetByID(ctx, employeeID)
	if err != nil {
		if errors.Is(err, employee.ErrEmployeeNotFound) {
			return evaluation{}, err
		}
		return evaluation{}, fmt.Errorf("failed to get employee: %w", err)
	}

	b, err := l.BranchRepository.GetByID(ctx, emp.BranchID)
	if err != nil {
		if errors.Is(err, branch.ErrBranchNotFound) {
			return evaluation{}, err
		}
		return evaluation{}, fmt.Errorf("failed to get branch: %w", err)
	}

	today := calendar.Day(l.now().In(b.TimeLocation()))
	start, end := calendar.Day(req.ParsedStartDate), calendar.Day(req.ParsedEndDate)

	if start.Before(today) {
		return evaluation{}, leave.ErrStartDateInPast
	}
	if end.Before(start) {
		return evaluation{}, leave.ErrEndDateBeforeStart
	}

	chargedDays, err := l.days.CountLeaveDays(ctx, b.ID, start, end)
	if err != nil {
		return evaluation{}, fmt.Errorf("failed to count leave days: %w", err)
	}

	result := evaluation{employeeID: emp.ID, today: today, chargedDays: chargedDays}

	leaveType := leave.LeaveType(req.LeaveType)
	if leaveType.IsMetered() {
		available, err := l.ledger.AvailableBalance(ctx, emp.ID, leaveType, int(today.Month()), today.Year())
		if err != nil {
			return evaluation{}, err
		}
		if chargedDays > available {
			return evaluation{}, &leave.InsufficientBalanceError{LeaveType: leaveType, Available: available, Required: chargedDays}
		}
		result.available = &available
	}

	overlap, err := l.conflicts.HasOverlap(ctx, emp.ID, start, end)
	if err != nil {
		return evaluation{}, err
	}
	if overlap {
		return evaluation{}, leave.ErrOverlappingApplication
	}

	return result, nil
}

// Validate implements leave.LeaveService.
func (l *LeaveServiceImpl) Validate(ctx context.Context, actor employee.Actor, req leave.ApplyLeaveRequest) (leave.ValidationPreview, error) {
	if err := actor.Validate(); err != nil {
		return leave.ValidationPreview{}, err
	}
	if err := req.Validate(); err != nil {
		return leave.ValidationPreview{}, err
	}

	result, err := l.evaluate(ctx, actor.EmployeeID, req)
	if err != nil {
		return leave.ValidationPreview{}, err
	}

	message := fmt.Sprintf("Leave request valid for %d days. Unpaid leave does not draw on the balance", result.chargedDays)
	if result.available != nil {
		message = fmt.Sprintf("Leave request valid for %d days. Available balance: %d", result.chargedDays, *result.available)
	}

	return leave.ValidationPreview{
		LeaveType:        req.LeaveType,
		StartDate:        req.ParsedStartDate.Format("2006-01-02"),
		EndDate:          req.ParsedEndDate.Format("2006-01-02"),
		ChargedDays:      result.chargedDays,
		AvailableBalance: result.available,
		Message:          message,
	}, nil
}

// Apply implements leave.LeaveService.
func (l *LeaveServiceImpl) Apply(ctx context.Context, actor employee.Actor, req leave.ApplyLeaveRequest) (leave.ApplicationResponse, error) {
	if err := actor.Validate(); err != nil {
		return leave.ApplicationResponse{}, err
	}
	if err := req.Validate(); err != nil {
		return leave.ApplicationResponse{}, err
	}

	var created leave.Application
	err := l.db.WithinTransaction(ctx, func(ctx context.Context) error {
		if err := l.ledger.LockPool(ctx, actor.EmployeeID); err != nil {
			return fmt.Errorf("failed to lock leave balance: %w", err)
		}

		result, err := l.evaluate(ctx, actor.EmployeeID, req)
		if err != nil {
			return err
		}

		created, err = l.ApplicationRepository.Create(ctx, leave.Application{
			EmployeeID:  result.employeeID,
			LeaveType:   leave.LeaveType(req.LeaveType),
			StartDate:   calendar.Day(req.ParsedStartDate),
			EndDate:     calendar.Day(req.ParsedEndDate),
			Reason:      req.Reason,
			Status:      leave.StatusPending,
			ChargedDays: result.chargedDays,
		})
		if err != nil {
			if errors.Is(err, leave.ErrOverlappingApplication) {
				return err
			}
			return fmt.Errorf("failed to create leave application: %w", err)
		}

		if err := l.ledger.Debit(ctx, created, int(result.today.Month()), result.today.Year()); err != nil {
			return err
		}

		return l.recorder.Record(ctx, actor.EmployeeID, audit.ActionApplyLeave, targetTable, created.ID, nil, created.AuditValues())
	})
	if err != nil {
		return leave.ApplicationResponse{}, err
	}

	slog.InfoContext(ctx, "leave application submitted",
		"application_id", created.ID, "employee_id", created.EmployeeID,
		"leave_type", created.LeaveType, "charged_days", created.ChargedDays)

	return mapApplicationToResponse(created), nil
}

// Approve implements leave.LeaveService.
func (l *LeaveServiceImpl) Approve(ctx context.Context, actor employee.Actor, id string) (leave.ApplicationResponse, error) {
	if err := actor.RequireAdmin(); err != nil {
		return leave.ApplicationResponse{}, err
	}
	return l.decide(ctx, actor, id, leave.StatusApproved, nil)
}

// Reject implements leave.LeaveService. The reserved days go back to the pool.
func (l *LeaveServiceImpl) Reject(ctx context.Context, actor employee.Actor, req leave.RejectLeaveRequest) (leave.ApplicationResponse, error) {
	if err := actor.RequireAdmin(); err != nil {
		return leave.ApplicationResponse{}, err
	}
	if err := req.Validate(); err != nil {
		return leave.ApplicationResponse{}, err
	}
	return l.decide(ctx, actor, req.ID, leave.StatusRejected, &req.Reason)
}

func (l *LeaveServiceImpl) decide(ctx context.Context, actor employee.Actor, id string, status leave.Status, rejectionReason *string) (leave.ApplicationResponse, error) {
	var decided leave.Application
	err := l.db.WithinTransaction(ctx, func(ctx context.Context) error {
		current, err := l.ApplicationRepository.GetByID(ctx, id)
		if err != nil {
			if errors.Is(err, leave.ErrApplicationNotFound) {
				return err
			}
			return fmt.Errorf("failed to get leave application: %w", err)
		}
		if current.Status != leave.StatusPending {
			return leave.ErrApplicationAlreadyProcessed
		}

		decidedAt := l.now().UTC()
		if err := l.ApplicationRepository.UpdateStatus(ctx, id, status, actor.EmployeeID, decidedAt, rejectionReason); err != nil {
			if errors.Is(err, leave.ErrApplicationAlreadyProcessed) || errors.Is(err, leave.ErrApplicationNotFound) {
				return err
			}
			return fmt.Errorf("failed to update leave application: %w", err)
		}

		decided = current
		decided.Status = status
		decided.DecidedBy = &actor.EmployeeID
		decided.DecidedAt = &decidedAt
		decided.RejectionReason = rejectionReason

		if status == leave.StatusRejected {
			if err := l.ledger.Credit(ctx, decided); err != nil {
				return err
			}
		}

		action := audit.ActionApproveLeave
		if status == leave.StatusRejected {
			action = audit.ActionRejectLeave
		}
		return l.recorder.Record(ctx, actor.EmployeeID, action, targetTable, id,
			audit.Values{"status": string(current.Status)},
			audit.Values{"status": string(status), "rejection_reason": rejectionReason})
	})
	if err != nil {
		return leave.ApplicationResponse{}, err
	}

	return mapApplicationToResponse(decided), nil
}

// GetApplication implements leave.LeaveService.
func (l *LeaveServiceImpl) GetApplication(ctx context.Context, actor employee.Actor, id string) (leave.ApplicationResponse, error) {
	if err := actor.Validate(); err != nil {
		return leave.ApplicationResponse{}, err
	}

	application, err := l.ApplicationRepository.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, leave.ErrApplicationNotFound) {
			return leave.ApplicationResponse{}, err
		}
		return leave.ApplicationResponse{}, fmt.Errorf("failed to get leave application: %w", err)
	}
	if !actor.CanAccess(application.EmployeeID) {
		return leave.ApplicationResponse{}, employee.ErrUnauthorized
	}

	return mapApplicationToResponse(application), nil
}

// MyApplications implements leave.LeaveService.
func (l *LeaveServiceImpl) MyApplications(ctx context.Context, actor employee.Actor, filter leave.MyApplicationFilter) (leave.ListApplicationResponse, error) {
	if err := actor.Validate(); err != nil {
		return leave.ListApplicationResponse{}, err
	}
	return l.list(ctx, filter.ToFilter(actor.EmployeeID))
}

// ListApplications implements leave.LeaveService.
func (l *LeaveServiceImpl) ListApplications(ctx context.Context, actor employee.Actor, filter leave.ApplicationFilter) (leave.ListApplicationResponse, error) {
	if err := actor.RequireAdmin(); err != nil {
		return leave.ListApplicationResponse{}, err
	}
	return l.list(ctx, filter)
}

func (l *LeaveServiceImpl) list(ctx context.Context, filter leave.ApplicationFilter) (leave.ListApplicationResponse, error) {
	if err := filter.Validate(); err != nil {
		return leave.ListApplicationResponse{}, err
	}

	applications, total, err := l.ApplicationRepository.List(ctx, filter)
	if err != nil {
		return leave.ListApplicationResponse{}, fmt.Errorf("failed to list leave applications: %w", err)
	}

	responses := make([]leave.ApplicationResponse, 0, len(applications))
	for _, a := range applications {
		responses = append(responses, mapApplicationToResponse(a))
	}

	return leave.ListApplicationResponse{
		TotalCount:   total,
		Page:         filter.Page,
		Limit:        filter.Limit,
		TotalPages:   int(math.Ceil(float64(total) / float64(filter.Limit))),
		Applications: responses,
	}, nil
}

// BalanceSummary implements leave.LeaveService. An empty employeeID means the actor.
func (l *LeaveServiceImpl) BalanceSummary(ctx context.Context, actor employee.Actor, employeeID string) (leave.BalanceSummaryResponse, error) {
	if err := actor.Validate(); err != nil {
		return leave.BalanceSummaryResponse{}, err
	}
	if employeeID == "" {
		employeeID = actor.EmployeeID
	}
	if !actor.CanAccess(employeeID) {
		return leave.BalanceSummaryResponse{}, employee.ErrUnauthorized
	}

	emp, err := l.EmployeeRepository.GetByID(ctx, employeeID)
	if err != nil {
		if errors.Is(err, employee.ErrEmployeeNotFound) {
			return leave.BalanceSummaryResponse{}, err
		}
		return leave.BalanceSummaryResponse{}, fmt.Errorf("failed to get employee: %w", err)
	}
	b, err := l.BranchRepository.GetByID(ctx, emp.BranchID)
	if err != nil {
		return leave.BalanceSummaryResponse{}, fmt.Errorf("failed to get branch: %w", err)
	}
	today := l.now().In(b.TimeLocation())
	month, year := int(today.Month()), today.Year()

	emergency, err := l.ledger.AvailableBalance(ctx, emp.ID, leave.LeaveTypeEmergency, month, year)
	if err != nil {
		return leave.BalanceSummaryResponse{}, err
	}
	privilege, err := l.ledger.AvailableBalance(ctx, emp.ID, leave.LeaveTypePrivilege, month, year)
	if err != nil {
		return leave.BalanceSummaryResponse{}, err
	}

	grants, err := l.ledgerGrants(ctx, emp.ID, year)
	if err != nil {
		return leave.BalanceSummaryResponse{}, err
	}

	return leave.BalanceSummaryResponse{
		EmployeeID:         emp.ID,
		Year:               year,
		AsOfMonth:          month,
		EmergencyAvailable: emergency,
		PrivilegeAvailable: privilege,
		Grants:             grants,
	}, nil
}

func (l *LeaveServiceImpl) ledgerGrants(ctx context.Context, employeeID string, year int) ([]leave.MonthlyGrantResponse, error) {
	rows, err := l.ledger.ListGrants(ctx, employeeID, year)
	if err != nil {
		return nil, fmt.Errorf("failed to list leave grants: %w", err)
	}

	grants := make([]leave.MonthlyGrantResponse, 0, len(rows))
	for _, r := range rows {
		grants = append(grants, leave.MonthlyGrantResponse{
			Month:           r.Month,
			EmergencyLeaves: r.EmergencyLeaves,
			PrivilegeLeaves: r.PrivilegeLeaves,
		})
	}
	return grants, nil
}

func timePtrToString(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := t.UTC().Format(time.RFC3339)
	return &s
}

func mapApplicationToResponse(a leave.Application) leave.ApplicationResponse {
	var employeeName string
	if a.EmployeeName != nil {
		employeeName = *a.EmployeeName
	}

	return leave.ApplicationResponse{
		ID:              a.ID,
		EmployeeID:      a.EmployeeID,
		EmployeeName:    employeeName,
		LeaveType:       string(a.LeaveType),
		StartDate:       a.StartDate.Format("2006-01-02"),
		EndDate:         a.EndDate.Format("2006-01-02"),
		ChargedDays:     a.ChargedDays,
		Reason:          a.Reason,
		Status:          string(a.Status),
		DecidedBy:       a.DecidedBy,
		DecidedAt:       timePtrToString(a.DecidedAt),
		RejectionReason: a.RejectionReason,
		CreatedAt:       a.CreatedAt.Format(time.RFC3339),
	}
}
