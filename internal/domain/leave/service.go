package leave

import (
	"context"
	"time"

	"github.com/cmlabs-hris/attendance-engine/internal/domain/employee"
)

// BalanceLedger keeps per-employee, per-month leave allotments and their movements.
type BalanceLedger interface {
	// AvailableBalance is the pool of months >= asOfMonth in asOfYear, net of debits and credits.
	AvailableBalance(ctx context.Context, employeeID string, leaveType LeaveType, asOfMonth, asOfYear int) (int, error)

	// InitializeBalances grants one row per month from joiningMonth through December.
	InitializeBalances(ctx context.Context, employeeID string, joiningMonth, joiningYear int, grant Grant) error
	ListGrants(ctx context.Context, employeeID string, year int) ([]Balance, error)

	// LockPool serializes balance reads and writes of one employee for the enclosing transaction.
	LockPool(ctx context.Context, employeeID string) error

	// Debit draws the application's charged days from the monthly grants of
	// year, oldest first, starting at asOfMonth.
	Debit(ctx context.Context, application Application, asOfMonth, year int) error
	// Credit reverses every debit held by the application, month by month.
	Credit(ctx context.Context, application Application) error
}

type ConflictDetector interface {
	HasOverlap(ctx context.Context, employeeID string, start, end time.Time) (bool, error)
}

type LeaveService interface {
	// Validate runs every check of Apply without persisting.
	Validate(ctx context.Context, actor employee.Actor, req ApplyLeaveRequest) (ValidationPreview, error)
	Apply(ctx context.Context, actor employee.Actor, req ApplyLeaveRequest) (ApplicationResponse, error)

	Approve(ctx context.Context, actor employee.Actor, id string) (ApplicationResponse, error)
	Reject(ctx context.Context, actor employee.Actor, req RejectLeaveRequest) (ApplicationResponse, error)

	GetApplication(ctx context.Context, actor employee.Actor, id string) (ApplicationResponse, error)
	MyApplications(ctx context.Context, actor employee.Actor, filter MyApplicationFilter) (ListApplicationResponse, error)
	ListApplications(ctx context.Context, actor employee.Actor, filter ApplicationFilter) (ListApplicationResponse, error)

	BalanceSummary(ctx context.Context, actor employee.Actor, employeeID string) (BalanceSummaryResponse, error)
}
