package leave

import (
	"context"
	"time"
)

type ApplicationRepository interface {
	// Create fails with ErrOverlappingApplication when a non-rejected application
	// of the same employee intersects the range.
	Create(ctx context.Context, application Application) (Application, error)
	GetByID(ctx context.Context, id string) (Application, error)
	HasOverlap(ctx context.Context, employeeID string, start, end time.Time) (bool, error)

	// UpdateStatus moves a pending application to status and fails with
	// ErrApplicationAlreadyProcessed when it is no longer pending.
	UpdateStatus(ctx context.Context, id string, status Status, decidedBy string, decidedAt time.Time, rejectionReason *string) error

	List(ctx context.Context, filter ApplicationFilter) ([]Application, int64, error)
}

type BalanceRepository interface {
	CreateGrants(ctx context.Context, grants []Balance) error
	ListGrants(ctx context.Context, employeeID string, year int) ([]Balance, error)

	// SumGrants adds the grants of leaveType over months >= fromMonth of year.
	SumGrants(ctx context.Context, employeeID string, leaveType LeaveType, year, fromMonth int) (int, error)
	// SumEntries adds the movements of leaveType booked against months >= fromMonth of year.
	SumEntries(ctx context.Context, employeeID string, leaveType LeaveType, year, fromMonth int) (int, error)
	// NetEntriesByMonth returns the net movement of leaveType per month of year.
	NetEntriesByMonth(ctx context.Context, employeeID string, leaveType LeaveType, year int) (map[int]int, error)

	// LockPool serializes balance read-then-write for one employee until the transaction ends.
	LockPool(ctx context.Context, employeeID string) error

	AppendEntry(ctx context.Context, entry BalanceEntry) (BalanceEntry, error)
	ListEntriesByApplication(ctx context.Context, applicationID string) ([]BalanceEntry, error)
}
