package leave

import (
	"time"

	"github.com/cmlabs-hris/attendance-engine/internal/domain/audit"
)

type LeaveType string

const (
	LeaveTypeEmergency LeaveType = "emergency"
	LeaveTypePrivilege LeaveType = "privilege"
	LeaveTypeUnpaid    LeaveType = "unpaid"
)

func (t LeaveType) IsValid() bool {
	switch t {
	case LeaveTypeEmergency, LeaveTypePrivilege, LeaveTypeUnpaid:
		return true
	}
	return false
}

// IsMetered reports whether applications of this type draw on the balance pool.
func (t LeaveType) IsMetered() bool {
	return t == LeaveTypeEmergency || t == LeaveTypePrivilege
}

type Status string

const (
	StatusPending  Status = "pending"
	StatusApproved Status = "approved"
	StatusRejected Status = "rejected"
)

func (s Status) IsValid() bool {
	return s == StatusPending || s == StatusApproved || s == StatusRejected
}

func (s Status) IsTerminal() bool {
	return s == StatusApproved || s == StatusRejected
}

// Application dates are calendar dates held at midnight UTC; both ends are inclusive.
type Application struct {
	ID              string
	EmployeeID      string
	LeaveType       LeaveType
	StartDate       time.Time
	EndDate         time.Time
	Reason          string
	Status          Status
	ChargedDays     int
	DecidedBy       *string
	DecidedAt       *time.Time
	RejectionReason *string
	CreatedAt       time.Time
	UpdatedAt       time.Time

	// DTO
	EmployeeName *string
}

// Overlaps reports whether [start, end] intersects the application's range.
func (a Application) Overlaps(start, end time.Time) bool {
	return !start.After(a.EndDate) && !end.Before(a.StartDate)
}

// Blocking reports whether the application still holds its dates.
func (a Application) Blocking() bool {
	return a.Status != StatusRejected
}

func (a Application) AuditValues() audit.Values {
	return audit.Values{
		"leave_type":   string(a.LeaveType),
		"start_date":   a.StartDate.Format("2006-01-02"),
		"end_date":     a.EndDate.Format("2006-01-02"),
		"status":       string(a.Status),
		"charged_days": a.ChargedDays,
	}
}

// Balance is the monthly grant row of an employee.
type Balance struct {
	EmployeeID      string
	Year            int
	Month           int
	EmergencyLeaves int
	PrivilegeLeaves int
}

// For returns the grant of the given type; unmetered types have none.
func (b Balance) For(t LeaveType) int {
	switch t {
	case LeaveTypeEmergency:
		return b.EmergencyLeaves
	case LeaveTypePrivilege:
		return b.PrivilegeLeaves
	}
	return 0
}

// Grant is the flat amount credited for every month of the year.
type Grant struct {
	EmergencyPerMonth int
	PrivilegePerMonth int
}

type EntryReason string

const (
	EntryDebit  EntryReason = "debit"
	EntryCredit EntryReason = "credit"
)

// BalanceEntry is an append-only movement against one monthly grant.
// Debits carry a negative Delta, credits a positive one.
type BalanceEntry struct {
	ID            string
	EmployeeID    string
	ApplicationID string
	LeaveType     LeaveType
	Year          int
	Month         int
	Delta         int
	Reason        EntryReason
	CreatedAt     time.Time
}
