package leave

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/cmlabs-hris/attendance-engine/internal/domain/leave"
)

// BalanceService is the event-sourced leave ledger: monthly grant rows plus
// append-only debit and credit entries.
type BalanceService struct {
	leave.BalanceRepository
}

func NewBalanceService(balanceRepository leave.BalanceRepository) *BalanceService {
	return &BalanceService{
		BalanceRepository: balanceRepository,
	}
}

var _ leave.BalanceLedger = (*BalanceService)(nil)

// AvailableBalance sums the grants of months >= asOfMonth and the movements
// booked against those same months.
func (b *BalanceService) AvailableBalance(ctx context.Context, employeeID string, leaveType leave.LeaveType, asOfMonth, asOfYear int) (int, error) {
	if !leaveType.IsMetered() {
		return 0, nil
	}

	granted, err := b.BalanceRepository.SumGrants(ctx, employeeID, leaveType, asOfYear, asOfMonth)
	if err != nil {
		return 0, fmt.Errorf("failed to sum leave grants: %w", err)
	}

	moved, err := b.BalanceRepository.SumEntries(ctx, employeeID, leaveType, asOfYear, asOfMonth)
	if err != nil {
		return 0, fmt.Errorf("failed to sum leave balance entries: %w", err)
	}

	return granted + moved, nil
}

// InitializeBalances writes the flat monthly grant for joiningMonth through December.
// Nothing is pro-rated or carried over.
func (b *BalanceService) InitializeBalances(ctx context.Context, employeeID string, joiningMonth, joiningYear int, grant leave.Grant) error {
	if joiningMonth < 1 || joiningMonth > 12 {
		return fmt.Errorf("invalid joining month %d", joiningMonth)
	}

	grants := make([]leave.Balance, 0, 13-joiningMonth)
	for month := joiningMonth; month <= 12; month++ {
		grants = append(grants, leave.Balance{
			EmployeeID:      employeeID,
			Year:            joiningYear,
			Month:           month,
			EmergencyLeaves: grant.EmergencyPerMonth,
			PrivilegeLeaves: grant.PrivilegePerMonth,
		})
	}

	if err := b.BalanceRepository.CreateGrants(ctx, grants); err != nil {
		if errors.Is(err, leave.ErrBalanceAlreadyInitialized) {
			return err
		}
		return fmt.Errorf("failed to create leave grants: %w", err)
	}

	slog.InfoContext(ctx, "leave balances initialized",
		"employee_id", employeeID, "year", joiningYear, "from_month", joiningMonth,
		"emergency_per_month", grant.EmergencyPerMonth, "privilege_per_month", grant.PrivilegePerMonth)
	return nil
}

// Debit draws the application's charged days from the monthly grants of year,
// starting at asOfMonth and exhausting each month before moving to the next.
// Months that have already passed are never touched.
func (b *BalanceService) Debit(ctx context.Context, application leave.Application, asOfMonth, year int) error {
	if !application.LeaveType.IsMetered() || application.ChargedDays == 0 {
		return nil
	}

	grants, err := b.BalanceRepository.ListGrants(ctx, application.EmployeeID, year)
	if err != nil {
		return fmt.Errorf("failed to list leave grants: %w", err)
	}
	net, err := b.BalanceRepository.NetEntriesByMonth(ctx, application.EmployeeID, application.LeaveType, year)
	if err != nil {
		return fmt.Errorf("failed to sum leave balance entries: %w", err)
	}

	left := application.ChargedDays
	for _, g := range grants {
		if left == 0 {
			break
		}
		if g.Month < asOfMonth {
			continue
		}
		remaining := g.For(application.LeaveType) + net[g.Month]
		if remaining <= 0 {
			continue
		}
		take := min(remaining, left)

		_, err := b.BalanceRepository.AppendEntry(ctx, leave.BalanceEntry{
			EmployeeID:    application.EmployeeID,
			ApplicationID: application.ID,
			LeaveType:     application.LeaveType,
			Year:          year,
			Month:         g.Month,
			Delta:         -take,
			Reason:        leave.EntryDebit,
		})
		if err != nil {
			return fmt.Errorf("failed to debit leave balance: %w", err)
		}
		left -= take
	}

	if left > 0 {
		return &leave.InsufficientBalanceError{
			LeaveType: application.LeaveType,
			Available: application.ChargedDays - left,
			Required:  application.ChargedDays,
		}
	}
	return nil
}

type poolMonth struct {
	year  int
	month int
}

// Credit returns whatever the application still holds, per (year, month).
// Calling it again after a full reversal appends nothing.
func (b *BalanceService) Credit(ctx context.Context, application leave.Application) error {
	entries, err := b.BalanceRepository.ListEntriesByApplication(ctx, application.ID)
	if err != nil {
		return fmt.Errorf("failed to list leave balance entries: %w", err)
	}

	held := make(map[poolMonth]int)
	var months []poolMonth
	for _, e := range entries {
		key := poolMonth{year: e.Year, month: e.Month}
		if _, ok := held[key]; !ok {
			months = append(months, key)
		}
		held[key] += e.Delta
	}

	for _, key := range months {
		if held[key] >= 0 {
			continue
		}
		_, err := b.BalanceRepository.AppendEntry(ctx, leave.BalanceEntry{
			EmployeeID:    application.EmployeeID,
			ApplicationID: application.ID,
			LeaveType:     application.LeaveType,
			Year:          key.year,
			Month:         key.month,
			Delta:         -held[key],
			Reason:        leave.EntryCredit,
		})
		if err != nil {
			return fmt.Errorf("failed to credit leave balance: %w", err)
		}
	}
	return nil
}
