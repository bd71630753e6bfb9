package postgresql

import (
	"context"
	"errors"
	"fmt"

	"github.com/cmlabs-hris/attendance-engine/internal/domain/employee"
	"github.com/cmlabs-hris/attendance-engine/internal/domain/leave"
	"github.com/cmlabs-hris/attendance-engine/internal/pkg/database"
	"github.com/jackc/pgx/v5"
)

type leaveBalanceRepositoryImpl struct {
	db *database.DB
}

func NewLeaveBalanceRepository(db *database.DB) leave.BalanceRepository {
	return &leaveBalanceRepositoryImpl{db: db}
}

// CreateGrants implements leave.BalanceRepository.
func (r *leaveBalanceRepositoryImpl) CreateGrants(ctx context.Context, grants []leave.Balance) error {
	q := GetQuerier(ctx, r.db)

	query := `
		INSERT INTO leave_balances (employee_id, year, month, emergency_leaves, privilege_leaves)
		VALUES ($1, $2, $3, $4, $5)
	`
	for _, g := range grants {
		if _, err := q.Exec(ctx, query, g.EmployeeID, g.Year, g.Month, g.EmergencyLeaves, g.PrivilegeLeaves); err != nil {
			if _, ok := constraintViolation(err); ok {
				return leave.ErrBalanceAlreadyInitialized
			}
			return fmt.Errorf("failed to create leave grant: %w", err)
		}
	}
	return nil
}

// ListGrants implements leave.BalanceRepository.
func (r *leaveBalanceRepositoryImpl) ListGrants(ctx context.Context, employeeID string, year int) ([]leave.Balance, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		SELECT employee_id, year, month, emergency_leaves, privilege_leaves
		FROM leave_balances
		WHERE employee_id = $1 AND year = $2
		ORDER BY month ASC
	`
	rows, err := q.Query(ctx, query, employeeID, year)
	if err != nil {
		return nil, fmt.Errorf("failed to list leave grants: %w", err)
	}
	defer rows.Close()

	var grants []leave.Balance
	for rows.Next() {
		var b leave.Balance
		if err := rows.Scan(&b.EmployeeID, &b.Year, &b.Month, &b.EmergencyLeaves, &b.PrivilegeLeaves); err != nil {
			return nil, fmt.Errorf("failed to scan leave grant: %w", err)
		}
		grants = append(grants, b)
	}
	return grants, rows.Err()
}

// SumGrants implements leave.BalanceRepository.
func (r *leaveBalanceRepositoryImpl) SumGrants(ctx context.Context, employeeID string, leaveType leave.LeaveType, year, fromMonth int) (int, error) {
	q := GetQuerier(ctx, r.db)

	var column string
	switch leaveType {
	case leave.LeaveTypeEmergency:
		column = "emergency_leaves"
	case leave.LeaveTypePrivilege:
		column = "privilege_leaves"
	default:
		return 0, nil
	}

	query := fmt.Sprintf(`
		SELECT COALESCE(SUM(%s), 0)
		FROM leave_balances
		WHERE employee_id = $1 AND year = $2 AND month >= $3
	`, column)

	var total int
	if err := q.QueryRow(ctx, query, employeeID, year, fromMonth).Scan(&total); err != nil {
		return 0, fmt.Errorf("failed to sum leave grants: %w", err)
	}
	return total, nil
}

// SumEntries implements leave.BalanceRepository.
func (r *leaveBalanceRepositoryImpl) SumEntries(ctx context.Context, employeeID string, leaveType leave.LeaveType, year, fromMonth int) (int, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		SELECT COALESCE(SUM(delta), 0)
		FROM leave_balance_entries
		WHERE employee_id = $1 AND leave_type = $2 AND year = $3 AND month >= $4
	`
	var total int
	if err := q.QueryRow(ctx, query, employeeID, string(leaveType), year, fromMonth).Scan(&total); err != nil {
		return 0, fmt.Errorf("failed to sum leave balance entries: %w", err)
	}
	return total, nil
}

// NetEntriesByMonth implements leave.BalanceRepository.
func (r *leaveBalanceRepositoryImpl) NetEntriesByMonth(ctx context.Context, employeeID string, leaveType leave.LeaveType, year int) (map[int]int, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		SELECT month, SUM(delta)
		FROM leave_balance_entries
		WHERE employee_id = $1 AND leave_type = $2 AND year = $3
		GROUP BY month
	`
	rows, err := q.Query(ctx, query, employeeID, string(leaveType), year)
	if err != nil {
		return nil, fmt.Errorf("failed to sum leave balance entries by month: %w", err)
	}
	defer rows.Close()

	net := make(map[int]int)
	for rows.Next() {
		var month, delta int
		if err := rows.Scan(&month, &delta); err != nil {
			return nil, fmt.Errorf("failed to scan leave balance month: %w", err)
		}
		net[month] = delta
	}
	return net, rows.Err()
}

// LockPool implements leave.BalanceRepository. It must run inside a transaction.
func (r *leaveBalanceRepositoryImpl) LockPool(ctx context.Context, employeeID string) error {
	q := GetQuerier(ctx, r.db)

	var id string
	err := q.QueryRow(ctx, `SELECT id FROM employees WHERE id = $1 FOR UPDATE`, employeeID).Scan(&id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return employee.ErrEmployeeNotFound
		}
		return fmt.Errorf("failed to lock leave pool: %w", err)
	}
	return nil
}

// AppendEntry implements leave.BalanceRepository.
func (r *leaveBalanceRepositoryImpl) AppendEntry(ctx context.Context, entry leave.BalanceEntry) (leave.BalanceEntry, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		INSERT INTO leave_balance_entries (employee_id, application_id, leave_type, year, month, delta, reason, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, NOW())
		RETURNING id, created_at
	`
	err := q.QueryRow(ctx, query,
		entry.EmployeeID,
		entry.ApplicationID,
		string(entry.LeaveType),
		entry.Year,
		entry.Month,
		entry.Delta,
		string(entry.Reason),
	).Scan(&entry.ID, &entry.CreatedAt)
	if err != nil {
		return leave.BalanceEntry{}, fmt.Errorf("failed to append leave balance entry: %w", err)
	}
	return entry, nil
}

// ListEntriesByApplication implements leave.BalanceRepository.
func (r *leaveBalanceRepositoryImpl) ListEntriesByApplication(ctx context.Context, applicationID string) ([]leave.BalanceEntry, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		SELECT id, employee_id, application_id, leave_type, year, month, delta, reason, created_at
		FROM leave_balance_entries
		WHERE application_id = $1
		ORDER BY created_at ASC
	`
	rows, err := q.Query(ctx, query, applicationID)
	if err != nil {
		return nil, fmt.Errorf("failed to list leave balance entries: %w", err)
	}
	defer rows.Close()

	var entries []leave.BalanceEntry
	for rows.Next() {
		var e leave.BalanceEntry
		var leaveType, reason string
		if err := rows.Scan(&e.ID, &e.EmployeeID, &e.ApplicationID, &leaveType, &e.Year, &e.Month, &e.Delta, &reason, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan leave balance entry: %w", err)
		}
		e.LeaveType = leave.LeaveType(leaveType)
		e.Reason = leave.EntryReason(reason)
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
