package postgresql

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cmlabs-hris/attendance-engine/internal/domain/leave"
	"github.com/cmlabs-hris/attendance-engine/internal/pkg/database"
	"github.com/jackc/pgx/v5"
)

type leaveApplicationRepositoryImpl struct {
	db *database.DB
}

func NewLeaveApplicationRepository(db *database.DB) leave.ApplicationRepository {
	return &leaveApplicationRepositoryImpl{db: db}
}

const leaveApplicationColumns = `
	la.id, la.employee_id, la.leave_type, la.start_date, la.end_date, la.reason,
	la.status, la.charged_days, la.decided_by, la.decided_at, la.rejection_reason,
	la.created_at, la.updated_at, e.full_name`

func scanLeaveApplication(row pgx.Row) (leave.Application, error) {
	var la leave.Application
	var leaveType, status string
	err := row.Scan(
		&la.ID, &la.EmployeeID, &leaveType, &la.StartDate, &la.EndDate, &la.Reason,
		&status, &la.ChargedDays, &la.DecidedBy, &la.DecidedAt, &la.RejectionReason,
		&la.CreatedAt, &la.UpdatedAt, &la.EmployeeName,
	)
	la.LeaveType = leave.LeaveType(leaveType)
	la.Status = leave.Status(status)
	return la, err
}

// Create implements leave.ApplicationRepository.
func (r *leaveApplicationRepositoryImpl) Create(ctx context.Context, application leave.Application) (leave.Application, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		INSERT INTO leave_applications (employee_id, leave_type, start_date, end_date, reason, status, charged_days, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, NOW(), NOW())
		RETURNING id, created_at, updated_at
	`
	err := q.QueryRow(ctx, query,
		application.EmployeeID,
		string(application.LeaveType),
		application.StartDate,
		application.EndDate,
		application.Reason,
		string(application.Status),
		application.ChargedDays,
	).Scan(&application.ID, &application.CreatedAt, &application.UpdatedAt)
	if err != nil {
		if name, ok := constraintViolation(err); ok && name == "leave_applications_no_overlap" {
			return leave.Application{}, leave.ErrOverlappingApplication
		}
		return leave.Application{}, fmt.Errorf("failed to create leave application: %w", err)
	}
	return application, nil
}

// GetByID implements leave.ApplicationRepository.
func (r *leaveApplicationRepositoryImpl) GetByID(ctx context.Context, id string) (leave.Application, error) {
	q := GetQuerier(ctx, r.db)

	query := `SELECT ` + leaveApplicationColumns + `
		FROM leave_applications la
		LEFT JOIN employees e ON e.id = la.employee_id
		WHERE la.id = $1`

	la, err := scanLeaveApplication(q.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return leave.Application{}, leave.ErrApplicationNotFound
		}
		return leave.Application{}, fmt.Errorf("failed to get leave application: %w", err)
	}
	return la, nil
}

// HasOverlap implements leave.ApplicationRepository.
func (r *leaveApplicationRepositoryImpl) HasOverlap(ctx context.Context, employeeID string, start, end time.Time) (bool, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		SELECT EXISTS (
			SELECT 1
			FROM leave_applications
			WHERE employee_id = $1
			  AND status <> 'rejected'
			  AND start_date <= $3
			  AND end_date >= $2
		)
	`
	var exists bool
	if err := q.QueryRow(ctx, query, employeeID, start, end).Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to check leave overlap: %w", err)
	}
	return exists, nil
}

// UpdateStatus implements leave.ApplicationRepository.
func (r *leaveApplicationRepositoryImpl) UpdateStatus(ctx context.Context, id string, status leave.Status, decidedBy string, decidedAt time.Time, rejectionReason *string) error {
	q := GetQuerier(ctx, r.db)

	query := `
		UPDATE leave_applications
		SET status = $2, decided_by = $3, decided_at = $4, rejection_reason = $5, updated_at = NOW()
		WHERE id = $1 AND status = 'pending'
	`
	tag, err := q.Exec(ctx, query, id, string(status), decidedBy, decidedAt, rejectionReason)
	if err != nil {
		return fmt.Errorf("failed to update leave application status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		if _, err := r.GetByID(ctx, id); err != nil {
			return err
		}
		return leave.ErrApplicationAlreadyProcessed
	}
	return nil
}

// List implements leave.ApplicationRepository.
func (r *leaveApplicationRepositoryImpl) List(ctx context.Context, filter leave.ApplicationFilter) ([]leave.Application, int64, error) {
	q := GetQuerier(ctx, r.db)

	baseWhere := "1=1"
	args := []interface{}{}
	argIdx := 1

	if filter.EmployeeID != nil && *filter.EmployeeID != "" {
		baseWhere += fmt.Sprintf(" AND la.employee_id = $%d", argIdx)
		args = append(args, *filter.EmployeeID)
		argIdx++
	}
	if filter.Status != nil && *filter.Status != "" {
		baseWhere += fmt.Sprintf(" AND la.status = $%d", argIdx)
		args = append(args, *filter.Status)
		argIdx++
	}
	if filter.LeaveType != nil && *filter.LeaveType != "" {
		baseWhere += fmt.Sprintf(" AND la.leave_type = $%d", argIdx)
		args = append(args, *filter.LeaveType)
		argIdx++
	}

	var total int64
	if err := q.QueryRow(ctx, "SELECT COUNT(*) FROM leave_applications la WHERE "+baseWhere, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count leave applications: %w", err)
	}

	limit := filter.Limit
	if limit == 0 {
		limit = 20
	}
	page := filter.Page
	if page < 1 {
		page = 1
	}
	args = append(args, limit, (page-1)*limit)

	query := fmt.Sprintf(`
		SELECT %s
		FROM leave_applications la
		LEFT JOIN employees e ON e.id = la.employee_id
		WHERE %s
		ORDER BY la.created_at DESC, la.id
		LIMIT $%d OFFSET $%d
	`, leaveApplicationColumns, baseWhere, argIdx, argIdx+1)

	rows, err := q.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list leave applications: %w", err)
	}
	defer rows.Close()

	var applications []leave.Application
	for rows.Next() {
		la, err := scanLeaveApplication(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan leave application: %w", err)
		}
		applications = append(applications, la)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("failed to iterate leave applications: %w", err)
	}
	return applications, total, nil
}
