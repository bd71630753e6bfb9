package attendance

import (
	"context"
	"time"
)

type AttendanceRepository interface {
	// Create fails with ErrAlreadyMarked when a record exists for (employee, date).
	Create(ctx context.Context, attendance Attendance) (Attendance, error)

	GetByID(ctx context.Context, id string) (Attendance, error)

	// GetByEmployeeAndDate returns ErrAttendanceNotFound when the employee has no record that day.
	GetByEmployeeAndDate(ctx context.Context, employeeID string, date time.Time) (Attendance, error)

	Update(ctx context.Context, attendance Attendance) error

	List(ctx context.Context, filter AttendanceFilter) ([]Attendance, int64, error)
}
