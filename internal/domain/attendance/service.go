package attendance

import (
	"context"

	"github.com/cmlabs-hris/attendance-engine/internal/domain/employee"
)

type AttendanceService interface {
	// MarkAttendance records today's check-in for the actor.
	MarkAttendance(ctx context.Context, actor employee.Actor, req CheckInRequest) (AttendanceResponse, error)

	// CheckOut adds the check-out time to today's record.
	CheckOut(ctx context.Context, actor employee.Actor, req CheckOutRequest) (AttendanceResponse, error)

	// UpdateAttendance is the administrative correction path. It bypasses geofencing and photos.
	UpdateAttendance(ctx context.Context, actor employee.Actor, req UpdateAttendanceRequest) (AttendanceResponse, error)

	GetAttendance(ctx context.Context, actor employee.Actor, id string) (AttendanceResponse, error)
	ListAttendance(ctx context.Context, actor employee.Actor, filter AttendanceFilter) (ListAttendanceResponse, error)
	MyAttendance(ctx context.Context, actor employee.Actor, filter MyAttendanceFilter) (ListAttendanceResponse, error)
}
