package branch

import (
	"context"

	"github.com/cmlabs-hris/attendance-engine/internal/domain/employee"
)

type BranchService interface {
	// SaveBranch creates the branch when req.ID is empty, otherwise updates it, together with its shift policy.
	SaveBranch(ctx context.Context, actor employee.Actor, req SaveBranchRequest) (BranchResponse, error)
	GetBranch(ctx context.Context, id string) (BranchResponse, error)
	ListBranches(ctx context.Context) ([]BranchResponse, error)

	ReplaceWeeklyOffs(ctx context.Context, actor employee.Actor, req ReplaceWeeklyOffsRequest) (WeeklyOffsResponse, error)
	GetWeeklyOffs(ctx context.Context, branchID string) (WeeklyOffsResponse, error)

	AddHoliday(ctx context.Context, actor employee.Actor, req AddHolidayRequest) (HolidayResponse, error)
	DeleteHoliday(ctx context.Context, actor employee.Actor, holidayID string) error
	ListHolidays(ctx context.Context, filter HolidayFilter) ([]HolidayResponse, error)
}
