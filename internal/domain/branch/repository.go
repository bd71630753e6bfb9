package branch

import (
	"context"
	"time"
)

type BranchRepository interface {
	Create(ctx context.Context, branch Branch) (Branch, error)
	Update(ctx context.Context, branch Branch) error
	GetByID(ctx context.Context, id string) (Branch, error)
	List(ctx context.Context) ([]Branch, error)

	// GetShiftPolicy returns ErrShiftPolicyNotFound when the branch has none.
	GetShiftPolicy(ctx context.Context, branchID string) (ShiftPolicy, error)
	UpsertShiftPolicy(ctx context.Context, policy ShiftPolicy) error
}

// CalendarRepository stores the non-working days of each branch.
type CalendarRepository interface {
	// ListHolidays returns holidays dated within [from, to], ordered by date.
	ListHolidays(ctx context.Context, branchID string, from, to time.Time) ([]Holiday, error)
	GetHoliday(ctx context.Context, id string) (Holiday, error)
	// CreateHoliday fails with ErrHolidayExists on a duplicate (branch, date).
	CreateHoliday(ctx context.Context, holiday Holiday) (Holiday, error)
	DeleteHoliday(ctx context.Context, id string) error

	GetWeeklyOffs(ctx context.Context, branchID string) ([]time.Weekday, error)
	// ReplaceWeeklyOffs deletes the whole set and inserts days.
	ReplaceWeeklyOffs(ctx context.Context, branchID string, days []time.Weekday) error
}
