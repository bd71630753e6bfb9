package branch

import "errors"

var (
	ErrBranchNotFound       = errors.New("branch not found")
	ErrShiftPolicyNotFound  = errors.New("shift policy not configured for branch")
	ErrInvalidTimezone      = errors.New("invalid timezone")
	ErrInvalidWeekday       = errors.New("day of week must be between 0 (Sunday) and 6 (Saturday)")
	ErrHolidayInPast        = errors.New("cannot add a holiday in the past")
	ErrHolidayExists        = errors.New("a holiday already exists on this date for the branch")
	ErrHolidayNotFound      = errors.New("holiday not found")
	ErrPastHolidayImmutable = errors.New("cannot delete a past holiday")
)
