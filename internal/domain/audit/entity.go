package audit

import "time"

// Values is an opaque snapshot of a row, serialized as JSON.
type Values map[string]any

// Entry is an append-only record of one mutation.
type Entry struct {
	ID          string
	ActorID     string
	Action      string
	TargetTable string
	TargetID    string
	OldValues   Values
	NewValues   Values
	CreatedAt   time.Time
}

const (
	ActionMarkAttendance   = "mark_attendance"
	ActionCheckOut         = "check_out"
	ActionUpdateAttendance = "update_attendance"
	ActionApplyLeave       = "apply_leave"
	ActionApproveLeave     = "approve_leave"
	ActionRejectLeave      = "reject_leave"
	ActionCreateBranch     = "create_branch"
	ActionUpdateBranch     = "update_branch"
	ActionUpdateWeeklyOffs = "update_weekly_offs"
	ActionAddHoliday       = "add_holiday"
	ActionDeleteHoliday    = "delete_holiday"
	ActionCreateEmployee   = "create_employee"
	ActionChangeBranch     = "change_branch"
)
