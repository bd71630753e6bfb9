package leave

import (
	"time"

	"github.com/cmlabs-hris/attendance-engine/internal/pkg/validator"
)

type ApplyLeaveRequest struct {
	LeaveType string `json:"leave_type"`
	StartDate string `json:"start_date"` // YYYY-MM-DD
	EndDate   string `json:"end_date"`   // YYYY-MM-DD
	Reason    string `json:"reason"`

	ParsedStartDate time.Time `json:"-"`
	ParsedEndDate   time.Time `json:"-"`
}

// Validate checks shape only. Date ordering and policy checks belong to the workflow.
func (r *ApplyLeaveRequest) Validate() error {
	var errs validator.ValidationErrors

	if !LeaveType(r.LeaveType).IsValid() {
		errs = append(errs, validator.ValidationError{Field: "leave_type", Message: ErrInvalidLeaveType.Error()})
	}

	start, ok := validator.IsValidDate(r.StartDate)
	if !ok {
		errs = append(errs, validator.ValidationError{Field: "start_date", Message: "start_date must be in YYYY-MM-DD format"})
	}
	r.ParsedStartDate = start

	end, ok := validator.IsValidDate(r.EndDate)
	if !ok {
		errs = append(errs, validator.ValidationError{Field: "end_date", Message: "end_date must be in YYYY-MM-DD format"})
	}
	r.ParsedEndDate = end

	if validator.IsEmpty(r.Reason) {
		errs = append(errs, validator.ValidationError{Field: "reason", Message: "reason is required"})
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

// ValidationPreview is the pre-submission summary of a leave request.
type ValidationPreview struct {
	LeaveType        string `json:"leave_type"`
	StartDate        string `json:"start_date"`
	EndDate          string `json:"end_date"`
	ChargedDays      int    `json:"charged_days"`
	AvailableBalance *int   `json:"available_balance,omitempty"`
	Message          string `json:"message"`
}

type RejectLeaveRequest struct {
	ID     string `json:"-"`
	Reason string `json:"reason"`
}

func (r *RejectLeaveRequest) Validate() error {
	var errs validator.ValidationErrors
	if validator.IsEmpty(r.ID) {
		errs = append(errs, validator.ValidationError{Field: "id", Message: "id is required"})
	}
	if validator.IsEmpty(r.Reason) {
		errs = append(errs, validator.ValidationError{Field: "reason", Message: "rejection reason is required"})
	}
	if len(errs) > 0 {
		return errs
	}
	return nil
}

type ApplicationResponse struct {
	ID              string  `json:"id"`
	EmployeeID      string  `json:"employee_id"`
	EmployeeName    string  `json:"employee_name,omitempty"`
	LeaveType       string  `json:"leave_type"`
	StartDate       string  `json:"start_date"`
	EndDate         string  `json:"end_date"`
	ChargedDays     int     `json:"charged_days"`
	Reason          string  `json:"reason"`
	Status          string  `json:"status"`
	DecidedBy       *string `json:"decided_by,omitempty"`
	DecidedAt       *string `json:"decided_at,omitempty"`
	RejectionReason *string `json:"rejection_reason,omitempty"`
	CreatedAt       string  `json:"created_at"`
}

type ApplicationFilter struct {
	EmployeeID *string `json:"employee_id,omitempty"`
	Status     *string `json:"status,omitempty"`
	LeaveType  *string `json:"leave_type,omitempty"`

	Page  int `json:"page"`
	Limit int `json:"limit"`
}

func (f *ApplicationFilter) Validate() error {
	var errs validator.ValidationErrors

	if f.Page < 0 {
		errs = append(errs, validator.ValidationError{Field: "page", Message: "page must be a positive number"})
	}
	if f.Page == 0 {
		f.Page = 1
	}
	if f.Limit < 0 {
		errs = append(errs, validator.ValidationError{Field: "limit", Message: "limit must be a positive number"})
	}
	if f.Limit == 0 {
		f.Limit = 20
	}
	if f.Limit > 100 {
		errs = append(errs, validator.ValidationError{Field: "limit", Message: "limit must not exceed 100"})
	}
	if f.Status != nil && !Status(*f.Status).IsValid() {
		errs = append(errs, validator.ValidationError{Field: "status", Message: "status must be pending, approved or rejected"})
	}
	if f.LeaveType != nil && !LeaveType(*f.LeaveType).IsValid() {
		errs = append(errs, validator.ValidationError{Field: "leave_type", Message: ErrInvalidLeaveType.Error()})
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

type MyApplicationFilter struct {
	Status *string `json:"status,omitempty"`
	Page   int     `json:"page"`
	Limit  int     `json:"limit"`
}

func (f MyApplicationFilter) ToFilter(employeeID string) ApplicationFilter {
	return ApplicationFilter{
		EmployeeID: &employeeID,
		Status:     f.Status,
		Page:       f.Page,
		Limit:      f.Limit,
	}
}

type ListApplicationResponse struct {
	TotalCount   int64                 `json:"total_count"`
	Page         int                   `json:"page"`
	Limit        int                   `json:"limit"`
	TotalPages   int                   `json:"total_pages"`
	Applications []ApplicationResponse `json:"applications"`
}

type MonthlyGrantResponse struct {
	Month           int `json:"month"`
	EmergencyLeaves int `json:"emergency_leaves"`
	PrivilegeLeaves int `json:"privilege_leaves"`
}

type BalanceSummaryResponse struct {
	EmployeeID         string                 `json:"employee_id"`
	Year               int                    `json:"year"`
	AsOfMonth          int                    `json:"as_of_month"`
	EmergencyAvailable int                    `json:"emergency_available"`
	PrivilegeAvailable int                    `json:"privilege_available"`
	Grants             []MonthlyGrantResponse `json:"grants"`
}
