package response

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/cmlabs-hris/attendance-engine/internal/domain/attendance"
	"github.com/cmlabs-hris/attendance-engine/internal/domain/branch"
	"github.com/cmlabs-hris/attendance-engine/internal/domain/employee"
	"github.com/cmlabs-hris/attendance-engine/internal/domain/leave"
	"github.com/cmlabs-hris/attendance-engine/internal/pkg/jwt"
	"github.com/cmlabs-hris/attendance-engine/internal/pkg/validator"
)

func policyViolation(w http.ResponseWriter, code string, err error) {
	Error(w, http.StatusUnprocessableEntity, KindPolicyViolation, code, err.Error(), nil)
}

func inputFault(w http.ResponseWriter, code string, err error) {
	Error(w, http.StatusBadRequest, KindInputFault, code, err.Error(), nil)
}

// HandleError maps domain errors to HTTP responses.
// Policy violations carry the domain message verbatim; resource faults are logged and answered generically.
func HandleError(w http.ResponseWriter, err error) {
	// Check if it's a validation error
	var validationErrs validator.ValidationErrors
	if errors.As(err, &validationErrs) {
		ValidationError(w, validationErrs.ToMap())
		return
	}

	switch {
	// Identity
	case errors.Is(err, jwt.ErrInvalidToken), errors.Is(err, employee.ErrActorRequired):
		Unauthorized(w, err.Error())
	case errors.Is(err, employee.ErrAdminRequired),
		errors.Is(err, employee.ErrUnauthorized),
		errors.Is(err, attendance.ErrUnauthorized):
		Forbidden(w, err.Error())

	// Attendance policy
	case errors.Is(err, attendance.ErrAlreadyMarked):
		Conflict(w, "ALREADY_MARKED", err.Error())
	case errors.Is(err, attendance.ErrLowAccuracy):
		policyViolation(w, "LOW_ACCURACY", err)
	case errors.Is(err, attendance.ErrTooFarFromBranch):
		policyViolation(w, "TOO_FAR_FROM_BRANCH", err)
	case errors.Is(err, attendance.ErrCheckOutBeforeCheckIn):
		policyViolation(w, "CHECK_OUT_BEFORE_CHECK_IN", err)
	case errors.Is(err, attendance.ErrNotCheckedIn):
		Conflict(w, "NOT_CHECKED_IN", err.Error())
	case errors.Is(err, attendance.ErrAlreadyCheckedOut):
		Conflict(w, "ALREADY_CHECKED_OUT", err.Error())

	// Attendance input
	case errors.Is(err, attendance.ErrPhotoRequired):
		inputFault(w, "PHOTO_REQUIRED", err)
	case errors.Is(err, attendance.ErrInvalidPhotoFormat):
		inputFault(w, "INVALID_PHOTO_FORMAT", err)
	case errors.Is(err, attendance.ErrPhotoTooLarge):
		inputFault(w, "PHOTO_TOO_LARGE", err)
	case errors.Is(err, attendance.ErrInvalidStatus):
		inputFault(w, "INVALID_STATUS", err)
	case errors.Is(err, attendance.ErrAttendanceNotFound):
		NotFound(w, "Attendance record not found")

	// Leave policy
	case errors.Is(err, leave.ErrStartDateInPast):
		policyViolation(w, "START_DATE_IN_PAST", err)
	case errors.Is(err, leave.ErrEndDateBeforeStart):
		policyViolation(w, "END_DATE_BEFORE_START", err)
	case errors.Is(err, leave.ErrInsufficientBalance):
		policyViolation(w, "INSUFFICIENT_BALANCE", err)
	case errors.Is(err, leave.ErrOverlappingApplication):
		Conflict(w, "OVERLAPPING_APPLICATION", err.Error())
	case errors.Is(err, leave.ErrApplicationAlreadyProcessed):
		Conflict(w, "APPLICATION_ALREADY_PROCESSED", err.Error())
	case errors.Is(err, leave.ErrBalanceAlreadyInitialized):
		Conflict(w, "BALANCE_ALREADY_INITIALIZED", err.Error())

	// Leave input
	case errors.Is(err, leave.ErrInvalidLeaveType):
		inputFault(w, "INVALID_LEAVE_TYPE", err)
	case errors.Is(err, leave.ErrApplicationNotFound):
		NotFound(w, "Leave application not found")

	// Branch and calendar
	case errors.Is(err, branch.ErrHolidayInPast):
		policyViolation(w, "HOLIDAY_IN_PAST", err)
	case errors.Is(err, branch.ErrPastHolidayImmutable):
		policyViolation(w, "PAST_HOLIDAY_IMMUTABLE", err)
	case errors.Is(err, branch.ErrHolidayExists):
		Conflict(w, "HOLIDAY_EXISTS", err.Error())
	case errors.Is(err, branch.ErrInvalidTimezone):
		inputFault(w, "INVALID_TIMEZONE", err)
	case errors.Is(err, branch.ErrInvalidWeekday):
		inputFault(w, "INVALID_WEEKDAY", err)
	case errors.Is(err, branch.ErrHolidayNotFound):
		NotFound(w, "Holiday not found")
	case errors.Is(err, branch.ErrBranchNotFound):
		Error(w, http.StatusNotFound, KindResourceFault, "BRANCH_NOT_FOUND", "Branch not found", nil)
	case errors.Is(err, branch.ErrShiftPolicyNotFound):
		slog.Error("branch has no shift policy", "error", err)
		Error(w, http.StatusInternalServerError, KindResourceFault, "SHIFT_POLICY_MISSING", "Attendance is not configured for your branch", nil)

	// Employee
	case errors.Is(err, employee.ErrEmployeeCodeExists):
		Conflict(w, "EMPLOYEE_CODE_EXISTS", "Employee code already exists")
	case errors.Is(err, employee.ErrInvalidEmployeeCode):
		inputFault(w, "INVALID_EMPLOYEE_CODE", err)
	case errors.Is(err, employee.ErrEmployeeNotFound):
		NotFound(w, "Employee not found")

	// Default
	default:
		slog.Error("unhandled error", "error", err)
		InternalServerError(w, "An unexpected error occurred")
	}
}
