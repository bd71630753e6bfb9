package attendance

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/cmlabs-hris/attendance-engine/internal/domain/attendance"
	"github.com/cmlabs-hris/attendance-engine/internal/domain/audit"
	"github.com/cmlabs-hris/attendance-engine/internal/domain/branch"
	"github.com/cmlabs-hris/attendance-engine/internal/domain/employee"
	"github.com/cmlabs-hris/attendance-engine/internal/pkg/database"
	"github.com/cmlabs-hris/attendance-engine/internal/pkg/geo"
	"github.com/cmlabs-hris/attendance-engine/internal/pkg/validator"
	"github.com/cmlabs-hris/attendance-engine/internal/service/calendar"
	"github.com/cmlabs-hris/attendance-engine/internal/service/file"
)

const targetTable = "attendances"

// Policy holds the check-in geofence limits.
type Policy struct {
	MaxAccuracyMeters float64
	MaxDistanceMeters float64
}

type AttendanceServiceImpl struct {
	db database.Transactor
	attendance.AttendanceRepository
	employee.EmployeeRepository
	branch.BranchRepository
	recorder audit.Recorder
	photos   file.PhotoService
	policy   Policy
	now      func() time.Time
}

func NewAttendanceService(
	db database.Transactor,
	attendanceRepository attendance.AttendanceRepository,
	employeeRepository employee.EmployeeRepository,
	branchRepository branch.BranchRepository,
	recorder audit.Recorder,
	photos file.PhotoService,
	policy Policy,
) attendance.AttendanceService {
	return &AttendanceServiceImpl{
		db:                   db,
		AttendanceRepository: attendanceRepository,
		EmployeeRepository:   employeeRepository,
		BranchRepository:     branchRepository,
		recorder:             recorder,
		photos:               photos,
		policy:               policy,
		now:                  time.Now,
	}
}

// workplace resolves the branch the employee is assigned to now.
func (s *AttendanceServiceImpl) workplace(ctx context.Context, employeeID string) (branch.Branch, error) {
	emp, err := s.EmployeeRepository.GetByID(ctx, employeeID)
	if err != nil {
		if errors.Is(err, employee.ErrEmployeeNotFound) {
			return branch.Branch{}, err
		}
		return branch.Branch{}, fmt.Errorf("failed to get employee: %w", err)
	}

	b, err := s.BranchRepository.GetByID(ctx, emp.BranchID)
	if err != nil {
		if errors.Is(err, branch.ErrBranchNotFound) {
			return branch.Branch{}, err
		}
		return branch.Branch{}, fmt.Errorf("failed to get branch: %w", err)
	}
	return b, nil
}

// recordedBranch returns the branch a record was taken at, falling back to the
// employee's current branch for records written before the branch was stored.
func (s *AttendanceServiceImpl) recordedBranch(ctx context.Context, record attendance.Attendance) (branch.Branch, error) {
	if record.BranchID == "" {
		return s.workplace(ctx, record.EmployeeID)
	}
	b, err := s.BranchRepository.GetByID(ctx, record.BranchID)
	if err != nil {
		if errors.Is(err, branch.ErrBranchNotFound) {
			return branch.Branch{}, err
		}
		return branch.Branch{}, fmt.Errorf("failed to get branch: %w", err)
	}
	return b, nil
}

func (s *AttendanceServiceImpl) shiftPolicy(ctx context.Context, branchID string) (branch.ShiftPolicy, error) {
	policy, err := s.BranchRepository.GetShiftPolicy(ctx, branchID)
	if err != nil {
		if errors.Is(err, branch.ErrShiftPolicyNotFound) {
			return branch.ShiftPolicy{}, err
		}
		return branch.ShiftPolicy{}, fmt.Errorf("failed to get shift policy: %w", err)
	}
	return policy, nil
}

// MarkAttendance implements attendance.AttendanceService.
func (s *AttendanceServiceImpl) MarkAttendance(ctx context.Context, actor employee.Actor, req attendance.CheckInRequest) (attendance.AttendanceResponse, error) {
	if err := actor.Validate(); err != nil {
		return attendance.AttendanceResponse{}, err
	}
	if err := req.Validate(); err != nil {
		return attendance.AttendanceResponse{}, err
	}

	b, err := s.workplace(ctx, actor.EmployeeID)
	if err != nil {
		return attendance.AttendanceResponse{}, err
	}
	shift, err := s.shiftPolicy(ctx, b.ID)
	if err != nil {
		return attendance.AttendanceResponse{}, err
	}

	loc := b.TimeLocation()
	nowLocal := s.now().In(loc)
	today := calendar.Day(nowLocal)

	// Fast path only; the unique constraint on (employee, date) is authoritative.
	if _, err := s.AttendanceRepository.GetByEmployeeAndDate(ctx, actor.EmployeeID, today); err == nil {
		return attendance.AttendanceResponse{}, attendance.ErrAlreadyMarked
	} else if !errors.Is(err, attendance.ErrAttendanceNotFound) {
		return attendance.AttendanceResponse{}, fmt.Errorf("failed to check today's attendance: %w", err)
	}

	if err := geo.ValidateCheckIn(req.Latitude, req.Longitude, req.Accuracy, b.Latitude, b.Longitude,
		s.policy.MaxAccuracyMeters, s.policy.MaxDistanceMeters); err != nil {
		return attendance.AttendanceResponse{}, err
	}

	if err := s.photos.Validate(req.Photo); err != nil {
		return attendance.AttendanceResponse{}, err
	}

	classification := ClassifyArrival(nowLocal, shift.ShiftStart.On(nowLocal, loc), shift.GracePeriodMinutes, shift.HalfDayAfterMinutes)

	staged, err := s.photos.Stage(ctx, actor.EmployeeID, today, *req.Photo)
	if err != nil {
		return attendance.AttendanceResponse{}, err
	}
	defer staged.Release(ctx)

	checkIn := nowLocal.UTC()
	record := attendance.Attendance{
		EmployeeID:  actor.EmployeeID,
		BranchID:    b.ID,
		Date:        today,
		CheckIn:     &checkIn,
		Status:      classification.Status,
		ArrivalFlag: &classification.ArrivalFlag,
		LateMinutes: classification.LateMinutes,
		SelfiePath:  &staged.Path,
		Latitude:    &req.Latitude,
		Longitude:   &req.Longitude,
	}

	err = s.db.WithinTransaction(ctx, func(ctx context.Context) error {
		created, err := s.AttendanceRepository.Create(ctx, record)
		if err != nil {
			return err
		}
		record = created
		return s.recorder.Record(ctx, actor.EmployeeID, audit.ActionMarkAttendance, targetTable, created.ID, nil, created.AuditValues())
	})
	if err != nil {
		if errors.Is(err, attendance.ErrAlreadyMarked) {
			return attendance.AttendanceResponse{}, err
		}
		return attendance.AttendanceResponse{}, fmt.Errorf("failed to record attendance: %w", err)
	}
	staged.Keep()

	slog.InfoContext(ctx, "attendance marked",
		"employee_id", actor.EmployeeID, "date", today.Format("2006-01-02"),
		"status", record.Status, "late_minutes", record.LateMinutes)

	return s.mapAttendanceToResponse(ctx, record), nil
}

// CheckOut implements attendance.AttendanceService.
func (s *AttendanceServiceImpl) CheckOut(ctx context.Context, actor employee.Actor, req attendance.CheckOutRequest) (attendance.AttendanceResponse, error) {
	if err := actor.Validate(); err != nil {
		return attendance.AttendanceResponse{}, err
	}

	b, err := s.workplace(ctx, actor.EmployeeID)
	if err != nil {
		return attendance.AttendanceResponse{}, err
	}
	nowLocal := s.now().In(b.TimeLocation())
	today := calendar.Day(nowLocal)

	var record attendance.Attendance
	err = s.db.WithinTransaction(ctx, func(ctx context.Context) error {
		current, err := s.AttendanceRepository.GetByEmployeeAndDate(ctx, actor.EmployeeID, today)
		if err != nil {
			if errors.Is(err, attendance.ErrAttendanceNotFound) {
				return attendance.ErrNotCheckedIn
			}
			return fmt.Errorf("failed to get today's attendance: %w", err)
		}
		if current.CheckIn == nil {
			return attendance.ErrNotCheckedIn
		}
		if current.CheckOut != nil {
			return attendance.ErrAlreadyCheckedOut
		}

		old := current.AuditValues()
		checkOut := nowLocal.UTC()
		current.CheckOut = &checkOut
		if req.Remarks != nil && !validator.IsEmpty(*req.Remarks) {
			current.Remarks = req.Remarks
		}

		if err := s.AttendanceRepository.Update(ctx, current); err != nil {
			return fmt.Errorf("failed to update attendance: %w", err)
		}
		record = current
		return s.recorder.Record(ctx, actor.EmployeeID, audit.ActionCheckOut, targetTable, current.ID, old, current.AuditValues())
	})
	if err != nil {
		return attendance.AttendanceResponse{}, err
	}

	return s.mapAttendanceToResponse(ctx, record), nil
}

// UpdateAttendance implements attendance.AttendanceService.
func (s *AttendanceServiceImpl) UpdateAttendance(ctx context.Context, actor employee.Actor, req attendance.UpdateAttendanceRequest) (attendance.AttendanceResponse, error) {
	if err := actor.RequireAdmin(); err != nil {
		return attendance.AttendanceResponse{}, err
	}
	if err := req.Validate(); err != nil {
		return attendance.AttendanceResponse{}, err
	}

	var record attendance.Attendance
	err := s.db.WithinTransaction(ctx, func(ctx context.Context) error {
		current, err := s.AttendanceRepository.GetByID(ctx, req.ID)
		if err != nil {
			if errors.Is(err, attendance.ErrAttendanceNotFound) {
				return err
			}
			return fmt.Errorf("failed to get attendance: %w", err)
		}

		b, err := s.recordedBranch(ctx, current)
		if err != nil {
			return err
		}
		loc := b.TimeLocation()

		checkIn, err := resolveClock("check_in", req.CheckIn, current.CheckIn, current.Date, loc)
		if err != nil {
			return err
		}
		checkOut, err := resolveClock("check_out", req.CheckOut, current.CheckOut, current.Date, loc)
		if err != nil {
			return err
		}
		if checkIn != nil && checkOut != nil && !checkOut.After(*checkIn) {
			return attendance.ErrCheckOutBeforeCheckIn
		}

		old := current.AuditValues()
		updated := current
		updated.Status = attendance.Status(req.Status)
		updated.CheckIn = checkIn
		updated.CheckOut = checkOut
		if req.Remarks != nil {
			updated.Remarks = req.Remarks
		}

		switch {
		case updated.Status == attendance.StatusAbsent || updated.CheckIn == nil:
			updated.ArrivalFlag = nil
			updated.LateMinutes = 0
		case !sameInstant(current.CheckIn, updated.CheckIn):
			shift, err := s.shiftPolicy(ctx, b.ID)
			if err != nil {
				return err
			}
			localIn := updated.CheckIn.In(loc)
			c := ClassifyArrival(localIn, shift.ShiftStart.On(current.Date, loc), shift.GracePeriodMinutes, shift.HalfDayAfterMinutes)
			updated.ArrivalFlag = &c.ArrivalFlag
			updated.LateMinutes = c.LateMinutes
		}

		modifiedAt := s.now().UTC()
		updated.ModifiedBy = &actor.EmployeeID
		updated.ModifiedAt = &modifiedAt

		if err := s.AttendanceRepository.Update(ctx, updated); err != nil {
			return fmt.Errorf("failed to update attendance: %w", err)
		}
		record = updated
		return s.recorder.Record(ctx, actor.EmployeeID, audit.ActionUpdateAttendance, targetTable, updated.ID, old, updated.AuditValues())
	})
	if err != nil {
		return attendance.AttendanceResponse{}, err
	}

	return s.mapAttendanceToResponse(ctx, record), nil
}

// resolveClock returns the effective timestamp for an edited field: the
// current value when raw is nil, otherwise raw parsed as a wall-clock time
// on the record's date or as an RFC 3339 instant.
func resolveClock(field string, raw *string, current *time.Time, day time.Time, loc *time.Location) (*time.Time, error) {
	if raw == nil {
		return current, nil
	}
	if tod, ok := validator.IsValidTimeOfDay(*raw); ok {
		t := time.Date(day.Year(), day.Month(), day.Day(), tod.Hour(), tod.Minute(), tod.Second(), 0, loc).UTC()
		return &t, nil
	}
	if ts, ok := validator.IsValidDateTime(*raw); ok {
		t := ts.UTC()
		return &t, nil
	}
	return nil, validator.ValidationErrors{{Field: field, Message: fmt.Sprintf("%s has invalid time %q", field, *raw)}}
}

func sameInstant(a, b *time.Time) bool {
	if a == nil || b == nil {
		return a == b
	}
	return a.Equal(*b)
}

// GetAttendance implements attendance.AttendanceService.
func (s *AttendanceServiceImpl) GetAttendance(ctx context.Context, actor employee.Actor, id string) (attendance.AttendanceResponse, error) {
	if err := actor.Validate(); err != nil {
		return attendance.AttendanceResponse{}, err
	}

	record, err := s.AttendanceRepository.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, attendance.ErrAttendanceNotFound) {
			return attendance.AttendanceResponse{}, err
		}
		return attendance.AttendanceResponse{}, fmt.Errorf("failed to get attendance: %w", err)
	}

	if !actor.CanAccess(record.EmployeeID) {
		return attendance.AttendanceResponse{}, attendance.ErrUnauthorized
	}

	return s.mapAttendanceToResponse(ctx, record), nil
}

// ListAttendance implements attendance.AttendanceService.
func (s *AttendanceServiceImpl) ListAttendance(ctx context.Context, actor employee.Actor, filter attendance.AttendanceFilter) (attendance.ListAttendanceResponse, error) {
	if err := actor.RequireAdmin(); err != nil {
		return attendance.ListAttendanceResponse{}, err
	}
	return s.list(ctx, filter)
}

// MyAttendance implements attendance.AttendanceService.
func (s *AttendanceServiceImpl) MyAttendance(ctx context.Context, actor employee.Actor, filter attendance.MyAttendanceFilter) (attendance.ListAttendanceResponse, error) {
	if err := actor.Validate(); err != nil {
		return attendance.ListAttendanceResponse{}, err
	}
	return s.list(ctx, filter.ToFilter(actor.EmployeeID))
}

func (s *AttendanceServiceImpl) list(ctx context.Context, filter attendance.AttendanceFilter) (attendance.ListAttendanceResponse, error) {
	if err := filter.Validate(); err != nil {
		return attendance.ListAttendanceResponse{}, err
	}

	attendances, total, err := s.AttendanceRepository.List(ctx, filter)
	if err != nil {
		return attendance.ListAttendanceResponse{}, fmt.Errorf("failed to list attendances: %w", err)
	}

	responses := make([]attendance.AttendanceResponse, 0, len(attendances))
	for _, att := range attendances {
		responses = append(responses, s.mapAttendanceToResponse(ctx, att))
	}

	totalPages := int(math.Ceil(float64(total) / float64(filter.Limit)))
	showing := fmt.Sprintf("%d-%d of %d", (filter.Page-1)*filter.Limit+1, min(filter.Page*filter.Limit, int(total)), total)
	if total == 0 {
		showing = "0 of 0"
	}

	return attendance.ListAttendanceResponse{
		TotalCount:  total,
		Page:        filter.Page,
		Limit:       filter.Limit,
		TotalPages:  totalPages,
		Showing:     showing,
		Attendances: responses,
	}, nil
}

// timePtrToString safely converts a *time.Time to an RFC 3339 string.
func timePtrToString(t *time.Time) *string {
	if t == nil {
		return nil
	}
	format := t.UTC().Format(time.RFC3339)
	return &format
}

func (s *AttendanceServiceImpl) mapAttendanceToResponse(ctx context.Context, att attendance.Attendance) attendance.AttendanceResponse {
	var employeeName string
	if att.EmployeeName != nil {
		employeeName = *att.EmployeeName
	}

	var arrivalFlag *string
	if att.ArrivalFlag != nil {
		flag := string(*att.ArrivalFlag)
		arrivalFlag = &flag
	}

	var selfieURL *string
	if att.SelfiePath != nil {
		url, err := s.photos.URL(ctx, *att.SelfiePath)
		if err != nil {
			slog.WarnContext(ctx, "failed to resolve selfie url", "path", *att.SelfiePath, "error", err)
		} else {
			selfieURL = &url
		}
	}

	return attendance.AttendanceResponse{
		ID:           att.ID,
		EmployeeID:   att.EmployeeID,
		EmployeeName: employeeName,
		Date:         att.Date.Format("2006-01-02"),
		CheckIn:      timePtrToString(att.CheckIn),
		CheckOut:     timePtrToString(att.CheckOut),
		Status:       string(att.Status),
		ArrivalFlag:  arrivalFlag,
		LateMinutes:  att.LateMinutes,
		SelfieURL:    selfieURL,
		Latitude:     att.Latitude,
		Longitude:    att.Longitude,
		Remarks:      att.Remarks,
		ModifiedBy:   att.ModifiedBy,
		ModifiedAt:   timePtrToString(att.ModifiedAt),
		CreatedAt:    att.CreatedAt.Format(time.RFC3339),
		UpdatedAt:    att.UpdatedAt.Format(time.RFC3339),
	}
}
