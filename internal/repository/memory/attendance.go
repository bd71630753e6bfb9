package memory

import (
	"cmp"
	"context"
	"slices"
	"time"

	"github.com/cmlabs-hris/attendance-engine/internal/domain/attendance"
	"github.com/google/uuid"
)

type attendanceRepository struct {
	store *Store
}

func NewAttendanceRepository(store *Store) attendance.AttendanceRepository {
	return &attendanceRepository{store: store}
}

func (r *attendanceRepository) Create(ctx context.Context, att attendance.Attendance) (attendance.Attendance, error) {
	err := r.store.write(ctx, func(t *tables) error {
		att.Date = dateOnly(att.Date)
		for _, existing := range t.attendances {
			if existing.EmployeeID == att.EmployeeID && existing.Date.Equal(att.Date) {
				return attendance.ErrAlreadyMarked
			}
		}
		now := time.Now()
		att.ID = uuid.NewString()
		att.CreatedAt = now
		att.UpdatedAt = now
		att.EmployeeName = nil
		t.attendances[att.ID] = att
		return nil
	})
	if err != nil {
		return attendance.Attendance{}, err
	}
	return att, nil
}

func (r *attendanceRepository) GetByID(ctx context.Context, id string) (attendance.Attendance, error) {
	var att attendance.Attendance
	err := r.store.read(func(t *tables) error {
		found, ok := t.attendances[id]
		if !ok {
			return attendance.ErrAttendanceNotFound
		}
		att = withEmployeeName(t, found)
		return nil
	})
	return att, err
}

func (r *attendanceRepository) GetByEmployeeAndDate(ctx context.Context, employeeID string, date time.Time) (attendance.Attendance, error) {
	var att attendance.Attendance
	err := r.store.read(func(t *tables) error {
		day := dateOnly(date)
		for _, existing := range t.attendances {
			if existing.EmployeeID == employeeID && existing.Date.Equal(day) {
				att = withEmployeeName(t, existing)
				return nil
			}
		}
		return attendance.ErrAttendanceNotFound
	})
	return att, err
}

func (r *attendanceRepository) Update(ctx context.Context, att attendance.Attendance) error {
	return r.store.write(ctx, func(t *tables) error {
		existing, ok := t.attendances[att.ID]
		if !ok {
			return attendance.ErrAttendanceNotFound
		}
		existing.CheckIn = att.CheckIn
		existing.CheckOut = att.CheckOut
		existing.Status = att.Status
		existing.ArrivalFlag = att.ArrivalFlag
		existing.LateMinutes = att.LateMinutes
		existing.Remarks = att.Remarks
		existing.ModifiedBy = att.ModifiedBy
		existing.ModifiedAt = att.ModifiedAt
		existing.UpdatedAt = time.Now()
		t.attendances[att.ID] = existing
		return nil
	})
}

func (r *attendanceRepository) List(ctx context.Context, filter attendance.AttendanceFilter) ([]attendance.Attendance, int64, error) {
	var result []attendance.Attendance
	var total int64
	err := r.store.read(func(t *tables) error {
		start, hasStart := parseDate(filter.StartDate)
		end, hasEnd := parseDate(filter.EndDate)

		var matched []attendance.Attendance
		for _, att := range t.attendances {
			if filter.EmployeeID != nil && *filter.EmployeeID != "" && att.EmployeeID != *filter.EmployeeID {
				continue
			}
			if hasStart && att.Date.Before(start) {
				continue
			}
			if hasEnd && att.Date.After(end) {
				continue
			}
			if filter.Status != nil && *filter.Status != "" && string(att.Status) != *filter.Status {
				continue
			}
			matched = append(matched, withEmployeeName(t, att))
		}

		desc := filter.SortOrder != "asc"
		slices.SortFunc(matched, func(a, b attendance.Attendance) int {
			var c int
			switch filter.SortBy {
			case "check_in":
				c = compareTimePtr(a.CheckIn, b.CheckIn)
			case "status":
				c = cmp.Compare(a.Status, b.Status)
			default:
				c = a.Date.Compare(b.Date)
			}
			if desc {
				c = -c
			}
			if c == 0 {
				c = cmp.Compare(a.ID, b.ID)
			}
			return c
		})

		total = int64(len(matched))
		result = paginate(matched, filter.Page, filter.Limit)
		return nil
	})
	return result, total, err
}

func withEmployeeName(t *tables, att attendance.Attendance) attendance.Attendance {
	if e, ok := t.employees[att.EmployeeID]; ok {
		name := e.FullName
		att.EmployeeName = &name
	}
	return att
}

func compareTimePtr(a, b *time.Time) int {
	switch {
	case a == nil && b == nil:
		return 0
	case a == nil:
		return -1
	case b == nil:
		return 1
	}
	return a.Compare(*b)
}
