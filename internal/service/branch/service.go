package branch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"github.com/cmlabs-hris/attendance-engine/internal/domain/audit"
	"github.com/cmlabs-hris/attendance-engine/internal/domain/branch"
	"github.com/cmlabs-hris/attendance-engine/internal/domain/employee"
	"github.com/cmlabs-hris/attendance-engine/internal/pkg/database"
	"github.com/cmlabs-hris/attendance-engine/internal/service/calendar"
)

type BranchServiceImpl struct {
	db           database.Transactor
	branchRepo   branch.BranchRepository
	calendarRepo branch.CalendarRepository
	recorder     audit.Recorder
	now          func() time.Time
}

func NewBranchService(
	db database.Transactor,
	branchRepo branch.BranchRepository,
	calendarRepo branch.CalendarRepository,
	recorder audit.Recorder,
) branch.BranchService {
	return &BranchServiceImpl{
		db:           db,
		branchRepo:   branchRepo,
		calendarRepo: calendarRepo,
		recorder:     recorder,
		now:          time.Now,
	}
}

// ==================== BRANCH & SHIFT ====================

func (s *BranchServiceImpl) SaveBranch(ctx context.Context, actor employee.Actor, req branch.SaveBranchRequest) (branch.BranchResponse, error) {
	if err := actor.RequireAdmin(); err != nil {
		return branch.BranchResponse{}, err
	}
	if err := req.Validate(); err != nil {
		return branch.BranchResponse{}, err
	}

	if req.HalfDayAfterMinutes <= req.GracePeriodMinutes {
		slog.WarnContext(ctx, "half-day threshold does not exceed grace period",
			"branch_id", req.ID, "grace_period_minutes", req.GracePeriodMinutes,
			"half_day_after_minutes", req.HalfDayAfterMinutes)
	}

	data := branch.Branch{
		ID:        req.ID,
		Name:      req.Name,
		Location:  req.Location,
		Timezone:  req.Timezone,
		Latitude:  req.Latitude,
		Longitude: req.Longitude,
	}
	shift := branch.ShiftPolicy{
		ShiftStart:          req.ParsedShiftStart,
		ShiftEnd:            req.ParsedShiftEnd,
		GracePeriodMinutes:  req.GracePeriodMinutes,
		HalfDayAfterMinutes: req.HalfDayAfterMinutes,
	}

	err := s.db.WithinTransaction(ctx, func(ctx context.Context) error {
		var (
			action    = audit.ActionCreateBranch
			oldValues audit.Values
		)

		if data.ID == "" {
			created, err := s.branchRepo.Create(ctx, data)
			if err != nil {
				return fmt.Errorf("failed to create branch: %w", err)
			}
			data = created
		} else {
			action = audit.ActionUpdateBranch
			existing, err := s.branchRepo.GetByID(ctx, data.ID)
			if err != nil {
				if errors.Is(err, branch.ErrBranchNotFound) {
					return err
				}
				return fmt.Errorf("failed to get branch: %w", err)
			}
			oldValues = branchValues(existing, nil)
			if oldShift, err := s.branchRepo.GetShiftPolicy(ctx, data.ID); err == nil {
				oldValues = branchValues(existing, &oldShift)
			}

			data.CreatedAt = existing.CreatedAt
			if err := s.branchRepo.Update(ctx, data); err != nil {
				return fmt.Errorf("failed to update branch: %w", err)
			}
		}

		shift.BranchID = data.ID
		if err := s.branchRepo.UpsertShiftPolicy(ctx, shift); err != nil {
			return fmt.Errorf("failed to save shift policy: %w", err)
		}

		return s.recorder.Record(ctx, actor.EmployeeID, action, "branches", data.ID, oldValues, branchValues(data, &shift))
	})
	if err != nil {
		return branch.BranchResponse{}, err
	}

	return s.GetBranch(ctx, data.ID)
}

func branchValues(b branch.Branch, shift *branch.ShiftPolicy) audit.Values {
	v := audit.Values{
		"name":      b.Name,
		"location":  b.Location,
		"timezone":  b.Timezone,
		"latitude":  b.Latitude,
		"longitude": b.Longitude,
	}
	if shift != nil {
		v["shift_start"] = shift.ShiftStart.String()
		v["shift_end"] = shift.ShiftEnd.String()
		v["grace_period_minutes"] = shift.GracePeriodMinutes
		v["half_day_after_minutes"] = shift.HalfDayAfterMinutes
	}
	return v
}

func (s *BranchServiceImpl) GetBranch(ctx context.Context, id string) (branch.BranchResponse, error) {
	b, err := s.branchRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, branch.ErrBranchNotFound) {
			return branch.BranchResponse{}, err
		}
		return branch.BranchResponse{}, fmt.Errorf("failed to get branch: %w", err)
	}

	shift, err := s.branchRepo.GetShiftPolicy(ctx, id)
	if err != nil {
		if !errors.Is(err, branch.ErrShiftPolicyNotFound) {
			return branch.BranchResponse{}, fmt.Errorf("failed to get shift policy: %w", err)
		}
		return mapBranchToResponse(b, nil), nil
	}

	return mapBranchToResponse(b, &shift), nil
}

func (s *BranchServiceImpl) ListBranches(ctx context.Context) ([]branch.BranchResponse, error) {
	branches, err := s.branchRepo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list branches: %w", err)
	}

	responses := make([]branch.BranchResponse, 0, len(branches))
	for _, b := range branches {
		var policy *branch.ShiftPolicy
		if shift, err := s.branchRepo.GetShiftPolicy(ctx, b.ID); err == nil {
			policy = &shift
		}
		responses = append(responses, mapBranchToResponse(b, policy))
	}
	return responses, nil
}

func mapBranchToResponse(b branch.Branch, shift *branch.ShiftPolicy) branch.BranchResponse {
	res := branch.BranchResponse{
		ID:        b.ID,
		Name:      b.Name,
		Location:  b.Location,
		Timezone:  b.Timezone,
		Latitude:  b.Latitude,
		Longitude: b.Longitude,
		CreatedAt: b.CreatedAt.Format(time.RFC3339),
		UpdatedAt: b.UpdatedAt.Format(time.RFC3339),
	}
	if shift != nil {
		res.Shift = &branch.ShiftPolicyResponse{
			ShiftStart:          shift.ShiftStart.String(),
			ShiftEnd:            shift.ShiftEnd.String(),
			GracePeriodMinutes:  shift.GracePeriodMinutes,
			HalfDayAfterMinutes: shift.HalfDayAfterMinutes,
		}
	}
	return res
}

// ==================== WEEKLY OFFS ====================

// ReplaceWeeklyOffs swaps the whole set: every old day is removed before the new ones are written.
func (s *BranchServiceImpl) ReplaceWeeklyOffs(ctx context.Context, actor employee.Actor, req branch.ReplaceWeeklyOffsRequest) (branch.WeeklyOffsResponse, error) {
	if err := actor.RequireAdmin(); err != nil {
		return branch.WeeklyOffsResponse{}, err
	}
	if err := req.Validate(); err != nil {
		return branch.WeeklyOffsResponse{}, err
	}
	days := req.Weekdays()

	err := s.db.WithinTransaction(ctx, func(ctx context.Context) error {
		if _, err := s.branchRepo.GetByID(ctx, req.BranchID); err != nil {
			return err
		}

		old, err := s.calendarRepo.GetWeeklyOffs(ctx, req.BranchID)
		if err != nil {
			return fmt.Errorf("failed to get weekly offs: %w", err)
		}

		if err := s.calendarRepo.ReplaceWeeklyOffs(ctx, req.BranchID, days); err != nil {
			return fmt.Errorf("failed to replace weekly offs: %w", err)
		}

		return s.recorder.Record(ctx, actor.EmployeeID, audit.ActionUpdateWeeklyOffs, "weekly_offs", req.BranchID,
			audit.Values{"days": weekdayInts(old)}, audit.Values{"days": weekdayInts(days)})
	})
	if err != nil {
		return branch.WeeklyOffsResponse{}, err
	}

	return s.GetWeeklyOffs(ctx, req.BranchID)
}

func (s *BranchServiceImpl) GetWeeklyOffs(ctx context.Context, branchID string) (branch.WeeklyOffsResponse, error) {
	days, err := s.calendarRepo.GetWeeklyOffs(ctx, branchID)
	if err != nil {
		return branch.WeeklyOffsResponse{}, fmt.Errorf("failed to get weekly offs: %w", err)
	}
	return branch.WeeklyOffsResponse{BranchID: branchID, Days: weekdayInts(days)}, nil
}

func weekdayInts(days []time.Weekday) []int {
	out := make([]int, 0, len(days))
	for _, d := range days {
		out = append(out, int(d))
	}
	slices.Sort(out)
	return out
}

// ==================== HOLIDAYS ====================

// today is the current calendar date in the branch timezone.
func (s *BranchServiceImpl) today(b branch.Branch) time.Time {
	return calendar.Day(s.now().In(b.TimeLocation()))
}

func (s *BranchServiceImpl) AddHoliday(ctx context.Context, actor employee.Actor, req branch.AddHolidayRequest) (branch.HolidayResponse, error) {
	if err := actor.RequireAdmin(); err != nil {
		return branch.HolidayResponse{}, err
	}
	if err := req.Validate(); err != nil {
		return branch.HolidayResponse{}, err
	}

	b, err := s.branchRepo.GetByID(ctx, req.BranchID)
	if err != nil {
		if errors.Is(err, branch.ErrBranchNotFound) {
			return branch.HolidayResponse{}, err
		}
		return branch.HolidayResponse{}, fmt.Errorf("failed to get branch: %w", err)
	}

	if req.ParsedDate.Before(s.today(b)) {
		return branch.HolidayResponse{}, branch.ErrHolidayInPast
	}

	var created branch.Holiday
	err = s.db.WithinTransaction(ctx, func(ctx context.Context) error {
		created, err = s.calendarRepo.CreateHoliday(ctx, branch.Holiday{
			BranchID: b.ID,
			Date:     calendar.Day(req.ParsedDate),
			Name:     req.Name,
		})
		if err != nil {
			if errors.Is(err, branch.ErrHolidayExists) {
				return err
			}
			return fmt.Errorf("failed to create holiday: %w", err)
		}
		return s.recorder.Record(ctx, actor.EmployeeID, audit.ActionAddHoliday, "holidays", created.ID, nil, holidayValues(created))
	})
	if err != nil {
		return branch.HolidayResponse{}, err
	}

	return mapHolidayToResponse(created), nil
}

// DeleteHoliday removes a holiday dated today or later. Past holidays are history.
func (s *BranchServiceImpl) DeleteHoliday(ctx context.Context, actor employee.Actor, holidayID string) error {
	if err := actor.RequireAdmin(); err != nil {
		return err
	}

	return s.db.WithinTransaction(ctx, func(ctx context.Context) error {
		holiday, err := s.calendarRepo.GetHoliday(ctx, holidayID)
		if err != nil {
			if errors.Is(err, branch.ErrHolidayNotFound) {
				return err
			}
			return fmt.Errorf("failed to get holiday: %w", err)
		}

		b, err := s.branchRepo.GetByID(ctx, holiday.BranchID)
		if err != nil {
			return fmt.Errorf("failed to get branch: %w", err)
		}
		if holiday.Date.Before(s.today(b)) {
			return branch.ErrPastHolidayImmutable
		}

		if err := s.calendarRepo.DeleteHoliday(ctx, holidayID); err != nil {
			return fmt.Errorf("failed to delete holiday: %w", err)
		}
		return s.recorder.Record(ctx, actor.EmployeeID, audit.ActionDeleteHoliday, "holidays", holidayID, holidayValues(holiday), nil)
	})
}

func (s *BranchServiceImpl) ListHolidays(ctx context.Context, filter branch.HolidayFilter) ([]branch.HolidayResponse, error) {
	if err := filter.Validate(); err != nil {
		return nil, err
	}

	holidays, err := s.calendarRepo.ListHolidays(ctx, filter.BranchID, filter.ParsedFrom, filter.ParsedTo)
	if err != nil {
		return nil, fmt.Errorf("failed to list holidays: %w", err)
	}

	responses := make([]branch.HolidayResponse, 0, len(holidays))
	for _, h := range holidays {
		responses = append(responses, mapHolidayToResponse(h))
	}
	return responses, nil
}

func holidayValues(h branch.Holiday) audit.Values {
	return audit.Values{
		"branch_id": h.BranchID,
		"date":      h.Date.Format("2006-01-02"),
		"name":      h.Name,
	}
}

func mapHolidayToResponse(h branch.Holiday) branch.HolidayResponse {
	return branch.HolidayResponse{
		ID:       h.ID,
		BranchID: h.BranchID,
		Date:     h.Date.Format("2006-01-02"),
		Name:     h.Name,
	}
}
