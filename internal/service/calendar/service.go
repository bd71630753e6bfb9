// Package calendar resolves which dates a branch works and counts chargeable leave days.
package calendar

import (
	"context"
	"fmt"
	"time"

	"github.com/cmlabs-hris/attendance-engine/internal/domain/branch"
)

// DateSet holds calendar dates normalized to midnight UTC.
type DateSet map[time.Time]struct{}

func (s DateSet) Contains(d time.Time) bool {
	_, ok := s[Day(d)]
	return ok
}

// Day truncates t to its calendar date at midnight UTC, keeping the wall-clock date.
func Day(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

type Service interface {
	// NonWorkingDates returns the union of holidays and weekly offs of the branch in [start, end].
	NonWorkingDates(ctx context.Context, branchID string, start, end time.Time) (DateSet, error)

	// CountLeaveDays counts the dates in [start, end] that are working days for the branch.
	CountLeaveDays(ctx context.Context, branchID string, start, end time.Time) (int, error)
}

type ServiceImpl struct {
	branch.CalendarRepository
}

func NewCalendarService(calendarRepository branch.CalendarRepository) *ServiceImpl {
	return &ServiceImpl{
		CalendarRepository: calendarRepository,
	}
}

func (s *ServiceImpl) NonWorkingDates(ctx context.Context, branchID string, start, end time.Time) (DateSet, error) {
	start, end = Day(start), Day(end)
	if start.After(end) {
		return DateSet{}, nil
	}

	holidays, err := s.CalendarRepository.ListHolidays(ctx, branchID, start, end)
	if err != nil {
		return nil, fmt.Errorf("failed to list holidays: %w", err)
	}

	weeklyOffs, err := s.CalendarRepository.GetWeeklyOffs(ctx, branchID)
	if err != nil {
		return nil, fmt.Errorf("failed to get weekly offs: %w", err)
	}

	return ExcludedDates(start, end, weeklyOffs, holidays), nil
}

func (s *ServiceImpl) CountLeaveDays(ctx context.Context, branchID string, start, end time.Time) (int, error) {
	excluded, err := s.NonWorkingDates(ctx, branchID, start, end)
	if err != nil {
		return 0, err
	}
	return CountChargeableDays(start, end, excluded), nil
}

// ExcludedDates builds the non-working set for [start, end] from weekly offs and holidays.
func ExcludedDates(start, end time.Time, weeklyOffs []time.Weekday, holidays []branch.Holiday) DateSet {
	set := DateSet{}
	start, end = Day(start), Day(end)

	for _, h := range holidays {
		d := Day(h.Date)
		if d.Before(start) || d.After(end) {
			continue
		}
		set[d] = struct{}{}
	}

	if len(weeklyOffs) > 0 {
		off := make(map[time.Weekday]bool, len(weeklyOffs))
		for _, wd := range weeklyOffs {
			off[wd] = true
		}
		for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
			if off[d.Weekday()] {
				set[d] = struct{}{}
			}
		}
	}

	return set
}

// CountChargeableDays walks [start, end] inclusive and counts dates not in excluded.
// An empty range (start after end) counts zero.
func CountChargeableDays(start, end time.Time, excluded DateSet) int {
	count := 0
	for d, last := Day(start), Day(end); !d.After(last); d = d.AddDate(0, 0, 1) {
		if !excluded.Contains(d) {
			count++
		}
	}
	return count
}
