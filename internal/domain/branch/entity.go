package branch

import (
	"fmt"
	"time"
)

type Branch struct {
	ID        string
	Name      string
	Location  string
	Timezone  string
	Latitude  float64
	Longitude float64
	CreatedAt time.Time
	UpdatedAt time.Time
}

// TimeLocation returns the branch timezone, falling back to UTC when it cannot be loaded.
func (b Branch) TimeLocation() *time.Location {
	loc, err := time.LoadLocation(b.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// TimeOfDay is a wall-clock time without a date, in the branch timezone.
type TimeOfDay struct {
	Hour   int
	Minute int
}

// ParseTimeOfDay accepts "HH:MM" or "HH:MM:SS"; seconds are dropped.
func ParseTimeOfDay(s string) (TimeOfDay, error) {
	for _, layout := range []string{"15:04", "15:04:05"} {
		if t, err := time.Parse(layout, s); err == nil {
			return TimeOfDay{Hour: t.Hour(), Minute: t.Minute()}, nil
		}
	}
	return TimeOfDay{}, fmt.Errorf("invalid time of day %q: expected HH:MM", s)
}

func (t TimeOfDay) String() string {
	return fmt.Sprintf("%02d:%02d", t.Hour, t.Minute)
}

// Minutes is the number of minutes since midnight.
func (t TimeOfDay) Minutes() int {
	return t.Hour*60 + t.Minute
}

// On places the time of day on the calendar date of day, in loc.
func (t TimeOfDay) On(day time.Time, loc *time.Location) time.Time {
	return time.Date(day.Year(), day.Month(), day.Day(), t.Hour, t.Minute, 0, 0, loc)
}

// ShiftPolicy is the single shift configuration of a branch.
type ShiftPolicy struct {
	BranchID            string
	ShiftStart          TimeOfDay
	ShiftEnd            TimeOfDay
	GracePeriodMinutes  int
	HalfDayAfterMinutes int
	UpdatedAt           time.Time
}

type Holiday struct {
	ID        string
	BranchID  string
	Date      time.Time
	Name      string
	CreatedAt time.Time
}
