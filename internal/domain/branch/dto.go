package branch

import (
	"time"

	"github.com/cmlabs-hris/attendance-engine/internal/pkg/validator"
)

type SaveBranchRequest struct {
	ID                  string  `json:"-"`
	Name                string  `json:"name"`
	Location            string  `json:"location"`
	Timezone            string  `json:"timezone"`
	Latitude            float64 `json:"latitude"`
	Longitude           float64 `json:"longitude"`
	ShiftStart          string  `json:"shift_start"` // HH:MM
	ShiftEnd            string  `json:"shift_end"`   // HH:MM
	GracePeriodMinutes  int     `json:"grace_period_minutes"`
	HalfDayAfterMinutes int     `json:"half_day_after_minutes"`

	ParsedShiftStart TimeOfDay `json:"-"`
	ParsedShiftEnd   TimeOfDay `json:"-"`
}

func (r *SaveBranchRequest) Validate() error {
	var errs validator.ValidationErrors

	if validator.IsEmpty(r.Name) {
		errs = append(errs, validator.ValidationError{Field: "name", Message: "name is required"})
	}
	if validator.IsEmpty(r.Location) {
		errs = append(errs, validator.ValidationError{Field: "location", Message: "location is required"})
	}
	if !validator.IsValidTimezone(r.Timezone) {
		errs = append(errs, validator.ValidationError{Field: "timezone", Message: ErrInvalidTimezone.Error()})
	}
	if !validator.IsValidLatitude(r.Latitude) {
		errs = append(errs, validator.ValidationError{Field: "latitude", Message: "latitude must be between -90 and 90"})
	}
	if !validator.IsValidLongitude(r.Longitude) {
		errs = append(errs, validator.ValidationError{Field: "longitude", Message: "longitude must be between -180 and 180"})
	}

	start, err := ParseTimeOfDay(r.ShiftStart)
	if err != nil {
		errs = append(errs, validator.ValidationError{Field: "shift_start", Message: "shift_start must be in HH:MM format"})
	}
	r.ParsedShiftStart = start

	end, err := ParseTimeOfDay(r.ShiftEnd)
	if err != nil {
		errs = append(errs, validator.ValidationError{Field: "shift_end", Message: "shift_end must be in HH:MM format"})
	}
	r.ParsedShiftEnd = end

	if r.GracePeriodMinutes < 0 {
		errs = append(errs, validator.ValidationError{Field: "grace_period_minutes", Message: "grace_period_minutes must not be negative"})
	}
	if r.HalfDayAfterMinutes < 0 {
		errs = append(errs, validator.ValidationError{Field: "half_day_after_minutes", Message: "half_day_after_minutes must not be negative"})
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

type ReplaceWeeklyOffsRequest struct {
	BranchID string `json:"-"`
	Days     []int  `json:"days"`
}

func (r *ReplaceWeeklyOffsRequest) Validate() error {
	var errs validator.ValidationErrors
	if validator.IsEmpty(r.BranchID) {
		errs = append(errs, validator.ValidationError{Field: "branch_id", Message: "branch_id is required"})
	}
	for _, d := range r.Days {
		if d < 0 || d > 6 {
			errs = append(errs, validator.ValidationError{Field: "days", Message: ErrInvalidWeekday.Error()})
			break
		}
	}
	if len(errs) > 0 {
		return errs
	}
	return nil
}

// Weekdays returns the requested days deduplicated, in input order.
func (r *ReplaceWeeklyOffsRequest) Weekdays() []time.Weekday {
	seen := make(map[int]bool, len(r.Days))
	days := make([]time.Weekday, 0, len(r.Days))
	for _, d := range r.Days {
		if seen[d] {
			continue
		}
		seen[d] = true
		days = append(days, time.Weekday(d))
	}
	return days
}

type AddHolidayRequest struct {
	BranchID string `json:"-"`
	Date     string `json:"date"` // YYYY-MM-DD
	Name     string `json:"name"`

	ParsedDate time.Time `json:"-"`
}

func (r *AddHolidayRequest) Validate() error {
	var errs validator.ValidationErrors
	if validator.IsEmpty(r.BranchID) {
		errs = append(errs, validator.ValidationError{Field: "branch_id", Message: "branch_id is required"})
	}
	if validator.IsEmpty(r.Name) {
		errs = append(errs, validator.ValidationError{Field: "name", Message: "name is required"})
	}
	date, ok := validator.IsValidDate(r.Date)
	if !ok {
		errs = append(errs, validator.ValidationError{Field: "date", Message: "date must be in YYYY-MM-DD format"})
	}
	r.ParsedDate = date

	if len(errs) > 0 {
		return errs
	}
	return nil
}

type HolidayFilter struct {
	BranchID string `json:"branch_id"`
	From     string `json:"from"` // YYYY-MM-DD
	To       string `json:"to"`   // YYYY-MM-DD

	ParsedFrom time.Time `json:"-"`
	ParsedTo   time.Time `json:"-"`
}

func (f *HolidayFilter) Validate() error {
	var errs validator.ValidationErrors
	if validator.IsEmpty(f.BranchID) {
		errs = append(errs, validator.ValidationError{Field: "branch_id", Message: "branch_id is required"})
	}

	if f.From == "" {
		f.ParsedFrom = time.Date(time.Now().Year(), time.January, 1, 0, 0, 0, 0, time.UTC)
	} else if d, ok := validator.IsValidDate(f.From); ok {
		f.ParsedFrom = d
	} else {
		errs = append(errs, validator.ValidationError{Field: "from", Message: "from must be in YYYY-MM-DD format"})
	}

	if f.To == "" {
		f.ParsedTo = time.Date(f.ParsedFrom.Year(), time.December, 31, 0, 0, 0, 0, time.UTC)
	} else if d, ok := validator.IsValidDate(f.To); ok {
		f.ParsedTo = d
	} else {
		errs = append(errs, validator.ValidationError{Field: "to", Message: "to must be in YYYY-MM-DD format"})
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

type ShiftPolicyResponse struct {
	ShiftStart          string `json:"shift_start"`
	ShiftEnd            string `json:"shift_end"`
	GracePeriodMinutes  int    `json:"grace_period_minutes"`
	HalfDayAfterMinutes int    `json:"half_day_after_minutes"`
}

type BranchResponse struct {
	ID        string               `json:"id"`
	Name      string               `json:"name"`
	Location  string               `json:"location"`
	Timezone  string               `json:"timezone"`
	Latitude  float64              `json:"latitude"`
	Longitude float64              `json:"longitude"`
	Shift     *ShiftPolicyResponse `json:"shift,omitempty"`
	CreatedAt string               `json:"created_at"`
	UpdatedAt string               `json:"updated_at"`
}

type WeeklyOffsResponse struct {
	BranchID string `json:"branch_id"`
	Days     []int  `json:"days"`
}

type HolidayResponse struct {
	ID       string `json:"id"`
	BranchID string `json:"branch_id"`
	Date     string `json:"date"`
	Name     string `json:"name"`
}
