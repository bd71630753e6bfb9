package attendance

import (
	"time"

	"github.com/cmlabs-hris/attendance-engine/internal/domain/audit"
)

type Status string

const (
	StatusPresent Status = "present"
	StatusAbsent  Status = "absent"
	StatusHalfDay Status = "half-day"
)

func (s Status) IsValid() bool {
	switch s {
	case StatusPresent, StatusAbsent, StatusHalfDay:
		return true
	}
	return false
}

// ArrivalFlag records lateness independently of Status.
type ArrivalFlag string

const (
	ArrivalOnTime ArrivalFlag = "on_time"
	ArrivalLate   ArrivalFlag = "late"
)

// Classification is the outcome of evaluating a check-in against a shift.
type Classification struct {
	Status      Status
	ArrivalFlag ArrivalFlag
	LateMinutes int
}

// Attendance is the single record of an employee for one calendar day.
// Date is the branch-local calendar date, held at midnight UTC.
type Attendance struct {
	ID          string
	EmployeeID  string
	// BranchID is the branch the employee checked in at; edits reclassify against it.
	BranchID    string
	Date        time.Time
	CheckIn     *time.Time
	CheckOut    *time.Time
	Status      Status
	ArrivalFlag *ArrivalFlag
	LateMinutes int
	SelfiePath  *string
	Latitude    *float64
	Longitude   *float64
	Remarks     *string
	ModifiedBy  *string
	ModifiedAt  *time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time

	// DTO
	EmployeeName *string
}

// AuditValues snapshots the fields an administrator can change.
func (a Attendance) AuditValues() audit.Values {
	v := audit.Values{
		"status":       string(a.Status),
		"late_minutes": a.LateMinutes,
		"check_in":     formatTimePtr(a.CheckIn),
		"check_out":    formatTimePtr(a.CheckOut),
		"remarks":      a.Remarks,
	}
	if a.ArrivalFlag != nil {
		v["arrival_flag"] = string(*a.ArrivalFlag)
	}
	return v
}

func formatTimePtr(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := t.UTC().Format(time.RFC3339)
	return &s
}

// Photo is a selfie handed over by the transport layer.
type Photo struct {
	Data        []byte
	ContentType string
	Size        int64
}
