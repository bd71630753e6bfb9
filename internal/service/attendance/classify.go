package attendance

import (
	"time"

	"github.com/cmlabs-hris/attendance-engine/internal/domain/attendance"
)

// ClassifyArrival evaluates a check-in against the shift start. The on-time
// deadline is shiftStart plus the grace period and is itself on time. Minutes
// late are counted from the deadline in whole minutes; beyond halfDayAfterMinutes
// the status drops to half-day.
func ClassifyArrival(checkIn, shiftStart time.Time, gracePeriodMinutes, halfDayAfterMinutes int) attendance.Classification {
	deadline := shiftStart.Add(time.Duration(gracePeriodMinutes) * time.Minute)

	lateMinutes := 0
	if checkIn.After(deadline) {
		lateMinutes = int(checkIn.Sub(deadline) / time.Minute)
	}

	c := attendance.Classification{
		Status:      attendance.StatusPresent,
		ArrivalFlag: attendance.ArrivalOnTime,
		LateMinutes: lateMinutes,
	}
	if lateMinutes > 0 {
		c.ArrivalFlag = attendance.ArrivalLate
	}
	if lateMinutes > halfDayAfterMinutes {
		c.Status = attendance.StatusHalfDay
	}
	return c
}
