package attendance

import (
	"testing"
	"time"

	"github.com/cmlabs-hris/attendance-engine/internal/domain/attendance"
	"github.com/stretchr/testify/assert"
)

func TestClassifyArrival(t *testing.T) {
	loc, err := time.LoadLocation("Asia/Kolkata")
	if err != nil {
		t.Fatalf("load location: %v", err)
	}
	shiftStart := time.Date(2023, 6, 1, 9, 0, 0, 0, loc)
	at := func(h, m, s int) time.Time { return time.Date(2023, 6, 1, h, m, s, 0, loc) }

	cases := []struct {
		name   string
		in     time.Time
		status attendance.Status
		flag   attendance.ArrivalFlag
		late   int
	}{
		{"early", at(8, 45, 0), attendance.StatusPresent, attendance.ArrivalOnTime, 0},
		{"inside grace", at(9, 10, 0), attendance.StatusPresent, attendance.ArrivalOnTime, 0},
		{"exactly at deadline", at(9, 15, 0), attendance.StatusPresent, attendance.ArrivalOnTime, 0},
		{"under a minute past deadline", at(9, 15, 59), attendance.StatusPresent, attendance.ArrivalOnTime, 0},
		{"late but present", at(9, 20, 0), attendance.StatusPresent, attendance.ArrivalLate, 5},
		{"at half-day threshold", at(13, 15, 0), attendance.StatusPresent, attendance.ArrivalLate, 240},
		{"half-day", at(13, 30, 0), attendance.StatusHalfDay, attendance.ArrivalLate, 255},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			got := ClassifyArrival(c.in, shiftStart, 15, 240)
			assert.Equal(t, c.status, got.Status)
			assert.Equal(t, c.flag, got.ArrivalFlag)
			assert.Equal(t, c.late, got.LateMinutes)
		})
	}
}

func TestClassifyArrival_InstantInAnotherZone(t *testing.T) {
	loc, err := time.LoadLocation("Asia/Jakarta")
	if err != nil {
		t.Fatalf("load location: %v", err)
	}
	shiftStart := time.Date(2023, 6, 1, 9, 0, 0, 0, loc)

	// 02:20 UTC is 09:20 in Jakarta.
	got := ClassifyArrival(time.Date(2023, 6, 1, 2, 20, 0, 0, time.UTC), shiftStart, 15, 240)
	assert.Equal(t, 5, got.LateMinutes)
}
