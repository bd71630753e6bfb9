package attendance

import (
	"errors"
	"fmt"

	"github.com/cmlabs-hris/attendance-engine/internal/pkg/geo"
)

var (
	// Check-in errors
	ErrAlreadyMarked      = errors.New("attendance already marked for today")
	ErrLowAccuracy        = geo.ErrLowAccuracy
	ErrTooFarFromBranch   = geo.ErrTooFarFromBranch
	ErrPhotoRequired      = errors.New("a photo is required to mark attendance")
	ErrInvalidPhotoFormat = errors.New("invalid photo format")
	ErrPhotoTooLarge      = errors.New("photo is too large")

	// Check-out errors
	ErrNotCheckedIn      = errors.New("you have not checked in yet")
	ErrAlreadyCheckedOut = errors.New("you have already checked out")

	// Administrative edit errors
	ErrCheckOutBeforeCheckIn = errors.New("check-out time must be after check-in time")
	ErrInvalidStatus         = errors.New("status must be present, absent or half-day")

	ErrAttendanceNotFound = errors.New("attendance record not found")
	ErrUnauthorized       = errors.New("unauthorized to access this attendance record")
)

// PhotoTooLargeError carries the rejected size and the limit, in bytes.
type PhotoTooLargeError struct {
	Size int64
	Max  int64
}

func (e *PhotoTooLargeError) Error() string {
	return fmt.Sprintf("photo is too large: %.1fMB, at most %.1fMB allowed",
		float64(e.Size)/(1<<20), float64(e.Max)/(1<<20))
}

func (e *PhotoTooLargeError) Unwrap() error { return ErrPhotoTooLarge }
