package leave

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidLeaveType            = errors.New("leave type must be emergency, privilege or unpaid")
	ErrStartDateInPast             = errors.New("start date cannot be in the past")
	ErrEndDateBeforeStart          = errors.New("end date cannot be before start date")
	ErrInsufficientBalance         = errors.New("insufficient leave balance")
	ErrOverlappingApplication      = errors.New("you already have a leave application for these dates")
	ErrApplicationNotFound         = errors.New("leave application not found")
	ErrApplicationAlreadyProcessed = errors.New("leave application already processed")
	ErrBalanceAlreadyInitialized   = errors.New("leave balance already initialized for this year")
)

// InsufficientBalanceError reports how many days the pool is short.
type InsufficientBalanceError struct {
	LeaveType LeaveType
	Available int
	Required  int
}

func (e *InsufficientBalanceError) Shortfall() int {
	return e.Required - e.Available
}

func (e *InsufficientBalanceError) Error() string {
	return fmt.Sprintf("Insufficient %s leave balance. Available: %d, Required: %d (short by %d)",
		e.LeaveType, e.Available, e.Required, e.Shortfall())
}

func (e *InsufficientBalanceError) Unwrap() error { return ErrInsufficientBalance }
