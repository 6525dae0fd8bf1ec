/*
errors.go - Error types for the roster service

PURPOSE:
  Errors raised while orchestrating submissions and approvals: missing
  records, locked timesheets and malformed submissions. Approval misuse is
  reported by the engine as *award.TransitionError and passes through
  unchanged.

USAGE:
  _, err := svc.Approve(ctx, id, 0, "alex", "")
  switch {
  case roster.IsNotFound(err):    // 404
  case roster.IsConflict(err):    // 409
  case roster.IsClientError(err): // 400
  }
*/
package roster

import (
	"errors"
	"fmt"

	"github.com/warp/award-engine/award"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrTimesheetNotFound is returned when a referenced timesheet doesn't exist.
	ErrTimesheetNotFound = errors.New("timesheet not found")

	// ErrChainNotFound is returned when a timesheet has no approval chain.
	ErrChainNotFound = errors.New("approval chain not found")

	// ErrAllowanceRuleNotFound is returned when a referenced allowance rule doesn't exist.
	ErrAllowanceRuleNotFound = errors.New("allowance rule not found")

	// ErrTimesheetLocked is returned when modifying an approved timesheet.
	ErrTimesheetLocked = errors.New("timesheet is approved and locked")

	// ErrInvalidTimesheet is returned when a submission is malformed.
	ErrInvalidTimesheet = errors.New("invalid timesheet")

	// ErrInvalidAllowanceRule is returned when an allowance rule is malformed.
	ErrInvalidAllowanceRule = errors.New("invalid allowance rule")

	// ErrInvalidHoliday is returned when a holiday has no name or date.
	ErrInvalidHoliday = errors.New("invalid holiday")
)

// =============================================================================
// STRUCTURED ERRORS
// =============================================================================

// ValidationError names the offending field of a rejected input.
type ValidationError struct {
	Field   string
	Message string
	Err     error // ErrInvalidTimesheet, ErrInvalidAllowanceRule or ErrInvalidHoliday
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%v: %s: %s", e.Err, e.Field, e.Message)
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}

// LockedError identifies the approved timesheet that rejected a change.
type LockedError struct {
	TimesheetID award.TimesheetID
}

func (e *LockedError) Error() string {
	return fmt.Sprintf("timesheet %s is approved and can no longer be changed", e.TimesheetID)
}

func (e *LockedError) Unwrap() error {
	return ErrTimesheetLocked
}

// =============================================================================
// ERROR HELPERS
// =============================================================================

// IsNotFound returns true if the error indicates a missing resource.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrTimesheetNotFound) ||
		errors.Is(err, ErrChainNotFound) ||
		errors.Is(err, ErrAllowanceRuleNotFound)
}

// IsConflict returns true if the request is valid but the current state
// forbids it: an illegal approval transition or a locked timesheet.
func IsConflict(err error) bool {
	return award.IsTransitionError(err) || errors.Is(err, ErrTimesheetLocked)
}

// IsClientError returns true if the error is due to invalid client input.
func IsClientError(err error) bool {
	return errors.Is(err, ErrInvalidTimesheet) ||
		errors.Is(err, ErrInvalidAllowanceRule) ||
		errors.Is(err, ErrInvalidHoliday) ||
		award.IsClientError(err) ||
		IsConflict(err)
}
