/*
errors.go - Error types for the award engine

The engine never errors on data quality: bad punches become compliance flags
and missing configuration falls back to defaults. Errors are reserved for
caller misuse, chiefly illegal approval transitions, so misuse is detected
during development instead of silently mutating a chain.

USAGE:
  next, err := award.Approve(chain, 1, "alex", "", now)
  if errors.Is(err, award.ErrStepNotCurrent) {
      // someone acted out of order
  }
*/
package award

import (
	"errors"
	"fmt"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrStepOutOfRange is returned when a step index does not exist in the chain.
	ErrStepOutOfRange = errors.New("approval step index out of range")

	// ErrStepNotCurrent is returned when acting on a step other than CurrentStepIndex.
	ErrStepNotCurrent = errors.New("approval step is not the current step")

	// ErrStepNotPending is returned when acting on a step that is already decided.
	ErrStepNotPending = errors.New("approval step is not pending")

	// ErrChainComplete is returned for any action on a complete chain.
	ErrChainComplete = errors.New("approval chain is complete")

	// ErrNoHigherTier is returned when escalating a step already at the top tier.
	ErrNoHigherTier = errors.New("no higher approval tier")

	// ErrUnknownValue is returned when parsing an unknown tier, trigger or status.
	ErrUnknownValue = errors.New("unknown value")
)

// =============================================================================
// STRUCTURED ERRORS
// =============================================================================

// TransitionError describes a rejected approval transition.
type TransitionError struct {
	Action string // approve, reject, escalate
	Step   int
	Reason string
	Err    error
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("cannot %s step %d: %s", e.Action, e.Step, e.Reason)
}

func (e *TransitionError) Unwrap() error {
	return e.Err
}

// ParseError describes an unknown enumerated value.
type ParseError struct {
	Kind  string
	Value string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("unknown %s %q", e.Kind, e.Value)
}

func (e *ParseError) Unwrap() error {
	return ErrUnknownValue
}

// =============================================================================
// ERROR HELPERS
// =============================================================================

// IsTransitionError returns true if err is a rejected approval transition.
func IsTransitionError(err error) bool {
	var te *TransitionError
	return errors.As(err, &te)
}

// IsClientError returns true if the error is due to invalid caller input.
func IsClientError(err error) bool {
	return IsTransitionError(err) || errors.Is(err, ErrUnknownValue)
}
