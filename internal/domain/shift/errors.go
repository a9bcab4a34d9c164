package shift

import "errors"

// Shift domain errors
var (
	ErrShiftAlreadyOpen  = errors.New("an open shift already exists for this user")
	ErrNoOpenShift       = errors.New("no open shift found for this user")
	ErrNoOpenBreak       = errors.New("no open break found for this user")
	ErrAlreadyOnBreak    = errors.New("a break is already in progress")
	ErrShiftNotFound     = errors.New("shift record not found")
	ErrInvalidTransition = errors.New("invalid shift status transition")
)
