package schedule

import (
	"context"
	"errors"
	"time"
)

var ErrScheduleNotFound = errors.New("no working schedule configured for organization")

// WorkingDayInfo describes one organization's expectations for a
// calendar date. StartTime/EndTime are "HH:MM" strings and are empty
// on non-working days.
type WorkingDayInfo struct {
	IsWorkingDay        bool   `json:"is_working_day"`
	StartTime           string `json:"start_time,omitempty"`
	EndTime             string `json:"end_time,omitempty"`
	ExpectedWorkMinutes int    `json:"expected_work_minutes"`
}

// LateResult is the outcome of a lateness test for a single check-in.
type LateResult struct {
	IsLate      bool `json:"is_late"`
	LateMinutes int  `json:"late_minutes"`
}

// Matcher resolves per-organization working hours. The attendance
// engine consumes this contract; schedule administration is owned by
// the core HR system.
type Matcher interface {
	// GetWorkingDayInfo returns the organization's expectations for the
	// given date
	GetWorkingDayInfo(ctx context.Context, organizationID string, date time.Time) (WorkingDayInfo, error)

	// IsUserLate tests a check-in timestamp against the organization's
	// start time for that day
	IsUserLate(ctx context.Context, organizationID string, checkIn time.Time) (LateResult, error)
}

// ParseClock converts an "HH:MM" string to minutes since midnight.
// Returns -1 for malformed input.
func ParseClock(hhmm string) int {
	if len(hhmm) != 5 || hhmm[2] != ':' {
		return -1
	}
	for _, i := range []int{0, 1, 3, 4} {
		if hhmm[i] < '0' || hhmm[i] > '9' {
			return -1
		}
	}
	h := int(hhmm[0]-'0')*10 + int(hhmm[1]-'0')
	m := int(hhmm[3]-'0')*10 + int(hhmm[4]-'0')
	if h > 23 || m > 59 {
		return -1
	}
	return h*60 + m
}
