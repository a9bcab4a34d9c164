package shift

import (
	"context"
)

// ShiftService defines business logic for the shift lifecycle. Caller
// identity (user, branch, organization) comes from JWT claims in ctx.
type ShiftService interface {
	// CheckIn opens a new shift for the authenticated user
	CheckIn(ctx context.Context, req CheckInRequest) (ShiftResponse, error)

	// CheckOut completes the user's open shift and returns its duration
	CheckOut(ctx context.Context, req CheckOutRequest) (CheckOutResponse, error)

	// StartBreak appends an open break entry to the user's open shift
	StartBreak(ctx context.Context, req BreakRequest) (ShiftResponse, error)

	// EndBreak closes the open break entry and recomputes break totals
	EndBreak(ctx context.Context, req BreakRequest) (ShiftResponse, error)

	// GetStatus returns the user's most recent shift
	GetStatus(ctx context.Context, userID string) (ShiftResponse, error)

	// ListToday returns the organization's shifts for today
	ListToday(ctx context.Context) ([]ShiftResponse, error)

	// ListByDate returns the organization's shifts for a calendar day
	ListByDate(ctx context.Context, date string) ([]ShiftResponse, error)

	// ListByUser returns all shifts for a user
	ListByUser(ctx context.Context, userID string) ([]ShiftResponse, error)

	// ListByBranch returns all shifts for a branch
	ListByBranch(ctx context.Context, branchID string) ([]ShiftResponse, error)

	// DailyStats returns worked/break milliseconds for a user and day
	DailyStats(ctx context.Context, userID string, date string) (DailyStatsResponse, error)
}
