package shift

import (
	"context"
	"time"
)

// ShiftRepository defines data access for shift records. Read methods
// take organizationID to prevent cross-tenant access.
type ShiftRepository interface {
	// Create inserts a new shift record
	Create(ctx context.Context, s Shift) (Shift, error)

	// Update persists the full mutable state of an existing shift
	Update(ctx context.Context, s Shift) error

	// GetByID retrieves a shift by ID with tenant isolation
	GetByID(ctx context.Context, id string, organizationID string) (Shift, error)

	// GetOpenShift returns the most recent record for the user with a
	// null checkout, latest check-in first
	GetOpenShift(ctx context.Context, userID string) (Shift, error)

	// GetLatestForUser returns the user's most recent shift regardless
	// of state
	GetLatestForUser(ctx context.Context, userID string) (Shift, error)

	// ListByUser returns all shifts for a user, newest first. From/to
	// bound the check-in time when non-nil.
	ListByUser(ctx context.Context, userID string, from, to *time.Time) ([]Shift, error)

	// ListByDate returns the organization's shifts whose check-in falls
	// on the given calendar day
	ListByDate(ctx context.Context, organizationID string, date time.Time) ([]Shift, error)

	// ListByBranch returns all shifts for a branch
	ListByBranch(ctx context.Context, branchID string, organizationID string) ([]Shift, error)

	// ListByOrganizationRange returns the organization's shifts with
	// check-in inside [from, to]
	ListByOrganizationRange(ctx context.Context, organizationID string, from, to time.Time) ([]Shift, error)
}
