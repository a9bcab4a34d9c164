package user

import (
	"context"
)

// Filter narrows user lookups for organization reports.
type Filter struct {
	OrganizationID string
	BranchID       *string
	Role           *string
}

// UserRepository exposes read-only access to user reference data.
type UserRepository interface {
	GetByID(ctx context.Context, id string) (User, error)

	// ListByOrganization returns all users of an organization
	ListByOrganization(ctx context.Context, organizationID string) ([]User, error)

	// ListByFilter returns users matching org plus optional branch/role
	ListByFilter(ctx context.Context, filter Filter) ([]User, error)

	// ListActiveByAccessLevels returns active users holding any of the
	// given access levels; used for report recipient resolution
	ListActiveByAccessLevels(ctx context.Context, organizationID string, levels []AccessLevel) ([]User, error)
}
