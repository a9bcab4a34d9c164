package organization

import "context"

// OrganizationRepository exposes read-only tenant reference data.
type OrganizationRepository interface {
	GetByID(ctx context.Context, id string) (Organization, error)

	// ListActive returns all non-deleted organizations
	ListActive(ctx context.Context) ([]Organization, error)

	// GetBranch resolves a branch within an organization
	GetBranch(ctx context.Context, id string, organizationID string) (Branch, error)
}
