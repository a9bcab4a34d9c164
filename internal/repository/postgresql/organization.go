package postgresql

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/opsdesk/attendance-backend-go/internal/domain/organization"
	"github.com/opsdesk/attendance-backend-go/internal/pkg/database"
)

type organizationRepository struct {
	db *database.DB
}

func NewOrganizationRepository(db *database.DB) organization.OrganizationRepository {
	return &organizationRepository{db: db}
}

// GetByID implements organization.OrganizationRepository.
func (r *organizationRepository) GetByID(ctx context.Context, id string) (organization.Organization, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		SELECT id, name, timezone, deleted_at, created_at, updated_at
		FROM organizations
		WHERE id = $1
	`

	var org organization.Organization
	err := q.QueryRow(ctx, query, id).Scan(
		&org.ID, &org.Name, &org.Timezone, &org.DeletedAt, &org.CreatedAt, &org.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return organization.Organization{}, organization.ErrOrganizationNotFound
		}
		return organization.Organization{}, fmt.Errorf("failed to get organization: %w", err)
	}

	return org, nil
}

// ListActive implements organization.OrganizationRepository.
func (r *organizationRepository) ListActive(ctx context.Context) ([]organization.Organization, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		SELECT id, name, timezone, deleted_at, created_at, updated_at
		FROM organizations
		WHERE deleted_at IS NULL
		ORDER BY name
	`

	rows, err := q.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list organizations: %w", err)
	}
	defer rows.Close()

	var orgs []organization.Organization
	for rows.Next() {
		var org organization.Organization
		if err := rows.Scan(&org.ID, &org.Name, &org.Timezone, &org.DeletedAt, &org.CreatedAt, &org.UpdatedAt); err != nil {
			return nil, err
		}
		orgs = append(orgs, org)
	}

	return orgs, rows.Err()
}

// GetBranch implements organization.OrganizationRepository.
func (r *organizationRepository) GetBranch(ctx context.Context, id string, organizationID string) (organization.Branch, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		SELECT id, organization_id, name
		FROM branches
		WHERE id = $1 AND organization_id = $2
	`

	var b organization.Branch
	err := q.QueryRow(ctx, query, id, organizationID).Scan(&b.ID, &b.OrganizationID, &b.Name)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return organization.Branch{}, organization.ErrBranchNotFound
		}
		return organization.Branch{}, fmt.Errorf("failed to get branch: %w", err)
	}

	return b, nil
}
