package postgresql

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/opsdesk/attendance-backend-go/internal/domain/user"
	"github.com/opsdesk/attendance-backend-go/internal/pkg/database"
)

type userRepository struct {
	db *database.DB
}

func NewUserRepository(db *database.DB) user.UserRepository {
	return &userRepository{db: db}
}

const userColumns = `
	id, name, email, access_level, status, role, branch_id, organization_id,
	created_at, updated_at`

func scanUser(row pgx.Row) (user.User, error) {
	var u user.User
	err := row.Scan(
		&u.ID, &u.Name, &u.Email, &u.AccessLevel, &u.Status, &u.Role,
		&u.BranchID, &u.OrganizationID, &u.CreatedAt, &u.UpdatedAt,
	)
	return u, err
}

func collectUsers(rows pgx.Rows) ([]user.User, error) {
	defer rows.Close()

	var users []user.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

// GetByID implements user.UserRepository.
func (r *userRepository) GetByID(ctx context.Context, id string) (user.User, error) {
	q := GetQuerier(ctx, r.db)

	query := `SELECT` + userColumns + ` FROM users WHERE id = $1`

	u, err := scanUser(q.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return user.User{}, user.ErrUserNotFound
		}
		return user.User{}, fmt.Errorf("failed to get user: %w", err)
	}

	return u, nil
}

// ListByOrganization implements user.UserRepository.
func (r *userRepository) ListByOrganization(ctx context.Context, organizationID string) ([]user.User, error) {
	q := GetQuerier(ctx, r.db)

	query := `SELECT` + userColumns + `
		FROM users
		WHERE organization_id = $1
		ORDER BY name
	`

	rows, err := q.Query(ctx, query, organizationID)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}

	return collectUsers(rows)
}

// ListByFilter implements user.UserRepository.
func (r *userRepository) ListByFilter(ctx context.Context, filter user.Filter) ([]user.User, error) {
	q := GetQuerier(ctx, r.db)

	query := `SELECT` + userColumns + `
		FROM users
		WHERE organization_id = $1
		  AND ($2::text IS NULL OR branch_id = $2)
		  AND ($3::text IS NULL OR role = $3)
		ORDER BY name
	`

	rows, err := q.Query(ctx, query, filter.OrganizationID, filter.BranchID, filter.Role)
	if err != nil {
		return nil, fmt.Errorf("failed to list users by filter: %w", err)
	}

	return collectUsers(rows)
}

// ListActiveByAccessLevels implements user.UserRepository.
func (r *userRepository) ListActiveByAccessLevels(ctx context.Context, organizationID string, levels []user.AccessLevel) ([]user.User, error) {
	q := GetQuerier(ctx, r.db)

	levelStrings := make([]string, 0, len(levels))
	for _, l := range levels {
		levelStrings = append(levelStrings, string(l))
	}

	query := `SELECT` + userColumns + `
		FROM users
		WHERE organization_id = $1
		  AND status = $2
		  AND access_level = ANY($3)
		ORDER BY name
	`

	rows, err := q.Query(ctx, query, organizationID, user.StatusActive, levelStrings)
	if err != nil {
		return nil, fmt.Errorf("failed to list users by access level: %w", err)
	}

	return collectUsers(rows)
}
