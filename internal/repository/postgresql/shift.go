package postgresql

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/opsdesk/attendance-backend-go/internal/domain/shift"
	"github.com/opsdesk/attendance-backend-go/internal/pkg/database"
)

type shiftRepository struct {
	db *database.DB
}

func NewShiftRepository(db *database.DB) shift.ShiftRepository {
	return &shiftRepository{db: db}
}

const shiftColumns = `
	id, user_id, branch_id, organization_id, status,
	check_in, check_out, duration_minutes,
	check_in_latitude, check_in_longitude, check_in_notes,
	check_out_latitude, check_out_longitude, check_out_notes,
	break_start, break_end, total_break_minutes, break_count, break_details,
	verified_at, verified_by, created_at, updated_at`

func scanShift(row pgx.Row) (shift.Shift, error) {
	var s shift.Shift
	var breakDetails []byte

	err := row.Scan(
		&s.ID, &s.UserID, &s.BranchID, &s.OrganizationID, &s.Status,
		&s.CheckIn, &s.CheckOut, &s.DurationMinutes,
		&s.CheckInLatitude, &s.CheckInLongitude, &s.CheckInNotes,
		&s.CheckOutLatitude, &s.CheckOutLongitude, &s.CheckOutNotes,
		&s.BreakStart, &s.BreakEnd, &s.TotalBreakMinutes, &s.BreakCount, &breakDetails,
		&s.VerifiedAt, &s.VerifiedBy, &s.CreatedAt, &s.UpdatedAt,
	)
	if err != nil {
		return shift.Shift{}, err
	}

	if len(breakDetails) > 0 {
		if err := json.Unmarshal(breakDetails, &s.Breaks); err != nil {
			return shift.Shift{}, fmt.Errorf("failed to decode break details: %w", err)
		}
	}

	return s, nil
}

func collectShifts(rows pgx.Rows) ([]shift.Shift, error) {
	defer rows.Close()

	var shifts []shift.Shift
	for rows.Next() {
		s, err := scanShift(rows)
		if err != nil {
			return nil, err
		}
		shifts = append(shifts, s)
	}
	return shifts, rows.Err()
}

// Create implements shift.ShiftRepository.
func (r *shiftRepository) Create(ctx context.Context, s shift.Shift) (shift.Shift, error) {
	q := GetQuerier(ctx, r.db)

	if s.ID == "" {
		s.ID = uuid.NewString()
	}

	breakDetails, err := json.Marshal(s.Breaks)
	if err != nil {
		return shift.Shift{}, fmt.Errorf("failed to encode break details: %w", err)
	}

	query := `
		INSERT INTO shifts (
			id, user_id, branch_id, organization_id, status,
			check_in, check_in_latitude, check_in_longitude, check_in_notes,
			total_break_minutes, break_count, break_details
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12
		) RETURNING created_at, updated_at
	`

	err = q.QueryRow(ctx, query,
		s.ID, s.UserID, s.BranchID, s.OrganizationID, s.Status,
		s.CheckIn, s.CheckInLatitude, s.CheckInLongitude, s.CheckInNotes,
		s.TotalBreakMinutes, s.BreakCount, breakDetails,
	).Scan(&s.CreatedAt, &s.UpdatedAt)

	if err != nil {
		return shift.Shift{}, fmt.Errorf("failed to create shift: %w", err)
	}

	return s, nil
}

// Update implements shift.ShiftRepository.
func (r *shiftRepository) Update(ctx context.Context, s shift.Shift) error {
	q := GetQuerier(ctx, r.db)

	breakDetails, err := json.Marshal(s.Breaks)
	if err != nil {
		return fmt.Errorf("failed to encode break details: %w", err)
	}

	query := `
		UPDATE shifts SET
			status = $2,
			check_out = $3,
			duration_minutes = $4,
			check_out_latitude = $5,
			check_out_longitude = $6,
			check_out_notes = $7,
			break_start = $8,
			break_end = $9,
			total_break_minutes = $10,
			break_count = $11,
			break_details = $12,
			updated_at = NOW()
		WHERE id = $1
	`

	tag, err := q.Exec(ctx, query,
		s.ID, s.Status, s.CheckOut, s.DurationMinutes,
		s.CheckOutLatitude, s.CheckOutLongitude, s.CheckOutNotes,
		s.BreakStart, s.BreakEnd, s.TotalBreakMinutes, s.BreakCount, breakDetails,
	)
	if err != nil {
		return fmt.Errorf("failed to update shift: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return shift.ErrShiftNotFound
	}

	return nil
}

// GetByID implements shift.ShiftRepository.
func (r *shiftRepository) GetByID(ctx context.Context, id string, organizationID string) (shift.Shift, error) {
	q := GetQuerier(ctx, r.db)

	query := `SELECT` + shiftColumns + `
		FROM shifts
		WHERE id = $1 AND organization_id = $2
	`

	s, err := scanShift(q.QueryRow(ctx, query, id, organizationID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return shift.Shift{}, shift.ErrShiftNotFound
		}
		return shift.Shift{}, fmt.Errorf("failed to get shift: %w", err)
	}

	return s, nil
}

// GetOpenShift implements shift.ShiftRepository.
func (r *shiftRepository) GetOpenShift(ctx context.Context, userID string) (shift.Shift, error) {
	q := GetQuerier(ctx, r.db)

	query := `SELECT` + shiftColumns + `
		FROM shifts
		WHERE user_id = $1
		  AND check_out IS NULL
		ORDER BY check_in DESC
		LIMIT 1
	`

	s, err := scanShift(q.QueryRow(ctx, query, userID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return shift.Shift{}, shift.ErrNoOpenShift
		}
		return shift.Shift{}, fmt.Errorf("failed to get open shift: %w", err)
	}

	return s, nil
}

// GetLatestForUser implements shift.ShiftRepository.
func (r *shiftRepository) GetLatestForUser(ctx context.Context, userID string) (shift.Shift, error) {
	q := GetQuerier(ctx, r.db)

	query := `SELECT` + shiftColumns + `
		FROM shifts
		WHERE user_id = $1
		ORDER BY check_in DESC
		LIMIT 1
	`

	s, err := scanShift(q.QueryRow(ctx, query, userID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return shift.Shift{}, shift.ErrShiftNotFound
		}
		return shift.Shift{}, fmt.Errorf("failed to get latest shift: %w", err)
	}

	return s, nil
}

// ListByUser implements shift.ShiftRepository.
func (r *shiftRepository) ListByUser(ctx context.Context, userID string, from, to *time.Time) ([]shift.Shift, error) {
	q := GetQuerier(ctx, r.db)

	query := `SELECT` + shiftColumns + `
		FROM shifts
		WHERE user_id = $1
		  AND ($2::timestamptz IS NULL OR check_in >= $2)
		  AND ($3::timestamptz IS NULL OR check_in <= $3)
		ORDER BY check_in DESC
	`

	rows, err := q.Query(ctx, query, userID, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to list shifts by user: %w", err)
	}

	return collectShifts(rows)
}

// ListByDate implements shift.ShiftRepository.
func (r *shiftRepository) ListByDate(ctx context.Context, organizationID string, date time.Time) ([]shift.Shift, error) {
	q := GetQuerier(ctx, r.db)

	dayStart := time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, date.Location())
	dayEnd := dayStart.AddDate(0, 0, 1)

	query := `SELECT` + shiftColumns + `
		FROM shifts
		WHERE organization_id = $1
		  AND check_in >= $2
		  AND check_in < $3
		ORDER BY check_in DESC
	`

	rows, err := q.Query(ctx, query, organizationID, dayStart, dayEnd)
	if err != nil {
		return nil, fmt.Errorf("failed to list shifts by date: %w", err)
	}

	return collectShifts(rows)
}

// ListByBranch implements shift.ShiftRepository.
func (r *shiftRepository) ListByBranch(ctx context.Context, branchID string, organizationID string) ([]shift.Shift, error) {
	q := GetQuerier(ctx, r.db)

	query := `SELECT` + shiftColumns + `
		FROM shifts
		WHERE branch_id = $1
		  AND organization_id = $2
		ORDER BY check_in DESC
	`

	rows, err := q.Query(ctx, query, branchID, organizationID)
	if err != nil {
		return nil, fmt.Errorf("failed to list shifts by branch: %w", err)
	}

	return collectShifts(rows)
}

// ListByOrganizationRange implements shift.ShiftRepository.
func (r *shiftRepository) ListByOrganizationRange(ctx context.Context, organizationID string, from, to time.Time) ([]shift.Shift, error) {
	q := GetQuerier(ctx, r.db)

	query := `SELECT` + shiftColumns + `
		FROM shifts
		WHERE organization_id = $1
		  AND check_in >= $2
		  AND check_in <= $3
		ORDER BY check_in DESC
	`

	rows, err := q.Query(ctx, query, organizationID, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to list shifts by organization range: %w", err)
	}

	return collectShifts(rows)
}
