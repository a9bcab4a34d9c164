package postgresql

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/opsdesk/attendance-backend-go/internal/domain/schedule"
	"github.com/opsdesk/attendance-backend-go/internal/pkg/database"
)

// scheduleMatcher is the database-backed schedule.Matcher. Working
// hours are stored per organization per weekday.
type scheduleMatcher struct {
	db *database.DB
}

func NewScheduleMatcher(db *database.DB) schedule.Matcher {
	return &scheduleMatcher{db: db}
}

// GetWorkingDayInfo implements schedule.Matcher.
func (m *scheduleMatcher) GetWorkingDayInfo(ctx context.Context, organizationID string, date time.Time) (schedule.WorkingDayInfo, error) {
	q := GetQuerier(ctx, m.db)

	query := `
		SELECT is_working_day, start_time, end_time, expected_work_minutes
		FROM organization_schedules
		WHERE organization_id = $1 AND weekday = $2
	`

	var info schedule.WorkingDayInfo
	var startTime, endTime *string
	err := q.QueryRow(ctx, query, organizationID, int(date.Weekday())).Scan(
		&info.IsWorkingDay, &startTime, &endTime, &info.ExpectedWorkMinutes,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return schedule.WorkingDayInfo{}, schedule.ErrScheduleNotFound
		}
		return schedule.WorkingDayInfo{}, fmt.Errorf("failed to get working day info: %w", err)
	}

	if !info.IsWorkingDay {
		return schedule.WorkingDayInfo{IsWorkingDay: false}, nil
	}

	if startTime != nil {
		info.StartTime = *startTime
	}
	if endTime != nil {
		info.EndTime = *endTime
	}

	return info, nil
}

// IsUserLate implements schedule.Matcher.
func (m *scheduleMatcher) IsUserLate(ctx context.Context, organizationID string, checkIn time.Time) (schedule.LateResult, error) {
	info, err := m.GetWorkingDayInfo(ctx, organizationID, checkIn)
	if err != nil {
		return schedule.LateResult{}, err
	}

	if !info.IsWorkingDay || info.StartTime == "" {
		return schedule.LateResult{}, nil
	}

	startMinute := schedule.ParseClock(info.StartTime)
	if startMinute < 0 {
		return schedule.LateResult{}, fmt.Errorf("malformed start time %q for organization %s", info.StartTime, organizationID)
	}

	checkInMinute := checkIn.Hour()*60 + checkIn.Minute()
	if checkInMinute <= startMinute {
		return schedule.LateResult{}, nil
	}

	return schedule.LateResult{
		IsLate:      true,
		LateMinutes: checkInMinute - startMinute,
	}, nil
}
