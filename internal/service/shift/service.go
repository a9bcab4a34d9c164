package shift

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/go-chi/jwtauth/v5"
	"github.com/opsdesk/attendance-backend-go/internal/domain/shift"
	"github.com/opsdesk/attendance-backend-go/internal/pkg/database"
	"github.com/opsdesk/attendance-backend-go/internal/pkg/events"
	"github.com/opsdesk/attendance-backend-go/internal/pkg/timeutil"
	"github.com/opsdesk/attendance-backend-go/internal/pkg/validator"
	"github.com/opsdesk/attendance-backend-go/internal/repository/postgresql"
)

type ShiftServiceImpl struct {
	db *database.DB
	shift.ShiftRepository
	publisher events.Publisher

	// ownerLocks serializes check-in/check-out/break mutations per
	// user. The open-shift and open-break invariants depend on it.
	ownerLocks sync.Map

	now func() time.Time
}

func NewShiftService(db *database.DB, shiftRepo shift.ShiftRepository, publisher events.Publisher) shift.ShiftService {
	return &ShiftServiceImpl{
		db:              db,
		ShiftRepository: shiftRepo,
		publisher:       publisher,
		now:             time.Now,
	}
}

// identityFromContext extracts the caller's identity from JWT claims.
func identityFromContext(ctx context.Context) (userID, branchID, organizationID string, err error) {
	_, claims, err := jwtauth.FromContext(ctx)
	if err != nil {
		return "", "", "", fmt.Errorf("failed to extract claims from context: %w", err)
	}

	userID, ok := claims["user_id"].(string)
	if !ok || userID == "" {
		return "", "", "", fmt.Errorf("user_id claim is missing or invalid")
	}

	organizationID, ok = claims["organization_id"].(string)
	if !ok || organizationID == "" {
		return "", "", "", fmt.Errorf("organization_id claim is missing or invalid")
	}

	// branch_id may legitimately be absent for org-level accounts.
	branchID, _ = claims["branch_id"].(string)

	return userID, branchID, organizationID, nil
}

func (s *ShiftServiceImpl) lockOwner(userID string) func() {
	v, _ := s.ownerLocks.LoadOrStore(userID, &sync.Mutex{})
	mu := v.(*sync.Mutex)
	mu.Lock()
	return mu.Unlock
}

func breaksToIntervals(entries []shift.BreakEntry) []timeutil.BreakInterval {
	intervals := make([]timeutil.BreakInterval, 0, len(entries))
	for _, b := range entries {
		intervals = append(intervals, timeutil.BreakInterval{Start: b.StartTime, End: b.EndTime})
	}
	return intervals
}

// closedBreakMinutes sums the recorded closed break entries directly.
func closedBreakMinutes(entries []shift.BreakEntry) int {
	return timeutil.BreakMinutes(breaksToIntervals(entries))
}

// CheckIn implements shift.ShiftService.
func (s *ShiftServiceImpl) CheckIn(ctx context.Context, req shift.CheckInRequest) (shift.ShiftResponse, error) {
	if err := req.Validate(); err != nil {
		return shift.ShiftResponse{}, err
	}

	userID, branchID, organizationID, err := identityFromContext(ctx)
	if err != nil {
		return shift.ShiftResponse{}, err
	}

	unlock := s.lockOwner(userID)
	defer unlock()

	var created shift.Shift
	err = postgresql.WithTransaction(ctx, s.db, func(ctx context.Context) error {
		_, err := s.ShiftRepository.GetOpenShift(ctx, userID)
		if err == nil {
			return shift.ErrShiftAlreadyOpen
		}
		if !errors.Is(err, shift.ErrNoOpenShift) {
			return fmt.Errorf("failed to check for open shift: %w", err)
		}

		record := shift.Shift{
			UserID:           userID,
			BranchID:         branchID,
			OrganizationID:   organizationID,
			Status:           shift.StatusPresent,
			CheckIn:          s.now(),
			CheckInLatitude:  req.Latitude,
			CheckInLongitude: req.Longitude,
			CheckInNotes:     req.Notes,
			Breaks:           []shift.BreakEntry{},
		}

		created, err = s.ShiftRepository.Create(ctx, record)
		if err != nil {
			return fmt.Errorf("failed to create shift record: %w", err)
		}
		return nil
	})
	if err != nil {
		return shift.ShiftResponse{}, err
	}

	return mapShiftToResponse(created), nil
}

// CheckOut implements shift.ShiftService.
func (s *ShiftServiceImpl) CheckOut(ctx context.Context, req shift.CheckOutRequest) (shift.CheckOutResponse, error) {
	if err := req.Validate(); err != nil {
		return shift.CheckOutResponse{}, err
	}

	userID, _, _, err := identityFromContext(ctx)
	if err != nil {
		return shift.CheckOutResponse{}, err
	}

	unlock := s.lockOwner(userID)
	defer unlock()

	var record shift.Shift
	var worked int
	err = postgresql.WithTransaction(ctx, s.db, func(ctx context.Context) error {
		var err error
		record, err = s.ShiftRepository.GetOpenShift(ctx, userID)
		if err != nil {
			if errors.Is(err, shift.ErrNoOpenShift) {
				return shift.ErrNoOpenShift
			}
			return fmt.Errorf("failed to get open shift: %w", err)
		}

		if record.Status != shift.StatusPresent {
			return shift.ErrNoOpenShift
		}
		if !record.Status.CanTransition(shift.StatusCompleted) {
			return shift.ErrInvalidTransition
		}

		now := s.now()
		worked = timeutil.WorkedMinutes(record.CheckIn, &now, now, breaksToIntervals(record.Breaks))

		record.Status = shift.StatusCompleted
		record.CheckOut = &now
		record.DurationMinutes = &worked
		record.CheckOutLatitude = req.Latitude
		record.CheckOutLongitude = req.Longitude
		record.CheckOutNotes = req.Notes

		if err := s.ShiftRepository.Update(ctx, record); err != nil {
			return fmt.Errorf("failed to update shift record: %w", err)
		}
		return nil
	})
	if err != nil {
		return shift.CheckOutResponse{}, err
	}

	s.publisher.Publish(ctx, events.TopicDailyReport, map[string]interface{}{"user_id": userID})
	s.publisher.Publish(ctx, events.TopicTargetUpdateRequired, map[string]interface{}{"user_id": userID})
	s.publisher.Publish(ctx, events.TopicMetricsUpdateNeeded, map[string]interface{}{})

	return shift.CheckOutResponse{
		Shift:    mapShiftToResponse(record),
		Duration: timeutil.FormatDuration(worked),
	}, nil
}

// StartBreak implements shift.ShiftService.
func (s *ShiftServiceImpl) StartBreak(ctx context.Context, req shift.BreakRequest) (shift.ShiftResponse, error) {
	userID, _, _, err := identityFromContext(ctx)
	if err != nil {
		return shift.ShiftResponse{}, err
	}

	unlock := s.lockOwner(userID)
	defer unlock()

	record, err := s.ShiftRepository.GetOpenShift(ctx, userID)
	if err != nil {
		if errors.Is(err, shift.ErrNoOpenShift) {
			return shift.ShiftResponse{}, shift.ErrNoOpenShift
		}
		return shift.ShiftResponse{}, fmt.Errorf("failed to get open shift: %w", err)
	}

	if record.Status != shift.StatusPresent {
		return shift.ShiftResponse{}, shift.ErrAlreadyOnBreak
	}
	if !record.Status.CanTransition(shift.StatusOnBreak) {
		return shift.ShiftResponse{}, shift.ErrInvalidTransition
	}

	now := s.now()
	record.Breaks = append(record.Breaks, shift.BreakEntry{
		StartTime: now,
		Latitude:  req.Latitude,
		Longitude: req.Longitude,
		Notes:     req.Notes,
	})
	record.BreakCount++
	record.BreakStart = &now
	record.BreakEnd = nil
	record.Status = shift.StatusOnBreak

	if err := s.ShiftRepository.Update(ctx, record); err != nil {
		return shift.ShiftResponse{}, fmt.Errorf("failed to update shift record: %w", err)
	}

	return mapShiftToResponse(record), nil
}

// EndBreak implements shift.ShiftService.
func (s *ShiftServiceImpl) EndBreak(ctx context.Context, req shift.BreakRequest) (shift.ShiftResponse, error) {
	userID, _, _, err := identityFromContext(ctx)
	if err != nil {
		return shift.ShiftResponse{}, err
	}

	unlock := s.lockOwner(userID)
	defer unlock()

	record, err := s.ShiftRepository.GetOpenShift(ctx, userID)
	if err != nil {
		if errors.Is(err, shift.ErrNoOpenShift) {
			return shift.ShiftResponse{}, shift.ErrNoOpenBreak
		}
		return shift.ShiftResponse{}, fmt.Errorf("failed to get open shift: %w", err)
	}

	if record.Status != shift.StatusOnBreak || record.BreakStart == nil {
		return shift.ShiftResponse{}, shift.ErrNoOpenBreak
	}

	openIdx := record.OpenBreak()
	if openIdx < 0 {
		return shift.ShiftResponse{}, shift.ErrNoOpenBreak
	}

	now := s.now()
	duration := int(now.Sub(record.Breaks[openIdx].StartTime).Minutes())
	if duration < 0 {
		duration = 0
	}
	record.Breaks[openIdx].EndTime = &now
	record.Breaks[openIdx].DurationMinutes = &duration
	if req.Notes != nil {
		record.Breaks[openIdx].Notes = req.Notes
	}

	record.BreakEnd = &now
	record.TotalBreakMinutes = closedBreakMinutes(record.Breaks)
	record.Status = shift.StatusPresent

	if err := s.ShiftRepository.Update(ctx, record); err != nil {
		return shift.ShiftResponse{}, fmt.Errorf("failed to update shift record: %w", err)
	}

	return mapShiftToResponse(record), nil
}

// GetStatus implements shift.ShiftService.
func (s *ShiftServiceImpl) GetStatus(ctx context.Context, userID string) (shift.ShiftResponse, error) {
	record, err := s.ShiftRepository.GetLatestForUser(ctx, userID)
	if err != nil {
		if errors.Is(err, shift.ErrShiftNotFound) {
			return shift.ShiftResponse{}, shift.ErrShiftNotFound
		}
		return shift.ShiftResponse{}, fmt.Errorf("failed to get latest shift: %w", err)
	}

	return mapShiftToResponse(record), nil
}

// ListToday implements shift.ShiftService.
func (s *ShiftServiceImpl) ListToday(ctx context.Context) ([]shift.ShiftResponse, error) {
	_, _, organizationID, err := identityFromContext(ctx)
	if err != nil {
		return nil, err
	}

	records, err := s.ShiftRepository.ListByDate(ctx, organizationID, s.now())
	if err != nil {
		return nil, fmt.Errorf("failed to list today's shifts: %w", err)
	}

	return mapShiftsToResponses(records), nil
}

// ListByDate implements shift.ShiftService.
func (s *ShiftServiceImpl) ListByDate(ctx context.Context, date string) ([]shift.ShiftResponse, error) {
	_, _, organizationID, err := identityFromContext(ctx)
	if err != nil {
		return nil, err
	}

	day, err := validator.ParseDate(date)
	if err != nil {
		return nil, validator.ValidationErrors{{Field: "date", Message: "date must be YYYY-MM-DD"}}
	}

	records, err := s.ShiftRepository.ListByDate(ctx, organizationID, day)
	if err != nil {
		return nil, fmt.Errorf("failed to list shifts by date: %w", err)
	}

	return mapShiftsToResponses(records), nil
}

// ListByUser implements shift.ShiftService.
func (s *ShiftServiceImpl) ListByUser(ctx context.Context, userID string) ([]shift.ShiftResponse, error) {
	records, err := s.ShiftRepository.ListByUser(ctx, userID, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to list shifts by user: %w", err)
	}

	return mapShiftsToResponses(records), nil
}

// ListByBranch implements shift.ShiftService.
func (s *ShiftServiceImpl) ListByBranch(ctx context.Context, branchID string) ([]shift.ShiftResponse, error) {
	_, _, organizationID, err := identityFromContext(ctx)
	if err != nil {
		return nil, err
	}

	records, err := s.ShiftRepository.ListByBranch(ctx, branchID, organizationID)
	if err != nil {
		return nil, fmt.Errorf("failed to list shifts by branch: %w", err)
	}

	return mapShiftsToResponses(records), nil
}

// DailyStats implements shift.ShiftService.
func (s *ShiftServiceImpl) DailyStats(ctx context.Context, userID string, date string) (shift.DailyStatsResponse, error) {
	day := s.now()
	if date != "" {
		parsed, err := validator.ParseDate(date)
		if err != nil {
			return shift.DailyStatsResponse{}, validator.ValidationErrors{{Field: "date", Message: "date must be YYYY-MM-DD"}}
		}
		day = parsed
	}

	dayStart := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, day.Location())
	dayEnd := dayStart.AddDate(0, 0, 1)

	records, err := s.ShiftRepository.ListByUser(ctx, userID, &dayStart, &dayEnd)
	if err != nil {
		return shift.DailyStatsResponse{}, fmt.Errorf("failed to list shifts for daily stats: %w", err)
	}

	now := s.now()
	var workMinutes, breakMinutes int
	for _, record := range records {
		workMinutes += timeutil.WorkedMinutes(record.CheckIn, record.CheckOut, now, breaksToIntervals(record.Breaks))
		breakMinutes += closedBreakMinutes(record.Breaks)
	}

	return shift.DailyStatsResponse{
		UserID:         userID,
		Date:           dayStart.Format("2006-01-02"),
		DailyWorkTime:  int64(workMinutes) * 60_000,
		DailyBreakTime: int64(breakMinutes) * 60_000,
		ShiftCount:     len(records),
	}, nil
}

func mapShiftToResponse(record shift.Shift) shift.ShiftResponse {
	resp := shift.ShiftResponse{
		ID:             record.ID,
		UserID:         record.UserID,
		BranchID:       record.BranchID,
		OrganizationID: record.OrganizationID,
		Status:         string(record.Status),
		CheckInTime:    record.CheckIn.Format("2006-01-02 15:04:05"),
		TotalBreakTime: timeutil.FormatDuration(record.TotalBreakMinutes),
		BreakCount:     record.BreakCount,
		CheckInNotes:   record.CheckInNotes,
		CheckOutNotes:  record.CheckOutNotes,
		Breaks:         make([]shift.BreakEntryResponse, 0, len(record.Breaks)),
	}

	if record.CheckOut != nil {
		v := record.CheckOut.Format("2006-01-02 15:04:05")
		resp.CheckOutTime = &v
	}
	if record.DurationMinutes != nil {
		v := timeutil.FormatDuration(*record.DurationMinutes)
		resp.Duration = &v
	}

	for _, b := range record.Breaks {
		entry := shift.BreakEntryResponse{
			StartTime: b.StartTime.Format("2006-01-02 15:04:05"),
			Notes:     b.Notes,
		}
		if b.EndTime != nil {
			v := b.EndTime.Format("2006-01-02 15:04:05")
			entry.EndTime = &v
		}
		if b.DurationMinutes != nil {
			v := timeutil.FormatDuration(*b.DurationMinutes)
			entry.Duration = &v
		}
		resp.Breaks = append(resp.Breaks, entry)
	}

	return resp
}

func mapShiftsToResponses(records []shift.Shift) []shift.ShiftResponse {
	responses := make([]shift.ShiftResponse, 0, len(records))
	for _, record := range records {
		responses = append(responses, mapShiftToResponse(record))
	}
	return responses
}
