package shift

import (
	"github.com/opsdesk/attendance-backend-go/internal/pkg/validator"
)

// ========================================
// SHIFT DTOs
// ========================================

type CheckInRequest struct {
	Latitude  *float64 `json:"latitude,omitempty"`
	Longitude *float64 `json:"longitude,omitempty"`
	Notes     *string  `json:"notes,omitempty"`
}

func (r *CheckInRequest) Validate() error {
	var errs validator.ValidationErrors

	if r.Latitude != nil && (*r.Latitude < -90 || *r.Latitude > 90) {
		errs = append(errs, validator.ValidationError{
			Field:   "latitude",
			Message: "latitude must be between -90 and 90",
		})
	}

	if r.Longitude != nil && (*r.Longitude < -180 || *r.Longitude > 180) {
		errs = append(errs, validator.ValidationError{
			Field:   "longitude",
			Message: "longitude must be between -180 and 180",
		})
	}

	if len(errs) > 0 {
		return errs
	}

	return nil
}

type CheckOutRequest struct {
	Latitude  *float64 `json:"latitude,omitempty"`
	Longitude *float64 `json:"longitude,omitempty"`
	Notes     *string  `json:"notes,omitempty"`
}

func (r *CheckOutRequest) Validate() error {
	var errs validator.ValidationErrors

	if r.Latitude != nil && (*r.Latitude < -90 || *r.Latitude > 90) {
		errs = append(errs, validator.ValidationError{
			Field:   "latitude",
			Message: "latitude must be between -90 and 90",
		})
	}

	if r.Longitude != nil && (*r.Longitude < -180 || *r.Longitude > 180) {
		errs = append(errs, validator.ValidationError{
			Field:   "longitude",
			Message: "longitude must be between -180 and 180",
		})
	}

	if len(errs) > 0 {
		return errs
	}

	return nil
}

type BreakRequest struct {
	Latitude  *float64 `json:"latitude,omitempty"`
	Longitude *float64 `json:"longitude,omitempty"`
	Notes     *string  `json:"notes,omitempty"`
}

type BreakEntryResponse struct {
	StartTime string  `json:"start_time"`
	EndTime   *string `json:"end_time,omitempty"`
	Duration  *string `json:"duration,omitempty"`
	Notes     *string `json:"notes,omitempty"`
}

type ShiftResponse struct {
	ID             string               `json:"id"`
	UserID         string               `json:"user_id"`
	BranchID       string               `json:"branch_id"`
	OrganizationID string               `json:"organization_id"`
	Status         string               `json:"status"`
	CheckInTime    string               `json:"check_in_time"`
	CheckOutTime   *string              `json:"check_out_time,omitempty"`
	Duration       *string              `json:"duration,omitempty"`
	TotalBreakTime string               `json:"total_break_time"`
	BreakCount     int                  `json:"break_count"`
	Breaks         []BreakEntryResponse `json:"break_details"`
	CheckInNotes   *string              `json:"check_in_notes,omitempty"`
	CheckOutNotes  *string              `json:"check_out_notes,omitempty"`
}

type CheckOutResponse struct {
	Shift    ShiftResponse `json:"shift"`
	Duration string        `json:"duration"`
}

// DailyStatsResponse reports one user's day in milliseconds, matching
// the consumer contract of the daily-stats endpoint.
type DailyStatsResponse struct {
	UserID         string `json:"user_id"`
	Date           string `json:"date"`
	DailyWorkTime  int64  `json:"daily_work_time"`
	DailyBreakTime int64  `json:"daily_break_time"`
	ShiftCount     int    `json:"shift_count"`
}
