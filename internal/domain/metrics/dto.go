package metrics

import (
	"github.com/opsdesk/attendance-backend-go/internal/pkg/validator"
)

// Fixed analytics thresholds. These mirror the organization-wide
// defaults the dashboards were built around; per-org thresholds are a
// schedule.Matcher concern, not a metrics one.
const (
	// ReferenceCheckInMinute is 09:00 as minutes since midnight;
	// check-ins at or before it count as punctual.
	ReferenceCheckInMinute = 9 * 60

	// StandardDayMinutes is the 8h day used for overtime frequency.
	StandardDayMinutes = 8 * 60

	// EarlyDepartureMinute is 17:00; completed checkouts before it
	// count as early departures.
	EarlyDepartureMinute = 17 * 60

	// StreakScanDays bounds the backward streak scan.
	StreakScanDays = 30
)

type PeriodTotals struct {
	WorkedHours float64 `json:"worked_hours"`
	ShiftCount  int     `json:"shift_count"`
}

type BreakAnalytics struct {
	AverageBreakMinutes   float64 `json:"average_break_minutes"`
	AverageBreaksPerShift float64 `json:"average_breaks_per_shift"`
	LongestBreakMinutes   int     `json:"longest_break_minutes"`
	ShortestBreakMinutes  int     `json:"shortest_break_minutes"`
}

type TimingPatterns struct {
	AverageCheckInTime  string  `json:"average_check_in_time"`  // "HH:MM"
	AverageCheckOutTime string  `json:"average_check_out_time"` // "HH:MM"
	PunctualityScore    float64 `json:"punctuality_score"`      // percent
	OvertimeFrequency   float64 `json:"overtime_frequency"`     // percent
}

type ProductivityInsights struct {
	WorkEfficiency      float64 `json:"work_efficiency"`       // percent
	ShiftCompletionRate float64 `json:"shift_completion_rate"` // percent
	LateArrivals        int     `json:"late_arrivals"`
	EarlyDepartures     int     `json:"early_departures"`
}

// UserMetrics is the full per-user analytics object. A user with no
// records gets the canonical zero value of this struct (with the
// average time fields set to "00:00"), never an error.
type UserMetrics struct {
	UserID               string               `json:"user_id"`
	Today                PeriodTotals         `json:"today"`
	ThisWeek             PeriodTotals         `json:"this_week"`
	ThisMonth            PeriodTotals         `json:"this_month"`
	AllTime              PeriodTotals         `json:"all_time"`
	AverageHoursPerDay   float64              `json:"average_hours_per_day"`
	AttendanceStreakDays int                  `json:"attendance_streak_days"`
	Breaks               BreakAnalytics       `json:"breaks"`
	Timing               TimingPatterns       `json:"timing"`
	Productivity         ProductivityInsights `json:"productivity"`
}

// ========================================
// ORGANIZATION REPORT DTOs
// ========================================

type OrgReportRequest struct {
	DateFrom           string  `json:"date_from"`
	DateTo             string  `json:"date_to"`
	BranchID           *string `json:"branch_id,omitempty"`
	Role               *string `json:"role,omitempty"`
	IncludeUserDetails bool    `json:"include_user_details"`
}

func (r *OrgReportRequest) Validate() error {
	var errs validator.ValidationErrors

	if validator.IsEmpty(r.DateFrom) {
		errs = append(errs, validator.ValidationError{
			Field:   "date_from",
			Message: "date_from is required",
		})
	} else if !validator.IsValidDate(r.DateFrom) {
		errs = append(errs, validator.ValidationError{
			Field:   "date_from",
			Message: "date_from must be YYYY-MM-DD",
		})
	}

	if validator.IsEmpty(r.DateTo) {
		errs = append(errs, validator.ValidationError{
			Field:   "date_to",
			Message: "date_to is required",
		})
	} else if !validator.IsValidDate(r.DateTo) {
		errs = append(errs, validator.ValidationError{
			Field:   "date_to",
			Message: "date_to must be YYYY-MM-DD",
		})
	}

	if len(errs) > 0 {
		return errs
	}

	return nil
}

type GroupBreakdown struct {
	Count                   int     `json:"count"`
	TotalHours              float64 `json:"total_hours"`
	AverageHoursPerEmployee float64 `json:"average_hours_per_employee"`
}

type OrgInsights struct {
	PunctualityRate    float64 `json:"punctuality_rate"`
	AverageHoursPerDay float64 `json:"average_hours_per_day"`
	PeakCheckInHour    int     `json:"peak_check_in_hour"`
	PeakCheckOutHour   int     `json:"peak_check_out_hour"`
}

// OrganizationReport is the org-level rollup. Rollup failures degrade
// to the zero value of this struct rather than propagating.
type OrganizationReport struct {
	OrganizationID      string                    `json:"organization_id"`
	DateFrom            string                    `json:"date_from"`
	DateTo              string                    `json:"date_to"`
	AverageStartTime    string                    `json:"average_start_time"` // "HH:MM"
	AverageEndTime      string                    `json:"average_end_time"`   // "HH:MM"
	AverageShiftMinutes float64                   `json:"average_shift_minutes"`
	AverageBreakMinutes float64                   `json:"average_break_minutes"`
	TotalHours          float64                   `json:"total_hours"`
	TotalShifts         int                       `json:"total_shifts"`
	TotalOvertimeShifts int                       `json:"total_overtime_shifts"`
	ByBranch            map[string]GroupBreakdown `json:"by_branch"`
	ByRole              map[string]GroupBreakdown `json:"by_role"`
	Insights            OrgInsights               `json:"insights"`
	UserDetails         []UserMetrics             `json:"user_details,omitempty"`
	GeneratedAt         string                    `json:"generated_at"`
}
