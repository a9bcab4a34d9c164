package report

// Daily attendance report bodies. These are the template data for the
// scheduled morning/evening emails and the manual send endpoints.

type AttendanceSummary struct {
	TotalEmployees int     `json:"total_employees"`
	PresentCount   int     `json:"present_count"`
	AbsentCount    int     `json:"absent_count"`
	AttendanceRate float64 `json:"attendance_rate"` // percent
}

type ArrivalEntry struct {
	UserID      string `json:"user_id"`
	Name        string `json:"name"`
	CheckInTime string `json:"check_in_time"` // "HH:MM"
	LateMinutes int    `json:"late_minutes"`
}

type PunctualityBreakdown struct {
	EarlyArrivals    []ArrivalEntry `json:"early_arrivals"`
	OnTimeArrivals   []ArrivalEntry `json:"on_time_arrivals"`
	LateArrivals     []ArrivalEntry `json:"late_arrivals"`
	EarlyPercentage  float64        `json:"early_percentage"`
	OnTimePercentage float64        `json:"on_time_percentage"`
	LatePercentage   float64        `json:"late_percentage"`
}

type MorningReport struct {
	OrganizationID   string               `json:"organization_id"`
	OrganizationName string               `json:"organization_name"`
	Date             string               `json:"date"`
	StartTime        string               `json:"start_time"` // org "HH:MM"
	Summary          AttendanceSummary    `json:"summary"`
	Punctuality      PunctualityBreakdown `json:"punctuality"`
	Insights         []string             `json:"insights"`
	Recommendations  []string             `json:"recommendations"`
}

type EmployeeDayRow struct {
	UserID            string  `json:"user_id"`
	Name              string  `json:"name"`
	TodayCheckIn      *string `json:"today_check_in,omitempty"`  // "HH:MM"
	TodayCheckOut     *string `json:"today_check_out,omitempty"` // "HH:MM"
	YesterdayCheckIn  *string `json:"yesterday_check_in,omitempty"`
	YesterdayCheckOut *string `json:"yesterday_check_out,omitempty"`
	HoursWorked       float64 `json:"hours_worked"`
	LateMinutes       int     `json:"late_minutes"`
	Comparison        string  `json:"comparison"` // e.g. "↑ 1.5h more than yesterday"
}

type EveningSummary struct {
	CompletedShifts      int     `json:"completed_shifts"`
	AverageHours         float64 `json:"average_hours"`
	TotalOvertimeMinutes int     `json:"total_overtime_minutes"`
}

type EveningReport struct {
	OrganizationID   string           `json:"organization_id"`
	OrganizationName string           `json:"organization_name"`
	Date             string           `json:"date"`
	Employees        []EmployeeDayRow `json:"employees"` // sorted by hours desc
	Summary          EveningSummary   `json:"summary"`
	Insights         []string         `json:"insights"`
}
