package shift

import (
	"time"
)

// Shift is one attendance record spanning check-in to check-out. All
// durations are whole minutes; formatted strings exist only at the API
// boundary.
type Shift struct {
	ID             string
	UserID         string
	BranchID       string
	OrganizationID string

	Status   Status
	CheckIn  time.Time
	CheckOut *time.Time

	// DurationMinutes is set once on checkout and never changes.
	DurationMinutes *int

	CheckInLatitude   *float64
	CheckInLongitude  *float64
	CheckInNotes      *string
	CheckOutLatitude  *float64
	CheckOutLongitude *float64
	CheckOutNotes     *string

	// BreakStart/BreakEnd mirror the boundaries of the most recent
	// break for quick access; Breaks holds the full history.
	BreakStart        *time.Time
	BreakEnd          *time.Time
	TotalBreakMinutes int
	BreakCount        int
	Breaks            []BreakEntry

	// Verification is owned by an external workflow.
	VerifiedAt *time.Time
	VerifiedBy *string

	CreatedAt time.Time
	UpdatedAt time.Time
}

// BreakEntry is one start/end interval nested within a shift. EndTime
// and DurationMinutes stay nil while the break is open.
type BreakEntry struct {
	StartTime       time.Time  `json:"start_time"`
	EndTime         *time.Time `json:"end_time,omitempty"`
	DurationMinutes *int       `json:"duration_minutes,omitempty"`
	Latitude        *float64   `json:"latitude,omitempty"`
	Longitude       *float64   `json:"longitude,omitempty"`
	Notes           *string    `json:"notes,omitempty"`
}

// OpenBreak returns the index of the unfinished break entry, or -1.
func (s *Shift) OpenBreak() int {
	for i := len(s.Breaks) - 1; i >= 0; i-- {
		if s.Breaks[i].EndTime == nil {
			return i
		}
	}
	return -1
}
