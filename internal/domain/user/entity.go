package user

import "time"

// AccessLevel mirrors the organization's role hierarchy. The engine
// only reads it; user management lives elsewhere.
type AccessLevel string

const (
	AccessOwner    AccessLevel = "OWNER"
	AccessAdmin    AccessLevel = "ADMIN"
	AccessHR       AccessLevel = "HR"
	AccessEmployee AccessLevel = "EMPLOYEE"
)

type Status string

const (
	StatusActive   Status = "ACTIVE"
	StatusInactive Status = "INACTIVE"
)

// User is reference data owned by the core HR system; the attendance
// engine reads it for metrics grouping and report recipients.
type User struct {
	ID             string
	Name           string
	Email          *string
	AccessLevel    AccessLevel
	Status         Status
	Role           *string
	BranchID       *string
	OrganizationID string
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// IsActive reports whether the user currently counts toward attendance.
func (u *User) IsActive() bool {
	return u.Status == StatusActive
}

// CanReceiveReports reports whether the user's access level qualifies
// for scheduled attendance reports.
func (u *User) CanReceiveReports() bool {
	switch u.AccessLevel {
	case AccessOwner, AccessAdmin, AccessHR:
		return true
	}
	return false
}
