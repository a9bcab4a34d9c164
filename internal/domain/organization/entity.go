package organization

import "time"

// Organization is tenant reference data. Deleted organizations are
// skipped by the report scheduler.
type Organization struct {
	ID        string
	Name      string
	Timezone  string
	DeletedAt *time.Time
	CreatedAt time.Time
	UpdatedAt time.Time
}

type Branch struct {
	ID             string
	OrganizationID string
	Name           string
}
