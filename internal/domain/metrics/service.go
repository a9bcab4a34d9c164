package metrics

import "context"

// MetricsService computes historical attendance analytics.
type MetricsService interface {
	// UserMetrics scans every record for the user and aggregates the
	// period totals, streak, break/timing/productivity analytics
	UserMetrics(ctx context.Context, userID string) (UserMetrics, error)

	// OrganizationReport computes org-level rollups for a date range,
	// cached for a short TTL keyed on the full filter tuple
	OrganizationReport(ctx context.Context, req OrgReportRequest) (OrganizationReport, error)
}
