package report

import (
	"context"
	"time"
)

// ReportService builds and delivers the scheduled attendance reports.
// The cron scheduler drives the Run*Cycle methods; the manual send
// endpoints call Send*Report directly, bypassing the trigger window.
type ReportService interface {
	// RunMorningCycle scans all active organizations and sends the
	// morning report to those inside their trigger window. Per-org
	// failures are logged, never returned.
	RunMorningCycle(ctx context.Context) error

	// RunEveningCycle does the same for the evening report.
	RunEveningCycle(ctx context.Context) error

	SendMorningReport(ctx context.Context, organizationID string, date time.Time) (MorningReport, error)
	SendEveningReport(ctx context.Context, organizationID string, date time.Time) (EveningReport, error)
}
