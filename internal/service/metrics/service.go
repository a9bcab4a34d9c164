package metrics

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/go-chi/jwtauth/v5"
	"github.com/opsdesk/attendance-backend-go/internal/domain/metrics"
	"github.com/opsdesk/attendance-backend-go/internal/domain/shift"
	"github.com/opsdesk/attendance-backend-go/internal/domain/user"
	"github.com/opsdesk/attendance-backend-go/internal/pkg/timeutil"
	"github.com/opsdesk/attendance-backend-go/internal/pkg/ttlstore"
	"github.com/opsdesk/attendance-backend-go/internal/pkg/validator"
)

type MetricsServiceImpl struct {
	shiftRepo shift.ShiftRepository
	userRepo  user.UserRepository
	cache     ttlstore.Store
	cacheTTL  time.Duration

	now func() time.Time
}

func NewMetricsService(shiftRepo shift.ShiftRepository, userRepo user.UserRepository, cache ttlstore.Store, cacheTTL time.Duration) metrics.MetricsService {
	return &MetricsServiceImpl{
		shiftRepo: shiftRepo,
		userRepo:  userRepo,
		cache:     cache,
		cacheTTL:  cacheTTL,
		now:       time.Now,
	}
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

func minutesToClock(minuteOfDay int) string {
	return fmt.Sprintf("%02d:%02d", minuteOfDay/60, minuteOfDay%60)
}

// workedMinutesOf returns the net worked minutes of a completed shift.
// The stored duration is authoritative; recompute only when absent.
func workedMinutesOf(s shift.Shift, now time.Time) int {
	if s.DurationMinutes != nil {
		return *s.DurationMinutes
	}
	intervals := make([]timeutil.BreakInterval, 0, len(s.Breaks))
	for _, b := range s.Breaks {
		intervals = append(intervals, timeutil.BreakInterval{Start: b.StartTime, End: b.EndTime})
	}
	return timeutil.WorkedMinutes(s.CheckIn, s.CheckOut, now, intervals)
}

func sameDay(a, b time.Time) bool {
	y1, m1, d1 := a.Date()
	y2, m2, d2 := b.Date()
	return y1 == y2 && m1 == m2 && d1 == d2
}

// zeroUserMetrics is the canonical result for a user with no records.
func zeroUserMetrics(userID string) metrics.UserMetrics {
	return metrics.UserMetrics{
		UserID: userID,
		Timing: metrics.TimingPatterns{
			AverageCheckInTime:  "00:00",
			AverageCheckOutTime: "00:00",
		},
	}
}

// UserMetrics implements metrics.MetricsService.
func (s *MetricsServiceImpl) UserMetrics(ctx context.Context, userID string) (metrics.UserMetrics, error) {
	records, err := s.shiftRepo.ListByUser(ctx, userID, nil, nil)
	if err != nil {
		return zeroUserMetrics(userID), fmt.Errorf("failed to list shifts for metrics: %w", err)
	}

	return s.computeUserMetrics(userID, records), nil
}

func (s *MetricsServiceImpl) computeUserMetrics(userID string, records []shift.Shift) metrics.UserMetrics {
	if len(records) == 0 {
		return zeroUserMetrics(userID)
	}

	now := s.now()
	result := zeroUserMetrics(userID)

	dayStart := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	weekOffset := (int(now.Weekday()) + 6) % 7 // Monday start
	weekStart := dayStart.AddDate(0, 0, -weekOffset)
	monthStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())

	var (
		firstCheckIn     = records[0].CheckIn
		completedCount   int
		totalWorked      int
		totalBreak       int
		totalBreakCount  int
		checkInMinutes   int
		checkOutMinutes  int
		checkOutSamples  int
		punctualCount    int
		overtimeCount    int
		lateArrivals     int
		earlyDepartures  int
		longestBreakMin  int
		shortestBreakMin = -1
	)

	addPeriod := func(totals *metrics.PeriodTotals, worked int) {
		totals.WorkedHours = round2(totals.WorkedHours + float64(worked)/60)
		totals.ShiftCount++
	}

	for _, record := range records {
		if record.CheckIn.Before(firstCheckIn) {
			firstCheckIn = record.CheckIn
		}

		inMinute := record.CheckIn.Hour()*60 + record.CheckIn.Minute()
		checkInMinutes += inMinute
		if inMinute <= metrics.ReferenceCheckInMinute {
			punctualCount++
		} else {
			lateArrivals++
		}

		totalBreakCount += record.BreakCount
		for _, b := range record.Breaks {
			if b.DurationMinutes == nil {
				continue
			}
			if *b.DurationMinutes > longestBreakMin {
				longestBreakMin = *b.DurationMinutes
			}
			if shortestBreakMin < 0 || *b.DurationMinutes < shortestBreakMin {
				shortestBreakMin = *b.DurationMinutes
			}
		}

		if record.Status != shift.StatusCompleted || record.CheckOut == nil {
			continue
		}

		worked := workedMinutesOf(record, now)
		completedCount++
		totalWorked += worked
		totalBreak += record.TotalBreakMinutes

		outMinute := record.CheckOut.Hour()*60 + record.CheckOut.Minute()
		checkOutMinutes += outMinute
		checkOutSamples++
		if outMinute < metrics.EarlyDepartureMinute {
			earlyDepartures++
		}
		if worked > metrics.StandardDayMinutes {
			overtimeCount++
		}

		addPeriod(&result.AllTime, worked)
		if !record.CheckIn.Before(dayStart) {
			addPeriod(&result.Today, worked)
		}
		if !record.CheckIn.Before(weekStart) {
			addPeriod(&result.ThisWeek, worked)
		}
		if !record.CheckIn.Before(monthStart) {
			addPeriod(&result.ThisMonth, worked)
		}
	}

	daysSinceFirst := int(dayStart.Sub(firstCheckIn).Hours()/24) + 1
	if daysSinceFirst < 1 {
		daysSinceFirst = 1
	}
	result.AverageHoursPerDay = round2(result.AllTime.WorkedHours / float64(daysSinceFirst))

	// Attendance streak: walk backward day by day; a gap today does not
	// break a streak that is still running from yesterday.
	for i := 0; i < metrics.StreakScanDays; i++ {
		day := dayStart.AddDate(0, 0, -i)
		found := false
		for _, record := range records {
			if sameDay(record.CheckIn, day) {
				found = true
				break
			}
		}
		if found {
			result.AttendanceStreakDays++
		} else if i > 0 {
			break
		}
	}

	if shortestBreakMin < 0 {
		shortestBreakMin = 0
	}
	result.Breaks = metrics.BreakAnalytics{
		AverageBreaksPerShift: round2(float64(totalBreakCount) / float64(len(records))),
		LongestBreakMinutes:   longestBreakMin,
		ShortestBreakMinutes:  shortestBreakMin,
	}
	if completedCount > 0 {
		result.Breaks.AverageBreakMinutes = round2(float64(totalBreak) / float64(completedCount))
	}

	result.Timing = metrics.TimingPatterns{
		AverageCheckInTime:  minutesToClock(checkInMinutes / len(records)),
		AverageCheckOutTime: "00:00",
		PunctualityScore:    round2(float64(punctualCount) / float64(len(records)) * 100),
	}
	if checkOutSamples > 0 {
		result.Timing.AverageCheckOutTime = minutesToClock(checkOutMinutes / checkOutSamples)
	}
	if completedCount > 0 {
		result.Timing.OvertimeFrequency = round2(float64(overtimeCount) / float64(completedCount) * 100)
	}

	result.Productivity = metrics.ProductivityInsights{
		ShiftCompletionRate: round2(float64(completedCount) / float64(len(records)) * 100),
		LateArrivals:        lateArrivals,
		EarlyDepartures:     earlyDepartures,
	}
	if totalWorked+totalBreak > 0 {
		result.Productivity.WorkEfficiency = round2(float64(totalWorked) / float64(totalWorked+totalBreak) * 100)
	}

	return result
}

// zeroOrgReport is the canonical degraded org rollup.
func zeroOrgReport(organizationID string, req metrics.OrgReportRequest, generatedAt time.Time) metrics.OrganizationReport {
	return metrics.OrganizationReport{
		OrganizationID:   organizationID,
		DateFrom:         req.DateFrom,
		DateTo:           req.DateTo,
		AverageStartTime: "00:00",
		AverageEndTime:   "00:00",
		ByBranch:         map[string]metrics.GroupBreakdown{},
		ByRole:           map[string]metrics.GroupBreakdown{},
		GeneratedAt:      generatedAt.Format(time.RFC3339),
	}
}

func orgReportCacheKey(organizationID string, req metrics.OrgReportRequest) string {
	branch, role := "", ""
	if req.BranchID != nil {
		branch = *req.BranchID
	}
	if req.Role != nil {
		role = *req.Role
	}
	return strings.Join([]string{
		"org_report", organizationID, req.DateFrom, req.DateTo, branch, role,
		fmt.Sprintf("%t", req.IncludeUserDetails),
	}, "_")
}

// OrganizationReport implements metrics.MetricsService.
func (s *MetricsServiceImpl) OrganizationReport(ctx context.Context, req metrics.OrgReportRequest) (metrics.OrganizationReport, error) {
	if err := req.Validate(); err != nil {
		return metrics.OrganizationReport{}, err
	}

	_, claims, err := jwtauth.FromContext(ctx)
	if err != nil {
		return metrics.OrganizationReport{}, fmt.Errorf("failed to extract claims from context: %w", err)
	}
	organizationID, ok := claims["organization_id"].(string)
	if !ok || organizationID == "" {
		return metrics.OrganizationReport{}, fmt.Errorf("organization_id claim is missing or invalid")
	}

	key := orgReportCacheKey(organizationID, req)
	if cached, ok := s.cache.Get(key); ok {
		if report, ok := cached.(metrics.OrganizationReport); ok {
			return report, nil
		}
	}

	from, _ := validator.ParseDate(req.DateFrom)
	to, _ := validator.ParseDate(req.DateTo)
	to = to.AddDate(0, 0, 1).Add(-time.Second)

	report := s.buildOrgReport(ctx, organizationID, req, from, to)
	s.cache.Set(key, report, s.cacheTTL)

	return report, nil
}

// buildOrgReport never fails: any rollup error degrades to the zero
// report, logged.
func (s *MetricsServiceImpl) buildOrgReport(ctx context.Context, organizationID string, req metrics.OrgReportRequest, from, to time.Time) (report metrics.OrganizationReport) {
	now := s.now()

	defer func() {
		if r := recover(); r != nil {
			slog.Error("Organization report rollup failed", "organization_id", organizationID, "panic", r)
			report = zeroOrgReport(organizationID, req, now)
		}
	}()

	users, err := s.userRepo.ListByFilter(ctx, user.Filter{
		OrganizationID: organizationID,
		BranchID:       req.BranchID,
		Role:           req.Role,
	})
	if err != nil {
		slog.Error("Organization report user lookup failed", "organization_id", organizationID, "error", err)
		return zeroOrgReport(organizationID, req, now)
	}

	allRecords, err := s.shiftRepo.ListByOrganizationRange(ctx, organizationID, from, to)
	if err != nil {
		slog.Error("Organization report shift lookup failed", "organization_id", organizationID, "error", err)
		return zeroOrgReport(organizationID, req, now)
	}

	userSet := make(map[string]user.User, len(users))
	for _, u := range users {
		userSet[u.ID] = u
	}

	// Keep only records of users matching the filter tuple.
	records := allRecords[:0]
	for _, record := range allRecords {
		if _, ok := userSet[record.UserID]; ok {
			records = append(records, record)
		}
	}

	report = zeroOrgReport(organizationID, req, now)

	if len(records) == 0 {
		return report
	}

	var (
		startMinutes, endMinutes    int
		endSamples                  int
		totalWorked, totalBreak     int
		completedCount              int
		punctualCount               int
		checkInHours, checkOutHours [24]int
		branchHours                 = map[string]int{}
		branchMembers               = map[string]map[string]struct{}{}
		roleHours                   = map[string]int{}
		roleMembers                 = map[string]map[string]struct{}{}
	)

	for _, record := range records {
		inMinute := record.CheckIn.Hour()*60 + record.CheckIn.Minute()
		startMinutes += inMinute
		checkInHours[record.CheckIn.Hour()]++
		if inMinute <= metrics.ReferenceCheckInMinute {
			punctualCount++
		}

		owner := userSet[record.UserID]
		branchKey := record.BranchID
		roleKey := "unassigned"
		if owner.Role != nil {
			roleKey = *owner.Role
		}

		if branchMembers[branchKey] == nil {
			branchMembers[branchKey] = map[string]struct{}{}
		}
		branchMembers[branchKey][record.UserID] = struct{}{}
		if roleMembers[roleKey] == nil {
			roleMembers[roleKey] = map[string]struct{}{}
		}
		roleMembers[roleKey][record.UserID] = struct{}{}

		if record.Status != shift.StatusCompleted || record.CheckOut == nil {
			continue
		}

		worked := workedMinutesOf(record, now)
		completedCount++
		totalWorked += worked
		totalBreak += record.TotalBreakMinutes
		endMinutes += record.CheckOut.Hour()*60 + record.CheckOut.Minute()
		endSamples++
		checkOutHours[record.CheckOut.Hour()]++
		if worked > metrics.StandardDayMinutes {
			report.TotalOvertimeShifts++
		}

		branchHours[branchKey] += worked
		roleHours[roleKey] += worked
	}

	report.TotalShifts = len(records)
	report.TotalHours = round2(float64(totalWorked) / 60)
	report.AverageStartTime = minutesToClock(startMinutes / len(records))
	if endSamples > 0 {
		report.AverageEndTime = minutesToClock(endMinutes / endSamples)
	}
	if completedCount > 0 {
		report.AverageShiftMinutes = round2(float64(totalWorked) / float64(completedCount))
		report.AverageBreakMinutes = round2(float64(totalBreak) / float64(completedCount))
	}

	for branchKey, members := range branchMembers {
		hours := round2(float64(branchHours[branchKey]) / 60)
		report.ByBranch[branchKey] = metrics.GroupBreakdown{
			Count:                   len(members),
			TotalHours:              hours,
			AverageHoursPerEmployee: round2(hours / float64(len(members))),
		}
	}
	for roleKey, members := range roleMembers {
		hours := round2(float64(roleHours[roleKey]) / 60)
		report.ByRole[roleKey] = metrics.GroupBreakdown{
			Count:                   len(members),
			TotalHours:              hours,
			AverageHoursPerEmployee: round2(hours / float64(len(members))),
		}
	}

	daysInRange := int(to.Sub(from).Hours()/24) + 1
	if daysInRange < 1 {
		daysInRange = 1
	}
	report.Insights = metrics.OrgInsights{
		PunctualityRate:    round2(float64(punctualCount) / float64(len(records)) * 100),
		AverageHoursPerDay: round2(report.TotalHours / float64(daysInRange)),
		PeakCheckInHour:    peakHour(checkInHours),
		PeakCheckOutHour:   peakHour(checkOutHours),
	}

	if req.IncludeUserDetails {
		byUser := make(map[string][]shift.Shift)
		for _, record := range records {
			byUser[record.UserID] = append(byUser[record.UserID], record)
		}

		userIDs := make([]string, 0, len(byUser))
		for id := range byUser {
			userIDs = append(userIDs, id)
		}
		sort.Strings(userIDs)

		for _, id := range userIDs {
			report.UserDetails = append(report.UserDetails, s.computeUserMetrics(id, byUser[id]))
		}
	}

	return report
}

func peakHour(histogram [24]int) int {
	peak, best := 0, 0
	for hour, count := range histogram {
		if count > best {
			best = count
			peak = hour
		}
	}
	return peak
}
