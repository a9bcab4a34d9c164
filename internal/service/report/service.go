package report

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"sort"
	"time"

	"github.com/opsdesk/attendance-backend-go/internal/config"
	"github.com/opsdesk/attendance-backend-go/internal/domain/metrics"
	"github.com/opsdesk/attendance-backend-go/internal/domain/organization"
	"github.com/opsdesk/attendance-backend-go/internal/domain/report"
	"github.com/opsdesk/attendance-backend-go/internal/domain/schedule"
	"github.com/opsdesk/attendance-backend-go/internal/domain/shift"
	"github.com/opsdesk/attendance-backend-go/internal/domain/user"
	"github.com/opsdesk/attendance-backend-go/internal/pkg/email"
	"github.com/opsdesk/attendance-backend-go/internal/pkg/events"
	"github.com/opsdesk/attendance-backend-go/internal/pkg/timeutil"
	"github.com/opsdesk/attendance-backend-go/internal/pkg/ttlstore"
)

// earlyArrivalLeadMinutes is how far before the official start a
// check-in counts as early rather than on time.
const earlyArrivalLeadMinutes = 15

var reportAccessLevels = []user.AccessLevel{user.AccessOwner, user.AccessAdmin, user.AccessHR}

type ReportServiceImpl struct {
	shiftRepo shift.ShiftRepository
	userRepo  user.UserRepository
	orgRepo   organization.OrganizationRepository
	matcher   schedule.Matcher
	mailer    email.EmailService
	dedup     ttlstore.Store
	publisher events.Publisher
	cfg       config.ReportsConfig

	now func() time.Time
}

func NewReportService(
	shiftRepo shift.ShiftRepository,
	userRepo user.UserRepository,
	orgRepo organization.OrganizationRepository,
	matcher schedule.Matcher,
	mailer email.EmailService,
	dedup ttlstore.Store,
	publisher events.Publisher,
	cfg config.ReportsConfig,
) report.ReportService {
	return &ReportServiceImpl{
		shiftRepo: shiftRepo,
		userRepo:  userRepo,
		orgRepo:   orgRepo,
		matcher:   matcher,
		mailer:    mailer,
		dedup:     dedup,
		publisher: publisher,
		cfg:       cfg,
		now:       time.Now,
	}
}

// RunMorningCycle implements report.ReportService.
func (s *ReportServiceImpl) RunMorningCycle(ctx context.Context) error {
	orgs, err := s.orgRepo.ListActive(ctx)
	if err != nil {
		return fmt.Errorf("failed to list organizations: %w", err)
	}

	for _, org := range orgs {
		if err := s.runMorningForOrg(ctx, org); err != nil {
			slog.Error("Morning report failed", "organization_id", org.ID, "error", err)
		}
	}

	return nil
}

// RunEveningCycle implements report.ReportService.
func (s *ReportServiceImpl) RunEveningCycle(ctx context.Context) error {
	orgs, err := s.orgRepo.ListActive(ctx)
	if err != nil {
		return fmt.Errorf("failed to list organizations: %w", err)
	}

	for _, org := range orgs {
		if err := s.runEveningForOrg(ctx, org); err != nil {
			slog.Error("Evening report failed", "organization_id", org.ID, "error", err)
		}
	}

	return nil
}

func (s *ReportServiceImpl) runMorningForOrg(ctx context.Context, org organization.Organization) error {
	now := s.now().In(s.location(org))

	info, err := s.matcher.GetWorkingDayInfo(ctx, org.ID, now)
	if errors.Is(err, schedule.ErrScheduleNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	if !info.IsWorkingDay || info.StartTime == "" {
		return nil
	}
	if !s.inTriggerWindow(now, info.StartTime) {
		return nil
	}

	key := dedupKey("morning_report", org.ID, now)
	if s.dedup.Has(key) {
		return nil
	}

	body, err := s.buildMorningReport(ctx, org, now, info)
	if err != nil {
		return err
	}
	if err := s.deliverMorning(ctx, org, body); err != nil {
		return err
	}

	s.dedup.Set(key, true, s.cfg.DedupTTL)
	return nil
}

func (s *ReportServiceImpl) runEveningForOrg(ctx context.Context, org organization.Organization) error {
	now := s.now().In(s.location(org))

	info, err := s.matcher.GetWorkingDayInfo(ctx, org.ID, now)
	if errors.Is(err, schedule.ErrScheduleNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	if !info.IsWorkingDay || info.EndTime == "" {
		return nil
	}
	if !s.inTriggerWindow(now, info.EndTime) {
		return nil
	}

	key := dedupKey("evening_report", org.ID, now)
	if s.dedup.Has(key) {
		return nil
	}

	body, err := s.buildEveningReport(ctx, org, now, info)
	if err != nil {
		return err
	}
	if err := s.deliverEvening(ctx, org, body); err != nil {
		return err
	}

	s.dedup.Set(key, true, s.cfg.DedupTTL)
	return nil
}

// SendMorningReport implements report.ReportService. Manual sends skip
// the trigger window but still arm the dedup key so the scheduled run
// does not send a duplicate.
func (s *ReportServiceImpl) SendMorningReport(ctx context.Context, organizationID string, date time.Time) (report.MorningReport, error) {
	org, err := s.orgRepo.GetByID(ctx, organizationID)
	if err != nil {
		return report.MorningReport{}, err
	}

	date = date.In(s.location(org))
	info, err := s.workingDayInfoOrDefault(ctx, org.ID, date)
	if err != nil {
		return report.MorningReport{}, err
	}

	body, err := s.buildMorningReport(ctx, org, date, info)
	if err != nil {
		return report.MorningReport{}, err
	}
	if err := s.deliverMorning(ctx, org, body); err != nil {
		return report.MorningReport{}, err
	}

	s.dedup.Set(dedupKey("morning_report", org.ID, date), true, s.cfg.DedupTTL)
	return body, nil
}

// SendEveningReport implements report.ReportService.
func (s *ReportServiceImpl) SendEveningReport(ctx context.Context, organizationID string, date time.Time) (report.EveningReport, error) {
	org, err := s.orgRepo.GetByID(ctx, organizationID)
	if err != nil {
		return report.EveningReport{}, err
	}

	date = date.In(s.location(org))
	info, err := s.workingDayInfoOrDefault(ctx, org.ID, date)
	if err != nil {
		return report.EveningReport{}, err
	}

	body, err := s.buildEveningReport(ctx, org, date, info)
	if err != nil {
		return report.EveningReport{}, err
	}
	if err := s.deliverEvening(ctx, org, body); err != nil {
		return report.EveningReport{}, err
	}

	s.dedup.Set(dedupKey("evening_report", org.ID, date), true, s.cfg.DedupTTL)
	return body, nil
}

func (s *ReportServiceImpl) buildMorningReport(ctx context.Context, org organization.Organization, date time.Time, info schedule.WorkingDayInfo) (report.MorningReport, error) {
	users, err := s.userRepo.ListByOrganization(ctx, org.ID)
	if err != nil {
		return report.MorningReport{}, fmt.Errorf("failed to list users: %w", err)
	}

	shifts, err := s.shiftRepo.ListByDate(ctx, org.ID, date)
	if err != nil {
		return report.MorningReport{}, fmt.Errorf("failed to list shifts: %w", err)
	}

	active := make(map[string]user.User)
	for _, u := range users {
		if u.IsActive() {
			active[u.ID] = u
		}
	}

	// Earliest check-in per user decides their punctuality for the day.
	firstCheckIn := make(map[string]time.Time)
	for _, record := range shifts {
		if _, ok := active[record.UserID]; !ok {
			continue
		}
		if first, ok := firstCheckIn[record.UserID]; !ok || record.CheckIn.Before(first) {
			firstCheckIn[record.UserID] = record.CheckIn
		}
	}

	body := report.MorningReport{
		OrganizationID:   org.ID,
		OrganizationName: org.Name,
		Date:             date.Format("2006-01-02"),
		StartTime:        info.StartTime,
	}

	present := len(firstCheckIn)
	total := len(active)
	body.Summary = report.AttendanceSummary{
		TotalEmployees: total,
		PresentCount:   present,
		AbsentCount:    total - present,
	}
	if total > 0 {
		body.Summary.AttendanceRate = round1(float64(present) / float64(total) * 100)
	}

	startMinute := schedule.ParseClock(info.StartTime)
	worstLate := 0

	userIDs := make([]string, 0, len(firstCheckIn))
	for id := range firstCheckIn {
		userIDs = append(userIDs, id)
	}
	sort.Strings(userIDs)

	for _, id := range userIDs {
		checkIn := firstCheckIn[id]
		entry := report.ArrivalEntry{
			UserID:      id,
			Name:        active[id].Name,
			CheckInTime: checkIn.Format("15:04"),
		}

		late, err := s.matcher.IsUserLate(ctx, org.ID, checkIn)
		if err != nil {
			return report.MorningReport{}, fmt.Errorf("failed to classify arrival: %w", err)
		}

		switch {
		case late.IsLate:
			entry.LateMinutes = late.LateMinutes
			if late.LateMinutes > worstLate {
				worstLate = late.LateMinutes
			}
			body.Punctuality.LateArrivals = append(body.Punctuality.LateArrivals, entry)
		case startMinute >= 0 && checkIn.Hour()*60+checkIn.Minute() <= startMinute-earlyArrivalLeadMinutes:
			body.Punctuality.EarlyArrivals = append(body.Punctuality.EarlyArrivals, entry)
		default:
			body.Punctuality.OnTimeArrivals = append(body.Punctuality.OnTimeArrivals, entry)
		}
	}

	if present > 0 {
		body.Punctuality.EarlyPercentage = round1(float64(len(body.Punctuality.EarlyArrivals)) / float64(present) * 100)
		body.Punctuality.OnTimePercentage = round1(float64(len(body.Punctuality.OnTimeArrivals)) / float64(present) * 100)
		body.Punctuality.LatePercentage = round1(float64(len(body.Punctuality.LateArrivals)) / float64(present) * 100)
	}

	body.Insights = append(body.Insights,
		fmt.Sprintf("%d of %d employees have checked in (%.1f%%).", present, total, body.Summary.AttendanceRate))
	if late := len(body.Punctuality.LateArrivals); late > 0 {
		body.Insights = append(body.Insights,
			fmt.Sprintf("%d late arrival(s), the latest by %d minutes.", late, worstLate))
	}

	if body.Summary.AttendanceRate < 70 && total > 0 {
		body.Recommendations = append(body.Recommendations,
			"Attendance is below 70%. Follow up with employees who have not checked in.")
	}
	if body.Punctuality.LatePercentage > 25 {
		body.Recommendations = append(body.Recommendations,
			"More than a quarter of arrivals were late. Review start time expectations.")
	}

	return body, nil
}

func (s *ReportServiceImpl) buildEveningReport(ctx context.Context, org organization.Organization, date time.Time, info schedule.WorkingDayInfo) (report.EveningReport, error) {
	users, err := s.userRepo.ListByOrganization(ctx, org.ID)
	if err != nil {
		return report.EveningReport{}, fmt.Errorf("failed to list users: %w", err)
	}

	todayShifts, err := s.shiftRepo.ListByDate(ctx, org.ID, date)
	if err != nil {
		return report.EveningReport{}, fmt.Errorf("failed to list shifts: %w", err)
	}
	yesterdayShifts, err := s.shiftRepo.ListByDate(ctx, org.ID, date.AddDate(0, 0, -1))
	if err != nil {
		return report.EveningReport{}, fmt.Errorf("failed to list shifts: %w", err)
	}

	active := make(map[string]user.User)
	for _, u := range users {
		if u.IsActive() {
			active[u.ID] = u
		}
	}

	expected := info.ExpectedWorkMinutes
	if expected <= 0 {
		expected = metrics.StandardDayMinutes
	}

	type dayAggregate struct {
		firstIn       *time.Time
		lastOut       *time.Time
		workedMinutes int
		completed     int
		open          int
	}

	aggregate := func(records []shift.Shift) map[string]*dayAggregate {
		byUser := make(map[string]*dayAggregate)
		for _, record := range records {
			if _, ok := active[record.UserID]; !ok {
				continue
			}
			agg, ok := byUser[record.UserID]
			if !ok {
				agg = &dayAggregate{}
				byUser[record.UserID] = agg
			}

			in := record.CheckIn
			if agg.firstIn == nil || in.Before(*agg.firstIn) {
				agg.firstIn = &in
			}
			if record.CheckOut != nil {
				out := *record.CheckOut
				if agg.lastOut == nil || out.After(*agg.lastOut) {
					agg.lastOut = &out
				}
			}

			if record.Status == shift.StatusCompleted && record.CheckOut != nil {
				agg.workedMinutes += workedMinutesOf(record, s.now())
				agg.completed++
			} else {
				agg.open++
			}
		}
		return byUser
	}

	today := aggregate(todayShifts)
	yesterday := aggregate(yesterdayShifts)

	body := report.EveningReport{
		OrganizationID:   org.ID,
		OrganizationName: org.Name,
		Date:             date.Format("2006-01-02"),
	}

	totalWorked := 0
	openShifts := 0
	loc := date.Location()

	for id, agg := range today {
		row := report.EmployeeDayRow{
			UserID:      id,
			Name:        active[id].Name,
			HoursWorked: round1(float64(agg.workedMinutes) / 60),
		}
		if agg.firstIn != nil {
			row.TodayCheckIn = clockOf(*agg.firstIn, loc)

			late, err := s.matcher.IsUserLate(ctx, org.ID, *agg.firstIn)
			if err != nil {
				return report.EveningReport{}, fmt.Errorf("failed to classify arrival: %w", err)
			}
			row.LateMinutes = late.LateMinutes
		}
		if agg.lastOut != nil {
			row.TodayCheckOut = clockOf(*agg.lastOut, loc)
		}

		if prev, ok := yesterday[id]; ok {
			if prev.firstIn != nil {
				row.YesterdayCheckIn = clockOf(*prev.firstIn, loc)
			}
			if prev.lastOut != nil {
				row.YesterdayCheckOut = clockOf(*prev.lastOut, loc)
			}
			row.Comparison = compareHours(agg.workedMinutes, prev.workedMinutes)
		} else {
			row.Comparison = "no record yesterday"
		}

		body.Summary.CompletedShifts += agg.completed
		totalWorked += agg.workedMinutes
		openShifts += agg.open
		if overtime := agg.workedMinutes - expected; overtime > 0 {
			body.Summary.TotalOvertimeMinutes += overtime
		}

		body.Employees = append(body.Employees, row)
	}

	sort.Slice(body.Employees, func(i, j int) bool {
		if body.Employees[i].HoursWorked != body.Employees[j].HoursWorked {
			return body.Employees[i].HoursWorked > body.Employees[j].HoursWorked
		}
		return body.Employees[i].Name < body.Employees[j].Name
	})

	if body.Summary.CompletedShifts > 0 {
		body.Summary.AverageHours = round1(float64(totalWorked) / float64(body.Summary.CompletedShifts) / 60)
	}

	if openShifts > 0 {
		body.Insights = append(body.Insights,
			fmt.Sprintf("%d shift(s) are still open and not counted in the totals.", openShifts))
	}
	if body.Summary.TotalOvertimeMinutes > 0 {
		body.Insights = append(body.Insights,
			fmt.Sprintf("%d minutes of overtime were logged today.", body.Summary.TotalOvertimeMinutes))
	}
	if len(body.Employees) == 0 {
		body.Insights = append(body.Insights, "No attendance records were logged today.")
	}

	return body, nil
}

func (s *ReportServiceImpl) deliverMorning(ctx context.Context, org organization.Organization, body report.MorningReport) error {
	recipients, err := s.recipients(ctx, org.ID)
	if err != nil {
		return err
	}
	if err := s.mailer.SendMorningReport(recipients, body); err != nil {
		return err
	}

	s.publisher.Publish(ctx, events.TopicSendEmail, map[string]interface{}{
		"type":       "morning_report",
		"recipients": recipients,
		"template_data": map[string]interface{}{
			"organization_id": org.ID,
			"date":            body.Date,
		},
	})
	s.publisher.Publish(ctx, events.TopicSendNotification, map[string]interface{}{
		"payload": map[string]interface{}{
			"organization_id": org.ID,
			"type":            "morning_report",
			"date":            body.Date,
		},
		"recipient_roles": []string{"OWNER", "ADMIN", "HR"},
	})
	return nil
}

func (s *ReportServiceImpl) deliverEvening(ctx context.Context, org organization.Organization, body report.EveningReport) error {
	recipients, err := s.recipients(ctx, org.ID)
	if err != nil {
		return err
	}
	if err := s.mailer.SendEveningReport(recipients, body); err != nil {
		return err
	}

	s.publisher.Publish(ctx, events.TopicSendEmail, map[string]interface{}{
		"type":       "evening_report",
		"recipients": recipients,
		"template_data": map[string]interface{}{
			"organization_id": org.ID,
			"date":            body.Date,
		},
	})
	s.publisher.Publish(ctx, events.TopicSendNotification, map[string]interface{}{
		"payload": map[string]interface{}{
			"organization_id": org.ID,
			"type":            "evening_report",
			"date":            body.Date,
		},
		"recipient_roles": []string{"OWNER", "ADMIN", "HR"},
	})
	return nil
}

// recipients resolves the de-duplicated email list of active owners,
// admins and HR users.
func (s *ReportServiceImpl) recipients(ctx context.Context, organizationID string) ([]string, error) {
	users, err := s.userRepo.ListActiveByAccessLevels(ctx, organizationID, reportAccessLevels)
	if err != nil {
		return nil, fmt.Errorf("failed to list report recipients: %w", err)
	}

	seen := make(map[string]struct{})
	out := make([]string, 0, len(users))
	for _, u := range users {
		if u.Email == nil || *u.Email == "" {
			continue
		}
		if _, ok := seen[*u.Email]; ok {
			continue
		}
		seen[*u.Email] = struct{}{}
		out = append(out, *u.Email)
	}
	sort.Strings(out)

	return out, nil
}

// inTriggerWindow reports whether now is within the configured window
// around the anchor clock time plus the trigger offset.
func (s *ReportServiceImpl) inTriggerWindow(now time.Time, anchor string) bool {
	base := schedule.ParseClock(anchor)
	if base < 0 {
		return false
	}

	trigger := base + int(s.cfg.TriggerOffset.Minutes())
	nowMinute := now.Hour()*60 + now.Minute()

	diff := nowMinute - trigger
	if diff < 0 {
		diff = -diff
	}
	return diff <= int(s.cfg.TriggerWindow.Minutes())
}

// workingDayInfoOrDefault tolerates a missing schedule on manual sends.
func (s *ReportServiceImpl) workingDayInfoOrDefault(ctx context.Context, organizationID string, date time.Time) (schedule.WorkingDayInfo, error) {
	info, err := s.matcher.GetWorkingDayInfo(ctx, organizationID, date)
	if errors.Is(err, schedule.ErrScheduleNotFound) {
		return schedule.WorkingDayInfo{IsWorkingDay: true}, nil
	}
	if err != nil {
		return schedule.WorkingDayInfo{}, err
	}
	return info, nil
}

func (s *ReportServiceImpl) location(org organization.Organization) *time.Location {
	if org.Timezone == "" {
		return time.UTC
	}
	loc, err := time.LoadLocation(org.Timezone)
	if err != nil {
		slog.Warn("Unknown organization timezone, using UTC", "organization_id", org.ID, "timezone", org.Timezone)
		return time.UTC
	}
	return loc
}

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

func dedupKey(prefix, organizationID string, date time.Time) string {
	return fmt.Sprintf("%s_%s_%s", prefix, organizationID, date.Format("2006-01-02"))
}

func clockOf(t time.Time, loc *time.Location) *string {
	v := t.In(loc).Format("15:04")
	return &v
}

func compareHours(todayMinutes, yesterdayMinutes int) string {
	diff := float64(todayMinutes-yesterdayMinutes) / 60
	switch {
	case diff >= 0.1:
		return fmt.Sprintf("↑ %.1fh more than yesterday", diff)
	case diff <= -0.1:
		return fmt.Sprintf("↓ %.1fh less than yesterday", -diff)
	default:
		return "about the same as yesterday"
	}
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
