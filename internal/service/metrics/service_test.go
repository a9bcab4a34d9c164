package metrics

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/go-chi/jwtauth/v5"
	"github.com/lestrrat-go/jwx/v2/jwt"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/opsdesk/attendance-backend-go/internal/domain/metrics"
	"github.com/opsdesk/attendance-backend-go/internal/domain/shift"
	"github.com/opsdesk/attendance-backend-go/internal/domain/user"
	"github.com/opsdesk/attendance-backend-go/internal/pkg/ttlstore"
)

type stubShiftRepo struct {
	shifts    []shift.Shift
	err       error
	listCalls int
}

func (f *stubShiftRepo) Create(ctx context.Context, s shift.Shift) (shift.Shift, error) {
	return s, nil
}
func (f *stubShiftRepo) Update(ctx context.Context, s shift.Shift) error { return nil }
func (f *stubShiftRepo) GetByID(ctx context.Context, id, orgID string) (shift.Shift, error) {
	return shift.Shift{}, shift.ErrShiftNotFound
}
func (f *stubShiftRepo) GetOpenShift(ctx context.Context, userID string) (shift.Shift, error) {
	return shift.Shift{}, shift.ErrNoOpenShift
}
func (f *stubShiftRepo) GetLatestForUser(ctx context.Context, userID string) (shift.Shift, error) {
	return shift.Shift{}, shift.ErrShiftNotFound
}

func (f *stubShiftRepo) ListByUser(ctx context.Context, userID string, from, to *time.Time) ([]shift.Shift, error) {
	if f.err != nil {
		return nil, f.err
	}
	var out []shift.Shift
	for _, s := range f.shifts {
		if s.UserID == userID {
			out = append(out, s)
		}
	}
	return out, nil
}

func (f *stubShiftRepo) ListByDate(ctx context.Context, orgID string, date time.Time) ([]shift.Shift, error) {
	return nil, nil
}

func (f *stubShiftRepo) ListByBranch(ctx context.Context, branchID, orgID string) ([]shift.Shift, error) {
	return nil, nil
}

func (f *stubShiftRepo) ListByOrganizationRange(ctx context.Context, orgID string, from, to time.Time) ([]shift.Shift, error) {
	f.listCalls++
	if f.err != nil {
		return nil, f.err
	}
	return f.shifts, nil
}

type stubUserRepo struct {
	users []user.User
}

func (f *stubUserRepo) GetByID(ctx context.Context, id string) (user.User, error) {
	return user.User{}, user.ErrUserNotFound
}
func (f *stubUserRepo) ListByOrganization(ctx context.Context, orgID string) ([]user.User, error) {
	return f.users, nil
}
func (f *stubUserRepo) ListByFilter(ctx context.Context, filter user.Filter) ([]user.User, error) {
	return f.users, nil
}
func (f *stubUserRepo) ListActiveByAccessLevels(ctx context.Context, orgID string, levels []user.AccessLevel) ([]user.User, error) {
	return nil, nil
}

func orgContext(t *testing.T, orgID string) context.Context {
	t.Helper()
	tok := jwt.New()
	require.NoError(t, tok.Set("user_id", "caller"))
	require.NoError(t, tok.Set("organization_id", orgID))
	return jwtauth.NewContext(context.Background(), tok, nil)
}

func newService(t *testing.T, shiftRepo *stubShiftRepo, userRepo *stubUserRepo, fixedNow time.Time) *MetricsServiceImpl {
	t.Helper()
	cache := ttlstore.NewMemoryStore(time.Minute)
	t.Cleanup(cache.Stop)
	return &MetricsServiceImpl{
		shiftRepo: shiftRepo,
		userRepo:  userRepo,
		cache:     cache,
		cacheTTL:  5 * time.Minute,
		now:       func() time.Time { return fixedNow },
	}
}

func completedShift(userID, branchID string, checkIn time.Time, workedMinutes, breakMinutes int) shift.Shift {
	out := checkIn.Add(time.Duration(workedMinutes+breakMinutes) * time.Minute)
	return shift.Shift{
		ID:                userID + checkIn.Format("20060102"),
		UserID:            userID,
		BranchID:          branchID,
		OrganizationID:    "org-1",
		Status:            shift.StatusCompleted,
		CheckIn:           checkIn,
		CheckOut:          &out,
		DurationMinutes:   &workedMinutes,
		TotalBreakMinutes: breakMinutes,
	}
}

func TestUserMetrics_NoRecords(t *testing.T) {
	svc := newService(t, &stubShiftRepo{}, &stubUserRepo{}, time.Date(2025, 6, 2, 12, 0, 0, 0, time.UTC))

	got, err := svc.UserMetrics(context.Background(), "user-1")
	require.NoError(t, err)

	assert.Equal(t, "user-1", got.UserID)
	assert.Equal(t, 0.0, got.AllTime.WorkedHours)
	assert.Equal(t, 0, got.AllTime.ShiftCount)
	assert.Equal(t, 0, got.AttendanceStreakDays)
	assert.Equal(t, "00:00", got.Timing.AverageCheckInTime)
	assert.Equal(t, "00:00", got.Timing.AverageCheckOutTime)
	assert.False(t, got.AverageHoursPerDay != got.AverageHoursPerDay, "must not be NaN")
}

func TestUserMetrics_PeriodsAndTiming(t *testing.T) {
	// Monday 2025-06-02, noon.
	now := time.Date(2025, 6, 2, 12, 0, 0, 0, time.UTC)
	day := func(offset, hh, mm int) time.Time {
		return time.Date(2025, 6, 2+offset, hh, mm, 0, 0, time.UTC)
	}

	repo := &stubShiftRepo{shifts: []shift.Shift{
		completedShift("user-1", "branch-1", day(0, 9, 0), 450, 30),  // today, punctual
		completedShift("user-1", "branch-1", day(-1, 10, 0), 540, 0), // Sunday, late, overtime
		completedShift("user-1", "branch-1", day(-2, 8, 0), 480, 60), // Saturday
	}}
	svc := newService(t, repo, &stubUserRepo{}, now)

	got, err := svc.UserMetrics(context.Background(), "user-1")
	require.NoError(t, err)

	assert.Equal(t, 3, got.AllTime.ShiftCount)
	assert.Equal(t, 24.5, got.AllTime.WorkedHours)
	assert.Equal(t, 1, got.Today.ShiftCount)
	assert.Equal(t, 7.5, got.Today.WorkedHours)
	// Week starts Monday: only today's shift is in this week.
	assert.Equal(t, 1, got.ThisWeek.ShiftCount)
	// The Saturday shift lands on May 31.
	assert.Equal(t, 2, got.ThisMonth.ShiftCount)

	// Three consecutive days with a check-in.
	assert.Equal(t, 3, got.AttendanceStreakDays)

	// 09:00, 10:00, 08:00 average to 09:00.
	assert.Equal(t, "09:00", got.Timing.AverageCheckInTime)
	// Two of three check-ins at or before 09:00.
	assert.InDelta(t, 66.67, got.Timing.PunctualityScore, 0.01)
	// One of three completed shifts above eight hours.
	assert.InDelta(t, 33.33, got.Timing.OvertimeFrequency, 0.01)

	assert.Equal(t, 100.0, got.Productivity.ShiftCompletionRate)
	assert.Equal(t, 1, got.Productivity.LateArrivals)
	// 1470 worked vs 90 break.
	assert.InDelta(t, 94.23, got.Productivity.WorkEfficiency, 0.01)
}

func TestUserMetrics_StreakStopsAtGap(t *testing.T) {
	now := time.Date(2025, 6, 10, 12, 0, 0, 0, time.UTC)
	day := func(offset int) time.Time {
		return time.Date(2025, 6, 10+offset, 9, 0, 0, 0, time.UTC)
	}
	repo := &stubShiftRepo{shifts: []shift.Shift{
		completedShift("user-1", "b", day(0), 480, 0),
		completedShift("user-1", "b", day(-1), 480, 0),
		// gap at -2
		completedShift("user-1", "b", day(-3), 480, 0),
	}}
	svc := newService(t, repo, &stubUserRepo{}, now)

	got, err := svc.UserMetrics(context.Background(), "user-1")
	require.NoError(t, err)
	assert.Equal(t, 2, got.AttendanceStreakDays)
}

func TestOrganizationReport_RollupsAndCache(t *testing.T) {
	now := time.Date(2025, 6, 2, 12, 0, 0, 0, time.UTC)
	role := "engineer"
	repo := &stubShiftRepo{shifts: []shift.Shift{
		completedShift("user-1", "branch-1", time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC), 480, 30),
		completedShift("user-2", "branch-2", time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC), 540, 0),
	}}
	users := &stubUserRepo{users: []user.User{
		{ID: "user-1", Name: "A", OrganizationID: "org-1", Role: &role},
		{ID: "user-2", Name: "B", OrganizationID: "org-1", Role: &role},
	}}
	svc := newService(t, repo, users, now)
	ctx := orgContext(t, "org-1")

	req := metrics.OrgReportRequest{DateFrom: "2025-06-01", DateTo: "2025-06-02"}
	report, err := svc.OrganizationReport(ctx, req)
	require.NoError(t, err)

	assert.Equal(t, 2, report.TotalShifts)
	assert.Equal(t, 17.0, report.TotalHours)
	assert.Equal(t, 1, report.TotalOvertimeShifts)
	assert.Equal(t, "09:30", report.AverageStartTime)
	assert.Equal(t, 2, report.ByBranch["branch-1"].Count+report.ByBranch["branch-2"].Count)
	assert.Equal(t, 2, report.ByRole["engineer"].Count)
	assert.Equal(t, 17.0, report.ByRole["engineer"].TotalHours)
	assert.Equal(t, 50.0, report.Insights.PunctualityRate)
	assert.Equal(t, 9, report.Insights.PeakCheckInHour)

	// Second call inside the TTL must come from cache.
	calls := repo.listCalls
	again, err := svc.OrganizationReport(ctx, req)
	require.NoError(t, err)
	assert.Equal(t, report, again)
	assert.Equal(t, calls, repo.listCalls)
}

func TestOrganizationReport_IncludeUserDetails(t *testing.T) {
	now := time.Date(2025, 6, 2, 12, 0, 0, 0, time.UTC)
	repo := &stubShiftRepo{shifts: []shift.Shift{
		completedShift("user-1", "branch-1", time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC), 480, 0),
	}}
	users := &stubUserRepo{users: []user.User{
		{ID: "user-1", Name: "A", OrganizationID: "org-1"},
	}}
	svc := newService(t, repo, users, now)

	report, err := svc.OrganizationReport(orgContext(t, "org-1"), metrics.OrgReportRequest{
		DateFrom:           "2025-06-01",
		DateTo:             "2025-06-02",
		IncludeUserDetails: true,
	})
	require.NoError(t, err)
	require.Len(t, report.UserDetails, 1)
	assert.Equal(t, "user-1", report.UserDetails[0].UserID)
	assert.Equal(t, 8.0, report.UserDetails[0].AllTime.WorkedHours)
}

func TestOrganizationReport_DegradesToZeroOnFailure(t *testing.T) {
	now := time.Date(2025, 6, 2, 12, 0, 0, 0, time.UTC)
	repo := &stubShiftRepo{err: errors.New("storage down")}
	svc := newService(t, repo, &stubUserRepo{}, now)

	report, err := svc.OrganizationReport(orgContext(t, "org-1"), metrics.OrgReportRequest{
		DateFrom: "2025-06-01",
		DateTo:   "2025-06-02",
	})
	require.NoError(t, err)
	assert.Equal(t, "org-1", report.OrganizationID)
	assert.Equal(t, 0, report.TotalShifts)
	assert.Equal(t, 0.0, report.TotalHours)
	assert.NotNil(t, report.ByBranch)
	assert.NotNil(t, report.ByRole)
}

func TestOrganizationReport_InvalidDates(t *testing.T) {
	svc := newService(t, &stubShiftRepo{}, &stubUserRepo{}, time.Now())

	_, err := svc.OrganizationReport(orgContext(t, "org-1"), metrics.OrgReportRequest{
		DateFrom: "not-a-date",
		DateTo:   "2025-06-02",
	})
	assert.Error(t, err)
}
