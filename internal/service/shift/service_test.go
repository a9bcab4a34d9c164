package shift

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/jwtauth/v5"
	"github.com/google/uuid"
	"github.com/lestrrat-go/jwx/v2/jwt"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/opsdesk/attendance-backend-go/internal/domain/shift"
)

// fakeShiftRepo is a thread-safe in-memory shift.ShiftRepository.
type fakeShiftRepo struct {
	mu     sync.Mutex
	shifts map[string]shift.Shift
}

func newFakeShiftRepo() *fakeShiftRepo {
	return &fakeShiftRepo{shifts: make(map[string]shift.Shift)}
}

func copyShift(s shift.Shift) shift.Shift {
	out := s
	out.Breaks = append([]shift.BreakEntry(nil), s.Breaks...)
	return out
}

func (f *fakeShiftRepo) Create(ctx context.Context, s shift.Shift) (shift.Shift, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if s.ID == "" {
		s.ID = uuid.NewString()
	}
	s.CreatedAt = time.Now()
	s.UpdatedAt = s.CreatedAt
	f.shifts[s.ID] = copyShift(s)
	return s, nil
}

func (f *fakeShiftRepo) Update(ctx context.Context, s shift.Shift) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.shifts[s.ID]; !ok {
		return shift.ErrShiftNotFound
	}
	s.UpdatedAt = time.Now()
	f.shifts[s.ID] = copyShift(s)
	return nil
}

func (f *fakeShiftRepo) GetByID(ctx context.Context, id string, organizationID string) (shift.Shift, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	s, ok := f.shifts[id]
	if !ok || s.OrganizationID != organizationID {
		return shift.Shift{}, shift.ErrShiftNotFound
	}
	return copyShift(s), nil
}

func (f *fakeShiftRepo) GetOpenShift(ctx context.Context, userID string) (shift.Shift, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var best *shift.Shift
	for _, s := range f.shifts {
		if s.UserID != userID || s.CheckOut != nil {
			continue
		}
		if best == nil || s.CheckIn.After(best.CheckIn) {
			tmp := copyShift(s)
			best = &tmp
		}
	}
	if best == nil {
		return shift.Shift{}, shift.ErrNoOpenShift
	}
	return *best, nil
}

func (f *fakeShiftRepo) GetLatestForUser(ctx context.Context, userID string) (shift.Shift, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var best *shift.Shift
	for _, s := range f.shifts {
		if s.UserID != userID {
			continue
		}
		if best == nil || s.CheckIn.After(best.CheckIn) {
			tmp := copyShift(s)
			best = &tmp
		}
	}
	if best == nil {
		return shift.Shift{}, shift.ErrShiftNotFound
	}
	return *best, nil
}

func (f *fakeShiftRepo) ListByUser(ctx context.Context, userID string, from, to *time.Time) ([]shift.Shift, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []shift.Shift
	for _, s := range f.shifts {
		if s.UserID != userID {
			continue
		}
		if from != nil && s.CheckIn.Before(*from) {
			continue
		}
		if to != nil && s.CheckIn.After(*to) {
			continue
		}
		out = append(out, copyShift(s))
	}
	return out, nil
}

func (f *fakeShiftRepo) ListByDate(ctx context.Context, organizationID string, date time.Time) ([]shift.Shift, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []shift.Shift
	for _, s := range f.shifts {
		if s.OrganizationID != organizationID {
			continue
		}
		y1, m1, d1 := s.CheckIn.Date()
		y2, m2, d2 := date.Date()
		if y1 == y2 && m1 == m2 && d1 == d2 {
			out = append(out, copyShift(s))
		}
	}
	return out, nil
}

func (f *fakeShiftRepo) ListByBranch(ctx context.Context, branchID string, organizationID string) ([]shift.Shift, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []shift.Shift
	for _, s := range f.shifts {
		if s.BranchID == branchID && s.OrganizationID == organizationID {
			out = append(out, copyShift(s))
		}
	}
	return out, nil
}

func (f *fakeShiftRepo) ListByOrganizationRange(ctx context.Context, organizationID string, from, to time.Time) ([]shift.Shift, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []shift.Shift
	for _, s := range f.shifts {
		if s.OrganizationID != organizationID {
			continue
		}
		if s.CheckIn.Before(from) || s.CheckIn.After(to) {
			continue
		}
		out = append(out, copyShift(s))
	}
	return out, nil
}

// recordingPublisher captures published topics.
type recordingPublisher struct {
	mu     sync.Mutex
	topics []string
}

func (p *recordingPublisher) Publish(ctx context.Context, topic string, payload map[string]interface{}) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.topics = append(p.topics, topic)
}

func authedContext(t *testing.T, userID, orgID string) context.Context {
	t.Helper()
	tok := jwt.New()
	require.NoError(t, tok.Set("user_id", userID))
	require.NoError(t, tok.Set("organization_id", orgID))
	require.NoError(t, tok.Set("branch_id", "branch-1"))
	return jwtauth.NewContext(context.Background(), tok, nil)
}

func newTestService(repo *fakeShiftRepo, pub *recordingPublisher) *ShiftServiceImpl {
	return &ShiftServiceImpl{
		ShiftRepository: repo,
		publisher:       pub,
		now:             time.Now,
	}
}

func at(hh, mm int) time.Time {
	return time.Date(2025, 6, 2, hh, mm, 0, 0, time.UTC)
}

func TestShiftService_CheckInCheckOut_NoBreak(t *testing.T) {
	repo := newFakeShiftRepo()
	pub := &recordingPublisher{}
	svc := newTestService(repo, pub)
	ctx := authedContext(t, "user-1", "org-1")

	svc.now = func() time.Time { return at(9, 0) }
	created, err := svc.CheckIn(ctx, shift.CheckInRequest{})
	require.NoError(t, err)
	assert.Equal(t, string(shift.StatusPresent), created.Status)

	svc.now = func() time.Time { return at(17, 30) }
	out, err := svc.CheckOut(ctx, shift.CheckOutRequest{})
	require.NoError(t, err)
	assert.Equal(t, "8h 30m", out.Duration)
	assert.Equal(t, string(shift.StatusCompleted), out.Shift.Status)
	assert.NotNil(t, out.Shift.CheckOutTime)
}

func TestShiftService_CheckIn_RejectsSecondOpenShift(t *testing.T) {
	repo := newFakeShiftRepo()
	svc := newTestService(repo, &recordingPublisher{})
	ctx := authedContext(t, "user-1", "org-1")

	_, err := svc.CheckIn(ctx, shift.CheckInRequest{})
	require.NoError(t, err)

	_, err = svc.CheckIn(ctx, shift.CheckInRequest{})
	assert.ErrorIs(t, err, shift.ErrShiftAlreadyOpen)
}

func TestShiftService_CheckOut_NoOpenShift(t *testing.T) {
	repo := newFakeShiftRepo()
	svc := newTestService(repo, &recordingPublisher{})
	ctx := authedContext(t, "user-1", "org-1")

	_, err := svc.CheckOut(ctx, shift.CheckOutRequest{})
	assert.ErrorIs(t, err, shift.ErrNoOpenShift)
}

func TestShiftService_BreakLifecycle(t *testing.T) {
	repo := newFakeShiftRepo()
	svc := newTestService(repo, &recordingPublisher{})
	ctx := authedContext(t, "user-1", "org-1")

	svc.now = func() time.Time { return at(9, 0) }
	_, err := svc.CheckIn(ctx, shift.CheckInRequest{})
	require.NoError(t, err)

	svc.now = func() time.Time { return at(12, 0) }
	resp, err := svc.StartBreak(ctx, shift.BreakRequest{})
	require.NoError(t, err)
	assert.Equal(t, string(shift.StatusOnBreak), resp.Status)
	assert.Equal(t, 1, resp.BreakCount)

	// Starting another break while on break must fail.
	_, err = svc.StartBreak(ctx, shift.BreakRequest{})
	assert.ErrorIs(t, err, shift.ErrAlreadyOnBreak)

	svc.now = func() time.Time { return at(12, 30) }
	resp, err = svc.EndBreak(ctx, shift.BreakRequest{})
	require.NoError(t, err)
	assert.Equal(t, string(shift.StatusPresent), resp.Status)
	assert.Equal(t, "0h 30m", resp.TotalBreakTime)
	assert.Equal(t, 1, resp.BreakCount)
	require.Len(t, resp.Breaks, 1)
	assert.NotNil(t, resp.Breaks[0].EndTime)

	// Scenario C: checkout at 17:00 nets 8h elapsed minus 30m break.
	svc.now = func() time.Time { return at(17, 0) }
	out, err := svc.CheckOut(ctx, shift.CheckOutRequest{})
	require.NoError(t, err)
	assert.Equal(t, "7h 30m", out.Duration)
}

func TestShiftService_EndBreak_NoOpenBreak(t *testing.T) {
	repo := newFakeShiftRepo()
	svc := newTestService(repo, &recordingPublisher{})
	ctx := authedContext(t, "user-1", "org-1")

	_, err := svc.CheckIn(ctx, shift.CheckInRequest{})
	require.NoError(t, err)

	_, err = svc.EndBreak(ctx, shift.BreakRequest{})
	assert.ErrorIs(t, err, shift.ErrNoOpenBreak)
}

func TestShiftService_CheckOut_EmitsEvents(t *testing.T) {
	repo := newFakeShiftRepo()
	pub := &recordingPublisher{}
	svc := newTestService(repo, pub)
	ctx := authedContext(t, "user-1", "org-1")

	_, err := svc.CheckIn(ctx, shift.CheckInRequest{})
	require.NoError(t, err)
	_, err = svc.CheckOut(ctx, shift.CheckOutRequest{})
	require.NoError(t, err)

	pub.mu.Lock()
	defer pub.mu.Unlock()
	assert.Contains(t, pub.topics, "daily-report")
	assert.Contains(t, pub.topics, "user.target.update.required")
	assert.Contains(t, pub.topics, "user.metrics.update.required")
}

func TestShiftService_ConcurrentCheckOut_ExactlyOneCompletes(t *testing.T) {
	repo := newFakeShiftRepo()
	svc := newTestService(repo, &recordingPublisher{})
	ctx := authedContext(t, "user-1", "org-1")

	svc.now = func() time.Time { return at(9, 0) }
	_, err := svc.CheckIn(ctx, shift.CheckInRequest{})
	require.NoError(t, err)

	svc.now = func() time.Time { return at(17, 0) }

	const attempts = 8
	results := make(chan error, attempts)
	var wg sync.WaitGroup
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.CheckOut(ctx, shift.CheckOutRequest{})
			results <- err
		}()
	}
	wg.Wait()
	close(results)

	var succeeded, notFound int
	for err := range results {
		switch {
		case err == nil:
			succeeded++
		case errors.Is(err, shift.ErrNoOpenShift):
			notFound++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	assert.Equal(t, 1, succeeded)
	assert.Equal(t, attempts-1, notFound)

	// The surviving record is COMPLETED with the correct duration.
	latest, err := repo.GetLatestForUser(ctx, "user-1")
	require.NoError(t, err)
	assert.Equal(t, shift.StatusCompleted, latest.Status)
	require.NotNil(t, latest.DurationMinutes)
	assert.Equal(t, 480, *latest.DurationMinutes)
}

func TestShiftService_DailyStats_ScenarioC(t *testing.T) {
	repo := newFakeShiftRepo()
	svc := newTestService(repo, &recordingPublisher{})
	ctx := authedContext(t, "user-1", "org-1")

	svc.now = func() time.Time { return at(9, 0) }
	_, err := svc.CheckIn(ctx, shift.CheckInRequest{})
	require.NoError(t, err)
	svc.now = func() time.Time { return at(12, 0) }
	_, err = svc.StartBreak(ctx, shift.BreakRequest{})
	require.NoError(t, err)
	svc.now = func() time.Time { return at(12, 30) }
	_, err = svc.EndBreak(ctx, shift.BreakRequest{})
	require.NoError(t, err)
	svc.now = func() time.Time { return at(17, 0) }
	_, err = svc.CheckOut(ctx, shift.CheckOutRequest{})
	require.NoError(t, err)

	stats, err := svc.DailyStats(ctx, "user-1", "2025-06-02")
	require.NoError(t, err)
	assert.Equal(t, int64(27_000_000), stats.DailyWorkTime) // 7.5h
	assert.Equal(t, int64(1_800_000), stats.DailyBreakTime) // 30m
	assert.Equal(t, 1, stats.ShiftCount)
}

func TestShiftService_CompletedShiftInvariant(t *testing.T) {
	repo := newFakeShiftRepo()
	svc := newTestService(repo, &recordingPublisher{})
	ctx := authedContext(t, "user-1", "org-1")

	svc.now = func() time.Time { return at(8, 0) }
	_, err := svc.CheckIn(ctx, shift.CheckInRequest{})
	require.NoError(t, err)
	svc.now = func() time.Time { return at(16, 15) }
	_, err = svc.CheckOut(ctx, shift.CheckOutRequest{})
	require.NoError(t, err)

	latest, err := repo.GetLatestForUser(ctx, "user-1")
	require.NoError(t, err)
	assert.Equal(t, shift.StatusCompleted, latest.Status)
	assert.NotNil(t, latest.CheckOut)
	require.NotNil(t, latest.DurationMinutes)
	assert.GreaterOrEqual(t, *latest.DurationMinutes, 0)
}
