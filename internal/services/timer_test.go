package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/syncsphere/server/internal/model"
	"github.com/syncsphere/server/internal/store"
	"github.com/syncsphere/server/internal/userday"
)

// --- Fakes ---

type fakeStore struct {
	users    map[string]*model.User
	totals   map[string]map[int64]*model.DailyTotal
	segments []*model.TimerSegment
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		users:  make(map[string]*model.User),
		totals: make(map[string]map[int64]*model.DailyTotal),
	}
}

func (f *fakeStore) Users() store.Users             { return &fakeUsers{f} }
func (f *fakeStore) FocusAreas() store.FocusAreas   { panic("unused") }
func (f *fakeStore) DailyTotals() store.DailyTotals { return &fakeTotals{f} }
func (f *fakeStore) Segments() store.Segments       { return &fakeSegments{f} }

type fakeUsers struct{ f *fakeStore }

func (u *fakeUsers) Create(ctx context.Context, m *model.User) (*model.User, error) {
	u.f.users[m.UserID] = m
	return m, nil
}
func (u *fakeUsers) Get(ctx context.Context, userID string) (*model.User, error) {
	if m, ok := u.f.users[userID]; ok {
		return m, nil
	}
	return nil, model.ErrNotFound
}
func (u *fakeUsers) List(ctx context.Context) ([]*model.User, error) {
	var out []*model.User
	for _, m := range u.f.users {
		out = append(out, m)
	}
	return out, nil
}
func (u *fakeUsers) UpdateDaySettings(ctx context.Context, userID, tz string, resetHour int) (*model.User, error) {
	m, ok := u.f.users[userID]
	if !ok {
		return nil, model.ErrNotFound
	}
	m.TimeZone, m.ResetHour = tz, resetHour
	return m, nil
}
func (u *fakeUsers) Delete(ctx context.Context, userID string) error {
	delete(u.f.users, userID)
	return nil
}

type fakeTotals struct{ f *fakeStore }

func (t *fakeTotals) bucket(userID string) map[int64]*model.DailyTotal {
	b, ok := t.f.totals[userID]
	if !ok {
		b = make(map[int64]*model.DailyTotal)
		t.f.totals[userID] = b
	}
	return b
}
func (t *fakeTotals) Upsert(ctx context.Context, m *model.DailyTotal) (*model.DailyTotal, error) {
	cp := *m
	cp.Day = m.Day.UTC()
	cp.UpdateTime = time.Now().UTC()
	t.bucket(m.UserID)[cp.Day.Unix()] = &cp
	return &cp, nil
}
func (t *fakeTotals) Add(ctx context.Context, userID string, day time.Time, seconds int64) (*model.DailyTotal, error) {
	b := t.bucket(userID)
	key := day.UTC().Unix()
	if cur, ok := b[key]; ok {
		cur.TotalSeconds += seconds
		cur.UpdateTime = time.Now().UTC()
		return cur, nil
	}
	d := &model.DailyTotal{UserID: userID, Day: day.UTC(), TotalSeconds: seconds, UpdateTime: time.Now().UTC()}
	b[key] = d
	return d, nil
}
func (t *fakeTotals) Get(ctx context.Context, userID string, day time.Time) (*model.DailyTotal, error) {
	if d, ok := t.bucket(userID)[day.UTC().Unix()]; ok {
		return d, nil
	}
	return nil, model.ErrNotFound
}
func (t *fakeTotals) List(ctx context.Context, req model.ListDailyTotalsRequest) ([]*model.DailyTotal, error) {
	var out []*model.DailyTotal
	for _, d := range t.bucket(req.UserID) {
		if req.From != nil && d.Day.Before(*req.From) {
			continue
		}
		if req.To != nil && !d.Day.Before(*req.To) {
			continue
		}
		out = append(out, d)
	}
	return out, nil
}
func (t *fakeTotals) DeleteForUser(ctx context.Context, userID string) error {
	delete(t.f.totals, userID)
	return nil
}

type fakeSegments struct{ f *fakeStore }

func (s *fakeSegments) Create(ctx context.Context, m *model.TimerSegment) (*model.TimerSegment, error) {
	cp := *m
	if cp.SegmentID == "" {
		cp.SegmentID = time.Now().Format("20060102150405.000000000")
	}
	cp.CreationTime = time.Now().UTC()
	s.f.segments = append(s.f.segments, &cp)
	return &cp, nil
}
func (s *fakeSegments) List(ctx context.Context, userID string, from, to *time.Time) ([]*model.TimerSegment, error) {
	var out []*model.TimerSegment
	for _, m := range s.f.segments {
		if m.UserID == userID {
			out = append(out, m)
		}
	}
	return out, nil
}
func (s *fakeSegments) SumByFocusArea(ctx context.Context, userID string, from, to time.Time) ([]*model.FocusAreaTotal, error) {
	byArea := make(map[string]*model.FocusAreaTotal)
	var order []string
	for _, m := range s.f.segments {
		if m.UserID != userID || m.Start.Before(from) || !m.Start.Before(to) {
			continue
		}
		key := ""
		if m.FocusAreaID != nil {
			key = *m.FocusAreaID
		}
		if row, ok := byArea[key]; ok {
			row.TotalDuration += m.Duration
			continue
		}
		row := &model.FocusAreaTotal{FocusAreaID: m.FocusAreaID, TotalDuration: m.Duration}
		byArea[key] = row
		order = append(order, key)
	}
	out := make([]*model.FocusAreaTotal, 0, len(order))
	for _, k := range order {
		out = append(out, byArea[k])
	}
	return out, nil
}
func (s *fakeSegments) UpdateDay(ctx context.Context, userID, segmentID string, day time.Time) error {
	for _, m := range s.f.segments {
		if m.UserID == userID && m.SegmentID == segmentID {
			m.Day = day.UTC()
			return nil
		}
	}
	return model.ErrNotFound
}

type fakeNotifier struct {
	events []string
}

func (n *fakeNotifier) DayTotalUpdated(ctx context.Context, userID string, day time.Time, totalSeconds int64) error {
	n.events = append(n.events, userID)
	return nil
}

// --- Tests ---

func seedUser(f *fakeStore, tz string, resetHour int) string {
	f.users["u1"] = &model.User{UserID: "u1", TimeZone: tz, ResetHour: resetHour}
	return "u1"
}

func ts(t *testing.T, s string) time.Time {
	t.Helper()
	v, err := time.Parse(time.RFC3339, s)
	if err != nil {
		t.Fatalf("parse %q: %v", s, err)
	}
	return v.UTC()
}

func TestRecordSegment_SingleDay(t *testing.T) {
	f := newFakeStore()
	userID := seedUser(f, "Asia/Kolkata", 0)
	svc := NewTimerService(f, nil, zerolog.Nop())

	segs, err := svc.RecordSegment(context.Background(), RecordSegmentRequest{
		UserID: userID,
		Start:  ts(t, "2024-01-01T23:00:00Z"),
		End:    ts(t, "2024-01-02T02:00:00Z"),
	})
	if err != nil {
		t.Fatalf("RecordSegment: %v", err)
	}
	if len(segs) != 1 {
		t.Fatalf("segments = %d, want 1", len(segs))
	}
	wantDay := ts(t, "2024-01-01T18:30:00Z")
	if !segs[0].Day.Equal(wantDay) || segs[0].Duration != 10800 {
		t.Fatalf("segment = %+v, want day %v duration 10800", segs[0], wantDay)
	}
	total, err := f.DailyTotals().Get(context.Background(), userID, wantDay)
	if err != nil || total.TotalSeconds != 10800 {
		t.Fatalf("daily total = %+v err=%v, want 10800", total, err)
	}
}

func TestRecordSegment_SplitsAcrossBoundary(t *testing.T) {
	f := newFakeStore()
	userID := seedUser(f, "UTC", 0)
	n := &fakeNotifier{}
	svc := NewTimerService(f, n, zerolog.Nop())

	segs, err := svc.RecordSegment(context.Background(), RecordSegmentRequest{
		UserID: userID,
		Start:  ts(t, "2024-01-01T23:30:00Z"),
		End:    ts(t, "2024-01-02T00:30:00Z"),
	})
	if err != nil {
		t.Fatalf("RecordSegment: %v", err)
	}
	if len(segs) != 2 {
		t.Fatalf("segments = %d, want 2", len(segs))
	}
	boundary := ts(t, "2024-01-02T00:00:00Z")
	if !segs[0].End.Equal(boundary) || !segs[1].Start.Equal(boundary) {
		t.Fatalf("segments not clipped at boundary: %+v / %+v", segs[0], segs[1])
	}
	if segs[0].Duration != 1800 || segs[1].Duration != 1800 {
		t.Fatalf("durations = %d/%d, want 1800/1800", segs[0].Duration, segs[1].Duration)
	}
	if segs[0].Duration+segs[1].Duration != 3600 {
		t.Fatalf("durations do not sum to session length")
	}
	if len(n.events) != 2 {
		t.Fatalf("notifier events = %d, want 2", len(n.events))
	}
}

func TestRecordSegment_NonChronologicalIsNoop(t *testing.T) {
	f := newFakeStore()
	userID := seedUser(f, "UTC", 0)
	svc := NewTimerService(f, nil, zerolog.Nop())

	at := ts(t, "2024-01-01T10:00:00Z")
	segs, err := svc.RecordSegment(context.Background(), RecordSegmentRequest{UserID: userID, Start: at, End: at.Add(-time.Minute)})
	if err != nil {
		t.Fatalf("RecordSegment: %v", err)
	}
	if len(segs) != 0 || len(f.segments) != 0 {
		t.Fatalf("expected no-op, got %d segments", len(f.segments))
	}
}

func TestRecordSegment_InvalidTimezoneFails(t *testing.T) {
	f := newFakeStore()
	userID := seedUser(f, "Nope/Nowhere", 0)
	svc := NewTimerService(f, nil, zerolog.Nop())

	_, err := svc.RecordSegment(context.Background(), RecordSegmentRequest{
		UserID: userID,
		Start:  ts(t, "2024-01-01T10:00:00Z"),
		End:    ts(t, "2024-01-01T11:00:00Z"),
	})
	if !errors.Is(err, model.ErrConfiguration) {
		t.Fatalf("err = %v, want ErrConfiguration", err)
	}
}

func TestUpsertDailyTotal_RejectsNegative(t *testing.T) {
	f := newFakeStore()
	userID := seedUser(f, "UTC", 0)
	svc := NewTimerService(f, nil, zerolog.Nop())

	_, err := svc.UpsertDailyTotal(context.Background(), userID, ts(t, "2024-01-01T00:00:00Z"), -5, false, nil)
	if !errors.Is(err, model.ErrValidation) {
		t.Fatalf("err = %v, want ErrValidation", err)
	}
}

func TestUpsertDailyTotal_Overwrites(t *testing.T) {
	f := newFakeStore()
	userID := seedUser(f, "UTC", 0)
	svc := NewTimerService(f, nil, zerolog.Nop())
	day := ts(t, "2024-01-01T00:00:00Z")

	if _, err := svc.UpsertDailyTotal(context.Background(), userID, day, 100, true, nil); err != nil {
		t.Fatalf("upsert 1: %v", err)
	}
	got, err := svc.UpsertDailyTotal(context.Background(), userID, day, 40, false, nil)
	if err != nil {
		t.Fatalf("upsert 2: %v", err)
	}
	if got.TotalSeconds != 40 {
		t.Fatalf("total = %d, want overwrite to 40", got.TotalSeconds)
	}
	if len(f.totals[userID]) != 1 {
		t.Fatalf("rows = %d, want 1", len(f.totals[userID]))
	}
}

func TestStartTimer_SecondStartConflicts(t *testing.T) {
	f := newFakeStore()
	userID := seedUser(f, "UTC", 0)
	svc := NewTimerService(f, nil, zerolog.Nop())
	at := ts(t, "2024-01-01T10:00:00Z")

	if _, err := svc.StartTimer(context.Background(), userID, at); err != nil {
		t.Fatalf("StartTimer: %v", err)
	}
	if _, err := svc.StartTimer(context.Background(), userID, at.Add(time.Minute)); !errors.Is(err, model.ErrConflict) {
		t.Fatalf("second start: err = %v, want ErrConflict", err)
	}
}

func TestStartTimer_ConflictsAcrossManyDays(t *testing.T) {
	// A timer forgotten for days still blocks a new start: the running
	// bucket lives under an old day key, far from the new start instant.
	f := newFakeStore()
	userID := seedUser(f, "UTC", 0)
	svc := NewTimerService(f, nil, zerolog.Nop())
	at := ts(t, "2024-01-01T10:00:00Z")

	if _, err := svc.StartTimer(context.Background(), userID, at); err != nil {
		t.Fatalf("StartTimer: %v", err)
	}
	if _, err := svc.StartTimer(context.Background(), userID, at.Add(72*time.Hour)); !errors.Is(err, model.ErrConflict) {
		t.Fatalf("start after 72h: err = %v, want ErrConflict", err)
	}
	// Stopping still finds the stale bucket and clears it.
	if _, err := svc.StopTimer(context.Background(), userID, at.Add(72*time.Hour), nil, nil); err != nil {
		t.Fatalf("StopTimer: %v", err)
	}
	day := ts(t, "2024-01-01T00:00:00Z")
	total, err := f.DailyTotals().Get(context.Background(), userID, day)
	if err != nil || total.IsRunning {
		t.Fatalf("stale bucket not cleared: %+v err=%v", total, err)
	}
}

func TestStopTimer_RecordsAndClears(t *testing.T) {
	f := newFakeStore()
	userID := seedUser(f, "UTC", 0)
	svc := NewTimerService(f, nil, zerolog.Nop())

	start := ts(t, "2024-01-01T23:30:00Z")
	if _, err := svc.StartTimer(context.Background(), userID, start); err != nil {
		t.Fatalf("StartTimer: %v", err)
	}
	segs, err := svc.StopTimer(context.Background(), userID, start.Add(time.Hour), nil, nil)
	if err != nil {
		t.Fatalf("StopTimer: %v", err)
	}
	if len(segs) != 2 {
		t.Fatalf("segments = %d, want 2 (session crossed midnight)", len(segs))
	}

	day := ts(t, "2024-01-01T00:00:00Z")
	total, err := f.DailyTotals().Get(context.Background(), userID, day)
	if err != nil {
		t.Fatalf("Get bucket: %v", err)
	}
	if total.IsRunning || total.StartTimestamp != nil {
		t.Fatalf("bucket still marked running: %+v", total)
	}
	if total.TotalSeconds != 1800 {
		t.Fatalf("bucket total = %d, want 1800", total.TotalSeconds)
	}

	if _, err := svc.StopTimer(context.Background(), userID, start.Add(2*time.Hour), nil, nil); !errors.Is(err, model.ErrNotFound) {
		t.Fatalf("second stop: err = %v, want ErrNotFound", err)
	}
}

func TestAggregateByFocusArea_KeepsNilGroup(t *testing.T) {
	f := newFakeStore()
	userID := seedUser(f, "UTC", 0)
	timer := NewTimerService(f, nil, zerolog.Nop())
	reports := NewReportService(f)

	area := "fa-1"
	ctx := context.Background()
	if _, err := timer.RecordSegment(ctx, RecordSegmentRequest{
		UserID: userID, FocusAreaID: &area,
		Start: ts(t, "2024-01-01T09:00:00Z"), End: ts(t, "2024-01-01T10:00:00Z"),
	}); err != nil {
		t.Fatalf("RecordSegment attributed: %v", err)
	}
	if _, err := timer.RecordSegment(ctx, RecordSegmentRequest{
		UserID: userID,
		Start:  ts(t, "2024-01-01T11:00:00Z"), End: ts(t, "2024-01-01T11:30:00Z"),
	}); err != nil {
		t.Fatalf("RecordSegment unattributed: %v", err)
	}

	r := userday.DayRange{StartUTC: ts(t, "2024-01-01T00:00:00Z"), EndUTC: ts(t, "2024-01-02T00:00:00Z")}
	totals, err := reports.AggregateByFocusArea(ctx, userID, r)
	if err != nil {
		t.Fatalf("AggregateByFocusArea: %v", err)
	}
	if len(totals) != 2 {
		t.Fatalf("groups = %d, want 2", len(totals))
	}
	var nilDur, attrDur int64
	for _, row := range totals {
		if row.FocusAreaID == nil {
			nilDur = row.TotalDuration
		} else {
			attrDur = row.TotalDuration
		}
	}
	if attrDur != 3600 || nilDur != 1800 {
		t.Fatalf("durations attributed=%d nil=%d, want 3600/1800", attrDur, nilDur)
	}
}
