// Package storetest exercises a compliance suite against a store.Store
// implementation. Drivers run it from their own tests.
package storetest

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/syncsphere/server/internal/model"
	"github.com/syncsphere/server/internal/store"
)

// Run exercises a minimal compliance suite against a store.Store implementation.
// Implementations should provide a clean, isolated store from makeStore.
func Run(t *testing.T, makeStore func(t *testing.T) store.Store) {
	t.Helper()

	s := makeStore(t)
	ctx := context.Background()

	userID := "u-" + uuid.New().String()
	email := userID + "@example.test"

	// Users
	u := &model.User{UserID: userID, Email: email, TimeZone: "Asia/Kolkata", ResetHour: 0}
	if _, err := s.Users().Create(ctx, u); err != nil {
		t.Fatalf("CreateUser: %v", err)
	}
	if got, err := s.Users().Get(ctx, userID); err != nil || got == nil || got.UserID != userID {
		t.Fatalf("GetUser: got=%v err=%v", got, err)
	}
	if got, err := s.Users().UpdateDaySettings(ctx, userID, "America/New_York", 4); err != nil || got.TimeZone != "America/New_York" || got.ResetHour != 4 {
		t.Fatalf("UpdateDaySettings: got=%v err=%v", got, err)
	}
	if _, err := s.Users().Get(ctx, "u-missing"); !errors.Is(err, model.ErrNotFound) {
		t.Fatalf("GetUser missing: err=%v, want ErrNotFound", err)
	}

	// FocusAreas
	fa, err := s.FocusAreas().Create(ctx, &model.FocusArea{UserID: userID, Name: "deep-work"})
	if err != nil {
		t.Fatalf("CreateFocusArea: %v", err)
	}
	if fa.FocusAreaID == "" {
		t.Fatalf("CreateFocusArea: empty id")
	}
	if lst, err := s.FocusAreas().List(ctx, userID); err != nil || len(lst) != 1 {
		t.Fatalf("ListFocusAreas: n=%d err=%v", len(lst), err)
	}

	day := time.Date(2024, 1, 1, 18, 30, 0, 0, time.UTC)

	// DailyTotals: Upsert twice must keep one row and take the second write.
	if _, err := s.DailyTotals().Upsert(ctx, &model.DailyTotal{UserID: userID, Day: day, TotalSeconds: 100, IsRunning: true}); err != nil {
		t.Fatalf("Upsert 1: %v", err)
	}
	if _, err := s.DailyTotals().Upsert(ctx, &model.DailyTotal{UserID: userID, Day: day, TotalSeconds: 250, IsRunning: false}); err != nil {
		t.Fatalf("Upsert 2: %v", err)
	}
	if got, err := s.DailyTotals().Get(ctx, userID, day); err != nil || got.TotalSeconds != 250 || got.IsRunning {
		t.Fatalf("Get after overwrite upsert: got=%+v err=%v", got, err)
	}
	lst, err := s.DailyTotals().List(ctx, model.ListDailyTotalsRequest{UserID: userID})
	if err != nil || len(lst) != 1 {
		t.Fatalf("List after double upsert: n=%d err=%v (duplicate row?)", len(lst), err)
	}

	// DailyTotals: Add accumulates and creates lazily.
	day2 := day.Add(24 * time.Hour)
	if _, err := s.DailyTotals().Add(ctx, userID, day2, 60); err != nil {
		t.Fatalf("Add create: %v", err)
	}
	if got, err := s.DailyTotals().Add(ctx, userID, day2, 40); err != nil || got.TotalSeconds != 100 {
		t.Fatalf("Add accumulate: got=%+v err=%v", got, err)
	}
	if got, err := s.DailyTotals().Add(ctx, userID, day, 50); err != nil || got.TotalSeconds != 300 {
		t.Fatalf("Add onto upserted row: got=%+v err=%v", got, err)
	}

	// Segments
	start := time.Date(2024, 1, 2, 9, 0, 0, 0, time.UTC)
	seg, err := s.Segments().Create(ctx, &model.TimerSegment{
		UserID:      userID,
		FocusAreaID: &fa.FocusAreaID,
		Start:       start,
		End:         start.Add(30 * time.Minute),
		Duration:    1800,
		Day:         day2,
		Type:        "focus",
	})
	if err != nil {
		t.Fatalf("CreateSegment: %v", err)
	}
	if seg.SegmentID == "" {
		t.Fatalf("CreateSegment: empty id")
	}
	// Unattributed segment in the same window.
	if _, err := s.Segments().Create(ctx, &model.TimerSegment{
		UserID:   userID,
		Start:    start.Add(time.Hour),
		End:      start.Add(90 * time.Minute),
		Duration: 1800,
		Day:      day2,
		Type:     "focus",
	}); err != nil {
		t.Fatalf("CreateSegment unattributed: %v", err)
	}

	segs, err := s.Segments().List(ctx, userID, nil, nil)
	if err != nil || len(segs) != 2 {
		t.Fatalf("ListSegments: n=%d err=%v", len(segs), err)
	}

	totals, err := s.Segments().SumByFocusArea(ctx, userID, start.Add(-time.Hour), start.Add(2*time.Hour))
	if err != nil {
		t.Fatalf("SumByFocusArea: %v", err)
	}
	if len(totals) != 2 {
		t.Fatalf("SumByFocusArea groups = %d, want 2 (attributed + nil)", len(totals))
	}
	var sawNil, sawAttr bool
	for _, row := range totals {
		if row.FocusAreaID == nil {
			sawNil = true
		} else if *row.FocusAreaID == fa.FocusAreaID {
			sawAttr = true
		}
		if row.TotalDuration != 1800 {
			t.Fatalf("group duration = %d, want 1800", row.TotalDuration)
		}
	}
	if !sawNil || !sawAttr {
		t.Fatalf("SumByFocusArea missing groups: nil=%v attributed=%v", sawNil, sawAttr)
	}

	// Rebucketing support used by the legacy-day-key migration.
	if err := s.Segments().UpdateDay(ctx, userID, seg.SegmentID, day); err != nil {
		t.Fatalf("UpdateDay: %v", err)
	}
	if err := s.DailyTotals().DeleteForUser(ctx, userID); err != nil {
		t.Fatalf("DeleteForUser: %v", err)
	}
	if lst, err := s.DailyTotals().List(ctx, model.ListDailyTotalsRequest{UserID: userID}); err != nil || len(lst) != 0 {
		t.Fatalf("List after DeleteForUser: n=%d err=%v", len(lst), err)
	}
}
