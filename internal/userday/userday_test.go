package userday

import (
	"errors"
	"testing"
	"time"

	"github.com/syncsphere/server/internal/model"
)

func mustUTC(t *testing.T, s string) time.Time {
	t.Helper()
	ts, err := time.Parse(time.RFC3339, s)
	if err != nil {
		t.Fatalf("parse %q: %v", s, err)
	}
	return ts.UTC()
}

func TestDayRangeFor_ExactlyTwentyFourHours(t *testing.T) {
	cfgs := []Config{
		{TimeZone: "UTC", ResetHour: 0},
		{TimeZone: "Asia/Kolkata", ResetHour: 0},
		{TimeZone: "America/New_York", ResetHour: 4},
		{TimeZone: "Europe/Paris", ResetHour: 23},
	}
	refs := []time.Time{
		time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2024, 3, 10, 7, 30, 0, 0, time.UTC),  // US spring forward
		time.Date(2024, 11, 3, 6, 15, 0, 0, time.UTC),  // US fall back
		time.Date(2024, 6, 15, 23, 59, 59, 0, time.UTC),
	}
	for _, cfg := range cfgs {
		for _, ref := range refs {
			r, err := DayRangeFor(cfg, ref)
			if err != nil {
				t.Fatalf("DayRangeFor(%+v, %v): %v", cfg, ref, err)
			}
			if got := r.EndUTC.Sub(r.StartUTC); got != 24*time.Hour {
				t.Fatalf("range length = %v, want 24h (cfg=%+v ref=%v)", got, cfg, ref)
			}
			if !r.Contains(ref) {
				t.Fatalf("range [%v,%v) does not contain ref %v (cfg=%+v)", r.StartUTC, r.EndUTC, ref, cfg)
			}
		}
	}
}

func TestDayRangeFor_ResetHourStartsLocalDay(t *testing.T) {
	cfg := Config{TimeZone: "America/New_York", ResetHour: 4}
	ref := time.Date(2024, 6, 15, 18, 0, 0, 0, time.UTC)
	r, err := DayRangeFor(cfg, ref)
	if err != nil {
		t.Fatalf("DayRangeFor: %v", err)
	}
	loc, _ := time.LoadLocation("America/New_York")
	if h := r.StartUTC.In(loc).Hour(); h != 4 {
		t.Fatalf("local hour at StartUTC = %d, want 4", h)
	}
}

func TestDayRangeFor_BeforeResetHourUsesPreviousDay(t *testing.T) {
	// Reference 05:00Z with resetHour 6 in UTC belongs to the previous bucket.
	cfg := Config{TimeZone: "UTC", ResetHour: 6}
	r, err := DayRangeFor(cfg, mustUTC(t, "2024-03-01T05:00:00Z"))
	if err != nil {
		t.Fatalf("DayRangeFor: %v", err)
	}
	if want := mustUTC(t, "2024-02-29T06:00:00Z"); !r.StartUTC.Equal(want) {
		t.Fatalf("StartUTC = %v, want %v", r.StartUTC, want)
	}
	if want := mustUTC(t, "2024-03-01T06:00:00Z"); !r.EndUTC.Equal(want) {
		t.Fatalf("EndUTC = %v, want %v", r.EndUTC, want)
	}
}

func TestDayRangeFor_IdempotentAtBoundary(t *testing.T) {
	cfg := Config{TimeZone: "Asia/Kolkata", ResetHour: 5}
	r1, err := DayRangeFor(cfg, mustUTC(t, "2024-07-04T12:00:00Z"))
	if err != nil {
		t.Fatalf("DayRangeFor: %v", err)
	}
	// Re-evaluating at the range's own start yields the same range.
	r2, err := DayRangeFor(cfg, r1.StartUTC)
	if err != nil {
		t.Fatalf("DayRangeFor at boundary: %v", err)
	}
	if !r1.StartUTC.Equal(r2.StartUTC) || !r1.EndUTC.Equal(r2.EndUTC) {
		t.Fatalf("boundary re-evaluation changed range: %+v vs %+v", r1, r2)
	}
}

func TestDayRangeFor_MonotoneStart(t *testing.T) {
	cfg := Config{TimeZone: "Europe/Paris", ResetHour: 3}
	ref := mustUTC(t, "2024-10-26T10:00:00Z") // spans the EU fall-back night
	r1, err := DayRangeFor(cfg, ref)
	if err != nil {
		t.Fatalf("DayRangeFor: %v", err)
	}
	r2, err := DayRangeFor(cfg, ref.Add(24*time.Hour))
	if err != nil {
		t.Fatalf("DayRangeFor +24h: %v", err)
	}
	if r2.StartUTC.Before(r1.StartUTC) {
		t.Fatalf("start moved backwards: %v then %v", r1.StartUTC, r2.StartUTC)
	}
}

func TestDayRangeFor_InvalidConfig(t *testing.T) {
	if _, err := DayRangeFor(Config{TimeZone: "Mars/Olympus", ResetHour: 0}, time.Now()); !errors.Is(err, model.ErrConfiguration) {
		t.Fatalf("invalid zone: got %v, want ErrConfiguration", err)
	}
	if _, err := DayRangeFor(Config{TimeZone: "UTC", ResetHour: 24}, time.Now()); !errors.Is(err, model.ErrConfiguration) {
		t.Fatalf("reset hour 24: got %v, want ErrConfiguration", err)
	}
	if _, err := DayRangeFor(Config{TimeZone: "UTC", ResetHour: -1}, time.Now()); !errors.Is(err, model.ErrConfiguration) {
		t.Fatalf("reset hour -1: got %v, want ErrConfiguration", err)
	}
}

func TestNormalizeLegacy(t *testing.T) {
	// 23:00Z is already the next calendar date at +05:30.
	got := NormalizeLegacy(mustUTC(t, "2024-01-01T23:00:00Z"))
	if want := mustUTC(t, "2024-01-02T00:00:00Z"); !got.Equal(want) {
		t.Fatalf("NormalizeLegacy = %v, want %v", got, want)
	}
	// 10:00Z stays on the same date.
	got = NormalizeLegacy(mustUTC(t, "2024-01-01T10:00:00Z"))
	if want := mustUTC(t, "2024-01-01T00:00:00Z"); !got.Equal(want) {
		t.Fatalf("NormalizeLegacy = %v, want %v", got, want)
	}
}
