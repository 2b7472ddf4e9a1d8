package userday

import (
	"errors"
	"testing"
	"time"

	"github.com/syncsphere/server/internal/model"
)

func TestSplit_SingleDay(t *testing.T) {
	// 23:00Z-02:00Z sits entirely inside one Kolkata day (04:30-07:30 local
	// on Jan 2); the day key is local midnight Jan 2 expressed in UTC.
	cfg := Config{TimeZone: "Asia/Kolkata", ResetHour: 0}
	got, err := Split(mustUTC(t, "2024-01-01T23:00:00Z"), mustUTC(t, "2024-01-02T02:00:00Z"), cfg)
	if err != nil {
		t.Fatalf("Split: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("entries = %d, want 1 (%+v)", len(got), got)
	}
	if want := mustUTC(t, "2024-01-01T18:30:00Z"); !got[0].Day.Equal(want) {
		t.Fatalf("day key = %v, want %v", got[0].Day, want)
	}
	if got[0].Seconds != 10800 {
		t.Fatalf("seconds = %d, want 10800", got[0].Seconds)
	}
}

func TestSplit_CrossesResetBoundary(t *testing.T) {
	cfg := Config{TimeZone: "UTC", ResetHour: 0}
	got, err := Split(mustUTC(t, "2024-01-01T23:30:00Z"), mustUTC(t, "2024-01-02T00:30:00Z"), cfg)
	if err != nil {
		t.Fatalf("Split: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("entries = %d, want 2 (%+v)", len(got), got)
	}
	if want := mustUTC(t, "2024-01-01T00:00:00Z"); !got[0].Day.Equal(want) || got[0].Seconds != 1800 {
		t.Fatalf("first entry = %+v, want {%v 1800}", got[0], want)
	}
	if want := mustUTC(t, "2024-01-02T00:00:00Z"); !got[1].Day.Equal(want) || got[1].Seconds != 1800 {
		t.Fatalf("second entry = %+v, want {%v 1800}", got[1], want)
	}
}

func TestSplit_MultiDaySession(t *testing.T) {
	cfg := Config{TimeZone: "UTC", ResetHour: 6}
	start := mustUTC(t, "2024-01-01T05:00:00Z")
	end := mustUTC(t, "2024-01-03T07:00:00Z") // spans four buckets
	got, err := Split(start, end, cfg)
	if err != nil {
		t.Fatalf("Split: %v", err)
	}
	if len(got) != 4 {
		t.Fatalf("entries = %d, want 4 (%+v)", len(got), got)
	}
	var sum int64
	for i, c := range got {
		if c.Seconds <= 0 {
			t.Fatalf("entry %d has non-positive seconds: %+v", i, c)
		}
		sum += c.Seconds
	}
	if want := int64(end.Sub(start) / time.Second); sum != want {
		t.Fatalf("total seconds = %d, want %d", sum, want)
	}
	// Entries appear in chronological first-occurrence order.
	for i := 1; i < len(got); i++ {
		if !got[i-1].Day.Before(got[i].Day) {
			t.Fatalf("day keys out of order: %v then %v", got[i-1].Day, got[i].Day)
		}
	}
}

func TestSplit_FallBackNight(t *testing.T) {
	// Paris repeats 02:00-03:00 local on Oct 27 2024, so that local day runs
	// 25 real hours (2024-10-26T22:00Z to 2024-10-27T23:00Z). A session
	// crossing it must still land one entry per local day, with the extra
	// hour counted toward Oct 27.
	cfg := Config{TimeZone: "Europe/Paris", ResetHour: 0}
	got, err := Split(mustUTC(t, "2024-10-27T22:30:00Z"), mustUTC(t, "2024-10-29T10:00:00Z"), cfg)
	if err != nil {
		t.Fatalf("Split: %v", err)
	}
	want := []Contribution{
		{Day: mustUTC(t, "2024-10-26T22:00:00Z"), Seconds: 1800},
		{Day: mustUTC(t, "2024-10-27T23:00:00Z"), Seconds: 86400},
		{Day: mustUTC(t, "2024-10-28T23:00:00Z"), Seconds: 39600},
	}
	if len(got) != len(want) {
		t.Fatalf("entries = %+v, want %+v", got, want)
	}
	for i := range want {
		if !got[i].Day.Equal(want[i].Day) || got[i].Seconds != want[i].Seconds {
			t.Fatalf("entry %d = %+v, want %+v", i, got[i], want[i])
		}
	}
}

func TestSplit_SpringForwardDay(t *testing.T) {
	// Paris skips 02:00-03:00 local on Mar 31 2024: that local day is only 23
	// real hours (2024-03-30T23:00Z to 2024-03-31T22:00Z), so time past
	// 22:00Z belongs to Apr 1.
	cfg := Config{TimeZone: "Europe/Paris", ResetHour: 0}
	got, err := Split(mustUTC(t, "2024-03-31T21:00:00Z"), mustUTC(t, "2024-03-31T23:00:00Z"), cfg)
	if err != nil {
		t.Fatalf("Split: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("entries = %d, want 2 (%+v)", len(got), got)
	}
	if want := mustUTC(t, "2024-03-30T23:00:00Z"); !got[0].Day.Equal(want) || got[0].Seconds != 3600 {
		t.Fatalf("first entry = %+v, want {%v 3600}", got[0], want)
	}
	if want := mustUTC(t, "2024-03-31T22:00:00Z"); !got[1].Day.Equal(want) || got[1].Seconds != 3600 {
		t.Fatalf("second entry = %+v, want {%v 3600}", got[1], want)
	}
}

func TestSplit_SumMatchesFlooredInterval(t *testing.T) {
	cfg := Config{TimeZone: "America/New_York", ResetHour: 4}
	start := mustUTC(t, "2024-03-09T12:00:00.700Z")
	end := mustUTC(t, "2024-03-11T15:30:10.250Z") // crosses spring-forward
	got, err := Split(start, end, cfg)
	if err != nil {
		t.Fatalf("Split: %v", err)
	}
	var sum int64
	for _, c := range got {
		sum += c.Seconds
	}
	whole := int64(end.Sub(start) / time.Second)
	boundaries := int64(len(got) - 1)
	if sum > whole || sum < whole-boundaries {
		t.Fatalf("sum = %d, want within [%d, %d]", sum, whole-boundaries, whole)
	}
}

func TestSplit_SubSecondIntervalDropped(t *testing.T) {
	cfg := Config{TimeZone: "UTC", ResetHour: 0}
	start := mustUTC(t, "2024-01-01T10:00:00Z")
	got, err := Split(start, start.Add(400*time.Millisecond), cfg)
	if err != nil {
		t.Fatalf("Split: %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("entries = %+v, want none for sub-second interval", got)
	}
}

func TestSplit_NonChronologicalIsNoop(t *testing.T) {
	cfg := Config{TimeZone: "UTC", ResetHour: 0}
	at := mustUTC(t, "2024-01-01T10:00:00Z")
	for _, end := range []time.Time{at, at.Add(-time.Hour)} {
		got, err := Split(at, end, cfg)
		if err != nil {
			t.Fatalf("Split: %v", err)
		}
		if len(got) != 0 {
			t.Fatalf("entries = %+v, want none for end <= start", got)
		}
	}
}

func TestSplit_InvalidTimezone(t *testing.T) {
	at := mustUTC(t, "2024-01-01T10:00:00Z")
	_, err := Split(at, at.Add(time.Hour), Config{TimeZone: "Not/AZone", ResetHour: 0})
	if !errors.Is(err, model.ErrConfiguration) {
		t.Fatalf("got %v, want ErrConfiguration", err)
	}
}
