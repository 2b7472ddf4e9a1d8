// Package userday implements user-local day accounting: deciding which
// "day" an instant belongs to given a per-user timezone and reset hour,
// and splitting timer intervals across day boundaries.
package userday

import (
	"fmt"
	"time"

	"github.com/syncsphere/server/internal/model"
)

// Defaults applied by callers when a user profile has no day settings.
const (
	DefaultTimeZone  = "Asia/Kolkata"
	DefaultResetHour = 0
)

// Config holds a user's day-accounting settings. It is immutable per
// computation; changing it does not re-bucket historical data.
type Config struct {
	TimeZone  string
	ResetHour int
}

// DefaultConfig returns the settings used for users without a profile.
func DefaultConfig() Config {
	return Config{TimeZone: DefaultTimeZone, ResetHour: DefaultResetHour}
}

// Location resolves the configured timezone and validates the reset hour.
// Invalid settings fail with model.ErrConfiguration rather than silently
// falling back to a default.
func (c Config) Location() (*time.Location, error) {
	if c.ResetHour < 0 || c.ResetHour > 23 {
		return nil, fmt.Errorf("%w: reset hour %d outside 0..23", model.ErrConfiguration, c.ResetHour)
	}
	loc, err := time.LoadLocation(c.TimeZone)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid timezone %q: %v", model.ErrConfiguration, c.TimeZone, err)
	}
	return loc, nil
}

// DayRange is one user day as a half-open UTC interval [StartUTC, EndUTC).
// EndUTC is always exactly StartUTC plus 24 hours; across a DST transition
// the local wall-clock day may read as 23 or 25 hours, which is accepted
// because totals are accumulated in absolute elapsed time.
type DayRange struct {
	StartUTC time.Time `json:"startUtc"`
	EndUTC   time.Time `json:"endUtc"`
}

// Contains reports whether t falls within the half-open range.
func (r DayRange) Contains(t time.Time) bool {
	return !t.Before(r.StartUTC) && t.Before(r.EndUTC)
}

// DayRangeFor computes the user day containing ref. StartUTC is the instant
// whose local wall-clock time in cfg.TimeZone is ResetHour:00 on the local
// date of ref, shifted back one local date when ref's local hour is before
// the reset hour.
func DayRangeFor(cfg Config, ref time.Time) (DayRange, error) {
	loc, err := cfg.Location()
	if err != nil {
		return DayRange{}, err
	}
	return dayRangeIn(cfg.ResetHour, loc, ref), nil
}

// dayRangeIn is the resolved-location core shared with Split so the zone
// lookup happens once per call chain.
func dayRangeIn(resetHour int, loc *time.Location, ref time.Time) DayRange {
	local := ref.In(loc)
	start := time.Date(local.Year(), local.Month(), local.Day(), resetHour, 0, 0, 0, loc)
	if local.Hour() < resetHour {
		start = start.AddDate(0, 0, -1)
	}
	startUTC := start.UTC()
	return DayRange{StartUTC: startUTC, EndUTC: startUTC.Add(24 * time.Hour)}
}

// NormalizeLegacy returns UTC midnight of the calendar date obtained by
// viewing t at a fixed UTC+5:30 offset, regardless of the owner's actual
// timezone. This is the grouping key used before per-user timezone support
// existed; it is retained only so historical rows remain readable and is
// never used on new write paths. See migrate.LegacyDayKeys.
func NormalizeLegacy(t time.Time) time.Time {
	lt := t.In(legacyOffset)
	return time.Date(lt.Year(), lt.Month(), lt.Day(), 0, 0, 0, 0, time.UTC)
}

var legacyOffset = time.FixedZone("UTC+05:30", 5*3600+30*60)
