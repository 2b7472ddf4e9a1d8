package userday

import "time"

// Contribution attributes whole seconds of a timer interval to one day key.
type Contribution struct {
	Day     time.Time `json:"date"`
	Seconds int64     `json:"seconds"`
}

// Split partitions the half-open interval [start, end) into per-user-day
// contributions, one entry per day key the interval overlaps, ordered by
// first occurrence. Each sub-interval is floored to whole seconds
// independently, so the summed result may undercount the interval by up to
// one second per boundary crossed. A non-chronological interval (end <=
// start) is treated as a zero-length session and yields an empty result,
// not an error.
func Split(start, end time.Time, cfg Config) ([]Contribution, error) {
	loc, err := cfg.Location()
	if err != nil {
		return nil, err
	}
	if !end.After(start) {
		return nil, nil
	}

	var out []Contribution
	seen := make(map[int64]int)
	cursor := start
	for cursor.Before(end) {
		day := dayRangeIn(cfg.ResetHour, loc, cursor)
		// The split boundary is the next local date's reset instant, not
		// day.EndUTC: around a DST transition the local day runs 23 or 25
		// real hours while the range stays fixed-width, and using the
		// fixed end would misattribute the difference.
		segEnd := nextResetAfter(day.StartUTC, cfg.ResetHour, loc)
		if end.Before(segEnd) {
			segEnd = end
		}
		if secs := int64(segEnd.Sub(cursor) / time.Second); secs > 0 {
			// Merge on the day key: boundary edge cases must never emit
			// two entries for the same day.
			if i, ok := seen[day.StartUTC.Unix()]; ok {
				out[i].Seconds += secs
			} else {
				seen[day.StartUTC.Unix()] = len(out)
				out = append(out, Contribution{Day: day.StartUTC, Seconds: secs})
			}
		}
		// The next reset instant is strictly after any cursor inside the
		// day, so the loop always advances toward end.
		cursor = segEnd
	}
	return out, nil
}

// nextResetAfter returns the UTC instant at which the local day starting at
// dayStartUTC actually ends: resetHour on the following local date.
func nextResetAfter(dayStartUTC time.Time, resetHour int, loc *time.Location) time.Time {
	local := dayStartUTC.In(loc)
	return time.Date(local.Year(), local.Month(), local.Day()+1, resetHour, 0, 0, 0, loc).UTC()
}
