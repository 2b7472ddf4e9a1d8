package model

import "time"

// User represents an account in the system.
type User struct {
	UserID         string     `json:"userId"`
	Email          string     `json:"email"`
	DisplayName    *string    `json:"displayName,omitempty"`
	TimeZone       string     `json:"timeZone"`
	ResetHour      int        `json:"resetHour"`
	Status         string     `json:"status"`
	CreationTime   time.Time  `json:"creationTime"`
	LastActiveTime *time.Time `json:"lastActiveTime,omitempty"`
}

// FocusArea is a user-owned label for grouping focused time.
// Segments reference focus areas but do not own them.
type FocusArea struct {
	FocusAreaID  string    `json:"focusAreaId"`
	UserID       string    `json:"userId"`
	Name         string    `json:"name"`
	Color        *string   `json:"color,omitempty"`
	CreationTime time.Time `json:"creationTime"`
}

// DailyTotal is the per-user-day accumulator for focused seconds.
// Day is the UTC instant of the user-day start and acts as an opaque
// grouping key, not a display date. At most one row exists per
// (UserID, Day) pair; rows are created lazily on first activity.
type DailyTotal struct {
	UserID         string     `json:"userId"`
	Day            time.Time  `json:"day"`
	TotalSeconds   int64      `json:"totalSeconds"`
	IsRunning      bool       `json:"isRunning"`
	StartTimestamp *time.Time `json:"startTimestamp,omitempty"`
	UpdateTime     time.Time  `json:"updateTime"`
}

// TimerSegment is one contiguous recorded interval of focused time.
// A real-world session that crosses a user-day boundary is stored as
// multiple segments, one per day key, whose durations sum to the
// original session length.
type TimerSegment struct {
	SegmentID    string    `json:"segmentId"`
	UserID       string    `json:"userId"`
	FocusAreaID  *string   `json:"focusAreaId,omitempty"`
	Start        time.Time `json:"start"`
	End          time.Time `json:"end"`
	Duration     int64     `json:"duration"`
	Day          time.Time `json:"day"`
	Type         string    `json:"type"`
	Label        *string   `json:"label,omitempty"`
	CreationTime time.Time `json:"creationTime"`
}

// FocusAreaTotal is one row of a focus-area rollup. A nil FocusAreaID
// groups unattributed time.
type FocusAreaTotal struct {
	FocusAreaID   *string `json:"focusAreaId"`
	TotalDuration int64   `json:"totalDuration"`
}

// ListDailyTotalsRequest captures filters used when listing daily totals.
type ListDailyTotalsRequest struct {
	UserID string
	From   *time.Time
	To     *time.Time
}
