package store

import (
	"context"
	"time"

	"github.com/syncsphere/server/internal/model"
)

// Store exposes persistence operations required by services.
// Implementations live under internal/store/<driver>/ (postgres, sqlite).
type Store interface {
	Users() Users
	FocusAreas() FocusAreas
	DailyTotals() DailyTotals
	Segments() Segments
}

type Users interface {
	Create(ctx context.Context, u *model.User) (*model.User, error)
	Get(ctx context.Context, userID string) (*model.User, error)
	List(ctx context.Context) ([]*model.User, error)
	UpdateDaySettings(ctx context.Context, userID, timeZone string, resetHour int) (*model.User, error)
	Delete(ctx context.Context, userID string) error
}

type FocusAreas interface {
	Create(ctx context.Context, f *model.FocusArea) (*model.FocusArea, error)
	Get(ctx context.Context, userID, focusAreaID string) (*model.FocusArea, error)
	List(ctx context.Context, userID string) ([]*model.FocusArea, error)
	Delete(ctx context.Context, userID, focusAreaID string) error
}

// DailyTotals persists per-user-day accumulators. Upsert and Add are both
// atomic on the (userID, day) unique key but differ in merge semantics:
// Upsert overwrites the stored totals wholesale (the simple-timer flow),
// Add folds seconds into the existing row, creating it when missing (the
// segment-recording flow).
type DailyTotals interface {
	Upsert(ctx context.Context, d *model.DailyTotal) (*model.DailyTotal, error)
	Add(ctx context.Context, userID string, day time.Time, seconds int64) (*model.DailyTotal, error)
	Get(ctx context.Context, userID string, day time.Time) (*model.DailyTotal, error)
	List(ctx context.Context, req model.ListDailyTotalsRequest) ([]*model.DailyTotal, error)
	DeleteForUser(ctx context.Context, userID string) error
}

type Segments interface {
	Create(ctx context.Context, s *model.TimerSegment) (*model.TimerSegment, error)
	List(ctx context.Context, userID string, from, to *time.Time) ([]*model.TimerSegment, error)
	SumByFocusArea(ctx context.Context, userID string, from, to time.Time) ([]*model.FocusAreaTotal, error)
	UpdateDay(ctx context.Context, userID, segmentID string, day time.Time) error
}
