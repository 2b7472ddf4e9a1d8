package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/syncsphere/server/internal/model"
	"github.com/syncsphere/server/internal/store"
	"github.com/syncsphere/server/internal/userday"
)

// Notifier receives best-effort events when a day total changes.
// Implementations must be safe for concurrent use. Delivery is fire-and-
// forget from the timer service's point of view.
type Notifier interface {
	DayTotalUpdated(ctx context.Context, userID string, day time.Time, totalSeconds int64) error
}

// TimerService owns the daily/segment aggregation flows: splitting stopped
// sessions across user-day boundaries, folding the pieces into daily totals,
// and the simple-timer start/stop path that overwrites a single bucket.
type TimerService struct {
	store    store.Store
	notifier Notifier
	log      zerolog.Logger
}

func NewTimerService(s store.Store, n Notifier, log zerolog.Logger) *TimerService {
	return &TimerService{store: s, notifier: n, log: log}
}

// RecordSegmentRequest is a timer stop or sync event reported by a client or
// observed by the server. Clock skew between the two is not validated here.
type RecordSegmentRequest struct {
	UserID      string
	FocusAreaID *string
	Start       time.Time
	End         time.Time
	Type        string
	Label       *string
}

// RecordSegment splits [Start, End) into per-user-day contributions, stores
// one TimerSegment per contribution and folds each one additively into its
// DailyTotal. A non-chronological interval is a no-op, not an error. Writes
// are per day bucket; there is no transaction across buckets, so a failure
// partway leaves earlier buckets committed.
func (s *TimerService) RecordSegment(ctx context.Context, req RecordSegmentRequest) ([]*model.TimerSegment, error) {
	cfg, err := s.dayConfigFor(ctx, req.UserID)
	if err != nil {
		return nil, err
	}
	contribs, err := userday.Split(req.Start, req.End, cfg)
	if err != nil {
		return nil, err
	}
	if len(contribs) == 0 {
		return nil, nil
	}

	segType := req.Type
	if segType == "" {
		segType = "focus"
	}

	out := make([]*model.TimerSegment, 0, len(contribs))
	for i, c := range contribs {
		// Contributions are contiguous, so each segment runs to the next
		// bucket's start instant; the last runs to the session end. Around
		// DST transitions the bucket boundary is not Day+24h.
		segEnd := req.End
		if i+1 < len(contribs) {
			segEnd = contribs[i+1].Day
		}
		seg := &model.TimerSegment{
			UserID:      req.UserID,
			FocusAreaID: req.FocusAreaID,
			Start:       laterOf(req.Start, c.Day),
			End:         segEnd,
			Duration:    c.Seconds,
			Day:         c.Day,
			Type:        segType,
			Label:       req.Label,
		}
		created, err := s.store.Segments().Create(ctx, seg)
		if err != nil {
			return out, err
		}
		out = append(out, created)

		total, err := s.store.DailyTotals().Add(ctx, req.UserID, c.Day, c.Seconds)
		if err != nil {
			return out, err
		}
		s.notifyDayTotal(ctx, total)
	}
	return out, nil
}

// UpsertDailyTotal is the simple-timer flow: it overwrites the bucket
// wholesale and is idempotent on (userID, day).
func (s *TimerService) UpsertDailyTotal(ctx context.Context, userID string, day time.Time, totalSeconds int64, isRunning bool, startTimestamp *time.Time) (*model.DailyTotal, error) {
	if totalSeconds < 0 {
		return nil, fmt.Errorf("%w: totalSeconds must be non-negative", model.ErrValidation)
	}
	total, err := s.store.DailyTotals().Upsert(ctx, &model.DailyTotal{
		UserID:         userID,
		Day:            day,
		TotalSeconds:   totalSeconds,
		IsRunning:      isRunning,
		StartTimestamp: startTimestamp,
	})
	if err != nil {
		return nil, err
	}
	s.notifyDayTotal(ctx, total)
	return total, nil
}

// StartTimer marks the user-day bucket containing at as running. A bucket
// that is already running rejects the second start, keeping at most one
// running timer per user.
func (s *TimerService) StartTimer(ctx context.Context, userID string, at time.Time) (*model.DailyTotal, error) {
	cfg, err := s.dayConfigFor(ctx, userID)
	if err != nil {
		return nil, err
	}
	if running, err := s.findRunning(ctx, userID); err != nil {
		return nil, err
	} else if running != nil {
		return nil, fmt.Errorf("%w: timer already running since %v", model.ErrConflict, running.StartTimestamp)
	}

	r, err := userday.DayRangeFor(cfg, at)
	if err != nil {
		return nil, err
	}
	existing := int64(0)
	if cur, err := s.store.DailyTotals().Get(ctx, userID, r.StartUTC); err == nil {
		existing = cur.TotalSeconds
	} else if !isNotFound(err) {
		return nil, err
	}
	return s.store.DailyTotals().Upsert(ctx, &model.DailyTotal{
		UserID:         userID,
		Day:            r.StartUTC,
		TotalSeconds:   existing,
		IsRunning:      true,
		StartTimestamp: &at,
	})
}

// StopTimer ends the running timer at the given instant, records the elapsed
// interval as segments (splitting across day boundaries) and clears the
// running flag on the bucket that carried it.
func (s *TimerService) StopTimer(ctx context.Context, userID string, at time.Time, focusAreaID *string, label *string) ([]*model.TimerSegment, error) {
	running, err := s.findRunning(ctx, userID)
	if err != nil {
		return nil, err
	}
	if running == nil || running.StartTimestamp == nil {
		return nil, fmt.Errorf("%w: no running timer", model.ErrNotFound)
	}

	segs, err := s.RecordSegment(ctx, RecordSegmentRequest{
		UserID:      userID,
		FocusAreaID: focusAreaID,
		Start:       *running.StartTimestamp,
		End:         at,
		Label:       label,
	})
	if err != nil {
		return segs, err
	}

	// Re-read the bucket so the additive fold above is preserved when the
	// running flag is cleared.
	cur, err := s.store.DailyTotals().Get(ctx, userID, running.Day)
	if err != nil {
		return segs, err
	}
	cur.IsRunning = false
	cur.StartTimestamp = nil
	if _, err := s.store.DailyTotals().Upsert(ctx, cur); err != nil {
		return segs, err
	}
	return segs, nil
}

// GetDailyTotals lists buckets for a user, optionally bounded by day keys.
func (s *TimerService) GetDailyTotals(ctx context.Context, req model.ListDailyTotalsRequest) ([]*model.DailyTotal, error) {
	return s.store.DailyTotals().List(ctx, req)
}

// findRunning scans all of the user's buckets for one with the running flag
// set. A timer can be left running for an arbitrary number of days, so the
// scan must not be bounded by a day-key window.
func (s *TimerService) findRunning(ctx context.Context, userID string) (*model.DailyTotal, error) {
	lst, err := s.store.DailyTotals().List(ctx, model.ListDailyTotalsRequest{UserID: userID})
	if err != nil {
		return nil, err
	}
	for _, d := range lst {
		if d.IsRunning {
			return d, nil
		}
	}
	return nil, nil
}

func (s *TimerService) dayConfigFor(ctx context.Context, userID string) (userday.Config, error) {
	u, err := s.store.Users().Get(ctx, userID)
	if err != nil {
		return userday.Config{}, err
	}
	return DayConfigFor(u), nil
}

// notifyDayTotal delivers a best-effort event; failures are logged, never
// propagated into the write path.
func (s *TimerService) notifyDayTotal(ctx context.Context, total *model.DailyTotal) {
	if s.notifier == nil || total == nil {
		return
	}
	if err := s.notifier.DayTotalUpdated(ctx, total.UserID, total.Day, total.TotalSeconds); err != nil {
		s.log.Warn().Err(err).Str("user_id", total.UserID).Time("day", total.Day).Msg("day total notification failed")
	}
}

func isNotFound(err error) bool { return errors.Is(err, model.ErrNotFound) }

func laterOf(a, b time.Time) time.Time {
	if a.After(b) {
		return a
	}
	return b
}
