// Package migrate holds one-time data migrations run from the CLI.
package migrate

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/syncsphere/server/internal/model"
	"github.com/syncsphere/server/internal/services"
	"github.com/syncsphere/server/internal/store"
	"github.com/syncsphere/server/internal/userday"
)

// Result summarizes a LegacyDayKeys run.
type Result struct {
	UsersProcessed     int
	UsersSkipped       int
	SegmentsRebucketed int
	TotalsRekeyed      int
}

// LegacyDayKeys re-buckets rows recorded under the old fixed UTC+5:30
// normalizer onto per-user-timezone day keys, then rebuilds each user's
// daily totals: segment-backed totals are recomputed from their segments,
// totals without segments are re-keyed onto the user's day containing the
// legacy instant. Users with a timer currently running
// are skipped; the migration is meant to run while writes are quiesced.
// Safe to re-run: segments already on the correct key are left untouched.
func LegacyDayKeys(ctx context.Context, st store.Store, log zerolog.Logger) (*Result, error) {
	usersList, err := st.Users().List(ctx)
	if err != nil {
		return nil, err
	}

	res := &Result{}
	for _, u := range usersList {
		cfg := services.DayConfigFor(u)
		if _, err := cfg.Location(); err != nil {
			return res, fmt.Errorf("user %s: %w", u.UserID, err)
		}

		totals, err := st.DailyTotals().List(ctx, model.ListDailyTotalsRequest{UserID: u.UserID})
		if err != nil {
			return res, err
		}
		if hasRunning(totals) {
			log.Warn().Str("user_id", u.UserID).Msg("skipping user with running timer")
			res.UsersSkipped++
			continue
		}

		segs, err := st.Segments().List(ctx, u.UserID, nil, nil)
		if err != nil {
			return res, err
		}

		// Day keys the segments carried before re-bucketing: totals on
		// these keys are derivable from segments, the rest are not.
		segDays := make(map[int64]struct{}, len(segs))
		for _, seg := range segs {
			segDays[seg.Day.Unix()] = struct{}{}
		}

		rebuilt := make(map[int64]userday.Contribution)
		var order []int64
		for _, seg := range segs {
			r, err := userday.DayRangeFor(cfg, seg.Start)
			if err != nil {
				return res, err
			}
			if !r.StartUTC.Equal(seg.Day) {
				if err := st.Segments().UpdateDay(ctx, u.UserID, seg.SegmentID, r.StartUTC); err != nil {
					return res, err
				}
				res.SegmentsRebucketed++
			}
			key := r.StartUTC.Unix()
			if c, ok := rebuilt[key]; ok {
				c.Seconds += seg.Duration
				rebuilt[key] = c
			} else {
				rebuilt[key] = userday.Contribution{Day: r.StartUTC, Seconds: seg.Duration}
				order = append(order, key)
			}
		}

		// Totals written by the simple-timer overwrite flow have no backing
		// segments; re-key them onto the user's day containing the legacy
		// instant rather than dropping them.
		for _, d := range totals {
			if _, ok := segDays[d.Day.Unix()]; ok {
				continue
			}
			r, err := userday.DayRangeFor(cfg, d.Day)
			if err != nil {
				return res, err
			}
			key := r.StartUTC.Unix()
			if c, ok := rebuilt[key]; ok {
				c.Seconds += d.TotalSeconds
				rebuilt[key] = c
			} else {
				rebuilt[key] = userday.Contribution{Day: r.StartUTC, Seconds: d.TotalSeconds}
				order = append(order, key)
			}
			if !r.StartUTC.Equal(d.Day) {
				res.TotalsRekeyed++
			}
		}

		// Segment-backed totals are derived data; rebuild them from the
		// re-bucketed segments.
		if err := st.DailyTotals().DeleteForUser(ctx, u.UserID); err != nil {
			return res, err
		}
		for _, key := range order {
			c := rebuilt[key]
			if _, err := st.DailyTotals().Add(ctx, u.UserID, c.Day, c.Seconds); err != nil {
				return res, err
			}
		}

		res.UsersProcessed++
		log.Info().Str("user_id", u.UserID).Int("segments", len(segs)).Msg("user re-bucketed")
	}
	return res, nil
}

func hasRunning(totals []*model.DailyTotal) bool {
	for _, d := range totals {
		if d.IsRunning {
			return true
		}
	}
	return false
}
