package services

import (
	"context"
	"time"

	"github.com/syncsphere/server/internal/model"
	"github.com/syncsphere/server/internal/store"
	"github.com/syncsphere/server/internal/userday"
)

// ReportService builds read-side rollups over persisted segments.
type ReportService struct {
	store store.Store
}

func NewReportService(s store.Store) *ReportService { return &ReportService{store: s} }

// FocusAreaReport is the rollup for one user day.
type FocusAreaReport struct {
	Range  userday.DayRange        `json:"range"`
	Totals []*model.FocusAreaTotal `json:"totals"`
}

// AggregateByFocusArea sums segment durations grouped by focus area for
// segments whose start falls within the given range. Unattributed segments
// (nil focus area) form their own group.
func (s *ReportService) AggregateByFocusArea(ctx context.Context, userID string, r userday.DayRange) ([]*model.FocusAreaTotal, error) {
	return s.store.Segments().SumByFocusArea(ctx, userID, r.StartUTC, r.EndUTC)
}

// FocusAreaReportAt resolves the user day containing at and aggregates it.
func (s *ReportService) FocusAreaReportAt(ctx context.Context, userID string, at time.Time) (*FocusAreaReport, error) {
	u, err := s.store.Users().Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	r, err := userday.DayRangeFor(DayConfigFor(u), at)
	if err != nil {
		return nil, err
	}
	totals, err := s.AggregateByFocusArea(ctx, userID, r)
	if err != nil {
		return nil, err
	}
	return &FocusAreaReport{Range: r, Totals: totals}, nil
}

// ListSegments exposes raw segments for calendars and charts.
func (s *ReportService) ListSegments(ctx context.Context, userID string, from, to *time.Time) ([]*model.TimerSegment, error) {
	return s.store.Segments().List(ctx, userID, from, to)
}
