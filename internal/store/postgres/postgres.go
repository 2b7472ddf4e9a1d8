package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/syncsphere/server/internal/model"
	"github.com/syncsphere/server/internal/store"
)

// Open opens a PostgreSQL connection using the pgx stdlib driver and verifies connectivity.
func Open(dsn string) (*sql.DB, error) {
	if dsn == "" {
		return nil, fmt.Errorf("postgres DSN is empty")
	}
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, err
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}

// NewWithDB constructs a native Postgres store backed directly by database/sql.
func NewWithDB(db *sql.DB) store.Store { return &pgStore{db: db} }

type pgStore struct{ db *sql.DB }

func (s *pgStore) Users() store.Users             { return &users{db: s.db} }
func (s *pgStore) FocusAreas() store.FocusAreas   { return &focusAreas{db: s.db} }
func (s *pgStore) DailyTotals() store.DailyTotals { return &dailyTotals{db: s.db} }
func (s *pgStore) Segments() store.Segments       { return &segments{db: s.db} }

// HealthPing implements health.HealthPinger for the Postgres-backed store.
func (s *pgStore) HealthPing(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// storeErr maps driver errors onto the model sentinels: missing rows become
// ErrNotFound, unique violations ErrConflict, everything else ErrStorage.
func storeErr(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return model.ErrNotFound
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return fmt.Errorf("%w: %v", model.ErrConflict, err)
	}
	return fmt.Errorf("%w: %v", model.ErrStorage, err)
}

// --- Users ---
type users struct{ db *sql.DB }

func (u *users) Create(ctx context.Context, m *model.User) (*model.User, error) {
	var created time.Time
	row := u.db.QueryRowContext(ctx, `
        INSERT INTO users (user_id, email, display_name, time_zone, reset_hour, status)
        VALUES ($1,$2,$3,$4,$5,'ACTIVE')
        RETURNING creation_time
    `, m.UserID, m.Email, m.DisplayName, m.TimeZone, m.ResetHour)
	if err := row.Scan(&created); err != nil {
		return nil, storeErr(err)
	}
	out := *m
	out.Status = "ACTIVE"
	out.CreationTime = created
	return &out, nil
}

func (u *users) Get(ctx context.Context, userID string) (*model.User, error) {
	var out model.User
	var last *time.Time
	row := u.db.QueryRowContext(ctx, `
        SELECT user_id, email, display_name, time_zone, reset_hour, status, creation_time, last_active_time
        FROM users WHERE user_id=$1
    `, userID)
	if err := row.Scan(&out.UserID, &out.Email, &out.DisplayName, &out.TimeZone, &out.ResetHour, &out.Status, &out.CreationTime, &last); err != nil {
		return nil, storeErr(err)
	}
	out.LastActiveTime = last
	return &out, nil
}

func (u *users) List(ctx context.Context) ([]*model.User, error) {
	rows, err := u.db.QueryContext(ctx, `
        SELECT user_id, email, display_name, time_zone, reset_hour, status, creation_time, last_active_time
        FROM users ORDER BY creation_time
    `)
	if err != nil {
		return nil, storeErr(err)
	}
	defer func() { _ = rows.Close() }()
	var out []*model.User
	for rows.Next() {
		var m model.User
		var last *time.Time
		if err := rows.Scan(&m.UserID, &m.Email, &m.DisplayName, &m.TimeZone, &m.ResetHour, &m.Status, &m.CreationTime, &last); err != nil {
			return nil, storeErr(err)
		}
		m.LastActiveTime = last
		out = append(out, &m)
	}
	return out, storeErr(rows.Err())
}

func (u *users) UpdateDaySettings(ctx context.Context, userID, timeZone string, resetHour int) (*model.User, error) {
	res, err := u.db.ExecContext(ctx, `
        UPDATE users SET time_zone=$2, reset_hour=$3 WHERE user_id=$1
    `, userID, timeZone, resetHour)
	if err != nil {
		return nil, storeErr(err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return nil, model.ErrNotFound
	}
	return u.Get(ctx, userID)
}

func (u *users) Delete(ctx context.Context, userID string) error {
	res, err := u.db.ExecContext(ctx, `DELETE FROM users WHERE user_id=$1`, userID)
	if err != nil {
		return storeErr(err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return model.ErrNotFound
	}
	return nil
}

// --- FocusAreas ---
type focusAreas struct{ db *sql.DB }

func (f *focusAreas) Create(ctx context.Context, m *model.FocusArea) (*model.FocusArea, error) {
	id := m.FocusAreaID
	if id == "" {
		id = uuid.New().String()
	}
	var created time.Time
	row := f.db.QueryRowContext(ctx, `
        INSERT INTO focus_areas (focus_area_id, user_id, name, color)
        VALUES ($1,$2,$3,$4)
        RETURNING creation_time
    `, id, m.UserID, m.Name, m.Color)
	if err := row.Scan(&created); err != nil {
		return nil, storeErr(err)
	}
	return &model.FocusArea{FocusAreaID: id, UserID: m.UserID, Name: m.Name, Color: m.Color, CreationTime: created}, nil
}

func (f *focusAreas) Get(ctx context.Context, userID, focusAreaID string) (*model.FocusArea, error) {
	var out model.FocusArea
	row := f.db.QueryRowContext(ctx, `
        SELECT focus_area_id, user_id, name, color, creation_time
        FROM focus_areas WHERE user_id=$1 AND focus_area_id=$2
    `, userID, focusAreaID)
	if err := row.Scan(&out.FocusAreaID, &out.UserID, &out.Name, &out.Color, &out.CreationTime); err != nil {
		return nil, storeErr(err)
	}
	return &out, nil
}

func (f *focusAreas) List(ctx context.Context, userID string) ([]*model.FocusArea, error) {
	rows, err := f.db.QueryContext(ctx, `
        SELECT focus_area_id, user_id, name, color, creation_time
        FROM focus_areas WHERE user_id=$1 ORDER BY creation_time
    `, userID)
	if err != nil {
		return nil, storeErr(err)
	}
	defer func() { _ = rows.Close() }()
	var out []*model.FocusArea
	for rows.Next() {
		var m model.FocusArea
		if err := rows.Scan(&m.FocusAreaID, &m.UserID, &m.Name, &m.Color, &m.CreationTime); err != nil {
			return nil, storeErr(err)
		}
		out = append(out, &m)
	}
	return out, storeErr(rows.Err())
}

func (f *focusAreas) Delete(ctx context.Context, userID, focusAreaID string) error {
	res, err := f.db.ExecContext(ctx, `
        DELETE FROM focus_areas WHERE user_id=$1 AND focus_area_id=$2
    `, userID, focusAreaID)
	if err != nil {
		return storeErr(err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return model.ErrNotFound
	}
	return nil
}

// --- DailyTotals ---
type dailyTotals struct{ db *sql.DB }

// Upsert overwrites the row for (user_id, day). The unique key plus
// ON CONFLICT makes concurrent upserts serialize inside Postgres.
func (d *dailyTotals) Upsert(ctx context.Context, m *model.DailyTotal) (*model.DailyTotal, error) {
	var out model.DailyTotal
	row := d.db.QueryRowContext(ctx, `
        INSERT INTO daily_totals (user_id, day, total_seconds, is_running, start_timestamp, update_time)
        VALUES ($1,$2,$3,$4,$5,now())
        ON CONFLICT (user_id, day) DO UPDATE
        SET total_seconds=EXCLUDED.total_seconds,
            is_running=EXCLUDED.is_running,
            start_timestamp=EXCLUDED.start_timestamp,
            update_time=now()
        RETURNING user_id, day, total_seconds, is_running, start_timestamp, update_time
    `, m.UserID, m.Day.UTC(), m.TotalSeconds, m.IsRunning, m.StartTimestamp)
	if err := row.Scan(&out.UserID, &out.Day, &out.TotalSeconds, &out.IsRunning, &out.StartTimestamp, &out.UpdateTime); err != nil {
		return nil, storeErr(err)
	}
	out.Day = out.Day.UTC()
	return &out, nil
}

// Add folds seconds into the row for (user_id, day), creating it lazily.
func (d *dailyTotals) Add(ctx context.Context, userID string, day time.Time, seconds int64) (*model.DailyTotal, error) {
	var out model.DailyTotal
	row := d.db.QueryRowContext(ctx, `
        INSERT INTO daily_totals (user_id, day, total_seconds, is_running, update_time)
        VALUES ($1,$2,$3,false,now())
        ON CONFLICT (user_id, day) DO UPDATE
        SET total_seconds=daily_totals.total_seconds+EXCLUDED.total_seconds,
            update_time=now()
        RETURNING user_id, day, total_seconds, is_running, start_timestamp, update_time
    `, userID, day.UTC(), seconds)
	if err := row.Scan(&out.UserID, &out.Day, &out.TotalSeconds, &out.IsRunning, &out.StartTimestamp, &out.UpdateTime); err != nil {
		return nil, storeErr(err)
	}
	out.Day = out.Day.UTC()
	return &out, nil
}

func (d *dailyTotals) Get(ctx context.Context, userID string, day time.Time) (*model.DailyTotal, error) {
	var out model.DailyTotal
	row := d.db.QueryRowContext(ctx, `
        SELECT user_id, day, total_seconds, is_running, start_timestamp, update_time
        FROM daily_totals WHERE user_id=$1 AND day=$2
    `, userID, day.UTC())
	if err := row.Scan(&out.UserID, &out.Day, &out.TotalSeconds, &out.IsRunning, &out.StartTimestamp, &out.UpdateTime); err != nil {
		return nil, storeErr(err)
	}
	out.Day = out.Day.UTC()
	return &out, nil
}

func (d *dailyTotals) List(ctx context.Context, req model.ListDailyTotalsRequest) ([]*model.DailyTotal, error) {
	q := `SELECT user_id, day, total_seconds, is_running, start_timestamp, update_time
          FROM daily_totals WHERE user_id=$1`
	args := []interface{}{req.UserID}
	if req.From != nil {
		args = append(args, req.From.UTC())
		q += fmt.Sprintf(" AND day >= $%d", len(args))
	}
	if req.To != nil {
		args = append(args, req.To.UTC())
		q += fmt.Sprintf(" AND day < $%d", len(args))
	}
	q += " ORDER BY day"
	rows, err := d.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, storeErr(err)
	}
	defer func() { _ = rows.Close() }()
	var out []*model.DailyTotal
	for rows.Next() {
		var m model.DailyTotal
		if err := rows.Scan(&m.UserID, &m.Day, &m.TotalSeconds, &m.IsRunning, &m.StartTimestamp, &m.UpdateTime); err != nil {
			return nil, storeErr(err)
		}
		m.Day = m.Day.UTC()
		out = append(out, &m)
	}
	return out, storeErr(rows.Err())
}

func (d *dailyTotals) DeleteForUser(ctx context.Context, userID string) error {
	_, err := d.db.ExecContext(ctx, `DELETE FROM daily_totals WHERE user_id=$1`, userID)
	return storeErr(err)
}

// --- Segments ---
type segments struct{ db *sql.DB }

func (s *segments) Create(ctx context.Context, m *model.TimerSegment) (*model.TimerSegment, error) {
	id := m.SegmentID
	if id == "" {
		id = uuid.New().String()
	}
	var created time.Time
	row := s.db.QueryRowContext(ctx, `
        INSERT INTO timer_segments (segment_id, user_id, focus_area_id, start_time, end_time, duration, day, seg_type, label)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
        RETURNING creation_time
    `, id, m.UserID, m.FocusAreaID, m.Start.UTC(), m.End.UTC(), m.Duration, m.Day.UTC(), m.Type, m.Label)
	if err := row.Scan(&created); err != nil {
		return nil, storeErr(err)
	}
	out := *m
	out.SegmentID = id
	out.CreationTime = created
	return &out, nil
}

func (s *segments) List(ctx context.Context, userID string, from, to *time.Time) ([]*model.TimerSegment, error) {
	q := `SELECT segment_id, user_id, focus_area_id, start_time, end_time, duration, day, seg_type, label, creation_time
          FROM timer_segments WHERE user_id=$1`
	args := []interface{}{userID}
	if from != nil {
		args = append(args, from.UTC())
		q += fmt.Sprintf(" AND start_time >= $%d", len(args))
	}
	if to != nil {
		args = append(args, to.UTC())
		q += fmt.Sprintf(" AND start_time < $%d", len(args))
	}
	q += " ORDER BY start_time"
	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, storeErr(err)
	}
	defer func() { _ = rows.Close() }()
	var out []*model.TimerSegment
	for rows.Next() {
		var m model.TimerSegment
		if err := rows.Scan(&m.SegmentID, &m.UserID, &m.FocusAreaID, &m.Start, &m.End, &m.Duration, &m.Day, &m.Type, &m.Label, &m.CreationTime); err != nil {
			return nil, storeErr(err)
		}
		m.Start, m.End, m.Day = m.Start.UTC(), m.End.UTC(), m.Day.UTC()
		out = append(out, &m)
	}
	return out, storeErr(rows.Err())
}

// SumByFocusArea groups segment durations by focus area over segments whose
// start falls inside [from, to). NULL focus areas form their own group.
func (s *segments) SumByFocusArea(ctx context.Context, userID string, from, to time.Time) ([]*model.FocusAreaTotal, error) {
	rows, err := s.db.QueryContext(ctx, `
        SELECT focus_area_id, SUM(duration)
        FROM timer_segments
        WHERE user_id=$1 AND start_time >= $2 AND start_time < $3
        GROUP BY focus_area_id
        ORDER BY focus_area_id NULLS FIRST
    `, userID, from.UTC(), to.UTC())
	if err != nil {
		return nil, storeErr(err)
	}
	defer func() { _ = rows.Close() }()
	var out []*model.FocusAreaTotal
	for rows.Next() {
		var m model.FocusAreaTotal
		if err := rows.Scan(&m.FocusAreaID, &m.TotalDuration); err != nil {
			return nil, storeErr(err)
		}
		out = append(out, &m)
	}
	return out, storeErr(rows.Err())
}

func (s *segments) UpdateDay(ctx context.Context, userID, segmentID string, day time.Time) error {
	res, err := s.db.ExecContext(ctx, `
        UPDATE timer_segments SET day=$3 WHERE user_id=$1 AND segment_id=$2
    `, userID, segmentID, day.UTC())
	if err != nil {
		return storeErr(err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return model.ErrNotFound
	}
	return nil
}
