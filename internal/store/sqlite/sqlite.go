package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/syncsphere/server/internal/model"
	"github.com/syncsphere/server/internal/store"
)

// Open opens (or creates) a SQLite database at the given path and enables WAL
// journal mode. The URI parameters improve concurrency for read-heavy workloads.
func Open(path string) (*sql.DB, error) {
	// ensure parent directory exists to avoid SQLITE_CANTOPEN errors
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}

	dsn := fmt.Sprintf("file:%s?_pragma=journal_mode(WAL)&_pragma=foreign_keys(ON)", path)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}

const schema = `
CREATE TABLE IF NOT EXISTS users (
    user_id          TEXT PRIMARY KEY,
    email            TEXT NOT NULL UNIQUE,
    display_name     TEXT,
    time_zone        TEXT NOT NULL,
    reset_hour       INTEGER NOT NULL DEFAULT 0,
    status           TEXT NOT NULL,
    creation_time    TIMESTAMP NOT NULL,
    last_active_time TIMESTAMP
);
CREATE TABLE IF NOT EXISTS focus_areas (
    focus_area_id TEXT PRIMARY KEY,
    user_id       TEXT NOT NULL REFERENCES users(user_id) ON DELETE CASCADE,
    name          TEXT NOT NULL,
    color         TEXT,
    creation_time TIMESTAMP NOT NULL
);
CREATE TABLE IF NOT EXISTS daily_totals (
    user_id         TEXT NOT NULL REFERENCES users(user_id) ON DELETE CASCADE,
    day             TIMESTAMP NOT NULL,
    total_seconds   INTEGER NOT NULL DEFAULT 0,
    is_running      INTEGER NOT NULL DEFAULT 0,
    start_timestamp TIMESTAMP,
    update_time     TIMESTAMP NOT NULL,
    PRIMARY KEY (user_id, day)
);
CREATE TABLE IF NOT EXISTS timer_segments (
    segment_id    TEXT PRIMARY KEY,
    user_id       TEXT NOT NULL REFERENCES users(user_id) ON DELETE CASCADE,
    focus_area_id TEXT REFERENCES focus_areas(focus_area_id) ON DELETE SET NULL,
    start_time    TIMESTAMP NOT NULL,
    end_time      TIMESTAMP NOT NULL,
    duration      INTEGER NOT NULL,
    day           TIMESTAMP NOT NULL,
    seg_type      TEXT NOT NULL,
    label         TEXT,
    creation_time TIMESTAMP NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_segments_user_start ON timer_segments(user_id, start_time);
CREATE INDEX IF NOT EXISTS idx_segments_user_day ON timer_segments(user_id, day);
`

// New opens the database at path and ensures the schema exists.
func New(path string) (store.Store, error) {
	db, err := Open(path)
	if err != nil {
		return nil, err
	}
	return NewWithDB(db)
}

// NewWithDB allows wiring with an existing connection (used by factory and tests).
func NewWithDB(db *sql.DB) (store.Store, error) {
	if _, err := db.Exec(schema); err != nil {
		return nil, fmt.Errorf("sqlite schema: %w", err)
	}
	return &liteStore{db: db}, nil
}

type liteStore struct{ db *sql.DB }

func (s *liteStore) Users() store.Users             { return &users{db: s.db} }
func (s *liteStore) FocusAreas() store.FocusAreas   { return &focusAreas{db: s.db} }
func (s *liteStore) DailyTotals() store.DailyTotals { return &dailyTotals{db: s.db} }
func (s *liteStore) Segments() store.Segments       { return &segments{db: s.db} }

// HealthPing implements health.HealthPinger for the SQLite-backed store.
func (s *liteStore) HealthPing(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func storeErr(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return model.ErrNotFound
	}
	if strings.Contains(err.Error(), "UNIQUE constraint failed") {
		return fmt.Errorf("%w: %v", model.ErrConflict, err)
	}
	return fmt.Errorf("%w: %v", model.ErrStorage, err)
}

// --- Users ---
type users struct{ db *sql.DB }

func (u *users) Create(ctx context.Context, m *model.User) (*model.User, error) {
	now := time.Now().UTC()
	_, err := u.db.ExecContext(ctx, `
        INSERT INTO users (user_id, email, display_name, time_zone, reset_hour, status, creation_time)
        VALUES (?,?,?,?,?,'ACTIVE',?)
    `, m.UserID, m.Email, m.DisplayName, m.TimeZone, m.ResetHour, now)
	if err != nil {
		return nil, storeErr(err)
	}
	out := *m
	out.Status = "ACTIVE"
	out.CreationTime = now
	return &out, nil
}

func (u *users) Get(ctx context.Context, userID string) (*model.User, error) {
	row := u.db.QueryRowContext(ctx, `
        SELECT user_id, email, display_name, time_zone, reset_hour, status, creation_time, last_active_time
        FROM users WHERE user_id=?
    `, userID)
	return scanUser(row)
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
		m, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	if err := rows.Err(); err != nil {
		return nil, storeErr(err)
	}
	return out, nil
}

type rowScanner interface{ Scan(dest ...any) error }

func scanUser(row rowScanner) (*model.User, error) {
	var out model.User
	var last *time.Time
	if err := row.Scan(&out.UserID, &out.Email, &out.DisplayName, &out.TimeZone, &out.ResetHour, &out.Status, &out.CreationTime, &last); err != nil {
		return nil, storeErr(err)
	}
	out.CreationTime = out.CreationTime.UTC()
	out.LastActiveTime = last
	return &out, nil
}

func (u *users) UpdateDaySettings(ctx context.Context, userID, timeZone string, resetHour int) (*model.User, error) {
	res, err := u.db.ExecContext(ctx, `
        UPDATE users SET time_zone=?, reset_hour=? WHERE user_id=?
    `, timeZone, resetHour, userID)
	if err != nil {
		return nil, storeErr(err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return nil, model.ErrNotFound
	}
	return u.Get(ctx, userID)
}

func (u *users) Delete(ctx context.Context, userID string) error {
	res, err := u.db.ExecContext(ctx, `DELETE FROM users WHERE user_id=?`, userID)
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
	now := time.Now().UTC()
	_, err := f.db.ExecContext(ctx, `
        INSERT INTO focus_areas (focus_area_id, user_id, name, color, creation_time)
        VALUES (?,?,?,?,?)
    `, id, m.UserID, m.Name, m.Color, now)
	if err != nil {
		return nil, storeErr(err)
	}
	return &model.FocusArea{FocusAreaID: id, UserID: m.UserID, Name: m.Name, Color: m.Color, CreationTime: now}, nil
}

func (f *focusAreas) Get(ctx context.Context, userID, focusAreaID string) (*model.FocusArea, error) {
	var out model.FocusArea
	row := f.db.QueryRowContext(ctx, `
        SELECT focus_area_id, user_id, name, color, creation_time
        FROM focus_areas WHERE user_id=? AND focus_area_id=?
    `, userID, focusAreaID)
	if err := row.Scan(&out.FocusAreaID, &out.UserID, &out.Name, &out.Color, &out.CreationTime); err != nil {
		return nil, storeErr(err)
	}
	out.CreationTime = out.CreationTime.UTC()
	return &out, nil
}

func (f *focusAreas) List(ctx context.Context, userID string) ([]*model.FocusArea, error) {
	rows, err := f.db.QueryContext(ctx, `
        SELECT focus_area_id, user_id, name, color, creation_time
        FROM focus_areas WHERE user_id=? ORDER BY creation_time
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
		m.CreationTime = m.CreationTime.UTC()
		out = append(out, &m)
	}
	if err := rows.Err(); err != nil {
		return nil, storeErr(err)
	}
	return out, nil
}

func (f *focusAreas) Delete(ctx context.Context, userID, focusAreaID string) error {
	res, err := f.db.ExecContext(ctx, `
        DELETE FROM focus_areas WHERE user_id=? AND focus_area_id=?
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

func (d *dailyTotals) Upsert(ctx context.Context, m *model.DailyTotal) (*model.DailyTotal, error) {
	now := time.Now().UTC()
	_, err := d.db.ExecContext(ctx, `
        INSERT INTO daily_totals (user_id, day, total_seconds, is_running, start_timestamp, update_time)
        VALUES (?,?,?,?,?,?)
        ON CONFLICT (user_id, day) DO UPDATE
        SET total_seconds=excluded.total_seconds,
            is_running=excluded.is_running,
            start_timestamp=excluded.start_timestamp,
            update_time=excluded.update_time
    `, m.UserID, m.Day.UTC(), m.TotalSeconds, m.IsRunning, m.StartTimestamp, now)
	if err != nil {
		return nil, storeErr(err)
	}
	return d.Get(ctx, m.UserID, m.Day)
}

func (d *dailyTotals) Add(ctx context.Context, userID string, day time.Time, seconds int64) (*model.DailyTotal, error) {
	now := time.Now().UTC()
	_, err := d.db.ExecContext(ctx, `
        INSERT INTO daily_totals (user_id, day, total_seconds, is_running, update_time)
        VALUES (?,?,?,0,?)
        ON CONFLICT (user_id, day) DO UPDATE
        SET total_seconds=daily_totals.total_seconds+excluded.total_seconds,
            update_time=excluded.update_time
    `, userID, day.UTC(), seconds, now)
	if err != nil {
		return nil, storeErr(err)
	}
	return d.Get(ctx, userID, day)
}

func (d *dailyTotals) Get(ctx context.Context, userID string, day time.Time) (*model.DailyTotal, error) {
	var out model.DailyTotal
	var start *time.Time
	row := d.db.QueryRowContext(ctx, `
        SELECT user_id, day, total_seconds, is_running, start_timestamp, update_time
        FROM daily_totals WHERE user_id=? AND day=?
    `, userID, day.UTC())
	if err := row.Scan(&out.UserID, &out.Day, &out.TotalSeconds, &out.IsRunning, &start, &out.UpdateTime); err != nil {
		return nil, storeErr(err)
	}
	out.Day = out.Day.UTC()
	out.StartTimestamp = start
	return &out, nil
}

func (d *dailyTotals) List(ctx context.Context, req model.ListDailyTotalsRequest) ([]*model.DailyTotal, error) {
	q := `SELECT user_id, day, total_seconds, is_running, start_timestamp, update_time
          FROM daily_totals WHERE user_id=?`
	args := []interface{}{req.UserID}
	if req.From != nil {
		q += " AND day >= ?"
		args = append(args, req.From.UTC())
	}
	if req.To != nil {
		q += " AND day < ?"
		args = append(args, req.To.UTC())
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
		var start *time.Time
		if err := rows.Scan(&m.UserID, &m.Day, &m.TotalSeconds, &m.IsRunning, &start, &m.UpdateTime); err != nil {
			return nil, storeErr(err)
		}
		m.Day = m.Day.UTC()
		m.StartTimestamp = start
		out = append(out, &m)
	}
	if err := rows.Err(); err != nil {
		return nil, storeErr(err)
	}
	return out, nil
}

func (d *dailyTotals) DeleteForUser(ctx context.Context, userID string) error {
	_, err := d.db.ExecContext(ctx, `DELETE FROM daily_totals WHERE user_id=?`, userID)
	return storeErr(err)
}

// --- Segments ---
type segments struct{ db *sql.DB }

func (s *segments) Create(ctx context.Context, m *model.TimerSegment) (*model.TimerSegment, error) {
	id := m.SegmentID
	if id == "" {
		id = uuid.New().String()
	}
	now := time.Now().UTC()
	_, err := s.db.ExecContext(ctx, `
        INSERT INTO timer_segments (segment_id, user_id, focus_area_id, start_time, end_time, duration, day, seg_type, label, creation_time)
        VALUES (?,?,?,?,?,?,?,?,?,?)
    `, id, m.UserID, m.FocusAreaID, m.Start.UTC(), m.End.UTC(), m.Duration, m.Day.UTC(), m.Type, m.Label, now)
	if err != nil {
		return nil, storeErr(err)
	}
	out := *m
	out.SegmentID = id
	out.CreationTime = now
	return &out, nil
}

func (s *segments) List(ctx context.Context, userID string, from, to *time.Time) ([]*model.TimerSegment, error) {
	q := `SELECT segment_id, user_id, focus_area_id, start_time, end_time, duration, day, seg_type, label, creation_time
          FROM timer_segments WHERE user_id=?`
	args := []interface{}{userID}
	if from != nil {
		q += " AND start_time >= ?"
		args = append(args, from.UTC())
	}
	if to != nil {
		q += " AND start_time < ?"
		args = append(args, to.UTC())
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
	if err := rows.Err(); err != nil {
		return nil, storeErr(err)
	}
	return out, nil
}

func (s *segments) SumByFocusArea(ctx context.Context, userID string, from, to time.Time) ([]*model.FocusAreaTotal, error) {
	rows, err := s.db.QueryContext(ctx, `
        SELECT focus_area_id, SUM(duration)
        FROM timer_segments
        WHERE user_id=? AND start_time >= ? AND start_time < ?
        GROUP BY focus_area_id
        ORDER BY focus_area_id
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
	if err := rows.Err(); err != nil {
		return nil, storeErr(err)
	}
	return out, nil
}

func (s *segments) UpdateDay(ctx context.Context, userID, segmentID string, day time.Time) error {
	res, err := s.db.ExecContext(ctx, `
        UPDATE timer_segments SET day=? WHERE user_id=? AND segment_id=?
    `, day.UTC(), userID, segmentID)
	if err != nil {
		return storeErr(err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return model.ErrNotFound
	}
	return nil
}
