// Package archive keeps a SQLite history of track lifecycle events.
package archive

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/signalsfoundry/radar-track-ingest/model"
)

// Actions stored in track_events.action.
const (
	ActionUpsert = "upsert"
	ActionDelete = "delete"
)

const (
	sqliteBusyCode          = 5
	busyRetryAttempts       = 5
	busyRetryInitialBackoff = 10 * time.Millisecond
	busyRetryMaxBackoff     = 200 * time.Millisecond
)

// Event is one archived lifecycle change.
type Event struct {
	Seq        int64
	TrackID    uint16
	StationID  uint16
	Sensor     model.SensorID
	Action     string
	Status     model.Status
	Category   model.Category
	Range      float64
	Azimuth    float64
	Elevation  float64
	Speed      float64
	Course     float64
	Latitude   float64
	Longitude  float64
	Height     float64
	RecordedAt time.Time
}

// Archive is a SQLite-backed event history.
type Archive struct {
	db   *sql.DB
	path string
}

// Open creates or opens the archive at path and applies migrations.
func Open(ctx context.Context, path string) (*Archive, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("ensure archive dir: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA synchronous = NORMAL",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.ExecContext(ctx, pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	a := &Archive{db: db, path: path}
	if err := a.applyMigrations(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return a, nil
}

// Path returns the database file path.
func (a *Archive) Path() string {
	return a.path
}

// Close releases the database handle.
func (a *Archive) Close() error {
	return a.db.Close()
}

// RecordUpsert appends an upsert event for rec.
func (a *Archive) RecordUpsert(ctx context.Context, rec model.TrackRecord, at time.Time) error {
	return a.insert(ctx, Event{
		TrackID:    rec.ID,
		StationID:  rec.StationID,
		Sensor:     rec.Sensor,
		Action:     ActionUpsert,
		Status:     rec.Status,
		Category:   rec.Category,
		Range:      rec.Range,
		Azimuth:    rec.Azimuth,
		Elevation:  rec.Elevation,
		Speed:      rec.Speed,
		Course:     rec.Course,
		Latitude:   rec.Latitude,
		Longitude:  rec.Longitude,
		Height:     rec.Height,
		RecordedAt: at,
	})
}

// RecordDelete appends a delete event for id.
func (a *Archive) RecordDelete(ctx context.Context, id uint16, at time.Time) error {
	return a.insert(ctx, Event{TrackID: id, Action: ActionDelete, Status: model.StatusLost, RecordedAt: at})
}

func (a *Archive) insert(ctx context.Context, ev Event) error {
	const q = `INSERT INTO track_events (
		track_id, station_id, sensor, action, status, category,
		range_m, azimuth_deg, elevation_deg, speed_mps, course_deg,
		latitude, longitude, height_m, recorded_at
	) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	return a.execWithRetry(ctx, q,
		int64(ev.TrackID), int64(ev.StationID), int64(ev.Sensor), ev.Action, int64(ev.Status), int64(ev.Category),
		ev.Range, ev.Azimuth, ev.Elevation, ev.Speed, ev.Course,
		ev.Latitude, ev.Longitude, ev.Height, ev.RecordedAt.UnixNano(),
	)
}

// History returns up to limit events for a track, newest first. A
// non-positive limit returns every event.
func (a *Archive) History(ctx context.Context, id uint16, limit int) ([]Event, error) {
	q := `SELECT id, track_id, station_id, sensor, action, status, category,
		range_m, azimuth_deg, elevation_deg, speed_mps, course_deg,
		latitude, longitude, height_m, recorded_at
		FROM track_events WHERE track_id = ? ORDER BY id DESC`
	args := []any{int64(id)}
	if limit > 0 {
		q += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := a.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("query history: %w", err)
	}
	defer rows.Close()

	var out []Event
	for rows.Next() {
		var ev Event
		var trackID, stationID, sensor, status, category, at int64
		if err := rows.Scan(&ev.Seq, &trackID, &stationID, &sensor, &ev.Action, &status, &category,
			&ev.Range, &ev.Azimuth, &ev.Elevation, &ev.Speed, &ev.Course,
			&ev.Latitude, &ev.Longitude, &ev.Height, &at); err != nil {
			return nil, fmt.Errorf("scan history: %w", err)
		}
		ev.TrackID = uint16(trackID)
		ev.StationID = uint16(stationID)
		ev.Sensor = model.SensorID(sensor)
		ev.Status = model.Status(status)
		ev.Category = model.Category(category)
		ev.RecordedAt = time.Unix(0, at)
		out = append(out, ev)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate history: %w", err)
	}
	return out, nil
}

// Count returns the total number of archived events.
func (a *Archive) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := a.db.QueryRowContext(ctx, "SELECT COUNT(1) FROM track_events").Scan(&n); err != nil {
		return 0, fmt.Errorf("count events: %w", err)
	}
	return n, nil
}

// Prune deletes events recorded before cutoff and returns how many were
// removed.
func (a *Archive) Prune(ctx context.Context, cutoff time.Time) (int64, error) {
	var removed int64
	err := retryOnBusy(ctx, func() error {
		res, err := a.db.ExecContext(ctx, "DELETE FROM track_events WHERE recorded_at < ?", cutoff.UnixNano())
		if err != nil {
			return err
		}
		removed, err = res.RowsAffected()
		return err
	})
	if err != nil {
		return 0, fmt.Errorf("prune events: %w", err)
	}
	return removed, nil
}

func (a *Archive) execWithRetry(ctx context.Context, query string, args ...any) error {
	return retryOnBusy(ctx, func() error {
		_, err := a.db.ExecContext(ctx, query, args...)
		return err
	})
}

func isSQLiteBusy(err error) bool {
	if err == nil {
		return false
	}
	var coder interface{ Code() int }
	if errors.As(err, &coder) && coder.Code() == sqliteBusyCode {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "SQLITE_BUSY") || strings.Contains(msg, "database is locked")
}

func retryOnBusy(ctx context.Context, op func() error) error {
	if ctx == nil {
		ctx = context.Background()
	}
	delay := busyRetryInitialBackoff
	var lastErr error
	for attempt := 0; attempt < busyRetryAttempts; attempt++ {
		lastErr = op()
		if lastErr == nil {
			return nil
		}
		if !isSQLiteBusy(lastErr) || attempt == busyRetryAttempts-1 {
			break
		}
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return ctx.Err()
		}
		if next := delay * 2; next <= busyRetryMaxBackoff {
			delay = next
		}
	}
	return lastErr
}
