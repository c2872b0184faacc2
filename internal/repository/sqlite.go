package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/mr1hm/go-flood-watch/internal/models"
	_ "modernc.org/sqlite"
)

type SQLiteDB struct {
	db  *sql.DB
	now func() time.Time
}

type Option func(*SQLiteDB)

// WithClock overrides the clock used to stamp lastUpdated.
func WithClock(now func() time.Time) Option {
	return func(s *SQLiteDB) {
		s.now = now
	}
}

func NewSQLiteDB(path string, opts ...Option) (*SQLiteDB, error) {
	if path != ":memory:" && !strings.HasPrefix(path, "file:") {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("error creating database dir: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("error opening database: %w", err)
	}
	// One connection keeps ":memory:" databases shared and serializes writers.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("error while pinging database: %w", err)
	}

	s := &SQLiteDB{
		db:  db,
		now: time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("error while migrating database: %w", err)
	}

	return s, nil
}

func (s *SQLiteDB) migrate() error {
	schema := `
		CREATE TABLE IF NOT EXISTS observations (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			name TEXT NOT NULL,
			latitude REAL NOT NULL,
			longitude REAL NOT NULL,
			warning_level TEXT NOT NULL CHECK (warning_level IN ('Normal', 'Advisory', 'Watch', 'Warning')),
			water_level REAL NOT NULL CHECK (water_level >= 0),
			weather TEXT NOT NULL DEFAULT '',
			last_updated INTEGER NOT NULL
		);

		CREATE INDEX IF NOT EXISTS idx_observations_last_updated ON observations(last_updated);
	`
	if _, err := s.db.Exec(schema); err != nil {
		return err
	}

	// Tables from the first schema revision predate the weather column.
	hasWeather, err := s.hasColumn("observations", "weather")
	if err != nil {
		return err
	}
	if !hasWeather {
		slog.Info("migrating observations table", "add_column", "weather")
		if _, err := s.db.Exec(`ALTER TABLE observations ADD COLUMN weather TEXT NOT NULL DEFAULT ''`); err != nil {
			return fmt.Errorf("error adding weather column: %w", err)
		}
	}
	return nil
}

func (s *SQLiteDB) hasColumn(table, column string) (bool, error) {
	rows, err := s.db.Query(fmt.Sprintf("PRAGMA table_info(%s)", table))
	if err != nil {
		return false, fmt.Errorf("error reading table info: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			cid       int
			name      string
			colType   string
			notNull   int
			dfltValue sql.NullString
			pk        int
		)
		if err := rows.Scan(&cid, &name, &colType, &notNull, &dfltValue, &pk); err != nil {
			return false, err
		}
		if name == column {
			return true, nil
		}
	}
	return false, rows.Err()
}

const selectColumns = `SELECT id, name, latitude, longitude, warning_level, water_level, weather, last_updated FROM observations`

type scanner interface {
	Scan(dest ...any) error
}

func scanObservation(row scanner) (models.Observation, error) {
	var (
		o       models.Observation
		level   string
		updated int64
	)
	if err := row.Scan(&o.ID, &o.Name, &o.Latitude, &o.Longitude, &level, &o.WaterLevel, &o.Weather, &updated); err != nil {
		return models.Observation{}, err
	}
	parsed, err := models.ParseWarningLevel(level)
	if err != nil {
		return models.Observation{}, fmt.Errorf("observation %d: %w", o.ID, err)
	}
	o.WarningLevel = parsed
	o.LastUpdated = time.UnixMilli(updated).UTC()
	return o, nil
}

func (s *SQLiteDB) List(ctx context.Context) ([]models.Observation, error) {
	rows, err := s.db.QueryContext(ctx, selectColumns+` ORDER BY last_updated DESC, id ASC`)
	if err != nil {
		return nil, fmt.Errorf("error querying observations: %w", err)
	}
	defer rows.Close()

	observations := make([]models.Observation, 0)
	for rows.Next() {
		o, err := scanObservation(rows)
		if err != nil {
			return nil, fmt.Errorf("error scanning observation: %w", err)
		}
		observations = append(observations, o)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating observations: %w", err)
	}
	return observations, nil
}

func (s *SQLiteDB) GetByID(ctx context.Context, id int64) (*models.Observation, error) {
	o, err := scanObservation(s.db.QueryRowContext(ctx, selectColumns+` WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("error getting observation %d: %w", id, err)
	}
	return &o, nil
}

func (s *SQLiteDB) Update(ctx context.Context, id int64, u models.ObservationUpdate) (models.Change, error) {
	level, err := u.Validate()
	if err != nil {
		return models.Change{}, err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return models.Change{}, fmt.Errorf("error beginning transaction: %w", err)
	}
	defer tx.Rollback()

	prev, err := scanObservation(tx.QueryRowContext(ctx, selectColumns+` WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return models.Change{}, ErrNotFound
	}
	if err != nil {
		return models.Change{}, fmt.Errorf("error reading observation %d: %w", id, err)
	}

	stamp := s.now().UTC().Truncate(time.Millisecond)
	if stamp.Before(prev.LastUpdated) {
		stamp = prev.LastUpdated
	}

	cur := prev
	cur.WarningLevel = level
	cur.WaterLevel = *u.WaterLevel
	cur.Weather = *u.Weather
	cur.LastUpdated = stamp

	_, err = tx.ExecContext(ctx, `
		UPDATE observations
		SET warning_level = ?, water_level = ?, weather = ?, last_updated = ?
		WHERE id = ?`,
		cur.WarningLevel.String(), cur.WaterLevel, cur.Weather, stamp.UnixMilli(), id,
	)
	if err != nil {
		return models.Change{}, fmt.Errorf("error updating observation %d: %w", id, err)
	}

	if err := tx.Commit(); err != nil {
		return models.Change{}, fmt.Errorf("error committing update: %w", err)
	}

	return models.Change{Previous: prev, Current: cur}, nil
}

func (s *SQLiteDB) ReplaceAll(ctx context.Context, records []models.Observation) ([]models.Observation, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("error beginning transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM observations`); err != nil {
		return nil, fmt.Errorf("error clearing observations: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO observations (name, latitude, longitude, warning_level, water_level, weather, last_updated)
		VALUES (?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return nil, fmt.Errorf("error preparing insert: %w", err)
	}
	defer stmt.Close()

	inserted := make([]models.Observation, 0, len(records))
	for _, o := range records {
		if !o.WarningLevel.Valid() {
			return nil, &models.ValidationError{Field: "warningLevel", Reason: fmt.Sprintf("station %q has no warning level", o.Name)}
		}
		if o.WaterLevel < 0 {
			return nil, &models.ValidationError{Field: "waterLevel", Reason: fmt.Sprintf("station %q has a negative water level", o.Name)}
		}
		if o.LastUpdated.IsZero() {
			o.LastUpdated = s.now()
		}
		o.LastUpdated = o.LastUpdated.UTC().Truncate(time.Millisecond)

		res, err := stmt.ExecContext(ctx, o.Name, o.Latitude, o.Longitude, o.WarningLevel.String(), o.WaterLevel, o.Weather, o.LastUpdated.UnixMilli())
		if err != nil {
			return nil, fmt.Errorf("error inserting %q: %w", o.Name, err)
		}
		if o.ID, err = res.LastInsertId(); err != nil {
			return nil, fmt.Errorf("error reading id of %q: %w", o.Name, err)
		}
		inserted = append(inserted, o)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("error committing seed: %w", err)
	}
	return inserted, nil
}

func (s *SQLiteDB) Close() error {
	return s.db.Close()
}
