// Package store persists result tables in a local SQLite database so that
// earlier runs can be listed and rendered again without recomputation.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"gmslr/internal/ensemble"
	"gmslr/internal/logging"
	"gmslr/internal/result"
)

// ErrRunNotFound is returned by LoadTable for an unknown run id.
var ErrRunNotFound = errors.New("run not found")

// RunInfo summarises a stored run.
type RunInfo struct {
	ID        string
	Meta      result.Meta
	FirstYear int
	LastYear  int
	CreatedAt time.Time
}

// Store is a run database.
type Store struct {
	db     *sql.DB
	mu     sync.RWMutex
	dbPath string
}

// NewStore opens or creates the database at path.
func NewStore(path string) (*Store, error) {
	timer := logging.StartTimer(logging.CategoryStore, "NewStore")
	defer timer.Stop()

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create store directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	db.SetMaxOpenConns(1)

	log := logging.Get(logging.CategoryStore)
	if _, err := db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		log.Debug("failed to set sqlite busy_timeout: %v", err)
	}
	if _, err := db.Exec("PRAGMA journal_mode = WAL"); err != nil {
		log.Debug("failed to set sqlite journal_mode=WAL: %v", err)
	}

	s := &Store{db: db, dbPath: path}
	if err := s.initialize(); err != nil {
		db.Close()
		return nil, err
	}
	log.Debug("run store ready at %s", path)
	return s, nil
}

func (s *Store) initialize() error {
	schemas := []string{
		`CREATE TABLE IF NOT EXISTS runs (
			id TEXT PRIMARY KEY,
			scenario TEXT NOT NULL,
			seed INTEGER NOT NULL,
			members INTEGER NOT NULL,
			glacier TEXT NOT NULL,
			antdyn TEXT NOT NULL,
			levermann_fit TEXT NOT NULL DEFAULT '',
			form TEXT NOT NULL,
			first_year INTEGER NOT NULL,
			last_year INTEGER NOT NULL,
			created_at TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_runs_created ON runs(created_at)`,
		`CREATE TABLE IF NOT EXISTS series (
			run_id TEXT NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
			position INTEGER NOT NULL,
			quantity TEXT NOT NULL,
			unit TEXT NOT NULL,
			uniform INTEGER NOT NULL,
			year INTEGER NOT NULL,
			median REAL NOT NULL,
			low REAL NOT NULL,
			high REAL NOT NULL,
			mean REAL NOT NULL,
			min REAL NOT NULL,
			max REAL NOT NULL,
			PRIMARY KEY (run_id, quantity, year)
		)`,
	}
	for _, schema := range schemas {
		if _, err := s.db.Exec(schema); err != nil {
			return fmt.Errorf("failed to create table: %w", err)
		}
	}
	return nil
}

// Path returns the database file.
func (s *Store) Path() string { return s.dbPath }

// Close closes the database.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.db.Close()
}

// SaveRun stores t under a fresh run id.
func (s *Store) SaveRun(ctx context.Context, t *result.Table) (string, error) {
	timer := logging.StartTimer(logging.CategoryStore, "SaveRun")
	defer timer.Stop()

	years := t.Years()
	if len(years) == 0 {
		return "", fmt.Errorf("refusing to store an empty table")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	id := uuid.New().String()
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return "", fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	m := t.Meta
	_, err = tx.ExecContext(ctx,
		`INSERT INTO runs (id, scenario, seed, members, glacier, antdyn, levermann_fit, form, first_year, last_year, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		id, m.Scenario, m.Seed, m.Members, m.Glacier, m.AntDyn, m.LevermannFit, m.Form,
		years[0], years[len(years)-1], time.Now().UTC().Format(time.RFC3339Nano))
	if err != nil {
		return "", fmt.Errorf("failed to insert run: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO series (run_id, position, quantity, unit, uniform, year, median, low, high, mean, min, max)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return "", fmt.Errorf("failed to prepare series insert: %w", err)
	}
	defer stmt.Close()

	for pos, q := range t.Quantities() {
		sr, _ := t.Get(q)
		for i, year := range sr.Years {
			if _, err := stmt.ExecContext(ctx, id, pos, string(q), sr.Unit, sr.Uniform, year,
				sr.Median[i], sr.Low[i], sr.High[i], sr.Mean[i], sr.Min[i], sr.Max[i]); err != nil {
				return "", fmt.Errorf("failed to insert %s %d: %w", q, year, err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("failed to commit run: %w", err)
	}
	logging.Get(logging.CategoryStore).Info("stored run %s (%s)", id, m.Scenario)
	return id, nil
}

// ListRuns returns stored runs, newest first.
func (s *Store) ListRuns(ctx context.Context) ([]RunInfo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, scenario, seed, members, glacier, antdyn, levermann_fit, form, first_year, last_year, created_at
		 FROM runs ORDER BY created_at DESC, id`)
	if err != nil {
		return nil, fmt.Errorf("failed to query runs: %w", err)
	}
	defer rows.Close()

	var runs []RunInfo
	for rows.Next() {
		info, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, info)
	}
	return runs, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(row scanner) (RunInfo, error) {
	var info RunInfo
	var created string
	m := &info.Meta
	if err := row.Scan(&info.ID, &m.Scenario, &m.Seed, &m.Members, &m.Glacier, &m.AntDyn,
		&m.LevermannFit, &m.Form, &info.FirstYear, &info.LastYear, &created); err != nil {
		return RunInfo{}, err
	}
	t, err := time.Parse(time.RFC3339Nano, created)
	if err != nil {
		return RunInfo{}, fmt.Errorf("run %s: bad timestamp %q: %w", info.ID, created, err)
	}
	info.CreatedAt = t
	return info, nil
}

// LoadTable rebuilds the table stored under id.
func (s *Store) LoadTable(ctx context.Context, id string) (*result.Table, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row := s.db.QueryRowContext(ctx,
		`SELECT id, scenario, seed, members, glacier, antdyn, levermann_fit, form, first_year, last_year, created_at
		 FROM runs WHERE id = ?`, id)
	info, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrRunNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load run %s: %w", id, err)
	}

	axis, err := ensemble.NewYearAxis(info.FirstYear, info.LastYear)
	if err != nil {
		return nil, fmt.Errorf("run %s: %w", id, err)
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT quantity, unit, uniform, year, median, low, high, mean, min, max
		 FROM series WHERE run_id = ? ORDER BY position, year`, id)
	if err != nil {
		return nil, fmt.Errorf("failed to query series: %w", err)
	}
	defer rows.Close()

	var series []result.Series
	for rows.Next() {
		var (
			q, unit string
			uniform bool
			year    int
			e       result.Entry
			mean    float64
			lo, hi  float64
		)
		if err := rows.Scan(&q, &unit, &uniform, &year, &e.Median, &e.Low, &e.High, &mean, &lo, &hi); err != nil {
			return nil, err
		}
		if len(series) == 0 || series[len(series)-1].Quantity != ensemble.Quantity(q) {
			sr := result.NewSeries(ensemble.Quantity(q), axis.Years(), uniform)
			sr.Unit = unit
			series = append(series, sr)
		}
		i, ok := axis.Index(year)
		if !ok {
			return nil, fmt.Errorf("run %s: %s year %d outside %d..%d", id, q, year, axis.First(), axis.Last())
		}
		sr := &series[len(series)-1]
		sr.Median[i], sr.Low[i], sr.High[i] = e.Median, e.Low, e.High
		sr.Mean[i], sr.Min[i], sr.Max[i] = mean, lo, hi
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result.NewTable(info.Meta, series)
}

// DeleteRun removes a run and its series.
func (s *Store) DeleteRun(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM series WHERE run_id = ?`, id); err != nil {
		return fmt.Errorf("failed to delete series: %w", err)
	}
	res, err := tx.ExecContext(ctx, `DELETE FROM runs WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete run: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("%w: %s", ErrRunNotFound, id)
	}
	return tx.Commit()
}
