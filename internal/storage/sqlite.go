// Package storage persists evolution runs in SQLite and game traces in
// Parquet files. Uses the pure-Go modernc.org/sqlite driver to avoid CGO
// dependencies.
package storage

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite" // Pure Go SQLite driver

	"github.com/vovakirdan/tetris-evolve/internal/genetic"
)

// Run statuses.
const (
	StatusRunning   = "running"
	StatusCompleted = "completed"
	StatusFailed    = "failed"
)

// Store manages the SQLite database connection for run history.
type Store struct {
	db *sql.DB
}

// RunParams are the settings an evolution run was started with.
type RunParams struct {
	Seed        int64
	Population  int
	Generations int
	Games       int
	KillLines   int
}

// Run is one evolution run.
type Run struct {
	ID int64
	RunParams
	Status          string
	Champion        string // weights, see bot.ParseWeights
	ChampionFitness float64
	Error           string
	CreatedAt       time.Time
	FinishedAt      time.Time
}

// Generation is the fitness summary of one generation of a run.
type Generation struct {
	RunID int64
	Index int
	genetic.Summary
}

// Open creates or opens a SQLite database at the given path.
// It creates the parent directories if needed and runs migrations.
func Open(dbPath string) (*Store, error) {
	dbPath, err := ExpandHome(dbPath)
	if err != nil {
		return nil, err
	}

	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("storage: cannot create directory %s: %w", dir, err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("storage: cannot open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("storage: cannot connect to database: %w", err)
	}

	store := &Store{db: db}

	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("storage: migration failed: %w", err)
	}

	return store, nil
}

// ExpandHome expands a leading ~ to the user's home directory.
func ExpandHome(path string) (string, error) {
	if path == "" || path[0] != '~' {
		return path, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("storage: cannot expand home directory: %w", err)
	}
	return filepath.Join(home, strings.TrimPrefix(path[1:], "/")), nil
}

// migrate creates the database schema if it doesn't exist.
func (s *Store) migrate() error {
	schema := `
		CREATE TABLE IF NOT EXISTS runs (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			seed INTEGER NOT NULL,
			population INTEGER NOT NULL,
			generations INTEGER NOT NULL,
			games INTEGER NOT NULL,
			kill_lines INTEGER NOT NULL,
			status TEXT NOT NULL DEFAULT 'running',
			champion TEXT NOT NULL DEFAULT '',
			champion_fitness REAL NOT NULL DEFAULT 0,
			error TEXT NOT NULL DEFAULT '',
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
			finished_at DATETIME
		);
		CREATE INDEX IF NOT EXISTS idx_runs_status ON runs(status, champion_fitness DESC);

		CREATE TABLE IF NOT EXISTS generations (
			run_id INTEGER NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
			idx INTEGER NOT NULL,
			max REAL NOT NULL,
			upper_quartile REAL NOT NULL,
			median REAL NOT NULL,
			lower_quartile REAL NOT NULL,
			min REAL NOT NULL,
			PRIMARY KEY (run_id, idx)
		);
	`

	_, err := s.db.Exec(schema)
	return err
}

// Close closes the database connection.
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// CreateRun records the start of an evolution run and returns its ID.
func (s *Store) CreateRun(p RunParams) (int64, error) {
	result, err := s.db.Exec(
		`INSERT INTO runs (seed, population, generations, games, kill_lines, status)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		p.Seed, p.Population, p.Generations, p.Games, p.KillLines, StatusRunning,
	)
	if err != nil {
		return 0, fmt.Errorf("storage: cannot create run: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("storage: cannot get inserted ID: %w", err)
	}

	return id, nil
}

// SaveGeneration records the summary of generation idx of a run.
func (s *Store) SaveGeneration(runID int64, idx int, sum genetic.Summary) error {
	_, err := s.db.Exec(
		`INSERT OR REPLACE INTO generations
		 (run_id, idx, max, upper_quartile, median, lower_quartile, min)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		runID, idx, sum.Max, sum.UpperQuartile, sum.Median, sum.LowerQuartile, sum.Min,
	)
	if err != nil {
		return fmt.Errorf("storage: cannot save generation %d of run %d: %w", idx, runID, err)
	}
	return nil
}

// CompleteRun marks a run as finished with the given champion.
func (s *Store) CompleteRun(runID int64, champion string, fitness float64) error {
	return s.finish(runID, StatusCompleted, champion, fitness, "")
}

// FailRun marks a run as failed.
func (s *Store) FailRun(runID int64, cause error) error {
	msg := ""
	if cause != nil {
		msg = cause.Error()
	}
	return s.finish(runID, StatusFailed, "", 0, msg)
}

func (s *Store) finish(runID int64, status, champion string, fitness float64, msg string) error {
	res, err := s.db.Exec(
		`UPDATE runs
		 SET status = ?, champion = ?, champion_fitness = ?, error = ?, finished_at = CURRENT_TIMESTAMP
		 WHERE id = ?`,
		status, champion, fitness, msg, runID,
	)
	if err != nil {
		return fmt.Errorf("storage: cannot update run %d: %w", runID, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("storage: run %d not found", runID)
	}
	return nil
}

const runColumns = `id, seed, population, generations, games, kill_lines,
	status, champion, champion_fitness, error, created_at, finished_at`

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(row scanner) (Run, error) {
	var r Run
	var createdAt, finishedAt any
	err := row.Scan(
		&r.ID,
		&r.Seed,
		&r.Population,
		&r.Generations,
		&r.Games,
		&r.KillLines,
		&r.Status,
		&r.Champion,
		&r.ChampionFitness,
		&r.Error,
		&createdAt,
		&finishedAt,
	)
	if err != nil {
		return Run{}, err
	}
	r.CreatedAt = parseTime(createdAt)
	r.FinishedAt = parseTime(finishedAt)
	return r, nil
}

// parseTime handles the driver returning either time.Time or a string.
func parseTime(v any) time.Time {
	switch v := v.(type) {
	case time.Time:
		return v
	case string:
		if parsed, err := time.Parse("2006-01-02 15:04:05", v); err == nil {
			return parsed
		}
	}
	return time.Time{}
}

// Run retrieves a run by ID. Returns nil if it does not exist.
func (s *Store) Run(id int64) (*Run, error) {
	r, err := scanRun(s.db.QueryRow(`SELECT `+runColumns+` FROM runs WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("storage: cannot query run: %w", err)
	}
	return &r, nil
}

// RecentRuns retrieves the most recent runs, newest first.
func (s *Store) RecentRuns(limit int) ([]Run, error) {
	if limit <= 0 {
		limit = 20
	}
	return s.queryRuns(`SELECT `+runColumns+` FROM runs ORDER BY id DESC LIMIT ?`, limit)
}

// BestRun returns the completed run with the fittest champion, or nil if no
// run has completed.
func (s *Store) BestRun() (*Run, error) {
	runs, err := s.queryRuns(
		`SELECT `+runColumns+` FROM runs
		 WHERE status = ?
		 ORDER BY champion_fitness DESC, id ASC
		 LIMIT 1`,
		StatusCompleted,
	)
	if err != nil || len(runs) == 0 {
		return nil, err
	}
	return &runs[0], nil
}

func (s *Store) queryRuns(query string, args ...any) ([]Run, error) {
	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("storage: cannot query runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		r, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("storage: cannot scan row: %w", err)
		}
		runs = append(runs, r)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("storage: row iteration error: %w", err)
	}

	return runs, nil
}

// Generations retrieves the generation summaries of a run in order.
func (s *Store) Generations(runID int64) ([]Generation, error) {
	rows, err := s.db.Query(
		`SELECT run_id, idx, max, upper_quartile, median, lower_quartile, min
		 FROM generations
		 WHERE run_id = ?
		 ORDER BY idx`,
		runID,
	)
	if err != nil {
		return nil, fmt.Errorf("storage: cannot query generations: %w", err)
	}
	defer rows.Close()

	var gens []Generation
	for rows.Next() {
		var g Generation
		if err := rows.Scan(
			&g.RunID,
			&g.Index,
			&g.Max,
			&g.UpperQuartile,
			&g.Median,
			&g.LowerQuartile,
			&g.Min,
		); err != nil {
			return nil, fmt.Errorf("storage: cannot scan row: %w", err)
		}
		gens = append(gens, g)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("storage: row iteration error: %w", err)
	}

	return gens, nil
}

// DeleteRun removes a run and its generations.
func (s *Store) DeleteRun(id int64) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("storage: cannot begin transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	if _, err := tx.Exec("DELETE FROM generations WHERE run_id = ?", id); err != nil {
		return fmt.Errorf("storage: cannot delete generations: %w", err)
	}
	if _, err := tx.Exec("DELETE FROM runs WHERE id = ?", id); err != nil {
		return fmt.Errorf("storage: cannot delete run: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("storage: cannot commit: %w", err)
	}
	return nil
}
