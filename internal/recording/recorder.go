package recording

import (
	"database/sql"
	"fmt"
	"os"
	"sync"

	"contention-bench/internal/logging"

	// SQLite driver for database/sql.
	_ "github.com/mattn/go-sqlite3"
	"github.com/rs/xid"
)

// TrialRecord is one per-trial diagnostic row: the verdict plus the solved
// response times, keyed by the configuration and the seed so any trial can be
// replayed exactly.
type TrialRecord struct {
	Tasks         int
	Interconnects int
	LoadIndex     int
	BusLoad       float64
	Trial         int
	Seed          int64
	Schedulable   bool
	FailedTask    int
	ResponseTimes []float64
}

// Recorder writes trial diagnostics into a SQLite database. Inserts are
// buffered and flushed in batches inside a single transaction; Record is safe
// to call from concurrent workers.
type Recorder struct {
	mu        sync.Mutex
	db        *sql.DB
	pending   []TrialRecord
	batchSize int
	path      string
}

// NewSQLite opens a fresh database at path. An empty path picks a unique
// name in the working directory. Refuses to overwrite an existing file.
func NewSQLite(path string) (*Recorder, error) {
	if path == "" {
		path = "contention_trials_" + xid.New().String() + ".sqlite3"
	}

	if _, err := os.Stat(path); err == nil {
		return nil, fmt.Errorf("recording database %s already exists", path)
	}

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open recording database: %w", err)
	}

	schema := []string{
		`CREATE TABLE trials (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			tasks INTEGER NOT NULL,
			interconnects INTEGER NOT NULL,
			load_index INTEGER NOT NULL,
			bus_load REAL NOT NULL,
			trial INTEGER NOT NULL,
			seed INTEGER NOT NULL,
			schedulable INTEGER NOT NULL,
			failed_task INTEGER NOT NULL
		)`,
		`CREATE TABLE response_times (
			trial_id INTEGER NOT NULL REFERENCES trials(id),
			task INTEGER NOT NULL,
			response_time REAL NOT NULL
		)`,
	}
	for _, stmt := range schema {
		if _, err := db.Exec(stmt); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to create recording schema: %w", err)
		}
	}

	logging.GetLogger().WithField("path", path).Info("Recording trial diagnostics")

	return &Recorder{
		db:        db,
		batchSize: 10000,
		path:      path,
	}, nil
}

func (r *Recorder) Path() string {
	return r.path
}

// Record buffers one trial; the buffer is flushed once it reaches the batch
// size.
func (r *Recorder) Record(rec TrialRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.pending = append(r.pending, rec)
	if len(r.pending) >= r.batchSize {
		return r.flushLocked()
	}
	return nil
}

// Flush writes all buffered trials.
func (r *Recorder) Flush() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.flushLocked()
}

func (r *Recorder) flushLocked() error {
	if len(r.pending) == 0 {
		return nil
	}

	tx, err := r.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin recording transaction: %w", err)
	}

	trialStmt, err := tx.Prepare(`INSERT INTO trials
		(tasks, interconnects, load_index, bus_load, trial, seed, schedulable, failed_task)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		tx.Rollback()
		return fmt.Errorf("failed to prepare trial insert: %w", err)
	}
	defer trialStmt.Close()

	respStmt, err := tx.Prepare(`INSERT INTO response_times
		(trial_id, task, response_time) VALUES (?, ?, ?)`)
	if err != nil {
		tx.Rollback()
		return fmt.Errorf("failed to prepare response-time insert: %w", err)
	}
	defer respStmt.Close()

	for _, rec := range r.pending {
		res, err := trialStmt.Exec(
			rec.Tasks, rec.Interconnects, rec.LoadIndex, rec.BusLoad,
			rec.Trial, rec.Seed, rec.Schedulable, rec.FailedTask,
		)
		if err != nil {
			tx.Rollback()
			return fmt.Errorf("failed to insert trial: %w", err)
		}
		trialID, err := res.LastInsertId()
		if err != nil {
			tx.Rollback()
			return fmt.Errorf("failed to read trial id: %w", err)
		}
		for task, rt := range rec.ResponseTimes {
			if _, err := respStmt.Exec(trialID, task, rt); err != nil {
				tx.Rollback()
				return fmt.Errorf("failed to insert response time: %w", err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit recording batch: %w", err)
	}

	r.pending = r.pending[:0]
	return nil
}

// Close flushes any remaining trials and closes the database.
func (r *Recorder) Close() error {
	if err := r.Flush(); err != nil {
		r.db.Close()
		return err
	}
	return r.db.Close()
}
