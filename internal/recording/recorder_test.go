package recording

import (
	"database/sql"
	"path/filepath"
	"testing"
)

func TestRecorderPersistsTrials(t *testing.T) {
	path := filepath.Join(t.TempDir(), "trials.sqlite3")

	rec, err := NewSQLite(path)
	if err != nil {
		t.Fatalf("NewSQLite failed: %v", err)
	}

	records := []TrialRecord{
		{
			Tasks: 8, Interconnects: 2, LoadIndex: 0, BusLoad: 0,
			Trial: 0, Seed: 1234, Schedulable: true, FailedTask: -1,
			ResponseTimes: []float64{100, 200},
		},
		{
			Tasks: 8, Interconnects: 2, LoadIndex: 1, BusLoad: 0.5,
			Trial: 0, Seed: 1234, Schedulable: false, FailedTask: 1,
			ResponseTimes: []float64{100, 25000},
		},
	}
	for _, r := range records {
		if err := rec.Record(r); err != nil {
			t.Fatalf("Record failed: %v", err)
		}
	}
	if err := rec.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		t.Fatalf("failed to reopen database: %v", err)
	}
	defer db.Close()

	var trials int
	if err := db.QueryRow("SELECT COUNT(*) FROM trials").Scan(&trials); err != nil {
		t.Fatalf("failed to count trials: %v", err)
	}
	if trials != 2 {
		t.Errorf("trial rows = %d, want 2", trials)
	}

	var responses int
	if err := db.QueryRow("SELECT COUNT(*) FROM response_times").Scan(&responses); err != nil {
		t.Fatalf("failed to count response times: %v", err)
	}
	if responses != 4 {
		t.Errorf("response-time rows = %d, want 4", responses)
	}

	var schedulable bool
	var failed int
	if err := db.QueryRow("SELECT schedulable, failed_task FROM trials WHERE load_index = 1").
		Scan(&schedulable, &failed); err != nil {
		t.Fatalf("failed to read verdict: %v", err)
	}
	if schedulable || failed != 1 {
		t.Errorf("stored verdict = (%v, %d), want (false, 1)", schedulable, failed)
	}
}

func TestNewSQLiteRefusesOverwrite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "trials.sqlite3")

	rec, err := NewSQLite(path)
	if err != nil {
		t.Fatalf("NewSQLite failed: %v", err)
	}
	if err := rec.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	if _, err := NewSQLite(path); err == nil {
		t.Errorf("expected error for existing database file")
	}
}
