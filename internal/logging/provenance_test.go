package logging

import (
	"database/sql"
	"testing"
	"time"

	_ "modernc.org/sqlite"

	"github.com/danielpatrickdp/emotion-pcg/go-optimizer/internal/filler"
	"github.com/danielpatrickdp/emotion-pcg/go-optimizer/internal/optimizer"
	"github.com/danielpatrickdp/emotion-pcg/go-optimizer/internal/pattern"
)

// #region helpers
func setupDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	db.SetMaxOpenConns(1)
	_, err = db.Exec(`CREATE TABLE step_log (
		id          INTEGER PRIMARY KEY AUTOINCREMENT,
		run_id      TEXT NOT NULL,
		stage       TEXT NOT NULL,
		iteration   INTEGER NOT NULL,
		room_id     TEXT,
		pattern     TEXT,
		decision    TEXT NOT NULL,
		improvement REAL NOT NULL,
		distance    REAL NOT NULL,
		reason      TEXT,
		created_at  TEXT NOT NULL
	)`)
	if err != nil {
		t.Fatalf("create table: %v", err)
	}
	return db
}

func sampleResults() (optimizer.Result, filler.Result) {
	opt := optimizer.Result{
		Status:          optimizer.StatusConverged,
		Iterations:      3,
		InitialDistance: 2.0,
		FinalDistance:   1.1,
		Steps: []optimizer.Step{
			{Iteration: 1, RoomID: "Room_1_1", Pattern: pattern.Conflict, Improvement: 0.6, Distance: 1.4},
			{Iteration: 2, RoomID: "Room_2_2", Pattern: pattern.OcclusionAudio, Improvement: 0.3, Distance: 1.1},
		},
	}
	fill := filler.Result{
		Sweeps:     1,
		Placements: []filler.Placement{{Sweep: 1, RoomID: "DeadEnd_1_3", Pattern: pattern.Rewards}},
	}
	return opt, fill
}

// #endregion helpers

// #region entries-tests
func TestEntries_Flatten(t *testing.T) {
	opt, fill := sampleResults()
	entries := Entries("run-1", opt, fill)

	if len(entries) != 4 {
		t.Fatalf("expected 4 entries, got %d", len(entries))
	}
	if entries[0].Pattern != "Conflict" || entries[0].Decision != "commit" {
		t.Errorf("unexpected first entry: %+v", entries[0])
	}
	closing := entries[2]
	if closing.Decision != "no_op" || closing.Reason != "converged" {
		t.Errorf("expected converged no_op, got %+v", closing)
	}
	if entries[3].Stage != StageFiller {
		t.Errorf("expected filler stage, got %s", entries[3].Stage)
	}
}

func TestEntries_EmptyRun(t *testing.T) {
	entries := Entries("run-0", optimizer.Result{Status: optimizer.StatusEmpty}, filler.Result{})
	if len(entries) != 0 {
		t.Fatalf("expected no entries for an empty run, got %d", len(entries))
	}
}

// #endregion entries-tests

// #region log-steps-tests
func TestLogSteps_RoundTrip(t *testing.T) {
	db := setupDB(t)
	defer db.Close()

	opt, fill := sampleResults()
	if err := LogSteps(db, Entries("run-1", opt, fill)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	got, err := Steps(db, "run-1")
	if err != nil {
		t.Fatalf("Steps: %v", err)
	}
	if len(got) != 4 {
		t.Fatalf("expected 4 rows, got %d", len(got))
	}
	if got[1].RoomID != "Room_2_2" || got[1].Distance != 1.1 {
		t.Errorf("unexpected row: %+v", got[1])
	}
	if got[2].RoomID != "" || got[2].Pattern != "" {
		t.Errorf("expected NULL room/pattern on no_op row, got %+v", got[2])
	}
}

func TestLogSteps_NullFields(t *testing.T) {
	db := setupDB(t)
	defer db.Close()

	err := LogSteps(db, []StepEntry{{
		RunID:     "run-2",
		Stage:     StageOptimizer,
		Decision:  "no_op",
		CreatedAt: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
	}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var reason sql.NullString
	db.QueryRow("SELECT reason FROM step_log WHERE run_id = 'run-2'").Scan(&reason)
	if reason.Valid {
		t.Errorf("expected NULL reason, got %q", reason.String)
	}
}

func TestLogSteps_DefaultsTimestamp(t *testing.T) {
	db := setupDB(t)
	defer db.Close()

	if err := LogSteps(db, []StepEntry{{RunID: "run-3", Stage: StageFiller, Decision: "commit"}}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var created string
	db.QueryRow("SELECT created_at FROM step_log WHERE run_id = 'run-3'").Scan(&created)
	if _, err := time.Parse(time.RFC3339Nano, created); err != nil {
		t.Errorf("expected RFC3339Nano timestamp, got %q", created)
	}
}

func TestLogSteps_MissingTable(t *testing.T) {
	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	defer db.Close()

	if err := LogSteps(db, []StepEntry{{RunID: "x", Stage: StageOptimizer, Decision: "commit"}}); err == nil {
		t.Fatal("expected error without step_log table")
	}
}

func TestLogSteps_Empty(t *testing.T) {
	if err := LogSteps(nil, nil); err != nil {
		t.Fatalf("expected nil for no entries, got %v", err)
	}
}

// #endregion log-steps-tests
