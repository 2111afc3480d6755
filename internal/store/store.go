// Package store archives optimization runs in SQLite: the level input and
// config needed to reproduce a run, its summary, per-room snapshots and the
// step provenance log.
package store

import (
	"database/sql"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"math"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/danielpatrickdp/emotion-pcg/go-optimizer/internal/appraisal"
	"github.com/danielpatrickdp/emotion-pcg/go-optimizer/internal/logging"
	"github.com/danielpatrickdp/emotion-pcg/go-optimizer/internal/pattern"
	"github.com/danielpatrickdp/emotion-pcg/go-optimizer/internal/pipeline"
	"github.com/danielpatrickdp/emotion-pcg/go-optimizer/internal/rooms"
)

// #region schema
const schema = `
CREATE TABLE IF NOT EXISTS runs (
	run_id           TEXT PRIMARY KEY,
	level_id         TEXT NOT NULL,
	emotion          TEXT NOT NULL,
	status           TEXT NOT NULL,
	initial_distance REAL NOT NULL,
	final_distance   REAL NOT NULL,
	total_patterns   INTEGER NOT NULL,
	room_count       INTEGER NOT NULL,
	eval_passed      INTEGER NOT NULL,
	eval_reason      TEXT,
	level_json       TEXT NOT NULL,
	config_json      TEXT NOT NULL,
	snapshot_json    TEXT NOT NULL,
	created_at       TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS room_snapshots (
	run_id         TEXT NOT NULL,
	room_index     INTEGER NOT NULL,
	room_id        TEXT NOT NULL,
	name           TEXT NOT NULL,
	is_critical    INTEGER NOT NULL,
	is_terminal    INTEGER NOT NULL,
	critical_order INTEGER NOT NULL,
	appraisal      BLOB NOT NULL,
	agency         TEXT NOT NULL,
	patterns       TEXT,
	suppressed     TEXT,
	next_dir_x     REAL,
	next_dir_y     REAL,
	next_dir_z     REAL,
	PRIMARY KEY (run_id, room_index),
	FOREIGN KEY (run_id) REFERENCES runs(run_id)
);

CREATE TABLE IF NOT EXISTS step_log (
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
	created_at  TEXT NOT NULL,
	FOREIGN KEY (run_id) REFERENCES runs(run_id)
);

CREATE INDEX IF NOT EXISTS idx_runs_created ON runs(created_at);
`
// #endregion schema

// #region store-struct
// timeLayout is fixed-width so created_at sorts chronologically as TEXT.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// Store manages the run archive in SQLite.
type Store struct {
	db  *sql.DB
	now func() time.Time
}
// #endregion store-struct

// #region constructor
// NewStore opens a SQLite database and runs migrations.
func NewStore(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	if dbPath == ":memory:" {
		db.SetMaxOpenConns(1)
	}
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		return nil, fmt.Errorf("pragma: %w", err)
	}
	if _, err := db.Exec("PRAGMA foreign_keys=ON"); err != nil {
		return nil, fmt.Errorf("pragma fk: %w", err)
	}
	if _, err := db.Exec("PRAGMA busy_timeout=5000"); err != nil {
		return nil, fmt.Errorf("pragma busy: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return &Store{db: db, now: time.Now}, nil
}
// #endregion constructor

// #region close
// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}
// #endregion close

// #region db-accessor
// DB returns the underlying *sql.DB for use by other packages (e.g. logging).
func (s *Store) DB() *sql.DB {
	return s.db
}
// #endregion db-accessor

// #region save-run
// SaveRun archives a finished run: summary row, reproducible input, and one
// row per room, atomically. Step provenance is written afterwards.
func (s *Store) SaveRun(level pipeline.Level, cfg pipeline.Config, res pipeline.Result) error {
	snap := res.Snapshot

	levelJSON, err := json.Marshal(level)
	if err != nil {
		return fmt.Errorf("marshal level: %w", err)
	}
	cfgJSON, err := json.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	snapJSON, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("marshal snapshot: %w", err)
	}

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.Exec(
		`INSERT INTO runs (run_id, level_id, emotion, status, initial_distance, final_distance,
		                   total_patterns, room_count, eval_passed, eval_reason,
		                   level_json, config_json, snapshot_json, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		snap.RunID, snap.LevelID, snap.Emotion.String(), string(snap.Status),
		snap.InitialDistance, snap.FinalDistance,
		snap.TotalPatterns(), len(snap.Rooms), boolInt(res.Eval.Passed), nullIfEmpty(res.Eval.Reason),
		string(levelJSON), string(cfgJSON), string(snapJSON),
		s.now().UTC().Format(timeLayout),
	)
	if err != nil {
		return fmt.Errorf("insert run: %w", err)
	}

	for _, r := range snap.Rooms {
		var dx, dy, dz interface{}
		if r.NextCriticalDirection != nil {
			dx, dy, dz = r.NextCriticalDirection.X, r.NextCriticalDirection.Y, r.NextCriticalDirection.Z
		}
		_, err = tx.Exec(
			`INSERT INTO room_snapshots (run_id, room_index, room_id, name, is_critical, is_terminal,
			                             critical_order, appraisal, agency, patterns, suppressed,
			                             next_dir_x, next_dir_y, next_dir_z)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			snap.RunID, r.Index, r.ID, r.Name, boolInt(r.IsOnCriticalPath), boolInt(r.IsTerminal),
			r.CriticalOrder, encodeProfile(r.Appraisal), r.Appraisal.Agency.String(),
			nullIfEmpty(joinPatterns(r.Patterns)), nullIfEmpty(joinPatterns(r.SuppressedPatterns)),
			dx, dy, dz,
		)
		if err != nil {
			return fmt.Errorf("insert room %s: %w", r.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}

	if err := logging.LogSteps(s.db, logging.Entries(snap.RunID, res.Optimizer, res.Filler)); err != nil {
		return fmt.Errorf("log steps for %s: %w", snap.RunID, err)
	}
	return nil
}
// #endregion save-run

// #region get-run
const runColumns = `run_id, level_id, emotion, status, initial_distance, final_distance,
	total_patterns, room_count, eval_passed, eval_reason, created_at`

// GetRun retrieves one run summary by ID.
func (s *Store) GetRun(id string) (RunRecord, error) {
	rec, err := scanRun(s.db.QueryRow(`SELECT `+runColumns+` FROM runs WHERE run_id = ?`, id))
	if err != nil {
		return RunRecord{}, fmt.Errorf("get run %s: %w", id, err)
	}
	return rec, nil
}

// LatestRun returns the most recently archived run.
func (s *Store) LatestRun() (RunRecord, error) {
	rec, err := scanRun(s.db.QueryRow(`SELECT ` + runColumns + ` FROM runs ORDER BY created_at DESC, rowid DESC LIMIT 1`))
	if err != nil {
		return RunRecord{}, fmt.Errorf("latest run: %w", err)
	}
	return rec, nil
}
// #endregion get-run

// #region list-runs
// ListRuns returns the most recent run summaries, newest first.
func (s *Store) ListRuns(limit int) ([]RunRecord, error) {
	rows, err := s.db.Query(`SELECT `+runColumns+` FROM runs ORDER BY created_at DESC, rowid DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	var records []RunRecord
	for rows.Next() {
		rec, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("scan row: %w", err)
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}
// #endregion list-runs

// #region room-snapshots
// RoomSnapshots returns the archived per-room state of a run in room order.
func (s *Store) RoomSnapshots(runID string) ([]pipeline.RoomSnapshot, error) {
	rows, err := s.db.Query(
		`SELECT room_index, room_id, name, is_critical, is_terminal, critical_order, appraisal, agency,
		        patterns, suppressed, next_dir_x, next_dir_y, next_dir_z
		 FROM room_snapshots WHERE run_id = ? ORDER BY room_index`, runID,
	)
	if err != nil {
		return nil, fmt.Errorf("query rooms: %w", err)
	}
	defer rows.Close()

	var out []pipeline.RoomSnapshot
	for rows.Next() {
		var r pipeline.RoomSnapshot
		var critical, terminal int
		var blob []byte
		var agency string
		var patterns, suppressed sql.NullString
		var dx, dy, dz sql.NullFloat64

		if err := rows.Scan(&r.Index, &r.ID, &r.Name, &critical, &terminal, &r.CriticalOrder, &blob, &agency,
			&patterns, &suppressed, &dx, &dy, &dz); err != nil {
			return nil, fmt.Errorf("scan room: %w", err)
		}
		r.IsOnCriticalPath = critical != 0
		r.IsTerminal = terminal != 0

		var ag appraisal.Agency
		if err := ag.UnmarshalText([]byte(agency)); err != nil {
			return nil, fmt.Errorf("room %s: %w", r.ID, err)
		}
		r.Appraisal = decodeProfile(blob, ag)

		if r.Patterns, err = splitPatterns(patterns.String); err != nil {
			return nil, fmt.Errorf("room %s patterns: %w", r.ID, err)
		}
		if r.SuppressedPatterns, err = splitPatterns(suppressed.String); err != nil {
			return nil, fmt.Errorf("room %s suppressed: %w", r.ID, err)
		}
		if dx.Valid {
			r.HasNextCritical = true
			r.NextCriticalDirection = &rooms.Vec3{X: dx.Float64, Y: dy.Float64, Z: dz.Float64}
		}
		out = append(out, r)
	}
	return out, rows.Err()
}
// #endregion room-snapshots

// #region run-input
// RunInput returns the level and config a run was executed with, for replay.
func (s *Store) RunInput(runID string) (pipeline.Level, pipeline.Config, error) {
	var levelJSON, cfgJSON string
	err := s.db.QueryRow(`SELECT level_json, config_json FROM runs WHERE run_id = ?`, runID).Scan(&levelJSON, &cfgJSON)
	if err != nil {
		return pipeline.Level{}, pipeline.Config{}, fmt.Errorf("get run input %s: %w", runID, err)
	}

	var level pipeline.Level
	if err := json.Unmarshal([]byte(levelJSON), &level); err != nil {
		return pipeline.Level{}, pipeline.Config{}, fmt.Errorf("unmarshal level: %w", err)
	}
	var cfg pipeline.Config
	if err := json.Unmarshal([]byte(cfgJSON), &cfg); err != nil {
		return pipeline.Level{}, pipeline.Config{}, fmt.Errorf("unmarshal config: %w", err)
	}
	return level, cfg, nil
}

// Snapshot returns the archived snapshot exactly as it was handed off.
func (s *Store) Snapshot(runID string) (pipeline.Snapshot, error) {
	var snapJSON string
	if err := s.db.QueryRow(`SELECT snapshot_json FROM runs WHERE run_id = ?`, runID).Scan(&snapJSON); err != nil {
		return pipeline.Snapshot{}, fmt.Errorf("get snapshot %s: %w", runID, err)
	}
	var snap pipeline.Snapshot
	if err := json.Unmarshal([]byte(snapJSON), &snap); err != nil {
		return pipeline.Snapshot{}, fmt.Errorf("unmarshal snapshot: %w", err)
	}
	return snap, nil
}
// #endregion run-input

// #region helpers
type rowScanner interface {
	Scan(dest ...any) error
}

func scanRun(row rowScanner) (RunRecord, error) {
	var rec RunRecord
	var passed int
	var reason sql.NullString
	var createdStr string
	if err := row.Scan(&rec.RunID, &rec.LevelID, &rec.Emotion, &rec.Status, &rec.InitialDistance,
		&rec.FinalDistance, &rec.TotalPatterns, &rec.RoomCount, &passed, &reason, &createdStr); err != nil {
		return RunRecord{}, err
	}
	rec.EvalPassed = passed != 0
	rec.EvalReason = reason.String
	rec.CreatedAt, _ = time.Parse(timeLayout, createdStr)
	return rec, nil
}

func joinPatterns(ps []pattern.Type) string {
	names := make([]string, len(ps))
	for i, p := range ps {
		names[i] = p.String()
	}
	return strings.Join(names, ",")
}

func splitPatterns(s string) ([]pattern.Type, error) {
	if s == "" {
		return nil, nil
	}
	parts := strings.Split(s, ",")
	out := make([]pattern.Type, 0, len(parts))
	for _, part := range parts {
		p, err := pattern.Parse(part)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, nil
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func nullIfEmpty(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}
// #endregion helpers

// #region profile-encoding
func encodeProfile(p appraisal.Profile) []byte {
	v := p.Vector()
	buf := make([]byte, appraisal.Dims*8)
	for i, f := range v {
		binary.LittleEndian.PutUint64(buf[i*8:], math.Float64bits(f))
	}
	return buf
}

func decodeProfile(b []byte, agency appraisal.Agency) appraisal.Profile {
	var v [appraisal.Dims]float64
	for i := range v {
		if i*8+8 <= len(b) {
			v[i] = math.Float64frombits(binary.LittleEndian.Uint64(b[i*8:]))
		}
	}
	return appraisal.FromVector(v, agency)
}
// #endregion profile-encoding
