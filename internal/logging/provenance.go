package logging

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/danielpatrickdp/emotion-pcg/go-optimizer/internal/filler"
	"github.com/danielpatrickdp/emotion-pcg/go-optimizer/internal/optimizer"
)

// #region entries
// Entries flattens one run's optimizer commits and filler placements into
// step_log rows. The optimizer's stop reason is recorded as a closing no_op.
func Entries(runID string, opt optimizer.Result, fill filler.Result) []StepEntry {
	now := time.Now().UTC()
	entries := make([]StepEntry, 0, len(opt.Steps)+len(fill.Placements)+1)

	for _, s := range opt.Steps {
		entries = append(entries, StepEntry{
			RunID:       runID,
			Stage:       StageOptimizer,
			Iteration:   s.Iteration,
			RoomID:      s.RoomID,
			Pattern:     s.Pattern.String(),
			Decision:    "commit",
			Improvement: s.Improvement,
			Distance:    s.Distance,
			CreatedAt:   now,
		})
	}
	if opt.Status != "" && opt.Status != optimizer.StatusEmpty {
		entries = append(entries, StepEntry{
			RunID:     runID,
			Stage:     StageOptimizer,
			Iteration: opt.Iterations,
			Decision:  "no_op",
			Distance:  opt.FinalDistance,
			Reason:    string(opt.Status),
			CreatedAt: now,
		})
	}

	for _, p := range fill.Placements {
		entries = append(entries, StepEntry{
			RunID:     runID,
			Stage:     StageFiller,
			Iteration: p.Sweep,
			RoomID:    p.RoomID,
			Pattern:   p.Pattern.String(),
			Decision:  "commit",
			Reason:    "leftover budget",
			CreatedAt: now,
		})
	}
	return entries
}
// #endregion entries

// #region log-steps
// LogSteps writes entries to the step_log table in one transaction.
func LogSteps(db *sql.DB, entries []StepEntry) error {
	if len(entries) == 0 {
		return nil
	}

	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(
		`INSERT INTO step_log (run_id, stage, iteration, room_id, pattern, decision, improvement, distance, reason, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
	)
	if err != nil {
		return fmt.Errorf("prepare step insert: %w", err)
	}
	defer stmt.Close()

	for _, e := range entries {
		if e.CreatedAt.IsZero() {
			e.CreatedAt = time.Now().UTC()
		}
		_, err := stmt.Exec(
			e.RunID,
			e.Stage,
			e.Iteration,
			nullIfEmpty(e.RoomID),
			nullIfEmpty(e.Pattern),
			e.Decision,
			e.Improvement,
			e.Distance,
			nullIfEmpty(e.Reason),
			e.CreatedAt.Format(time.RFC3339Nano),
		)
		if err != nil {
			return fmt.Errorf("log step: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit steps: %w", err)
	}
	return nil
}
// #endregion log-steps

// #region read-steps
// Steps returns a run's step_log rows in insertion order.
func Steps(db *sql.DB, runID string) ([]StepEntry, error) {
	rows, err := db.Query(
		`SELECT run_id, stage, iteration, room_id, pattern, decision, improvement, distance, reason, created_at
		 FROM step_log WHERE run_id = ? ORDER BY id`, runID,
	)
	if err != nil {
		return nil, fmt.Errorf("query steps: %w", err)
	}
	defer rows.Close()

	var out []StepEntry
	for rows.Next() {
		var e StepEntry
		var roomID, pat, reason sql.NullString
		var createdStr string
		if err := rows.Scan(&e.RunID, &e.Stage, &e.Iteration, &roomID, &pat, &e.Decision,
			&e.Improvement, &e.Distance, &reason, &createdStr); err != nil {
			return nil, fmt.Errorf("scan step: %w", err)
		}
		e.RoomID = roomID.String
		e.Pattern = pat.String
		e.Reason = reason.String
		e.CreatedAt, _ = time.Parse(time.RFC3339Nano, createdStr)
		out = append(out, e)
	}
	return out, rows.Err()
}
// #endregion read-steps

// #region helpers
func nullIfEmpty(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}
// #endregion helpers
