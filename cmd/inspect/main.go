package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/danielpatrickdp/emotion-pcg/go-optimizer/internal/appraisal"
	"github.com/danielpatrickdp/emotion-pcg/go-optimizer/internal/logging"
	"github.com/danielpatrickdp/emotion-pcg/go-optimizer/internal/pipeline"
	"github.com/danielpatrickdp/emotion-pcg/go-optimizer/internal/store"
)

// #region main

func main() {
	dbPath := flag.String("db", "", "path to the run archive")
	last := flag.Int("last", 20, "show N most recent runs")
	runID := flag.String("run", "", "show single run detail")
	steps := flag.Bool("steps", false, "include the step log in run detail")
	jsonOut := flag.Bool("json", false, "output as JSON instead of table")
	flag.Parse()

	if *dbPath == "" {
		fmt.Fprintln(os.Stderr, "usage: inspect --db path/to/emotion_pcg.db [--last N] [--run id [--steps]] [--json]")
		os.Exit(2)
	}

	st, err := store.NewStore(*dbPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "open db: %v\n", err)
		os.Exit(1)
	}
	defer st.Close()

	if *runID != "" {
		err = runDetailMode(st, *runID, *steps, *jsonOut)
	} else {
		err = runListMode(st, *last, *jsonOut)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

// #endregion main

// #region list-mode

type listRow struct {
	RunID       string  `json:"run_id"`
	LevelID     string  `json:"level_id"`
	Emotion     string  `json:"emotion"`
	Status      string  `json:"status"`
	Improvement float64 `json:"improvement"`
	Patterns    int     `json:"patterns"`
	Rooms       int     `json:"rooms"`
	EvalPassed  bool    `json:"eval_passed"`
	CreatedAt   string  `json:"created_at"`
}

func runListMode(st *store.Store, last int, jsonOut bool) error {
	runs, err := st.ListRuns(last)
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		fmt.Fprintln(os.Stderr, "no runs found")
		return nil
	}

	// Store returns newest first; print chronologically.
	rows := make([]listRow, len(runs))
	for i, r := range runs {
		rows[len(runs)-1-i] = listRow{
			RunID:       r.RunID,
			LevelID:     r.LevelID,
			Emotion:     r.Emotion,
			Status:      r.Status,
			Improvement: r.InitialDistance - r.FinalDistance,
			Patterns:    r.TotalPatterns,
			Rooms:       r.RoomCount,
			EvalPassed:  r.EvalPassed,
			CreatedAt:   r.CreatedAt.Format("2006-01-02T15:04:05Z"),
		}
	}

	if jsonOut {
		return printJSON(rows)
	}

	fmt.Printf("%-10s  %-16s  %-7s  %-10s  %9s  %8s  %5s  %-4s  %s\n",
		"Run", "Level", "Emotion", "Status", "Improved", "Patterns", "Rooms", "Eval", "Time")
	fmt.Printf("%-10s+-%-16s+-%-7s+-%-10s+-%9s+-%8s+-%5s+-%-4s+-%s\n",
		"----------", "----------------", "-------", "----------", "---------", "--------", "-----", "----", "--------------------")
	for _, r := range rows {
		eval := "OK"
		if !r.EvalPassed {
			eval = "FAIL"
		}
		fmt.Printf("%-10s  %-16s  %-7s  %-10s  %9.4f  %8d  %5d  %-4s  %s\n",
			shortID(r.RunID), r.LevelID, r.Emotion, r.Status, r.Improvement, r.Patterns, r.Rooms, eval, r.CreatedAt)
	}
	return nil
}

// #endregion list-mode

// #region detail-mode

type detailOutput struct {
	Run   store.RunRecord         `json:"run"`
	Rooms []pipeline.RoomSnapshot `json:"rooms"`
	Steps []logging.StepEntry     `json:"steps,omitempty"`
}

func runDetailMode(st *store.Store, runID string, withSteps, jsonOut bool) error {
	run, err := st.GetRun(runID)
	if err != nil {
		return err
	}
	rooms, err := st.RoomSnapshots(runID)
	if err != nil {
		return err
	}
	out := detailOutput{Run: run, Rooms: rooms}
	if withSteps {
		if out.Steps, err = logging.Steps(st.DB(), runID); err != nil {
			return err
		}
	}

	if jsonOut {
		return printJSON(out)
	}

	fmt.Printf("Run:        %s\n", run.RunID)
	fmt.Printf("Level:      %s\n", run.LevelID)
	fmt.Printf("Emotion:    %s\n", run.Emotion)
	fmt.Printf("Status:     %s\n", run.Status)
	fmt.Printf("Distance:   %.4f -> %.4f\n", run.InitialDistance, run.FinalDistance)
	fmt.Printf("Patterns:   %d over %d rooms\n", run.TotalPatterns, run.RoomCount)
	fmt.Printf("Eval:       %s\n", evalText(run))
	fmt.Printf("Created:    %s\n", run.CreatedAt.Format("2006-01-02T15:04:05Z"))

	fmt.Printf("\nRooms:\n")
	fmt.Printf("  %-4s %-16s %-5s %-30s %s\n", "#", "Name", "Path", "Appraisal", "Patterns")
	for _, r := range rooms {
		path := ""
		switch {
		case r.IsTerminal:
			path = "end"
		case r.IsOnCriticalPath:
			path = fmt.Sprintf("c%d", r.CriticalOrder)
		}
		fmt.Printf("  %-4d %-16s %-5s %-30s %s\n", r.Index, r.Name, path, profileText(r.Appraisal), patternText(r))
	}

	if withSteps {
		fmt.Printf("\nSteps:\n")
		for _, s := range out.Steps {
			fmt.Printf("  %-9s %3d  %-8s %-20s %-19s %-7s %.4f\n",
				s.Stage, s.Iteration, s.Decision, s.RoomID, s.Pattern, s.Reason, s.Distance)
		}
	}
	return nil
}

// #endregion detail-mode

// #region output

func evalText(r store.RunRecord) string {
	if r.EvalPassed {
		return "passed"
	}
	return r.EvalReason
}

func profileText(p appraisal.Profile) string {
	v := p.Vector()
	parts := make([]string, 0, len(v))
	for _, f := range v {
		parts = append(parts, fmt.Sprintf("%.2f", f))
	}
	return strings.Join(parts, " ")
}

func patternText(r pipeline.RoomSnapshot) string {
	names := make([]string, len(r.Patterns))
	for i, p := range r.Patterns {
		names[i] = p.String()
	}
	s := strings.Join(names, ",")
	if len(r.SuppressedPatterns) > 0 {
		s += fmt.Sprintf(" (%d suppressed)", len(r.SuppressedPatterns))
	}
	return s
}

func printJSON(v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal json: %w", err)
	}
	fmt.Println(string(data))
	return nil
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

// #endregion output
