package main

import (
	"flag"
	"fmt"
	"log/slog"
	"math"
	"os"

	"github.com/danielpatrickdp/emotion-pcg/go-optimizer/internal/budget"
	"github.com/danielpatrickdp/emotion-pcg/go-optimizer/internal/pipeline"
	"github.com/danielpatrickdp/emotion-pcg/go-optimizer/internal/replay"
	"github.com/danielpatrickdp/emotion-pcg/go-optimizer/internal/store"
)

// distanceTolerance absorbs float noise between the stored and replayed
// final distances.
const distanceTolerance = 1e-9

// #region main

func main() {
	dbPath := flag.String("db", "", "path to the run archive (DB mode)")
	fixturePath := flag.String("fixture", "", "path to fixture JSON (fixture mode)")
	last := flag.Int("last", 50, "number of most recent runs to replay (DB mode)")
	tablesPath := flag.String("tables", "", "desired-count override JSON")
	flag.Parse()

	if (*dbPath == "" && *fixturePath == "") || (*dbPath != "" && *fixturePath != "") {
		fmt.Fprintln(os.Stderr, "usage: replay --db path/to/emotion_pcg.db [--last N]")
		fmt.Fprintln(os.Stderr, "       replay --fixture path/to/fixture.json")
		os.Exit(2)
	}

	tables, err := budget.LoadTablesFile(*tablesPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load tables: %v\n", err)
		os.Exit(2)
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))

	var exitCode int
	if *fixturePath != "" {
		exitCode = runFixtureMode(*fixturePath, tables, logger)
	} else {
		exitCode = runDBMode(*dbPath, *last, tables, logger)
	}
	os.Exit(exitCode)
}

// #endregion main

// #region db-mode

// runDBMode re-runs the stored input of each archived run and compares the
// replayed outcome with what was recorded.
func runDBMode(dbPath string, last int, tables budget.Tables, logger *slog.Logger) int {
	st, err := store.NewStore(dbPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "open db: %v\n", err)
		return 2
	}
	defer st.Close()

	runs, err := st.ListRuns(last)
	if err != nil {
		fmt.Fprintf(os.Stderr, "list runs: %v\n", err)
		return 2
	}
	if len(runs) == 0 {
		fmt.Fprintln(os.Stderr, "no runs found")
		return 2
	}

	fmt.Printf("%-10s| %-16s| %12s| %12s| %9s| %s\n", "Run", "Level", "Stored", "Replayed", "Patterns", "Match")
	fmt.Printf("%-10s+%-17s+%13s+%13s+%10s+%s\n",
		"----------", "-----------------", "-------------", "-------------", "----------", "------")

	matches := 0
	for i := len(runs) - 1; i >= 0; i-- {
		rec := runs[i]
		level, cfg, err := st.RunInput(rec.RunID)
		if err != nil {
			fmt.Fprintf(os.Stderr, "load input %s: %v\n", rec.RunID, err)
			return 2
		}
		results, err := replay.Replay([]pipeline.Level{level}, cfg, tables, logger)
		if err != nil {
			fmt.Fprintf(os.Stderr, "replay %s: %v\n", rec.RunID, err)
			return 2
		}
		got := results[0]

		match := "DIFF"
		if math.Abs(got.FinalDistance-rec.FinalDistance) <= distanceTolerance && got.TotalPatterns == rec.TotalPatterns {
			match = "OK"
			matches++
		}
		fmt.Printf("%-10s| %-16s| %12.6f| %12.6f| %4d/%-4d| %s\n",
			shortID(rec.RunID), rec.LevelID, rec.FinalDistance, got.FinalDistance, rec.TotalPatterns, got.TotalPatterns, match)
	}

	diverge := len(runs) - matches
	fmt.Printf("\nSummary: %d total, %d match, %d diverge\n", len(runs), matches, diverge)
	if diverge > 0 {
		return 1
	}
	return 0
}

// #endregion db-mode

// #region fixture-mode

func runFixtureMode(path string, tables budget.Tables, logger *slog.Logger) int {
	f, err := replay.LoadFixture(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load fixture: %v\n", err)
		return 2
	}
	cfg, err := f.Config.ToPipelineConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "fixture config: %v\n", err)
		return 2
	}

	levels := make([]pipeline.Level, len(f.Levels))
	for i := range f.Levels {
		levels[i] = f.Levels[i].ToLevel()
	}
	results, err := replay.Replay(levels, cfg, tables, logger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "replay: %v\n", err)
		return 2
	}

	fmt.Printf("%-20s| %-10s| %10s| %10s| %8s| %s\n", "Level", "Status", "Initial", "Final", "Patterns", "Eval")
	fmt.Printf("%-20s+%-11s+%11s+%11s+%9s+%s\n",
		"--------------------", "-----------", "-----------", "-----------", "---------", "------")
	for _, r := range results {
		eval := "OK"
		if !r.EvalPassed {
			eval = "FAIL"
		}
		fmt.Printf("%-20s| %-10s| %10.4f| %10.4f| %8d| %s\n",
			r.LevelID, r.Status, r.InitialDistance, r.FinalDistance, r.TotalPatterns, eval)
	}

	s := replay.Summarize(results)
	fmt.Printf("\nSummary: %d levels, %d converged, %d exhausted, %d empty, mean improvement %.4f\n",
		s.TotalLevels, s.Converged, s.Exhausted, s.Empty, s.MeanImprovement)

	mismatches := replay.Check(results, f.ExpectedResults)
	for _, m := range mismatches {
		fmt.Printf("DIFF %s\n", m)
	}
	if len(mismatches) > 0 {
		return 1
	}
	return 0
}

// #endregion fixture-mode

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
