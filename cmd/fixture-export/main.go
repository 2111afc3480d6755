package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"

	"github.com/danielpatrickdp/emotion-pcg/go-optimizer/internal/budget"
	"github.com/danielpatrickdp/emotion-pcg/go-optimizer/internal/pipeline"
	"github.com/danielpatrickdp/emotion-pcg/go-optimizer/internal/replay"
	"github.com/danielpatrickdp/emotion-pcg/go-optimizer/internal/store"
)

// #region main

func main() {
	dbPath := flag.String("db", "", "path to the run archive")
	runID := flag.String("run", "", "run to export (default: latest)")
	outPath := flag.String("out", "", "output fixture JSON path")
	desc := flag.String("desc", "", "fixture description")
	tablesPath := flag.String("tables", "", "desired-count override JSON the run used")
	flag.Parse()

	if *dbPath == "" || *outPath == "" {
		fmt.Fprintln(os.Stderr, "usage: fixture-export --db path/to/db --out path/to/fixture.json [--run id] [--desc text]")
		os.Exit(2)
	}

	if err := run(*dbPath, *runID, *outPath, *desc, *tablesPath); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

// #endregion main

// #region export

// run loads the stored input of one run, re-runs it to recover the full
// result and writes a fixture pinning that outcome.
func run(dbPath, runID, outPath, desc, tablesPath string) error {
	tables, err := budget.LoadTablesFile(tablesPath)
	if err != nil {
		return err
	}

	st, err := store.NewStore(dbPath)
	if err != nil {
		return fmt.Errorf("open db: %w", err)
	}
	defer st.Close()

	var rec store.RunRecord
	if runID == "" {
		rec, err = st.LatestRun()
	} else {
		rec, err = st.GetRun(runID)
	}
	if err != nil {
		return fmt.Errorf("find run: %w", err)
	}

	level, cfg, err := st.RunInput(rec.RunID)
	if err != nil {
		return fmt.Errorf("load run input: %w", err)
	}

	runner, err := pipeline.NewRunner(cfg, tables, slog.New(slog.DiscardHandler))
	if err != nil {
		return err
	}
	res := runner.Run(level)
	if res.Snapshot.TotalPatterns() != rec.TotalPatterns {
		return fmt.Errorf("run %s does not reproduce: stored %d patterns, replayed %d",
			rec.RunID, rec.TotalPatterns, res.Snapshot.TotalPatterns())
	}

	if desc == "" {
		desc = fmt.Sprintf("Exported from run %s (level %s, %s)", rec.RunID, rec.LevelID, rec.Emotion)
	}
	if err := replay.WriteFixture(outPath, replay.FromRun(desc, level, cfg, res)); err != nil {
		return err
	}

	fmt.Fprintf(os.Stderr, "exported run %s (%d rooms, %d patterns) to %s\n",
		rec.RunID, rec.RoomCount, rec.TotalPatterns, outPath)
	return nil
}

// #endregion export
