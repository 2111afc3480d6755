package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/danielpatrickdp/emotion-pcg/go-optimizer/internal/budget"
	"github.com/danielpatrickdp/emotion-pcg/go-optimizer/internal/config"
	"github.com/danielpatrickdp/emotion-pcg/go-optimizer/internal/handoff"
	"github.com/danielpatrickdp/emotion-pcg/go-optimizer/internal/pipeline"
	"github.com/danielpatrickdp/emotion-pcg/go-optimizer/internal/store"
)

// #region main
func main() {
	os.Exit(run())
}

// run does the work of main so deferred closes happen before the exit.
func run() int {
	settings, err := config.FromEnv()
	if err != nil {
		log.Fatalf("read environment: %v", err)
	}

	levelPath := flag.String("level", "", "level JSON file, or a directory of them (batch)")
	flag.StringVar(&settings.DBPath, "db", settings.DBPath, "sqlite run archive (empty disables)")
	flag.StringVar(&settings.Target, "emotion", settings.Target, "target emotion: wonder | fear | joy")
	flag.IntVar(&settings.MaxPatterns, "max-patterns", settings.MaxPatterns, "patterns per room cap (1-4)")
	flag.IntVar(&settings.MaxIterations, "max-iterations", settings.MaxIterations, "optimizer iteration cap")
	flag.Uint64Var(&settings.Seed, "seed", settings.Seed, "filler seed")
	flag.BoolVar(&settings.FillOptional, "fill", settings.FillOptional, "decorate optional rooms")
	flag.StringVar(&settings.DesiredTables, "tables", settings.DesiredTables, "desired-count override JSON")
	flag.StringVar(&settings.RedisAddr, "redis", settings.RedisAddr, "publish snapshots to this redis (empty disables)")
	workers := flag.Int("workers", 4, "levels optimized in parallel in batch mode")
	jsonOut := flag.Bool("json", false, "print snapshots as JSON")
	verbose := flag.Bool("v", false, "debug logging")
	flag.Parse()

	if *levelPath == "" {
		fmt.Fprintln(os.Stderr, "usage: optimizer --level level.json|dir [--emotion fear] [--db path] [--redis addr] [--json]")
		return 2
	}

	level := slog.LevelInfo
	if *verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	cfg, err := settings.Pipeline()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		return 2
	}
	tables, err := settings.Tables()
	if err != nil {
		log.Fatalf("load desired tables: %v", err)
	}

	levels, err := loadLevels(*levelPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load levels: %v\n", err)
		return 2
	}

	var st *store.Store
	if settings.DBPath != "" {
		st, err = store.NewStore(settings.DBPath)
		if err != nil {
			log.Fatalf("failed to open store: %v", err)
		}
		defer st.Close()
	}

	ctx := context.Background()
	var pub *handoff.Publisher
	if settings.RedisAddr != "" {
		client, err := handoff.Dial(ctx, settings.RedisAddr)
		if err != nil {
			log.Fatalf("failed to connect to redis at %s: %v", settings.RedisAddr, err)
		}
		defer client.Close()
		pub = handoff.NewPublisher(client, handoff.DefaultConfig())
	}

	results, err := runAll(ctx, levels, cfg, tables, st, pub, *workers, logger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		return 1
	}

	if *jsonOut {
		snaps := make([]pipeline.Snapshot, len(results))
		for i, r := range results {
			snaps[i] = r.Snapshot
		}
		data, err := json.MarshalIndent(snaps, "", "  ")
		if err != nil {
			log.Fatalf("marshal snapshots: %v", err)
		}
		fmt.Println(string(data))
	} else {
		printTable(results)
	}
	return exitCode(results)
}
// #endregion main

// #region batch
// runAll optimizes every level, archiving and publishing each result as it
// finishes. Results come back in input order.
func runAll(ctx context.Context, levels []pipeline.Level, cfg pipeline.Config, tables budget.Tables,
	st *store.Store, pub *handoff.Publisher, workers int, logger *slog.Logger) ([]pipeline.Result, error) {

	results := make([]pipeline.Result, len(levels))
	var mu sync.Mutex // serializes sqlite writers

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(max(workers, 1))
	for i, lv := range levels {
		g.Go(func() error {
			runner, err := pipeline.NewRunner(cfg, tables, logger)
			if err != nil {
				return err
			}
			res := runner.Run(lv)
			results[i] = res

			if st != nil {
				mu.Lock()
				err := st.SaveRun(lv, cfg, res)
				mu.Unlock()
				if err != nil {
					return fmt.Errorf("save level %s: %w", lv.ID, err)
				}
			}
			if pub != nil {
				pctx, cancel := context.WithTimeout(ctx, 5*time.Second)
				defer cancel()
				if err := pub.Publish(pctx, res.Snapshot); err != nil {
					return fmt.Errorf("publish level %s: %w", lv.ID, err)
				}
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

// loadLevels reads one level file, or every *.json file in a directory
// sorted by name. A level without an ID takes its file name.
func loadLevels(path string) ([]pipeline.Level, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, err
	}
	files := []string{path}
	if info.IsDir() {
		files, err = filepath.Glob(filepath.Join(path, "*.json"))
		if err != nil {
			return nil, err
		}
		sort.Strings(files)
		if len(files) == 0 {
			return nil, fmt.Errorf("no level files in %s", path)
		}
	}

	levels := make([]pipeline.Level, 0, len(files))
	for _, f := range files {
		data, err := os.ReadFile(f)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", f, err)
		}
		var lv pipeline.Level
		if err := json.Unmarshal(data, &lv); err != nil {
			return nil, fmt.Errorf("parse %s: %w", f, err)
		}
		if lv.ID == "" {
			lv.ID = strings.TrimSuffix(filepath.Base(f), filepath.Ext(f))
		}
		levels = append(levels, lv)
	}
	return levels, nil
}
// #endregion batch

// #region output
// exitCode is 1 when any level failed its post-run checks.
func exitCode(results []pipeline.Result) int {
	for _, r := range results {
		if !r.Eval.Passed {
			return 1
		}
	}
	return 0
}

func printTable(results []pipeline.Result) {
	fmt.Printf("%-20s| %-8s| %-10s| %10s| %10s| %8s| %s\n",
		"Level", "Emotion", "Status", "Initial", "Final", "Patterns", "Eval")
	fmt.Printf("%-20s+%-9s+%-11s+%11s+%11s+%9s+%s\n",
		"--------------------", "---------", "-----------", "-----------", "-----------", "---------", "------")
	for _, r := range results {
		s := r.Snapshot
		eval := "OK"
		if !r.Eval.Passed {
			eval = r.Eval.Reason
		}
		fmt.Printf("%-20s| %-8s| %-10s| %10.4f| %10.4f| %8d| %s\n",
			s.LevelID, s.Emotion, s.Status, s.InitialDistance, s.FinalDistance, s.TotalPatterns(), eval)
	}
}
// #endregion output
