package main

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/danielpatrickdp/emotion-pcg/go-optimizer/internal/eval"
	"github.com/danielpatrickdp/emotion-pcg/go-optimizer/internal/pipeline"
	"github.com/danielpatrickdp/emotion-pcg/go-optimizer/internal/rooms"
	"github.com/danielpatrickdp/emotion-pcg/go-optimizer/internal/store"
)

func TestExitCode(t *testing.T) {
	pass := pipeline.Result{Eval: eval.EvalResult{Passed: true}}
	fail := pipeline.Result{Eval: eval.EvalResult{Passed: false, Reason: "eval failed: rooms_over_cap"}}

	if got := exitCode([]pipeline.Result{pass, pass}); got != 0 {
		t.Errorf("expected 0 when every level passed, got %d", got)
	}
	if got := exitCode([]pipeline.Result{pass, fail}); got != 1 {
		t.Errorf("expected 1 when a level failed eval, got %d", got)
	}
	if got := exitCode(nil); got != 0 {
		t.Errorf("expected 0 for no levels, got %d", got)
	}
}

func TestLoadLevelsDirectory(t *testing.T) {
	dir := t.TempDir()
	files := map[string]string{
		"b.json": `{"id": "second", "rooms": [{"name": "Start"}, {"name": "End"}]}`,
		"a.json": `{"rooms": [{"name": "Room_1"}]}`,
		"notes":  `ignored`,
	}
	for name, body := range files {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(body), 0o644); err != nil {
			t.Fatal(err)
		}
	}

	levels, err := loadLevels(dir)
	if err != nil {
		t.Fatalf("loadLevels: %v", err)
	}
	if len(levels) != 2 {
		t.Fatalf("expected 2 levels, got %d", len(levels))
	}
	if levels[0].ID != "a" || levels[1].ID != "second" {
		t.Errorf("unexpected level IDs: %s, %s", levels[0].ID, levels[1].ID)
	}

	if _, err := loadLevels(t.TempDir()); err == nil {
		t.Error("expected error for a directory without levels")
	}
}

func TestRunAllArchivesInOrder(t *testing.T) {
	st, err := store.NewStore(filepath.Join(t.TempDir(), "runs.db"))
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	defer st.Close()

	var levels []pipeline.Level
	for _, id := range []string{"l1", "l2", "l3"} {
		levels = append(levels, pipeline.Level{ID: id, Rooms: []rooms.Instance{
			{Name: "Start"}, {Name: "Room_1"}, {Name: "Optional_1"}, {Name: "End"},
		}})
	}

	results, err := runAll(context.Background(), levels, pipeline.DefaultConfig(), nil, st, nil, 2,
		slog.New(slog.DiscardHandler))
	if err != nil {
		t.Fatalf("runAll: %v", err)
	}
	for i, r := range results {
		if r.Snapshot.LevelID != levels[i].ID {
			t.Errorf("result %d: expected level %s, got %s", i, levels[i].ID, r.Snapshot.LevelID)
		}
		if _, err := st.GetRun(r.Snapshot.RunID); err != nil {
			t.Errorf("run %s not archived: %v", r.Snapshot.RunID, err)
		}
	}
}
