package store

import (
	"bytes"
	"fmt"
	"log/slog"
	"path/filepath"
	"testing"
	"time"

	_ "modernc.org/sqlite"

	"github.com/danielpatrickdp/emotion-pcg/go-optimizer/internal/appraisal"
	"github.com/danielpatrickdp/emotion-pcg/go-optimizer/internal/logging"
	"github.com/danielpatrickdp/emotion-pcg/go-optimizer/internal/pipeline"
	"github.com/danielpatrickdp/emotion-pcg/go-optimizer/internal/rooms"
)

func tempDB(t *testing.T) *Store {
	t.Helper()
	dir := t.TempDir()
	s, err := NewStore(filepath.Join(dir, "test.db"))
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func sampleLevel(id string) pipeline.Level {
	names := []string{"Start", "Room_1", "DeadEnd_1", "Room_2", "Optional_1", "End"}
	lv := pipeline.Level{ID: id}
	for i, n := range names {
		lv.Rooms = append(lv.Rooms, rooms.Instance{Name: n, Position: rooms.Vec3{X: float64(i) * 8, Z: 2}})
	}
	return lv
}

func runLevel(t *testing.T, lv pipeline.Level, e appraisal.Emotion) (pipeline.Config, pipeline.Result) {
	t.Helper()
	cfg := pipeline.DefaultConfig()
	cfg.Emotion = e
	cfg.Filler.Seed = 42
	r, err := pipeline.NewRunner(cfg, nil, slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil)))
	if err != nil {
		t.Fatalf("NewRunner: %v", err)
	}
	return cfg, r.Run(lv)
}

func TestSaveAndGetRun(t *testing.T) {
	s := tempDB(t)
	lv := sampleLevel("lvl-1")
	cfg, res := runLevel(t, lv, appraisal.Fear)

	if err := s.SaveRun(lv, cfg, res); err != nil {
		t.Fatalf("SaveRun: %v", err)
	}

	rec, err := s.GetRun(res.Snapshot.RunID)
	if err != nil {
		t.Fatalf("GetRun: %v", err)
	}
	if rec.LevelID != "lvl-1" || rec.Emotion != "fear" {
		t.Fatalf("unexpected record: %+v", rec)
	}
	if rec.RoomCount != 6 {
		t.Fatalf("expected 6 rooms, got %d", rec.RoomCount)
	}
	if rec.TotalPatterns != res.Snapshot.TotalPatterns() {
		t.Fatalf("expected %d patterns, got %d", res.Snapshot.TotalPatterns(), rec.TotalPatterns)
	}
	if rec.FinalDistance != res.Snapshot.FinalDistance {
		t.Fatalf("final distance mismatch: %f vs %f", rec.FinalDistance, res.Snapshot.FinalDistance)
	}
	if rec.EvalPassed != res.Eval.Passed {
		t.Fatal("eval flag mismatch")
	}
	if rec.CreatedAt.IsZero() {
		t.Fatal("expected created_at")
	}
}

func TestRoomSnapshotsRoundTrip(t *testing.T) {
	s := tempDB(t)
	lv := sampleLevel("lvl-rooms")
	cfg, res := runLevel(t, lv, appraisal.Joy)
	if err := s.SaveRun(lv, cfg, res); err != nil {
		t.Fatalf("SaveRun: %v", err)
	}

	got, err := s.RoomSnapshots(res.Snapshot.RunID)
	if err != nil {
		t.Fatalf("RoomSnapshots: %v", err)
	}
	if len(got) != len(res.Snapshot.Rooms) {
		t.Fatalf("expected %d rooms, got %d", len(res.Snapshot.Rooms), len(got))
	}
	for i, want := range res.Snapshot.Rooms {
		g := got[i]
		if g.ID != want.ID || g.CriticalOrder != want.CriticalOrder || g.IsTerminal != want.IsTerminal {
			t.Fatalf("room %d header mismatch: %+v vs %+v", i, g, want)
		}
		if g.Appraisal != want.Appraisal {
			t.Fatalf("room %d appraisal mismatch: %+v vs %+v", i, g.Appraisal, want.Appraisal)
		}
		if len(g.Patterns) != len(want.Patterns) {
			t.Fatalf("room %d patterns mismatch: %v vs %v", i, g.Patterns, want.Patterns)
		}
		for j := range want.Patterns {
			if g.Patterns[j] != want.Patterns[j] {
				t.Fatalf("room %d pattern %d: %s vs %s", i, j, g.Patterns[j], want.Patterns[j])
			}
		}
		if g.HasNextCritical != want.HasNextCritical {
			t.Fatalf("room %d direction flag mismatch", i)
		}
		if want.NextCriticalDirection != nil && *g.NextCriticalDirection != *want.NextCriticalDirection {
			t.Fatalf("room %d direction mismatch", i)
		}
	}
}

func TestRunInputReplaysIdentically(t *testing.T) {
	s := tempDB(t)
	lv := sampleLevel("lvl-replay")
	cfg, res := runLevel(t, lv, appraisal.Wonder)
	if err := s.SaveRun(lv, cfg, res); err != nil {
		t.Fatalf("SaveRun: %v", err)
	}

	gotLevel, gotCfg, err := s.RunInput(res.Snapshot.RunID)
	if err != nil {
		t.Fatalf("RunInput: %v", err)
	}
	if gotCfg.Emotion != appraisal.Wonder || gotCfg.Filler.Seed != 42 {
		t.Fatalf("config not restored: %+v", gotCfg)
	}
	if len(gotLevel.Rooms) != len(lv.Rooms) {
		t.Fatalf("level not restored: %+v", gotLevel)
	}

	r, err := pipeline.NewRunner(gotCfg, nil, slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil)))
	if err != nil {
		t.Fatalf("NewRunner: %v", err)
	}
	again := r.Run(gotLevel)
	if again.Snapshot.FinalDistance != res.Snapshot.FinalDistance {
		t.Fatalf("replay distance %f != %f", again.Snapshot.FinalDistance, res.Snapshot.FinalDistance)
	}

	snap, err := s.Snapshot(res.Snapshot.RunID)
	if err != nil {
		t.Fatalf("Snapshot: %v", err)
	}
	if snap.TotalPatterns() != res.Snapshot.TotalPatterns() {
		t.Fatal("archived snapshot mismatch")
	}
}

func TestSaveRunLogsSteps(t *testing.T) {
	s := tempDB(t)
	lv := sampleLevel("lvl-steps")
	cfg, res := runLevel(t, lv, appraisal.Fear)
	if err := s.SaveRun(lv, cfg, res); err != nil {
		t.Fatalf("SaveRun: %v", err)
	}

	steps, err := logging.Steps(s.DB(), res.Snapshot.RunID)
	if err != nil {
		t.Fatalf("Steps: %v", err)
	}
	want := len(res.Optimizer.Steps) + len(res.Filler.Placements) + 1
	if len(steps) != want {
		t.Fatalf("expected %d step rows, got %d", want, len(steps))
	}
}

func TestListRunsAndLatest(t *testing.T) {
	s := tempDB(t)
	ids := map[string]bool{}
	for i := 0; i < 3; i++ {
		lv := sampleLevel(fmt.Sprintf("lvl-%d", i))
		cfg, res := runLevel(t, lv, appraisal.Fear)
		if err := s.SaveRun(lv, cfg, res); err != nil {
			t.Fatalf("SaveRun: %v", err)
		}
		ids[res.Snapshot.RunID] = true
	}

	runs, err := s.ListRuns(10)
	if err != nil {
		t.Fatalf("ListRuns: %v", err)
	}
	if len(runs) != 3 {
		t.Fatalf("expected 3 runs, got %d", len(runs))
	}

	limited, _ := s.ListRuns(2)
	if len(limited) != 2 {
		t.Fatalf("expected 2 runs with limit, got %d", len(limited))
	}

	latest, err := s.LatestRun()
	if err != nil {
		t.Fatalf("LatestRun: %v", err)
	}
	if !ids[latest.RunID] {
		t.Fatalf("unexpected latest run %s", latest.RunID)
	}
}

// Whole-second and fractional timestamps must order chronologically:
// ":01Z" is earlier than ":01.1Z".
func TestLatestRunOrdersSubsecondTimestamps(t *testing.T) {
	s := tempDB(t)
	base := time.Date(2026, 3, 1, 12, 0, 1, 0, time.UTC)
	stamps := []time.Time{base, base.Add(100 * time.Millisecond), base.Add(100 * time.Millisecond)}

	var order []string
	for i, ts := range stamps {
		s.now = func() time.Time { return ts }
		lv := sampleLevel(fmt.Sprintf("tick-%d", i))
		cfg, res := runLevel(t, lv, appraisal.Joy)
		if err := s.SaveRun(lv, cfg, res); err != nil {
			t.Fatalf("SaveRun: %v", err)
		}
		order = append(order, res.Snapshot.RunID)
	}

	latest, err := s.LatestRun()
	if err != nil {
		t.Fatalf("LatestRun: %v", err)
	}
	if latest.RunID != order[2] {
		t.Errorf("expected latest run %s, got %s (level %s)", order[2], latest.RunID, latest.LevelID)
	}
	if !latest.CreatedAt.Equal(stamps[2]) {
		t.Errorf("expected created_at %v, got %v", stamps[2], latest.CreatedAt)
	}

	runs, err := s.ListRuns(10)
	if err != nil {
		t.Fatalf("ListRuns: %v", err)
	}
	for i, want := range []string{order[2], order[1], order[0]} {
		if runs[i].RunID != want {
			t.Errorf("position %d: expected run %s, got %s", i, want, runs[i].RunID)
		}
	}
}

func TestGetRunNotFound(t *testing.T) {
	s := tempDB(t)
	if _, err := s.GetRun("missing"); err == nil {
		t.Fatal("expected error for missing run")
	}
	if _, _, err := s.RunInput("missing"); err == nil {
		t.Fatal("expected error for missing run input")
	}
}

func TestDuplicateRunRejected(t *testing.T) {
	s := tempDB(t)
	lv := sampleLevel("dup")
	cfg, res := runLevel(t, lv, appraisal.Joy)
	if err := s.SaveRun(lv, cfg, res); err != nil {
		t.Fatalf("SaveRun: %v", err)
	}
	if err := s.SaveRun(lv, cfg, res); err == nil {
		t.Fatal("expected primary key violation on second save")
	}

	got, err := s.RoomSnapshots(res.Snapshot.RunID)
	if err != nil {
		t.Fatalf("RoomSnapshots: %v", err)
	}
	if len(got) != len(res.Snapshot.Rooms) {
		t.Fatalf("failed save must not leave partial rows: %d rooms", len(got))
	}
}

func TestProfileEncoding(t *testing.T) {
	p := appraisal.Profile{Novelty: 0.25, Pleasantness: -0.75, Power: 1, Agency: appraisal.AgencyOther}
	got := decodeProfile(encodeProfile(p), appraisal.AgencyOther)
	if got != p {
		t.Fatalf("expected %+v, got %+v", p, got)
	}
}
