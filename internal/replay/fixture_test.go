package replay

import (
	"path/filepath"
	"reflect"
	"testing"

	"github.com/danielpatrickdp/emotion-pcg/go-optimizer/internal/appraisal"
	"github.com/danielpatrickdp/emotion-pcg/go-optimizer/internal/pipeline"
	"github.com/danielpatrickdp/emotion-pcg/go-optimizer/internal/rooms"
)

// #region fixture-tests

// runFixture loads a fixture, replays its levels and reports every mismatch.
func runFixture(t *testing.T, name string) []ReplayResult {
	t.Helper()
	f, err := LoadFixture(filepath.Join("testdata", name))
	if err != nil {
		t.Fatalf("LoadFixture: %v", err)
	}

	cfg, err := f.Config.ToPipelineConfig()
	if err != nil {
		t.Fatalf("ToPipelineConfig: %v", err)
	}
	levels := make([]pipeline.Level, len(f.Levels))
	for i := range f.Levels {
		levels[i] = f.Levels[i].ToLevel()
	}

	results, err := Replay(levels, cfg, nil, quietLogger())
	if err != nil {
		t.Fatalf("Replay: %v", err)
	}
	if len(results) != len(f.Levels) {
		t.Fatalf("expected %d results, got %d", len(f.Levels), len(results))
	}
	for _, m := range Check(results, f.ExpectedResults) {
		t.Errorf("%s", m)
	}
	return results
}

// TestFixture_FearSuite is the primary regression baseline: if the appraisal
// deltas, desired tables or gate rules change, this catches drift.
func TestFixture_FearSuite(t *testing.T) {
	results := runFixture(t, "fear_suite.json")
	if results[0].Result.Snapshot.Emotion != appraisal.Fear {
		t.Errorf("expected emotion=fear, got %s", results[0].Result.Snapshot.Emotion)
	}
}

// TestFixture_TightCap replays a level whose desired budget exceeds capacity.
func TestFixture_TightCap(t *testing.T) {
	results := runFixture(t, "tight_cap.json")
	if !results[0].Result.Allocation.Rescaled {
		t.Error("expected allocation to be rescaled")
	}
	for _, r := range results[0].Result.Snapshot.Rooms {
		if len(r.Patterns) > 1 {
			t.Errorf("room %s: %d patterns over cap 1", r.ID, len(r.Patterns))
		}
	}
}

func TestLoadFixture_Missing(t *testing.T) {
	if _, err := LoadFixture(filepath.Join("testdata", "nope.json")); err == nil {
		t.Fatal("expected error for missing fixture")
	}
}

func TestFixtureConfig_BadEmotion(t *testing.T) {
	fc := FixtureConfig{Emotion: "boredom"}
	if _, err := fc.ToPipelineConfig(); err == nil {
		t.Fatal("expected error for unknown emotion")
	}
}

func TestFixtureConfig_Defaults(t *testing.T) {
	var fc FixtureConfig
	cfg, err := fc.ToPipelineConfig()
	if err != nil {
		t.Fatalf("ToPipelineConfig: %v", err)
	}
	if cfg.Emotion != appraisal.Wonder {
		t.Errorf("expected default emotion wonder, got %s", cfg.Emotion)
	}
	if cfg.Budget.MaxPatternsPerRoom != 2 {
		t.Errorf("expected default cap 2, got %d", cfg.Budget.MaxPatternsPerRoom)
	}
	if !cfg.FillOptional {
		t.Error("expected filler enabled by default")
	}
}

func TestToLevel_Roles(t *testing.T) {
	fl := FixtureLevel{ID: "x", Rooms: []FixtureRoom{
		{Name: "Hall", Position: [3]float64{1, 2, 3}, Roles: []string{"critical", "terminal"}},
	}}
	lv := fl.ToLevel()
	if len(lv.Rooms) != 1 {
		t.Fatalf("expected 1 room, got %d", len(lv.Rooms))
	}
	r := lv.Rooms[0]
	if r.Position != (rooms.Vec3{X: 1, Y: 2, Z: 3}) {
		t.Errorf("position not carried: %+v", r.Position)
	}
	if len(r.Roles) != 2 || r.Roles[0] != rooms.Role("critical") {
		t.Errorf("roles not carried: %v", r.Roles)
	}
}

// TestFromRun_RoundTrip exports a run as a fixture, writes it, reloads it and
// replays it against its own expectations.
func TestFromRun_RoundTrip(t *testing.T) {
	f, err := LoadFixture(filepath.Join("testdata", "fear_suite.json"))
	if err != nil {
		t.Fatalf("LoadFixture: %v", err)
	}
	cfg, err := f.Config.ToPipelineConfig()
	if err != nil {
		t.Fatalf("ToPipelineConfig: %v", err)
	}
	lv := f.Levels[0].ToLevel()
	results, err := Replay([]pipeline.Level{lv}, cfg, nil, quietLogger())
	if err != nil {
		t.Fatalf("Replay: %v", err)
	}

	exported := FromRun("exported", lv, cfg, results[0].Result)
	path := filepath.Join(t.TempDir(), "exported.json")
	if err := WriteFixture(path, exported); err != nil {
		t.Fatalf("WriteFixture: %v", err)
	}
	back, err := LoadFixture(path)
	if err != nil {
		t.Fatalf("LoadFixture: %v", err)
	}

	cfg2, err := back.Config.ToPipelineConfig()
	if err != nil {
		t.Fatalf("ToPipelineConfig: %v", err)
	}
	again, err := Replay([]pipeline.Level{back.Levels[0].ToLevel()}, cfg2, nil, quietLogger())
	if err != nil {
		t.Fatalf("Replay: %v", err)
	}
	for _, m := range Check(again, back.ExpectedResults) {
		t.Errorf("%s", m)
	}
	if again[0].FinalDistance != results[0].FinalDistance {
		t.Errorf("replay drifted: %v vs %v", again[0].FinalDistance, results[0].FinalDistance)
	}
}

// TestFromRun_KeepsFullConfig exports a run made with a custom classifier
// and non-default tuning; the reloaded fixture must rebuild the same config.
func TestFromRun_KeepsFullConfig(t *testing.T) {
	cfg := pipeline.DefaultConfig()
	cfg.Emotion = appraisal.Joy
	cfg.Classifier = rooms.Classifier{
		Critical: []string{"Hall", "Gate"},
		Eligible: []string{"Hall", "Gate", "Nook"},
		Optional: []string{"Nook"},
		Terminal: []string{"Gate"},
	}
	cfg.Optimizer.RecomputeEvery = 0
	cfg.Filler.MaxSweeps = 3
	cfg.Budget.ReferenceCap = 3
	cfg.Filler.Seed = 5

	lv := pipeline.Level{ID: "custom"}
	for i, n := range []string{"Hall_a", "Nook_a", "Hall_b", "Nook_b", "Gate"} {
		lv.Rooms = append(lv.Rooms, rooms.Instance{Name: n, Position: rooms.Vec3{X: float64(i) * 5}})
	}
	results, err := Replay([]pipeline.Level{lv}, cfg, nil, quietLogger())
	if err != nil {
		t.Fatalf("Replay: %v", err)
	}

	path := filepath.Join(t.TempDir(), "custom.json")
	if err := WriteFixture(path, FromRun("custom", lv, cfg, results[0].Result)); err != nil {
		t.Fatalf("WriteFixture: %v", err)
	}
	back, err := LoadFixture(path)
	if err != nil {
		t.Fatalf("LoadFixture: %v", err)
	}
	got, err := back.Config.ToPipelineConfig()
	if err != nil {
		t.Fatalf("ToPipelineConfig: %v", err)
	}
	if !reflect.DeepEqual(got, cfg) {
		t.Fatalf("config not preserved:\n got %+v\nwant %+v", got, cfg)
	}

	again, err := Replay([]pipeline.Level{back.Levels[0].ToLevel()}, got, nil, quietLogger())
	if err != nil {
		t.Fatalf("Replay: %v", err)
	}
	for i, r := range again[0].Result.Snapshot.Rooms {
		want := results[0].Result.Snapshot.Rooms[i]
		if r.IsOnCriticalPath != want.IsOnCriticalPath || len(r.Patterns) != len(want.Patterns) {
			t.Errorf("room %s replayed differently: %+v vs %+v", r.ID, r, want)
		}
	}
	if !again[0].Result.Snapshot.Rooms[0].IsOnCriticalPath {
		t.Error("expected Hall_a critical under the custom classifier")
	}
}

// #endregion fixture-tests
