package storage

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/vovakirdan/tetris-evolve/internal/genetic"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func TestStoreOpenClose(t *testing.T) {
	tmpDir := t.TempDir()
	dbPath := filepath.Join(tmpDir, "nested", "test.db")

	store, err := Open(dbPath)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	defer store.Close()

	// Check that the file was created
	if _, err := os.Stat(dbPath); os.IsNotExist(err) {
		t.Error("Database file was not created")
	}
}

func TestStoreReopenKeepsRuns(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "test.db")

	store, err := Open(dbPath)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	id, err := store.CreateRun(RunParams{Seed: 1, Population: 4})
	if err != nil {
		t.Fatalf("CreateRun() failed: %v", err)
	}
	store.Close()

	store, err = Open(dbPath)
	if err != nil {
		t.Fatalf("second Open() failed: %v", err)
	}
	defer store.Close()

	run, err := store.Run(id)
	if err != nil || run == nil {
		t.Fatalf("Run(%d) = %v, %v", id, run, err)
	}
}

func TestRunLifecycle(t *testing.T) {
	store := openTestStore(t)

	params := RunParams{Seed: 42, Population: 25, Generations: 3, Games: 5, KillLines: 300}
	id, err := store.CreateRun(params)
	if err != nil {
		t.Fatalf("CreateRun() failed: %v", err)
	}

	run, err := store.Run(id)
	if err != nil {
		t.Fatalf("Run() failed: %v", err)
	}
	if run.Status != StatusRunning {
		t.Errorf("Status = %q, want %q", run.Status, StatusRunning)
	}
	if run.RunParams != params {
		t.Errorf("RunParams = %+v, want %+v", run.RunParams, params)
	}
	if run.CreatedAt.IsZero() {
		t.Error("CreatedAt not set")
	}
	if !run.FinishedAt.IsZero() {
		t.Error("FinishedAt set on a running run")
	}

	if err := store.CompleteRun(id, "1,2,3,4", 1234.5); err != nil {
		t.Fatalf("CompleteRun() failed: %v", err)
	}

	run, err = store.Run(id)
	if err != nil {
		t.Fatalf("Run() failed: %v", err)
	}
	if run.Status != StatusCompleted || run.Champion != "1,2,3,4" || run.ChampionFitness != 1234.5 {
		t.Errorf("completed run = %+v", run)
	}
	if run.FinishedAt.IsZero() {
		t.Error("FinishedAt not set")
	}
}

func TestFailRun(t *testing.T) {
	store := openTestStore(t)

	id, _ := store.CreateRun(RunParams{Seed: 1})
	if err := store.FailRun(id, errors.New("fitness panicked")); err != nil {
		t.Fatalf("FailRun() failed: %v", err)
	}

	run, _ := store.Run(id)
	if run.Status != StatusFailed || run.Error != "fitness panicked" {
		t.Errorf("failed run = %+v", run)
	}

	if err := store.FailRun(9999, nil); err == nil {
		t.Error("FailRun() on unknown run should fail")
	}
}

func TestRunNotFound(t *testing.T) {
	store := openTestStore(t)

	run, err := store.Run(42)
	if err != nil {
		t.Fatalf("Run() failed: %v", err)
	}
	if run != nil {
		t.Errorf("Run() = %+v, want nil", run)
	}
}

func TestGenerations(t *testing.T) {
	store := openTestStore(t)
	id, _ := store.CreateRun(RunParams{Seed: 1})

	sums := []genetic.Summary{
		{Max: 10, UpperQuartile: 8, Median: 5, LowerQuartile: 2, Min: 0},
		{Max: 20, UpperQuartile: 15, Median: 9, LowerQuartile: 4, Min: 1},
	}
	// Insert out of order.
	if err := store.SaveGeneration(id, 1, sums[1]); err != nil {
		t.Fatalf("SaveGeneration() failed: %v", err)
	}
	if err := store.SaveGeneration(id, 0, sums[0]); err != nil {
		t.Fatalf("SaveGeneration() failed: %v", err)
	}

	gens, err := store.Generations(id)
	if err != nil {
		t.Fatalf("Generations() failed: %v", err)
	}
	if len(gens) != 2 {
		t.Fatalf("Expected 2 generations, got %d", len(gens))
	}
	for i, g := range gens {
		if g.Index != i || g.RunID != id || g.Summary != sums[i] {
			t.Errorf("generation %d = %+v", i, g)
		}
	}
}

func TestRecentAndBestRuns(t *testing.T) {
	store := openTestStore(t)

	best, err := store.BestRun()
	if err != nil || best != nil {
		t.Fatalf("BestRun() on empty store = %v, %v", best, err)
	}

	fitness := []float64{100, 900, 400}
	var ids []int64
	for i, f := range fitness {
		id, _ := store.CreateRun(RunParams{Seed: int64(i)})
		ids = append(ids, id)
		if err := store.CompleteRun(id, "0,0,0,0", f); err != nil {
			t.Fatalf("CompleteRun() failed: %v", err)
		}
	}
	failed, _ := store.CreateRun(RunParams{Seed: 99})
	store.FailRun(failed, errors.New("boom"))

	recent, err := store.RecentRuns(2)
	if err != nil {
		t.Fatalf("RecentRuns() failed: %v", err)
	}
	if len(recent) != 2 || recent[0].ID != failed || recent[1].ID != ids[2] {
		t.Errorf("RecentRuns(2) = %+v", recent)
	}

	best, err = store.BestRun()
	if err != nil {
		t.Fatalf("BestRun() failed: %v", err)
	}
	if best == nil || best.ID != ids[1] {
		t.Errorf("BestRun() = %+v, want run %d", best, ids[1])
	}
}

func TestDeleteRun(t *testing.T) {
	store := openTestStore(t)
	id, _ := store.CreateRun(RunParams{Seed: 1})
	store.SaveGeneration(id, 0, genetic.Summary{Max: 1})

	if err := store.DeleteRun(id); err != nil {
		t.Fatalf("DeleteRun() failed: %v", err)
	}

	if run, _ := store.Run(id); run != nil {
		t.Error("run still present after delete")
	}
	if gens, _ := store.Generations(id); len(gens) != 0 {
		t.Errorf("generations still present after delete: %v", gens)
	}
}

func TestExpandHome(t *testing.T) {
	home, err := os.UserHomeDir()
	if err != nil {
		t.Skip("no home directory")
	}

	tests := []struct {
		in   string
		want string
	}{
		{"~/.tetrisbot/runs.db", filepath.Join(home, ".tetrisbot", "runs.db")},
		{"/tmp/runs.db", "/tmp/runs.db"},
		{"", ""},
	}

	for _, tt := range tests {
		got, err := ExpandHome(tt.in)
		if err != nil {
			t.Fatalf("ExpandHome(%q) error: %v", tt.in, err)
		}
		if got != tt.want {
			t.Errorf("ExpandHome(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
