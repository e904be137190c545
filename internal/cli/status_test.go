package cli

import (
	"strings"
	"testing"

	"github.com/lucasnoah/testfactory/internal/pipeline"
)

func TestStatusListsRuns(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	store, err := pipeline.DefaultStore()
	if err != nil {
		t.Fatalf("default store: %v", err)
	}
	rs, err := store.Create("run-1", "shopdemo-tests", "checkout")
	if err != nil {
		t.Fatalf("create run: %v", err)
	}

	out, err := executeCommand("status")
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	if !strings.Contains(out, "run-1") || !strings.Contains(out, "checkout") {
		t.Errorf("listing missing run fields: %s", out)
	}
	// UpdatedAt is stored as an RFC3339 string and printed as-is.
	if !strings.Contains(out, rs.UpdatedAt) {
		t.Errorf("listing missing timestamp %q: %s", rs.UpdatedAt, out)
	}
}

func TestStatusShowsOneRun(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	store, err := pipeline.DefaultStore()
	if err != nil {
		t.Fatalf("default store: %v", err)
	}
	if _, err := store.Create("run-2", "shopdemo-tests", "login"); err != nil {
		t.Fatalf("create run: %v", err)
	}

	out, err := executeCommand("status", "run-2")
	if err != nil {
		t.Fatalf("status run-2: %v", err)
	}
	for _, want := range []string{"run-2", "login", "pending"} {
		if !strings.Contains(out, want) {
			t.Errorf("show output missing %q: %s", want, out)
		}
	}
}
