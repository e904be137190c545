package db

import (
	"testing"
)

func testDB(t *testing.T) *DB {
	t.Helper()
	d, err := Open(":memory:")
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	if err := d.Migrate(); err != nil {
		t.Fatalf("migrate test db: %v", err)
	}
	t.Cleanup(func() { d.Close() })
	return d
}

func TestMigrate(t *testing.T) {
	d, err := Open(":memory:")
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer d.Close()

	if err := d.Migrate(); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	tables := []string{"schema_version", "pipeline_events", "approval_events", "execution_results"}
	for _, table := range tables {
		var name string
		err := d.conn.QueryRow("SELECT name FROM sqlite_master WHERE type='table' AND name=?", table).Scan(&name)
		if err != nil {
			t.Errorf("table %s not found: %v", table, err)
		}
	}

	var version int
	if err := d.conn.QueryRow("SELECT version FROM schema_version").Scan(&version); err != nil {
		t.Fatalf("query schema_version: %v", err)
	}
	if version != 1 {
		t.Errorf("expected schema version 1, got %d", version)
	}

	// Migrate again should be idempotent
	if err := d.Migrate(); err != nil {
		t.Fatalf("second migrate: %v", err)
	}
}

func TestReset(t *testing.T) {
	d := testDB(t)

	if err := d.LogPipelineEvent("run-1", "discovery", "run_started", ""); err != nil {
		t.Fatalf("log event: %v", err)
	}

	if err := d.Reset(); err != nil {
		t.Fatalf("reset: %v", err)
	}

	events, err := d.RunEvents("run-1")
	if err != nil {
		t.Fatalf("run events after reset: %v", err)
	}
	if len(events) != 0 {
		t.Errorf("expected no events after reset, got %d", len(events))
	}
}

func TestLogPipelineEvent_RunEvents(t *testing.T) {
	d := testDB(t)

	if err := d.LogPipelineEvent("run-1", "", "run_started", "feature: checkout"); err != nil {
		t.Fatalf("log: %v", err)
	}
	if err := d.LogPipelineEvent("run-1", "discovery", "stage_started", ""); err != nil {
		t.Fatalf("log: %v", err)
	}
	if err := d.LogPipelineEvent("run-1", "discovery", "stage_completed", ""); err != nil {
		t.Fatalf("log: %v", err)
	}
	if err := d.LogPipelineEvent("run-2", "", "run_started", ""); err != nil {
		t.Fatalf("log: %v", err)
	}

	events, err := d.RunEvents("run-1")
	if err != nil {
		t.Fatalf("run events: %v", err)
	}
	if len(events) != 3 {
		t.Fatalf("got %d events, want 3", len(events))
	}
	if events[0].Event != "run_started" || events[2].Event != "stage_completed" {
		t.Errorf("unexpected ordering: %+v", events)
	}
	if events[1].Stage != "discovery" {
		t.Errorf("stage = %q", events[1].Stage)
	}
}

func TestLogPipelineEvent_RejectsUnknownEvent(t *testing.T) {
	d := testDB(t)
	if err := d.LogPipelineEvent("run-1", "", "made_up_event", ""); err == nil {
		t.Fatal("expected CHECK constraint violation for unknown event")
	}
}

func TestLogApprovalEvent(t *testing.T) {
	d := testDB(t)

	if err := d.LogApprovalEvent("ap-1", "run-1", "test_plan", "pending", ""); err != nil {
		t.Fatalf("log: %v", err)
	}
	if err := d.LogApprovalEvent("ap-1", "run-1", "test_plan", "approved", "reviewer"); err != nil {
		t.Fatalf("log: %v", err)
	}

	var count int
	if err := d.conn.QueryRow("SELECT COUNT(*) FROM approval_events WHERE approval_id = 'ap-1'").Scan(&count); err != nil {
		t.Fatalf("count: %v", err)
	}
	if count != 2 {
		t.Errorf("count = %d, want 2", count)
	}
}

func TestLogExecutionResult_RunResults(t *testing.T) {
	d := testDB(t)

	if err := d.LogExecutionResult("run-1", "test_login", "TC-1", "passed", 120, false, ""); err != nil {
		t.Fatalf("log: %v", err)
	}
	if err := d.LogExecutionResult("run-1", "test_slow", "TC-2", "failed", 1000, true, "killed"); err != nil {
		t.Fatalf("log: %v", err)
	}

	results, err := d.RunResults("run-1")
	if err != nil {
		t.Fatalf("run results: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("got %d results, want 2", len(results))
	}
	if results[0].TestName != "test_login" || results[0].Status != "passed" {
		t.Errorf("result[0]: %+v", results[0])
	}
	if !results[1].TimedOut || results[1].Detail != "killed" {
		t.Errorf("result[1]: %+v", results[1])
	}
}
