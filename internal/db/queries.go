package db

import (
	"database/sql"
	"fmt"
)

// PipelineEvent represents a row in the pipeline_events table.
type PipelineEvent struct {
	ID        int
	RunID     string
	Stage     string
	Event     string
	Detail    string
	Timestamp string
}

// ApprovalEvent represents a row in the approval_events table.
type ApprovalEvent struct {
	ID         int
	ApprovalID string
	RunID      string
	Type       string
	Status     string
	Actor      string
	Timestamp  string
}

// ExecutionResult represents a row in the execution_results table.
type ExecutionResult struct {
	ID         int
	RunID      string
	TestName   string
	TestCase   string
	Status     string
	DurationMs int
	TimedOut   bool
	Detail     string
	Timestamp  string
}

// LogPipelineEvent inserts a pipeline event.
func (d *DB) LogPipelineEvent(runID, stage, event, detail string) error {
	_, err := d.conn.Exec(
		`INSERT INTO pipeline_events (run_id, stage, event, detail) VALUES (?, ?, ?, ?)`,
		runID, stage, event, detail,
	)
	if err != nil {
		return fmt.Errorf("log pipeline event: %w", err)
	}
	return nil
}

// LogApprovalEvent inserts an approval event.
func (d *DB) LogApprovalEvent(approvalID, runID, approvalType, status, actor string) error {
	_, err := d.conn.Exec(
		`INSERT INTO approval_events (approval_id, run_id, approval_type, status, actor) VALUES (?, ?, ?, ?, ?)`,
		approvalID, runID, approvalType, status, actor,
	)
	if err != nil {
		return fmt.Errorf("log approval event: %w", err)
	}
	return nil
}

// LogExecutionResult inserts one per-test execution outcome.
func (d *DB) LogExecutionResult(runID, testName, testCase, status string, durationMs int, timedOut bool, detail string) error {
	_, err := d.conn.Exec(
		`INSERT INTO execution_results (run_id, test_name, test_case, status, duration_ms, timed_out, detail) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		runID, testName, testCase, status, durationMs, timedOut, detail,
	)
	if err != nil {
		return fmt.Errorf("log execution result: %w", err)
	}
	return nil
}

// RunEvents returns the event trail for a run, oldest first.
func (d *DB) RunEvents(runID string) ([]PipelineEvent, error) {
	rows, err := d.conn.Query(
		`SELECT id, run_id, stage, event, detail, timestamp
		 FROM pipeline_events WHERE run_id = ? ORDER BY id ASC`,
		runID,
	)
	if err != nil {
		return nil, fmt.Errorf("query run events: %w", err)
	}
	defer rows.Close()

	var events []PipelineEvent
	for rows.Next() {
		var e PipelineEvent
		var stage, detail sql.NullString
		if err := rows.Scan(&e.ID, &e.RunID, &stage, &e.Event, &detail, &e.Timestamp); err != nil {
			return nil, fmt.Errorf("scan run event: %w", err)
		}
		e.Stage = stage.String
		e.Detail = detail.String
		events = append(events, e)
	}
	return events, rows.Err()
}

// RunResults returns the per-test outcomes recorded for a run, in
// insertion order.
func (d *DB) RunResults(runID string) ([]ExecutionResult, error) {
	rows, err := d.conn.Query(
		`SELECT id, run_id, test_name, test_case, status, duration_ms, timed_out, detail, timestamp
		 FROM execution_results WHERE run_id = ? ORDER BY id ASC`,
		runID,
	)
	if err != nil {
		return nil, fmt.Errorf("query run results: %w", err)
	}
	defer rows.Close()

	var results []ExecutionResult
	for rows.Next() {
		var r ExecutionResult
		var testCase, detail sql.NullString
		var durationMs sql.NullInt64
		if err := rows.Scan(&r.ID, &r.RunID, &r.TestName, &testCase, &r.Status, &durationMs, &r.TimedOut, &detail, &r.Timestamp); err != nil {
			return nil, fmt.Errorf("scan run result: %w", err)
		}
		r.TestCase = testCase.String
		r.DurationMs = int(durationMs.Int64)
		r.Detail = detail.String
		results = append(results, r)
	}
	return results, rows.Err()
}
