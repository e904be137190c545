// Package pipeline holds the typed state threaded between stages and the
// on-disk artifact store for pipeline runs.
package pipeline

import "time"

// StageStatus is the lifecycle status of a single stage.
type StageStatus string

const (
	StagePending          StageStatus = "pending"
	StageInProgress       StageStatus = "in_progress"
	StageCompleted        StageStatus = "completed"
	StageFailed           StageStatus = "failed"
	StageAwaitingApproval StageStatus = "awaiting_approval"
)

// StageMeta is the bookkeeping common to every stage state. It is a
// value record: node transitions copy it, they never mutate a copy a
// caller is still holding.
type StageMeta struct {
	Stage            string      `json:"stage"`
	Status           StageStatus `json:"status"`
	Error            string      `json:"error,omitempty"`
	StartTime        time.Time   `json:"start_time,omitzero"`
	EndTime          time.Time   `json:"end_time,omitzero"`
	RequiresApproval bool        `json:"requires_approval"`
	ApprovalID       string      `json:"approval_id,omitempty"`
	ApprovalStatus   string      `json:"approval_status,omitempty"`
}

// Duration returns the elapsed stage time, or 0 if the stage has not
// finished.
func (m StageMeta) Duration() time.Duration {
	if m.StartTime.IsZero() || m.EndTime.IsZero() {
		return 0
	}
	return m.EndTime.Sub(m.StartTime)
}

// State pairs stage bookkeeping with a stage-specific payload. States
// are passed by value between engine nodes so the orchestrator can
// snapshot after every node without observing partial writes.
type State[D any] struct {
	StageMeta
	Data D `json:"data"`
}

// Element is a discovered application element (form field, button,
// link, API endpoint).
type Element struct {
	Name       string            `json:"name"`
	Kind       string            `json:"kind"` // "input", "button", "link", "api", ...
	Selector   string            `json:"selector,omitempty"`
	Page       string            `json:"page,omitempty"`
	Attributes map[string]string `json:"attributes,omitempty"`
}

// TestStep is one action within a test case.
type TestStep struct {
	Number int    `json:"number"`
	Action string `json:"action"`
	Target string `json:"target,omitempty"`
	Value  string `json:"value,omitempty"`
}

// TestCase is a single planned test.
type TestCase struct {
	ID          string     `json:"id"`
	Name        string     `json:"name"`
	Description string     `json:"description,omitempty"`
	Priority    string     `json:"priority,omitempty"` // "high", "medium", "low"
	Tags        []string   `json:"tags,omitempty"`
	Steps       []TestStep `json:"steps,omitempty"`
	Expected    string     `json:"expected,omitempty"`
}

// TestPlan groups the test cases planned for a feature.
type TestPlan struct {
	ID      string     `json:"id"`
	Feature string     `json:"feature"`
	Summary string     `json:"summary,omitempty"`
	Cases   []TestCase `json:"cases"`
}

// Script is a generated, executable test script on disk.
type Script struct {
	TestCaseID   string `json:"test_case_id"`
	TestCaseName string `json:"test_case_name"`
	Path         string `json:"path"`
	Framework    string `json:"framework"`
}

// RunStatus is the lifecycle status of a whole pipeline run.
const (
	RunPending    = "pending"
	RunInProgress = "in_progress"
	RunCompleted  = "completed"
	RunFailed     = "failed"
)

// RunState is the top-level persisted state for a single pipeline run.
type RunState struct {
	ID              string   `json:"id"`
	Name            string   `json:"name"`
	Feature         string   `json:"feature"`
	Status          string   `json:"status"`
	CurrentStage    string   `json:"current_stage,omitempty"`
	CompletedStages []string `json:"completed_stages"`
	Error           string   `json:"error,omitempty"`
	CreatedAt       string   `json:"created_at"`
	UpdatedAt       string   `json:"updated_at"`
}
