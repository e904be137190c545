package executor

import "time"

// ExecutionRecord is the raw outcome of launching one script: what ran,
// what it printed, and how it exited. Parsing it into a TestResult is
// the collector's job.
type ExecutionRecord struct {
	TestName    string        `json:"test_name"`
	TestCaseID  string        `json:"test_case_id,omitempty"`
	ScriptPath  string        `json:"script_path"`
	Framework   string        `json:"framework"`
	ExitCode    int           `json:"exit_code"`
	Stdout      string        `json:"stdout,omitempty"`
	Stderr      string        `json:"stderr,omitempty"`
	Duration    time.Duration `json:"duration"`
	TimedOut    bool          `json:"timed_out"`
	LaunchError string        `json:"launch_error,omitempty"`
}

// ResultStatus is the canonical per-test outcome.
type ResultStatus string

const (
	ResultPassed  ResultStatus = "passed"
	ResultFailed  ResultStatus = "failed"
	ResultSkipped ResultStatus = "skipped"
	ResultError   ResultStatus = "error"
)

// StepResult is one reported test line within a script run.
type StepResult struct {
	Number int          `json:"number"`
	Name   string       `json:"name"`
	Status ResultStatus `json:"status"`
}

// maxStackTrace bounds the captured failure detail so a single noisy
// test cannot bloat the report.
const maxStackTrace = 2000

// TestResult is the canonical, framework-independent result for one
// executed script.
type TestResult struct {
	TestName     string       `json:"test_name"`
	TestCaseID   string       `json:"test_case_id,omitempty"`
	Status       ResultStatus `json:"status"`
	Message      string       `json:"message,omitempty"`
	ErrorMessage string       `json:"error_message,omitempty"`
	StackTrace   string       `json:"stack_trace,omitempty"`
	Steps        []StepResult `json:"steps,omitempty"`
	DurationMs   int          `json:"duration_ms"`
	TimedOut     bool         `json:"timed_out,omitempty"`
}

// truncateTrace caps a stack trace at maxStackTrace characters.
func truncateTrace(s string) string {
	if len(s) <= maxStackTrace {
		return s
	}
	return s[:maxStackTrace] + "\n... [truncated]"
}

// Tally counts results by status.
type Tally struct {
	Passed  int `json:"passed"`
	Failed  int `json:"failed"`
	Skipped int `json:"skipped"`
	Errors  int `json:"errors"`
}

// Add counts one result into the tally.
func (t *Tally) Add(r TestResult) {
	switch r.Status {
	case ResultPassed:
		t.Passed++
	case ResultFailed:
		t.Failed++
	case ResultSkipped:
		t.Skipped++
	default:
		t.Errors++
	}
}

// Total is the number of counted results.
func (t Tally) Total() int {
	return t.Passed + t.Failed + t.Skipped + t.Errors
}
