// Package approval implements the human-in-the-loop gate: persisted
// approval records, the policy deciding which artifacts need review, and
// the poll-with-deadline waiter used by suspended stages.
package approval

import (
	"time"
)

// Status is the lifecycle status of an approval. Once a status leaves
// pending it is terminal and never changes again.
type Status string

const (
	StatusPending  Status = "pending"
	StatusApproved Status = "approved"
	StatusRejected Status = "rejected"
	StatusModified Status = "modified"
	StatusExpired  Status = "expired"
)

// Terminal reports whether the status is a terminal one.
func (s Status) Terminal() bool {
	return s != StatusPending
}

// Type identifies the kind of artifact under review.
type Type string

const (
	TypeTestPlan  Type = "test_plan"
	TypeTestCases Type = "test_cases"
	TypeDiscovery Type = "discovery_results"
	TypeExecution Type = "test_execution"
	TypeReport    Type = "report"
)

// Mode governs which artifact types require a human decision for a
// pipeline run.
type Mode string

const (
	ModeFullAuto     Mode = "FULL_AUTO"
	ModeApprovePlan  Mode = "APPROVE_PLAN"
	ModeApproveTests Mode = "APPROVE_TESTS"
	ModeApproveAll   Mode = "APPROVE_ALL"
	ModeInteractive  Mode = "INTERACTIVE"
)

// ParseMode validates a mode string from configuration.
func ParseMode(s string) (Mode, bool) {
	switch Mode(s) {
	case ModeFullAuto, ModeApprovePlan, ModeApproveTests, ModeApproveAll, ModeInteractive:
		return Mode(s), true
	}
	return "", false
}

// Required is the pure gating policy: does this artifact type need a
// human decision under this mode?
func Required(mode Mode, t Type) bool {
	switch mode {
	case ModeApprovePlan:
		return t == TypeTestPlan
	case ModeApproveTests:
		return t == TypeTestCases
	case ModeApproveAll:
		return t == TypeTestPlan || t == TypeTestCases
	case ModeInteractive:
		return true
	default: // FULL_AUTO and unknown modes gate nothing
		return false
	}
}

// Approval is a persisted request/response record for one artifact
// review. The subject artifact is snapshotted into ItemData so a
// reviewer never needs access to live stage state.
type Approval struct {
	ID             string         `json:"id"`
	Type           Type           `json:"approval_type"`
	ItemID         string         `json:"item_id"`
	ItemSummary    string         `json:"item_summary"`
	ItemData       map[string]any `json:"item_data,omitempty"`
	Status         Status         `json:"status"`
	ApprovedBy     string         `json:"approved_by,omitempty"`
	Comments       string         `json:"comments,omitempty"`
	Modifications  map[string]any `json:"modifications,omitempty"`
	RequestedAt    time.Time      `json:"requested_at"`
	ResolvedAt     time.Time      `json:"resolved_at,omitzero"`
	TimeoutSeconds int            `json:"timeout_seconds"`
}

// Deadline returns the instant after which an unresolved approval is
// considered expired.
func (a *Approval) Deadline() time.Time {
	return a.RequestedAt.Add(time.Duration(a.TimeoutSeconds) * time.Second)
}

// Merge applies a shallow patch of modifications onto an artifact
// snapshot: the modifier's keys win, untouched keys survive. Neither
// input map is mutated.
func Merge(item, mods map[string]any) map[string]any {
	merged := make(map[string]any, len(item)+len(mods))
	for k, v := range item {
		merged[k] = v
	}
	for k, v := range mods {
		merged[k] = v
	}
	return merged
}
