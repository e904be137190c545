package stage

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/lucasnoah/testfactory/internal/approval"
	"github.com/lucasnoah/testfactory/internal/pipeline"
)

type payload struct {
	Input  string `json:"input"`
	Output string `json:"output,omitempty"`
}

func testDeps(t *testing.T, mode approval.Mode, timeout time.Duration) Deps {
	t.Helper()
	store, err := approval.NewStore(t.TempDir())
	if err != nil {
		t.Fatalf("approval store: %v", err)
	}
	return Deps{
		Approvals:       store,
		Mode:            mode,
		ApprovalTimeout: timeout,
		PollInterval:    20 * time.Millisecond,
		Log:             zerolog.Nop(),
	}
}

func echoDef(approvalType approval.Type) Definition[payload] {
	return Definition[payload]{
		Name: "echo",
		Validate: func(d payload) error {
			if d.Input == "" {
				return errors.New("empty input")
			}
			return nil
		},
		Work: func(ctx context.Context, d payload) (payload, error) {
			d.Output = "did " + d.Input
			return d, nil
		},
		ApprovalType: approvalType,
		Summarize: func(d payload) (string, string, map[string]any) {
			return "item-1", "echo of " + d.Input, map[string]any{"output": d.Output}
		},
		ApplyModifications: func(d payload, mods map[string]any) payload {
			return mergeJSON(d, mods)
		},
	}
}

func TestRun_HappyPathNoApproval(t *testing.T) {
	deps := testDeps(t, approval.ModeFullAuto, time.Minute)

	st, err := Run(context.Background(), echoDef(approval.TypeTestPlan), deps, payload{Input: "work"})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if st.Status != pipeline.StageCompleted {
		t.Errorf("status = %s, want completed", st.Status)
	}
	if st.Data.Output != "did work" {
		t.Errorf("work output missing: %+v", st.Data)
	}
	if st.RequiresApproval || st.ApprovalID != "" {
		t.Errorf("full auto must not gate: %+v", st.StageMeta)
	}
	if st.StartTime.IsZero() || st.EndTime.IsZero() {
		t.Error("timing not recorded")
	}
}

func TestRun_ValidationFailureSkipsWork(t *testing.T) {
	deps := testDeps(t, approval.ModeFullAuto, time.Minute)
	def := echoDef("")
	worked := false
	def.Work = func(ctx context.Context, d payload) (payload, error) {
		worked = true
		return d, nil
	}

	st, err := Run(context.Background(), def, deps, payload{})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if st.Status != pipeline.StageFailed {
		t.Errorf("status = %s, want failed", st.Status)
	}
	if worked {
		t.Error("work must not run after failed validation")
	}
}

func TestRun_WorkErrorIsStageFailureNotRunError(t *testing.T) {
	deps := testDeps(t, approval.ModeFullAuto, time.Minute)
	def := echoDef("")
	def.Work = func(ctx context.Context, d payload) (payload, error) {
		return d, errors.New("tool exploded")
	}

	st, err := Run(context.Background(), def, deps, payload{Input: "x"})
	if err != nil {
		t.Fatalf("work errors must not surface as run errors, got %v", err)
	}
	if st.Status != pipeline.StageFailed || st.Error != "tool exploded" {
		t.Errorf("unexpected state: %+v", st.StageMeta)
	}
}

func TestRun_ApprovalApproved(t *testing.T) {
	deps := testDeps(t, approval.ModeApprovePlan, time.Minute)

	go autoResolve(t, deps.Approvals, approval.StatusApproved, nil)

	st, err := Run(context.Background(), echoDef(approval.TypeTestPlan), deps, payload{Input: "plan"})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if st.Status != pipeline.StageCompleted {
		t.Errorf("status = %s, want completed", st.Status)
	}
	if !st.RequiresApproval || st.ApprovalID == "" {
		t.Errorf("gate bookkeeping missing: %+v", st.StageMeta)
	}
	if st.ApprovalStatus != string(approval.StatusApproved) {
		t.Errorf("approval status = %s", st.ApprovalStatus)
	}
}

func TestRun_ApprovalModifiedPatchesPayload(t *testing.T) {
	deps := testDeps(t, approval.ModeApprovePlan, time.Minute)

	go autoResolve(t, deps.Approvals, approval.StatusModified, map[string]any{"output": "did it differently"})

	st, err := Run(context.Background(), echoDef(approval.TypeTestPlan), deps, payload{Input: "plan"})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if st.Status != pipeline.StageCompleted {
		t.Errorf("status = %s, want completed", st.Status)
	}
	if st.Data.Output != "did it differently" {
		t.Errorf("modifications not applied: %+v", st.Data)
	}
}

func TestRun_ApprovalRejectedFailsStage(t *testing.T) {
	deps := testDeps(t, approval.ModeApprovePlan, time.Minute)

	go autoResolve(t, deps.Approvals, approval.StatusRejected, nil)

	st, err := Run(context.Background(), echoDef(approval.TypeTestPlan), deps, payload{Input: "plan"})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if st.Status != pipeline.StageFailed || st.Error != ErrRejectedByReviewer {
		t.Errorf("unexpected state: %+v", st.StageMeta)
	}
}

func TestRun_ApprovalTimeoutFailsStage(t *testing.T) {
	deps := testDeps(t, approval.ModeApprovePlan, time.Second)

	start := time.Now()
	st, err := Run(context.Background(), echoDef(approval.TypeTestPlan), deps, payload{Input: "plan"})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if st.Status != pipeline.StageFailed || st.Error != ErrApprovalTimeout {
		t.Errorf("unexpected state: %+v", st.StageMeta)
	}
	if elapsed := time.Since(start); elapsed > 3*time.Second {
		t.Errorf("expiry took too long: %s", elapsed)
	}
}

func TestRun_ApprovalSkippedWhenModeDoesNotGate(t *testing.T) {
	// APPROVE_TESTS gates generated scripts, not the plan.
	deps := testDeps(t, approval.ModeApproveTests, time.Minute)

	st, err := Run(context.Background(), echoDef(approval.TypeTestPlan), deps, payload{Input: "plan"})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if st.Status != pipeline.StageCompleted || st.RequiresApproval {
		t.Errorf("plan should not gate under APPROVE_TESTS: %+v", st.StageMeta)
	}
}

func TestRun_SnapshotSeesAwaitingApproval(t *testing.T) {
	deps := testDeps(t, approval.ModeApprovePlan, time.Minute)
	var statuses []pipeline.StageStatus
	deps.Snapshot = func(name string, state any) {
		statuses = append(statuses, state.(pipeline.State[payload]).Status)
	}

	go autoResolve(t, deps.Approvals, approval.StatusApproved, nil)

	if _, err := Run(context.Background(), echoDef(approval.TypeTestPlan), deps, payload{Input: "plan"}); err != nil {
		t.Fatalf("run: %v", err)
	}

	sawAwaiting := false
	for _, s := range statuses {
		if s == pipeline.StageAwaitingApproval {
			sawAwaiting = true
		}
	}
	if !sawAwaiting {
		t.Errorf("checkpoints never saw awaiting_approval: %v", statuses)
	}
	if statuses[len(statuses)-1] != pipeline.StageCompleted {
		t.Errorf("final checkpoint = %s", statuses[len(statuses)-1])
	}
}

// autoResolve polls for the first pending approval and resolves it,
// standing in for a human reviewer.
func autoResolve(t *testing.T, store *approval.Store, status approval.Status, mods map[string]any) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		pending, err := store.Pending()
		if err == nil && len(pending) > 0 {
			_, _ = store.Resolve(pending[0].ID, status, "auto-reviewer", "", mods)
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
}
