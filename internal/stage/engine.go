// Package stage provides the state-machine engine shared by all five
// pipeline stages, plus the stage definitions themselves. Every stage
// runs the same node sequence (initialize, validate, work, optional
// approval gate, finalize); only the typed payload and the work node
// differ.
package stage

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/lucasnoah/testfactory/internal/approval"
	"github.com/lucasnoah/testfactory/internal/pipeline"
)

// Error taxonomy values surfaced on approval-halted stages.
const (
	ErrRejectedByReviewer = "rejected_by_reviewer"
	ErrApprovalTimeout    = "approval_timeout"
)

// Deps carries the shared collaborators a stage run needs.
type Deps struct {
	Approvals       *approval.Store
	Mode            approval.Mode
	ApprovalTimeout time.Duration
	PollInterval    time.Duration
	Log             zerolog.Logger

	// Snapshot, when set, is invoked with a copy of the state after every
	// node so the orchestrator can checkpoint. It must not block.
	Snapshot func(stage string, state any)
}

func (d Deps) snapshot(name string, st any) {
	if d.Snapshot != nil {
		d.Snapshot(name, st)
	}
}

// Definition describes one stage over payload type D. Work is the only
// node with stage-specific logic; it calls tools, never embeds business
// logic, and reports tool failures as ordinary errors.
type Definition[D any] struct {
	Name string

	// Validate checks the input payload. A validation error fails the
	// stage without running Work.
	Validate func(d D) error

	// Work transforms the payload. An error fails the stage; a context
	// error aborts the run.
	Work func(ctx context.Context, d D) (D, error)

	// ApprovalType, when non-empty, subjects the work output to the
	// gating policy.
	ApprovalType approval.Type

	// Summarize snapshots the artifact under review for the approval
	// record.
	Summarize func(d D) (itemID, summary string, itemData map[string]any)

	// ApplyModifications merges a reviewer's shallow patch into the
	// payload when the approval resolves to modified.
	ApplyModifications func(d D, mods map[string]any) D
}

// Run drives one stage from pending to a terminal status. The returned
// error is reserved for infrastructure faults (cancellation, approval
// store I/O); stage-level failures land in the returned state's Status
// and Error fields.
func Run[D any](ctx context.Context, def Definition[D], deps Deps, data D) (pipeline.State[D], error) {
	log := deps.Log.With().Str("stage", def.Name).Logger()

	st := pipeline.State[D]{
		StageMeta: pipeline.StageMeta{Stage: def.Name, Status: pipeline.StagePending},
		Data:      data,
	}

	// initialize
	st.Status = pipeline.StageInProgress
	st.StartTime = time.Now().UTC()
	st.Error = ""
	deps.snapshot(def.Name, st)
	log.Info().Msg("stage started")

	// validate_input
	if def.Validate != nil {
		if err := def.Validate(st.Data); err != nil {
			log.Warn().Err(err).Msg("input validation failed")
			return finalize(deps, failed(st, fmt.Sprintf("validation: %v", err))), nil
		}
	}
	deps.snapshot(def.Name, st)

	// work
	out, err := def.Work(ctx, st.Data)
	if err != nil {
		if ctx.Err() != nil {
			return st, fmt.Errorf("stage %s: %w", def.Name, ctx.Err())
		}
		log.Warn().Err(err).Msg("stage work failed")
		return finalize(deps, failed(st, err.Error())), nil
	}
	st.Data = out
	deps.snapshot(def.Name, st)

	// request_approval
	if def.ApprovalType != "" && approval.Required(deps.Mode, def.ApprovalType) {
		st, err = gate(ctx, def, deps, st, log)
		if err != nil {
			return st, err
		}
		if st.Status == pipeline.StageFailed {
			return finalize(deps, st), nil
		}
	}

	// finalize
	st.Status = pipeline.StageCompleted
	log.Info().Dur("duration", time.Since(st.StartTime)).Msg("stage completed")
	return finalize(deps, st), nil
}

// gate creates the approval record, suspends until it resolves, and
// maps the resolution onto the stage state.
func gate[D any](ctx context.Context, def Definition[D], deps Deps, st pipeline.State[D], log zerolog.Logger) (pipeline.State[D], error) {
	itemID, summary, itemData := def.Summarize(st.Data)

	a, err := deps.Approvals.Create(def.ApprovalType, itemID, summary, itemData, deps.ApprovalTimeout)
	if err != nil {
		return st, fmt.Errorf("create approval for stage %s: %w", def.Name, err)
	}

	st.RequiresApproval = true
	st.ApprovalID = a.ID
	st.Status = pipeline.StageAwaitingApproval
	deps.snapshot(def.Name, st)
	log.Info().Str("approval_id", a.ID).Str("type", string(def.ApprovalType)).Msg("awaiting approval")

	out, err := approval.Wait(ctx, deps.Approvals, a.ID, deps.PollInterval)
	if err != nil {
		return st, err
	}
	st.ApprovalStatus = string(out.Approval.Status)

	switch out.Approval.Status {
	case approval.StatusApproved:
		log.Info().Str("by", out.Approval.ApprovedBy).Msg("approved")
		st.Status = pipeline.StageInProgress
	case approval.StatusModified:
		log.Info().Str("by", out.Approval.ApprovedBy).Msg("approved with modifications")
		if def.ApplyModifications != nil {
			st.Data = def.ApplyModifications(st.Data, out.Approval.Modifications)
		}
		st.Status = pipeline.StageInProgress
	case approval.StatusRejected:
		log.Warn().Str("by", out.Approval.ApprovedBy).Msg("rejected")
		st = failed(st, ErrRejectedByReviewer)
	case approval.StatusExpired:
		log.Warn().Msg("approval expired")
		st = failed(st, ErrApprovalTimeout)
	default:
		st = failed(st, fmt.Sprintf("unexpected approval status %s", out.Approval.Status))
	}
	return st, nil
}

func failed[D any](st pipeline.State[D], msg string) pipeline.State[D] {
	st.Status = pipeline.StageFailed
	st.Error = msg
	return st
}

func finalize[D any](deps Deps, st pipeline.State[D]) pipeline.State[D] {
	st.EndTime = time.Now().UTC()
	deps.snapshot(st.Stage, st)
	return st
}
