// Package orchestrator composes the five pipeline stages into one run:
// discovery, planning, generation, execution, reporting. Stages run
// strictly sequentially; each stage's output payload feeds the next,
// and a failed or non-approved stage halts the pipeline.
package orchestrator

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/lucasnoah/testfactory/internal/approval"
	"github.com/lucasnoah/testfactory/internal/collab"
	"github.com/lucasnoah/testfactory/internal/config"
	"github.com/lucasnoah/testfactory/internal/db"
	"github.com/lucasnoah/testfactory/internal/pipeline"
	"github.com/lucasnoah/testfactory/internal/stage"
)

// stageOrder is the fixed pipeline sequence.
var stageOrder = []string{"discovery", "planning", "generation", "execution", "reporting"}

// StageTiming is one stage's entry in a run summary.
type StageTiming struct {
	Name     string               `json:"name"`
	Status   pipeline.StageStatus `json:"status"`
	Duration time.Duration        `json:"duration"`
	Error    string               `json:"error,omitempty"`
}

// Summary is the aggregate outcome of a pipeline run.
type Summary struct {
	RunID         string        `json:"run_id"`
	Name          string        `json:"name"`
	Feature       string        `json:"feature"`
	Status        string        `json:"status"`
	Stages        []StageTiming `json:"stages"`
	HaltedStage   string        `json:"halted_stage,omitempty"`
	Error         string        `json:"error,omitempty"`
	TotalDuration time.Duration `json:"total_duration"`
	Artifacts     []string      `json:"artifacts,omitempty"`
}

// Orchestrator owns run state during a pipeline run. Stage states pass
// through it by value; tools and stages never retain references.
type Orchestrator struct {
	cfg       *config.PipelineConfig
	store     *pipeline.Store
	approvals *approval.Store
	events    *db.DB
	toolset   *stage.Toolset
	profile   *collab.Profile
	log       zerolog.Logger

	// now is swapped in tests to pin report timestamps.
	now func() time.Time
}

// New builds an Orchestrator. events may be nil to skip the event log.
func New(cfg *config.PipelineConfig, store *pipeline.Store, approvals *approval.Store, events *db.DB, ts *stage.Toolset, profile *collab.Profile, log zerolog.Logger) *Orchestrator {
	return &Orchestrator{
		cfg:       cfg,
		store:     store,
		approvals: approvals,
		events:    events,
		toolset:   ts,
		profile:   profile,
		log:       log,
		now:       time.Now,
	}
}

func (o *Orchestrator) deps(runID string) stage.Deps {
	p := o.cfg.Pipeline
	mode, _ := approval.ParseMode(p.HITL.Mode)
	return stage.Deps{
		Approvals:       o.approvals,
		Mode:            mode,
		ApprovalTimeout: time.Duration(p.HITL.TimeoutSeconds) * time.Second,
		PollInterval:    time.Duration(p.HITL.PollIntervalSeconds) * time.Second,
		Log:             o.log.With().Str("run_id", runID).Logger(),
		Snapshot: func(name string, state any) {
			if err := o.store.SaveStageState(runID, name, state); err != nil {
				o.log.Warn().Err(err).Str("stage", name).Msg("checkpoint write failed")
			}
		},
	}
}

// Run executes the whole pipeline for one feature request and returns
// its summary. The returned error is reserved for infrastructure
// faults; a halted pipeline is reported through the summary.
func (o *Orchestrator) Run(ctx context.Context, feature string) (*Summary, error) {
	p := o.cfg.Pipeline
	runID := uuid.NewString()

	if _, err := o.store.Create(runID, p.Name, feature); err != nil {
		return nil, fmt.Errorf("create run: %w", err)
	}
	if err := o.store.Update(runID, func(rs *pipeline.RunState) {
		rs.Status = pipeline.RunInProgress
	}); err != nil {
		return nil, err
	}
	o.logEvent(runID, "", "run_started", "feature: "+feature)
	o.log.Info().Str("run_id", runID).Str("feature", feature).Msg("pipeline started")

	sum := &Summary{RunID: runID, Name: p.Name, Feature: feature, Status: pipeline.RunInProgress}
	start := o.now()
	deps := o.deps(runID)

	// discovery
	discSt, ok, err := runStage(ctx, o, runID, sum, stage.Discovery(o.toolset), deps, stage.DiscoveryData{
		Profile: o.profile,
		Feature: feature,
	})
	if !ok {
		return o.finish(runID, sum, start, err)
	}

	// planning
	planSt, ok, err := runStage(ctx, o, runID, sum, stage.Planning(o.toolset), deps, stage.PlanningData{
		Feature:   feature,
		Discovery: discSt.Data.Result,
	})
	if !ok {
		return o.finish(runID, sum, start, err)
	}

	// generation
	genSt, ok, err := runStage(ctx, o, runID, sum, stage.Generation(o.toolset), deps, stage.GenerationData{
		Plan:      planSt.Data.Plan,
		Framework: p.Generation.Framework,
		OutputDir: p.Generation.OutputDir,
	})
	if !ok {
		return o.finish(runID, sum, start, err)
	}

	// execution
	execSt, ok, err := runStage(ctx, o, runID, sum, stage.Execution(o.toolset), deps, stage.ExecutionData{
		Scripts: genSt.Data.Scripts,
		Timeout: time.Duration(p.Execution.TimeoutSeconds) * time.Second,
		Workers: p.Execution.Workers,
	})
	if !ok {
		return o.finish(runID, sum, start, err)
	}
	if err := o.store.SaveResults(runID, execSt.Data.Results); err != nil {
		o.log.Warn().Err(err).Msg("persist results failed")
	}
	o.logResults(runID, execSt.Data)

	// reporting
	repSt, ok, err := runStage(ctx, o, runID, sum, stage.Reporting(o.toolset), deps, stage.ReportingData{
		RunID:       runID,
		AppName:     discSt.Data.Result.AppName,
		Feature:     feature,
		Results:     execSt.Data.Results,
		Formats:     p.Reporting.Formats,
		OutputDir:   p.Reporting.OutputDir,
		GeneratedAt: o.now().UTC(),
	})
	if !ok {
		return o.finish(runID, sum, start, err)
	}
	sum.Artifacts = repSt.Data.Artifacts

	sum.Status = pipeline.RunCompleted
	return o.finish(runID, sum, start, nil)
}

// runStage drives one stage, records its timing, and updates the
// persisted run state. ok is false when the pipeline must halt.
func runStage[D any](ctx context.Context, o *Orchestrator, runID string, sum *Summary, def stage.Definition[D], deps stage.Deps, data D) (pipeline.State[D], bool, error) {
	o.logEvent(runID, def.Name, "stage_started", "")
	if err := o.store.Update(runID, func(rs *pipeline.RunState) {
		rs.CurrentStage = def.Name
	}); err != nil {
		return pipeline.State[D]{}, false, err
	}

	st, err := stage.Run(ctx, def, deps, data)
	if err != nil {
		return st, false, err
	}

	sum.Stages = append(sum.Stages, StageTiming{
		Name:     def.Name,
		Status:   st.Status,
		Duration: st.Duration(),
		Error:    st.Error,
	})
	if st.ApprovalID != "" {
		o.logEvent(runID, def.Name, "awaiting_approval", st.ApprovalID)
		if o.events != nil {
			_ = o.events.LogApprovalEvent(st.ApprovalID, runID, string(def.ApprovalType), st.ApprovalStatus, "")
		}
	}

	if st.Status != pipeline.StageCompleted {
		sum.Status = pipeline.RunFailed
		sum.HaltedStage = def.Name
		sum.Error = st.Error
		o.logEvent(runID, def.Name, "stage_failed", st.Error)
		return st, false, nil
	}

	o.logEvent(runID, def.Name, "stage_completed", "")
	if err := o.store.Update(runID, func(rs *pipeline.RunState) {
		rs.CompletedStages = append(rs.CompletedStages, def.Name)
	}); err != nil {
		return st, false, err
	}
	return st, true, nil
}

// finish seals the run state and the summary.
func (o *Orchestrator) finish(runID string, sum *Summary, start time.Time, err error) (*Summary, error) {
	sum.TotalDuration = o.now().Sub(start)
	if err != nil {
		sum.Status = pipeline.RunFailed
		if sum.Error == "" {
			sum.Error = err.Error()
		}
	}
	if sum.Status == pipeline.RunInProgress {
		sum.Status = pipeline.RunFailed
	}

	event := "run_completed"
	if sum.Status != pipeline.RunCompleted {
		event = "run_failed"
	}
	o.logEvent(runID, sum.HaltedStage, event, sum.Error)

	if uerr := o.store.Update(runID, func(rs *pipeline.RunState) {
		rs.Status = sum.Status
		rs.CurrentStage = ""
		rs.Error = sum.Error
	}); uerr != nil && err == nil {
		err = uerr
	}

	o.log.Info().
		Str("run_id", runID).
		Str("status", sum.Status).
		Dur("total", sum.TotalDuration).
		Msg("pipeline finished")
	return sum, err
}

func (o *Orchestrator) logEvent(runID, stageName, event, detail string) {
	if o.events == nil {
		return
	}
	if err := o.events.LogPipelineEvent(runID, stageName, event, detail); err != nil {
		o.log.Warn().Err(err).Msg("event log write failed")
	}
}

func (o *Orchestrator) logResults(runID string, data stage.ExecutionData) {
	if o.events == nil {
		return
	}
	for _, r := range data.Results {
		detail := r.ErrorMessage
		if detail == "" {
			detail = r.Message
		}
		if err := o.events.LogExecutionResult(runID, r.TestName, r.TestCaseID, string(r.Status), r.DurationMs, r.TimedOut, detail); err != nil {
			o.log.Warn().Err(err).Msg("result log write failed")
		}
	}
}

// Status returns the persisted run state for one run.
func (o *Orchestrator) Status(runID string) (*pipeline.RunState, error) {
	return o.store.Get(runID)
}

// StatusAll lists persisted run states, optionally filtered by status.
func (o *Orchestrator) StatusAll(statusFilter string) ([]pipeline.RunState, error) {
	return o.store.List(statusFilter)
}

// StageOrder exposes the fixed stage sequence for display purposes.
func StageOrder() []string {
	out := make([]string, len(stageOrder))
	copy(out, stageOrder)
	return out
}
