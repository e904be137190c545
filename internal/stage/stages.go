package stage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/lucasnoah/testfactory/internal/approval"
	"github.com/lucasnoah/testfactory/internal/collab"
	"github.com/lucasnoah/testfactory/internal/executor"
	"github.com/lucasnoah/testfactory/internal/pipeline"
	"github.com/lucasnoah/testfactory/internal/report"
	"github.com/lucasnoah/testfactory/internal/tool"
)

// DefaultWorkers bounds concurrent script executions when the config
// does not say otherwise.
const DefaultWorkers = 4

// DiscoveryData is the discovery stage payload.
type DiscoveryData struct {
	Profile *collab.Profile         `json:"-"`
	Feature string                  `json:"feature"`
	Result  *collab.DiscoveryResult `json:"result,omitempty"`
}

// Discovery builds the discovery stage definition.
func Discovery(ts *Toolset) Definition[DiscoveryData] {
	return Definition[DiscoveryData]{
		Name: "discovery",
		Validate: func(d DiscoveryData) error {
			if d.Profile == nil {
				return errors.New("no application profile provided")
			}
			return nil
		},
		Work: func(ctx context.Context, d DiscoveryData) (DiscoveryData, error) {
			res := tool.Run(ctx, ts.Discovery, tool.Params{"profile": d.Profile})
			if res.IsFailure() {
				return d, errors.New(res.Error)
			}
			out, ok := res.Data.(*collab.DiscoveryResult)
			if !ok {
				return d, fmt.Errorf("unexpected discovery output %T", res.Data)
			}
			d.Result = out
			return d, nil
		},
		ApprovalType: approval.TypeDiscovery,
		Summarize: func(d DiscoveryData) (string, string, map[string]any) {
			return d.Result.AppName,
				fmt.Sprintf("discovered %d elements across %d pages", len(d.Result.Elements), len(d.Result.Pages)),
				map[string]any{"elements": len(d.Result.Elements), "pages": d.Result.Pages}
		},
	}
}

// PlanningData is the planning stage payload.
type PlanningData struct {
	Feature   string                  `json:"feature"`
	Discovery *collab.DiscoveryResult `json:"discovery,omitempty"`
	RawPlan   string                  `json:"raw_plan,omitempty"`
	Plan      *pipeline.TestPlan      `json:"plan,omitempty"`
}

// Planning builds the planning stage definition. Its work node chains
// two tools: plan generation, then case extraction.
func Planning(ts *Toolset) Definition[PlanningData] {
	return Definition[PlanningData]{
		Name: "planning",
		Validate: func(d PlanningData) error {
			if d.Feature == "" {
				return errors.New("feature request is empty")
			}
			if d.Discovery == nil {
				return errors.New("no discovery output")
			}
			return nil
		},
		Work: func(ctx context.Context, d PlanningData) (PlanningData, error) {
			gen := tool.Run(ctx, ts.PlanGenerator, tool.Params{
				"feature":   d.Feature,
				"discovery": d.Discovery,
			})
			if gen.IsFailure() {
				return d, errors.New(gen.Error)
			}
			raw, ok := gen.Data.(string)
			if !ok {
				return d, fmt.Errorf("unexpected planner output %T", gen.Data)
			}
			d.RawPlan = raw

			ext := tool.Run(ctx, ts.CaseExtractor, tool.Params{
				"raw":     d.RawPlan,
				"feature": d.Feature,
			})
			if ext.IsFailure() {
				return d, errors.New(ext.Error)
			}
			plan, ok := ext.Data.(*pipeline.TestPlan)
			if !ok {
				return d, fmt.Errorf("unexpected extractor output %T", ext.Data)
			}
			d.Plan = plan
			return d, nil
		},
		ApprovalType: approval.TypeTestPlan,
		Summarize: func(d PlanningData) (string, string, map[string]any) {
			names := make([]string, len(d.Plan.Cases))
			for i, tc := range d.Plan.Cases {
				names[i] = tc.Name
			}
			return d.Plan.ID,
				fmt.Sprintf("test plan for %q with %d cases", d.Feature, len(d.Plan.Cases)),
				map[string]any{"feature": d.Feature, "cases": len(d.Plan.Cases), "case_names": names}
		},
		ApplyModifications: func(d PlanningData, mods map[string]any) PlanningData {
			if d.Plan != nil {
				patched := mergeJSON(*d.Plan, mods)
				d.Plan = &patched
			}
			return d
		},
	}
}

// GenerationData is the generation stage payload.
type GenerationData struct {
	Plan      *pipeline.TestPlan `json:"plan,omitempty"`
	Framework string             `json:"framework"`
	OutputDir string             `json:"output_dir"`
	Scripts   []pipeline.Script  `json:"scripts,omitempty"`
}

// Generation builds the generation stage definition.
func Generation(ts *Toolset) Definition[GenerationData] {
	return Definition[GenerationData]{
		Name: "generation",
		Validate: func(d GenerationData) error {
			if d.Plan == nil || len(d.Plan.Cases) == 0 {
				return errors.New("no test cases to generate")
			}
			if d.Framework == "" {
				return errors.New("no target framework")
			}
			if d.OutputDir == "" {
				return errors.New("no output directory")
			}
			return nil
		},
		Work: func(ctx context.Context, d GenerationData) (GenerationData, error) {
			res := tool.Run(ctx, ts.ScriptGenerator, tool.Params{
				"plan":       d.Plan,
				"framework":  d.Framework,
				"output_dir": d.OutputDir,
			})
			if res.IsFailure() {
				return d, errors.New(res.Error)
			}
			scripts, ok := res.Data.([]pipeline.Script)
			if !ok {
				return d, fmt.Errorf("unexpected generator output %T", res.Data)
			}
			d.Scripts = scripts
			return d, nil
		},
		ApprovalType: approval.TypeTestCases,
		Summarize: func(d GenerationData) (string, string, map[string]any) {
			paths := make([]string, len(d.Scripts))
			for i, s := range d.Scripts {
				paths[i] = s.Path
			}
			return d.Plan.ID,
				fmt.Sprintf("%d generated %s scripts", len(d.Scripts), d.Framework),
				map[string]any{"framework": d.Framework, "scripts": paths}
		},
		ApplyModifications: func(d GenerationData, mods map[string]any) GenerationData {
			return mergeJSON(d, mods)
		},
	}
}

// ExecutionData is the execution stage payload.
type ExecutionData struct {
	Scripts []pipeline.Script     `json:"scripts"`
	Timeout time.Duration         `json:"timeout"`
	Workers int                   `json:"workers"`
	Results []executor.TestResult `json:"results,omitempty"`
	Tally   executor.Tally        `json:"tally"`
}

// Execution builds the execution stage definition. Scripts fan out
// across a bounded worker pool; results are collected by submission
// index so reporting stays deterministic. A script that cannot run
// still yields exactly one ERROR result, and partial failure never
// fails the stage.
func Execution(ts *Toolset) Definition[ExecutionData] {
	return Definition[ExecutionData]{
		Name: "execution",
		Validate: func(d ExecutionData) error {
			if len(d.Scripts) == 0 {
				return errors.New("no scripts to execute")
			}
			return nil
		},
		Work: func(ctx context.Context, d ExecutionData) (ExecutionData, error) {
			workers := d.Workers
			if workers <= 0 {
				workers = DefaultWorkers
			}

			results := make([]executor.TestResult, len(d.Scripts))
			g, gctx := errgroup.WithContext(ctx)
			g.SetLimit(workers)
			for i, script := range d.Scripts {
				i, script := i, script
				g.Go(func() error {
					results[i] = runOne(gctx, ts, script, d.Timeout)
					return gctx.Err()
				})
			}
			if err := g.Wait(); err != nil {
				return d, err
			}

			d.Results = results
			d.Tally = executor.Tally{}
			for _, r := range results {
				d.Tally.Add(r)
			}
			return d, nil
		},
		ApprovalType: approval.TypeExecution,
		Summarize: func(d ExecutionData) (string, string, map[string]any) {
			return "execution",
				fmt.Sprintf("%d passed, %d failed, %d skipped, %d errors", d.Tally.Passed, d.Tally.Failed, d.Tally.Skipped, d.Tally.Errors),
				map[string]any{"tally": d.Tally}
		},
	}
}

// runOne executes one script and parses its output, degrading any tool
// failure to an ERROR result so the one-result-per-script invariant
// holds.
func runOne(ctx context.Context, ts *Toolset, script pipeline.Script, timeout time.Duration) executor.TestResult {
	errResult := func(msg string) executor.TestResult {
		name := script.TestCaseName
		if name == "" {
			name = script.Path
		}
		return executor.TestResult{
			TestName:     name,
			TestCaseID:   script.TestCaseID,
			Status:       executor.ResultError,
			Message:      "script did not run",
			ErrorMessage: msg,
		}
	}

	run := tool.Run(ctx, ts.TestExecutor, tool.Params{"script": script, "timeout": timeout})
	if run.IsFailure() {
		return errResult(run.Error)
	}
	rec, ok := run.Data.(executor.ExecutionRecord)
	if !ok {
		return errResult(fmt.Sprintf("unexpected executor output %T", run.Data))
	}

	coll := tool.Run(ctx, ts.ResultCollector, tool.Params{"record": rec})
	if coll.IsFailure() {
		return errResult(coll.Error)
	}
	res, ok := coll.Data.(executor.TestResult)
	if !ok {
		return errResult(fmt.Sprintf("unexpected collector output %T", coll.Data))
	}
	return res
}

// ReportingData is the reporting stage payload.
type ReportingData struct {
	RunID       string                `json:"run_id"`
	AppName     string                `json:"app_name,omitempty"`
	Feature     string                `json:"feature"`
	Results     []executor.TestResult `json:"results"`
	Formats     []string              `json:"formats"`
	OutputDir   string                `json:"output_dir"`
	GeneratedAt time.Time             `json:"generated_at"`
	Artifacts   []string              `json:"artifacts,omitempty"`
}

// Reporting builds the reporting stage definition. GeneratedAt is
// injected by the caller so re-rendering identical results is
// reproducible.
func Reporting(ts *Toolset) Definition[ReportingData] {
	return Definition[ReportingData]{
		Name: "reporting",
		Validate: func(d ReportingData) error {
			if d.RunID == "" {
				return errors.New("no run id")
			}
			if len(d.Formats) == 0 {
				return errors.New("no report formats requested")
			}
			if d.OutputDir == "" {
				return errors.New("no output directory")
			}
			if d.GeneratedAt.IsZero() {
				return errors.New("no report timestamp")
			}
			return nil
		},
		Work: func(ctx context.Context, d ReportingData) (ReportingData, error) {
			res := tool.Run(ctx, ts.ReportGenerator, tool.Params{
				"meta": report.Meta{
					RunID:       d.RunID,
					AppName:     d.AppName,
					Feature:     d.Feature,
					GeneratedAt: d.GeneratedAt,
				},
				"results":    d.Results,
				"formats":    d.Formats,
				"output_dir": d.OutputDir,
			})
			if res.IsFailure() {
				return d, errors.New(res.Error)
			}
			artifacts, ok := res.Data.([]string)
			if !ok {
				return d, fmt.Errorf("unexpected report output %T", res.Data)
			}
			d.Artifacts = artifacts
			return d, nil
		},
		ApprovalType: approval.TypeReport,
		Summarize: func(d ReportingData) (string, string, map[string]any) {
			return d.RunID,
				fmt.Sprintf("%d report artifacts for %q", len(d.Artifacts), d.Feature),
				map[string]any{"artifacts": d.Artifacts}
		},
	}
}
