// Package toolkit wraps the external collaborators (discovery,
// planning, script rendering) as registry tools so stages call a
// uniform contract instead of the collaborators directly.
package toolkit

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/google/uuid"

	"github.com/lucasnoah/testfactory/internal/collab"
	"github.com/lucasnoah/testfactory/internal/pipeline"
	"github.com/lucasnoah/testfactory/internal/tool"
)

// DiscoveryTool runs a Discoverer. Param: "profile" (*collab.Profile).
type DiscoveryTool struct {
	disc collab.Discoverer
}

func NewDiscoveryTool(d collab.Discoverer) *DiscoveryTool {
	return &DiscoveryTool{disc: d}
}

func (t *DiscoveryTool) Meta() tool.Metadata {
	return tool.Metadata{
		Name:        "discovery",
		Description: "enumerates the testable surface of an application",
		Version:     "1.0.0",
		Tags:        []string{"discovery"},
		Safe:        true,
	}
}

func (t *DiscoveryTool) Execute(ctx context.Context, params tool.Params) tool.Result {
	v, ok := params.Value("profile")
	if !ok {
		return tool.Failuref("missing required param: profile")
	}
	profile, ok := v.(*collab.Profile)
	if !ok {
		return tool.Failuref("param profile has wrong type %T", v)
	}

	res, err := t.disc.Discover(ctx, profile)
	if err != nil {
		return tool.Errorf("discovery: %v", err)
	}
	if len(res.Elements) == 0 && len(res.Pages) == 0 {
		return tool.Failuref("discovery found nothing to test in %s", profile.App)
	}
	return tool.Success(res)
}

// PlanGeneratorTool produces raw plan text from a feature request and
// discovery output. Retrieval context is best-effort: a retriever
// failure degrades to planning without snippets, never to a tool fault.
// Params: "feature" (string), "discovery" (*collab.DiscoveryResult).
type PlanGeneratorTool struct {
	planner   collab.Planner
	retriever collab.Retriever
}

func NewPlanGeneratorTool(p collab.Planner, r collab.Retriever) *PlanGeneratorTool {
	return &PlanGeneratorTool{planner: p, retriever: r}
}

func (t *PlanGeneratorTool) Meta() tool.Metadata {
	return tool.Metadata{
		Name:        "plan_generator",
		Description: "generates a test plan outline for a feature",
		Version:     "1.0.0",
		Tags:        []string{"planning"},
		Safe:        true,
	}
}

func (t *PlanGeneratorTool) Execute(ctx context.Context, params tool.Params) tool.Result {
	feature := params.String("feature")
	if feature == "" {
		return tool.Failuref("missing required param: feature")
	}
	v, ok := params.Value("discovery")
	if !ok {
		return tool.Failuref("missing required param: discovery")
	}
	disc, ok := v.(*collab.DiscoveryResult)
	if !ok {
		return tool.Failuref("param discovery has wrong type %T", v)
	}

	var snippets []collab.Snippet
	if t.retriever != nil {
		if found, err := t.retriever.Search(ctx, feature, 5); err == nil {
			snippets = found
		}
	}

	raw, err := t.planner.GeneratePlan(ctx, collab.PlanContext{
		Feature:   feature,
		Discovery: disc,
		Snippets:  snippets,
	})
	if err != nil {
		return tool.Errorf("plan generation: %v", err)
	}
	return tool.Success(raw)
}

// CaseExtractorTool parses raw plan text into a structured TestPlan.
// Params: "raw" (string), "feature" (string).
type CaseExtractorTool struct {
	extractor collab.CaseExtractor
}

func NewCaseExtractorTool(ex collab.CaseExtractor) *CaseExtractorTool {
	return &CaseExtractorTool{extractor: ex}
}

func (t *CaseExtractorTool) Meta() tool.Metadata {
	return tool.Metadata{
		Name:        "case_extractor",
		Description: "parses plan text into structured test cases",
		Version:     "1.0.0",
		Tags:        []string{"planning"},
		Safe:        true,
	}
}

func (t *CaseExtractorTool) Execute(ctx context.Context, params tool.Params) tool.Result {
	raw := params.String("raw")
	if raw == "" {
		return tool.Failuref("missing required param: raw")
	}

	cases, err := t.extractor.ExtractCases(raw)
	if err != nil {
		return tool.Errorf("case extraction: %v", err)
	}
	return tool.Success(&pipeline.TestPlan{
		ID:      uuid.NewString(),
		Feature: params.String("feature"),
		Summary: fmt.Sprintf("%d planned test cases", len(cases)),
		Cases:   cases,
	})
}

// ScriptGeneratorTool renders every case in a plan into a script file
// on disk. Params: "plan" (*pipeline.TestPlan), "framework" (string),
// "output_dir" (string).
type ScriptGeneratorTool struct {
	renderer collab.ScriptRenderer
	writer   collab.FileWriter
}

func NewScriptGeneratorTool(r collab.ScriptRenderer, w collab.FileWriter) *ScriptGeneratorTool {
	return &ScriptGeneratorTool{renderer: r, writer: w}
}

func (t *ScriptGeneratorTool) Meta() tool.Metadata {
	return tool.Metadata{
		Name:        "script_generator",
		Description: "renders test cases into executable script files",
		Version:     "1.0.0",
		Tags:        []string{"generation"},
		Safe:        false,
	}
}

func (t *ScriptGeneratorTool) Execute(ctx context.Context, params tool.Params) tool.Result {
	v, ok := params.Value("plan")
	if !ok {
		return tool.Failuref("missing required param: plan")
	}
	plan, ok := v.(*pipeline.TestPlan)
	if !ok {
		return tool.Failuref("param plan has wrong type %T", v)
	}
	framework := params.String("framework")
	if framework == "" {
		return tool.Failuref("missing required param: framework")
	}
	outputDir := params.String("output_dir")
	if outputDir == "" {
		return tool.Failuref("missing required param: output_dir")
	}

	var scripts []pipeline.Script
	for _, tc := range plan.Cases {
		if err := ctx.Err(); err != nil {
			return tool.Errorf("script generation: %v", err)
		}
		src, err := t.renderer.Render(tc, framework)
		if err != nil {
			return tool.Errorf("render %s: %v", tc.ID, err)
		}
		path := filepath.Join(outputDir, scriptFileName(tc, framework))
		if err := t.writer.Write(path, src); err != nil {
			return tool.Errorf("write %s: %v", path, err)
		}
		scripts = append(scripts, pipeline.Script{
			TestCaseID:   tc.ID,
			TestCaseName: tc.Name,
			Path:         path,
			Framework:    framework,
		})
	}
	return tool.Success(scripts)
}

func scriptFileName(tc pipeline.TestCase, framework string) string {
	ext := ".py"
	if framework != "pytest" && framework != "unittest" {
		ext = ".sh"
	}
	return fmt.Sprintf("test_%s%s", sanitize(tc.ID), ext)
}

func sanitize(s string) string {
	out := make([]rune, 0, len(s))
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '_':
			out = append(out, r)
		default:
			out = append(out, '_')
		}
	}
	return string(out)
}
