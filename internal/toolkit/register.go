package toolkit

import (
	"github.com/lucasnoah/testfactory/internal/collab"
	"github.com/lucasnoah/testfactory/internal/executor"
	"github.com/lucasnoah/testfactory/internal/report"
	"github.com/lucasnoah/testfactory/internal/tool"
)

// Collaborators bundles the external interfaces behind the tools.
type Collaborators struct {
	Discoverer collab.Discoverer
	Retriever  collab.Retriever
	Planner    collab.Planner
	Extractor  collab.CaseExtractor
	Renderer   collab.ScriptRenderer
	Writer     collab.FileWriter
	Executor   *executor.Executor
}

// RegisterAll registers every pipeline tool with the registry. It runs
// once at startup, before any stage starts.
func RegisterAll(reg *tool.Registry, c Collaborators) {
	reg.Register("discovery", func(cfg tool.Config) (tool.Tool, error) {
		return NewDiscoveryTool(c.Discoverer), nil
	})
	reg.Register("plan_generator", func(cfg tool.Config) (tool.Tool, error) {
		return NewPlanGeneratorTool(c.Planner, c.Retriever), nil
	})
	reg.Register("case_extractor", func(cfg tool.Config) (tool.Tool, error) {
		return NewCaseExtractorTool(c.Extractor), nil
	})
	reg.Register("script_generator", func(cfg tool.Config) (tool.Tool, error) {
		return NewScriptGeneratorTool(c.Renderer, c.Writer), nil
	})
	reg.Register("test_executor", func(cfg tool.Config) (tool.Tool, error) {
		return executor.NewTestExecutorTool(c.Executor), nil
	})
	reg.Register("result_collector", func(cfg tool.Config) (tool.Tool, error) {
		return executor.NewResultCollectorTool(), nil
	})
	reg.Register("report_generator", func(cfg tool.Config) (tool.Tool, error) {
		return report.NewReportGeneratorTool(), nil
	})
}
