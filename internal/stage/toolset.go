package stage

import (
	"encoding/json"
	"fmt"

	"github.com/lucasnoah/testfactory/internal/approval"
	"github.com/lucasnoah/testfactory/internal/tool"
)

// Toolset holds the resolved tool instances the stage definitions call.
// Tools are resolved from the registry once, before the pipeline
// starts, so an unknown tool name fails the run up front.
type Toolset struct {
	Discovery       tool.Tool
	PlanGenerator   tool.Tool
	CaseExtractor   tool.Tool
	ScriptGenerator tool.Tool
	TestExecutor    tool.Tool
	ResultCollector tool.Tool
	ReportGenerator tool.Tool
}

// NewToolset resolves every pipeline tool from the registry.
func NewToolset(reg *tool.Registry) (*Toolset, error) {
	ts := &Toolset{}
	for _, bind := range []struct {
		name string
		dst  *tool.Tool
	}{
		{"discovery", &ts.Discovery},
		{"plan_generator", &ts.PlanGenerator},
		{"case_extractor", &ts.CaseExtractor},
		{"script_generator", &ts.ScriptGenerator},
		{"test_executor", &ts.TestExecutor},
		{"result_collector", &ts.ResultCollector},
		{"report_generator", &ts.ReportGenerator},
	} {
		t, err := reg.Get(bind.name, tool.Config{})
		if err != nil {
			return nil, fmt.Errorf("resolve toolset: %w", err)
		}
		*bind.dst = t
	}
	return ts, nil
}

// mergeJSON applies a reviewer's shallow patch to an artifact by
// round-tripping it through its JSON shape. Any marshalling problem
// keeps the original artifact untouched.
func mergeJSON[T any](v T, mods map[string]any) T {
	if len(mods) == 0 {
		return v
	}
	data, err := json.Marshal(v)
	if err != nil {
		return v
	}
	var m map[string]any
	if err := json.Unmarshal(data, &m); err != nil {
		return v
	}
	patched, err := json.Marshal(approval.Merge(m, mods))
	if err != nil {
		return v
	}
	var out T
	if err := json.Unmarshal(patched, &out); err != nil {
		return v
	}
	return out
}
