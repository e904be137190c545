package executor

import (
	"context"

	"github.com/lucasnoah/testfactory/internal/pipeline"
	"github.com/lucasnoah/testfactory/internal/tool"
)

// TestExecutorTool runs a single script as a registry tool. Params:
// "script" (pipeline.Script) and optional "timeout" (duration). A path
// violation is a FAILURE (known precondition); a launch fault is
// surfaced inside the returned ExecutionRecord.
type TestExecutorTool struct {
	exec *Executor
}

// NewTestExecutorTool wraps an Executor for registry use.
func NewTestExecutorTool(exec *Executor) *TestExecutorTool {
	return &TestExecutorTool{exec: exec}
}

func (t *TestExecutorTool) Meta() tool.Metadata {
	return tool.Metadata{
		Name:        "test_executor",
		Description: "runs one generated test script in an isolated process",
		Version:     "1.0.0",
		Tags:        []string{"execution"},
		Safe:        false,
	}
}

func (t *TestExecutorTool) Execute(ctx context.Context, params tool.Params) tool.Result {
	v, ok := params.Value("script")
	if !ok {
		return tool.Failuref("missing required param: script")
	}
	script, ok := v.(pipeline.Script)
	if !ok {
		return tool.Failuref("param script has wrong type %T", v)
	}
	if t.exec.validator != nil {
		if err := t.exec.validator.Validate(script.Path); err != nil {
			return tool.Failuref("invalid script path: %v", err)
		}
	}

	timeout := params.Duration("timeout", DefaultTimeout)
	rec := t.exec.Run(ctx, script, timeout)
	return tool.Success(rec)
}

// ResultCollectorTool converts an ExecutionRecord into a canonical
// TestResult via the framework parsers. Param: "record"
// (ExecutionRecord).
type ResultCollectorTool struct {
	parsers map[string]Parser
}

// NewResultCollectorTool builds a collector with the built-in parsers.
func NewResultCollectorTool() *ResultCollectorTool {
	return &ResultCollectorTool{parsers: defaultParsers()}
}

func (t *ResultCollectorTool) Meta() tool.Metadata {
	return tool.Metadata{
		Name:        "result_collector",
		Description: "parses raw script output into a canonical test result",
		Version:     "1.0.0",
		Tags:        []string{"execution"},
		Safe:        true,
	}
}

func (t *ResultCollectorTool) Execute(ctx context.Context, params tool.Params) tool.Result {
	v, ok := params.Value("record")
	if !ok {
		return tool.Failuref("missing required param: record")
	}
	rec, ok := v.(ExecutionRecord)
	if !ok {
		return tool.Failuref("param record has wrong type %T", v)
	}
	return tool.Success(Collect(rec, t.parsers))
}
