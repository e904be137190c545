package report

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/lucasnoah/testfactory/internal/executor"
	"github.com/lucasnoah/testfactory/internal/pipeline"
	"github.com/lucasnoah/testfactory/internal/tool"
)

// ReportGeneratorTool renders the result list into one artifact per
// requested format and writes them under the output directory. Params:
// "meta" (Meta), "results" ([]executor.TestResult), "formats"
// ([]string), "output_dir" (string).
type ReportGeneratorTool struct{}

func NewReportGeneratorTool() *ReportGeneratorTool {
	return &ReportGeneratorTool{}
}

func (t *ReportGeneratorTool) Meta() tool.Metadata {
	return tool.Metadata{
		Name:        "report_generator",
		Description: "renders test results into report artifacts",
		Version:     "1.0.0",
		Tags:        []string{"reporting"},
		Safe:        true,
	}
}

func (t *ReportGeneratorTool) Execute(ctx context.Context, params tool.Params) tool.Result {
	mv, ok := params.Value("meta")
	if !ok {
		return tool.Failuref("missing required param: meta")
	}
	meta, ok := mv.(Meta)
	if !ok {
		return tool.Failuref("param meta has wrong type %T", mv)
	}
	rv, ok := params.Value("results")
	if !ok {
		return tool.Failuref("missing required param: results")
	}
	results, ok := rv.([]executor.TestResult)
	if !ok {
		return tool.Failuref("param results has wrong type %T", rv)
	}
	fv, _ := params.Value("formats")
	formats, ok := fv.([]string)
	if !ok || len(formats) == 0 {
		return tool.Failuref("missing required param: formats")
	}
	outputDir := params.String("output_dir")
	if outputDir == "" {
		return tool.Failuref("missing required param: output_dir")
	}

	var artifacts []string
	for _, format := range formats {
		if err := ctx.Err(); err != nil {
			return tool.Errorf("report generation: %v", err)
		}
		renderer, err := RendererFor(format)
		if err != nil {
			return tool.Failuref("%v", err)
		}
		content, err := renderer.Render(meta, results)
		if err != nil {
			return tool.Errorf("render %s report: %v", format, err)
		}
		path := filepath.Join(outputDir, fmt.Sprintf("report-%s%s", meta.RunID, renderer.Ext()))
		if err := pipeline.WriteAtomic(path, content); err != nil {
			return tool.Errorf("write %s: %v", path, err)
		}
		artifacts = append(artifacts, path)
	}
	return tool.Success(artifacts)
}
