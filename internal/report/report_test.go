package report

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/lucasnoah/testfactory/internal/executor"
	"github.com/lucasnoah/testfactory/internal/tool"
)

var sampleMeta = Meta{
	RunID:       "run-42",
	AppName:     "shopdemo",
	Feature:     "checkout",
	GeneratedAt: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC),
}

var sampleResults = []executor.TestResult{
	{TestName: "test_add_item", Status: executor.ResultPassed, Message: "1 passed", DurationMs: 40},
	{TestName: "test_checkout", Status: executor.ResultFailed, ErrorMessage: "1 tests failed", StackTrace: "assert 41 == 42", DurationMs: 55},
	{TestName: "test_ghost", Status: executor.ResultError, ErrorMessage: "script does not exist"},
}

func TestRender_Idempotent(t *testing.T) {
	for _, format := range []string{"json", "markdown"} {
		r, err := RendererFor(format)
		if err != nil {
			t.Fatalf("renderer %s: %v", format, err)
		}
		first, err := r.Render(sampleMeta, sampleResults)
		if err != nil {
			t.Fatalf("render %s: %v", format, err)
		}
		second, err := r.Render(sampleMeta, sampleResults)
		if err != nil {
			t.Fatalf("re-render %s: %v", format, err)
		}
		if !bytes.Equal(first, second) {
			t.Errorf("%s output not byte-identical across renders", format)
		}
	}
}

func TestMarkdownRenderer_Content(t *testing.T) {
	out, err := MarkdownRenderer{}.Render(sampleMeta, sampleResults)
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	md := string(out)

	for _, want := range []string{
		"# Test Report: checkout",
		"| 1 | 1 | 0 | 1 | 3 |",
		"| test_checkout | FAIL | 55ms | 1 tests failed |",
		"assert 41 == 42",
		"2025-06-01T12:00:00Z",
	} {
		if !strings.Contains(md, want) {
			t.Errorf("markdown missing %q:\n%s", want, md)
		}
	}
}

func TestRendererFor_Unknown(t *testing.T) {
	if _, err := RendererFor("pdf"); err == nil {
		t.Fatal("expected error for unsupported format")
	}
}

func TestReportGeneratorTool_WritesArtifacts(t *testing.T) {
	dir := t.TempDir()

	res := tool.Run(context.Background(), NewReportGeneratorTool(), tool.Params{
		"meta":       sampleMeta,
		"results":    sampleResults,
		"formats":    []string{"json", "markdown"},
		"output_dir": dir,
	})
	if !res.IsSuccess() {
		t.Fatalf("tool failed: %s", res.Error)
	}

	paths, ok := res.Data.([]string)
	if !ok || len(paths) != 2 {
		t.Fatalf("unexpected artifacts: %v", res.Data)
	}
	for _, p := range paths {
		if _, err := os.Stat(p); err != nil {
			t.Errorf("artifact missing: %v", err)
		}
	}
	if filepath.Ext(paths[0]) != ".json" || filepath.Ext(paths[1]) != ".md" {
		t.Errorf("unexpected extensions: %v", paths)
	}
}

func TestReportGeneratorTool_UnknownFormatIsFailure(t *testing.T) {
	res := tool.Run(context.Background(), NewReportGeneratorTool(), tool.Params{
		"meta":       sampleMeta,
		"results":    sampleResults,
		"formats":    []string{"pdf"},
		"output_dir": t.TempDir(),
	})
	if res.Status != tool.StatusFailure {
		t.Errorf("status = %s, want failure", res.Status)
	}
}
