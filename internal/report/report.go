// Package report renders canonical test results into persisted report
// artifacts. Rendering is deterministic: the same results and the same
// injected timestamp produce byte-identical output.
package report

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/lucasnoah/testfactory/internal/executor"
)

// Meta is the report header. GeneratedAt is injected by the caller, not
// read from the clock, so re-rendering is reproducible.
type Meta struct {
	RunID       string    `json:"run_id"`
	AppName     string    `json:"app_name,omitempty"`
	Feature     string    `json:"feature"`
	GeneratedAt time.Time `json:"generated_at"`
}

// Renderer produces one report artifact format.
type Renderer interface {
	Render(meta Meta, results []executor.TestResult) ([]byte, error)
	Ext() string
}

// RendererFor selects a renderer by format name.
func RendererFor(format string) (Renderer, error) {
	switch format {
	case "json":
		return JSONRenderer{}, nil
	case "markdown", "md":
		return MarkdownRenderer{}, nil
	}
	return nil, fmt.Errorf("unsupported report format %q", format)
}

// document is the shape shared by renderers.
type document struct {
	Meta    Meta                  `json:"meta"`
	Summary executor.Tally        `json:"summary"`
	Results []executor.TestResult `json:"results"`
}

func buildDocument(meta Meta, results []executor.TestResult) document {
	doc := document{Meta: meta, Results: results}
	for _, r := range results {
		doc.Summary.Add(r)
	}
	if doc.Results == nil {
		doc.Results = []executor.TestResult{}
	}
	return doc
}

// JSONRenderer emits the document as indented JSON.
type JSONRenderer struct{}

func (JSONRenderer) Ext() string { return ".json" }

func (JSONRenderer) Render(meta Meta, results []executor.TestResult) ([]byte, error) {
	data, err := json.MarshalIndent(buildDocument(meta, results), "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal report: %w", err)
	}
	return append(data, '\n'), nil
}

// MarkdownRenderer emits a human-readable summary with a per-test
// table and failure details.
type MarkdownRenderer struct{}

func (MarkdownRenderer) Ext() string { return ".md" }

func (MarkdownRenderer) Render(meta Meta, results []executor.TestResult) ([]byte, error) {
	doc := buildDocument(meta, results)

	var b strings.Builder
	fmt.Fprintf(&b, "# Test Report: %s\n\n", meta.Feature)
	if meta.AppName != "" {
		fmt.Fprintf(&b, "Application: %s\n", meta.AppName)
	}
	fmt.Fprintf(&b, "Run: %s\n", meta.RunID)
	fmt.Fprintf(&b, "Generated: %s\n\n", meta.GeneratedAt.UTC().Format(time.RFC3339))

	fmt.Fprintf(&b, "## Summary\n\n")
	fmt.Fprintf(&b, "| Passed | Failed | Skipped | Errors | Total |\n")
	fmt.Fprintf(&b, "|--------|--------|---------|--------|-------|\n")
	fmt.Fprintf(&b, "| %d | %d | %d | %d | %d |\n\n",
		doc.Summary.Passed, doc.Summary.Failed, doc.Summary.Skipped, doc.Summary.Errors, doc.Summary.Total())

	fmt.Fprintf(&b, "## Results\n\n")
	fmt.Fprintf(&b, "| Test | Status | Duration | Detail |\n")
	fmt.Fprintf(&b, "|------|--------|----------|--------|\n")
	for _, r := range doc.Results {
		detail := r.Message
		if r.ErrorMessage != "" {
			detail = r.ErrorMessage
		}
		fmt.Fprintf(&b, "| %s | %s | %dms | %s |\n", r.TestName, statusBadge(r.Status), r.DurationMs, mdEscape(detail))
	}
	b.WriteString("\n")

	for _, r := range doc.Results {
		if r.StackTrace == "" {
			continue
		}
		fmt.Fprintf(&b, "### %s\n\n```\n%s\n```\n\n", r.TestName, r.StackTrace)
	}
	return []byte(b.String()), nil
}

func statusBadge(s executor.ResultStatus) string {
	switch s {
	case executor.ResultPassed:
		return "PASS"
	case executor.ResultFailed:
		return "FAIL"
	case executor.ResultSkipped:
		return "SKIP"
	default:
		return "ERROR"
	}
}

func mdEscape(s string) string {
	s = strings.ReplaceAll(s, "\n", " ")
	return strings.ReplaceAll(s, "|", "\\|")
}
