package collab

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/lucasnoah/testfactory/internal/pipeline"
)

// OutlinePlanner is the default Planner. It derives a deterministic
// plan outline from the discovered surface: one case per interactable
// element plus one smoke case per page. An LLM-backed Planner can
// replace it behind the same interface.
type OutlinePlanner struct{}

// GeneratePlan emits plan text in the line format LineCaseExtractor
// understands.
func (OutlinePlanner) GeneratePlan(ctx context.Context, pc PlanContext) (string, error) {
	if pc.Discovery == nil {
		return "", fmt.Errorf("plan generation requires discovery output")
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}

	var b strings.Builder
	fmt.Fprintf(&b, "PLAN: %s\n", pc.Feature)

	n := 0
	for _, page := range pc.Discovery.Pages {
		n++
		fmt.Fprintf(&b, "CASE: TC-%03d | smoke check %s | high\n", n, page)
		fmt.Fprintf(&b, "  DESC: verify %s loads without error\n", page)
		fmt.Fprintf(&b, "  STEP: open | %s |\n", page)
		fmt.Fprintf(&b, "  EXPECT: page renders with no error state\n")
	}
	for _, el := range pc.Discovery.Elements {
		n++
		fmt.Fprintf(&b, "CASE: TC-%03d | exercise %s | medium\n", n, el.Name)
		fmt.Fprintf(&b, "  DESC: interact with %s (%s) and verify the outcome\n", el.Name, el.Kind)
		if el.Page != "" {
			fmt.Fprintf(&b, "  STEP: open | %s |\n", el.Page)
		}
		fmt.Fprintf(&b, "  STEP: %s | %s |\n", actionFor(el.Kind), el.Selector)
		fmt.Fprintf(&b, "  EXPECT: %s responds without error\n", el.Name)
	}
	for _, sn := range pc.Snippets {
		// Retrieval context rides along as comments; extraction ignores it.
		fmt.Fprintf(&b, "# prior: %s\n", firstLine(sn.Content))
	}
	return b.String(), nil
}

func actionFor(kind string) string {
	switch kind {
	case "input":
		return "fill"
	case "button", "link":
		return "click"
	case "api":
		return "request"
	default:
		return "inspect"
	}
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}

// LineCaseExtractor parses plan text into test cases. It accepts two
// shapes: a JSON array of cases, or the line format OutlinePlanner
// emits (CASE/DESC/STEP/EXPECT lines).
type LineCaseExtractor struct{}

// ExtractCases parses raw plan text. Unrecognized lines are skipped;
// the error is reserved for text yielding no cases at all.
func (LineCaseExtractor) ExtractCases(raw string) ([]pipeline.TestCase, error) {
	trimmed := strings.TrimSpace(raw)
	if strings.HasPrefix(trimmed, "[") {
		var cases []pipeline.TestCase
		if err := json.Unmarshal([]byte(trimmed), &cases); err != nil {
			return nil, fmt.Errorf("parse case JSON: %w", err)
		}
		return cases, nil
	}

	var cases []pipeline.TestCase
	var cur *pipeline.TestCase
	for _, line := range strings.Split(raw, "\n") {
		stripped := strings.TrimSpace(line)
		switch {
		case strings.HasPrefix(stripped, "CASE:"):
			if cur != nil {
				cases = append(cases, *cur)
			}
			parts := splitFields(strings.TrimPrefix(stripped, "CASE:"), 3)
			cur = &pipeline.TestCase{ID: parts[0], Name: parts[1], Priority: parts[2]}
		case cur == nil:
			// header or noise before the first case
		case strings.HasPrefix(stripped, "DESC:"):
			cur.Description = strings.TrimSpace(strings.TrimPrefix(stripped, "DESC:"))
		case strings.HasPrefix(stripped, "STEP:"):
			parts := splitFields(strings.TrimPrefix(stripped, "STEP:"), 3)
			cur.Steps = append(cur.Steps, pipeline.TestStep{
				Number: len(cur.Steps) + 1,
				Action: parts[0],
				Target: parts[1],
				Value:  parts[2],
			})
		case strings.HasPrefix(stripped, "EXPECT:"):
			cur.Expected = strings.TrimSpace(strings.TrimPrefix(stripped, "EXPECT:"))
		}
	}
	if cur != nil {
		cases = append(cases, *cur)
	}
	if len(cases) == 0 {
		return nil, fmt.Errorf("no test cases found in plan text")
	}
	return cases, nil
}

// splitFields splits a pipe-delimited line into exactly n trimmed
// fields, padding with empty strings.
func splitFields(s string, n int) []string {
	parts := strings.SplitN(s, "|", n)
	out := make([]string, n)
	for i := range out {
		if i < len(parts) {
			out[i] = strings.TrimSpace(parts[i])
		}
	}
	return out
}
