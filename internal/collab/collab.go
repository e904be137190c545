// Package collab defines the narrow interfaces the pipeline stages
// depend on for discovery, planning, script rendering, and file
// writing, along with default implementations that work without any
// external service.
package collab

import (
	"context"

	"github.com/lucasnoah/testfactory/internal/pipeline"
)

// DiscoveryResult is what a Discoverer produces: the elements and pages
// of the application under test.
type DiscoveryResult struct {
	AppName  string             `json:"app_name"`
	BaseURL  string             `json:"base_url,omitempty"`
	Elements []pipeline.Element `json:"elements"`
	Pages    []string           `json:"pages"`
}

// Discoverer enumerates the testable surface of an application.
type Discoverer interface {
	Discover(ctx context.Context, profile *Profile) (*DiscoveryResult, error)
}

// Snippet is one retrieval hit used as extra planning context.
type Snippet struct {
	Content  string            `json:"content"`
	Score    float64           `json:"score"`
	Metadata map[string]string `json:"metadata,omitempty"`
}

// Retriever finds prior test material similar to a query. Callers must
// tolerate an empty result; retrieval is best-effort context, never a
// hard dependency.
type Retriever interface {
	Search(ctx context.Context, query string, k int) ([]Snippet, error)
}

// PlanContext is the input to plan generation.
type PlanContext struct {
	Feature   string
	Discovery *DiscoveryResult
	Snippets  []Snippet
}

// Planner turns a feature request plus discovered surface into a raw
// plan text. The text's structure is the CaseExtractor's problem.
type Planner interface {
	GeneratePlan(ctx context.Context, pc PlanContext) (string, error)
}

// CaseExtractor parses raw plan text into structured test cases.
type CaseExtractor interface {
	ExtractCases(raw string) ([]pipeline.TestCase, error)
}

// ScriptRenderer turns one test case into executable source text for a
// target framework.
type ScriptRenderer interface {
	Render(tc pipeline.TestCase, framework string) (string, error)
}

// FileWriter persists rendered script text to disk.
type FileWriter interface {
	Write(path, text string) error
}
