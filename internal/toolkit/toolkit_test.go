package toolkit

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/lucasnoah/testfactory/internal/collab"
	"github.com/lucasnoah/testfactory/internal/pipeline"
	"github.com/lucasnoah/testfactory/internal/tool"
)

type emptyDiscoverer struct{}

func (emptyDiscoverer) Discover(ctx context.Context, profile *collab.Profile) (*collab.DiscoveryResult, error) {
	return &collab.DiscoveryResult{AppName: profile.App}, nil
}

type failingRetriever struct{}

func (failingRetriever) Search(ctx context.Context, query string, k int) ([]collab.Snippet, error) {
	return nil, errors.New("index unavailable")
}

func TestDiscoveryTool_MissingProfileParam(t *testing.T) {
	dt := NewDiscoveryTool(collab.ProfileDiscoverer{})
	res := dt.Execute(context.Background(), tool.Params{})
	if res.Status != tool.StatusFailure {
		t.Fatalf("status = %s, want failure", res.Status)
	}
	if !strings.Contains(res.Error, "profile") {
		t.Errorf("error = %q", res.Error)
	}
}

func TestDiscoveryTool_WrongParamType(t *testing.T) {
	dt := NewDiscoveryTool(collab.ProfileDiscoverer{})
	res := dt.Execute(context.Background(), tool.Params{"profile": "not-a-profile"})
	if res.Status != tool.StatusFailure {
		t.Fatalf("status = %s, want failure", res.Status)
	}
}

func TestDiscoveryTool_EmptySurfaceIsFailure(t *testing.T) {
	dt := NewDiscoveryTool(emptyDiscoverer{})
	res := dt.Execute(context.Background(), tool.Params{"profile": &collab.Profile{App: "bare"}})
	if res.Status != tool.StatusFailure {
		t.Fatalf("status = %s, want failure", res.Status)
	}
	if !strings.Contains(res.Error, "nothing to test") {
		t.Errorf("error = %q", res.Error)
	}
}

func TestPlanGeneratorTool_MissingParams(t *testing.T) {
	pt := NewPlanGeneratorTool(collab.OutlinePlanner{}, collab.NoopRetriever{})

	res := pt.Execute(context.Background(), tool.Params{"discovery": &collab.DiscoveryResult{}})
	if res.Status != tool.StatusFailure || !strings.Contains(res.Error, "feature") {
		t.Errorf("missing feature: %s / %q", res.Status, res.Error)
	}

	res = pt.Execute(context.Background(), tool.Params{"feature": "checkout"})
	if res.Status != tool.StatusFailure || !strings.Contains(res.Error, "discovery") {
		t.Errorf("missing discovery: %s / %q", res.Status, res.Error)
	}
}

// A broken retriever degrades to planning without snippets; it never
// fails the tool.
func TestPlanGeneratorTool_RetrieverFailureDegrades(t *testing.T) {
	pt := NewPlanGeneratorTool(collab.OutlinePlanner{}, failingRetriever{})
	res := pt.Execute(context.Background(), tool.Params{
		"feature": "checkout",
		"discovery": &collab.DiscoveryResult{
			AppName: "shopdemo",
			Pages:   []string{"/cart"},
		},
	})
	if !res.IsSuccess() {
		t.Fatalf("status = %s: %s", res.Status, res.Error)
	}
	raw, ok := res.Data.(string)
	if !ok || raw == "" {
		t.Fatalf("unexpected plan payload %T", res.Data)
	}
}

func TestCaseExtractorTool_MissingRaw(t *testing.T) {
	et := NewCaseExtractorTool(collab.LineCaseExtractor{})
	res := et.Execute(context.Background(), tool.Params{"feature": "checkout"})
	if res.Status != tool.StatusFailure || !strings.Contains(res.Error, "raw") {
		t.Errorf("missing raw: %s / %q", res.Status, res.Error)
	}
}

func TestScriptGeneratorTool_MissingParams(t *testing.T) {
	renderer, err := collab.NewTemplateRenderer()
	if err != nil {
		t.Fatalf("renderer: %v", err)
	}
	st := NewScriptGeneratorTool(renderer, collab.AtomicFileWriter{})
	plan := &pipeline.TestPlan{Cases: []pipeline.TestCase{{ID: "TC-001", Name: "smoke"}}}

	for _, tc := range []struct {
		name   string
		params tool.Params
	}{
		{"plan", tool.Params{"framework": "pytest", "output_dir": t.TempDir()}},
		{"framework", tool.Params{"plan": plan, "output_dir": t.TempDir()}},
		{"output_dir", tool.Params{"plan": plan, "framework": "pytest"}},
	} {
		res := st.Execute(context.Background(), tc.params)
		if res.Status != tool.StatusFailure || !strings.Contains(res.Error, tc.name) {
			t.Errorf("missing %s: %s / %q", tc.name, res.Status, res.Error)
		}
	}
}

func TestScriptFileName(t *testing.T) {
	tc := pipeline.TestCase{ID: "TC-001"}
	if got := scriptFileName(tc, "pytest"); got != "test_TC_001.py" {
		t.Errorf("pytest name = %q", got)
	}
	if got := scriptFileName(tc, "generic"); got != "test_TC_001.sh" {
		t.Errorf("generic name = %q", got)
	}
}
