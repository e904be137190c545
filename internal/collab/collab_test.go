package collab

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/lucasnoah/testfactory/internal/pipeline"
)

const sampleProfile = `app: shopdemo
base_url: http://localhost:8080
pages:
  - path: /login
    title: Login
  - path: /cart
elements:
  - name: username field
    kind: input
    selector: "#username"
    page: /login
  - name: checkout button
    kind: button
    selector: "#checkout"
    page: /cart
`

func writeProfile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "profile.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write profile: %v", err)
	}
	return path
}

func TestLoadProfile(t *testing.T) {
	p, err := LoadProfile(writeProfile(t, sampleProfile))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if p.App != "shopdemo" || len(p.Pages) != 2 || len(p.Elements) != 2 {
		t.Errorf("unexpected profile: %+v", p)
	}
}

func TestLoadProfile_RequiresAppName(t *testing.T) {
	if _, err := LoadProfile(writeProfile(t, "base_url: http://x\n")); err == nil {
		t.Fatal("expected error for missing app name")
	}
}

func TestProfileDiscoverer(t *testing.T) {
	p, err := LoadProfile(writeProfile(t, sampleProfile))
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	res, err := ProfileDiscoverer{}.Discover(context.Background(), p)
	if err != nil {
		t.Fatalf("discover: %v", err)
	}
	if res.AppName != "shopdemo" {
		t.Errorf("app name: %s", res.AppName)
	}
	if len(res.Pages) != 2 || res.Pages[0] != "/login" {
		t.Errorf("pages: %v", res.Pages)
	}
	if len(res.Elements) != 2 || res.Elements[1].Kind != "button" {
		t.Errorf("elements: %v", res.Elements)
	}
}

func TestProfileDiscoverer_NilProfile(t *testing.T) {
	if _, err := (ProfileDiscoverer{}).Discover(context.Background(), nil); err == nil {
		t.Fatal("expected error for nil profile")
	}
}

func TestPlanRoundTrip(t *testing.T) {
	disc := &DiscoveryResult{
		AppName:  "shopdemo",
		Pages:    []string{"/login"},
		Elements: []pipeline.Element{{Name: "checkout button", Kind: "button", Selector: "#checkout", Page: "/cart"}},
	}

	raw, err := OutlinePlanner{}.GeneratePlan(context.Background(), PlanContext{Feature: "checkout", Discovery: disc})
	if err != nil {
		t.Fatalf("generate: %v", err)
	}

	cases, err := LineCaseExtractor{}.ExtractCases(raw)
	if err != nil {
		t.Fatalf("extract: %v", err)
	}
	if len(cases) != 2 {
		t.Fatalf("expected 2 cases (1 page + 1 element), got %d", len(cases))
	}
	if cases[0].ID != "TC-001" || cases[0].Priority != "high" {
		t.Errorf("page case: %+v", cases[0])
	}
	if cases[1].ID != "TC-002" || len(cases[1].Steps) != 2 {
		t.Errorf("element case: %+v", cases[1])
	}
	if cases[1].Steps[1].Action != "click" || cases[1].Steps[1].Target != "#checkout" {
		t.Errorf("element step: %+v", cases[1].Steps[1])
	}
}

func TestExtractCases_JSON(t *testing.T) {
	raw := `[{"id":"TC-9","name":"login","priority":"high","steps":[{"number":1,"action":"open","target":"/login"}]}]`
	cases, err := LineCaseExtractor{}.ExtractCases(raw)
	if err != nil {
		t.Fatalf("extract: %v", err)
	}
	if len(cases) != 1 || cases[0].ID != "TC-9" || len(cases[0].Steps) != 1 {
		t.Errorf("unexpected cases: %+v", cases)
	}
}

func TestExtractCases_Empty(t *testing.T) {
	if _, err := (LineCaseExtractor{}).ExtractCases("just prose, no cases"); err == nil {
		t.Fatal("expected error for plan with no cases")
	}
}

func TestTemplateRenderer_Pytest(t *testing.T) {
	r, err := NewTemplateRenderer()
	if err != nil {
		t.Fatalf("new renderer: %v", err)
	}

	src, err := r.Render(pipeline.TestCase{
		ID:   "TC-001",
		Name: "Checkout Button Works!",
		Steps: []pipeline.TestStep{
			{Number: 1, Action: "open", Target: "/cart"},
			{Number: 2, Action: "click", Target: "#checkout"},
		},
		Expected: "order confirmation shown",
	}, "pytest")
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if !strings.Contains(src, "def test_checkout_button_works():") {
		t.Errorf("missing sanitized test function:\n%s", src)
	}
	if !strings.Contains(src, "# step 2: click #checkout") {
		t.Errorf("missing step comment:\n%s", src)
	}
}

func TestTemplateRenderer_UnknownFramework(t *testing.T) {
	r, err := NewTemplateRenderer()
	if err != nil {
		t.Fatalf("new renderer: %v", err)
	}
	if _, err := r.Render(pipeline.TestCase{ID: "TC-1", Name: "x"}, "mocha"); err == nil {
		t.Fatal("expected error for unknown framework")
	}
}

func TestAtomicFileWriter_BackupOnOverwrite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test_login.py")
	w := AtomicFileWriter{}

	if err := w.Write(path, "v1"); err != nil {
		t.Fatalf("first write: %v", err)
	}
	if err := w.Write(path, "v2"); err != nil {
		t.Fatalf("second write: %v", err)
	}

	got, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if string(got) != "v2" {
		t.Errorf("expected new content, got %q", got)
	}
	bak, err := os.ReadFile(path + ".bak")
	if err != nil {
		t.Fatalf("read backup: %v", err)
	}
	if string(bak) != "v1" {
		t.Errorf("expected backup of old content, got %q", bak)
	}
}
