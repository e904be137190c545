package config

import (
	"os"
	"path/filepath"
	"testing"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "testfactory.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoad_AppliesDefaults(t *testing.T) {
	cfg, err := Load(writeConfig(t, `
pipeline:
  name: checkout-tests
  app_profile: profiles/shopdemo.yaml
`))
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	p := cfg.Pipeline
	if p.HITL.Mode != "FULL_AUTO" || p.HITL.TimeoutSeconds != 3600 || p.HITL.PollIntervalSeconds != 2 {
		t.Errorf("hitl defaults: %+v", p.HITL)
	}
	if p.Generation.Framework != "pytest" || p.Generation.OutputDir != "generated" {
		t.Errorf("generation defaults: %+v", p.Generation)
	}
	if p.Execution.Workers != 4 || p.Execution.TimeoutSeconds != 120 {
		t.Errorf("execution defaults: %+v", p.Execution)
	}
	if len(p.Execution.AllowedDirs) != 1 || p.Execution.AllowedDirs[0] != "generated" {
		t.Errorf("allowed_dirs should default to the generation output dir: %v", p.Execution.AllowedDirs)
	}
	if len(p.Reporting.Formats) != 2 {
		t.Errorf("reporting defaults: %+v", p.Reporting)
	}
}

func TestLoad_ExplicitValuesKept(t *testing.T) {
	cfg, err := Load(writeConfig(t, `
pipeline:
  name: checkout-tests
  app_profile: profiles/shopdemo.yaml
  hitl:
    mode: APPROVE_PLAN
    timeout_seconds: 60
  execution:
    workers: 2
    allowed_dirs: [/srv/scripts]
    env_passthrough: [APP_BASE_URL]
`))
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	p := cfg.Pipeline
	if p.HITL.Mode != "APPROVE_PLAN" || p.HITL.TimeoutSeconds != 60 {
		t.Errorf("hitl: %+v", p.HITL)
	}
	if p.Execution.Workers != 2 || p.Execution.AllowedDirs[0] != "/srv/scripts" {
		t.Errorf("execution: %+v", p.Execution)
	}
	if len(p.Execution.EnvPassthrough) != 1 {
		t.Errorf("env passthrough: %v", p.Execution.EnvPassthrough)
	}
}

func TestLoad_MissingFile(t *testing.T) {
	if _, err := Load("/nonexistent/testfactory.yaml"); err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestValidate(t *testing.T) {
	cfg, err := Load(writeConfig(t, `
pipeline:
  name: checkout-tests
  app_profile: profiles/shopdemo.yaml
`))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if errs := Validate(cfg); len(errs) != 0 {
		t.Errorf("valid config should pass, got %v", errs)
	}
}

func TestValidate_CollectsAllErrors(t *testing.T) {
	cfg := &PipelineConfig{Pipeline: Pipeline{
		HITL:       HITL{Mode: "ASK_NICELY"},
		Generation: Generation{Framework: "mocha"},
		Reporting:  Reporting{Formats: []string{"pdf"}},
	}}

	errs := Validate(cfg)
	if len(errs) != 5 {
		t.Fatalf("expected 5 errors (name, profile, mode, framework, format), got %d: %v", len(errs), errs)
	}
	for _, e := range errs {
		if e.Error() == "" {
			t.Error("empty error string")
		}
	}
}
