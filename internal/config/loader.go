package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Load reads and parses a pipeline configuration from the given YAML
// file path, then applies defaults to anything left unset.
func Load(path string) (*PipelineConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	var cfg PipelineConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config YAML: %w", err)
	}

	applyDefaults(&cfg)
	return &cfg, nil
}

// LoadDefault searches for a pipeline config in standard locations and
// loads the first one found. Search order: ./testfactory.yaml,
// ~/.testfactory/config.yaml
func LoadDefault() (*PipelineConfig, error) {
	candidates := []string{"testfactory.yaml"}

	home, err := os.UserHomeDir()
	if err == nil {
		candidates = append(candidates, filepath.Join(home, ".testfactory", "config.yaml"))
	}

	for _, path := range candidates {
		if _, err := os.Stat(path); err == nil {
			return Load(path)
		}
	}

	return nil, fmt.Errorf("no pipeline config found (searched: %v)", candidates)
}

// applyDefaults fills unset fields with working defaults so a minimal
// config only needs a name and an app profile.
func applyDefaults(cfg *PipelineConfig) {
	p := &cfg.Pipeline

	if p.HITL.Mode == "" {
		p.HITL.Mode = "FULL_AUTO"
	}
	if p.HITL.TimeoutSeconds <= 0 {
		p.HITL.TimeoutSeconds = 3600
	}
	if p.HITL.PollIntervalSeconds <= 0 {
		p.HITL.PollIntervalSeconds = 2
	}

	if p.Generation.Framework == "" {
		p.Generation.Framework = "pytest"
	}
	if p.Generation.OutputDir == "" {
		p.Generation.OutputDir = "generated"
	}

	if p.Execution.TimeoutSeconds <= 0 {
		p.Execution.TimeoutSeconds = 120
	}
	if p.Execution.Workers <= 0 {
		p.Execution.Workers = 4
	}
	if len(p.Execution.AllowedDirs) == 0 {
		p.Execution.AllowedDirs = []string{p.Generation.OutputDir}
	}

	if len(p.Reporting.Formats) == 0 {
		p.Reporting.Formats = []string{"json", "markdown"}
	}
	if p.Reporting.OutputDir == "" {
		p.Reporting.OutputDir = "reports"
	}
}
