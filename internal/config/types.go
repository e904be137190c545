package config

// PipelineConfig is the top-level configuration structure parsed from
// pipeline YAML.
type PipelineConfig struct {
	Pipeline Pipeline `yaml:"pipeline"`
}

// Pipeline defines one pipeline: the application under test, the
// approval policy, and per-stage settings.
type Pipeline struct {
	Name       string     `yaml:"name"`
	AppProfile string     `yaml:"app_profile"`
	HITL       HITL       `yaml:"hitl"`
	Generation Generation `yaml:"generation"`
	Execution  Execution  `yaml:"execution"`
	Reporting  Reporting  `yaml:"reporting"`
}

// HITL configures the human-in-the-loop approval gates.
type HITL struct {
	Mode                string `yaml:"mode"`
	TimeoutSeconds      int    `yaml:"timeout_seconds"`
	PollIntervalSeconds int    `yaml:"poll_interval_seconds"`
}

// Generation configures the script generation stage.
type Generation struct {
	Framework string `yaml:"framework"`
	OutputDir string `yaml:"output_dir"`
}

// Execution configures the script execution stage.
type Execution struct {
	TimeoutSeconds int      `yaml:"timeout_seconds"`
	Workers        int      `yaml:"workers"`
	AllowedDirs    []string `yaml:"allowed_dirs"`
	EnvPassthrough []string `yaml:"env_passthrough"`
}

// Reporting configures the report artifacts.
type Reporting struct {
	Formats   []string `yaml:"formats"`
	OutputDir string   `yaml:"output_dir"`
}
