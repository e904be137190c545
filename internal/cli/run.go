package cli

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/lucasnoah/testfactory/internal/approval"
	"github.com/lucasnoah/testfactory/internal/collab"
	"github.com/lucasnoah/testfactory/internal/config"
	"github.com/lucasnoah/testfactory/internal/db"
	"github.com/lucasnoah/testfactory/internal/executor"
	"github.com/lucasnoah/testfactory/internal/orchestrator"
	"github.com/lucasnoah/testfactory/internal/pipeline"
	"github.com/lucasnoah/testfactory/internal/stage"
	"github.com/lucasnoah/testfactory/internal/tool"
	"github.com/lucasnoah/testfactory/internal/toolkit"
)

var runCmd = &cobra.Command{
	Use:   "run <feature>",
	Short: "Run the full test pipeline for a feature",
	Long: `Run drives all five stages for the given feature description:
discover the application surface, plan test cases, generate scripts,
execute them, and write reports. Depending on the configured HITL mode
the run may pause awaiting an approval; resolve it from another
terminal with "testfactory approval".`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		log := newLogger()

		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		if errs := config.Validate(cfg); len(errs) > 0 {
			for _, e := range errs {
				log.Error().Str("field", e.Field).Msg(e.Message)
			}
			return fmt.Errorf("invalid config: %d error(s)", len(errs))
		}

		orch, cleanup, err := newOrchestrator(cfg, log)
		if err != nil {
			return err
		}
		defer cleanup()

		sum, err := orch.Run(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		printSummary(cmd, sum)
		if sum.Status != pipeline.RunCompleted {
			return fmt.Errorf("pipeline halted at %s: %s", sum.HaltedStage, sum.Error)
		}
		return nil
	},
}

// loadConfig honors --config and falls back to the default search path.
func loadConfig() (*config.PipelineConfig, error) {
	if flagConfig != "" {
		return config.Load(flagConfig)
	}
	return config.LoadDefault()
}

// newOrchestrator wires the stores, the event log, the tool registry,
// and the application profile into a ready orchestrator. The returned
// cleanup closes the event log.
func newOrchestrator(cfg *config.PipelineConfig, log zerolog.Logger) (*orchestrator.Orchestrator, func(), error) {
	p := cfg.Pipeline

	profile, err := collab.LoadProfile(p.AppProfile)
	if err != nil {
		return nil, nil, fmt.Errorf("load app profile: %w", err)
	}

	store, err := pipeline.DefaultStore()
	if err != nil {
		return nil, nil, err
	}
	approvals, err := approval.DefaultStore()
	if err != nil {
		return nil, nil, err
	}

	dbPath, err := db.DefaultDBPath()
	if err != nil {
		return nil, nil, err
	}
	events, err := db.Open(dbPath)
	if err != nil {
		return nil, nil, err
	}
	if err := events.Migrate(); err != nil {
		events.Close()
		return nil, nil, err
	}

	reg, err := newRegistry(cfg, log)
	if err != nil {
		events.Close()
		return nil, nil, err
	}
	ts, err := stage.NewToolset(reg)
	if err != nil {
		events.Close()
		return nil, nil, err
	}

	orch := orchestrator.New(cfg, store, approvals, events, ts, profile, log)
	return orch, func() { events.Close() }, nil
}

// newRegistry wires the production collaborators behind every pipeline
// tool.
func newRegistry(cfg *config.PipelineConfig, log zerolog.Logger) (*tool.Registry, error) {
	p := cfg.Pipeline

	renderer, err := collab.NewTemplateRenderer()
	if err != nil {
		return nil, err
	}
	validator, err := executor.NewPathValidator(p.Execution.AllowedDirs)
	if err != nil {
		return nil, err
	}

	reg := tool.NewRegistry(log)
	toolkit.RegisterAll(reg, toolkit.Collaborators{
		Discoverer: collab.ProfileDiscoverer{},
		Retriever:  collab.NoopRetriever{},
		Planner:    collab.OutlinePlanner{},
		Extractor:  collab.LineCaseExtractor{},
		Renderer:   renderer,
		Writer:     collab.AtomicFileWriter{},
		Executor:   executor.NewExecutor(executor.ExecRunner{}, validator, executor.BuildEnv(p.Execution.EnvPassthrough), log),
	})
	return reg, nil
}

func printSummary(cmd *cobra.Command, sum *orchestrator.Summary) {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "run %s (%s): %s in %s\n", sum.RunID, sum.Feature, sum.Status, sum.TotalDuration.Round(1e6))

	w := tabwriter.NewWriter(out, 2, 4, 2, ' ', 0)
	fmt.Fprintln(w, "STAGE\tSTATUS\tDURATION\tERROR")
	for _, st := range sum.Stages {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", st.Name, st.Status, st.Duration.Round(1e6), st.Error)
	}
	w.Flush()

	if len(sum.Artifacts) > 0 {
		fmt.Fprintf(out, "reports: %s\n", strings.Join(sum.Artifacts, ", "))
	}
}
