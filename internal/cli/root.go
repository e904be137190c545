// Package cli is the cobra command surface over the pipeline
// orchestrator, the approval store, and the event log.
package cli

import (
	"io"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"gopkg.in/natefinch/lumberjack.v2"
)

var version = "dev"

func SetVersion(v string) {
	version = v
}

var (
	flagConfig  string
	flagLogFile string
	flagVerbose bool
)

var rootCmd = &cobra.Command{
	Use:   "testfactory",
	Short: "testfactory is an automated test pipeline with human approval gates",
	Long: `testfactory drives a five-stage test pipeline (discover, plan,
generate, execute, report) over an application profile. Intermediate
artifacts can be gated behind human approval, generated scripts run in
isolated processes with timeouts, and every run leaves a queryable
event trail.

All state is stored in ~/.testfactory/ (SQLite for events, JSON for
artifacts).`,
}

func Execute() error {
	return rootCmd.Execute()
}

// newLogger builds the process logger. Console output goes to stderr;
// --log-file adds a rotating JSON sink.
func newLogger() zerolog.Logger {
	level := zerolog.InfoLevel
	if flagVerbose {
		level = zerolog.DebugLevel
	}

	var w io.Writer = zerolog.ConsoleWriter{Out: os.Stderr}
	if flagLogFile != "" {
		w = zerolog.MultiLevelWriter(w, &lumberjack.Logger{
			Filename:   flagLogFile,
			MaxSize:    20, // megabytes
			MaxBackups: 3,
			MaxAge:     14, // days
		})
	}
	return zerolog.New(w).Level(level).With().Timestamp().Logger()
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&flagConfig, "config", "c", "", "path to pipeline config YAML")
	rootCmd.PersistentFlags().StringVar(&flagLogFile, "log-file", "", "write JSON logs to this rotating file")
	rootCmd.PersistentFlags().BoolVarP(&flagVerbose, "verbose", "v", false, "enable debug logging")

	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(approvalCmd)
	rootCmd.AddCommand(toolsCmd)
	rootCmd.AddCommand(dbCmd)
}
