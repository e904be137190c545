package cli

import (
	"encoding/json"
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/lucasnoah/testfactory/internal/db"
	"github.com/lucasnoah/testfactory/internal/pipeline"
)

var (
	statusFormat string
	statusFilter string
)

var statusCmd = &cobra.Command{
	Use:   "status [run-id]",
	Short: "Show pipeline runs, or one run with its event trail",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := pipeline.DefaultStore()
		if err != nil {
			return err
		}
		if len(args) == 1 {
			return showRun(cmd, store, args[0])
		}
		return listRuns(cmd, store)
	},
}

func listRuns(cmd *cobra.Command, store *pipeline.Store) error {
	runs, err := store.List(statusFilter)
	if err != nil {
		return err
	}

	if statusFormat == "json" {
		data, err := json.MarshalIndent(runs, "", "  ")
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), string(data))
		return nil
	}

	if len(runs) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "no runs")
		return nil
	}
	w := tabwriter.NewWriter(cmd.OutOrStdout(), 2, 4, 2, ' ', 0)
	fmt.Fprintln(w, "RUN\tNAME\tFEATURE\tSTATUS\tSTAGES\tUPDATED")
	for _, r := range runs {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%d/5\t%s\n",
			r.ID, r.Name, r.Feature, r.Status, len(r.CompletedStages),
			r.UpdatedAt)
	}
	return w.Flush()
}

func showRun(cmd *cobra.Command, store *pipeline.Store, runID string) error {
	rs, err := store.Get(runID)
	if err != nil {
		return err
	}

	if statusFormat == "json" {
		data, err := json.MarshalIndent(rs, "", "  ")
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), string(data))
		return nil
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "run:       %s\n", rs.ID)
	fmt.Fprintf(out, "name:      %s\n", rs.Name)
	fmt.Fprintf(out, "feature:   %s\n", rs.Feature)
	fmt.Fprintf(out, "status:    %s\n", rs.Status)
	if rs.CurrentStage != "" {
		fmt.Fprintf(out, "stage:     %s\n", rs.CurrentStage)
	}
	fmt.Fprintf(out, "completed: %s\n", strings.Join(rs.CompletedStages, ", "))
	if rs.Error != "" {
		fmt.Fprintf(out, "error:     %s\n", rs.Error)
	}

	// The event trail lives in the SQLite log; show it when available.
	dbPath, err := db.DefaultDBPath()
	if err != nil {
		return nil
	}
	events, err := db.Open(dbPath)
	if err != nil {
		return nil
	}
	defer events.Close()
	trail, err := events.RunEvents(runID)
	if err != nil || len(trail) == 0 {
		return nil
	}
	fmt.Fprintln(out, "\nevents:")
	for _, e := range trail {
		line := e.Event
		if e.Stage != "" {
			line = e.Stage + " " + line
		}
		if e.Detail != "" {
			line += ": " + e.Detail
		}
		fmt.Fprintf(out, "  %s  %s\n", e.Timestamp, line)
	}
	return nil
}

func init() {
	statusCmd.Flags().StringVar(&statusFormat, "format", "table", "output format (table|json)")
	statusCmd.Flags().StringVar(&statusFilter, "status", "", "filter runs by status")
}
