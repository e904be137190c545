package cli

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/lucasnoah/testfactory/internal/config"
)

var toolsTag string

var toolsCmd = &cobra.Command{
	Use:   "tools",
	Short: "List the registered pipeline tools",
	RunE: func(cmd *cobra.Command, args []string) error {
		log := newLogger()

		cfg, err := loadConfig()
		if err != nil {
			// Tool listing should work without a config; fall back to
			// defaults so the registry can still be wired.
			cfg = &config.PipelineConfig{}
		}

		reg, err := newRegistry(cfg, log)
		if err != nil {
			return err
		}

		var tags []string
		if toolsTag != "" {
			tags = []string{toolsTag}
		}
		metas := reg.List(tags...)
		if len(metas) == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), "no tools")
			return nil
		}

		w := tabwriter.NewWriter(cmd.OutOrStdout(), 2, 4, 2, ' ', 0)
		fmt.Fprintln(w, "NAME\tVERSION\tSAFE\tTAGS\tDESCRIPTION")
		for _, m := range metas {
			fmt.Fprintf(w, "%s\t%s\t%t\t%s\t%s\n",
				m.Name, m.Version, m.Safe, strings.Join(m.Tags, ","), m.Description)
		}
		return w.Flush()
	},
}

func init() {
	toolsCmd.Flags().StringVar(&toolsTag, "tag", "", "only show tools carrying this tag")
}
