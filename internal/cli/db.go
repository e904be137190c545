package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/lucasnoah/testfactory/internal/db"
)

var dbCmd = &cobra.Command{
	Use:   "db",
	Short: "Manage the event log database",
}

var dbMigrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create or upgrade the event log schema",
	RunE: func(cmd *cobra.Command, args []string) error {
		d, err := openEventDB()
		if err != nil {
			return err
		}
		defer d.Close()
		if err := d.Migrate(); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), "event log schema is up to date")
		return nil
	},
}

var dbResetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Drop and recreate the event log (destroys all event history)",
	RunE: func(cmd *cobra.Command, args []string) error {
		d, err := openEventDB()
		if err != nil {
			return err
		}
		defer d.Close()
		if err := d.Reset(); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), "event log reset")
		return nil
	},
}

func openEventDB() (*db.DB, error) {
	path, err := db.DefaultDBPath()
	if err != nil {
		return nil, err
	}
	return db.Open(path)
}

func init() {
	dbCmd.AddCommand(dbMigrateCmd)
	dbCmd.AddCommand(dbResetCmd)
}
