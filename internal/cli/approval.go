package cli

import (
	"encoding/json"
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/lucasnoah/testfactory/internal/approval"
)

var (
	approvalBy       string
	approvalComments string
	approvalMods     string
)

var approvalCmd = &cobra.Command{
	Use:   "approval",
	Short: "Review pending approval requests",
	Long: `A pipeline run configured with an approval mode pauses after
producing its plan, cases, or results and waits for a decision. These
subcommands are the reviewer side of that handshake: list what is
pending, inspect an item, then approve, reject, or approve-with-
modifications. Each request accepts exactly one decision; late
decisions fail once the waiting run has timed the request out.`,
}

var approvalListCmd = &cobra.Command{
	Use:   "list",
	Short: "List pending approval requests",
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := approval.DefaultStore()
		if err != nil {
			return err
		}
		pending, err := store.Pending()
		if err != nil {
			return err
		}
		if len(pending) == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), "no pending approvals")
			return nil
		}
		w := tabwriter.NewWriter(cmd.OutOrStdout(), 2, 4, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tTYPE\tSUMMARY\tREQUESTED\tEXPIRES")
		for _, a := range pending {
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
				a.ID, a.Type, a.ItemSummary,
				a.RequestedAt.Format("15:04:05"),
				time.Until(a.Deadline()).Round(time.Second))
		}
		return w.Flush()
	},
}

var approvalShowCmd = &cobra.Command{
	Use:   "show <approval-id>",
	Short: "Show one approval request with its item data",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := approval.DefaultStore()
		if err != nil {
			return err
		}
		a, err := store.Get(args[0])
		if err != nil {
			return err
		}
		data, err := json.MarshalIndent(a, "", "  ")
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), string(data))
		return nil
	},
}

var approvalApproveCmd = &cobra.Command{
	Use:   "approve <approval-id>",
	Short: "Approve a pending request",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return resolve(cmd, args[0], approval.StatusApproved, nil)
	},
}

var approvalRejectCmd = &cobra.Command{
	Use:   "reject <approval-id>",
	Short: "Reject a pending request; the waiting run halts",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return resolve(cmd, args[0], approval.StatusRejected, nil)
	},
}

var approvalModifyCmd = &cobra.Command{
	Use:   "modify <approval-id>",
	Short: "Approve a pending request with JSON modifications",
	Long: `Modify resolves the request as MODIFIED. --modifications takes a
JSON object whose top-level keys replace the matching keys of the
item; the waiting run applies the patch and proceeds.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if approvalMods == "" {
			return fmt.Errorf("--modifications is required")
		}
		var mods map[string]any
		if err := json.Unmarshal([]byte(approvalMods), &mods); err != nil {
			return fmt.Errorf("parse --modifications: %w", err)
		}
		return resolve(cmd, args[0], approval.StatusModified, mods)
	},
}

func resolve(cmd *cobra.Command, id string, status approval.Status, mods map[string]any) error {
	store, err := approval.DefaultStore()
	if err != nil {
		return err
	}
	a, err := store.Resolve(id, status, approvalBy, approvalComments, mods)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s %s (%s)\n", a.ID, a.Status, a.ItemSummary)
	return nil
}

func init() {
	approvalCmd.PersistentFlags().StringVar(&approvalBy, "by", "", "reviewer identity recorded on the decision")
	approvalCmd.PersistentFlags().StringVar(&approvalComments, "comments", "", "reviewer comments")
	approvalModifyCmd.Flags().StringVar(&approvalMods, "modifications", "", "JSON object of top-level field replacements")

	approvalCmd.AddCommand(approvalListCmd)
	approvalCmd.AddCommand(approvalShowCmd)
	approvalCmd.AddCommand(approvalApproveCmd)
	approvalCmd.AddCommand(approvalRejectCmd)
	approvalCmd.AddCommand(approvalModifyCmd)
}
