package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/example/adw/internal/ports/primary"
	"github.com/example/adw/internal/wire"
)

var teardownCmd = &cobra.Command{
	Use:   "teardown [workflow-id]",
	Short: "Remove a workflow's worktree and output directory",
	Long: "Tears down the environment provisioned for a workflow. Works even after\n" +
		"the workflow row has been deleted, since paths derive from the id alone.",
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		keepWorktree, _ := cmd.Flags().GetBool("keep-worktree")
		keepOutput, _ := cmd.Flags().GetBool("keep-output")
		reason, _ := cmd.Flags().GetString("reason")

		rec, err := wire.WorktreeService().Teardown(cmd.Context(), args[0], primary.TeardownOptions{
			RemoveWorktree:  !keepWorktree,
			RemoveOutputDir: !keepOutput,
			Reason:          reason,
		})
		if err != nil {
			return fmt.Errorf("teardown failed: %w", err)
		}

		fmt.Printf("✓ Teardown of %s\n", args[0])
		fmt.Printf("  worktree: %s\n", rec.WorktreeOutcome)
		fmt.Printf("  output:   %s\n", rec.OutputOutcome)
		return nil
	},
}

func init() {
	teardownCmd.Flags().Bool("keep-worktree", false, "Leave the git worktree in place")
	teardownCmd.Flags().Bool("keep-output", false, "Leave the output directory in place")
	teardownCmd.Flags().String("reason", "", "Free-form teardown reason for the audit record")
}

// TeardownCmd returns the teardown command.
func TeardownCmd() *cobra.Command {
	return teardownCmd
}
