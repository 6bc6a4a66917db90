package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/example/adw/internal/wire"
)

var provisionCmd = &cobra.Command{
	Use:   "provision [workflow-id]",
	Short: "Provision the isolated environment for a workflow",
	Long: "Creates the git worktree on the workflow's branch, the output directory,\n" +
		"and the environment file with the reserved port assignments.",
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		result, err := wire.WorktreeService().Provision(cmd.Context(), args[0])
		if err != nil {
			return fmt.Errorf("provision failed: %w", err)
		}

		verb := "Provisioned"
		if result.Reused {
			verb = "Reusing environment for"
		}
		fmt.Printf("✓ %s workflow %s\n", verb, args[0])
		fmt.Printf("  branch:   %s\n", result.BranchName)
		fmt.Printf("  worktree: %s\n", result.WorktreePath)
		fmt.Printf("  output:   %s\n", result.OutputPath)
		fmt.Printf("  ports:    backend=%d frontend=%d websocket=%d\n",
			result.Ports.Backend, result.Ports.Frontend, result.Ports.Websocket)
		return nil
	},
}

// ProvisionCmd returns the provision command.
func ProvisionCmd() *cobra.Command {
	return provisionCmd
}
