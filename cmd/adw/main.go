// adw is the workflow-orchestration CLI for AI developer workflows.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/example/adw/internal/cli"
	"github.com/example/adw/internal/version"
)

var rootCmd = &cobra.Command{
	Use:   "adw",
	Short: "AI developer workflow orchestration",
	Long: "adw tracks AI coding-agent workflows through their stage plans:\n" +
		"isolated git worktrees, deterministic port slots, a durable state\n" +
		"store with an append-only activity ledger, and stuck detection.",
	SilenceUsage: true,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println(version.String())
	},
}

func main() {
	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(cli.InitCmd())
	rootCmd.AddCommand(cli.DoctorCmd())
	rootCmd.AddCommand(cli.StatusCmd())
	rootCmd.AddCommand(cli.WorkflowCmd())
	rootCmd.AddCommand(cli.StageCmd())
	rootCmd.AddCommand(cli.ProvisionCmd())
	rootCmd.AddCommand(cli.TeardownCmd())
	rootCmd.AddCommand(cli.AttachCmd())
	rootCmd.AddCommand(cli.StuckCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
