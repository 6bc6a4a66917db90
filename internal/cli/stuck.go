package cli

import (
	"fmt"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/example/adw/internal/ports/primary"
	"github.com/example/adw/internal/wire"
)

var stuckCmd = &cobra.Command{
	Use:   "stuck",
	Short: "Inspect and sweep stuck workflows",
}

var stuckListCmd = &cobra.Command{
	Use:   "list",
	Short: "List workflows currently flagged as stuck",
	RunE: func(cmd *cobra.Command, args []string) error {
		records, err := wire.QueryService().Stuck(cmd.Context())
		if err != nil {
			return fmt.Errorf("failed to list stuck workflows: %w", err)
		}
		if len(records) == 0 {
			fmt.Println("No stuck workflows")
			return nil
		}
		for _, r := range records {
			idle := time.Since(r.UpdatedAt).Round(time.Minute)
			fmt.Printf("%s  %-16s idle %s  %s\n",
				color.New(color.FgYellow).Sprint(r.ID), r.CurrentStage, idle, r.BranchName)
		}
		return nil
	},
}

var stuckSweepCmd = &cobra.Command{
	Use:   "sweep",
	Short: "Run one staleness sweep over in-progress workflows",
	RunE: func(cmd *cobra.Command, args []string) error {
		watch, _ := cmd.Flags().GetBool("watch")

		detector := wire.StuckDetector()
		if watch {
			fmt.Println("Watching for stuck workflows (ctrl-c to stop)")
			return detector.Run(cmd.Context())
		}

		result, err := detector.Sweep(cmd.Context())
		if err != nil {
			return fmt.Errorf("sweep failed: %w", err)
		}
		fmt.Println(sweepSummary(result))
		return nil
	},
}

func sweepSummary(r *primary.SweepResult) string {
	return fmt.Sprintf("Swept %d workflows: %d flagged, %d resolved",
		r.Scanned, len(r.Flagged), len(r.Resolved))
}

func init() {
	stuckSweepCmd.Flags().Bool("watch", false, "Keep sweeping on the configured interval")
	stuckCmd.AddCommand(stuckListCmd)
	stuckCmd.AddCommand(stuckSweepCmd)
}

// StuckCmd returns the stuck command tree.
func StuckCmd() *cobra.Command {
	return stuckCmd
}
