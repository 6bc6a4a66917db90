package cli

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/example/adw/internal/wire"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Summarize board activity",
	RunE: func(cmd *cobra.Command, args []string) error {
		q := wire.QueryService()

		active, err := q.Active(cmd.Context())
		if err != nil {
			return fmt.Errorf("failed to query active workflows: %w", err)
		}
		stuck, err := q.Stuck(cmd.Context())
		if err != nil {
			return fmt.Errorf("failed to query stuck workflows: %w", err)
		}
		recent, err := q.Recent(cmd.Context())
		if err != nil {
			return fmt.Errorf("failed to query recent workflows: %w", err)
		}

		byStage := map[string]int{}
		for _, r := range active {
			byStage[r.CurrentStage]++
		}

		fmt.Printf("\nActive: %d   Stuck: %s   Touched last 24h: %d\n\n",
			len(active), stuckCount(len(stuck)), len(recent))
		for stage, n := range byStage {
			fmt.Printf("  %-16s %d\n", stage, n)
		}
		fmt.Println()
		return nil
	},
}

func stuckCount(n int) string {
	if n == 0 {
		return "0"
	}
	return color.New(color.FgYellow).Sprintf("%d", n)
}

// StatusCmd returns the status command.
func StatusCmd() *cobra.Command {
	return statusCmd
}
