package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/example/adw/internal/core/stage"
	"github.com/example/adw/internal/core/workflow"
	"github.com/example/adw/internal/wire"
)

var stageCmd = &cobra.Command{
	Use:   "stage [workflow-id] [stage-name]",
	Short: "Run a single stage of a workflow",
	Long: "Transitions the workflow into the named stage and invokes the agent for it.\n" +
		"Valid stages: " + strings.Join(stage.Strings(stage.CanonicalPath(workflow.ClassFeature)), ", "),
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := wire.Orchestrator().RunStage(cmd.Context(), args[0], args[1]); err != nil {
			return fmt.Errorf("stage %s failed: %w", args[1], err)
		}
		fmt.Printf("✓ Stage %s completed for workflow %s\n", args[1], args[0])
		return nil
	},
}

// StageCmd returns the single-stage command.
func StageCmd() *cobra.Command {
	return stageCmd
}
