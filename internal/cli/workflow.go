// Package cli contains the cobra commands for the adw binary.
package cli

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/example/adw/internal/core/workflow"
	"github.com/example/adw/internal/ports/primary"
	"github.com/example/adw/internal/ports/secondary"
	"github.com/example/adw/internal/wire"
)

var workflowCmd = &cobra.Command{
	Use:   "workflow",
	Short: "Manage AI developer workflows",
	Long:  "Create, inspect, run, and delete workflows tracked by the ADW core",
}

var workflowCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Create a new workflow",
	RunE: func(cmd *cobra.Command, args []string) error {
		class, _ := cmd.Flags().GetString("class")
		issueNumber, _ := cmd.Flags().GetInt("issue")
		title, _ := cmd.Flags().GetString("title")
		modelSet, _ := cmd.Flags().GetString("model-set")
		source, _ := cmd.Flags().GetString("source")
		customID, _ := cmd.Flags().GetString("id")
		stages, _ := cmd.Flags().GetStringSlice("stages")

		rec, err := wire.WorkflowService().Create(cmd.Context(), primary.CreateWorkflowRequest{
			CustomID:        customID,
			IssueNumber:     issueNumber,
			IssueTitle:      title,
			IssueClass:      workflow.IssueClass(class),
			ModelSet:        workflow.ModelSet(modelSet),
			DataSource:      workflow.DataSource(source),
			RequestedStages: stages,
		})
		if err != nil {
			return fmt.Errorf("failed to create workflow: %w", err)
		}

		fmt.Printf("✓ Created workflow %s (%s)\n", rec.ID, rec.IssueClass)
		fmt.Printf("  ports: backend=%d frontend=%d websocket=%d\n", rec.BackendPort, rec.FrontendPort, rec.WebsocketPort)
		if rec.IssueNumber > 0 {
			fmt.Printf("  issue: #%d\n", rec.IssueNumber)
		}
		return nil
	},
}

var workflowListCmd = &cobra.Command{
	Use:   "list",
	Short: "List workflows",
	RunE: func(cmd *cobra.Command, args []string) error {
		view, _ := cmd.Flags().GetString("view")

		q := wire.QueryService()
		var (
			records []*secondary.WorkflowRecord
			err     error
		)
		switch view {
		case "active", "":
			records, err = fetch(q.Active(cmd.Context()))
		case "completed":
			records, err = fetch(q.Completed(cmd.Context()))
		case "stuck":
			records, err = fetch(q.Stuck(cmd.Context()))
		case "recent":
			records, err = fetch(q.Recent(cmd.Context()))
		default:
			return fmt.Errorf("unknown view %q (active|completed|stuck|recent)", view)
		}
		if err != nil {
			return fmt.Errorf("failed to list workflows: %w", err)
		}

		if len(records) == 0 {
			fmt.Println("No workflows found")
			return nil
		}

		fmt.Printf("\n%-10s %-8s %-16s %-12s %s\n", "ID", "ISSUE", "STAGE", "STATUS", "BRANCH")
		fmt.Println(strings.Repeat("─", 72))
		for _, r := range records {
			issue := "-"
			if r.IssueNumber > 0 {
				issue = fmt.Sprintf("#%d", r.IssueNumber)
			}
			stuckMark := ""
			if r.IsStuck {
				stuckMark = color.New(color.FgYellow).Sprint(" [stuck]")
			}
			fmt.Printf("%-10s %-8s %-16s %-12s %s%s\n",
				r.ID, issue, r.CurrentStage, statusColor(r.Status), r.BranchName, stuckMark)
		}
		fmt.Println()
		return nil
	},
}

var workflowShowCmd = &cobra.Command{
	Use:   "show [workflow-id]",
	Short: "Show workflow details",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		asJSON, _ := cmd.Flags().GetBool("json")

		rec, err := wire.WorkflowService().Get(cmd.Context(), args[0])
		if err != nil {
			return fmt.Errorf("failed to get workflow: %w", err)
		}

		if asJSON {
			data, err := json.MarshalIndent(rec, "", "  ")
			if err != nil {
				return err
			}
			fmt.Println(string(data))
			return nil
		}

		fmt.Printf("\nWorkflow: %s\n", rec.ID)
		fmt.Printf("Class:    %s (%s)\n", rec.IssueClass, rec.DataSource)
		fmt.Printf("Stage:    %s\n", rec.CurrentStage)
		fmt.Printf("Status:   %s", statusColor(rec.Status))
		if rec.IsStuck {
			fmt.Print(color.New(color.FgYellow).Sprint(" [stuck]"))
		}
		fmt.Println()
		if rec.IssueNumber > 0 {
			fmt.Printf("Issue:    #%d\n", rec.IssueNumber)
		}
		if rec.BranchName != "" {
			fmt.Printf("Branch:   %s\n", rec.BranchName)
		}
		if rec.WorktreePath != "" {
			fmt.Printf("Worktree: %s\n", rec.WorktreePath)
		}
		fmt.Printf("Ports:    backend=%d frontend=%d websocket=%d\n", rec.BackendPort, rec.FrontendPort, rec.WebsocketPort)
		fmt.Printf("Plan:     %s\n", strings.Join(rec.StagePlan, " → "))
		if len(rec.AllWorkflowsRun) > 0 {
			fmt.Printf("Run:      %s\n", strings.Join(rec.AllWorkflowsRun, ", "))
		}
		fmt.Printf("Created:  %s\n", rec.CreatedAt.Format("2006-01-02 15:04"))
		fmt.Printf("Updated:  %s\n", rec.UpdatedAt.Format("2006-01-02 15:04"))
		if rec.CompletedAt != nil {
			fmt.Printf("Completed: %s\n", rec.CompletedAt.Format("2006-01-02 15:04"))
		}
		fmt.Println()
		return nil
	},
}

var workflowActivityCmd = &cobra.Command{
	Use:   "activity [workflow-id]",
	Short: "Show the workflow's activity ledger",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		entries, err := wire.WorkflowService().Activity(cmd.Context(), args[0])
		if err != nil {
			return fmt.Errorf("failed to get activity: %w", err)
		}
		if len(entries) == 0 {
			fmt.Println("No activity recorded")
			return nil
		}

		for _, e := range entries {
			change := ""
			if e.FieldChanged != "" {
				change = fmt.Sprintf(" %s: %s → %s", e.FieldChanged, e.OldValue, e.NewValue)
			}
			fmt.Printf("%s  %-20s%s\n", e.CreatedAt.Format("2006-01-02 15:04:05"), e.EventType, change)
		}
		return nil
	},
}

var workflowDeleteCmd = &cobra.Command{
	Use:   "delete [workflow-id]",
	Short: "Soft-delete a workflow (hides it from all views, keeps its ledger)",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		reason, _ := cmd.Flags().GetString("reason")
		if err := wire.WorkflowService().SoftDelete(cmd.Context(), args[0], reason); err != nil {
			return fmt.Errorf("failed to delete workflow: %w", err)
		}
		fmt.Printf("✓ Workflow %s deleted (ledger retained)\n", args[0])
		return nil
	},
}

var workflowPurgeCmd = &cobra.Command{
	Use:   "purge [workflow-id]",
	Short: "Hard-delete a workflow and its ledger (maintenance operation)",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		reason, _ := cmd.Flags().GetString("reason")
		if err := wire.WorkflowService().HardDelete(cmd.Context(), args[0], reason); err != nil {
			return fmt.Errorf("failed to purge workflow: %w", err)
		}
		fmt.Printf("✓ Workflow %s purged\n", args[0])
		return nil
	},
}

var workflowRunCmd = &cobra.Command{
	Use:   "run [workflow-id]",
	Short: "Run a workflow through its stage plan",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		result, err := wire.Orchestrator().Run(cmd.Context(), args[0])
		if err != nil {
			if result != nil && result.FailedStage != "" {
				fmt.Printf("✗ Workflow %s failed at stage %s\n", args[0], result.FailedStage)
			}
			return err
		}
		fmt.Printf("✓ Workflow %s completed (%s)\n", args[0], strings.Join(result.StagesRun, ", "))
		return nil
	},
}

var workflowRetryCmd = &cobra.Command{
	Use:   "retry [workflow-id]",
	Short: "Retry an errored workflow from its failed stage",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		result, err := wire.Orchestrator().Retry(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		fmt.Printf("✓ Workflow %s completed after retry (%s)\n", args[0], strings.Join(result.StagesRun, ", "))
		return nil
	},
}

func init() {
	workflowCreateCmd.Flags().String("class", "feature", "Issue class (feature|bug|chore|patch)")
	workflowCreateCmd.Flags().Int("issue", 0, "Claim a specific issue number (0 = next free when --title is set)")
	workflowCreateCmd.Flags().String("title", "", "Issue title (allocates an issue number)")
	workflowCreateCmd.Flags().String("model-set", "base", "Agent model set (base|heavy)")
	workflowCreateCmd.Flags().String("source", "kanban", "Issue provenance (github|kanban)")
	workflowCreateCmd.Flags().String("id", "", "Pin the workflow id (8 hex chars)")
	workflowCreateCmd.Flags().StringSlice("stages", nil, "Reduced stage plan (ordered subset of the canonical path)")

	workflowListCmd.Flags().String("view", "active", "View: active|completed|stuck|recent")
	workflowShowCmd.Flags().Bool("json", false, "Print the raw record as JSON")
	workflowDeleteCmd.Flags().String("reason", "", "Free-form deletion reason")
	workflowPurgeCmd.Flags().String("reason", "", "Free-form deletion reason")

	workflowCmd.AddCommand(workflowCreateCmd)
	workflowCmd.AddCommand(workflowListCmd)
	workflowCmd.AddCommand(workflowShowCmd)
	workflowCmd.AddCommand(workflowActivityCmd)
	workflowCmd.AddCommand(workflowDeleteCmd)
	workflowCmd.AddCommand(workflowPurgeCmd)
	workflowCmd.AddCommand(workflowRunCmd)
	workflowCmd.AddCommand(workflowRetryCmd)
}

// WorkflowCmd returns the workflow command tree.
func WorkflowCmd() *cobra.Command {
	return workflowCmd
}
