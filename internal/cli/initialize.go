package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/example/adw/internal/config"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize ADW in the current repository",
	Long:  "Writes .adw/config.json with defaults derived from the working directory",
	RunE: func(cmd *cobra.Command, args []string) error {
		cwd, err := os.Getwd()
		if err != nil {
			return err
		}

		if _, err := os.Stat(config.Path(cwd)); err == nil {
			return fmt.Errorf("already initialized: %s exists", config.Path(cwd))
		}

		cfg := config.Default()
		cfg.RepoPath = cwd
		if err := config.Save(cwd, cfg); err != nil {
			return fmt.Errorf("failed to write config: %w", err)
		}

		fmt.Printf("✓ Initialized ADW in %s\n", cwd)
		fmt.Printf("  config: %s\n", config.Path(cwd))
		fmt.Println("  edit agent_command and the root paths there to customize")
		return nil
	},
}

// InitCmd returns the init command.
func InitCmd() *cobra.Command {
	return initCmd
}
