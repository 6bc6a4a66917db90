package cli

import (
	"database/sql"
	"fmt"
	"os"
	"os/exec"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/example/adw/internal/adapters/filesystem"
	"github.com/example/adw/internal/config"
	"github.com/example/adw/internal/db"
)

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Check the ADW environment",
	Long:  "Verifies git, tmux, the agent command, the config file, and the database",
	RunE: func(cmd *cobra.Command, args []string) error {
		ok := color.New(color.FgGreen).Sprint("ok")
		warn := color.New(color.FgYellow).Sprint("warn")
		fail := color.New(color.FgRed).Sprint("fail")
		failures := 0

		check := func(name string, err error, fatal bool) {
			switch {
			case err == nil:
				fmt.Printf("  [%s]   %s\n", ok, name)
			case fatal:
				failures++
				fmt.Printf("  [%s] %s: %v\n", fail, name, err)
			default:
				fmt.Printf("  [%s] %s: %v\n", warn, name, err)
			}
		}

		fmt.Println("ADW environment:")

		_, gitErr := exec.LookPath("git")
		check("git in PATH", gitErr, true)

		_, tmuxErr := exec.LookPath("tmux")
		check("tmux in PATH (needed for attach)", tmuxErr, false)

		cwd, _ := os.Getwd()
		cfg, cfgErr := config.Load(cwd)
		check("config file "+config.Path(cwd), cfgErr, false)
		if cfgErr != nil {
			cfg = config.Default()
		}

		_, agentErr := exec.LookPath(cfg.AgentCommand)
		check("agent command "+cfg.AgentCommand, agentErr, false)

		dbPath := cfg.DatabasePath
		var dbErr error
		if dbPath == "" {
			dbPath, dbErr = db.DefaultPath()
		}
		if dbErr == nil {
			var conn *sql.DB
			conn, dbErr = db.Open(dbPath)
			if dbErr == nil {
				conn.Close()
			}
		}
		check("database "+dbPath, dbErr, true)

		workspace, wsErr := filesystem.NewWorkspaceAdapter(cfg.RepoPath, cfg.WorktreesRoot, cfg.OutputRoot)
		if wsErr == nil {
			_, rootErr := os.Stat(workspace.OutputRoot())
			check("output root "+workspace.OutputRoot(), rootErr, false)
		}

		if failures > 0 {
			return fmt.Errorf("%d check(s) failed", failures)
		}
		fmt.Println("All required checks passed")
		return nil
	},
}

// DoctorCmd returns the doctor command.
func DoctorCmd() *cobra.Command {
	return doctorCmd
}
