package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/psyhelp/testdesk/internal/config"
)

var initFlags struct {
	project bool
	force   bool
}

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Create testdesk configuration file",
	Long: `Create a testdesk configuration file from the current settings.

By default, creates a global config at ~/.config/testdesk/testdesk.yml.
Use --project to create a project-local config in the current directory.
Values given with --server and --user are written to the file.`,
	Args: cobra.NoArgs,
	RunE: runInit,
}

func init() {
	initCmd.Flags().BoolVarP(&initFlags.project, "project", "p", false, "Create config in current directory instead of global location")
	initCmd.Flags().BoolVarP(&initFlags.force, "force", "f", false, "Overwrite existing config file")
}

func runInit(cmd *cobra.Command, args []string) error {
	targetPath := config.GlobalPath()
	write := config.WriteGlobal
	if initFlags.project {
		targetPath = config.ProjectPath()
		write = config.WriteProject
	}

	if !initFlags.force && fileExists(targetPath) {
		return fmt.Errorf("config file already exists at %s\n\nUse --force to overwrite", targetPath)
	}

	if err := write(cfg); err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	_, _ = fmt.Fprintf(out, "Config written to: %s\n", targetPath)
	if cfg.UserID == "" {
		_, _ = fmt.Fprintln(out, warningStyle.Render("user_id is empty; set it before taking tests."))
	}
	_, _ = fmt.Fprintln(out, "Run 'testdesk doctor' to check the setup.")
	return nil
}
