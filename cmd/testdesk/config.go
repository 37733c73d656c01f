package main

import (
	"fmt"
	"image/color"
	"os"
	"path/filepath"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/psyhelp/testdesk/internal/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Display current configuration",
	Long: `Display the current resolved configuration showing values from all sources.

Configuration precedence (highest to lowest):
  1. Command line flags (--server, --user, --log-level)
  2. Environment variables (TESTDESK_*, also read from ./.env)
  3. Project config (./testdesk.yml)
  4. Global config (~/.config/testdesk/testdesk.yml)
  5. Defaults`,
	Args: cobra.NoArgs,
	RunE: runConfig,
}

// configValues returns key/value rows in config.Keys order.
func configValues(c *config.Config) [][]string {
	values := map[string]string{
		"server_url":   c.ServerURL,
		"user_id":      c.UserID,
		"http_timeout": strconv.Itoa(c.HTTPTimeout),
		"rate_limit":   strconv.Itoa(c.RateLimit),
		"data_dir":     c.DataDir,
		"journal":      strconv.FormatBool(c.Journal),
		"log_level":    c.LogLevel,
		"log_file":     c.LogFile,
		"metrics_addr": c.MetricsAddr,
		"editor":       c.Editor,
	}
	rows := make([][]string, 0, len(config.Keys))
	for _, key := range config.Keys {
		rows = append(rows, []string{key, values[key]})
	}
	return rows
}

func runConfig(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()

	globalPath := config.GlobalPath()
	projectPath := config.ProjectPath()
	absProjectPath, err := filepath.Abs(projectPath)
	if err != nil {
		absProjectPath = projectPath
	}

	globalExists := fileExists(globalPath)
	projectExists := fileExists(projectPath)

	_, _ = fmt.Fprintln(out, titleStyle.Render("Configuration"))
	_, _ = fmt.Fprintln(out, styledTable([]string{"Key", "Value"}, configValues(cfg), -1, nil))
	_, _ = fmt.Fprintln(out)

	fileRows := [][]string{}
	if globalExists {
		fileRows = append(fileRows, []string{"Global", globalPath, "✓"})
	} else {
		fileRows = append(fileRows, []string{"Global", globalPath, "not found"})
	}
	if projectExists {
		fileRows = append(fileRows, []string{"Project", absProjectPath, "✓"})
	} else {
		fileRows = append(fileRows, []string{"Project", absProjectPath, "not found"})
	}

	filesTable := styledTable([]string{"Type", "Path", "Status"}, fileRows, 2, func(row int) color.Color {
		if fileRows[row][2] == "✓" {
			return colorSuccess
		}
		return colorWarning
	})
	_, _ = fmt.Fprintln(out, titleStyle.Render("Config Files"))
	_, _ = fmt.Fprintln(out, filesTable)

	var envRows [][]string
	for _, key := range config.Keys {
		name := config.EnvName(key)
		if val := os.Getenv(name); val != "" {
			envRows = append(envRows, []string{name, val})
		}
	}
	if len(envRows) > 0 {
		_, _ = fmt.Fprintln(out)
		_, _ = fmt.Fprintln(out, titleStyle.Render("Environment Overrides"))
		_, _ = fmt.Fprintln(out, styledTable([]string{"Variable", "Value"}, envRows, -1, nil))
	}

	if !globalExists && !projectExists {
		_, _ = fmt.Fprintln(out)
		_, _ = fmt.Fprintln(out, warningStyle.Render("No config files found. Run 'testdesk init' to create one."))
	}
	return nil
}
