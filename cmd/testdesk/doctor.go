package main

import (
	"context"
	"fmt"
	"image/color"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/psyhelp/testdesk/internal/config"
	"github.com/psyhelp/testdesk/internal/errors"
)

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Check configuration and environment",
	Long: `Check that testdesk can do its job.

This command verifies that:
- a config file exists and a user id is set
- the test service is reachable
- the data directory is writable
- an editor is available for drafts`,
	Args: cobra.NoArgs,
	RunE: runDoctor,
}

type checkResult struct {
	name    string
	status  string
	details string
}

func checkConfig() checkResult {
	if !config.Exists() {
		return checkResult{"config", "WARN", "No config file. Run 'testdesk init'"}
	}
	if cfg.UserID == "" {
		return checkResult{"config", "WARN", "user_id is empty; attempts cannot be submitted"}
	}
	return checkResult{"config", "OK", "user " + cfg.UserID}
}

func checkServer(ctx context.Context, a *app) checkResult {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	tests, err := a.client.ListTests(ctx, cfg.UserID)
	if err != nil {
		return checkResult{"server", "FAIL", fmt.Sprintf("%s: %s", a.client.BaseURL(), errors.UserMessage(err, "unreachable"))}
	}
	return checkResult{"server", "OK", fmt.Sprintf("%s (%d tests)", a.client.BaseURL(), len(tests))}
}

func checkDataDir() checkResult {
	if err := os.MkdirAll(cfg.DataDir, 0755); err != nil {
		return checkResult{"data_dir", "FAIL", err.Error()}
	}
	f, err := os.CreateTemp(cfg.DataDir, ".doctor-*")
	if err != nil {
		return checkResult{"data_dir", "FAIL", fmt.Sprintf("%s is not writable", cfg.DataDir)}
	}
	name := f.Name()
	_ = f.Close()
	_ = os.Remove(name)
	return checkResult{"data_dir", "OK", cfg.DataDir}
}

func checkEditor() checkResult {
	name := os.Getenv("EDITOR")
	if name == "" {
		name = "nano"
	}
	bin := strings.Fields(name)[0]
	if _, err := exec.LookPath(bin); err != nil {
		return checkResult{"editor", "WARN", fmt.Sprintf("%s not found in PATH; --edit will not work", bin)}
	}
	return checkResult{"editor", "OK", name}
}

func runDoctor(cmd *cobra.Command, args []string) error {
	a, err := newApp(cmd.Context(), appOptions{})
	if err != nil {
		return err
	}
	defer a.Close()

	results := []checkResult{
		checkConfig(),
		checkServer(cmd.Context(), a),
		checkDataDir(),
		checkEditor(),
	}

	allOk := true
	rows := make([][]string, len(results))
	for i, r := range results {
		var icon string
		switch r.status {
		case "OK":
			icon = "✓"
		case "FAIL":
			icon = "⊗"
			allOk = false
		case "WARN":
			icon = "⊘"
		}
		rows[i] = []string{r.name, icon, r.details}
	}

	t := styledTable([]string{"Check", "Status", "Details"}, rows, 1, func(row int) color.Color {
		switch results[row].status {
		case "OK":
			return colorSuccess
		case "FAIL":
			return colorError
		default:
			return colorWarning
		}
	})

	out := cmd.OutOrStdout()
	_, _ = fmt.Fprintln(out, t)
	_, _ = fmt.Fprintln(out)

	if allOk {
		_, _ = fmt.Fprintln(out, successStyle.Render("✓ All checks passed!"))
		return nil
	}
	_, _ = fmt.Fprintln(out, errorStyle.Render("⊗ Some checks failed."))
	return fmt.Errorf("doctor check failed")
}
