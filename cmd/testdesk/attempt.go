package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/psyhelp/testdesk/internal/errors"
	"github.com/psyhelp/testdesk/internal/tui"
	"github.com/psyhelp/testdesk/internal/workflow"
)

var attemptCmd = &cobra.Command{
	Use:   "attempt <test-id>",
	Short: "Take a test in the terminal",
	Long: `Open a test and answer its questions in a full-screen view.

Keys: up/down move between options, left/right move between questions,
space toggles an option, enter submits, esc closes without submitting.`,
	Args: cobra.ExactArgs(1),
	RunE: runAttempt,
}

func runAttempt(cmd *cobra.Command, args []string) error {
	testID, err := parseTestID(args[0])
	if err != nil {
		return err
	}

	a, err := newApp(cmd.Context(), appOptions{journal: true})
	if err != nil {
		return err
	}
	defer a.Close()

	// the catalog row is marked completed after a submit
	if err := a.page.Refresh(cmd.Context()); err != nil {
		return fmt.Errorf("%s", errors.UserMessage(err, workflow.MsgListFailed))
	}

	result, err := tui.RunAttempt(cmd.Context(), a.page, testID)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	switch {
	case result.Submitted:
		_, _ = fmt.Fprintln(out, titleStyle.Render(fmt.Sprintf("Attempt for test %d submitted.", testID)))
	default:
		_, _ = fmt.Fprintln(out, "Attempt closed without submitting.")
	}
	return nil
}
