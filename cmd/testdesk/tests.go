package main

import (
	"fmt"
	"image/color"
	"io"
	"sort"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/psyhelp/testdesk/internal/assessment"
	"github.com/psyhelp/testdesk/internal/errors"
	"github.com/psyhelp/testdesk/internal/tui"
	"github.com/psyhelp/testdesk/internal/workflow"
)

var testsCmd = &cobra.Command{
	Use:   "tests",
	Short: "Browse and manage the test catalog",
}

var testsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List tests visible to the current user",
	Args:  cobra.NoArgs,
	RunE:  runTestsList,
}

var testsShowFlags struct {
	width int
	raw   bool
}

var testsShowCmd = &cobra.Command{
	Use:   "show <test-id>",
	Short: "Show a test's description and questions",
	Args:  cobra.ExactArgs(1),
	RunE:  runTestsShow,
}

var testsDeleteCmd = &cobra.Command{
	Use:   "delete <test-id>...",
	Short: "Delete one or more tests",
	Long: `Delete one or more tests. Deletes run concurrently; an id given twice
is only deleted once.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runTestsDelete,
}

func init() {
	testsShowCmd.Flags().IntVarP(&testsShowFlags.width, "width", "w", 80, "Wrap width for rendered markdown")
	testsShowCmd.Flags().BoolVar(&testsShowFlags.raw, "raw", false, "Print markdown without rendering")

	testsCmd.AddCommand(testsListCmd)
	testsCmd.AddCommand(testsShowCmd)
	testsCmd.AddCommand(testsDeleteCmd)
}

func parseTestID(arg string) (int, error) {
	id, err := strconv.Atoi(strings.TrimSpace(arg))
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid test id %q", arg)
	}
	return id, nil
}

func runTestsList(cmd *cobra.Command, args []string) error {
	a, err := newApp(cmd.Context(), appOptions{})
	if err != nil {
		return err
	}
	defer a.Close()

	if err := a.page.Refresh(cmd.Context()); err != nil {
		return fmt.Errorf("%s", errors.UserMessage(err, workflow.MsgListFailed))
	}

	out := cmd.OutOrStdout()
	entries := a.page.List().Entries()
	if len(entries) == 0 {
		_, _ = fmt.Fprintln(out, "No tests found.")
		return nil
	}

	rows := make([][]string, len(entries))
	for i, e := range entries {
		done := ""
		if e.IsCompleted {
			done = "✓"
		}
		rows[i] = []string{
			strconv.Itoa(e.ID),
			e.TestName,
			strconv.Itoa(e.QuestionCount),
			assessment.FormatAuthors(e.AuthorsName),
			done,
		}
	}

	t := styledTable([]string{"ID", "Name", "Questions", "Authors", "Done"}, rows, 4, func(int) color.Color {
		return colorSuccess
	})
	_, _ = fmt.Fprintln(out, titleStyle.Render("Tests"))
	_, _ = fmt.Fprintln(out, t)
	return nil
}

func runTestsShow(cmd *cobra.Command, args []string) error {
	testID, err := parseTestID(args[0])
	if err != nil {
		return err
	}

	a, err := newApp(cmd.Context(), appOptions{})
	if err != nil {
		return err
	}
	defer a.Close()

	ctx := cmd.Context()
	if err := a.page.Refresh(ctx); err != nil {
		return fmt.Errorf("%s", errors.UserMessage(err, workflow.MsgListFailed))
	}
	entry, ok := a.page.List().Get(testID)
	if !ok {
		return fmt.Errorf("test %d: %w", testID, errors.ErrNotFound)
	}

	raw, err := a.client.FetchQuestions(ctx, testID)
	if err != nil {
		return fmt.Errorf("%s", errors.UserMessage(err, workflow.MsgLoadQuestionsFailed))
	}

	md := testMarkdown(entry, assessment.AttemptQuestionsFromRaw(raw))
	out := cmd.OutOrStdout()
	if testsShowFlags.raw {
		_, err := io.WriteString(out, md)
		return err
	}

	rendered, err := tui.RenderMarkdown(md, testsShowFlags.width)
	if err != nil {
		return fmt.Errorf("failed to render test: %w", err)
	}
	_, _ = fmt.Fprintln(out, rendered)
	return nil
}

func testMarkdown(e workflow.TestEntry, questions []assessment.AttemptQuestion) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n\n", e.TestName)
	if authors := assessment.FormatAuthors(e.AuthorsName); authors != "" {
		fmt.Fprintf(&b, "_%s_\n\n", authors)
	}
	if desc := strings.TrimSpace(e.Description); desc != "" {
		b.WriteString(desc)
		b.WriteString("\n\n")
	}

	fmt.Fprintf(&b, "## Questions (%d)\n\n", len(questions))
	for _, q := range questions {
		kind := "one answer"
		if !q.SelectType.IsSingle() {
			kind = "several answers"
		}
		fmt.Fprintf(&b, "%d. **%s** (%s)\n", q.Number, q.Body, kind)
		for _, opt := range q.Options {
			fmt.Fprintf(&b, "   - %s\n", opt)
		}
		b.WriteString("\n")
	}
	return b.String()
}

type deleteOutcome struct {
	id  int
	err error
}

func runTestsDelete(cmd *cobra.Command, args []string) error {
	seen := make(map[int]bool, len(args))
	ids := make([]int, 0, len(args))
	for _, arg := range args {
		id, err := parseTestID(arg)
		if err != nil {
			return err
		}
		if !seen[id] {
			seen[id] = true
			ids = append(ids, id)
		}
	}

	a, err := newApp(cmd.Context(), appOptions{journal: true})
	if err != nil {
		return err
	}
	defer a.Close()

	ctx := cmd.Context()
	sort.Ints(ids)
	errcs := make([]chan error, len(ids))
	for i, id := range ids {
		errcs[i] = make(chan error, 1)
		errors.SafeGo(func() error { return a.page.DeleteTest(ctx, id) }, errcs[i])
	}

	outcomes := make([]deleteOutcome, len(ids))
	for i, id := range ids {
		outcomes[i] = deleteOutcome{id: id, err: <-errcs[i]}
	}

	var failed errors.MultiError
	rows := make([][]string, len(outcomes))
	for i, o := range outcomes {
		if o.err == nil {
			rows[i] = []string{strconv.Itoa(o.id), "deleted"}
			continue
		}
		msg := errors.UserMessage(o.err, workflow.MsgDeleteFailed)
		rows[i] = []string{strconv.Itoa(o.id), msg}
		failed.Append(fmt.Errorf("test %d: %s", o.id, msg))
	}

	t := styledTable([]string{"ID", "Result"}, rows, 1, func(row int) color.Color {
		if outcomes[row].err == nil {
			return colorSuccess
		}
		return colorError
	})
	_, _ = fmt.Fprintln(cmd.OutOrStdout(), t)
	return failed.ErrorOrNil()
}
