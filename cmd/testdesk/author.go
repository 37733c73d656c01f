package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/psyhelp/testdesk/internal/draftfile"
	"github.com/psyhelp/testdesk/internal/errors"
	"github.com/psyhelp/testdesk/internal/logger"
	"github.com/psyhelp/testdesk/internal/workflow"
)

var authorCmd = &cobra.Command{
	Use:   "author",
	Short: "Create and edit tests from YAML drafts",
	Long: `Create and edit tests from YAML drafts.

A draft looks like:

  test_name: Шкала тревоги
  description: Краткое описание
  authors: Бек А., Иванов И.
  questions:
    - id: 1
      body: Как вы спите?
      select_type: one
      options:
        - Хорошо
        - id: 2
          body: Плохо

Options are plain strings or mappings with an id. Blank options are
dropped on save and new options are numbered after the existing ones.`,
}

var authorAddFlags struct {
	file string
	edit bool
}

var authorAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Create a test from a draft file",
	Args:  cobra.NoArgs,
	RunE:  runAuthorAdd,
}

var authorEditFlags struct {
	file    string
	edit    bool
	reload  bool
	dryRun  bool
	noColor bool
}

var authorEditCmd = &cobra.Command{
	Use:   "edit <test-id>",
	Short: "Edit an existing test",
	Long: `Load a test into a draft file, optionally open it in $EDITOR, show the
difference against the server copy and save it.

The draft file is kept between runs so an interrupted edit can be resumed;
use --reload to start over from the server copy.`,
	Args: cobra.ExactArgs(1),
	RunE: runAuthorEdit,
}

var authorTemplateFlags struct {
	file  string
	force bool
}

var authorTemplateCmd = &cobra.Command{
	Use:   "template",
	Short: "Print or write a starter draft",
	Args:  cobra.NoArgs,
	RunE:  runAuthorTemplate,
}

func init() {
	authorAddCmd.Flags().StringVarP(&authorAddFlags.file, "file", "f", "", "Draft file (default <data_dir>/drafts/new-test.yml with --edit)")
	authorAddCmd.Flags().BoolVarP(&authorAddFlags.edit, "edit", "e", false, "Open the draft in $EDITOR before saving")

	authorEditCmd.Flags().StringVarP(&authorEditFlags.file, "file", "f", "", "Draft file (default <data_dir>/drafts/test-<id>.yml)")
	authorEditCmd.Flags().BoolVarP(&authorEditFlags.edit, "edit", "e", false, "Open the draft in $EDITOR before saving")
	authorEditCmd.Flags().BoolVar(&authorEditFlags.reload, "reload", false, "Overwrite the draft file with the server copy")
	authorEditCmd.Flags().BoolVar(&authorEditFlags.dryRun, "dry-run", false, "Show the diff without saving")
	authorEditCmd.Flags().BoolVar(&authorEditFlags.noColor, "no-color", false, "Disable diff highlighting")

	authorTemplateCmd.Flags().StringVarP(&authorTemplateFlags.file, "file", "f", "", "Write the template to a file instead of stdout")
	authorTemplateCmd.Flags().BoolVar(&authorTemplateFlags.force, "force", false, "Overwrite an existing file")

	authorCmd.AddCommand(authorAddCmd)
	authorCmd.AddCommand(authorEditCmd)
	authorCmd.AddCommand(authorTemplateCmd)
}

func runAuthorAdd(cmd *cobra.Command, args []string) error {
	path := authorAddFlags.file
	if path == "" {
		if !authorAddFlags.edit {
			return fmt.Errorf("--file is required unless --edit is set")
		}
		path = filepath.Join(draftDir(), "new-test.yml")
	}

	if authorAddFlags.edit {
		if !fileExists(path) {
			if err := draftfile.Write(path, draftfile.Template()); err != nil {
				return err
			}
		}
		if err := draftfile.Edit(path); err != nil {
			return err
		}
	}

	draft, err := draftfile.Read(path)
	if err != nil {
		return err
	}

	a, err := newApp(cmd.Context(), appOptions{journal: true})
	if err != nil {
		return err
	}
	defer a.Close()

	add := a.page.Add
	if err := add.OpenAdd(); err != nil {
		return err
	}
	defer add.Close()

	if err := add.LoadDraft(draft.Draft()); err != nil {
		return err
	}
	if err := add.Save(cmd.Context()); err != nil {
		return fmt.Errorf("%s", errors.UserMessage(err, workflow.MsgCreateFailed))
	}

	_, _ = fmt.Fprintln(cmd.OutOrStdout(), titleStyle.Render(fmt.Sprintf("Created test %q", draft.TestName)))
	return nil
}

func runAuthorEdit(cmd *cobra.Command, args []string) error {
	testID, err := parseTestID(args[0])
	if err != nil {
		return err
	}

	path := authorEditFlags.file
	if path == "" {
		path = filepath.Join(draftDir(), fmt.Sprintf("test-%d.yml", testID))
	}

	a, err := newApp(cmd.Context(), appOptions{journal: !authorEditFlags.dryRun})
	if err != nil {
		return err
	}
	defer a.Close()

	ctx := cmd.Context()
	if err := a.page.Refresh(ctx); err != nil {
		// the list only feeds the edited row's reconcile
		logger.Warn("Continuing without test list: %v", err)
	}

	edit := a.page.Edit
	if err := edit.OpenEdit(ctx, testID); err != nil {
		return fmt.Errorf("%s", errors.UserMessage(err, workflow.MsgLoadTestFailed))
	}
	defer edit.Close()

	server := draftfile.FromDraft(edit.Snapshot().Draft)
	if authorEditFlags.reload || !fileExists(path) {
		if err := draftfile.Write(path, server); err != nil {
			return err
		}
	}
	if authorEditFlags.edit {
		if err := draftfile.Edit(path); err != nil {
			return err
		}
	}

	local, err := draftfile.Read(path)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	diff, err := draftfile.Diff(server, local)
	if err != nil {
		return err
	}
	if diff == "" {
		_, _ = fmt.Fprintln(out, "No changes.")
		return nil
	}

	color := !authorEditFlags.noColor && os.Getenv("NO_COLOR") == ""
	if err := draftfile.Highlight(out, diff, color); err != nil {
		return fmt.Errorf("failed to print diff: %w", err)
	}
	if authorEditFlags.dryRun {
		return nil
	}

	if err := edit.LoadDraft(local.Draft()); err != nil {
		return err
	}
	if err := edit.Save(ctx); err != nil {
		return fmt.Errorf("%s", errors.UserMessage(err, workflow.MsgUpdateFailed))
	}

	_, _ = fmt.Fprintln(out, titleStyle.Render(fmt.Sprintf("Saved test %d", testID)))
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove draft: %w", err)
	}
	return nil
}

func runAuthorTemplate(cmd *cobra.Command, args []string) error {
	tmpl := draftfile.Template()
	if authorTemplateFlags.file == "" {
		data, err := draftfile.Encode(tmpl)
		if err != nil {
			return err
		}
		_, err = cmd.OutOrStdout().Write(data)
		return err
	}

	if !authorTemplateFlags.force && fileExists(authorTemplateFlags.file) {
		return fmt.Errorf("draft already exists at %s\n\nUse --force to overwrite", authorTemplateFlags.file)
	}
	if err := draftfile.Write(authorTemplateFlags.file, tmpl); err != nil {
		return err
	}
	_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Template written to: %s\n", authorTemplateFlags.file)
	return nil
}
