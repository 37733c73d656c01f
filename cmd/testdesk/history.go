package main

import (
	"fmt"
	"slices"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/psyhelp/testdesk/internal/journal"
)

var historyFlags struct {
	kind  string
	limit int
}

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show journaled activity",
	Long: `Show submitted attempts and catalog changes recorded by this client.

Events are kept in an embedded NATS JetStream store under <data_dir>/nats.`,
	Args: cobra.NoArgs,
	RunE: runHistory,
}

var journalKinds = []journal.Kind{journal.KindAttempt, journal.KindCreate, journal.KindUpdate, journal.KindDelete}

func init() {
	historyCmd.Flags().StringVarP(&historyFlags.kind, "kind", "k", "", "Only show one kind: attempt, create, update, delete")
	historyCmd.Flags().IntVarP(&historyFlags.limit, "limit", "n", 20, "Show the most recent N events (0 for all)")
}

func runHistory(cmd *cobra.Command, args []string) error {
	kind := journal.Kind(historyFlags.kind)
	if kind != "" && !slices.Contains(journalKinds, kind) {
		return fmt.Errorf("unknown event kind %q", historyFlags.kind)
	}
	if historyFlags.limit < 0 {
		return fmt.Errorf("--limit must not be negative")
	}

	j, err := journal.Open(cmd.Context(), cfg.DataDir)
	if err != nil {
		return err
	}
	defer func() { _ = j.Close() }()

	events, err := j.List(cmd.Context(), journal.ListOptions{Kind: kind, Limit: historyFlags.limit})
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if len(events) == 0 {
		_, _ = fmt.Fprintln(out, "No activity recorded.")
		return nil
	}

	rows := make([][]string, len(events))
	for i, e := range events {
		test := ""
		if e.TestID > 0 {
			test = strconv.Itoa(e.TestID)
		}
		rows[i] = []string{
			e.At.Local().Format(time.DateTime),
			string(e.Kind),
			test,
			e.UserID,
			e.Summary,
		}
	}

	t := styledTable([]string{"Time", "Kind", "Test", "User", "Summary"}, rows, -1, nil)
	_, _ = fmt.Fprintln(out, titleStyle.Render("History"))
	_, _ = fmt.Fprintln(out, t)
	return nil
}
