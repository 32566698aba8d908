package main

import (
	"fmt"
	"io"
	"os"
	"text/tabwriter"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/solar-suitability/internal/ledger"
)

var runsCmd = &cobra.Command{
	Use:   "runs",
	Short: "Inspect preparation run history",
	Long:  "Commands for listing recorded preparation runs and invalidating cached results.",
}

// -- runs list --

var runsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List preparation runs",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		st, err := initLedger(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		limit, _ := cmd.Flags().GetInt("limit")
		runs, err := st.ListRuns(ctx, limit)
		if err != nil {
			return eris.Wrap(err, "runs list")
		}

		if len(runs) == 0 {
			fmt.Fprintln(os.Stderr, "No runs found.")
			return nil
		}

		formatRunsList(cmd.OutOrStdout(), runs)
		return nil
	},
}

// -- runs purge --

var runsPurgeCmd = &cobra.Command{
	Use:   "purge",
	Short: "Delete every recorded run",
	Long:  "Deletes the run history. The next prepare runs regardless of whether its inputs changed.",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		st, err := initLedger(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		n, err := st.Purge(ctx)
		if err != nil {
			return eris.Wrap(err, "runs purge")
		}
		_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Purged %d runs.\n", n)
		return nil
	},
}

func init() {
	runsListCmd.Flags().Int("limit", 50, "max number of runs to display")

	runsCmd.AddCommand(runsListCmd)
	runsCmd.AddCommand(runsPurgeCmd)
	rootCmd.AddCommand(runsCmd)
}

// formatRunsList writes a tabular list of runs to w.
func formatRunsList(out io.Writer, runs []ledger.Run) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "ID\tSTATUS\tFEATURES\tMATCHED\tERROR_KIND\tSTARTED\tDURATION\tOUTPUT")
	_, _ = fmt.Fprintln(w, "--\t------\t--------\t-------\t----------\t-------\t--------\t------")

	for _, r := range runs {
		dur := ""
		if r.FinishedAt != nil {
			dur = r.FinishedAt.Sub(r.StartedAt).Round(time.Millisecond).String()
		}

		_, _ = fmt.Fprintf(w, "%s\t%s\t%d\t%d\t%s\t%s\t%s\t%s\n",
			truncateID(r.ID),
			r.Status,
			r.Features,
			r.Matched,
			r.ErrorKind,
			r.StartedAt.Format("2006-01-02 15:04"),
			dur,
			r.Output,
		)
	}
	_ = w.Flush()
}

// truncateID returns the first 8 characters of a UUID for compact display.
func truncateID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
