package main

import (
	"fmt"
	"io"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/sells-group/solar-suitability/internal/config"
	"github.com/sells-group/solar-suitability/internal/pipeline"
)

var prepareCmd = &cobra.Command{
	Use:   "prepare",
	Short: "Build the suitability shapefile from the boundary layer and workbook",
	Long: `Loads the district boundary shapefile and the assessment workbook, builds one
master record per district, merges the records onto every boundary feature and
writes the result as a shapefile set with a per-category report.

Runs are recorded in the ledger. When the inputs and settings are unchanged since the
last successful run and its output still exists, the run is skipped. Use --force to
run anyway.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		applyPrepareFlags(cmd.Flags(), cfg)
		force, _ := cmd.Flags().GetBool("force")

		var runs pipeline.Ledger
		if cfg.Ledger.Enabled {
			st, err := initLedger(ctx)
			if err != nil {
				return err
			}
			defer st.Close() //nolint:errcheck
			runs = st
		}

		out := cmd.OutOrStdout()
		res, err := pipeline.New(cfg, runs).Run(ctx, pipeline.Options{Force: force, Report: out})
		if err != nil {
			return err
		}
		printPrepareResult(out, cfg.Output.Path, res)
		return nil
	},
}

func init() {
	prepareCmd.Flags().String("boundary", "", "boundary shapefile (overrides input.boundary)")
	prepareCmd.Flags().String("workbook", "", "assessment workbook (overrides input.workbook)")
	prepareCmd.Flags().String("output", "", "output shapefile (overrides output.path)")
	prepareCmd.Flags().String("report-xlsx", "", "also write the category report to this xlsx file")
	prepareCmd.Flags().Bool("force", false, "run even when the inputs are unchanged since the last successful run")
	rootCmd.AddCommand(prepareCmd)
}

// applyPrepareFlags copies explicitly set path flags over the loaded config.
func applyPrepareFlags(flags *pflag.FlagSet, c *config.Config) {
	set := func(name string, dst *string) {
		if flags.Changed(name) {
			*dst, _ = flags.GetString(name)
		}
	}
	set("boundary", &c.Input.Boundary)
	set("workbook", &c.Input.Workbook)
	set("output", &c.Output.Path)
	set("report-xlsx", &c.Output.ReportXLSX)
}

func printPrepareResult(w io.Writer, path string, res *pipeline.Result) {
	if res.Skipped {
		_, _ = fmt.Fprintf(w, "Inputs unchanged since run %s; %s is up to date (use --force to rebuild).\n", truncateID(res.RunID), path)
		return
	}
	_, _ = fmt.Fprintf(w, "\nWrote %d features (%d matched) to %s\n", res.Features, res.Matched, path)
	if res.Coverage != nil {
		_, _ = fmt.Fprintf(w, "Warning: %s\n", res.Coverage.Error())
	}
}
