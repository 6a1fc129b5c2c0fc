package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/dshills/goax/pkg/dataset"
	axerrors "github.com/dshills/goax/pkg/errors"
)

// NewDatasetCommand creates the dataset command group
func NewDatasetCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "dataset",
		Short: "Inspect and verify training datasets",
		Long: `Inspect and verify JSON lines training datasets. The dataset path defaults
to collector.output from the configuration.`,
	}

	cmd.AddCommand(newDatasetVerifyCommand())
	cmd.AddCommand(newDatasetStatsCommand())
	cmd.AddCommand(newDatasetQueryCommand())

	return cmd
}

func datasetPath(args []string) string {
	if len(args) > 0 {
		return args[0]
	}
	return current.cfg.Collector.Output
}

func newDatasetVerifyCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "verify [file]",
		Short: "Check every sample against the schema and its own screen state",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			report, err := dataset.Verify(datasetPath(args))
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if GlobalConfig.JSON {
				if err := printJSON(out, report); err != nil {
					return err
				}
			} else {
				for _, p := range report.Problems {
					fmt.Fprintf(out, "%s %s\n", paint(colorRed, fmt.Sprintf("line %d:", p.Line)), strings.Join(p.Errors, "; "))
				}
				if report.OK() {
					fmt.Fprintf(out, "%s %s: %d samples valid\n", paint(colorGreen, "✓"), report.Path, report.Valid)
				}
			}

			if !report.OK() {
				return axerrors.New(axerrors.Invalid, "verify", "%d of %d lines failed verification",
					len(report.Problems), report.Lines)
			}
			return nil
		},
	}
}

func newDatasetStatsCommand() *cobra.Command {
	var top int

	cmd := &cobra.Command{
		Use:   "stats [file]",
		Short: "Summarize a dataset by role, application and action",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := datasetPath(args)
			st, err := dataset.ComputeStats(path)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if GlobalConfig.JSON {
				return printJSON(out, st)
			}

			fmt.Fprintf(out, "%s\n", paint(colorBold, path))
			fmt.Fprintf(out, "Samples:          %d\n", st.Samples)
			if st.Invalid > 0 {
				fmt.Fprintf(out, "Invalid lines:    %s\n", paint(colorRed, fmt.Sprint(st.Invalid)))
			}
			if st.Samples > 0 {
				fmt.Fprintf(out, "Mean elements:    %.1f\n", float64(st.Elements)/float64(st.Samples))
				fmt.Fprintf(out, "Mean command len: %.1f\n", st.MeanCommand)
			}
			printCountsTop(out, "By role", st.ByRole, top)
			printCountsTop(out, "By application", st.ByApp, top)
			printCountsTop(out, "By action", st.ByAction, top)
			return nil
		},
	}

	cmd.Flags().IntVar(&top, "top", 10, "Show at most this many entries per breakdown")

	return cmd
}

func newDatasetQueryCommand() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "query <path-expr> [file]",
		Short: "Extract a field from every sample",
		Long: `Evaluate a JSONPath ($.command) or gjson path (screen_state.focused_app)
against every sample and print one result per matching line.

Examples:
  ax dataset query $.command
  ax dataset query 'screen_state.elements.#' data.jsonl --limit 5`,
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			matches, err := dataset.Query(datasetPath(args[1:]), args[0], limit)
			if err != nil {
				return axerrors.Wrap(axerrors.Invalid, "query", err)
			}

			out := cmd.OutOrStdout()
			if GlobalConfig.JSON {
				return printJSON(out, matches)
			}
			for _, m := range matches {
				fmt.Fprintf(out, "%s %v\n", paint(colorGray, fmt.Sprintf("%5d", m.Line)), m.Value)
			}
			return nil
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 0, "Stop after this many matches (0 for all)")

	return cmd
}

func printCounts(w io.Writer, title string, counts map[string]int) {
	printCountsTop(w, title, counts, 0)
}

// printCountsTop prints a breakdown by descending count. top <= 0 prints all.
func printCountsTop(w io.Writer, title string, counts map[string]int, top int) {
	if len(counts) == 0 {
		return
	}
	sorted := dataset.Sorted(counts)
	fmt.Fprintf(w, "\n%s\n", paint(colorCyan, title))
	for i, c := range sorted {
		if top > 0 && i == top {
			fmt.Fprintf(w, "  %s\n", paint(colorGray, fmt.Sprintf("... %d more", len(sorted)-top)))
			break
		}
		fmt.Fprintf(w, "  %-20s %d\n", truncateString(c.Name, 20), c.Count)
	}
}
