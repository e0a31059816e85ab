package main

import (
	"fmt"
	"io"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/sells-group/adpulse/internal/loader"
	"github.com/sells-group/adpulse/internal/model"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Check the configured CSV sources without serving",
	Long:  "Parses every configured source file and prints a per-source quality report: row counts, date coverage, collapsed duplicates, and warnings. Exits non-zero when any file is malformed.",
	RunE: func(cmd *cobra.Command, _ []string) error {
		res, err := loader.New().Load(cmd.Context(), cfg.Data)
		if err != nil {
			if loader.IsDataFormatError(err) {
				fmt.Fprintf(os.Stderr, "invalid source data: %v\n", err)
				os.Exit(2)
			}
			return err
		}

		formatQuality(os.Stdout, res.Quality)
		return nil
	},
}

// formatQuality writes a tabular quality report to w.
func formatQuality(out io.Writer, reports []model.QualityReport) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "SOURCE\tROWS\tDATE_MIN\tDATE_MAX\tDUPLICATES\tWARNINGS")
	_, _ = fmt.Fprintln(w, "------\t----\t--------\t--------\t----------\t--------")

	for _, q := range reports {
		_, _ = fmt.Fprintf(w, "%s\t%d\t%s\t%s\t%d\t%d\n",
			q.Source,
			q.Rows,
			formatDay(q.DateMin),
			formatDay(q.DateMax),
			q.Duplicates,
			len(q.Warnings),
		)
	}
	_ = w.Flush()

	for _, q := range reports {
		for _, warn := range q.Warnings {
			_, _ = fmt.Fprintf(out, "%s: %s\n", q.Source, warn)
		}
	}
}

func formatDay(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Format(model.DateFormat)
}

func init() {
	rootCmd.AddCommand(validateCmd)
}
