package cmd

import (
	"fmt"
	"io"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/nf-analysis/stateless-trace/sim/report"
)

var (
	aggregateDir    string
	aggregateSuffix string
	aggregateOut    string
)

// aggregateCmd merges per-trace metric files into one CSV-like listing
var aggregateCmd = &cobra.Command{
	Use:   "aggregate",
	Short: "Collect per-trace metric files into one name,line listing",
	RunE: func(cmd *cobra.Command, args []string) error {
		var w io.Writer = os.Stdout
		if aggregateOut != "" && aggregateOut != "-" {
			f, err := os.Create(aggregateOut)
			if err != nil {
				return fmt.Errorf("create %s: %w", aggregateOut, err)
			}
			defer func() { _ = f.Close() }()
			w = f
		}
		n, err := report.Aggregate(aggregateDir, aggregateSuffix, w)
		if err != nil {
			return err
		}
		logrus.Infof("aggregated %d *%s files from %s", n, aggregateSuffix, aggregateDir)
		return nil
	},
}

func init() {
	aggregateCmd.Flags().StringVar(&aggregateDir, "dir", ".", "Directory searched recursively for metric files")
	aggregateCmd.Flags().StringVar(&aggregateSuffix, "suffix", ".llvm_metrics", "File-name suffix of metric files")
	aggregateCmd.Flags().StringVar(&aggregateOut, "out", "-", "Output path, or - for stdout")
}
