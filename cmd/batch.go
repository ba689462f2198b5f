package cmd

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strings"
	"time"

	"github.com/shirou/gopsutil/process"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/nf-analysis/stateless-trace/sim"
	"github.com/nf-analysis/stateless-trace/sim/report"
)

var (
	batchDir     string
	batchSuffix  string
	batchWorkers int
	batchDB      string
)

// batchCmd runs one independent pipeline per trace in a directory
var batchCmd = &cobra.Command{
	Use:   "batch",
	Short: "Run the full pipeline over every trace in a directory",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := resolveConfig(cmd)
		if err != nil {
			return err
		}
		p, err := newPipeline(cfg)
		if err != nil {
			return err
		}
		traces, err := findTraces(batchDir, batchSuffix)
		if err != nil {
			return err
		}
		if len(traces) == 0 {
			logrus.Warnf("no *%s traces under %s", batchSuffix, batchDir)
			return nil
		}

		var rec *report.SQLiteRecorder
		if batchDB != "" {
			rec, err = report.NewSQLiteRecorder(batchDB)
			if err != nil {
				return err
			}
			defer func() { _ = rec.Close() }()
		}

		logrus.Infof("Starting batch of %d traces with %d workers", len(traces), batchWorkers)
		startTime := time.Now()
		results, err := runBatch(cmd.Context(), p, traces, batchWorkers, rec)
		if err != nil {
			return err
		}
		sim.Summarize(results).Print(os.Stdout)
		logResourceUsage()
		logrus.Infof("Batch complete in %s.", time.Since(startTime))
		return nil
	},
}

// findTraces returns the files under dir whose names end with suffix, in
// lexical order.
func findTraces(dir, suffix string) ([]string, error) {
	var traces []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && strings.HasSuffix(d.Name(), suffix) {
			traces = append(traces, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("list traces in %s: %w", dir, err)
	}
	sort.Strings(traces)
	return traces, nil
}

// runBatch processes traces with at most workers pipelines in flight. Each
// trace gets its own engine and cache; only the read-only lists are shared.
// The first failure cancels the traces not yet started and is returned.
func runBatch(ctx context.Context, p *sim.Pipeline, traces []string, workers int, rec *report.SQLiteRecorder) ([]*sim.Result, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	if workers < 1 {
		workers = 1
	}
	results := make([]*sim.Result, len(traces))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i, path := range traces {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			res, err := p.Run(path)
			if err != nil {
				return err
			}
			if err := res.WriteOutputs(path); err != nil {
				return err
			}
			if rec != nil {
				if err := rec.Record(report.RowFromResult(res)); err != nil {
					return err
				}
			}
			results[i] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

// logResourceUsage reports the resident set size of this process.
func logResourceUsage() {
	proc, err := process.NewProcess(int32(os.Getpid()))
	if err != nil {
		logrus.Debugf("process info unavailable: %v", err)
		return
	}
	mem, err := proc.MemoryInfo()
	if err != nil {
		logrus.Debugf("memory info unavailable: %v", err)
		return
	}
	logrus.Infof("resident set size: %.1f MiB", float64(mem.RSS)/(1<<20))
}

func init() {
	batchCmd.Flags().StringVar(&batchDir, "dir", ".", "Directory searched recursively for traces")
	batchCmd.Flags().StringVar(&batchSuffix, "suffix", ".tracelog", "File-name suffix of raw traces")
	batchCmd.Flags().IntVar(&batchWorkers, "workers", runtime.NumCPU(), "Maximum traces processed concurrently")
	batchCmd.Flags().StringVar(&batchDB, "db", "", "Also record per-trace results in this SQLite database")
	addListFlags(batchCmd)
	addCacheFlags(batchCmd)
	addTraceLevelFlag(batchCmd)
}
