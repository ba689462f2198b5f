package cmd

import (
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/nf-analysis/stateless-trace/sim"
	"github.com/nf-analysis/stateless-trace/sim/callgraph"
	"github.com/nf-analysis/stateless-trace/sim/demarc"
	"github.com/nf-analysis/stateless-trace/sim/trace"
)

var (
	demarcTracePath string
	demarcOutPath   string
	decisionsPath   string
	callgraphPath   string
)

// demarcateCmd collapses modelled regions of one trace.
var demarcateCmd = &cobra.Command{
	Use:   "demarcate",
	Short: "Collapse calls into modelled functions into summary lines",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := resolveConfig(cmd)
		if err != nil {
			return err
		}
		lists, err := demarc.LoadLists(cfg.Lists)
		if err != nil {
			return err
		}
		out := demarcOutPath
		if out == "" {
			out = demarcTracePath + sim.DemarcatedSuffix
		}
		return demarcateFile(lists, demarcTracePath, out, cfg.Strict, decisionsPath, callgraphPath)
	},
}

// demarcateFile runs the engine over one trace file and writes the result.
// Decision and call-graph outputs are written when their paths are set.
func demarcateFile(lists *demarc.Lists, tracePath, outPath string, strict bool, decisionsOut, callgraphOut string) error {
	f, err := os.Open(tracePath)
	if err != nil {
		return fmt.Errorf("open trace: %w", err)
	}
	defer func() { _ = f.Close() }()

	lines, err := demarc.ReadTrace(f, tracePath)
	if err != nil {
		return err
	}

	opts := demarc.Options{File: tracePath, Strict: strict}
	if decisionsOut != "" || callgraphOut != "" {
		opts.Trace = trace.NewDemarcationTrace(trace.TraceConfig{Level: trace.TraceLevelDecisions})
		opts.Trace.Source = tracePath
	}
	engine := demarc.NewEngine(lists, opts)
	out, err := engine.Run(lines)
	if err != nil {
		return err
	}

	if err := sim.WriteLines(outPath, out); err != nil {
		return err
	}
	stats := engine.Stats()
	logrus.Infof("wrote %s (%d of %d lines kept, %d calls collapsed, %d deduplicated)",
		outPath, stats.Emitted, stats.Lines, stats.Collapsed, stats.Deduplicated)

	if decisionsOut != "" {
		if err := opts.Trace.WriteYAML(decisionsOut); err != nil {
			return err
		}
		s := trace.Summarize(opts.Trace)
		logrus.Infof("wrote %s (%d calls: %d collapsed, %d passthrough, %d never entered; %d frames unwound)",
			decisionsOut, s.TotalCalls, s.Collapsed, s.Passthrough, s.Elided, s.Unwound)
	}
	if callgraphOut != "" {
		g := callgraph.Build(opts.Trace)
		if err := callgraph.WriteDOT(g, callgraphOut, "callgraph"); err != nil {
			return err
		}
		logrus.Infof("wrote %s (%d nodes, %d edges)", callgraphOut, len(g.Nodes), len(g.Edges))
	}
	return nil
}

func init() {
	demarcateCmd.Flags().StringVar(&demarcTracePath, "trace", "", "Raw instruction trace to demarcate")
	demarcateCmd.Flags().StringVar(&demarcOutPath, "out", "", "Output path (default <trace>.demarcated)")
	demarcateCmd.Flags().StringVar(&decisionsPath, "decisions", "", "Write per-call decisions as YAML to this path")
	demarcateCmd.Flags().StringVar(&callgraphPath, "callgraph", "", "Write the observed call graph as DOT to this path")
	addListFlags(demarcateCmd)
	_ = demarcateCmd.MarkFlagRequired("trace")
}
