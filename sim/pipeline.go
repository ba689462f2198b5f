package sim

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/sirupsen/logrus"

	"github.com/nf-analysis/stateless-trace/sim/cache"
	"github.com/nf-analysis/stateless-trace/sim/demarc"
	"github.com/nf-analysis/stateless-trace/sim/trace"
	"github.com/nf-analysis/stateless-trace/sim/tracefmt"
)

// Output file suffixes written next to each trace.
const (
	DemarcatedSuffix  = ".demarcated"
	CacheStatsSuffix  = ".cache_stats"
	LLVMMetricsSuffix = ".llvm_metrics"
	DecisionsSuffix   = ".decisions.yaml"
)

// Pipeline processes traces one at a time. A Pipeline holds no per-trace
// state, so one value may be shared by concurrent callers.
type Pipeline struct {
	config PipelineConfig
	lists  *demarc.Lists
}

// NewPipeline validates config and binds the classification lists.
func NewPipeline(config PipelineConfig, lists *demarc.Lists) (*Pipeline, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	if config.TraceLevel == "" {
		config.TraceLevel = trace.TraceLevelNone
	}
	return &Pipeline{config: config, lists: lists}, nil
}

// Config returns the pipeline configuration.
func (p *Pipeline) Config() PipelineConfig {
	return p.config
}

// Result holds everything one trace produced.
type Result struct {
	Trace      string
	Demarcated []string
	Stats      demarc.Stats
	Cache      cache.Result
	Metrics    Metrics
	Decisions  *trace.DemarcationTrace // nil unless decision tracing is enabled
}

// Run reads the trace at tracePath, demarcates it, replays the accesses of
// the demarcated lines through a fresh cache and computes the metrics.
func (p *Pipeline) Run(tracePath string) (*Result, error) {
	f, err := os.Open(tracePath)
	if err != nil {
		return nil, fmt.Errorf("open trace: %w", err)
	}
	defer func() { _ = f.Close() }()

	lines, err := demarc.ReadTrace(f, tracePath)
	if err != nil {
		return nil, err
	}

	opts := demarc.Options{File: tracePath, Strict: p.config.Strict}
	tc := trace.TraceConfig{Level: p.config.TraceLevel}
	if tc.Enabled() {
		opts.Trace = trace.NewDemarcationTrace(tc)
		opts.Trace.Source = tracePath
	}
	engine := demarc.NewEngine(p.lists, opts)
	out, err := engine.Run(lines)
	if err != nil {
		return nil, err
	}

	res, err := p.simulate(out, tracePath+DemarcatedSuffix)
	if err != nil {
		return nil, err
	}

	r := &Result{
		Trace:      tracePath,
		Demarcated: out,
		Stats:      engine.Stats(),
		Cache:      res,
		Decisions:  opts.Trace,
	}
	r.Metrics = ComputeMetrics(out, res, r.Stats)
	logrus.Infof("%s: %d instructions, %d memory accesses (%d hits, %d misses), %d collapsed calls",
		tracePath, r.Metrics.InstructionCount, r.Metrics.MemoryAccesses, res.Hits, res.Misses, r.Metrics.CollapsedCalls)
	return r, nil
}

// simulate replays the LOAD/STORE markers of demarcated lines. file names
// the demarcated trace in diagnostics.
func (p *Pipeline) simulate(demarcated []string, file string) (cache.Result, error) {
	c, err := cache.New(p.config.Cache)
	if err != nil {
		return cache.Result{}, err
	}
	for i, text := range demarcated {
		a, ok, err := cache.AccessFromLine(i+1, text)
		if err != nil {
			var mte *tracefmt.MalformedTraceError
			if errors.As(err, &mte) {
				mte.File = file
			}
			return cache.Result{}, err
		}
		if ok {
			c.Access(a.Address)
		}
	}
	return c.Result(), nil
}

// WriteOutputs writes base.demarcated, base.cache_stats and base.llvm_metrics,
// plus base.decisions.yaml when decisions were recorded.
func (r *Result) WriteOutputs(base string) error {
	if err := WriteLines(base+DemarcatedSuffix, r.Demarcated); err != nil {
		return err
	}
	if err := writeWith(base+CacheStatsSuffix, r.Cache.Write); err != nil {
		return err
	}
	if err := writeWith(base+LLVMMetricsSuffix, r.Metrics.Write); err != nil {
		return err
	}
	if r.Decisions != nil {
		if err := r.Decisions.WriteYAML(base + DecisionsSuffix); err != nil {
			return err
		}
	}
	logrus.Debugf("wrote outputs for %s under %s.*", r.Trace, base)
	return nil
}

// WriteLines writes lines to path, one per line.
func WriteLines(path string, lines []string) error {
	return writeWith(path, func(w io.Writer) error {
		for _, l := range lines {
			if _, err := io.WriteString(w, l+"\n"); err != nil {
				return err
			}
		}
		return nil
	})
}

// writeWith creates path and hands a buffered writer to fn.
func writeWith(path string, fn func(io.Writer) error) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	writer := bufio.NewWriter(file)
	if err := fn(writer); err != nil {
		_ = file.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}
	if err := writer.Flush(); err != nil {
		_ = file.Close()
		return fmt.Errorf("flush %s: %w", path, err)
	}
	if err := file.Close(); err != nil {
		return fmt.Errorf("close %s: %w", path, err)
	}
	return nil
}
