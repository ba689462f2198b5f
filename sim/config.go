package sim

import (
	"fmt"

	"github.com/nf-analysis/stateless-trace/sim/cache"
	"github.com/nf-analysis/stateless-trace/sim/trace"
)

// PipelineConfig groups the settings shared by every trace in a run.
type PipelineConfig struct {
	Cache      cache.Config     // geometry of the simulated cache
	TraceLevel trace.TraceLevel // "none" (default) or "decisions"
	Strict     bool             // reject back-to-back distinct modelled calls
}

// DefaultPipelineConfig returns the default cache geometry with tracing off.
func DefaultPipelineConfig() PipelineConfig {
	return PipelineConfig{
		Cache:      cache.DefaultConfig(),
		TraceLevel: trace.TraceLevelNone,
	}
}

// Validate checks the configuration before any trace is read.
func (c PipelineConfig) Validate() error {
	if err := c.Cache.Validate(); err != nil {
		return err
	}
	if !trace.IsValidTraceLevel(string(c.TraceLevel)) {
		return fmt.Errorf("unknown trace level %q; valid levels: none, decisions", c.TraceLevel)
	}
	return nil
}
