// Per-trace counters and the end-of-batch summary.

package sim

import (
	"fmt"
	"io"
	"strings"

	"github.com/nf-analysis/stateless-trace/sim/cache"
	"github.com/nf-analysis/stateless-trace/sim/demarc"
	"github.com/nf-analysis/stateless-trace/sim/tracefmt"
)

// Metrics are the counts reported for one demarcated trace.
type Metrics struct {
	InstructionCount int    // demarcated lines that are executed instruction records
	MemoryAccesses   uint64 // cache hits + misses
	CollapsedCalls   int    // summary lines written
}

// IsInstructionLine reports whether a demarcated line counts as an executed
// instruction: markers and summary lines do not.
func IsInstructionLine(text string) bool {
	if text == "" || tracefmt.IsCall(text) || strings.HasPrefix(text, "Call to ") {
		return false
	}
	if _, _, ok := tracefmt.MemoryMarker(text); ok {
		return false
	}
	return true
}

// ComputeMetrics derives Metrics from a demarcated trace and its replay.
func ComputeMetrics(demarcated []string, res cache.Result, stats demarc.Stats) Metrics {
	m := Metrics{
		MemoryAccesses: res.Accesses(),
		CollapsedCalls: stats.Collapsed,
	}
	for _, l := range demarcated {
		if IsInstructionLine(l) {
			m.InstructionCount++
		}
	}
	return m
}

// Write emits the two-line metrics file.
func (m Metrics) Write(w io.Writer) error {
	_, err := fmt.Fprintf(w, "llvm instruction count,%d\nllvm memory instructions,%d\n",
		m.InstructionCount, m.MemoryAccesses)
	return err
}

// BatchSummary aggregates the results of a batch.
type BatchSummary struct {
	Traces         int
	Instructions   int
	MemoryAccesses uint64
	Hits           uint64
	Misses         uint64
	CollapsedCalls int

	MissRates []float64 // per trace with at least one access, in percent
}

// Summarize folds per-trace results into a BatchSummary. nil entries are skipped.
func Summarize(results []*Result) BatchSummary {
	var s BatchSummary
	for _, r := range results {
		if r == nil {
			continue
		}
		s.Traces++
		s.Instructions += r.Metrics.InstructionCount
		s.MemoryAccesses += r.Metrics.MemoryAccesses
		s.Hits += r.Cache.Hits
		s.Misses += r.Cache.Misses
		s.CollapsedCalls += r.Metrics.CollapsedCalls
		if n := r.Cache.Accesses(); n > 0 {
			s.MissRates = append(s.MissRates, float64(r.Cache.Misses)/float64(n)*100)
		}
	}
	return s
}

// Print displays the batch summary.
func (s BatchSummary) Print(w io.Writer) {
	_, _ = fmt.Fprintln(w, "=== Batch Metrics ===")
	_, _ = fmt.Fprintf(w, "Traces               : %d\n", s.Traces)
	_, _ = fmt.Fprintf(w, "Instructions         : %d\n", s.Instructions)
	_, _ = fmt.Fprintf(w, "Memory Accesses      : %d (%d hits, %d misses)\n", s.MemoryAccesses, s.Hits, s.Misses)
	_, _ = fmt.Fprintf(w, "Collapsed Calls      : %d\n", s.CollapsedCalls)
	if len(s.MissRates) > 0 {
		_, _ = fmt.Fprintf(w, "Mean Miss Rate       : %.2f%%\n", CalculateMean(s.MissRates))
		_, _ = fmt.Fprintf(w, "P50 Miss Rate        : %.2f%%\n", CalculatePercentile(s.MissRates, 50))
		_, _ = fmt.Fprintf(w, "P99 Miss Rate        : %.2f%%\n", CalculatePercentile(s.MissRates, 99))
	}
}
