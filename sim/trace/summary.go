package trace

// TraceSummary aggregates statistics from a DemarcationTrace.
type TraceSummary struct {
	TotalCalls     int
	Collapsed      int
	Deduplicated   int
	Passthrough    int
	Debug          int
	Elided         int            // calls whose callee was never entered
	Returns        int
	ModelledReturn int            // returns that closed a modelled frame
	Unwound        int            // frames closed without a ret
	CategoryCounts map[string]int // category → calls collapsed or deduplicated
}

// Summarize computes aggregate statistics from a DemarcationTrace.
// Safe for nil or empty traces (returns zero-value fields).
func Summarize(dt *DemarcationTrace) *TraceSummary {
	summary := &TraceSummary{
		CategoryCounts: make(map[string]int),
	}
	if dt == nil {
		return summary
	}

	summary.TotalCalls = len(dt.Calls)
	for _, c := range dt.Calls {
		if !c.Entered {
			summary.Elided++
		}
		switch c.Outcome {
		case OutcomeCollapsed:
			summary.Collapsed++
			summary.CategoryCounts[c.Category]++
		case OutcomeDeduplicated:
			summary.Deduplicated++
			summary.CategoryCounts[c.Category]++
		case OutcomePassthrough:
			summary.Passthrough++
		case OutcomeDebug:
			summary.Debug++
		}
	}

	summary.Returns = len(dt.Returns)
	for _, r := range dt.Returns {
		if r.Modelled {
			summary.ModelledReturn++
		}
		if r.Unwound {
			summary.Unwound++
		}
	}

	return summary
}
