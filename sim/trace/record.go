// Package trace provides decision-trace recording for demarcation analysis.
// This package has no dependencies on sim/ or its sub-packages; it stores plain data types.
package trace

// CallOutcome is what the demarcation engine did with a call marker.
type CallOutcome string

const (
	// OutcomeCollapsed: a summary line replaced the modelled call.
	OutcomeCollapsed CallOutcome = "collapsed"
	// OutcomeDeduplicated: the summary line repeated the previous emission and was dropped.
	OutcomeDeduplicated CallOutcome = "deduplicated"
	// OutcomePassthrough: a stateless call, written verbatim.
	OutcomePassthrough CallOutcome = "passthrough"
	// OutcomeDebug: a debug intrinsic, dropped without a summary line.
	OutcomeDebug CallOutcome = "debug"
)

// CallRecord captures a single call-marker decision.
type CallRecord struct {
	Line        int         `yaml:"line"`
	Caller      string      `yaml:"caller,omitempty"` // empty when the caller is not known
	Callee      string      `yaml:"callee"`
	Category    string      `yaml:"category"`
	DisplayName string      `yaml:"display_name"`
	Entered     bool        `yaml:"entered"` // false: tail-eliminated, failed, or bodiless callee
	Outcome     CallOutcome `yaml:"outcome"`
}

// ReturnRecord captures the closing of a reconstructed frame.
type ReturnRecord struct {
	Line     int    `yaml:"line"`
	Function string `yaml:"function"`
	Modelled bool   `yaml:"modelled"`
	Unwound  bool   `yaml:"unwound,omitempty"` // closed by a record from another function, not a ret
}
