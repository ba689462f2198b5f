package trace

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// TraceLevel controls the verbosity of decision tracing.
type TraceLevel string

const (
	// TraceLevelNone disables tracing (zero overhead).
	TraceLevelNone TraceLevel = "none"
	// TraceLevelDecisions captures every call and return decision.
	TraceLevelDecisions TraceLevel = "decisions"
)

// validTraceLevels maps accepted trace level strings.
var validTraceLevels = map[TraceLevel]bool{
	TraceLevelNone:      true,
	TraceLevelDecisions: true,
	"":                  true, // empty defaults to none
}

// IsValidTraceLevel returns true if the given level string is a recognized trace level.
func IsValidTraceLevel(level string) bool {
	return validTraceLevels[TraceLevel(level)]
}

// TraceConfig controls trace collection behavior.
type TraceConfig struct {
	Level TraceLevel `yaml:"level"`
}

// Enabled reports whether records should be collected.
func (c TraceConfig) Enabled() bool {
	return c.Level == TraceLevelDecisions
}

// DemarcationTrace collects decision records during one demarcation run.
type DemarcationTrace struct {
	Config  TraceConfig    `yaml:"config"`
	Source  string         `yaml:"source,omitempty"`
	Calls   []CallRecord   `yaml:"calls"`
	Returns []ReturnRecord `yaml:"returns"`
}

// NewDemarcationTrace creates a DemarcationTrace ready for recording.
func NewDemarcationTrace(config TraceConfig) *DemarcationTrace {
	return &DemarcationTrace{
		Config:  config,
		Calls:   make([]CallRecord, 0),
		Returns: make([]ReturnRecord, 0),
	}
}

// RecordCall appends a call decision record.
func (dt *DemarcationTrace) RecordCall(record CallRecord) {
	dt.Calls = append(dt.Calls, record)
}

// RecordReturn appends a return record.
func (dt *DemarcationTrace) RecordReturn(record ReturnRecord) {
	dt.Returns = append(dt.Returns, record)
}

// WriteYAML exports the trace to path.
func (dt *DemarcationTrace) WriteYAML(path string) error {
	data, err := yaml.Marshal(dt)
	if err != nil {
		return fmt.Errorf("marshaling decision trace: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing decision trace: %w", err)
	}
	return nil
}
