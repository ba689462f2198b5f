// Package sim runs the trace analysis pipeline for one network-function trace.
//
// # Reading Guide
//
// Start with these three files to understand the pipeline:
//   - config.go: PipelineConfig and its validation
//   - pipeline.go: read → demarcate → simulate, and the output files
//   - metrics.go: per-trace counters and the batch summary
//
// # Architecture
//
// The sim package wires sub-packages together; the algorithms live in them:
//   - sim/tracefmt/: the shared line format and MalformedTraceError
//   - sim/demarc/: the demarcation engine and classification lists
//   - sim/cache/: the set-associative LRU cache simulator
//   - sim/trace/: decision trace recording
//   - sim/callgraph/: observed call graph built from a decision trace
//   - sim/report/: SQLite result sink and metric-file aggregation
//
// The demarcated trace is the only coupling between the two stages: the
// cache simulator reads its LOAD/STORE markers and nothing else.
package sim
