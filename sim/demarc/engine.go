package demarc

import (
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/nf-analysis/stateless-trace/sim/trace"
	"github.com/nf-analysis/stateless-trace/sim/tracefmt"
)

// Options tunes an Engine.
type Options struct {
	// File names the trace in diagnostics.
	File string
	// Strict rejects two different modelled calls with nothing emitted
	// between them instead of keeping both.
	Strict bool
	// Trace, when non-nil, receives one record per call and per closing return.
	Trace *trace.DemarcationTrace
}

// Stats counts what a run did with its input.
type Stats struct {
	Lines        int // parsed input lines
	Emitted      int // output lines
	Calls        int
	Collapsed    int // summary lines written
	Deduplicated int // summary lines dropped as adjacent repeats
	Elided       int // calls whose callee was never entered
	Returns      int // returns that closed a frame; never emitted
	Unwound      int // frames dropped because the trace left them without a ret
	Suppressed   int // loads, stores and records hidden inside modelled regions
}

// Engine reduces a trace to its stateless code. An Engine is not safe for
// concurrent use; run one per trace.
type Engine struct {
	lists *Lists
	opts  Options

	stack CallStack
	out   []string
	stats Stats

	// callGap is true when something other than a summary line has been
	// emitted since last.
	callGap bool
	last    CollapsedCall
}

// NewEngine returns an engine bound to read-only classification lists.
func NewEngine(lists *Lists, opts Options) *Engine {
	return &Engine{lists: lists, opts: opts}
}

// Demarcate runs a fresh engine over lines with default options.
func Demarcate(lines []Line, lists *Lists) ([]string, error) {
	return NewEngine(lists, Options{}).Run(lines)
}

// Stack returns the call stack as left by the last run.
func (e *Engine) Stack() *CallStack {
	return &e.stack
}

// Stats returns counters for the last run.
func (e *Engine) Stats() Stats {
	return e.stats
}

func (e *Engine) reset() {
	e.stack.reset()
	e.out = nil
	e.stats = Stats{}
	e.callGap = true
	e.last = CollapsedCall{}
}

// Run demarcates lines and returns the output lines in trace order. On error
// no output is returned.
func (e *Engine) Run(lines []Line) ([]string, error) {
	e.reset()
	e.stats.Lines = len(lines)

	for i := 0; i < len(lines); {
		line := lines[i]
		switch line.Kind {
		case KindCall:
			next, err := e.call(lines, i)
			if err != nil {
				return nil, err
			}
			i = next
			continue
		case KindLoad, KindStore:
			e.emitUnlessModelled(line.Text)
		case KindSummary:
			if err := e.collapse(line.Call, line); err != nil {
				return nil, err
			}
		case KindInstruction:
			e.record(line)
		}
		i++
	}

	if top, ok := e.stack.Top(); ok && top.Category.Modelled() {
		logrus.Warnf("%s: trace ended inside modelled function %s (%d open frames)",
			e.fileName(), top.Function, e.stack.Depth())
	}
	logrus.Debugf("%s: demarcated %d lines into %d (%d collapsed, %d deduplicated, %d elided calls)",
		e.fileName(), e.stats.Lines, e.stats.Emitted, e.stats.Collapsed, e.stats.Deduplicated, e.stats.Elided)
	return e.out, nil
}

// call handles the call marker at lines[i] and returns the index of the
// first line it did not consume.
func (e *Engine) call(lines []Line, i int) (int, error) {
	marker := lines[i]
	callee := marker.Callee
	e.stats.Calls++

	// The runtime logs the marker before the caller's call instruction;
	// that record belongs to the marker and is never written.
	next := i + 1
	var site *Line
	if next < len(lines) && isCallSite(lines[next]) {
		site = &lines[next]
		next++
	}

	caller := ""
	if site != nil {
		caller = site.Record.Function
	} else if top, ok := e.stack.Top(); ok {
		caller = top.Function
	}

	category := e.lists.Classify(callee)
	summary := CollapsedCall{Category: category, DisplayName: DisplayName(callee)}
	entered := calleeEntered(lines, next, callee)

	var outcome trace.CallOutcome
	switch {
	case category == Debug:
		outcome = trace.OutcomeDebug
	case category.Modelled():
		before := e.stats.Collapsed
		if err := e.collapse(summary, marker); err != nil {
			return next, err
		}
		outcome = trace.OutcomeDeduplicated
		if e.stats.Collapsed > before {
			outcome = trace.OutcomeCollapsed
		}
	default:
		outcome = trace.OutcomePassthrough
		e.emit(marker.Text)
	}

	if entered {
		e.stack.Push(Frame{Function: callee, Category: category})
	} else {
		e.stats.Elided++
	}

	if e.opts.Trace != nil {
		e.opts.Trace.RecordCall(trace.CallRecord{
			Line:        marker.N,
			Caller:      caller,
			Callee:      callee,
			Category:    category.String(),
			DisplayName: summary.DisplayName,
			Entered:     entered,
			Outcome:     outcome,
		})
	}
	return next, nil
}

// isCallSite reports whether l, the line after a marker, is the call
// instruction paired with it. A demarcated trace has no such line.
func isCallSite(l Line) bool {
	return l.Kind == KindInstruction && l.Record.Instruction == tracefmt.CallOpcode
}

// calleeEntered looks past markers for the next instruction record and
// reports whether it executes in callee.
func calleeEntered(lines []Line, from int, callee string) bool {
	for j := from; j < len(lines); j++ {
		if lines[j].IsMarker() {
			continue
		}
		return lines[j].Record.Function == callee
	}
	return false
}

// record handles an instruction record. Frames the record's function is not
// running in are unwound first, so a frame whose ret never appears cannot
// hide the rest of the trace.
func (e *Engine) record(line Line) {
	rec := line.Record
	e.unwindTo(rec.Function, line.N)
	if rec.IsReturn() {
		if top, ok := e.stack.Top(); ok && top.Function == rec.Function {
			e.stack.Pop()
			e.stats.Returns++
			e.recordReturn(line.N, top, false)
			return
		}
	}
	e.emitUnlessModelled(line.Text)
}

// unwindTo pops frames until fn is on top or the stack is empty.
func (e *Engine) unwindTo(fn string, n int) {
	for {
		top, ok := e.stack.Top()
		if !ok || top.Function == fn {
			return
		}
		e.stack.Pop()
		e.stats.Unwound++
		e.recordReturn(n, top, true)
		logrus.Debugf("%s:%d: %s left without ret", e.fileName(), n, top.Function)
	}
}

func (e *Engine) recordReturn(n int, f Frame, unwound bool) {
	if e.opts.Trace == nil {
		return
	}
	e.opts.Trace.RecordReturn(trace.ReturnRecord{
		Line:     n,
		Function: f.Function,
		Modelled: f.Category.Modelled(),
		Unwound:  unwound,
	})
}

// collapse writes a summary line unless it repeats the one just written.
func (e *Engine) collapse(c CollapsedCall, at Line) error {
	if !e.callGap {
		if c == e.last {
			e.stats.Deduplicated++
			return nil
		}
		if e.opts.Strict {
			return &tracefmt.MalformedTraceError{
				File:   e.opts.File,
				Line:   at.N,
				Text:   at.Text,
				Reason: fmt.Sprintf("back to back calls to %s and %s", e.last.DisplayName, c.DisplayName),
			}
		}
	}
	e.out = append(e.out, c.String())
	e.stats.Emitted++
	e.stats.Collapsed++
	e.last = c
	e.callGap = false
	return nil
}

func (e *Engine) emit(text string) {
	e.out = append(e.out, text)
	e.stats.Emitted++
	e.callGap = true
}

func (e *Engine) emitUnlessModelled(text string) {
	if e.inModelledRegion() {
		e.stats.Suppressed++
		return
	}
	e.emit(text)
}

// inModelledRegion reports whether the innermost frame is modelled.
func (e *Engine) inModelledRegion() bool {
	top, ok := e.stack.Top()
	return ok && top.Category.Modelled()
}

func (e *Engine) fileName() string {
	if e.opts.File == "" {
		return "<trace>"
	}
	return e.opts.File
}
