package demarc

import (
	"errors"
	"fmt"
	"io"
	"regexp"
	"strings"

	"github.com/nf-analysis/stateless-trace/sim/tracefmt"
)

// Kind is the shape of a trace line.
type Kind int

const (
	// KindInstruction is a "function | instruction | operands" record.
	KindInstruction Kind = iota
	// KindCall is a "CALL callee(args)" marker.
	KindCall
	// KindLoad is a "LOAD address" marker.
	KindLoad
	// KindStore is a "STORE address" marker.
	KindStore
	// KindSummary is a collapsed-call line already present in the input.
	KindSummary
)

// Record is one executed instruction.
type Record struct {
	Function    string
	Instruction string
	Operands    string
}

// IsReturn reports whether the record is a function return.
func (r Record) IsReturn() bool {
	return r.Instruction == tracefmt.ReturnOpcode
}

// Line is a parsed trace line. Only the payload matching Kind is set.
type Line struct {
	N      int // 1-based line number in the source trace
	Text   string
	Kind   Kind
	Callee string        // KindCall
	Record Record        // KindInstruction
	Call   CollapsedCall // KindSummary
}

// IsMarker reports whether the line is a marker rather than an instruction:
// lookahead for the callee's first instruction skips these.
func (l Line) IsMarker() bool {
	return l.Kind != KindInstruction
}

var (
	callRe          = regexp.MustCompile(`^CALL\s+([^\s(]+)\s*\(`)
	summaryRe       = regexp.MustCompile(`^Call to (\S+) model - (.+)$`)
	legacySummaryRe = regexp.MustCompile(`^Call to Verification Code - (.+)$`)
)

// ParseLine classifies one content line. n is used only for diagnostics.
func ParseLine(n int, text string) (Line, error) {
	line := Line{N: n, Text: text}

	if tracefmt.IsCall(text) {
		m := callRe.FindStringSubmatch(text)
		if m == nil {
			return line, &tracefmt.MalformedTraceError{Line: n, Text: text, Reason: "unparsable call marker"}
		}
		line.Kind = KindCall
		line.Callee = m[1]
		return line, nil
	}

	if marker, _, ok := tracefmt.MemoryMarker(text); ok {
		if marker == tracefmt.LoadMarker {
			line.Kind = KindLoad
		} else {
			line.Kind = KindStore
		}
		return line, nil
	}

	if m := summaryRe.FindStringSubmatch(text); m != nil {
		cat, ok := categoryByName[m[1]]
		if !ok {
			return line, &tracefmt.MalformedTraceError{Line: n, Text: text, Reason: fmt.Sprintf("unknown model category %q", m[1])}
		}
		line.Kind = KindSummary
		line.Call = CollapsedCall{Category: cat, DisplayName: m[2]}
		return line, nil
	}
	if m := legacySummaryRe.FindStringSubmatch(text); m != nil {
		line.Kind = KindSummary
		line.Call = CollapsedCall{Category: Verification, DisplayName: m[1]}
		return line, nil
	}

	rec, ok := parseRecord(text)
	if !ok {
		return line, &tracefmt.MalformedTraceError{Line: n, Text: text, Reason: "expected call, load/store, or function | instruction | operands"}
	}
	line.Kind = KindInstruction
	line.Record = rec
	return line, nil
}

// parseRecord splits a 3-field record. Pipes after the second belong to the
// operands.
func parseRecord(text string) (Record, bool) {
	parts := strings.SplitN(text, "|", 3)
	if len(parts) < 3 {
		return Record{}, false
	}
	rec := Record{
		Function:    strings.TrimSpace(parts[0]),
		Instruction: strings.TrimSpace(parts[1]),
		Operands:    strings.TrimSpace(parts[2]),
	}
	if rec.Function == "" || rec.Instruction == "" {
		return Record{}, false
	}
	return rec, true
}

// ReadTrace reads and parses a whole trace. The first malformed line aborts
// the read; file is recorded in the error for diagnostics.
func ReadTrace(r io.Reader, file string) ([]Line, error) {
	src, err := tracefmt.ReadLines(r)
	if err != nil {
		return nil, fmt.Errorf("reading trace %s: %w", file, err)
	}
	lines := make([]Line, 0, len(src))
	for _, s := range src {
		line, err := ParseLine(s.N, s.Text)
		if err != nil {
			var mte *tracefmt.MalformedTraceError
			if errors.As(err, &mte) {
				mte.File = file
			}
			return nil, err
		}
		lines = append(lines, line)
	}
	return lines, nil
}

// ParseLines parses in-memory trace text, applying the same framing rules as
// ReadTrace.
func ParseLines(text []string) ([]Line, error) {
	return ReadTrace(strings.NewReader(strings.Join(text, "\n")), "")
}
