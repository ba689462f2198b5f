// Package tracefmt defines the line-oriented text format shared by raw
// instruction traces and demarcated traces. It is the only coupling between
// the demarcation engine and the cache simulator.
package tracefmt

import (
	"fmt"
	"strconv"
	"strings"
)

// Fixed lines written by the tracing runtime around the recorded instructions.
const (
	Header      = "Function | Instruction | Operands"
	ShortHeader = "Function | Instruction"
	EndOfTrace  = "EOF"
)

// Line markers.
const (
	CallMarker  = "CALL"
	LoadMarker  = "LOAD"
	StoreMarker = "STORE"

	// ReturnOpcode is the instruction text of a function return.
	ReturnOpcode = "ret"
	// CallOpcode is the instruction text of a call site.
	CallOpcode = "call"
)

// nilPointer is how the runtime's %p prints a null address.
const nilPointer = "(nil)"

// IsFraming reports whether a line is a header, the end-of-trace sentinel,
// or blank. Such lines are dropped before processing.
func IsFraming(text string) bool {
	switch strings.TrimSpace(text) {
	case "", Header, ShortHeader, EndOfTrace:
		return true
	}
	return false
}

// IsCall reports whether a line starts with the call marker.
func IsCall(text string) bool {
	return strings.HasPrefix(text, CallMarker+" ")
}

// MemoryMarker returns the marker ("LOAD" or "STORE") and the remaining
// operand if the line is a memory-access marker.
func MemoryMarker(text string) (marker, operand string, ok bool) {
	for _, m := range []string{LoadMarker, StoreMarker} {
		if strings.HasPrefix(text, m+" ") || strings.HasPrefix(text, m+"\t") {
			return m, strings.TrimSpace(text[len(m):]), true
		}
	}
	return "", "", false
}

// ParseAddress parses a hexadecimal address as printed by %p. The 0x prefix
// is optional and "(nil)" is address zero.
func ParseAddress(s string) (uint64, error) {
	if f := strings.Fields(s); len(f) > 0 {
		s = f[0]
	}
	if s == nilPointer {
		return 0, nil
	}
	s = strings.TrimPrefix(strings.TrimPrefix(s, "0x"), "0X")
	if s == "" {
		return 0, fmt.Errorf("empty address")
	}
	v, err := strconv.ParseUint(s, 16, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid address %q: %w", s, err)
	}
	return v, nil
}
