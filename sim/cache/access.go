package cache

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/nf-analysis/stateless-trace/sim/tracefmt"
)

// AccessKind distinguishes loads from stores. Both affect recency the same way.
type AccessKind int

const (
	Load AccessKind = iota
	Store
)

func (k AccessKind) String() string {
	if k == Store {
		return tracefmt.StoreMarker
	}
	return tracefmt.LoadMarker
}

// Access is one memory-access event.
type Access struct {
	Kind    AccessKind
	Address uint64
}

// AccessFromLine extracts an access from a LOAD/STORE marker line. ok is
// false for any other line.
func AccessFromLine(n int, text string) (a Access, ok bool, err error) {
	marker, operand, isMem := tracefmt.MemoryMarker(text)
	if !isMem {
		return Access{}, false, nil
	}
	addr, err := tracefmt.ParseAddress(operand)
	if err != nil {
		return Access{}, false, &tracefmt.MalformedTraceError{Line: n, Text: text, Reason: err.Error()}
	}
	a = Access{Kind: Load, Address: addr}
	if marker == tracefmt.StoreMarker {
		a.Kind = Store
	}
	return a, true, nil
}

// ReadAccesses extracts the memory accesses of a (demarcated) trace in
// order. Lines that are not LOAD/STORE markers are ignored.
func ReadAccesses(r io.Reader, file string) ([]Access, error) {
	lines, err := tracefmt.ReadLines(r)
	if err != nil {
		return nil, fmt.Errorf("reading trace %s: %w", file, err)
	}
	var accesses []Access
	for _, l := range lines {
		a, ok, err := AccessFromLine(l.N, l.Text)
		if err != nil {
			var mte *tracefmt.MalformedTraceError
			if errors.As(err, &mte) {
				mte.File = file
			}
			return nil, err
		}
		if ok {
			accesses = append(accesses, a)
		}
	}
	return accesses, nil
}

// ReadAddressList reads a bare list of hexadecimal addresses, one per line.
// Every address is treated as a load.
func ReadAddressList(r io.Reader, file string) ([]Access, error) {
	var accesses []Access
	scanner := bufio.NewScanner(r)
	n := 0
	for scanner.Scan() {
		n++
		text := strings.TrimSpace(scanner.Text())
		if text == "" {
			continue
		}
		addr, err := tracefmt.ParseAddress(text)
		if err != nil {
			return nil, &tracefmt.MalformedTraceError{File: file, Line: n, Text: text, Reason: err.Error()}
		}
		accesses = append(accesses, Access{Kind: Load, Address: addr})
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading address list %s: %w", file, err)
	}
	return accesses, nil
}

// Write emits the two-line cache report.
func (r Result) Write(w io.Writer) error {
	_, err := fmt.Fprintf(w, "Hits: %d\nMisses: %d\n", r.Hits, r.Misses)
	return err
}

// ParseResult reads a report written by Write. Unknown lines are ignored.
func ParseResult(r io.Reader) (Result, error) {
	var res Result
	var sawHits, sawMisses bool
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		key, value, found := strings.Cut(strings.TrimSpace(scanner.Text()), ":")
		if !found {
			continue
		}
		var dst *uint64
		switch key {
		case "Hits":
			dst, sawHits = &res.Hits, true
		case "Misses":
			dst, sawMisses = &res.Misses, true
		default:
			continue
		}
		v, err := strconv.ParseUint(strings.TrimSpace(value), 10, 64)
		if err != nil {
			return Result{}, fmt.Errorf("parsing %s count: %w", key, err)
		}
		*dst = v
	}
	if err := scanner.Err(); err != nil {
		return Result{}, err
	}
	if !sawHits || !sawMisses {
		return Result{}, fmt.Errorf("cache report must contain Hits and Misses")
	}
	return res, nil
}
