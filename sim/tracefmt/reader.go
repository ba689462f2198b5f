package tracefmt

import (
	"bufio"
	"io"
	"strings"
)

// maxLineBytes bounds a single trace line. Call markers print every argument
// and can get long.
const maxLineBytes = 16 * 1024 * 1024

// SourceLine is one content line of a trace with its 1-based position.
type SourceLine struct {
	N    int
	Text string
}

// ReadLines returns the content lines of a trace in order. Trailing
// whitespace is trimmed; headers, the end-of-trace sentinel and blank lines
// are dropped.
func ReadLines(r io.Reader) ([]SourceLine, error) {
	var lines []SourceLine
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineBytes)
	n := 0
	for scanner.Scan() {
		n++
		text := strings.TrimRight(scanner.Text(), " \t\r")
		if IsFraming(text) {
			continue
		}
		lines = append(lines, SourceLine{N: n, Text: text})
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return lines, nil
}
