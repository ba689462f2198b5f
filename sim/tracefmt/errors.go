package tracefmt

import "fmt"

// MalformedTraceError reports a trace line that matches none of the accepted
// shapes. It is always fatal for the run.
type MalformedTraceError struct {
	File   string
	Line   int // 1-based line number in the source trace
	Text   string
	Reason string
}

func (e *MalformedTraceError) Error() string {
	file := e.File
	if file == "" {
		file = "<trace>"
	}
	return fmt.Sprintf("%s:%d: %s: %q", file, e.Line, e.Reason, e.Text)
}
