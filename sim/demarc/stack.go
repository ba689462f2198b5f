package demarc

import "fmt"

// Frame is a function that control is known to have entered.
type Frame struct {
	Function string
	Category Category
}

// CallStack is the reconstructed call stack. Frames nest strictly: a frame
// is only popped after every frame above it.
type CallStack struct {
	frames []Frame
}

// Push enters a frame.
func (s *CallStack) Push(f Frame) {
	s.frames = append(s.frames, f)
}

// Pop removes and returns the top frame.
func (s *CallStack) Pop() (Frame, bool) {
	if len(s.frames) == 0 {
		return Frame{}, false
	}
	top := s.frames[len(s.frames)-1]
	s.frames = s.frames[:len(s.frames)-1]
	return top, true
}

// Top returns the innermost frame.
func (s *CallStack) Top() (Frame, bool) {
	if len(s.frames) == 0 {
		return Frame{}, false
	}
	return s.frames[len(s.frames)-1], true
}

// Depth returns the number of live frames.
func (s *CallStack) Depth() int {
	return len(s.frames)
}

// Frames returns a copy of the frames, outermost first.
func (s *CallStack) Frames() []Frame {
	out := make([]Frame, len(s.frames))
	copy(out, s.frames)
	return out
}

func (s *CallStack) reset() {
	s.frames = s.frames[:0]
}

// CollapsedCall is what a modelled invocation is reduced to.
type CollapsedCall struct {
	Category    Category
	DisplayName string
}

// String renders the summary line written to the demarcated trace.
func (c CollapsedCall) String() string {
	return fmt.Sprintf("Call to %s model - %s", c.Category, c.DisplayName)
}
