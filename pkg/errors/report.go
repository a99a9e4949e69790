package errors

import (
	"errors"
	"fmt"
	"io"
	"runtime"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

const maxFrames = 32

// Frame is a single entry of a captured call stack.
type Frame struct {
	File     string
	Line     int
	Function string
}

// String formats the frame as "file:line (in function name)", or
// "file:line" when the function is unknown.
func (f Frame) String() string {
	if f.Function == "" {
		return fmt.Sprintf("%s:%d", f.File, f.Line)
	}
	return fmt.Sprintf("%s:%d (in function %s)", f.File, f.Line, f.Function)
}

func callers(skip int) []uintptr {
	pcs := make([]uintptr, maxFrames)
	n := runtime.Callers(skip, pcs)
	return pcs[:n]
}

// Frames returns the stack captured closest to the origin of err: the
// innermost *Error in the chain that carries a stack.
func Frames(err error) []Frame {
	var stack []uintptr
	for err != nil {
		var e *Error
		if !errors.As(err, &e) {
			break
		}
		if len(e.stack) > 0 {
			stack = e.stack
		}
		err = e.Cause
	}
	if len(stack) == 0 {
		return nil
	}

	var out []Frame
	frames := runtime.CallersFrames(stack)
	for {
		f, more := frames.Next()
		if f.File != "" && !strings.HasPrefix(f.Function, "runtime.") {
			out = append(out, Frame{File: f.File, Line: f.Line, Function: f.Function})
		}
		if !more {
			break
		}
	}
	return out
}

// FromPanic converts a recovered panic value into an *Error whose stack is
// the stack of the panicking goroutine. Call it directly from the deferred
// function that recovered.
func FromPanic(v any) *Error {
	e := &Error{
		Code:    ErrCodeInternal,
		Message: fmt.Sprint(v),
		stack:   callers(3),
	}
	if err, ok := v.(error); ok {
		e.Message = "panic"
		e.Cause = err
	}
	return e
}

// Report writes the crash report for err to w:
//
//	ERROR: <message>
//	TRACE:
//	 -> file:line (in function name)
//
// The trace section is omitted when err carries no stack.
func Report(w io.Writer, err error) {
	r := lipgloss.NewRenderer(w)
	label := r.NewStyle().Bold(true).Foreground(lipgloss.Color("167"))
	dim := r.NewStyle().Foreground(lipgloss.Color("240"))

	lines := []string{label.Render("ERROR:") + " " + UserMessage(err)}
	if code := GetCode(err); code != "" {
		lines[0] += " " + dim.Render("["+string(code)+"]")
	}

	if frames := Frames(err); len(frames) > 0 {
		lines = append(lines, label.Render("TRACE:"))
		for _, f := range frames {
			lines = append(lines, dim.Render(" -> ")+f.String())
		}
	}
	fmt.Fprintln(w, strings.Join(lines, "\n"))
}
