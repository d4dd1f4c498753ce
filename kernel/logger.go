// Package kernel wires the platform, scheduler, interrupt, sync, block,
// and sd packages together into the bootable whole: bringing up the
// console, initializing the scheduler and SD driver, registering tasks,
// and starting the scheduler.
package kernel

import (
	"bufio"
	"fmt"
	"io"
)

// Logger writes plain diagnostic lines to a byte-stream sink — the UART
// on real hardware, anything io.Writer-shaped on a hosted build. It
// satisfies the Logf-shaped interfaces every other package in this
// module declares for itself (sched.Logger, block.Logger, sd.Logger),
// so a single Logger instance is threaded through all of them.
type Logger struct {
	w *bufio.Writer
}

// NewLogger wraps w in a buffered writer. Diagnostic output is
// line-buffered and flushed after each call, the same shape as a
// console a task could be reading concurrently.
func NewLogger(w io.Writer) *Logger {
	return &Logger{w: bufio.NewWriter(w)}
}

// Logf writes one formatted, newline-terminated line and flushes it.
func (l *Logger) Logf(format string, args ...any) {
	fmt.Fprintf(l.w, format, args...)
	l.w.WriteByte('\n')
	l.w.Flush()
}
