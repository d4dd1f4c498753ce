package irq

import "github.com/ktstephano/bcm283x-kernel/sched"

// Dispatch is the Go-callable body of the timer IRQ handler:
// acknowledge the pending interrupt, advance the
// tick counter, and ask the scheduler whether a different task should
// resume. currentSP is the stack pointer the assembly entry stub saved
// the interrupted task's full register frame to before calling Dispatch;
// the return value is the stack pointer the stub should restore from —
// either currentSP unchanged (resume what was interrupted) or a
// different task's saved sp (a preemptive switch occurred).
//
// Dispatch must run with IRQs still masked; the entry stub re-enables
// them only after popping the returned frame, never while Dispatch
// itself is executing, so this function and any code it calls never
// re-enters itself.
func Dispatch(t *Timer, s *sched.Scheduler, currentSP uintptr) uintptr {
	t.Ack()
	return s.Preempt(currentSP)
}
