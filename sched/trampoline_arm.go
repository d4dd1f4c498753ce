//go:build arm

package sched

// runTrampoline is taskTrampoline's (trampoline_arm.s) sole call into Go:
// token is the small integer Task.id buildInitialFrame stashed in the
// fresh task's r0 slot. It runs the task's entry function to completion
// and then exits it, mirroring the original's trampoline-calls-then-exits
// convention.
func runTrampoline(token uint32) {
	s := trampolineScheduler
	id := int(token)

	var fn TaskFunc
	if id >= 0 && id < len(s.tasks) {
		fn = s.tasks[id].fn
	}
	if fn != nil {
		fn()
	}
	s.Exit()
}
