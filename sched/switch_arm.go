//go:build arm

package sched

// rawSwitch is implemented in switch_arm.s. It saves the caller's
// general-purpose registers, lr, and cpsr onto the caller's own stack,
// stores the resulting stack pointer through oldSP (when non-nil), then
// loads the stack pointer from newSP and pops that task's frame back
// into the CPU, branching to its saved pc. It never returns to its
// caller directly — it "returns" into whatever task newSP belongs to,
// which eventually calls back into rawSwitch itself to switch away
// again.
//
//go:noescape
func rawSwitch(oldSP *uintptr, newSP uintptr)

// taskTrampolineAddr returns taskTrampoline's (trampoline_arm.s) address:
// the small assembly stub that reads r0 (the task id token), looks the
// task up via runTrampoline, and calls its Go entry function.
//
//go:noescape
func taskTrampolineAddr() uintptr

// trampolineScheduler is the Scheduler runTrampoline (trampoline_arm.go)
// looks tasks up in. Registered by NewHardwareScheduler; there is only
// ever one real Scheduler on a hardware build.
var trampolineScheduler *Scheduler

// NewHardwareScheduler returns a Scheduler backed by the real assembly
// context switch and the real per-task trampoline, for use once the
// kernel is actually running on target hardware.
func NewHardwareScheduler(ticks func() uint32, log Logger) *Scheduler {
	s := NewScheduler(uint32(taskTrampolineAddr()), rawSwitch, ticks, log)
	trampolineScheduler = s
	return s
}
