//go:build arm

package irq

import "github.com/ktstephano/bcm283x-kernel/sched"

// dispatchTimer and dispatchScheduler are the collaborators irqEntry's
// call into Go reaches through: the assembly trampoline has no way to
// carry Go pointers across the exception boundary itself, so Run
// registers them once, before InstallVectorTable and Enable, via
// SetDispatchTargets.
var (
	dispatchTimer     *Timer
	dispatchScheduler *sched.Scheduler
)

// SetDispatchTargets registers the Timer and Scheduler the installed IRQ
// vector hands control to on every tick. Must be called before
// InstallVectorTable and Enable.
func SetDispatchTargets(t *Timer, s *sched.Scheduler) {
	dispatchTimer = t
	dispatchScheduler = s
}

// irqDispatch is irqEntry's (entry_arm.s) sole call into Go: currentSP is
// the interrupted task's saved frame address, and the return value is
// the frame irqEntry should restore from. See Dispatch for the policy;
// this just supplies the registered targets Dispatch needs and that
// assembly cannot hold directly.
func irqDispatch(currentSP uintptr) uintptr {
	return Dispatch(dispatchTimer, dispatchScheduler, currentSP)
}
