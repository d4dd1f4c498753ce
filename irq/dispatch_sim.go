//go:build !arm

package irq

import "github.com/ktstephano/bcm283x-kernel/sched"

// SetDispatchTargets is a no-op on hosted builds: there is no real
// vector table or IRQ entry stub to hand these to. It exists so
// kernel.Run can call it unconditionally regardless of build target.
func SetDispatchTargets(t *Timer, s *sched.Scheduler) {}
