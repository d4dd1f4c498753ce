package kernel

import (
	"io"

	"github.com/ktstephano/bcm283x-kernel/platform"
	"github.com/ktstephano/bcm283x-kernel/sched"
)

// defaultTickReload targets roughly a 10ms tick on a 1MHz ARM timer
// clock (the BCM283x default after the prescaler divides the APB
// clock), the same period the original's timer_init used.
const defaultTickReload = 10_000

// TaskSpec describes one task to create during Run, standing in for the
// original's two boot-time tasks: a shell task and a status-LED task.
type TaskSpec struct {
	Name     string
	Priority uint32
	Run      func()
}

// Config collects every collaborator Kernel needs. Bus, GPIO, IRQEnable,
// TimerBus, Mailbox, and Clock may all be left nil on a board with no SD
// card or no real timer (e.g. a policy-only test); Kernel skips the
// pieces it has no Bus for rather than erroring, so Config can describe
// a partial, test-sized kernel as well as a full board bring-up.
type Config struct {
	// Bus is the EMMC/SD controller's register window. Nil disables the
	// SD driver entirely.
	Bus platform.Bus
	// GPIO is optional; boards whose bootloader already configured the
	// EMMC pin alternate functions may leave it nil.
	GPIO platform.Bus
	// IRQEnable and TimerBus back the ARM timer. Both nil disables
	// preemption: Run still creates and starts tasks, but nothing ever
	// calls Scheduler.Preempt, so tasks only switch cooperatively.
	IRQEnable platform.Bus
	TimerBus  platform.Bus

	Mailbox *platform.Mailbox
	Clock   platform.Clock

	// Output is the diagnostic byte-stream sink: the UART on hardware,
	// any io.Writer under test or in the hosted simulator.
	Output io.Writer

	// TickReload is the ARM timer reload count (in timer-clock cycles)
	// programmed at Init. Defaults to defaultTickReload.
	TickReload uint32

	// NewScheduler builds the Scheduler, with whatever Switch backend
	// fits the target: sched.NewHardwareScheduler on real hardware,
	// sched.NewGoroutineScheduler under test or in the hosted simulator.
	// Kernel never picks one itself, since the choice depends on a build
	// tag (rawSwitch) the kernel package itself must stay free of to
	// remain testable with `go test`.
	NewScheduler func(log sched.Logger) *sched.Scheduler

	Tasks []TaskSpec
}

// DefaultConfig returns a Config with TickReload set to its default. All
// other fields are left zero for the caller to fill in.
func DefaultConfig() Config {
	return Config{TickReload: defaultTickReload}
}
