package main

import (
	"github.com/ktstephano/bcm283x-kernel/block"
	"github.com/ktstephano/bcm283x-kernel/sched"
)

// blinkPeriodTicks and shellPeriodTicks are expressed in simulated
// timer ticks, not wall-clock time: how long a tick actually takes is
// decided by the -tick flag driving the engine's Tick calls.
const (
	blinkPeriodTicks = 50
	shellPeriodTicks = 200
)

// statusTask stands in for the original's LED-blink task: with no real
// GPIO to toggle, it logs a heartbeat every blinkPeriodTicks so a
// running simulation has visible proof of life independent of the
// shell task's slower status line.
func statusTask(s *sched.Scheduler, log sched.Logger) {
	on := false
	for {
		s.Sleep(blinkPeriodTicks)
		on = !on
		state := "off"
		if on {
			state = "on"
		}
		log.Logf("status: led %s", state)
	}
}

// shellTask stands in for the original's interactive shell task. Since
// stdin is already claimed by the debug stepper when -debug is set,
// this periodically reports the scheduler's task table and the block
// registry's devices instead of reading commands itself.
func shellTask(s *sched.Scheduler, devices *block.Registry, log sched.Logger) {
	for {
		s.Sleep(shellPeriodTicks)

		for _, info := range s.Snapshot() {
			log.Logf("shell: task %d %q priority=%d state=%s", info.ID, info.Name, info.Priority, info.State)
		}

		// The registry only exposes lookup by name, not by index; sd0 is
		// the only device this kernel ever registers.
		if devices.Count() > 0 {
			if dev, err := devices.Get("sd0"); err == nil {
				log.Logf("shell: device %q: %d sectors of %d bytes", dev.Name(), dev.SectorCount(), dev.SectorSize())
			}
		}
	}
}
