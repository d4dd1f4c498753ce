package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"
	"time"

	"golang.org/x/sys/unix"

	"github.com/ktstephano/bcm283x-kernel/sched"
)

// tickSleep blocks for d using a direct nanosleep syscall rather than
// the Go runtime timer wheel (time.Sleep). This simulator's tick source
// stands in for the real ARM timer peripheral's period, and
// unix.Nanosleep is the thinnest available layer between this process
// and the kernel's own clock.
func tickSleep(d time.Duration) {
	req := unix.NsecToTimespec(d.Nanoseconds())
	for {
		rem := unix.Timespec{}
		if err := unix.Nanosleep(&req, &rem); err == nil || err != unix.EINTR {
			return
		}
		req = rem
	}
}

// driveTicks owns the simulated timer: in free-run mode it calls
// engine.Tick on a fixed wall-clock period forever; in debug mode it
// instead waits on stdin for single-step commands, adapted from the
// original debug-mode command loop to tick-stepping and task-table
// inspection rather than instruction-stepping.
func driveTicks(engine *sched.GoroutineEngine, scheduler *sched.Scheduler, period time.Duration, debug bool) {
	if !debug {
		for {
			tickSleep(period)
			engine.Tick()
		}
	}

	fmt.Printf("Commands:\n\tn or next: advance one tick\n\tr or run: free-run at %s per tick\n\tlist: print the task table\n\n", period)

	reader := bufio.NewReader(os.Stdin)
	running := false
	for {
		if !running {
			fmt.Print("-> ")
			line, _ := reader.ReadString('\n')
			line = strings.ToLower(strings.TrimSpace(line))

			switch {
			case line == "n" || line == "next":
				engine.Tick()
				printSnapshot(scheduler)
			case line == "list":
				printSnapshot(scheduler)
			case line == "r" || line == "run":
				running = true
			default:
				fmt.Println("unknown command")
			}
			continue
		}

		engine.Tick()
		tickSleep(period)
	}
}

func printSnapshot(scheduler *sched.Scheduler) {
	for _, info := range scheduler.Snapshot() {
		fmt.Printf("->\t\ttask %d %q priority=%d state=%s\n", info.ID, info.Name, info.Priority, info.State)
	}
}
