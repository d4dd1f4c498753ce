// Command gvm-sim is the hosted entry point for this kernel core: it
// builds a platform.Sim bus backed by an in-memory SD card image,
// wires a kernel.Kernel around it with a goroutine-backed scheduler,
// and runs it with simulated timer ticks instead of real hardware
// interrupts. It is the debugging harness this module ships in place
// of flashing an actual board, adapted from the original's bytecode
// single-step debugger to stepping ticks and inspecting the task
// table.
package main

import (
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ktstephano/bcm283x-kernel/kernel"
	"github.com/ktstephano/bcm283x-kernel/platform"
	"github.com/ktstephano/bcm283x-kernel/sched"
	"github.com/ktstephano/bcm283x-kernel/sd"
)

var (
	imagePath    = flag.String("image", "", "path to a raw SD card image file (created if missing, kept in memory if empty)")
	imageSectors = flag.Uint64("image-sectors", 2048, "sector count for a freshly created image")
	tickPeriod   = flag.Duration("tick", 10*time.Millisecond, "wall-clock period of one simulated timer tick")
	debug        = flag.Bool("debug", false, "enter single-step debug mode: step ticks and inspect the task table from stdin")
)

func init() {
	flag.Parse()
}

func main() {
	backing, err := loadOrCreateImage(*imagePath, *imageSectors)
	if err != nil {
		fmt.Println(err)
		os.Exit(1)
	}

	bus := platform.NewSim()
	sd.NewSimCard(bus, backing)

	var scheduler *sched.Scheduler
	var engine *sched.GoroutineEngine
	var k *kernel.Kernel

	cfg := kernel.DefaultConfig()
	cfg.Bus = bus
	cfg.Clock = platform.WallClock{}
	cfg.Output = os.Stdout
	cfg.NewScheduler = func(log sched.Logger) *sched.Scheduler {
		scheduler, engine = sched.NewGoroutineScheduler(log)
		return scheduler
	}
	cfg.Tasks = []kernel.TaskSpec{
		{Name: "shell", Priority: 1, Run: func() { shellTask(scheduler, k.Devices, k.Log) }},
		{Name: "status", Priority: 1, Run: func() { statusTask(scheduler, k.Log) }},
	}

	k, err = kernel.New(cfg)
	if err != nil {
		fmt.Println(err)
		os.Exit(1)
	}

	installImageUnmapOnSignal(backing)

	go driveTicks(engine, scheduler, *tickPeriod, *debug)

	if err := k.Run(cfg); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}

	// Under the goroutine engine Run returns once the first task has the
	// CPU; the tasks, the tick driver and the signal handler carry on in
	// their own goroutines.
	select {}
}

// installImageUnmapOnSignal unmaps (and, for a file-backed image,
// flushes) backing on SIGINT/SIGTERM before exiting, so a persistent
// (-image set) run's writes reach disk instead of being dropped with
// the process's address space.
func installImageUnmapOnSignal(backing []byte) {
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigs
		if err := munmapImage(backing); err != nil {
			fmt.Println(err)
		}
		os.Exit(0)
	}()
}
