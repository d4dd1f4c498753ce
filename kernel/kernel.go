package kernel

import (
	"fmt"

	"github.com/ktstephano/bcm283x-kernel/block"
	"github.com/ktstephano/bcm283x-kernel/irq"
	"github.com/ktstephano/bcm283x-kernel/kernelerr"
	"github.com/ktstephano/bcm283x-kernel/sched"
	"github.com/ktstephano/bcm283x-kernel/sd"
)

// Kernel wires together every collaborator a booted system needs: the
// scheduler, the timer, the block-device registry, and (when configured)
// the SD driver. It is built once by New and driven to completion by
// Run, the kernel_main contract's Go-side counterpart.
type Kernel struct {
	Log       *Logger
	Scheduler *sched.Scheduler
	Timer     *irq.Timer
	Devices   *block.Registry
	SD        *sd.Driver
}

// New builds a Kernel from cfg. It does not touch hardware: Init on the
// SD driver, programming the timer, and creating tasks all happen in
// Run, so a caller can build a Kernel, inspect it, and decide not to run
// it (useful in tests).
func New(cfg Config) (*Kernel, error) {
	if cfg.NewScheduler == nil {
		return nil, fmt.Errorf("kernel: config has no scheduler factory: %w", kernelerr.ErrInvalid)
	}
	if cfg.Output == nil {
		return nil, fmt.Errorf("kernel: config has no diagnostic output: %w", kernelerr.ErrInvalid)
	}

	log := NewLogger(cfg.Output)

	k := &Kernel{
		Log:     log,
		Devices: block.NewRegistry(log),
	}
	k.Scheduler = cfg.NewScheduler(log)

	if cfg.TimerBus != nil && cfg.IRQEnable != nil {
		k.Timer = irq.NewTimer(cfg.TimerBus, cfg.IRQEnable)
	}

	if cfg.Bus != nil {
		k.SD = sd.NewDriver(sd.Config{
			Bus:   cfg.Bus,
			GPIO:  cfg.GPIO,
			Mbox:  cfg.Mailbox,
			Clock: cfg.Clock,
			Log:   log,
		})
	}

	return k, nil
}

// Run implements the startup contract: initialize the block device,
// create every configured task, arm the timer, unmask IRQs, and start
// the scheduler. A single top-level recover catches any fatal condition
// (a corrupt vector table reaching Go as a bad jump, the scheduler
// starting with no tasks) and turns it into a returned error rather than
// letting it unwind into the caller, the same recover()-at-the-boundary
// pattern the original wraps its own instruction loop in.
func (k *Kernel) Run(cfg Config) (err error) {
	defer func() {
		if r := recover(); r != nil {
			k.Log.Logf("kernel: fatal: %v", r)
			err = fmt.Errorf("kernel: fatal: %v: %w", r, kernelerr.ErrDeviceError)
		}
	}()

	k.Log.Logf("kernel: starting")

	if k.SD != nil {
		k.Log.Logf("kernel: initializing sd0")
		if err := k.SD.Init(); err != nil {
			return fmt.Errorf("kernel: sd init: %w", err)
		}
		if err := k.Devices.Register(k.SD); err != nil {
			return fmt.Errorf("kernel: register sd0: %w", err)
		}
	}

	if len(cfg.Tasks) == 0 {
		return fmt.Errorf("kernel: no tasks configured: %w", kernelerr.ErrInvalid)
	}
	for _, spec := range cfg.Tasks {
		if _, err := k.Scheduler.Create(spec.Name, spec.Run, spec.Priority); err != nil {
			return fmt.Errorf("kernel: create task %q: %w", spec.Name, err)
		}
	}

	if k.Timer != nil {
		reload := cfg.TickReload
		if reload == 0 {
			reload = defaultTickReload
		}
		irq.SetDispatchTargets(k.Timer, k.Scheduler)
		irq.InstallVectorTable()
		k.Log.Logf("kernel: arming timer, reload=%d", reload)
		k.Timer.Init(reload)
		irq.Enable()
	}

	k.Log.Logf("kernel: starting scheduler with %d tasks", k.Scheduler.TaskCount())
	k.Scheduler.Start()
	return nil
}
