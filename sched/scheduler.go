package sched

import (
	"fmt"

	"github.com/ktstephano/bcm283x-kernel/kernelerr"
)

// Switch is the primitive context-switch operation: save the caller's
// stack pointer through oldSP (skipped when oldSP is nil — the
// first-task jump has no prior context to save) and resume execution at
// newSP. It matches the original context_switch(uint32_t**, uint32_t*)
// contract. Switching implementations are injected so the scheduler's
// selection policy stays portable Go: the arm build supplies an
// assembly-backed Switch, everything else (tests, the hosted simulator)
// supplies a goroutine-backed one.
type Switch func(oldSP *uintptr, newSP uintptr)

// Scheduler owns the fixed-size task table and the round-robin selection
// policy. It is not safe for concurrent use
// from more than one CPU context without external synchronization; on
// this single-core target the only reentrant caller is the timer IRQ,
// which the irq package serializes against cooperative calls by masking
// interrupts around the critical sections that mutate task state.
type Scheduler struct {
	tasks      [MaxTasks]Task
	current    int // index into tasks, or -1 when nothing is running
	running    bool
	trampoline uint32
	ctxSwitch  Switch
	ticks      func() uint32
	log        Logger
	onCreate   func(id int, sp uintptr)
}

// Logger is the minimal sink the scheduler writes diagnostic lines to.
// kernel.Logger satisfies it; tests typically pass NopLogger{}.
type Logger interface {
	Logf(format string, args ...any)
}

// NopLogger discards every message.
type NopLogger struct{}

func (NopLogger) Logf(string, ...any) {}

// NewScheduler returns an initialized Scheduler. trampoline is the entry
// point every freshly created task's saved frame resumes into; ctxSwitch
// performs the actual register-level suspend/resume; ticks reads the
// free-running tick counter the irq package advances.
func NewScheduler(trampoline uint32, ctxSwitch Switch, ticks func() uint32, log Logger) *Scheduler {
	if log == nil {
		log = NopLogger{}
	}
	s := &Scheduler{
		current:    -1,
		trampoline: trampoline,
		ctxSwitch:  ctxSwitch,
		ticks:      ticks,
		log:        log,
	}
	s.Init()
	return s
}

// Init clears the task table. Safe to call before Start to reset a
// scheduler that was only ever used for table manipulation in a test.
func (s *Scheduler) Init() {
	for i := range s.tasks {
		s.tasks[i].reset(i)
	}
	s.current = -1
	s.running = false
}

// Create allocates the first Unused slot, builds its initial stack
// frame, and marks it Ready. It returns the new task's id.
func (s *Scheduler) Create(name string, fn TaskFunc, priority uint32) (int, error) {
	if fn == nil {
		return 0, fmt.Errorf("sched: create %q: %w", name, kernelerr.ErrInvalid)
	}

	for i := range s.tasks {
		t := &s.tasks[i]
		if t.state != Unused {
			continue
		}

		id := i
		t.reset(id)
		t.setName(name)
		t.fn = fn
		t.priority = priority
		t.state = Ready
		t.sp = buildInitialFrame(&t.stack, uint32(id), s.trampoline)
		if s.onCreate != nil {
			s.onCreate(id, t.sp)
		}
		return id, nil
	}

	return 0, fmt.Errorf("sched: create %q: %w", name, kernelerr.ErrNoSlot)
}

// taskFunc returns the entry function registered for id, used by a
// trampoline implementation to look up what to run.
func (s *Scheduler) taskFunc(id int) TaskFunc {
	if id < 0 || id >= MaxTasks {
		return nil
	}
	return s.tasks[id].fn
}

// Start marks the scheduler running and performs the first context jump
// into whichever Ready task round-robin selection picks first. With the
// assembly Switch that jump never returns; with the goroutine engine,
// Start returns as soon as the first task has been handed the CPU. If no
// task is Ready, Start returns at once without switching.
func (s *Scheduler) Start() {
	s.running = true

	next := s.findNext()
	if next < 0 {
		return
	}

	s.tasks[next].state = Running
	s.current = next
	s.ctxSwitch(nil, s.tasks[next].sp)
}

// findNext scans the task table round-robin starting just after current,
// promoting any Sleeping task whose deadline has elapsed to Ready in the
// same pass. It returns -1 if no task is Ready.
func (s *Scheduler) findNext() int {
	now := uint32(0)
	if s.ticks != nil {
		now = s.ticks()
	}

	start := s.current
	if start < 0 {
		start = MaxTasks - 1
	}

	for i := 0; i < MaxTasks; i++ {
		idx := (start + 1 + i) % MaxTasks
		t := &s.tasks[idx]

		if t.state == Sleeping && tickElapsed(now, t.wakeAt) {
			t.state = Ready
		}
		if t.state == Ready {
			return idx
		}
	}
	return -1
}

// tickElapsed reports whether now has reached or passed deadline, using
// wraparound-safe signed-difference comparison: the tick counter is a
// free-running uint32 that eventually wraps, so a plain now >= deadline
// test fails once it does.
func tickElapsed(now, deadline uint32) bool {
	return int32(now-deadline) >= 0
}

// schedule performs a single selection-and-switch step. It is a no-op if
// the scheduler is not running or the winner is already current,
// matching schedule()'s behavior of never switching to itself.
func (s *Scheduler) schedule() {
	if !s.running {
		return
	}

	next := s.findNext()
	if next < 0 || next == s.current {
		return
	}

	prev := s.current
	if prev >= 0 && s.tasks[prev].state == Running {
		s.tasks[prev].state = Ready
	}
	s.tasks[next].state = Running

	var oldSlot *uintptr
	if prev >= 0 {
		oldSlot = &s.tasks[prev].sp
	}
	s.current = next
	s.ctxSwitch(oldSlot, s.tasks[next].sp)
}

// Yield voluntarily gives up the remainder of the current task's time
// slice, equivalent to task_yield.
func (s *Scheduler) Yield() {
	s.schedule()
}

// Sleep puts the current task to sleep until at least durationTicks
// ticks from now have elapsed, then yields.
func (s *Scheduler) Sleep(durationTicks uint32) {
	if s.current < 0 {
		return
	}
	now := uint32(0)
	if s.ticks != nil {
		now = s.ticks()
	}
	t := &s.tasks[s.current]
	t.state = Sleeping
	t.wakeAt = now + durationTicks
	s.schedule()
}

// Exit terminates the current task permanently and yields. A terminated
// task's slot is never reused: the task table has no reaping operation,
// matching the original's fixed-lifetime task model.
func (s *Scheduler) Exit() {
	if s.current < 0 {
		return
	}
	s.tasks[s.current].state = Terminated
	s.schedule()
}

// Preempt is called from the timer IRQ path with the interrupted task's
// saved stack pointer and returns the stack pointer to resume: either a
// different task's (a switch occurred) or currentSP unchanged (no
// switch — the caller should resume exactly where it was interrupted).
// Unlike schedule(), Preempt never itself saves state through a pointer
// indirection: the IRQ entry stub has already pushed the interrupted
// task's full register frame onto its own stack before calling Preempt,
// so all Preempt does is record that address and hand back the next
// one.
func (s *Scheduler) Preempt(currentSP uintptr) uintptr {
	if !s.running || s.current < 0 {
		return currentSP
	}

	s.tasks[s.current].sp = currentSP
	s.tasks[s.current].state = Ready

	next := s.findNext()
	if next < 0 || next == s.current {
		if next == s.current {
			s.tasks[s.current].state = Running
		}
		return currentSP
	}

	s.tasks[next].state = Running
	s.current = next
	return s.tasks[next].sp
}

// CurrentID returns the id of the task presently marked Running, or -1
// if none is.
func (s *Scheduler) CurrentID() int {
	return s.current
}

// TaskCount returns the number of non-Unused task slots, mirroring the
// original's task_count() introspection.
func (s *Scheduler) TaskCount() int {
	n := 0
	for i := range s.tasks {
		if s.tasks[i].state != Unused {
			n++
		}
	}
	return n
}

// TaskInfo is a snapshot of one task slot, returned by Snapshot.
type TaskInfo struct {
	ID       int
	Name     string
	State    TaskState
	Priority uint32
}

// Snapshot returns a point-in-time copy of every non-Unused task's
// public fields, mirroring the original's task_list() introspection.
func (s *Scheduler) Snapshot() []TaskInfo {
	out := make([]TaskInfo, 0, MaxTasks)
	for i := range s.tasks {
		t := &s.tasks[i]
		if t.state == Unused {
			continue
		}
		out = append(out, TaskInfo{ID: t.id, Name: t.Name(), State: t.state, Priority: t.priority})
	}
	return out
}
