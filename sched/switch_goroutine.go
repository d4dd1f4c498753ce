package sched

import "sync"

// GoroutineEngine is a Switch implementation with no assembly and no
// real register save/restore: each task body runs on its own goroutine,
// and Switch is a two-party rendezvous over unbuffered channels that
// hands the single conceptual "CPU" from the caller's goroutine to the
// target's and then blocks the caller until something hands it back.
// Because only one gate is ever open at a time, the task bodies observe
// exactly the same strict one-at-a-time execution order a single-core
// stack-switching implementation would produce — which is what makes the
// round-robin and sleep/wake policy in Scheduler testable end to end
// without assembly or real hardware. It is used by the hosted simulator
// and by integration tests that need task bodies to actually run.
type GoroutineEngine struct {
	sched *Scheduler

	mu      sync.Mutex
	token   map[uintptr]int
	gate    map[int]chan struct{}
	started map[int]bool

	ticks *tickCounter
}

// Tick advances the engine's free-running tick counter by one, as if a
// timer IRQ had just fired. Tests use this to drive sleep/wake and
// round-robin fairness scenarios deterministically.
func (e *GoroutineEngine) Tick() {
	e.ticks.Advance()
}

// NewGoroutineScheduler returns a Scheduler wired to a goroutine-backed
// Switch and a free-running tick counter the caller advances with Tick.
// trampoline has no meaning for this engine (resume points are goroutine
// starts, not addresses) and is passed as 0.
func NewGoroutineScheduler(log Logger) (*Scheduler, *GoroutineEngine) {
	e := &GoroutineEngine{
		token:   make(map[uintptr]int),
		gate:    make(map[int]chan struct{}),
		started: make(map[int]bool),
	}
	ticks := &tickCounter{}
	s := NewScheduler(0, e.Switch, ticks.load, log)
	s.onCreate = e.register
	e.sched = s
	e.ticks = ticks
	return s, e
}

// tickCounter is a trivial free-running counter used when there is no
// real timer IRQ driving ticks — i.e. under the goroutine engine.
type tickCounter struct {
	mu sync.Mutex
	n  uint32
}

func (t *tickCounter) load() uint32 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.n
}

// Advance moves the tick counter forward by one, as if a timer IRQ fired.
func (t *tickCounter) Advance() {
	t.mu.Lock()
	t.n++
	t.mu.Unlock()
}

func (e *GoroutineEngine) register(id int, sp uintptr) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.token[sp] = id
	e.gate[id] = make(chan struct{})
}

func (e *GoroutineEngine) lookup(sp uintptr) (int, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	id, ok := e.token[sp]
	return id, ok
}

func (e *GoroutineEngine) ensureStarted(id int) chan struct{} {
	e.mu.Lock()
	gate := e.gate[id]
	already := e.started[id]
	e.started[id] = true
	e.mu.Unlock()

	if already {
		return gate
	}

	fn := e.sched.taskFunc(id)
	go func() {
		<-gate
		if fn != nil {
			fn()
		}
		e.sched.Exit()
	}()
	return gate
}

// Switch implements the Switch function type.
func (e *GoroutineEngine) Switch(oldSP *uintptr, newSP uintptr) {
	next, ok := e.lookup(newSP)
	if !ok {
		return
	}
	nextGate := e.ensureStarted(next)
	nextGate <- struct{}{}

	if oldSP == nil {
		return
	}
	cur, ok := e.lookup(*oldSP)
	if !ok {
		return
	}
	e.mu.Lock()
	curGate := e.gate[cur]
	e.mu.Unlock()
	<-curGate
}
