package platform

import "sync"

// WriteHook observes a write to a Sim register after it has taken effect,
// with both the previous and new values. Hooks let tests model hardware
// self-clearing bits (a soft-reset bit that the "controller" clears once
// reset completes) and status bits that flip in response to a command
// being issued, without the driver under test knowing it is talking to a
// simulation.
type WriteHook func(s *Sim, offset, old, new uint32)

// Sim is an in-memory register file used by every test in this module and
// by the hosted cmd/gvm-sim entry point. It satisfies Bus.
type Sim struct {
	mu    sync.Mutex
	regs  map[uint32]uint32
	hooks map[uint32][]WriteHook
}

// NewSim returns an empty register file; unread registers read as zero.
func NewSim() *Sim {
	return &Sim{
		regs:  make(map[uint32]uint32),
		hooks: make(map[uint32][]WriteHook),
	}
}

func (s *Sim) Read32(offset uint32) uint32 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.regs[offset]
}

func (s *Sim) Write32(offset uint32, val uint32) {
	s.mu.Lock()
	old := s.regs[offset]
	s.regs[offset] = val
	hooks := append([]WriteHook(nil), s.hooks[offset]...)
	s.mu.Unlock()

	for _, h := range hooks {
		h(s, offset, old, val)
	}
}

// Poke sets a register's value directly, bypassing any write hooks. Tests
// use it to seed initial state (e.g. a card's canned CMD8/ACMD41/CSD
// responses) before exercising the driver under test.
func (s *Sim) Poke(offset uint32, val uint32) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.regs[offset] = val
}

// OnWrite registers a hook invoked after every write to offset.
func (s *Sim) OnWrite(offset uint32, hook WriteHook) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.hooks[offset] = append(s.hooks[offset], hook)
}
