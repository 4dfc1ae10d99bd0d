package builtin

import (
	"sync"

	"go.uber.org/atomic"

	"go.viam.com/docking/services/docking"
)

// signalMailbox is a single slot holding the most recent error signal. Writers may run on
// any goroutine; the controller drains it once per tick. A write over an unread signal
// replaces it.
type signalMailbox struct {
	mu     sync.Mutex
	signal docking.ErrorSignal
	ready  bool

	overwritten atomic.Uint64
}

func (m *signalMailbox) put(signal docking.ErrorSignal) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.ready {
		m.overwritten.Inc()
	}
	m.signal = signal
	m.ready = true
}

// take returns the pending signal, if any, and empties the slot.
func (m *signalMailbox) take() (docking.ErrorSignal, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.ready {
		return docking.ErrorSignal{}, false
	}
	m.ready = false
	return m.signal, true
}

// dropped returns how many signals were replaced before being read.
func (m *signalMailbox) dropped() uint64 {
	return m.overwritten.Load()
}
