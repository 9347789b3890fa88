// Package pin provides concrete implementations of xics.Pin, the
// per-presenter output line a virtual processor's external interrupt
// input is wired to.
package pin

import "sync"

// Memory is an in-process boolean line. It is the implementation used by
// tests and by hosts where no real interrupt-injection mechanism is wired
// up (e.g. construction-time smoke checks before the real pin exists).
type Memory struct {
	mu     sync.Mutex
	raised bool
}

func (m *Memory) Raise()         { m.Set(true) }
func (m *Memory) Lower()         { m.Set(false) }
func (m *Memory) Set(level bool) { m.mu.Lock(); m.raised = level; m.mu.Unlock() }

// Raised reports the current line state. Not part of xics.Pin — it exists
// so embedding code and tests can observe what the controller did.
func (m *Memory) Raised() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.raised
}
